package synthesizer

import (
	"bytes"
	"testing"

	"github.com/Carmen-Shannon/kinetic-go/common"
	"github.com/Carmen-Shannon/kinetic-go/engine/asset"
	"github.com/stretchr/testify/require"
)

const (
	testJointCount = 2
	testSampleRate = float32(30)
)

// newTestLoader builds an in-memory archive with two clips: "walk" (31
// frames, 1.0s) where every joint's x translation equals its frame index, and
// "run" (16 frames, 0.5s) of identity poses. Clip 0 carries a tag over its
// full duration and a marker at 0.5s.
func newTestLoader(t *testing.T) asset.Loader {
	t.Helper()

	walk := make([]common.Transform, 0, 31*testJointCount)
	for f := 0; f < 31; f++ {
		for j := 0; j < testJointCount; j++ {
			tr := common.TransformIdentity()
			tr.Translation[0] = float32(f)
			walk = append(walk, tr)
		}
	}
	run := make([]common.Transform, 16*testJointCount)
	for i := range run {
		run[i] = common.TransformIdentity()
	}

	data, err := asset.Encode("fixture", testJointCount, testSampleRate,
		[]asset.ClipData{
			{Name: "walk", Looping: true, Samples: walk},
			{Name: "run", Samples: run},
		},
		[]asset.Tag{{Clip: 0, Name: "locomotion", StartTime: 0, EndTime: 1.0}},
		[]asset.Marker{{Clip: 0, Name: "footstep", Time: 0.5}},
	)
	require.NoError(t, err)

	ldr := asset.NewLoader()
	_, err = ldr.LoadReader("fixture", bytes.NewReader(data))
	require.NoError(t, err)
	return ldr
}

func newTestSynthesizer(t *testing.T, options ...BuilderOption) Synthesizer {
	t.Helper()
	s, err := New(newTestLoader(t), "fixture", common.TransformIdentity(), options...)
	require.NoError(t, err)
	t.Cleanup(s.Release)
	return s
}

func TestNewRequiresLoadedAsset(t *testing.T) {
	_, err := New(asset.NewLoader(), "missing", common.TransformIdentity())
	require.Error(t, err)
}

func TestNewCompletesArenaBlock(t *testing.T) {
	s := newTestSynthesizer(t)
	require.Greater(t, s.BlockSize(), 0)
	require.Len(t, s.Pose(), testJointCount)
	require.Equal(t, int64(-1), s.FrameCount())
	require.Equal(t, int64(-1), s.LastProcessedFrameCount())
}

func TestUpdateBeforeFrameCounterInitialized(t *testing.T) {
	s := newTestSynthesizer(t)
	require.NoError(t, s.Play(0, true))

	require.False(t, s.Update(0.1))
	require.Equal(t, float32(0), s.SamplingTime())
	require.Equal(t, int64(-1), s.LastProcessedFrameCount())
	require.Equal(t, common.TransformIdentity(), s.RootDeltaTransform())
}

func TestUpdateProcessesEachFrameExactlyOnce(t *testing.T) {
	s := newTestSynthesizer(t)
	require.NoError(t, s.Play(0, true))
	s.SetDesiredVelocity([3]float32{1, 0, 0})
	s.SetFrameCount(0)

	require.True(t, s.Update(0.1))
	require.Equal(t, int64(0), s.LastProcessedFrameCount())
	afterFirst := s.SamplingTime()
	root := s.RootTransform()

	// Same external frame: no state may move, including the root.
	require.False(t, s.Update(0.1))
	require.Equal(t, afterFirst, s.SamplingTime())
	require.Equal(t, root, s.RootTransform())
	require.Equal(t, common.TransformIdentity(), s.RootDeltaTransform())

	s.SetFrameCount(1)
	require.True(t, s.Update(0.1))
	require.Equal(t, int64(1), s.LastProcessedFrameCount())
}

func TestUpdatePanicsOnNonPositiveDeltaTime(t *testing.T) {
	s := newTestSynthesizer(t)
	require.NoError(t, s.Play(0, true))
	s.SetFrameCount(0)

	require.Panics(t, func() { s.Update(0) })
}

func TestSetFrameCountMustBeMonotonic(t *testing.T) {
	s := newTestSynthesizer(t)
	s.SetFrameCount(5)
	require.Panics(t, func() { s.SetFrameCount(4) })
}

func TestUpdateWithoutActiveClipProducesNoPose(t *testing.T) {
	s := newTestSynthesizer(t)
	s.SetFrameCount(0)
	require.False(t, s.Update(0.1))
	require.Equal(t, int64(0), s.LastProcessedFrameCount())
}

func TestTimeIsMonotonicAndLoopingWraps(t *testing.T) {
	s := newTestSynthesizer(t)
	require.NoError(t, s.Play(0, true)) // 1.0s looping clip

	lastTotal := float32(0)
	for frame := int64(0); frame < 8; frame++ {
		s.SetFrameCount(frame)
		require.True(t, s.Update(0.3))

		require.GreaterOrEqual(t, s.Time(), lastTotal)
		lastTotal = s.Time()
		require.GreaterOrEqual(t, s.SamplingTime(), float32(0))
		require.Less(t, s.SamplingTime(), float32(1.0))
	}
	require.InDelta(t, 2.4, float64(s.Time()), 1e-5)
}

func TestOneShotClampsAtClipEnd(t *testing.T) {
	s := newTestSynthesizer(t)
	require.NoError(t, s.Play(1, false)) // 0.5s one-shot clip

	for frame := int64(0); frame < 4; frame++ {
		s.SetFrameCount(frame)
		require.True(t, s.Update(0.2))
	}
	require.InDelta(t, 0.5, float64(s.SamplingTime()), 1e-6)
}

func TestPoseSamplesActiveClip(t *testing.T) {
	s := newTestSynthesizer(t)
	require.NoError(t, s.Play(0, true))

	// 0.1s at 30Hz lands on frame 3 of the walk clip, whose joints carry
	// their frame index as x translation.
	s.SetFrameCount(0)
	require.True(t, s.Update(0.1))

	pose := s.Pose()
	require.Len(t, pose, testJointCount)
	require.InDelta(t, 3.0, float64(pose[0].Translation[0]), 1e-3)
	require.InDelta(t, 3.0, float64(pose[1].Translation[0]), 1e-3)
}

func TestTrajectoryDeltaIntegratesSteering(t *testing.T) {
	s := newTestSynthesizer(t)
	require.NoError(t, s.Play(0, true))
	s.SetDesiredVelocity([3]float32{1, 0, 0})
	s.SetFrameCount(0)

	require.True(t, s.Update(0.25))

	delta := s.RootDeltaTransform()
	require.InDelta(t, 0.25, float64(delta.Translation[0]), 1e-6)
	require.InDelta(t, 0.25, float64(s.RootTransform().Translation[0]), 1e-6)
}

func TestTrajectoryWindowTracksRecentRoots(t *testing.T) {
	s := newTestSynthesizer(t, WithTrajectoryWindow(4))
	require.NoError(t, s.Play(0, true))
	s.SetDesiredVelocity([3]float32{1, 0, 0})

	require.Equal(t, 4, s.TrajectoryWindowLen())
	for frame := int64(0); frame < 4; frame++ {
		s.SetFrameCount(frame)
		require.True(t, s.Update(0.5))
	}

	// Roots advance 0.5 units per frame; the window holds the last four in
	// oldest-first order.
	for i := 0; i < 4; i++ {
		require.InDelta(t, 0.5*float64(i+1), float64(s.TrajectorySample(i).Translation[0]), 1e-5)
	}
}

func TestRootRotationStaysUnitOverManyFrames(t *testing.T) {
	s := newTestSynthesizer(t)
	require.NoError(t, s.Play(0, true))
	s.SetDesiredVelocity([3]float32{0, 0, 1})
	s.SetDesiredTurnRate(1.5)

	for frame := int64(0); frame < 500; frame++ {
		s.SetFrameCount(frame)
		require.True(t, s.Update(0.016))
	}
	require.InDelta(t, 1.0, float64(common.QuatMagnitude(s.RootTransform().Rotation)), 1e-4)
}

func TestCurrentTagsAndNextMarker(t *testing.T) {
	s := newTestSynthesizer(t)
	require.NoError(t, s.Play(0, true))
	s.SetFrameCount(0)
	require.True(t, s.Update(0.1))

	tags := s.CurrentTags()
	require.Len(t, tags, 1)
	require.Equal(t, "locomotion", tags[0].Name)

	marker, ok := s.NextMarker()
	require.True(t, ok)
	require.Equal(t, "footstep", marker.Name)
	require.Equal(t, float32(0.5), marker.Time)
}

func TestHistoryRecordsProcessedFrames(t *testing.T) {
	s := newTestSynthesizer(t, WithHistoryRetention(10))
	require.NoError(t, s.Play(0, true))

	for frame := int64(0); frame < 3; frame++ {
		s.SetFrameCount(frame)
		require.True(t, s.Update(0.1))
	}

	recs := s.History().Records()
	require.Len(t, recs, 1)
	require.Equal(t, "walk", recs[0].AnimationName())
	require.Equal(t, 3, recs[0].FrameCount())
	require.Equal(t, float32(1), recs[0].FrameAt(0).Weight)

	// Frames land in time-ascending order.
	for i := 1; i < recs[0].FrameCount(); i++ {
		require.Greater(t, recs[0].FrameAt(i).EndTime, recs[0].FrameAt(i-1).EndTime)
	}
}

func TestBlendToCrossFades(t *testing.T) {
	s := newTestSynthesizer(t, WithBlendDuration(0.2), WithHistoryRetention(10))
	require.NoError(t, s.Play(0, true))
	s.SetFrameCount(0)
	require.True(t, s.Update(0.1))

	require.NoError(t, s.BlendTo(1, true))
	require.Len(t, s.History().Records(), 2)
	require.Equal(t, float32(0), s.SamplingTime())

	// Mid-fade frames carry fractional weights on both records.
	s.SetFrameCount(1)
	require.True(t, s.Update(0.1))

	recs := s.History().Records()
	incoming := recs[0] // newest sequence carries the highest rank
	outgoing := recs[1]
	require.Equal(t, "run", incoming.AnimationName())
	require.Equal(t, "walk", outgoing.AnimationName())

	lastIn := incoming.FrameAt(incoming.FrameCount() - 1)
	lastOut := outgoing.FrameAt(outgoing.FrameCount() - 1)
	require.Less(t, lastIn.Weight, float32(1))
	require.InDelta(t, 1.0, float64(lastIn.Weight+lastOut.Weight), 1e-5)

	// Run past the blend window; the outgoing record is released and the
	// incoming clip owns the pose again.
	for frame := int64(2); frame < 6; frame++ {
		s.SetFrameCount(frame)
		require.True(t, s.Update(0.1))
	}
	recs = s.History().Records()
	require.Equal(t, "run", recs[0].AnimationName())
	latest := recs[0].FrameAt(recs[0].FrameCount() - 1)
	require.Equal(t, float32(1), latest.Weight)
}

func TestPlayRejectsInvalidClip(t *testing.T) {
	s := newTestSynthesizer(t)
	require.Error(t, s.Play(-1, false))
	require.Error(t, s.Play(2, false))
	require.Error(t, s.BlendTo(7, false))
}

func TestSetSpeedScalesPlayback(t *testing.T) {
	s := newTestSynthesizer(t)
	require.NoError(t, s.Play(0, true))
	s.SetSpeed(2)
	s.SetFrameCount(0)
	require.True(t, s.Update(0.1))

	require.InDelta(t, 0.2, float64(s.SamplingTime()), 1e-6)
	require.Panics(t, func() { s.SetSpeed(0) })
}

func TestUseAfterReleasePanics(t *testing.T) {
	s := newTestSynthesizer(t)
	s.Release()

	require.Panics(t, func() { s.Update(0.1) })
	require.Panics(t, func() { s.RootTransform() })
	require.NotPanics(t, s.Release)
}

func TestMarshalPoseSizeMatchesJointMatrices(t *testing.T) {
	s := newTestSynthesizer(t)
	require.NoError(t, s.Play(0, true))
	s.SetFrameCount(0)
	require.True(t, s.Update(0.1))

	packed := s.MarshalPose()
	require.Len(t, packed, testJointCount*16*4)
}

func TestTaskGraphRejectsBadWiring(t *testing.T) {
	noop := func() error { return nil }
	require.Panics(t, func() {
		newTaskGraph(1, []graphNode{
			{name: "a", deps: []string{"b"}, run: noop},
			{name: "b", deps: []string{"a"}, run: noop},
		})
	})
	require.Panics(t, func() {
		newTaskGraph(1, []graphNode{{name: "a", deps: []string{"ghost"}, run: noop}})
	})
	require.Panics(t, func() {
		newTaskGraph(1, []graphNode{{name: "a", run: noop}, {name: "a", run: noop}})
	})
}
