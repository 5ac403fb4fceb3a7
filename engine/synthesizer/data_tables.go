package synthesizer

import (
	"github.com/Carmen-Shannon/kinetic-go/common"
	"github.com/Carmen-Shannon/kinetic-go/engine/asset"
	"github.com/Carmen-Shannon/kinetic-go/engine/memory"
)

// clipEntry is the arena-resident index record for one clip: where its
// samples start in the flattened sample region and how many frames it holds.
type clipEntry struct {
	frameCount   int32
	sampleOffset int32
	looping      uint32
}

// dataTables owns the arena copies of the asset's animation content: a
// per-clip index and the flattened joint-transform samples. All sampling
// during update reads from these regions, never from the asset, so the asset
// can be shared across synthesizers without aliasing their blocks.
type dataTables struct {
	clips      []clipEntry
	samples    []common.Transform
	jointCount int
	sampleRate float32
}

// reserveDataTables declares the table regions on the layout. The footprint
// is proportional to the asset's clip and sample counts.
func reserveDataTables(l *memory.Layout, a *asset.Asset) {
	l.Reserve(memory.OfSlice[clipEntry](a.NumClips()))
	l.Reserve(memory.OfSlice[common.Transform](a.SampleCount()))
}

// placeDataTables carves the table regions out of the block and fills them
// from the asset. Must be called in the same order reserveDataTables declared.
func placeDataTables(b *memory.Block, a *asset.Asset) dataTables {
	d := dataTables{
		clips:      memory.PlaceSlice[clipEntry](b, a.NumClips()),
		samples:    memory.PlaceSlice[common.Transform](b, a.SampleCount()),
		jointCount: a.JointCount(),
		sampleRate: a.SampleRate(),
	}

	offset := 0
	for i := 0; i < a.NumClips(); i++ {
		c, _ := a.Clip(i)
		looping := uint32(0)
		if c.Looping {
			looping = 1
		}
		d.clips[i] = clipEntry{
			frameCount:   int32(c.FrameCount),
			sampleOffset: int32(offset),
			looping:      looping,
		}
		offset += copy(d.samples[offset:], a.ClipSamples(i))
	}
	return d
}

// clipDuration returns the playable duration of the clip in seconds.
func (d *dataTables) clipDuration(clip int32) float32 {
	c := d.clips[clip]
	if c.frameCount < 2 {
		return 0
	}
	return float32(c.frameCount-1) / d.sampleRate
}

// frameAt maps a clip-local time to a bracketing frame pair: the base frame
// index and the interpolation factor toward the next frame. Times past the
// clip end clamp to the final frame.
func (d *dataTables) frameAt(clip int32, t float32) (int32, float32) {
	c := d.clips[clip]
	if t <= 0 {
		return 0, 0
	}
	pos := t * d.sampleRate
	frame := int32(pos)
	if frame >= c.frameCount-1 {
		return c.frameCount - 1, 0
	}
	return frame, pos - float32(frame)
}

// sample writes the interpolated joint pose of the clip at clip-local time t
// into out, which must hold jointCount transforms. Translation interpolates
// linearly, rotation via normalized lerp along the shortest arc.
func (d *dataTables) sample(clip int32, t float32, out []common.Transform) {
	c := d.clips[clip]
	frame, alpha := d.frameAt(clip, t)

	f0 := int(c.sampleOffset) + int(frame)*d.jointCount
	if alpha == 0 {
		copy(out, d.samples[f0:f0+d.jointCount])
		return
	}

	f1 := f0 + d.jointCount
	for j := 0; j < d.jointCount; j++ {
		a := d.samples[f0+j]
		b := d.samples[f1+j]
		out[j] = common.Transform{
			Translation: common.Vec3Lerp(a.Translation, b.Translation, alpha),
			Rotation:    common.QuatNlerp(a.Rotation, b.Rotation, alpha),
		}
	}
}
