package synthesizer

import (
	"github.com/Carmen-Shannon/kinetic-go/common"
	"github.com/Carmen-Shannon/kinetic-go/engine/memory"
)

// trajectoryState is the arena-resident steering state of the trajectory
// model.
type trajectoryState struct {
	desiredVelocity [3]float32
	desiredTurnRate float32
}

// trajectoryModel converts steering input into per-frame root-motion deltas
// and keeps a fixed window of recent root transforms in the arena for
// prediction queries. Index 0 is the oldest sample, the last index the most
// recent root.
type trajectoryModel struct {
	state  *trajectoryState
	window []common.Transform
}

// reserveTrajectoryModel declares the steering state and the sample window on
// the layout.
func reserveTrajectoryModel(l *memory.Layout, windowLen int) {
	l.Reserve(memory.Of[trajectoryState]())
	l.Reserve(memory.OfSlice[common.Transform](windowLen))
}

// placeTrajectoryModel carves the trajectory regions and seeds the window
// with the initial root transform.
func placeTrajectoryModel(b *memory.Block, windowLen int, initialRoot common.Transform) trajectoryModel {
	t := trajectoryModel{
		state:  memory.Place[trajectoryState](b),
		window: memory.PlaceSlice[common.Transform](b, windowLen),
	}
	for i := range t.window {
		t.window[i] = initialRoot
	}
	return t
}

// setDesiredVelocity records the steering velocity in root-local space.
func (t *trajectoryModel) setDesiredVelocity(v [3]float32) {
	t.state.desiredVelocity = v
}

// setDesiredTurnRate records the steering yaw rate in radians per second.
func (t *trajectoryModel) setDesiredTurnRate(radiansPerSecond float32) {
	t.state.desiredTurnRate = radiansPerSecond
}

// deltaTransform integrates the current steering state over deltaTime into a
// root-local motion delta: translation along the desired velocity and a yaw
// rotation about the up axis.
func (t *trajectoryModel) deltaTransform(deltaTime float32) common.Transform {
	return common.Transform{
		Translation: common.Vec3Scale(t.state.desiredVelocity, deltaTime),
		Rotation:    common.QuatFromAxisAngle([3]float32{0, 1, 0}, t.state.desiredTurnRate*deltaTime),
	}
}

// update shifts the sample window and records the new root at the back.
// The delta and elapsed time are part of the update contract for prediction
// models that integrate rather than record; the windowed model only needs
// the resulting root.
func (t *trajectoryModel) update(root common.Transform, _ common.Transform, _ float32) {
	copy(t.window, t.window[1:])
	t.window[len(t.window)-1] = root
}

// sampleAt returns the window sample at index i, where 0 is the oldest.
func (t *trajectoryModel) sampleAt(i int) common.Transform {
	return t.window[i]
}

// windowLen returns the fixed length of the sample window.
func (t *trajectoryModel) windowLen() int {
	return len(t.window)
}
