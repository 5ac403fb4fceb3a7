package synthesizer

import (
	"github.com/Carmen-Shannon/kinetic-go/common"
	"github.com/Carmen-Shannon/kinetic-go/engine/asset"
	"github.com/Carmen-Shannon/kinetic-go/engine/memory"
)

// poseGenState is the arena-resident blend state of the pose generator.
type poseGenState struct {
	blendDuration  float32
	blendRemaining float32
	blending       uint32
}

// poseGenerator produces the skeletal pose each frame: it samples the active
// clip into the current pose buffer and, while a transition is in flight,
// cross-fades from a snapshot of the pose taken at transition start. Both
// joint buffers live in the arena block.
type poseGenerator struct {
	state      *poseGenState
	current    []common.Transform
	transition []common.Transform
	tables     *dataTables
}

// reservePoseGenerator declares the blend state and the two joint pose
// buffers on the layout.
func reservePoseGenerator(l *memory.Layout, a *asset.Asset) {
	l.Reserve(memory.Of[poseGenState]())
	l.Reserve(memory.OfSlice[common.Transform](a.JointCount()))
	l.Reserve(memory.OfSlice[common.Transform](a.JointCount()))
}

// placePoseGenerator carves the pose regions and wires the generator to the
// data tables it samples from.
func placePoseGenerator(b *memory.Block, a *asset.Asset, tables *dataTables, blendDuration float32) poseGenerator {
	p := poseGenerator{
		state:      memory.Place[poseGenState](b),
		current:    memory.PlaceSlice[common.Transform](b, a.JointCount()),
		transition: memory.PlaceSlice[common.Transform](b, a.JointCount()),
		tables:     tables,
	}
	p.state.blendDuration = blendDuration
	for i := range p.current {
		p.current[i] = common.TransformIdentity()
		p.transition[i] = common.TransformIdentity()
	}
	return p
}

// beginTransition snapshots the current pose as the cross-fade source and
// restarts the blend clock. With a zero blend duration transitions are
// instantaneous cuts.
func (p *poseGenerator) beginTransition() {
	if p.state.blendDuration <= 0 {
		return
	}
	copy(p.transition, p.current)
	p.state.blendRemaining = p.state.blendDuration
	p.state.blending = 1
}

// blendWeight returns the contribution weight of the active clip: 1 when no
// transition is in flight, ramping from 0 to 1 across a transition.
func (p *poseGenerator) blendWeight() float32 {
	if p.state.blending == 0 {
		return 1
	}
	return 1 - p.state.blendRemaining/p.state.blendDuration
}

// update samples the active clip at samplingTime into the current pose and
// resolves any in-flight cross-fade. Root motion is carried by the root
// transform, not the joint pose, so root is only consumed by marshalling.
func (p *poseGenerator) update(clip int32, samplingTime, deltaTime float32) {
	p.tables.sample(clip, samplingTime, p.current)

	if p.state.blending == 0 {
		return
	}
	alpha := p.blendWeight()
	for i := range p.current {
		p.current[i] = common.Transform{
			Translation: common.Vec3Lerp(p.transition[i].Translation, p.current[i].Translation, alpha),
			Rotation:    common.QuatNlerp(p.transition[i].Rotation, p.current[i].Rotation, alpha),
		}
	}
	p.state.blendRemaining -= deltaTime
	if p.state.blendRemaining <= 0 {
		p.state.blendRemaining = 0
		p.state.blending = 0
	}
}

// pose returns the current joint pose. The slice aliases the arena block and
// is valid until the next update or the block's release.
func (p *poseGenerator) pose() []common.Transform {
	return p.current
}

// marshalPose flattens the current pose into column-major joint matrices laid
// out back to back, ready for buffer upload.
func (p *poseGenerator) marshalPose(root common.Transform) []byte {
	matrices := make([][16]float32, len(p.current))
	for i, t := range p.current {
		matrices[i] = root.Mul(t).Matrix()
	}
	return common.SliceToBytes(matrices)
}
