package asset

import (
	"fmt"

	"github.com/Carmen-Shannon/kinetic-go/common"
)

// Clip describes one animation sequence inside an asset: a run of sampled
// joint poses at the asset's sample rate.
type Clip struct {
	// Name is the clip identifier from the authoring pipeline.
	Name string
	// FrameCount is the number of sampled frames in the clip.
	FrameCount int
	// Looping indicates whether playback wraps at the clip boundary.
	Looping bool

	// sampleOffset is the index of the clip's first transform inside the
	// asset's flattened sample array.
	sampleOffset int
}

// Tag is a named interval of clip-local time carrying semantic meaning
// (e.g. "locomotion", "idle"). Tags drive trait-table queries.
type Tag struct {
	// Clip is the index of the clip the tag annotates.
	Clip int32
	// Name is the tag identifier.
	Name string
	// StartTime and EndTime bound the tagged interval in clip-local seconds.
	StartTime, EndTime float32
}

// Marker is a named point of clip-local time (e.g. "footstep_left").
type Marker struct {
	// Clip is the index of the clip the marker annotates.
	Clip int32
	// Name is the marker identifier.
	Name string
	// Time is the marker position in clip-local seconds.
	Time float32
}

// Asset is an immutable, versioned animation archive: clip metadata,
// tag/marker metadata, and the flattened joint-transform sample payload.
// The engine consumes it read-only; subsystems derive their memory
// requirements and initial state from it.
type Asset struct {
	name       string
	version    uint32
	jointCount int
	sampleRate float32
	clips      []Clip
	tags       []Tag
	markers    []Marker
	samples    []common.Transform
}

// Name returns the archive name.
//
// Returns:
//   - string: the archive name
func (a *Asset) Name() string {
	return a.name
}

// Version returns the archive format version.
//
// Returns:
//   - uint32: the format version
func (a *Asset) Version() uint32 {
	return a.version
}

// JointCount returns the number of skeleton joints each pose sample carries.
//
// Returns:
//   - int: the joint count
func (a *Asset) JointCount() int {
	return a.jointCount
}

// SampleRate returns the authoring sample rate in frames per second.
//
// Returns:
//   - float32: the sample rate
func (a *Asset) SampleRate() float32 {
	return a.sampleRate
}

// NumClips returns the number of clips in the archive.
//
// Returns:
//   - int: the clip count
func (a *Asset) NumClips() int {
	return len(a.clips)
}

// Clip returns the clip at index i.
//
// Parameters:
//   - i: the clip index
//
// Returns:
//   - Clip: the clip metadata
//   - bool: false if i is out of range
func (a *Asset) Clip(i int) (Clip, bool) {
	if i < 0 || i >= len(a.clips) {
		return Clip{}, false
	}
	return a.clips[i], true
}

// ClipDuration returns the playable duration of clip i in seconds. A clip
// with fewer than two frames has zero duration.
//
// Parameters:
//   - i: the clip index
//
// Returns:
//   - float32: the clip duration in seconds
func (a *Asset) ClipDuration(i int) float32 {
	c, ok := a.Clip(i)
	if !ok || c.FrameCount < 2 || a.sampleRate <= 0 {
		return 0
	}
	return float32(c.FrameCount-1) / a.sampleRate
}

// ClipSamples returns the flattened joint-transform samples of clip i, laid
// out frame-major: frame f's joints occupy [f*jointCount, (f+1)*jointCount).
// The returned slice aliases the asset payload and must not be modified.
//
// Parameters:
//   - i: the clip index
//
// Returns:
//   - []common.Transform: the clip's sample run, or nil if i is out of range
func (a *Asset) ClipSamples(i int) []common.Transform {
	c, ok := a.Clip(i)
	if !ok {
		return nil
	}
	n := c.FrameCount * a.jointCount
	return a.samples[c.sampleOffset : c.sampleOffset+n]
}

// Tags returns all tag intervals in the archive. Read-only.
//
// Returns:
//   - []Tag: the tag metadata
func (a *Asset) Tags() []Tag {
	return a.tags
}

// Markers returns all markers in the archive. Read-only.
//
// Returns:
//   - []Marker: the marker metadata
func (a *Asset) Markers() []Marker {
	return a.markers
}

// SampleCount returns the total number of joint-transform samples across all
// clips.
//
// Returns:
//   - int: the total sample count
func (a *Asset) SampleCount() int {
	return len(a.samples)
}

// validate checks cross-references between the metadata and the payload.
func (a *Asset) validate() error {
	if a.jointCount <= 0 {
		return fmt.Errorf("%w: joint count %d", errMalformedDocument, a.jointCount)
	}
	if a.sampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %g", errMalformedDocument, a.sampleRate)
	}
	total := 0
	for i := range a.clips {
		if a.clips[i].FrameCount <= 0 {
			return fmt.Errorf("%w: clip %d has frame count %d", errMalformedDocument, i, a.clips[i].FrameCount)
		}
		a.clips[i].sampleOffset = total
		total += a.clips[i].FrameCount * a.jointCount
	}
	if total != len(a.samples) {
		return fmt.Errorf("%w: document requires %d samples, payload holds %d", errPayloadSizeMismatch, total, len(a.samples))
	}
	for _, t := range a.tags {
		if int(t.Clip) < 0 || int(t.Clip) >= len(a.clips) {
			return fmt.Errorf("%w: tag %q references clip %d", errMalformedDocument, t.Name, t.Clip)
		}
	}
	for _, m := range a.markers {
		if int(m.Clip) < 0 || int(m.Clip) >= len(a.clips) {
			return fmt.Errorf("%w: marker %q references clip %d", errMalformedDocument, m.Name, m.Clip)
		}
	}
	return nil
}
