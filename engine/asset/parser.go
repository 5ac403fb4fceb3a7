package asset

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/Carmen-Shannon/kinetic-go/common"
)

// Archive container constants. The layout mirrors the GLB chunked container:
// a fixed header (magic, version, total length) followed by length-prefixed
// typed chunks, a JSON document chunk and a binary payload chunk. Each chunk
// is padded to a 4-byte boundary so typed views of the payload stay aligned;
// the padding is not counted in the chunk length.
const (
	archiveMagic   uint32 = 0x4D4E414B // "KANM" little-endian
	archiveVersion uint32 = 1

	chunkTypeJSON uint32 = 0x4E4F534A // "JSON"
	chunkTypeBin  uint32 = 0x004E4942 // "BIN\x00"

	headerSize = 12
	sampleSize = 28 // 7 float32 per joint transform

	defaultSampleRate float32 = 30
)

// archiveHeader and chunkHeader mirror the on-disk container layout. Encode
// writes them through common.StructToBytes, the same native-order
// reinterpretation the sample payload round-trips through; supported targets
// are little-endian.
type archiveHeader struct {
	Magic    uint32
	Version  uint32
	TotalLen uint32
}

type chunkHeader struct {
	Length uint32
	Type   uint32
}

// Common errors returned by the parser
var (
	errInvalidMagic        = errors.New("invalid animation archive magic number")
	errUnsupportedVersion  = errors.New("unsupported animation archive version")
	errMissingJSONChunk    = errors.New("animation archive missing JSON chunk")
	errMissingBinaryChunk  = errors.New("animation archive missing binary chunk")
	errTruncatedArchive    = errors.New("animation archive truncated")
	errMalformedDocument   = errors.New("malformed animation document")
	errPayloadSizeMismatch = errors.New("animation payload size mismatch")
)

// document is the JSON chunk schema. Sample offsets are not serialized; they
// are derived from clip order during validation so the payload layout is
// always canonical. An omitted sample rate defaults to 30 FPS.
type document struct {
	Name       string        `json:"name"`
	JointCount int           `json:"jointCount"`
	SampleRate float32       `json:"sampleRate"`
	Clips      []docClip     `json:"clips"`
	Tags       []docInterval `json:"tags,omitempty"`
	Markers    []docMarker   `json:"markers,omitempty"`
}

type docClip struct {
	Name       string `json:"name"`
	FrameCount int    `json:"frameCount"`
	Looping    bool   `json:"looping,omitempty"`
}

type docInterval struct {
	Clip      int32   `json:"clip"`
	Name      string  `json:"name"`
	StartTime float32 `json:"startTime"`
	EndTime   float32 `json:"endTime"`
}

type docMarker struct {
	Clip int32   `json:"clip"`
	Name string  `json:"name"`
	Time float32 `json:"time"`
}

// parseArchive reads and validates a complete animation archive from r.
//
// Parameters:
//   - r: reader providing the archive bytes
//
// Returns:
//   - *Asset: the parsed, validated asset
//   - error: error if the container or document is invalid
func parseArchive(r io.Reader) (*Asset, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", errTruncatedArchive, err)
	}

	magic := binary.LittleEndian.Uint32(header[0:4])
	version := binary.LittleEndian.Uint32(header[4:8])
	totalLen := binary.LittleEndian.Uint32(header[8:12])

	if magic != archiveMagic {
		return nil, errInvalidMagic
	}
	if version != archiveVersion {
		return nil, fmt.Errorf("%w: %d", errUnsupportedVersion, version)
	}
	if totalLen < headerSize {
		return nil, errTruncatedArchive
	}

	body := make([]byte, totalLen-headerSize)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("%w: %v", errTruncatedArchive, err)
	}

	var jsonChunk, binChunk []byte
	for off := 0; off < len(body); {
		if off+8 > len(body) {
			return nil, errTruncatedArchive
		}
		chunkLen := int(binary.LittleEndian.Uint32(body[off : off+4]))
		chunkType := binary.LittleEndian.Uint32(body[off+4 : off+8])
		off += 8
		if off+chunkLen > len(body) {
			return nil, errTruncatedArchive
		}
		switch chunkType {
		case chunkTypeJSON:
			jsonChunk = body[off : off+chunkLen]
		case chunkTypeBin:
			binChunk = body[off : off+chunkLen]
		}
		// Unknown chunk types are skipped for forward compatibility. Chunks
		// are padded to 4-byte boundaries (padding excluded from the chunk
		// length) so typed payload views stay aligned.
		off += chunkLen + chunkPadding(chunkLen)
	}

	if jsonChunk == nil {
		return nil, errMissingJSONChunk
	}
	if binChunk == nil {
		return nil, errMissingBinaryChunk
	}

	var doc document
	if err := json.Unmarshal(jsonChunk, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedDocument, err)
	}

	if len(binChunk)%sampleSize != 0 {
		return nil, fmt.Errorf("%w: payload length %d is not a whole number of samples", errPayloadSizeMismatch, len(binChunk))
	}
	samples := common.BytesToSlice[common.Transform](binChunk)

	// Copy the payload out of the chunk buffer so the asset owns its samples
	// and the archive bytes can be collected.
	owned := make([]common.Transform, len(samples))
	copy(owned, samples)

	a := &Asset{
		name:       doc.Name,
		version:    version,
		jointCount: doc.JointCount,
		sampleRate: common.Coalesce(doc.SampleRate, defaultSampleRate),
		clips:      make([]Clip, len(doc.Clips)),
		tags:       make([]Tag, len(doc.Tags)),
		markers:    make([]Marker, len(doc.Markers)),
		samples:    owned,
	}
	for i, c := range doc.Clips {
		a.clips[i] = Clip{Name: c.Name, FrameCount: c.FrameCount, Looping: c.Looping}
	}
	for i, t := range doc.Tags {
		a.tags[i] = Tag{Clip: t.Clip, Name: t.Name, StartTime: t.StartTime, EndTime: t.EndTime}
	}
	for i, m := range doc.Markers {
		a.markers[i] = Marker{Clip: m.Clip, Name: m.Name, Time: m.Time}
	}

	if err := a.validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// ClipData is the authoring-side description of one clip for Encode.
type ClipData struct {
	// Name is the clip identifier.
	Name string
	// Looping indicates whether playback wraps at the clip boundary.
	Looping bool
	// Samples holds the flattened frame-major joint transforms. Its length
	// must be a multiple of the archive joint count.
	Samples []common.Transform
}

// Encode serializes an animation archive. This is the authoring-side
// counterpart of the parser, used by the import pipeline and by tests and
// examples to build archives in memory.
//
// Parameters:
//   - name: the archive name
//   - jointCount: the number of joints per pose sample
//   - sampleRate: the sample rate in frames per second
//   - clips: the clip payloads, in archive order
//   - tags: the tag intervals
//   - markers: the markers
//
// Returns:
//   - []byte: the encoded archive
//   - error: error if any clip payload is inconsistent with jointCount
func Encode(name string, jointCount int, sampleRate float32, clips []ClipData, tags []Tag, markers []Marker) ([]byte, error) {
	if jointCount <= 0 {
		return nil, fmt.Errorf("%w: joint count %d", errMalformedDocument, jointCount)
	}

	doc := document{
		Name:       name,
		JointCount: jointCount,
		SampleRate: sampleRate,
		Clips:      make([]docClip, len(clips)),
	}
	var payload []common.Transform
	for i, c := range clips {
		if len(c.Samples) == 0 || len(c.Samples)%jointCount != 0 {
			return nil, fmt.Errorf("%w: clip %q has %d samples for %d joints", errPayloadSizeMismatch, c.Name, len(c.Samples), jointCount)
		}
		doc.Clips[i] = docClip{Name: c.Name, FrameCount: len(c.Samples) / jointCount, Looping: c.Looping}
		payload = append(payload, c.Samples...)
	}
	for _, t := range tags {
		doc.Tags = append(doc.Tags, docInterval{Clip: t.Clip, Name: t.Name, StartTime: t.StartTime, EndTime: t.EndTime})
	}
	for _, m := range markers {
		doc.Markers = append(doc.Markers, docMarker{Clip: m.Clip, Name: m.Name, Time: m.Time})
	}

	jsonChunk, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode animation document: %w", err)
	}
	binChunk := common.SliceToBytes(payload)
	jsonPad := chunkPadding(len(jsonChunk))
	binPad := chunkPadding(len(binChunk))

	total := headerSize + 8 + len(jsonChunk) + jsonPad + 8 + len(binChunk) + binPad
	buf := bytes.NewBuffer(make([]byte, 0, total))

	var pad [3]byte
	header := archiveHeader{Magic: archiveMagic, Version: archiveVersion, TotalLen: uint32(total)}
	buf.Write(common.StructToBytes(&header))

	chunk := chunkHeader{Length: uint32(len(jsonChunk)), Type: chunkTypeJSON}
	buf.Write(common.StructToBytes(&chunk))
	buf.Write(jsonChunk)
	buf.Write(pad[:jsonPad])

	chunk = chunkHeader{Length: uint32(len(binChunk)), Type: chunkTypeBin}
	buf.Write(common.StructToBytes(&chunk))
	buf.Write(binChunk)
	buf.Write(pad[:binPad])

	return buf.Bytes(), nil
}

// chunkPadding returns the byte count that rounds a chunk of length n up to
// the next 4-byte boundary.
func chunkPadding(n int) int {
	return (4 - n%4) % 4
}
