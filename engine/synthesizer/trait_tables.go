package synthesizer

import (
	"github.com/Carmen-Shannon/kinetic-go/engine/asset"
	"github.com/Carmen-Shannon/kinetic-go/engine/memory"
)

// tagEntry is the arena-resident form of a tag interval. Names are interned
// heap-side; the entry carries an index into the name table since strings
// cannot live inside the block.
type tagEntry struct {
	clip  int32
	name  int32
	start float32
	end   float32
}

// markerEntry is the arena-resident form of a marker.
type markerEntry struct {
	clip int32
	name int32
	time float32
}

// TagHit is one tag interval covering a queried clip time.
type TagHit struct {
	Name      string
	StartTime float32
	EndTime   float32
}

// MarkerHit is the next marker at or after a queried clip time.
type MarkerHit struct {
	Name string
	Time float32
}

// traitTables holds the semantic annotations of the asset in arena regions
// for interval and point queries against clip-local time.
type traitTables struct {
	tags        []tagEntry
	markers     []markerEntry
	tagNames    []string
	markerNames []string
}

// reserveTraitTables declares the annotation regions on the layout. Assets
// without tags or markers reserve nothing; placement mirrors the same
// conditions so the region order stays aligned.
func reserveTraitTables(l *memory.Layout, a *asset.Asset) {
	if n := len(a.Tags()); n > 0 {
		l.Reserve(memory.OfSlice[tagEntry](n))
	}
	if n := len(a.Markers()); n > 0 {
		l.Reserve(memory.OfSlice[markerEntry](n))
	}
}

// placeTraitTables carves the annotation regions and fills them from the
// asset, interning names heap-side.
func placeTraitTables(b *memory.Block, a *asset.Asset) traitTables {
	var t traitTables

	if tags := a.Tags(); len(tags) > 0 {
		t.tags = memory.PlaceSlice[tagEntry](b, len(tags))
		t.tagNames = make([]string, len(tags))
		for i, tag := range tags {
			t.tagNames[i] = tag.Name
			t.tags[i] = tagEntry{
				clip:  tag.Clip,
				name:  int32(i),
				start: tag.StartTime,
				end:   tag.EndTime,
			}
		}
	}
	if markers := a.Markers(); len(markers) > 0 {
		t.markers = memory.PlaceSlice[markerEntry](b, len(markers))
		t.markerNames = make([]string, len(markers))
		for i, m := range markers {
			t.markerNames[i] = m.Name
			t.markers[i] = markerEntry{
				clip: m.Clip,
				name: int32(i),
				time: m.Time,
			}
		}
	}
	return t
}

// tagsAt returns every tag interval of the clip covering clip-local time t.
// Interval coverage is [start, end): a time equal to an interval's end falls
// outside it.
func (t *traitTables) tagsAt(clip int32, time float32) []TagHit {
	var hits []TagHit
	for _, e := range t.tags {
		if e.clip != clip {
			continue
		}
		if time >= e.start && time < e.end {
			hits = append(hits, TagHit{
				Name:      t.tagNames[e.name],
				StartTime: e.start,
				EndTime:   e.end,
			})
		}
	}
	return hits
}

// nextMarker returns the earliest marker of the clip at or after clip-local
// time t.
func (t *traitTables) nextMarker(clip int32, time float32) (MarkerHit, bool) {
	var best MarkerHit
	found := false
	for _, e := range t.markers {
		if e.clip != clip || e.time < time {
			continue
		}
		if !found || e.time < best.Time {
			best = MarkerHit{Name: t.markerNames[e.name], Time: e.time}
			found = true
		}
	}
	return best, found
}
