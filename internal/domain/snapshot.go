package domain

import (
	"slices"
	"sort"
)

// Snapshot is the complete Store at one instant: every bundle keyed by entity
// id plus the active entity id.
type Snapshot struct {
	Bundles  map[string]*EntityBundle
	ActiveID string
}

// IDs returns the bundle ids in iteration order. Ids are time ordered, so the
// ascending order is also creation order.
func (s *Snapshot) IDs() []string {
	ids := make([]string, 0, len(s.Bundles))
	for id := range s.Bundles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// FirstID returns the first id in iteration order, or "" for an empty snapshot.
func (s *Snapshot) FirstID() string {
	ids := s.IDs()
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}

// EnsureActive repoints ActiveID at an existing bundle when it no longer
// names one. It reports whether ActiveID changed.
func (s *Snapshot) EnsureActive() bool {
	if _, ok := s.Bundles[s.ActiveID]; ok {
		return false
	}
	first := s.FirstID()
	if first == s.ActiveID {
		return false
	}
	s.ActiveID = first
	return true
}

// Active returns the active bundle, or nil if the snapshot is empty.
func (s *Snapshot) Active() *EntityBundle {
	return s.Bundles[s.ActiveID]
}

func (s *Snapshot) Clone() *Snapshot {
	out := &Snapshot{
		Bundles:  make(map[string]*EntityBundle, len(s.Bundles)),
		ActiveID: s.ActiveID,
	}
	for id, b := range s.Bundles {
		out.Bundles[id] = b.Clone()
	}
	return out
}

func (b *EntityBundle) Clone() *EntityBundle {
	out := &EntityBundle{
		Entity:         b.Entity,
		ServiceRecords: slices.Clone(b.ServiceRecords),
		DiaryEntries:   slices.Clone(b.DiaryEntries),
		Milestones:     slices.Clone(b.Milestones),
		WeightSamples:  slices.Clone(b.WeightSamples),
		Vouchers:       slices.Clone(b.Vouchers),
	}
	out.Entity.Tags = slices.Clone(b.Entity.Tags)
	for i := range out.ServiceRecords {
		out.ServiceRecords[i].PhotoRefs = slices.Clone(b.ServiceRecords[i].PhotoRefs)
		out.ServiceRecords[i].CategoryTags = slices.Clone(b.ServiceRecords[i].CategoryTags)
	}
	for i := range out.DiaryEntries {
		out.DiaryEntries[i].PhotoRefs = slices.Clone(b.DiaryEntries[i].PhotoRefs)
	}
	return out
}
