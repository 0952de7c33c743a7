package graph

import (
	"github.com/chaingraph/chaingraph/internal/pager"
)

// LabelIndex tracks, per label id, the set of store pages that contain at
// least one vertex with that label — enabling `MATCH (n:Label)` to scan
// only those pages instead of the whole vertex store (spec §4.4).
type LabelIndex struct {
	pgr  *pager.Pager
	sets map[uint32]*PageIDSet
}

// NewLabelIndex creates an empty, unpersisted label index.
func NewLabelIndex(pgr *pager.Pager) *LabelIndex {
	return &LabelIndex{pgr: pgr, sets: map[uint32]*PageIDSet{}}
}

// LoadLabelIndex reads an existing label index given the root page id for
// each label (typically recovered from the graph catalog entry).
func LoadLabelIndex(pgr *pager.Pager, roots map[uint32]pager.PageID) (*LabelIndex, error) {
	li := &LabelIndex{pgr: pgr, sets: map[uint32]*PageIDSet{}}
	for labelID, root := range roots {
		set, err := LoadPageIDSet(pgr, root)
		if err != nil {
			return nil, err
		}
		li.sets[labelID] = set
	}
	return li, nil
}

// Roots returns the current root page id for every label that has one, for
// persistence in the graph catalog.
func (li *LabelIndex) Roots() map[uint32]pager.PageID {
	out := make(map[uint32]pager.PageID, len(li.sets))
	for labelID, set := range li.sets {
		if set.Head() != pager.InvalidPageID {
			out[labelID] = set.Head()
		}
	}
	return out
}

// Pages returns every store page containing a vertex of labelID.
func (li *LabelIndex) Pages(labelID uint32) []pager.PageID {
	set, ok := li.sets[labelID]
	if !ok {
		return nil
	}
	return set.All()
}

// RecordPage notes that pid holds at least one vertex of labelID,
// persisting the index if this is a new association.
func (li *LabelIndex) RecordPage(labelID uint32, pid pager.PageID) error {
	set, ok := li.sets[labelID]
	if !ok {
		set = NewPageIDSet(li.pgr)
		li.sets[labelID] = set
	}
	if set.Contains(pid) {
		return nil
	}
	return set.Add(pid)
}
