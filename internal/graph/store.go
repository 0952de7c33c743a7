package graph

import (
	"errors"

	"github.com/chaingraph/chaingraph/internal/pager"
)

// ErrNoRoom is returned by Update when a record no longer fits on its
// current page even after tombstoning the old slot; the caller must
// Delete the old ref and Insert the new body, updating any index that
// pointed at the old ref.
var ErrNoRoom = errors.New("record does not fit on its current page")

// Store is a generic slot-directory record store — the vertex store or
// the edge store (spec §4.3), backed by a chain of same-kind pages
// tracked in a PageIDSet directory (spec §4.1's page-list plumbing,
// applied here to content pages instead of free pages).
type Store struct {
	pgr   *pager.Pager
	kind  pager.PageKind
	pages *PageIDSet
}

// NewStore creates an empty, unpersisted store of the given page kind.
func NewStore(pgr *pager.Pager, kind pager.PageKind) *Store {
	return &Store{pgr: pgr, kind: kind, pages: NewPageIDSet(pgr)}
}

// OpenStore loads an existing store whose data-page directory is rooted
// at root.
func OpenStore(pgr *pager.Pager, kind pager.PageKind, root pager.PageID) (*Store, error) {
	pages, err := LoadPageIDSet(pgr, root)
	if err != nil {
		return nil, err
	}
	return &Store{pgr: pgr, kind: kind, pages: pages}, nil
}

// Root returns the store's directory root page id, to be persisted in the
// graph catalog / meta page.
func (s *Store) Root() pager.PageID { return s.pages.Head() }

// Insert appends a new record, allocating a fresh page if no existing
// page has room.
func (s *Store) Insert(body []byte) (RecordRef, error) {
	for _, pid := range s.pages.All() {
		h, err := s.pgr.ReadPage(pid)
		if err != nil {
			return RecordRef{}, err
		}
		sp := pager.WrapSlottedPage(h.Buf)
		if sp.FreeSpace() >= len(body) {
			slot, err := sp.InsertRecord(body)
			s.pgr.UnpinPage(h, err == nil)
			if err != nil {
				continue
			}
			return RecordRef{Page: pid, Slot: slot}, nil
		}
		s.pgr.UnpinPage(h, false)
	}

	h, err := s.pgr.AllocatePage(s.kind)
	if err != nil {
		return RecordRef{}, err
	}
	sp := pager.WrapSlottedPage(h.Buf)
	slot, err := sp.InsertRecord(body)
	if err != nil {
		s.pgr.UnpinPage(h, false)
		return RecordRef{}, err
	}
	pid := h.ID
	s.pgr.UnpinPage(h, true)
	if err := s.pages.Add(pid); err != nil {
		return RecordRef{}, err
	}
	return RecordRef{Page: pid, Slot: slot}, nil
}

// Get returns a copy of the record body at ref.
func (s *Store) Get(ref RecordRef) ([]byte, error) {
	h, err := s.pgr.ReadPage(ref.Page)
	if err != nil {
		return nil, err
	}
	defer s.pgr.UnpinPage(h, false)
	sp := pager.WrapSlottedPage(h.Buf)
	rec := sp.GetRecord(ref.Slot)
	if rec == nil {
		return nil, errors.New("record not found (tombstoned or never written)")
	}
	return append([]byte{}, rec...), nil
}

// Update replaces the record body at ref in place. Returns ErrNoRoom if
// the page cannot hold the new body even after reclaiming the old slot —
// the caller should Delete(ref) and Insert(body) instead.
func (s *Store) Update(ref RecordRef, body []byte) error {
	h, err := s.pgr.ReadPage(ref.Page)
	if err != nil {
		return err
	}
	defer s.pgr.UnpinPage(h, true)
	sp := pager.WrapSlottedPage(h.Buf)
	if err := sp.UpdateRecord(ref.Slot, body); err != nil {
		return ErrNoRoom
	}
	return nil
}

// Delete tombstones the record at ref.
func (s *Store) Delete(ref RecordRef) error {
	h, err := s.pgr.ReadPage(ref.Page)
	if err != nil {
		return err
	}
	defer s.pgr.UnpinPage(h, true)
	sp := pager.WrapSlottedPage(h.Buf)
	return sp.DeleteRecord(ref.Slot)
}

// ScanPage visits every live record on a single page. Used when an
// external index (the label index) has already narrowed the candidate
// pages, instead of walking the whole store.
func (s *Store) ScanPage(pid pager.PageID, fn func(ref RecordRef, body []byte) bool) error {
	h, err := s.pgr.ReadPage(pid)
	if err != nil {
		return err
	}
	sp := pager.WrapSlottedPage(h.Buf)
	for i := 0; i < sp.SlotCount(); i++ {
		if sp.IsDeleted(i) {
			continue
		}
		if !fn(RecordRef{Page: pid, Slot: i}, sp.GetRecord(i)) {
			break
		}
	}
	s.pgr.UnpinPage(h, false)
	return nil
}

// Scan visits every live record in the store. fn returning false stops
// the scan early.
func (s *Store) Scan(fn func(ref RecordRef, body []byte) bool) error {
	for _, pid := range s.pages.All() {
		h, err := s.pgr.ReadPage(pid)
		if err != nil {
			return err
		}
		sp := pager.WrapSlottedPage(h.Buf)
		stop := false
		for i := 0; i < sp.SlotCount(); i++ {
			if sp.IsDeleted(i) {
				continue
			}
			if !fn(RecordRef{Page: pid, Slot: i}, sp.GetRecord(i)) {
				stop = true
				break
			}
		}
		s.pgr.UnpinPage(h, false)
		if stop {
			break
		}
	}
	return nil
}
