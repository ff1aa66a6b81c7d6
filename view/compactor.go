package view

import "github.com/google/uuid"

// compact runs at pre-commit: pass 1 expands every oversized dirty page
// down to MAX, pass 2 drops every dirty page that ended up empty.
func (t *Txn) compact() error {
	if err := t.expandOversizedPages(); err != nil {
		return err
	}
	return t.collapseEmptyPages()
}

// expandOversizedPages repeatedly spills or splits dirty pages with count
// > MAX until none remain oversized. Spilling or splitting can itself dirty
// a neighbor or a freshly allocated page, so the dirty set is rescanned
// until a pass finds nothing left to do.
func (t *Txn) expandOversizedPages() error {
	store := t.view.store
	max := store.MaxPageSize()

	for {
		var oversized []*PageMetadata
		for _, dp := range store.dirtyPages {
			if dp.op != pageOpDelete && dp.md != nil && dp.md.Count > max {
				oversized = append(oversized, dp.md)
			}
		}
		if len(oversized) == 0 {
			return nil
		}
		for _, md := range oversized {
			if err := t.expandPage(md, max); err != nil {
				return err
			}
		}
	}
}

// expandPage reduces md's count to at most target using, in order: spill
// into the previous page's spare capacity, spill into the next page's
// spare capacity, or split off a brand new page linked in after md.
func (t *Txn) expandPage(md *PageMetadata, target int) error {
	store := t.view.store
	group := md.Group

	for md.Count > target {
		excess := md.Count - target
		prev, next := store.Index.Neighbors(group, md.PageId)

		if prev != nil && prev.Count < store.MaxPageSize() {
			spare := store.MaxPageSize() - prev.Count
			n := min(excess, spare)
			if err := t.spillToPrev(group, md, prev, n); err != nil {
				return err
			}
			continue
		}

		if next != nil && next.Count < store.MaxPageSize() {
			spare := store.MaxPageSize() - next.Count
			n := min(excess, spare)
			if err := t.spillToNext(group, md, next, n); err != nil {
				return err
			}
			continue
		}

		n := min(excess, store.MaxPageSize())
		if err := t.splitNewPage(group, md, n); err != nil {
			return err
		}
	}
	return nil
}

// splitOversizedPage is invoked inline from the Inserter when a single
// insert pushes a page past the hard trigger (32*MAX); it uses the same
// algorithm with a target of 16*MAX so runaway growth within a transaction
// does not force per-insert rebalancing.
func (t *Txn) splitOversizedPage(group string, md *PageMetadata, target int) error {
	return t.expandPage(md, target)
}

func (t *Txn) spillToPrev(group string, md, prev *PageMetadata, n int) error {
	store := t.view.store
	page, err := store.GetPage(md.PageId)
	if err != nil {
		return err
	}
	prevPage, err := store.GetPage(prev.PageId)
	if err != nil {
		return err
	}

	moved := page.RemoveRange(0, n)
	prevPage.AppendRange(moved)
	md.Count -= n
	prev.Count += n

	store.PutPage(md.PageId, page, md, md.IsNew)
	md.IsNew = false
	store.PutPage(prev.PageId, prevPage, prev, prev.IsNew)
	prev.IsNew = false

	for _, r := range moved {
		store.SetRowidPage(r, prev.PageId)
	}
	t.markMutated(group)
	return nil
}

func (t *Txn) spillToNext(group string, md, next *PageMetadata, n int) error {
	store := t.view.store
	page, err := store.GetPage(md.PageId)
	if err != nil {
		return err
	}
	nextPage, err := store.GetPage(next.PageId)
	if err != nil {
		return err
	}

	lo := page.Count() - n
	moved := page.RemoveRange(lo, page.Count())
	nextPage.PrependRange(moved)
	md.Count -= n
	next.Count += n

	store.PutPage(md.PageId, page, md, md.IsNew)
	md.IsNew = false
	store.PutPage(next.PageId, nextPage, next, next.IsNew)
	next.IsNew = false

	for _, r := range moved {
		store.SetRowidPage(r, next.PageId)
	}
	t.markMutated(group)
	return nil
}

func (t *Txn) splitNewPage(group string, md *PageMetadata, n int) error {
	store := t.view.store
	page, err := store.GetPage(md.PageId)
	if err != nil {
		return err
	}

	lo := page.Count() - n
	moved := page.RemoveRange(lo, page.Count())
	md.Count -= n

	newPage := NewPageFromRowids(nil)
	newPage.AppendRange(moved)
	newMd := &PageMetadata{
		PageId: PageId(uuid.NewString()),
		Group:  group,
		Count:  len(moved),
		IsNew:  true,
	}

	relinked := store.Index.InsertPageAfter(group, md.PageId, newMd)
	if relinked != nil {
		store.UpdateLink(relinked)
	}

	store.PutPage(md.PageId, page, md, md.IsNew)
	md.IsNew = false
	store.PutPage(newMd.PageId, newPage, newMd, true)

	for _, r := range moved {
		store.SetRowidPage(r, newMd.PageId)
	}
	t.markMutated(group)
	return nil
}

// collapseEmptyPages drops every dirty page that ended up with count 0:
// its metadata is removed from the group list, the following page (if
// any) is relinked to the removed page's predecessor, and the group
// itself is dropped and a deleteGroup emitted if that empties it.
func (t *Txn) collapseEmptyPages() error {
	store := t.view.store

	var empty []*PageMetadata
	for _, dp := range store.dirtyPages {
		if dp.op != pageOpDelete && dp.md != nil && dp.md.Count == 0 {
			empty = append(empty, dp.md)
		}
	}

	for _, md := range empty {
		group := md.Group
		relinked, groupEmpty := store.Index.RemovePage(group, md.PageId)
		store.DeletePage(md.PageId)
		if relinked != nil {
			store.UpdateLink(relinked)
		}
		if groupEmpty {
			t.emit(newDeleteGroup(group))
		}
		t.markMutated(group)
	}
	return nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
