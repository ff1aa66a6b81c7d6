package view

import "github.com/google/uuid"

// Insert resolves rowid's group via the grouping predicate and places it
// at the correct sorted position within that group, emitting change
// records for any observer. knownNew tells the engine the rowid cannot
// already be present (skipping the existing-location lookup); pass false
// whenever rowid might already be in the view, such as on an update to an
// existing row.
func (t *Txn) Insert(rowid Rowid, knownNew bool) error {
	view := t.view
	store := view.store

	gkey, gobject, gmetadata, err := fetch(view.source, view.grouping.Arity, rowid)
	if err != nil {
		return err
	}
	group := view.grouping.Group(gkey, gobject, gmetadata)

	if group == NoGroup {
		if !knownNew {
			return t.removeIfPresent(rowid)
		}
		return nil
	}

	var existingPageId PageId
	haveExisting := false
	tryExistingIndex := false
	existingIndex := -1

	if !knownNew {
		pageId, ok, err := store.GetPageIdForRowid(rowid)
		if err != nil {
			return err
		}
		if ok {
			existingPageId = pageId
			haveExisting = true

			existingGroup, _ := store.Index.GroupOf(pageId)
			if existingGroup == group {
				if view.sorting.Arity == WithKey {
					// The sort predicate depends only on the key, which
					// cannot have changed for an existing rowid: its
					// position is unaffected.
					idx, err := t.globalIndexOf(group, pageId, rowid)
					if err != nil {
						return err
					}
					key, _, _, ferr := fetch(view.source, WithKey, rowid)
					if ferr != nil {
						return ferr
					}
					t.emit(newUpdateRow(key, group, idx, ChangedObject|ChangedMetadata))
					return nil
				}
				tryExistingIndex = true
				existingIndex, err = t.globalIndexOf(group, pageId, rowid)
				if err != nil {
					return err
				}
			} else {
				if err := t.removeRowidFromPage(rowid, pageId, existingGroup); err != nil {
					return err
				}
				haveExisting = false
			}
		}
	}

	pages := store.Index.Pages(group)
	if len(pages) == 0 {
		pageId := PageId(uuid.NewString())
		page := NewPage()
		page.Insert(0, rowid)
		md := &PageMetadata{PageId: pageId, Group: group, HasPrev: false, Count: 1, IsNew: true}
		store.Index.NewGroup(group, md)
		store.PutPage(pageId, page, md, true)
		store.SetRowidPage(rowid, pageId)

		key, _, _, ferr := fetch(view.source, WithKey, rowid)
		if ferr != nil {
			return ferr
		}
		t.emit(newInsertGroup(group))
		t.emit(newInsertRow(key, group, 0))
		t.markMutated(group)
		return nil
	}

	n := store.Index.TotalCount(group)

	cmpCtx := &compareContext{txn: t, group: group, rowid: rowid}

	index := -1

	if tryExistingIndex {
		keep, err := t.existingPositionHolds(cmpCtx, existingIndex, n)
		if err != nil {
			return err
		}
		if keep {
			key, _, _, ferr := fetch(view.source, WithKey, rowid)
			if ferr != nil {
				return ferr
			}
			t.emit(newUpdateRow(key, group, existingIndex, ChangedObject|ChangedMetadata))
			return nil
		}
		if err := t.removeRowidFromPage(rowid, existingPageId, group); err != nil {
			return err
		}
		haveExisting = false
		n--
	}

	if index < 0 && n > 1 {
		if t.lastInsertWasAtFirstIndex {
			o, err := cmpCtx.cmpAt(0)
			if err != nil {
				return err
			}
			if o == Ascending {
				index = 0
			}
		} else if t.lastInsertWasAtLastIndex {
			o, err := cmpCtx.cmpAt(n - 1)
			if err != nil {
				return err
			}
			if o != Ascending {
				index = n
			}
		}
	}

	if index < 0 {
		lo, hi := 0, n
		for lo < hi {
			mid := (lo + hi) / 2
			o, err := cmpCtx.cmpAt(mid)
			if err != nil {
				return err
			}
			if o == Ascending {
				hi = mid
			} else {
				lo = mid + 1
			}
		}
		index = lo
	}

	t.lastInsertWasAtFirstIndex = index == 0
	t.lastInsertWasAtLastIndex = index == n

	var existingPtr *PageId
	if haveExisting {
		existingPtr = &existingPageId
	}
	return t.insertAt(rowid, group, index, existingPtr)
}

// removeIfPresent removes rowid from wherever it currently lives, used
// when a predicate now returns NoGroup for a previously-visible rowid.
func (t *Txn) removeIfPresent(rowid Rowid) error {
	store := t.view.store
	pageId, ok, err := store.GetPageIdForRowid(rowid)
	if err != nil || !ok {
		return err
	}
	group, ok := store.Index.GroupOf(pageId)
	if !ok {
		return nil
	}
	return t.removeRowidFromPage(rowid, pageId, group)
}

// globalIndexOf returns rowid's current global index within group.
func (t *Txn) globalIndexOf(group string, pageId PageId, rowid Rowid) (int, error) {
	store := t.view.store
	offset := 0
	for _, md := range store.Index.Pages(group) {
		if md.PageId == pageId {
			page, err := store.GetPage(pageId)
			if err != nil {
				return 0, err
			}
			local, ok := page.IndexOf(rowid)
			if !ok {
				return 0, &InvariantError{Reason: "rowid missing from its mapped page"}
			}
			return offset + local, nil
		}
		offset += md.Count
	}
	return 0, &InvariantError{Reason: "page missing from its group's list"}
}

// compareContext materializes the candidate rowid once and compares it
// against whatever rowid currently sits at a given global index in group,
// replacing the mutable-capture comparison closure with an explicit value.
type compareContext struct {
	txn   *Txn
	group string
	rowid Rowid
}

func (c *compareContext) cmpAt(index int) (Ordering, error) {
	view := c.txn.view
	otherRowid, ok, err := view.RowidAtIndex(c.group, index)
	if err != nil {
		return Equal, err
	}
	if !ok {
		return Equal, &InvariantError{Reason: "compare index out of range"}
	}

	aKey, aObject, aMetadata, err := fetch(view.source, view.sorting.Arity, c.rowid)
	if err != nil {
		return Equal, err
	}
	bKey, bObject, bMetadata, err := fetch(view.source, view.sorting.Arity, otherRowid)
	if err != nil {
		return Equal, err
	}
	return view.sorting.Compare(c.group, aKey, aObject, aMetadata, bKey, bObject, bMetadata), nil
}

// existingPositionHolds implements the existing-position fast path: the
// item keeps its index if it still sorts no earlier than its left
// neighbor and no later than its right neighbor.
func (t *Txn) existingPositionHolds(cmpCtx *compareContext, existingIndex, n int) (bool, error) {
	if existingIndex > 0 {
		o, err := cmpCtx.cmpAt(existingIndex - 1)
		if err != nil {
			return false, err
		}
		if o == Ascending {
			return false, nil
		}
	}
	if existingIndex+1 < n {
		o, err := cmpCtx.cmpAt(existingIndex + 1)
		if err != nil {
			return false, err
		}
		if o == Descending {
			return false, nil
		}
	}
	return true, nil
}

// insertAt locates the page that should receive rowid at global index,
// inserts it, updates metadata and the rowid->page map, emits the change
// record, and triggers an immediate split if the page blows past the hard
// trigger.
func (t *Txn) insertAt(rowid Rowid, group string, index int, existingPageId *PageId) error {
	store := t.view.store
	pages := store.Index.Pages(group)

	var target *PageMetadata
	var pageOffset int
	offset := 0
	for i, md := range pages {
		if index < offset+md.Count {
			target = md
			pageOffset = offset
			break
		}
		if index == offset+md.Count {
			// Boundary between this page and the next (or end of list).
			if i+1 < len(pages) {
				next := pages[i+1]
				if md.Count < store.MaxPageSize() && next.Count >= store.MaxPageSize() {
					target = md
					pageOffset = offset
				} else {
					target = next
					pageOffset = offset + md.Count
				}
			} else {
				target = md
				pageOffset = offset
			}
			break
		}
		offset += md.Count
	}
	if target == nil {
		last := pages[len(pages)-1]
		target = last
		pageOffset = offset - last.Count
	}

	page, err := store.GetPage(target.PageId)
	if err != nil {
		return err
	}
	page.Insert(index-pageOffset, rowid)
	target.Count++

	store.PutPage(target.PageId, page, target, target.IsNew)
	target.IsNew = false

	if existingPageId == nil || *existingPageId != target.PageId {
		store.SetRowidPage(rowid, target.PageId)
	}

	key, _, _, err := fetch(t.view.source, WithKey, rowid)
	if err != nil {
		return err
	}
	t.emit(newInsertRow(key, group, index))
	t.markMutated(group)

	if target.Count > hardTrigger(store.MaxPageSize()) {
		return t.splitOversizedPage(group, target, splitTarget(store.MaxPageSize()))
	}
	return nil
}

// removeRowidFromPage removes rowid from pageId's page, decrementing its
// metadata count and emitting a deleteRow change; used internally by the
// Inserter when a rowid moves location or group.
func (t *Txn) removeRowidFromPage(rowid Rowid, pageId PageId, group string) error {
	store := t.view.store
	md, ok := store.Index.MetadataOf(pageId)
	if !ok {
		return &InvariantError{Reason: "metadata missing for known page"}
	}
	page, err := store.GetPage(pageId)
	if err != nil {
		return err
	}
	localIndex, ok := page.IndexOf(rowid)
	if !ok {
		return &InvariantError{Reason: "rowid missing from its mapped page"}
	}

	offset, err := t.pageOffsetOf(group, pageId)
	if err != nil {
		return err
	}

	key, _, _, err := fetch(t.view.source, WithKey, rowid)
	if err != nil {
		return err
	}
	t.emit(newDeleteRow(key, group, offset+localIndex))

	page.RemoveAt(localIndex)
	md.Count--
	store.PutPage(pageId, page, md, md.IsNew)
	store.DeleteRowidPage(rowid)
	t.markMutated(group)
	return nil
}

func (t *Txn) pageOffsetOf(group string, pageId PageId) (int, error) {
	offset := 0
	for _, md := range t.view.store.Index.Pages(group) {
		if md.PageId == pageId {
			return offset, nil
		}
		offset += md.Count
	}
	return 0, &InvariantError{Reason: "page missing from its group's list"}
}

func hardTrigger(max int) int {
	return 32 * max
}

func splitTarget(max int) int {
	return 16 * max
}
