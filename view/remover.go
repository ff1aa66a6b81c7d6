package view

// Remove deletes rowid from the view, looking up its current location via
// the rowid->page map. It is a no-op if rowid is not present.
func (t *Txn) Remove(rowid Rowid) error {
	store := t.view.store
	pageId, ok, err := store.GetPageIdForRowid(rowid)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	group, ok := store.Index.GroupOf(pageId)
	if !ok {
		return &InvariantError{Reason: "page missing from GroupIndex"}
	}
	return t.removeRowidFromPage(rowid, pageId, group)
}

// RemoveRowids bulk-removes every rowid for which match returns true from
// pageId's page, walking from the highest local index to the lowest so
// that each emitted delete's index matches the page's state at the moment
// of removal.
func (t *Txn) RemoveRowids(pageId PageId, match func(rowid Rowid) bool) error {
	store := t.view.store
	md, ok := store.Index.MetadataOf(pageId)
	if !ok {
		return &InvariantError{Reason: "metadata missing for known page"}
	}
	group := md.Group

	page, err := store.GetPage(pageId)
	if err != nil {
		return err
	}
	offset, err := t.pageOffsetOf(group, pageId)
	if err != nil {
		return err
	}

	for local := page.Count() - 1; local >= 0; local-- {
		rowid := page.RowidAt(local)
		if !match(rowid) {
			continue
		}

		key, _, _, err := fetch(t.view.source, WithKey, rowid)
		if err != nil {
			return err
		}
		t.emit(newDeleteRow(key, group, offset+local))

		page.RemoveAt(local)
		md.Count--
		store.DeleteRowidPage(rowid)
	}

	store.PutPage(pageId, page, md, md.IsNew)
	md.IsNew = false
	t.markMutated(group)
	return nil
}

// RemoveAllRowids clears the view entirely: every page and map row is
// dropped, a resetGroup change is emitted for every group, and the
// GroupIndex and caches are cleared.
func (t *Txn) RemoveAllRowids() error {
	store := t.view.store

	for _, group := range store.Index.Groups() {
		for _, md := range store.Index.Pages(group) {
			page, err := store.GetPage(md.PageId)
			if err != nil {
				return err
			}
			for i := 0; i < page.Count(); i++ {
				store.DeleteRowidPage(page.RowidAt(i))
			}
			store.DeletePage(md.PageId)
		}
		t.emit(newResetGroup(group))
	}

	store.Index.reset()
	store.pageCache = newLRUCache(store.pageCache.size)
	store.mdCache = newLRUCache(store.mdCache.size)
	store.mapCache = newLRUCache(store.mapCache.size)
	t.reset = true
	return nil
}
