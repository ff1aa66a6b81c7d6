package view

// NumberOfGroups returns the number of distinct non-empty groups.
func (v *View) NumberOfGroups() int {
	return v.store.Index.NumberOfGroups()
}

// AllGroups returns every group with at least one page.
func (v *View) AllGroups() []string {
	return v.store.Index.Groups()
}

// NumberOfKeysInGroup sums page counts for group.
func (v *View) NumberOfKeysInGroup(group string) int {
	return v.store.Index.TotalCount(group)
}

// NumberOfKeysInAllGroups sums page counts across every group.
func (v *View) NumberOfKeysInAllGroups() int {
	return v.store.Index.NumberOfKeysInAllGroups()
}

// KeyAtIndex walks group's page metadata list accumulating pageOffset
// until it finds the page containing i, then resolves the key for the
// rowid at that position via the Source.
func (v *View) KeyAtIndex(group string, i int) (string, bool, error) {
	rowid, ok, err := v.RowidAtIndex(group, i)
	if err != nil || !ok {
		return "", ok, err
	}
	key, ok, err := v.source.KeyForRowid(rowid)
	return key, ok, err
}

// RowidAtIndex is the rowid-level counterpart of KeyAtIndex.
func (v *View) RowidAtIndex(group string, i int) (Rowid, bool, error) {
	offset, md, local, ok := v.store.Index.PageOffset(group, i)
	if !ok {
		return 0, false, nil
	}
	_ = offset
	page, err := v.store.GetPage(md.PageId)
	if err != nil {
		return 0, false, err
	}
	return page.RowidAt(local), true, nil
}

// GroupForKey resolves key -> rowid via the Source, then rowid -> group
// via the rowid->page map and the GroupIndex.
func (v *View) GroupForKey(key string) (string, bool, error) {
	rowid, ok, err := v.source.RowidForKey(key)
	if err != nil || !ok {
		return "", ok, err
	}
	return v.groupForRowid(rowid)
}

func (v *View) groupForRowid(rowid Rowid) (string, bool, error) {
	pageId, ok, err := v.store.GetPageIdForRowid(rowid)
	if err != nil || !ok {
		return "", ok, err
	}
	group, ok := v.store.Index.GroupOf(pageId)
	return group, ok, nil
}

// GetGroupAndIndexForKey resolves key to its (group, index) position,
// combining GroupForKey with an explicit indexOf walk over the group's
// page list.
func (v *View) GetGroupAndIndexForKey(key string) (group string, index int, ok bool, err error) {
	rowid, ok, err := v.source.RowidForKey(key)
	if err != nil || !ok {
		return "", 0, ok, err
	}
	pageId, ok, err := v.store.GetPageIdForRowid(rowid)
	if err != nil || !ok {
		return "", 0, ok, err
	}
	group, ok = v.store.Index.GroupOf(pageId)
	if !ok {
		return "", 0, false, nil
	}

	offset := 0
	for _, md := range v.store.Index.Pages(group) {
		if md.PageId == pageId {
			page, err := v.store.GetPage(pageId)
			if err != nil {
				return "", 0, false, err
			}
			local, ok := page.IndexOf(rowid)
			if !ok {
				return "", 0, false, &InvariantError{Reason: "rowid missing from its mapped page"}
			}
			return group, offset + local, true, nil
		}
		offset += md.Count
	}
	return "", 0, false, &InvariantError{Reason: "page missing from its group's list"}
}

// FindRangeInGroup locates [S, E) within group such that pred returns
// Equal for every index in [S, E) and Ascending/Descending immediately
// outside it, via three successive binary searches as specified: one to
// find any Equal index M, one for the leftmost Equal in [0, M], one for
// the rightmost Equal-or-past in [M, N].
func (v *View) FindRangeInGroup(group string, pred FindPredicate) (lo, hi int, err error) {
	n := v.store.Index.TotalCount(group)
	if n == 0 {
		return 0, 0, nil
	}

	cmp := func(i int) (Ordering, error) {
		rowid, ok, err := v.RowidAtIndex(group, i)
		if err != nil {
			return Equal, err
		}
		if !ok {
			return Equal, &InvariantError{Reason: "index out of range during find"}
		}
		key, object, metadata, err := fetch(v.source, pred.Arity, rowid)
		if err != nil {
			return Equal, err
		}
		return pred.Compare(group, key, object, metadata), nil
	}

	loM, hiM := 0, n
	m := -1
	for loM < hiM {
		mid := (loM + hiM) / 2
		o, err := cmp(mid)
		if err != nil {
			return 0, 0, err
		}
		switch o {
		case Equal:
			m = mid
			loM, hiM = 0, 0 // stop scanning; we only needed one hit
		case Ascending:
			loM = mid + 1
		case Descending:
			hiM = mid
		}
	}
	if m < 0 {
		return 0, 0, nil
	}

	sLo, sHi := 0, m
	for sLo < sHi {
		mid := (sLo + sHi) / 2
		o, err := cmp(mid)
		if err != nil {
			return 0, 0, err
		}
		if o == Ascending {
			sLo = mid + 1
		} else {
			sHi = mid
		}
	}

	eLo, eHi := m, n
	for eLo < eHi {
		mid := (eLo + eHi) / 2
		o, err := cmp(mid)
		if err != nil {
			return 0, 0, err
		}
		if o == Descending {
			eHi = mid
		} else {
			eLo = mid + 1
		}
	}

	return sLo, eLo, nil
}

// EnumerateGroup walks rowids in group over [lo, hi) in the given
// direction, invoking cb(rowid, index) for each. cb returns false to stop
// early. Mutation of group by cb (without requesting stop) is detected and
// reported as a MutationDuringEnumerationError.
func (t *Txn) EnumerateGroup(group string, lo, hi int, dir Direction, cb func(rowid Rowid, index int) (cont bool, err error)) error {
	delete(t.mutatedGroups, group)

	store := t.view.store
	pages := store.Index.Pages(group)

	type span struct {
		md     *PageMetadata
		offset int
	}
	var spans []span
	offset := 0
	for _, md := range pages {
		spans = append(spans, span{md: md, offset: offset})
		offset += md.Count
	}

	visit := func(s span, globalLo, globalHi int) (bool, error) {
		page, err := store.GetPage(s.md.PageId)
		if err != nil {
			return false, err
		}
		localLo := globalLo - s.offset
		localHi := globalHi - s.offset

		cont := true
		var cbErr error
		page.Enumerate(localLo, localHi, dir, func(rowid Rowid, localIndex int) bool {
			ok, err := cb(rowid, s.offset+localIndex)
			if err != nil {
				cbErr = err
				return false
			}
			if ok && t.mutatedGroups[group] {
				cbErr = &MutationDuringEnumerationError{Group: group}
				return false
			}
			cont = ok
			return ok
		})
		return cont, cbErr
	}

	clip := func(s span) (int, int, bool) {
		globalLo := s.offset
		globalHi := s.offset + s.md.Count
		if globalHi <= lo || globalLo >= hi {
			return 0, 0, false
		}
		if globalLo < lo {
			globalLo = lo
		}
		if globalHi > hi {
			globalHi = hi
		}
		return globalLo, globalHi, true
	}

	if dir == Forward {
		for _, s := range spans {
			gLo, gHi, ok := clip(s)
			if !ok {
				continue
			}
			cont, err := visit(s, gLo, gHi)
			if err != nil {
				return err
			}
			if !cont {
				return nil
			}
		}
		return nil
	}

	for i := len(spans) - 1; i >= 0; i-- {
		gLo, gHi, ok := clip(spans[i])
		if !ok {
			continue
		}
		cont, err := visit(spans[i], gLo, gHi)
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
	return nil
}

// KeysInRange projects EnumerateGroup's rowids to keys via the Source.
func (t *Txn) KeysInRange(group string, lo, hi int, dir Direction, cb func(key string, index int) (cont bool, err error)) error {
	return t.EnumerateGroup(group, lo, hi, dir, func(rowid Rowid, index int) (bool, error) {
		key, ok, err := t.view.source.KeyForRowid(rowid)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, &InvariantError{Reason: "no key for enumerated rowid"}
		}
		return cb(key, index)
	})
}
