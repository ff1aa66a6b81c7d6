package view

import (
	"fmt"
	"io"

	"github.com/leftmike/orderedview/encode"
	"github.com/leftmike/orderedview/kv"
)

// DefaultMaxPageSize is MAX, the page capacity referenced throughout the
// compactor and inserter: the pre-commit compactor brings every page down to
// at most MAX, and a page that an insert takes past 32*MAX is split at once,
// down to 16*MAX, with the split-off rowids going to pages of at most MAX.
const DefaultMaxPageSize = 50

type pageOp int

const (
	pageOpNone pageOp = iota
	pageOpInsert
	pageOpUpdate
	pageOpDelete
)

type dirtyPage struct {
	op   pageOp
	page *Page
	md   *PageMetadata
}

type mapOp int

const (
	mapOpNone mapOp = iota
	mapOpSet
	mapOpDelete
)

type dirtyMapEntry struct {
	op     mapOp
	pageId PageId
}

// PageStore is the sole path through which view operations read and write
// pages, page metadata, and the rowid->page map. Every write lands first in
// one of three per-transaction dirty sets; reads check the dirty set, then
// the bounded LRU caches, then the backing kv engine, in that order, so a
// transaction always observes its own uncommitted writes. Commit drains the
// dirty sets into the kv engine in a fixed order: page table writes, then
// link-only metadata updates, then rowid map writes.
type PageStore struct {
	name        string
	kv          kv.KV
	maxPageSize int

	Index *GroupIndex

	// indexSnapshot is a deep copy of Index taken at the start of the current
	// transaction, so Rollback can undo the in-place NewGroup/InsertPageAfter/
	// RemovePage/Count mutations the inserter and compactor apply eagerly,
	// ahead of commit.
	indexSnapshot *GroupIndex

	pageCache *lruCache // key: string(PageId) -> *Page
	mdCache   *lruCache // key: string(PageId) -> *PageMetadata
	mapCache  *lruCache // key: string(Rowid)  -> PageId

	dirtyPages map[PageId]*dirtyPage
	dirtyLinks map[PageId]*PageMetadata
	dirtyMaps  map[Rowid]*dirtyMapEntry
}

// NewPageStore creates a PageStore backed by store, caching up to
// cacheSize pages and cacheSize rowid->page entries.
func NewPageStore(name string, store kv.KV, maxPageSize, cacheSize int) *PageStore {
	if maxPageSize <= 0 {
		maxPageSize = DefaultMaxPageSize
	}
	return &PageStore{
		name:        name,
		kv:          store,
		maxPageSize: maxPageSize,
		Index:       newGroupIndex(),
		pageCache:   newLRUCache(cacheSize),
		mdCache:     newLRUCache(cacheSize),
		mapCache:    newLRUCache(cacheSize),
	}
}

// MaxPageSize returns MAX, the configured fixed page capacity.
func (ps *PageStore) MaxPageSize() int {
	return ps.maxPageSize
}

// Open scans the page table and rebuilds the GroupIndex, failing with a
// CorruptionError if the prevPageId chains do not form one simple path per
// group.
func (ps *PageStore) Open() error {
	it, err := ps.kv.Iterate(pageTablePrefix(ps.name))
	if err != nil {
		return err
	}
	defer it.Close()

	var rows []pageRow
	for {
		err := it.Item(func(key, val []byte) error {
			pr, ok := encode.DecodePageRecord(val)
			if !ok {
				return &CorruptionError{Reason: "unreadable page row"}
			}
			prefix := pageTablePrefix(ps.name)
			pageId := PageId(key[len(prefix):])
			rows = append(rows, pageRow{
				PageId:     pageId,
				Group:      pr.Group,
				PrevPageId: PageId(pr.PrevPageId),
				HasPrev:    pr.HasPrev,
				Count:      pr.Count,
			})
			return nil
		})
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}

	return ps.Index.prepare(rows)
}

// BeginTxn resets the per-transaction dirty sets and snapshots the
// GroupIndex, so Rollback has a clean state to restore. Call at the start of
// every read-write transaction.
func (ps *PageStore) BeginTxn() {
	ps.dirtyPages = map[PageId]*dirtyPage{}
	ps.dirtyLinks = map[PageId]*PageMetadata{}
	ps.dirtyMaps = map[Rowid]*dirtyMapEntry{}
	ps.indexSnapshot = ps.Index.snapshot()
}

// GetPage returns the page for pageId, checking the dirty set, then the
// cache, then the kv engine, in that order.
func (ps *PageStore) GetPage(pageId PageId) (*Page, error) {
	if dp, ok := ps.dirtyPages[pageId]; ok {
		if dp.op == pageOpDelete {
			return nil, &InvariantError{Reason: "page " + string(pageId) + " has been deleted in this transaction"}
		}
		return dp.page, nil
	}
	if v, ok := ps.pageCache.Get(string(pageId)); ok {
		return v.(*Page), nil
	}

	var page *Page
	err := ps.kv.Get(pageKey(ps.name, pageId), func(val []byte) error {
		pr, ok := encode.DecodePageRecord(val)
		if !ok {
			return &CorruptionError{Reason: "unreadable page " + string(pageId)}
		}
		p, ok := DecodePage(pr.Data)
		if !ok {
			return &CorruptionError{Reason: "unreadable page blob " + string(pageId)}
		}
		page = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	ps.pageCache.Put(string(pageId), page, nil)
	return page, nil
}

// PutPage stages page and its metadata for writing at commit, under
// pageId. isNew indicates an allocation that does not yet exist in the kv
// engine; otherwise the write is treated as an update of an existing row.
func (ps *PageStore) PutPage(pageId PageId, page *Page, md *PageMetadata, isNew bool) {
	op := pageOpUpdate
	if isNew {
		op = pageOpInsert
	}
	ps.dirtyPages[pageId] = &dirtyPage{op: op, page: page, md: md}
	delete(ps.dirtyLinks, pageId)
}

// DeletePage stages pageId's page row for deletion at commit.
func (ps *PageStore) DeletePage(pageId PageId) {
	ps.dirtyPages[pageId] = &dirtyPage{op: pageOpDelete}
	delete(ps.dirtyLinks, pageId)
	ps.pageCache.Remove(string(pageId))
	ps.mdCache.Remove(string(pageId))
}

// UpdateLink stages a metadata-only change (prevPageId/HasPrev/Count) for a
// page whose blob is untouched, used when relinking neighbors around an
// insert or removal.
func (ps *PageStore) UpdateLink(md *PageMetadata) {
	if _, ok := ps.dirtyPages[md.PageId]; ok {
		// The page's blob is already dirty this transaction; its row will
		// be written with up to date metadata, so no separate link update
		// is needed.
		return
	}
	ps.dirtyLinks[md.PageId] = md
}

// GetPageIdForRowid looks up which page currently holds rowid.
func (ps *PageStore) GetPageIdForRowid(rowid Rowid) (PageId, bool, error) {
	if dm, ok := ps.dirtyMaps[rowid]; ok {
		if dm.op == mapOpDelete {
			return "", false, nil
		}
		return dm.pageId, true, nil
	}
	if v, ok := ps.mapCache.Get(fmt.Sprint(rowid)); ok {
		return v.(PageId), true, nil
	}

	var pageId PageId
	found := false
	err := ps.kv.Get(mapKey(ps.name, rowid), func(val []byte) error {
		pageId = PageId(val)
		found = true
		return nil
	})
	if err == kv.ErrNotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if found {
		ps.mapCache.Put(fmt.Sprint(rowid), pageId, nil)
	}
	return pageId, found, nil
}

// SetRowidPage stages rowid -> pageId for writing at commit.
func (ps *PageStore) SetRowidPage(rowid Rowid, pageId PageId) {
	ps.dirtyMaps[rowid] = &dirtyMapEntry{op: mapOpSet, pageId: pageId}
}

// DeleteRowidPage stages rowid's map entry for deletion at commit.
func (ps *PageStore) DeleteRowidPage(rowid Rowid) {
	ps.dirtyMaps[rowid] = &dirtyMapEntry{op: mapOpDelete}
	ps.mapCache.Remove(fmt.Sprint(rowid))
}

// Commit drains the dirty sets into the kv engine: page table writes
// (inserts, updates, deletes) first, then link-only metadata updates for
// pages not already written, then rowid map writes, and finally primes the
// caches with the committed values and clears the dirty sets.
func (ps *PageStore) Commit() error {
	updater, err := ps.kv.Update()
	if err != nil {
		return err
	}

	if err := ps.writePageOps(updater); err != nil {
		updater.Rollback()
		return err
	}
	if err := ps.writeLinkOps(updater); err != nil {
		updater.Rollback()
		return err
	}
	if err := ps.writeMapOps(updater); err != nil {
		updater.Rollback()
		return err
	}

	if err := updater.Commit(); err != nil {
		return err
	}

	ps.applyToCaches()
	ps.BeginTxn()
	return nil
}

func (ps *PageStore) writePageOps(updater kv.Updater) error {
	for pageId, dp := range ps.dirtyPages {
		key := pageKey(ps.name, pageId)
		switch dp.op {
		case pageOpInsert, pageOpUpdate:
			pr := encode.PageRecord{
				Group:      dp.md.Group,
				PrevPageId: string(dp.md.PrevPageId),
				HasPrev:    dp.md.HasPrev,
				Count:      dp.page.Count(),
				Data:       dp.page.Encode(),
			}
			if err := updater.Set(key, encode.EncodePageRecord(pr)); err != nil {
				return err
			}
		case pageOpDelete:
			if err := updater.Delete(key); err != nil {
				return err
			}
		}
	}
	return nil
}

func (ps *PageStore) writeLinkOps(updater kv.Updater) error {
	for pageId, md := range ps.dirtyLinks {
		if _, ok := ps.dirtyPages[pageId]; ok {
			continue
		}
		key := pageKey(ps.name, pageId)
		var existing encode.PageRecord
		var found bool
		err := ps.kv.Get(key, func(val []byte) error {
			pr, ok := encode.DecodePageRecord(val)
			if !ok {
				return &CorruptionError{Reason: "unreadable page " + string(pageId)}
			}
			existing = pr
			found = true
			return nil
		})
		if err != nil && err != kv.ErrNotFound {
			return err
		}
		if !found {
			return &InvariantError{Reason: "link update for unknown page " + string(pageId)}
		}
		existing.Group = md.Group
		existing.PrevPageId = string(md.PrevPageId)
		existing.HasPrev = md.HasPrev
		existing.Count = md.Count
		if err := updater.Set(key, encode.EncodePageRecord(existing)); err != nil {
			return err
		}
	}
	return nil
}

func (ps *PageStore) writeMapOps(updater kv.Updater) error {
	for rowid, dm := range ps.dirtyMaps {
		key := mapKey(ps.name, rowid)
		switch dm.op {
		case mapOpSet:
			if err := updater.Set(key, []byte(dm.pageId)); err != nil {
				return err
			}
		case mapOpDelete:
			if err := updater.Delete(key); err != nil {
				return err
			}
		}
	}
	return nil
}

func (ps *PageStore) applyToCaches() {
	for pageId, dp := range ps.dirtyPages {
		switch dp.op {
		case pageOpInsert, pageOpUpdate:
			ps.pageCache.Put(string(pageId), dp.page, nil)
			ps.mdCache.Put(string(pageId), dp.md, nil)
		case pageOpDelete:
			ps.pageCache.Remove(string(pageId))
			ps.mdCache.Remove(string(pageId))
		}
	}
	for pageId, md := range ps.dirtyLinks {
		if v, ok := ps.mdCache.Get(string(pageId)); ok {
			_ = v
			ps.mdCache.Put(string(pageId), md, nil)
		}
	}
	for rowid, dm := range ps.dirtyMaps {
		switch dm.op {
		case mapOpSet:
			ps.mapCache.Put(fmt.Sprint(rowid), dm.pageId, nil)
		case mapOpDelete:
			ps.mapCache.Remove(fmt.Sprint(rowid))
		}
	}
}

// Rollback discards the dirty sets and restores the GroupIndex to its state
// at the start of the transaction, undoing any NewGroup/InsertPageAfter/
// RemovePage/Count mutation the inserter or compactor applied in place
// before the abort. The kv engine was never written to. Pages are edited in
// place, so every page dirtied in this transaction is dropped from the page
// cache and is read back from the kv engine on next use; the rest of the
// caches hold only committed values.
func (ps *PageStore) Rollback() {
	ps.Index.restore(ps.indexSnapshot)
	for pageId := range ps.dirtyPages {
		ps.pageCache.Remove(string(pageId))
	}
	ps.BeginTxn()
}
