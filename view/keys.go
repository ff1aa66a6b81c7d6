package view

// The kv engine backing a View is a single flat byte-keyed store, so the
// page table and the rowid->page map table are multiplexed into it by
// prefixing every key with a table tag and the view's name, following the
// teacher's storage/kvrows convention of packing logical tables into one
// keyspace by key range.
//
//   pageKey:  0x01 ++ name ++ 0x00 ++ pageId
//   mapKey:   0x02 ++ name ++ 0x00 ++ zigzag-varint(rowid)
//
// Both prefixes are followed by a NUL-terminated view name so that
// Iterate(prefix) scans restricted to "page_<name>" or "map_<name>" never
// cross into another view sharing the same kv engine.

import "github.com/leftmike/orderedview/encode"

const (
	pageTableTag     byte = 0x01
	mapTableTag      byte = 0x02
	registryTableTag byte = 0x03
)

// CurrentClassVersion is bumped whenever the on-disk encoding changes in a
// way existing rows cannot be read under: 1->2 dropped the standalone
// key->pageId map table in favor of the rowid->pageId map; 2->3 expanded
// the page table from a single metadata blob into the columnar
// group/prevPageId/count/data record encoded by encode.PageRecord.
const CurrentClassVersion = 3

func registryKey(name, field string) []byte {
	buf := make([]byte, 0, len(name)+len(field)+2)
	buf = append(buf, registryTableTag)
	buf = append(buf, name...)
	buf = append(buf, 0)
	buf = append(buf, field...)
	return buf
}

func pageTablePrefix(name string) []byte {
	buf := make([]byte, 0, len(name)+2)
	buf = append(buf, pageTableTag)
	buf = append(buf, name...)
	buf = append(buf, 0)
	return buf
}

func mapTablePrefix(name string) []byte {
	buf := make([]byte, 0, len(name)+2)
	buf = append(buf, mapTableTag)
	buf = append(buf, name...)
	buf = append(buf, 0)
	return buf
}

func pageKey(name string, pageId PageId) []byte {
	return append(pageTablePrefix(name), []byte(pageId)...)
}

func mapKey(name string, rowid Rowid) []byte {
	return encode.EncodeZigzag64(mapTablePrefix(name), int64(rowid))
}

func mapKeyRowid(name string, key []byte) (Rowid, bool) {
	prefix := mapTablePrefix(name)
	if len(key) <= len(prefix) {
		return 0, false
	}
	_, n, ok := encode.DecodeZigzag64(key[len(prefix):])
	return Rowid(n), ok
}
