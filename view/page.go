package view

import "github.com/leftmike/orderedview/encode"

// Rowid identifies a row in the primary store.
type Rowid int64

// PageId is the opaque, stable identifier of a page (a UUID string).
type PageId string

// Page is a fixed-capacity ordered array of rowids. It is the unit the
// compactor splits, spills, and drops, and the unit the page store caches
// and persists as a single blob.
type Page struct {
	rowids []Rowid
	index  map[Rowid]int
}

// NewPage returns an empty page.
func NewPage() *Page {
	return &Page{index: map[Rowid]int{}}
}

// NewPageFromRowids builds a page from an existing ordered rowid sequence,
// as happens when decoding a page blob read back from the kv engine.
func NewPageFromRowids(rowids []Rowid) *Page {
	p := &Page{
		rowids: rowids,
		index:  make(map[Rowid]int, len(rowids)),
	}
	for i, r := range rowids {
		p.index[r] = i
	}
	return p
}

// Count returns the number of rowids in the page.
func (p *Page) Count() int {
	return len(p.rowids)
}

// RowidAt returns the rowid at the given local index.
func (p *Page) RowidAt(index int) Rowid {
	return p.rowids[index]
}

// IndexOf returns the local index of rowid, if present.
func (p *Page) IndexOf(rowid Rowid) (int, bool) {
	idx, ok := p.index[rowid]
	return idx, ok
}

// Insert places rowid at the given local index, shifting later rowids right.
func (p *Page) Insert(index int, rowid Rowid) {
	p.rowids = append(p.rowids, 0)
	copy(p.rowids[index+1:], p.rowids[index:])
	p.rowids[index] = rowid
	p.reindexFrom(index)
}

// RemoveAt removes and returns the rowid at the given local index, shifting
// later rowids left.
func (p *Page) RemoveAt(index int) Rowid {
	rowid := p.rowids[index]
	delete(p.index, rowid)
	p.rowids = append(p.rowids[:index], p.rowids[index+1:]...)
	p.reindexFrom(index)
	return rowid
}

// RemoveRange removes rowids in [lo, hi) and returns them in order.
func (p *Page) RemoveRange(lo, hi int) []Rowid {
	removed := append([]Rowid(nil), p.rowids[lo:hi]...)
	for _, r := range removed {
		delete(p.index, r)
	}
	p.rowids = append(p.rowids[:lo], p.rowids[hi:]...)
	p.reindexFrom(lo)
	return removed
}

// AppendRange appends rowids to the end of the page.
func (p *Page) AppendRange(rowids []Rowid) {
	start := len(p.rowids)
	p.rowids = append(p.rowids, rowids...)
	p.reindexFrom(start)
}

// PrependRange inserts rowids at the start of the page.
func (p *Page) PrependRange(rowids []Rowid) {
	p.rowids = append(append([]Rowid(nil), rowids...), p.rowids...)
	p.reindexFrom(0)
}

func (p *Page) reindexFrom(start int) {
	if p.index == nil {
		p.index = map[Rowid]int{}
	}
	for i := start; i < len(p.rowids); i++ {
		p.index[p.rowids[i]] = i
	}
}

// Direction controls which way Enumerate walks a page.
type Direction int

const (
	Forward Direction = iota
	Reverse
)

// Enumerate yields (rowid, localIndex) pairs for local indices in [lo, hi),
// in the requested direction. cb returns false to stop early.
func (p *Page) Enumerate(lo, hi int, dir Direction, cb func(rowid Rowid, localIndex int) bool) {
	if dir == Forward {
		for i := lo; i < hi; i++ {
			if !cb(p.rowids[i], i) {
				return
			}
		}
		return
	}
	for i := hi - 1; i >= lo; i-- {
		if !cb(p.rowids[i], i) {
			return
		}
	}
}

// Encode serializes the page to a stable blob.
func (p *Page) Encode() []byte {
	ints := make([]int64, len(p.rowids))
	for i, r := range p.rowids {
		ints[i] = int64(r)
	}
	return encode.EncodeRowids(nil, ints)
}

// DecodePage is the inverse of Encode.
func DecodePage(buf []byte) (*Page, bool) {
	ints, ok := encode.DecodeRowids(buf)
	if !ok {
		return nil, false
	}
	rowids := make([]Rowid, len(ints))
	for i, n := range ints {
		rowids[i] = Rowid(n)
	}
	return NewPageFromRowids(rowids), true
}
