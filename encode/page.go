package encode

// Page blobs hold an ordered sequence of int64 rowids, each zigzag-varint
// encoded so that small and negative rowids stay cheap, following the same
// tag-free varint stream convention as the teacher's row value encoding.

// EncodeRowids appends the count-prefixed, zigzag-varint encoded rowid
// sequence to buf.
func EncodeRowids(buf []byte, rowids []int64) []byte {
	buf = EncodeVarint(buf, uint64(len(rowids)))
	for _, r := range rowids {
		buf = EncodeZigzag64(buf, r)
	}
	return buf
}

// DecodeRowids decodes a rowid sequence previously written by EncodeRowids.
func DecodeRowids(buf []byte) ([]int64, bool) {
	buf, n, ok := DecodeVarint(buf)
	if !ok {
		return nil, false
	}
	rowids := make([]int64, 0, n)
	for i := uint64(0); i < n; i++ {
		var r int64
		var ok2 bool
		buf, r, ok2 = DecodeZigzag64(buf)
		if !ok2 {
			return nil, false
		}
		rowids = append(rowids, r)
	}
	return rowids, true
}

// PageRecord is one row of the page table: group, prevPageId (HasPrev false
// means null / first page), count, and the page's rowid blob in Data.
type PageRecord struct {
	Group      string
	PrevPageId string
	HasPrev    bool
	Count      int
	Data       []byte
}

// EncodePageRecord serializes a PageRecord to a stable byte form for storage
// as the value of a page table row.
func EncodePageRecord(pr PageRecord) []byte {
	buf := make([]byte, 0, len(pr.Group)+len(pr.PrevPageId)+len(pr.Data)+16)
	buf = EncodeString(buf, pr.Group)
	if pr.HasPrev {
		buf = append(buf, 1)
		buf = EncodeString(buf, pr.PrevPageId)
	} else {
		buf = append(buf, 0)
	}
	buf = EncodeVarint(buf, uint64(pr.Count))
	buf = EncodeVarint(buf, uint64(len(pr.Data)))
	buf = append(buf, pr.Data...)
	return buf
}

// DecodePageRecord is the inverse of EncodePageRecord.
func DecodePageRecord(buf []byte) (PageRecord, bool) {
	var pr PageRecord
	var ok bool

	buf, pr.Group, ok = DecodeString(buf)
	if !ok || len(buf) < 1 {
		return PageRecord{}, false
	}
	hasPrev := buf[0] != 0
	buf = buf[1:]
	pr.HasPrev = hasPrev
	if hasPrev {
		buf, pr.PrevPageId, ok = DecodeString(buf)
		if !ok {
			return PageRecord{}, false
		}
	}

	var cnt, dlen uint64
	buf, cnt, ok = DecodeVarint(buf)
	if !ok {
		return PageRecord{}, false
	}
	pr.Count = int(cnt)

	buf, dlen, ok = DecodeVarint(buf)
	if !ok || uint64(len(buf)) < dlen {
		return PageRecord{}, false
	}
	pr.Data = append([]byte(nil), buf[:dlen]...)
	return pr, true
}
