package view

import "testing"

func TestPageInsertAndRemove(t *testing.T) {
	p := NewPage()
	p.Insert(0, 10)
	p.Insert(1, 20)
	p.Insert(1, 15)

	want := []Rowid{10, 15, 20}
	for i, r := range want {
		if got := p.RowidAt(i); got != r {
			t.Errorf("RowidAt(%d) = %d, want %d", i, got, r)
		}
	}

	if idx, ok := p.IndexOf(15); !ok || idx != 1 {
		t.Errorf("IndexOf(15) = (%d, %v), want (1, true)", idx, ok)
	}
	if _, ok := p.IndexOf(99); ok {
		t.Errorf("IndexOf(99) found, want not found")
	}

	removed := p.RemoveAt(1)
	if removed != 15 {
		t.Errorf("RemoveAt(1) = %d, want 15", removed)
	}
	if p.Count() != 2 {
		t.Errorf("Count() = %d, want 2", p.Count())
	}
}

func TestPageRemoveRangeAppendPrepend(t *testing.T) {
	p := NewPageFromRowids([]Rowid{1, 2, 3, 4, 5})

	removed := p.RemoveRange(1, 3)
	if len(removed) != 2 || removed[0] != 2 || removed[1] != 3 {
		t.Errorf("RemoveRange(1,3) = %v, want [2 3]", removed)
	}
	if p.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", p.Count())
	}

	p.AppendRange([]Rowid{6, 7})
	p.PrependRange([]Rowid{0})

	want := []Rowid{0, 1, 4, 5, 6, 7}
	if p.Count() != len(want) {
		t.Fatalf("Count() = %d, want %d", p.Count(), len(want))
	}
	for i, r := range want {
		if got := p.RowidAt(i); got != r {
			t.Errorf("RowidAt(%d) = %d, want %d", i, got, r)
		}
		if idx, ok := p.IndexOf(r); !ok || idx != i {
			t.Errorf("IndexOf(%d) = (%d, %v), want (%d, true)", r, idx, ok, i)
		}
	}
}

func TestPageEnumerate(t *testing.T) {
	p := NewPageFromRowids([]Rowid{10, 20, 30, 40})

	var forward []Rowid
	p.Enumerate(1, 3, Forward, func(rowid Rowid, localIndex int) bool {
		forward = append(forward, rowid)
		return true
	})
	if len(forward) != 2 || forward[0] != 20 || forward[1] != 30 {
		t.Errorf("Enumerate(1,3,Forward) = %v, want [20 30]", forward)
	}

	var reverse []Rowid
	p.Enumerate(0, 4, Reverse, func(rowid Rowid, localIndex int) bool {
		reverse = append(reverse, rowid)
		return true
	})
	want := []Rowid{40, 30, 20, 10}
	for i, r := range want {
		if reverse[i] != r {
			t.Errorf("Enumerate reverse[%d] = %d, want %d", i, reverse[i], r)
		}
	}

	var stopped []Rowid
	p.Enumerate(0, 4, Forward, func(rowid Rowid, localIndex int) bool {
		stopped = append(stopped, rowid)
		return rowid != 20
	})
	if len(stopped) != 2 {
		t.Errorf("Enumerate with early stop visited %d rowids, want 2", len(stopped))
	}
}

func TestPageEncodeDecode(t *testing.T) {
	p := NewPageFromRowids([]Rowid{-5, 0, 5, 100})
	buf := p.Encode()

	got, ok := DecodePage(buf)
	if !ok {
		t.Fatalf("DecodePage failed")
	}
	if got.Count() != p.Count() {
		t.Fatalf("DecodePage Count() = %d, want %d", got.Count(), p.Count())
	}
	for i := 0; i < p.Count(); i++ {
		if got.RowidAt(i) != p.RowidAt(i) {
			t.Errorf("DecodePage RowidAt(%d) = %d, want %d", i, got.RowidAt(i), p.RowidAt(i))
		}
	}
}
