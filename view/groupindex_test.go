package view

import "testing"

func TestGroupIndexNewGroupAndInsertPageAfter(t *testing.T) {
	gi := newGroupIndex()

	p1 := &PageMetadata{PageId: "p1", Group: "g", Count: 10}
	gi.NewGroup("g", p1)

	if gi.NumberOfGroups() != 1 {
		t.Fatalf("NumberOfGroups() = %d, want 1", gi.NumberOfGroups())
	}
	if group, ok := gi.GroupOf("p1"); !ok || group != "g" {
		t.Errorf("GroupOf(p1) = (%q, %v), want (g, true)", group, ok)
	}

	p2 := &PageMetadata{PageId: "p2", Group: "g", Count: 5}
	relinked := gi.InsertPageAfter("g", "p1", p2)
	if relinked != nil {
		t.Errorf("InsertPageAfter at tail relinked %v, want nil", relinked)
	}

	pages := gi.Pages("g")
	if len(pages) != 2 || pages[0].PageId != "p1" || pages[1].PageId != "p2" {
		t.Fatalf("Pages(g) = %v, want [p1 p2]", pages)
	}
	if !pages[1].HasPrev || pages[1].PrevPageId != "p1" {
		t.Errorf("p2 prevPageId = %q (hasPrev=%v), want p1 (true)", pages[1].PrevPageId, pages[1].HasPrev)
	}

	if gi.TotalCount("g") != 15 {
		t.Errorf("TotalCount(g) = %d, want 15", gi.TotalCount("g"))
	}

	p3 := &PageMetadata{PageId: "p3", Group: "g", Count: 1}
	relinked = gi.InsertPageAfter("g", "p1", p3)
	if relinked == nil || relinked.PageId != "p2" {
		t.Fatalf("InsertPageAfter(p1) relinked = %v, want p2", relinked)
	}
	if relinked.PrevPageId != "p3" {
		t.Errorf("p2 prevPageId after relink = %q, want p3", relinked.PrevPageId)
	}

	pages = gi.Pages("g")
	if len(pages) != 3 || pages[0].PageId != "p1" || pages[1].PageId != "p3" || pages[2].PageId != "p2" {
		t.Fatalf("Pages(g) after split = %v, want [p1 p3 p2]", pages)
	}
}

func TestGroupIndexRemovePage(t *testing.T) {
	gi := newGroupIndex()
	p1 := &PageMetadata{PageId: "p1", Group: "g", Count: 1}
	gi.NewGroup("g", p1)
	p2 := &PageMetadata{PageId: "p2", Group: "g", Count: 1}
	gi.InsertPageAfter("g", "p1", p2)

	relinked, empty := gi.RemovePage("g", "p1")
	if empty {
		t.Fatalf("RemovePage(p1) reported group empty, want not empty")
	}
	if relinked == nil || relinked.PageId != "p2" {
		t.Fatalf("RemovePage(p1) relinked = %v, want p2", relinked)
	}
	if relinked.HasPrev {
		t.Errorf("p2 HasPrev = true after removing its only predecessor, want false")
	}

	relinked, empty = gi.RemovePage("g", "p2")
	if !empty {
		t.Errorf("RemovePage(p2) reported group not empty, want empty")
	}
	if relinked != nil {
		t.Errorf("RemovePage(p2) relinked = %v, want nil", relinked)
	}
	if gi.NumberOfGroups() != 0 {
		t.Errorf("NumberOfGroups() = %d, want 0 after dropping all pages", gi.NumberOfGroups())
	}
}

func TestGroupIndexPrepare(t *testing.T) {
	gi := newGroupIndex()
	rows := []pageRow{
		{PageId: "p2", Group: "g", PrevPageId: "p1", HasPrev: true, Count: 3},
		{PageId: "p1", Group: "g", HasPrev: false, Count: 5},
		{PageId: "q1", Group: "h", HasPrev: false, Count: 2},
	}
	if err := gi.prepare(rows); err != nil {
		t.Fatalf("prepare() failed: %s", err)
	}

	pages := gi.Pages("g")
	if len(pages) != 2 || pages[0].PageId != "p1" || pages[1].PageId != "p2" {
		t.Fatalf("Pages(g) = %v, want [p1 p2]", pages)
	}
	if gi.TotalCount("g") != 8 {
		t.Errorf("TotalCount(g) = %d, want 8", gi.TotalCount("g"))
	}
	if gi.TotalCount("h") != 2 {
		t.Errorf("TotalCount(h) = %d, want 2", gi.TotalCount("h"))
	}
}

func TestGroupIndexPrepareDetectsCycle(t *testing.T) {
	gi := newGroupIndex()
	rows := []pageRow{
		{PageId: "p1", Group: "g", PrevPageId: "p2", HasPrev: true, Count: 1},
		{PageId: "p2", Group: "g", PrevPageId: "p1", HasPrev: true, Count: 1},
	}
	err := gi.prepare(rows)
	if err == nil {
		t.Fatalf("prepare() with a cycle and no root succeeded, want CorruptionError")
	}
	if _, ok := err.(*CorruptionError); !ok {
		t.Errorf("prepare() error = %T, want *CorruptionError", err)
	}
}

func TestGroupIndexPrepareDetectsMissingPage(t *testing.T) {
	gi := newGroupIndex()
	rows := []pageRow{
		{PageId: "p1", Group: "g", HasPrev: false, Count: 1},
		{PageId: "p3", Group: "g", PrevPageId: "p2", HasPrev: true, Count: 1},
	}
	err := gi.prepare(rows)
	if err == nil {
		t.Fatalf("prepare() with a dangling prevPageId succeeded, want CorruptionError")
	}
}
