package ui

import (
	"reflect"
	"sort"
	"testing"
)

func TestSidebarFilter(t *testing.T) {
	s := newSidebarModel()
	s.setSize(20, 5)
	s.setTitles([]string{"第一章 开始", "第二章 相遇", "第十章 相逢", "尾声"})

	s.filter.SetValue("相")
	s.applyFilter()
	got := append([]int(nil), s.visible...)
	sort.Ints(got)
	if !reflect.DeepEqual(got, []int{1, 2}) {
		t.Fatalf("visible = %v, want chapters 1 and 2", s.visible)
	}

	s.moveCursor(5)
	if i, ok := s.selected(); !ok || i != s.visible[1] {
		t.Errorf("selected() = %d, %v, want the last match", i, ok)
	}

	s.filter.SetValue("没有")
	s.applyFilter()
	if _, ok := s.selected(); ok {
		t.Error("selected() with no matches should report false")
	}

	s.stopFiltering(true)
	if len(s.visible) != 4 {
		t.Errorf("reset filter shows %d titles, want 4", len(s.visible))
	}
}

func TestSidebarScrollsToCurrent(t *testing.T) {
	titles := make([]string, 50)
	for i := range titles {
		titles[i] = "章"
	}
	s := newSidebarModel()
	s.setSize(20, 10)
	s.setTitles(titles)

	s.setCurrent(30)
	if s.cursor != 30 || s.offset > 30 || s.offset+10 <= 30 {
		t.Errorf("cursor %d offset %d does not show chapter 30", s.cursor, s.offset)
	}

	s.setCurrent(0)
	if s.offset != 0 {
		t.Errorf("offset = %d, want 0", s.offset)
	}
}
