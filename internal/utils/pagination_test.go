package utils

import "testing"

func TestParsePage(t *testing.T) {
	cases := []struct {
		number, size string
		want         Page
	}{
		{"", "", Page{1, DefaultPageSize}},
		{"3", "50", Page{3, 50}},
		{"0", "0", Page{1, 1}},
		{"-2", "-5", Page{1, 1}},
		{"x", "y", Page{1, DefaultPageSize}},
		{" 2", "10", Page{1, 10}}, // no trimming
		{"2", "500", Page{2, MaxPageSize}},
		{"999999999999999999999999", "", Page{1, DefaultPageSize}}, // overflow
	}
	for _, tc := range cases {
		if got := ParsePage(tc.number, tc.size); got != tc.want {
			t.Fatalf("ParsePage(%q, %q) = %+v; want %+v", tc.number, tc.size, got, tc.want)
		}
	}
}

func TestNewPage_DefaultsForCode(t *testing.T) {
	if got := NewPage(0, 0); got != (Page{1, DefaultPageSize}) {
		t.Fatalf("NewPage(0,0) = %+v", got)
	}
	if got := NewPage(4, 1000); got != (Page{4, MaxPageSize}) {
		t.Fatalf("NewPage(4,1000) = %+v", got)
	}
}

func TestPageArithmetic(t *testing.T) {
	p := Page{Number: 2, Size: 20}
	if p.Offset() != 20 {
		t.Fatalf("Offset = %d", p.Offset())
	}
	for _, tc := range []struct {
		total int64
		pages int
		next  bool
	}{
		{0, 0, false},
		{20, 1, false},
		{21, 2, false},
		{41, 3, true},
	} {
		if got := p.TotalPages(tc.total); got != tc.pages {
			t.Fatalf("TotalPages(%d) = %d; want %d", tc.total, got, tc.pages)
		}
		if got := p.HasNext(tc.total); got != tc.next {
			t.Fatalf("HasNext(%d) = %v; want %v", tc.total, got, tc.next)
		}
	}
}
