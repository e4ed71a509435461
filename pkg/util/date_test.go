package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseDateLayouts(t *testing.T) {
	want := time.Date(1987, 5, 20, 0, 0, 0, 0, time.UTC)
	cases := []string{
		"20-May-87",
		"1987-05-20",
		"May 20, 1987",
		"20/05/1987",
		"20-05-1987",
		" 20-May-1987 ",
		"1987-05-20T13:45:00Z",
	}
	for _, s := range cases {
		got, ok := ParseDate(s)
		if !ok {
			t.Fatalf("%q: expected ok", s)
		}
		if !got.Equal(want) {
			t.Fatalf("%q: got %v want %v", s, got, want)
		}
	}
}

func TestParseDateDayFirst(t *testing.T) {
	got, ok := ParseDate("03/04/2020")
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Month() != time.April || got.Day() != 3 {
		t.Fatalf("expected 3 April, got %v", got)
	}
}

func TestParseEventDateMonthFirst(t *testing.T) {
	got, ok := ParseEventDate("01/02/2020")
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Month() != time.January || got.Day() != 2 {
		t.Fatalf("expected 2 January, got %v", got)
	}
	if got, _ := ParseEventDate("2020-03-04"); got.Month() != time.March || got.Day() != 4 {
		t.Fatalf("iso date misread: %v", got)
	}
	if _, ok := ParseEventDate("25/12/2020"); ok {
		t.Fatalf("day-first date should not parse as an event date")
	}
}

func TestParseDateInvalid(t *testing.T) {
	for _, s := range []string{"", "yesterday", "32-Jan-20", "2020-13-01"} {
		if _, ok := ParseDate(s); ok {
			t.Fatalf("%q: expected failure", s)
		}
	}
}

func TestFormatDate(t *testing.T) {
	d := time.Date(2008, 7, 3, 15, 0, 0, 0, time.UTC)
	if got := FormatDate(d); got != "2008-07-03" {
		t.Fatalf("unexpected %s", got)
	}
}
