package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDateOfDropsTime(t *testing.T) {
	d := DateOf(time.Date(2025, 3, 9, 23, 59, 0, 0, time.FixedZone("x", 5*3600)))
	if d.String() != "2025-03-09" {
		t.Fatalf("unexpected date %s", d)
	}
	if d.Hour() != 0 || d.Location() != time.UTC {
		t.Fatalf("expected UTC midnight, got %v", d.Time)
	}
}

func TestParseCategory(t *testing.T) {
	cases := []struct {
		in   string
		want Category
		ok   bool
	}{
		{"Food", Food, true},
		{"transport", Transport, true},
		{" ENTERTAINMENT ", Entertainment, true},
		{"Rent", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseCategory(tc.in)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.want, got, err)
			}
			continue
		}
		if !errors.Is(err, ErrUnknownCategory) {
			t.Fatalf("%q expected ErrUnknownCategory, got %v", tc.in, err)
		}
	}
}

func TestCategoryString(t *testing.T) {
	if Food.String() != "Food" || Entertainment.String() != "Entertainment" {
		t.Fatalf("unexpected names %s %s", Food, Entertainment)
	}
	if Category(9).Valid() {
		t.Fatalf("category 9 must be invalid")
	}
}

func TestEntryValidate(t *testing.T) {
	good := Entry{Date: NewDate(2025, 1, 1), Category: Food, Amount: Money{Cents: 0}, Note: ""}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	long := make([]byte, 201)
	for i := range long {
		long[i] = 'a'
	}
	bads := []Entry{
		{Date: Date{}, Category: Food, Amount: Money{Cents: 1}},
		{Date: NewDate(2025, 1, 1), Category: Category(7), Amount: Money{Cents: 1}},
		{Date: NewDate(2025, 1, 1), Category: Food, Amount: Money{Cents: -1}},
		{Date: NewDate(2025, 1, 1), Category: Food, Amount: Money{Cents: MaxAmountCents + 1}},
		{Date: NewDate(2025, 1, 1), Category: Food, Amount: Money{Cents: 1}, Note: string(long)},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}

	// 200 multi-byte characters are within the limit
	wide := Entry{Date: NewDate(2025, 1, 1), Category: Food, Note: strings.Repeat("₹", 200)}
	if err := wide.Validate(); err != nil {
		t.Fatalf("200-rune note rejected: %v", err)
	}
}

func TestCapTable(t *testing.T) {
	var caps CapTable
	if caps.Get(Food).Cents != 0 {
		t.Fatalf("unset cap must default to zero")
	}
	caps.Set(Food, Money{Cents: 100})
	caps.Set(Food, Money{Cents: 250})
	caps.Set(Transport, Money{Cents: 50})
	if caps.Get(Food).Cents != 250 {
		t.Fatalf("last write must win, got %d", caps.Get(Food).Cents)
	}
	if caps.Sum().Cents != 300 {
		t.Fatalf("sum = %d, want 300", caps.Sum().Cents)
	}
}

func TestNotificationKey(t *testing.T) {
	k := KeyFor(time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC), Transport)
	if k != (NotificationKey{Year: 2025, Month: 6, Category: Transport}) {
		t.Fatalf("unexpected key %+v", k)
	}
	if k.String() != "6-2025-Transport" {
		t.Fatalf("unexpected key string %q", k.String())
	}
}
