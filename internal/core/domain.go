package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	Food Category = iota
	Transport
	Entertainment

	numCategories = 3
)

type (
	// Category is one of the fixed expense categories.
	Category uint8

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Entry is one recorded expense. Entries are never modified after being appended.
	Entry struct {
		Date     Date
		Category Category
		Amount   Money
		Note     string // optional
	}

	// CapTable holds the monthly cap for every category. The zero value means no caps set.
	CapTable [numCategories]Money

	// NotificationKey identifies a one-time low-budget alert.
	NotificationKey struct {
		Year     int
		Month    int
		Category Category
	}
)

var (
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrUnknownCategory = errors.New("unknown category")
	ErrNoteTooLong     = errors.New("note too long (max 200 characters)")
)

var categoryNames = [numCategories]string{"Food", "Transport", "Entertainment"}

// Categories returns the fixed category set in display order.
func Categories() []Category {
	return []Category{Food, Transport, Entertainment}
}

func (c Category) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Category(%d)", uint8(c))
	}
	return categoryNames[c]
}

func (c Category) Valid() bool {
	return c < numCategories
}

// ParseCategory maps a category name (case-insensitive) to its Category.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for i, name := range categoryNames {
		if strings.EqualFold(s, name) {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf drops the time of day from t, keeping its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a date in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	return DateOf(t), nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// SameMonth reports whether d falls in the same calendar month and year as t.
func (d Date) SameMonth(t time.Time) bool {
	return d.Year() == t.Year() && d.Time.Month() == t.Month()
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (m Money) Validate() error {
	if m.Cents < 0 || m.Cents > MaxAmountCents {
		return ErrInvalidAmount
	}
	return nil
}

func (e Entry) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if !e.Category.Valid() {
		return ErrUnknownCategory
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if utf8.RuneCountInString(e.Note) > 200 {
		return ErrNoteTooLong
	}
	return nil
}

// Get returns the cap for c, zero when unset.
func (t CapTable) Get(c Category) Money {
	if !c.Valid() {
		return Money{}
	}
	return t[c]
}

// Set overwrites the cap for c.
func (t *CapTable) Set(c Category, m Money) {
	if c.Valid() {
		t[c] = m
	}
}

// Sum returns the total of all caps.
func (t CapTable) Sum() Money {
	var total Money
	for _, m := range t {
		total = total.Add(m)
	}
	return total
}

// KeyFor builds the ledger key for category c in the month containing ref.
func KeyFor(ref time.Time, c Category) NotificationKey {
	return NotificationKey{Year: ref.Year(), Month: int(ref.Month()), Category: c}
}

func (k NotificationKey) String() string {
	return fmt.Sprintf("%d-%d-%s", k.Month, k.Year, k.Category)
}
