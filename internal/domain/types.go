package domain

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DateLayout is the on-disk and command-line date format
const DateLayout = "2006-01-02"

// Placeholders used when a field is left empty
const (
	DefaultName     = "Tanpa Nama Masalah"
	DefaultCause    = "Tidak Diketahui"
	DefaultSolution = "Tidak Ada Solusi"
)

// now is replaced in tests
var now = time.Now

// Problem is one logged hardware issue
type Problem struct {
	ID          int64     `json:"id,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Cause       string    `json:"cause"`
	Solution    string    `json:"solution"`
	EntryDate   time.Time `json:"entry_date"`
}

// Fields carries raw user or row input for NewProblem.
// Date takes precedence over EntryDate when it is non-zero.
type Fields struct {
	ID          int64
	Name        string
	Description string
	Category    string
	Cause       string
	Solution    string
	EntryDate   string
	Date        time.Time
}

// NewProblem normalizes f into a Problem. Empty text fields get their
// placeholders, an unknown category becomes DefaultCategory, and a missing
// or unparsable date becomes today (logged as a warning on log).
func NewProblem(f Fields, log *zap.Logger) *Problem {
	if log == nil {
		log = zap.NewNop()
	}

	p := &Problem{
		ID:          f.ID,
		Name:        orDefault(f.Name, DefaultName),
		Description: f.Description,
		Category:    NormalizeCategory(f.Category),
		Cause:       orDefault(f.Cause, DefaultCause),
		Solution:    orDefault(f.Solution, DefaultSolution),
	}

	switch {
	case !f.Date.IsZero():
		p.EntryDate = TruncateDate(f.Date)
	case f.EntryDate != "":
		d, err := ParseDate(f.EntryDate)
		if err != nil {
			log.Warn("invalid entry date, using today", zap.String("value", f.EntryDate), zap.Error(err))
			d = Today()
		}
		p.EntryDate = d
	default:
		log.Warn("missing entry date, using today")
		p.EntryDate = Today()
	}

	return p
}

// Map returns the problem as a field-named record with the date formatted
func (p *Problem) Map() map[string]any {
	return map[string]any{
		"id":          p.ID,
		"name":        p.Name,
		"description": p.Description,
		"category":    p.Category,
		"cause":       p.Cause,
		"solution":    p.Solution,
		"entry_date":  FormatDate(p.EntryDate),
	}
}

func (p *Problem) String() string {
	return fmt.Sprintf("Problem(ID: %d, Name: %q, Category: %q, Date: %s)",
		p.ID, p.Name, p.Category, FormatDate(p.EntryDate))
}

// ParseDate parses a YYYY-MM-DD string. Impossible calendar dates such as
// 2023-02-30 are rejected.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date: %w", err)
	}
	return d, nil
}

// FormatDate renders d as YYYY-MM-DD
func FormatDate(d time.Time) string {
	return d.Format(DateLayout)
}

// TruncateDate drops the time of day, keeping the calendar date as seen in
// t's own location.
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current local calendar date
func Today() time.Time {
	return TruncateDate(now())
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
