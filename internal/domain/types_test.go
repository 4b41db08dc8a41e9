package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func fixClock(t *testing.T, at time.Time) {
	t.Helper()
	prev := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = prev })
}

func TestNewProblem_Defaults(t *testing.T) {
	fixClock(t, time.Date(2024, 5, 6, 14, 30, 0, 0, time.UTC))

	p := NewProblem(Fields{}, nil)

	assert.Equal(t, int64(0), p.ID)
	assert.Equal(t, DefaultName, p.Name)
	assert.Equal(t, "", p.Description)
	assert.Equal(t, DefaultCategory, p.Category)
	assert.Equal(t, DefaultCause, p.Cause)
	assert.Equal(t, DefaultSolution, p.Solution)
	assert.Equal(t, time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC), p.EntryDate)
}

func TestNewProblem_KeepsValues(t *testing.T) {
	p := NewProblem(Fields{
		ID:          7,
		Name:        "No Display",
		Description: "black screen after POST",
		Category:    "Tampilan (Layar/Grafis)",
		Cause:       "loose VGA cable",
		Solution:    "reseat cable",
		EntryDate:   "2024-01-03",
	}, nil)

	assert.Equal(t, int64(7), p.ID)
	assert.Equal(t, "No Display", p.Name)
	assert.Equal(t, "black screen after POST", p.Description)
	assert.Equal(t, "Tampilan (Layar/Grafis)", p.Category)
	assert.Equal(t, "loose VGA cable", p.Cause)
	assert.Equal(t, "reseat cable", p.Solution)
	assert.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), p.EntryDate)
}

func TestNewProblem_Category(t *testing.T) {
	tests := []struct {
		name     string
		category string
		want     string
	}{
		{"known category", "Audio", "Audio"},
		{"empty category", "", DefaultCategory},
		{"unknown category", "Printer", DefaultCategory},
		{"sentinel is not a category", AllCategories, DefaultCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProblem(Fields{Category: tt.category, EntryDate: "2024-01-01"}, nil)
			assert.Equal(t, tt.want, p.Category)
		})
	}
}

func TestNewProblem_DateCoercion(t *testing.T) {
	today := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)
	fixClock(t, today.Add(10*time.Hour))

	tests := []struct {
		name   string
		fields Fields
		want   time.Time
		warned bool
	}{
		{
			name:   "iso string",
			fields: Fields{EntryDate: "2024-02-29"},
			want:   time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "date value drops time of day",
			fields: Fields{Date: time.Date(2024, 7, 1, 23, 59, 0, 0, time.UTC)},
			want:   time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "date value wins over string",
			fields: Fields{Date: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), EntryDate: "2020-01-01"},
			want:   time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "impossible calendar date",
			fields: Fields{EntryDate: "2023-02-30"},
			want:   today,
			warned: true,
		},
		{
			name:   "wrong layout",
			fields: Fields{EntryDate: "01/02/2024"},
			want:   today,
			warned: true,
		},
		{
			name:   "missing date",
			fields: Fields{},
			want:   today,
			warned: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.WarnLevel)

			p := NewProblem(tt.fields, zap.New(core))

			assert.Equal(t, tt.want, p.EntryDate)
			if tt.warned {
				assert.Equal(t, 1, logs.Len())
			} else {
				assert.Equal(t, 0, logs.Len())
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2024-12-31 ")
	require.NoError(t, err)
	assert.Equal(t, "2024-12-31", FormatDate(d))

	for _, bad := range []string{"", "2024/01/01", "2024-1-1", "2024-13-01", "2024-01-32", "2023-02-29"} {
		_, err := ParseDate(bad)
		assert.Error(t, err, bad)
	}
}

func TestProblem_MapAndString(t *testing.T) {
	p := NewProblem(Fields{ID: 3, Name: "WiFi Hilang", Category: "Jaringan (WiFi/LAN)",
		Cause: "driver", Solution: "reinstall driver", EntryDate: "2024-04-01"}, nil)

	m := p.Map()
	assert.Equal(t, int64(3), m["id"])
	assert.Equal(t, "2024-04-01", m["entry_date"])
	assert.Equal(t, "Jaringan (WiFi/LAN)", m["category"])

	assert.Equal(t, `Problem(ID: 3, Name: "WiFi Hilang", Category: "Jaringan (WiFi/LAN)", Date: 2024-04-01)`, p.String())
}

func TestFilterOptions(t *testing.T) {
	opts := FilterOptions()
	require.Len(t, opts, len(Categories)+1)
	assert.Equal(t, AllCategories, opts[0])
	assert.Equal(t, DefaultCategory, opts[len(opts)-1])
	assert.Equal(t, DefaultCategory, Categories[len(Categories)-1])
}
