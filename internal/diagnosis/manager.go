package diagnosis

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pbaille/hwdiag/internal/domain"
	"github.com/pbaille/hwdiag/internal/store"
	"github.com/pbaille/hwdiag/internal/table"
)

// Column labels of the filtered problem listing, in display order
const (
	LabelID          = "ID"
	LabelDate        = "Tanggal"
	LabelCategory    = "Kategori"
	LabelName        = "Masalah"
	LabelDescription = "Deskripsi"
	LabelCause       = "Penyebab"
	LabelSolution    = "Solusi"
)

// Column labels of the aggregation tables
const (
	LabelOccurrences = "Jumlah Kejadian"
	LabelCount       = "Jumlah Masalah"
	AxisDay          = "entry_date"
	AxisMonth        = "month"
)

const selectColumns = "id, name, description, category, cause, solution, entry_date"

var listLabels = []string{LabelID, LabelDate, LabelCategory, LabelName, LabelDescription, LabelCause, LabelSolution}

// Filter narrows a listing. Zero values mean "no constraint"; the category
// is also ignored when it is domain.AllCategories.
type Filter struct {
	Category string
	Start    time.Time
	End      time.Time
}

// Manager is the entry point for recording and reporting hardware
// problems. None of its methods return errors: failures are logged and
// surface as false, nil or an empty table.
type Manager struct {
	store *store.Store
	log   *zap.Logger

	mu    sync.Mutex
	ready bool
}

// New creates a Manager over s. Call Initialize once at startup.
func New(s *store.Store, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{store: s, log: log.Named("diagnosis")}
}

// Initialize makes sure the schema exists. The first success is remembered
// and later calls return immediately; a failure leaves the manager
// uninitialized so the next call tries again.
func (m *Manager) Initialize() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ready {
		m.log.Debug("database already initialized")
		return true
	}

	if !m.store.EnsureSchema() {
		m.log.Error("initial database setup failed", zap.String("path", m.store.Path()))
		return false
	}

	m.ready = true
	m.log.Info("database ready", zap.String("path", m.store.Path()))
	return true
}

// Add stores p as a new problem. It refuses nil problems and problems with
// an empty name, cause or solution or a zero entry date without touching the
// store. An empty or unknown category is stored as domain.DefaultCategory.
func (m *Manager) Add(p *domain.Problem) bool {
	if p == nil || p.Name == "" || p.Cause == "" || p.Solution == "" || p.EntryDate.IsZero() {
		m.log.Warn("rejected invalid problem")
		return false
	}

	m.log.Debug("adding problem", zap.Stringer("problem", p))

	return m.store.Execute(
		`INSERT INTO problems (name, description, category, cause, solution, entry_date)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.Name, p.Description, domain.NormalizeCategory(p.Category), p.Cause, p.Solution, domain.FormatDate(p.EntryDate),
	)
}

// ListAll returns every problem, most recent entry date first, newest id
// first within a day.
func (m *Manager) ListAll() []domain.Problem {
	rows := m.store.FetchAll(
		"SELECT " + selectColumns + " FROM problems ORDER BY entry_date DESC, id DESC",
	)

	problems := make([]domain.Problem, 0, len(rows))
	for _, r := range rows {
		problems = append(problems, *m.fromRow(r))
	}
	return problems
}

// ListFiltered returns the matching problems as a table labelled for
// display, in the same order as ListAll.
func (m *Manager) ListFiltered(f Filter) *table.Table {
	var w where
	w.category(f.Category)
	w.dateRange(f.Start, f.End)

	t := m.store.FetchTable(
		"SELECT "+selectColumns+" FROM problems"+w.String()+" ORDER BY entry_date DESC, id DESC",
		w.args...,
	).Rename(map[string]string{
		"id":          LabelID,
		"entry_date":  LabelDate,
		"category":    LabelCategory,
		"name":        LabelName,
		"description": LabelDescription,
		"cause":       LabelCause,
		"solution":    LabelSolution,
	})

	out, err := t.Select(listLabels...)
	if err != nil {
		m.log.Error("filtered listing failed", zap.Error(err))
		return table.New(listLabels...)
	}
	return out
}

// GetByID returns the problem with the given id, if it exists
func (m *Manager) GetByID(id int64) (*domain.Problem, bool) {
	row, ok := m.store.FetchOne("SELECT "+selectColumns+" FROM problems WHERE id = ?", id)
	if !ok {
		return nil, false
	}
	return m.fromRow(row), true
}

// Delete removes the problem with the given id. Non-positive ids are
// refused without touching the store. Deleting an id that does not exist
// still reports true.
func (m *Manager) Delete(id int64) bool {
	if id <= 0 {
		m.log.Warn("rejected invalid id", zap.Int64("id", id))
		return false
	}

	m.log.Debug("deleting problem", zap.Int64("id", id))
	return m.store.Execute("DELETE FROM problems WHERE id = ?", id)
}

// DeleteMany deletes ids one at a time, each in its own transaction, and
// stops at the first failure. Deletions made before the failure stay
// committed. It returns how many deletes succeeded.
func (m *Manager) DeleteMany(ids []int64) (int, bool) {
	log := m.log.With(zap.String("batch", uuid.NewString()))
	log.Info("bulk delete", zap.Int64s("ids", ids))

	for i, id := range ids {
		if !m.Delete(id) {
			log.Error("bulk delete stopped", zap.Int64("id", id), zap.Int("deleted", i))
			return i, false
		}
	}

	log.Info("bulk delete finished", zap.Int("deleted", len(ids)))
	return len(ids), true
}

// Frequency counts problems per name, most frequent first, optionally
// limited to an entry date range.
func (m *Manager) Frequency(start, end time.Time) *table.Table {
	var w where
	w.dateRange(start, end)

	t := m.store.FetchTable(
		"SELECT name, COUNT(id) AS occurrences FROM problems"+w.String()+
			" GROUP BY name ORDER BY occurrences DESC, name ASC",
		w.args...,
	)
	return t.Rename(map[string]string{"name": LabelName, "occurrences": LabelOccurrences})
}

// DailyTrend counts problems per entry date and fills every day between the
// first and last observed date, using zero for days without entries.
func (m *Manager) DailyTrend(category string) *table.Table {
	var w where
	w.category(category)

	counts := m.store.FetchTable(
		"SELECT entry_date, COUNT(id) AS n FROM problems"+w.String()+
			" GROUP BY entry_date ORDER BY entry_date ASC",
		w.args...,
	)

	out := table.New(AxisDay, LabelCount)
	if counts.Empty() {
		return out
	}

	byDay := make(map[time.Time]int64, counts.Len())
	var first, last time.Time
	seen := false
	for _, row := range counts.Rows {
		day, err := domain.ParseDate(asString(row[0]))
		if err != nil {
			m.log.Warn("skipping unparsable entry date", zap.Any("value", row[0]), zap.Error(err))
			continue
		}
		byDay[day] += asInt(row[1])
		if !seen || day.Before(first) {
			first = day
		}
		if !seen || day.After(last) {
			last = day
		}
		seen = true
	}
	if !seen {
		return out
	}

	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		if err := out.Append(d, byDay[d]); err != nil {
			m.log.Error("daily trend failed", zap.Error(err))
			return table.New(AxisDay, LabelCount)
		}
	}
	return out
}

// MonthlyTrend counts problems per calendar month in chronological order.
// Months without entries are not filled in.
func (m *Manager) MonthlyTrend(category string) *table.Table {
	var w where
	w.category(category)

	counts := m.store.FetchTable(
		"SELECT strftime('%Y-%m', entry_date) AS month, COUNT(id) AS n FROM problems"+w.String()+
			" GROUP BY month ORDER BY month ASC",
		w.args...,
	)

	out := table.New(AxisMonth, LabelCount)
	for _, row := range counts.Rows {
		month, err := time.Parse("2006-01", asString(row[0]))
		if err != nil {
			m.log.Warn("skipping unparsable month", zap.Any("value", row[0]), zap.Error(err))
			continue
		}
		if err := out.Append(month, asInt(row[1])); err != nil {
			m.log.Error("monthly trend failed", zap.Error(err))
			return table.New(AxisMonth, LabelCount)
		}
	}
	return out
}

func (m *Manager) fromRow(r store.Row) *domain.Problem {
	return domain.NewProblem(domain.Fields{
		ID:          asInt(r["id"]),
		Name:        asString(r["name"]),
		Description: asString(r["description"]),
		Category:    asString(r["category"]),
		Cause:       asString(r["cause"]),
		Solution:    asString(r["solution"]),
		EntryDate:   asString(r["entry_date"]),
	}, m.log)
}

// where collects AND-ed conditions and their arguments
type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, arg any) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, arg)
}

func (w *where) category(c string) {
	if c != "" && c != domain.AllCategories {
		w.add("category = ?", c)
	}
}

func (w *where) dateRange(start, end time.Time) {
	if !start.IsZero() {
		w.add("entry_date >= ?", domain.FormatDate(start))
	}
	if !end.IsZero() {
		w.add("entry_date <= ?", domain.FormatDate(end))
	}
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func asString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case nil:
		return ""
	default:
		return table.FormatCell(x)
	}
}

func asInt(v any) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case int:
		return int64(x)
	case float64:
		return int64(x)
	default:
		return 0
	}
}
