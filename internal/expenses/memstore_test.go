package expenses

import (
	"context"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/wealthpulse/backend/internal/identity"
	"github.com/wealthpulse/backend/internal/models"
	"github.com/wealthpulse/backend/internal/store"
)

// memStore is an in-memory ExpenseStore with the same ordering rules as
// MongoExpenseStore.
type memStore struct {
	mu   sync.Mutex
	rows []models.Expense
}

func (m *memStore) Insert(_ context.Context, e *models.Expense) (*models.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	created := *e
	created.ID = primitive.NewObjectID()
	m.rows = append(m.rows, created)
	return &created, nil
}

func (m *memStore) ListByUser(_ context.Context, username string) ([]models.Expense, error) {
	return m.filter(func(e models.Expense) bool { return e.Username == username }), nil
}

func (m *memStore) ListByCategory(_ context.Context, username, category string) ([]models.Expense, error) {
	return m.filter(func(e models.Expense) bool {
		return e.Username == username && e.Category == category
	}), nil
}

func (m *memStore) CategoryTotals(_ context.Context, username string) ([]models.CategoryTotal, error) {
	byName := map[string]*models.CategoryTotal{}
	for _, e := range m.filter(func(e models.Expense) bool { return e.Username == username }) {
		t, ok := byName[e.Category]
		if !ok {
			t = &models.CategoryTotal{Name: e.Category}
			byName[e.Category] = t
		}
		t.TotalSpent += e.Amount
		t.Count++
		if e.Date.After(t.LatestDate) {
			t.LatestDate = e.Date
		}
	}
	totals := []models.CategoryTotal{}
	for _, t := range byName {
		totals = append(totals, *t)
	}
	sort.Slice(totals, func(i, j int) bool {
		if !totals[i].LatestDate.Equal(totals[j].LatestDate) {
			return totals[i].LatestDate.After(totals[j].LatestDate)
		}
		return totals[i].Name < totals[j].Name
	})
	return totals, nil
}

func (m *memStore) LatestInCategory(ctx context.Context, username, category string) (*models.Expense, error) {
	rows, _ := m.ListByCategory(ctx, username, category)
	if len(rows) == 0 {
		return nil, store.ErrNotFound
	}
	return &rows[0], nil
}

func (m *memStore) Update(_ context.Context, id string, u models.ExpenseUpdate) (*models.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID.Hex() != id {
			continue
		}
		if u.Category != nil {
			m.rows[i].Category = *u.Category
		}
		if u.Amount != nil {
			m.rows[i].Amount = *u.Amount
		}
		if u.Date != nil {
			m.rows[i].Date = *u.Date
		}
		e := m.rows[i]
		return &e, nil
	}
	return nil, store.ErrNotFound
}

func (m *memStore) Delete(_ context.Context, id string) (*models.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.rows {
		if e.ID.Hex() == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return &e, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) DeleteCategory(_ context.Context, username, category string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.rows[:0]
	var n int64
	for _, e := range m.rows {
		if e.Username == username && e.Category == category {
			n++
			continue
		}
		kept = append(kept, e)
	}
	m.rows = kept
	return n, nil
}

func (m *memStore) RenameCategory(_ context.Context, username, oldCategory, newCategory string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.rows {
		if m.rows[i].Username == username && m.rows[i].Category == oldCategory {
			m.rows[i].Category = newCategory
			n++
		}
	}
	return n, nil
}

func (m *memStore) filter(keep func(models.Expense) bool) []models.Expense {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Expense{}
	for _, e := range m.rows {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

// staticResolver resolves identifiers from a fixed table.
type staticResolver map[string]string

func (s staticResolver) Resolve(_ context.Context, identifier string) (string, error) {
	if u, ok := s[identifier]; ok {
		return u, nil
	}
	return "", identity.ErrUnknown
}

func newTestResolver() staticResolver {
	return staticResolver{
		"alice":             "alice",
		"alice@example.com": "alice",
		"bob":               "bob",
	}
}
