package expenses

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wealthpulse/backend/internal/identity"
	"github.com/wealthpulse/backend/internal/models"
	"github.com/wealthpulse/backend/internal/store"
)

// ErrExpenseNotFound is returned when no expense carries the given id.
var ErrExpenseNotFound = errors.New("expense not found")

// ValidationError is a client mistake in the request payload.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// ExpenseStore defines the interface for expense persistence.
type ExpenseStore interface {
	Insert(ctx context.Context, e *models.Expense) (*models.Expense, error)
	ListByUser(ctx context.Context, username string) ([]models.Expense, error)
	ListByCategory(ctx context.Context, username, category string) ([]models.Expense, error)
	CategoryTotals(ctx context.Context, username string) ([]models.CategoryTotal, error)
	LatestInCategory(ctx context.Context, username, category string) (*models.Expense, error)
	Update(ctx context.Context, id string, u models.ExpenseUpdate) (*models.Expense, error)
	Delete(ctx context.Context, id string) (*models.Expense, error)
	DeleteCategory(ctx context.Context, username, category string) (int64, error)
	RenameCategory(ctx context.Context, username, oldCategory, newCategory string) (int64, error)
}

// IdentityResolver maps an identifier to a username.
type IdentityResolver interface {
	Resolve(ctx context.Context, identifier string) (string, error)
}

// Service owns expense CRUD, the category roll-up and category-wide
// bulk operations. Every identifier-scoped call resolves the user first.
type Service struct {
	expenses ExpenseStore
	identity IdentityResolver
	now      func() time.Time
}

func NewService(expenses ExpenseStore, resolver IdentityResolver) *Service {
	return &Service{expenses: expenses, identity: resolver, now: time.Now}
}

// List returns all of the user's expenses, newest first.
func (s *Service) List(ctx context.Context, identifier string) ([]models.Expense, error) {
	username, err := s.identity.Resolve(ctx, identifier)
	if err != nil {
		return nil, err
	}
	return s.expenses.ListByUser(ctx, username)
}

// ListByCategory returns the user's expenses in one category, newest first.
func (s *Service) ListByCategory(ctx context.Context, identifier, category string) ([]models.Expense, error) {
	username, err := s.identity.Resolve(ctx, identifier)
	if err != nil {
		return nil, err
	}
	return s.expenses.ListByCategory(ctx, username, category)
}

// Categories builds the roll-up: one aggregate pass, then a lookup of the
// latest expense for each group. The two steps are not atomic, so a
// concurrent rename can leave a card without a latest entry.
func (s *Service) Categories(ctx context.Context, identifier string) ([]models.CategorySummary, error) {
	username, err := s.identity.Resolve(ctx, identifier)
	if err != nil {
		return nil, err
	}

	totals, err := s.expenses.CategoryTotals(ctx, username)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.CategorySummary, len(totals))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, t := range totals {
		summaries[i] = models.CategorySummary{
			Name:       t.Name,
			TotalSpent: t.TotalSpent,
			Count:      t.Count,
			LatestDate: t.LatestDate,
		}
		g.Go(func() error {
			latest, err := s.expenses.LatestInCategory(gctx, username, t.Name)
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			id := latest.ID
			summaries[i].LatestAmount = latest.Amount
			summaries[i].LatestExpenseID = &id
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summaries, nil
}

// Add validates and stores a new expense. Missing fields are reported
// before the identifier is resolved.
func (s *Service) Add(ctx context.Context, req models.CreateExpenseRequest) (*models.Expense, error) {
	if req.Identifier == "" || req.Category == "" || req.Amount == nil || req.Amount.Raw == "" {
		return nil, invalid("Missing required fields")
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	date := s.now()
	if req.Date != nil && *req.Date != "" {
		if date, err = parseDate(*req.Date); err != nil {
			return nil, err
		}
	}

	username, err := s.identity.Resolve(ctx, req.Identifier)
	if err != nil {
		return nil, err
	}

	return s.expenses.Insert(ctx, &models.Expense{
		Username: username,
		Category: req.Category,
		Amount:   amount,
		Date:     normalize(date),
	})
}

// Update applies the supplied fields to the expense with the given id.
// The caller's ownership of the expense is not checked.
func (s *Service) Update(ctx context.Context, id string, req models.UpdateExpenseRequest) (*models.Expense, error) {
	var u models.ExpenseUpdate
	if req.Category != "" {
		u.Category = &req.Category
	}
	if req.Amount != nil {
		amount, err := parseAmount(req.Amount)
		if err != nil {
			return nil, err
		}
		u.Amount = &amount
	}
	if req.Date != nil && *req.Date != "" {
		date, err := parseDate(*req.Date)
		if err != nil {
			return nil, err
		}
		date = normalize(date)
		u.Date = &date
	}

	e, err := s.expenses.Update(ctx, id, u)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrExpenseNotFound
	}
	return e, err
}

// Delete removes one expense and returns its snapshot.
func (s *Service) Delete(ctx context.Context, id string) (*models.Expense, error) {
	e, err := s.expenses.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrExpenseNotFound
	}
	return e, err
}

// DeleteCategory removes every expense of the user in category and
// reports how many were removed. Zero is not an error.
func (s *Service) DeleteCategory(ctx context.Context, identifier, category string) (int64, error) {
	username, err := s.identity.Resolve(ctx, identifier)
	if err != nil {
		return 0, err
	}
	return s.expenses.DeleteCategory(ctx, username, category)
}

// RenameCategory moves every expense of the user from oldCategory to
// newCategory and reports how many were modified.
func (s *Service) RenameCategory(ctx context.Context, identifier, oldCategory, newCategory string) (int64, error) {
	if newCategory == "" {
		return 0, invalid("New category name is required")
	}
	username, err := s.identity.Resolve(ctx, identifier)
	if err != nil {
		return 0, err
	}
	return s.expenses.RenameCategory(ctx, username, oldCategory, newCategory)
}

func parseAmount(a *models.Amount) (float64, error) {
	amount, err := a.Float()
	if err != nil {
		return 0, invalid("Amount must be a number")
	}
	if amount < 0 {
		return 0, invalid("Amount must not be negative")
	}
	return amount, nil
}

func parseDate(d models.DateText) (time.Time, error) {
	t, err := d.Time()
	if err != nil {
		return time.Time{}, invalid("Invalid date")
	}
	return t, nil
}

// normalize matches the precision MongoDB stores dates with.
func normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// IsUnknownUser reports whether err means the identifier did not resolve.
func IsUnknownUser(err error) bool {
	return errors.Is(err, identity.ErrUnknown)
}
