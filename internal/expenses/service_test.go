package expenses

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/wealthpulse/backend/internal/models"
)

type ServiceTestSuite struct {
	suite.Suite
	store *memStore
	svc   *Service
	ctx   context.Context
	now   time.Time
}

func (s *ServiceTestSuite) SetupTest() {
	s.store = &memStore{}
	s.svc = NewService(s.store, newTestResolver())
	s.now = time.Date(2024, 6, 1, 12, 0, 0, 123456789, time.UTC)
	s.svc.now = func() time.Time { return s.now }
	s.ctx = context.Background()
}

func (s *ServiceTestSuite) add(identifier, category, amount, date string) *models.Expense {
	req := models.CreateExpenseRequest{
		Identifier: identifier,
		Category:   category,
		Amount:     &models.Amount{Raw: amount},
	}
	if date != "" {
		d := models.DateText(date)
		req.Date = &d
	}
	e, err := s.svc.Add(s.ctx, req)
	s.Require().NoError(err)
	return e
}

func (s *ServiceTestSuite) TestAddThenList() {
	created := s.add("alice", "Food", "42.50", "2024-03-01")

	assert.False(s.T(), created.ID.IsZero(), "expected an assigned id")
	assert.Equal(s.T(), "alice", created.Username)
	assert.Equal(s.T(), "Food", created.Category)
	assert.Equal(s.T(), 42.5, created.Amount)
	assert.Equal(s.T(), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), created.Date)

	list, err := s.svc.List(s.ctx, "alice")
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	assert.Equal(s.T(), *created, list[0])
}

func (s *ServiceTestSuite) TestAddDefaultsDateToNow() {
	created := s.add("alice@example.com", "Rent", "900", "")

	assert.Equal(s.T(), "alice", created.Username, "email should resolve to the username")
	assert.Equal(s.T(), s.now.Truncate(time.Millisecond), created.Date)
}

func (s *ServiceTestSuite) TestAddValidation() {
	amount := func(raw string) *models.Amount { return &models.Amount{Raw: raw} }
	badDate := models.DateText("yesterday")

	tests := []struct {
		name string
		req  models.CreateExpenseRequest
		want string
	}{
		{"missing identifier", models.CreateExpenseRequest{Category: "Food", Amount: amount("1")}, "Missing required fields"},
		{"missing category", models.CreateExpenseRequest{Identifier: "alice", Amount: amount("1")}, "Missing required fields"},
		{"missing amount", models.CreateExpenseRequest{Identifier: "alice", Category: "Food"}, "Missing required fields"},
		{"non numeric amount", models.CreateExpenseRequest{Identifier: "alice", Category: "Food", Amount: amount("abc")}, "Amount must be a number"},
		{"negative amount", models.CreateExpenseRequest{Identifier: "alice", Category: "Food", Amount: amount("-3")}, "Amount must not be negative"},
		{"bad date", models.CreateExpenseRequest{Identifier: "alice", Category: "Food", Amount: amount("3"), Date: &badDate}, "Invalid date"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.svc.Add(s.ctx, tt.req)
			var verr *ValidationError
			s.Require().True(errors.As(err, &verr), "expected validation error, got %v", err)
			assert.Equal(s.T(), tt.want, verr.Msg)
		})
	}
}

func (s *ServiceTestSuite) TestAddChecksFieldsBeforeIdentity() {
	_, err := s.svc.Add(s.ctx, models.CreateExpenseRequest{Identifier: "nobody", Category: "Food"})
	var verr *ValidationError
	assert.True(s.T(), errors.As(err, &verr), "missing fields must win over an unknown user")

	_, err = s.svc.Add(s.ctx, models.CreateExpenseRequest{
		Identifier: "nobody", Category: "Food", Amount: &models.Amount{Raw: "5"},
	})
	assert.True(s.T(), IsUnknownUser(err))
}

func (s *ServiceTestSuite) TestListNewestFirstAndEmpty() {
	s.add("alice", "Food", "1", "2024-01-01")
	s.add("alice", "Food", "2", "2024-03-01")
	s.add("alice", "Travel", "3", "2024-02-01")
	s.add("bob", "Food", "4", "2024-04-01")

	list, err := s.svc.List(s.ctx, "alice")
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	assert.Equal(s.T(), 2.0, list[0].Amount)
	assert.Equal(s.T(), 3.0, list[1].Amount)
	assert.Equal(s.T(), 1.0, list[2].Amount)

	empty := &memStore{}
	svc := NewService(empty, staticResolver{"carol": "carol"})
	none, err := svc.List(s.ctx, "carol")
	s.Require().NoError(err)
	assert.NotNil(s.T(), none)
	assert.Empty(s.T(), none)
}

func (s *ServiceTestSuite) TestUnknownIdentifier() {
	_, err := s.svc.List(s.ctx, "ALICE")
	assert.True(s.T(), IsUnknownUser(err), "identifiers are case-sensitive")

	_, err = s.svc.Categories(s.ctx, "nobody")
	assert.True(s.T(), IsUnknownUser(err))

	_, err = s.svc.DeleteCategory(s.ctx, "nobody", "Food")
	assert.True(s.T(), IsUnknownUser(err))
}

func (s *ServiceTestSuite) TestCategoriesRollUp() {
	s.add("alice", "Food", "10", "2024-01-05")
	latestFood := s.add("alice", "Food", "32.5", "2024-03-01")
	s.add("alice", "Travel", "100", "2024-02-01")
	latestTravel := s.add("alice", "Travel", "50", "2024-04-01")
	s.add("bob", "Food", "999", "2024-05-01")

	cats, err := s.svc.Categories(s.ctx, "alice")
	s.Require().NoError(err)
	s.Require().Len(cats, 2)

	travel, food := cats[0], cats[1]
	assert.Equal(s.T(), "Travel", travel.Name, "most recently active category first")
	assert.Equal(s.T(), 150.0, travel.TotalSpent)
	assert.Equal(s.T(), 2, travel.Count)
	assert.Equal(s.T(), latestTravel.Date, travel.LatestDate)
	assert.Equal(s.T(), 50.0, travel.LatestAmount)
	s.Require().NotNil(travel.LatestExpenseID)
	assert.Equal(s.T(), latestTravel.ID, *travel.LatestExpenseID)

	assert.Equal(s.T(), "Food", food.Name)
	assert.Equal(s.T(), 42.5, food.TotalSpent)
	assert.Equal(s.T(), 2, food.Count)
	assert.Equal(s.T(), 32.5, food.LatestAmount)
	assert.Equal(s.T(), latestFood.ID, *food.LatestExpenseID)
}

func (s *ServiceTestSuite) TestCategoriesEmpty() {
	cats, err := s.svc.Categories(s.ctx, "bob")
	s.Require().NoError(err)
	assert.NotNil(s.T(), cats)
	assert.Empty(s.T(), cats)
}

func (s *ServiceTestSuite) TestRenameCategory() {
	a := s.add("alice", "Food", "10", "2024-01-01")
	b := s.add("alice", "Food", "20", "2024-01-02")
	s.add("alice", "Travel", "30", "2024-01-03")
	s.add("bob", "Food", "40", "2024-01-04")

	n, err := s.svc.RenameCategory(s.ctx, "alice", "Food", "Groceries & Dining")
	s.Require().NoError(err)
	assert.EqualValues(s.T(), 2, n)

	renamed, err := s.svc.ListByCategory(s.ctx, "alice", "Groceries & Dining")
	s.Require().NoError(err)
	s.Require().Len(renamed, 2)
	assert.Equal(s.T(), b.ID, renamed[0].ID)
	assert.Equal(s.T(), a.ID, renamed[1].ID)

	old, err := s.svc.ListByCategory(s.ctx, "alice", "Food")
	s.Require().NoError(err)
	assert.Empty(s.T(), old)

	bobs, err := s.svc.ListByCategory(s.ctx, "bob", "Food")
	s.Require().NoError(err)
	assert.Len(s.T(), bobs, 1, "other users are untouched")
}

func (s *ServiceTestSuite) TestRenameCategoryRequiresNewName() {
	_, err := s.svc.RenameCategory(s.ctx, "nobody", "Food", "")
	var verr *ValidationError
	s.Require().True(errors.As(err, &verr), "missing name must win over an unknown user")
	assert.Equal(s.T(), "New category name is required", verr.Msg)
}

func (s *ServiceTestSuite) TestDeleteCategory() {
	s.add("alice", "Food", "10", "2024-01-01")
	s.add("alice", "Food", "20", "2024-01-02")
	s.add("alice", "Travel", "30", "2024-01-03")
	s.add("bob", "Food", "40", "2024-01-04")

	n, err := s.svc.DeleteCategory(s.ctx, "alice", "Food")
	s.Require().NoError(err)
	assert.EqualValues(s.T(), 2, n)

	left, err := s.svc.List(s.ctx, "alice")
	s.Require().NoError(err)
	s.Require().Len(left, 1)
	assert.Equal(s.T(), "Travel", left[0].Category)

	bobs, err := s.svc.List(s.ctx, "bob")
	s.Require().NoError(err)
	assert.Len(s.T(), bobs, 1)

	n, err = s.svc.DeleteCategory(s.ctx, "alice", "Food")
	s.Require().NoError(err)
	assert.Zero(s.T(), n, "deleting an empty category is not an error")
}

func (s *ServiceTestSuite) TestUpdatePartial() {
	e := s.add("alice", "Food", "10", "2024-01-01")

	updated, err := s.svc.Update(s.ctx, e.ID.Hex(), models.UpdateExpenseRequest{
		Amount: &models.Amount{Raw: "12.75"},
	})
	s.Require().NoError(err)
	assert.Equal(s.T(), 12.75, updated.Amount)
	assert.Equal(s.T(), "Food", updated.Category)
	assert.Equal(s.T(), e.Date, updated.Date)

	date := models.DateText("2024-02-10T08:30:00Z")
	updated, err = s.svc.Update(s.ctx, e.ID.Hex(), models.UpdateExpenseRequest{
		Category: "Snacks",
		Date:     &date,
	})
	s.Require().NoError(err)
	assert.Equal(s.T(), "Snacks", updated.Category)
	assert.Equal(s.T(), 12.75, updated.Amount)
	assert.Equal(s.T(), time.Date(2024, 2, 10, 8, 30, 0, 0, time.UTC), updated.Date)
}

func (s *ServiceTestSuite) TestUpdateErrors() {
	_, err := s.svc.Update(s.ctx, "507f1f77bcf86cd799439011", models.UpdateExpenseRequest{Category: "X"})
	assert.ErrorIs(s.T(), err, ErrExpenseNotFound)

	e := s.add("alice", "Food", "10", "2024-01-01")
	_, err = s.svc.Update(s.ctx, e.ID.Hex(), models.UpdateExpenseRequest{Amount: &models.Amount{Raw: "ten"}})
	var verr *ValidationError
	assert.True(s.T(), errors.As(err, &verr))
}

func (s *ServiceTestSuite) TestDelete() {
	e := s.add("alice", "Food", "10", "2024-01-01")

	deleted, err := s.svc.Delete(s.ctx, e.ID.Hex())
	s.Require().NoError(err)
	assert.Equal(s.T(), *e, *deleted)

	_, err = s.svc.Delete(s.ctx, e.ID.Hex())
	assert.ErrorIs(s.T(), err, ErrExpenseNotFound)
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

// failingStore makes the latest-entry lookup fail for one category.
type failingStore struct {
	*memStore
	failOn string
}

func (f failingStore) LatestInCategory(ctx context.Context, username, category string) (*models.Expense, error) {
	if category == f.failOn {
		return nil, errors.New("connection reset")
	}
	return f.memStore.LatestInCategory(ctx, username, category)
}

func TestCategoriesFailsWhenAnyLookupFails(t *testing.T) {
	mem := &memStore{}
	svc := NewService(failingStore{memStore: mem, failOn: "Travel"}, newTestResolver())
	ctx := context.Background()

	for _, c := range []string{"Food", "Travel", "Rent"} {
		_, err := svc.Add(ctx, models.CreateExpenseRequest{
			Identifier: "alice", Category: c, Amount: &models.Amount{Raw: "1"},
		})
		require.NoError(t, err)
	}

	cats, err := svc.Categories(ctx, "alice")
	assert.Error(t, err)
	assert.Nil(t, cats, "roll-up is all or nothing")
}

// vanishingStore simulates a rename landing between the aggregate pass
// and the latest-entry lookup.
type vanishingStore struct {
	*memStore
}

func (v vanishingStore) LatestInCategory(context.Context, string, string) (*models.Expense, error) {
	return v.memStore.LatestInCategory(context.Background(), "", "")
}

func TestCategoriesToleratesMissingLatest(t *testing.T) {
	mem := &memStore{}
	svc := NewService(vanishingStore{mem}, newTestResolver())
	ctx := context.Background()

	_, err := svc.Add(ctx, models.CreateExpenseRequest{
		Identifier: "alice", Category: "Food", Amount: &models.Amount{Raw: "7"},
	})
	require.NoError(t, err)

	cats, err := svc.Categories(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, 7.0, cats[0].TotalSpent)
	assert.Zero(t, cats[0].LatestAmount)
	assert.Nil(t, cats[0].LatestExpenseID)
}
