package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Expense is a single spending record owned by a username.
type Expense struct {
	ID       primitive.ObjectID `json:"id"       bson:"_id,omitempty"`
	Username string             `json:"username" bson:"username"`
	Category string             `json:"category" bson:"category"`
	Amount   float64            `json:"amount"   bson:"amount"`
	Date     time.Time          `json:"date"     bson:"date"`
}

// CategoryTotal is one row of the category aggregate pass.
type CategoryTotal struct {
	Name       string    `bson:"_id"`
	TotalSpent float64   `bson:"totalSpent"`
	Count      int       `bson:"count"`
	LatestDate time.Time `bson:"latestDate"`
}

// CategorySummary is a roll-up card: totals for a category annotated
// with its most recent expense.
type CategorySummary struct {
	Name            string              `json:"name"`
	TotalSpent      float64             `json:"totalSpent"`
	Count           int                 `json:"count"`
	LatestDate      time.Time           `json:"latestDate"`
	LatestAmount    float64             `json:"latestAmount"`
	LatestExpenseID *primitive.ObjectID `json:"latestExpenseId"`
}

// ExpenseUpdate carries the fields of a partial update. Nil fields are
// left untouched.
type ExpenseUpdate struct {
	Category *string
	Amount   *float64
	Date     *time.Time
}

// Empty reports whether the update changes nothing.
func (u ExpenseUpdate) Empty() bool {
	return u.Category == nil && u.Amount == nil && u.Date == nil
}

// CreateExpenseRequest is the JSON body for POST /api/expenses.
type CreateExpenseRequest struct {
	Identifier string    `json:"identifier"`
	Category   string    `json:"category"`
	Amount     *Amount   `json:"amount"`
	Date       *DateText `json:"date"`
}

// UpdateExpenseRequest is the JSON body for PUT /api/expenses/{expenseId}.
type UpdateExpenseRequest struct {
	Category string    `json:"category"`
	Amount   *Amount   `json:"amount"`
	Date     *DateText `json:"date"`
}

// RenameCategoryRequest is the JSON body for
// PUT /api/expenses/category/{identifier}/{oldCategory}.
type RenameCategoryRequest struct {
	NewCategory string `json:"newCategory"`
}

// Amount accepts a JSON number or a numeric string and keeps the raw
// text so the caller can decide how to report a bad value.
type Amount struct {
	Raw string
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		a.Raw = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		a.Raw = strings.TrimSpace(s)
		return nil
	}
	a.Raw = string(data)
	return nil
}

// Float parses the amount. Empty, non-numeric and non-finite values are
// rejected.
func (a *Amount) Float() (float64, error) {
	if a == nil || a.Raw == "" {
		return 0, fmt.Errorf("amount is empty")
	}
	f, err := strconv.ParseFloat(a.Raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("amount %q is not a number", a.Raw)
	}
	return f, nil
}

// DateText is a date supplied by the client as text.
type DateText string

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Time parses the text using the first matching layout. Layouts without
// an offset are read as UTC.
func (d DateText) Time() (time.Time, error) {
	s := strings.TrimSpace(string(d))
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("date %q is not a valid date", s)
}
