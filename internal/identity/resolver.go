// Package identity maps a client-supplied identifier (username or email)
// to the canonical username that owns expense data.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/wealthpulse/backend/internal/models"
	"github.com/wealthpulse/backend/internal/store"
)

// ErrUnknown is returned when no user matches the identifier.
var ErrUnknown = errors.New("user not found")

// UserFinder looks a user up by username or email.
type UserFinder interface {
	FindByIdentifier(ctx context.Context, identifier string) (*models.User, error)
}

// Resolver resolves identifiers. Matching is exact and case-sensitive.
type Resolver struct {
	users UserFinder
}

func NewResolver(users UserFinder) *Resolver {
	return &Resolver{users: users}
}

// Resolve returns the username for identifier, or ErrUnknown.
func (r *Resolver) Resolve(ctx context.Context, identifier string) (string, error) {
	if identifier == "" {
		return "", ErrUnknown
	}
	u, err := r.users.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrUnknown
		}
		return "", fmt.Errorf("resolve identifier: %w", err)
	}
	return u.Username, nil
}
