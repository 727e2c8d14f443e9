package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstraintField(t *testing.T) {
	tests := map[string]string{
		"users_email_key":    "email",
		"users_username_key": "username",
		"custom_unique_idx":  "record",
		"":                   "record",
	}
	for name, want := range tests {
		assert.Equal(t, want, constraintField(name), name)
	}
}
