package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection    = "users"
	expensesCollection = "expenses"
	profilesCollection = "profiles"
)

// EnsureIndexes creates the unique user indexes and the expense lookup
// index. It is safe to call on every start.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(usersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("mongo users indexes: %w", err)
	}

	_, err = db.Collection(expensesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "username", Value: 1},
			{Key: "category", Value: 1},
			{Key: "date", Value: -1},
		},
	})
	if err != nil {
		return fmt.Errorf("mongo expenses index: %w", err)
	}
	return nil
}

var (
	dupIndexRe = regexp.MustCompile(`index: (?:\S+\.\$)?([A-Za-z0-9]+)_`)
	dupKeyRe   = regexp.MustCompile(`dup key: \{ ?"?([A-Za-z0-9_]+)"?:`)
)

// duplicateField extracts the offending field from an E11000 error.
func duplicateField(err error) string {
	var msgs []string
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			msgs = append(msgs, e.Message)
		}
	}
	msgs = append(msgs, err.Error())

	for _, msg := range msgs {
		if m := dupKeyRe.FindStringSubmatch(msg); m != nil {
			return m[1]
		}
		if m := dupIndexRe.FindStringSubmatch(msg); m != nil {
			return m[1]
		}
	}
	return "record"
}

// objectID parses a hex id. Malformed ids are reported as ErrNotFound
// since no document can carry them.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid id %q: %w", id, ErrNotFound)
	}
	return oid, nil
}
