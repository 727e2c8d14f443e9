package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wealthpulse/backend/internal/models"
)

// MongoProfileStore keeps user profiles, one document per username.
type MongoProfileStore struct {
	col *mongo.Collection
}

func NewMongoProfileStore(db *mongo.Database) *MongoProfileStore {
	return &MongoProfileStore{col: db.Collection(profilesCollection)}
}

func (s *MongoProfileStore) Get(ctx context.Context, username string) (*models.Profile, error) {
	var p models.Profile
	if err := s.col.FindOne(ctx, bson.M{"_id": username}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("mongo get profile: %w", err)
	}
	return &p, nil
}

// Save upserts the editable profile fields. The avatar key is owned by
// SetAvatar and never written here.
func (s *MongoProfileStore) Save(ctx context.Context, p *models.Profile) error {
	update := bson.M{"$set": bson.M{
		"name":               p.Name,
		"email":              p.Email,
		"phone":              p.Phone,
		"address":            p.Address,
		"date_of_birth":      p.DateOfBirth,
		"occupation":         p.Occupation,
		"monthly_income":     p.MonthlyIncome,
		"preferred_currency": p.PreferredCurrency,
		"financial_goal":     p.FinancialGoal,
		"bio":                p.Bio,
		"membership_level":   p.MembershipLevel,
		"updated_at":         p.UpdatedAt,
	}}
	opts := options.Update().SetUpsert(true)
	if _, err := s.col.UpdateOne(ctx, bson.M{"_id": p.Username}, update, opts); err != nil {
		return fmt.Errorf("mongo save profile: %w", err)
	}
	return nil
}

// SetAvatar records the object key of the user's avatar and returns the
// key it replaced, if any.
func (s *MongoProfileStore) SetAvatar(ctx context.Context, username, key string) (string, error) {
	var prev models.Profile
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.Before)
	err := s.col.FindOneAndUpdate(ctx,
		bson.M{"_id": username},
		bson.M{
			"$set":         bson.M{"avatar_key": key},
			"$setOnInsert": bson.M{"preferred_currency": "USD", "membership_level": "Basic"},
		},
		opts,
	).Decode(&prev)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", nil
		}
		return "", fmt.Errorf("mongo set avatar: %w", err)
	}
	return prev.AvatarKey, nil
}
