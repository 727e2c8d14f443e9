package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wealthpulse/backend/internal/models"
)

var newestFirst = bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}}

// MongoExpenseStore handles expense CRUD and category aggregation in
// MongoDB.
type MongoExpenseStore struct {
	col *mongo.Collection
}

func NewMongoExpenseStore(db *mongo.Database) *MongoExpenseStore {
	return &MongoExpenseStore{col: db.Collection(expensesCollection)}
}

func (s *MongoExpenseStore) Insert(ctx context.Context, e *models.Expense) (*models.Expense, error) {
	res, err := s.col.InsertOne(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("mongo insert expense: %w", err)
	}
	created := *e
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		created.ID = oid
	}
	return &created, nil
}

func (s *MongoExpenseStore) ListByUser(ctx context.Context, username string) ([]models.Expense, error) {
	return s.find(ctx, bson.M{"username": username})
}

func (s *MongoExpenseStore) ListByCategory(ctx context.Context, username, category string) ([]models.Expense, error) {
	return s.find(ctx, bson.M{"username": username, "category": category})
}

func (s *MongoExpenseStore) find(ctx context.Context, filter bson.M) ([]models.Expense, error) {
	opts := options.Find().SetSort(newestFirst)
	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo find expenses: %w", err)
	}
	defer cur.Close(ctx)

	expenses := []models.Expense{}
	if err := cur.All(ctx, &expenses); err != nil {
		return nil, fmt.Errorf("mongo decode expenses: %w", err)
	}
	return expenses, nil
}

// CategoryTotals groups the user's expenses by category, most recently
// active category first.
func (s *MongoExpenseStore) CategoryTotals(ctx context.Context, username string) ([]models.CategoryTotal, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"username": username}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$category"},
			{Key: "totalSpent", Value: bson.M{"$sum": "$amount"}},
			{Key: "count", Value: bson.M{"$sum": 1}},
			{Key: "latestDate", Value: bson.M{"$max": "$date"}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "latestDate", Value: -1}, {Key: "_id", Value: 1}}}},
	}
	cur, err := s.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("mongo aggregate categories: %w", err)
	}
	defer cur.Close(ctx)

	totals := []models.CategoryTotal{}
	if err := cur.All(ctx, &totals); err != nil {
		return nil, fmt.Errorf("mongo decode categories: %w", err)
	}
	return totals, nil
}

// LatestInCategory returns the newest expense of a category.
func (s *MongoExpenseStore) LatestInCategory(ctx context.Context, username, category string) (*models.Expense, error) {
	opts := options.FindOne().SetSort(newestFirst)
	var e models.Expense
	err := s.col.FindOne(ctx, bson.M{"username": username, "category": category}, opts).Decode(&e)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("mongo latest expense: %w", err)
	}
	return &e, nil
}

// Update applies a partial update and returns the document as stored
// afterwards.
func (s *MongoExpenseStore) Update(ctx context.Context, id string, u models.ExpenseUpdate) (*models.Expense, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	filter := bson.M{"_id": oid}

	var e models.Expense
	if u.Empty() {
		err = s.col.FindOne(ctx, filter).Decode(&e)
	} else {
		set := bson.M{}
		if u.Category != nil {
			set["category"] = *u.Category
		}
		if u.Amount != nil {
			set["amount"] = *u.Amount
		}
		if u.Date != nil {
			set["date"] = *u.Date
		}
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		err = s.col.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&e)
	}
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("mongo update expense: %w", err)
	}
	return &e, nil
}

// Delete removes one expense and returns its last state.
func (s *MongoExpenseStore) Delete(ctx context.Context, id string) (*models.Expense, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var e models.Expense
	if err := s.col.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&e); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("mongo delete expense: %w", err)
	}
	return &e, nil
}

func (s *MongoExpenseStore) DeleteCategory(ctx context.Context, username, category string) (int64, error) {
	res, err := s.col.DeleteMany(ctx, bson.M{"username": username, "category": category})
	if err != nil {
		return 0, fmt.Errorf("mongo delete category: %w", err)
	}
	return res.DeletedCount, nil
}

func (s *MongoExpenseStore) RenameCategory(ctx context.Context, username, oldCategory, newCategory string) (int64, error) {
	res, err := s.col.UpdateMany(ctx,
		bson.M{"username": username, "category": oldCategory},
		bson.M{"$set": bson.M{"category": newCategory}},
	)
	if err != nil {
		return 0, fmt.Errorf("mongo rename category: %w", err)
	}
	return res.ModifiedCount, nil
}
