// internal/repository/mongo/plan_repo.go
package mongo

import (
	"alcyxob/ai-coach/internal/domain"
	"alcyxob/ai-coach/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const planDayCollectionName = "personalized_plan_days"

// mongoPersonalizedPlanRepository implements repository.PersonalizedPlanRepository
type mongoPersonalizedPlanRepository struct {
	collection *mongo.Collection
}

// NewMongoPersonalizedPlanRepository creates a new personalized plan repository.
func NewMongoPersonalizedPlanRepository(db *mongo.Database) repository.PersonalizedPlanRepository {
	return &mongoPersonalizedPlanRepository{
		collection: db.Collection(planDayCollectionName),
	}
}

// planDayKey builds the uniqueness filter for a plan day. Matches the unique
// compound index created in EnsurePersonalizedPlanIndexes.
func planDayKey(userID primitive.ObjectID, date, planType string) bson.M {
	return bson.M{
		"userId":   userID,
		"date":     date,
		"planType": planType,
	}
}

// UpsertDay inserts or overwrites the plan row for (userId, date, planType).
// Regenerating a date replaces the previous document; it never duplicates.
func (r *mongoPersonalizedPlanRepository) UpsertDay(ctx context.Context, day *domain.PersonalizedPlanDay) error {
	if day.UserID == primitive.NilObjectID || day.Date == "" || day.PlanType == "" {
		return errors.New("plan day requires userId, date, and planType")
	}
	now := time.Now().UTC()
	if day.CreatedAt.IsZero() {
		day.CreatedAt = now
	}
	day.UpdatedAt = now

	filter := planDayKey(day.UserID, day.Date, day.PlanType)
	// ReplaceOne with upsert keeps the existing _id on overwrite and creates
	// the document when the key has never been written.
	replacement := bson.M{
		"userId":      day.UserID,
		"date":        day.Date,
		"planType":    day.PlanType,
		"focus":       day.Focus,
		"workout":     day.Workout,
		"nutrition":   day.Nutrition,
		"isActive":    day.IsActive,
		"isCompleted": day.IsCompleted,
		"createdAt":   day.CreatedAt,
		"updatedAt":   day.UpdatedAt,
	}

	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, filter, replacement, opts)
	return err
}

// GetByUserAndDateRange retrieves the user's plan days with from <= date <= to,
// in date order. Dates are "YYYY-MM-DD" strings, so lexicographic range
// queries are calendar-correct.
func (r *mongoPersonalizedPlanRepository) GetByUserAndDateRange(ctx context.Context, userID primitive.ObjectID, from, to string) ([]domain.PersonalizedPlanDay, error) {
	var days []domain.PersonalizedPlanDay
	filter := bson.M{
		"userId": userID,
		"date":   bson.M{"$gte": from, "$lte": to},
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &days); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	// Return empty slice if no days found
	return days, nil
}

// EnsurePersonalizedPlanIndexes creates necessary indexes. Call during startup.
// The unique compound index is what makes day writes idempotent.
func EnsurePersonalizedPlanIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "userId", Value: 1},
				{Key: "date", Value: 1},
				{Key: "planType", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
