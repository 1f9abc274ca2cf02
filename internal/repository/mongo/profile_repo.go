// internal/repository/mongo/profile_repo.go
package mongo

import (
	"alcyxob/ai-coach/internal/domain"
	"alcyxob/ai-coach/internal/repository"
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	profileCollectionName = "fitness_profiles"
	goalsCollectionName   = "nutrition_goals"
)

// mongoFitnessProfileRepository implements repository.FitnessProfileRepository
type mongoFitnessProfileRepository struct {
	collection *mongo.Collection
}

// NewMongoFitnessProfileRepository creates a new fitness profile repository.
func NewMongoFitnessProfileRepository(db *mongo.Database) repository.FitnessProfileRepository {
	return &mongoFitnessProfileRepository{
		collection: db.Collection(profileCollectionName),
	}
}

// GetByUserID retrieves the fitness profile for a user.
// ErrNotFound means the user never finished onboarding.
func (r *mongoFitnessProfileRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.FitnessProfile, error) {
	var profile domain.FitnessProfile
	filter := bson.M{"userId": userID}
	err := r.collection.FindOne(ctx, filter).Decode(&profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// mongoNutritionGoalsRepository implements repository.NutritionGoalsRepository
type mongoNutritionGoalsRepository struct {
	collection *mongo.Collection
}

// NewMongoNutritionGoalsRepository creates a new nutrition goals repository.
func NewMongoNutritionGoalsRepository(db *mongo.Database) repository.NutritionGoalsRepository {
	return &mongoNutritionGoalsRepository{
		collection: db.Collection(goalsCollectionName),
	}
}

// GetByUserID retrieves the nutrition goals for a user. Missing goals are
// normal (ErrNotFound); the orchestrator applies a default calorie target.
func (r *mongoNutritionGoalsRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.NutritionGoals, error) {
	var goals domain.NutritionGoals
	filter := bson.M{"userId": userID}
	err := r.collection.FindOne(ctx, filter).Decode(&goals)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &goals, nil
}

// EnsureProfileIndexes creates necessary indexes for both profile-side
// collections. Call during startup.
func EnsureProfileIndexes(ctx context.Context, profiles, goals *mongo.Collection) {
	userIDUnique := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := profiles.Indexes().CreateMany(ctx, userIDUnique); err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", profiles.Name(), err)
	}
	if _, err := goals.Indexes().CreateMany(ctx, userIDUnique); err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", goals.Name(), err)
	}
}
