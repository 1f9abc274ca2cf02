package repository

import (
	"alcyxob/ai-coach/internal/domain" // Import our defined domain models
	"context"                          // Standard for request-scoped deadlines, cancellation signals, etc.
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive" // For using ObjectIDs
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrJobNotQueued = RepositoryError("job is not in queued status")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
// Only reads are needed here; account management lives in a separate surface.
type UserRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}

// FitnessProfileRepository defines the interface for reading fitness profiles.
type FitnessProfileRepository interface {
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.FitnessProfile, error)
}

// NutritionGoalsRepository defines the interface for reading nutrition goals.
// A user without goals yields ErrNotFound; callers apply defaults.
type NutritionGoalsRepository interface {
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.NutritionGoals, error)
}

// WorkoutSessionRepository defines the interface for reading workout history.
type WorkoutSessionRepository interface {
	// GetRecentCompleted returns up to limit completed sessions, newest first.
	GetRecentCompleted(ctx context.Context, userID primitive.ObjectID, limit int) ([]domain.WorkoutSession, error)
}

// PlanJobRepository defines the interface for the durable job record.
// A given job id has a single writer: the orchestrator instance that claimed it.
type PlanJobRepository interface {
	Create(ctx context.Context, job *domain.PlanGenerationJob) error
	GetByID(ctx context.Context, id string) (*domain.PlanGenerationJob, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID, limit int) ([]domain.PlanGenerationJob, error)

	// ClaimQueued atomically moves the job from queued to checking_profile.
	// Returns ErrJobNotQueued if the job was already claimed or is past that
	// state, so double-invocation of a worker cannot race.
	ClaimQueued(ctx context.Context, id string) error

	UpdateStatus(ctx context.Context, id string, status domain.JobStatus) error
	UpdateProgress(ctx context.Context, id string, progress domain.JobProgress) error
	MarkComplete(ctx context.Context, id string, result *domain.JobResult, completedAt time.Time) error
	MarkFailed(ctx context.Context, id string, message string) error
	SetArchiveKey(ctx context.Context, id string, key string) error
}

// PersonalizedPlanRepository defines the interface for durable plan days.
type PersonalizedPlanRepository interface {
	// UpsertDay inserts or overwrites the row for (userId, date, planType).
	UpsertDay(ctx context.Context, day *domain.PersonalizedPlanDay) error
	GetByUserAndDateRange(ctx context.Context, userID primitive.ObjectID, from, to string) ([]domain.PersonalizedPlanDay, error)
}
