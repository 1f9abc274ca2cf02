// internal/repository/mongo/job_repo.go
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

const planJobCollectionName = "plan_generation_jobs"

// mongoPlanJobRepository implements repository.PlanJobRepository
type mongoPlanJobRepository struct {
	collection *mongo.Collection
}

// NewMongoPlanJobRepository creates a new plan generation job repository.
func NewMongoPlanJobRepository(db *mongo.Database) repository.PlanJobRepository {
	return &mongoPlanJobRepository{
		collection: db.Collection(planJobCollectionName),
	}
}

// Create inserts a new job record. The caller assigns the id (UUID).
func (r *mongoPlanJobRepository) Create(ctx context.Context, job *domain.PlanGenerationJob) error {
	if job.ID == "" || job.UserID == primitive.NilObjectID {
		return errors.New("job requires id and userId")
	}
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, job)
	return err
}

// GetByID retrieves a single job by its id.
func (r *mongoPlanJobRepository) GetByID(ctx context.Context, id string) (*domain.PlanGenerationJob, error) {
	var job domain.PlanGenerationJob
	filter := bson.M{"_id": id}
	err := r.collection.FindOne(ctx, filter).Decode(&job)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

// GetByUserID retrieves up to limit of the user's jobs, newest first.
func (r *mongoPlanJobRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID, limit int) ([]domain.PlanGenerationJob, error) {
	var jobs []domain.PlanGenerationJob
	filter := bson.M{"userId": userID}
	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// ClaimQueued transitions queued -> checking_profile. The filter includes the
// status so only one caller can win the claim; a second invocation for the
// same job matches nothing and gets ErrJobNotQueued.
func (r *mongoPlanJobRepository) ClaimQueued(ctx context.Context, id string) error {
	filter := bson.M{"_id": id, "status": domain.JobStatusQueued}
	updateDoc := bson.M{
		"$set": bson.M{
			"status":    domain.JobStatusCheckingProfile,
			"updatedAt": time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrJobNotQueued
	}
	return nil
}

// UpdateStatus sets a non-terminal status on the job.
func (r *mongoPlanJobRepository) UpdateStatus(ctx context.Context, id string, status domain.JobStatus) error {
	return r.setFields(ctx, id, bson.M{"status": status})
}

// UpdateProgress overwrites the progress block so polling clients can see
// which day is in flight.
func (r *mongoPlanJobRepository) UpdateProgress(ctx context.Context, id string, progress domain.JobProgress) error {
	return r.setFields(ctx, id, bson.M{"progress": progress})
}

// MarkComplete finalizes a successful job. Result and completedAt are set
// together; errorMessage is cleared to keep the terminal-state invariant.
func (r *mongoPlanJobRepository) MarkComplete(ctx context.Context, id string, result *domain.JobResult, completedAt time.Time) error {
	filter := bson.M{"_id": id}
	updateDoc := bson.M{
		"$set": bson.M{
			"status":      domain.JobStatusComplete,
			"result":      result,
			"completedAt": completedAt,
			"updatedAt":   time.Now().UTC(),
		},
		"$unset": bson.M{"errorMessage": ""},
	}

	res, err := r.collection.UpdateOne(ctx, filter, updateDoc)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// MarkFailed finalizes a failed job with a human-readable message.
func (r *mongoPlanJobRepository) MarkFailed(ctx context.Context, id string, message string) error {
	filter := bson.M{"_id": id}
	updateDoc := bson.M{
		"$set": bson.M{
			"status":       domain.JobStatusFailed,
			"errorMessage": message,
			"updatedAt":    time.Now().UTC(),
		},
		"$unset": bson.M{"result": ""},
	}

	res, err := r.collection.UpdateOne(ctx, filter, updateDoc)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SetArchiveKey records the S3 object key of the archived plan snapshot.
func (r *mongoPlanJobRepository) SetArchiveKey(ctx context.Context, id string, key string) error {
	return r.setFields(ctx, id, bson.M{"archiveKey": key})
}

func (r *mongoPlanJobRepository) setFields(ctx context.Context, id string, fields bson.M) error {
	fields["updatedAt"] = time.Now().UTC()
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsurePlanJobIndexes creates necessary indexes. Call during startup.
func EnsurePlanJobIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Job listing per user, newest first
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			// Lets operational queries find stuck/queued jobs quickly
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
