package service

import (
	"alcyxob/ai-coach/internal/domain"
	"alcyxob/ai-coach/internal/planner"
	"alcyxob/ai-coach/internal/repository"
	"alcyxob/ai-coach/internal/storage"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrJobNotFound     = errors.New("plan generation job not found")
	ErrJobNotOwned     = errors.New("job does not belong to this user")
	ErrInvalidSchedule = errors.New("schedule must contain at least one day with a weekday name and focus")
	ErrProfileMissing  = errors.New("fitness profile not found")
	ErrUserMissing     = errors.New("user account not found")
	ErrNoArchive       = errors.New("no archived plan for this job")
)

// historyLimit caps how much workout history is loaded for overload lookups.
const historyLimit = 20

// DayPlanGenerator is the single-day generation unit the orchestrator drives.
// Satisfied by *planner.DayGenerator.
type DayPlanGenerator interface {
	GenerateDayPlan(ctx context.Context, in planner.GenerateDayInput) (*planner.GeneratedDayPlan, error)
}

// PlanJobService owns the plan-generation job lifecycle: creating queued
// jobs, running them day by day, and exposing them for polling.
type PlanJobService interface {
	CreateJob(ctx context.Context, userID primitive.ObjectID, request domain.PlanRequest) (*domain.PlanGenerationJob, error)

	// Run drives one job to a terminal state. It never returns plan data;
	// callers poll the job record. The returned error mirrors what was
	// written to the job's errorMessage so synchronous callers can log it.
	Run(ctx context.Context, jobID string, userID primitive.ObjectID) error

	GetJob(ctx context.Context, jobID string, userID primitive.ObjectID) (*domain.PlanGenerationJob, error)
	GetJobsForUser(ctx context.Context, userID primitive.ObjectID, limit int) ([]domain.PlanGenerationJob, error)
	GetPlanDays(ctx context.Context, userID primitive.ObjectID, from, to string) ([]domain.PersonalizedPlanDay, error)
	GetArchiveDownloadURL(ctx context.Context, jobID string, userID primitive.ObjectID) (string, error)
}

// planJobService implements the PlanJobService interface.
type planJobService struct {
	jobRepo     repository.PlanJobRepository
	planRepo    repository.PersonalizedPlanRepository
	userRepo    repository.UserRepository
	profileRepo repository.FitnessProfileRepository
	goalsRepo   repository.NutritionGoalsRepository
	sessionRepo repository.WorkoutSessionRepository
	generator   DayPlanGenerator
	fileStorage storage.FileStorage // optional; nil disables plan archiving
}

// NewPlanJobService creates a new instance of planJobService.
func NewPlanJobService(
	jobRepo repository.PlanJobRepository,
	planRepo repository.PersonalizedPlanRepository,
	userRepo repository.UserRepository,
	profileRepo repository.FitnessProfileRepository,
	goalsRepo repository.NutritionGoalsRepository,
	sessionRepo repository.WorkoutSessionRepository,
	generator DayPlanGenerator,
	fileStorage storage.FileStorage,
) PlanJobService {
	return &planJobService{
		jobRepo:     jobRepo,
		planRepo:    planRepo,
		userRepo:    userRepo,
		profileRepo: profileRepo,
		goalsRepo:   goalsRepo,
		sessionRepo: sessionRepo,
		generator:   generator,
		fileStorage: fileStorage,
	}
}

// === Job Creation ===

// CreateJob records a new queued job for the user. The request payload is
// immutable from here on.
func (s *planJobService) CreateJob(ctx context.Context, userID primitive.ObjectID, request domain.PlanRequest) (*domain.PlanGenerationJob, error) {
	if userID == primitive.NilObjectID {
		return nil, errors.New("user ID is required")
	}
	if request.StartDate.IsZero() || len(request.Schedule) == 0 {
		return nil, ErrInvalidSchedule
	}
	for _, entry := range request.Schedule {
		if entry.Day == "" || entry.Focus == "" {
			return nil, ErrInvalidSchedule
		}
	}

	totalDays := len(request.Schedule)
	job := &domain.PlanGenerationJob{
		ID:      uuid.NewString(),
		UserID:  userID,
		Status:  domain.JobStatusQueued,
		Request: request,
		Progress: domain.JobProgress{
			TotalDays:  totalDays,
			TotalWeeks: weeksIn(totalDays),
		},
	}

	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create plan job: %w", err)
	}
	log.Printf("Plan job %s created for user %s (%d days)", job.ID, userID.Hex(), totalDays)
	return job, nil
}

// === Orchestration ===

// Run executes the job state machine:
//
//	queued -> checking_profile -> checking_previous_workouts -> creating_plan -> complete | failed
//
// Each generated day is upserted immediately, so a failure partway through
// leaves earlier days committed. There are no automatic retries: partial
// work must not be silently duplicated by a blind re-run.
func (s *planJobService) Run(ctx context.Context, jobID string, userID primitive.ObjectID) error {
	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrJobNotFound
		}
		return err
	}
	if job.UserID != userID {
		return ErrJobNotOwned
	}

	// queued -> checking_profile. The claim is atomic on the queued status,
	// so a duplicate trigger for the same job loses here instead of racing
	// the day loop (and burning duplicate LLM spend).
	if err := s.jobRepo.ClaimQueued(ctx, jobID); err != nil {
		if errors.Is(err, repository.ErrJobNotQueued) {
			log.Printf("WARN: Plan job %s already claimed, skipping run", jobID)
			return err
		}
		return s.fail(ctx, jobID, err)
	}
	log.Printf("Plan job %s: checking profile", jobID)

	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return s.fail(ctx, jobID, ErrProfileMissing)
		}
		return s.fail(ctx, jobID, err)
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return s.fail(ctx, jobID, ErrUserMissing)
		}
		return s.fail(ctx, jobID, err)
	}
	goals, err := s.goalsRepo.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return s.fail(ctx, jobID, err)
	}
	// goals == nil is fine; the generator assumes a default calorie target.

	if err := s.jobRepo.UpdateStatus(ctx, jobID, domain.JobStatusCheckingWorkouts); err != nil {
		return s.fail(ctx, jobID, err)
	}
	log.Printf("Plan job %s: loading workout history", jobID)

	history, err := s.sessionRepo.GetRecentCompleted(ctx, userID, historyLimit)
	if err != nil {
		return s.fail(ctx, jobID, err)
	}

	if err := s.jobRepo.UpdateStatus(ctx, jobID, domain.JobStatusCreatingPlan); err != nil {
		return s.fail(ctx, jobID, err)
	}

	totalDays := len(job.Request.Schedule)
	totalWeeks := weeksIn(totalDays)
	savedDays := make([]string, 0, totalDays)
	var writtenDays []domain.PersonalizedPlanDay

	for i, entry := range job.Request.Schedule {
		// Progress is written before the day is generated so a client
		// polling mid-failure sees which day was in flight.
		progress := domain.JobProgress{
			CurrentDay:   i + 1,
			TotalDays:    totalDays,
			CurrentWeek:  i/7 + 1,
			TotalWeeks:   totalWeeks,
			CurrentFocus: entry.Focus,
		}
		if err := s.jobRepo.UpdateProgress(ctx, jobID, progress); err != nil {
			return s.fail(ctx, jobID, err)
		}

		// Rest days consume a schedule index but produce no plan row.
		if strings.EqualFold(entry.Focus, "rest") {
			continue
		}

		planDate := planner.PlanDate(job.Request.StartDate, i)
		log.Printf("Plan job %s: generating day %d/%d (%s, %s)", jobID, i+1, totalDays, planDate, entry.Focus)

		generated, err := s.generator.GenerateDayPlan(ctx, planner.GenerateDayInput{
			Profile:         profile,
			User:            user,
			Goals:           goals,
			DayName:         entry.Day,
			Focus:           entry.Focus,
			StartDate:       job.Request.StartDate,
			DayIndex:        i,
			PreviousWorkout: findPreviousWorkout(history, entry.Focus),
		})
		if err != nil {
			// A bad generation voids trust in the rest of the plan; abort.
			// Days already upserted stay committed.
			return s.fail(ctx, jobID, err)
		}

		day := domain.PersonalizedPlanDay{
			UserID:    userID,
			Date:      planDate,
			PlanType:  domain.PlanTypeWorkout,
			Focus:     entry.Focus,
			Workout:   generated.Workout.Content(),
			Nutrition: generated.Macros.Nutrition(),
			IsActive:  true,
		}
		if err := s.planRepo.UpsertDay(ctx, &day); err != nil {
			// A single day's storage hiccup does not void the rest of the
			// plan; the date is simply absent from savedDays.
			log.Printf("ERROR: Plan job %s: failed to save day %s: %v", jobID, planDate, err)
			continue
		}
		savedDays = append(savedDays, planDate)
		writtenDays = append(writtenDays, day)
	}

	result := &domain.JobResult{
		Workout: domain.WorkoutResult{SavedDays: savedDays, Count: len(savedDays)},
	}
	completedAt := time.Now().UTC()
	if err := s.jobRepo.MarkComplete(ctx, jobID, result, completedAt); err != nil {
		return s.fail(ctx, jobID, err)
	}
	log.Printf("Plan job %s: complete, %d day(s) saved", jobID, len(savedDays))

	s.archivePlan(ctx, job, writtenDays, completedAt)
	return nil
}

// fail records the terminal failure on the job and surfaces the cause to the
// caller, so both polling clients and the synchronous trigger observe it.
func (s *planJobService) fail(ctx context.Context, jobID string, cause error) error {
	log.Printf("ERROR: Plan job %s failed: %v", jobID, cause)
	if err := s.jobRepo.MarkFailed(ctx, jobID, cause.Error()); err != nil {
		log.Printf("ERROR: Plan job %s: could not record failure: %v", jobID, err)
	}
	return cause
}

// findPreviousWorkout scans the history (newest first) for the most recent
// session containing a workout entry with the given focus.
func findPreviousWorkout(history []domain.WorkoutSession, focus string) *domain.SessionWorkout {
	for i := range history {
		if w := history[i].FindWorkoutByFocus(focus); w != nil {
			return w
		}
	}
	return nil
}

// weeksIn returns the number of calendar weeks a schedule of n days spans.
func weeksIn(n int) int {
	if n == 0 {
		return 0
	}
	return (n + 6) / 7
}

// archivePlan uploads a JSON snapshot of the generated days to object
// storage. Best effort: the job is already complete, so archive failures
// are logged and never surfaced.
func (s *planJobService) archivePlan(ctx context.Context, job *domain.PlanGenerationJob, days []domain.PersonalizedPlanDay, completedAt time.Time) {
	if s.fileStorage == nil || len(days) == 0 {
		return
	}

	snapshot := struct {
		JobID       string                       `json:"jobId"`
		UserID      string                       `json:"userId"`
		CompletedAt time.Time                    `json:"completedAt"`
		Days        []domain.PersonalizedPlanDay `json:"days"`
	}{
		JobID:       job.ID,
		UserID:      job.UserID.Hex(),
		CompletedAt: completedAt,
		Days:        days,
	}

	body, err := json.Marshal(snapshot)
	if err != nil {
		log.Printf("ERROR: Plan job %s: failed to serialize archive: %v", job.ID, err)
		return
	}

	objectKey := fmt.Sprintf("plans/%s/%s.json", job.UserID.Hex(), job.ID)
	if err := s.fileStorage.PutObject(ctx, objectKey, "application/json", body); err != nil {
		log.Printf("ERROR: Plan job %s: failed to upload archive: %v", job.ID, err)
		return
	}
	if err := s.jobRepo.SetArchiveKey(ctx, job.ID, objectKey); err != nil {
		log.Printf("ERROR: Plan job %s: failed to record archive key: %v", job.ID, err)
	}
}

// === Polling / Reads ===

// GetJob returns the job record for polling, enforcing ownership.
func (s *planJobService) GetJob(ctx context.Context, jobID string, userID primitive.ObjectID) (*domain.PlanGenerationJob, error) {
	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	if job.UserID != userID {
		return nil, ErrJobNotOwned
	}
	return job, nil
}

// GetJobsForUser returns the user's recent jobs, newest first.
func (s *planJobService) GetJobsForUser(ctx context.Context, userID primitive.ObjectID, limit int) ([]domain.PlanGenerationJob, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.jobRepo.GetByUserID(ctx, userID, limit)
}

// GetPlanDays returns the user's generated days in a date range so clients
// can diff delivered days against the schedule they requested.
func (s *planJobService) GetPlanDays(ctx context.Context, userID primitive.ObjectID, from, to string) ([]domain.PersonalizedPlanDay, error) {
	return s.planRepo.GetByUserAndDateRange(ctx, userID, from, to)
}

// GetArchiveDownloadURL returns a temporary URL for the archived snapshot of
// a completed job.
func (s *planJobService) GetArchiveDownloadURL(ctx context.Context, jobID string, userID primitive.ObjectID) (string, error) {
	job, err := s.GetJob(ctx, jobID, userID)
	if err != nil {
		return "", err
	}
	if job.ArchiveKey == "" || s.fileStorage == nil {
		return "", ErrNoArchive
	}
	return s.fileStorage.GeneratePresignedDownloadURL(ctx, job.ArchiveKey, storage.DefaultPresignedURLExpiry)
}
