package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"alcyxob/ai-coach/internal/domain"
	"alcyxob/ai-coach/internal/planner"
	"alcyxob/ai-coach/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Fakes ---

type fakeJobRepo struct {
	job         *domain.PlanGenerationJob
	progressLog []domain.JobProgress
	statusLog   []domain.JobStatus
}

func (f *fakeJobRepo) Create(ctx context.Context, job *domain.PlanGenerationJob) error {
	job.CreatedAt = time.Now().UTC()
	f.job = job
	return nil
}

func (f *fakeJobRepo) GetByID(ctx context.Context, id string) (*domain.PlanGenerationJob, error) {
	if f.job == nil || f.job.ID != id {
		return nil, repository.ErrNotFound
	}
	copied := *f.job
	return &copied, nil
}

func (f *fakeJobRepo) GetByUserID(ctx context.Context, userID primitive.ObjectID, limit int) ([]domain.PlanGenerationJob, error) {
	if f.job == nil || f.job.UserID != userID {
		return []domain.PlanGenerationJob{}, nil
	}
	return []domain.PlanGenerationJob{*f.job}, nil
}

func (f *fakeJobRepo) ClaimQueued(ctx context.Context, id string) error {
	if f.job == nil || f.job.ID != id {
		return repository.ErrNotFound
	}
	if f.job.Status != domain.JobStatusQueued {
		return repository.ErrJobNotQueued
	}
	f.job.Status = domain.JobStatusCheckingProfile
	f.statusLog = append(f.statusLog, f.job.Status)
	return nil
}

func (f *fakeJobRepo) UpdateStatus(ctx context.Context, id string, status domain.JobStatus) error {
	f.job.Status = status
	f.statusLog = append(f.statusLog, status)
	return nil
}

func (f *fakeJobRepo) UpdateProgress(ctx context.Context, id string, progress domain.JobProgress) error {
	f.job.Progress = progress
	f.progressLog = append(f.progressLog, progress)
	return nil
}

func (f *fakeJobRepo) MarkComplete(ctx context.Context, id string, result *domain.JobResult, completedAt time.Time) error {
	f.job.Status = domain.JobStatusComplete
	f.job.Result = result
	f.job.CompletedAt = &completedAt
	f.job.ErrorMessage = ""
	f.statusLog = append(f.statusLog, f.job.Status)
	return nil
}

func (f *fakeJobRepo) MarkFailed(ctx context.Context, id string, message string) error {
	f.job.Status = domain.JobStatusFailed
	f.job.ErrorMessage = message
	f.job.Result = nil
	f.statusLog = append(f.statusLog, f.job.Status)
	return nil
}

func (f *fakeJobRepo) SetArchiveKey(ctx context.Context, id string, key string) error {
	f.job.ArchiveKey = key
	return nil
}

type fakePlanRepo struct {
	rows      map[string]domain.PersonalizedPlanDay
	failDates map[string]bool
	upserts   int
}

func planKey(userID primitive.ObjectID, date, planType string) string {
	return fmt.Sprintf("%s|%s|%s", userID.Hex(), date, planType)
}

func (f *fakePlanRepo) UpsertDay(ctx context.Context, day *domain.PersonalizedPlanDay) error {
	f.upserts++
	if f.failDates[day.Date] {
		return errors.New("write concern failure")
	}
	if f.rows == nil {
		f.rows = make(map[string]domain.PersonalizedPlanDay)
	}
	f.rows[planKey(day.UserID, day.Date, day.PlanType)] = *day
	return nil
}

func (f *fakePlanRepo) GetByUserAndDateRange(ctx context.Context, userID primitive.ObjectID, from, to string) ([]domain.PersonalizedPlanDay, error) {
	var days []domain.PersonalizedPlanDay
	for _, row := range f.rows {
		if row.UserID == userID && row.Date >= from && row.Date <= to {
			days = append(days, row)
		}
	}
	return days, nil
}

type fakeUserRepo struct {
	user *domain.User
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	if f.user == nil || f.user.ID != id {
		return nil, repository.ErrNotFound
	}
	return f.user, nil
}

type fakeProfileRepo struct {
	profile *domain.FitnessProfile
}

func (f *fakeProfileRepo) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.FitnessProfile, error) {
	if f.profile == nil {
		return nil, repository.ErrNotFound
	}
	return f.profile, nil
}

type fakeGoalsRepo struct {
	goals *domain.NutritionGoals
}

func (f *fakeGoalsRepo) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.NutritionGoals, error) {
	if f.goals == nil {
		return nil, repository.ErrNotFound
	}
	return f.goals, nil
}

type fakeSessionRepo struct {
	sessions []domain.WorkoutSession
}

func (f *fakeSessionRepo) GetRecentCompleted(ctx context.Context, userID primitive.ObjectID, limit int) ([]domain.WorkoutSession, error) {
	if len(f.sessions) > limit {
		return f.sessions[:limit], nil
	}
	return f.sessions, nil
}

type fakeGenerator struct {
	inputs      []planner.GenerateDayInput
	failOnFocus string
}

func (f *fakeGenerator) GenerateDayPlan(ctx context.Context, in planner.GenerateDayInput) (*planner.GeneratedDayPlan, error) {
	f.inputs = append(f.inputs, in)
	if f.failOnFocus != "" && strings.EqualFold(in.Focus, f.failOnFocus) {
		return nil, &planner.ParseError{Reason: "response is not JSON and contains no object block"}
	}
	return &planner.GeneratedDayPlan{
		Workout: planner.WorkoutDay{
			Date:    planner.PlanDate(in.StartDate, in.DayIndex),
			DayName: in.DayName,
			Focus:   in.Focus,
			Exercises: []domain.PlannedExercise{
				{Name: "Bench Press", Sets: 4, Reps: "8-12", Rest: "90s"},
			},
		},
		Macros: planner.MacroTargets{Calories: 2400, ProteinG: 180, CarbsG: 250, FatG: 70},
	}, nil
}

type fakeStorage struct {
	putKey  string
	putBody []byte
	putErr  error
}

func (f *fakeStorage) PutObject(ctx context.Context, objectKey string, contentType string, body []byte) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.putKey = objectKey
	f.putBody = body
	return nil
}

func (f *fakeStorage) GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error) {
	return "https://example.test/" + objectKey, nil
}

// --- Test harness ---

type testEnv struct {
	svc      PlanJobService
	jobs     *fakeJobRepo
	plans    *fakePlanRepo
	users    *fakeUserRepo
	profiles *fakeProfileRepo
	goals    *fakeGoalsRepo
	sessions *fakeSessionRepo
	gen      *fakeGenerator
	store    *fakeStorage
	userID   primitive.ObjectID
}

func newTestEnv() *testEnv {
	userID := primitive.NewObjectID()
	env := &testEnv{
		jobs:  &fakeJobRepo{},
		plans: &fakePlanRepo{},
		users: &fakeUserRepo{user: &domain.User{ID: userID, HeightCm: 180, CurrentWeight: 82}},
		profiles: &fakeProfileRepo{profile: &domain.FitnessProfile{
			UserID:       userID,
			FitnessLevel: "intermediate",
		}},
		goals:    &fakeGoalsRepo{},
		sessions: &fakeSessionRepo{},
		gen:      &fakeGenerator{},
		store:    &fakeStorage{},
		userID:   userID,
	}
	env.svc = NewPlanJobService(env.jobs, env.plans, env.users, env.profiles, env.goals, env.sessions, env.gen, env.store)
	return env
}

func (env *testEnv) createJob(t *testing.T, start string, schedule ...domain.ScheduleEntry) *domain.PlanGenerationJob {
	t.Helper()
	startDate, err := time.Parse("2006-01-02", start)
	if err != nil {
		t.Fatalf("bad start date: %v", err)
	}
	job, err := env.svc.CreateJob(context.Background(), env.userID, domain.PlanRequest{
		StartDate: startDate,
		Schedule:  schedule,
	})
	if err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}
	return job
}

var weekSchedule = []domain.ScheduleEntry{
	{Day: "Monday", Focus: "Push"},
	{Day: "Tuesday", Focus: "Rest"},
	{Day: "Wednesday", Focus: "Pull"},
}

// --- Tests ---

func TestCreateJob(t *testing.T) {
	env := newTestEnv()

	t.Run("Valid", func(t *testing.T) {
		job := env.createJob(t, "2024-02-28", weekSchedule...)
		if job.Status != domain.JobStatusQueued {
			t.Errorf("Expected queued, got %s", job.Status)
		}
		if job.ID == "" {
			t.Error("Expected a generated job id")
		}
		if job.Progress.TotalDays != 3 || job.Progress.TotalWeeks != 1 {
			t.Errorf("Unexpected totals: %+v", job.Progress)
		}
	})

	t.Run("EmptySchedule", func(t *testing.T) {
		_, err := env.svc.CreateJob(context.Background(), env.userID, domain.PlanRequest{
			StartDate: time.Now(),
		})
		if !errors.Is(err, ErrInvalidSchedule) {
			t.Errorf("Expected ErrInvalidSchedule, got %v", err)
		}
	})

	t.Run("MissingFocus", func(t *testing.T) {
		_, err := env.svc.CreateJob(context.Background(), env.userID, domain.PlanRequest{
			StartDate: time.Now(),
			Schedule:  []domain.ScheduleEntry{{Day: "Monday"}},
		})
		if !errors.Is(err, ErrInvalidSchedule) {
			t.Errorf("Expected ErrInvalidSchedule, got %v", err)
		}
	})
}

// The leap-year scenario: Feb 28 + 1 = Feb 29 (rest, skipped), Feb 28 + 2 = Mar 1.
func TestRun_FullSuccess(t *testing.T) {
	env := newTestEnv()
	job := env.createJob(t, "2024-02-28", weekSchedule...)

	if err := env.svc.Run(context.Background(), job.ID, env.userID); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	final := env.jobs.job
	if final.Status != domain.JobStatusComplete {
		t.Fatalf("Expected complete, got %s (error: %s)", final.Status, final.ErrorMessage)
	}
	if final.ErrorMessage != "" {
		t.Errorf("Expected no error message on success, got %q", final.ErrorMessage)
	}
	if final.CompletedAt == nil {
		t.Error("Expected completedAt to be set")
	}

	wantDays := []string{"2024-02-28", "2024-03-01"}
	got := final.Result.Workout.SavedDays
	if len(got) != len(wantDays) || got[0] != wantDays[0] || got[1] != wantDays[1] {
		t.Errorf("Expected savedDays %v, got %v", wantDays, got)
	}
	if final.Result.Workout.Count != 2 {
		t.Errorf("Expected count 2, got %d", final.Result.Workout.Count)
	}

	// One row per non-rest day, none for the rest-day date slot.
	if len(env.plans.rows) != 2 {
		t.Errorf("Expected 2 plan rows, got %d", len(env.plans.rows))
	}
	if _, exists := env.plans.rows[planKey(env.userID, "2024-02-29", domain.PlanTypeWorkout)]; exists {
		t.Error("Expected no plan row for the rest day")
	}

	// Progress is written for every schedule entry, rest days included,
	// and is monotonically non-decreasing, never exceeding totalDays.
	if len(env.jobs.progressLog) != 3 {
		t.Fatalf("Expected 3 progress updates, got %d", len(env.jobs.progressLog))
	}
	prev := 0
	for _, p := range env.jobs.progressLog {
		if p.CurrentDay < prev {
			t.Errorf("Progress went backwards: %d after %d", p.CurrentDay, prev)
		}
		if p.CurrentDay > p.TotalDays {
			t.Errorf("CurrentDay %d exceeds totalDays %d", p.CurrentDay, p.TotalDays)
		}
		prev = p.CurrentDay
	}
	if env.jobs.progressLog[1].CurrentFocus != "Rest" {
		t.Errorf("Expected rest day to appear in progress, got %q", env.jobs.progressLog[1].CurrentFocus)
	}
}

func TestRun_GeneratorFailureMidway(t *testing.T) {
	env := newTestEnv()
	env.gen.failOnFocus = "Legs"
	job := env.createJob(t, "2024-06-03",
		domain.ScheduleEntry{Day: "Monday", Focus: "Push"},
		domain.ScheduleEntry{Day: "Tuesday", Focus: "Legs"},
		domain.ScheduleEntry{Day: "Wednesday", Focus: "Pull"},
	)

	err := env.svc.Run(context.Background(), job.ID, env.userID)
	if err == nil {
		t.Fatal("Expected Run to surface the generation failure")
	}

	final := env.jobs.job
	if final.Status != domain.JobStatusFailed {
		t.Fatalf("Expected failed, got %s", final.Status)
	}
	if final.ErrorMessage == "" {
		t.Error("Expected a non-empty error message")
	}
	if final.Result != nil {
		t.Error("Expected no result payload on failure")
	}

	// Day 0 stays committed; days after the failure are never generated.
	if len(env.plans.rows) != 1 {
		t.Errorf("Expected exactly 1 committed row, got %d", len(env.plans.rows))
	}
	if _, exists := env.plans.rows[planKey(env.userID, "2024-06-03", domain.PlanTypeWorkout)]; !exists {
		t.Error("Expected the first day's row to remain committed")
	}
	if len(env.gen.inputs) != 2 {
		t.Errorf("Expected generation to stop after the failure, got %d calls", len(env.gen.inputs))
	}
}

func TestRun_MalformedFirstDay(t *testing.T) {
	env := newTestEnv()
	env.gen.failOnFocus = "Push"
	job := env.createJob(t, "2024-06-03", weekSchedule...)

	if err := env.svc.Run(context.Background(), job.ID, env.userID); err == nil {
		t.Fatal("Expected Run to fail")
	}

	final := env.jobs.job
	if final.Status != domain.JobStatusFailed {
		t.Fatalf("Expected failed, got %s", final.Status)
	}
	if len(env.plans.rows) != 0 {
		t.Errorf("Expected zero plan rows, got %d", len(env.plans.rows))
	}
	if final.Result != nil {
		t.Error("Expected result payload to be unset")
	}
	if final.ErrorMessage == "" {
		t.Error("Expected error message to be set")
	}
}

// A single day's storage failure reduces savedDays but does not fail the job.
func TestRun_PersistenceErrorNonFatal(t *testing.T) {
	env := newTestEnv()
	env.plans.failDates = map[string]bool{"2024-06-04": true}
	job := env.createJob(t, "2024-06-03",
		domain.ScheduleEntry{Day: "Monday", Focus: "Push"},
		domain.ScheduleEntry{Day: "Tuesday", Focus: "Legs"},
		domain.ScheduleEntry{Day: "Wednesday", Focus: "Pull"},
	)

	if err := env.svc.Run(context.Background(), job.ID, env.userID); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	final := env.jobs.job
	if final.Status != domain.JobStatusComplete {
		t.Fatalf("Expected complete, got %s", final.Status)
	}
	saved := final.Result.Workout.SavedDays
	if len(saved) != 2 {
		t.Fatalf("Expected 2 saved days, got %v", saved)
	}
	for _, d := range saved {
		if d == "2024-06-04" {
			t.Error("Expected the failed date to be omitted from savedDays")
		}
	}
	// All three days were still attempted.
	if len(env.gen.inputs) != 3 {
		t.Errorf("Expected 3 generation calls, got %d", len(env.gen.inputs))
	}
}

func TestRun_MissingPrerequisites(t *testing.T) {
	t.Run("Profile", func(t *testing.T) {
		env := newTestEnv()
		env.profiles.profile = nil
		job := env.createJob(t, "2024-06-03", weekSchedule...)

		err := env.svc.Run(context.Background(), job.ID, env.userID)
		if !errors.Is(err, ErrProfileMissing) {
			t.Fatalf("Expected ErrProfileMissing, got %v", err)
		}
		if env.jobs.job.Status != domain.JobStatusFailed {
			t.Errorf("Expected failed, got %s", env.jobs.job.Status)
		}
		if len(env.gen.inputs) != 0 || len(env.plans.rows) != 0 {
			t.Error("Expected no days to be processed")
		}
	})

	t.Run("User", func(t *testing.T) {
		env := newTestEnv()
		env.users.user = nil
		job := env.createJob(t, "2024-06-03", weekSchedule...)

		err := env.svc.Run(context.Background(), job.ID, env.userID)
		if !errors.Is(err, ErrUserMissing) {
			t.Fatalf("Expected ErrUserMissing, got %v", err)
		}
		if env.jobs.job.Status != domain.JobStatusFailed {
			t.Errorf("Expected failed, got %s", env.jobs.job.Status)
		}
	})
}

func TestRun_ClaimGuard(t *testing.T) {
	env := newTestEnv()
	job := env.createJob(t, "2024-06-03", weekSchedule...)

	if err := env.svc.Run(context.Background(), job.ID, env.userID); err != nil {
		t.Fatalf("First run failed: %v", err)
	}
	firstCalls := len(env.gen.inputs)

	err := env.svc.Run(context.Background(), job.ID, env.userID)
	if !errors.Is(err, repository.ErrJobNotQueued) {
		t.Fatalf("Expected ErrJobNotQueued on second run, got %v", err)
	}
	if env.jobs.job.Status != domain.JobStatusComplete {
		t.Errorf("Second run must not disturb the terminal state, got %s", env.jobs.job.Status)
	}
	if len(env.gen.inputs) != firstCalls {
		t.Errorf("Second run must not call the generator, got %d extra calls", len(env.gen.inputs)-firstCalls)
	}
}

func TestRun_WrongOwner(t *testing.T) {
	env := newTestEnv()
	job := env.createJob(t, "2024-06-03", weekSchedule...)

	err := env.svc.Run(context.Background(), job.ID, primitive.NewObjectID())
	if !errors.Is(err, ErrJobNotOwned) {
		t.Fatalf("Expected ErrJobNotOwned, got %v", err)
	}
	if env.jobs.job.Status != domain.JobStatusQueued {
		t.Errorf("Job must stay queued, got %s", env.jobs.job.Status)
	}
}

func TestRun_PreviousWorkoutSelection(t *testing.T) {
	env := newTestEnv()
	newest := domain.WorkoutSession{
		Completed:   true,
		CompletedAt: time.Date(2024, 5, 30, 18, 0, 0, 0, time.UTC),
		Content: domain.SessionContent{Workouts: []domain.SessionWorkout{
			{Focus: "PUSH", Exercises: []domain.PlannedExercise{{Name: "Incline Press", Sets: 4, Reps: "8", Rest: "90s", Weight: "60 kg"}}},
		}},
	}
	older := domain.WorkoutSession{
		Completed:   true,
		CompletedAt: time.Date(2024, 5, 20, 18, 0, 0, 0, time.UTC),
		Content: domain.SessionContent{Workouts: []domain.SessionWorkout{
			{Focus: "Push", Exercises: []domain.PlannedExercise{{Name: "Bench Press", Sets: 4, Reps: "8", Rest: "90s", Weight: "55 kg"}}},
			{Focus: "Pull", Exercises: []domain.PlannedExercise{{Name: "Barbell Row", Sets: 4, Reps: "8", Rest: "90s", Weight: "70 kg"}}},
		}},
	}
	env.sessions.sessions = []domain.WorkoutSession{newest, older} // newest first

	job := env.createJob(t, "2024-06-03",
		domain.ScheduleEntry{Day: "Monday", Focus: "Push"},
		domain.ScheduleEntry{Day: "Tuesday", Focus: "Pull"},
		domain.ScheduleEntry{Day: "Wednesday", Focus: "Legs"},
	)
	if err := env.svc.Run(context.Background(), job.ID, env.userID); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(env.gen.inputs) != 3 {
		t.Fatalf("Expected 3 generation calls, got %d", len(env.gen.inputs))
	}

	push := env.gen.inputs[0].PreviousWorkout
	if push == nil || push.Exercises[0].Name != "Incline Press" {
		t.Errorf("Expected the newest matching Push session, got %+v", push)
	}
	pull := env.gen.inputs[1].PreviousWorkout
	if pull == nil || pull.Exercises[0].Name != "Barbell Row" {
		t.Errorf("Expected the older session's Pull entry, got %+v", pull)
	}
	if env.gen.inputs[2].PreviousWorkout != nil {
		t.Errorf("Expected no previous workout for Legs, got %+v", env.gen.inputs[2].PreviousWorkout)
	}
}

// Regenerating the same date overwrites instead of duplicating.
func TestRun_UpsertOverwrite(t *testing.T) {
	env := newTestEnv()
	schedule := []domain.ScheduleEntry{{Day: "Monday", Focus: "Push"}}

	first := env.createJob(t, "2024-06-03", schedule...)
	if err := env.svc.Run(context.Background(), first.ID, env.userID); err != nil {
		t.Fatalf("First run failed: %v", err)
	}

	second := env.createJob(t, "2024-06-03", schedule...)
	if err := env.svc.Run(context.Background(), second.ID, env.userID); err != nil {
		t.Fatalf("Second run failed: %v", err)
	}

	if env.plans.upserts != 2 {
		t.Errorf("Expected 2 upsert calls, got %d", env.plans.upserts)
	}
	if len(env.plans.rows) != 1 {
		t.Errorf("Expected a single row for the regenerated date, got %d", len(env.plans.rows))
	}
}

func TestRun_ArchivesPlanOnComplete(t *testing.T) {
	env := newTestEnv()
	job := env.createJob(t, "2024-06-03", weekSchedule...)

	if err := env.svc.Run(context.Background(), job.ID, env.userID); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	wantKey := fmt.Sprintf("plans/%s/%s.json", env.userID.Hex(), job.ID)
	if env.store.putKey != wantKey {
		t.Errorf("Expected archive key %q, got %q", wantKey, env.store.putKey)
	}
	if env.jobs.job.ArchiveKey != wantKey {
		t.Errorf("Expected archive key recorded on the job, got %q", env.jobs.job.ArchiveKey)
	}
	if !strings.Contains(string(env.store.putBody), "2024-06-05") {
		t.Errorf("Expected archive body to contain the generated dates: %s", env.store.putBody)
	}
}

func TestRun_ArchiveFailureDoesNotFailJob(t *testing.T) {
	env := newTestEnv()
	env.store.putErr = errors.New("bucket unavailable")
	job := env.createJob(t, "2024-06-03", weekSchedule...)

	if err := env.svc.Run(context.Background(), job.ID, env.userID); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if env.jobs.job.Status != domain.JobStatusComplete {
		t.Errorf("Expected complete despite archive failure, got %s", env.jobs.job.Status)
	}
	if env.jobs.job.ArchiveKey != "" {
		t.Errorf("Expected no archive key after upload failure, got %q", env.jobs.job.ArchiveKey)
	}
}

func TestGetArchiveDownloadURL(t *testing.T) {
	env := newTestEnv()
	job := env.createJob(t, "2024-06-03", weekSchedule...)

	if _, err := env.svc.GetArchiveDownloadURL(context.Background(), job.ID, env.userID); !errors.Is(err, ErrNoArchive) {
		t.Errorf("Expected ErrNoArchive before completion, got %v", err)
	}

	if err := env.svc.Run(context.Background(), job.ID, env.userID); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	url, err := env.svc.GetArchiveDownloadURL(context.Background(), job.ID, env.userID)
	if err != nil {
		t.Fatalf("GetArchiveDownloadURL failed: %v", err)
	}
	if !strings.Contains(url, job.ID) {
		t.Errorf("Expected URL to reference the archive object, got %q", url)
	}
}
