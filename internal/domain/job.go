package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// JobStatus tracks the lifecycle of a plan generation job.
type JobStatus string

// Define constants for job lifecycle states. Jobs move strictly forward:
// queued -> checking_profile -> checking_previous_workouts -> creating_plan -> complete | failed
const (
	JobStatusQueued           JobStatus = "queued"
	JobStatusCheckingProfile  JobStatus = "checking_profile"
	JobStatusCheckingWorkouts JobStatus = "checking_previous_workouts"
	JobStatusCreatingPlan     JobStatus = "creating_plan"
	JobStatusComplete         JobStatus = "complete"
	JobStatusFailed           JobStatus = "failed"
)

// IsTerminal reports whether the status is a final state.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusComplete || s == JobStatusFailed
}

// ScheduleEntry is one requested day of the plan: which weekday it is and
// what the training focus should be (e.g. "Push", "Legs", "Rest").
type ScheduleEntry struct {
	Day   string `bson:"day" json:"day"`
	Focus string `bson:"focus" json:"focus"`
}

// PlanRequest is the immutable request payload captured when the job is created.
type PlanRequest struct {
	StartDate time.Time       `bson:"startDate" json:"startDate"`
	Schedule  []ScheduleEntry `bson:"schedule" json:"schedule"`
}

// JobProgress is mutated after every processed schedule entry so polling
// clients can see which day is in flight. CurrentDay is 1-based and
// non-decreasing over the lifetime of a run.
type JobProgress struct {
	CurrentDay   int    `bson:"currentDay" json:"currentDay"`
	TotalDays    int    `bson:"totalDays" json:"totalDays"`
	CurrentWeek  int    `bson:"currentWeek" json:"currentWeek"`
	TotalWeeks   int    `bson:"totalWeeks" json:"totalWeeks"`
	CurrentFocus string `bson:"currentFocus,omitempty" json:"currentFocus,omitempty"`
}

// WorkoutResult summarizes which calendar dates were written by a completed job.
type WorkoutResult struct {
	SavedDays []string `bson:"savedDays" json:"savedDays"` // "YYYY-MM-DD", in schedule order
	Count     int      `bson:"count" json:"count"`
}

// JobResult is set only when a job reaches "complete".
type JobResult struct {
	Workout WorkoutResult `bson:"workout" json:"workout"`
}

// PlanGenerationJob is the durable record of one plan generation run.
// Exactly one of Result (on complete) or ErrorMessage (on failed) is
// populated once the status is terminal; never both.
type PlanGenerationJob struct {
	ID           string             `bson:"_id" json:"id"` // UUID assigned at creation
	UserID       primitive.ObjectID `bson:"userId" json:"userId"`
	Status       JobStatus          `bson:"status" json:"status"`
	Request      PlanRequest        `bson:"request" json:"request"`
	Progress     JobProgress        `bson:"progress" json:"progress"`
	Result       *JobResult         `bson:"result,omitempty" json:"result,omitempty"`
	ErrorMessage string             `bson:"errorMessage,omitempty" json:"errorMessage,omitempty"`
	ArchiveKey   string             `bson:"archiveKey,omitempty" json:"archiveKey,omitempty"` // S3 object key of the plan snapshot, set after a successful archive
	CompletedAt  *time.Time         `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}
