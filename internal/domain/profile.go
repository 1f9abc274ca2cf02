package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FitnessProfile holds everything the coach needs to know about how a user
// trains. Maintained by the onboarding/profile flows; read-only here.
type FitnessProfile struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID           primitive.ObjectID `bson:"userId" json:"userId"`
	FitnessLevel     string             `bson:"fitnessLevel" json:"fitnessLevel"` // e.g. "beginner", "intermediate", "advanced"
	Goals            []string           `bson:"goals,omitempty" json:"goals,omitempty"`
	Equipment        []string           `bson:"equipment,omitempty" json:"equipment,omitempty"`
	SessionMinutes   int                `bson:"sessionMinutes,omitempty" json:"sessionMinutes,omitempty"`
	StrengthLevels   map[string]string  `bson:"strengthLevels,omitempty" json:"strengthLevels,omitempty"` // exercise name -> recorded working weight/level
	LimitationsNotes string             `bson:"limitationsNotes,omitempty" json:"limitationsNotes,omitempty"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// NutritionGoals holds the user's configured nutrition targets.
// A user may not have set any; callers apply defaults.
type NutritionGoals struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        primitive.ObjectID `bson:"userId" json:"userId"`
	DailyCalories int                `bson:"dailyCalories,omitempty" json:"dailyCalories,omitempty"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// SessionWorkout is one focus block recorded inside a completed session,
// e.g. the "Push" portion of a session with its performed exercises.
type SessionWorkout struct {
	Focus     string            `bson:"focus" json:"focus"`
	Exercises []PlannedExercise `bson:"exercises,omitempty" json:"exercises,omitempty"`
	Notes     string            `bson:"notes,omitempty" json:"notes,omitempty"`
}

// SessionContent is the recorded content blob of a completed session.
type SessionContent struct {
	Workouts []SessionWorkout `bson:"workouts,omitempty" json:"workouts,omitempty"`
}

// WorkoutSession is one completed training session from the user's history.
type WorkoutSession struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId"`
	Completed   bool               `bson:"completed" json:"completed"`
	CompletedAt time.Time          `bson:"completedAt" json:"completedAt"`
	Content     SessionContent     `bson:"content" json:"content"`
}

// FindWorkoutByFocus returns the session's workout entry matching the given
// focus (case-insensitive), or nil when the session has none.
func (s *WorkoutSession) FindWorkoutByFocus(focus string) *SessionWorkout {
	for i := range s.Content.Workouts {
		if strings.EqualFold(s.Content.Workouts[i].Focus, focus) {
			return &s.Content.Workouts[i]
		}
	}
	return nil
}
