package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanType distinguishes the kind of personalized plan stored for a date.
// Only workout plans are generated by this service today.
const PlanTypeWorkout = "workout"

// PlannedExercise is one prescribed exercise within a day's workout.
// Reps and Rest are free text ("8-12", "60s") because prescriptions are
// not always single numbers.
type PlannedExercise struct {
	Name   string `bson:"name" json:"name"`
	Sets   int    `bson:"sets" json:"sets"`
	Reps   string `bson:"reps" json:"reps"`
	Rest   string `bson:"rest" json:"rest"`
	Weight string `bson:"weight,omitempty" json:"weight,omitempty"`
}

// CardioBlock is an optional steady-state or interval cardio addition.
type CardioBlock struct {
	Type            string `bson:"type" json:"type"`
	DurationMinutes int    `bson:"durationMinutes" json:"durationMinutes"`
	Intensity       string `bson:"intensity,omitempty" json:"intensity,omitempty"`
}

// WorkoutContent is the structured workout stored for one plan day.
// Date, day name and macros are deliberately NOT part of this blob — they
// are hoisted to dedicated fields on PersonalizedPlanDay.
type WorkoutContent struct {
	Style           string            `bson:"style,omitempty" json:"style,omitempty"`
	DurationMinutes int               `bson:"durationMinutes,omitempty" json:"durationMinutes,omitempty"`
	Warmup          string            `bson:"warmup,omitempty" json:"warmup,omitempty"`
	Cooldown        string            `bson:"cooldown,omitempty" json:"cooldown,omitempty"`
	Exercises       []PlannedExercise `bson:"exercises" json:"exercises"`
	Cardio          *CardioBlock      `bson:"cardio,omitempty" json:"cardio,omitempty"`
}

// NutritionGuidance carries macro targets for the day. Macro numbers only,
// no specific foods or meals — meal planning is a separate subsystem.
type NutritionGuidance struct {
	Calories int    `bson:"calories" json:"calories"`
	ProteinG int    `bson:"proteinG" json:"proteinG"`
	CarbsG   int    `bson:"carbsG" json:"carbsG"`
	FatG     int    `bson:"fatG" json:"fatG"`
	Notes    string `bson:"notes,omitempty" json:"notes,omitempty"`
}

// PersonalizedPlanDay is one generated day of a user's plan.
// Uniqueness is enforced on (userId, date, planType); regeneration of a
// date upserts on that key, so plan rows never duplicate. Plan days outlive
// the job that generated them.
type PersonalizedPlanDay struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId"`
	Date        string             `bson:"date" json:"date"` // "YYYY-MM-DD"
	PlanType    string             `bson:"planType" json:"planType"`
	Focus       string             `bson:"focus" json:"focus"`
	Workout     WorkoutContent     `bson:"workout" json:"workout"`
	Nutrition   NutritionGuidance  `bson:"nutrition" json:"nutrition"`
	IsActive    bool               `bson:"isActive" json:"isActive"`
	IsCompleted bool               `bson:"isCompleted" json:"isCompleted"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
