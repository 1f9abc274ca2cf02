package planner

import (
	"time"

	"alcyxob/ai-coach/internal/domain"
)

// WorkoutDay is the workout object the model returns for one day. Date,
// DayName and the macro block are separated out again before persistence.
type WorkoutDay struct {
	Date            string                   `json:"date"` // "YYYY-MM-DD"
	DayName         string                   `json:"dayName"`
	Focus           string                   `json:"focus"`
	Style           string                   `json:"style,omitempty"`
	DurationMinutes int                      `json:"durationMinutes,omitempty"`
	Warmup          string                   `json:"warmup,omitempty"`
	Cooldown        string                   `json:"cooldown,omitempty"`
	Exercises       []domain.PlannedExercise `json:"exercises"`
	Cardio          *domain.CardioBlock      `json:"cardio,omitempty"`
}

// MacroTargets is the macro block the model returns for one day.
type MacroTargets struct {
	Calories int    `json:"calories"`
	ProteinG int    `json:"protein_g"`
	CarbsG   int    `json:"carbs_g"`
	FatG     int    `json:"fat_g"`
	Notes    string `json:"notes,omitempty"`
}

// GeneratedDayPlan is the full parsed result of one day-generation call.
type GeneratedDayPlan struct {
	Workout WorkoutDay   `json:"workout"`
	Macros  MacroTargets `json:"macros"`
}

// Nutrition converts the macro block into the persisted guidance shape.
func (m MacroTargets) Nutrition() domain.NutritionGuidance {
	return domain.NutritionGuidance{
		Calories: m.Calories,
		ProteinG: m.ProteinG,
		CarbsG:   m.CarbsG,
		FatG:     m.FatG,
		Notes:    m.Notes,
	}
}

// Content strips date, day name and macros out of the workout object,
// leaving only what belongs in the plan row's workout blob.
func (w WorkoutDay) Content() domain.WorkoutContent {
	return domain.WorkoutContent{
		Style:           w.Style,
		DurationMinutes: w.DurationMinutes,
		Warmup:          w.Warmup,
		Cooldown:        w.Cooldown,
		Exercises:       w.Exercises,
		Cardio:          w.Cardio,
	}
}

// PlanDate computes the calendar date for a schedule index. AddDate rolls
// month and year boundaries correctly, leap days included.
func PlanDate(startDate time.Time, dayIndex int) string {
	return startDate.AddDate(0, 0, dayIndex).Format("2006-01-02")
}
