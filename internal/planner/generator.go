package planner

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"

	"alcyxob/ai-coach/internal/domain"
	"alcyxob/ai-coach/internal/llm"
)

//go:embed system_prompt.md
var systemPrompt string

//go:embed day_prompt.md
var dayPromptTemplate string

// defaultDailyCalories is used when the user never set nutrition goals.
const defaultDailyCalories = 2000

// GenerateDayInput carries everything the generator needs for one day.
// PreviousWorkout is the most recent matching-focus session content, or nil
// when the user has no history for this focus.
type GenerateDayInput struct {
	Profile         *domain.FitnessProfile
	User            *domain.User
	Goals           *domain.NutritionGoals // may be nil
	DayName         string
	Focus           string
	StartDate       time.Time
	DayIndex        int
	PreviousWorkout *domain.SessionWorkout
}

// DayGenerator produces one day of a personalized plan per LLM call.
// It is a pure function of its inputs plus the chat call; persistence is
// the orchestrator's job.
type DayGenerator struct {
	chat llm.ChatCompleter
}

// NewDayGenerator creates a day generator backed by the given chat client.
func NewDayGenerator(chat llm.ChatCompleter) *DayGenerator {
	return &DayGenerator{chat: chat}
}

// GenerateDayPlan builds the prompts, makes one chat-completion call, and
// returns the parsed, validated plan. All errors (transport, empty reply,
// unparseable reply) are fatal for the caller's job.
func (g *DayGenerator) GenerateDayPlan(ctx context.Context, in GenerateDayInput) (*GeneratedDayPlan, error) {
	userPrompt, err := buildDayPrompt(in)
	if err != nil {
		return nil, fmt.Errorf("failed to build day prompt: %w", err)
	}

	raw, err := g.chat.CompleteJSON(ctx, []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt},
	})
	if err != nil {
		return nil, fmt.Errorf("day generation call failed: %w", err)
	}

	return ParseDayPlan(raw)
}

// dayPromptData is the template payload for day_prompt.md.
type dayPromptData struct {
	PlanDate        string
	DayName         string
	Focus           string
	HeightCm        float64
	WeightKg        float64
	FitnessLevel    string
	Goals           []string
	Equipment       []string
	SessionMinutes  int
	DailyCalories   int
	StrengthLevels  map[string]string
	Limitations     string
	PreviousWorkout string
}

var dayPrompt = template.Must(
	template.New("day").Funcs(template.FuncMap{"join": strings.Join}).Parse(dayPromptTemplate),
)

func buildDayPrompt(in GenerateDayInput) (string, error) {
	data := dayPromptData{
		PlanDate:       PlanDate(in.StartDate, in.DayIndex),
		DayName:        in.DayName,
		Focus:          in.Focus,
		HeightCm:       in.User.HeightCm,
		WeightKg:       in.User.CurrentWeight,
		FitnessLevel:   in.Profile.FitnessLevel,
		Goals:          in.Profile.Goals,
		Equipment:      in.Profile.Equipment,
		SessionMinutes: in.Profile.SessionMinutes,
		DailyCalories:  defaultDailyCalories,
		StrengthLevels: in.Profile.StrengthLevels,
		Limitations:    in.Profile.LimitationsNotes,
	}
	if in.Goals != nil && in.Goals.DailyCalories > 0 {
		data.DailyCalories = in.Goals.DailyCalories
	}
	if data.SessionMinutes == 0 {
		data.SessionMinutes = 60
	}
	if in.PreviousWorkout != nil {
		// The prior session is embedded verbatim so the model can overload
		// against the exact weights and reps the user actually did.
		content, err := json.MarshalIndent(in.PreviousWorkout, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to serialize previous workout: %w", err)
		}
		data.PreviousWorkout = string(content)
	}

	var buf bytes.Buffer
	if err := dayPrompt.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
