package planner

import (
	"encoding/json"
	"fmt"
)

// ParseError means the model's reply could not be turned into a usable day
// plan. It is fatal for the whole job: fabricating a default workout would
// be worse than a visible failure.
type ParseError struct {
	Reason string
	Raw    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse day plan: %s", e.Reason)
}

// ParseDayPlan parses the model's reply. Strict parsing of the whole body is
// tried first; when the model wrapped the object in prose or markdown, the
// last top-level {...} block is extracted and reparsed. The accepted plan is
// validated before being returned.
func ParseDayPlan(raw string) (*GeneratedDayPlan, error) {
	var plan GeneratedDayPlan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		extracted, ok := extractJSONObject(raw)
		if !ok {
			return nil, &ParseError{Reason: "response is not JSON and contains no object block", Raw: raw}
		}
		plan = GeneratedDayPlan{}
		if err := json.Unmarshal([]byte(extracted), &plan); err != nil {
			return nil, &ParseError{Reason: "extracted object block is not valid JSON: " + err.Error(), Raw: raw}
		}
	}

	if err := validateDayPlan(&plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// validateDayPlan enforces the required fields before a plan is accepted.
func validateDayPlan(plan *GeneratedDayPlan) error {
	if len(plan.Workout.Exercises) == 0 {
		return &ParseError{Reason: "workout has no exercises"}
	}
	if plan.Macros.Calories <= 0 || plan.Macros.ProteinG <= 0 {
		return &ParseError{Reason: "macro targets are missing or zero"}
	}
	return nil
}

// extractJSONObject returns the last top-level {...} block in s. Braces
// inside JSON strings are ignored so nested content cannot break the scan.
func extractJSONObject(s string) (string, bool) {
	var (
		start    = -1
		depth    = 0
		inString = false
		escaped  = false
		lastSpan string
	)
	for i, r := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					lastSpan = s[start : i+1]
				}
			}
		}
	}
	if lastSpan == "" {
		return "", false
	}
	return lastSpan, true
}
