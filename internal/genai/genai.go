// Package genai defines the interfaces the editor core consumes from the
// generative backend, together with the tolerant parsing of its structured
// responses. The backend itself is an external collaborator; retry, quota
// and auth policy live outside this module.
package genai

import (
	"context"
	"encoding/json"
	"strings"
)

// PlanType names the outcome the classification step resolved.
type PlanType string

const (
	// PlanGenerate produces a brand-new image from the sketch.
	PlanGenerate PlanType = "generate"
	// PlanEdit mutates an existing image in place.
	PlanEdit PlanType = "edit"
	// PlanExecute performs a direct scene mutation instead of calling the
	// image endpoint.
	PlanExecute PlanType = "execute"
	// PlanSmartify substitutes the sketch with an iconic smart object.
	PlanSmartify PlanType = "smartify"
)

// Plan is the unified classification result. Depending on which contract the
// backend speaks, either the prompt fields or the smart-object fields are
// populated.
type Plan struct {
	Type        PlanType
	Prompt      string
	Description string
	Emoji       string
	Behavior    string
	Action      string
}

// Planner classifies a rasterized selection into a Plan and, for mixed
// groups, proposes short candidate edit instructions.
type Planner interface {
	Classify(ctx context.Context, referencePNG []byte) (Plan, error)
	EditOptions(ctx context.Context, referencePNG []byte) ([]string, error)
}

// Painter produces image bytes. Generate accepts an optional reference
// image; Edit honors exactly one source image.
type Painter interface {
	Generate(ctx context.Context, prompt string, referencePNG []byte) ([]byte, error)
	Edit(ctx context.Context, sourcePNG []byte, prompt string) ([]byte, error)
}

// DefaultPlan is the hardcoded fallback used whenever the backend's response
// cannot be parsed. Parse failures never propagate as errors.
func DefaultPlan() Plan {
	return Plan{
		Type:        PlanGenerate,
		Prompt:      "a clean, colorful illustration of this rough sketch",
		Description: "generated from sketch",
	}
}

// DefaultEditOptions is the fallback menu for the two-step edit flow.
func DefaultEditOptions() []string {
	return []string{"apply the sketched change", "remove the sketched marks"}
}

// ParsePlan decodes the classification response. Two contract variants are
// accepted: {actionType, imagePrompt, description} and
// {emoji, behaviorDescription, action}. Anything unparseable yields
// DefaultPlan.
func ParsePlan(raw string) Plan {
	payload := stripFences(raw)

	var wire struct {
		ActionType          string `json:"actionType"`
		ImagePrompt         string `json:"imagePrompt"`
		Description         string `json:"description"`
		Emoji               string `json:"emoji"`
		BehaviorDescription string `json:"behaviorDescription"`
		Behavior            string `json:"behavior"`
		Action              string `json:"action"`
	}
	if err := json.Unmarshal([]byte(payload), &wire); err != nil {
		return DefaultPlan()
	}

	if wire.Emoji != "" {
		behavior := wire.BehaviorDescription
		if behavior == "" {
			behavior = wire.Behavior
		}
		return Plan{
			Type:     PlanSmartify,
			Emoji:    firstGlyph(wire.Emoji),
			Behavior: behavior,
			Action:   wire.Action,
		}
	}

	switch wire.ActionType {
	case "generate":
		if wire.ImagePrompt == "" {
			return DefaultPlan()
		}
		return Plan{Type: PlanGenerate, Prompt: wire.ImagePrompt, Description: wire.Description}
	case "edit", "update":
		if wire.ImagePrompt == "" {
			return DefaultPlan()
		}
		return Plan{Type: PlanEdit, Prompt: wire.ImagePrompt, Description: wire.Description}
	case "execute":
		return Plan{Type: PlanExecute, Action: wire.Action, Description: wire.Description}
	}
	return DefaultPlan()
}

// ParseEditOptions decodes the candidate-instruction menu: either a bare
// JSON array of strings or {"options": [...]}. The result is trimmed to at
// most four non-empty entries; unparseable input yields the default menu.
func ParseEditOptions(raw string) []string {
	payload := stripFences(raw)

	var list []string
	if err := json.Unmarshal([]byte(payload), &list); err != nil {
		var wrapped struct {
			Options []string `json:"options"`
		}
		if err := json.Unmarshal([]byte(payload), &wrapped); err != nil {
			return DefaultEditOptions()
		}
		list = wrapped.Options
	}

	var out []string
	for _, s := range list {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
		if len(out) == 4 {
			break
		}
	}
	if len(out) < 2 {
		return DefaultEditOptions()
	}
	return out
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}

func firstGlyph(s string) string {
	for _, r := range s {
		return string(r)
	}
	return s
}
