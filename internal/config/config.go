package config

import (
	"fmt"
	"image/color"
	"sort"
	"strings"

	"github.com/example/inkdeck/internal/theme"
)

// Gesture holds the input tunables.
type Gesture struct {
	HitTolerance   float64
	DragTolerance  float64
	LongPressMs    int
	CornerSize     float64
	MinSize        float64
	MaxSize        float64
	HistoryDepth   int
	MaxStrokeWidth float64
}

// GenAI holds the generative backend settings. The API key itself never
// lives in the config file; APIKeyEnv names the environment variable that
// carries it.
type GenAI struct {
	ChatModel  string
	ImageModel string
	APIKeyEnv  string
}

// Notify holds notification settings.
type Notify struct {
	Action bool
	Save   bool
	Copy   bool
}

// Config holds the application configuration.
type Config struct {
	Theme   string
	SaveDir string
	Gesture Gesture
	GenAI   GenAI
	Notify  Notify
	Themes  map[string]*theme.Theme
}

// New creates a new Config with defaults.
func New() *Config {
	return &Config{
		Theme: "", // empty falls back to env, then the built-in default
		Gesture: Gesture{
			HitTolerance:   20,
			DragTolerance:  10,
			LongPressMs:    3000,
			CornerSize:     120,
			MinSize:        40,
			MaxSize:        512,
			HistoryDepth:   20,
			MaxStrokeWidth: 8,
		},
		GenAI: GenAI{
			APIKeyEnv: "OPENAI_API_KEY",
		},
		Notify: Notify{},
		Themes: make(map[string]*theme.Theme),
	}
}

// String implements fmt.Stringer and returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	if c.Theme != "" {
		fmt.Fprintf(&sb, "theme = %s\n", c.Theme)
	}
	if c.SaveDir != "" {
		fmt.Fprintf(&sb, "save_dir = %s\n", c.SaveDir)
	}
	sb.WriteString("\n")

	sb.WriteString("[gesture]\n")
	fmt.Fprintf(&sb, "hit_tolerance = %v\n", c.Gesture.HitTolerance)
	fmt.Fprintf(&sb, "drag_tolerance = %v\n", c.Gesture.DragTolerance)
	fmt.Fprintf(&sb, "long_press_ms = %d\n", c.Gesture.LongPressMs)
	fmt.Fprintf(&sb, "corner_size = %v\n", c.Gesture.CornerSize)
	fmt.Fprintf(&sb, "min_size = %v\n", c.Gesture.MinSize)
	fmt.Fprintf(&sb, "max_size = %v\n", c.Gesture.MaxSize)
	fmt.Fprintf(&sb, "history_depth = %d\n", c.Gesture.HistoryDepth)
	fmt.Fprintf(&sb, "max_stroke_width = %v\n", c.Gesture.MaxStrokeWidth)
	sb.WriteString("\n")

	sb.WriteString("[genai]\n")
	if c.GenAI.ChatModel != "" {
		fmt.Fprintf(&sb, "chat_model = %s\n", c.GenAI.ChatModel)
	}
	if c.GenAI.ImageModel != "" {
		fmt.Fprintf(&sb, "image_model = %s\n", c.GenAI.ImageModel)
	}
	if c.GenAI.APIKeyEnv != "" {
		fmt.Fprintf(&sb, "api_key_env = %s\n", c.GenAI.APIKeyEnv)
	}
	sb.WriteString("\n")

	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "action = %v\n", c.Notify.Action)
	fmt.Fprintf(&sb, "save = %v\n", c.Notify.Save)
	fmt.Fprintf(&sb, "copy = %v\n", c.Notify.Copy)
	sb.WriteString("\n")

	// Sort theme names for deterministic output.
	var themeNames []string
	for name := range c.Themes {
		themeNames = append(themeNames, name)
	}
	sort.Strings(themeNames)

	for _, name := range themeNames {
		t := c.Themes[name]
		fmt.Fprintf(&sb, "[theme.%s]\n", name)
		fmt.Fprintf(&sb, "Name: %s\n", t.Name)
		fmt.Fprintf(&sb, "Background: %s\n", toHex(t.Background))
		fmt.Fprintf(&sb, "ImageBorder: %s\n", toHex(t.ImageBorder))
		fmt.Fprintf(&sb, "Ink: %s\n", toHex(t.Ink))
		fmt.Fprintf(&sb, "SelectionGlow: %s\n", toHex(t.SelectionGlow))
		fmt.Fprintf(&sb, "LassoOutline: %s\n", toHex(t.LassoOutline))
		fmt.Fprintf(&sb, "ProgressRing: %s\n", toHex(t.ProgressRing))
		fmt.Fprintf(&sb, "CornerZone: %s\n", toHex(t.CornerZone))
		fmt.Fprintf(&sb, "PlaceholderFill: %s\n", toHex(t.PlaceholderFill))
		fmt.Fprintf(&sb, "PlaceholderPulse: %s\n", toHex(t.PlaceholderPulse))
		fmt.Fprintf(&sb, "PlaceholderBorder: %s\n", toHex(t.PlaceholderBorder))
		fmt.Fprintf(&sb, "SmartFill: %s\n", toHex(t.SmartFill))
		fmt.Fprintf(&sb, "SmartRing: %s\n", toHex(t.SmartRing))
		fmt.Fprintf(&sb, "SmartText: %s\n", toHex(t.SmartText))
		sb.WriteString("\n")
	}

	return sb.String()
}

func toHex(c color.RGBA) string {
	if c.A == 255 {
		return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02X%02X%02X%02X", c.R, c.G, c.B, c.A)
}
