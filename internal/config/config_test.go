package config

import (
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	input := `
theme = my_custom_theme
save_dir = /tmp/sketches

[gesture]
hit_tolerance = 25
long_press_ms = 2500
max_size = 640

[genai]
chat_model = gpt-4o
api_key_env = INKDECK_API_KEY

[notify]
action = true
save = false
copy = true

[theme.my_custom_theme]
Background = #111111
Ink = #FFFFFF
`
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Theme != "my_custom_theme" {
		t.Errorf("Expected theme 'my_custom_theme', got '%s'", cfg.Theme)
	}
	if cfg.SaveDir != "/tmp/sketches" {
		t.Errorf("Expected save_dir '/tmp/sketches', got '%s'", cfg.SaveDir)
	}

	if cfg.Gesture.HitTolerance != 25 {
		t.Errorf("hit_tolerance = %v", cfg.Gesture.HitTolerance)
	}
	if cfg.Gesture.LongPressMs != 2500 {
		t.Errorf("long_press_ms = %d", cfg.Gesture.LongPressMs)
	}
	if cfg.Gesture.MaxSize != 640 {
		t.Errorf("max_size = %v", cfg.Gesture.MaxSize)
	}
	// Omitted keys keep their defaults.
	if cfg.Gesture.DragTolerance != 10 || cfg.Gesture.HistoryDepth != 20 {
		t.Errorf("defaults clobbered: %+v", cfg.Gesture)
	}

	if cfg.GenAI.ChatModel != "gpt-4o" {
		t.Errorf("chat_model = %q", cfg.GenAI.ChatModel)
	}
	if cfg.GenAI.APIKeyEnv != "INKDECK_API_KEY" {
		t.Errorf("api_key_env = %q", cfg.GenAI.APIKeyEnv)
	}

	if !cfg.Notify.Action || cfg.Notify.Save || !cfg.Notify.Copy {
		t.Errorf("notify = %+v", cfg.Notify)
	}

	th, ok := cfg.Themes["my_custom_theme"]
	if !ok {
		t.Fatal("Expected theme 'my_custom_theme' to be loaded")
	}
	if th.Background.R != 0x11 || th.Background.G != 0x11 || th.Background.B != 0x11 {
		t.Errorf("Unexpected Background color: %+v", th.Background)
	}
	if th.Ink.R != 0xFF {
		t.Errorf("Unexpected Ink color: %+v", th.Ink)
	}
}

func TestCircular(t *testing.T) {
	input := `theme = dark
save_dir = /home/user/sketches

[gesture]
hit_tolerance = 30
drag_tolerance = 12
long_press_ms = 2000
corner_size = 100
min_size = 50
max_size = 600
history_depth = 10
max_stroke_width = 6

[genai]
chat_model = gpt-4o-mini
image_model = dall-e-3
api_key_env = OPENAI_API_KEY

[notify]
action = true
save = true
copy = false
`
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	out := cfg.String()
	cfg2, err := Parse(strings.NewReader(out))
	if err != nil {
		t.Fatalf("Parse of String output failed: %v", err)
	}

	if cfg2.Theme != cfg.Theme || cfg2.SaveDir != cfg.SaveDir {
		t.Errorf("root fields lost in round trip: %+v vs %+v", cfg2, cfg)
	}
	if cfg2.Gesture != cfg.Gesture {
		t.Errorf("gesture lost in round trip:\n%+v\n%+v", cfg2.Gesture, cfg.Gesture)
	}
	if cfg2.GenAI != cfg.GenAI {
		t.Errorf("genai lost in round trip:\n%+v\n%+v", cfg2.GenAI, cfg.GenAI)
	}
	if cfg2.Notify != cfg.Notify {
		t.Errorf("notify lost in round trip:\n%+v\n%+v", cfg2.Notify, cfg.Notify)
	}
}

func TestParseBadValues(t *testing.T) {
	if _, err := Parse(strings.NewReader("[gesture]\nhit_tolerance = wide\n")); err == nil {
		t.Error("bad number accepted")
	}
	if _, err := Parse(strings.NewReader("[notify]\naction = sometimes\n")); err == nil {
		t.Error("bad boolean accepted")
	}
	if _, err := Parse(strings.NewReader("[theme.x]\nInk = notacolor\n")); err == nil {
		t.Error("bad color accepted")
	}
}

func TestParseIgnoresUnknownKeysAndComments(t *testing.T) {
	input := `
# a comment
// another comment
mystery = value

[gesture]
wobble = 3
`
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.Gesture.HitTolerance != 20 {
		t.Errorf("defaults disturbed: %+v", cfg.Gesture)
	}
}
