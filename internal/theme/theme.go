package theme

import (
	"image/color"
)

// Theme defines the color palette for the drawing surface.
type Theme struct {
	Name string

	// Canvas
	Background  color.RGBA // paper color behind all entities
	ImageBorder color.RGBA // thin frame around placed image objects

	// Ink
	Ink           color.RGBA // stroke color
	SelectionGlow color.RGBA // halo drawn under selected strokes

	// Gestures
	LassoOutline color.RGBA // dashed freehand selection path
	ProgressRing color.RGBA // long-press countdown ring
	CornerZone   color.RGBA // tint of the drag-to-corner trigger zone

	// Pending generations
	PlaceholderFill   color.RGBA
	PlaceholderPulse  color.RGBA
	PlaceholderBorder color.RGBA

	// Smart objects
	SmartFill color.RGBA
	SmartRing color.RGBA
	SmartText color.RGBA
}

// Default returns the hardcoded light theme (fallback).
func Default() *Theme {
	return &Theme{
		Name:              "Default",
		Background:        color.RGBA{250, 250, 248, 255},
		ImageBorder:       color.RGBA{120, 120, 120, 255},
		Ink:               color.RGBA{20, 20, 25, 255},
		SelectionGlow:     color.RGBA{80, 150, 255, 255},
		LassoOutline:      color.RGBA{100, 100, 110, 255},
		ProgressRing:      color.RGBA{255, 140, 0, 255},
		CornerZone:        color.RGBA{80, 150, 255, 40},
		PlaceholderFill:   color.RGBA{235, 235, 240, 255},
		PlaceholderPulse:  color.RGBA{160, 160, 190, 255},
		PlaceholderBorder: color.RGBA{150, 150, 160, 255},
		SmartFill:         color.RGBA{255, 246, 214, 255},
		SmartRing:         color.RGBA{200, 170, 60, 255},
		SmartText:         color.RGBA{60, 50, 20, 255},
	}
}

// Dark returns the built-in dark theme.
func Dark() *Theme {
	return &Theme{
		Name:              "Dark",
		Background:        color.RGBA{28, 28, 32, 255},
		ImageBorder:       color.RGBA{90, 90, 100, 255},
		Ink:               color.RGBA{230, 230, 235, 255},
		SelectionGlow:     color.RGBA{90, 160, 255, 255},
		LassoOutline:      color.RGBA{150, 150, 160, 255},
		ProgressRing:      color.RGBA{255, 160, 40, 255},
		CornerZone:        color.RGBA{90, 160, 255, 50},
		PlaceholderFill:   color.RGBA{45, 45, 52, 255},
		PlaceholderPulse:  color.RGBA{110, 110, 140, 255},
		PlaceholderBorder: color.RGBA{90, 90, 110, 255},
		SmartFill:         color.RGBA{70, 62, 34, 255},
		SmartRing:         color.RGBA{200, 170, 60, 255},
		SmartText:         color.RGBA{240, 230, 190, 255},
	}
}

// Builtin resolves a built-in theme by name, nil when unknown.
func Builtin(name string) *Theme {
	switch name {
	case "", "default":
		return Default()
	case "dark":
		return Dark()
	}
	return nil
}
