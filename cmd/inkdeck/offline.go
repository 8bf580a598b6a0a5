package main

import (
	"context"
	"errors"

	"github.com/example/inkdeck/internal/genai"
)

var errOffline = errors.New("no generative backend configured")

// offlineBackend keeps the editor usable without an API key. Classification
// falls back to the default plan so drops still resolve deterministically,
// while image calls fail and surface as notifications.
type offlineBackend struct{}

func (offlineBackend) Classify(context.Context, []byte) (genai.Plan, error) {
	return genai.DefaultPlan(), nil
}

func (offlineBackend) EditOptions(context.Context, []byte) ([]string, error) {
	return genai.DefaultEditOptions(), nil
}

func (offlineBackend) Generate(context.Context, string, []byte) ([]byte, error) {
	return nil, errOffline
}

func (offlineBackend) Edit(context.Context, []byte, string) ([]byte, error) {
	return nil, errOffline
}
