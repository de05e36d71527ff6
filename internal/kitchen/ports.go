// Package kitchen implements the application state machine that sequences
// ingredient identification, recipe generation, recipe selection, the cooking
// walkthrough and the shopping list.
package kitchen

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by transitions.
var (
	ErrBusy                 = errors.New("another request is already in progress")
	ErrRecipeNotFound       = errors.New("recipe not found in current batch")
	ErrNotCooking           = errors.New("not in cooking view")
	ErrInvalidView          = errors.New("invalid view")
	ErrNarrationUnavailable = errors.New("narration unavailable")
)

// User-visible messages.
const (
	MsgAnalyzing      = "Analyzing your ingredients..."
	MsgGenerating     = "Generating delicious recipes..."
	MsgUpdating       = "Updating recipes with new filters..."
	MsgNoIngredients  = "Could not identify any ingredients. Please try another photo."
	MsgSubmitFailed   = "An error occurred. Please try again."
	MsgRefetchFailed  = "Failed to update recipes. Please try again."
	MsgNarrationNotOK = "Sorry, text-to-speech is not available right now."
)

// Narrator reads text aloud. Speak must cancel any unfinished narration
// before starting the new one. Cancel is a no-op when nothing is playing.
type Narrator interface {
	Speak(ctx context.Context, text string) error
	Cancel()
}

// View is the single active top-level screen.
type View string

const (
	ViewUpload   View = "upload"
	ViewRecipes  View = "recipes"
	ViewCooking  View = "cooking"
	ViewShopping View = "shopping"
)

// ParseView matches s case-insensitively against the known views.
func ParseView(s string) (View, error) {
	switch v := View(strings.ToLower(strings.TrimSpace(s))); v {
	case ViewUpload, ViewRecipes, ViewCooking, ViewShopping:
		return v, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidView, s)
	}
}
