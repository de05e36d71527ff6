package kitchen

import (
	"context"
	"fmt"
)

// Walkthrough is a saturating cursor over a recipe's instructions.
type Walkthrough struct {
	instructions []string
	current      int
	narrator     Narrator
}

// NewWalkthrough starts a walkthrough at the first step.
func NewWalkthrough(instructions []string, narrator Narrator) *Walkthrough {
	return &Walkthrough{
		instructions: append([]string(nil), instructions...),
		narrator:     narrator,
	}
}

// Step returns the zero-based cursor position.
func (w *Walkthrough) Step() int { return w.current }

// Total returns the number of instructions.
func (w *Walkthrough) Total() int { return len(w.instructions) }

// Instruction returns the text at the cursor, or "" for an empty recipe.
func (w *Walkthrough) Instruction() string {
	if len(w.instructions) == 0 {
		return ""
	}
	return w.instructions[w.current]
}

// Next advances the cursor, stopping at the last step.
func (w *Walkthrough) Next() int {
	if w.current < len(w.instructions)-1 {
		w.current++
	}
	return w.current
}

// Previous moves the cursor back, stopping at the first step.
func (w *Walkthrough) Previous() int {
	if w.current > 0 {
		w.current--
	}
	return w.current
}

// ReadAloud narrates the current instruction, cancelling any narration
// still in flight.
func (w *Walkthrough) ReadAloud(ctx context.Context) error {
	if w.narrator == nil {
		return ErrNarrationUnavailable
	}
	text := w.Instruction()
	if text == "" {
		return nil
	}

	w.narrator.Cancel()
	if err := w.narrator.Speak(ctx, text); err != nil {
		return fmt.Errorf("%w: %w", ErrNarrationUnavailable, err)
	}
	return nil
}

// Stop cancels any active narration.
func (w *Walkthrough) Stop() {
	if w.narrator != nil {
		w.narrator.Cancel()
	}
}
