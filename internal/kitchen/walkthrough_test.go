package kitchen

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockNarrator struct {
	mock.Mock
}

func (m *mockNarrator) Speak(ctx context.Context, text string) error {
	args := m.Called(ctx, text)
	return args.Error(0)
}

func (m *mockNarrator) Cancel() {
	m.Called()
}

func TestWalkthrough_Cursor(t *testing.T) {
	w := NewWalkthrough([]string{"Chop", "Fry", "Serve"}, nil)

	assert.Equal(t, 0, w.Step())
	assert.Equal(t, 3, w.Total())
	assert.Equal(t, "Chop", w.Instruction())

	assert.Equal(t, 0, w.Previous(), "previous saturates at the first step")
	assert.Equal(t, 1, w.Next())
	assert.Equal(t, 2, w.Next())
	assert.Equal(t, 2, w.Next(), "next saturates at the last step")
	assert.Equal(t, "Serve", w.Instruction())
	assert.Equal(t, 1, w.Previous())
}

func TestWalkthrough_Empty(t *testing.T) {
	w := NewWalkthrough(nil, nil)

	assert.Equal(t, 0, w.Total())
	assert.Equal(t, "", w.Instruction())
	assert.Equal(t, 0, w.Next())
	assert.Equal(t, 0, w.Previous())
}

func TestWalkthrough_ReadAloud(t *testing.T) {
	ctx := context.Background()

	t.Run("cancels then speaks current step", func(t *testing.T) {
		n := new(mockNarrator)
		n.On("Cancel").Return()
		n.On("Speak", ctx, "Fry").Return(nil)

		w := NewWalkthrough([]string{"Chop", "Fry"}, n)
		w.Next()

		assert.NoError(t, w.ReadAloud(ctx))
		n.AssertExpectations(t)
	})

	t.Run("wraps narrator failure", func(t *testing.T) {
		n := new(mockNarrator)
		n.On("Cancel").Return()
		n.On("Speak", ctx, "Chop").Return(errors.New("no listeners"))

		w := NewWalkthrough([]string{"Chop"}, n)

		err := w.ReadAloud(ctx)
		assert.ErrorIs(t, err, ErrNarrationUnavailable)
		assert.Equal(t, 0, w.Step())
	})

	t.Run("no narrator", func(t *testing.T) {
		w := NewWalkthrough([]string{"Chop"}, nil)
		assert.ErrorIs(t, w.ReadAloud(ctx), ErrNarrationUnavailable)
	})

	t.Run("empty recipe is a no-op", func(t *testing.T) {
		n := new(mockNarrator)
		w := NewWalkthrough(nil, n)

		assert.NoError(t, w.ReadAloud(ctx))
		n.AssertNotCalled(t, "Speak", mock.Anything, mock.Anything)
	})
}

func TestWalkthrough_Stop(t *testing.T) {
	n := new(mockNarrator)
	n.On("Cancel").Return()

	w := NewWalkthrough([]string{"Chop"}, n)
	w.Stop()

	n.AssertNumberOfCalls(t, "Cancel", 1)
	NewWalkthrough(nil, nil).Stop()
}
