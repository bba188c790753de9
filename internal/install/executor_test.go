package install

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archon-install/archon/internal/checkpoint"
	"github.com/archon-install/archon/internal/config"
	"github.com/archon-install/archon/internal/platform/run"
	"github.com/archon-install/archon/internal/ui/prompt"
)

func newTestContext(t *testing.T, cfg *config.Config) (*Context, *run.Fake, *prompt.Stub) {
	t.Helper()
	store := checkpoint.New(filepath.Join(t.TempDir(), "archon-test.state"))
	require.NoError(t, store.Load())
	fake := run.NewFake()
	stub := &prompt.Stub{ConfirmAnswer: true}
	return NewContext(context.Background(), cfg, store, fake, stub, NopObserver{}), fake, stub
}

func namedStep(name string, count *int) Step {
	return Step{Name: name, Run: func(*Context) error {
		*count++
		return nil
	}}
}

func TestRunStepsExecutesInOrder(t *testing.T) {
	ctx, _, _ := newTestContext(t, &config.Config{})

	var order []string
	steps := []Step{
		{Name: "first", Run: func(*Context) error { order = append(order, "first"); return nil }},
		{Name: "second", Run: func(*Context) error { order = append(order, "second"); return nil }},
		{Name: "third", Run: func(*Context) error { order = append(order, "third"); return nil }},
	}

	require.NoError(t, RunSteps(ctx, steps))
	assert.Equal(t, []string{"first", "second", "third"}, order)
	for _, s := range steps {
		assert.True(t, ctx.Store.IsComplete(s.Name))
	}
}

func TestRunStepsSkipsCompleted(t *testing.T) {
	ctx, _, _ := newTestContext(t, &config.Config{})
	require.NoError(t, ctx.Store.MarkComplete("first", nil))

	first, second := 0, 0
	steps := []Step{namedStep("first", &first), namedStep("second", &second)}

	require.NoError(t, RunSteps(ctx, steps))
	assert.Equal(t, 0, first)
	assert.Equal(t, 1, second)
}

func TestRunStepsAbortsOnFailure(t *testing.T) {
	ctx, _, _ := newTestContext(t, &config.Config{})

	after := 0
	sentinel := errors.New("step exploded")
	steps := []Step{
		{Name: "breaks", Run: func(*Context) error { return sentinel }},
		namedStep("never-reached", &after),
	}

	err := RunSteps(ctx, steps)
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 0, after, "steps after a failure must not run")
	assert.False(t, ctx.Store.IsComplete("breaks"), "a failed step must stay incomplete")
}

func TestRunStepsSecondRunIsNoOp(t *testing.T) {
	ctx, _, _ := newTestContext(t, &config.Config{})

	count := 0
	steps := []Step{namedStep("only", &count)}

	require.NoError(t, RunSteps(ctx, steps))
	require.NoError(t, RunSteps(ctx, steps))
	assert.Equal(t, 1, count, "a completed sequence re-run must perform no work")
}

func TestRunStepsStopsWhenContextCancelled(t *testing.T) {
	cctx, cancel := context.WithCancel(context.Background())
	cancel()
	ctx, _, _ := newTestContext(t, &config.Config{})
	ctx.Context = cctx

	count := 0
	err := RunSteps(ctx, []Step{namedStep("interrupted", &count)})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, count)
}
