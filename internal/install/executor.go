package install

import (
	"fmt"
	"time"
)

// Step is one named unit of work in a phase's fixed sequence. Steps are
// not composable or reorderable at runtime; each phase hard-codes its
// order, with conditional steps included per configuration flags under
// stable names.
type Step struct {
	Name string
	Run  func(*Context) error
}

// RunSteps executes the steps in order, consulting the checkpoint store to
// skip completed ones. A step's completion record is written only after
// its body returns success; the first failure aborts the whole sequence.
func RunSteps(ctx *Context, steps []Step) error {
	start := time.Now()
	ctx.Observer.Printf("Running %d steps...", len(steps))

	for i, step := range steps {
		name := fmt.Sprintf("%s (%d/%d)", step.Name, i+1, len(steps))

		if ctx.Store.IsComplete(step.Name) {
			ctx.Observer.Printf("[%s] already complete, skipping", name)
			continue
		}

		stepStart := time.Now()
		ctx.Observer.Printf("[%s] starting", name)

		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s step interrupted: %w", step.Name, err)
		}
		if err := step.Run(ctx); err != nil {
			ctx.Observer.Errorf("[%s] failed: %v", name, err)
			return fmt.Errorf("%s step failed: %w", step.Name, err)
		}
		if err := ctx.Store.MarkComplete(step.Name, nil); err != nil {
			return err
		}

		ctx.Observer.Printf("[%s] completed in %v", name, time.Since(stepStart).Round(time.Millisecond))
	}

	ctx.Observer.Printf("All steps completed in %v", time.Since(start).Round(time.Millisecond))
	return nil
}
