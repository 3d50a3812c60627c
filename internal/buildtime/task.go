package buildtime

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Task is one named step of a pipeline.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

type taskError struct {
	task string
	err  error
}

func (e taskError) Error() string {
	return fmt.Sprintf("error during task %s: %v", e.task, e.err)
}

func (e taskError) Unwrap() error {
	return e.err
}

// RunSequence runs tasks in order and stops at the first failure.
func RunSequence(ctx context.Context, tasks []Task) error {
	for _, t := range tasks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := t.Run(ctx); err != nil {
			return taskError{task: t.Name, err: err}
		}
	}
	return nil
}

// RunParallel runs tasks concurrently. The first failure cancels the
// context passed to the others.
func RunParallel(ctx context.Context, tasks []Task) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, t := range tasks {
		g.Go(func() error {
			if err := t.Run(ctx); err != nil {
				return taskError{task: t.Name, err: err}
			}
			return nil
		})
	}
	return g.Wait()
}
