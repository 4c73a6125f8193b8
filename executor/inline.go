package executor

import "context"

// Inline runs every task synchronously on the submitting goroutine.
type Inline struct{}

// Submit runs task before returning. It fails only if ctx is already done.
func (Inline) Submit(ctx context.Context, task func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	task()
	return nil
}
