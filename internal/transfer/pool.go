package transfer

import (
	"context"
	"fmt"
	"sync"

	"github.com/yuya-takeyama/s3-to-b2/internal/store"
)

// Run executes the transfer protocol for every object, keeping at most
// the policy's worker count in flight. Each object yields exactly one
// outcome, stored at its input position so callers can correlate.
func (t *Transferer) Run(ctx context.Context, objects []store.Object) []Outcome {
	workers := t.policy.Workers
	if workers < 1 {
		workers = 1
	}

	results := make([]Outcome, len(objects))

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, obj := range objects {
		wg.Add(1)
		go func(idx int, o store.Object) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			results[idx] = t.runProtected(ctx, o)
		}(i, obj)
	}

	wg.Wait()
	return results
}

// runProtected converts a panicking protocol run into a failed outcome
// so one misbehaving object cannot take down the batch.
func (t *Transferer) runProtected(ctx context.Context, obj store.Object) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("transfer aborted: %v", r)
			t.observer.Failed(obj.Key, err)
			outcome = Outcome{Key: obj.Key, Status: StatusFailed, Err: err}
		}
	}()
	return t.transferOne(ctx, obj)
}
