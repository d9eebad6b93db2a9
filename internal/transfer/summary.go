package transfer

import "time"

// Summarize folds a run's outcomes into the final counters. The fold is
// order-independent, so outcomes may arrive from the pool in any order.
func Summarize(outcomes []Outcome, move bool, duration time.Duration) Summary {
	action := ActionCopy
	if move {
		action = ActionMove
	}

	s := Summary{
		Total:    len(outcomes),
		Action:   action,
		Duration: duration,
	}
	for _, o := range outcomes {
		switch o.Status {
		case StatusTransferred:
			s.Transferred++
			s.Bytes += o.Bytes
		case StatusSkipped:
			s.Skipped++
		case StatusFailed:
			s.Failed++
		}
	}
	return s
}
