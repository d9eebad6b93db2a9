package transfer

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name     string
		outcomes []Outcome
		move     bool
		want     Summary
	}{
		{
			name:     "empty run",
			outcomes: nil,
			want:     Summary{Action: ActionCopy},
		},
		{
			name: "all transferred",
			outcomes: []Outcome{
				{Key: "a", Status: StatusTransferred, Bytes: 10},
				{Key: "b", Status: StatusTransferred, Bytes: 32},
			},
			want: Summary{Total: 2, Transferred: 2, Bytes: 42, Action: ActionCopy},
		},
		{
			name: "mixed outcomes",
			outcomes: []Outcome{
				{Key: "a", Status: StatusTransferred, Bytes: 10},
				{Key: "b", Status: StatusSkipped},
				{Key: "c", Status: StatusFailed, Err: errors.New("fetch a.txt: boom")},
				{Key: "d", Status: StatusTransferred, Bytes: 5},
			},
			want: Summary{Total: 4, Transferred: 2, Skipped: 1, Failed: 1, Bytes: 15, Action: ActionCopy},
		},
		{
			name: "move run",
			outcomes: []Outcome{
				{Key: "a", Status: StatusTransferred, Bytes: 7},
			},
			move: true,
			want: Summary{Total: 1, Transferred: 1, Bytes: 7, Action: ActionMove},
		},
		{
			name: "failed outcomes carry no bytes",
			outcomes: []Outcome{
				{Key: "a", Status: StatusFailed, Err: errors.New("boom")},
				{Key: "b", Status: StatusSkipped},
			},
			want: Summary{Total: 2, Skipped: 1, Failed: 1, Action: ActionCopy},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.outcomes, tt.move, 0)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Summarize() = %+v, want %+v", got, tt.want)
			}
			if got.Transferred+got.Skipped+got.Failed != got.Total {
				t.Errorf("counters %d+%d+%d do not sum to total %d",
					got.Transferred, got.Skipped, got.Failed, got.Total)
			}
		})
	}
}

func TestSummarizeOrderIndependent(t *testing.T) {
	outcomes := []Outcome{
		{Key: "a", Status: StatusTransferred, Bytes: 3},
		{Key: "b", Status: StatusFailed},
		{Key: "c", Status: StatusSkipped},
		{Key: "d", Status: StatusTransferred, Bytes: 9},
	}

	reversed := make([]Outcome, len(outcomes))
	for i, o := range outcomes {
		reversed[len(outcomes)-1-i] = o
	}

	forward := Summarize(outcomes, false, time.Second)
	backward := Summarize(reversed, false, time.Second)

	if !reflect.DeepEqual(forward, backward) {
		t.Errorf("Summarize() depends on outcome order: %+v vs %+v", forward, backward)
	}
}

func TestSummarizeKeepsDuration(t *testing.T) {
	s := Summarize(nil, false, 1500*time.Millisecond)
	if s.Duration != 1500*time.Millisecond {
		t.Errorf("Duration = %v, want 1.5s", s.Duration)
	}
}
