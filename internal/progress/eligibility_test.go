package progress

import (
	"errors"
	"testing"
)

func TestEvaluateAnyParticipation(t *testing.T) {
	policy := EligibilityPolicy{Mode: ModeAnyParticipation}

	cases := []struct {
		name      string
		completed int
		want      bool
	}{
		{"no submissions", 0, false},
		{"single check-in", 1, true},
		{"partial completion", 3, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := policy.Evaluate(&Snapshot{TotalDays: 7, CompletedDays: tc.completed})
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if got != tc.want {
				t.Errorf("Evaluate(completed=%d) = %v, want %v", tc.completed, got, tc.want)
			}
		})
	}
}

func TestEvaluateThresholdMet(t *testing.T) {
	policy := EligibilityPolicy{Mode: ModeThresholdMet, RequiredCheckIns: 5}

	got, err := policy.Evaluate(&Snapshot{TotalDays: 7, CompletedDays: 4})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got {
		t.Error("4 of 5 required check-ins should not be eligible")
	}

	got, err = policy.Evaluate(&Snapshot{TotalDays: 7, CompletedDays: 5})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !got {
		t.Error("5 of 5 required check-ins should be eligible")
	}
}

func TestEvaluateThresholdDefaultsToTotalDays(t *testing.T) {
	policy := EligibilityPolicy{Mode: ModeThresholdMet}

	got, err := policy.Evaluate(&Snapshot{TotalDays: 7, CompletedDays: 6})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got {
		t.Error("unset threshold means full completion; 6/7 is not eligible")
	}

	// End-of-challenge snapshots have TotalDays == 1, so one submission
	// satisfies the default threshold.
	got, err = policy.Evaluate(&Snapshot{TotalDays: 1, CompletedDays: 1})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !got {
		t.Error("single end-of-challenge submission should satisfy the default threshold")
	}
}

func TestEvaluateNilSnapshotAndBadMode(t *testing.T) {
	ok, err := EligibilityPolicy{Mode: ModeAnyParticipation}.Evaluate(nil)
	if err != nil || ok {
		t.Errorf("nil snapshot = (%v, %v), want (false, nil)", ok, err)
	}

	_, err = EligibilityPolicy{Mode: "random_pick"}.Evaluate(&Snapshot{CompletedDays: 3})
	if !errors.Is(err, ErrUnknownEligibilityMode) {
		t.Errorf("bad mode error = %v, want ErrUnknownEligibilityMode", err)
	}
}
