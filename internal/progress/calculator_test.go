package progress

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
)

func sub(createdAt time.Time, active bool) Submission {
	return Submission{ID: uuid.New(), CreatedAt: createdAt, IsActive: active}
}

func TestCalculateDailySevenDaySpan(t *testing.T) {
	calc := NewCalculator(time.UTC)
	w := &Window{
		Cadence: CadenceDaily,
		StartAt: date(2025, time.March, 1, 0),
		EndAt:   date(2025, time.March, 7, 0),
	}

	// Submits on days 1, 2, 2 (duplicate) and 5.
	subs := []Submission{
		sub(date(2025, time.March, 1, 9), true),
		sub(date(2025, time.March, 2, 8), true),
		sub(date(2025, time.March, 2, 21), true),
		sub(date(2025, time.March, 5, 12), true),
	}

	snap, err := calc.Calculate(w, subs, date(2025, time.March, 6, 10))
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	if snap.TotalDays != 7 {
		t.Errorf("TotalDays = %d, want 7", snap.TotalDays)
	}
	if snap.CompletedDays != 3 {
		t.Errorf("CompletedDays = %d, want 3 (duplicate day collapses)", snap.CompletedDays)
	}
	if snap.ProgressPercentage != 43 {
		t.Errorf("ProgressPercentage = %d, want 43", snap.ProgressPercentage)
	}
	if snap.HasExistingSubmission {
		t.Error("no submission on day 6, HasExistingSubmission should be false")
	}
	if !snap.CanSubmitToday {
		t.Error("window active and day 6 open, CanSubmitToday should be true")
	}
	if snap.LatestSubmission == nil || !snap.LatestSubmission.CreatedAt.Equal(date(2025, time.March, 5, 12)) {
		t.Errorf("LatestSubmission = %+v, want the march 5 proof", snap.LatestSubmission)
	}
}

func TestCalculateDailyBlocksSecondSubmissionSameDay(t *testing.T) {
	calc := NewCalculator(time.UTC)
	w := &Window{
		Cadence: CadenceDaily,
		StartAt: date(2025, time.March, 1, 0),
		EndAt:   date(2025, time.March, 7, 0),
	}
	subs := []Submission{sub(date(2025, time.March, 3, 8), true)}

	snap, err := calc.Calculate(w, subs, date(2025, time.March, 3, 20))
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if !snap.HasExistingSubmission {
		t.Error("submission exists today, HasExistingSubmission should be true")
	}
	if snap.CanSubmitToday {
		t.Error("already submitted today, CanSubmitToday should be false")
	}
}

func TestCalculateDailyIgnoresInactiveSubmissions(t *testing.T) {
	calc := NewCalculator(time.UTC)
	w := &Window{
		Cadence: CadenceDaily,
		StartAt: date(2025, time.March, 1, 0),
		EndAt:   date(2025, time.March, 7, 0),
	}
	subs := []Submission{
		sub(date(2025, time.March, 1, 9), false),
		sub(date(2025, time.March, 2, 9), true),
	}

	snap, err := calc.Calculate(w, subs, date(2025, time.March, 2, 10))
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if snap.CompletedDays != 1 {
		t.Errorf("CompletedDays = %d, want 1 (inactive proof excluded)", snap.CompletedDays)
	}
}

func TestCalculateEndOfChallengeReplacement(t *testing.T) {
	calc := NewCalculator(time.UTC)
	w := &Window{
		Cadence: CadenceEndOfChallenge,
		StartAt: date(2025, time.March, 1, 0),
		EndAt:   date(2025, time.March, 30, 0),
	}

	// First proof was replaced: deactivated, then a fresh one created.
	replaced := sub(date(2025, time.March, 10, 9), false)
	current := sub(date(2025, time.March, 12, 9), true)

	snap, err := calc.Calculate(w, []Submission{replaced, current}, date(2025, time.March, 15, 0))
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	if snap.TotalDays != 1 {
		t.Errorf("TotalDays = %d, want 1", snap.TotalDays)
	}
	if snap.CompletedDays != 1 {
		t.Errorf("CompletedDays = %d, want 1 after replacement, never 2", snap.CompletedDays)
	}
	if snap.ProgressPercentage != 100 {
		t.Errorf("ProgressPercentage = %d, want 100", snap.ProgressPercentage)
	}
	if !snap.CanSubmitToday {
		t.Error("end-of-challenge proofs are editable while active, CanSubmitToday should stay true")
	}
	if snap.LatestSubmission == nil || snap.LatestSubmission.ID != current.ID {
		t.Error("LatestSubmission should be the replacement proof")
	}
}

func TestCalculateNotYetStarted(t *testing.T) {
	calc := NewCalculator(time.UTC)
	now := date(2025, time.February, 20, 12)

	for _, cadence := range []Cadence{CadenceDaily, CadenceEndOfChallenge} {
		w := &Window{
			Cadence: cadence,
			StartAt: date(2025, time.March, 1, 0),
			EndAt:   date(2025, time.March, 7, 0),
		}
		snap, err := calc.Calculate(w, nil, now)
		if err != nil {
			t.Fatalf("Calculate(%s): %v", cadence, err)
		}
		if snap.CanSubmitToday {
			t.Errorf("%s: challenge not started, CanSubmitToday should be false", cadence)
		}
	}
}

func TestCalculateMalformedWindowDegrades(t *testing.T) {
	calc := NewCalculator(time.UTC)
	now := date(2025, time.March, 4, 12)

	w := &Window{Cadence: CadenceDaily, StartAt: date(2025, time.March, 7, 0)}
	snap, err := calc.Calculate(w, []Submission{sub(now, true)}, now)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if snap.TotalDays != 1 {
		t.Errorf("TotalDays = %d, want clamp to 1", snap.TotalDays)
	}
	if snap.CanSubmitToday {
		t.Error("malformed window should not accept submissions")
	}
}

func TestCalculateContractViolations(t *testing.T) {
	calc := NewCalculator(time.UTC)
	now := date(2025, time.March, 4, 12)

	if _, err := calc.Calculate(nil, nil, now); !errors.Is(err, ErrNilWindow) {
		t.Errorf("nil window error = %v, want ErrNilWindow", err)
	}

	w := &Window{Cadence: "weekly", StartAt: date(2025, time.March, 1, 0), EndAt: date(2025, time.March, 7, 0)}
	if _, err := calc.Calculate(w, nil, now); !errors.Is(err, ErrUnknownCadence) {
		t.Errorf("bad cadence error = %v, want ErrUnknownCadence", err)
	}
}

func TestCalculateIdempotent(t *testing.T) {
	calc := NewCalculator(time.UTC)
	w := &Window{
		Cadence: CadenceDaily,
		StartAt: date(2025, time.March, 1, 0),
		EndAt:   date(2025, time.March, 7, 0),
	}
	subs := []Submission{
		sub(date(2025, time.March, 1, 9), true),
		sub(date(2025, time.March, 3, 9), true),
	}
	now := date(2025, time.March, 4, 10)

	first, err := calc.Calculate(w, subs, now)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	second, err := calc.Calculate(w, subs, now)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("identical input produced different snapshots:\n%+v\n%+v", first, second)
	}
}

func TestCalculateBoundsInvariant(t *testing.T) {
	calc := NewCalculator(time.UTC)
	w := &Window{
		Cadence: CadenceDaily,
		StartAt: date(2025, time.March, 1, 0),
		EndAt:   date(2025, time.March, 3, 0),
	}

	// More distinct submission days than the window has, e.g. proofs kept
	// after an admin shortened the challenge.
	var subs []Submission
	for d := 1; d <= 10; d++ {
		subs = append(subs, sub(date(2025, time.March, d, 9), true))
	}

	snap, err := calc.Calculate(w, subs, date(2025, time.March, 2, 0))
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if snap.CompletedDays > snap.TotalDays {
		t.Errorf("CompletedDays %d exceeds TotalDays %d", snap.CompletedDays, snap.TotalDays)
	}
	if snap.ProgressPercentage < 0 || snap.ProgressPercentage > 100 {
		t.Errorf("ProgressPercentage %d out of [0,100]", snap.ProgressPercentage)
	}
}

func TestCalculateDayBucketingHonorsLocation(t *testing.T) {
	// 23:30 March 1 in New York is already March 2 in UTC; the configured
	// location decides which day the proof lands on.
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	w := &Window{
		Cadence: CadenceDaily,
		StartAt: time.Date(2025, time.March, 1, 0, 0, 0, 0, ny),
		EndAt:   time.Date(2025, time.March, 7, 0, 0, 0, 0, ny),
	}
	proof := sub(time.Date(2025, time.March, 1, 23, 30, 0, 0, ny), true)
	now := time.Date(2025, time.March, 2, 1, 0, 0, 0, ny)

	nySnap, err := NewCalculator(ny).Calculate(w, []Submission{proof}, now)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if nySnap.HasExistingSubmission {
		t.Error("in New York the proof was yesterday, today should be open")
	}

	// In UTC both instants fall on march 2 (04:30 and 06:00), same bucket.
	utcSnap, err := NewCalculator(time.UTC).Calculate(w, []Submission{proof}, now)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if !utcSnap.HasExistingSubmission {
		t.Error("in UTC the proof and now share a day")
	}
}
