package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/tavonga/careconnect/internal/fault"
)

func TestOverlaps(t *testing.T) {
	at := func(hhmm string) time.Time {
		tm, err := time.Parse("15:04", hhmm)
		if err != nil {
			t.Fatalf("parse %q: %v", hhmm, err)
		}
		return time.Date(2026, 9, 1, tm.Hour(), tm.Minute(), 0, 0, time.UTC)
	}

	tests := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd string
		want                       bool
	}{
		{"identical windows", "09:00", "10:00", "09:00", "10:00", true},
		{"partial overlap", "09:00", "10:00", "09:30", "10:30", true},
		{"contained window", "09:00", "11:00", "09:30", "10:00", true},
		{"touching end-to-start does not conflict", "09:00", "10:00", "10:00", "11:00", false},
		{"touching start-to-end does not conflict", "10:00", "11:00", "09:00", "10:00", false},
		{"disjoint", "09:00", "10:00", "14:00", "15:00", false},
		{"one minute overlap", "09:00", "10:01", "10:00", "11:00", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := overlaps(at(tt.aStart), at(tt.aEnd), at(tt.bStart), at(tt.bEnd))
			if got != tt.want {
				t.Errorf("overlaps = %t, want %t", got, tt.want)
			}
		})
	}
}

func TestDurationMinutes(t *testing.T) {
	if got := durationMinutes(nil); got != DefaultDurationMinutes {
		t.Errorf("durationMinutes(nil) = %d, want %d", got, DefaultDurationMinutes)
	}
	d := 45
	if got := durationMinutes(&d); got != 45 {
		t.Errorf("durationMinutes(&45) = %d, want 45", got)
	}
}

func TestCreate_ConflictDetection(t *testing.T) {
	db := setup(t)
	date := tomorrow()

	// 09:00 with no duration occupies [09:00, 10:00).
	first, err := Create(db, baseOpts(date, "09:00"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Overlapping window for the same user, different activity.
	opts := baseOpts(date, "09:30")
	opts.ActivityID = "act-00002"
	_, err = Create(db, opts)
	var cerr *fault.ConflictError
	if !errors.As(err, &cerr) {
		t.Fatalf("overlapping create: error = %v, want ConflictError", err)
	}
	if cerr.ScheduleID != first.ID {
		t.Errorf("ConflictError.ScheduleID = %q, want %q", cerr.ScheduleID, first.ID)
	}
	if cerr.ActivityName != "Morning walk" {
		t.Errorf("ConflictError.ActivityName = %q", cerr.ActivityName)
	}
}

func TestCreate_TouchingSlotsAllowed(t *testing.T) {
	db := setup(t)
	date := tomorrow()

	if _, err := Create(db, baseOpts(date, "09:00")); err != nil {
		t.Fatalf("Create 09:00: %v", err)
	}

	// Back-to-back at 10:00, exactly when the first ends.
	opts := baseOpts(date, "10:00")
	opts.ActivityID = "act-00002"
	if _, err := Create(db, opts); err != nil {
		t.Errorf("back-to-back create: %v", err)
	}
}

func TestCreate_ExplicitDurationWidensWindow(t *testing.T) {
	db := setup(t)
	date := tomorrow()

	long := 180
	opts := baseOpts(date, "09:00")
	opts.EstimatedDuration = &long
	if _, err := Create(db, opts); err != nil {
		t.Fatalf("Create 3h: %v", err)
	}

	// 11:00 falls inside the 3-hour window.
	opts2 := baseOpts(date, "11:00")
	opts2.ActivityID = "act-00002"
	var cerr *fault.ConflictError
	if _, err := Create(db, opts2); !errors.As(err, &cerr) {
		t.Errorf("create inside long window: error = %v, want ConflictError", err)
	}
}

func TestCreate_NoConflictAcrossUsers(t *testing.T) {
	db := setup(t)
	date := tomorrow()

	if _, err := Create(db, baseOpts(date, "09:00")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	opts := baseOpts(date, "09:00")
	opts.AssignedUserID = "usr-00002"
	if _, err := Create(db, opts); err != nil {
		t.Errorf("same slot for other user: %v", err)
	}
}

func TestCreate_NoConflictAcrossDates(t *testing.T) {
	db := setup(t)
	date := tomorrow()

	if _, err := Create(db, baseOpts(date, "09:00")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	opts := baseOpts(date.AddDate(0, 0, 1), "09:00")
	if _, err := Create(db, opts); err != nil {
		t.Errorf("same slot next day: %v", err)
	}
}

func TestCreate_TerminalSchedulesDoNotConflict(t *testing.T) {
	db := setup(t)
	date := tomorrow()

	s, err := Create(db, baseOpts(date, "09:00"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := Cancel(db, s.ID, ""); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	// Cancelled schedules free their slot for other activities.
	opts := baseOpts(date, "09:00")
	opts.ActivityID = "act-00002"
	if _, err := Create(db, opts); err != nil {
		t.Errorf("create over cancelled slot: %v", err)
	}
}

func TestRecordAndResolveConflict(t *testing.T) {
	db := setup(t)
	date := tomorrow()

	s1, err := Create(db, baseOpts(date, "09:00"))
	if err != nil {
		t.Fatalf("Create s1: %v", err)
	}
	opts := baseOpts(date, "11:00")
	opts.ActivityID = "act-00002"
	s2, err := Create(db, opts)
	if err != nil {
		t.Fatalf("Create s2: %v", err)
	}

	c, err := RecordConflict(db, s1.ID, s2.ID, "")
	if err != nil {
		t.Fatalf("RecordConflict: %v", err)
	}
	if c.ConflictType != "time_overlap" {
		t.Errorf("ConflictType = %q, want default time_overlap", c.ConflictType)
	}
	if c.Resolved {
		t.Error("new conflict marked resolved")
	}

	unresolved, err := ListConflicts(db, true)
	if err != nil {
		t.Fatalf("ListConflicts: %v", err)
	}
	if len(unresolved) != 1 {
		t.Fatalf("unresolved conflicts = %d, want 1", len(unresolved))
	}

	resolved, err := ResolveConflict(db, c.ID, "moved to the afternoon")
	if err != nil {
		t.Fatalf("ResolveConflict: %v", err)
	}
	if !resolved.Resolved || resolved.ResolvedAt == nil {
		t.Error("conflict not marked resolved")
	}
	if resolved.ResolutionNotes != "moved to the afternoon" {
		t.Errorf("ResolutionNotes = %q", resolved.ResolutionNotes)
	}

	unresolved, err = ListConflicts(db, true)
	if err != nil {
		t.Fatalf("ListConflicts after resolve: %v", err)
	}
	if len(unresolved) != 0 {
		t.Errorf("unresolved conflicts = %d, want 0", len(unresolved))
	}
}

func TestRecordConflict_UnknownSchedule(t *testing.T) {
	db := setup(t)
	_, err := RecordConflict(db, "sch-nope", "sch-also-nope", "time_overlap")
	if !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}
