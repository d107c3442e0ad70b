package activity

import (
	"errors"
	"testing"
	"time"

	"github.com/tavonga/careconnect/internal/fault"
	"github.com/tavonga/careconnect/internal/goal"
)

// testDate returns a fixed date in September 2026, offset by day.
func testDate(day int) time.Time {
	return time.Date(2026, 9, day, 0, 0, 0, 0, time.UTC)
}

func TestCreateLog(t *testing.T) {
	db := openActivityTestDB(t)

	a, err := Create(db, CreateOpts{Name: "Walk"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	l, err := CreateLog(db, LogOpts{
		ActivityID:    a.ID,
		UserID:        "usr-00001",
		Date:          testDate(1).Add(14 * time.Hour), // time-of-day is dropped
		ScheduledTime: "09:30",
		Notes:         "first attempt",
	})
	if err != nil {
		t.Fatalf("CreateLog: %v", err)
	}
	if l.Status != "scheduled" {
		t.Errorf("Status = %q, want scheduled", l.Status)
	}
	if !l.Date.Equal(testDate(1)) {
		t.Errorf("Date = %s, want truncated to midnight", l.Date)
	}
	if l.Photos != "[]" || l.Videos != "[]" {
		t.Errorf("media fields = %q / %q, want empty JSON arrays", l.Photos, l.Videos)
	}
}

func TestCreateLog_Validation(t *testing.T) {
	db := openActivityTestDB(t)

	a, err := Create(db, CreateOpts{Name: "Walk"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	tests := []struct {
		name string
		opts LogOpts
	}{
		{"missing activity", LogOpts{UserID: "u", Date: testDate(1)}},
		{"missing user", LogOpts{ActivityID: a.ID, Date: testDate(1)}},
		{"missing date", LogOpts{ActivityID: a.ID, UserID: "u"}},
		{"bad time", LogOpts{ActivityID: a.ID, UserID: "u", Date: testDate(1), ScheduledTime: "morning"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CreateLog(db, tt.opts)
			var verr *fault.ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("error = %v, want ValidationError", err)
			}
		})
	}

	_, err = CreateLog(db, LogOpts{ActivityID: "act-nope", UserID: "u", Date: testDate(1)})
	if !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("unknown activity: error = %v, want ErrNotFound", err)
	}
}

func TestCreateLog_OnePerDay(t *testing.T) {
	db := openActivityTestDB(t)

	a, err := Create(db, CreateOpts{Name: "Walk"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := CreateLog(db, LogOpts{ActivityID: a.ID, UserID: "usr-00001", Date: testDate(1)}); err != nil {
		t.Fatalf("first CreateLog: %v", err)
	}

	// Same activity, user, and date, even at a different time of day.
	_, err = CreateLog(db, LogOpts{
		ActivityID: a.ID, UserID: "usr-00001", Date: testDate(1).Add(20 * time.Hour),
	})
	var verr *fault.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("duplicate log: error = %v, want ValidationError", err)
	}

	// Other user or other day is fine.
	if _, err := CreateLog(db, LogOpts{ActivityID: a.ID, UserID: "usr-00002", Date: testDate(1)}); err != nil {
		t.Errorf("other user same day: %v", err)
	}
	if _, err := CreateLog(db, LogOpts{ActivityID: a.ID, UserID: "usr-00001", Date: testDate(2)}); err != nil {
		t.Errorf("same user next day: %v", err)
	}
}

func TestStartCompleteLogFlow(t *testing.T) {
	db := openActivityTestDB(t)

	a, err := Create(db, CreateOpts{Name: "Walk"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	l, err := CreateLog(db, LogOpts{ActivityID: a.ID, UserID: "usr-00001", Date: testDate(1)})
	if err != nil {
		t.Fatalf("CreateLog: %v", err)
	}

	started, err := StartLog(db, l.ID)
	if err != nil {
		t.Fatalf("StartLog: %v", err)
	}
	if started.Status != "in_progress" || started.StartTime == nil {
		t.Errorf("after start: status=%q start=%v", started.Status, started.StartTime)
	}

	rating := 5
	done, err := CompleteLog(db, l.ID, CompleteLogOpts{
		Notes:              "great session",
		SatisfactionRating: &rating,
		Successes:          "walked the full loop",
	})
	if err != nil {
		t.Fatalf("CompleteLog: %v", err)
	}
	if done.Status != "completed" || !done.Completed {
		t.Errorf("after complete: status=%q completed=%t", done.Status, done.Completed)
	}
	if done.EndTime == nil {
		t.Error("EndTime not stamped")
	}

	// Completed logs are terminal.
	var serr *fault.InvalidStateError
	if _, err := CompleteLog(db, l.ID, CompleteLogOpts{}); !errors.As(err, &serr) {
		t.Errorf("second complete: error = %v, want InvalidStateError", err)
	}
	if _, err := StartLog(db, l.ID); !errors.As(err, &serr) {
		t.Errorf("start after complete: error = %v, want InvalidStateError", err)
	}
}

func TestCompleteLog_DirectFromScheduled(t *testing.T) {
	db := openActivityTestDB(t)

	a, err := Create(db, CreateOpts{Name: "Walk"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	l, err := CreateLog(db, LogOpts{ActivityID: a.ID, UserID: "usr-00001", Date: testDate(1)})
	if err != nil {
		t.Fatalf("CreateLog: %v", err)
	}

	done, err := CompleteLog(db, l.ID, CompleteLogOpts{})
	if err != nil {
		t.Fatalf("CompleteLog: %v", err)
	}
	// StartTime is backfilled for never-started logs.
	if done.StartTime == nil {
		t.Error("StartTime not backfilled")
	}
}

func TestCompleteLog_RatingRange(t *testing.T) {
	db := openActivityTestDB(t)

	a, err := Create(db, CreateOpts{Name: "Walk"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	l, err := CreateLog(db, LogOpts{ActivityID: a.ID, UserID: "usr-00001", Date: testDate(1)})
	if err != nil {
		t.Fatalf("CreateLog: %v", err)
	}

	bad := 6
	_, err = CompleteLog(db, l.ID, CompleteLogOpts{DifficultyRating: &bad})
	var verr *fault.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("rating 6: error = %v, want ValidationError", err)
	}

	// Rejected completion leaves the log untouched.
	got, err := GetLog(db, l.ID)
	if err != nil {
		t.Fatalf("GetLog: %v", err)
	}
	if got.Status != "scheduled" {
		t.Errorf("Status = %q after rejected complete, want scheduled", got.Status)
	}
}

func TestCompleteLog_RecomputesGoalProgress(t *testing.T) {
	db := openActivityTestDB(t)
	g := seedGoal(t, db, "Mobility")

	a, err := Create(db, CreateOpts{Name: "Walk", PrimaryGoalID: g.ID})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	l, err := CreateLog(db, LogOpts{ActivityID: a.ID, UserID: "usr-00001", Date: testDate(1)})
	if err != nil {
		t.Fatalf("CreateLog: %v", err)
	}

	if _, err := CompleteLog(db, l.ID, CompleteLogOpts{}); err != nil {
		t.Fatalf("CompleteLog: %v", err)
	}

	// The only linked activity is complete: 100%, above the default
	// threshold, so the goal auto-completes.
	got, err := goal.Get(db, g.ID)
	if err != nil {
		t.Fatalf("goal.Get: %v", err)
	}
	if got.ProgressPercentage != 100 {
		t.Errorf("goal progress = %d, want 100", got.ProgressPercentage)
	}
	if got.Status != "completed" {
		t.Errorf("goal status = %q, want completed", got.Status)
	}
}

func TestCancelLog(t *testing.T) {
	db := openActivityTestDB(t)

	a, err := Create(db, CreateOpts{Name: "Walk"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	l, err := CreateLog(db, LogOpts{ActivityID: a.ID, UserID: "usr-00001", Date: testDate(1)})
	if err != nil {
		t.Fatalf("CreateLog: %v", err)
	}

	if _, err := CancelLog(db, l.ID, "postponed"); err == nil {
		t.Error("arbitrary status accepted, want cancelled or skipped only")
	}

	skipped, err := CancelLog(db, l.ID, "skipped")
	if err != nil {
		t.Fatalf("CancelLog: %v", err)
	}
	if skipped.Status != "skipped" {
		t.Errorf("Status = %q, want skipped", skipped.Status)
	}

	// Terminal.
	if _, err := CancelLog(db, l.ID, "cancelled"); err == nil {
		t.Error("cancel after skip succeeded")
	}
}

func TestListLogs_Filters(t *testing.T) {
	db := openActivityTestDB(t)

	a, err := Create(db, CreateOpts{Name: "Walk"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	l1, err := CreateLog(db, LogOpts{ActivityID: a.ID, UserID: "usr-00001", Date: testDate(1)})
	if err != nil {
		t.Fatalf("CreateLog: %v", err)
	}
	if _, err := CreateLog(db, LogOpts{ActivityID: a.ID, UserID: "usr-00002", Date: testDate(2)}); err != nil {
		t.Fatalf("CreateLog: %v", err)
	}
	if _, err := CompleteLog(db, l1.ID, CompleteLogOpts{}); err != nil {
		t.Fatalf("CompleteLog: %v", err)
	}

	completed := true
	got, err := ListLogs(db, LogFilters{Completed: &completed})
	if err != nil {
		t.Fatalf("ListLogs: %v", err)
	}
	if len(got) != 1 || got[0].ID != l1.ID {
		t.Errorf("completed filter = %+v", got)
	}

	byUser, err := ListLogs(db, LogFilters{UserID: "usr-00002"})
	if err != nil {
		t.Fatalf("ListLogs by user: %v", err)
	}
	if len(byUser) != 1 {
		t.Errorf("by user = %d, want 1", len(byUser))
	}

	// Newest first.
	all, err := ListLogs(db, LogFilters{})
	if err != nil {
		t.Fatalf("ListLogs: %v", err)
	}
	if len(all) != 2 || !all[0].Date.Equal(testDate(2)) {
		t.Errorf("ordering = %+v", all)
	}
}
