package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	dbpkg "github.com/tavonga/careconnect/internal/db"
	"github.com/tavonga/careconnect/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := dbpkg.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	users := []models.User{
		{ID: "usr-00001", Name: "Tavonga", Email: "tavonga@example.com", Role: "carer", Active: true},
		{ID: "usr-admin", Name: "Admin", Email: "admin@example.com", Role: "admin", Active: true},
	}
	if err := db.Create(&users).Error; err != nil {
		t.Fatalf("seed users: %v", err)
	}
	return NewRouter(db), db
}

// doJSON performs a request with an optional JSON body and returns the recorder.
func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, into any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), into); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

// assertErrorCode checks status and the code inside the error envelope.
func assertErrorCode(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, status, w.Body.String())
	}
	var env errorEnvelope
	decode(t, w, &env)
	if env.Error.Code != code {
		t.Errorf("error code = %q, want %q (message %q)", env.Error.Code, code, env.Error.Message)
	}
}

func tomorrowStr() string {
	return time.Now().UTC().AddDate(0, 0, 1).Format(dateFormat)
}

// createActivity posts a minimal activity and returns its ID.
func createActivity(t *testing.T, router *gin.Engine, name string) string {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/activities", gin.H{
		"name":          name,
		"category":      "recreational",
		"created_by_id": "usr-admin",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create activity: status %d, body %s", w.Code, w.Body.String())
	}
	var a models.Activity
	decode(t, w, &a)
	return a.ID
}

// createSchedule posts a minimal schedule and returns its ID.
func createSchedule(t *testing.T, router *gin.Engine, activityID, date, hhmm string) string {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/schedules", gin.H{
		"activity_id":      activityID,
		"assigned_user_id": "usr-00001",
		"created_by_id":    "usr-admin",
		"scheduled_date":   date,
		"scheduled_time":   hhmm,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create schedule: status %d, body %s", w.Code, w.Body.String())
	}
	var s models.Schedule
	decode(t, w, &s)
	return s.ID
}

// ---

func TestHealthz(t *testing.T) {
	router, _ := newTestRouter(t)
	w := doJSON(t, router, http.MethodGet, "/api/healthz", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]string
	decode(t, w, &body)
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
}

func TestActivityCreateAndGet(t *testing.T) {
	router, _ := newTestRouter(t)
	id := createActivity(t, router, "Morning walk")
	if !strings.HasPrefix(id, "act-") {
		t.Errorf("activity ID = %q, want act- prefix", id)
	}

	w := doJSON(t, router, http.MethodGet, "/api/activities/"+id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: status %d, body %s", w.Code, w.Body.String())
	}
	var body struct {
		Activity       models.Activity `json:"activity"`
		CompletionRate int             `json:"completion_rate"`
	}
	decode(t, w, &body)
	if body.Activity.Name != "Morning walk" {
		t.Errorf("name = %q", body.Activity.Name)
	}
	if body.CompletionRate != 0 {
		t.Errorf("completion_rate = %d, want 0", body.CompletionRate)
	}
}

func TestActivityCreate_Validation(t *testing.T) {
	router, _ := newTestRouter(t)
	w := doJSON(t, router, http.MethodPost, "/api/activities", gin.H{
		"category":      "recreational",
		"created_by_id": "usr-admin",
	})
	assertErrorCode(t, w, http.StatusBadRequest, "validation_error")
}

func TestActivityListAndRetire(t *testing.T) {
	router, _ := newTestRouter(t)
	id := createActivity(t, router, "Morning walk")
	createActivity(t, router, "Puzzle time")

	w := doJSON(t, router, http.MethodGet, "/api/activities?active=true", nil)
	var list struct {
		Activities []models.Activity `json:"activities"`
	}
	decode(t, w, &list)
	if len(list.Activities) != 2 {
		t.Fatalf("activities = %d, want 2", len(list.Activities))
	}

	if w := doJSON(t, router, http.MethodDelete, "/api/activities/"+id, nil); w.Code != http.StatusOK {
		t.Fatalf("retire: status %d, body %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodGet, "/api/activities?active=true", nil)
	decode(t, w, &list)
	if len(list.Activities) != 1 {
		t.Errorf("active activities after retire = %d, want 1", len(list.Activities))
	}
}

func TestActivityGet_NotFound(t *testing.T) {
	router, _ := newTestRouter(t)
	w := doJSON(t, router, http.MethodGet, "/api/activities/act-missing", nil)
	assertErrorCode(t, w, http.StatusNotFound, "not_found")
}

func TestActivityLogFlow(t *testing.T) {
	router, _ := newTestRouter(t)
	actID := createActivity(t, router, "Morning walk")

	w := doJSON(t, router, http.MethodPost, "/api/activities/"+actID+"/logs", gin.H{
		"user_id": "usr-00001",
		"date":    "2026-09-01",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create log: status %d, body %s", w.Code, w.Body.String())
	}
	var l models.ActivityLog
	decode(t, w, &l)

	if w := doJSON(t, router, http.MethodPost, "/api/activity-logs/"+l.ID+"/start", nil); w.Code != http.StatusOK {
		t.Fatalf("start log: status %d, body %s", w.Code, w.Body.String())
	}
	w = doJSON(t, router, http.MethodPost, "/api/activity-logs/"+l.ID+"/complete", gin.H{
		"notes": "went well",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("complete log: status %d, body %s", w.Code, w.Body.String())
	}
	decode(t, w, &l)
	if l.Status != "completed" {
		t.Errorf("log status = %q, want completed", l.Status)
	}

	// Second log same activity, user and day is rejected.
	w = doJSON(t, router, http.MethodPost, "/api/activities/"+actID+"/logs", gin.H{
		"user_id": "usr-00001",
		"date":    "2026-09-01",
	})
	assertErrorCode(t, w, http.StatusBadRequest, "validation_error")
}

func TestGoalLifecycle(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/goals", gin.H{
		"name":          "Improve mobility",
		"created_by_id": "usr-admin",
		"carer_ids":     []string{"usr-00001"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create goal: status %d, body %s", w.Code, w.Body.String())
	}
	var g models.Goal
	decode(t, w, &g)
	if !strings.HasPrefix(g.ID, "gl-") {
		t.Errorf("goal ID = %q, want gl- prefix", g.ID)
	}

	w = doJSON(t, router, http.MethodPatch, "/api/goals/"+g.ID, gin.H{
		"priority": "high",
		"notes":    "focus area this quarter",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update goal: status %d, body %s", w.Code, w.Body.String())
	}
	decode(t, w, &g)
	if g.Priority != "high" {
		t.Errorf("priority = %q, want high", g.Priority)
	}

	// Progress is derived, not writable.
	w = doJSON(t, router, http.MethodPatch, "/api/goals/"+g.ID, gin.H{
		"progress_percentage": 90,
	})
	assertErrorCode(t, w, http.StatusBadRequest, "validation_error")

	w = doJSON(t, router, http.MethodGet, "/api/goals/"+g.ID, nil)
	var body struct {
		Goal               models.Goal `json:"goal"`
		CalculatedProgress int         `json:"calculated_progress"`
	}
	decode(t, w, &body)
	if body.CalculatedProgress != 0 {
		t.Errorf("calculated_progress = %d, want 0", body.CalculatedProgress)
	}

	if w := doJSON(t, router, http.MethodPost, "/api/goals/"+g.ID+"/recompute", nil); w.Code != http.StatusOK {
		t.Fatalf("recompute: status %d, body %s", w.Code, w.Body.String())
	}
	w = doJSON(t, router, http.MethodPost, "/api/goals/"+g.ID+"/carers", gin.H{"user_id": "usr-admin"})
	if w.Code != http.StatusOK {
		t.Fatalf("assign carer: status %d, body %s", w.Code, w.Body.String())
	}
}

func TestScheduleLifecycle(t *testing.T) {
	router, _ := newTestRouter(t)
	actID := createActivity(t, router, "Morning walk")
	schID := createSchedule(t, router, actID, tomorrowStr(), "09:00")

	if w := doJSON(t, router, http.MethodPost, "/api/schedules/"+schID+"/start", nil); w.Code != http.StatusOK {
		t.Fatalf("start: status %d, body %s", w.Code, w.Body.String())
	}
	w := doJSON(t, router, http.MethodPost, "/api/schedules/"+schID+"/complete", gin.H{
		"completion_percentage": 75,
		"notes":                 "cut short by rain",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("complete: status %d, body %s", w.Code, w.Body.String())
	}
	var s models.Schedule
	decode(t, w, &s)
	if s.Status != "completed" {
		t.Errorf("status = %q, want completed", s.Status)
	}
	if s.CompletionPercentage != 75 {
		t.Errorf("completion_percentage = %d, want 75", s.CompletionPercentage)
	}

	// Terminal schedules reject further transitions.
	w = doJSON(t, router, http.MethodPost, "/api/schedules/"+schID+"/start", nil)
	assertErrorCode(t, w, http.StatusConflict, "invalid_state")
}

func TestScheduleCreate_Conflict(t *testing.T) {
	router, _ := newTestRouter(t)
	actID := createActivity(t, router, "Morning walk")
	date := tomorrowStr()
	createSchedule(t, router, actID, date, "09:00")

	w := doJSON(t, router, http.MethodPost, "/api/schedules", gin.H{
		"activity_id":      actID,
		"assigned_user_id": "usr-00001",
		"created_by_id":    "usr-admin",
		"scheduled_date":   date,
		"scheduled_time":   "09:30",
	})
	assertErrorCode(t, w, http.StatusConflict, "conflict")
}

func TestScheduleCreate_BadDate(t *testing.T) {
	router, _ := newTestRouter(t)
	actID := createActivity(t, router, "Morning walk")
	w := doJSON(t, router, http.MethodPost, "/api/schedules", gin.H{
		"activity_id":      actID,
		"assigned_user_id": "usr-00001",
		"created_by_id":    "usr-admin",
		"scheduled_date":   "tomorrow",
		"scheduled_time":   "09:00",
	})
	assertErrorCode(t, w, http.StatusBadRequest, "bad_request")
}

func TestScheduleReschedule(t *testing.T) {
	router, _ := newTestRouter(t)
	actID := createActivity(t, router, "Morning walk")
	schID := createSchedule(t, router, actID, tomorrowStr(), "09:00")

	newDate := time.Now().UTC().AddDate(0, 0, 2).Format(dateFormat)
	w := doJSON(t, router, http.MethodPost, "/api/schedules/"+schID+"/reschedule", gin.H{
		"new_date": newDate,
		"new_time": "10:00",
		"reason":   "clinic visit moved",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("reschedule: status %d, body %s", w.Code, w.Body.String())
	}
	var body struct {
		Old models.Schedule `json:"old_schedule"`
		New models.Schedule `json:"new_schedule"`
	}
	decode(t, w, &body)
	if body.Old.Status != "rescheduled" {
		t.Errorf("old status = %q, want rescheduled", body.Old.Status)
	}
	if body.New.ScheduledTime != "10:00" {
		t.Errorf("new time = %q, want 10:00", body.New.ScheduledTime)
	}
	if body.New.ParentScheduleID == nil || *body.New.ParentScheduleID != body.Old.ID {
		t.Errorf("successor parent = %v, want %s", body.New.ParentScheduleID, body.Old.ID)
	}
}

func TestScheduleQueriesAndStats(t *testing.T) {
	router, _ := newTestRouter(t)
	actID := createActivity(t, router, "Morning walk")
	createSchedule(t, router, actID, tomorrowStr(), "09:00")

	w := doJSON(t, router, http.MethodGet, "/api/schedules/upcoming?days=7", nil)
	var list struct {
		Schedules []models.Schedule `json:"schedules"`
	}
	decode(t, w, &list)
	if len(list.Schedules) != 1 {
		t.Errorf("upcoming = %d, want 1", len(list.Schedules))
	}

	w = doJSON(t, router, http.MethodGet, "/api/schedules/upcoming?days=zero", nil)
	assertErrorCode(t, w, http.StatusBadRequest, "bad_request")

	w = doJSON(t, router, http.MethodGet, "/api/schedules/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats: status %d, body %s", w.Code, w.Body.String())
	}
	var stats map[string]any
	decode(t, w, &stats)
	if _, ok := stats["total"]; !ok {
		t.Errorf("stats missing total field: %v", stats)
	}
}

func TestTemplateFlow(t *testing.T) {
	router, _ := newTestRouter(t)
	actID := createActivity(t, router, "Morning walk")

	w := doJSON(t, router, http.MethodPost, "/api/schedule-templates", gin.H{
		"name":             "Weekday walk",
		"activity_id":      actID,
		"default_duration": 45,
		"default_priority": "high",
		"created_by_id":    "usr-admin",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create template: status %d, body %s", w.Code, w.Body.String())
	}
	var tpl models.ScheduleTemplate
	decode(t, w, &tpl)

	w = doJSON(t, router, http.MethodPost, "/api/schedule-templates/"+tpl.ID+"/schedules", gin.H{
		"assigned_user_id": "usr-00001",
		"created_by_id":    "usr-admin",
		"scheduled_date":   tomorrowStr(),
		"scheduled_time":   "09:00",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("from template: status %d, body %s", w.Code, w.Body.String())
	}
	var s models.Schedule
	decode(t, w, &s)
	if s.Priority != "high" {
		t.Errorf("priority = %q, want high from template", s.Priority)
	}
	if s.EstimatedDuration == nil || *s.EstimatedDuration != 45 {
		t.Errorf("estimated duration = %v, want 45 from template", s.EstimatedDuration)
	}
}

func TestConflictEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)
	actID := createActivity(t, router, "Morning walk")
	a := createSchedule(t, router, actID, tomorrowStr(), "09:00")
	b := createSchedule(t, router, actID, tomorrowStr(), "11:00")

	w := doJSON(t, router, http.MethodPost, "/api/conflicts", gin.H{
		"schedule1_id": a,
		"schedule2_id": b,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("record conflict: status %d, body %s", w.Code, w.Body.String())
	}
	var conflict models.ScheduleConflict
	decode(t, w, &conflict)
	if conflict.ConflictType != "time_overlap" {
		t.Errorf("conflict type = %q, want time_overlap default", conflict.ConflictType)
	}

	w = doJSON(t, router, http.MethodGet, "/api/conflicts?unresolved=true", nil)
	var list struct {
		Conflicts []models.ScheduleConflict `json:"conflicts"`
	}
	decode(t, w, &list)
	if len(list.Conflicts) != 1 {
		t.Fatalf("unresolved conflicts = %d, want 1", len(list.Conflicts))
	}

	path := fmt.Sprintf("/api/conflicts/%d/resolve", conflict.ID)
	w = doJSON(t, router, http.MethodPost, path, gin.H{"resolution_notes": "moved the later walk"})
	if w.Code != http.StatusOK {
		t.Fatalf("resolve: status %d, body %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodGet, "/api/conflicts?unresolved=true", nil)
	decode(t, w, &list)
	if len(list.Conflicts) != 0 {
		t.Errorf("unresolved conflicts after resolve = %d, want 0", len(list.Conflicts))
	}

	w = doJSON(t, router, http.MethodPost, "/api/conflicts/notanumber/resolve", gin.H{})
	assertErrorCode(t, w, http.StatusBadRequest, "bad_request")
}

func TestSSE_ConnectedEvent(t *testing.T) {
	// A nil DB short-circuits the poll loop after the handshake.
	gin.SetMode(gin.TestMode)
	router := NewRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", got)
	}
	if !strings.Contains(w.Body.String(), "event: connected") {
		t.Errorf("body missing connected event: %q", w.Body.String())
	}
}
