package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/saeid-a/CoachBookingBack/internal/models"
	"github.com/saeid-a/CoachBookingBack/internal/services"
)

type stubBookingService struct {
	result       *models.LessonDetail
	err          error
	lastInput    services.BookLessonInput
	lastIdentity models.Identity
}

func (s *stubBookingService) BookLesson(_ context.Context, identity models.Identity, input services.BookLessonInput) (*models.LessonDetail, error) {
	s.lastIdentity = identity
	s.lastInput = input
	return s.result, s.err
}

type stubLessonService struct {
	listResult   []models.LessonDetail
	updateResult *models.Lesson
	err          error
	lastLessonID int64
	lastStatus   models.LessonStatus
}

func (s *stubLessonService) ListCurrent(_ context.Context, _ models.Identity) ([]models.LessonDetail, error) {
	return s.listResult, s.err
}

func (s *stubLessonService) UpdateStatus(_ context.Context, _ models.Identity, lessonID int64, next models.LessonStatus) (*models.Lesson, error) {
	s.lastLessonID = lessonID
	s.lastStatus = next
	return s.updateResult, s.err
}

func (s *stubLessonService) DeleteLesson(_ context.Context, _ models.Identity, lessonID int64) error {
	s.lastLessonID = lessonID
	return s.err
}

type stubCancellationService struct {
	result          *services.CancellationResult
	err             error
	lastInput       services.CancelInput
	lastCoachLesson int64
}

func (s *stubCancellationService) CancelByStudent(_ context.Context, _ models.Identity, input services.CancelInput) (*services.CancellationResult, error) {
	s.lastInput = input
	return s.result, s.err
}

func (s *stubCancellationService) CancelByCoach(_ context.Context, _ models.Identity, lessonID int64) (*services.CancellationResult, error) {
	s.lastCoachLesson = lessonID
	return s.result, s.err
}

func newLessonHandler(booking *stubBookingService, lessons *stubLessonService, cancellation *stubCancellationService) *LessonHandler {
	return &LessonHandler{
		booking:      booking,
		lessons:      lessons,
		cancellation: cancellation,
		logger:       discardLogger(),
	}
}

func TestBookLessonReturnsCreatedLesson(t *testing.T) {
	booking := &stubBookingService{
		result: &models.LessonDetail{Lesson: models.Lesson{ID: 12, CoachUID: "coach-1", Status: models.LessonPending}},
	}
	handler := newLessonHandler(booking, &stubLessonService{}, &stubCancellationService{})

	app := newAppAs(studentIdentity)
	app.Post("/api/v1/lessons", handler.BookLesson)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/lessons", strings.NewReader(`{
		"coach_uid": "coach-1",
		"date": "2030-05-02",
		"start_time": "09:00",
		"end_time": "09:50",
		"status": "pending"
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if booking.lastInput.CoachUID != "coach-1" || booking.lastInput.StartTime != "09:00" {
		t.Fatalf("unexpected input: %+v", booking.lastInput)
	}
	if booking.lastIdentity != studentIdentity {
		t.Fatalf("expected student identity, got %+v", booking.lastIdentity)
	}
}

func TestBookLessonReturnsConflictForTakenSlot(t *testing.T) {
	booking := &stubBookingService{err: services.ErrSlotConflict}
	handler := newLessonHandler(booking, &stubLessonService{}, &stubCancellationService{})

	app := newAppAs(studentIdentity)
	app.Post("/api/v1/lessons", handler.BookLesson)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/lessons", strings.NewReader(`{"coach_uid": "coach-1"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestUpdateLessonStatusNormalisesStatus(t *testing.T) {
	lessons := &stubLessonService{updateResult: &models.Lesson{ID: 4, Status: models.LessonConfirmed}}
	handler := newLessonHandler(&stubBookingService{}, lessons, &stubCancellationService{})

	app := newAppAs(coachIdentity)
	app.Patch("/api/v1/lessons/:id/status", handler.UpdateStatus)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/lessons/4/status", strings.NewReader(`{"status": " Confirmed "}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if lessons.lastLessonID != 4 || lessons.lastStatus != models.LessonConfirmed {
		t.Fatalf("unexpected call: id=%d status=%q", lessons.lastLessonID, lessons.lastStatus)
	}
}

func TestCancelLessonAsStudentPassesTestClock(t *testing.T) {
	cancellation := &stubCancellationService{
		result: &services.CancellationResult{CancellationCount: 1, AllowedWindowHours: 24, IsPenalty: true},
	}
	handler := newLessonHandler(&stubBookingService{}, &stubLessonService{}, cancellation)

	app := newAppAs(studentIdentity)
	app.Patch("/api/v1/lessons/:id/cancel", handler.CancelLesson)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/lessons/8/cancel", strings.NewReader(`{
		"test_date": "2030-05-02",
		"test_time": "08:00"
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if cancellation.lastInput.LessonID != 8 || cancellation.lastInput.TestDate != "2030-05-02" || cancellation.lastInput.TestTime != "08:00" {
		t.Fatalf("unexpected input: %+v", cancellation.lastInput)
	}
	body := decodeBody(t, resp)
	if body["is_penalty"] != true || body["allowed_window_hours"] != float64(24) {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestCancelLessonAsCoach(t *testing.T) {
	cancellation := &stubCancellationService{result: &services.CancellationResult{}}
	handler := newLessonHandler(&stubBookingService{}, &stubLessonService{}, cancellation)

	app := newAppAs(coachIdentity)
	app.Patch("/api/v1/lessons/:id/cancel", handler.CancelLesson)

	resp, err := app.Test(httptest.NewRequest(http.MethodPatch, "/api/v1/lessons/15/cancel", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if cancellation.lastCoachLesson != 15 {
		t.Fatalf("expected lesson 15, got %d", cancellation.lastCoachLesson)
	}
}

func TestCancelLessonAlreadyCanceled(t *testing.T) {
	cancellation := &stubCancellationService{err: services.ErrAlreadyCanceled}
	handler := newLessonHandler(&stubBookingService{}, &stubLessonService{}, cancellation)

	app := newAppAs(studentIdentity)
	app.Patch("/api/v1/lessons/:id/cancel", handler.CancelLesson)

	resp, err := app.Test(httptest.NewRequest(http.MethodPatch, "/api/v1/lessons/8/cancel", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCancelLessonForbiddenForAdmin(t *testing.T) {
	cancellation := &stubCancellationService{}
	handler := newLessonHandler(&stubBookingService{}, &stubLessonService{}, cancellation)

	app := newAppAs(models.Identity{UID: "admin-1", Role: models.RoleAdmin})
	app.Patch("/api/v1/lessons/:id/cancel", handler.CancelLesson)

	resp, err := app.Test(httptest.NewRequest(http.MethodPatch, "/api/v1/lessons/8/cancel", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}
