package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/saeid-a/CoachBookingBack/internal/models"
	"github.com/saeid-a/CoachBookingBack/internal/policy"
)

const (
	testToday    = "2030-05-01"
	testTomorrow = "2030-05-02"
)

var testNow = time.Date(2030, 5, 1, 8, 0, 0, 0, time.UTC)

type testEnv struct {
	db       *fakeDB
	notifier *recordingNotifier
	deps     Deps
	coach    models.Identity
	student  models.Identity
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newFakeDB()
	notifier := &recordingNotifier{}
	coach := db.addUser(models.RoleCoach, "coach-1")
	student := db.addUser(models.RoleStudent, "student-1")
	return &testEnv{
		db:       db,
		notifier: notifier,
		deps: Deps{
			Store:    db.store(),
			Policy:   policy.Default(),
			Notifier: notifier,
			Location: time.UTC,
			Now:      func() time.Time { return testNow },
		},
		coach:   models.Identity{UID: coach.UID, Role: coach.Role},
		student: models.Identity{UID: student.UID, Role: student.Role},
	}
}

func (e *testEnv) book(t *testing.T, student models.Identity, date, start, end string) *models.LessonDetail {
	t.Helper()
	detail, err := NewBookingService(e.deps).BookLesson(context.Background(), student, BookLessonInput{
		CoachUID:  e.coach.UID,
		Date:      date,
		StartTime: start,
		EndTime:   end,
	})
	if err != nil {
		t.Fatalf("book %s %s-%s: %v", date, start, end, err)
	}
	return detail
}

func (e *testEnv) pay(t *testing.T, student models.Identity, invoiceUID string) {
	t.Helper()
	if _, err := NewInvoiceService(e.deps).PayInvoice(context.Background(), student, invoiceUID); err != nil {
		t.Fatalf("pay %s: %v", invoiceUID, err)
	}
}

func expectErr(t *testing.T, err, want error) {
	t.Helper()
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}
