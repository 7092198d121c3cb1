package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/saeid-a/CoachBookingBack/internal/models"
	"github.com/saeid-a/CoachBookingBack/internal/repository"
)

// fakeDB is an in-memory stand-in for Postgres. Transactions are serialised
// and roll back by restoring a snapshot.
type fakeDB struct {
	txMu sync.Mutex
	mu   sync.Mutex

	nextID       int64
	clock        time.Time
	users        map[string]models.User
	availability map[int64]models.Availability
	lessons      map[int64]models.Lesson
	invoices     map[int64]models.Invoice
	favorites    map[string][]string
	events       []models.LessonEvent

	// hideSlots makes SlotTaken always report free so the unique guard is hit.
	hideSlots bool
}

type fakeState struct {
	nextID       int64
	users        map[string]models.User
	availability map[int64]models.Availability
	lessons      map[int64]models.Lesson
	invoices     map[int64]models.Invoice
	favorites    map[string][]string
	events       []models.LessonEvent
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		clock:        time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
		users:        map[string]models.User{},
		availability: map[int64]models.Availability{},
		lessons:      map[int64]models.Lesson{},
		invoices:     map[int64]models.Invoice{},
		favorites:    map[string][]string{},
	}
}

func (db *fakeDB) store() *fakeStore { return &fakeStore{db: db} }

func (db *fakeDB) id() int64 {
	db.nextID++
	return db.nextID
}

func (db *fakeDB) tick() time.Time {
	db.clock = db.clock.Add(time.Second)
	return db.clock
}

func (db *fakeDB) snapshot() fakeState {
	state := fakeState{
		nextID:       db.nextID,
		users:        make(map[string]models.User, len(db.users)),
		availability: make(map[int64]models.Availability, len(db.availability)),
		lessons:      make(map[int64]models.Lesson, len(db.lessons)),
		invoices:     make(map[int64]models.Invoice, len(db.invoices)),
		favorites:    make(map[string][]string, len(db.favorites)),
		events:       append([]models.LessonEvent(nil), db.events...),
	}
	for k, v := range db.users {
		state.users[k] = v
	}
	for k, v := range db.availability {
		state.availability[k] = v
	}
	for k, v := range db.lessons {
		state.lessons[k] = v
	}
	for k, v := range db.invoices {
		state.invoices[k] = v
	}
	for k, v := range db.favorites {
		state.favorites[k] = append([]string(nil), v...)
	}
	return state
}

func (db *fakeDB) restore(state fakeState) {
	db.nextID = state.nextID
	db.users = state.users
	db.availability = state.availability
	db.lessons = state.lessons
	db.invoices = state.invoices
	db.favorites = state.favorites
	db.events = state.events
}

func (db *fakeDB) addUser(role models.Role, uid string) models.User {
	db.mu.Lock()
	defer db.mu.Unlock()
	user := models.User{
		ID:        db.id(),
		UID:       uid,
		FirstName: "First " + uid,
		LastName:  "Last",
		Email:     uid + "@example.com",
		Role:      role,
	}
	db.users[uid] = user
	return user
}

func (db *fakeDB) lesson(id int64) models.Lesson {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.lessons[id]
}

func (db *fakeDB) invoiceFor(lessonID int64) (models.Invoice, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, invoice := range db.invoices {
		if invoice.LessonID == lessonID {
			return invoice, true
		}
	}
	return models.Invoice{}, false
}

func (db *fakeDB) eventTypes() []string {
	db.mu.Lock()
	defer db.mu.Unlock()
	types := make([]string, 0, len(db.events))
	for _, event := range db.events {
		types = append(types, event.Type)
	}
	return types
}

func (db *fakeDB) lessonCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.lessons)
}

type fakeStore struct {
	db   *fakeDB
	inTx bool
}

func (s *fakeStore) Users() repository.UserStore                { return fakeUsers{s.db} }
func (s *fakeStore) Availability() repository.AvailabilityStore { return fakeAvailability{s.db} }
func (s *fakeStore) Lessons() repository.LessonStore            { return fakeLessons{s.db} }
func (s *fakeStore) Invoices() repository.InvoiceStore          { return fakeInvoices{s.db} }
func (s *fakeStore) Favorites() repository.FavoriteStore        { return fakeFavorites{s.db} }
func (s *fakeStore) Events() repository.EventStore              { return fakeEvents{s.db} }

func (s *fakeStore) LockKey(context.Context, string) error {
	if !s.inTx {
		return errors.New("advisory lock requires a transaction")
	}
	return nil
}

func (s *fakeStore) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.db.txMu.Lock()
	defer s.db.txMu.Unlock()

	s.db.mu.Lock()
	state := s.db.snapshot()
	s.db.mu.Unlock()

	if err := fn(&fakeStore{db: s.db, inTx: true}); err != nil {
		s.db.mu.Lock()
		s.db.restore(state)
		s.db.mu.Unlock()
		return err
	}
	return nil
}

func duplicate(constraint string) error {
	return fmt.Errorf("%w: %s", repository.ErrDuplicate, constraint)
}

type fakeUsers struct{ db *fakeDB }

func (f fakeUsers) Create(_ context.Context, user *models.User) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, existing := range f.db.users {
		if existing.Email == user.Email {
			return duplicate("users_email_key")
		}
	}
	user.ID = f.db.id()
	user.CreatedAt = f.db.tick()
	user.UpdatedAt = user.CreatedAt
	f.db.users[user.UID] = *user
	return nil
}

func (f fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, user := range f.db.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f fakeUsers) GetByUID(_ context.Context, uid string) (*models.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	user, ok := f.db.users[uid]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (f fakeUsers) ListByRole(_ context.Context, role models.Role) ([]models.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	users := make([]models.User, 0)
	for _, user := range f.db.users {
		if user.Role == role {
			users = append(users, user)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

type fakeAvailability struct{ db *fakeDB }

func (f fakeAvailability) Create(_ context.Context, input repository.AvailabilityInput) (*models.Availability, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, row := range f.db.availability {
		if row.CoachUID == input.CoachUID && row.Date == input.Date {
			return nil, duplicate("availability_coach_uid_date_key")
		}
	}
	now := f.db.tick()
	row := availabilityFromInput(f.db.id(), input)
	row.CreatedAt, row.UpdatedAt = now, now
	f.db.availability[row.ID] = row
	return &row, nil
}

func (f fakeAvailability) Update(_ context.Context, id int64, input repository.AvailabilityInput) (*models.Availability, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	current, ok := f.db.availability[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for _, row := range f.db.availability {
		if row.ID != id && row.CoachUID == current.CoachUID && row.Date == input.Date {
			return nil, duplicate("availability_coach_uid_date_key")
		}
	}
	input.CoachUID = current.CoachUID
	row := availabilityFromInput(id, input)
	row.CreatedAt, row.UpdatedAt = current.CreatedAt, f.db.tick()
	f.db.availability[id] = row
	return &row, nil
}

func (f fakeAvailability) GetByID(_ context.Context, id int64) (*models.Availability, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	row, ok := f.db.availability[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &row, nil
}

func (f fakeAvailability) ListFrom(_ context.Context, coachUID, fromDate string) ([]models.Availability, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	rows := make([]models.Availability, 0)
	for _, row := range f.db.availability {
		if row.CoachUID == coachUID && row.Date >= fromDate {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date < rows[j].Date })
	return rows, nil
}

func (f fakeAvailability) ExistingDates(_ context.Context, coachUID string, dates []string) ([]string, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	wanted := make(map[string]bool, len(dates))
	for _, date := range dates {
		wanted[date] = true
	}
	existing := make([]string, 0)
	for _, row := range f.db.availability {
		if row.CoachUID == coachUID && wanted[row.Date] {
			existing = append(existing, row.Date)
		}
	}
	sort.Strings(existing)
	return existing, nil
}

func (f fakeAvailability) Delete(_ context.Context, id int64) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.availability[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.db.availability, id)
	return nil
}

func availabilityFromInput(id int64, input repository.AvailabilityInput) models.Availability {
	return models.Availability{
		ID:           id,
		CoachUID:     input.CoachUID,
		Date:         input.Date,
		StartTime:    input.StartTime,
		EndTime:      input.EndTime,
		BreakStart:   input.BreakStart,
		BreakEnd:     input.BreakEnd,
		Recurrence:   input.Recurrence,
		TimeBlocks:   input.TimeBlocks,
		BookingTimes: append([]models.BookingTime(nil), input.BookingTimes...),
	}
}

type fakeLessons struct{ db *fakeDB }

func (f fakeLessons) Create(_ context.Context, input repository.CreateLessonInput) (*models.Lesson, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, lesson := range f.db.lessons {
		if lesson.Status != models.LessonCanceled && lesson.CoachUID == input.CoachUID &&
			lesson.Date == input.Date && lesson.StartTime == input.StartTime && lesson.EndTime == input.EndTime {
			return nil, duplicate("lessons_coach_slot_key")
		}
	}
	now := f.db.tick()
	lesson := models.Lesson{
		ID:         f.db.id(),
		CoachUID:   input.CoachUID,
		StudentUID: input.StudentUID,
		Date:       input.Date,
		StartTime:  input.StartTime,
		EndTime:    input.EndTime,
		Status:     input.Status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	f.db.lessons[lesson.ID] = lesson
	return &lesson, nil
}

func (f fakeLessons) GetByIDForUpdate(_ context.Context, lessonID int64) (*models.Lesson, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	lesson, ok := f.db.lessons[lessonID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &lesson, nil
}

func (f fakeLessons) List(_ context.Context, filter repository.LessonListFilter) ([]models.Lesson, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	lessons := make([]models.Lesson, 0)
	for _, lesson := range f.db.lessons {
		if filter.CoachUID != "" && lesson.CoachUID != filter.CoachUID {
			continue
		}
		if filter.StudentUID != "" && lesson.StudentUID != filter.StudentUID {
			continue
		}
		if filter.FromDate != "" && lesson.Date < filter.FromDate {
			continue
		}
		lessons = append(lessons, lesson)
	}
	sort.Slice(lessons, func(i, j int) bool {
		if lessons[i].Date != lessons[j].Date {
			return lessons[i].Date < lessons[j].Date
		}
		if lessons[i].StartTime != lessons[j].StartTime {
			return lessons[i].StartTime < lessons[j].StartTime
		}
		return lessons[i].ID < lessons[j].ID
	})
	return lessons, nil
}

func (f fakeLessons) CountByStudentStatus(_ context.Context, studentUID string, status models.LessonStatus) (int, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	count := 0
	for _, lesson := range f.db.lessons {
		if lesson.StudentUID == studentUID && lesson.Status == status {
			count++
		}
	}
	return count, nil
}

func (f fakeLessons) SlotTaken(_ context.Context, q repository.SlotQuery) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if f.db.hideSlots {
		return false, nil
	}
	for _, lesson := range f.db.lessons {
		if lesson.Status == models.LessonCanceled {
			continue
		}
		if q.CoachUID != "" && lesson.CoachUID != q.CoachUID {
			continue
		}
		if q.CoachUID == "" && lesson.StudentUID != q.StudentUID {
			continue
		}
		if lesson.Date == q.Date && lesson.StartTime == q.StartTime && lesson.EndTime == q.EndTime {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeLessons) UpdateStatusIfCurrent(
	_ context.Context,
	lessonID int64,
	current, next models.LessonStatus,
) (*models.Lesson, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	lesson, ok := f.db.lessons[lessonID]
	if !ok || lesson.Status != current {
		return nil, repository.ErrNotFound
	}
	lesson.Status = next
	lesson.UpdatedAt = f.db.tick()
	f.db.lessons[lessonID] = lesson
	return &lesson, nil
}

func (f fakeLessons) Cancel(_ context.Context, lessonID int64, canceledBy string) (*models.Lesson, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	lesson, ok := f.db.lessons[lessonID]
	if !ok || lesson.Status == models.LessonCanceled {
		return nil, repository.ErrNotFound
	}
	now := f.db.tick()
	by := canceledBy
	lesson.Status = models.LessonCanceled
	lesson.CanceledAt = &now
	lesson.CanceledBy = &by
	lesson.UpdatedAt = now
	f.db.lessons[lessonID] = lesson
	return &lesson, nil
}

func (f fakeLessons) Delete(_ context.Context, lessonID int64) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.lessons[lessonID]; !ok {
		return repository.ErrNotFound
	}
	delete(f.db.lessons, lessonID)
	for id, invoice := range f.db.invoices {
		if invoice.LessonID == lessonID {
			delete(f.db.invoices, id)
		}
	}
	return nil
}

type fakeInvoices struct{ db *fakeDB }

func (f fakeInvoices) Create(_ context.Context, input repository.CreateInvoiceInput) (*models.Invoice, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, invoice := range f.db.invoices {
		if invoice.LessonID == input.LessonID {
			return nil, duplicate("invoices_lesson_id_key")
		}
		if invoice.InvoiceUID == input.InvoiceUID {
			return nil, duplicate("invoices_invoice_uid_key")
		}
	}
	invoice := models.Invoice{
		ID:          f.db.id(),
		InvoiceUID:  input.InvoiceUID,
		LessonID:    input.LessonID,
		StudentUID:  input.StudentUID,
		CoachUID:    input.CoachUID,
		Amount:      input.Amount,
		Status:      input.Status,
		GeneratedAt: f.db.tick(),
	}
	f.db.invoices[invoice.ID] = invoice
	return &invoice, nil
}

func (f fakeInvoices) GetByLessonID(_ context.Context, lessonID int64) (*models.Invoice, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, invoice := range f.db.invoices {
		if invoice.LessonID == lessonID {
			return &invoice, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f fakeInvoices) GetByUIDForUpdate(_ context.Context, invoiceUID, studentUID string) (*models.Invoice, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, invoice := range f.db.invoices {
		if invoice.InvoiceUID == invoiceUID && invoice.StudentUID == studentUID {
			return &invoice, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f fakeInvoices) ListByLessonIDs(_ context.Context, lessonIDs []int64) (map[int64]models.Invoice, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	wanted := make(map[int64]bool, len(lessonIDs))
	for _, id := range lessonIDs {
		wanted[id] = true
	}
	result := make(map[int64]models.Invoice)
	for _, invoice := range f.db.invoices {
		if wanted[invoice.LessonID] {
			result[invoice.LessonID] = invoice
		}
	}
	return result, nil
}

func (f fakeInvoices) ListCurrent(_ context.Context, studentUID string) ([]models.Invoice, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	invoices := make([]models.Invoice, 0)
	for _, invoice := range f.db.invoices {
		if invoice.StudentUID != studentUID ||
			invoice.Status == models.InvoiceCanceled || invoice.Status == models.InvoiceCanceledCoach {
			continue
		}
		invoices = append(invoices, invoice)
	}
	sort.Slice(invoices, func(i, j int) bool {
		ui, uj := invoices[i].Status == models.InvoiceUnpaid, invoices[j].Status == models.InvoiceUnpaid
		if ui != uj {
			return ui
		}
		return invoices[i].GeneratedAt.After(invoices[j].GeneratedAt)
	})
	return invoices, nil
}

func (f fakeInvoices) CountByStudentStatus(
	_ context.Context,
	studentUID string,
	statuses ...models.InvoiceStatus,
) (int, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	count := 0
	for _, invoice := range f.db.invoices {
		if invoice.StudentUID != studentUID {
			continue
		}
		for _, status := range statuses {
			if invoice.Status == status {
				count++
				break
			}
		}
	}
	return count, nil
}

func (f fakeInvoices) SetStatusByLessonID(
	_ context.Context,
	lessonID int64,
	status models.InvoiceStatus,
) (*models.Invoice, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for id, invoice := range f.db.invoices {
		if invoice.LessonID == lessonID {
			invoice.Status = status
			f.db.invoices[id] = invoice
			return &invoice, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f fakeInvoices) MarkPaidIfCurrent(
	_ context.Context,
	invoiceID int64,
	current models.InvoiceStatus,
) (*models.Invoice, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	invoice, ok := f.db.invoices[invoiceID]
	if !ok || invoice.Status != current {
		return nil, repository.ErrNotFound
	}
	now := f.db.tick()
	invoice.Status = models.InvoicePaid
	invoice.PaidAt = &now
	f.db.invoices[invoiceID] = invoice
	return &invoice, nil
}

type fakeFavorites struct{ db *fakeDB }

func (f fakeFavorites) List(_ context.Context, studentUID string) ([]string, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	return append([]string{}, f.db.favorites[studentUID]...), nil
}

func (f fakeFavorites) Add(_ context.Context, studentUID, coachUID string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, uid := range f.db.favorites[studentUID] {
		if uid == coachUID {
			return duplicate("favorite_coaches_student_uid_coach_uid_key")
		}
	}
	f.db.favorites[studentUID] = append(f.db.favorites[studentUID], coachUID)
	return nil
}

func (f fakeFavorites) Remove(_ context.Context, studentUID, coachUID string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	uids := f.db.favorites[studentUID]
	for i, uid := range uids {
		if uid == coachUID {
			f.db.favorites[studentUID] = append(uids[:i:i], uids[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeEvents struct{ db *fakeDB }

func (f fakeEvents) Append(_ context.Context, event models.LessonEvent) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	event.ID = f.db.id()
	event.CreatedAt = f.db.tick()
	f.db.events = append(f.db.events, event)
	return nil
}

func (f fakeEvents) ClaimUnpublished(_ context.Context, limit int) ([]models.LessonEvent, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	events := make([]models.LessonEvent, 0)
	for _, event := range f.db.events {
		if event.PublishedAt == nil && len(events) < limit {
			events = append(events, event)
		}
	}
	return events, nil
}

func (f fakeEvents) MarkPublished(_ context.Context, ids []int64) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	published := make(map[int64]bool, len(ids))
	for _, id := range ids {
		published[id] = true
	}
	now := f.db.tick()
	for i := range f.db.events {
		if published[f.db.events[i].ID] {
			f.db.events[i].PublishedAt = &now
		}
	}
	return nil
}

// recordingNotifier collects feed notifications.
type recordingNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (n *recordingNotifier) AvailabilityChanged(coachUID, date string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, coachUID+"@"+date)
}

func (n *recordingNotifier) Calls() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.calls...)
}
