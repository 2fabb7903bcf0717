package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"shepherd/internal/domain/attendance"
	"shepherd/internal/domain/member"
	"shepherd/internal/domain/outbox"
	"shepherd/internal/domain/service"
	"shepherd/internal/domain/visitor"
)

var fixedTime = time.Date(2024, 6, 2, 9, 15, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

// sequentialIDs returns ids id-1, id-2, ...
func sequentialIDs() IDGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

var errDBDown = errors.New("database is locked")

// mockServiceStore implements ServiceLookup.
type mockServiceStore struct {
	services map[string]service.Service
	err      error
}

func newMockServiceStore(svcs ...service.Service) *mockServiceStore {
	m := &mockServiceStore{services: map[string]service.Service{}}
	for _, s := range svcs {
		m.services[s.ID] = s
	}
	return m
}

func (m *mockServiceStore) GetByID(_ context.Context, id string) (service.Service, error) {
	if m.err != nil {
		return service.Service{}, m.err
	}
	s, ok := m.services[id]
	if !ok {
		return service.Service{}, fmt.Errorf("service %s: %w", id, service.ErrNotFound)
	}
	return s, nil
}

var sundayAM = service.Service{ID: "sunday-am", Name: "Sunday Morning", Day: service.Sunday, StartTime: "09:00"}

// mockMemberStore implements CheckInMemberStore.
type mockMemberStore struct {
	members []member.Member
	err     error
	calls   int
}

func (m *mockMemberStore) GetByEmailAndPhone(_ context.Context, email, phone string) (member.Member, error) {
	m.calls++
	if m.err != nil {
		return member.Member{}, m.err
	}
	for _, mem := range m.members {
		if strings.EqualFold(mem.Email, email) && mem.Phone == phone {
			return mem, nil
		}
	}
	return member.Member{}, member.ErrNotFound
}

// mockAttendanceStore implements MemberAttendanceStore and holds the visitor rows
// written through mockVisitorStore.
// It mirrors the partial unique index on member sessions.
type mockAttendanceStore struct {
	mu   sync.Mutex
	rows []attendance.Attendance
	// raceWinner, when set, is inserted just before the caller's row as if a
	// concurrent request got there first.
	raceWinner *attendance.Attendance
	insertErr  error
}

func (m *mockAttendanceStore) GetMemberCheckIn(_ context.Context, memberID, serviceID, date string) (attendance.Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.MemberID == memberID && r.ServiceID == serviceID && r.CheckInDate == date {
			return r, nil
		}
	}
	return attendance.Attendance{}, attendance.ErrNotFound
}

func (m *mockAttendanceStore) InsertMemberCheckIn(_ context.Context, a attendance.Attendance) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return false, m.insertErr
	}
	if m.raceWinner != nil {
		m.rows = append(m.rows, *m.raceWinner)
		m.raceWinner = nil
	}
	for _, r := range m.rows {
		if r.MemberID == a.MemberID && r.ServiceID == a.ServiceID && r.CheckInDate == a.CheckInDate {
			return false, nil
		}
	}
	m.rows = append(m.rows, a)
	return true, nil
}

func (m *mockAttendanceStore) Insert(_ context.Context, a attendance.Attendance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.rows = append(m.rows, a)
	return nil
}

// mockVisitorStore implements VisitorRecorder with upsert-by-phone semantics.
// The visitor change is kept only when the attendance insert succeeds.
type mockVisitorStore struct {
	byPhone    map[string]visitor.Visitor
	attendance *mockAttendanceStore
	err        error
}

func newMockVisitorStore(att *mockAttendanceStore) *mockVisitorStore {
	return &mockVisitorStore{byPhone: map[string]visitor.Visitor{}, attendance: att}
}

func (m *mockVisitorStore) RecordCheckIn(ctx context.Context, v visitor.Visitor, a attendance.Attendance, now time.Time) (visitor.Visitor, error) {
	if m.err != nil {
		return visitor.Visitor{}, m.err
	}
	stored, ok := m.byPhone[v.Phone]
	if !ok {
		stored = v
		stored.VisitCount = 1
		stored.FirstVisitDate, stored.LastVisitDate, stored.CreatedAt = now, now, now
	} else {
		stored.VisitCount++
		stored.LastVisitDate = now
		stored.Name = v.Name
		if v.Email != "" {
			stored.Email = v.Email
		}
	}
	a.VisitorID = stored.ID
	if err := m.attendance.Insert(ctx, a); err != nil {
		return visitor.Visitor{}, err
	}
	m.byPhone[v.Phone] = stored
	return stored, nil
}

// mockOutboxStore implements OutboxWriter.
type mockOutboxStore struct {
	entries map[string]outbox.Entry
	err     error
}

func newMockOutboxStore() *mockOutboxStore {
	return &mockOutboxStore{entries: map[string]outbox.Entry{}}
}

func (m *mockOutboxStore) Save(_ context.Context, e outbox.Entry) error {
	if m.err != nil {
		return m.err
	}
	m.entries[e.ID] = e
	return nil
}

// mockRecorder implements CheckInRecorder and TokenRecorder.
type mockRecorder struct {
	checkins []string
	tokens   []string
}

func (m *mockRecorder) CheckIn(kind, outcome string) {
	m.checkins = append(m.checkins, kind+"/"+outcome)
}

func (m *mockRecorder) TokenValidation(outcome string) {
	m.tokens = append(m.tokens, outcome)
}
