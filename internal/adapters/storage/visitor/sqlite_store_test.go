package visitor_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"shepherd/internal/adapters/storage"
	"shepherd/internal/adapters/storage/storagetest"
	visitorStore "shepherd/internal/adapters/storage/visitor"
	"shepherd/internal/domain/attendance"
	domain "shepherd/internal/domain/visitor"
)

func TestRecordVisit_CreatesThenIncrements(t *testing.T) {
	db := storagetest.Open(t)
	store := visitorStore.NewSQLiteStore(db)
	ctx := context.Background()
	day1 := time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 7)

	first, err := store.RecordVisit(ctx, domain.Visitor{ID: "v1", Name: "Esi", Phone: "0201234567", Email: "esi@example.com", Source: domain.SourceFriend}, day1)
	if err != nil {
		t.Fatalf("first visit: %v", err)
	}
	if first.VisitCount != 1 || !first.IsFirstVisit() || first.ID != "v1" {
		t.Fatalf("first = %+v", first)
	}

	second, err := store.RecordVisit(ctx, domain.Visitor{ID: "ignored", Name: "Esi Owusu", Phone: "0201234567"}, day2)
	if err != nil {
		t.Fatalf("second visit: %v", err)
	}
	if second.ID != "v1" || second.VisitCount != 2 {
		t.Errorf("second = %+v", second)
	}
	if second.Name != "Esi Owusu" {
		t.Errorf("name not refreshed: %q", second.Name)
	}
	if second.Email != "esi@example.com" || second.Source != domain.SourceFriend {
		t.Errorf("optional fields were blanked: %+v", second)
	}
	if !second.LastVisitDate.Equal(day2) || !second.FirstVisitDate.Equal(day1) {
		t.Errorf("dates = %v / %v", second.FirstVisitDate, second.LastVisitDate)
	}
}

func TestGetByPhone_NotFound(t *testing.T) {
	store := visitorStore.NewSQLiteStore(storagetest.Open(t))
	if _, err := store.GetByPhone(context.Background(), "0000000000"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestReportingQueries(t *testing.T) {
	db := storagetest.Open(t)
	store := visitorStore.NewSQLiteStore(db)
	ctx := context.Background()
	may := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	june := time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC)

	storagetest.Exec(t, db, `INSERT INTO service (id, name, day, start_time, created_at) VALUES ('sunday-am', 'Sunday', 'sunday', '09:00', ?)`, storage.FormatTime(may))
	mustVisit := func(id, phone, source string, at time.Time) {
		t.Helper()
		if _, err := store.RecordVisit(ctx, domain.Visitor{ID: id, Name: id, Phone: phone, Source: source}, at); err != nil {
			t.Fatal(err)
		}
	}
	mustVisit("old", "0200000001", domain.SourceWalkIn, may)
	mustVisit("new1", "0200000002", domain.SourceFriend, june)
	mustVisit("new2", "0200000003", domain.SourceFriend, june)
	mustVisit("new3", "0200000004", "", june)
	mustVisit("old", "0200000001", "", june)
	storagetest.Exec(t, db, `INSERT INTO attendance (id, visitor_id, service_id, check_in_date, check_in_time, status) VALUES ('x', 'old', 'sunday-am', '2024-06-02', ?, 'visitor')`, storage.FormatTime(june))

	start, end := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	if n, err := store.CountFirstVisitsBetween(ctx, start, end); err != nil || n != 3 {
		t.Errorf("first visits = %d, %v; want 3", n, err)
	}
	if n, err := store.CountReturningBetween(ctx, start, end); err != nil || n != 1 {
		t.Errorf("returning = %d, %v; want 1", n, err)
	}
	sources, err := store.TopSources(ctx, start, end, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(sources) != 1 || sources[0] != (visitorStore.SourceCount{Source: domain.SourceFriend, Count: 2}) {
		t.Errorf("sources = %+v", sources)
	}
}

func TestRecordCheckIn_RollsBackVisitWhenAttendanceFails(t *testing.T) {
	db := storagetest.Open(t)
	store := visitorStore.NewSQLiteStore(db)
	ctx := context.Background()
	storagetest.Exec(t, db, `INSERT INTO service (id, name, day, start_time, created_at) VALUES ('sunday-am', 'Sunday Morning', 'sunday', '09:00', '2024-01-01T00:00:00Z')`)
	at := time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC)
	esi := domain.Visitor{ID: "v1", Name: "Esi", Phone: "0201234567"}

	first, err := store.RecordCheckIn(ctx, esi, attendance.NewVisitorAttendance("a1", "", "sunday-am", "2024-06-02", at), at)
	if err != nil {
		t.Fatalf("first check-in: %v", err)
	}
	var visitorID string
	if err := db.QueryRow(`SELECT visitor_id FROM attendance WHERE id = 'a1'`).Scan(&visitorID); err != nil || visitorID != first.ID {
		t.Fatalf("attendance visitor_id = %q, err = %v", visitorID, err)
	}

	// reused attendance id: the insert fails after the upsert
	if _, err := store.RecordCheckIn(ctx, esi, attendance.NewVisitorAttendance("a1", "", "sunday-am", "2024-06-02", at), at.Add(time.Hour)); err == nil {
		t.Fatal("duplicate attendance id accepted")
	}
	got, err := store.GetByPhone(ctx, "0201234567")
	if err != nil {
		t.Fatal(err)
	}
	if got.VisitCount != 1 || !got.LastVisitDate.Equal(at) {
		t.Errorf("visitor after failed check-in = %+v", got)
	}

	// unknown service: a first-time visitor is not created
	if _, err := store.RecordCheckIn(ctx, domain.Visitor{ID: "v2", Name: "Kofi", Phone: "0201234568"}, attendance.NewVisitorAttendance("a2", "", "friday", "2024-06-02", at), at); err == nil {
		t.Fatal("check-in for unknown service accepted")
	}
	if _, err := store.GetByPhone(ctx, "0201234568"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
