package attendance_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"shepherd/internal/adapters/storage"
	attendanceStore "shepherd/internal/adapters/storage/attendance"
	"shepherd/internal/adapters/storage/storagetest"
	domain "shepherd/internal/domain/attendance"
)

var t0 = time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC)

func seed(t *testing.T, db *sql.DB) {
	t.Helper()
	ts := storage.FormatTime(t0)
	storagetest.Exec(t, db, `INSERT INTO service (id, name, day, start_time, created_at) VALUES ('sunday-am', 'Sunday Morning', 'sunday', '09:00', ?), ('midweek', 'Midweek', 'wednesday', '18:30', ?)`, ts, ts)
	storagetest.Exec(t, db, `INSERT INTO member (id, name, email, phone, status, joined_at, created_at) VALUES ('7', 'Ama Mensah', 'ama@example.com', '0241234567', 'active', ?, ?), ('8', 'Kojo', 'kojo@example.com', '0241234568', 'active', ?, ?)`, ts, ts, ts, ts)
	storagetest.Exec(t, db, `INSERT INTO visitor (id, name, phone, first_visit_date, last_visit_date, created_at) VALUES ('v1', 'Esi', '0201234567', ?, ?, ?)`, ts, ts, ts)
}

func TestInsertMemberCheckIn_RoundTrip(t *testing.T) {
	db := storagetest.Open(t)
	seed(t, db)
	store := attendanceStore.NewSQLiteStore(db)
	ctx := context.Background()

	inserted, err := store.InsertMemberCheckIn(ctx, domain.NewMemberAttendance("a1", "7", "sunday-am", "2024-06-02", t0))
	if err != nil || !inserted {
		t.Fatalf("first insert = %v, %v", inserted, err)
	}
	inserted, err = store.InsertMemberCheckIn(ctx, domain.NewMemberAttendance("a2", "7", "sunday-am", "2024-06-02", t0.Add(time.Minute)))
	if err != nil || inserted {
		t.Fatalf("second insert = %v, %v; want ignored", inserted, err)
	}

	got, err := store.GetMemberCheckIn(ctx, "7", "sunday-am", "2024-06-02")
	if err != nil {
		t.Fatalf("GetMemberCheckIn: %v", err)
	}
	if got.ID != "a1" || !got.CheckInTime.Equal(t0) {
		t.Errorf("got %+v, want original row", got)
	}
	if _, err := store.GetMemberCheckIn(ctx, "7", "sunday-am", "2024-06-09"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("other date err = %v, want ErrNotFound", err)
	}
}

// TestInsertMemberCheckIn_Concurrent checks only one of many racing inserts wins.
func TestInsertMemberCheckIn_Concurrent(t *testing.T) {
	db := storagetest.Open(t)
	seed(t, db)
	store := attendanceStore.NewSQLiteStore(db)

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := store.InsertMemberCheckIn(context.Background(),
				domain.NewMemberAttendance(fmt.Sprintf("r%d", i), "7", "sunday-am", "2024-06-02", t0))
			if err != nil {
				t.Errorf("insert %d: %v", i, err)
				return
			}
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	if wins != 1 {
		t.Errorf("wins = %d, want 1", wins)
	}
}

func TestInsert_VisitorRowsNotDeduplicated(t *testing.T) {
	db := storagetest.Open(t)
	seed(t, db)
	store := attendanceStore.NewSQLiteStore(db)
	ctx := context.Background()

	for _, id := range []string{"b1", "b2"} {
		if err := store.Insert(ctx, domain.NewVisitorAttendance(id, "v1", "sunday-am", "2024-06-02", t0)); err != nil {
			t.Fatalf("Insert %s: %v", id, err)
		}
	}
	rows, err := store.ListSession(ctx, "sunday-am", "2024-06-02")
	if err != nil {
		t.Fatalf("ListSession: %v", err)
	}
	if len(rows) != 2 || rows[0].Name != "Esi" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestCounts(t *testing.T) {
	db := storagetest.Open(t)
	seed(t, db)
	store := attendanceStore.NewSQLiteStore(db)
	ctx := context.Background()

	mustInsert := func(ok bool, err error) {
		t.Helper()
		if err != nil || !ok {
			t.Fatalf("insert: %v %v", ok, err)
		}
	}
	mustInsert(store.InsertMemberCheckIn(ctx, domain.NewMemberAttendance("a1", "7", "sunday-am", "2024-06-02", t0)))
	mustInsert(store.InsertMemberCheckIn(ctx, domain.NewMemberAttendance("a2", "8", "sunday-am", "2024-06-02", t0)))
	mustInsert(store.InsertMemberCheckIn(ctx, domain.NewMemberAttendance("a3", "7", "midweek", "2024-06-05", t0.AddDate(0, 0, 3))))
	if err := store.Insert(ctx, domain.NewVisitorAttendance("b1", "v1", "sunday-am", "2024-06-02", t0)); err != nil {
		t.Fatal(err)
	}
	// outside the window
	mustInsert(store.InsertMemberCheckIn(ctx, domain.NewMemberAttendance("a4", "7", "sunday-am", "2024-05-26", t0.AddDate(0, 0, -7))))

	start, end := t0.Add(-time.Hour), t0.AddDate(0, 0, 5)
	c, err := store.CountBetween(ctx, start, end)
	if err != nil {
		t.Fatalf("CountBetween: %v", err)
	}
	if c != (attendanceStore.Counts{Total: 4, Members: 3, Visitors: 1}) {
		t.Errorf("counts = %+v", c)
	}

	by, err := store.CountByServiceBetween(ctx, start, end)
	if err != nil {
		t.Fatalf("CountByServiceBetween: %v", err)
	}
	if len(by) != 2 || by[0].ServiceID != "sunday-am" || by[0].ServiceName != "Sunday Morning" || by[0].Total != 3 {
		t.Errorf("by service = %+v", by)
	}

	sessions, err := store.CountSessionsBetween(ctx, start, end)
	if err != nil || sessions != 2 {
		t.Errorf("sessions = %d, %v; want 2", sessions, err)
	}

	per, err := store.MemberSessionsBetween(ctx, start, end)
	if err != nil {
		t.Fatalf("MemberSessionsBetween: %v", err)
	}
	if per["7"] != 2 || per["8"] != 1 {
		t.Errorf("per member = %v", per)
	}

	empty, err := store.CountBetween(ctx, t0.AddDate(1, 0, 0), t0.AddDate(1, 0, 1))
	if err != nil || empty != (attendanceStore.Counts{}) {
		t.Errorf("empty window = %+v, %v", empty, err)
	}
}
