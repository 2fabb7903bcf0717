package projections

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	attendanceStore "shepherd/internal/adapters/storage/attendance"
	blogStore "shepherd/internal/adapters/storage/blog"
	eventStore "shepherd/internal/adapters/storage/event"
	financeStore "shepherd/internal/adapters/storage/finance"
	galleryStore "shepherd/internal/adapters/storage/gallery"
	memberStore "shepherd/internal/adapters/storage/member"
	sermonStore "shepherd/internal/adapters/storage/sermon"
	serviceStore "shepherd/internal/adapters/storage/service"
	"shepherd/internal/adapters/storage/storagetest"
	visitorStore "shepherd/internal/adapters/storage/visitor"
	"shepherd/internal/domain/attendance"
	"shepherd/internal/domain/event"
	"shepherd/internal/domain/finance"
	"shepherd/internal/domain/gallery"
	"shepherd/internal/domain/member"
	"shepherd/internal/domain/service"
	"shepherd/internal/domain/visitor"
)

// Wednesday 2024-05-15 10:30 UTC. "month" is May 1 to now, previous is
// April 1 to April 15 10:30.
var now = time.Date(2024, 5, 15, 10, 30, 0, 0, time.UTC)

func day(m time.Month, d int) time.Time { return time.Date(2024, m, d, 9, 0, 0, 0, time.UTC) }

type fixture struct {
	deps     ReportDeps
	services *serviceStore.SQLiteStore
	sermons  *sermonStore.SQLiteStore
	posts    *blogStore.SQLiteStore
	gallery  *galleryStore.SQLiteStore
	events   *eventStore.SQLiteStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := storagetest.Open(t)
	f := &fixture{
		deps: ReportDeps{
			Attendance: attendanceStore.NewSQLiteStore(db),
			Members:    memberStore.NewSQLiteStore(db),
			Visitors:   visitorStore.NewSQLiteStore(db),
			Finance:    financeStore.NewSQLiteStore(db),
			Gallery:    galleryStore.NewSQLiteStore(db),
			Events:     eventStore.NewSQLiteStore(db),
			Now:        func() time.Time { return now },
		},
		services: serviceStore.NewSQLiteStore(db),
		sermons:  sermonStore.NewSQLiteStore(db),
		posts:    blogStore.NewSQLiteStore(db),
	}
	f.gallery = f.deps.Gallery.(*galleryStore.SQLiteStore)
	f.events = f.deps.Events.(*eventStore.SQLiteStore)
	return f
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

// seedCongregation builds a small church:
//
//	members: m1 Ama (Choir, long-standing), m2 Kojo (Choir, joined May 10),
//	         m3 Esi (Ushers, inactive), m4 Yaw (Ushers, joined April 3)
//	sessions: sunday-am Apr 14, May 5, May 12; midweek May 8
//	visitors: v2 first came Apr 14 and returned May 5; v1 first came May 12
//	ledger: Ama tithes Mar/Apr/May and gives welfare in May
func seedCongregation(t *testing.T, f *fixture) {
	t.Helper()
	ctx := context.Background()
	for _, s := range []service.Service{
		{ID: "sunday-am", Name: "Sunday Morning", Day: "sunday", StartTime: "09:00", CreatedAt: day(1, 1)},
		{ID: "midweek", Name: "Midweek", Day: "wednesday", StartTime: "18:30", CreatedAt: day(1, 1)},
	} {
		must(t, f.services.Save(ctx, s))
	}

	members := f.deps.Members.(*memberStore.SQLiteStore)
	for _, m := range []member.Member{
		{ID: "m1", Name: "Ama Mensah", Email: "ama@example.org", Phone: "0241000001", GroupName: "Choir", Status: member.StatusActive, JoinedAt: time.Date(2023, 1, 8, 9, 0, 0, 0, time.UTC)},
		{ID: "m2", Name: "Kojo Asante", Email: "kojo@example.org", Phone: "0241000002", GroupName: "Choir", Status: member.StatusActive, JoinedAt: day(5, 10)},
		{ID: "m3", Name: "Esi Boateng", Email: "esi@example.org", Phone: "0241000003", GroupName: "Ushers", Status: member.StatusInactive, JoinedAt: time.Date(2023, 6, 1, 9, 0, 0, 0, time.UTC)},
		{ID: "m4", Name: "Yaw Owusu", Email: "yaw@example.org", Phone: "0241000004", GroupName: "Ushers", Status: member.StatusActive, JoinedAt: day(4, 3)},
	} {
		m.CreatedAt = m.JoinedAt
		must(t, members.Save(ctx, m))
	}

	visitors := f.deps.Visitors.(*visitorStore.SQLiteStore)
	v2, err := visitors.RecordVisit(ctx, visitor.Visitor{ID: "v2", Name: "Adwoa", Phone: "0209000002", Source: "Radio"}, day(4, 14))
	must(t, err)
	_, err = visitors.RecordVisit(ctx, visitor.Visitor{ID: "v2-again", Name: "Adwoa", Phone: "0209000002"}, day(5, 5))
	must(t, err)
	v1, err := visitors.RecordVisit(ctx, visitor.Visitor{ID: "v1", Name: "Efua", Phone: "0209000001", Source: "Friend"}, day(5, 12))
	must(t, err)

	att := f.deps.Attendance.(*attendanceStore.SQLiteStore)
	rows := []attendance.Attendance{
		attendance.NewMemberAttendance("a1", "m1", "sunday-am", "2024-04-14", day(4, 14)),
		attendance.NewMemberAttendance("a2", "m4", "sunday-am", "2024-04-14", day(4, 14).Add(time.Minute)),
		attendance.NewVisitorAttendance("a3", v2.ID, "sunday-am", "2024-04-14", day(4, 14).Add(2*time.Minute)),
		attendance.NewMemberAttendance("a4", "m1", "sunday-am", "2024-05-05", day(5, 5)),
		attendance.NewVisitorAttendance("a5", v2.ID, "sunday-am", "2024-05-05", day(5, 5).Add(time.Minute)),
		attendance.NewMemberAttendance("a6", "m1", "midweek", "2024-05-08", day(5, 8)),
		attendance.NewMemberAttendance("a7", "m1", "sunday-am", "2024-05-12", day(5, 12)),
		attendance.NewMemberAttendance("a8", "m2", "sunday-am", "2024-05-12", day(5, 12).Add(time.Minute)),
		attendance.NewVisitorAttendance("a9", v1.ID, "sunday-am", "2024-05-12", day(5, 12).Add(2*time.Minute)),
	}
	for _, a := range rows {
		must(t, att.Insert(ctx, a))
	}

	ledger := f.deps.Finance.(*financeStore.SQLiteStore)
	for _, tx := range []finance.Transaction{
		{ID: "t1", Kind: finance.KindTithe, MemberID: "m1", Amount: decimal.RequireFromString("100.00"), PaidOn: day(3, 10)},
		{ID: "t2", Kind: finance.KindTithe, MemberID: "m1", Amount: decimal.RequireFromString("100.00"), PaidOn: day(4, 7)},
		{ID: "t3", Kind: finance.KindTithe, MemberID: "m1", Amount: decimal.RequireFromString("100.00"), PaidOn: day(5, 5)},
		{ID: "t4", Kind: finance.KindWelfare, MemberID: "m1", Amount: decimal.RequireFromString("20.00"), PaidOn: day(5, 5)},
		{ID: "t5", Kind: finance.KindOffering, Amount: decimal.RequireFromString("250.00"), PaidOn: day(5, 12)},
		{ID: "t6", Kind: finance.KindExpense, Amount: decimal.RequireFromString("80.25"), PaidOn: day(5, 13)},
	} {
		tx.CreatedAt = tx.PaidOn
		must(t, ledger.Save(ctx, tx))
	}

	must(t, f.events.Save(ctx, event.Event{ID: "e1", Title: "Youth Convention", StartsAt: day(5, 18), CreatedAt: day(5, 1)}))
	must(t, f.events.Save(ctx, event.Event{ID: "e0", Title: "Easter Outreach", StartsAt: day(3, 31), CreatedAt: day(3, 1)}))
}

func seedGallery(t *testing.T, f *fixture) {
	t.Helper()
	ctx := context.Background()
	must(t, f.gallery.SaveAlbum(ctx, gallery.Album{ID: "al1", Title: "Harvest", EventDate: day(5, 5), CreatedAt: day(5, 6)}))
	for _, m := range []gallery.Media{
		{ID: "md1", AlbumID: "al1", Path: "gallery/a.jpg", ThumbPath: "gallery/thumb_a.jpg", CreatedAt: day(5, 6)},
		{ID: "md2", AlbumID: "al1", Path: "gallery/b.jpg", ThumbPath: "gallery/thumb_b.jpg", CreatedAt: day(5, 7)},
		{ID: "md0", AlbumID: "al1", Path: "gallery/old.jpg", CreatedAt: day(4, 1)},
	} {
		must(t, f.gallery.SaveMedia(ctx, m))
	}
	for _, id := range []string{"md2", "md2", "md1"} {
		_, err := f.gallery.Like(ctx, id)
		must(t, err)
	}
}
