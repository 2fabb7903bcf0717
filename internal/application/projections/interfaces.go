package projections

import (
	"context"
	"time"

	"shepherd/internal/adapters/storage/attendance"
	"shepherd/internal/adapters/storage/blog"
	"shepherd/internal/adapters/storage/event"
	"shepherd/internal/adapters/storage/finance"
	"shepherd/internal/adapters/storage/gallery"
	"shepherd/internal/adapters/storage/member"
	"shepherd/internal/adapters/storage/visitor"
	domainBlog "shepherd/internal/domain/blog"
	domainEvent "shepherd/internal/domain/event"
	domainFinance "shepherd/internal/domain/finance"
	domainGallery "shepherd/internal/domain/gallery"
	domainMember "shepherd/internal/domain/member"
	domainSermon "shepherd/internal/domain/sermon"
	domainService "shepherd/internal/domain/service"
	domainVisitor "shepherd/internal/domain/visitor"
)

// MemberStore interface for member queries.
type MemberStore interface {
	List(ctx context.Context, filter member.ListFilter) ([]domainMember.Member, error)
	Count(ctx context.Context, filter member.ListFilter) (int, error)
	CountJoinedBetween(ctx context.Context, start, end time.Time) (int, error)
	GroupBreakdown(ctx context.Context) ([]member.GroupCount, error)
}

// VisitorStore interface for visitor queries.
type VisitorStore interface {
	List(ctx context.Context, filter visitor.ListFilter) ([]domainVisitor.Visitor, error)
	Count(ctx context.Context, filter visitor.ListFilter) (int, error)
	CountFirstVisitsBetween(ctx context.Context, start, end time.Time) (int, error)
	CountReturningBetween(ctx context.Context, start, end time.Time) (int, error)
	TopSources(ctx context.Context, start, end time.Time, limit int) ([]visitor.SourceCount, error)
}

// AttendanceStore interface for attendance aggregates.
type AttendanceStore interface {
	ListSession(ctx context.Context, serviceID, date string) ([]attendance.SessionRow, error)
	CountBetween(ctx context.Context, start, end time.Time) (attendance.Counts, error)
	CountByServiceBetween(ctx context.Context, start, end time.Time) ([]attendance.ServiceCount, error)
	CountSessionsBetween(ctx context.Context, start, end time.Time) (int, error)
	MemberSessionsBetween(ctx context.Context, start, end time.Time) (map[string]int, error)
}

// FinanceStore interface for ledger queries.
type FinanceStore interface {
	List(ctx context.Context, filter finance.ListFilter) ([]domainFinance.Transaction, error)
	Count(ctx context.Context, filter finance.ListFilter) (int, error)
	TotalsBetween(ctx context.Context, fromDate, toDate string) (domainFinance.Totals, error)
	PaymentMonthsBetween(ctx context.Context, kind, fromDate, toDate string) (map[string]int, error)
}

// GalleryStore interface for gallery queries.
type GalleryStore interface {
	ListAlbums(ctx context.Context) ([]gallery.AlbumSummary, error)
	ListMedia(ctx context.Context, albumID string) ([]domainGallery.Media, error)
	Stats(ctx context.Context, start, end time.Time) (gallery.Stats, error)
	TopLiked(ctx context.Context, limit int) ([]domainGallery.Media, error)
}

// EventStore interface for event queries.
type EventStore interface {
	List(ctx context.Context, filter event.ListFilter) ([]domainEvent.Event, error)
	CountStartingBetween(ctx context.Context, start, end time.Time) (int, error)
}

// ServiceStore interface for service lookups.
type ServiceStore interface {
	GetByID(ctx context.Context, id string) (domainService.Service, error)
	List(ctx context.Context) ([]domainService.Service, error)
}

// SermonStore interface for sermon queries.
type SermonStore interface {
	List(ctx context.Context, limit, offset int) ([]domainSermon.Sermon, error)
	Count(ctx context.Context) (int, error)
}

// PostStore interface for blog queries.
type PostStore interface {
	GetBySlug(ctx context.Context, slug string) (domainBlog.Post, error)
	List(ctx context.Context, filter blog.ListFilter) ([]domainBlog.Post, error)
}
