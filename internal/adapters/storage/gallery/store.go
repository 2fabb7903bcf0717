package gallery

import (
	"context"
	"time"

	domain "shepherd/internal/domain/gallery"
)

// Store persists albums and their media.
type Store interface {
	GetAlbum(ctx context.Context, id string) (domain.Album, error)
	SaveAlbum(ctx context.Context, a domain.Album) error
	DeleteAlbum(ctx context.Context, id string) error
	ListAlbums(ctx context.Context) ([]AlbumSummary, error)

	GetMedia(ctx context.Context, id string) (domain.Media, error)
	SaveMedia(ctx context.Context, m domain.Media) error
	DeleteMedia(ctx context.Context, id string) error
	ListMedia(ctx context.Context, albumID string) ([]domain.Media, error)
	Like(ctx context.Context, id string) (int, error)

	Stats(ctx context.Context, start, end time.Time) (Stats, error)
	TopLiked(ctx context.Context, limit int) ([]domain.Media, error)
}

// AlbumSummary is an album with its media count and cover.
type AlbumSummary struct {
	domain.Album
	MediaCount int
	CoverThumb string
}

// Stats summarises gallery activity. Albums and Media count rows created
// in the window; Likes is the all-time total.
type Stats struct {
	Albums int `json:"albums"`
	Media  int `json:"media"`
	Likes  int `json:"likes"`
}
