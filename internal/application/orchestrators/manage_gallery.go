package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"shepherd/internal/domain/gallery"
)

// GalleryWriter is the gallery store surface used by admin flows.
type GalleryWriter interface {
	GetAlbum(ctx context.Context, id string) (gallery.Album, error)
	SaveAlbum(ctx context.Context, a gallery.Album) error
	DeleteAlbum(ctx context.Context, id string) error
	GetMedia(ctx context.Context, id string) (gallery.Media, error)
	SaveMedia(ctx context.Context, m gallery.Media) error
	DeleteMedia(ctx context.Context, id string) error
	ListMedia(ctx context.Context, albumID string) ([]gallery.Media, error)
}

// MediaLiker increments a media like counter.
type MediaLiker interface {
	Like(ctx context.Context, id string) (int, error)
}

// GalleryDeps holds dependencies shared by the gallery flows.
type GalleryDeps struct {
	GalleryStore GalleryWriter
	Files        FileStore
	Clock        Clock
	NewID        IDGenerator
}

// SaveAlbumInput carries a create (empty ID) or update of an album.
type SaveAlbumInput struct {
	ID          string
	Title       string
	Description string
	EventDate   time.Time
}

// ExecuteSaveAlbum creates or updates an album.
func ExecuteSaveAlbum(ctx context.Context, in SaveAlbumInput, deps GalleryDeps) (gallery.Album, error) {
	a := gallery.Album{ID: deps.NewID.next(), CreatedAt: deps.Clock.now()}
	if in.ID != "" {
		existing, err := deps.GalleryStore.GetAlbum(ctx, in.ID)
		if err != nil {
			return gallery.Album{}, lookupFailed(err, gallery.ErrAlbumNotFound, "album")
		}
		a = existing
	}
	a.Title = strings.TrimSpace(in.Title)
	a.Description = strings.TrimSpace(in.Description)
	a.EventDate = in.EventDate
	if err := a.Validate(); err != nil {
		return gallery.Album{}, invalid(err)
	}
	if err := deps.GalleryStore.SaveAlbum(ctx, a); err != nil {
		return gallery.Album{}, err
	}
	slog.Info("gallery_event", "event", "album_saved", "album_id", a.ID)
	return a, nil
}

// ExecuteDeleteAlbum removes an album with its media rows, then their files.
// POST: every file delete failure is logged; the album stays deleted
func ExecuteDeleteAlbum(ctx context.Context, id string, deps GalleryDeps) error {
	if _, err := deps.GalleryStore.GetAlbum(ctx, id); err != nil {
		return lookupFailed(err, gallery.ErrAlbumNotFound, "album")
	}
	media, err := deps.GalleryStore.ListMedia(ctx, id)
	if err != nil {
		return fmt.Errorf("list album media: %w", err)
	}
	if err := deps.GalleryStore.DeleteAlbum(ctx, id); err != nil {
		return fmt.Errorf("delete album: %w", err)
	}
	for _, m := range media {
		discardFile(ctx, deps.Files, m.Path)
	}
	slog.Info("gallery_event", "event", "album_deleted", "album_id", id, "media", len(media))
	return nil
}

// UploadMediaInput adds one file to an album.
type UploadMediaInput struct {
	AlbumID string
	Caption string
	File    Upload
}

// ExecuteUploadMedia stores a file and records it in an album.
// PRE: album exists; file has an image or video extension
// POST: on record failure the stored file is removed again
func ExecuteUploadMedia(ctx context.Context, in UploadMediaInput, deps GalleryDeps) (gallery.Media, error) {
	if _, err := deps.GalleryStore.GetAlbum(ctx, in.AlbumID); err != nil {
		return gallery.Media{}, lookupFailed(err, gallery.ErrAlbumNotFound, "album")
	}
	m := gallery.Media{
		ID:        deps.NewID.next(),
		AlbumID:   in.AlbumID,
		Caption:   strings.TrimSpace(in.Caption),
		CreatedAt: deps.Clock.now(),
	}
	if len(m.Caption) > gallery.MaxCaptionLength {
		return gallery.Media{}, invalid(gallery.ErrCaptionTooLong)
	}

	saved, err := storeUpload(ctx, deps.Files, &in.File, FolderGallery)
	if err != nil {
		return gallery.Media{}, err
	}
	m.Path, m.ThumbPath = saved.Path, saved.ThumbPath
	if err := deps.GalleryStore.SaveMedia(ctx, m); err != nil {
		discardFile(ctx, deps.Files, saved.Path)
		return gallery.Media{}, err
	}
	slog.Info("gallery_event", "event", "media_uploaded", "media_id", m.ID, "album_id", m.AlbumID, "path", m.Path)
	return m, nil
}

// UpdateMediaInput edits a caption and optionally replaces the file.
type UpdateMediaInput struct {
	ID      string
	Caption string
	File    *Upload
}

// ExecuteUpdateMedia updates a media item.
// POST: new file saved, record updated, then old file deleted (logged on failure)
func ExecuteUpdateMedia(ctx context.Context, in UpdateMediaInput, deps GalleryDeps) (gallery.Media, error) {
	m, err := deps.GalleryStore.GetMedia(ctx, in.ID)
	if err != nil {
		return gallery.Media{}, lookupFailed(err, gallery.ErrMediaNotFound, "media")
	}
	m.Caption = strings.TrimSpace(in.Caption)
	if err := m.Validate(); err != nil {
		return gallery.Media{}, invalid(err)
	}

	saved, err := storeUpload(ctx, deps.Files, in.File, FolderGallery)
	if err != nil {
		return gallery.Media{}, err
	}
	oldPath := m.Path
	if saved.Path != "" {
		m.Path, m.ThumbPath = saved.Path, saved.ThumbPath
	}
	if err := deps.GalleryStore.SaveMedia(ctx, m); err != nil {
		discardFile(ctx, deps.Files, saved.Path)
		return gallery.Media{}, err
	}
	if saved.Path != "" {
		discardFile(ctx, deps.Files, oldPath)
	}
	slog.Info("gallery_event", "event", "media_updated", "media_id", m.ID, "file_replaced", saved.Path != "")
	return m, nil
}

// ExecuteDeleteMedia removes the media record and then its file.
func ExecuteDeleteMedia(ctx context.Context, id string, deps GalleryDeps) error {
	m, err := deps.GalleryStore.GetMedia(ctx, id)
	if err != nil {
		return lookupFailed(err, gallery.ErrMediaNotFound, "media")
	}
	if err := deps.GalleryStore.DeleteMedia(ctx, id); err != nil {
		return fmt.Errorf("delete media: %w", err)
	}
	discardFile(ctx, deps.Files, m.Path)
	slog.Info("gallery_event", "event", "media_deleted", "media_id", id)
	return nil
}

// ExecuteLikeMedia adds one like and returns the new total.
func ExecuteLikeMedia(ctx context.Context, id string, store MediaLiker) (int, error) {
	likes, err := store.Like(ctx, id)
	if err != nil {
		return 0, lookupFailed(err, gallery.ErrMediaNotFound, "media")
	}
	return likes, nil
}
