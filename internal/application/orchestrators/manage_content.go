package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"shepherd/internal/domain/blog"
	"shepherd/internal/domain/event"
	"shepherd/internal/domain/sermon"
)

// Folders under the upload root.
const (
	FolderBlog    = "blog"
	FolderEvents  = "events"
	FolderGallery = "gallery"
)

// --- Sermons ---

// SermonWriter is the sermon store surface used by admin flows.
type SermonWriter interface {
	GetByID(ctx context.Context, id string) (sermon.Sermon, error)
	Save(ctx context.Context, s sermon.Sermon) error
	Delete(ctx context.Context, id string) error
}

// SaveSermonInput carries a create (empty ID) or update of a sermon.
type SaveSermonInput struct {
	ID         string
	Title      string
	Preacher   string
	Scripture  string
	VideoURL   string
	Notes      string
	PreachedOn time.Time
}

// SaveSermonDeps holds dependencies for SaveSermon.
type SaveSermonDeps struct {
	SermonStore SermonWriter
	Clock       Clock
	NewID       IDGenerator
}

// ExecuteSaveSermon creates or updates a sermon.
// POST: VideoID is extracted from VideoURL, or cleared when there is no URL
func ExecuteSaveSermon(ctx context.Context, in SaveSermonInput, deps SaveSermonDeps) (sermon.Sermon, error) {
	s := sermon.Sermon{ID: deps.NewID.next(), CreatedAt: deps.Clock.now()}
	if in.ID != "" {
		existing, err := deps.SermonStore.GetByID(ctx, in.ID)
		if err != nil {
			return sermon.Sermon{}, lookupFailed(err, sermon.ErrNotFound, "sermon")
		}
		s = existing
	}
	s.Title = strings.TrimSpace(in.Title)
	s.Preacher = strings.TrimSpace(in.Preacher)
	s.Scripture = strings.TrimSpace(in.Scripture)
	s.VideoURL = strings.TrimSpace(in.VideoURL)
	s.Notes = in.Notes
	s.PreachedOn = in.PreachedOn
	if err := s.Validate(); err != nil {
		return sermon.Sermon{}, invalid(err)
	}
	s.VideoID = ""
	if s.VideoURL != "" {
		if err := s.ExtractVideoID(); err != nil {
			return sermon.Sermon{}, invalid(err)
		}
	}
	if err := deps.SermonStore.Save(ctx, s); err != nil {
		return sermon.Sermon{}, err
	}
	slog.Info("content_event", "event", "sermon_saved", "sermon_id", s.ID)
	return s, nil
}

// ExecuteDeleteSermon removes a sermon.
func ExecuteDeleteSermon(ctx context.Context, id string, store SermonWriter) error {
	if _, err := store.GetByID(ctx, id); err != nil {
		return lookupFailed(err, sermon.ErrNotFound, "sermon")
	}
	if err := store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete sermon: %w", err)
	}
	slog.Info("content_event", "event", "sermon_deleted", "sermon_id", id)
	return nil
}

// --- Blog posts ---

// PostWriter is the blog store surface used by admin flows.
type PostWriter interface {
	GetByID(ctx context.Context, id string) (blog.Post, error)
	Save(ctx context.Context, p blog.Post) error
	Delete(ctx context.Context, id string) error
}

// SavePostInput carries a create (empty ID) or update of a post.
type SavePostInput struct {
	ID      string
	Title   string
	Slug    string // derived from Title when empty
	Content string
	Publish bool
	Cover   *Upload // replaces the current cover when set
}

// SavePostDeps holds dependencies for SavePost.
type SavePostDeps struct {
	PostStore PostWriter
	Files     FileStore
	Clock     Clock
	NewID     IDGenerator
}

// ExecuteSavePost creates or updates a blog post, optionally replacing its cover.
// PRE: the post validates before any file is touched
// POST: new cover saved, record updated, then old cover deleted (logged on
// failure); a clashing slug yields CONFLICT, the new cover is discarded and
// the stored record keeps its old cover file
func ExecuteSavePost(ctx context.Context, in SavePostInput, deps SavePostDeps) (blog.Post, error) {
	now := deps.Clock.now()
	p := blog.Post{ID: deps.NewID.next(), Status: blog.StatusDraft, CreatedAt: now}
	if in.ID != "" {
		existing, err := deps.PostStore.GetByID(ctx, in.ID)
		if err != nil {
			return blog.Post{}, lookupFailed(err, blog.ErrNotFound, "post")
		}
		p = existing
	}
	p.Title = strings.TrimSpace(in.Title)
	p.Content = in.Content
	p.Slug = strings.TrimSpace(in.Slug)
	if p.Slug == "" {
		p.Slug = blog.Slugify(p.Title)
	}
	p.UpdatedAt = now
	if in.Publish && !p.IsPublished() {
		if err := p.Publish(now); err != nil {
			return blog.Post{}, invalid(err)
		}
	}
	if err := p.Validate(); err != nil {
		return blog.Post{}, invalid(err)
	}

	saved, err := storeUpload(ctx, deps.Files, in.Cover, FolderBlog)
	if err != nil {
		return blog.Post{}, err
	}
	oldCover := p.CoverPath
	if saved.Path != "" {
		p.CoverPath = saved.Path
	}
	if err := deps.PostStore.Save(ctx, p); err != nil {
		discardFile(ctx, deps.Files, saved.Path)
		return blog.Post{}, conflictOr(err, blog.ErrSlugTaken)
	}
	if saved.Path != "" {
		discardFile(ctx, deps.Files, oldCover)
	}
	slog.Info("content_event", "event", "post_saved", "post_id", p.ID, "slug", p.Slug, "status", p.Status)
	return p, nil
}

// ExecutePublishPost makes a draft publicly visible.
func ExecutePublishPost(ctx context.Context, id string, store PostWriter, clock Clock) (blog.Post, error) {
	p, err := store.GetByID(ctx, id)
	if err != nil {
		return blog.Post{}, lookupFailed(err, blog.ErrNotFound, "post")
	}
	now := clock.now()
	if err := p.Publish(now); err != nil {
		return blog.Post{}, invalid(err)
	}
	p.UpdatedAt = now
	if err := store.Save(ctx, p); err != nil {
		return blog.Post{}, err
	}
	slog.Info("content_event", "event", "post_published", "post_id", p.ID)
	return p, nil
}

// ExecuteDeletePost removes the post record and then its cover file.
func ExecuteDeletePost(ctx context.Context, id string, store PostWriter, fs FileStore) error {
	p, err := store.GetByID(ctx, id)
	if err != nil {
		return lookupFailed(err, blog.ErrNotFound, "post")
	}
	if err := store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	discardFile(ctx, fs, p.CoverPath)
	slog.Info("content_event", "event", "post_deleted", "post_id", id)
	return nil
}

// --- Events ---

// EventWriter is the event store surface used by admin flows.
type EventWriter interface {
	GetByID(ctx context.Context, id string) (event.Event, error)
	Save(ctx context.Context, e event.Event) error
	Delete(ctx context.Context, id string) error
}

// SaveEventInput carries a create (empty ID) or update of an event.
type SaveEventInput struct {
	ID          string
	Title       string
	Description string
	Location    string
	StartsAt    time.Time
	EndsAt      time.Time
	Image       *Upload // replaces the current image when set
}

// SaveEventDeps holds dependencies for SaveEvent.
type SaveEventDeps struct {
	EventStore EventWriter
	Files      FileStore
	Clock      Clock
	NewID      IDGenerator
}

// ExecuteSaveEvent creates or updates an event, optionally replacing its image.
// POST: same file ordering as ExecuteSavePost
func ExecuteSaveEvent(ctx context.Context, in SaveEventInput, deps SaveEventDeps) (event.Event, error) {
	e := event.Event{ID: deps.NewID.next(), CreatedAt: deps.Clock.now()}
	if in.ID != "" {
		existing, err := deps.EventStore.GetByID(ctx, in.ID)
		if err != nil {
			return event.Event{}, lookupFailed(err, event.ErrNotFound, "event")
		}
		e = existing
	}
	e.Title = strings.TrimSpace(in.Title)
	e.Description = strings.TrimSpace(in.Description)
	e.Location = strings.TrimSpace(in.Location)
	e.StartsAt = in.StartsAt
	e.EndsAt = in.EndsAt
	if err := e.Validate(); err != nil {
		return event.Event{}, invalid(err)
	}

	saved, err := storeUpload(ctx, deps.Files, in.Image, FolderEvents)
	if err != nil {
		return event.Event{}, err
	}
	oldImage := e.ImagePath
	if saved.Path != "" {
		e.ImagePath = saved.Path
	}
	if err := deps.EventStore.Save(ctx, e); err != nil {
		discardFile(ctx, deps.Files, saved.Path)
		return event.Event{}, err
	}
	if saved.Path != "" {
		discardFile(ctx, deps.Files, oldImage)
	}
	slog.Info("content_event", "event", "event_saved", "event_id", e.ID)
	return e, nil
}

// ExecuteDeleteEvent removes the event record and then its image.
func ExecuteDeleteEvent(ctx context.Context, id string, store EventWriter, fs FileStore) error {
	e, err := store.GetByID(ctx, id)
	if err != nil {
		return lookupFailed(err, event.ErrNotFound, "event")
	}
	if err := store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	discardFile(ctx, fs, e.ImagePath)
	slog.Info("content_event", "event", "event_deleted", "event_id", id)
	return nil
}
