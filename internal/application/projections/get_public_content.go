package projections

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"shepherd/internal/adapters/storage/blog"
	"shepherd/internal/adapters/storage/event"
	"shepherd/internal/application/listutil"
	"shepherd/internal/domain/checkin"
	domainBlog "shepherd/internal/domain/blog"
)

// mdRenderer escapes raw HTML in markdown input (WithUnsafe is not set).
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// renderMarkdown converts markdown to HTML.
func renderMarkdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// --- Sermons ---

// SermonView is a sermon with its notes rendered.
type SermonView struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Preacher   string `json:"preacher"`
	Scripture  string `json:"scripture,omitempty"`
	VideoID    string `json:"videoId,omitempty"`
	NotesHTML  string `json:"notesHtml,omitempty"`
	PreachedOn string `json:"preachedOn"`
}

// SermonListResult is one page of sermons, most recent first.
type SermonListResult struct {
	Sermons []SermonView      `json:"sermons"`
	Page    listutil.PageInfo `json:"page"`
}

// QuerySermons returns one page of sermons with rendered notes.
func QuerySermons(ctx context.Context, params listutil.PageParams, store SermonStore) (SermonListResult, error) {
	total, err := store.Count(ctx)
	if err != nil {
		return SermonListResult{}, fmt.Errorf("count sermons: %w", err)
	}
	page := listutil.NewPageInfo(params.Page, params.PerPage, total)
	sermons, err := store.List(ctx, page.PerPage, page.Offset())
	if err != nil {
		return SermonListResult{}, fmt.Errorf("list sermons: %w", err)
	}
	out := make([]SermonView, 0, len(sermons))
	for _, s := range sermons {
		view, err := ToSermonView(s)
		if err != nil {
			return SermonListResult{}, err
		}
		out = append(out, view)
	}
	return SermonListResult{Sermons: out, Page: page}, nil
}

// --- Blog ---

// PostSummary is a blog post without its body.
type PostSummary struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	CoverPath   string    `json:"coverPath,omitempty"`
	Status      string    `json:"status"`
	PublishedAt time.Time `json:"publishedAt,omitzero"`
}

// PostView is a full blog post with rendered content.
type PostView struct {
	PostSummary
	ContentHTML string `json:"contentHtml"`
	Content     string `json:"content,omitempty"` // markdown source, drafts only
}

func summarise(p domainBlog.Post) PostSummary {
	return PostSummary{ID: p.ID, Title: p.Title, Slug: p.Slug, CoverPath: p.CoverPath, Status: p.Status, PublishedAt: p.PublishedAt}
}

// PostListResult is one page of posts.
type PostListResult struct {
	Posts []PostSummary     `json:"posts"`
	Page  listutil.PageInfo `json:"page"`
}

// QueryPosts lists posts, newest first. Public callers see published posts only.
func QueryPosts(ctx context.Context, params listutil.PageParams, includeDrafts bool, store PostStore) (PostListResult, error) {
	filter := blog.ListFilter{Status: domainBlog.StatusPublished}
	if includeDrafts {
		filter.Status = ""
	}
	all, err := store.List(ctx, filter)
	if err != nil {
		return PostListResult{}, fmt.Errorf("list posts: %w", err)
	}
	page := listutil.NewPageInfo(params.Page, params.PerPage, len(all))
	end := min(page.Offset()+page.PerPage, len(all))
	out := make([]PostSummary, 0, end-page.Offset())
	for _, p := range all[page.Offset():end] {
		out = append(out, summarise(p))
	}
	return PostListResult{Posts: out, Page: page}, nil
}

// QueryPostBySlug returns one post with its markdown rendered.
// POST: NOT_FOUND for unknown slugs, and for drafts unless includeDrafts
func QueryPostBySlug(ctx context.Context, slug string, includeDrafts bool, store PostStore) (PostView, error) {
	p, err := store.GetBySlug(ctx, slug)
	if errors.Is(err, domainBlog.ErrNotFound) || (err == nil && !includeDrafts && !p.IsPublished()) {
		return PostView{}, checkin.NewError(checkin.CodeNotFound, "post not found")
	}
	if err != nil {
		return PostView{}, fmt.Errorf("load post: %w", err)
	}
	return ToPostView(p, includeDrafts)
}

// --- Events ---

// EventView is one upcoming event.
type EventView struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	StartsAt    time.Time `json:"startsAt"`
	EndsAt      time.Time `json:"endsAt,omitzero"`
	ImagePath   string    `json:"imagePath,omitempty"`
}

// QueryUpcomingEvents lists events starting after now, soonest first.
// PRE: limit <= 0 means no limit
func QueryUpcomingEvents(ctx context.Context, now time.Time, limit int, store EventStore) ([]EventView, error) {
	events, err := store.List(ctx, event.ListFilter{After: now, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	out := make([]EventView, 0, len(events))
	for _, e := range events {
		out = append(out, ToEventView(e))
	}
	return out, nil
}

// --- Gallery ---

// AlbumView is an album with its media count and cover thumbnail.
type AlbumView struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	EventDate   string `json:"eventDate,omitempty"`
	MediaCount  int    `json:"mediaCount"`
	CoverThumb  string `json:"coverThumb,omitempty"`
}

// QueryAlbums lists every album.
func QueryAlbums(ctx context.Context, store GalleryStore) ([]AlbumView, error) {
	albums, err := store.ListAlbums(ctx)
	if err != nil {
		return nil, fmt.Errorf("list albums: %w", err)
	}
	out := make([]AlbumView, 0, len(albums))
	for _, a := range albums {
		v := ToAlbumView(a.Album)
		v.MediaCount, v.CoverThumb = a.MediaCount, a.CoverThumb
		out = append(out, v)
	}
	return out, nil
}

// QueryAlbumMedia lists the media in one album.
func QueryAlbumMedia(ctx context.Context, albumID string, store GalleryStore) ([]MediaItem, error) {
	media, err := store.ListMedia(ctx, albumID)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	return toMediaItems(media), nil
}
