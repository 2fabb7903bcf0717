package blog

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// Post statuses
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Max length constants for user-editable fields.
const (
	MaxTitleLength   = 200
	MaxContentLength = 100000
)

// Domain errors
var (
	ErrEmptyTitle       = errors.New("post title cannot be empty")
	ErrTitleTooLong     = errors.New("post title cannot exceed 200 characters")
	ErrEmptyContent     = errors.New("post content cannot be empty")
	ErrContentTooLong   = errors.New("post content is too long")
	ErrInvalidStatus    = errors.New("post status must be one of: draft, published")
	ErrInvalidSlug      = errors.New("slug must be lowercase letters, digits and hyphens")
	ErrAlreadyPublished = errors.New("post is already published")
	ErrSlugTaken        = errors.New("another post already uses this slug")
	ErrNotFound         = errors.New("post not found")
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Post is a blog article. Content supports Markdown formatting.
type Post struct {
	ID          string
	Title       string
	Slug        string
	Content     string // Markdown
	CoverPath   string // file-store path, optional
	Status      string
	PublishedAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks if the Post has valid data.
// PRE: Post struct is populated
// POST: Returns nil if valid, error otherwise
func (p *Post) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return ErrEmptyTitle
	}
	if len(p.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if strings.TrimSpace(p.Content) == "" {
		return ErrEmptyContent
	}
	if len(p.Content) > MaxContentLength {
		return ErrContentTooLong
	}
	if p.Status != StatusDraft && p.Status != StatusPublished {
		return ErrInvalidStatus
	}
	if !slugPattern.MatchString(p.Slug) {
		return ErrInvalidSlug
	}
	return nil
}

// Publish transitions a draft to published.
// PRE: Post is a draft
// POST: Status is published and PublishedAt is now
func (p *Post) Publish(now time.Time) error {
	if p.Status == StatusPublished {
		return ErrAlreadyPublished
	}
	p.Status = StatusPublished
	p.PublishedAt = now
	return nil
}

// IsPublished reports whether the post is publicly visible.
func (p *Post) IsPublished() bool {
	return p.Status == StatusPublished
}

// Slugify derives a URL slug from a title.
func Slugify(title string) string {
	s := nonSlugChars.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(s, "-")
}
