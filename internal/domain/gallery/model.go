package gallery

import (
	"errors"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MaxTitleLength   = 150
	MaxCaptionLength = 300
)

// Domain errors
var (
	ErrEmptyTitle     = errors.New("album title cannot be empty")
	ErrTitleTooLong   = errors.New("album title cannot exceed 150 characters")
	ErrAlbumRequired  = errors.New("media must belong to an album")
	ErrPathRequired   = errors.New("media path cannot be empty")
	ErrCaptionTooLong = errors.New("caption cannot exceed 300 characters")
	ErrNegativeLikes  = errors.New("likes cannot be negative")
	ErrAlbumNotFound  = errors.New("album not found")
	ErrMediaNotFound  = errors.New("media not found")
)

// Album groups media, usually for one event.
type Album struct {
	ID          string
	Title       string
	Description string
	EventDate   time.Time // optional
	CreatedAt   time.Time
}

// Validate checks if the Album has valid data.
// PRE: Album struct is populated
// POST: Returns nil if valid, error otherwise
func (a *Album) Validate() error {
	if strings.TrimSpace(a.Title) == "" {
		return ErrEmptyTitle
	}
	if len(a.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	return nil
}

// Media is one stored image or video in an album.
type Media struct {
	ID        string
	AlbumID   string
	Path      string // file-store path
	ThumbPath string // optional, set for images
	Caption   string
	Likes     int
	CreatedAt time.Time
}

// Validate checks if the Media has valid data.
// PRE: Media struct is populated
// POST: Returns nil if valid, error otherwise
func (m *Media) Validate() error {
	if m.AlbumID == "" {
		return ErrAlbumRequired
	}
	if m.Path == "" {
		return ErrPathRequired
	}
	if len(m.Caption) > MaxCaptionLength {
		return ErrCaptionTooLong
	}
	if m.Likes < 0 {
		return ErrNegativeLikes
	}
	return nil
}
