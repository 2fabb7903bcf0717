package sermon

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MaxTitleLength     = 200
	MaxVideoURLLength  = 2048
	MaxNotesLength     = 20000
	MaxPreacherLength  = 100
	MaxScriptureLength = 200
)

// Domain errors
var (
	ErrEmptyTitle      = errors.New("sermon title cannot be empty")
	ErrTitleTooLong    = errors.New("sermon title cannot exceed 200 characters")
	ErrEmptyPreacher   = errors.New("preacher cannot be empty")
	ErrPreachedOnUnset = errors.New("preached_on date must be set")
	ErrInvalidVideoURL = errors.New("video URL must be a YouTube link")
	ErrNotesTooLong    = errors.New("sermon notes cannot exceed 20000 characters")
	ErrNotFound        = errors.New("sermon not found")
)

// Sermon is a preached message with optional video and markdown notes.
type Sermon struct {
	ID         string
	Title      string
	Preacher   string
	Scripture  string // e.g. "John 3:16-21"
	VideoURL   string // full YouTube URL, optional
	VideoID    string // extracted YouTube id
	Notes      string // Markdown
	PreachedOn time.Time
	CreatedAt  time.Time
}

var youtubeIDRegex = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/|youtube\.com/live/)([a-zA-Z0-9_-]{11})`)

// Validate checks the sermon's invariants.
// PRE: none
// POST: returns nil if valid, error describing the first violation otherwise
func (s *Sermon) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return ErrEmptyTitle
	}
	if len(s.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if strings.TrimSpace(s.Preacher) == "" {
		return ErrEmptyPreacher
	}
	if s.PreachedOn.IsZero() {
		return ErrPreachedOnUnset
	}
	if s.VideoURL != "" && (len(s.VideoURL) > MaxVideoURLLength || !youtubeIDRegex.MatchString(s.VideoURL)) {
		return ErrInvalidVideoURL
	}
	if len(s.Notes) > MaxNotesLength {
		return ErrNotesTooLong
	}
	return nil
}

// ExtractVideoID parses the YouTube video ID from VideoURL.
// PRE: VideoURL is set
// POST: sets VideoID if a valid ID is found, returns error otherwise
func (s *Sermon) ExtractVideoID() error {
	matches := youtubeIDRegex.FindStringSubmatch(s.VideoURL)
	if len(matches) < 2 {
		return ErrInvalidVideoURL
	}
	s.VideoID = matches[1]
	return nil
}
