package projections

import (
	"time"

	"shepherd/internal/domain/blog"
	"shepherd/internal/domain/checkin"
	"shepherd/internal/domain/event"
	"shepherd/internal/domain/finance"
	"shepherd/internal/domain/gallery"
	"shepherd/internal/domain/member"
	"shepherd/internal/domain/sermon"
	"shepherd/internal/domain/service"
	"shepherd/internal/domain/visitor"
)

// Views of single records, shared by list queries and admin write responses.

// MemberDetail is a member record without engagement data.
type MemberDetail struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email,omitempty"`
	Phone    string    `json:"phone"`
	Gender   string    `json:"gender,omitempty"`
	Group    string    `json:"group,omitempty"`
	Status   string    `json:"status"`
	JoinedAt time.Time `json:"joinedAt"`
}

// ToMemberDetail converts a member record.
func ToMemberDetail(m member.Member) MemberDetail {
	return MemberDetail{
		ID: m.ID, Name: m.Name, Email: m.Email, Phone: m.Phone, Gender: m.Gender,
		Group: m.GroupName, Status: m.Status, JoinedAt: m.JoinedAt,
	}
}

// ToVisitorRow converts a visitor record.
func ToVisitorRow(v visitor.Visitor) VisitorRow {
	return VisitorRow{
		ID: v.ID, Name: v.Name, Phone: v.Phone, Email: v.Email, Source: v.Source, Purpose: v.Purpose,
		VisitCount: v.VisitCount, FirstVisitDate: v.FirstVisitDate, LastVisitDate: v.LastVisitDate,
	}
}

// ToTransactionRow converts a ledger line.
func ToTransactionRow(t finance.Transaction) TransactionRow {
	return TransactionRow{
		ID: t.ID, Kind: t.Kind, MemberID: t.MemberID, Amount: t.Amount.StringFixed(2),
		PaidOn: t.PaidOn.Format(checkin.DateLayout), Note: t.Note,
	}
}

// ToServiceRow converts a service record.
func ToServiceRow(s service.Service) ServiceRow {
	return ServiceRow{ID: s.ID, Name: s.Name, Day: s.Day, StartTime: s.StartTime}
}

// ToSermonView renders a sermon's notes.
func ToSermonView(s sermon.Sermon) (SermonView, error) {
	notes, err := renderMarkdown(s.Notes)
	if err != nil {
		return SermonView{}, err
	}
	return SermonView{
		ID: s.ID, Title: s.Title, Preacher: s.Preacher, Scripture: s.Scripture,
		VideoID: s.VideoID, NotesHTML: notes, PreachedOn: s.PreachedOn.Format(checkin.DateLayout),
	}, nil
}

// ToPostView renders a post. withSource keeps the markdown for editors.
func ToPostView(p blog.Post, withSource bool) (PostView, error) {
	html, err := renderMarkdown(p.Content)
	if err != nil {
		return PostView{}, err
	}
	view := PostView{PostSummary: summarise(p), ContentHTML: html}
	if withSource {
		view.Content = p.Content
	}
	return view, nil
}

// ToEventView converts an event record.
func ToEventView(e event.Event) EventView {
	return EventView{
		ID: e.ID, Title: e.Title, Description: e.Description, Location: e.Location,
		StartsAt: e.StartsAt, EndsAt: e.EndsAt, ImagePath: e.ImagePath,
	}
}

// ToAlbumView converts an album record. Counts are left at zero.
func ToAlbumView(a gallery.Album) AlbumView {
	v := AlbumView{ID: a.ID, Title: a.Title, Description: a.Description}
	if !a.EventDate.IsZero() {
		v.EventDate = a.EventDate.Format(checkin.DateLayout)
	}
	return v
}

// ToMediaItem converts a media record.
func ToMediaItem(m gallery.Media) MediaItem {
	return MediaItem{ID: m.ID, AlbumID: m.AlbumID, Path: m.Path, ThumbPath: m.ThumbPath, Caption: m.Caption, Likes: m.Likes}
}
