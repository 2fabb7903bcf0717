package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"shepherd/internal/adapters/files"
	"shepherd/internal/domain/blog"
	"shepherd/internal/domain/checkin"
	"shepherd/internal/domain/event"
	"shepherd/internal/domain/gallery"
	"shepherd/internal/domain/sermon"
)

func postKey(p blog.Post) string { return p.ID }
func sermonKey(s sermon.Sermon) string { return s.ID }
func eventKey(e event.Event) string { return e.ID }

func coverUpload(name string) *Upload {
	return &Upload{Name: name, Body: strings.NewReader("image bytes")}
}

var easterPost = blog.Post{
	ID: "p-1", Title: "Easter recap", Slug: "easter-recap", Content: "He is risen.",
	CoverPath: "blog/old.png", Status: blog.StatusDraft, CreatedAt: fixedTime.AddDate(0, -2, 0),
}

func TestExecuteSaveSermon_ExtractsVideoID(t *testing.T) {
	store := newMapStore(sermonKey, sermon.ErrNotFound)
	deps := SaveSermonDeps{SermonStore: store, Clock: fixedNow, NewID: sequentialIDs()}
	in := SaveSermonInput{
		Title: "Walking in faith", Preacher: "Rev. Asante", VideoURL: "https://youtu.be/dQw4w9WgXcQ",
		PreachedOn: fixedTime,
	}

	s, err := ExecuteSaveSermon(context.Background(), in, deps)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if s.VideoID != "dQw4w9WgXcQ" {
		t.Errorf("VideoID = %q", s.VideoID)
	}

	in.ID, in.VideoURL = s.ID, ""
	s, err = ExecuteSaveSermon(context.Background(), in, deps)
	if err != nil || s.VideoID != "" {
		t.Errorf("clearing the video = %+v, %v", s, err)
	}

	in.VideoURL = "https://vimeo.com/123"
	if _, err := ExecuteSaveSermon(context.Background(), in, deps); !checkin.IsCode(err, checkin.CodeValidation) {
		t.Errorf("non-YouTube err = %v", err)
	}
}

func TestExecuteSavePost_NewPostDerivesSlug(t *testing.T) {
	store := newMapStore(postKey, blog.ErrNotFound)
	fs := &mockFileStore{}
	p, err := ExecuteSavePost(context.Background(), SavePostInput{
		Title: "Harvest Thanksgiving 2024!", Content: "Join us.", Publish: true, Cover: coverUpload("harvest.jpg"),
	}, SavePostDeps{PostStore: store, Files: fs, Clock: fixedNow, NewID: sequentialIDs()})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if p.Slug != "harvest-thanksgiving-2024" || !p.IsPublished() || !p.PublishedAt.Equal(fixedTime) || p.CoverPath != "blog/new-1.jpg" {
		t.Errorf("post = %+v", p)
	}
	if len(fs.deleted) != 0 {
		t.Errorf("deleted %v on create", fs.deleted)
	}
}

func TestExecuteSavePost_CoverReplacement(t *testing.T) {
	tests := []struct {
		name        string
		saveFileErr error
		deleteErr   error
		storeErr    error
		wantCode    checkin.Code
		wantCover   string
		wantDeleted []string
	}{
		{name: "replaces old cover", wantCover: "blog/new-1.png", wantDeleted: []string{"blog/old.png"}},
		{name: "old cover delete fails", deleteErr: errors.New("permission denied"), wantCover: "blog/new-1.png"},
		{name: "new cover save fails", saveFileErr: errors.New("disk full"), wantCode: checkin.CodeStorageFailure, wantCover: "blog/old.png"},
		{name: "unsupported cover", saveFileErr: files.ErrUnsupportedType, wantCode: checkin.CodeValidation, wantCover: "blog/old.png"},
		{
			name: "slug clash keeps old cover", storeErr: fmt.Errorf("save post: %w", blog.ErrSlugTaken),
			wantCode: checkin.CodeConflict, wantCover: "blog/old.png", wantDeleted: []string{"blog/new-1.png"},
		},
		{
			name: "store down keeps old cover", storeErr: errDBDown,
			wantCode: "", wantCover: "blog/old.png", wantDeleted: []string{"blog/new-1.png"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMapStore(postKey, blog.ErrNotFound, easterPost)
			store.saveErr = tt.storeErr
			fs := &mockFileStore{saveErr: tt.saveFileErr, deleteErr: tt.deleteErr}

			_, err := ExecuteSavePost(context.Background(), SavePostInput{
				ID: easterPost.ID, Title: easterPost.Title, Content: "Updated.", Cover: coverUpload("cover.png"),
			}, SavePostDeps{PostStore: store, Files: fs, Clock: fixedNow})

			if got := checkin.CodeOf(err); got != tt.wantCode {
				t.Fatalf("code = %q, want %q (err=%v)", got, tt.wantCode, err)
			}
			if got := store.items[easterPost.ID].CoverPath; got != tt.wantCover {
				t.Errorf("stored cover = %q, want %q", got, tt.wantCover)
			}
			if !reflect.DeepEqual(fs.deleted, tt.wantDeleted) {
				t.Errorf("deleted = %v, want %v", fs.deleted, tt.wantDeleted)
			}
		})
	}
}

func TestExecuteSavePost_RecordBeforeOldCover(t *testing.T) {
	var trace []string
	store := newMapStore(postKey, blog.ErrNotFound, easterPost)
	store.trace = &trace
	fs := &mockFileStore{trace: &trace}

	if _, err := ExecuteSavePost(context.Background(), SavePostInput{
		ID: easterPost.ID, Title: easterPost.Title, Cover: coverUpload("cover.png"),
	}, SavePostDeps{PostStore: store, Files: fs, Clock: fixedNow}); err != nil {
		t.Fatalf("save: %v", err)
	}
	want := []string{"save:p-1", "file:blog/old.png"}
	if !reflect.DeepEqual(trace, want) {
		t.Errorf("order = %v, want %v", trace, want)
	}
}

func TestExecuteSavePost_InvalidTouchesNoFiles(t *testing.T) {
	fs := &mockFileStore{}
	_, err := ExecuteSavePost(context.Background(), SavePostInput{Title: "Empty", Cover: coverUpload("a.png")},
		SavePostDeps{PostStore: newMapStore(postKey, blog.ErrNotFound), Files: fs, Clock: fixedNow})
	if !checkin.IsCode(err, checkin.CodeValidation) || len(fs.saved) != 0 {
		t.Errorf("err = %v, saved = %v", err, fs.saved)
	}
}

func TestExecutePublishPost(t *testing.T) {
	store := newMapStore(postKey, blog.ErrNotFound, easterPost)
	p, err := ExecutePublishPost(context.Background(), easterPost.ID, store, fixedNow)
	if err != nil || !p.IsPublished() || !store.items[easterPost.ID].PublishedAt.Equal(fixedTime) {
		t.Fatalf("publish = %+v, %v", p, err)
	}
	if _, err := ExecutePublishPost(context.Background(), easterPost.ID, store, fixedNow); !checkin.IsCode(err, checkin.CodeValidation) {
		t.Errorf("republish err = %v", err)
	}
}

func TestExecuteDeletePost_RecordBeforeFile(t *testing.T) {
	var trace []string
	store := newMapStore(postKey, blog.ErrNotFound, easterPost)
	store.trace = &trace
	fs := &mockFileStore{trace: &trace, deleteErr: errors.New("gone")}

	if err := ExecuteDeletePost(context.Background(), easterPost.ID, store, fs); err != nil {
		t.Fatalf("delete: %v", err)
	}
	want := []string{"record:p-1", "file:blog/old.png"}
	if !reflect.DeepEqual(trace, want) {
		t.Errorf("order = %v, want %v", trace, want)
	}
}

func TestExecuteSaveEvent(t *testing.T) {
	store := newMapStore(eventKey, event.ErrNotFound)
	fs := &mockFileStore{}
	deps := SaveEventDeps{EventStore: store, Files: fs, Clock: fixedNow, NewID: sequentialIDs()}
	start := time.Date(2024, 8, 10, 16, 0, 0, 0, time.UTC)

	e, err := ExecuteSaveEvent(context.Background(), SaveEventInput{
		Title: "Youth convention", Location: "Main hall", StartsAt: start, EndsAt: start.Add(3 * time.Hour), Image: coverUpload("flyer.jpg"),
	}, deps)
	if err != nil || e.ImagePath != "events/new-1.jpg" {
		t.Fatalf("create = %+v, %v", e, err)
	}

	_, err = ExecuteSaveEvent(context.Background(), SaveEventInput{ID: e.ID, Title: "Youth convention", StartsAt: start, EndsAt: start.Add(-time.Hour)}, deps)
	if !checkin.IsCode(err, checkin.CodeValidation) {
		t.Errorf("end before start err = %v", err)
	}

	if err := ExecuteDeleteEvent(context.Background(), e.ID, store, fs); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !reflect.DeepEqual(fs.deleted, []string{"events/new-1.jpg"}) {
		t.Errorf("deleted = %v", fs.deleted)
	}
}

func galleryFixture() (*mockGalleryStore, *mockFileStore, GalleryDeps) {
	gs := newMockGalleryStore()
	gs.albums["a-1"] = gallery.Album{ID: "a-1", Title: "Baptism Sunday"}
	gs.media["md-1"] = gallery.Media{ID: "md-1", AlbumID: "a-1", Path: "gallery/one.jpg"}
	gs.media["md-2"] = gallery.Media{ID: "md-2", AlbumID: "a-1", Path: "gallery/two.mp4"}
	fs := &mockFileStore{}
	return gs, fs, GalleryDeps{GalleryStore: gs, Files: fs, Clock: fixedNow, NewID: sequentialIDs()}
}

func TestExecuteUploadMedia(t *testing.T) {
	gs, fs, deps := galleryFixture()

	m, err := ExecuteUploadMedia(context.Background(), UploadMediaInput{AlbumID: "a-1", Caption: "Font", File: Upload{Name: "font.jpg", Body: strings.NewReader("x")}}, deps)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if m.Path != "gallery/new-1.jpg" || m.ThumbPath != "gallery/thumb_new-1.jpg" || gs.media[m.ID].Caption != "Font" {
		t.Errorf("media = %+v", m)
	}

	_, err = ExecuteUploadMedia(context.Background(), UploadMediaInput{AlbumID: "nope", File: Upload{Name: "x.jpg", Body: strings.NewReader("x")}}, deps)
	if !checkin.IsCode(err, checkin.CodeNotFound) {
		t.Errorf("missing album err = %v", err)
	}

	gs.saveMediaErr = errDBDown
	_, err = ExecuteUploadMedia(context.Background(), UploadMediaInput{AlbumID: "a-1", File: Upload{Name: "y.png", Body: strings.NewReader("y")}}, deps)
	if !errors.Is(err, errDBDown) || !reflect.DeepEqual(fs.deleted, []string{"gallery/new-2.png"}) {
		t.Errorf("record failure: err = %v, deleted = %v", err, fs.deleted)
	}
}

func TestExecuteUpdateMedia_ReplacesFile(t *testing.T) {
	gs, fs, deps := galleryFixture()
	m, err := ExecuteUpdateMedia(context.Background(), UpdateMediaInput{ID: "md-1", Caption: "Retaken", File: coverUpload("better.jpg")}, deps)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if gs.media["md-1"].Path != "gallery/new-1.jpg" || m.Caption != "Retaken" || !reflect.DeepEqual(fs.deleted, []string{"gallery/one.jpg"}) {
		t.Errorf("media = %+v, deleted = %v", gs.media["md-1"], fs.deleted)
	}

	m, err = ExecuteUpdateMedia(context.Background(), UpdateMediaInput{ID: "md-2", Caption: "Just a caption"}, deps)
	if err != nil || m.Path != "gallery/two.mp4" || len(fs.saved) != 1 {
		t.Errorf("caption only = %+v, %v", m, err)
	}
}

func TestExecuteUpdateMedia_RecordFailureKeepsOldFile(t *testing.T) {
	gs, fs, deps := galleryFixture()
	gs.saveMediaErr = errDBDown

	_, err := ExecuteUpdateMedia(context.Background(), UpdateMediaInput{ID: "md-1", File: coverUpload("better.jpg")}, deps)
	if !errors.Is(err, errDBDown) {
		t.Fatalf("err = %v", err)
	}
	if gs.media["md-1"].Path != "gallery/one.jpg" || !reflect.DeepEqual(fs.deleted, []string{"gallery/new-1.jpg"}) {
		t.Errorf("media = %+v, deleted = %v", gs.media["md-1"], fs.deleted)
	}
}

func TestExecuteSaveEvent_RecordFailureKeepsOldImage(t *testing.T) {
	start := time.Date(2024, 8, 10, 16, 0, 0, 0, time.UTC)
	existing := event.Event{ID: "e-1", Title: "Youth convention", StartsAt: start, EndsAt: start.Add(time.Hour), ImagePath: "events/old.jpg"}
	store := newMapStore(eventKey, event.ErrNotFound, existing)
	store.saveErr = errDBDown
	fs := &mockFileStore{}

	_, err := ExecuteSaveEvent(context.Background(), SaveEventInput{
		ID: "e-1", Title: existing.Title, StartsAt: start, EndsAt: start.Add(time.Hour), Image: coverUpload("flyer.jpg"),
	}, SaveEventDeps{EventStore: store, Files: fs, Clock: fixedNow})
	if !errors.Is(err, errDBDown) {
		t.Fatalf("err = %v", err)
	}
	if store.items["e-1"].ImagePath != "events/old.jpg" || !reflect.DeepEqual(fs.deleted, []string{"events/new-1.jpg"}) {
		t.Errorf("event = %+v, deleted = %v", store.items["e-1"], fs.deleted)
	}
}

func TestExecuteDeleteAlbum_RowsThenFiles(t *testing.T) {
	var trace []string
	gs, fs, deps := galleryFixture()
	gs.trace, fs.trace = &trace, &trace

	if err := ExecuteDeleteAlbum(context.Background(), "a-1", deps); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(trace) != 3 || trace[0] != "album:a-1" {
		t.Errorf("order = %v", trace)
	}
	if len(gs.media) != 0 || len(fs.deleted) != 2 {
		t.Errorf("media left = %d, files deleted = %v", len(gs.media), fs.deleted)
	}
}

func TestExecuteDeleteMedia_AndLike(t *testing.T) {
	gs, fs, deps := galleryFixture()

	likes, err := ExecuteLikeMedia(context.Background(), "md-2", gs)
	if err != nil || likes != 1 {
		t.Errorf("like = %d, %v", likes, err)
	}
	if _, err := ExecuteLikeMedia(context.Background(), "ghost", gs); !checkin.IsCode(err, checkin.CodeNotFound) {
		t.Errorf("like missing err = %v", err)
	}

	if err := ExecuteDeleteMedia(context.Background(), "md-1", deps); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := gs.media["md-1"]; ok || !reflect.DeepEqual(fs.deleted, []string{"gallery/one.jpg"}) {
		t.Errorf("media present = %v, deleted = %v", ok, fs.deleted)
	}
}
