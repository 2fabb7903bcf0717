package web

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	eventStore "shepherd/internal/adapters/storage/event"
	"shepherd/internal/application/listutil"
	"shepherd/internal/application/orchestrators"
	"shepherd/internal/application/projections"
	"shepherd/internal/domain/blog"
	"shepherd/internal/domain/checkin"
)

// maxUploadBytes bounds multipart bodies for images and gallery media.
const maxUploadBytes = 32 << 20

// parseUploadForm reads a multipart body. Plain url-encoded forms are
// accepted too for writes without a file.
func parseUploadForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	err := r.ParseMultipartForm(maxUploadBytes)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		return checkin.Wrap(checkin.CodeValidation, "invalid form body", err)
	}
	return nil
}

// formUpload returns the file in field, or nil when none was sent. The
// caller closes the returned file.
func formUpload(r *http.Request, field string) (*orchestrators.Upload, multipart.File, error) {
	f, hdr, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, checkin.Wrap(checkin.CodeValidation, "could not read "+field, err)
	}
	return &orchestrators.Upload{Name: hdr.Filename, Body: f}, f, nil
}

func closeFile(f multipart.File) {
	if f != nil {
		_ = f.Close()
	}
}

// parseTimestamp reads an optional RFC 3339 form field.
func parseTimestamp(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, checkin.NewError(checkin.CodeValidation, field+" must be an RFC 3339 timestamp")
	}
	return t, nil
}

// --- Sermons ---

type sermonRequest struct {
	Title      string `json:"title"`
	Preacher   string `json:"preacher"`
	Scripture  string `json:"scripture"`
	VideoURL   string `json:"videoUrl"`
	Notes      string `json:"notes"`
	PreachedOn string `json:"preachedOn"`
}

func handleAdminSaveSermon(w http.ResponseWriter, r *http.Request) {
	var req sermonRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeAdminError(w, err)
		return
	}
	preached, err := parseDate("preachedOn", req.PreachedOn)
	if err != nil {
		writeAdminError(w, err)
		return
	}
	id := r.PathValue("id")
	s, err := orchestrators.ExecuteSaveSermon(r.Context(), orchestrators.SaveSermonInput{
		ID:         id,
		Title:      req.Title,
		Preacher:   req.Preacher,
		Scripture:  req.Scripture,
		VideoURL:   req.VideoURL,
		Notes:      req.Notes,
		PreachedOn: preached,
	}, orchestrators.SaveSermonDeps{SermonStore: stores.Sermons, Clock: clock})
	if err != nil {
		writeAdminError(w, err)
		return
	}
	view, err := projections.ToSermonView(s)
	if err != nil {
		internalError(w, err)
		return
	}
	if id == "" {
		writeCreated(w, view)
		return
	}
	writeOK(w, view)
}

func handleAdminDeleteSermon(w http.ResponseWriter, r *http.Request) {
	if err := orchestrators.ExecuteDeleteSermon(r.Context(), r.PathValue("id"), stores.Sermons); err != nil {
		writeAdminError(w, err)
		return
	}
	writeOK(w, nil)
}

// --- Blog posts ---

func handleAdminListPosts(w http.ResponseWriter, r *http.Request) {
	res, err := projections.QueryPosts(r.Context(), listutil.ParsePageParams(r.URL.Query()), true, stores.Posts)
	if err != nil {
		internalError(w, err)
		return
	}
	writeOK(w, res)
}

func handleAdminGetPost(w http.ResponseWriter, r *http.Request) {
	p, err := stores.Posts.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeAdminError(w, notFoundOr(err, blog.ErrNotFound, "post"))
		return
	}
	view, err := projections.ToPostView(p, true)
	if err != nil {
		internalError(w, err)
		return
	}
	writeOK(w, view)
}

// handleAdminSavePost takes a multipart form: title, slug, content,
// publish and an optional cover image.
func handleAdminSavePost(w http.ResponseWriter, r *http.Request) {
	if err := parseUploadForm(w, r); err != nil {
		writeAdminError(w, err)
		return
	}
	cover, f, err := formUpload(r, "cover")
	if err != nil {
		writeAdminError(w, err)
		return
	}
	defer closeFile(f)
	publish, _ := strconv.ParseBool(r.FormValue("publish"))

	id := r.PathValue("id")
	p, err := orchestrators.ExecuteSavePost(r.Context(), orchestrators.SavePostInput{
		ID:      id,
		Title:   r.FormValue("title"),
		Slug:    r.FormValue("slug"),
		Content: r.FormValue("content"),
		Publish: publish,
		Cover:   cover,
	}, orchestrators.SavePostDeps{PostStore: stores.Posts, Files: fileStore, Clock: clock})
	if err != nil {
		writeAdminError(w, err)
		return
	}
	view, err := projections.ToPostView(p, true)
	if err != nil {
		internalError(w, err)
		return
	}
	if id == "" {
		writeCreated(w, view)
		return
	}
	writeOK(w, view)
}

func handleAdminPublishPost(w http.ResponseWriter, r *http.Request) {
	p, err := orchestrators.ExecutePublishPost(r.Context(), r.PathValue("id"), stores.Posts, clock)
	if err != nil {
		writeAdminError(w, err)
		return
	}
	view, err := projections.ToPostView(p, true)
	if err != nil {
		internalError(w, err)
		return
	}
	writeOK(w, view)
}

func handleAdminDeletePost(w http.ResponseWriter, r *http.Request) {
	if err := orchestrators.ExecuteDeletePost(r.Context(), r.PathValue("id"), stores.Posts, fileStore); err != nil {
		writeAdminError(w, err)
		return
	}
	writeOK(w, nil)
}

// --- Events ---

func handleAdminListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := stores.Events.List(r.Context(), eventStore.ListFilter{})
	if err != nil {
		internalError(w, fmt.Errorf("list events: %w", err))
		return
	}
	out := make([]projections.EventView, 0, len(events))
	for _, e := range events {
		out = append(out, projections.ToEventView(e))
	}
	writeOK(w, out)
}

// handleAdminSaveEvent takes a multipart form: title, description,
// location, startsAt, endsAt and an optional image.
func handleAdminSaveEvent(w http.ResponseWriter, r *http.Request) {
	if err := parseUploadForm(w, r); err != nil {
		writeAdminError(w, err)
		return
	}
	starts, err := parseTimestamp("startsAt", r.FormValue("startsAt"))
	if err != nil {
		writeAdminError(w, err)
		return
	}
	ends, err := parseTimestamp("endsAt", r.FormValue("endsAt"))
	if err != nil {
		writeAdminError(w, err)
		return
	}
	image, f, err := formUpload(r, "image")
	if err != nil {
		writeAdminError(w, err)
		return
	}
	defer closeFile(f)

	id := r.PathValue("id")
	e, err := orchestrators.ExecuteSaveEvent(r.Context(), orchestrators.SaveEventInput{
		ID:          id,
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Location:    r.FormValue("location"),
		StartsAt:    starts,
		EndsAt:      ends,
		Image:       image,
	}, orchestrators.SaveEventDeps{EventStore: stores.Events, Files: fileStore, Clock: clock})
	if err != nil {
		writeAdminError(w, err)
		return
	}
	if id == "" {
		writeCreated(w, projections.ToEventView(e))
		return
	}
	writeOK(w, projections.ToEventView(e))
}

func handleAdminDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := orchestrators.ExecuteDeleteEvent(r.Context(), r.PathValue("id"), stores.Events, fileStore); err != nil {
		writeAdminError(w, err)
		return
	}
	writeOK(w, nil)
}

// --- Gallery ---

func galleryDeps() orchestrators.GalleryDeps {
	return orchestrators.GalleryDeps{GalleryStore: stores.Gallery, Files: fileStore, Clock: clock}
}

type albumRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	EventDate   string `json:"eventDate"`
}

func handleAdminSaveAlbum(w http.ResponseWriter, r *http.Request) {
	var req albumRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeAdminError(w, err)
		return
	}
	date, err := parseDate("eventDate", req.EventDate)
	if err != nil {
		writeAdminError(w, err)
		return
	}
	id := r.PathValue("id")
	a, err := orchestrators.ExecuteSaveAlbum(r.Context(), orchestrators.SaveAlbumInput{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		EventDate:   date,
	}, galleryDeps())
	if err != nil {
		writeAdminError(w, err)
		return
	}
	if id == "" {
		writeCreated(w, projections.ToAlbumView(a))
		return
	}
	writeOK(w, projections.ToAlbumView(a))
}

func handleAdminDeleteAlbum(w http.ResponseWriter, r *http.Request) {
	if err := orchestrators.ExecuteDeleteAlbum(r.Context(), r.PathValue("id"), galleryDeps()); err != nil {
		writeAdminError(w, err)
		return
	}
	writeOK(w, nil)
}

// handleAdminUploadMedia takes a multipart form: albumId, caption and the
// required file.
func handleAdminUploadMedia(w http.ResponseWriter, r *http.Request) {
	if err := parseUploadForm(w, r); err != nil {
		writeAdminError(w, err)
		return
	}
	up, f, err := formUpload(r, "file")
	if err != nil {
		writeAdminError(w, err)
		return
	}
	defer closeFile(f)
	if up == nil {
		badRequest(w, "file is required")
		return
	}

	m, err := orchestrators.ExecuteUploadMedia(r.Context(), orchestrators.UploadMediaInput{
		AlbumID: r.FormValue("albumId"),
		Caption: r.FormValue("caption"),
		File:    *up,
	}, galleryDeps())
	if err != nil {
		writeAdminError(w, err)
		return
	}
	writeCreated(w, projections.ToMediaItem(m))
}

// handleAdminUpdateMedia changes the caption and, when a file is sent,
// replaces the stored file.
func handleAdminUpdateMedia(w http.ResponseWriter, r *http.Request) {
	if err := parseUploadForm(w, r); err != nil {
		writeAdminError(w, err)
		return
	}
	up, f, err := formUpload(r, "file")
	if err != nil {
		writeAdminError(w, err)
		return
	}
	defer closeFile(f)

	m, err := orchestrators.ExecuteUpdateMedia(r.Context(), orchestrators.UpdateMediaInput{
		ID:      r.PathValue("id"),
		Caption: r.FormValue("caption"),
		File:    up,
	}, galleryDeps())
	if err != nil {
		writeAdminError(w, err)
		return
	}
	writeOK(w, projections.ToMediaItem(m))
}

func handleAdminDeleteMedia(w http.ResponseWriter, r *http.Request) {
	if err := orchestrators.ExecuteDeleteMedia(r.Context(), r.PathValue("id"), galleryDeps()); err != nil {
		writeAdminError(w, err)
		return
	}
	writeOK(w, nil)
}
