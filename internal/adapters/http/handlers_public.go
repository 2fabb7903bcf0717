package web

import (
	"net/http"
	"strconv"

	"shepherd/internal/adapters/http/middleware"
	"shepherd/internal/application/listutil"
	"shepherd/internal/application/orchestrators"
	"shepherd/internal/application/projections"
	"shepherd/internal/domain/gallery"
)

// upcomingEventsLimit caps the public events list.
const upcomingEventsLimit = 20

func handlePublicSermons(w http.ResponseWriter, r *http.Request) {
	res, err := projections.QuerySermons(r.Context(), listutil.ParsePageParams(r.URL.Query()), stores.Sermons)
	if err != nil {
		internalError(w, err)
		return
	}
	writeOK(w, res)
}

func handlePublicPosts(w http.ResponseWriter, r *http.Request) {
	res, err := projections.QueryPosts(r.Context(), listutil.ParsePageParams(r.URL.Query()), false, stores.Posts)
	if err != nil {
		internalError(w, err)
		return
	}
	writeOK(w, res)
}

// handlePublicPost serves one post by slug. Drafts are visible to staff
// only, so editors can preview them.
func handlePublicPost(w http.ResponseWriter, r *http.Request) {
	view, err := projections.QueryPostBySlug(r.Context(), r.PathValue("slug"), middleware.IsStaff(r.Context()), stores.Posts)
	if err != nil {
		writeAdminError(w, err)
		return
	}
	writeOK(w, view)
}

func handlePublicEvents(w http.ResponseWriter, r *http.Request) {
	limit := upcomingEventsLimit
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 && n < limit {
		limit = n
	}
	events, err := projections.QueryUpcomingEvents(r.Context(), now(), limit, stores.Events)
	if err != nil {
		internalError(w, err)
		return
	}
	writeOK(w, events)
}

func handlePublicAlbums(w http.ResponseWriter, r *http.Request) {
	albums, err := projections.QueryAlbums(r.Context(), stores.Gallery)
	if err != nil {
		internalError(w, err)
		return
	}
	writeOK(w, albums)
}

func handlePublicAlbumMedia(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := stores.Gallery.GetAlbum(r.Context(), id); err != nil {
		writeAdminError(w, notFoundOr(err, gallery.ErrAlbumNotFound, "album"))
		return
	}
	media, err := projections.QueryAlbumMedia(r.Context(), id, stores.Gallery)
	if err != nil {
		internalError(w, err)
		return
	}
	writeOK(w, media)
}

func handleLikeMedia(w http.ResponseWriter, r *http.Request) {
	likes, err := orchestrators.ExecuteLikeMedia(r.Context(), r.PathValue("id"), stores.Gallery)
	if err != nil {
		writeAdminError(w, err)
		return
	}
	writeOK(w, map[string]int{"likes": likes})
}
