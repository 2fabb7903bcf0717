package web

import (
	"net/http"

	"shepherd/internal/adapters/http/middleware"
)

func staff(h http.HandlerFunc) http.Handler { return middleware.RequireStaff(h) }
func admin(h http.HandlerFunc) http.Handler { return middleware.RequireAdmin(h) }

// registerRoutes wires every endpoint onto mux. Role checks wrap the
// handler here so each route's access level reads in one place.
func registerRoutes(mux *http.ServeMux) {
	// Health and metrics
	mux.HandleFunc("GET /healthz", handleHealthz)
	if appMetrics != nil {
		mux.Handle("GET /metrics", appMetrics.Handler())
	}

	// Auth
	mux.HandleFunc("POST /api/auth/login", handleLogin)
	mux.HandleFunc("POST /api/auth/logout", handleLogout)
	mux.Handle("GET /api/auth/session", staff(handleSession))
	mux.Handle("POST /api/auth/password", staff(handleChangePassword))

	// Check-in
	mux.HandleFunc("POST /api/checkin/validate", handleValidateToken)
	mux.HandleFunc("POST /api/checkin/member", handleCheckInMember)
	mux.HandleFunc("POST /api/checkin/visitor", handleCheckInVisitor)
	mux.Handle("POST /api/checkin/tokens", staff(handleIssueToken))

	// Staff views
	mux.Handle("GET /api/reports", staff(handleReports))
	mux.Handle("GET /api/dashboard/insights", staff(handleDashboardInsights))
	mux.Handle("GET /api/members", staff(handleMemberList))
	mux.Handle("GET /api/visitors", staff(handleVisitorList))
	mux.Handle("GET /api/services", staff(handleListServices))
	mux.Handle("GET /api/services/{id}/attendance", staff(handleSessionAttendance))

	// Public content
	mux.HandleFunc("GET /api/sermons", handlePublicSermons)
	mux.HandleFunc("GET /api/blogs", handlePublicPosts)
	mux.HandleFunc("GET /api/blogs/{slug}", handlePublicPost)
	mux.HandleFunc("GET /api/events", handlePublicEvents)
	mux.HandleFunc("GET /api/gallery/albums", handlePublicAlbums)
	mux.HandleFunc("GET /api/gallery/albums/{id}/media", handlePublicAlbumMedia)
	mux.HandleFunc("POST /api/gallery/media/{id}/like", handleLikeMedia)
	if uploadDir != "" {
		mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadDir))))
	}

	// Admin: people
	mux.Handle("GET /api/admin/members/{id}", admin(handleAdminGetMember))
	mux.Handle("POST /api/admin/members", admin(handleAdminSaveMember))
	mux.Handle("PUT /api/admin/members/{id}", admin(handleAdminSaveMember))
	mux.Handle("POST /api/admin/members/{id}/status", admin(handleAdminMemberStatus))
	mux.Handle("DELETE /api/admin/members/{id}", admin(handleAdminDeleteMember))
	mux.Handle("GET /api/admin/visitors/{id}", admin(handleAdminGetVisitor))
	mux.Handle("PUT /api/admin/visitors/{id}", admin(handleAdminUpdateVisitor))
	mux.Handle("DELETE /api/admin/visitors/{id}", admin(handleAdminDeleteVisitor))
	mux.Handle("GET /api/admin/accounts", admin(handleAdminListAccounts))
	mux.Handle("POST /api/admin/accounts", admin(handleAdminCreateAccount))
	mux.Handle("DELETE /api/admin/accounts/{id}", admin(handleAdminDeleteAccount))

	// Admin: services and finance
	mux.Handle("POST /api/admin/services", admin(handleAdminSaveService))
	mux.Handle("PUT /api/admin/services/{id}", admin(handleAdminSaveService))
	mux.Handle("DELETE /api/admin/services/{id}", admin(handleAdminDeleteService))
	mux.Handle("GET /api/admin/finance", admin(handleAdminListTransactions))
	mux.Handle("POST /api/admin/finance", admin(handleAdminSaveTransaction))
	mux.Handle("PUT /api/admin/finance/{id}", admin(handleAdminSaveTransaction))
	mux.Handle("DELETE /api/admin/finance/{id}", admin(handleAdminDeleteTransaction))

	// Admin: content
	mux.Handle("POST /api/admin/sermons", admin(handleAdminSaveSermon))
	mux.Handle("PUT /api/admin/sermons/{id}", admin(handleAdminSaveSermon))
	mux.Handle("DELETE /api/admin/sermons/{id}", admin(handleAdminDeleteSermon))
	mux.Handle("GET /api/admin/blogs", admin(handleAdminListPosts))
	mux.Handle("GET /api/admin/blogs/{id}", admin(handleAdminGetPost))
	mux.Handle("POST /api/admin/blogs", admin(handleAdminSavePost))
	mux.Handle("PUT /api/admin/blogs/{id}", admin(handleAdminSavePost))
	mux.Handle("POST /api/admin/blogs/{id}/publish", admin(handleAdminPublishPost))
	mux.Handle("DELETE /api/admin/blogs/{id}", admin(handleAdminDeletePost))
	mux.Handle("GET /api/admin/events", admin(handleAdminListEvents))
	mux.Handle("POST /api/admin/events", admin(handleAdminSaveEvent))
	mux.Handle("PUT /api/admin/events/{id}", admin(handleAdminSaveEvent))
	mux.Handle("DELETE /api/admin/events/{id}", admin(handleAdminDeleteEvent))
	mux.Handle("POST /api/admin/gallery/albums", admin(handleAdminSaveAlbum))
	mux.Handle("PUT /api/admin/gallery/albums/{id}", admin(handleAdminSaveAlbum))
	mux.Handle("DELETE /api/admin/gallery/albums/{id}", admin(handleAdminDeleteAlbum))
	mux.Handle("POST /api/admin/gallery/media", admin(handleAdminUploadMedia))
	mux.Handle("PUT /api/admin/gallery/media/{id}", admin(handleAdminUpdateMedia))
	mux.Handle("DELETE /api/admin/gallery/media/{id}", admin(handleAdminDeleteMedia))

	// Admin: operations
	mux.Handle("GET /api/admin/outbox", admin(handleAdminOutbox))
	mux.Handle("POST /api/admin/outbox/{id}/retry", admin(handleAdminOutboxRetry))
	mux.Handle("POST /api/admin/outbox/{id}/abandon", admin(handleAdminOutboxAbandon))
	mux.Handle("GET /api/admin/perf", admin(handleAdminPerf))
}
