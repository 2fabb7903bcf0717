package web

import (
	"net/http"

	"shepherd/internal/application/listutil"
	"shepherd/internal/application/projections"
	"shepherd/internal/domain/report"
)

func reportDeps() projections.ReportDeps {
	return projections.ReportDeps{
		Attendance: stores.Attendance,
		Members:    stores.Members,
		Visitors:   stores.Visitors,
		Finance:    stores.Finance,
		Gallery:    stores.Gallery,
		Events:     stores.Events,
		Now:        clock,
		Location:   location,
	}
}

// handleReports serves GET /api/reports?type=&range=&from=&to=&weeks=.
func handleReports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sel, err := report.ParseSelector(q.Get("range"), q.Get("from"), q.Get("to"), location)
	if err != nil {
		writeOutcome(w, err)
		return
	}
	res, err := projections.QueryReport(r.Context(), projections.ReportQuery{
		Type:     q.Get("type"),
		Selector: sel,
		Weeks:    report.ParseWeeks(q.Get("weeks")),
	}, reportDeps())
	if err != nil {
		writeOutcome(w, err)
		return
	}
	writeOK(w, res)
}

func handleDashboardInsights(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sel, err := report.ParseSelector(q.Get("range"), q.Get("from"), q.Get("to"), location)
	if err != nil {
		writeOutcome(w, err)
		return
	}
	insights, err := projections.QueryDashboardInsights(r.Context(), sel, reportDeps())
	if err != nil {
		writeOutcome(w, err)
		return
	}
	writeOK(w, insights)
}

func handleMemberList(w http.ResponseWriter, r *http.Request) {
	params := listutil.ParseListParams(r.URL.Query(), projections.MemberSortColumns, projections.MemberFilterKeys)
	res, err := projections.QueryMemberList(r.Context(), params, reportDeps())
	if err != nil {
		writeOutcome(w, err)
		return
	}
	writeOK(w, res)
}

func handleVisitorList(w http.ResponseWriter, r *http.Request) {
	params := listutil.ParseListParams(r.URL.Query(), nil, projections.VisitorFilterKeys)
	res, err := projections.QueryVisitorList(r.Context(), params, stores.Visitors)
	if err != nil {
		writeOutcome(w, err)
		return
	}
	writeOK(w, res)
}
