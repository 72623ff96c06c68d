package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/isdelr/finance-tracker-be/internal/auth"
	"github.com/isdelr/finance-tracker-be/internal/services"
)

// ReportHandler serves monthly reports.
type ReportHandler struct {
	service services.ReportServiceProvider
	now     func() time.Time
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(service services.ReportServiceProvider) *ReportHandler {
	return &ReportHandler{service: service, now: time.Now}
}

// Summary handles GET /reports/summary?year=&month=. Missing values default
// to the current UTC month.
func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	now := h.now().UTC()
	year, month := now.Year(), int(now.Month())

	q := r.URL.Query()
	if v := q.Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondMessage(w, r, http.StatusBadRequest, "year must be a number")
			return
		}
		year = n
	}
	if v := q.Get("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondMessage(w, r, http.StatusBadRequest, "month must be a number")
			return
		}
		month = n
	}

	report, err := h.service.MonthlySummary(r.Context(), auth.UserIDFromContext(r.Context()), year, time.Month(month))
	if err != nil {
		writeError(w, r, err, "User not found")
		return
	}
	respondJSON(w, r, http.StatusOK, report)
}
