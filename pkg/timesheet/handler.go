package timesheet

import (
	"errors"
	"net/http"
	"strconv"

	log "github.com/sirupsen/logrus"
	"github.com/totaltiming/totaltiming/internal/rest"
	"github.com/totaltiming/totaltiming/pkg/hours"
	"github.com/totaltiming/totaltiming/pkg/isoweek"
	"github.com/totaltiming/totaltiming/pkg/summary"
	"github.com/totaltiming/totaltiming/pkg/user"
)

type DayDTO struct {
	Date    string           `json:"date"`
	Total   float64          `json:"total"`
	Entries []hours.EntryDTO `json:"entries"`
}

type PeriodSummaryDTO struct {
	Week        string   `json:"week,omitempty"`
	WeekOffset  *int     `json:"weekOffset,omitempty"`
	PeriodStart string   `json:"periodStart"`
	PeriodEnd   string   `json:"periodEnd"`
	Total       float64  `json:"total"`
	Days        []DayDTO `json:"days"`
}

type MonthTotalDTO struct {
	Year  int     `json:"year"`
	Month int     `json:"month"`
	Total float64 `json:"total"`
	Label string  `json:"label"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// WeeklySummary godoc
// @Summary Hours of one ISO week grouped by day
// @Description The week is selected either by an offset from the current week or by an ISO week key.
// @Tags Hours
// @Produce json
// @Param weekOffset query int false "Weeks relative to the current week, e.g. -1"
// @Param week query string false "ISO week, e.g. 2025-W03"
// @Param userId query int false "User id (admin/accountant)"
// @Success 200 {object} PeriodSummaryDTO
// @Failure 400 {object} rest.ErrorResponse
// @Failure 403 {string} string "Forbidden"
// @Router /api/hours/summary/weekly [get]
// @Security BearerAuth
func (h *Handler) WeeklySummary(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	userId, err := rest.ParseOptionalInt(query.Get("userId"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid userId", "")
		return
	}

	offset := 0
	if weekParam := query.Get("week"); weekParam != "" {
		week, err := isoweek.FromString(weekParam)
		if err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid week", err.Error())
			return
		}
		if offset, err = h.service.WeekOffset(r.Context(), userId, week); err != nil {
			writeError(w, err)
			return
		}
	} else if offsetParam := query.Get("weekOffset"); offsetParam != "" {
		if offset, err = strconv.Atoi(offsetParam); err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid weekOffset", "")
			return
		}
	}
	log.Tracef("Weekly summary for user %d, offset %d", userId, offset)

	period, err := h.service.WeeklySummary(r.Context(), userId, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	dto := periodToDTO(period)
	dto.Week = period.Week.String()
	dto.WeekOffset = &offset
	rest.WriteJSON(w, http.StatusOK, dto)
}

// MonthlySummary godoc
// @Summary Hours of one calendar month grouped by day
// @Tags Hours
// @Produce json
// @Param date query string false "Month as YYYY-MM or any day as YYYY-MM-DD, defaults to the current month"
// @Param userId query int false "User id (admin/accountant)"
// @Success 200 {object} PeriodSummaryDTO
// @Failure 400 {object} rest.ErrorResponse
// @Router /api/hours/summary/monthly [get]
// @Security BearerAuth
func (h *Handler) MonthlySummary(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	userId, err := rest.ParseOptionalInt(query.Get("userId"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid userId", "")
		return
	}
	date, err := rest.ParseMonth(query.Get("date"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid date", err.Error())
		return
	}

	period, err := h.service.MonthlySummary(r.Context(), userId, date)
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, periodToDTO(period))
}

// MonthlyTotals godoc
// @Summary Total hours per month, newest first
// @Tags Hours
// @Produce json
// @Param userId query int false "User id (admin/accountant)"
// @Success 200 {array} MonthTotalDTO
// @Router /api/hours/summary/months [get]
// @Security BearerAuth
func (h *Handler) MonthlyTotals(w http.ResponseWriter, r *http.Request) {
	userId, err := rest.ParseOptionalInt(r.URL.Query().Get("userId"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid userId", "")
		return
	}
	totals, err := h.service.MonthlyTotals(r.Context(), userId)
	if err != nil {
		writeError(w, err)
		return
	}
	dtos := make([]MonthTotalDTO, 0, len(totals))
	for _, m := range totals {
		dtos = append(dtos, MonthTotalDTO{
			Year:  m.Year,
			Month: int(m.Month),
			Total: hours.RoundHours(m.Total),
			Label: m.Label,
		})
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, user.ErrUserNotFound) {
		rest.WriteError(w, http.StatusNotFound, "User not found", "")
		return
	}
	hours.WriteServiceError(w, err)
}

func periodToDTO(period summary.PeriodSummary) PeriodSummaryDTO {
	days := make([]DayDTO, 0, len(period.SortedDays))
	for _, key := range period.SortedDays {
		entries := period.GroupedByDay[key]
		days = append(days, DayDTO{
			Date:    key,
			Total:   hours.RoundHours(hours.SumHours(entries)),
			Entries: hours.EntriesToDTO(entries),
		})
	}
	return PeriodSummaryDTO{
		PeriodStart: period.PeriodStart.Format(rest.DateLayout),
		PeriodEnd:   period.PeriodEnd.Format(rest.DateLayout),
		Total:       hours.RoundHours(period.Total),
		Days:        days,
	}
}
