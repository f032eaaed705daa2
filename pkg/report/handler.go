package report

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"github.com/totaltiming/totaltiming/internal/rest"
	"github.com/totaltiming/totaltiming/internal/utils"
	"github.com/totaltiming/totaltiming/pkg/absence"
	"github.com/totaltiming/totaltiming/pkg/hours"
	"github.com/totaltiming/totaltiming/pkg/project"
	"github.com/totaltiming/totaltiming/pkg/summary"
	"github.com/totaltiming/totaltiming/pkg/user"
)

type SummaryRowDTO struct {
	Id         int     `json:"id"`
	Name       string  `json:"name"`
	TotalHours float64 `json:"totalHours"`
}

type SummaryDTO struct {
	From       string          `json:"from,omitempty"`
	To         string          `json:"to,omitempty"`
	Rows       []SummaryRowDTO `json:"rows"`
	TotalHours float64         `json:"totalHours"`
}

type UserProjectRowDTO struct {
	UserId      int     `json:"userId"`
	Name        string  `json:"name"`
	ProjectId   int     `json:"projectId"`
	ProjectName string  `json:"projectName"`
	TotalHours  float64 `json:"totalHours"`
}

type DetailDTO struct {
	hours.EntryDTO
	Name       string `json:"name"`
	TargetName string `json:"targetName"`
	TargetCode string `json:"targetCode"`
}

type Handler struct {
	service  Service
	renderer Renderer
}

func NewHandler(service Service, renderer Renderer) *Handler {
	return &Handler{service: service, renderer: renderer}
}

// HoursByUserProject godoc
// @Summary Project hours per user and project
// @Tags Reports
// @Produce json,text/csv
// @Param from query string false "First day, YYYY-MM-DD"
// @Param to query string false "Last day, YYYY-MM-DD"
// @Success 200 {array} UserProjectRowDTO
// @Failure 400 {object} rest.ErrorResponse
// @Failure 403 {string} string "Forbidden"
// @Router /api/reports/hours/by-user-project [get]
// @Security BearerAuth
func (h *Handler) HoursByUserProject(w http.ResponseWriter, r *http.Request) {
	dateRange, ok := parseRange(w, r)
	if !ok {
		return
	}
	rows, err := h.service.HoursByUserProject(r.Context(), dateRange)
	if err != nil {
		writeError(w, err)
		return
	}

	if wantsCsv(r) {
		csv, err := h.renderer.RenderUserProject(rows)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeCsvResponse(w, csv)
		return
	}
	dtos := make([]UserProjectRowDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, UserProjectRowDTO{
			UserId:      row.UserId,
			Name:        row.UserName,
			ProjectId:   row.ProjectId,
			ProjectName: row.ProjectName,
			TotalHours:  hours.RoundHours(row.TotalHours),
		})
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// HoursByUser godoc
// @Summary Hours per user
// @Tags Reports
// @Produce json,text/csv
// @Param from query string false "First day, YYYY-MM-DD"
// @Param to query string false "Last day, YYYY-MM-DD"
// @Success 200 {object} SummaryDTO
// @Router /api/reports/hours/by-user [get]
// @Security BearerAuth
func (h *Handler) HoursByUser(w http.ResponseWriter, r *http.Request) {
	dateRange, ok := parseRange(w, r)
	if !ok {
		return
	}
	table, err := h.service.HoursByUser(r.Context(), dateRange)
	h.writeTable(w, r, table, err)
}

// HoursByProject godoc
// @Summary Hours per project
// @Tags Reports
// @Produce json,text/csv
// @Param from query string false "First day, YYYY-MM-DD"
// @Param to query string false "Last day, YYYY-MM-DD"
// @Success 200 {object} SummaryDTO
// @Router /api/reports/hours/by-project [get]
// @Security BearerAuth
func (h *Handler) HoursByProject(w http.ResponseWriter, r *http.Request) {
	dateRange, ok := parseRange(w, r)
	if !ok {
		return
	}
	table, err := h.service.HoursByProject(r.Context(), dateRange)
	h.writeTable(w, r, table, err)
}

// ProjectHours godoc
// @Summary Entries of one project
// @Tags Reports
// @Produce json
// @Param projectId path string true "Project id or project code"
// @Param userId query int false "Only entries of this user"
// @Param from query string false "First day, YYYY-MM-DD"
// @Param to query string false "Last day, YYYY-MM-DD"
// @Success 200 {array} DetailDTO
// @Failure 404 {object} rest.ErrorResponse
// @Router /api/reports/projects/{projectId}/hours [get]
// @Security BearerAuth
func (h *Handler) ProjectHours(w http.ResponseWriter, r *http.Request) {
	dateRange, ok := parseRange(w, r)
	if !ok {
		return
	}
	userId, err := rest.ParseOptionalInt(r.URL.Query().Get("userId"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid userId", "")
		return
	}
	details, err := h.service.ProjectHours(r.Context(), mux.Vars(r)["projectId"], userId, dateRange)
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, detailsToDTO(details))
}

// ProjectHoursByUser godoc
// @Summary Hours of one project per user
// @Tags Reports
// @Produce json,text/csv
// @Param projectId path string true "Project id or project code"
// @Success 200 {object} SummaryDTO
// @Router /api/reports/projects/{projectId}/hours/by-user [get]
// @Security BearerAuth
func (h *Handler) ProjectHoursByUser(w http.ResponseWriter, r *http.Request) {
	dateRange, ok := parseRange(w, r)
	if !ok {
		return
	}
	table, err := h.service.ProjectHoursByUser(r.Context(), mux.Vars(r)["projectId"], dateRange)
	h.writeTable(w, r, table, err)
}

// AbsenceHours godoc
// @Summary Entries of one absence reason
// @Tags Reports
// @Produce json
// @Param absenceId path string true "Absence id or absence code"
// @Param userId query int false "Only entries of this user"
// @Success 200 {array} DetailDTO
// @Router /api/reports/absence/{absenceId}/hours [get]
// @Security BearerAuth
func (h *Handler) AbsenceHours(w http.ResponseWriter, r *http.Request) {
	dateRange, ok := parseRange(w, r)
	if !ok {
		return
	}
	userId, err := rest.ParseOptionalInt(r.URL.Query().Get("userId"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid userId", "")
		return
	}
	details, err := h.service.AbsenceHours(r.Context(), mux.Vars(r)["absenceId"], userId, dateRange)
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, detailsToDTO(details))
}

// AbsenceHoursByUser godoc
// @Summary Hours of one absence reason per user
// @Tags Reports
// @Produce json,text/csv
// @Param absenceId path string true "Absence id or absence code"
// @Success 200 {object} SummaryDTO
// @Router /api/reports/absence/{absenceId}/hours-by-user [get]
// @Security BearerAuth
func (h *Handler) AbsenceHoursByUser(w http.ResponseWriter, r *http.Request) {
	dateRange, ok := parseRange(w, r)
	if !ok {
		return
	}
	table, err := h.service.AbsenceHoursByUser(r.Context(), mux.Vars(r)["absenceId"], dateRange)
	h.writeTable(w, r, table, err)
}

// MonthlyByUser godoc
// @Summary Hours per user in one month
// @Tags Reports
// @Produce json,text/csv
// @Param date query string false "YYYY-MM, defaults to the current month"
// @Success 200 {object} SummaryDTO
// @Router /api/reports/monthly/by-user [get]
// @Security BearerAuth
func (h *Handler) MonthlyByUser(w http.ResponseWriter, r *http.Request) {
	h.monthly(w, r, h.service.MonthlyByUser)
}

// MonthlyByProject godoc
// @Summary Hours per project in one month
// @Tags Reports
// @Produce json,text/csv
// @Param date query string false "YYYY-MM, defaults to the current month"
// @Success 200 {object} SummaryDTO
// @Router /api/reports/monthly/by-project [get]
// @Security BearerAuth
func (h *Handler) MonthlyByProject(w http.ResponseWriter, r *http.Request) {
	h.monthly(w, r, h.service.MonthlyByProject)
}

// MonthlyByAbsence godoc
// @Summary Hours per absence reason in one month
// @Tags Reports
// @Produce json,text/csv
// @Param date query string false "YYYY-MM, defaults to the current month"
// @Success 200 {object} SummaryDTO
// @Router /api/reports/monthly/by-absence [get]
// @Security BearerAuth
func (h *Handler) MonthlyByAbsence(w http.ResponseWriter, r *http.Request) {
	h.monthly(w, r, h.service.MonthlyByAbsence)
}

func (h *Handler) monthly(w http.ResponseWriter, r *http.Request, load func(ctx context.Context, date time.Time) (Table, error)) {
	date, err := rest.ParseMonth(r.URL.Query().Get("date"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid date", "date must be YYYY-MM")
		return
	}
	table, err := load(r.Context(), date)
	h.writeTable(w, r, table, err)
}

func (h *Handler) writeTable(w http.ResponseWriter, r *http.Request, table Table, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	if wantsCsv(r) {
		csv, err := h.renderer.RenderTable(table)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeCsvResponse(w, csv)
		return
	}
	rest.WriteJSON(w, http.StatusOK, tableToDTO(table))
}

func parseRange(w http.ResponseWriter, r *http.Request) (Range, bool) {
	loc := time.UTC
	if current, err := user.CurrentUser(r.Context()); err == nil {
		loc = utils.LoadLocation(current.Settings.Timezone)
	}
	query := r.URL.Query()
	from, to, err := rest.ParseDayRange(query.Get("from"), query.Get("to"), loc)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid date range", err.Error())
		return Range{}, false
	}
	return Range{From: from, To: to}, true
}

// wantsCsv reports whether the Accept header lists text/csv with a non-zero quality.
func wantsCsv(r *http.Request) bool {
	for _, accept := range r.Header.Values("Accept") {
		for _, mediaRange := range strings.Split(accept, ",") {
			mediaType, params, err := mime.ParseMediaType(strings.TrimSpace(mediaRange))
			if err != nil || mediaType != "text/csv" {
				continue
			}
			if q, err := strconv.ParseFloat(params["q"], 64); err == nil && q <= 0 {
				continue
			}
			return true
		}
	}
	return false
}

func writeCsvResponse(w http.ResponseWriter, csv string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(csv)); err != nil {
		log.Errorf("failed to write csv response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrForbidden):
		rest.WriteError(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, project.ErrProjectNotFound):
		rest.WriteError(w, http.StatusNotFound, "Project not found", "")
	case errors.Is(err, absence.ErrAbsenceNotFound):
		rest.WriteError(w, http.StatusNotFound, "Absence not found", "")
	default:
		hours.WriteServiceError(w, err)
	}
}

func tableToDTO(table Table) SummaryDTO {
	rows := make([]SummaryRowDTO, 0, len(table.Rows))
	for _, row := range table.Rows {
		rows = append(rows, rowToDTO(row))
	}
	dto := SummaryDTO{Rows: rows, TotalHours: hours.RoundHours(table.Total)}
	if !table.PeriodStart.IsZero() {
		dto.From = table.PeriodStart.Format(rest.DateLayout)
	}
	if !table.PeriodEnd.IsZero() {
		dto.To = table.PeriodEnd.Format(rest.DateLayout)
	}
	return dto
}

func rowToDTO(row summary.EntitySummary) SummaryRowDTO {
	return SummaryRowDTO{Id: row.EntityId, Name: row.Name, TotalHours: hours.RoundHours(row.TotalHours)}
}

func detailsToDTO(details []Detail) []DetailDTO {
	dtos := make([]DetailDTO, 0, len(details))
	for _, d := range details {
		dtos = append(dtos, DetailDTO{
			EntryDTO:   hours.EntryToDTO(d.Entry),
			Name:       d.UserName,
			TargetName: d.TargetName,
			TargetCode: d.TargetCode,
		})
	}
	return dtos
}
