package hours

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"github.com/totaltiming/totaltiming/internal/rest"
	"github.com/totaltiming/totaltiming/internal/utils"
	"github.com/totaltiming/totaltiming/pkg/user"
)

type EntryDTO struct {
	Id           int       `json:"id"`
	UserId       int       `json:"userId"`
	ProjectId    *int      `json:"projectId"`
	AbsenceId    *int      `json:"absenceId"`
	StartTime    time.Time `json:"startTime"`
	EndTime      time.Time `json:"endTime"`
	BreakMinutes int       `json:"breakMinutes"`
	Note         string    `json:"note"`
	HoursWorked  float64   `json:"hoursWorked"`
}

type EntryRequestDTO struct {
	UserId       int        `json:"userId,omitempty"`
	ProjectId    *int       `json:"projectId,omitempty"`
	AbsenceId    *int       `json:"absenceId,omitempty"`
	StartTime    *time.Time `json:"startTime,omitempty"`
	EndTime      *time.Time `json:"endTime,omitempty"`
	BreakMinutes *int       `json:"breakMinutes,omitempty"`
	Note         *string    `json:"note,omitempty"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// ListEntries godoc
// @Summary List hour entries
// @Description Lists hour entries, newest first. Employees only see their own entries.
// @Tags Hours
// @Produce json
// @Param userId query int false "User id (admin/accountant)"
// @Param projectId query int false "Project id"
// @Param absenceId query int false "Absence id"
// @Param from query string false "First day, YYYY-MM-DD"
// @Param to query string false "Last day, YYYY-MM-DD"
// @Success 200 {array} EntryDTO
// @Failure 400 {object} rest.ErrorResponse
// @Failure 403 {string} string "Forbidden"
// @Router /api/hours [get]
// @Security BearerAuth
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	log.Trace("Listing hour entries")
	query := r.URL.Query()

	filter, err := h.filterFromQuery(r, query.Get("userId"), query.Get("projectId"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid filter", err.Error())
		return
	}
	h.writeEntries(w, r, filter)
}

// ListUserEntries godoc
// @Summary List hour entries of a user
// @Tags Hours
// @Produce json
// @Param userId path int true "User id"
// @Success 200 {array} EntryDTO
// @Failure 403 {string} string "Forbidden"
// @Router /api/hours/users/{userId}/hours [get]
// @Security BearerAuth
func (h *Handler) ListUserEntries(w http.ResponseWriter, r *http.Request) {
	filter, err := h.filterFromQuery(r, mux.Vars(r)["userId"], r.URL.Query().Get("projectId"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid filter", err.Error())
		return
	}
	h.writeEntries(w, r, filter)
}

// ListProjectEntries godoc
// @Summary List hour entries of a project
// @Tags Hours
// @Produce json
// @Param projectId path int true "Project id"
// @Success 200 {array} EntryDTO
// @Router /api/hours/projects/{projectId}/hours-list [get]
// @Security BearerAuth
func (h *Handler) ListProjectEntries(w http.ResponseWriter, r *http.Request) {
	filter, err := h.filterFromQuery(r, r.URL.Query().Get("userId"), mux.Vars(r)["projectId"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid filter", err.Error())
		return
	}
	h.writeEntries(w, r, filter)
}

// GetEntry godoc
// @Summary Get an hour entry
// @Tags Hours
// @Produce json
// @Param id path int true "Entry id"
// @Success 200 {object} EntryDTO
// @Failure 404 {object} rest.ErrorResponse
// @Router /api/hours/{id} [get]
// @Security BearerAuth
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid entry id", "")
		return
	}
	entry, err := h.service.GetEntry(r.Context(), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, EntryToDTO(entry))
}

// CreateEntry godoc
// @Summary Log hours
// @Description Creates an hour entry against exactly one project or absence reason.
// @Tags Hours
// @Accept json
// @Produce json
// @Param entry body EntryRequestDTO true "Entry"
// @Success 201 {object} EntryDTO
// @Failure 400 {object} rest.ErrorResponse
// @Failure 403 {string} string "Forbidden"
// @Router /api/hours [post]
// @Security BearerAuth
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var request EntryRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return
	}
	log.Tracef("Creating hour entry: %+v", request)

	entry, err := request.toEntry()
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	created, err := h.service.CreateEntry(r.Context(), entry)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, EntryToDTO(created))
}

// UpdateEntry godoc
// @Summary Update an hour entry
// @Description Partial update. The owner of an entry cannot be changed.
// @Tags Hours
// @Accept json
// @Produce json
// @Param id path int true "Entry id"
// @Param entry body EntryRequestDTO true "Changed fields"
// @Success 200 {object} EntryDTO
// @Failure 400 {object} rest.ErrorResponse
// @Failure 403 {string} string "Forbidden"
// @Failure 404 {object} rest.ErrorResponse
// @Router /api/hours/{id} [put]
// @Security BearerAuth
func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid entry id", "")
		return
	}
	var request EntryRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return
	}
	if request.UserId != 0 {
		rest.WriteError(w, http.StatusBadRequest, "The owner of an hour entry cannot be changed", "")
		return
	}

	updated, err := h.service.UpdateEntry(r.Context(), id, EntryUpdate{
		ProjectId:    request.ProjectId,
		AbsenceId:    request.AbsenceId,
		StartTime:    request.StartTime,
		EndTime:      request.EndTime,
		BreakMinutes: request.BreakMinutes,
		Note:         request.Note,
	})
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, EntryToDTO(updated))
}

// DeleteEntry godoc
// @Summary Delete an hour entry
// @Tags Hours
// @Param id path int true "Entry id"
// @Success 204 "No Content"
// @Failure 403 {string} string "Forbidden"
// @Failure 404 {object} rest.ErrorResponse
// @Router /api/hours/{id} [delete]
// @Security BearerAuth
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid entry id", "")
		return
	}
	if err := h.service.DeleteEntry(r.Context(), id); err != nil {
		WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeEntries(w http.ResponseWriter, r *http.Request, filter Filter) {
	entries, err := h.service.ListEntries(r.Context(), filter)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, EntriesToDTO(entries))
}

// filterFromQuery reads the common filter parameters. Day bounds are interpreted in the
// current user's timezone and "to" is inclusive.
func (h *Handler) filterFromQuery(r *http.Request, userId, projectId string) (Filter, error) {
	query := r.URL.Query()
	var filter Filter
	var err error
	if filter.UserId, err = rest.ParseOptionalInt(userId); err != nil {
		return Filter{}, errors.New("userId must be a number")
	}
	if filter.ProjectId, err = rest.ParseOptionalInt(projectId); err != nil {
		return Filter{}, errors.New("projectId must be a number")
	}
	if filter.AbsenceId, err = rest.ParseOptionalInt(query.Get("absenceId")); err != nil {
		return Filter{}, errors.New("absenceId must be a number")
	}

	loc := time.UTC
	if current, err := user.CurrentUser(r.Context()); err == nil {
		loc = utils.LoadLocation(current.Settings.Timezone)
	}
	filter.From, filter.To, err = rest.ParseDayRange(query.Get("from"), query.Get("to"), loc)
	if err != nil {
		return Filter{}, err
	}
	return filter, nil
}

// WriteServiceError maps hour service errors to HTTP responses.
func WriteServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEntryNotFound):
		rest.WriteError(w, http.StatusNotFound, "Hour entry not found", "")
	case errors.Is(err, ErrForbidden):
		rest.WriteError(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, ErrInvalidTarget),
		errors.Is(err, ErrMissingTime),
		errors.Is(err, ErrNegativeBreak),
		errors.Is(err, ErrNegativeDuration):
		rest.WriteError(w, http.StatusBadRequest, "Invalid hour entry", err.Error())
	case errors.Is(err, user.ErrNoUser):
		http.Error(w, err.Error(), http.StatusForbidden)
	default:
		log.Errorf("hours request failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (d EntryRequestDTO) toEntry() (Entry, error) {
	target, err := NewTarget(d.ProjectId, d.AbsenceId)
	if err != nil {
		return Entry{}, err
	}
	entry := Entry{UserId: d.UserId, Target: target}
	if d.StartTime != nil {
		entry.StartTime = *d.StartTime
	}
	if d.EndTime != nil {
		entry.EndTime = *d.EndTime
	}
	if d.BreakMinutes != nil {
		entry.BreakMinutes = *d.BreakMinutes
	}
	if d.Note != nil {
		entry.Note = *d.Note
	}
	return entry, nil
}

// EntryToDTO converts an entry for responses, rounding hours to 2 decimals.
func EntryToDTO(entry Entry) EntryDTO {
	projectId, absenceId := entry.Target.Columns()
	return EntryDTO{
		Id:           entry.Id,
		UserId:       entry.UserId,
		ProjectId:    projectId,
		AbsenceId:    absenceId,
		StartTime:    entry.StartTime,
		EndTime:      entry.EndTime,
		BreakMinutes: entry.BreakMinutes,
		Note:         entry.Note,
		HoursWorked:  RoundHours(entry.HoursWorked),
	}
}

func EntriesToDTO(entries []Entry) []EntryDTO {
	dtos := make([]EntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, EntryToDTO(e))
	}
	return dtos
}
