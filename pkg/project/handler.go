package project

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"github.com/totaltiming/totaltiming/internal/rest"
	"github.com/totaltiming/totaltiming/pkg/hours"
	"github.com/totaltiming/totaltiming/pkg/user"
)

type ProjectDTO struct {
	Id          int     `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Status      Status  `json:"status"`
	LoggedHours float64 `json:"totalHours"`
	StartDate   *string `json:"startDate"`
	EndDate     *string `json:"endDate"`
	ProjectCode string  `json:"projectCode"`
}

type ProjectRequestDTO struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
	StartDate   *string `json:"startDate,omitempty"`
	EndDate     *string `json:"endDate,omitempty"`
	ProjectCode *string `json:"projectCode,omitempty"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// ListProjects godoc
// @Summary List projects
// @Tags Project
// @Produce json
// @Success 200 {array} ProjectDTO
// @Router /api/projects [get]
// @Security BearerAuth
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	log.Trace("Listing projects")
	projects, err := h.service.ListProjects(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, projectsToDTO(projects))
}

// ListActiveProjects godoc
// @Summary List active projects
// @Description Projects with status active whose end date is not in the past
// @Tags Project
// @Produce json
// @Success 200 {array} ProjectDTO
// @Router /api/projects/active [get]
// @Security BearerAuth
func (h *Handler) ListActiveProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.service.ListActiveProjects(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, projectsToDTO(projects))
}

// GetProject godoc
// @Summary Get a project by id or project code
// @Tags Project
// @Produce json
// @Param id path string true "Project id or project code"
// @Success 200 {object} ProjectDTO
// @Failure 404 {object} rest.ErrorResponse
// @Router /api/projects/{id} [get]
// @Security BearerAuth
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProject(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, projectToDTO(p))
}

// CreateProject godoc
// @Summary Create a project
// @Tags Project
// @Accept json
// @Produce json
// @Param project body ProjectRequestDTO true "Project"
// @Success 201 {object} ProjectDTO
// @Failure 400 {object} rest.ErrorResponse
// @Failure 409 {object} rest.ErrorResponse "Project code already exists"
// @Router /api/projects [post]
// @Security BearerAuth
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var request ProjectRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return
	}
	update, err := request.toUpdate()
	if err != nil {
		writeError(w, err)
		return
	}
	p := Project{}
	applyUpdate(&p, update)

	created, err := h.service.CreateProject(r.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, projectToDTO(created))
}

// UpdateProject godoc
// @Summary Update a project
// @Description Partial update of a project
// @Tags Project
// @Accept json
// @Produce json
// @Param id path int true "Project id"
// @Param project body ProjectRequestDTO true "Changed fields"
// @Success 200 {object} ProjectDTO
// @Failure 400 {object} rest.ErrorResponse
// @Failure 404 {object} rest.ErrorResponse
// @Router /api/projects/{id} [patch]
// @Security BearerAuth
func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid project id", "")
		return
	}
	var request ProjectRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return
	}
	update, err := request.toUpdate()
	if err != nil {
		writeError(w, err)
		return
	}
	updated, err := h.service.UpdateProject(r.Context(), id, update)
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, projectToDTO(updated))
}

// DeleteProject godoc
// @Summary Delete a project
// @Tags Project
// @Param id path int true "Project id"
// @Success 204 "No Content"
// @Failure 404 {object} rest.ErrorResponse
// @Router /api/projects/{id} [delete]
// @Security BearerAuth
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid project id", "")
		return
	}
	if err := h.service.DeleteProject(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrProjectNotFound):
		rest.WriteError(w, http.StatusNotFound, "Project not found", "")
	case errors.Is(err, ErrProjectInvalid):
		rest.WriteError(w, http.StatusBadRequest, "Invalid project", err.Error())
	case errors.Is(err, ErrProjectCodeExists):
		rest.WriteError(w, http.StatusConflict, "Project code already exists", "")
	case errors.Is(err, ErrForbidden), errors.Is(err, user.ErrNoUser):
		http.Error(w, err.Error(), http.StatusForbidden)
	default:
		log.Errorf("project request failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (d ProjectRequestDTO) toUpdate() (ProjectUpdate, error) {
	update := ProjectUpdate{
		Name:        d.Name,
		Description: d.Description,
		ProjectCode: d.ProjectCode,
	}
	if d.Status != nil {
		status, err := ParseStatus(*d.Status)
		if err != nil {
			return ProjectUpdate{}, err
		}
		update.Status = &status
	}
	var err error
	if update.StartDate, err = parseOptionalDate(d.StartDate); err != nil {
		return ProjectUpdate{}, err
	}
	if update.EndDate, err = parseOptionalDate(d.EndDate); err != nil {
		return ProjectUpdate{}, err
	}
	return update, nil
}

func applyUpdate(p *Project, update ProjectUpdate) {
	if update.Name != nil {
		p.Name = *update.Name
	}
	if update.Description != nil {
		p.Description = *update.Description
	}
	if update.Status != nil {
		p.Status = *update.Status
	}
	p.StartDate = update.StartDate
	p.EndDate = update.EndDate
	if update.ProjectCode != nil {
		p.ProjectCode = *update.ProjectCode
	}
}

func parseOptionalDate(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := rest.ParseDate(*value, time.UTC)
	if err != nil {
		return nil, errors.Join(ErrProjectInvalid, err)
	}
	return &t, nil
}

func formatOptionalDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(rest.DateLayout)
	return &s
}

func projectToDTO(p Project) ProjectDTO {
	return ProjectDTO{
		Id:          p.Id,
		Name:        p.Name,
		Description: p.Description,
		Status:      p.Status,
		LoggedHours: hours.RoundHours(p.LoggedHours),
		StartDate:   formatOptionalDate(p.StartDate),
		EndDate:     formatOptionalDate(p.EndDate),
		ProjectCode: p.ProjectCode,
	}
}

func projectsToDTO(projects []Project) []ProjectDTO {
	dtos := make([]ProjectDTO, 0, len(projects))
	for _, p := range projects {
		dtos = append(dtos, projectToDTO(p))
	}
	return dtos
}
