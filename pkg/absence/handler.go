package absence

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"github.com/totaltiming/totaltiming/internal/rest"
)

type AbsenceDTO struct {
	Id          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	AbsenceCode string `json:"absenceCode"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// ListAbsences godoc
// @Summary List absence reasons
// @Tags Absence
// @Produce json
// @Success 200 {array} AbsenceDTO
// @Router /api/absence [get]
// @Security BearerAuth
func (h *Handler) ListAbsences(w http.ResponseWriter, r *http.Request) {
	absences, err := h.service.ListAbsences(r.Context())
	if err != nil {
		log.Errorf("failed to list absences: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	dtos := make([]AbsenceDTO, 0, len(absences))
	for _, a := range absences {
		dtos = append(dtos, toDTO(a))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// GetAbsence godoc
// @Summary Get an absence reason by id or absence code
// @Tags Absence
// @Produce json
// @Param id path string true "Absence id or code"
// @Success 200 {object} AbsenceDTO
// @Failure 404 {object} rest.ErrorResponse
// @Router /api/absence/{id} [get]
// @Security BearerAuth
func (h *Handler) GetAbsence(w http.ResponseWriter, r *http.Request) {
	a, err := h.service.GetAbsence(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, ErrAbsenceNotFound) {
			rest.WriteError(w, http.StatusNotFound, "Absence not found", "")
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	rest.WriteJSON(w, http.StatusOK, toDTO(a))
}

func toDTO(a Absence) AbsenceDTO {
	return AbsenceDTO{
		Id:          a.Id,
		Name:        a.Name,
		Description: a.Description,
		AbsenceCode: a.AbsenceCode,
	}
}
