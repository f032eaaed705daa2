package user

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/totaltiming/totaltiming/internal/rest"
)

type UserDTO struct {
	Id       int         `json:"userId"`
	Uid      string      `json:"uid"`
	Name     string      `json:"name"`
	Role     Role        `json:"role"`
	Settings SettingsDTO `json:"settings"`
}

type SettingsDTO struct {
	Timezone string `json:"timezone"`
}

type Handler struct {
	userService Service
}

func NewHandler(userService Service) *Handler {
	return &Handler{
		userService: userService,
	}
}

// CreateUser godoc
// @Summary Create a new user
// @Description Register a new user in the system. Admin only.
// @Tags User
// @Accept json
// @Produce json
// @Param user body UserDTO true "User"
// @Success 201 {object} UserDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Failure 403 {string} string "Forbidden"
// @Router /api/users [post]
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating user")

	var user UserDTO
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", "")
		return
	}
	log.Tracef("Creating new user: %+v", user)

	if len(user.Name) == 0 {
		rest.WriteError(w, http.StatusBadRequest, "Name is required", "")
		return
	}

	createdUser, err := h.userService.CreateUser(r.Context(), dtoToUser(user))
	if err != nil {
		switch {
		case errors.Is(err, ErrUserDataInvalid):
			rest.WriteError(w, http.StatusBadRequest, "Invalid user data", err.Error())
		case errors.Is(err, ErrForbidden):
			http.Error(w, err.Error(), http.StatusForbidden)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	log.Tracef("Created user: %+v", createdUser)

	rest.WriteJSON(w, http.StatusCreated, userToDTO(createdUser))
}

// CurrentUser godoc
// @Summary Get current user
// @Description Retrieve the currently authenticated user's information
// @Tags User
// @Produce json
// @Success 200 {object} UserDTO
// @Failure 404 {string} string "User Not Found"
// @Router /api/user/current [get]
// @Security BearerAuth
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	log.Trace("Getting current user")

	currentUser, err := h.userService.GetCurrentUser(r.Context())
	if err != nil {
		if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrNoUser) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	rest.WriteJSON(w, http.StatusOK, userToDTO(currentUser))
}

// GetAllUsers godoc
// @Summary Get all users
// @Description Retrieve all users ordered by name
// @Tags User
// @Produce json
// @Success 200 {array} UserDTO
// @Router /api/users [get]
// @Security BearerAuth
func (h *Handler) GetAllUsers(w http.ResponseWriter, r *http.Request) {
	log.Trace("Getting all users")

	users, err := h.userService.GetAllUsers(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	usersDTO := make([]UserDTO, 0, len(users))
	for _, user := range users {
		usersDTO = append(usersDTO, userToDTO(user))
	}
	rest.WriteJSON(w, http.StatusOK, usersDTO)
}

func userToDTO(user User) UserDTO {
	return UserDTO{
		Id:   user.Id,
		Uid:  user.Uid,
		Name: user.Name,
		Role: user.Role,
		Settings: SettingsDTO{
			Timezone: user.Settings.Timezone,
		},
	}
}

func dtoToUser(userDTO UserDTO) User {
	return User{
		Name: userDTO.Name,
		Role: userDTO.Role,
		Settings: Settings{
			Timezone: userDTO.Settings.Timezone,
		},
	}
}
