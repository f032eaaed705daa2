package app

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/totaltiming/totaltiming/internal/rest"
	"github.com/totaltiming/totaltiming/pkg/user"
)

// RegisterRoutes registers all API endpoints. api is the authenticated /api subrouter.
func RegisterRoutes(r *mux.Router, api *mux.Router, deps *Dependencies) {

	r.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		rest.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	// Hours summaries, registered before /hours/{id}
	api.HandleFunc("/hours/summary/weekly", deps.TimesheetHandler.WeeklySummary).Methods("GET")
	api.HandleFunc("/hours/summary/monthly", deps.TimesheetHandler.MonthlySummary).Methods("GET")
	api.HandleFunc("/hours/summary/months", deps.TimesheetHandler.MonthlyTotals).Methods("GET")

	// Hours
	api.HandleFunc("/hours", deps.HoursHandler.ListEntries).Methods("GET")
	api.HandleFunc("/hours", deps.HoursHandler.CreateEntry).Methods("POST")
	api.HandleFunc("/hours/{id:[0-9]+}", deps.HoursHandler.GetEntry).Methods("GET")
	api.HandleFunc("/hours/{id:[0-9]+}", deps.HoursHandler.UpdateEntry).Methods("PUT")
	api.HandleFunc("/hours/{id:[0-9]+}", deps.HoursHandler.DeleteEntry).Methods("DELETE")
	api.HandleFunc("/hours/users/{userId:[0-9]+}/hours", deps.HoursHandler.ListUserEntries).Methods("GET")
	api.HandleFunc("/hours/projects/{projectId:[0-9]+}/hours-list", deps.HoursHandler.ListProjectEntries).Methods("GET")

	// Projects
	api.HandleFunc("/projects", deps.ProjectHandler.ListProjects).Methods("GET")
	api.HandleFunc("/projects/active", deps.ProjectHandler.ListActiveProjects).Methods("GET")
	api.HandleFunc("/projects", deps.ProjectHandler.CreateProject).Methods("POST")
	api.HandleFunc("/projects/{id}", deps.ProjectHandler.GetProject).Methods("GET")
	api.HandleFunc("/projects/{id:[0-9]+}", deps.ProjectHandler.UpdateProject).Methods("PATCH", "PUT")
	api.HandleFunc("/projects/{id:[0-9]+}", deps.ProjectHandler.DeleteProject).Methods("DELETE")

	// Absence reasons
	api.HandleFunc("/absence", deps.AbsenceHandler.ListAbsences).Methods("GET")
	api.HandleFunc("/absence/{id}", deps.AbsenceHandler.GetAbsence).Methods("GET")

	// Users
	api.HandleFunc("/user/current", deps.UserHandler.CurrentUser).Methods("GET")
	api.HandleFunc("/users", deps.UserHandler.GetAllUsers).Methods("GET")
	api.HandleFunc("/users", deps.UserHandler.CreateUser).Methods("POST")

	// Reports
	reports := api.PathPrefix("/reports").Subrouter()
	reports.Use(RequireRole(user.RoleAdmin, user.RoleAccountant))
	reports.HandleFunc("/hours/by-user-project", deps.ReportHandler.HoursByUserProject).Methods("GET")
	reports.HandleFunc("/hours/by-user", deps.ReportHandler.HoursByUser).Methods("GET")
	reports.HandleFunc("/hours/by-project", deps.ReportHandler.HoursByProject).Methods("GET")
	reports.HandleFunc("/projects/{projectId}/hours", deps.ReportHandler.ProjectHours).Methods("GET")
	reports.HandleFunc("/projects/{projectId}/hours/by-user", deps.ReportHandler.ProjectHoursByUser).Methods("GET")
	reports.HandleFunc("/absence/{absenceId}/hours", deps.ReportHandler.AbsenceHours).Methods("GET")
	reports.HandleFunc("/absence/{absenceId}/hours-by-user", deps.ReportHandler.AbsenceHoursByUser).Methods("GET")
	reports.HandleFunc("/monthly/by-user", deps.ReportHandler.MonthlyByUser).Methods("GET")
	reports.HandleFunc("/monthly/by-project", deps.ReportHandler.MonthlyByProject).Methods("GET")
	reports.HandleFunc("/monthly/by-absence", deps.ReportHandler.MonthlyByAbsence).Methods("GET")
}
