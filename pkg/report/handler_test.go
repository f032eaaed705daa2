package report

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/totaltiming/totaltiming/pkg/user"
)

func setupRouter(t *testing.T, current user.User) *mux.Router {
	handler := NewHandler(setupService(t), NewCsvRenderer())
	router := mux.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(user.WithUser(r.Context(), current)))
		})
	})
	reports := router.PathPrefix("/api/reports").Subrouter()
	reports.HandleFunc("/hours/by-user-project", handler.HoursByUserProject).Methods("GET")
	reports.HandleFunc("/hours/by-user", handler.HoursByUser).Methods("GET")
	reports.HandleFunc("/hours/by-project", handler.HoursByProject).Methods("GET")
	reports.HandleFunc("/projects/{projectId}/hours", handler.ProjectHours).Methods("GET")
	reports.HandleFunc("/projects/{projectId}/hours/by-user", handler.ProjectHoursByUser).Methods("GET")
	reports.HandleFunc("/absence/{absenceId}/hours", handler.AbsenceHours).Methods("GET")
	reports.HandleFunc("/absence/{absenceId}/hours-by-user", handler.AbsenceHoursByUser).Methods("GET")
	reports.HandleFunc("/monthly/by-user", handler.MonthlyByUser).Methods("GET")
	reports.HandleFunc("/monthly/by-project", handler.MonthlyByProject).Methods("GET")
	reports.HandleFunc("/monthly/by-absence", handler.MonthlyByAbsence).Methods("GET")
	return router
}

func get(router http.Handler, target string, accept string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", target, nil)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandler_HoursByUser(t *testing.T) {
	router := setupRouter(t, admin)

	rec := get(router, "/api/reports/hours/by-user?from=2025-03-01&to=2025-03-31", "")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var dto SummaryDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, "2025-03-01", dto.From)
	assert.Equal(t, "2025-03-31", dto.To)
	assert.Equal(t, 22.0, dto.TotalHours)
	assert.Equal(t, []SummaryRowDTO{
		{Id: 3, Name: "Anders", TotalHours: 7.5},
		{Id: 1, Name: "Kari", TotalHours: 8},
		{Id: 2, Name: "Åse", TotalHours: 6.5},
	}, dto.Rows)
}

func TestHandler_MonthlyCsv(t *testing.T) {
	router := setupRouter(t, admin)

	rec := get(router, "/api/reports/monthly/by-user?date=2025-03", "text/csv")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "User,Hours,Duration\n"+
		"Anders,7.50,07:30:00\n"+
		"Kari,8.00,08:00:00\n"+
		"Åse,6.50,06:30:00\n"+
		"SUM,22.00,22:00:00\n", rec.Body.String())
}

func TestWantsCsv(t *testing.T) {
	tests := []struct {
		accept string
		want   bool
	}{
		{"text/csv", true},
		{"text/csv, */*;q=0.8", true},
		{"application/json;q=0.9, text/csv; charset=utf-8", true},
		{"TEXT/CSV", true},
		{"text/csv;q=0", false},
		{"application/json", false},
		{"*/*", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.accept, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/reports/hours/by-user", nil)
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			assert.Equal(t, tt.want, wantsCsv(req))
		})
	}
}

func TestHandler_CsvAmongOtherMediaRanges(t *testing.T) {
	router := setupRouter(t, admin)

	rec := get(router, "/api/reports/monthly/by-user?date=2025-03", "text/csv, */*;q=0.8")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "SUM,22.00,22:00:00\n")
}

func TestHandler_HoursByUserProjectCsv(t *testing.T) {
	router := setupRouter(t, admin)

	rec := get(router, "/api/reports/hours/by-user-project?to=2025-03-31", "text/csv")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User,Project,Hours,Duration\n"+
		"Kari,Bridge,8.00,08:00:00\n"+
		"Åse,Bridge,4.00,04:00:00\n"+
		"Åse,Tunnel,2.50,02:30:00\n"+
		"SUM,,14.50,14:30:00\n", rec.Body.String())
}

func TestHandler_ProjectHours(t *testing.T) {
	router := setupRouter(t, admin)

	rec := get(router, "/api/reports/projects/P-2/hours?userId=2", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var dtos []DetailDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dtos))
	require.Len(t, dtos, 1)
	assert.Equal(t, "Åse", dtos[0].Name)
	assert.Equal(t, "Tunnel", dtos[0].TargetName)
	assert.Equal(t, 2.5, dtos[0].HoursWorked)
	require.NotNil(t, dtos[0].ProjectId)
	assert.Equal(t, 2, *dtos[0].ProjectId)
}

func TestHandler_Errors(t *testing.T) {
	router := setupRouter(t, admin)

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"reversed range", "/api/reports/hours/by-project?from=2025-03-10&to=2025-03-01", http.StatusBadRequest},
		{"bad day", "/api/reports/hours/by-user?from=march", http.StatusBadRequest},
		{"bad month", "/api/reports/monthly/by-project?date=03-2025", http.StatusBadRequest},
		{"bad user id", "/api/reports/absence/SYK/hours?userId=x", http.StatusBadRequest},
		{"unknown project", "/api/reports/projects/P-9/hours/by-user", http.StatusNotFound},
		{"unknown absence", "/api/reports/absence/X/hours-by-user", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, get(router, tt.target, "").Code)
		})
	}
}

func TestHandler_EmployeeIsForbidden(t *testing.T) {
	router := setupRouter(t, user.User{Id: 1, Role: user.RoleEmployee})

	assert.Equal(t, http.StatusForbidden, get(router, "/api/reports/hours/by-user", "").Code)
	assert.Equal(t, http.StatusForbidden, get(router, "/api/reports/monthly/by-absence", "text/csv").Code)
}
