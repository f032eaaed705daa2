package app

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/totaltiming/totaltiming/internal/auth"
	"github.com/totaltiming/totaltiming/internal/config"
	"github.com/totaltiming/totaltiming/internal/event_bus"
	"github.com/totaltiming/totaltiming/internal/utils"
	"github.com/totaltiming/totaltiming/pkg/absence"
	"github.com/totaltiming/totaltiming/pkg/hours"
	"github.com/totaltiming/totaltiming/pkg/project"
	"github.com/totaltiming/totaltiming/pkg/report"
	"github.com/totaltiming/totaltiming/pkg/summary"
	"github.com/totaltiming/totaltiming/pkg/timesheet"
	"github.com/totaltiming/totaltiming/pkg/user"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	AuthTokenValidator *auth.TokenValidator
	EventBus           *event_bus.EventBus
	Clock              utils.Clock

	UserService user.Service
	UserHandler *user.Handler

	HoursRepo    hours.Repository
	HoursService *hours.ServiceImpl
	HoursHandler *hours.Handler

	TimesheetService *timesheet.ServiceImpl
	TimesheetHandler *timesheet.Handler

	ProjectService *project.ServiceImpl
	ProjectHandler *project.Handler

	AbsenceService *absence.ServiceImpl
	AbsenceHandler *absence.Handler

	ReportService *report.ServiceImpl
	CsvRenderer   *report.CsvRendererImpl
	ReportHandler *report.Handler
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *pgxpool.Pool, cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.AuthTokenValidator = auth.NewTokenValidator(cfg.Auth.Secret)
	deps.EventBus = event_bus.NewEventBus()
	deps.Clock = &utils.SystemClock{}

	deps.UserService = user.NewUserService(user.NewUserRepo(db), cfg.Users.DefaultTimezone)
	deps.UserHandler = user.NewHandler(deps.UserService)

	deps.HoursRepo = hours.NewRepo(db)
	deps.HoursService = hours.NewService(deps.HoursRepo, deps.EventBus)
	deps.HoursHandler = hours.NewHandler(deps.HoursService)

	deps.TimesheetService = timesheet.NewService(deps.HoursService, deps.UserService, deps.Clock)
	deps.TimesheetHandler = timesheet.NewHandler(deps.TimesheetService)

	deps.ProjectService = project.NewService(project.NewRepository(db), deps.HoursRepo, deps.EventBus, deps.Clock)
	deps.ProjectHandler = project.NewHandler(deps.ProjectService)

	deps.AbsenceService = absence.NewService(absence.NewRepository(db))
	deps.AbsenceHandler = absence.NewHandler(deps.AbsenceService)

	deps.ReportService = report.NewService(
		deps.HoursService,
		deps.UserService,
		deps.ProjectService,
		deps.AbsenceService,
		summary.NewAggregator(cfg.Report.Locale),
		deps.Clock,
	)
	deps.CsvRenderer = report.NewCsvRenderer()
	deps.ReportHandler = report.NewHandler(deps.ReportService, deps.CsvRenderer)

	return deps
}
