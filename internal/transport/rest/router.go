package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/akira-ishikawa-jpg/coin-system/internal/audit"
	"github.com/akira-ishikawa-jpg/coin-system/internal/auth"
	"github.com/akira-ishikawa-jpg/coin-system/internal/employee"
	"github.com/akira-ishikawa-jpg/coin-system/internal/reaction"
	"github.com/akira-ishikawa-jpg/coin-system/internal/report"
	"github.com/akira-ishikawa-jpg/coin-system/internal/settings"
	"github.com/akira-ishikawa-jpg/coin-system/internal/slack"
	"github.com/akira-ishikawa-jpg/coin-system/internal/transfer"
	"github.com/akira-ishikawa-jpg/coin-system/internal/transport/middleware"
	"github.com/akira-ishikawa-jpg/coin-system/internal/transport/swagger"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth     *auth.Handler
	Transfer *transfer.Handler
	Reaction *reaction.Handler
	Employee *employee.Handler
	Report   *report.Handler
	Audit    *audit.Handler
	Slack    *slack.Handler
	Settings *settings.Handler
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, h Handlers, slackSigningSecret string, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	// Global middleware
	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.Metrics)

	// OpenAPI spec and Swagger UI outside the API prefix
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())
	router.Handle("/metrics", promhttp.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Slack endpoints authenticate with the signing secret, not JWT.
		if h.Slack != nil {
			r.Route("/slack", func(sr chi.Router) {
				sr.Use(slack.VerifySignature(slackSigningSecret))
				sr.Post("/commands", h.Slack.HandleCommand)
				sr.Post("/interactions", h.Slack.HandleInteraction)
			})
		}

		if h.Auth != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/login", h.Auth.Login)
				sr.Post("/refresh", h.Auth.RefreshToken)
				sr.Post("/logout", h.Auth.Logout)
			})

			// Authenticated routes
			r.Group(func(pr chi.Router) {
				pr.Use(h.Auth.AuthMiddleware)
				pr.Use(middleware.LoggingMiddleware(logger))

				pr.Get("/me", h.Auth.Me)

				if h.Transfer != nil {
					pr.Route("/transfers", func(tr chi.Router) {
						tr.Post("/", h.Transfer.SendCoins)
						tr.Get("/", h.Transfer.ListTransfers)
						tr.Get("/mine", h.Transfer.ListMyTransfers)
						tr.Get("/remaining", h.Transfer.GetRemaining)
						tr.Get("/{id}", h.Transfer.GetTransfer)
						if h.Reaction != nil {
							tr.Post("/{id}/like", h.Reaction.ToggleLike)
						}
					})
				}

				if h.Report != nil {
					pr.Route("/reports", func(rr chi.Router) {
						rr.Get("/rankings", h.Report.GetRankings)
						rr.Get("/monthly", h.Report.GetMonthlySummaries)
					})
				}

				// Admin routes
				pr.Group(func(ar chi.Router) {
					ar.Use(h.Auth.RequireAdmin)

					if h.Employee != nil {
						ar.Route("/admin/employees", func(er chi.Router) {
							er.Post("/", h.Employee.CreateEmployee)
							er.Post("/bulk", h.Employee.BulkCreateEmployees)
							er.Get("/", h.Employee.ListEmployees)
							er.Get("/{id}", h.Employee.GetEmployee)
							er.Patch("/{id}/role", h.Employee.UpdateRole)
							er.Delete("/{id}", h.Employee.DeactivateEmployee)
							er.Post("/{id}/bonus", h.Employee.GrantBonus)
						})
					}

					if h.Audit != nil {
						ar.Get("/admin/audit", h.Audit.ListEntries)
					}

					if h.Report != nil {
						ar.Get("/admin/reports/export.csv", h.Report.ExportCSV)
					}

					if h.Settings != nil {
						ar.Get("/admin/policy", h.Settings.GetPolicy)
						ar.Patch("/admin/policy", h.Settings.UpdatePolicy)
					}
				})
			})
		}
	})
}
