package cmd

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/akira-ishikawa-jpg/coin-system/internal/employee"
	"github.com/akira-ishikawa-jpg/coin-system/internal/report"
	"github.com/go-chi/chi"
)

// taskActor is the audit actor for scheduler-triggered runs.
const taskActor = ""

// registerTaskRoutes mounts the endpoints the external scheduler hits. They
// authenticate with a shared secret header instead of JWT.
func registerTaskRoutes(deps *Dependencies, reportService *report.Service, employeeService *employee.Service) {
	secret := deps.Config.Security.TaskSecret
	lg := deps.Logger

	if secret == "" {
		lg.Info("task secret not configured, task endpoints disabled")
		return
	}

	requireTaskSecret := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get("X-Task-Secret")
			if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
				lg.Warn("task endpoint called with bad secret", "path", r.URL.Path)
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next(w, r)
		}
	}

	deps.Router.Route("/tasks", func(r chi.Router) {
		// Monday 00:00 UTC: expire leftover bonus pools.
		r.Post("/start-week", requireTaskSecret(func(w http.ResponseWriter, r *http.Request) {
			affected, err := employeeService.StartNewWeek(r.Context(), taskActor)
			if err != nil {
				lg.Error("weekly reset task failed", "error", err)
				http.Error(w, "weekly reset failed", http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{"reset_employees": affected})
		}))

		// First of month: snapshot the previous month's totals. year/month
		// query params override for backfills.
		r.Post("/close-month", requireTaskSecret(func(w http.ResponseWriter, r *http.Request) {
			prev := time.Now().UTC().AddDate(0, -1, 0)
			year := prev.Year()
			month := prev.Month()

			if y := r.URL.Query().Get("year"); y != "" {
				parsed, err := strconv.Atoi(y)
				if err != nil {
					http.Error(w, "invalid year", http.StatusBadRequest)
					return
				}
				year = parsed
			}
			if m := r.URL.Query().Get("month"); m != "" {
				parsed, err := strconv.Atoi(m)
				if err != nil || parsed < 1 || parsed > 12 {
					http.Error(w, "invalid month", http.StatusBadRequest)
					return
				}
				month = time.Month(parsed)
			}

			count, err := reportService.CloseMonth(r.Context(), taskActor, year, month)
			if err != nil {
				lg.Error("monthly close task failed", "error", err, "year", year, "month", int(month))
				http.Error(w, "monthly close failed", http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{
				"year":      year,
				"month":     int(month),
				"employees": count,
			})
		}))
	})
}
