// Package plan exposes the supervised plan over HTTP.
package plan

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/kilianp07/auvplan/core/model"
	"github.com/kilianp07/auvplan/infra/statstore"
)

// Supervisor is the plan service behind the API.
type Supervisor interface {
	Status() model.PlanStatus
	Execute(ctx context.Context, cmd model.PlanCommand) error
}

// Routes returns the API handlers keyed by path. Every route requires
// "Authorization: Bearer <token>" when token is non-empty.
func Routes(sup Supervisor, store statstore.Store, token string) map[string]http.Handler {
	return map[string]http.Handler{
		"/api/plan/status":     authorize(token, NewStatusHandler(sup)),
		"/api/plan/statistics": authorize(token, NewStatisticsHandler(store)),
		"/api/plan/command":    authorize(token, NewCommandHandler(sup)),
	}
}

func authorize(token string, next http.Handler) http.Handler {
	if token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// NewStatusHandler returns an HTTP handler exposing the plan status via GET /api/plan/status.
func NewStatusHandler(sup Supervisor) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, sup.Status())
	})
}

// NewStatisticsHandler returns an HTTP handler exposing stored plan
// statistics via GET /api/plan/statistics. Supported query parameters are
// plan_id, type, start and end (RFC3339) and limit.
func NewStatisticsHandler(store statstore.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		v := r.URL.Query()
		q := statstore.Query{PlanID: v.Get("plan_id"), Type: v.Get("type")}
		if s := v.Get("start"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.Start = t
			}
		}
		if s := v.Get("end"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.End = t
			}
		}
		if s := v.Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			q.Limit = n
		}
		records, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []model.PlanStatistics{}
		}
		writeJSON(w, http.StatusOK, records)
	})
}

type commandResponse struct {
	RequestID string           `json:"request_id,omitempty"`
	Status    model.PlanStatus `json:"status"`
	Error     string           `json:"error,omitempty"`
}

// NewCommandHandler returns an HTTP handler accepting plan commands via
// POST /api/plan/command. A rejected command answers 409 with the error.
func NewCommandHandler(sup Supervisor) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var cmd model.PlanCommand
		if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
			http.Error(w, "invalid command: "+err.Error(), http.StatusBadRequest)
			return
		}
		err := sup.Execute(r.Context(), cmd)
		resp := commandResponse{RequestID: cmd.RequestID}
		code := http.StatusOK
		if err != nil {
			resp.Error = err.Error()
			code = http.StatusConflict
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				code = http.StatusServiceUnavailable
			}
		}
		resp.Status = sup.Status()
		writeJSON(w, code, resp)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
