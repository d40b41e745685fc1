// Package ops serves the node's operational HTTP surface: liveness, status
// and statistics reads, the lifecycle journal, and a small admin API for the
// actions an operator may take on a running process.
package ops

import (
	"encoding/json"
	"errors"
	"net/http"

	"fleetnode/internal/journal"
	"fleetnode/internal/lifecycle"
	"fleetnode/internal/orchestrator"
	"fleetnode/internal/stats"
)

type Handlers struct {
	ctrl *lifecycle.Controller
	agg  *stats.Aggregator
	jr   *journal.Journal
}

// NewHandlers builds the endpoint set. jr may be nil when no journal database
// is configured; the journal routes then answer 404.
func NewHandlers(ctrl *lifecycle.Controller, agg *stats.Aggregator, jr *journal.Journal) *Handlers {
	return &Handlers{ctrl: ctrl, agg: agg, jr: jr}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handlers) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		healthy := h.ctrl.CheckHealth()
		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, h.ctrl.Health())
	}
}

func (h *Handlers) Status() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, h.ctrl.Status())
	}
}

func (h *Handlers) Stats() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, h.agg.Snapshot())
	}
}

func (h *Handlers) Reinitialize() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if err := h.ctrl.Reinitialize(); err != nil {
			WriteHTTPError(w, http.StatusConflict, "not_in_error_state")
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]any{"ok": true, "state": h.ctrl.State()})
	}
}

func (h *Handlers) Terminate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Reason string `json:"reason"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Reason == "" {
			body.Reason = "operator_requested"
		}
		h.ctrl.RequestTermination(body.Reason)
		writeJSON(w, http.StatusAccepted, map[string]any{"ok": true, "reason": body.Reason})
	}
}

func (h *Handlers) Policy() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Policy string `json:"policy"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "bad_request")
			return
		}
		err := h.ctrl.SetPlayerAcceptancePolicy(r.Context(), orchestrator.AcceptancePolicy(body.Policy))
		switch {
		case errors.Is(err, lifecycle.ErrInvalidPolicy):
			WriteHTTPError(w, http.StatusBadRequest, "invalid_policy")
			return
		case err != nil:
			WriteHTTPError(w, http.StatusBadGateway, "orchestrator_rejected")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "policy": body.Policy})
	}
}

func (h *Handlers) EndSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Reason string `json:"reason"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Reason == "" {
			body.Reason = "operator_requested"
		}
		if err := h.ctrl.EndSession(r.Context(), body.Reason); err != nil {
			WriteHTTPError(w, http.StatusConflict, "no_active_session")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

func (h *Handlers) JournalTransitions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.jr == nil {
			WriteHTTPError(w, http.StatusNotFound, "journal_disabled")
			return
		}
		rows, err := h.jr.RecentTransitions(r.Context(), ParseLimit(r))
		if err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "journal_error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": rows})
	}
}

func (h *Handlers) JournalSessions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.jr == nil {
			WriteHTTPError(w, http.StatusNotFound, "journal_disabled")
			return
		}
		rows, err := h.jr.RecentSessionEvents(r.Context(), ParseLimit(r))
		if err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "journal_error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": rows})
	}
}

func (h *Handlers) JournalPlayers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.jr == nil {
			WriteHTTPError(w, http.StatusNotFound, "journal_disabled")
			return
		}
		rows, err := h.jr.RecentPlayerEvents(r.Context(), ParseLimit(r))
		if err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "journal_error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": rows})
	}
}
