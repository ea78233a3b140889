package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/teamenforcer/internal/api/response"
	"github.com/mcoot/teamenforcer/internal/services/balance"
	"github.com/mcoot/teamenforcer/internal/services/enforcer"
)

// Game lifecycle events
const (
	EventMapStart   = "map-start"
	EventRoundStart = "round-start"
	EventRoundEnd   = "round-end"
	EventWarmupEnd  = "warmup-end"
)

// EventHandler receives game lifecycle events from the host
type EventHandler struct {
	enforcer *enforcer.Enforcer
}

// NewEventHandler creates a new event handler
func NewEventHandler(e *enforcer.Enforcer) *EventHandler {
	return &EventHandler{enforcer: e}
}

// Post handles POST /api/v1/events/{event}
func (h *EventHandler) Post(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var reconcile func() (balance.Report, error)
	switch mux.Vars(r)["event"] {
	case EventMapStart:
		if err := h.enforcer.MapStart(ctx); err != nil {
			WriteError(w, err)
			return
		}
		response.NoContent(w)
		return
	case EventRoundStart:
		if err := h.enforcer.RoundStart(ctx); err != nil {
			WriteError(w, err)
			return
		}
		response.NoContent(w)
		return
	case EventRoundEnd:
		reconcile = func() (balance.Report, error) { return h.enforcer.RoundEnd(ctx) }
	case EventWarmupEnd:
		reconcile = func() (balance.Report, error) { return h.enforcer.WarmupEnd(ctx) }
	default:
		WriteError(w, NewInvalidRequestError("unknown event"))
		return
	}

	report, err := reconcile()
	if err != nil {
		WriteError(w, err)
		return
	}
	response.OK(w, response.ReportFromModel(report))
}
