package handler

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mcoot/teamenforcer/internal/api/request"
	"github.com/mcoot/teamenforcer/internal/api/response"
	"github.com/mcoot/teamenforcer/internal/model"
	"github.com/mcoot/teamenforcer/internal/services/enforcer"
)

// ParticipantHandler mirrors the host's connected participants
type ParticipantHandler struct {
	enforcer *enforcer.Enforcer
}

// NewParticipantHandler creates a new participant handler
func NewParticipantHandler(e *enforcer.Enforcer) *ParticipantHandler {
	return &ParticipantHandler{enforcer: e}
}

// List handles GET /api/v1/participants
func (h *ParticipantHandler) List(w http.ResponseWriter, r *http.Request) {
	participants, err := h.enforcer.Participants(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.OK(w, response.ParticipantsFromModel(participants))
}

// Connect handles POST /api/v1/participants
func (h *ParticipantHandler) Connect(w http.ResponseWriter, r *http.Request) {
	var req request.ConnectRequest
	if err := decode(r, &req, false); err != nil {
		WriteError(w, err)
		return
	}
	if strings.TrimSpace(req.Identity) == "" {
		WriteError(w, NewInvalidRequestError("identity is required"))
		return
	}

	role := model.RoleNone
	if req.Role != "" {
		parsed, ok := model.ParseRole(req.Role)
		if !ok {
			WriteError(w, NewInvalidRequestError("invalid role"))
			return
		}
		role = parsed
	}

	p := model.Participant{
		Identity:  model.Identity(req.Identity),
		Handle:    model.Handle(req.Handle),
		Name:      req.Name,
		Role:      role,
		Connected: true,
	}
	if err := h.enforcer.Connect(r.Context(), p); err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, response.ParticipantFromModel(p))
}

// Disconnect handles DELETE /api/v1/participants/{identity}
func (h *ParticipantHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	id := model.Identity(mux.Vars(r)["identity"])
	if err := h.enforcer.Disconnect(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}
	response.NoContent(w)
}

// SetRole handles PUT /api/v1/participants/{identity}/role
func (h *ParticipantHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	var req request.RoleRequest
	if err := decode(r, &req, false); err != nil {
		WriteError(w, err)
		return
	}
	role, ok := model.ParseRole(req.Role)
	if !ok {
		WriteError(w, NewInvalidRequestError("invalid role"))
		return
	}

	id := model.Identity(mux.Vars(r)["identity"])
	if err := h.enforcer.ReportRole(r.Context(), id, role); err != nil {
		WriteError(w, err)
		return
	}
	response.NoContent(w)
}
