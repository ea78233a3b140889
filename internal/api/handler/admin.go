package handler

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mcoot/teamenforcer/internal/api/middleware"
	"github.com/mcoot/teamenforcer/internal/api/request"
	"github.com/mcoot/teamenforcer/internal/api/response"
	"github.com/mcoot/teamenforcer/internal/services/enforcer"
)

// AdminHandler runs operator commands. The acting operator comes from the
// staff header; requests without one act as the console.
type AdminHandler struct {
	enforcer *enforcer.Enforcer
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(e *enforcer.Enforcer) *AdminHandler {
	return &AdminHandler{enforcer: e}
}

func (h *AdminHandler) reply(w http.ResponseWriter, status int, reply enforcer.Reply, err error) {
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, status, response.CommandFromReply(reply))
}

// Ban handles POST /api/v1/bans
func (h *AdminHandler) Ban(w http.ResponseWriter, r *http.Request) {
	var req request.BanRequest
	if err := decode(r, &req, false); err != nil {
		WriteError(w, err)
		return
	}
	if strings.TrimSpace(req.Target) == "" {
		WriteError(w, NewInvalidRequestError("target is required"))
		return
	}

	staff := middleware.GetStaff(r.Context())
	reply, err := h.enforcer.Ban(r.Context(), staff, req.Target, req.Minutes, req.Reason)
	h.reply(w, http.StatusCreated, reply, err)
}

// Unban handles DELETE /api/v1/bans/{target}
func (h *AdminHandler) Unban(w http.ResponseWriter, r *http.Request) {
	var req request.UnbanRequest
	if err := decode(r, &req, true); err != nil {
		WriteError(w, err)
		return
	}

	staff := middleware.GetStaff(r.Context())
	reply, err := h.enforcer.Unban(r.Context(), staff, mux.Vars(r)["target"], req.Reason)
	h.reply(w, http.StatusOK, reply, err)
}

// BanInfo handles GET /api/v1/bans/{target}
func (h *AdminHandler) BanInfo(w http.ResponseWriter, r *http.Request) {
	staff := middleware.GetStaff(r.Context())
	reply, err := h.enforcer.BanInfo(r.Context(), staff, mux.Vars(r)["target"])
	h.reply(w, http.StatusOK, reply, err)
}

// BanHistory handles GET /api/v1/bans/{target}/history
func (h *AdminHandler) BanHistory(w http.ResponseWriter, r *http.Request) {
	staff := middleware.GetStaff(r.Context())
	reply, err := h.enforcer.BanHistory(r.Context(), staff, mux.Vars(r)["target"])
	h.reply(w, http.StatusOK, reply, err)
}

// Promote handles POST /api/v1/guards/{target}/promote
func (h *AdminHandler) Promote(w http.ResponseWriter, r *http.Request) {
	staff := middleware.GetStaff(r.Context())
	reply, err := h.enforcer.ForcePromote(r.Context(), staff, mux.Vars(r)["target"])
	h.reply(w, http.StatusOK, reply, err)
}

// Kick handles POST /api/v1/guards/{target}/kick
func (h *AdminHandler) Kick(w http.ResponseWriter, r *http.Request) {
	var req request.KickRequest
	if err := decode(r, &req, true); err != nil {
		WriteError(w, err)
		return
	}

	staff := middleware.GetStaff(r.Context())
	reply, err := h.enforcer.ForceKick(r.Context(), staff, mux.Vars(r)["target"], req.Rounds)
	h.reply(w, http.StatusOK, reply, err)
}

// Legitimate handles GET /api/v1/guards/legitimate
func (h *AdminHandler) Legitimate(w http.ResponseWriter, r *http.Request) {
	reply, err := h.enforcer.Legitimate(r.Context())
	h.reply(w, http.StatusOK, reply, err)
}

// Dequeue handles DELETE /api/v1/queue/{target}
func (h *AdminHandler) Dequeue(w http.ResponseWriter, r *http.Request) {
	staff := middleware.GetStaff(r.Context())
	reply, err := h.enforcer.ForceDequeue(r.Context(), staff, mux.Vars(r)["target"])
	h.reply(w, http.StatusOK, reply, err)
}
