package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mcoot/teamenforcer/internal/api/request"
	"github.com/mcoot/teamenforcer/internal/api/response"
	"github.com/mcoot/teamenforcer/internal/model"
	"github.com/mcoot/teamenforcer/internal/services/enforcer"
)

// Participant commands
const (
	CommandGuard      = "guard"
	CommandLeaveGuard = "leave-guard"
	CommandNoGuard    = "no-guard"
	CommandLeaveQueue = "leave-queue"
	CommandJoinTeam   = "join-team"
)

// CommandHandler runs chat commands on behalf of participants
type CommandHandler struct {
	enforcer *enforcer.Enforcer
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(e *enforcer.Enforcer) *CommandHandler {
	return &CommandHandler{enforcer: e}
}

// Run handles POST /api/v1/commands/{command}
func (h *CommandHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req request.CommandRequest
	if err := decode(r, &req, false); err != nil {
		WriteError(w, err)
		return
	}
	if strings.TrimSpace(req.Identity) == "" {
		WriteError(w, NewInvalidRequestError("identity is required"))
		return
	}
	caller := model.Identity(req.Identity)

	var run func(context.Context, model.Identity) (enforcer.Reply, error)
	switch mux.Vars(r)["command"] {
	case CommandGuard:
		run = h.enforcer.JoinGuardQueue
	case CommandLeaveGuard:
		run = h.enforcer.LeaveGuard
	case CommandNoGuard:
		run = h.enforcer.OptOut
	case CommandLeaveQueue:
		run = h.enforcer.LeaveQueue
	case CommandJoinTeam:
		h.joinTeam(w, r, caller, req.Role)
		return
	default:
		WriteError(w, NewInvalidRequestError("unknown command"))
		return
	}

	reply, err := run(r.Context(), caller)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.OK(w, response.CommandFromReply(reply))
}

// joinTeam answers the host's team-change hook. A refused guard join is a
// normal answer, not an error.
func (h *CommandHandler) joinTeam(w http.ResponseWriter, r *http.Request, caller model.Identity, roleName string) {
	role, ok := model.ParseRole(roleName)
	if !ok {
		WriteError(w, NewInvalidRequestError("invalid role"))
		return
	}

	reply, err := h.enforcer.RequestTeamChange(r.Context(), caller, role)
	var cmdErr *model.CommandError
	if errors.As(err, &cmdErr) && errors.Is(err, model.ErrDirectGuardJoin) {
		reply = enforcer.Reply{Allowed: false}
		if cmdErr.Notice != "" {
			reply.Messages = []string{cmdErr.Notice}
		}
		err = nil
	}
	if err != nil {
		WriteError(w, err)
		return
	}
	response.OK(w, response.TeamChangeFromReply(reply))
}

// Queue handles GET /api/v1/queue, optionally for ?identity=
func (h *CommandHandler) Queue(w http.ResponseWriter, r *http.Request) {
	caller := model.Identity(r.URL.Query().Get("identity"))
	reply, err := h.enforcer.ViewQueue(r.Context(), caller)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.OK(w, response.CommandFromReply(reply))
}
