package response

import (
	"time"

	"github.com/mcoot/teamenforcer/internal/model"
	"github.com/mcoot/teamenforcer/internal/services/balance"
	"github.com/mcoot/teamenforcer/internal/services/enforcer"
)

// Participant represents a connected participant in API responses
type Participant struct {
	Identity string `json:"identity"`
	Handle   int    `json:"handle"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// ParticipantFromModel converts a model.Participant
func ParticipantFromModel(p model.Participant) Participant {
	return Participant{
		Identity: string(p.Identity),
		Handle:   int(p.Handle),
		Name:     p.Name,
		Role:     string(p.Role),
	}
}

// ParticipantsFromModel converts a slice of participants
func ParticipantsFromModel(ps []model.Participant) []Participant {
	out := make([]Participant, 0, len(ps))
	for _, p := range ps {
		out = append(out, ParticipantFromModel(p))
	}
	return out
}

// QueueStatus is a participant's place in the guard queue
type QueueStatus struct {
	Tier     string `json:"tier"`
	Position int    `json:"position"`
}

// QueueEntry is one queued identity
type QueueEntry struct {
	Identity string `json:"identity"`
	Tier     string `json:"tier"`
	Position int    `json:"position"`
}

// Ban represents a ban record
type Ban struct {
	ID        int64      `json:"id"`
	Identity  string     `json:"identity"`
	Staff     string     `json:"staff"`
	Reason    string     `json:"reason"`
	IssuedAt  time.Time  `json:"issued_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Active    bool       `json:"active"`
	Permanent bool       `json:"permanent"`
}

// BanFromModel converts a model.BanRecord
func BanFromModel(b *model.BanRecord) Ban {
	return Ban{
		ID:        int64(b.ID),
		Identity:  string(b.BannedIdentity),
		Staff:     string(b.StaffIdentity),
		Reason:    b.Reason,
		IssuedAt:  b.IssuedAt,
		ExpiresAt: b.ExpiresAt,
		Active:    b.Active,
		Permanent: b.IsPermanent(),
	}
}

// Unban represents an unban audit record
type Unban struct {
	BanID      int64     `json:"ban_id"`
	Staff      string    `json:"staff"`
	Reason     string    `json:"reason"`
	UnbannedAt time.Time `json:"unbanned_at"`
}

// Report summarises a balancing pass
type Report struct {
	Ideal               int      `json:"ideal"`
	Shortfall           int      `json:"shortfall"`
	BannedDemoted       []string `json:"banned_demoted,omitempty"`
	LeaversDemoted      []string `json:"leavers_demoted,omitempty"`
	IllegitimateDemoted []string `json:"illegitimate_demoted,omitempty"`
	Promoted            []string `json:"promoted,omitempty"`
	Evicted             []string `json:"evicted,omitempty"`
}

// ReportFromModel converts a balance.Report
func ReportFromModel(r balance.Report) Report {
	return Report{
		Ideal:               r.Ideal,
		Shortfall:           r.Shortfall,
		BannedDemoted:       identities(r.BannedDemoted),
		LeaversDemoted:      identities(r.LeaversDemoted),
		IllegitimateDemoted: identities(r.IllegitimateDemoted),
		Promoted:            identities(r.Promoted),
		Evicted:             identities(r.Evicted),
	}
}

func identities(ids []model.Identity) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

// CommandResponse is the result of any enforcer command
type CommandResponse struct {
	Messages   []string      `json:"messages"`
	Allowed    *bool         `json:"allowed,omitempty"`
	Status     *QueueStatus  `json:"status,omitempty"`
	Queue      []QueueEntry  `json:"queue,omitempty"`
	Ban        *Ban          `json:"ban,omitempty"`
	Unban      *Unban        `json:"unban,omitempty"`
	History    []Ban         `json:"history,omitempty"`
	Report     *Report       `json:"report,omitempty"`
	Legitimate []Participant `json:"legitimate,omitempty"`
}

// CommandFromReply converts an enforcer reply
func CommandFromReply(r enforcer.Reply) CommandResponse {
	resp := CommandResponse{Messages: r.Messages}
	if resp.Messages == nil {
		resp.Messages = []string{}
	}
	if r.Status != nil {
		resp.Status = &QueueStatus{Tier: r.Status.TierName, Position: r.Status.Position}
	}
	for _, e := range r.Queue {
		resp.Queue = append(resp.Queue, QueueEntry{Identity: string(e.Identity), Tier: e.Tier.Name(), Position: e.Position})
	}
	if r.Ban != nil {
		ban := BanFromModel(r.Ban)
		resp.Ban = &ban
	}
	if r.Unban != nil {
		resp.Unban = &Unban{
			BanID:      int64(r.Unban.BanID),
			Staff:      string(r.Unban.StaffIdentity),
			Reason:     r.Unban.Reason,
			UnbannedAt: r.Unban.UnbannedAt,
		}
	}
	for _, b := range r.History {
		resp.History = append(resp.History, BanFromModel(b))
	}
	if r.Report != nil {
		report := ReportFromModel(*r.Report)
		resp.Report = &report
	}
	if r.Legitimate != nil {
		resp.Legitimate = ParticipantsFromModel(r.Legitimate)
	}
	return resp
}

// TeamChangeFromReply converts the reply of a join-team request, which always
// carries the allowed flag
func TeamChangeFromReply(r enforcer.Reply) CommandResponse {
	resp := CommandFromReply(r)
	allowed := r.Allowed
	resp.Allowed = &allowed
	return resp
}

// Health is the health check response
type Health struct {
	Status        string `json:"status"`
	BansAvailable bool   `json:"bans_available"`
	StreamClients int    `json:"stream_clients"`
}
