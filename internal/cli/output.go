package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to stdout
func NewOutput(format string) *Output {
	return &Output{format: format, w: os.Stdout}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		_, _ = fmt.Fprintln(o.w, string(data))
	} else {
		_, _ = fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case []Participant:
		o.printParticipants(v)
	case Participant:
		o.printParticipants([]Participant{v})
	case CommandResult:
		o.printCommandResult(v)
	case Report:
		o.printReport(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Participant response type (matches API)
type Participant struct {
	Identity string `json:"identity"`
	Handle   int    `json:"handle"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// QueueStatus response type
type QueueStatus struct {
	Tier     string `json:"tier"`
	Position int    `json:"position"`
}

// QueueEntry response type
type QueueEntry struct {
	Identity string `json:"identity"`
	Tier     string `json:"tier"`
	Position int    `json:"position"`
}

// Ban response type
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

// Unban response type
type Unban struct {
	BanID      int64     `json:"ban_id"`
	Staff      string    `json:"staff"`
	Reason     string    `json:"reason"`
	UnbannedAt time.Time `json:"unbanned_at"`
}

// Report response type
type Report struct {
	Ideal               int      `json:"ideal"`
	Shortfall           int      `json:"shortfall"`
	BannedDemoted       []string `json:"banned_demoted,omitempty"`
	LeaversDemoted      []string `json:"leavers_demoted,omitempty"`
	IllegitimateDemoted []string `json:"illegitimate_demoted,omitempty"`
	Promoted            []string `json:"promoted,omitempty"`
	Evicted             []string `json:"evicted,omitempty"`
}

// CommandResult is what every enforcer command returns
type CommandResult struct {
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

// HealthResult response type
type HealthResult struct {
	Status        string `json:"status"`
	BansAvailable bool   `json:"bans_available"`
	StreamClients int    `json:"stream_clients"`
}

func (o *Output) printParticipants(ps []Participant) {
	if len(ps) == 0 {
		_, _ = fmt.Fprintln(o.w, "No participants connected")
		return
	}
	for _, p := range ps {
		_, _ = fmt.Fprintf(o.w, "%-20s %-24s handle=%-4d %s\n", p.Identity, p.Name, p.Handle, p.Role)
	}
}

// printCommandResult shows the daemon's messages; the structured fields
// are only in JSON output
func (o *Output) printCommandResult(r CommandResult) {
	for _, msg := range r.Messages {
		_, _ = fmt.Fprintln(o.w, msg)
	}
	if r.Allowed != nil {
		_, _ = fmt.Fprintf(o.w, "Allowed: %t\n", *r.Allowed)
	}
	if r.Status != nil {
		_, _ = fmt.Fprintf(o.w, "Queue: %s tier, position %d\n", r.Status.Tier, r.Status.Position)
	}
}

func (o *Output) printReport(r Report) {
	_, _ = fmt.Fprintf(o.w, "Ideal guards: %d\n", r.Ideal)
	if r.Shortfall > 0 {
		_, _ = fmt.Fprintf(o.w, "Shortfall: %d\n", r.Shortfall)
	}
	for _, line := range []struct {
		label string
		ids   []string
	}{
		{"Demoted (banned)", r.BannedDemoted},
		{"Demoted (leaving)", r.LeaversDemoted},
		{"Demoted (illegitimate)", r.IllegitimateDemoted},
		{"Promoted", r.Promoted},
		{"Evicted from queue", r.Evicted},
	} {
		if len(line.ids) > 0 {
			_, _ = fmt.Fprintf(o.w, "%s: %s\n", line.label, strings.Join(line.ids, ", "))
		}
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	_, _ = fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	_, _ = fmt.Fprintf(o.w, "Bans available: %t\n", h.BansAvailable)
	_, _ = fmt.Fprintf(o.w, "Stream clients: %d\n", h.StreamClients)
}
