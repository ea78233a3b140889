// Package host mirrors the game server's participant registry and carries
// role switches and notices back to it.
package host

import (
	"github.com/mcoot/teamenforcer/internal/model"
)

// Roster looks up participants and switches their roles
type Roster interface {
	// Participant returns the connected participant with the given identity
	Participant(id model.Identity) (model.Participant, bool)
	// Participants returns every connected participant ordered by handle
	Participants() []model.Participant
	// Resolve finds a single participant by identity, "#handle" or name fragment
	Resolve(query string) (model.Participant, error)
	// SwitchRole moves a connected participant to role. It returns
	// model.ErrStaleIdentity when the participant is gone and
	// model.ErrHostUnreachable when the host did not get the directive;
	// on error nothing changed.
	SwitchRole(id model.Identity, role model.Role) error
}

// Notifier delivers chat and console output
type Notifier interface {
	Broadcast(msg string)
	Tell(id model.Identity, msg string)
	Console(msg string)
}

// DirectiveSink receives role switches that the host must carry out. An
// error means the host will not act on the switch.
type DirectiveSink interface {
	RoleSwitched(p model.Participant) error
}
