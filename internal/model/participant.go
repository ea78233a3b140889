package model

// Identity is the stable identity token of a participant (a SteamID64 in practice)
type Identity string

// Handle is the volatile slot a participant occupies while connected
type Handle int

// Role is the team a participant plays on
type Role string

const (
	RoleNone      Role = "none"
	RoleFree      Role = "free"
	RoleGuard     Role = "guard"
	RoleSpectator Role = "spectator"
)

// IsBalanced reports whether the role takes part in guard balancing
func (r Role) IsBalanced() bool {
	return r == RoleFree || r == RoleGuard
}

// ParseRole converts a string to a Role
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleNone, RoleFree, RoleGuard, RoleSpectator:
		return Role(s), true
	}
	return "", false
}

// Participant is a snapshot of one connected player as seen by the roster
type Participant struct {
	Identity  Identity
	Handle    Handle
	Name      string
	Role      Role
	Connected bool
}

// IsActive reports whether the participant is connected and in a balanced role
func (p Participant) IsActive() bool {
	return p.Connected && p.Role.IsBalanced()
}
