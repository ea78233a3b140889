package request

// ConnectRequest is the request body for registering a connected participant
type ConnectRequest struct {
	Identity string `json:"identity"`
	Handle   int    `json:"handle"`
	Name     string `json:"name"`
	Role     string `json:"role,omitempty"`
}

// RoleRequest is the request body for reporting a participant's role
type RoleRequest struct {
	Role string `json:"role"`
}

// CommandRequest is the request body for participant commands
type CommandRequest struct {
	Identity string `json:"identity"`
	// Role is the requested team, only used by join-team
	Role string `json:"role,omitempty"`
}

// BanRequest is the request body for banning a participant
type BanRequest struct {
	Target  string `json:"target"`
	Minutes int    `json:"minutes"`
	Reason  string `json:"reason,omitempty"`
}

// UnbanRequest is the optional request body for lifting a ban
type UnbanRequest struct {
	Reason string `json:"reason,omitempty"`
}

// KickRequest is the optional request body for kicking a guard
type KickRequest struct {
	Rounds int `json:"rounds,omitempty"`
}
