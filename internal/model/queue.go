package model

// Tier is a priority band of the guard queue
type Tier int

const (
	TierHigh Tier = iota
	TierNormal
	TierLow
)

// Tiers lists all tiers in drain order
var Tiers = []Tier{TierHigh, TierNormal, TierLow}

// Name returns the display name of the tier
func (t Tier) Name() string {
	switch t {
	case TierHigh:
		return "Priority Queue"
	case TierNormal:
		return "Main Queue"
	case TierLow:
		return "Low Priority Queue"
	default:
		return "Unknown Queue"
	}
}

// Key returns a short stable label for the tier
func (t Tier) Key() string {
	switch t {
	case TierHigh:
		return "high"
	case TierNormal:
		return "normal"
	case TierLow:
		return "low"
	default:
		return "unknown"
	}
}

// QueueStatus describes where an identity sits in the guard queue
type QueueStatus struct {
	TierName string
	Position int // 1-based, counted across all tiers
}

// QueueEntry is one queued identity together with its tier and overall position
type QueueEntry struct {
	Identity Identity
	Tier     Tier
	Position int
}
