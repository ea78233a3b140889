// Package i18n holds the participant and operator facing message catalog.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Queue
const (
	JoinedQueueKey            = "queue.joined"
	JoinedPriorityQueueKey    = "queue.joined_priority"
	JoinedLowPriorityQueueKey = "queue.joined_low_priority"
	AlreadyInQueueKey         = "queue.already_in"
	LeftQueueKey              = "queue.left"
	NotInQueueKey             = "queue.not_in"
	QueueEmptyKey             = "queue.empty"
	QueuePositionKey          = "queue.position"
	QueueHeaderKey            = "queue.header"
)

// Participant commands
const (
	MustBeFreeKey          = "command.must_be_free"
	MustBeGuardKey         = "command.must_be_guard"
	GuardTeamEmptyKey      = "command.guard_team_empty"
	KickedFromGuardKey     = "command.kicked_from_guard"
	BannedPermanentKey     = "command.banned_permanent"
	BannedTemporaryKey     = "command.banned_temporary"
	AddedToLeaveListKey    = "command.leave_list_added"
	AlreadyInLeaveListKey  = "command.leave_list_already"
	OptedOutKey            = "command.opted_out"
	AlreadyOptedOutKey     = "command.opted_out_already"
	CannotJoinGuardKey     = "command.cannot_join_guard"
	ServiceUnavailableKey  = "command.ban_unavailable"
	StorageFailureKey      = "command.storage_failure"
	HostUnreachableKey     = "command.host_unreachable"
	TargetNotFoundKey      = "command.target_not_found"
	AmbiguousTargetKey     = "command.target_ambiguous"
	InvalidDurationKey     = "command.invalid_duration"
	InvalidKickRoundsKey   = "command.invalid_kick_rounds"
	GuardQueueCommandLabel = "command.guard_label"
)

// Balancing notices
const (
	PromotedFromQueueKey      = "balance.promoted_from_queue"
	RandomlyPromotedKey       = "balance.promoted_random"
	NotEnoughAvailableKey     = "balance.not_enough"
	DemotedFromStackKey       = "balance.demoted_from_stack"
	RemovedBannedKey          = "balance.removed_banned"
	DemotedIllegitimateKey    = "balance.demoted_illegitimate"
	DemotedLeaverKey          = "balance.demoted_leaver"
	OccupancyFlaggedKey       = "balance.occupancy_flagged"
	LegitimateGuardsHeaderKey = "balance.legitimate_header"
)

// Operator commands
const (
	AlreadyBannedKey     = "admin.already_banned"
	BanSuccessKey        = "admin.ban_success"
	DurationMinutesKey   = "admin.duration_minutes"
	DurationPermanentKey = "admin.duration_permanent"
	NotBannedKey         = "admin.not_banned"
	UnbanSuccessKey      = "admin.unban_success"
	BanInfoPermanentKey  = "admin.ban_info_permanent"
	BanInfoTemporaryKey  = "admin.ban_info_temporary"
	BanHistoryHeaderKey  = "admin.ban_history_header"
	BanHistoryEntryKey   = "admin.ban_history_entry"
	NoBanHistoryKey      = "admin.ban_history_empty"
	ForcedToGuardKey     = "admin.forced_to_guard"
	AlreadyGuardKey      = "admin.already_guard"
	AlreadyKickedKey     = "admin.already_kicked"
	KickedByStaffKey     = "admin.kicked"
	ForceDequeuedKey     = "admin.force_dequeued"
	TargetNotInQueueKey  = "admin.target_not_in_queue"
)

var supported = language.NewMatcher([]language.Tag{language.English, language.German})

// Printer returns a printer for lang, falling back to English for unknown or
// unsupported tags.
func Printer(lang string) *message.Printer {
	tag, err := language.Parse(lang)
	if err != nil {
		return message.NewPrinter(language.English)
	}
	_, index, _ := supported.Match(tag)
	if index == 1 {
		return message.NewPrinter(language.German)
	}
	return message.NewPrinter(language.English)
}
