package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.English

	message.SetString(lang, JoinedQueueKey, "You joined the guard queue.")
	message.SetString(lang, JoinedPriorityQueueKey, "You joined the priority queue.")
	message.SetString(lang, JoinedLowPriorityQueueKey, "You played guard recently, so you joined the low priority queue.")
	message.SetString(lang, AlreadyInQueueKey, "You are already in the %[2]s at position %[1]d.")
	message.SetString(lang, LeftQueueKey, "You left the guard queue.")
	message.SetString(lang, NotInQueueKey, "You are not in the guard queue.")
	message.SetString(lang, QueueEmptyKey, "The guard queue is empty. Type %s to join.")
	message.SetString(lang, QueuePositionKey, "Your place in the queue: %d")
	message.SetString(lang, QueueHeaderKey, "Guard queue (%d):")

	message.SetString(lang, MustBeFreeKey, "You must be on the free team to use this command.")
	message.SetString(lang, MustBeGuardKey, "You must be on the guard team to use this command.")
	message.SetString(lang, GuardTeamEmptyKey, "The guard team was empty, so you were moved instantly.")
	message.SetString(lang, KickedFromGuardKey, "You are kicked from the guard team for %d more rounds.")
	message.SetString(lang, BannedPermanentKey, "You are permanently banned from the guard team.")
	message.SetString(lang, BannedTemporaryKey, "You are banned from the guard team for %d more minutes.")
	message.SetString(lang, AddedToLeaveListKey, "You will be moved to the free team when the round ends.")
	message.SetString(lang, AlreadyInLeaveListKey, "You are already leaving the guard team.")
	message.SetString(lang, OptedOutKey, "You will not be picked for the guard team this map.")
	message.SetString(lang, AlreadyOptedOutKey, "You already opted out of the guard team this map.")
	message.SetString(lang, CannotJoinGuardKey, "You cannot join the guard team directly. Type %s to join the queue.")
	message.SetString(lang, ServiceUnavailableKey, "Guard bans are unavailable.")
	message.SetString(lang, StorageFailureKey, "Something went wrong. Please try again later.")
	message.SetString(lang, HostUnreachableKey, "The game server did not receive the team change. Nothing was changed.")
	message.SetString(lang, TargetNotFoundKey, "Unable to find target: %s")
	message.SetString(lang, AmbiguousTargetKey, "More than one participant matches: %s")
	message.SetString(lang, InvalidDurationKey, "Ban duration must not be negative.")
	message.SetString(lang, InvalidKickRoundsKey, "Kick rounds must be positive.")
	message.SetString(lang, GuardQueueCommandLabel, "!guard")

	message.SetString(lang, PromotedFromQueueKey, "%s was moved to the guard team from the queue.")
	message.SetString(lang, RandomlyPromotedKey, "%s was randomly picked for the guard team.")
	message.SetString(lang, NotEnoughAvailableKey, "Not enough players are available to fill the guard team.")
	message.SetString(lang, DemotedFromStackKey, "%s was moved to the free team and placed first in the queue.")
	message.SetString(lang, RemovedBannedKey, "%s was removed from the guard team because they are banned.")
	message.SetString(lang, DemotedIllegitimateKey, "%s was removed from the guard team for joining without the queue.")
	message.SetString(lang, DemotedLeaverKey, "You left the guard team. Type %s to queue again next map.")
	message.SetString(lang, OccupancyFlaggedKey, "You have played guard for a while. Next time you queue you will join the low priority queue.")
	message.SetString(lang, LegitimateGuardsHeaderKey, "Legitimate guards (%d):")

	message.SetString(lang, AlreadyBannedKey, "%s is already banned from the guard team.")
	message.SetString(lang, BanSuccessKey, "%s was banned from the guard team. Duration: %s")
	message.SetString(lang, DurationMinutesKey, "%d minutes")
	message.SetString(lang, DurationPermanentKey, "permanent")
	message.SetString(lang, NotBannedKey, "%s does not have an active guard ban.")
	message.SetString(lang, UnbanSuccessKey, "%s is no longer banned from the guard team.")
	message.SetString(lang, BanInfoPermanentKey, "%s is permanently banned from the guard team. Ban date: %s, Staff: %s, Reason: %s")
	message.SetString(lang, BanInfoTemporaryKey, "%s is banned from the guard team. Ban date: %s, Staff: %s, Reason: %s, Total duration: %d minutes, Time left: %d minutes")
	message.SetString(lang, BanHistoryHeaderKey, "Guard bans of %s (%d):")
	message.SetString(lang, BanHistoryEntryKey, "#%d %s by %s: %s (%s)")
	message.SetString(lang, NoBanHistoryKey, "%s has never been banned from the guard team.")
	message.SetString(lang, ForcedToGuardKey, "%s was moved to the guard team by %s.")
	message.SetString(lang, AlreadyGuardKey, "%s is already on the guard team.")
	message.SetString(lang, AlreadyKickedKey, "%s is already kicked from the guard team.")
	message.SetString(lang, KickedByStaffKey, "%s was kicked from the guard team by %s for %d rounds.")
	message.SetString(lang, ForceDequeuedKey, "%s was removed from the queue by %s.")
	message.SetString(lang, TargetNotInQueueKey, "%s is not in the queue.")
}
