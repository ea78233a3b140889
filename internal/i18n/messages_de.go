package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.German

	message.SetString(lang, JoinedQueueKey, "Du bist der Wächter-Warteschlange beigetreten.")
	message.SetString(lang, JoinedPriorityQueueKey, "Du bist der bevorzugten Warteschlange beigetreten.")
	message.SetString(lang, JoinedLowPriorityQueueKey, "Du warst kürzlich Wächter und bist daher der nachrangigen Warteschlange beigetreten.")
	message.SetString(lang, AlreadyInQueueKey, "Du bist bereits in der %[2]s auf Platz %[1]d.")
	message.SetString(lang, LeftQueueKey, "Du hast die Wächter-Warteschlange verlassen.")
	message.SetString(lang, NotInQueueKey, "Du bist nicht in der Wächter-Warteschlange.")
	message.SetString(lang, QueueEmptyKey, "Die Wächter-Warteschlange ist leer. Tippe %s, um beizutreten.")
	message.SetString(lang, QueuePositionKey, "Dein Platz in der Warteschlange: %d")
	message.SetString(lang, QueueHeaderKey, "Wächter-Warteschlange (%d):")

	message.SetString(lang, MustBeFreeKey, "Du musst im freien Team sein, um diesen Befehl zu nutzen.")
	message.SetString(lang, MustBeGuardKey, "Du musst im Wächter-Team sein, um diesen Befehl zu nutzen.")
	message.SetString(lang, GuardTeamEmptyKey, "Das Wächter-Team war leer, du wurdest sofort verschoben.")
	message.SetString(lang, KickedFromGuardKey, "Du bist noch %d Runden aus dem Wächter-Team ausgeschlossen.")
	message.SetString(lang, BannedPermanentKey, "Du bist dauerhaft aus dem Wächter-Team gesperrt.")
	message.SetString(lang, BannedTemporaryKey, "Du bist noch %d Minuten aus dem Wächter-Team gesperrt.")
	message.SetString(lang, AddedToLeaveListKey, "Du wirst am Rundenende ins freie Team verschoben.")
	message.SetString(lang, AlreadyInLeaveListKey, "Du verlässt das Wächter-Team bereits.")
	message.SetString(lang, OptedOutKey, "Du wirst auf dieser Karte nicht als Wächter ausgewählt.")
	message.SetString(lang, AlreadyOptedOutKey, "Du hast dich auf dieser Karte bereits abgemeldet.")
	message.SetString(lang, CannotJoinGuardKey, "Du kannst dem Wächter-Team nicht direkt beitreten. Tippe %s, um dich anzustellen.")
	message.SetString(lang, ServiceUnavailableKey, "Wächter-Sperren sind nicht verfügbar.")
	message.SetString(lang, StorageFailureKey, "Etwas ist schiefgelaufen. Bitte versuche es später erneut.")
	message.SetString(lang, HostUnreachableKey, "Der Spielserver hat den Teamwechsel nicht erhalten. Es wurde nichts geändert.")
	message.SetString(lang, TargetNotFoundKey, "Ziel nicht gefunden: %s")
	message.SetString(lang, AmbiguousTargetKey, "Mehrere Teilnehmer passen auf: %s")
	message.SetString(lang, InvalidDurationKey, "Die Sperrdauer darf nicht negativ sein.")
	message.SetString(lang, InvalidKickRoundsKey, "Die Anzahl der Runden muss positiv sein.")
	message.SetString(lang, GuardQueueCommandLabel, "!guard")

	message.SetString(lang, PromotedFromQueueKey, "%s wurde aus der Warteschlange ins Wächter-Team verschoben.")
	message.SetString(lang, RandomlyPromotedKey, "%s wurde zufällig für das Wächter-Team ausgewählt.")
	message.SetString(lang, NotEnoughAvailableKey, "Es sind nicht genug Spieler verfügbar, um das Wächter-Team zu füllen.")
	message.SetString(lang, DemotedFromStackKey, "%s wurde ins freie Team verschoben und steht nun vorne in der Warteschlange.")
	message.SetString(lang, RemovedBannedKey, "%s wurde wegen einer Sperre aus dem Wächter-Team entfernt.")
	message.SetString(lang, DemotedIllegitimateKey, "%s wurde entfernt, weil der Beitritt ohne Warteschlange erfolgte.")
	message.SetString(lang, DemotedLeaverKey, "Du hast das Wächter-Team verlassen. Tippe %s, um dich auf der nächsten Karte wieder anzustellen.")
	message.SetString(lang, OccupancyFlaggedKey, "Du warst eine Weile Wächter. Beim nächsten Anstellen landest du in der nachrangigen Warteschlange.")
	message.SetString(lang, LegitimateGuardsHeaderKey, "Rechtmäßige Wächter (%d):")

	message.SetString(lang, AlreadyBannedKey, "%s ist bereits aus dem Wächter-Team gesperrt.")
	message.SetString(lang, BanSuccessKey, "%s wurde aus dem Wächter-Team gesperrt. Dauer: %s")
	message.SetString(lang, DurationMinutesKey, "%d Minuten")
	message.SetString(lang, DurationPermanentKey, "dauerhaft")
	message.SetString(lang, NotBannedKey, "%s hat keine aktive Wächter-Sperre.")
	message.SetString(lang, UnbanSuccessKey, "%s ist nicht mehr aus dem Wächter-Team gesperrt.")
	message.SetString(lang, BanInfoPermanentKey, "%s ist dauerhaft aus dem Wächter-Team gesperrt. Datum: %s, Staff: %s, Grund: %s")
	message.SetString(lang, BanInfoTemporaryKey, "%s ist aus dem Wächter-Team gesperrt. Datum: %s, Staff: %s, Grund: %s, Gesamtdauer: %d Minuten, Verbleibend: %d Minuten")
	message.SetString(lang, BanHistoryHeaderKey, "Wächter-Sperren von %s (%d):")
	message.SetString(lang, BanHistoryEntryKey, "#%d %s von %s: %s (%s)")
	message.SetString(lang, NoBanHistoryKey, "%s wurde noch nie aus dem Wächter-Team gesperrt.")
	message.SetString(lang, ForcedToGuardKey, "%s wurde von %s ins Wächter-Team verschoben.")
	message.SetString(lang, AlreadyGuardKey, "%s ist bereits im Wächter-Team.")
	message.SetString(lang, AlreadyKickedKey, "%s ist bereits aus dem Wächter-Team ausgeschlossen.")
	message.SetString(lang, KickedByStaffKey, "%s wurde von %s für %d Runden aus dem Wächter-Team ausgeschlossen.")
	message.SetString(lang, ForceDequeuedKey, "%s wurde von %s aus der Warteschlange entfernt.")
	message.SetString(lang, TargetNotInQueueKey, "%s ist nicht in der Warteschlange.")
}
