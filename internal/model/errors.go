package model

import (
	"errors"
	"fmt"
	"time"
)

// Common errors used across the application
var (
	// Queue errors
	ErrDuplicateItem     = errors.New("item is already queued")
	ErrEmptyQueue        = errors.New("queue is empty")
	ErrInsufficientItems = errors.New("not enough items in queue")
	ErrItemNotFound      = errors.New("item not found in queue")

	// Participant errors
	ErrStaleIdentity   = errors.New("participant is no longer connected")
	ErrTargetNotFound  = errors.New("target not found")
	ErrAmbiguousTarget = errors.New("target matches more than one participant")
	ErrAlreadyInState  = errors.New("participant is already in that state")
	ErrWrongRole       = errors.New("participant is not in the required role")
	ErrDirectGuardJoin = errors.New("guard role must be joined through the queue")
	ErrGuardKicked     = errors.New("participant is kicked from the guard role")
	ErrHostUnreachable = errors.New("host did not receive the role switch")

	// Ban errors
	ErrServiceUnavailable = errors.New("ban service is not configured")
	ErrStorageFailure     = errors.New("ban storage failure")
	ErrBanNotFound        = errors.New("no active ban")
	ErrUnbanNotFound      = errors.New("no unban record")
	ErrAlreadyBanned      = errors.New("participant is already banned")
	ErrGuardBanned        = errors.New("participant is banned from the guard role")
	ErrInvalidDuration    = errors.New("ban duration must not be negative")
	ErrInvalidRounds      = errors.New("kick rounds must not be negative")
)

// BanError reports that a participant is barred from the guard role by an active ban
type BanError struct {
	Record *BanRecord
	Now    time.Time
}

func (e *BanError) Error() string {
	if e.Record == nil || e.Record.IsPermanent() {
		return "permanently banned from the guard role"
	}
	return fmt.Sprintf("banned from the guard role for %d more minutes", e.Record.MinutesLeft(e.Now))
}

// Unwrap lets errors.Is match ErrGuardBanned
func (e *BanError) Unwrap() error {
	return ErrGuardBanned
}

// KickError reports that a participant is kicked from the guard role for some rounds
type KickError struct {
	Rounds int
}

func (e *KickError) Error() string {
	return fmt.Sprintf("kicked from the guard role for %d more rounds", e.Rounds)
}

// Unwrap lets errors.Is match ErrGuardKicked
func (e *KickError) Unwrap() error {
	return ErrGuardKicked
}

// CommandError pairs a failure with the notice shown to whoever ran the command
type CommandError struct {
	Err    error
	Notice string
}

func (e *CommandError) Error() string {
	if e.Notice == "" {
		return e.Err.Error()
	}
	return e.Notice
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
