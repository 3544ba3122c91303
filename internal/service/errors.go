package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers unknown ids and ownership mismatches; the two are
	// deliberately indistinguishable because knowing the phone is the only
	// proof of ownership.
	ErrNotFound = errors.New("listing not found")

	// ErrGone marks expired content, which is permanently removed rather
	// than transiently missing.
	ErrGone = errors.New("listing expired")

	ErrRestrictedContent = errors.New("phone numbers are not allowed in listing text")
	ErrTooManyRequests   = errors.New("too many requests, slow down")
)

// ValidationError is a synchronous boundary rejection; nothing was applied.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// CooldownError is a policy verdict, not a fault: the phone posted within
// the cooldown window and must wait.
type CooldownError struct {
	RemainingDays int
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("an active listing already exists for this number, try again in %d days", e.RemainingDays)
}
