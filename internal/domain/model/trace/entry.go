// Package trace defines the append-only audit record of a game.
//
// Entries are created once, during a committed step, and never edited or
// removed. Corrections are modeled as new entries.
package trace

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// Kind classifies a trace entry
type Kind string

const (
	KindDecision   Kind = "decision"
	KindDiceRoll   Kind = "dice_roll"
	KindStatUpdate Kind = "stat_update"
)

// String returns the string representation of the kind
func (k Kind) String() string {
	return string(k)
}

// IsValid returns true if the kind is a known trace kind
func (k Kind) IsValid() bool {
	switch k {
	case KindDecision, KindDiceRoll, KindStatUpdate:
		return true
	default:
		return false
	}
}

// Entry is an immutable audit record of one state transition
type Entry struct {
	id              string
	timestamp       time.Time
	sectionNumber   int
	kind            Kind
	payload         map[string]interface{}
	previousVersion int
}

// NewEntry creates a validated trace entry with a fresh ULID and timestamp
func NewEntry(sectionNumber int, kind Kind, payload map[string]interface{}, previousVersion int) (Entry, error) {
	if !kind.IsValid() {
		return Entry{}, fmt.Errorf("invalid trace kind: %q", kind)
	}
	if previousVersion < 0 {
		return Entry{}, fmt.Errorf("previous version must be non-negative, got %d", previousVersion)
	}

	entropy := ulid.Monotonic(rand.Reader, 0)
	id := ulid.MustNew(ulid.Timestamp(time.Now()), entropy)

	return Entry{
		id:              id.String(),
		timestamp:       time.Now().UTC(),
		sectionNumber:   sectionNumber,
		kind:            kind,
		payload:         copyPayload(payload),
		previousVersion: previousVersion,
	}, nil
}

// Restore reconstructs an entry from persisted fields
func Restore(id string, timestamp time.Time, sectionNumber int, kind Kind, payload map[string]interface{}, previousVersion int) (Entry, error) {
	if id == "" {
		return Entry{}, fmt.Errorf("trace entry ID is required")
	}
	if !kind.IsValid() {
		return Entry{}, fmt.Errorf("invalid trace kind: %q", kind)
	}
	return Entry{
		id:              id,
		timestamp:       timestamp.UTC(),
		sectionNumber:   sectionNumber,
		kind:            kind,
		payload:         copyPayload(payload),
		previousVersion: previousVersion,
	}, nil
}

// ID returns the entry's ULID
func (e Entry) ID() string {
	return e.id
}

// Timestamp returns when the entry was recorded (UTC)
func (e Entry) Timestamp() time.Time {
	return e.timestamp
}

// SectionNumber returns the section the transition left
func (e Entry) SectionNumber() int {
	return e.sectionNumber
}

// Kind returns the entry classification
func (e Entry) Kind() Kind {
	return e.kind
}

// Payload returns a copy of the structured payload
func (e Entry) Payload() map[string]interface{} {
	return copyPayload(e.payload)
}

// PreviousVersion returns the state version the transition started from
func (e Entry) PreviousVersion() int {
	return e.previousVersion
}

func copyPayload(payload map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(payload))
	for k, v := range payload {
		out[k] = v
	}
	return out
}
