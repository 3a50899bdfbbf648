// Package dice implements the deterministic dice resolver.
//
// Outcomes are a pure function of (kind, modifier, seed): given the same
// seed, Roll always produces the same draws and total. The raw draws and
// the seed are retained on the Outcome so a roll can be audited or
// replayed from the trace.
package dice

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
)

// spec describes the dice pool behind a named kind
type spec struct {
	Count int
	Sides int
}

// kinds maps the dice kinds the rules engine may request to their pools
var kinds = map[string]spec{
	"d6":     {Count: 1, Sides: 6},
	"2d6":    {Count: 2, Sides: 6},
	"d12":    {Count: 1, Sides: 12},
	"combat": {Count: 2, Sides: 6},
	"luck":   {Count: 2, Sides: 6},
	"stat":   {Count: 1, Sides: 6},
}

// KnownKind reports whether kind names a registered dice pool
func KnownKind(kind string) bool {
	_, ok := kinds[kind]
	return ok
}

// Request describes a dice roll demanded by the rules
type Request struct {
	kind     string
	modifier int
}

// NewRequest creates a validated dice request
func NewRequest(kind string, modifier int) (Request, error) {
	if !KnownKind(kind) {
		return Request{}, fmt.Errorf("unknown dice kind: %q", kind)
	}
	return Request{kind: kind, modifier: modifier}, nil
}

// Kind returns the dice kind
func (r Request) Kind() string {
	return r.kind
}

// Modifier returns the additive modifier applied to the total
func (r Request) Modifier() int {
	return r.modifier
}

// IsZero reports whether the request is the zero value
func (r Request) IsZero() bool {
	return r.kind == ""
}

// Outcome is the resolved result of a dice request
type Outcome struct {
	value int
	draws []int
	seed  int64
}

// NewOutcome reconstructs an outcome, e.g. when replaying a trace
func NewOutcome(value int, draws []int, seed int64) Outcome {
	d := make([]int, len(draws))
	copy(d, draws)
	return Outcome{value: value, draws: d, seed: seed}
}

// Value returns the final numeric result (draws plus modifier)
func (o Outcome) Value() int {
	return o.value
}

// Draws returns the raw per-die values
func (o Outcome) Draws() []int {
	d := make([]int, len(o.draws))
	copy(d, o.draws)
	return d
}

// Seed returns the random seed that produced the draws
func (o Outcome) Seed() int64 {
	return o.seed
}

// IsZero reports whether the outcome is the zero value
func (o Outcome) IsZero() bool {
	return o.value == 0 && len(o.draws) == 0
}

// Roll resolves a dice request deterministically from the given seed.
// The same (request, seed) pair always yields the same outcome.
func Roll(req Request, seed int64) (Outcome, error) {
	sp, ok := kinds[req.kind]
	if !ok {
		return Outcome{}, fmt.Errorf("unknown dice kind: %q", req.kind)
	}

	rng := rand.New(rand.NewSource(seed))
	draws := make([]int, sp.Count)
	total := 0
	for i := 0; i < sp.Count; i++ {
		draws[i] = rng.Intn(sp.Sides) + 1
		total += draws[i]
	}

	return Outcome{
		value: total + req.modifier,
		draws: draws,
		seed:  seed,
	}, nil
}

// NewSeed generates a random seed using crypto/rand
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}
