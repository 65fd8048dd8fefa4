// Package assigner draws Secret Santa assignments: random derangements of a
// participant list.
package assigner

import (
	"fmt"

	"github.com/mmynk/secretsanta/internal/models"
)

// Strategy selects how a derangement is constructed.
type Strategy string

const (
	// StrategyRejection shuffles until no participant draws themselves.
	// Every derangement is equally likely; cost is unbounded in theory, so
	// the loop is capped and falls back to StrategyCycle.
	StrategyRejection Strategy = "rejection"

	// StrategyCycle shuffles once and links the order into a single cycle.
	// Always O(N), but only single N-cycles are reachable.
	StrategyCycle Strategy = "cycle"
)

// DefaultMaxAttempts bounds the rejection loop. The chance a uniform
// permutation is a derangement never drops below 1/3 for N >= 2, so hitting
// this bound is astronomically unlikely.
const DefaultMaxAttempts = 1000

// ParseStrategy maps a user-supplied name to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyRejection, "":
		return StrategyRejection, nil
	case StrategyCycle:
		return StrategyCycle, nil
	default:
		return "", fmt.Errorf("unknown assignment strategy %q (want %q or %q)", s, StrategyRejection, StrategyCycle)
	}
}

// Result is an assignment together with how it was drawn.
type Result struct {
	Assignment models.Assignment

	// Strategy is the construction that produced Assignment. It differs from
	// the engine's configured strategy only when Fallback is set.
	Strategy Strategy

	// Attempts counts shuffles, including rejected ones.
	Attempts int

	// Fallback reports that the rejection loop hit its ceiling and the cyclic
	// construction was used instead.
	Fallback bool
}

// Engine draws assignments. It holds no state between draws besides its
// randomizer, which is safe for concurrent use.
type Engine struct {
	rnd         Randomizer
	strategy    Strategy
	maxAttempts int
}

// Option configures an Engine.
type Option func(*Engine)

// WithRandomizer replaces the default crypto-seeded randomizer.
func WithRandomizer(r Randomizer) Option {
	return func(e *Engine) { e.rnd = r }
}

// WithStrategy selects the construction strategy.
func WithStrategy(s Strategy) Option {
	return func(e *Engine) { e.strategy = s }
}

// WithMaxAttempts sets the rejection loop ceiling. Values below 1 keep the default.
func WithMaxAttempts(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

// New creates an Engine using rejection sampling by default.
func New(opts ...Option) *Engine {
	e := &Engine{
		strategy:    StrategyRejection,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rnd == nil {
		e.rnd = NewRandomizer()
	}
	return e
}

// Assign returns a random derangement of participants.
func (e *Engine) Assign(participants []models.Participant) (models.Assignment, error) {
	res, err := e.Draw(participants)
	if err != nil {
		return models.Assignment{}, err
	}
	return res.Assignment, nil
}

// Draw is Assign with bookkeeping about the draw.
//
// participants must hold at least two entries with distinct identities.
func (e *Engine) Draw(participants []models.Participant) (*Result, error) {
	n := len(participants)
	if n < models.MinParticipants {
		return nil, &models.InsufficientParticipantsError{Count: n}
	}
	if err := checkDistinct(participants); err != nil {
		return nil, err
	}

	var (
		perm []int
		res  = &Result{Strategy: e.strategy}
	)
	switch e.strategy {
	case StrategyCycle:
		perm = e.cycle(n)
		res.Attempts = 1
	default:
		var ok bool
		perm, res.Attempts, ok = e.reject(participants)
		if !ok {
			perm = e.cycle(n)
			res.Attempts++
			res.Strategy = StrategyCycle
			res.Fallback = true
		}
	}

	mapping := make(map[models.Participant]models.Participant, n)
	for i, p := range participants {
		mapping[p] = participants[perm[i]]
	}

	a, err := models.NewAssignment(participants, mapping)
	if err != nil {
		return nil, fmt.Errorf("drew an invalid assignment: %w", err)
	}
	res.Assignment = a
	return res, nil
}

// reject shuffles a fresh identity permutation until position i never holds
// participant i. It returns the permutation, the number of shuffles, and
// false if the ceiling was reached first.
func (e *Engine) reject(participants []models.Participant) ([]int, int, bool) {
	n := len(participants)
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		perm := identity(n)
		e.rnd.Shuffle(n, func(i, j int) { perm[i], perm[j] = perm[j], perm[i] })
		if isDerangement(participants, perm) {
			return perm, attempt, true
		}
	}
	return nil, e.maxAttempts, false
}

// cycle shuffles the order once and maps each position to the next one in
// that order, wrapping around.
func (e *Engine) cycle(n int) []int {
	order := identity(n)
	e.rnd.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })

	perm := make([]int, n)
	for i := range order {
		perm[order[i]] = order[(i+1)%n]
	}
	return perm
}

func isDerangement(participants []models.Participant, perm []int) bool {
	for i, j := range perm {
		if participants[i] == participants[j] {
			return false
		}
	}
	return true
}

func checkDistinct(participants []models.Participant) error {
	seen := make(map[models.Participant]struct{}, len(participants))
	for _, p := range participants {
		if _, dup := seen[p]; dup {
			return &models.DuplicateEmailError{Email: p.Email}
		}
		seen[p] = struct{}{}
	}
	return nil
}

func identity(n int) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	return perm
}
