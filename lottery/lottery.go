// Package lottery draws Secret Santa assignments.
//
// A draw is a derangement of the participant list: every participant gives to
// exactly one other participant and receives from exactly one other participant,
// and nobody is assigned to themselves. Draws are produced by randomized retry
// (rejection sampling) and re-validated before they are returned.
package lottery

import (
	"math/rand/v2"

	"github.com/pkg/errors"
)

const (
	MinParticipants    = 3
	DefaultMaxAttempts = 100
)

var (
	ErrInsufficientParticipants    = errors.New("at least 3 participants are required")
	ErrUnableToGenerateAssignments = errors.New("unable to generate valid assignments")
	ErrDuplicateParticipant        = errors.New("duplicate participant id")
)

type Participant struct {
	Id   string
	Name string
}

// Assignments maps giver id to recipient id.
type Assignments map[string]string

type Option func(e *Engine)

// WithIntn replaces the random source. intn must return a value in [0, n).
func WithIntn(intn func(n int) int) Option {
	return func(e *Engine) {
		e.intn = intn
	}
}

func WithMaxAttempts(maxAttempts int) Option {
	return func(e *Engine) {
		if maxAttempts > 0 {
			e.maxAttempts = maxAttempts
		}
	}
}

type Engine struct {
	maxAttempts int
	intn        func(n int) int
}

func NewEngine(opts ...Option) Engine {
	e := Engine{
		maxAttempts: DefaultMaxAttempts,
		intn:        rand.IntN,
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

func (e Engine) Draw(participants []Participant) (Assignments, error) {
	if len(participants) < MinParticipants {
		return nil, ErrInsufficientParticipants
	}
	seen := make(map[string]struct{}, len(participants))
	for _, p := range participants {
		if _, ok := seen[p.Id]; ok {
			return nil, errors.WithMessagef(ErrDuplicateParticipant, "id '%s'", p.Id)
		}
		seen[p.Id] = struct{}{}
	}

	for attempt := 0; attempt < e.maxAttempts; attempt++ {
		assignments, ok := e.attempt(participants)
		if !ok {
			continue
		}
		if Validate(participants, assignments) {
			return assignments, nil
		}
	}

	return nil, errors.WithMessagef(ErrUnableToGenerateAssignments, "after %d attempts", e.maxAttempts)
}

func (e Engine) attempt(participants []Participant) (Assignments, bool) {
	available := make([]string, len(participants))
	for i, p := range participants {
		available[i] = p.Id
	}

	assignments := make(Assignments, len(participants))
	candidates := make([]int, 0, len(participants))
	for _, giver := range participants {
		candidates = candidates[:0]
		for i, id := range available {
			if id != giver.Id {
				candidates = append(candidates, i)
			}
		}
		if len(candidates) == 0 {
			return nil, false
		}

		picked := candidates[e.intn(len(candidates))]
		assignments[giver.Id] = available[picked]

		last := len(available) - 1
		available[picked] = available[last]
		available = available[:last]
	}

	return assignments, true
}

// Validate reports whether assignments is a bijection over participants with no fixed points.
func Validate(participants []Participant, assignments Assignments) bool {
	if len(assignments) != len(participants) {
		return false
	}

	received := make(map[string]int, len(participants))
	for giver, recipient := range assignments {
		if giver == recipient {
			return false
		}
		received[recipient]++
	}

	givers := make(map[string]struct{}, len(participants))
	for _, p := range participants {
		if received[p.Id] != 1 {
			return false
		}
		if _, ok := assignments[p.Id]; !ok {
			return false
		}
		givers[p.Id] = struct{}{}
	}

	return len(givers) == len(participants)
}
