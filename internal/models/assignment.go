package models

import "fmt"

// Pair is one entry of an Assignment: Santa must gift Recipient.
type Pair struct {
	Santa     Participant
	Recipient Participant
}

// Assignment maps every participant to the participant they must gift.
//
// It is a bijection on the group with no fixed point. The zero value is an
// empty assignment; real ones are built with NewAssignment and never change.
type Assignment struct {
	order []Participant
	to    map[Participant]Participant
}

// NewAssignment builds an Assignment over order from the given mapping.
// It returns an error unless mapping is total over order, bijective, and
// fixed-point-free.
func NewAssignment(order []Participant, mapping map[Participant]Participant) (Assignment, error) {
	if err := verify(order, mapping); err != nil {
		return Assignment{}, err
	}

	a := Assignment{
		order: append([]Participant(nil), order...),
		to:    make(map[Participant]Participant, len(mapping)),
	}
	for k, v := range mapping {
		a.to[k] = v
	}
	return a, nil
}

func verify(order []Participant, mapping map[Participant]Participant) error {
	if len(mapping) != len(order) {
		return fmt.Errorf("mapping has %d entries for %d participants", len(mapping), len(order))
	}

	seen := make(map[Participant]bool, len(order))
	taken := make(map[Participant]bool, len(order))
	for _, p := range order {
		if seen[p] {
			return &DuplicateEmailError{Email: p.Email}
		}
		seen[p] = true

		r, ok := mapping[p]
		if !ok {
			return fmt.Errorf("participant %s has no recipient", p)
		}
		if r == p {
			return fmt.Errorf("participant %s is assigned to themselves", p)
		}
		if taken[r] {
			return fmt.Errorf("recipient %s is assigned more than once", r)
		}
		taken[r] = true
	}

	for r := range taken {
		if !seen[r] {
			return fmt.Errorf("recipient %s is not a participant", r)
		}
	}
	return nil
}

// Len returns the number of participants in the assignment.
func (a Assignment) Len() int {
	return len(a.order)
}

// Recipient returns who p must gift.
func (a Assignment) Recipient(p Participant) (Participant, bool) {
	r, ok := a.to[p]
	return r, ok
}

// Participants returns the participants in their original order.
func (a Assignment) Participants() []Participant {
	return append([]Participant(nil), a.order...)
}

// Pairs returns one Pair per participant, in original participant order.
func (a Assignment) Pairs() []Pair {
	pairs := make([]Pair, len(a.order))
	for i, p := range a.order {
		pairs[i] = Pair{Santa: p, Recipient: a.to[p]}
	}
	return pairs
}
