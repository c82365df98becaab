package voting

import (
	"errors"
	"fmt"
)

type (
	VotingScore int

	// Votes maps a user id to that user's current vote. A user without a
	// vote has no entry.
	Votes map[string]VotingScore
)

const (
	ScoreUp      VotingScore = 1
	ScoreDiscard VotingScore = 0
	ScoreDown    VotingScore = -1
)

var ErrInvalidDirection = errors.New("voting: direction must be up or down")

// Contribution is what the vote adds to the post score.
func (s VotingScore) Contribution() int {
	return int(s)
}

func (s VotingScore) String() string {
	switch s {
	case ScoreUp:
		return "up"
	case ScoreDown:
		return "down"
	case ScoreDiscard:
		return "none"
	}
	return fmt.Sprintf("VotingScore(%d)", int(s))
}

func (s VotingScore) MarshalText() ([]byte, error) {
	if s != ScoreUp && s != ScoreDown {
		return nil, fmt.Errorf("voting: can't marshal %v", s)
	}
	return []byte(s.String()), nil
}

func (s *VotingScore) UnmarshalText(text []byte) error {
	dir, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*s = dir
	return nil
}

func ParseDirection(s string) (VotingScore, error) {
	switch s {
	case "up":
		return ScoreUp, nil
	case "down":
		return ScoreDown, nil
	}
	return ScoreDiscard, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

// Next returns the vote state after a user clicks dir while holding old.
// Clicking the direction already held retracts the vote.
func Next(old, dir VotingScore) VotingScore {
	if old == dir {
		return ScoreDiscard
	}
	return dir
}

// Cast applies the toggle for userId and returns the score delta.
func (v Votes) Cast(userId string, dir VotingScore) (int, error) {
	if dir != ScoreUp && dir != ScoreDown {
		return 0, ErrInvalidDirection
	}
	old := v[userId]
	next := Next(old, dir)
	if next == ScoreDiscard {
		delete(v, userId)
	} else {
		v[userId] = next
	}
	return next.Contribution() - old.Contribution(), nil
}

// Sum is the score the votes add up to.
func (v Votes) Sum() int {
	sum := 0
	for _, s := range v {
		sum += s.Contribution()
	}
	return sum
}

func (v Votes) Clone() Votes {
	c := make(Votes, len(v))
	for k, s := range v {
		c[k] = s
	}
	return c
}
