package models

import (
	"fmt"
	"time"
)

// Direction is a swipe: Left denies, Right accepts
type Direction string

const (
	DirectionLeft  Direction = "Left"
	DirectionRight Direction = "Right"
)

// ParseDirection accepts exactly "Left" or "Right"
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case DirectionLeft, DirectionRight:
		return Direction(s), nil
	}
	return "", fmt.Errorf("invalid direction %q", s)
}

// VoteTally counts votes for one pull request. CreationTime is when voting
// started and drives the remaining window after a restart.
type VoteTally struct {
	LeftVotes    int       `json:"left_votes"`
	RightVotes   int       `json:"right_votes"`
	CreationTime time.Time `json:"creation_time"`
}

// NewVoteTally starts an empty tally at the given time
func NewVoteTally(createdAt time.Time) VoteTally {
	return VoteTally{CreationTime: createdAt}
}

// Total returns the number of votes cast
func (t VoteTally) Total() int {
	return t.LeftVotes + t.RightVotes
}

// Verdict decides the pull request. Ties favour merging and no votes at all
// auto-accepts.
func (t VoteTally) Verdict() Verdict {
	switch {
	case t.Total() == 0:
		return VerdictAutoAccepted
	case t.RightVotes >= t.LeftVotes:
		return VerdictMerged
	default:
		return VerdictDenied
	}
}

// VoteEntry is one row of the vote store and of the snapshot file
type VoteEntry struct {
	PullRequest PullRequest `json:"pull_request"`
	VoteTally
}

// Verdict is the result of a finished vote
type Verdict string

const (
	VerdictMerged       Verdict = "merged"
	VerdictAutoAccepted Verdict = "auto_accepted"
	VerdictDenied       Verdict = "denied"
)

// IsMerge reports whether the verdict asks for a merge
func (v Verdict) IsMerge() bool {
	return v == VerdictMerged || v == VerdictAutoAccepted
}
