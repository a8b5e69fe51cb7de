package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerdict(t *testing.T) {
	testCases := []struct {
		name  string
		left  int
		right int
		want  Verdict
	}{
		{"no votes", 0, 0, VerdictAutoAccepted},
		{"right majority", 1, 3, VerdictMerged},
		{"tie", 2, 2, VerdictMerged},
		{"left majority", 3, 1, VerdictDenied},
		{"only left", 1, 0, VerdictDenied},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tally := VoteTally{LeftVotes: tc.left, RightVotes: tc.right}
			assert.Equal(t, tc.want, tally.Verdict())
			assert.Equal(t, tc.want != VerdictDenied, tc.want.IsMerge())
		})
	}
}

func TestParseDirection(t *testing.T) {
	dir, err := ParseDirection("Left")
	require.NoError(t, err)
	assert.Equal(t, DirectionLeft, dir)

	dir, err = ParseDirection("Right")
	require.NoError(t, err)
	assert.Equal(t, DirectionRight, dir)

	_, err = ParseDirection("left")
	assert.Error(t, err)
	_, err = ParseDirection("")
	assert.Error(t, err)
}

func TestVoteEntryJSONLayout(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	entry := VoteEntry{
		PullRequest: PullRequest{DiffURL: "https://github.com/o/r/pull/1.diff", Key: "secret"},
		VoteTally:   VoteTally{LeftVotes: 1, RightVotes: 2, CreationTime: created},
	}

	data, err := json.Marshal(entry)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "pull_request")
	assert.JSONEq(t, "1", string(raw["left_votes"]))
	assert.JSONEq(t, "2", string(raw["right_votes"]))
	assert.JSONEq(t, `"2025-03-01T12:00:00Z"`, string(raw["creation_time"]))

	var decoded VoteEntry
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, entry, decoded)
}

func TestPublicDropsCredential(t *testing.T) {
	pr := PullRequest{DiffURL: "d", Title: "t", Key: "secret"}

	data, err := json.Marshal(pr.Public())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")
	assert.NotContains(t, string(data), `"key"`)
	assert.Contains(t, string(data), `"diff_url":"d"`)
}
