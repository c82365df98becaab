package voting

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNext(t *testing.T) {
	cases := []struct {
		old, dir, want VotingScore
	}{
		{ScoreDiscard, ScoreUp, ScoreUp},
		{ScoreDiscard, ScoreDown, ScoreDown},
		{ScoreUp, ScoreUp, ScoreDiscard},
		{ScoreDown, ScoreDown, ScoreDiscard},
		{ScoreUp, ScoreDown, ScoreDown},
		{ScoreDown, ScoreUp, ScoreUp},
	}
	for _, c := range cases {
		t.Run(c.old.String()+" then "+c.dir.String(), func(t *testing.T) {
			assert.Equal(t, c.want, Next(c.old, c.dir))
		})
	}
}

func TestCast(t *testing.T) {
	t.Run("retraction restores state", func(t *testing.T) {
		for _, dir := range []VotingScore{ScoreUp, ScoreDown} {
			// u1 holds no vote or a vote in the same direction
			starts := []Votes{{}, {"u2": ScoreDown}, {"u1": dir}, {"u1": dir, "u2": ScoreUp}}
			for _, start := range starts {
				v := start.Clone()
				d1, err := v.Cast("u1", dir)
				require.NoError(t, err)
				d2, err := v.Cast("u1", dir)
				require.NoError(t, err)
				assert.Equal(t, 0, d1+d2)
				assert.Equal(t, start, v)
			}
		}
	})

	t.Run("switch then repeat ends with no vote", func(t *testing.T) {
		v := Votes{"u1": ScoreDown}
		d1, err := v.Cast("u1", ScoreUp)
		require.NoError(t, err)
		d2, err := v.Cast("u1", ScoreUp)
		require.NoError(t, err)
		assert.Equal(t, 2, d1)
		assert.Equal(t, -1, d2)
		assert.Equal(t, Votes{}, v)
	})

	t.Run("direction switch", func(t *testing.T) {
		v := Votes{"u1": ScoreUp}
		delta, err := v.Cast("u1", ScoreDown)
		require.NoError(t, err)
		assert.Equal(t, -2, delta)
		assert.Equal(t, Votes{"u1": ScoreDown}, v)
	})

	t.Run("retracted vote removes the entry", func(t *testing.T) {
		v := Votes{"u1": ScoreDown}
		_, err := v.Cast("u1", ScoreDown)
		require.NoError(t, err)
		_, ok := v["u1"]
		assert.False(t, ok)
	})

	t.Run("invalid direction", func(t *testing.T) {
		v := Votes{}
		_, err := v.Cast("u1", ScoreDiscard)
		assert.ErrorIs(t, err, ErrInvalidDirection)
		assert.Empty(t, v)
	})
}

func TestScoreReplay(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	users := []string{"a", "b", "c", "d"}
	v := Votes{}
	score := 0
	for i := 0; i < 1000; i++ {
		dir := ScoreUp
		if r.Intn(2) == 0 {
			dir = ScoreDown
		}
		delta, err := v.Cast(users[r.Intn(len(users))], dir)
		require.NoError(t, err)
		score += delta
		require.Equal(t, v.Sum(), score)
	}
}

func TestVotesJSON(t *testing.T) {
	data, err := json.Marshal(Votes{"u1": ScoreUp, "u2": ScoreDown})
	require.NoError(t, err)
	assert.JSONEq(t, `{"u1":"up","u2":"down"}`, string(data))

	var v Votes
	require.NoError(t, json.Unmarshal([]byte(`{"u1":"down"}`), &v))
	assert.Equal(t, Votes{"u1": ScoreDown}, v)

	assert.Error(t, json.Unmarshal([]byte(`{"u1":"sideways"}`), &v))
}
