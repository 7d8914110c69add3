package pick

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNextTurnSnakeOrder(t *testing.T) {
	cases := []struct {
		name         string
		participants int
		rounds       int
		// seats on the clock for picks 2..total, then completion
		want []int
	}{
		{
			name:         "two drafters two rounds",
			participants: 2,
			rounds:       2,
			want:         []int{2, 2, 1},
		},
		{
			name:         "three drafters two rounds",
			participants: 3,
			rounds:       2,
			want:         []int{2, 3, 3, 2, 1},
		},
		{
			name:         "four drafters three rounds",
			participants: 4,
			rounds:       3,
			want:         []int{2, 3, 4, 4, 3, 2, 1, 1, 2, 3, 4},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			total := tc.participants * tc.rounds
			for pickNum := 1; pickNum < total; pickNum++ {
				turn := NextTurn(pickNum, tc.participants, tc.rounds)
				require.False(t, turn.DraftCompleted, "pick %d should not complete", pickNum)
				require.NotNil(t, turn.NextPosition)
				require.Equal(t, tc.want[pickNum-1], *turn.NextPosition, "after pick %d", pickNum)
			}

			turn := NextTurn(total, tc.participants, tc.rounds)
			require.True(t, turn.DraftCompleted)
			require.Nil(t, turn.NextPosition)
		})
	}
}

// Every seat must go exactly rounds times, whatever the table size.
func TestNextTurnEverySeatPicksOncePerRound(t *testing.T) {
	for participants := 2; participants <= 20; participants++ {
		for rounds := 1; rounds <= 10; rounds++ {
			t.Run(fmt.Sprintf("%dx%d", participants, rounds), func(t *testing.T) {
				counts := make(map[int]int)
				counts[1]++ // seat 1 always opens
				pos := 1
				for pickNum := 1; ; pickNum++ {
					turn := NextTurn(pickNum, participants, rounds)
					if turn.DraftCompleted {
						require.Equal(t, participants*rounds, pickNum)
						break
					}
					pos = *turn.NextPosition
					require.GreaterOrEqual(t, pos, 1)
					require.LessOrEqual(t, pos, participants)
					counts[pos]++
				}
				for seat := 1; seat <= participants; seat++ {
					require.Equal(t, rounds, counts[seat], "seat %d", seat)
				}
			})
		}
	}
}

// Consecutive rounds reverse direction, so the last seat of a round picks
// twice in a row.
func TestNextTurnBoundaryDoublePick(t *testing.T) {
	turn := NextTurn(5, 5, 2) // pick 5 ends round one
	require.NotNil(t, turn.NextPosition)
	require.Equal(t, 5, *turn.NextPosition)
}
