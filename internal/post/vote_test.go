package post

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdjustCounters(t *testing.T) {
	tests := []struct {
		name             string
		up, down         int
		prior, next      int
		wantUp, wantDown int
	}{
		{"first upvote", 0, 0, 0, 1, 1, 0},
		{"first downvote", 0, 0, 0, -1, 0, 1},
		{"remove upvote", 3, 1, 1, 0, 2, 1},
		{"remove downvote", 3, 1, -1, 0, 3, 0},
		{"flip up to down", 3, 1, 1, -1, 2, 2},
		{"flip down to up", 3, 1, -1, 1, 4, 0},
		{"repeat upvote is a no-op", 3, 1, 1, 1, 3, 1},
		{"repeat downvote is a no-op", 3, 1, -1, -1, 3, 1},
		{"remove with no prior is a no-op", 3, 1, 0, 0, 3, 1},
		{"decrement clamps at zero", 0, 0, 1, 0, 0, 0},
		{"flip clamps the drained counter", 0, 0, -1, 1, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up, down := adjustCounters(tt.up, tt.down, tt.prior, tt.next)
			assert.Equal(t, tt.wantUp, up, "upvotes")
			assert.Equal(t, tt.wantDown, down, "downvotes")
		})
	}
}

func TestAdjustCountersSingleVoterSequence(t *testing.T) {
	// Any vote sequence starting from zero counters must keep
	// upvotes and downvotes equal to the number of current +1 and -1
	// voters. Simulate one voter cycling through every transition.
	up, down := 0, 0
	prior := 0
	for _, next := range []int{1, 1, -1, 0, -1, 1, 0, 0} {
		up, down = adjustCounters(up, down, prior, next)
		prior = next

		wantUp, wantDown := 0, 0
		switch prior {
		case 1:
			wantUp = 1
		case -1:
			wantDown = 1
		}
		assert.Equal(t, wantUp, up)
		assert.Equal(t, wantDown, down)
	}
}
