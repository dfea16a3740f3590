package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusPaid))
	assert.True(t, CanTransition(StatusPending, StatusFailed))

	for _, from := range []Status{StatusPaid, StatusFailed} {
		for _, to := range []Status{StatusPending, StatusPaid, StatusFailed} {
			assert.False(t, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
	assert.False(t, CanTransition(StatusPending, StatusPending))
	assert.False(t, CanTransition(Status("SHIPPED"), StatusPaid))
}

func TestTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.True(t, StatusPaid.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.False(t, Status("bogus").Terminal())
}
