package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecideBelowThreshold(t *testing.T) {
	d := Decide(2, 5)

	assert.True(t, d.RestrictJoinee)
	assert.False(t, d.GrantInviter)
	assert.Equal(t, 2, d.Invites)
	assert.Equal(t, 5, d.Needed)
}

func TestDecideAtThreshold(t *testing.T) {
	d := Decide(5, 5)

	assert.True(t, d.GrantInviter)
	assert.True(t, d.RestrictJoinee)
}

func TestAllowed(t *testing.T) {
	assert.False(t, Allowed(4, 5))
	assert.True(t, Allowed(5, 5))
	assert.True(t, Allowed(9, 5))
}

func TestValidThreshold(t *testing.T) {
	assert.False(t, ValidThreshold(0))
	assert.False(t, ValidThreshold(-3))
	assert.True(t, ValidThreshold(1))
}
