package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChatMessage(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 678912345, time.FixedZone("JST", 9*3600))

	msg, err := NewChatMessage("m1", "a", "b", "hi", now)
	require.NoError(t, err)
	assert.False(t, msg.IsRead)
	assert.Equal(t, time.UTC, msg.CreatedAt.Location())
	assert.Equal(t, 678000000, msg.CreatedAt.Nanosecond())

	_, err = NewChatMessage("", "a", "b", "hi", now)
	assert.Error(t, err)
	_, err = NewChatMessage("m1", "a", "", "hi", now)
	assert.Error(t, err)
	_, err = NewChatMessage("m1", "a", "b", " \n", now)
	assert.Error(t, err)
}

func TestSessionEffectiveRole(t *testing.T) {
	assert.Equal(t, RoleUser, Session{}.EffectiveRole())
	assert.Equal(t, RoleUser, Session{Role: "owner"}.EffectiveRole())
	assert.Equal(t, RoleAdmin, Session{Role: RoleAdmin}.EffectiveRole())
}
