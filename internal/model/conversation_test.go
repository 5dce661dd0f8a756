package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewConversation(t *testing.T) {
	c := NewConversation(42)
	assert.Equal(t, int64(42), c.ChatID)
	assert.Equal(t, StateAwaitingName, c.State)
	assert.Empty(t, c.FullName)
	assert.Empty(t, c.Time)
	assert.False(t, c.HasAppointment)
}

func TestBooked(t *testing.T) {
	c := &Conversation{ChatID: 7, State: StateAwaitingTime, FullName: "Maria Silva"}
	b := c.Booked("14:30")

	assert.Equal(t, StateHasAppointment, b.State)
	assert.Equal(t, "Maria Silva", b.FullName)
	assert.Equal(t, "14:30", b.Time)
	assert.True(t, b.HasAppointment)
	// receiver is left unchanged
	assert.Equal(t, StateAwaitingTime, c.State)
}

func TestCanCancel(t *testing.T) {
	var nilConv *Conversation
	assert.False(t, nilConv.CanCancel())
	assert.False(t, NewConversation(1).CanCancel())
	assert.True(t, (&Conversation{HasAppointment: true}).CanCancel())
}
