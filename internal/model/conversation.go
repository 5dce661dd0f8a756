package model

// State is the step a chat is at in the booking dialog.
type State string

const (
	StateAwaitingName   State = "awaiting_name"
	StateAwaitingTime   State = "awaiting_time"
	StateHasAppointment State = "has_appointment"
)

// Conversation is the per-chat record kept while a customer books or holds an appointment.
type Conversation struct {
	ChatID         int64  `json:"chat_id"`
	State          State  `json:"state"`
	FullName       string `json:"full_name,omitempty"`
	Time           string `json:"time,omitempty"` // HH:MM
	HasAppointment bool   `json:"has_appointment"`
}

// NewConversation starts a record for a chat seen for the first time.
func NewConversation(chatID int64) *Conversation {
	return &Conversation{ChatID: chatID, State: StateAwaitingName}
}

// Booked returns the record collapsed to the confirmed booking fields.
func (c *Conversation) Booked(t string) *Conversation {
	return &Conversation{
		ChatID:         c.ChatID,
		State:          StateHasAppointment,
		FullName:       c.FullName,
		Time:           t,
		HasAppointment: true,
	}
}

// CanCancel reports whether there is a confirmed booking to cancel.
func (c *Conversation) CanCancel() bool {
	return c != nil && c.HasAppointment
}
