package conversation

import "fmt"

// CancelCommand is the bot command that cancels a booking.
const CancelCommand = "cancelar"

const (
	msgNamePrompt   = "Please tell me your first and last name:"
	msgTimeFormat   = "Please enter a valid time in HH:MM format (example: 14:30)"
	msgNothingToCxl = "You have no appointment to cancel."
)

func welcomeText(shop string) string {
	return fmt.Sprintf("Hello! I'm the virtual assistant of %s! 🪒\n\n"+
		"To book your appointment I first need a few details.\n"+
		"%s", shop, msgNamePrompt)
}

func hoursPromptText(h BusinessHours) string {
	return fmt.Sprintf("Thank you! We are open from %dh to %dh.\n"+
		"Please tell me what time you would like to book (example: 14:30):", h.Open, h.Close)
}

func outsideHoursText(h BusinessHours) string {
	return fmt.Sprintf("Sorry, we are open from %dh to %dh. Please choose another time:", h.Open, h.Close)
}

func confirmedText(name, t, shop string) string {
	return fmt.Sprintf("✅ Great, %s! Your appointment is booked for %s.\n\n"+
		"See you at %s!\n"+
		"To cancel your appointment, send /%s", name, t, shop, CancelCommand)
}

func cancelledText(name, t string) string {
	return fmt.Sprintf("❌ %s, your appointment for %s has been cancelled.", name, t)
}

func bookingStatusText(name, t string) string {
	return fmt.Sprintf("%s, you already have an appointment booked for %s.\n"+
		"To cancel it, send /%s", name, t, CancelCommand)
}
