package entities

type User struct {
	UserID string `json:"_id" db:"user_id"`
	Name   string `json:"name" db:"name"`
	Email  string `json:"email" db:"email"`
	Image  string `json:"image" db:"image"`
}

const (
	EmailBookingConfirmation = "booking_confirmation.tmpl"
	EmailShowReminder        = "show_reminder.tmpl"
	EmailNewShow             = "new_show.tmpl"
)

// Email is rendered by the mailer from Template, which defines "subject", "plainBody" and "htmlBody".
type Email struct {
	To       string
	Template string
	Data     any
}
