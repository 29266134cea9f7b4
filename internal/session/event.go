package session

// Command names accepted by the machine, without the leading slash.
const (
	CommandStart  = "start"
	CommandLogin  = "login"
	CommandCancel = "cancel"
	CommandLogout = "logout"
)

// Button actions carried by inline keyboards.
const (
	ActionBeneficiary = "ben"
	ActionCertificate = "cert"
	ActionBack        = "back"
	ActionLogout      = "logout"
)

// Event is something the user did.
type Event interface {
	EventKind() string
}

// Command is a slash command.
type Command struct {
	Name      string
	FirstName string
}

// Button is a pressed inline button. BeneficiaryID is empty for back and logout.
type Button struct {
	Action        string
	BeneficiaryID string
}

// TextInput is free text, including reply keyboard labels.
type TextInput struct {
	Text string
}

// ContactShared is a contact sent from the reply keyboard.
// UserID is the Telegram user the contact belongs to, 0 when unknown.
type ContactShared struct {
	Phone  string
	UserID int64
}

func (Command) EventKind() string       { return "command" }
func (Button) EventKind() string        { return "button" }
func (TextInput) EventKind() string     { return "text" }
func (ContactShared) EventKind() string { return "contact" }
