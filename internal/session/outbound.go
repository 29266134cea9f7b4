package session

// Outbound is an action for the chat transport to perform, in order.
type Outbound interface {
	OutboundKind() string
}

// Reply sends a new message. Quote replies to the user's message.
type Reply struct {
	Text     string
	Keyboard Keyboard
	Quote    bool
}

// Edit replaces the message carrying the pressed button. Only inline keyboards are allowed.
type Edit struct {
	Text     string
	Keyboard Keyboard
}

// Notice answers a button press with a toast, or a modal alert.
type Notice struct {
	Text  string
	Alert bool
}

// Document delivers a file.
type Document struct {
	Name string
	MIME string
	Data []byte
}

func (Reply) OutboundKind() string    { return "reply" }
func (Edit) OutboundKind() string     { return "edit" }
func (Notice) OutboundKind() string   { return "notice" }
func (Document) OutboundKind() string { return "document" }

// KeyboardKind selects the markup attached to a message.
type KeyboardKind int

const (
	KeyboardNone KeyboardKind = iota
	KeyboardInline
	KeyboardReply
	KeyboardForceReply
	KeyboardRemove
)

// Keyboard is transport-neutral markup.
type Keyboard struct {
	Kind        KeyboardKind
	Rows        [][]Key
	Placeholder string
	OneTime     bool
}

// Key is a single keyboard button. Action and Payload apply to inline keys,
// RequestContact to reply keys.
type Key struct {
	Label          string
	Action         string
	Payload        string
	RequestContact bool
}
