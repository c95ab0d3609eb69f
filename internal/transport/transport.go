package transport

import (
	"context"
)

// Event is a single inbound interaction from the chat transport. Concrete
// types carry the payload; UserID tags every event with the opaque identity
// the session store keys on.
type Event interface {
	UserID() string
}

// MessageEvent is a plain text message from a user.
type MessageEvent struct {
	User string
	Text string
}

func (e MessageEvent) UserID() string { return e.User }

// PhotoEvent is an uploaded photo plus its caption text. FileRef is the
// transport's opaque handle for the binary; resolve it with FileURL.
type PhotoEvent struct {
	User    string
	FileRef string
	Caption string
}

func (e PhotoEvent) UserID() string { return e.User }

// CallbackEvent is a button press on an inline keyboard. ID acknowledges the
// press via AnswerCallback, Data carries the button payload, and Message
// identifies the message the keyboard was attached to so handlers can edit
// it in place.
type CallbackEvent struct {
	User    string
	ID      string
	Data    string
	Message MessageID
}

func (e CallbackEvent) UserID() string { return e.User }

// Button is one inline keyboard button. Data round-trips back in a
// CallbackEvent when pressed.
type Button struct {
	Label string
	Data  string
}

// Keyboard is rows of inline buttons attached to an outbound message.
type Keyboard [][]Button

// Row builds a single-row keyboard fragment.
func Row(buttons ...Button) []Button { return buttons }

// MessageID identifies a sent message for in-place edits. The zero value
// means "no message".
type MessageID string

// Transport is the chat boundary the workflow manager drives. Implementations
// own their own polling or webhook loop and deliver inbound interactions on
// Events; the channel closes when the transport shuts down.
type Transport interface {
	Events() <-chan Event

	SendText(ctx context.Context, userID, text string, keyboard Keyboard) (MessageID, error)
	EditText(ctx context.Context, userID string, id MessageID, text string, keyboard Keyboard) error
	SendPhoto(ctx context.Context, userID, path, caption string, keyboard Keyboard) (MessageID, error)
	SendVideo(ctx context.Context, userID, path, caption string) error
	AnswerCallback(ctx context.Context, callbackID, text string) error

	// FileURL resolves an opaque file reference into a fetchable URL.
	FileURL(ctx context.Context, fileRef string) (string, error)
}
