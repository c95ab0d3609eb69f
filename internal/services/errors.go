package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrFormat    = errors.New("caption format error")
	ErrStorage   = errors.New("storage error")
	ErrRender    = errors.New("render error")
	ErrEncode    = errors.New("encode error")
	ErrTransport = errors.New("transport error")
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsRecoverable reports whether an error leaves the session where it is
// rather than aborting the current run. Only caption format errors are
// recoverable: the user simply resends the photo.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrFormat)
}

// UserMessage translates a classified error into a short, non-leaking message
// suitable for the transport. Internal detail stays in the logs.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrFormat):
		return "Caption format incorrect. Use:\n\nTitle : ...\nContent : ...\nHashtags : ...\n(Optional) Date : ..."
	case errors.Is(err, ErrStorage):
		return "Could not store your post. Please try again."
	case errors.Is(err, ErrRender):
		return "Error rendering preview. Please try again."
	case errors.Is(err, ErrEncode):
		return "Error creating video. Please try again."
	default:
		return "Error processing your request. Please try again."
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
