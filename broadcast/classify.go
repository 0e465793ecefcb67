package broadcast

import (
	"errors"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// isBlocked reports whether the error means the recipient forbids the
// bot from messaging them. Telegram answers 403 for blocked users and
// deactivated accounts.
func isBlocked(err error) bool {
	var apiErr *tele.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.Code == 403 {
		return true
	}
	desc := strings.ToLower(apiErr.Description)
	return strings.Contains(desc, "bot was blocked by the user") ||
		strings.Contains(desc, "user is deactivated")
}

// isStaleThread reports whether the error means the stored forum topic
// no longer exists. Telegram has no dedicated code for this; the
// description is the only signal.
func isStaleThread(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	var apiErr *tele.Error
	if errors.As(err, &apiErr) {
		msg = apiErr.Description
	}
	return strings.Contains(strings.ToLower(msg), "message thread not found")
}
