// Package flows implements the bot's multi-step dialogs as typed state
// machines over the conversation state store. Controllers validate
// input, advance state, and return prompts; rendering and transport
// stay in the bot package.
package flows

import (
	"strings"
	"unicode/utf8"
)

// Button is an inline keyboard button. Unique keys the callback
// handler, Data carries the payload.
type Button struct {
	Text   string
	Unique string
	Data   string
}

// Prompt is what a controller asks the bot to show the user.
type Prompt struct {
	Text    string
	Buttons [][]Button
}

// Notification is an out-of-band message to another chat, e.g. the
// admin fan-out after a registration.
type Notification struct {
	ChatID  int64
	Text    string
	Buttons [][]Button
}

// Callback uniques for the confirm/cancel steps of every flow.
const (
	CbRegisterConfirm = "register_confirm"
	CbRegisterCancel  = "register_cancel"
	CbApproveUser     = "approve_user"
	CbRejectUser      = "reject_user"

	CbAdminAddConfirm    = "admin_add_confirm"
	CbAdminAddCancel     = "admin_add_cancel"
	CbAdminRemoveConfirm = "admin_remove_confirm"
	CbAdminRemoveCancel  = "admin_remove_cancel"

	CbGroupAddConfirm    = "group_add_confirm"
	CbGroupAddCancel     = "group_add_cancel"
	CbGroupRemoveConfirm = "group_remove_confirm"
	CbGroupRemoveCancel  = "group_remove_cancel"

	CbAnnounceConfirm = "announce_confirm"
	CbAnnounceCancel  = "announce_cancel"
)

// Expired is shown when a callback arrives after its session is gone.
var Expired = Prompt{Text: "⌛ Сессия истекла. Начните команду заново."}

func confirmRow(confirmUnique, cancelUnique string) [][]Button {
	return [][]Button{{
		{Text: "✅ Подтвердить", Unique: confirmUnique},
		{Text: "❌ Отмена", Unique: cancelUnique},
	}}
}

func validLength(s string, max int) bool {
	n := utf8.RuneCountInString(s)
	return n >= 1 && n <= max
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
