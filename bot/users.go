package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"announcebot/core/telegram/callbacks"
	"announcebot/core/telegram/format"
	tghelpers "announcebot/core/telegram/helpers"
	"announcebot/flows"
	"announcebot/store"

	tele "gopkg.in/telebot.v4"
)

// Callback uniques for the /users listing.
const (
	cbUsersFilter = "users_filter" // payload: filter name
	cbUserDelete  = "user_delete"  // payload: "<filter>:<user id>"
)

type userFilter string

const (
	filterAll      userFilter = "all"
	filterPending  userFilter = "pending"
	filterApproved userFilter = "approved"
	filterRejected userFilter = "rejected"
)

func parseUserFilter(s string) userFilter {
	switch f := userFilter(s); f {
	case filterPending, filterApproved, filterRejected:
		return f
	}
	return filterAll
}

func (b *Bot) cmdUsers(c tele.Context) error {
	p, err := b.usersView(filterAll)
	if err != nil {
		return err
	}
	return b.sendPrompt(c, p)
}

func (b *Bot) cbUsersFilter(c tele.Context) error {
	if !b.isAdmin(c) {
		return nil
	}
	p, err := b.usersView(parseUserFilter(callbacks.CallbackPayload(c)))
	if err != nil {
		return err
	}
	return editPrompt(c, p)
}

func (b *Bot) cbUserDelete(c tele.Context) error {
	if !b.isAdmin(c) {
		return nil
	}
	filter, id, ok := parseDeletePayload(callbacks.CallbackPayload(c))
	if !ok {
		return tghelpers.EditOrSendHTML(c, "⚠️ Некорректный запрос.")
	}
	if err := b.users.Delete(id); err != nil && !errors.Is(err, store.ErrUserNotFound) {
		return err
	}
	p, err := b.usersView(filter)
	if err != nil {
		return err
	}
	return editPrompt(c, p)
}

func parseDeletePayload(p string) (userFilter, int64, bool) {
	i := strings.IndexByte(p, ':')
	if i < 0 {
		return filterAll, 0, false
	}
	id, err := strconv.ParseInt(p[i+1:], 10, 64)
	if err != nil {
		return filterAll, 0, false
	}
	return parseUserFilter(p[:i]), id, true
}

// usersView renders the user listing for one status filter, with the
// filter switch row and a removal button per listed user.
func (b *Bot) usersView(filter userFilter) (flows.Prompt, error) {
	stats, err := b.users.Stats()
	if err != nil {
		return flows.Prompt{}, err
	}
	if stats.Total == 0 {
		return flows.Prompt{Text: "📋 Пока нет зарегистрированных пользователей."}, nil
	}

	var (
		title string
		list  func() ([]store.User, error)
	)
	switch filter {
	case filterPending:
		title, list = "⏳ Ожидают одобрения", b.users.Pending
	case filterApproved:
		title, list = "✅ Одобрены", b.users.Approved
	case filterRejected:
		title, list = "❌ Отклонены", b.users.Rejected
	default:
		title, list = "Все пользователи", b.users.List
	}
	users, err := list()
	if err != nil {
		return flows.Prompt{}, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "👥 <b>Пользователи:</b> %d\n", stats.Total)
	fmt.Fprintf(&sb, "✅ Одобрено: %d  ⏳ Ожидает: %d  ❌ Отклонено: %d\n",
		stats.Approved, stats.Pending, stats.Rejected)
	fmt.Fprintf(&sb, "\n<b>%s:</b>\n", title)
	if len(users) == 0 {
		sb.WriteString("Никого с этим статусом нет.\n")
	}
	for _, u := range users {
		fmt.Fprintf(&sb, "• %s %s — %s (<code>%d</code>)\n",
			statusMark(u.Status), format.EscapeHTML(u.FullName()),
			format.EscapeHTML(u.Subject), u.ID)
	}

	buttons := [][]flows.Button{{
		{Text: "👥 Все", Unique: cbUsersFilter, Data: string(filterAll)},
		{Text: "⏳", Unique: cbUsersFilter, Data: string(filterPending)},
		{Text: "✅", Unique: cbUsersFilter, Data: string(filterApproved)},
		{Text: "❌", Unique: cbUsersFilter, Data: string(filterRejected)},
	}}
	for _, u := range users {
		buttons = append(buttons, []flows.Button{{
			Text:   "🗑 " + u.FullName(),
			Unique: cbUserDelete,
			Data:   fmt.Sprintf("%s:%d", filter, u.ID),
		}})
	}
	return flows.Prompt{Text: sb.String(), Buttons: buttons}, nil
}

func statusMark(s store.UserStatus) string {
	switch s {
	case store.StatusApproved:
		return "✅"
	case store.StatusRejected:
		return "❌"
	}
	return "⏳"
}
