package bot

import (
	"fmt"

	tg "announcebot/core/telegram"
	"announcebot/core/telegram/callbacks"
	"announcebot/core/telegram/format"
	tghelpers "announcebot/core/telegram/helpers"
	"announcebot/flows"
	"announcebot/store"

	tele "gopkg.in/telebot.v4"
)

func (b *Bot) registerCallbacks(reg *tg.Registry) {
	cb := func(key string, h tele.HandlerFunc) { _ = reg.RegisterCallback(key, h) }

	cb(flows.CbRegisterConfirm, b.cbRegisterConfirm)
	cb(flows.CbRegisterCancel, b.cbRegisterCancel)
	cb(flows.CbApproveUser, b.cbReviewUser(store.StatusApproved))
	cb(flows.CbRejectUser, b.cbReviewUser(store.StatusRejected))
	cb(cbUsersFilter, b.cbUsersFilter)
	cb(cbUserDelete, b.cbUserDelete)

	cb(flows.CbAdminAddConfirm, b.cbAdminAddConfirm)
	cb(flows.CbAdminAddCancel, b.cbFlowCancel(b.adminFlow.Cancel))
	cb(flows.CbAdminRemoveConfirm, b.cbAdminRemoveConfirm)
	cb(flows.CbAdminRemoveCancel, b.cbFlowCancel(b.adminFlow.Cancel))

	cb(flows.CbGroupAddConfirm, b.cbGroupAddConfirm)
	cb(flows.CbGroupAddCancel, b.cbFlowCancel(b.groupFlow.Cancel))
	cb(flows.CbGroupRemoveConfirm, b.cbGroupRemoveConfirm)
	cb(flows.CbGroupRemoveCancel, b.cbFlowCancel(b.groupFlow.Cancel))

	cb(flows.CbAnnounceConfirm, b.cbAnnounceConfirm)
	cb(flows.CbAnnounceCancel, b.cbFlowCancel(b.announce.Cancel))

	b.registerMenuCallbacks(reg)
}

func (b *Bot) cbFlowCancel(cancel func(int64) flows.Prompt) tele.HandlerFunc {
	return func(c tele.Context) error {
		return editPrompt(c, cancel(c.Sender().ID))
	}
}

func (b *Bot) cbRegisterConfirm(c tele.Context) error {
	p, notes, err := b.register.Confirm(c.Sender().ID)
	if err != nil {
		return err
	}
	if err := editPrompt(c, p); err != nil {
		return err
	}
	b.notify(notes)
	return nil
}

func (b *Bot) cbRegisterCancel(c tele.Context) error {
	return editPrompt(c, b.register.Cancel(c.Sender().ID))
}

// cbReviewUser resolves an approve/reject click on a registration
// notification.
func (b *Bot) cbReviewUser(verdict store.UserStatus) tele.HandlerFunc {
	return func(c tele.Context) error {
		if !b.isAdmin(c) {
			return nil
		}
		targetID, err := callbacks.PayloadInt64(c)
		if err != nil {
			return tghelpers.EditOrSendHTML(c, "⚠️ Некорректная заявка.")
		}

		outcome, err := b.reviewUser(c.Sender().ID, targetID, verdict)
		if err != nil {
			return err
		}
		if err := tghelpers.EditOrSendHTML(c, outcome.AdminText); err != nil {
			return err
		}
		if outcome.UserNote != nil {
			b.notify([]flows.Notification{*outcome.UserNote})
		}
		return nil
	}
}

// reviewOutcome is what an approve/reject decision reports back.
type reviewOutcome struct {
	AdminText string
	UserNote  *flows.Notification
}

// reviewUser applies an admin's verdict. A duplicate click on the same
// verdict is rejected; a different verdict overwrites the previous
// decision, so a rejected user can still be approved later.
func (b *Bot) reviewUser(adminID, targetID int64, verdict store.UserStatus) (reviewOutcome, error) {
	u, ok, err := b.users.ByID(targetID)
	if err != nil {
		return reviewOutcome{}, err
	}
	if !ok {
		return reviewOutcome{AdminText: "⚠️ Заявка не найдена: пользователь удалён."}, nil
	}
	if u.Status == verdict {
		return reviewOutcome{AdminText: fmt.Sprintf(
			"⚠️ Заявка %s уже обработана.", format.EscapeHTML(u.FullName()))}, nil
	}

	if err := b.users.SetStatus(targetID, verdict, adminID); err != nil {
		return reviewOutcome{}, err
	}

	var adminLine, userText string
	if verdict == store.StatusApproved {
		adminLine = "✅ Одобрено"
		userText = "🎉 Ваша заявка одобрена! Теперь вы будете получать объявления."
	} else {
		adminLine = "❌ Отклонено"
		userText = "😔 К сожалению, ваша заявка отклонена."
	}

	return reviewOutcome{
		AdminText: fmt.Sprintf("%s — %s\n\n%s",
			format.EscapeHTML(u.FullName()), format.EscapeHTML(u.Subject), adminLine),
		UserNote: &flows.Notification{ChatID: targetID, Text: userText},
	}, nil
}

func (b *Bot) cbAdminAddConfirm(c tele.Context) error {
	p, err := b.adminFlow.ConfirmAdd(c.Sender().ID)
	if err != nil {
		return err
	}
	return editPrompt(c, p)
}

func (b *Bot) cbAdminRemoveConfirm(c tele.Context) error {
	p, err := b.adminFlow.ConfirmRemove(c.Sender().ID)
	if err != nil {
		return err
	}
	return editPrompt(c, p)
}

func (b *Bot) cbGroupAddConfirm(c tele.Context) error {
	p, err := b.groupFlow.ConfirmAdd(c.Sender().ID)
	if err != nil {
		return err
	}
	return editPrompt(c, p)
}

func (b *Bot) cbGroupRemoveConfirm(c tele.Context) error {
	p, err := b.groupFlow.ConfirmRemove(c.Sender().ID)
	if err != nil {
		return err
	}
	return editPrompt(c, p)
}

func (b *Bot) cbAnnounceConfirm(c tele.Context) error {
	if !b.isAdmin(c) {
		return nil
	}
	pending, ok := b.announce.TakeConfirmed(c.Sender().ID)
	if !ok {
		return editPrompt(c, flows.Expired)
	}
	return b.runBroadcast(c, pending)
}
