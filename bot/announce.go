package bot

import (
	"fmt"
	"strconv"
	"strings"

	"announcebot/broadcast"
	"announcebot/core/logger"
	"announcebot/core/telegram/format"
	tghelpers "announcebot/core/telegram/helpers"
	"announcebot/flows"

	tele "gopkg.in/telebot.v4"
	"log/slog"
)

// splitHead cuts the first space-delimited token off the command
// payload; the remainder is the announcement body.
func splitHead(payload string) (head, body string) {
	payload = strings.TrimSpace(payload)
	i := strings.IndexByte(payload, ' ')
	if i < 0 {
		return payload, ""
	}
	return payload[:i], strings.TrimSpace(payload[i+1:])
}

func parseCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// resolveTargets turns an audience into a concrete target list. The
// second result holds requested group IDs that are not registered.
func (b *Bot) resolveTargets(aud flows.Audience) ([]broadcast.Target, []int64, error) {
	switch aud.Kind {
	case flows.AudienceAllGroups:
		t, err := broadcast.AllGroups(b.groups)
		return t, nil, err
	case flows.AudienceGroupTags:
		t, err := broadcast.GroupsByTags(b.groups, aud.Tags)
		return t, nil, err
	case flows.AudienceGroupIDs:
		return broadcast.GroupsByIDs(b.groups, aud.IDs)
	case flows.AudienceAllUsers:
		t, err := broadcast.ApprovedUsers(b.users)
		return t, nil, err
	case flows.AudienceSubject:
		t, err := broadcast.ApprovedUsersBySubject(b.users, aud.Subject)
		return t, nil, err
	}
	return nil, nil, fmt.Errorf("unknown audience kind %q", aud.Kind)
}

// stageTextAnnouncement resolves the audience, short-circuits on zero
// targets, and parks the announcement behind a confirm button.
func (b *Bot) stageTextAnnouncement(c tele.Context, aud flows.Audience, body, emptyMsg string) error {
	targets, notFound, err := b.resolveTargets(aud)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return tghelpers.SendHTML(c, emptyMsg)
	}

	prompt := b.announce.StageText(c.Sender().ID, aud, formatAnnouncement(body), len(targets))
	if len(notFound) > 0 {
		ids := make([]string, 0, len(notFound))
		for _, id := range notFound {
			ids = append(ids, strconv.FormatInt(id, 10))
		}
		prompt.Text = fmt.Sprintf("⚠️ Не зарегистрированы: %s\n\n", strings.Join(ids, ", ")) + prompt.Text
	}
	return b.sendPrompt(c, prompt)
}

func (b *Bot) cmdAnnounce(c tele.Context) error {
	body := strings.TrimSpace(c.Message().Payload)
	if body == "" {
		return tghelpers.SendText(c, "⚠️ Использование: /announce <текст объявления>")
	}
	return b.stageTextAnnouncement(c, flows.Audience{Kind: flows.AudienceAllGroups}, body,
		"❌ Нет зарегистрированных групп. Добавьте бота в группу или используйте /addgroup.")
}

func (b *Bot) cmdAnnounceTo(c tele.Context) error {
	head, body := splitHead(c.Message().Payload)
	tags := parseCSV(head)
	if len(tags) == 0 || body == "" {
		return tghelpers.SendText(c,
			"⚠️ Использование: /announce_to <теги> <текст>\n\n"+
				"Теги указываются через запятую. Пример:\n"+
				"/announce_to новости,важное Срочная новость!\n\n"+
				"/tag_list покажет доступные теги.")
	}
	empty := fmt.Sprintf("❌ Нет групп с тегами: #%s\n\n/tag_list покажет доступные теги.",
		strings.Join(tags, ", #"))
	return b.stageTextAnnouncement(c, flows.Audience{Kind: flows.AudienceGroupTags, Tags: tags}, body, empty)
}

func (b *Bot) cmdAnnounceGroups(c tele.Context) error {
	head, body := splitHead(c.Message().Payload)
	var ids []int64
	for _, raw := range parseCSV(head) {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return tghelpers.SendText(c, fmt.Sprintf("⚠️ Некорректный ID группы: %s", raw))
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 || body == "" {
		return tghelpers.SendText(c,
			"⚠️ Использование: /announce_groups <id1,id2> <текст>\n\n"+
				"/groups покажет ID зарегистрированных групп.")
	}
	return b.stageTextAnnouncement(c, flows.Audience{Kind: flows.AudienceGroupIDs, IDs: ids}, body,
		"❌ Ни одна из указанных групп не зарегистрирована.")
}

func (b *Bot) cmdAnnounceUsers(c tele.Context) error {
	body := strings.TrimSpace(c.Message().Payload)
	if body == "" {
		return tghelpers.SendText(c, "⚠️ Использование: /announce_users <текст>")
	}
	return b.stageTextAnnouncement(c, flows.Audience{Kind: flows.AudienceAllUsers}, body,
		"❌ Нет одобренных пользователей.")
}

func (b *Bot) cmdAnnounceSubject(c tele.Context) error {
	subject, body := splitHead(c.Message().Payload)
	if subject == "" || body == "" {
		subjects, err := b.users.Subjects()
		if err != nil {
			return err
		}
		text := "⚠️ Использование: /announce_subject <предмет> <текст>"
		if len(subjects) > 0 {
			text += "\n\nДоступные предметы:\n• " + strings.Join(subjects, "\n• ")
		}
		return tghelpers.SendText(c, text)
	}
	empty := fmt.Sprintf("❌ Нет одобренных пользователей с предметом «%s».", format.EscapeHTML(subject))
	return b.stageTextAnnouncement(c, flows.Audience{Kind: flows.AudienceSubject, Subject: subject}, body, empty)
}

// startMediaAnnouncement opens the media dialog unless the audience is
// already known to be empty.
func (b *Bot) startMediaAnnouncement(c tele.Context, aud flows.Audience, emptyMsg string) error {
	// the tag variant collects its filter first; counting waits until then
	if aud.Kind != flows.AudienceGroupTags {
		targets, _, err := b.resolveTargets(aud)
		if err != nil {
			return err
		}
		if len(targets) == 0 {
			return tghelpers.SendHTML(c, emptyMsg)
		}
	}
	return b.sendPrompt(c, b.announce.StartMedia(c.Sender().ID, aud))
}

func (b *Bot) cmdAnnounceMedia(c tele.Context) error {
	return b.startMediaAnnouncement(c, flows.Audience{Kind: flows.AudienceAllGroups},
		"❌ Нет зарегистрированных групп.")
}

func (b *Bot) cmdAnnounceMediaTo(c tele.Context) error {
	return b.startMediaAnnouncement(c, flows.Audience{Kind: flows.AudienceGroupTags}, "")
}

func (b *Bot) cmdAnnounceUsersMedia(c tele.Context) error {
	return b.startMediaAnnouncement(c, flows.Audience{Kind: flows.AudienceAllUsers},
		"❌ Нет одобренных пользователей.")
}

func (b *Bot) cmdTemplateUse(c tele.Context) error {
	name := strings.TrimSpace(c.Message().Payload)
	if name == "" {
		return tghelpers.SendText(c, "⚠️ Использование: /template_use <имя>")
	}
	tpl, ok, err := b.templates.Get(name)
	if err != nil {
		return err
	}
	if !ok {
		return tghelpers.SendText(c, "⚠️ Такого шаблона нет. /template_list покажет доступные.")
	}
	return b.stageTextAnnouncement(c, flows.Audience{Kind: flows.AudienceAllGroups}, tpl.Text,
		"❌ Нет зарегистрированных групп.")
}

// runBroadcast executes a confirmed announcement: resolves targets,
// turns the confirm message into a progress ticker, and runs the
// engine off the update loop.
func (b *Bot) runBroadcast(c tele.Context, pending flows.PendingAnnouncement) error {
	targets, _, err := b.resolveTargets(pending.Audience)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return tghelpers.EditOrSendHTML(c, "❌ Получателей больше нет, рассылка отменена.")
	}
	if !b.broadcasting.CompareAndSwap(false, true) {
		return tghelpers.EditOrSendHTML(c, "⏳ Другая рассылка ещё выполняется, дождитесь её завершения.")
	}

	msg := c.Callback().Message
	edit := func(text string) {
		if _, err := b.tg.Edit(msg, text, &tele.SendOptions{ParseMode: tele.ModeHTML}); err != nil {
			logger.Debug(b.runCtx, "broadcast", "progress.edit_failed",
				slog.String("err", err.Error()),
			)
		}
	}
	edit(progressText(0, len(targets)))

	go func() {
		defer b.broadcasting.Store(false)
		report := b.engine.Run(b.runCtx, targets, pending.Payload, func(p broadcast.Progress) {
			edit(progressText(p.Done, p.Total))
		})
		edit(renderReport(report))
	}()
	return nil
}

// notify fans flow notifications out to their chats. Individual
// failures are logged and swallowed.
func (b *Bot) notify(notes []flows.Notification) {
	for _, n := range notes {
		opts := &tele.SendOptions{ParseMode: tele.ModeHTML}
		var what any = n.Text
		markup := promptMarkup(flows.Prompt{Buttons: n.Buttons})
		if markup != nil {
			opts.ReplyMarkup = markup
		}
		if _, err := b.tg.Send(&tele.Chat{ID: n.ChatID}, what, opts); err != nil {
			logger.Warn(b.runCtx, "tg", "notify.failed",
				slog.Int64("chat_id", n.ChatID),
				slog.String("err", err.Error()),
			)
		}
	}
}
