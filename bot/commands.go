package bot

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	tg "announcebot/core/telegram"
	"announcebot/core/telegram/commands"
	"announcebot/core/telegram/format"
	tghelpers "announcebot/core/telegram/helpers"
	"announcebot/store"

	tele "gopkg.in/telebot.v4"
)

func (b *Bot) registerCommands(reg *tg.Registry) {
	add := func(name string, cmd commands.Command) { reg.RegisterCommand(name, cmd) }

	add("/start", commands.Command{Handler: b.cmdStart, Description: "Главное меню"})
	add("/help", commands.Command{Handler: b.cmdHelp, Description: "Справка по командам"})
	add("/myid", commands.Command{Handler: b.cmdMyID, Description: "Показать ваш ID"})
	add("/register", commands.Command{Handler: b.cmdRegister, Description: "Подать заявку на рассылку"})
	add("/cancel", commands.Command{Handler: b.cmdCancel, Description: "Отменить текущее действие"})

	add("/groupid", commands.Command{Handler: b.cmdGroupID, Description: "ID текущего чата", Hidden: true})
	add("/settopic", commands.Command{Handler: b.cmdSetTopic, Description: "Привязать объявления к теме форума", AdminOnly: true})

	add("/addadmin", commands.Command{Handler: b.cmdAddAdmin, Description: "Добавить администратора", AdminOnly: true})
	add("/removeadmin", commands.Command{Handler: b.cmdRemoveAdmin, Description: "Удалить администратора", AdminOnly: true})

	add("/addgroup", commands.Command{Handler: b.cmdAddGroup, Description: "Добавить группу вручную", AdminOnly: true})
	add("/removegroup", commands.Command{Handler: b.cmdRemoveGroup, Description: "Удалить группу", AdminOnly: true})
	add("/groups", commands.Command{Handler: b.cmdGroups, Description: "Список групп", AdminOnly: true})
	add("/users", commands.Command{Handler: b.cmdUsers, Description: "Список пользователей", AdminOnly: true})

	add("/tag_add", commands.Command{Handler: b.cmdTagAdd, Description: "Добавить тег группе", AdminOnly: true})
	add("/tag_remove", commands.Command{Handler: b.cmdTagRemove, Description: "Снять тег с группы", AdminOnly: true})
	add("/tag_list", commands.Command{Handler: b.cmdTagList, Description: "Список тегов", AdminOnly: true})

	add("/template_save", commands.Command{Handler: b.cmdTemplateSave, Description: "Сохранить шаблон", AdminOnly: true})
	add("/template_list", commands.Command{Handler: b.cmdTemplateList, Description: "Список шаблонов", AdminOnly: true})
	add("/template_use", commands.Command{Handler: b.cmdTemplateUse, Description: "Разослать шаблон", AdminOnly: true})
	add("/template_delete", commands.Command{Handler: b.cmdTemplateDelete, Description: "Удалить шаблон", AdminOnly: true})

	add("/announce", commands.Command{Handler: b.cmdAnnounce, Description: "Рассылка во все группы", AdminOnly: true})
	add("/announce_to", commands.Command{Handler: b.cmdAnnounceTo, Description: "Рассылка по тегам", AdminOnly: true})
	add("/announce_groups", commands.Command{Handler: b.cmdAnnounceGroups, Description: "Рассылка по ID групп", AdminOnly: true})
	add("/announce_media", commands.Command{Handler: b.cmdAnnounceMedia, Description: "Медиа-рассылка во все группы", AdminOnly: true})
	add("/announce_media_to", commands.Command{Handler: b.cmdAnnounceMediaTo, Description: "Медиа-рассылка по тегам", AdminOnly: true})
	add("/announce_users", commands.Command{Handler: b.cmdAnnounceUsers, Description: "Рассылка пользователям", AdminOnly: true})
	add("/announce_users_media", commands.Command{Handler: b.cmdAnnounceUsersMedia, Description: "Медиа-рассылка пользователям", AdminOnly: true})
	add("/announce_subject", commands.Command{Handler: b.cmdAnnounceSubject, Description: "Рассылка по предмету", AdminOnly: true})
}

func (b *Bot) cmdStart(c tele.Context) error {
	if b.isAdmin(c) {
		return b.sendMainMenu(c)
	}
	return tghelpers.SendHTML(c,
		"👋 Здравствуйте! Этот бот рассылает объявления.\n\n"+
			"Чтобы получать объявления, подайте заявку командой /register.")
}

func (b *Bot) cmdHelp(c tele.Context) error {
	if !b.isAdmin(c) {
		return tghelpers.SendHTML(c,
			"<b>Доступные команды:</b>\n"+
				"/register — подать заявку на рассылку\n"+
				"/myid — показать ваш ID\n"+
				"/cancel — отменить текущее действие")
	}
	return tghelpers.SendHTML(c,
		"<b>Рассылка:</b>\n"+
			"/announce &lt;текст&gt; — во все группы\n"+
			"/announce_to &lt;теги&gt; &lt;текст&gt; — по тегам (через запятую)\n"+
			"/announce_groups &lt;id1,id2&gt; &lt;текст&gt; — по ID групп\n"+
			"/announce_media — медиа во все группы\n"+
			"/announce_media_to — медиа по тегам\n"+
			"/announce_users &lt;текст&gt; — одобренным пользователям\n"+
			"/announce_users_media — медиа пользователям\n"+
			"/announce_subject &lt;предмет&gt; &lt;текст&gt; — по предмету\n\n"+
			"<b>Группы и теги:</b>\n"+
			"/groups, /addgroup, /removegroup, /settopic\n"+
			"/tag_add &lt;id&gt; &lt;тег&gt;, /tag_remove &lt;id&gt; &lt;тег&gt;, /tag_list\n\n"+
			"<b>Шаблоны:</b>\n"+
			"/template_save &lt;имя&gt;, /template_list, /template_use &lt;имя&gt;, /template_delete &lt;имя&gt;\n\n"+
			"<b>Пользователи и администраторы:</b>\n"+
			"/users, /addadmin, /removeadmin")
}

func (b *Bot) cmdMyID(c tele.Context) error {
	return tghelpers.SendHTML(c, fmt.Sprintf("🆔 Ваш ID: <code>%d</code>", c.Sender().ID))
}

func (b *Bot) cmdRegister(c tele.Context) error {
	p, err := b.register.Start(c.Sender().ID)
	if err != nil {
		return err
	}
	return b.sendPrompt(c, p)
}

func (b *Bot) cmdCancel(c tele.Context) error {
	if !b.states.Has(c.Sender().ID) {
		return tghelpers.SendText(c, "Нет активного действия.")
	}
	b.states.Clear(c.Sender().ID)
	return tghelpers.SendText(c, "❌ Действие отменено.")
}

func (b *Bot) cmdGroupID(c tele.Context) error {
	chat := c.Chat()
	if chat == nil || (chat.Type != tele.ChatGroup && chat.Type != tele.ChatSuperGroup) {
		return tghelpers.SendText(c, "Эта команда работает только в группах.")
	}
	text := fmt.Sprintf("🆔 ID этой группы: <code>%d</code>", chat.ID)
	if tid := c.Message().ThreadID; tid != 0 {
		text += fmt.Sprintf("\nID темы: <code>%d</code>", tid)
	}
	return tghelpers.SendHTML(c, text)
}

func (b *Bot) cmdSetTopic(c tele.Context) error {
	chat := c.Chat()
	if chat == nil || (chat.Type != tele.ChatGroup && chat.Type != tele.ChatSuperGroup) {
		return tghelpers.SendText(c, "Эта команда работает только в группах.")
	}
	if _, ok, err := b.groups.ByID(chat.ID); err != nil {
		return err
	} else if !ok {
		return tghelpers.SendText(c, "⚠️ Эта группа не зарегистрирована для рассылки.")
	}

	arg := strings.ToLower(strings.TrimSpace(c.Message().Payload))
	if arg == "reset" || arg == "clear" {
		if err := b.groups.SetThreadID(chat.ID, nil); err != nil {
			return err
		}
		return tghelpers.SendText(c, "✅ Объявления снова будут приходить в General.")
	}

	tid := c.Message().ThreadID
	if tid == 0 {
		return tghelpers.SendText(c,
			"⚠️ Отправьте команду внутри нужной темы форума, либо /settopic reset для сброса.")
	}
	if err := b.groups.SetThreadID(chat.ID, &tid); err != nil {
		return err
	}
	return tghelpers.SendHTML(c, fmt.Sprintf("✅ Объявления будут приходить в эту тему (<code>%d</code>).", tid))
}

func (b *Bot) cmdAddAdmin(c tele.Context) error {
	return b.sendPrompt(c, b.adminFlow.StartAdd(c.Sender().ID))
}

func (b *Bot) cmdRemoveAdmin(c tele.Context) error {
	return b.sendPrompt(c, b.adminFlow.StartRemove(c.Sender().ID))
}

func (b *Bot) cmdAddGroup(c tele.Context) error {
	return b.sendPrompt(c, b.groupFlow.StartAdd(c.Sender().ID))
}

func (b *Bot) cmdRemoveGroup(c tele.Context) error {
	return b.sendPrompt(c, b.groupFlow.StartRemove(c.Sender().ID))
}

func (b *Bot) cmdGroups(c tele.Context) error {
	groups, err := b.groups.List()
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		return tghelpers.SendText(c, "📋 Пока нет зарегистрированных групп.")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 <b>Группы (%d):</b>\n\n", len(groups))
	for _, g := range groups {
		fmt.Fprintf(&sb, "• %s (<code>%d</code>)", format.EscapeHTML(g.Title), g.ID)
		if len(g.Tags) > 0 {
			sb.WriteString(" — #" + strings.Join(g.Tags, " #"))
		}
		if g.ThreadID != nil {
			fmt.Fprintf(&sb, " [тема %d]", *g.ThreadID)
		}
		if g.AddedManually {
			sb.WriteString(" ✍️")
		}
		sb.WriteString("\n")
	}
	return tghelpers.SendHTML(c, sb.String())
}

func (b *Bot) cmdTagAdd(c tele.Context) error {
	args := c.Args()
	if len(args) != 2 {
		return tghelpers.SendText(c, "⚠️ Использование: /tag_add <id группы> <тег>")
	}
	groupID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return tghelpers.SendText(c, "⚠️ Некорректный ID группы.")
	}
	tag := strings.TrimPrefix(args[1], "#")

	switch err := b.groups.AddTag(groupID, tag); {
	case err == nil:
		return tghelpers.SendHTML(c, fmt.Sprintf("✅ Тег #%s добавлен.", format.EscapeHTML(tag)))
	case errors.Is(err, store.ErrGroupNotFound):
		return tghelpers.SendText(c, "⚠️ Такая группа не зарегистрирована.")
	case errors.Is(err, store.ErrTagExists):
		return tghelpers.SendText(c, "⚠️ У группы уже есть этот тег.")
	default:
		return err
	}
}

func (b *Bot) cmdTagRemove(c tele.Context) error {
	args := c.Args()
	if len(args) != 2 {
		return tghelpers.SendText(c, "⚠️ Использование: /tag_remove <id группы> <тег>")
	}
	groupID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return tghelpers.SendText(c, "⚠️ Некорректный ID группы.")
	}
	tag := strings.TrimPrefix(args[1], "#")

	switch err := b.groups.RemoveTag(groupID, tag); {
	case err == nil:
		return tghelpers.SendHTML(c, fmt.Sprintf("✅ Тег #%s снят.", format.EscapeHTML(tag)))
	case errors.Is(err, store.ErrGroupNotFound):
		return tghelpers.SendText(c, "⚠️ Такая группа не зарегистрирована.")
	case errors.Is(err, store.ErrTagNotFound):
		return tghelpers.SendText(c, "⚠️ У группы нет этого тега.")
	default:
		return err
	}
}

func (b *Bot) cmdTagList(c tele.Context) error {
	tags, err := b.groups.AllTags()
	if err != nil {
		return err
	}
	if len(tags) == 0 {
		return tghelpers.SendText(c, "📋 Теги пока не назначены. Добавьте: /tag_add <id группы> <тег>")
	}

	groups, err := b.groups.List()
	if err != nil {
		return err
	}
	var sb strings.Builder
	sb.WriteString("🏷 <b>Теги:</b>\n\n")
	for _, tag := range tags {
		var titles []string
		for _, g := range groups {
			if g.HasTag(tag) {
				titles = append(titles, format.EscapeHTML(g.Title))
			}
		}
		fmt.Fprintf(&sb, "#%s — %s\n", format.EscapeHTML(tag), strings.Join(titles, ", "))
	}
	return tghelpers.SendHTML(c, sb.String())
}

func (b *Bot) cmdTemplateSave(c tele.Context) error {
	name := strings.TrimSpace(c.Message().Payload)
	if name == "" || strings.ContainsAny(name, " \t") {
		return tghelpers.SendText(c, "⚠️ Использование: /template_save <имя_без_пробелов>")
	}
	p, err := b.templateFlow.StartSave(c.Sender().ID, name)
	if err != nil {
		return err
	}
	return b.sendPrompt(c, p)
}

func (b *Bot) cmdTemplateList(c tele.Context) error {
	templates, err := b.templates.All()
	if err != nil {
		return err
	}
	if len(templates) == 0 {
		return tghelpers.SendText(c, "📋 Шаблонов пока нет. Создайте: /template_save <имя>")
	}
	sort.Slice(templates, func(i, j int) bool { return templates[i].Name < templates[j].Name })

	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 <b>Шаблоны (%d):</b>\n\n", len(templates))
	for _, t := range templates {
		preview := t.Text
		if len([]rune(preview)) > 60 {
			preview = string([]rune(preview)[:60]) + "…"
		}
		fmt.Fprintf(&sb, "• <b>%s</b> — %s\n", format.EscapeHTML(t.Name), format.EscapeHTML(preview))
	}
	return tghelpers.SendHTML(c, sb.String())
}

func (b *Bot) cmdTemplateDelete(c tele.Context) error {
	name := strings.TrimSpace(c.Message().Payload)
	if name == "" {
		return tghelpers.SendText(c, "⚠️ Использование: /template_delete <имя>")
	}
	switch err := b.templates.Delete(name); {
	case err == nil:
		return tghelpers.SendHTML(c, fmt.Sprintf("✅ Шаблон «%s» удалён.", format.EscapeHTML(name)))
	case errors.Is(err, store.ErrTemplateNotFound):
		return tghelpers.SendText(c, "⚠️ Такого шаблона нет. /template_list покажет доступные.")
	default:
		return err
	}
}
