package bot

import (
	"fmt"
	"strings"

	tg "announcebot/core/telegram"
	"announcebot/core/telegram/format"
	tghelpers "announcebot/core/telegram/helpers"
	"announcebot/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

// Menu callback uniques.
const (
	cbMenuMain      = "menu_main"
	cbMenuAnnounce  = "menu_announce"
	cbMenuGroups    = "menu_groups"
	cbMenuUsers     = "menu_users"
	cbMenuTemplates = "menu_templates"
	cbMenuHelp      = "menu_help"
)

func (b *Bot) registerMenuCallbacks(reg *tg.Registry) {
	cb := func(key string, h tele.HandlerFunc) { _ = reg.RegisterCallback(key, h) }
	cb(cbMenuMain, b.cbMenuMain)
	cb(cbMenuAnnounce, b.menuSection(b.menuAnnounceText))
	cb(cbMenuGroups, b.menuSection(b.menuGroupsText))
	cb(cbMenuUsers, b.menuSection(b.menuUsersText))
	cb(cbMenuTemplates, b.menuSection(b.menuTemplatesText))
	cb(cbMenuHelp, b.menuSection(func() (string, error) {
		return "Полный список команд: /help", nil
	}))
}

func mainMenuMarkup() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			{Text: "📢 Рассылка", Unique: cbMenuAnnounce},
			{Text: "👥 Группы", Unique: cbMenuGroups},
		},
		[]keyboard.InlineBtn{
			{Text: "🧑‍🏫 Пользователи", Unique: cbMenuUsers},
			{Text: "📄 Шаблоны", Unique: cbMenuTemplates},
		},
		[]keyboard.InlineBtn{
			{Text: "❓ Помощь", Unique: cbMenuHelp},
		},
	)
}

func backMarkup() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		{Text: "◀️ Назад", Unique: cbMenuMain},
	})
}

const mainMenuText = "🤖 <b>Бот объявлений</b>\n\nВыберите раздел:"

func (b *Bot) sendMainMenu(c tele.Context) error {
	return tghelpers.SendHTML(c, mainMenuText, mainMenuMarkup())
}

func (b *Bot) cbMenuMain(c tele.Context) error {
	return tghelpers.EditOrSendHTML(c, mainMenuText, mainMenuMarkup())
}

// menuSection renders a section body with a back button.
func (b *Bot) menuSection(body func() (string, error)) tele.HandlerFunc {
	return func(c tele.Context) error {
		if !b.isAdmin(c) {
			return nil
		}
		text, err := body()
		if err != nil {
			return err
		}
		return tghelpers.EditOrSendHTML(c, text, backMarkup())
	}
}

func (b *Bot) menuAnnounceText() (string, error) {
	return "📢 <b>Рассылка</b>\n\n" +
		"/announce &lt;текст&gt; — во все группы\n" +
		"/announce_to &lt;теги&gt; &lt;текст&gt; — по тегам\n" +
		"/announce_groups &lt;id1,id2&gt; &lt;текст&gt; — по ID\n" +
		"/announce_media — с фото или файлом\n" +
		"/announce_users &lt;текст&gt; — пользователям\n" +
		"/announce_subject &lt;предмет&gt; &lt;текст&gt; — по предмету", nil
}

func (b *Bot) menuGroupsText() (string, error) {
	groups, err := b.groups.List()
	if err != nil {
		return "", err
	}
	if len(groups) == 0 {
		return "👥 Зарегистрированных групп пока нет.\n\nДобавьте бота в группу или используйте /addgroup.", nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "👥 <b>Группы (%d):</b>\n\n", len(groups))
	for _, g := range groups {
		fmt.Fprintf(&sb, "• %s (<code>%d</code>)\n", format.EscapeHTML(g.Title), g.ID)
	}
	sb.WriteString("\nПодробнее: /groups")
	return sb.String(), nil
}

func (b *Bot) menuUsersText() (string, error) {
	stats, err := b.users.Stats()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"🧑‍🏫 <b>Пользователи</b>\n\n"+
			"Всего: %d\n✅ Одобрено: %d\n⏳ Ожидает: %d\n❌ Отклонено: %d\n\n"+
			"Подробнее: /users",
		stats.Total, stats.Approved, stats.Pending, stats.Rejected), nil
}

func (b *Bot) menuTemplatesText() (string, error) {
	templates, err := b.templates.All()
	if err != nil {
		return "", err
	}
	if len(templates) == 0 {
		return "📄 Шаблонов пока нет.\n\nСоздайте: /template_save &lt;имя&gt;", nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "📄 <b>Шаблоны (%d):</b>\n\n", len(templates))
	for _, t := range templates {
		fmt.Fprintf(&sb, "• %s\n", format.EscapeHTML(t.Name))
	}
	sb.WriteString("\nРазослать: /template_use &lt;имя&gt;")
	return sb.String(), nil
}
