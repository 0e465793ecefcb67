package bot

import (
	"announcebot/broadcast"
	tghelpers "announcebot/core/telegram/helpers"
	"announcebot/core/telegram/keyboard"
	"announcebot/flows"

	tele "gopkg.in/telebot.v4"
)

// InProgress implements router.Conversation.
func (b *Bot) InProgress(userID int64) bool {
	return b.states.Has(userID)
}

// HandleText forwards a plain text message into the sender's active flow.
func (b *Bot) HandleText(c tele.Context) error {
	userID := c.Sender().ID
	flow, ok := b.states.Get(userID)
	if !ok {
		return nil
	}

	switch flow.(type) {
	case flows.Register:
		p, err := b.register.HandleText(userID, c.Text())
		if err != nil {
			return err
		}
		return b.sendPrompt(c, p)
	case flows.AddAdmin:
		return b.sendPrompt(c, b.adminFlow.HandleAddText(userID, c.Text()))
	case flows.RemoveAdmin:
		return b.sendPrompt(c, b.adminFlow.HandleRemoveText(userID, c.Text()))
	case flows.AddGroup:
		p, err := b.groupFlow.HandleAddText(userID, c.Text())
		if err != nil {
			return err
		}
		return b.sendPrompt(c, p)
	case flows.RemoveGroup:
		p, err := b.groupFlow.HandleRemoveText(userID, c.Text())
		if err != nil {
			return err
		}
		return b.sendPrompt(c, p)
	case flows.TemplateSave:
		p, err := b.templateFlow.HandleText(userID, c.Text())
		if err != nil {
			return err
		}
		return b.sendPrompt(c, p)
	case flows.MediaAnnounce:
		return b.handleMediaFlowText(c)
	case flows.PendingAnnouncement:
		return tghelpers.SendText(c, "Нажмите кнопку под сообщением, чтобы отправить или отменить рассылку.")
	}
	return nil
}

// HandleMedia forwards an attachment into the sender's active flow.
func (b *Bot) HandleMedia(c tele.Context) error {
	userID := c.Sender().ID
	flow, ok := b.states.Get(userID)
	if !ok {
		return nil
	}

	ma, ok := flow.(flows.MediaAnnounce)
	if !ok || ma.Step != flows.StepMediaAttachment {
		return tghelpers.SendText(c, "Сейчас файл не ожидается. Отправьте текстовый ответ или /cancel.")
	}

	media, ok := incomingMedia(c.Message())
	if !ok {
		return tghelpers.SendText(c, "⚠️ Поддерживаются фото, видео, документы и аудио.")
	}

	targets, _, err := b.resolveTargets(ma.Audience)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		b.states.Clear(userID)
		return tghelpers.SendText(c, "❌ Нет получателей для этой рассылки.")
	}

	return b.sendPrompt(c, b.announce.HandleMedia(userID, media, len(targets)))
}

func (b *Bot) handleMediaFlowText(c tele.Context) error {
	userID := c.Sender().ID
	flow, _ := b.states.Get(userID)
	ma, ok := flow.(flows.MediaAnnounce)
	if !ok {
		return nil
	}
	if ma.Step == flows.StepMediaTags {
		return b.sendPrompt(c, b.announce.HandleMediaTags(userID, c.Text()))
	}
	return tghelpers.SendText(c, "📎 Отправьте файл, а не текст, либо /cancel для отмены.")
}

func incomingMedia(m *tele.Message) (broadcast.Media, bool) {
	if m == nil {
		return broadcast.Media{}, false
	}
	switch {
	case m.Photo != nil:
		return broadcast.Media{Kind: broadcast.MediaPhoto, FileID: m.Photo.FileID, Caption: m.Caption}, true
	case m.Video != nil:
		return broadcast.Media{Kind: broadcast.MediaVideo, FileID: m.Video.FileID, Caption: m.Caption}, true
	case m.Document != nil:
		return broadcast.Media{Kind: broadcast.MediaDocument, FileID: m.Document.FileID, Caption: m.Caption}, true
	case m.Audio != nil:
		return broadcast.Media{Kind: broadcast.MediaAudio, FileID: m.Audio.FileID, Caption: m.Caption}, true
	}
	return broadcast.Media{}, false
}

// sendPrompt renders a flow prompt with its inline keyboard.
func (b *Bot) sendPrompt(c tele.Context, p flows.Prompt) error {
	return tghelpers.SendHTML(c, p.Text, promptMarkup(p))
}

// editPrompt rewrites the callback's message with the prompt.
func editPrompt(c tele.Context, p flows.Prompt) error {
	return tghelpers.EditOrSendHTML(c, p.Text, promptMarkup(p))
}

func promptMarkup(p flows.Prompt) *tele.ReplyMarkup {
	if len(p.Buttons) == 0 {
		return nil
	}
	rows := make([][]keyboard.InlineBtn, 0, len(p.Buttons))
	for _, row := range p.Buttons {
		r := make([]keyboard.InlineBtn, 0, len(row))
		for _, btn := range row {
			r = append(r, keyboard.InlineBtn{Text: btn.Text, Unique: btn.Unique, Data: btn.Data})
		}
		rows = append(rows, r)
	}
	return keyboard.InlineButtonsRows(rows...)
}
