package flows

import (
	"fmt"
	"strings"

	"announcebot/broadcast"
	"announcebot/core/telegram/state"
)

// AudienceKind names the target selection strategies.
type AudienceKind string

const (
	// AudienceAllGroups targets every registered group.
	AudienceAllGroups AudienceKind = "groups_all"
	// AudienceGroupTags targets groups carrying any of the tags.
	AudienceGroupTags AudienceKind = "groups_tags"
	// AudienceGroupIDs targets an explicit list of group IDs.
	AudienceGroupIDs AudienceKind = "groups_ids"
	// AudienceAllUsers targets every approved user.
	AudienceAllUsers AudienceKind = "users_all"
	// AudienceSubject targets approved users teaching the subject.
	AudienceSubject AudienceKind = "users_subject"
)

// Audience describes who an announcement goes to.
type Audience struct {
	Kind    AudienceKind
	Tags    []string
	IDs     []int64
	Subject string
}

// PendingAnnouncement holds a composed announcement waiting for the
// operator's confirm click. Targets are resolved again on confirmation.
type PendingAnnouncement struct {
	Audience Audience
	Payload  broadcast.Payload
}

// FlowName implements state.FlowState.
func (PendingAnnouncement) FlowName() string { return "announce_confirm" }

// MediaStep enumerates the media composition steps.
type MediaStep int

const (
	// StepMediaTags waits for the tag filter (tag-filtered variant only).
	StepMediaTags MediaStep = iota
	// StepMediaAttachment waits for the photo/video/document/audio.
	StepMediaAttachment
	// StepMediaConfirm waits for the confirm/cancel callback.
	StepMediaConfirm
)

// MediaAnnounce is the state of an in-flight media announcement.
type MediaAnnounce struct {
	Step     MediaStep
	Audience Audience
	Media    broadcast.Media
}

// FlowName implements state.FlowState.
func (MediaAnnounce) FlowName() string { return "announce_media" }

// AnnounceController sequences announcement composition. It never
// touches the record stores; the bot resolves targets and runs the
// engine after Take*Confirmed.
type AnnounceController struct {
	States *state.Manager
}

// StageText parks a composed text announcement and returns the confirm
// prompt. targetCount is shown to the operator.
func (c *AnnounceController) StageText(actorID int64, aud Audience, text string, targetCount int) Prompt {
	c.States.Set(actorID, PendingAnnouncement{
		Audience: aud,
		Payload:  broadcast.Payload{Text: text},
	})
	return Prompt{
		Text: fmt.Sprintf(
			"📢 <b>Предпросмотр:</b>\n\n%s\n\nПолучателей: <b>%d</b>. Отправить?",
			text, targetCount,
		),
		Buttons: confirmRow(CbAnnounceConfirm, CbAnnounceCancel),
	}
}

// StartMedia opens the media dialog. The tag-filtered variant asks for
// tags first; everything else goes straight to the attachment.
func (c *AnnounceController) StartMedia(actorID int64, aud Audience) Prompt {
	if aud.Kind == AudienceGroupTags && len(aud.Tags) == 0 {
		c.States.Set(actorID, MediaAnnounce{Step: StepMediaTags, Audience: aud})
		return Prompt{Text: "🏷 Введите теги через пробел:"}
	}
	c.States.Set(actorID, MediaAnnounce{Step: StepMediaAttachment, Audience: aud})
	return Prompt{Text: "📎 Отправьте фото, видео, документ или аудио. Подпись к файлу станет текстом объявления."}
}

// HandleMediaTags consumes the tag filter and moves on to the attachment.
func (c *AnnounceController) HandleMediaTags(actorID int64, text string) Prompt {
	flow, ok := c.States.Get(actorID)
	if !ok {
		return Expired
	}
	ma, ok := flow.(MediaAnnounce)
	if !ok || ma.Step != StepMediaTags {
		return Expired
	}

	tags := strings.Fields(trimmed(text))
	if len(tags) == 0 {
		return Prompt{Text: "⚠️ Укажите хотя бы один тег:"}
	}
	ma.Audience.Tags = tags
	ma.Step = StepMediaAttachment
	c.States.Set(actorID, ma)
	return Prompt{Text: "📎 Отправьте фото, видео, документ или аудио. Подпись к файлу станет текстом объявления."}
}

// HandleMedia consumes the attachment (caption included) and returns the
// confirm prompt. targetCount is shown to the operator.
func (c *AnnounceController) HandleMedia(actorID int64, media broadcast.Media, targetCount int) Prompt {
	flow, ok := c.States.Get(actorID)
	if !ok {
		return Expired
	}
	ma, ok := flow.(MediaAnnounce)
	if !ok || ma.Step != StepMediaAttachment {
		return Expired
	}

	ma.Media = media
	ma.Step = StepMediaConfirm
	c.States.Set(actorID, ma)
	return Prompt{
		Text: fmt.Sprintf(
			"📎 Файл получен (%s).\n\nПолучателей: <b>%d</b>. Отправить?",
			media.Kind, targetCount,
		),
		Buttons: confirmRow(CbAnnounceConfirm, CbAnnounceCancel),
	}
}

// TakeConfirmed pops the staged announcement, whichever variant it is.
// The second result is false when the session expired.
func (c *AnnounceController) TakeConfirmed(actorID int64) (PendingAnnouncement, bool) {
	flow, ok := c.States.Get(actorID)
	if !ok {
		return PendingAnnouncement{}, false
	}

	switch f := flow.(type) {
	case PendingAnnouncement:
		c.States.Clear(actorID)
		return f, true
	case MediaAnnounce:
		if f.Step != StepMediaConfirm {
			return PendingAnnouncement{}, false
		}
		c.States.Clear(actorID)
		media := f.Media
		return PendingAnnouncement{
			Audience: f.Audience,
			Payload:  broadcast.Payload{Media: &media},
		}, true
	}
	return PendingAnnouncement{}, false
}

// Cancel drops the staged announcement.
func (c *AnnounceController) Cancel(actorID int64) Prompt {
	c.States.Clear(actorID)
	return Prompt{Text: "❌ Рассылка отменена."}
}
