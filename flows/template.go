package flows

import (
	"fmt"

	"announcebot/core/telegram/format"
	"announcebot/core/telegram/state"
	"announcebot/store"
)

// TemplateSave waits for the body of a template named on the command line.
type TemplateSave struct {
	Name string
}

// FlowName implements state.FlowState.
func (TemplateSave) FlowName() string { return "template_save" }

const maxTemplateLen = 4096

// TemplateController drives the template save dialog.
type TemplateController struct {
	Templates store.TemplateStore
	States    *state.Manager
}

// StartSave opens the dialog for the given template name. Saving over
// an existing name overwrites it; the prompt says so.
func (c *TemplateController) StartSave(actorID int64, name string) (Prompt, error) {
	exists, err := c.Templates.Exists(name)
	if err != nil {
		return Prompt{}, err
	}
	c.States.Set(actorID, TemplateSave{Name: name})
	if exists {
		return Prompt{Text: fmt.Sprintf(
			"⚠️ Шаблон «%s» уже существует и будет перезаписан.\n\nВведите текст шаблона:",
			format.EscapeHTML(name),
		)}, nil
	}
	return Prompt{Text: "📝 Введите текст шаблона:"}, nil
}

// HandleText stores the template body.
func (c *TemplateController) HandleText(actorID int64, text string) (Prompt, error) {
	flow, ok := c.States.Get(actorID)
	if !ok {
		return Expired, nil
	}
	ts, ok := flow.(TemplateSave)
	if !ok {
		return Expired, nil
	}

	body := trimmed(text)
	if !validLength(body, maxTemplateLen) {
		return Prompt{Text: "⚠️ Текст шаблона должен быть от 1 до 4096 символов. Попробуйте ещё раз:"}, nil
	}
	if err := c.Templates.Save(store.Template{Name: ts.Name, Text: body}); err != nil {
		return Prompt{}, err
	}
	c.States.Clear(actorID)
	return Prompt{Text: fmt.Sprintf("✅ Шаблон «%s» сохранён.", format.EscapeHTML(ts.Name))}, nil
}

// Cancel drops the dialog.
func (c *TemplateController) Cancel(actorID int64) Prompt {
	c.States.Clear(actorID)
	return Prompt{Text: "❌ Действие отменено."}
}
