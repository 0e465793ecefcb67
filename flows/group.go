package flows

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"announcebot/core/telegram/format"
	"announcebot/core/telegram/state"
	"announcebot/store"
)

// GroupStep enumerates the manual group registration steps.
type GroupStep int

const (
	// StepGroupID waits for the chat ID.
	StepGroupID GroupStep = iota
	// StepGroupTitle waits for the display title.
	StepGroupTitle
	// StepGroupConfirm waits for the confirm/cancel callback.
	StepGroupConfirm
)

// AddGroup is the state of a manual group registration.
type AddGroup struct {
	Step    GroupStep
	GroupID int64
	Title   string
}

// FlowName implements state.FlowState.
func (AddGroup) FlowName() string { return "group_add" }

// RemoveGroup waits for the ID of a group to unregister.
type RemoveGroup struct {
	Confirming bool
	GroupID    int64
	Title      string
}

// FlowName implements state.FlowState.
func (RemoveGroup) FlowName() string { return "group_remove" }

const maxGroupTitleLen = 128

// GroupController drives manual group add/remove dialogs.
type GroupController struct {
	Groups store.GroupStore
	States *state.Manager
}

// StartAdd opens the manual registration dialog.
func (c *GroupController) StartAdd(actorID int64) Prompt {
	c.States.Set(actorID, AddGroup{Step: StepGroupID})
	return Prompt{Text: "🆔 Введите ID группы (например, -1001234567890):"}
}

// StartRemove opens the unregister dialog.
func (c *GroupController) StartRemove(actorID int64) Prompt {
	c.States.Set(actorID, RemoveGroup{})
	return Prompt{Text: "🆔 Введите ID группы, которую нужно удалить:"}
}

// HandleAddText consumes the next answer of the add dialog.
func (c *GroupController) HandleAddText(actorID int64, text string) (Prompt, error) {
	flow, ok := c.States.Get(actorID)
	if !ok {
		return Expired, nil
	}
	add, ok := flow.(AddGroup)
	if !ok {
		return Expired, nil
	}

	input := trimmed(text)
	switch add.Step {
	case StepGroupID:
		groupID, err := strconv.ParseInt(input, 10, 64)
		if err != nil || groupID == 0 {
			return Prompt{Text: "⚠️ Введите корректный числовой ID группы:"}, nil
		}
		if _, exists, err := c.Groups.ByID(groupID); err != nil {
			return Prompt{}, err
		} else if exists {
			return Prompt{Text: "⚠️ Эта группа уже зарегистрирована. Введите другой ID:"}, nil
		}
		add.GroupID = groupID
		add.Step = StepGroupTitle
		c.States.Set(actorID, add)
		return Prompt{Text: "📝 Введите название группы:"}, nil

	case StepGroupTitle:
		if !validLength(input, maxGroupTitleLen) {
			return Prompt{Text: "⚠️ Название должно быть от 1 до 128 символов. Попробуйте ещё раз:"}, nil
		}
		add.Title = input
		add.Step = StepGroupConfirm
		c.States.Set(actorID, add)
		return Prompt{
			Text: fmt.Sprintf(
				"Добавить группу «%s» (<code>%d</code>)?",
				format.EscapeHTML(add.Title), add.GroupID,
			),
			Buttons: confirmRow(CbGroupAddConfirm, CbGroupAddCancel),
		}, nil
	}
	return Expired, nil
}

// HandleRemoveText validates the entered ID and asks for confirmation.
func (c *GroupController) HandleRemoveText(actorID int64, text string) (Prompt, error) {
	flow, ok := c.States.Get(actorID)
	if !ok {
		return Expired, nil
	}
	rem, ok := flow.(RemoveGroup)
	if !ok || rem.Confirming {
		return Expired, nil
	}

	groupID, err := strconv.ParseInt(trimmed(text), 10, 64)
	if err != nil || groupID == 0 {
		return Prompt{Text: "⚠️ Введите корректный числовой ID группы:"}, nil
	}
	g, exists, err := c.Groups.ByID(groupID)
	if err != nil {
		return Prompt{}, err
	}
	if !exists {
		return Prompt{Text: "⚠️ Такая группа не зарегистрирована. Введите другой ID:"}, nil
	}

	c.States.Set(actorID, RemoveGroup{Confirming: true, GroupID: groupID, Title: g.Title})
	return Prompt{
		Text: fmt.Sprintf(
			"Удалить группу «%s» (<code>%d</code>)?",
			format.EscapeHTML(g.Title), groupID,
		),
		Buttons: confirmRow(CbGroupRemoveConfirm, CbGroupRemoveCancel),
	}, nil
}

// ConfirmAdd registers the pending group as manually added.
func (c *GroupController) ConfirmAdd(actorID int64) (Prompt, error) {
	flow, ok := c.States.Get(actorID)
	if !ok {
		return Expired, nil
	}
	add, ok := flow.(AddGroup)
	if !ok || add.Step != StepGroupConfirm {
		return Expired, nil
	}
	c.States.Clear(actorID)

	err := c.Groups.Add(store.Group{
		ID:            add.GroupID,
		Title:         add.Title,
		AddedAt:       time.Now().UTC(),
		AddedManually: true,
	})
	switch {
	case err == nil:
		return Prompt{Text: fmt.Sprintf("✅ Группа «%s» добавлена.", format.EscapeHTML(add.Title))}, nil
	case errors.Is(err, store.ErrGroupExists):
		return Prompt{Text: "⚠️ Эта группа уже зарегистрирована."}, nil
	default:
		return Prompt{}, err
	}
}

// ConfirmRemove unregisters the pending group.
func (c *GroupController) ConfirmRemove(actorID int64) (Prompt, error) {
	flow, ok := c.States.Get(actorID)
	if !ok {
		return Expired, nil
	}
	rem, ok := flow.(RemoveGroup)
	if !ok || !rem.Confirming {
		return Expired, nil
	}
	c.States.Clear(actorID)

	err := c.Groups.Remove(rem.GroupID)
	switch {
	case err == nil:
		return Prompt{Text: fmt.Sprintf("✅ Группа «%s» удалена.", format.EscapeHTML(rem.Title))}, nil
	case errors.Is(err, store.ErrGroupNotFound):
		return Prompt{Text: "⚠️ Такая группа не зарегистрирована."}, nil
	default:
		return Prompt{}, err
	}
}

// Cancel drops whichever group dialog is active.
func (c *GroupController) Cancel(actorID int64) Prompt {
	c.States.Clear(actorID)
	return Prompt{Text: "❌ Действие отменено."}
}
