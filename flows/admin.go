package flows

import (
	"errors"
	"fmt"
	"strconv"

	"announcebot/admins"
	"announcebot/core/telegram/state"
)

// AddAdmin waits for a user ID to grant admin rights to.
type AddAdmin struct {
	Confirming bool
	TargetID   int64
}

// FlowName implements state.FlowState.
func (AddAdmin) FlowName() string { return "admin_add" }

// RemoveAdmin waits for a user ID to revoke admin rights from.
type RemoveAdmin struct {
	Confirming bool
	TargetID   int64
}

// FlowName implements state.FlowState.
func (RemoveAdmin) FlowName() string { return "admin_remove" }

// AdminController drives the add/remove admin dialogs on top of the
// registry, which enforces the set invariants.
type AdminController struct {
	Registry *admins.Registry
	States   *state.Manager
}

// StartAdd opens the grant dialog.
func (c *AdminController) StartAdd(actorID int64) Prompt {
	c.States.Set(actorID, AddAdmin{})
	return Prompt{Text: "👤 Введите ID пользователя, которого нужно сделать администратором:"}
}

// StartRemove opens the revoke dialog with the current set listed.
func (c *AdminController) StartRemove(actorID int64) Prompt {
	c.States.Set(actorID, RemoveAdmin{})
	text := "👥 Текущие администраторы:\n"
	for _, id := range c.Registry.List() {
		text += fmt.Sprintf("• <code>%d</code>\n", id)
	}
	text += "\nВведите ID администратора, которого нужно удалить:"
	return Prompt{Text: text}
}

// HandleAddText validates the entered ID and asks for confirmation.
func (c *AdminController) HandleAddText(actorID int64, text string) Prompt {
	flow, ok := c.States.Get(actorID)
	if !ok {
		return Expired
	}
	add, ok := flow.(AddAdmin)
	if !ok || add.Confirming {
		return Expired
	}

	targetID, err := strconv.ParseInt(trimmed(text), 10, 64)
	if err != nil || targetID <= 0 {
		return Prompt{Text: "⚠️ Введите корректный числовой ID пользователя:"}
	}
	if targetID == actorID {
		return Prompt{Text: "⚠️ Нельзя указать самого себя. Введите другой ID:"}
	}
	if c.Registry.IsAdmin(targetID) {
		return Prompt{Text: "⚠️ Этот пользователь уже администратор. Введите другой ID:"}
	}

	c.States.Set(actorID, AddAdmin{Confirming: true, TargetID: targetID})
	return Prompt{
		Text:    fmt.Sprintf("Сделать пользователя <code>%d</code> администратором?", targetID),
		Buttons: confirmRow(CbAdminAddConfirm, CbAdminAddCancel),
	}
}

// HandleRemoveText validates the entered ID and asks for confirmation.
func (c *AdminController) HandleRemoveText(actorID int64, text string) Prompt {
	flow, ok := c.States.Get(actorID)
	if !ok {
		return Expired
	}
	rem, ok := flow.(RemoveAdmin)
	if !ok || rem.Confirming {
		return Expired
	}

	targetID, err := strconv.ParseInt(trimmed(text), 10, 64)
	if err != nil || targetID <= 0 {
		return Prompt{Text: "⚠️ Введите корректный числовой ID пользователя:"}
	}
	if targetID == actorID {
		return Prompt{Text: "⚠️ Нельзя удалить самого себя. Введите другой ID:"}
	}
	if !c.Registry.IsAdmin(targetID) {
		return Prompt{Text: "⚠️ Этот пользователь не является администратором. Введите другой ID:"}
	}

	c.States.Set(actorID, RemoveAdmin{Confirming: true, TargetID: targetID})
	return Prompt{
		Text:    fmt.Sprintf("Удалить администратора <code>%d</code>?", targetID),
		Buttons: confirmRow(CbAdminRemoveConfirm, CbAdminRemoveCancel),
	}
}

// ConfirmAdd grants the pending target admin rights.
func (c *AdminController) ConfirmAdd(actorID int64) (Prompt, error) {
	flow, ok := c.States.Get(actorID)
	if !ok {
		return Expired, nil
	}
	add, ok := flow.(AddAdmin)
	if !ok || !add.Confirming {
		return Expired, nil
	}
	c.States.Clear(actorID)

	switch err := c.Registry.Add(actorID, add.TargetID); {
	case err == nil:
		return Prompt{Text: fmt.Sprintf("✅ Пользователь <code>%d</code> теперь администратор.", add.TargetID)}, nil
	case errors.Is(err, admins.ErrAlreadyAdmin):
		return Prompt{Text: "⚠️ Этот пользователь уже администратор."}, nil
	case errors.Is(err, admins.ErrSelfAction):
		return Prompt{Text: "⚠️ Нельзя указать самого себя."}, nil
	default:
		return Prompt{}, err
	}
}

// ConfirmRemove revokes the pending target's admin rights.
func (c *AdminController) ConfirmRemove(actorID int64) (Prompt, error) {
	flow, ok := c.States.Get(actorID)
	if !ok {
		return Expired, nil
	}
	rem, ok := flow.(RemoveAdmin)
	if !ok || !rem.Confirming {
		return Expired, nil
	}
	c.States.Clear(actorID)

	switch err := c.Registry.Remove(actorID, rem.TargetID); {
	case err == nil:
		return Prompt{Text: fmt.Sprintf("✅ Администратор <code>%d</code> удалён.", rem.TargetID)}, nil
	case errors.Is(err, admins.ErrLastAdmin):
		return Prompt{Text: "⚠️ Нельзя удалить последнего администратора."}, nil
	case errors.Is(err, admins.ErrNotAdmin):
		return Prompt{Text: "⚠️ Этот пользователь не является администратором."}, nil
	case errors.Is(err, admins.ErrSelfAction):
		return Prompt{Text: "⚠️ Нельзя удалить самого себя."}, nil
	default:
		return Prompt{}, err
	}
}

// Cancel drops whichever admin dialog is active.
func (c *AdminController) Cancel(actorID int64) Prompt {
	c.States.Clear(actorID)
	return Prompt{Text: "❌ Действие отменено."}
}
