package flows

import (
	"fmt"
	"time"

	"announcebot/core/telegram/format"
	"announcebot/core/telegram/state"
	"announcebot/store"
)

// RegisterStep enumerates the questionnaire steps.
type RegisterStep int

const (
	// StepLastName waits for the user's last name.
	StepLastName RegisterStep = iota
	// StepFirstName waits for the user's first name.
	StepFirstName
	// StepPatronymic waits for the user's patronymic.
	StepPatronymic
	// StepSubject waits for the user's subject.
	StepSubject
	// StepConfirmRegistration waits for the confirm/cancel callback.
	StepConfirmRegistration
)

// Register is the state of an in-flight registration questionnaire.
type Register struct {
	Step       RegisterStep
	LastName   string
	FirstName  string
	Patronymic string
	Subject    string
}

// FlowName implements state.FlowState.
func (Register) FlowName() string { return "register" }

const (
	maxNameLen    = 50
	maxSubjectLen = 100
)

// AdminList supplies the chat IDs to notify about new registrations.
type AdminList interface {
	List() []int64
}

// RegisterController drives the registration questionnaire.
type RegisterController struct {
	Users  store.UserStore
	Admins AdminList
	States *state.Manager
}

// Start opens the questionnaire unless the user is already registered.
func (c *RegisterController) Start(userID int64) (Prompt, error) {
	u, ok, err := c.Users.ByID(userID)
	if err != nil {
		return Prompt{}, err
	}
	if ok {
		switch u.Status {
		case store.StatusApproved:
			return Prompt{Text: "✅ Вы уже зарегистрированы и одобрены."}, nil
		case store.StatusPending:
			return Prompt{Text: "⏳ Ваша заявка уже отправлена и ожидает рассмотрения."}, nil
		default:
			return Prompt{Text: "❌ Ваша заявка была отклонена. Обратитесь к администратору."}, nil
		}
	}

	c.States.Set(userID, Register{Step: StepLastName})
	return Prompt{Text: "📝 Шаг 1 из 4\n\nВведите вашу фамилию:"}, nil
}

// HandleText consumes one answer and either re-prompts on invalid input
// or advances to the next step.
func (c *RegisterController) HandleText(userID int64, text string) (Prompt, error) {
	flow, ok := c.States.Get(userID)
	if !ok {
		return Expired, nil
	}
	reg, ok := flow.(Register)
	if !ok {
		return Expired, nil
	}

	input := trimmed(text)
	switch reg.Step {
	case StepLastName:
		if !validLength(input, maxNameLen) {
			return Prompt{Text: "⚠️ Фамилия должна быть от 1 до 50 символов. Попробуйте ещё раз:"}, nil
		}
		reg.LastName = input
		reg.Step = StepFirstName
		c.States.Set(userID, reg)
		return Prompt{Text: "📝 Шаг 2 из 4\n\nВведите ваше имя:"}, nil

	case StepFirstName:
		if !validLength(input, maxNameLen) {
			return Prompt{Text: "⚠️ Имя должно быть от 1 до 50 символов. Попробуйте ещё раз:"}, nil
		}
		reg.FirstName = input
		reg.Step = StepPatronymic
		c.States.Set(userID, reg)
		return Prompt{Text: "📝 Шаг 3 из 4\n\nВведите ваше отчество:"}, nil

	case StepPatronymic:
		if !validLength(input, maxNameLen) {
			return Prompt{Text: "⚠️ Отчество должно быть от 1 до 50 символов. Попробуйте ещё раз:"}, nil
		}
		reg.Patronymic = input
		reg.Step = StepSubject
		c.States.Set(userID, reg)
		return Prompt{Text: "📝 Шаг 4 из 4\n\nВведите ваш предмет:"}, nil

	case StepSubject:
		if !validLength(input, maxSubjectLen) {
			return Prompt{Text: "⚠️ Предмет должен быть от 1 до 100 символов. Попробуйте ещё раз:"}, nil
		}
		reg.Subject = input
		reg.Step = StepConfirmRegistration
		c.States.Set(userID, reg)
		return Prompt{
			Text: fmt.Sprintf(
				"📋 <b>Проверьте данные:</b>\n\n"+
					"Фамилия: %s\nИмя: %s\nОтчество: %s\nПредмет: %s\n\nВсё верно?",
				format.EscapeHTML(reg.LastName),
				format.EscapeHTML(reg.FirstName),
				format.EscapeHTML(reg.Patronymic),
				format.EscapeHTML(reg.Subject),
			),
			Buttons: [][]Button{{
				{Text: "✅ Да, всё верно", Unique: CbRegisterConfirm},
				{Text: "❌ Отмена", Unique: CbRegisterCancel},
			}},
		}, nil
	}
	return Expired, nil
}

// Confirm stores the pending user and returns the notifications to fan
// out to every admin.
func (c *RegisterController) Confirm(userID int64) (Prompt, []Notification, error) {
	flow, ok := c.States.Get(userID)
	if !ok {
		return Expired, nil, nil
	}
	reg, ok := flow.(Register)
	if !ok || reg.Step != StepConfirmRegistration {
		return Expired, nil, nil
	}

	user := store.User{
		ID:           userID,
		FirstName:    reg.FirstName,
		LastName:     reg.LastName,
		Patronymic:   reg.Patronymic,
		Subject:      reg.Subject,
		Status:       store.StatusPending,
		RegisteredAt: time.Now().UTC(),
	}
	if err := c.Users.Add(user); err != nil {
		if err == store.ErrUserExists {
			c.States.Clear(userID)
			return Prompt{Text: "⏳ Ваша заявка уже отправлена и ожидает рассмотрения."}, nil, nil
		}
		return Prompt{}, nil, err
	}
	c.States.Clear(userID)

	payload := fmt.Sprintf("%d", userID)
	text := fmt.Sprintf(
		"🆕 <b>Новая заявка на регистрацию</b>\n\n"+
			"ФИО: %s\nПредмет: %s\nID: <code>%d</code>",
		format.EscapeHTML(user.FullName()),
		format.EscapeHTML(user.Subject),
		userID,
	)
	var notes []Notification
	for _, adminID := range c.Admins.List() {
		notes = append(notes, Notification{
			ChatID: adminID,
			Text:   text,
			Buttons: [][]Button{{
				{Text: "✅ Одобрить", Unique: CbApproveUser, Data: payload},
				{Text: "❌ Отклонить", Unique: CbRejectUser, Data: payload},
			}},
		})
	}

	return Prompt{Text: "✅ Заявка отправлена! Ожидайте одобрения администратором."}, notes, nil
}

// Cancel drops the questionnaire.
func (c *RegisterController) Cancel(userID int64) Prompt {
	c.States.Clear(userID)
	return Prompt{Text: "❌ Регистрация отменена."}
}
