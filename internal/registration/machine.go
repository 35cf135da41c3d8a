// Package registration collects a participant's profile over four messages
// (surname, name, address, phone) before any ticket can be issued.
package registration

import (
	"strings"

	"github.com/m3rciful/ticketbot/core/telegram/state"
)

// Steps of the dialogue. StepNone means no registration is running.
const (
	StepNone     state.State = state.StateIdle
	StepSurname  state.State = "registration.surname"
	StepName     state.State = "registration.name"
	StepAddress  state.State = "registration.address"
	StepPhone    state.State = "registration.phone"
	StepComplete state.State = "registration.complete"
)

// StatePrefix matches every in-progress step.
const StatePrefix = "registration."

// CancelCommand aborts the dialogue at any step.
const CancelCommand = "/cancel"

// Prompts shown when a step becomes current. Markdown (legacy) formatting.
var Prompts = map[state.State]string{
	StepSurname: "👤 Введите вашу *фамилию*:",
	StepName:    "👤 Введите ваше *имя*:",
	StepAddress: "📍 Введите ваш *адрес* (Город, район, улица, номер квартиры):",
	StepPhone:   "📞 Введите ваш *номер телефона*: (например, 87771234567)",
}

// Rejection reasons.
const (
	ReasonBlank    = "blank"
	ReasonCommand  = "command"
	ReasonNotStart = "not_started"
)

// State is the registration progress for one user.
type State struct {
	Step    state.State
	Surname string
	Name    string
	Address string
	Phone   string
}

// Effect tells the caller what to do after a transition.
type Effect struct {
	// Prompt is the text to send next; empty on completion or cancel.
	Prompt    string
	Completed bool
	Cancelled bool
	// Rejected input leaves the state unchanged; Reason says why.
	Rejected bool
	Reason   string
}

// Begin returns the first step of a fresh registration.
func Begin() (State, Effect) {
	return State{Step: StepSurname}, Effect{Prompt: Prompts[StepSurname]}
}

// Transition applies one user message to st. It is pure: storage happens
// in Flow.
func Transition(st State, input string) (State, Effect) {
	if !inProgress(st.Step) {
		return st, Effect{Rejected: true, Reason: ReasonNotStart}
	}
	text := strings.TrimSpace(input)
	switch {
	case strings.EqualFold(text, CancelCommand):
		return State{Step: StepNone}, Effect{Cancelled: true}
	case text == "":
		return st, Effect{Prompt: Prompts[st.Step], Rejected: true, Reason: ReasonBlank}
	case strings.HasPrefix(text, "/"):
		return st, Effect{Prompt: Prompts[st.Step], Rejected: true, Reason: ReasonCommand}
	}

	next := st
	switch st.Step {
	case StepSurname:
		next.Surname, next.Step = text, StepName
	case StepName:
		next.Name, next.Step = text, StepAddress
	case StepAddress:
		next.Address, next.Step = text, StepPhone
	case StepPhone:
		next.Phone, next.Step = text, StepComplete
		return next, Effect{Completed: true}
	}
	return next, Effect{Prompt: Prompts[next.Step]}
}

func inProgress(step state.State) bool {
	switch step {
	case StepSurname, StepName, StepAddress, StepPhone:
		return true
	}
	return false
}

const (
	keySurname = "surname"
	keyName    = "name"
	keyAddress = "address"
)

func fromSession(s state.Session) State {
	return State{
		Step:    s.State,
		Surname: s.Value(keySurname),
		Name:    s.Value(keyName),
		Address: s.Value(keyAddress),
	}
}

func toSession(userID int64, st State) state.Session {
	return state.Session{
		UserID: userID,
		State:  st.Step,
		Data: map[string]string{
			keySurname: st.Surname,
			keyName:    st.Name,
			keyAddress: st.Address,
		},
	}
}
