package registration

import "testing"

func TestTransitionHappyPath(t *testing.T) {
	st, eff := Begin()
	if st.Step != StepSurname || eff.Prompt != Prompts[StepSurname] {
		t.Fatalf("begin = %+v %+v", st, eff)
	}

	inputs := []struct {
		text string
		next string
	}{
		{"Ivanov", string(StepName)},
		{"Ivan", string(StepAddress)},
		{"City X, St 1", string(StepPhone)},
		{"8 700 000 00 00", string(StepComplete)},
	}
	for _, in := range inputs {
		st, eff = Transition(st, in.text)
		if string(st.Step) != in.next {
			t.Fatalf("after %q step = %s, want %s", in.text, st.Step, in.next)
		}
		if eff.Rejected || eff.Cancelled {
			t.Fatalf("unexpected effect %+v", eff)
		}
	}
	if !eff.Completed || eff.Prompt != "" {
		t.Fatalf("final effect = %+v", eff)
	}
	want := State{Step: StepComplete, Surname: "Ivanov", Name: "Ivan", Address: "City X, St 1", Phone: "8 700 000 00 00"}
	if st != want {
		t.Fatalf("state = %+v, want %+v", st, want)
	}
}

func TestTransitionInputPolicy(t *testing.T) {
	start := State{Step: StepName, Surname: "Ivanov"}
	cases := []struct {
		name   string
		input  string
		reason string
	}{
		{"blank", "   ", ReasonBlank},
		{"empty", "", ReasonBlank},
		{"command", "/start", ReasonCommand},
		{"unknown command", "/tickets", ReasonCommand},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st, eff := Transition(start, tc.input)
			if st != start {
				t.Fatalf("state changed to %+v", st)
			}
			if !eff.Rejected || eff.Reason != tc.reason {
				t.Fatalf("effect = %+v", eff)
			}
			if eff.Prompt != Prompts[StepName] {
				t.Fatalf("prompt = %q, want the same step again", eff.Prompt)
			}
		})
	}
}

func TestTransitionTrimsInput(t *testing.T) {
	st, _ := Transition(State{Step: StepSurname}, "  Ivanov \n")
	if st.Surname != "Ivanov" {
		t.Fatalf("surname = %q", st.Surname)
	}
}

func TestTransitionCancel(t *testing.T) {
	st, eff := Transition(State{Step: StepAddress, Surname: "A", Name: "B"}, " /Cancel ")
	if !eff.Cancelled || st.Step != StepNone || st.Surname != "" {
		t.Fatalf("cancel = %+v %+v", st, eff)
	}
}

func TestTransitionOutsideRegistration(t *testing.T) {
	for _, step := range []State{{Step: StepNone}, {Step: StepComplete}, {Step: "admin.add.id"}} {
		st, eff := Transition(step, "Ivanov")
		if !eff.Rejected || eff.Reason != ReasonNotStart || st != step {
			t.Fatalf("step %s: %+v %+v", step.Step, st, eff)
		}
	}
}
