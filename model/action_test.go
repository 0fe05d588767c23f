package model

import "testing"

func TestRetvalMustBeFirstOutArg(t *testing.T) {
	a := NewAction("GetStatus")
	sv := NewStateVariable("Status", TypeString, EventingNone)

	first := NewActionArgument("First", ArgOut, sv)
	if err := a.AddOutputArgument(first, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	retval := NewActionArgument("Result", ArgOut, sv)
	if err := a.AddOutputArgument(retval, true); err == nil {
		t.Error("expected error: retval must be the first out argument")
	}
}

func TestRetvalFlagSetWhenFirst(t *testing.T) {
	a := NewAction("GetStatus")
	sv := NewStateVariable("Status", TypeString, EventingNone)
	retval := NewActionArgument("Result", ArgOut, sv)
	if err := a.AddOutputArgument(retval, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !a.HasRetval() {
		t.Error("expected HasRetval() to be true")
	}
	if !retval.IsRetval() {
		t.Error("expected argument IsRetval() to be true")
	}
}

func TestRejectsWrongDirectionArgument(t *testing.T) {
	a := NewAction("SetStatus")
	sv := NewStateVariable("Status", TypeString, EventingNone)
	arg := NewActionArgument("Status", ArgOut, sv)
	if err := a.AddInputArgument(arg); err == nil {
		t.Error("expected error adding an out-direction argument as input")
	}
}

func TestInvokeWithoutInvokerFails(t *testing.T) {
	a := NewAction("Noop")
	if _, err := a.Invoke(nil); err == nil {
		t.Error("expected error invoking action with no registered invoker")
	}
}

func TestInvokeRunsRegisteredCallable(t *testing.T) {
	a := NewAction("Echo")
	a.SetInvoker(func(in ArgumentValues) (ArgumentValues, error) {
		return ArgumentValues{"Out": in["In"]}, nil
	})
	out, err := a.Invoke(ArgumentValues{"In": "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["Out"] != "hello" {
		t.Errorf("got %v, want %q", out["Out"], "hello")
	}
}
