package model

import "testing"

func TestSetValueFiresListenerOnChange(t *testing.T) {
	sv := NewStateVariable("Volume", TypeUI1, EventingUnicastOnly)
	sv.SetRange(uint64(0), uint64(100), nil)

	var fired int
	sv.OnChange(func(_ *StateVariable, old, new interface{}) {
		fired++
	})

	if err := sv.SetValue(uint64(50)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fired != 1 {
		t.Errorf("expected listener to fire once, got %d", fired)
	}

	// setting the same value again should not re-fire
	if err := sv.SetValue(uint64(50)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fired != 1 {
		t.Errorf("expected listener to still have fired once, got %d", fired)
	}
}

func TestSetValueOutOfRangeRejected(t *testing.T) {
	sv := NewStateVariable("Volume", TypeUI1, EventingNone)
	sv.SetRange(uint64(0), uint64(100), nil)
	if err := sv.SetValue(uint64(200)); err == nil {
		t.Error("expected error for out-of-range value")
	}
}

func TestSetValueNotAllowedRejected(t *testing.T) {
	sv := NewStateVariable("TransportState", TypeString, EventingUnicastOnly)
	sv.SetAllowedValues("PLAYING", "PAUSED", "STOPPED")
	if err := sv.SetValue("REWINDING"); err == nil {
		t.Error("expected error for disallowed value")
	}
	if err := sv.SetValue("PLAYING"); err != nil {
		t.Errorf("unexpected error for allowed value: %v", err)
	}
}

func TestImmutableRejectsSetValue(t *testing.T) {
	sv := NewStateVariable("Volume", TypeUI1, EventingUnicastOnly)
	sv.SetImmutable()
	if err := sv.SetValue(uint64(10)); err == nil {
		t.Error("expected error setting value on immutable state variable")
	}
}

func TestApplyRemoteValueBypassesImmutable(t *testing.T) {
	sv := NewStateVariable("Volume", TypeUI1, EventingUnicastOnly)
	sv.SetImmutable()
	if err := sv.ApplyRemoteValue(uint64(10)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v := sv.Value(); v != uint64(10) {
		t.Errorf("got %v, want 10", v)
	}
}
