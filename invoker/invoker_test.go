package invoker

import (
	"testing"

	"github.com/upnpforge/upnpstack/model"
)

func TestSizeClampsToOne(t *testing.T) {
	if Size(0) != 1 {
		t.Errorf("Size(0) = %d, want 1", Size(0))
	}
	if Size(3) != 1 {
		t.Errorf("Size(3) = %d, want 1", Size(3))
	}
	if Size(8) != 2 {
		t.Errorf("Size(8) = %d, want 2", Size(8))
	}
}

func testAction(t *testing.T) *model.Action {
	t.Helper()
	a := model.NewAction("GetTarget")
	a.SetInvoker(func(in model.ArgumentValues) (model.ArgumentValues, error) {
		return model.ArgumentValues{"RetTargetValue": in["echo"]}, nil
	})
	return a
}

func TestPoolInvokeRunsAction(t *testing.T) {
	pool := NewPool(2)
	defer pool.Stop()

	out, err := pool.Invoke(testAction(t), model.ArgumentValues{"echo": "hi"})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if out["RetTargetValue"] != "hi" {
		t.Errorf("got %+v", out)
	}
}

func TestPoolInvokeAsync(t *testing.T) {
	pool := NewPool(1)
	defer pool.Stop()

	done := make(chan model.ArgumentValues, 1)
	pool.InvokeAsync(testAction(t), model.ArgumentValues{"echo": "async"}, func(out model.ArgumentValues, err error) {
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		done <- out
	})
	out := <-done
	if out["RetTargetValue"] != "async" {
		t.Errorf("got %+v", out)
	}
}
