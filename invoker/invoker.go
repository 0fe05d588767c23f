// Package invoker runs UPnP action invocations against a device's actions
// on a small per-device worker pool, so a slow action can't block the
// control handler thread serving other requests.
package invoker

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/upnpforge/upnpstack/logging"
	"github.com/upnpforge/upnpstack/model"
)

var log = logging.New("invoker")

// Invocation is one queued action call: its inputs, and a channel the
// caller blocks on for the outputs.
type Invocation struct {
	ID     string
	Action *model.Action
	Inputs model.ArgumentValues

	done chan result
}

type result struct {
	outputs model.ArgumentValues
	err     error
}

// Pool runs queued Invocations on a fixed number of worker goroutines,
// sized to the device's action count (spec: a worker pool sized
// max(1, actionCount/4), so invocation concurrency scales with how much
// work a device typically exposes without spawning one goroutine per
// action).
type Pool struct {
	jobs   chan *Invocation
	wg     sync.WaitGroup
	stopCh chan struct{}
}

// Size computes the pool size for a device with actionCount actions.
func Size(actionCount int) int {
	n := actionCount / 4
	if n < 1 {
		n = 1
	}
	return n
}

// NewPool starts a pool of `workers` goroutines pulling from a queue that
// buffers up to 64 pending invocations; Invoke blocks while it is full.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{
		jobs:   make(chan *Invocation, 64),
		stopCh: make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopCh:
			return
		case inv := <-p.jobs:
			if inv == nil {
				continue
			}
			outputs, err := inv.Action.Invoke(inv.Inputs)
			inv.done <- result{outputs: outputs, err: err}
		}
	}
}

// Invoke queues action for invocation and blocks until it completes.
func (p *Pool) Invoke(action *model.Action, inputs model.ArgumentValues) (model.ArgumentValues, error) {
	inv := &Invocation{
		ID:     uuid.NewString(),
		Action: action,
		Inputs: inputs,
		done:   make(chan result, 1),
	}
	select {
	case p.jobs <- inv:
	case <-p.stopCh:
		return nil, fmt.Errorf("invoker: pool stopped")
	}
	r := <-inv.done
	return r.outputs, r.err
}

// InvokeAsync queues action for invocation without blocking the caller and
// calls cb with the result on a goroutine of its own (not a pool worker).
func (p *Pool) InvokeAsync(action *model.Action, inputs model.ArgumentValues, cb func(model.ArgumentValues, error)) {
	go func() {
		outputs, err := p.Invoke(action, inputs)
		cb(outputs, err)
	}()
}

// Stop signals all workers to exit and waits for in-flight invocations to
// finish their current action call before returning.
func (p *Pool) Stop() {
	close(p.stopCh)
	p.wg.Wait()
	log.Info("invocation pool stopped")
}
