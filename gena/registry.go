package gena

import (
	"fmt"
	"sync"
	"time"

	"github.com/upnpforge/upnpstack/logging"
	"github.com/upnpforge/upnpstack/model"
	"github.com/upnpforge/upnpstack/types"
)

var log = logging.New("gena")

// DefaultTimeout is used when a SUBSCRIBE request omits TIMEOUT.
const DefaultTimeout = types.Timeout(1800)

// Registry is the host-side subscription table: a primary by-SID map plus
// a by-service multimap for fan-out on state changes. It never nests its
// lock inside a Device or Service lock (spec §5).
type Registry struct {
	mu        sync.Mutex
	bySID     map[types.SID]*model.HostSubscription
	byService map[*model.Service][]*model.HostSubscription
	deliver   func(sub *model.HostSubscription, seq uint32, body []byte)
}

// NewRegistry builds an empty registry. deliver is invoked once per queued
// NOTIFY body, from a single serialized drain loop per subscription, with
// the SEQ that body was assigned at enqueue time.
func NewRegistry(deliver func(sub *model.HostSubscription, seq uint32, body []byte)) *Registry {
	return &Registry{
		bySID:     make(map[types.SID]*model.HostSubscription),
		byService: make(map[*model.Service][]*model.HostSubscription),
		deliver:   deliver,
	}
}

// Subscribe registers a new subscriber for svc and returns the created
// subscription carrying its minted SID. timeout is already clamped by the
// caller (types.ClampTimeout).
func (r *Registry) Subscribe(svc *model.Service, callbackURLs []string, timeout types.Timeout) *model.HostSubscription {
	sid := types.NewSID()
	sub := model.NewHostSubscription(sid, callbackURLs, svc, timeout)

	r.mu.Lock()
	r.bySID[sid] = sub
	r.byService[svc] = append(r.byService[svc], sub)
	r.mu.Unlock()

	r.sendInitialNotify(sub)
	return sub
}

// sendInitialNotify enqueues the SEQ=0 notify carrying every evented state
// variable (spec §3: "initial notify carries the full set of evented
// state variables").
func (r *Registry) sendInitialNotify(sub *model.HostSubscription) {
	body, err := EncodePropertySet(sub.Service.EventedStateVariables())
	if err != nil {
		log.Errorf("building initial notify for %s: %v", sub.SID, err)
		return
	}
	seq := sub.NextSEQ() // consumes SEQ=0
	if sub.Enqueue(frameNotify(seq, body)) {
		go r.drain(sub)
	}
}

// Renew extends an existing subscription's lifetime. Returns false if the
// SID is unknown, signalling the caller to reply 412.
func (r *Registry) Renew(sid types.SID, timeout types.Timeout) bool {
	r.mu.Lock()
	sub, ok := r.bySID[sid]
	r.mu.Unlock()
	if !ok || sub.State() != model.HostSubscriptionActive {
		return false
	}
	sub.Renew(timeout)
	return true
}

// Unsubscribe removes a subscription by SID. Returns false if unknown.
func (r *Registry) Unsubscribe(sid types.SID) bool {
	r.mu.Lock()
	sub, ok := r.bySID[sid]
	if ok {
		delete(r.bySID, sid)
		svcSubs := r.byService[sub.Service]
		for i, s := range svcSubs {
			if s == sub {
				r.byService[sub.Service] = append(svcSubs[:i], svcSubs[i+1:]...)
				break
			}
		}
	}
	r.mu.Unlock()
	if ok {
		sub.Remove()
	}
	return ok
}

// Lookup finds a subscription by SID, for renewal/unsubscribe validation.
func (r *Registry) Lookup(sid types.SID) (*model.HostSubscription, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.bySID[sid]
	return sub, ok
}

// NotifyChange enqueues a single-property NOTIFY to every active
// subscriber of sv's owning service, each gets its own SEQ.
func (r *Registry) NotifyChange(svc *model.Service, sv *model.StateVariable) {
	if !sv.IsEvented() {
		return
	}
	body, err := EncodePropertySet([]*model.StateVariable{sv})
	if err != nil {
		log.Errorf("building change notify: %v", err)
		return
	}

	r.mu.Lock()
	subs := append([]*model.HostSubscription(nil), r.byService[svc]...)
	r.mu.Unlock()

	for _, sub := range subs {
		if sub.State() != model.HostSubscriptionActive {
			continue
		}
		seq := sub.NextSEQ()
		if sub.Enqueue(frameNotify(seq, body)) {
			go r.drain(sub)
		}
	}
}

// drain is the single delivery loop for sub: it owns sub's "draining" flag
// (set by the Enqueue that spawned it) until the queue empties, so at most
// one deliver() call for this subscription is ever in flight, preserving
// SEQ order across concurrent Subscribe/NotifyChange callers (spec §5).
func (r *Registry) drain(sub *model.HostSubscription) {
	for {
		frame, ok := sub.Dequeue()
		if !ok {
			return
		}
		seq, body := unframeNotify(frame)
		r.deliver(sub, seq, body)
		sub.MarkDelivered()
	}
}

// Sweep expires subscriptions whose deadline has passed. Call
// periodically from the host's maintenance loop.
func (r *Registry) Sweep(now time.Time) {
	r.mu.Lock()
	var expired []*model.HostSubscription
	for sid, sub := range r.bySID {
		if sub.IsExpired(now) {
			expired = append(expired, sub)
			delete(r.bySID, sid)
			svcSubs := r.byService[sub.Service]
			for i, s := range svcSubs {
				if s == sub {
					r.byService[sub.Service] = append(svcSubs[:i], svcSubs[i+1:]...)
					break
				}
			}
		}
	}
	r.mu.Unlock()
	for _, sub := range expired {
		sub.Expire()
		log.Infof("subscription %s expired", sub.SID)
	}
}

// NotifyHeaders renders the NT/NTS/SID/SEQ headers for one NOTIFY delivery.
func NotifyHeaders(sub *model.HostSubscription, seq uint32) map[string]string {
	return map[string]string{
		"NT":  "upnp:event",
		"NTS": "upnp:propchange",
		"SID": string(sub.SID),
		"SEQ": fmt.Sprintf("%d", seq),
	}
}
