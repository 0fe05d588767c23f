package model

import (
	"sync"
	"time"

	"github.com/upnpforge/upnpstack/types"
)

// HostSubscriptionState is the host-side subscription lifecycle (spec §4.5
// "State machine: Subscription (host side)").
type HostSubscriptionState int

const (
	HostSubscriptionActive HostSubscriptionState = iota
	HostSubscriptionExpired
	HostSubscriptionRemoved
)

// HostSubscription is one host-side GENA subscriber: a SID, its callback
// URLs, an expiry deadline and a FIFO of pending notify bodies.
type HostSubscription struct {
	SID          types.SID
	CallbackURLs []string
	Service      *Service

	mu           sync.Mutex
	state        HostSubscriptionState
	timeout      types.Timeout
	expiresAt    time.Time
	seq          uint32
	queue        [][]byte
	draining     bool
	lastDelivery time.Time
}

func NewHostSubscription(sid types.SID, callbackURLs []string, svc *Service, timeout types.Timeout) *HostSubscription {
	return &HostSubscription{
		SID:          sid,
		CallbackURLs: callbackURLs,
		Service:      svc,
		state:        HostSubscriptionActive,
		timeout:      timeout,
		expiresAt:    time.Now().Add(timeout.Duration()),
	}
}

func (s *HostSubscription) State() HostSubscriptionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsExpired reports whether the deadline has passed; this does not itself
// transition state — the renewal sweep does that.
func (s *HostSubscription) IsExpired(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.After(s.expiresAt)
}

func (s *HostSubscription) Renew(timeout types.Timeout) {
	s.mu.Lock()
	s.timeout = timeout
	s.expiresAt = time.Now().Add(timeout.Duration())
	s.state = HostSubscriptionActive
	s.mu.Unlock()
}

func (s *HostSubscription) Expire() {
	s.mu.Lock()
	s.state = HostSubscriptionExpired
	s.mu.Unlock()
}

func (s *HostSubscription) Remove() {
	s.mu.Lock()
	s.state = HostSubscriptionRemoved
	s.mu.Unlock()
}

func (s *HostSubscription) Timeout() types.Timeout {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeout
}

// NextSEQ returns the sequence number for the next outbound NOTIFY and
// advances the counter, wrapping to 0 per UDA §4.2.
func (s *HostSubscription) NextSEQ() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq := s.seq
	if s.seq == ^uint32(0) {
		s.seq = 0
	} else {
		s.seq++
	}
	return seq
}

// Enqueue appends a rendered NOTIFY body to the delivery FIFO and reports
// whether the caller must start a drain loop: true only when no drain is
// currently running for this subscription. A caller that gets false can
// rely on the already-running drain to pick its body up in order, keeping
// exactly one delivery in flight per subscription at a time (spec §5 SEQ
// ordering).
func (s *HostSubscription) Enqueue(body []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, body)
	if s.draining {
		return false
	}
	s.draining = true
	return true
}

// Dequeue pops the oldest pending body, if any. When the queue empties it
// clears the draining flag so the next Enqueue starts a fresh drain.
func (s *HostSubscription) Dequeue() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		s.draining = false
		return nil, false
	}
	body := s.queue[0]
	s.queue = s.queue[1:]
	return body, true
}

func (s *HostSubscription) MarkDelivered() {
	s.mu.Lock()
	s.lastDelivery = time.Now()
	s.mu.Unlock()
}

// ClientSubscriptionState is the control-point-side subscription lifecycle
// (spec §4.5 "State machine: Subscription (CP side)").
type ClientSubscriptionState int

const (
	ClientUnsubscribed ClientSubscriptionState = iota
	ClientSubscribing
	ClientSubscribed
	ClientRenewing
	ClientFailed
)

func (st ClientSubscriptionState) String() string {
	switch st {
	case ClientUnsubscribed:
		return "unsubscribed"
	case ClientSubscribing:
		return "subscribing"
	case ClientSubscribed:
		return "subscribed"
	case ClientRenewing:
		return "renewing"
	case ClientFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ClientSubscription is one control-point-side subscription: the SID
// assigned by the remote host, the service it is eventing for, the random
// callback path this CP listens on, and the expected next SEQ.
type ClientSubscription struct {
	Service      *Service
	CallbackPath string

	mu          sync.Mutex
	state       ClientSubscriptionState
	sid         types.SID
	timeout     types.Timeout
	renewAt     time.Time
	expectedSEQ uint32
	failedAt    time.Time
}

func NewClientSubscription(svc *Service, callbackPath string) *ClientSubscription {
	return &ClientSubscription{
		Service:      svc,
		CallbackPath: callbackPath,
		state:        ClientUnsubscribed,
	}
}

func (c *ClientSubscription) State() ClientSubscriptionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *ClientSubscription) SID() types.SID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sid
}

func (c *ClientSubscription) BeginSubscribing() {
	c.mu.Lock()
	c.state = ClientSubscribing
	c.mu.Unlock()
}

// MarkSubscribed records a successful SUBSCRIBE/renewal response.
func (c *ClientSubscription) MarkSubscribed(sid types.SID, timeout types.Timeout) {
	c.mu.Lock()
	c.sid = sid
	c.timeout = timeout
	c.renewAt = time.Now().Add(timeout.Duration() / 2)
	c.expectedSEQ = 0
	c.state = ClientSubscribed
	c.mu.Unlock()
}

func (c *ClientSubscription) BeginRenewing() {
	c.mu.Lock()
	c.state = ClientRenewing
	c.mu.Unlock()
}

func (c *ClientSubscription) MarkFailed() {
	c.mu.Lock()
	c.state = ClientFailed
	c.failedAt = time.Now()
	c.mu.Unlock()
}

// ShouldRetry reports whether a Failed subscription has waited out its
// 30 s retry backoff (spec §4.5).
func (c *ClientSubscription) ShouldRetry(now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == ClientFailed && now.Sub(c.failedAt) >= 30*time.Second
}

func (c *ClientSubscription) DueForRenewal(now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == ClientSubscribed && now.After(c.renewAt)
}

// CheckSEQ validates an incoming NOTIFY's SEQ against the expected value.
// On match it advances the expectation and returns true; on mismatch it
// returns false, signalling the caller to resubscribe (spec §4.5).
func (c *ClientSubscription) CheckSEQ(seq uint32) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.expectedSEQ {
		return false
	}
	if c.expectedSEQ == ^uint32(0) {
		c.expectedSEQ = 0
	} else {
		c.expectedSEQ++
	}
	return true
}
