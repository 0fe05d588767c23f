package gena

import (
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/upnpforge/upnpstack/model"
	"github.com/upnpforge/upnpstack/types"
)

// Manager is the control-point-side subscription table, keyed by the
// random callback path each subscription listens on (e.g.
// "/notify/<uuid>"), and dispatches incoming NOTIFY requests to the right
// ClientSubscription and Service.
type Manager struct {
	mu     sync.Mutex
	byPath map[string]*model.ClientSubscription

	// OnResubscribe is invoked (on its own goroutine) when a NOTIFY's SEQ
	// doesn't match expectations, signalling the caller to tear down and
	// resubscribe (spec §4.5).
	OnResubscribe func(sub *model.ClientSubscription)
}

func NewManager() *Manager {
	return &Manager{byPath: make(map[string]*model.ClientSubscription)}
}

func (m *Manager) Register(sub *model.ClientSubscription) {
	m.mu.Lock()
	m.byPath[sub.CallbackPath] = sub
	m.mu.Unlock()
}

func (m *Manager) Unregister(path string) {
	m.mu.Lock()
	delete(m.byPath, path)
	m.mu.Unlock()
}

// ServeHTTP handles incoming NOTIFY requests on whatever path they were
// registered under (mount with a prefix route, e.g. "/notify/").
func (m *Manager) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != "NOTIFY" {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	m.mu.Lock()
	sub, ok := m.byPath[r.URL.Path]
	m.mu.Unlock()
	if !ok {
		http.Error(w, "unknown callback path", http.StatusNotFound)
		return
	}

	sid, err := types.ParseSID(r.Header.Get("SID"))
	if err != nil || sid != sub.SID() {
		http.Error(w, "precondition failed", http.StatusPreconditionFailed)
		return
	}
	if r.Header.Get("NT") != "upnp:event" || r.Header.Get("NTS") != "upnp:propchange" {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	seqVal, err := strconv.ParseUint(r.Header.Get("SEQ"), 10, 32)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	seq := uint32(seqVal)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "cannot read body", http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusOK)

	if !sub.CheckSEQ(seq) {
		log.Warnf("SEQ mismatch on %s: resubscribing", r.URL.Path)
		if m.OnResubscribe != nil {
			go m.OnResubscribe(sub)
		}
		return
	}

	m.applyProperties(sub, body)
}

func (m *Manager) applyProperties(sub *model.ClientSubscription, body []byte) {
	props, err := DecodePropertySet(body)
	if err != nil {
		log.Warnf("decoding propertyset: %v", err)
		return
	}
	for _, p := range props {
		sv, ok := sub.Service.StateVariable(p.Name)
		if !ok {
			continue
		}
		cast, err := sv.DataType().Cast(p.Value)
		if err != nil {
			log.Warnf("casting event property %s=%q: %v", p.Name, p.Value, err)
			continue
		}
		if err := sv.ApplyRemoteValue(cast); err != nil {
			log.Warnf("applying event property %s: %v", p.Name, err)
		}
	}
}
