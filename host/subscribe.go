package host

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/upnpforge/upnpstack/gena"
	"github.com/upnpforge/upnpstack/model"
	"github.com/upnpforge/upnpstack/types"
)

// unboundedTimeout is forced on a subscription to a service with no
// evented state variables, per spec §4.4's lenient-interop carve-out.
const unboundedTimeout = types.Timeout(24 * 60 * 60)

var callbackPattern = regexp.MustCompile(`<([^>]+)>`)

// subscribeHandler implements both the initial SUBSCRIBE and the renewal
// form (spec §4.4 "Subscribe handler").
func (h *Host) subscribeHandler(svc *model.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sidHeader := r.Header.Get("SID"); sidHeader != "" {
			h.renewSubscription(w, r, sidHeader)
			return
		}
		h.createSubscription(w, r, svc)
	}
}

func (h *Host) createSubscription(w http.ResponseWriter, r *http.Request, svc *model.Service) {
	if r.Header.Get("NT") != "upnp:event" {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	callbacks := parseCallbacks(r.Header.Get("CALLBACK"))
	if len(callbacks) == 0 {
		http.Error(w, "missing CALLBACK", http.StatusBadRequest)
		return
	}

	timeout := requestedTimeout(r.Header.Get("TIMEOUT"))
	if !svc.IsEvented() {
		timeout = unboundedTimeout
	}

	sub := h.registry.Subscribe(svc, callbacks, timeout)

	h.serverHeader(w)
	w.Header().Set("SID", string(sub.SID))
	w.Header().Set("TIMEOUT", sub.Timeout().GENAHeader())
	w.WriteHeader(http.StatusOK)
}

func (h *Host) renewSubscription(w http.ResponseWriter, r *http.Request, sidHeader string) {
	sid, err := types.ParseSID(sidHeader)
	if err != nil {
		w.WriteHeader(http.StatusPreconditionFailed)
		return
	}
	timeout := requestedTimeout(r.Header.Get("TIMEOUT"))

	if !h.registry.Renew(sid, timeout) {
		w.WriteHeader(http.StatusPreconditionFailed)
		return
	}
	sub, _ := h.registry.Lookup(sid)

	h.serverHeader(w)
	w.Header().Set("SID", string(sid))
	w.Header().Set("TIMEOUT", sub.Timeout().GENAHeader())
	w.WriteHeader(http.StatusOK)
}

// unsubscribeHandler removes a subscription by SID (spec §4.4 "Unsubscribe
// handler").
func (h *Host) unsubscribeHandler(svc *model.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, err := types.ParseSID(r.Header.Get("SID"))
		if err != nil {
			w.WriteHeader(http.StatusPreconditionFailed)
			return
		}
		if !h.registry.Unsubscribe(sid) {
			w.WriteHeader(http.StatusPreconditionFailed)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func parseCallbacks(header string) []string {
	matches := callbackPattern.FindAllStringSubmatch(header, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.TrimSpace(m[1]))
	}
	return out
}

// requestedTimeout parses TIMEOUT: Second-<n>|Second-infinite, defaulting
// to gena.DefaultTimeout when absent or unparseable.
func requestedTimeout(header string) types.Timeout {
	header = strings.TrimSpace(header)
	if header == "" {
		return gena.DefaultTimeout
	}
	t, err := types.ParseGENATimeout(header)
	if err != nil {
		return gena.DefaultTimeout
	}
	return t
}
