package host

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/upnpforge/upnpstack/model"
)

// buildRouter wires every path/verb named in spec §4.4: the root
// description for every UDN in the tree, each service's SCPD, control and
// eventing endpoints, and a 405 for anything else (chi's default
// MethodNotAllowedHandler).
func (h *Host) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(h.requireInitialized)

	descHandler := h.descriptionHandler()
	h.Device.Walk(func(d *model.Device) {
		path := "/" + d.UDN().String() + "/device_description.xml"
		r.Get(path, descHandler)

		for _, svc := range d.Services() {
			svc := svc
			if svc.SCPDURL() != "" {
				r.Get(svc.SCPDURL(), h.scpdHandler(svc))
			}
			if svc.ControlURL() != "" {
				r.Post(svc.ControlURL(), h.controlHandler(svc))
			}
			if svc.EventSubURL() != "" {
				r.MethodFunc("SUBSCRIBE", svc.EventSubURL(), h.subscribeHandler(svc))
				r.MethodFunc("UNSUBSCRIBE", svc.EventSubURL(), h.unsubscribeHandler(svc))
			}
		}

		for _, icon := range d.Icons() {
			if icon.URL != "" {
				r.Get(icon.URL, h.iconHandler(icon))
			}
		}
	})

	return r
}

func (h *Host) requireInitialized(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.mu.Lock()
		ok := h.state == stateInitialized
		h.mu.Unlock()
		if !ok {
			w.Header().Set("Connection", "close")
			http.Error(w, "host not initialized", http.StatusInternalServerError)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Host) serverHeader(w http.ResponseWriter) {
	w.Header().Set("Server", h.productTokens.String())
}

// descriptionHandler renders the root description document, identical for
// every UDN registered in the tree (spec §4.4).
func (h *Host) descriptionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc := h.Device.ToDeviceDescriptionDocument()
		s, err := doc.WriteToString()
		if err != nil {
			http.Error(w, "failed to render description", http.StatusInternalServerError)
			return
		}
		h.serverHeader(w)
		w.Header().Set("Content-Type", `text/xml; charset="utf-8"`)
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, s)
	}
}

// iconHandler serves a pre-fetched icon's raw bytes (spec §4.4 "GET
// <iconUrl>"). An icon whose bytes couldn't be fetched at build time (a
// lenient build dropped them, keeping only its metadata) has nothing to
// serve, so this 404s rather than pretending the icon exists.
func (h *Host) iconHandler(icon *model.Icon) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(icon.Data) == 0 {
			http.Error(w, "icon unavailable", http.StatusNotFound)
			return
		}
		h.serverHeader(w)
		if icon.Mimetype != "" {
			w.Header().Set("Content-Type", icon.Mimetype)
		}
		w.WriteHeader(http.StatusOK)
		w.Write(icon.Data)
	}
}

func (h *Host) scpdHandler(svc *model.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc := svc.ToSCPDDocument()
		s, err := doc.WriteToString()
		if err != nil {
			http.Error(w, "failed to render SCPD", http.StatusInternalServerError)
			return
		}
		h.serverHeader(w)
		w.Header().Set("Content-Type", `text/xml; charset="utf-8"`)
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, s)
	}
}
