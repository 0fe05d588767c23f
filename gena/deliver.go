package gena

import (
	"bytes"
	"net/http"
	"time"

	"github.com/upnpforge/upnpstack/model"
)

// HTTPDeliverer builds a Registry deliver callback that sends one NOTIFY
// request per queued body to the subscription's first callback URL,
// trying the next URL only if the GENA spec allows — UDA requires callers
// to provide at least one callback URL, and a host is permitted to pick
// any one of them, so it keeps using the first that accepts the request.
type HTTPDeliverer struct {
	Client *http.Client
}

func NewHTTPDeliverer() *HTTPDeliverer {
	return &HTTPDeliverer{Client: &http.Client{Timeout: 5 * time.Second}}
}

func (d *HTTPDeliverer) Deliver(sub *model.HostSubscription, seq uint32, body []byte) {
	if len(sub.CallbackURLs) == 0 {
		return
	}
	headers := NotifyHeaders(sub, seq)
	for _, url := range sub.CallbackURLs {
		req, err := http.NewRequest("NOTIFY", url, bytes.NewReader(body))
		if err != nil {
			continue
		}
		req.Header.Set("Content-Type", `text/xml; charset="utf-8"`)
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		resp, err := d.Client.Do(req)
		if err != nil {
			log.Warnf("NOTIFY to %s failed: %v", url, err)
			continue
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			return
		}
		log.Warnf("NOTIFY to %s: %s", url, resp.Status)
	}
}
