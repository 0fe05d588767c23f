package control

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/upnpforge/upnpstack/gena"
	"github.com/upnpforge/upnpstack/model"
)

const subscribeTimeout = 10 * time.Second

// subscribeAll subscribes to every service in td's tree that declares an
// eventSubURL, registering each with the callback manager before issuing
// the SUBSCRIBE request so a fast initial NOTIFY is never missed.
func (c *ControlPoint) subscribeAll(td *trackedDevice) {
	baseURL := ""
	if locs := td.device.Locations(); len(locs) > 0 {
		baseURL = locs[0]
	}

	td.device.Walk(func(d *model.Device) {
		for _, svc := range d.Services() {
			if svc.EventSubURL() == "" {
				continue
			}
			c.subscribeOne(td, svc, baseURL)
		}
	})
}

func (c *ControlPoint) subscribeOne(td *trackedDevice, svc *model.Service, baseURL string) {
	fullURL, err := resolveAgainst(baseURL, svc.EventSubURL())
	if err != nil {
		c.log.Warnf("resolving eventSubURL %q: %v", svc.EventSubURL(), err)
		return
	}

	callbackPath := notifyPathPrefix + uuid.New().String()
	sub := model.NewClientSubscription(svc, callbackPath)
	c.manager.Register(sub)
	sub.BeginSubscribing()

	ctx, cancel := context.WithTimeout(context.Background(), subscribeTimeout)
	defer cancel()
	sid, timeout, err := c.client.Subscribe(ctx, fullURL, c.baseURL+callbackPath, gena.DefaultTimeout)
	if err != nil {
		c.log.Warnf("subscribing to %s: %v", fullURL, err)
		sub.MarkFailed()
		c.manager.Unregister(callbackPath)
		c.mu.Lock()
		td.subs = append(td.subs, &activeSubscription{sub: sub, url: fullURL})
		c.mu.Unlock()
		return
	}
	sub.MarkSubscribed(sid, timeout)

	c.mu.Lock()
	td.subs = append(td.subs, &activeSubscription{sub: sub, url: fullURL})
	c.mu.Unlock()
}

// unsubscribeAll tears down every live subscription for td, best effort.
func (c *ControlPoint) unsubscribeAll(td *trackedDevice) {
	c.mu.Lock()
	subs := append([]*activeSubscription(nil), td.subs...)
	td.subs = nil
	c.mu.Unlock()

	for _, as := range subs {
		c.manager.Unregister(as.sub.CallbackPath)
		if as.sub.State() != model.ClientSubscribed {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), subscribeTimeout)
		c.client.Unsubscribe(ctx, as.url, as.sub.SID())
		cancel()
	}
}

// resubscribeDevice tears down and re-establishes every subscription for
// td, used after a detected reboot (BOOTID change).
func (c *ControlPoint) resubscribeDevice(td *trackedDevice) {
	c.unsubscribeAll(td)
	c.subscribeAll(td)
}

// handleResubscribeSignal is the gena.Manager.OnResubscribe callback,
// fired when an incoming NOTIFY's SEQ doesn't match expectations. It
// re-subscribes just the one subscription rather than the whole device.
func (c *ControlPoint) handleResubscribeSignal(sub *model.ClientSubscription) {
	url, ok := c.urlFor(sub)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), subscribeTimeout)
	defer cancel()
	c.client.Unsubscribe(ctx, url, sub.SID())

	sub.BeginSubscribing()
	sid, timeout, err := c.client.Subscribe(ctx, url, c.baseURL+sub.CallbackPath, gena.DefaultTimeout)
	if err != nil {
		c.log.Warnf("resubscribing to %s: %v", url, err)
		sub.MarkFailed()
		return
	}
	sub.MarkSubscribed(sid, timeout)
}

func (c *ControlPoint) urlFor(sub *model.ClientSubscription) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, td := range c.devices {
		for _, as := range td.subs {
			if as.sub == sub {
				return as.url, true
			}
		}
	}
	return "", false
}

// maintenanceLoop renews subscriptions due for renewal and retries failed
// ones after their 30 s backoff (spec §4.5 "State machine: Subscription
// (CP side)").
func (c *ControlPoint) maintenanceLoop() {
	ticker := time.NewTicker(resubscribeCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.runMaintenance()
		}
	}
}

func (c *ControlPoint) runMaintenance() {
	now := time.Now()
	c.mu.Lock()
	var due []*activeSubscription
	for _, td := range c.devices {
		for _, as := range td.subs {
			if as.sub.DueForRenewal(now) || as.sub.ShouldRetry(now) {
				due = append(due, as)
			}
		}
	}
	c.mu.Unlock()

	for _, as := range due {
		c.renewOrRetry(as)
	}
}

func (c *ControlPoint) renewOrRetry(as *activeSubscription) {
	if as.sub.State() == model.ClientFailed {
		c.subscribeFresh(as)
		return
	}

	as.sub.BeginRenewing()
	ctx, cancel := context.WithTimeout(context.Background(), subscribeTimeout)
	defer cancel()
	timeout, err := c.client.Renew(ctx, as.url, as.sub.SID(), gena.DefaultTimeout)
	if err != nil {
		c.log.Warnf("renewing %s: %v", as.url, err)
		as.sub.MarkFailed()
		return
	}
	as.sub.MarkSubscribed(as.sub.SID(), timeout)
}

// subscribeFresh re-subscribes a Failed subscription from scratch (a new
// SID, since UDA offers no renewal path once a host has dropped it).
func (c *ControlPoint) subscribeFresh(as *activeSubscription) {
	c.manager.Register(as.sub)
	as.sub.BeginSubscribing()
	ctx, cancel := context.WithTimeout(context.Background(), subscribeTimeout)
	defer cancel()
	sid, timeout, err := c.client.Subscribe(ctx, as.url, c.baseURL+as.sub.CallbackPath, gena.DefaultTimeout)
	if err != nil {
		as.sub.MarkFailed()
		return
	}
	as.sub.MarkSubscribed(sid, timeout)
}

func resolveAgainst(base, rel string) (string, error) {
	if strings.HasPrefix(rel, "http://") || strings.HasPrefix(rel, "https://") {
		return rel, nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	r, err := url.Parse(rel)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(r).String(), nil
}
