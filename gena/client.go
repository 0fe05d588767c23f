package gena

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/upnpforge/upnpstack/types"
)

// Client issues SUBSCRIBE/RENEW/UNSUBSCRIBE requests to a remote event
// subscription URL, control-point side.
type Client struct {
	httpClient *http.Client
}

func NewClient() *Client {
	return &Client{httpClient: &http.Client{Timeout: 10 * time.Second}}
}

// ErrSubscriptionNotFound is returned by Renew when the remote host replies
// 412 Precondition Failed, meaning the SID is unknown there. Unsubscribe
// treats a 412 as success and returns nil.
var ErrSubscriptionNotFound = fmt.Errorf("gena: subscription not found (412)")

// Subscribe sends the initial SUBSCRIBE to eventSubURL with NT: upnp:event
// and the given callback URL, and returns the SID and granted timeout.
func (c *Client) Subscribe(ctx context.Context, eventSubURL, callbackURL string, timeout types.Timeout) (types.SID, types.Timeout, error) {
	req, err := http.NewRequestWithContext(ctx, "SUBSCRIBE", eventSubURL, nil)
	if err != nil {
		return "", 0, fmt.Errorf("gena: building SUBSCRIBE: %w", err)
	}
	req.Header.Set("CALLBACK", "<"+callbackURL+">")
	req.Header.Set("NT", "upnp:event")
	req.Header.Set("TIMEOUT", timeout.GENAHeader())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("gena: SUBSCRIBE request: %w", err)
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("gena: SUBSCRIBE failed: %s", resp.Status)
	}
	sid, err := types.ParseSID(resp.Header.Get("SID"))
	if err != nil {
		return "", 0, fmt.Errorf("gena: SUBSCRIBE response: %w", err)
	}
	granted, err := types.ParseGENATimeout(resp.Header.Get("TIMEOUT"))
	if err != nil {
		granted = timeout
	}
	return sid, granted, nil
}

// Renew sends a renewal SUBSCRIBE carrying SID instead of CALLBACK/NT.
func (c *Client) Renew(ctx context.Context, eventSubURL string, sid types.SID, timeout types.Timeout) (types.Timeout, error) {
	req, err := http.NewRequestWithContext(ctx, "SUBSCRIBE", eventSubURL, nil)
	if err != nil {
		return 0, fmt.Errorf("gena: building renewal SUBSCRIBE: %w", err)
	}
	req.Header.Set("SID", string(sid))
	req.Header.Set("TIMEOUT", timeout.GENAHeader())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("gena: renewal request: %w", err)
	}
	defer drain(resp)

	if resp.StatusCode == http.StatusPreconditionFailed {
		return 0, ErrSubscriptionNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("gena: renewal failed: %s", resp.Status)
	}
	granted, err := types.ParseGENATimeout(resp.Header.Get("TIMEOUT"))
	if err != nil {
		granted = timeout
	}
	return granted, nil
}

// Unsubscribe sends UNSUBSCRIBE carrying only SID. Network errors are
// swallowed: the remote device may already be offline, which is not a
// failure of the unsubscribe intent.
func (c *Client) Unsubscribe(ctx context.Context, eventSubURL string, sid types.SID) error {
	req, err := http.NewRequestWithContext(ctx, "UNSUBSCRIBE", eventSubURL, nil)
	if err != nil {
		return fmt.Errorf("gena: building UNSUBSCRIBE: %w", err)
	}
	req.Header.Set("SID", string(sid))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil
	}
	defer drain(resp)

	if resp.StatusCode == http.StatusPreconditionFailed || resp.StatusCode == http.StatusOK {
		return nil
	}
	return fmt.Errorf("gena: UNSUBSCRIBE failed: %s", resp.Status)
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
