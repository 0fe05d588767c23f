package control

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/upnpforge/upnpstack/builder"
	"github.com/upnpforge/upnpstack/ssdp"
	"github.com/upnpforge/upnpstack/types"
)

const datagramBufSize = 8192
const readPollInterval = time.Second

// discoverLoop reads NOTIFY traffic off the multicast socket and
// dispatches ssdp:alive/byebye/update events (spec §4.5).
func (c *ControlPoint) discoverLoop() {
	buf := make([]byte, datagramBufSize)
	for {
		select {
		case <-c.stopCh:
			return
		default:
		}
		dg, err := c.sockets.ReadMulticast(buf, readPollInterval)
		if err != nil {
			continue
		}
		msg, err := ssdp.Parse(dg.Data)
		if err != nil {
			continue
		}
		switch msg.Kind {
		case ssdp.ResourceAvailable:
			c.handleAvailable(msg)
		case ssdp.ResourceUnavailable:
			c.handleUnavailable(msg)
		case ssdp.ResourceUpdate:
			c.handleUpdate(msg)
		}
	}
}

// searchResponseLoop reads the unicast socket, where M-SEARCH responses
// to our own discovery bursts arrive (spec §4.5).
func (c *ControlPoint) searchResponseLoop() {
	buf := make([]byte, datagramBufSize)
	for {
		select {
		case <-c.stopCh:
			return
		default:
		}
		dg, err := c.sockets.ReadUnicast(buf, readPollInterval)
		if err != nil {
			continue
		}
		msg, err := ssdp.Parse(dg.Data)
		if err != nil || msg.Kind != ssdp.DiscoveryResponse {
			continue
		}
		c.handleAvailable(msg)
	}
}

func (c *ControlPoint) handleAvailable(msg *ssdp.Message) {
	usn, err := msg.USN()
	if err != nil {
		return
	}
	location := msg.Get("LOCATION")
	maxAge, err := msg.MaxAge()
	if err != nil {
		maxAge = types.ClampTimeout(types.MaxMaxAge)
	}
	bootID := msg.BootID()
	configID := msg.ConfigID()

	c.mu.Lock()
	td, known := c.devices[usn.UDN]
	c.mu.Unlock()

	if known {
		status := td.device.Status()
		if status.BootID != bootID {
			c.log.Infof("device %s rebooted (bootId %d -> %d), resubscribing", usn.UDN, status.BootID, bootID)
			go c.resubscribeDevice(td)
		}
		td.device.SetBootConfig(bootID, configID, msg.SearchPort())
		c.resetExpiry(td, maxAge)
		return
	}

	if location == "" {
		return
	}
	go func() {
		if err := c.FetchAndAddDevice(location, bootID, configID, msg.SearchPort(), maxAge); err != nil {
			c.log.Warnf("fetching device at %s: %v", location, err)
		}
	}()
}

func (c *ControlPoint) handleUnavailable(msg *ssdp.Message) {
	usn, err := msg.USN()
	if err != nil {
		return
	}
	c.removeDevice(usn.UDN)
}

func (c *ControlPoint) handleUpdate(msg *ssdp.Message) {
	c.handleAvailable(msg)
}

// FetchAndAddDevice fetches and parses the root description at location,
// builds the device tree, subscribes to every evented service, and tracks
// it under its UDN. The already-tracked check runs under c.mu only after
// the fetch and build: two concurrent calls for the same UDN each build a
// tree, the later one returns nil with its tree discarded, and its
// location is not added to the tracked device.
func (c *ControlPoint) FetchAndAddDevice(location string, bootID types.BootID, configID types.ConfigID, searchPort types.SearchPort, maxAge types.Timeout) error {
	baseURL, err := baseURLOf(location)
	if err != nil {
		return err
	}

	resp, err := http.Get(location)
	if err != nil {
		return fmt.Errorf("control: fetching description %s: %w", location, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("control: reading description %s: %w", location, err)
	}

	device, err := builder.BuildRootDevice(raw, builder.Options{
		Fetcher:   builder.NewHTTPFetcher(baseURL),
		Strict:    false,
		Immutable: true,
	})
	if err != nil {
		return fmt.Errorf("control: building device from %s: %w", location, err)
	}
	device.AddLocation(location)
	device.SetOnline(true)
	device.SetBootConfig(bootID, configID, searchPort)

	c.mu.Lock()
	if _, exists := c.devices[device.UDN()]; exists {
		c.mu.Unlock()
		return nil
	}
	td := &trackedDevice{device: device}
	c.devices[device.UDN()] = td
	c.mu.Unlock()

	c.resetExpiry(td, maxAge)
	c.subscribeAll(td)

	c.log.Infof("discovered device %s (%s) at %s", device.Info().FriendlyName, device.UDN(), location)
	if c.OnDeviceAdded != nil {
		go c.OnDeviceAdded(device)
	}
	return nil
}

// resetExpiry (re)arms the 2x-max-age expiry timer for td, removing the
// device from tracking if nothing refreshes it in time (spec §4.5).
func (c *ControlPoint) resetExpiry(td *trackedDevice, maxAge types.Timeout) {
	deadline := time.Duration(maxAge) * expiryFactor * time.Second
	c.mu.Lock()
	if td.expiry != nil {
		td.expiry.Stop()
	}
	udn := td.device.UDN()
	td.expiry = time.AfterFunc(deadline, func() { c.removeDevice(udn) })
	c.mu.Unlock()
}

func (c *ControlPoint) removeDevice(udn types.UDN) {
	c.mu.Lock()
	td, ok := c.devices[udn]
	if ok {
		delete(c.devices, udn)
	}
	c.mu.Unlock()
	if !ok {
		return
	}
	if td.expiry != nil {
		td.expiry.Stop()
	}
	td.device.SetOnline(false)
	c.unsubscribeAll(td)

	c.log.Infof("device %s left", udn)
	if c.OnDeviceRemoved != nil {
		go c.OnDeviceRemoved(udn)
	}
}

func baseURLOf(location string) (string, error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("control: invalid LOCATION %q: %w", location, err)
	}
	return strings.TrimSuffix(u.Scheme+"://"+u.Host, "/"), nil
}
