package host

import (
	"math/rand"
	"net"
	"strings"
	"time"

	"github.com/upnpforge/upnpstack/model"
	"github.com/upnpforge/upnpstack/ssdp"
	"github.com/upnpforge/upnpstack/types"
)

// datagramBufSize is large enough for any SSDP message (UDP datagrams are
// bounded well under this in practice).
const datagramBufSize = 8192

// readPollInterval bounds how long each socket read blocks, so the
// listener goroutines notice stopCh promptly.
const readPollInterval = time.Second

// advertisement holds the rendered fields of one announced target
// (rootdevice, bare UDN, device type or service type).
type advertisement struct {
	fields ssdp.AdvertisementFields
}

// advertisements renders the full UDA triple set for this host's tree:
// one upnp:rootdevice entry for the root device, one bare-UDN +
// device-type entry per device (root and embedded), one service-type
// entry per service (spec §4.3 "Announcement cadence").
func (h *Host) advertisements() []advertisement {
	var out []advertisement
	loc := h.descriptionURL()
	maxAge := types.ClampTimeout(2 * int(h.advertiseInterval().Seconds()))

	h.Device.Walk(func(d *model.Device) {
		udn := d.UDN()
		base := ssdp.AdvertisementFields{
			Location:   loc,
			MaxAge:     maxAge,
			Server:     h.productTokens.String(),
			BootID:     h.bootID,
			ConfigID:   h.configID,
			SearchPort: h.searchPort,
			UDA11:      true,
		}

		if d.IsRoot() {
			f := base
			f.NT = "upnp:rootdevice"
			f.USN = types.RootDeviceUSN(udn)
			out = append(out, advertisement{f})
		}

		f := base
		f.NT = udn.String()
		f.USN = types.BareUSN(udn)
		out = append(out, advertisement{f})

		f = base
		f.NT = d.DeviceType().String()
		f.USN = types.TypeUSN(udn, d.DeviceType())
		out = append(out, advertisement{f})

		for _, svc := range d.Services() {
			f := base
			f.NT = svc.ServiceType().String()
			f.USN = types.TypeUSN(udn, svc.ServiceType())
			out = append(out, advertisement{f})
		}
	})
	return out
}

// advertiseInterval is half the CACHE-CONTROL max-age; the periodic
// re-announcement cadence (spec §4.3).
func (h *Host) advertiseInterval() time.Duration {
	return 15 * time.Minute
}

func (h *Host) sendAliveBurst() {
	ads := h.advertisements()
	for i := 0; i < aliveBurstCount; i++ {
		for _, a := range ads {
			h.sockets.SendMulticast(ssdp.BuildAlive(a.fields))
		}
		if i < aliveBurstCount-1 {
			time.Sleep(100 * time.Millisecond)
		}
	}
}

func (h *Host) sendByebyeBurst() {
	for _, a := range h.advertisements() {
		h.sockets.SendMulticast(ssdp.BuildByebye(a.fields))
	}
}

// announceLoop re-sends the alive burst every maxAge/2, per spec §4.3.
func (h *Host) announceLoop() {
	ticker := time.NewTicker(h.advertiseInterval())
	defer ticker.Stop()
	for {
		select {
		case <-h.stopCh:
			return
		case <-ticker.C:
			h.sendAliveBurst()
		}
	}
}

// serveSearch reads M-SEARCH requests off the multicast socket and
// dispatches matching discovery responses, each delayed by a uniform
// random [0, MX) seconds (spec §4.3).
func (h *Host) serveSearch() {
	buf := make([]byte, datagramBufSize)
	for {
		select {
		case <-h.stopCh:
			return
		default:
		}
		dg, err := h.sockets.ReadMulticast(buf, readPollInterval)
		if err != nil {
			if ssdp.IsTimeout(err) {
				continue
			}
			continue
		}
		msg, err := ssdp.Parse(dg.Data)
		if err != nil || msg.Kind != ssdp.DiscoveryRequest {
			continue
		}
		h.respondToSearch(msg, dg.Src)
	}
}

func (h *Host) respondToSearch(msg *ssdp.Message, src *net.UDPAddr) {
	st := msg.Get("ST")
	mx := msg.MX()
	if mx <= 0 {
		mx = 1
	}

	matches := h.matchSearchTarget(st)
	if len(matches) == 0 {
		return
	}

	delay := time.Duration(rand.Intn(mx)) * time.Second
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		select {
		case <-time.After(delay):
		case <-h.stopCh:
			return
		}
		for _, a := range matches {
			h.sockets.SendUnicast(ssdp.BuildSearchResponse(st, a.fields), src)
		}
	}()
}

// matchSearchTarget implements the ST dispatch table of spec §4.3.
func (h *Host) matchSearchTarget(st string) []advertisement {
	ads := h.advertisements()

	switch {
	case st == "ssdp:all":
		return ads

	case st == "upnp:rootdevice":
		var out []advertisement
		for _, a := range ads {
			if a.fields.NT == "upnp:rootdevice" {
				out = append(out, a)
			}
		}
		return out

	case strings.HasPrefix(st, "uuid:"):
		udn, err := types.ParseUDN(st)
		if err != nil {
			return nil
		}
		var out []advertisement
		for _, a := range ads {
			if a.fields.USN.UDN == udn && a.fields.USN.Resource == "" {
				out = append(out, a)
				break
			}
		}
		return out

	case strings.HasPrefix(st, "urn:"):
		target, err := types.ParseResourceType(st)
		if err != nil {
			return nil
		}
		var out []advertisement
		for _, a := range ads {
			if a.fields.NT == "upnp:rootdevice" || strings.HasPrefix(a.fields.NT, "uuid:") {
				continue
			}
			stored, err := types.ParseResourceType(a.fields.NT)
			if err != nil {
				continue
			}
			if types.Compare(target, stored, types.Inclusive) {
				out = append(out, a)
			}
		}
		return out

	default:
		return nil
	}
}
