package model

import (
	"fmt"
	"sync"

	"github.com/upnpforge/upnpstack/objectstore"
	"github.com/upnpforge/upnpstack/types"
)

// DeviceInfo is the set of descriptive fields every device carries,
// required or optional, parsed straight from <device> (spec §4.2).
type DeviceInfo struct {
	DeviceType       types.ResourceType
	UDN              types.UDN
	FriendlyName     string
	Manufacturer     string
	ManufacturerURL  string
	ModelDescription string
	ModelName        string
	ModelNumber      string
	ModelURL         string
	SerialNumber     string
	UPC              string
	PresentationURL  string
}

// DeviceStatus carries the UDA 1.1 liveness counters and the online flag
// a control point tracks for a remote device tree.
type DeviceStatus struct {
	BootID     types.BootID
	ConfigID   types.ConfigID
	SearchPort types.SearchPort
	Online     bool
}

// Device is a node in the device tree: the root device or one embedded
// device, owning an ordered service list and an ordered list of further
// embedded devices. Exactly one parent; nil for the root.
type Device struct {
	info        DeviceInfo
	services    *objectstore.ObjectSet[*Service]
	embedded    *objectstore.ObjectSet[*Device]
	icons       *objectstore.ObjectSet[*Icon]
	locations   []string
	rawDescription string

	mu     sync.Mutex
	status DeviceStatus

	parent *Device
}

func NewDevice(info DeviceInfo) *Device {
	return &Device{
		info:     info,
		services: objectstore.NewObjectSet[*Service](),
		embedded: objectstore.NewObjectSet[*Device](),
		icons:    objectstore.NewObjectSet[*Icon](),
		status:   DeviceStatus{SearchPort: types.NoSearchPort},
	}
}

func (d *Device) Name() string   { return d.info.UDN.String() }
func (d *Device) TypeID() string { return "Device" }

func (d *Device) Info() DeviceInfo       { return d.info }
func (d *Device) UDN() types.UDN         { return d.info.UDN }
func (d *Device) DeviceType() types.ResourceType { return d.info.DeviceType }

func (d *Device) RawDescription() string      { return d.rawDescription }
func (d *Device) SetRawDescription(raw string) { d.rawDescription = raw }

func (d *Device) Locations() []string { return append([]string(nil), d.locations...) }

// AddLocation appends a reachable absolute URL to the device description,
// deduplicating identical entries (multiple interfaces/NICs may advertise
// the same root device at several addresses).
func (d *Device) AddLocation(loc string) {
	for _, l := range d.locations {
		if l == loc {
			return
		}
	}
	d.locations = append(d.locations, loc)
}

// AddService attaches a service, setting its parent back-reference.
func (d *Device) AddService(s *Service) error {
	if err := d.services.Insert(s); err != nil {
		return err
	}
	s.parent = d
	return nil
}

func (d *Device) Services() []*Service                   { return d.services.Slice() }
func (d *Device) Service(serviceID string) (*Service, bool) { return d.services.Get(serviceID) }

// ServicesByType returns every service in this device (not its subtree)
// whose type matches rt under mode.
func (d *Device) ServicesByType(rt types.ResourceType, mode types.MatchMode) []*Service {
	var out []*Service
	for _, s := range d.services.Slice() {
		if types.Compare(rt, s.ServiceType(), mode) {
			out = append(out, s)
		}
	}
	return out
}

// AddIcon attaches a declared icon, keyed by its (device-relative) URL.
func (d *Device) AddIcon(icon *Icon) error { return d.icons.Insert(icon) }

func (d *Device) Icons() []*Icon { return d.icons.Slice() }

// Icon looks up a declared icon by the URL it was registered under.
func (d *Device) Icon(url string) (*Icon, bool) { return d.icons.Get(url) }

// AddEmbeddedDevice attaches a child device, setting its parent link.
func (d *Device) AddEmbeddedDevice(child *Device) error {
	if err := d.embedded.Insert(child); err != nil {
		return err
	}
	child.parent = d
	return nil
}

func (d *Device) EmbeddedDevices() []*Device { return d.embedded.Slice() }

func (d *Device) ParentDevice() *Device { return d.parent }

func (d *Device) IsRoot() bool { return d.parent == nil }

// RootDevice walks up to the tree root.
func (d *Device) RootDevice() *Device {
	cur := d
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

// Walk visits d and every device in its subtree, depth first.
func (d *Device) Walk(visit func(*Device)) {
	visit(d)
	for _, child := range d.embedded.Slice() {
		child.Walk(visit)
	}
}

// AllServices returns every service in this device's subtree.
func (d *Device) AllServices() []*Service {
	var out []*Service
	d.Walk(func(dev *Device) {
		out = append(out, dev.Services()...)
	})
	return out
}

// FindByUDN searches this device's subtree for a device with the given UDN.
func (d *Device) FindByUDN(udn types.UDN) *Device {
	var found *Device
	d.Walk(func(dev *Device) {
		if found == nil && dev.info.UDN == udn {
			found = dev
		}
	})
	return found
}

func (d *Device) Status() DeviceStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

func (d *Device) SetOnline(online bool) {
	d.mu.Lock()
	d.status.Online = online
	d.mu.Unlock()
}

// SetBootConfig updates the UDA 1.1 liveness counters, called when an
// ssdp:update or a fresh ssdp:alive reports new values.
func (d *Device) SetBootConfig(boot types.BootID, config types.ConfigID, port types.SearchPort) {
	d.mu.Lock()
	d.status.BootID = boot
	d.status.ConfigID = config
	d.status.SearchPort = port
	d.mu.Unlock()
}

// SetImmutable recursively marks every service's state variables
// read-only, applied once when the control point attaches a built tree.
func (d *Device) SetImmutable() {
	d.Walk(func(dev *Device) {
		for _, s := range dev.Services() {
			s.SetImmutable()
		}
	})
}

// ValidateUnique checks the spec §3 uniqueness invariants across this
// device's subtree: UDNs, and scpdUrl/controlUrl/eventSubUrl/iconUrl.
func (d *Device) ValidateUnique() error {
	udns := make(map[types.UDN]bool)
	urls := make(map[string]string) // url -> kind, for a useful error message
	var walkErr error

	d.Walk(func(dev *Device) {
		if walkErr != nil {
			return
		}
		if udns[dev.info.UDN] {
			walkErr = fmt.Errorf("model: duplicate UDN %s in device tree", dev.info.UDN)
			return
		}
		udns[dev.info.UDN] = true

		for _, s := range dev.Services() {
			for _, pair := range []struct{ url, kind string }{
				{s.SCPDURL(), "scpdUrl"},
				{s.ControlURL(), "controlUrl"},
				{s.EventSubURL(), "eventSubUrl"},
			} {
				if pair.url == "" {
					continue
				}
				if existing, exists := urls[pair.url]; exists {
					walkErr = fmt.Errorf("model: duplicate %s %q (already used as %s)", pair.kind, pair.url, existing)
					return
				}
				urls[pair.url] = pair.kind
			}
		}
		for _, icon := range dev.Icons() {
			if icon.URL == "" {
				continue
			}
			if existing, exists := urls[icon.URL]; exists {
				walkErr = fmt.Errorf("model: duplicate iconUrl %q (already used as %s)", icon.URL, existing)
				return
			}
			urls[icon.URL] = "iconUrl"
		}
	})
	return walkErr
}
