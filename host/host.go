// Package host implements the UPnP 1.1 Device Host: an HTTP server that
// serves device/service descriptions and handles SOAP control and GENA
// eventing, plus an SSDP advertiser/responder, over a model.Device tree
// (spec §4.4).
package host

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/upnpforge/upnpstack/gena"
	"github.com/upnpforge/upnpstack/invoker"
	"github.com/upnpforge/upnpstack/logging"
	"github.com/upnpforge/upnpstack/model"
	"github.com/upnpforge/upnpstack/netutils"
	"github.com/upnpforge/upnpstack/ssdp"
	"github.com/upnpforge/upnpstack/types"
)

type lifecycleState int

const (
	stateUninitialized lifecycleState = iota
	stateInitialized
	stateExiting
)

// aliveBurstCount is how many times the startup ssdp:alive burst repeats,
// per spec §4.3 "Announcement cadence (host)".
const aliveBurstCount = 3

// sweepInterval is how often expired GENA subscriptions are swept.
const sweepInterval = 30 * time.Second

// Host serves one root device tree: HTTP description/control/eventing and
// SSDP advertisement, mirroring the teacher's upnp.Server (NewServer,
// ServerOption, Start/Stop/Run) generalized from a single hardcoded
// device tree to the model package's general Device graph.
type Host struct {
	Device *model.Device

	addr          string
	baseURL       string
	productTokens types.ProductTokens
	searchPort    types.SearchPort

	log *logrus.Entry

	mu    sync.Mutex
	state lifecycleState

	httpSrv   *http.Server
	listener  net.Listener
	registry  *gena.Registry
	deliverer *gena.HTTPDeliverer
	pool      *invoker.Pool
	sockets   *ssdp.Sockets

	bootID   types.BootID
	configID types.ConfigID

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// Option configures a Host at construction time.
type Option func(*Host)

// WithLogger attaches a component-scoped logger, the way the teacher's
// Server accepts a WithLogger ServerOption.
func WithLogger(l *logrus.Entry) Option { return func(h *Host) { h.log = l } }

// WithAddr sets the HTTP listen address ("host:port"; empty host means
// "all interfaces", port 0 means "pick a free one").
func WithAddr(addr string) Option { return func(h *Host) { h.addr = addr } }

// WithProductTokens overrides the SERVER header tokens.
func WithProductTokens(pt types.ProductTokens) Option {
	return func(h *Host) { h.productTokens = pt }
}

// New constructs a Host for device, unstarted.
func New(device *model.Device, opts ...Option) *Host {
	h := &Host{
		Device: device,
		addr:   ":0",
		productTokens: types.NewProductTokens(
			runtime.GOOS, runtime.GOARCH, "upnpstack", "1.0", "1.1"),
		searchPort: types.NoSearchPort,
		log:        logging.New("host"),
		stopCh:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// BaseURL returns the device's advertised HTTP base URL, valid after Init.
func (h *Host) BaseURL() string { return h.baseURL }

// Init validates the device tree, starts the HTTP server, the action
// invoker pool, the GENA registry and the SSDP responder/announcer, and
// sends the startup ssdp:alive burst. Calling Init twice returns
// ErrAlreadyInitialized.
func (h *Host) Init(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != stateUninitialized {
		return ErrAlreadyInitialized
	}

	if err := h.Device.ValidateUnique(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDeviceDescription, err)
	}

	ln, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("%w: listen %s: %v", ErrInvalidConfiguration, h.addr, err)
	}
	h.listener = ln

	host, port := splitHostPort(ln.Addr().String())
	if host == "" || host == "0.0.0.0" || host == "::" {
		if ip, err := netutils.GuessLocalIP(); err == nil {
			host = ip
		}
	}
	h.baseURL = fmt.Sprintf("http://%s:%s", host, port)
	h.Device.AddLocation(h.descriptionURL())

	h.deliverer = gena.NewHTTPDeliverer()
	h.registry = gena.NewRegistry(h.deliverer.Deliver)
	h.wireEventing()

	actionCount := 0
	for _, svc := range h.Device.AllServices() {
		actionCount += len(svc.Actions())
	}
	h.pool = invoker.NewPool(invoker.Size(actionCount))

	h.httpSrv = &http.Server{Handler: h.buildRouter()}
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		if err := h.httpSrv.Serve(ln); err != nil && err != http.ErrServerClosed {
			h.log.Errorf("http server: %v", err)
		}
	}()

	sockets, err := ssdp.Open(host)
	if err != nil {
		h.log.Warnf("ssdp: %v", err)
	} else {
		h.sockets = sockets
		h.searchPort, _ = types.ParseSearchPort(sockets.UnicastPort())
		h.wg.Add(2)
		go func() { defer h.wg.Done(); h.serveSearch() }()
		go func() { defer h.wg.Done(); h.announceLoop() }()
		h.sendAliveBurst()
	}

	h.wg.Add(1)
	go func() { defer h.wg.Done(); h.sweepLoop() }()

	h.state = stateInitialized
	h.log.Infof("host initialized, base URL %s", h.baseURL)
	return nil
}

// Quit sends the ssdp:byebye burst, drains the in-flight HTTP requests,
// stops the invoker pool and closes the SSDP sockets. Calling Quit before
// Init, or twice, returns ErrNotInitialized.
func (h *Host) Quit(ctx context.Context) error {
	h.mu.Lock()
	if h.state != stateInitialized {
		h.mu.Unlock()
		return ErrNotInitialized
	}
	h.state = stateExiting
	h.mu.Unlock()

	close(h.stopCh)

	if h.sockets != nil {
		h.sendByebyeBurst()
	}

	if h.httpSrv != nil {
		if err := h.httpSrv.Shutdown(ctx); err != nil {
			h.log.Warnf("http shutdown: %v", err)
		}
	}
	if h.sockets != nil {
		h.sockets.Close()
	}
	h.pool.Stop()
	h.wg.Wait()

	h.log.Infof("host stopped")
	return nil
}

// wireEventing attaches a GENA-notifying change listener to every evented
// state variable in the tree, so a local SetValue fans out to subscribers
// without the application code touching gena directly.
func (h *Host) wireEventing() {
	h.Device.Walk(func(d *model.Device) {
		for _, svc := range d.Services() {
			svc := svc
			for _, sv := range svc.EventedStateVariables() {
				sv.OnChange(func(sv *model.StateVariable, oldValue, newValue interface{}) {
					h.registry.NotifyChange(svc, sv)
				})
			}
		}
	})
}

func (h *Host) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-h.stopCh:
			return
		case <-ticker.C:
			h.registry.Sweep(time.Now())
		}
	}
}

// descriptionURL is the single root description URL advertised for every
// device in the tree (spec §4.4: "same for every device in the tree").
func (h *Host) descriptionURL() string {
	return fmt.Sprintf("%s/%s/device_description.xml", h.baseURL, h.Device.UDN().String())
}

func splitHostPort(addr string) (string, string) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "", ""
	}
	return host, port
}
