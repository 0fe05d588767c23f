// Package control implements the UPnP 1.1 Control Point: an SSDP listener
// that discovers remote device trees, a description/SCPD fetcher that
// builds them into the model package's object graph, a GENA subscription
// manager that keeps their state variables live, and a SOAP client that
// invokes their actions (spec §4.5).
package control

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/upnpforge/upnpstack/gena"
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

// notifyPathPrefix is the mount point for incoming GENA NOTIFY requests;
// each subscription gets its own sub-path under it.
const notifyPathPrefix = "/notify/"

// expiryFactor bounds how long a discovered device tree is kept without a
// refreshing ssdp:alive/M-SEARCH response, per spec §4.5 "2x advertised
// max-age".
const expiryFactor = 2

const resubscribeCheckInterval = 10 * time.Second

// discoverySearchMX is the MX this control point advertises on its own
// startup ssdp:all M-SEARCH burst.
const discoverySearchMX = 3

// activeSubscription pairs a ClientSubscription with the resolved
// absolute eventSubURL it was subscribed against, needed for renewal and
// unsubscribe since model.ClientSubscription only keeps the service and
// callback path.
type activeSubscription struct {
	sub *model.ClientSubscription
	url string
}

// trackedDevice is one discovered root device tree plus its live GENA
// subscriptions.
type trackedDevice struct {
	device *model.Device
	subs   []*activeSubscription
	expiry *time.Timer
}

// ControlPoint discovers, tracks and interacts with remote UPnP device
// trees, mirroring the Host's lifecycle shape from the other side of the
// protocol.
type ControlPoint struct {
	addr      string
	baseURL   string
	userAgent types.ProductTokens
	log       *logrus.Entry

	mu      sync.Mutex
	state   lifecycleState
	devices map[types.UDN]*trackedDevice

	httpSrv      *http.Server
	listener     net.Listener
	sockets      *ssdp.Sockets
	manager      *gena.Manager
	client       *gena.Client
	actionClient *http.Client

	stopCh chan struct{}
	wg     sync.WaitGroup

	// OnDeviceAdded and OnDeviceRemoved notify the application of
	// discovery events, called on their own goroutine.
	OnDeviceAdded   func(*model.Device)
	OnDeviceRemoved func(udn types.UDN)
}

// Option configures a ControlPoint at construction time.
type Option func(*ControlPoint)

func WithLogger(l *logrus.Entry) Option { return func(c *ControlPoint) { c.log = l } }

// WithAddr sets the callback HTTP listen address ("host:port"; port 0
// picks a free one).
func WithAddr(addr string) Option { return func(c *ControlPoint) { c.addr = addr } }

func WithUserAgent(pt types.ProductTokens) Option {
	return func(c *ControlPoint) { c.userAgent = pt }
}

// New constructs a ControlPoint, unstarted.
func New(opts ...Option) *ControlPoint {
	c := &ControlPoint{
		addr: ":0",
		userAgent: types.NewProductTokens(
			runtime.GOOS, runtime.GOARCH, "upnpstack-cp", "1.0", "1.1"),
		log:     logging.New("control"),
		devices: make(map[types.UDN]*trackedDevice),
		manager:      gena.NewManager(),
		client:       gena.NewClient(),
		actionClient: &http.Client{Timeout: 10 * time.Second},
		stopCh:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.manager.OnResubscribe = c.handleResubscribeSignal
	return c
}

// BaseURL returns the callback server's base URL, valid after Init.
func (c *ControlPoint) BaseURL() string { return c.baseURL }

// Init starts the callback HTTP server, the SSDP discovery listener and
// the subscription maintenance loop, and sends the initial ssdp:all
// M-SEARCH burst.
func (c *ControlPoint) Init(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != stateUninitialized {
		return ErrAlreadyInitialized
	}

	ln, err := net.Listen("tcp", c.addr)
	if err != nil {
		return fmt.Errorf("control: listen %s: %w", c.addr, err)
	}
	c.listener = ln

	host, port := splitHostPort(ln.Addr().String())
	if host == "" || host == "0.0.0.0" || host == "::" {
		if ip, err := netutils.GuessLocalIP(); err == nil {
			host = ip
		}
	}
	c.baseURL = fmt.Sprintf("http://%s:%s", host, port)

	router := chi.NewRouter()
	router.MethodFunc("NOTIFY", notifyPathPrefix+"*", c.manager.ServeHTTP)
	c.httpSrv = &http.Server{Handler: router}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.httpSrv.Serve(ln); err != nil && err != http.ErrServerClosed {
			c.log.Errorf("http server: %v", err)
		}
	}()

	sockets, err := ssdp.Open(host)
	if err != nil {
		c.log.Warnf("ssdp: %v", err)
	} else {
		c.sockets = sockets
		c.wg.Add(2)
		go func() { defer c.wg.Done(); c.discoverLoop() }()
		go func() { defer c.wg.Done(); c.searchResponseLoop() }()
		c.sendSearch("ssdp:all")
	}

	c.wg.Add(1)
	go func() { defer c.wg.Done(); c.maintenanceLoop() }()

	c.state = stateInitialized
	c.log.Infof("control point initialized, callback base URL %s", c.baseURL)
	return nil
}

// Quit unsubscribes from every tracked device (best effort), drains the
// callback server and closes the SSDP sockets.
func (c *ControlPoint) Quit(ctx context.Context) error {
	c.mu.Lock()
	if c.state != stateInitialized {
		c.mu.Unlock()
		return ErrNotInitialized
	}
	c.state = stateExiting
	devices := make([]*trackedDevice, 0, len(c.devices))
	for _, td := range c.devices {
		devices = append(devices, td)
	}
	c.mu.Unlock()

	close(c.stopCh)

	for _, td := range devices {
		c.unsubscribeAll(td)
	}

	if c.httpSrv != nil {
		if err := c.httpSrv.Shutdown(ctx); err != nil {
			c.log.Warnf("http shutdown: %v", err)
		}
	}
	if c.sockets != nil {
		c.sockets.Close()
	}
	c.wg.Wait()

	c.log.Infof("control point stopped")
	return nil
}

// Devices returns every currently tracked root device.
func (c *ControlPoint) Devices() []*model.Device {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*model.Device, 0, len(c.devices))
	for _, td := range c.devices {
		out = append(out, td.device)
	}
	return out
}

// Device looks up a tracked root device by UDN.
func (c *ControlPoint) Device(udn types.UDN) (*model.Device, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	td, ok := c.devices[udn]
	if !ok {
		return nil, false
	}
	return td.device, true
}

func (c *ControlPoint) sendSearch(searchTarget string) {
	if c.sockets == nil {
		return
	}
	req := ssdp.BuildSearchRequest(searchTarget, discoverySearchMX, c.userAgent.String())
	c.sockets.SendMulticast(req)
}

func splitHostPort(addr string) (string, string) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "", ""
	}
	return host, port
}
