// Command upnpctl runs a UPnP control point that discovers devices on the
// network and prints each one's services as they're found, so the stack
// can be exercised against any UDA 1.1 device host.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/upnpforge/upnpstack/control"
	"github.com/upnpforge/upnpstack/logging"
	"github.com/upnpforge/upnpstack/model"
	"github.com/upnpforge/upnpstack/types"
)

var log = logging.New("upnpctl")

func main() {
	cp := control.New()
	cp.OnDeviceAdded = func(d *model.Device) {
		log.Infof("found %s (%s)", d.Info().FriendlyName, d.UDN())
		for _, svc := range d.AllServices() {
			log.Infof("  service %s", svc.ServiceType())
		}
	}
	cp.OnDeviceRemoved = func(udn types.UDN) {
		log.Infof("lost %s", udn)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := cp.Init(ctx); err != nil {
		log.Fatalf("init: %v", err)
	}
	log.Infof("control point listening at %s", cp.BaseURL())

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	quitCtx, quitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer quitCancel()
	if err := cp.Quit(quitCtx); err != nil {
		log.Errorf("quit: %v", err)
	}
}
