// Command upnpd hosts a minimal UPnP BinaryLight: a root device exposing
// the standard SwitchPower:1 service, so the stack can be exercised end
// to end against any UDA 1.1 control point.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/upnpforge/upnpstack/config"
	"github.com/upnpforge/upnpstack/host"
	"github.com/upnpforge/upnpstack/logging"
	"github.com/upnpforge/upnpstack/model"
	"github.com/upnpforge/upnpstack/types"
)

var log = logging.New("upnpd")

func main() {
	cfg := config.Load("")
	addr := cfg.GetString("host.addr", ":0")

	device := buildBinaryLight()

	h := host.New(device, host.WithAddr(addr))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := h.Init(ctx); err != nil {
		log.Fatalf("init: %v", err)
	}
	log.Infof("serving %s at %s", device.Info().FriendlyName, h.BaseURL())

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	quitCtx, quitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer quitCancel()
	if err := h.Quit(quitCtx); err != nil {
		log.Errorf("quit: %v", err)
	}
}

func buildBinaryLight() *model.Device {
	deviceType, _ := types.ParseResourceType("urn:schemas-upnp-org:device:BinaryLight:1")
	info := model.DeviceInfo{
		DeviceType:   deviceType,
		UDN:          types.NewUDN(),
		FriendlyName: "upnpstack Example Light",
		Manufacturer: "upnpstack",
		ModelName:    "BinaryLight",
	}
	device := model.NewDevice(info)

	serviceID, _ := types.ParseServiceID("urn:upnp-org:serviceId:SwitchPower1")
	serviceType, _ := types.ParseResourceType("urn:schemas-upnp-org:service:SwitchPower:1")
	svc := model.NewService(serviceID, serviceType,
		"/SwitchPower1/scpd.xml", "/SwitchPower1/control", "/SwitchPower1/event")

	status := model.NewStateVariable("Status", model.TypeBoolean, model.EventingUnicastAndMulticast)
	status.SetDefault(false)
	svc.AddStateVariable(status)

	target := model.NewStateVariable("Target", model.TypeBoolean, model.EventingNone)
	target.SetDefault(false)
	svc.AddStateVariable(target)

	setTarget := model.NewAction("SetTarget")
	setTarget.AddInputArgument(model.NewActionArgument("newTargetValue", model.ArgIn, target))
	setTarget.SetInvoker(func(in model.ArgumentValues) (model.ArgumentValues, error) {
		v, _ := in["newTargetValue"].(bool)
		target.SetValue(v)
		status.SetValue(v)
		return model.ArgumentValues{}, nil
	})
	svc.AddAction(setTarget)

	getTarget := model.NewAction("GetTarget")
	getTarget.AddOutputArgument(model.NewActionArgument("RetTargetValue", model.ArgOut, target), true)
	getTarget.SetInvoker(func(in model.ArgumentValues) (model.ArgumentValues, error) {
		return model.ArgumentValues{"RetTargetValue": target.Value()}, nil
	})
	svc.AddAction(getTarget)

	getStatus := model.NewAction("GetStatus")
	getStatus.AddOutputArgument(model.NewActionArgument("ResultStatus", model.ArgOut, status), true)
	getStatus.SetInvoker(func(in model.ArgumentValues) (model.ArgumentValues, error) {
		return model.ArgumentValues{"ResultStatus": status.Value()}, nil
	})
	svc.AddAction(getStatus)

	device.AddService(svc)
	return device
}
