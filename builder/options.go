package builder

import "github.com/upnpforge/upnpstack/model"

// DeviceCreator maps a parsed DeviceInfo into an application-defined
// device object. When nil, NewDevice builds the default model.Device.
type DeviceCreator func(info model.DeviceInfo) (*model.Device, error)

// Options configures one Build call.
type Options struct {
	Fetcher Fetcher
	Strict  bool // fetch failures on icons are fatal when true
	Creator DeviceCreator
	// Immutable marks every state variable read-only after the build,
	// used on the control-point side.
	Immutable bool
}

func (o Options) createDevice(info model.DeviceInfo) (*model.Device, error) {
	if o.Creator != nil {
		return o.Creator(info)
	}
	return model.NewDevice(info), nil
}
