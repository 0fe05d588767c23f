package control

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/upnpforge/upnpstack/model"
	"github.com/upnpforge/upnpstack/soapcodec"
	"github.com/upnpforge/upnpstack/types"
)

// Invoke locates a tracked device by UDN, its service by serviceID, and
// its action by name, then performs the remote SOAP invocation (spec
// §4.7 "Action invocation controller (CP side)").
func (c *ControlPoint) Invoke(ctx context.Context, udn types.UDN, serviceID types.ServiceID, actionName string, inputs model.ArgumentValues) (model.ArgumentValues, error) {
	device, ok := c.Device(udn)
	if !ok {
		return nil, ErrUnknownDevice
	}
	svc := findServiceByID(device, serviceID)
	if svc == nil {
		return nil, ErrUnknownService
	}
	action, ok := svc.Action(actionName)
	if !ok {
		return nil, ErrUnknownAction
	}
	return c.invokeAction(ctx, device, svc, action, inputs)
}

func findServiceByID(device *model.Device, id types.ServiceID) *model.Service {
	var found *model.Service
	device.Walk(func(d *model.Device) {
		if found != nil {
			return
		}
		if svc, ok := d.Service(id.String()); ok {
			found = svc
		}
	})
	return found
}

func (c *ControlPoint) invokeAction(ctx context.Context, device *model.Device, svc *model.Service, action *model.Action, inputs model.ArgumentValues) (model.ArgumentValues, error) {
	args := make([]soapcodec.OrderedArg, 0, len(action.InputArguments()))
	for _, arg := range action.InputArguments() {
		v, ok := inputs[arg.Name()]
		if !ok {
			return nil, &model.ActionError{Code: model.ErrInvalidArgs, Description: "missing argument " + arg.Name()}
		}
		args = append(args, soapcodec.OrderedArg{Name: arg.Name(), Value: arg.DataType().Format(v)})
	}

	body, err := soapcodec.EncodeRequest(svc.ServiceType().String(), action.Name(), args)
	if err != nil {
		return nil, fmt.Errorf("control: encoding request: %w", err)
	}

	baseURL := ""
	if locs := device.Locations(); len(locs) > 0 {
		baseURL = locs[0]
	}
	controlURL, err := resolveAgainst(baseURL, svc.ControlURL())
	if err != nil {
		return nil, fmt.Errorf("control: resolving controlURL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, controlURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("control: building request: %w", err)
	}
	req.Header.Set("Content-Type", `text/xml; charset="utf-8"`)
	req.Header.Set("SOAPACTION", fmt.Sprintf(`"%s#%s"`, svc.ServiceType().String(), action.Name()))

	resp, err := c.actionClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("control: invoking %s: %w", action.Name(), err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("control: reading response: %w", err)
	}

	if resp.StatusCode == http.StatusOK {
		return decodeOutputs(action, respBody)
	}
	if resp.StatusCode == http.StatusInternalServerError {
		fault, err := soapcodec.DecodeFault(respBody)
		if err != nil {
			return nil, fmt.Errorf("control: decoding fault: %w", err)
		}
		return nil, &model.ActionError{Code: fault.Code, Description: fault.Description}
	}
	return nil, fmt.Errorf("control: %s returned %s", action.Name(), resp.Status)
}

func decodeOutputs(action *model.Action, body []byte) (model.ArgumentValues, error) {
	decoded, err := soapcodec.DecodeResponse(body)
	if err != nil {
		return nil, fmt.Errorf("control: decoding response: %w", err)
	}
	byName := make(map[string]string, len(decoded.Args))
	for _, a := range decoded.Args {
		byName[a.Name] = a.Value
	}

	outputs := make(model.ArgumentValues, len(action.OutputArguments()))
	for _, arg := range action.OutputArguments() {
		raw, ok := byName[arg.Name()]
		if !ok {
			return nil, fmt.Errorf("control: response missing output %q", arg.Name())
		}
		cast, err := arg.DataType().Cast(raw)
		if err != nil {
			return nil, fmt.Errorf("control: casting output %q: %w", arg.Name(), err)
		}
		outputs[arg.Name()] = cast
	}
	return outputs, nil
}
