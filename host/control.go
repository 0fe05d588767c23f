package host

import (
	"io"
	"net/http"
	"strings"

	"github.com/upnpforge/upnpstack/model"
	"github.com/upnpforge/upnpstack/soapcodec"
)

// controlHandler implements the SOAP control endpoint (spec §4.4 "Control
// handler"): decode envelope, locate the action, coerce inputs, invoke
// through the shared pool, and render the response or fault envelope.
func (h *Host) controlHandler(svc *model.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actionName, ok := parseSOAPAction(r.Header.Get("SOAPACTION"))
		if !ok {
			h.writeFault(w, model.ErrActionFailed, "missing or malformed SOAPACTION header")
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			h.writeFault(w, model.ErrActionFailed, "cannot read request body")
			return
		}

		decoded, err := soapcodec.DecodeRequest(body)
		if err != nil {
			h.writeFault(w, model.ErrActionFailed, err.Error())
			return
		}
		if decoded.ActionName != actionName {
			h.writeFault(w, model.ErrActionFailed, "SOAPACTION does not match envelope method")
			return
		}

		action, ok := svc.Action(actionName)
		if !ok {
			h.writeFault(w, model.ErrOptionalActionNotImplemented, "unknown action "+actionName)
			return
		}

		inputs, err := castInputs(action, decoded.Args)
		if err != nil {
			h.writeFault(w, model.ErrInvalidArgs, err.Error())
			return
		}

		outputs, err := h.pool.Invoke(action, inputs)
		if err != nil {
			h.writeActionError(w, err)
			return
		}

		args, err := formatOutputs(action, outputs)
		if err != nil {
			h.writeFault(w, model.ErrActionFailed, err.Error())
			return
		}

		respBody, err := soapcodec.EncodeResponse(svc.ServiceType().String(), actionName, args)
		if err != nil {
			h.writeFault(w, model.ErrActionFailed, err.Error())
			return
		}
		h.serverHeader(w)
		w.Header().Set("Content-Type", `text/xml; charset="utf-8"`)
		w.WriteHeader(http.StatusOK)
		w.Write(respBody)
	}
}

// parseSOAPAction splits `"<serviceType>#<actionName>"` (quotes optional)
// into the action name (spec §6.4).
func parseSOAPAction(header string) (string, bool) {
	header = strings.Trim(strings.TrimSpace(header), `"`)
	idx := strings.LastIndex(header, "#")
	if idx < 0 || idx == len(header)-1 {
		return "", false
	}
	return header[idx+1:], true
}

// castInputs validates every declared input argument is present and casts
// it to its related state variable's dataType, per spec §4.4 "On type
// mismatch → UpnpError 402/ArgumentValueInvalid".
func castInputs(action *model.Action, args []soapcodec.OrderedArg) (model.ArgumentValues, error) {
	byName := make(map[string]string, len(args))
	for _, a := range args {
		byName[a.Name] = a.Value
	}

	inputs := make(model.ArgumentValues, len(action.InputArguments()))
	for _, arg := range action.InputArguments() {
		raw, ok := byName[arg.Name()]
		if !ok {
			return nil, &model.ActionError{Code: model.ErrInvalidArgs, Description: "missing argument " + arg.Name()}
		}
		cast, err := arg.DataType().Cast(raw)
		if err != nil {
			return nil, &model.ActionError{Code: model.ErrArgumentValueInvalid, Description: err.Error()}
		}
		inputs[arg.Name()] = cast
	}
	return inputs, nil
}

// formatOutputs renders the action's declared output arguments, in
// declaration order, from the invocation's returned values.
func formatOutputs(action *model.Action, outputs model.ArgumentValues) ([]soapcodec.OrderedArg, error) {
	args := make([]soapcodec.OrderedArg, 0, len(action.OutputArguments()))
	for _, arg := range action.OutputArguments() {
		v, ok := outputs[arg.Name()]
		if !ok {
			return nil, &model.ActionError{Code: model.ErrActionFailed, Description: "action did not set output " + arg.Name()}
		}
		args = append(args, soapcodec.OrderedArg{Name: arg.Name(), Value: arg.DataType().Format(v)})
	}
	return args, nil
}

func (h *Host) writeFault(w http.ResponseWriter, code model.ErrorCode, description string) {
	body, err := soapcodec.EncodeFault(code, description)
	if err != nil {
		http.Error(w, description, http.StatusInternalServerError)
		return
	}
	h.serverHeader(w)
	w.Header().Set("Content-Type", `text/xml; charset="utf-8"`)
	w.WriteHeader(http.StatusInternalServerError)
	w.Write(body)
}

func (h *Host) writeActionError(w http.ResponseWriter, err error) {
	if ae, ok := err.(*model.ActionError); ok {
		h.writeFault(w, ae.Code, ae.Description)
		return
	}
	h.writeFault(w, model.ErrActionFailed, err.Error())
}
