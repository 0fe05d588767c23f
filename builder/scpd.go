package builder

import (
	"strconv"

	"github.com/beevik/etree"

	"github.com/upnpforge/upnpstack/model"
)

// parseSCPD parses a service's SCPD document, populating svc's state
// variables first and then its actions, since action arguments resolve
// against already-parsed state variables (spec §4.2).
func parseSCPD(data []byte, svc *model.Service) error {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return parseErr("SCPD for %s: malformed XML: %v", svc.ServiceID(), err)
	}
	root := doc.SelectElement("scpd")
	if root == nil {
		return parseErr("SCPD for %s: missing <scpd> element", svc.ServiceID())
	}

	if table := root.SelectElement("serviceStateTable"); table != nil {
		for _, sve := range table.SelectElements("stateVariable") {
			sv, err := parseStateVariable(sve)
			if err != nil {
				return err
			}
			if err := svc.AddStateVariable(sv); err != nil {
				return validationErr(err)
			}
		}
	}

	if list := root.SelectElement("actionList"); list != nil {
		for _, ae := range list.SelectElements("action") {
			a, err := parseAction(ae, svc)
			if err != nil {
				return err
			}
			if err := svc.AddAction(a); err != nil {
				return validationErr(err)
			}
		}
	}

	return nil
}

func parseStateVariable(elem *etree.Element) (*model.StateVariable, error) {
	name := elemText(elem, "name")
	dataTypeStr := elemText(elem, "dataType")
	if name == "" || dataTypeStr == "" {
		return nil, parseErr("stateVariable missing name or dataType")
	}
	dataType := model.ParseDataType(dataTypeStr)

	eventing := model.EventingNone
	if elem.SelectAttrValue("sendEvents", "no") == "yes" {
		eventing = model.EventingUnicastOnly
		if elem.SelectAttrValue("multicast", "no") == "yes" {
			eventing = model.EventingUnicastAndMulticast
		}
	}

	sv := model.NewStateVariable(name, dataType, eventing)

	if def := elem.SelectElement("defaultValue"); def != nil {
		if err := sv.SetDefault(def.Text()); err != nil {
			return nil, parseErr("stateVariable %q: %v", name, err)
		}
	}

	if rangeElem := elem.SelectElement("allowedValueRange"); rangeElem != nil {
		min := elemText(rangeElem, "minimum")
		max := elemText(rangeElem, "maximum")
		step := elemText(rangeElem, "step")
		if step == "" {
			maxF, _ := strconv.ParseFloat(max, 64)
			step = dataType.Format(dataType.DefaultStep(maxF))
		}
		if err := sv.SetRange(min, max, step); err != nil {
			return nil, parseErr("stateVariable %q: %v", name, err)
		}
	}

	if list := elem.SelectElement("allowedValueList"); list != nil {
		values := list.SelectElements("allowedValue")
		strs := make([]interface{}, len(values))
		for i, v := range values {
			strs[i] = v.Text()
		}
		if err := sv.SetAllowedValues(strs...); err != nil {
			return nil, parseErr("stateVariable %q: %v", name, err)
		}
	}

	return sv, nil
}

func parseAction(elem *etree.Element, svc *model.Service) (*model.Action, error) {
	name := elemText(elem, "name")
	if name == "" {
		return nil, parseErr("action missing name")
	}
	a := model.NewAction(name)

	argList := elem.SelectElement("argumentList")
	if argList == nil {
		return a, nil
	}

	sawOut := false
	for _, arge := range argList.SelectElements("argument") {
		argName := elemText(arge, "name")
		direction := elemText(arge, "direction")
		relatedName := elemText(arge, "relatedStateVariable")
		if argName == "" || relatedName == "" {
			return nil, parseErr("action %q: argument missing name or relatedStateVariable", name)
		}

		relatedSV, ok := svc.StateVariable(relatedName)
		if !ok {
			return nil, parseErr("action %q: argument %q refers to unknown state variable %q", name, argName, relatedName)
		}

		switch direction {
		case "in":
			if sawOut {
				return nil, parseErr("action %q: input argument %q declared after an output argument", name, argName)
			}
			if err := a.AddInputArgument(model.NewActionArgument(argName, model.ArgIn, relatedSV)); err != nil {
				return nil, parseErr("action %q: %v", name, err)
			}
		case "out":
			sawOut = true
			isRetval := arge.SelectElement("retval") != nil
			if err := a.AddOutputArgument(model.NewActionArgument(argName, model.ArgOut, relatedSV), isRetval); err != nil {
				return nil, parseErr("action %q: %v", name, err)
			}
		default:
			return nil, parseErr("action %q: argument %q has invalid direction %q", name, argName, direction)
		}
	}

	return a, nil
}
