package model

import (
	"fmt"

	"github.com/beevik/etree"
	"github.com/upnpforge/upnpstack/objectstore"
	"github.com/upnpforge/upnpstack/types"
)

// Service is one controllable/eventable unit exposed by a device: an
// ordered action list plus a name-keyed state-variable table.
type Service struct {
	serviceID    types.ServiceID
	serviceType  types.ResourceType
	scpdURL      string
	controlURL   string
	eventSubURL  string
	actions      *objectstore.ObjectSet[*Action]
	stateVars    map[string]*StateVariable
	stateVarKeys []string // insertion order, for SCPD rendering
	rawSCPD      string

	parent *Device
}

func NewService(id types.ServiceID, serviceType types.ResourceType, scpdURL, controlURL, eventSubURL string) *Service {
	return &Service{
		serviceID:   id,
		serviceType: serviceType,
		scpdURL:     scpdURL,
		controlURL:  controlURL,
		eventSubURL: eventSubURL,
		actions:     objectstore.NewObjectSet[*Action](),
		stateVars:   make(map[string]*StateVariable),
	}
}

func (s *Service) Name() string   { return s.serviceID.String() }
func (s *Service) TypeID() string { return "Service" }

func (s *Service) ServiceID() types.ServiceID      { return s.serviceID }
func (s *Service) ServiceType() types.ResourceType { return s.serviceType }
func (s *Service) SCPDURL() string                 { return s.scpdURL }
func (s *Service) ControlURL() string              { return s.controlURL }
func (s *Service) EventSubURL() string             { return s.eventSubURL }
func (s *Service) RawSCPD() string                 { return s.rawSCPD }
func (s *Service) SetRawSCPD(raw string)            { s.rawSCPD = raw }
func (s *Service) ParentDevice() *Device            { return s.parent }

// AddAction registers an action, in declaration order.
func (s *Service) AddAction(a *Action) error { return s.actions.Insert(a) }

func (s *Service) Actions() []*Action                { return s.actions.Slice() }
func (s *Service) Action(name string) (*Action, bool) { return s.actions.Get(name) }

// AddStateVariable registers a state variable, rejecting duplicate names.
func (s *Service) AddStateVariable(sv *StateVariable) error {
	if _, exists := s.stateVars[sv.Name()]; exists {
		return fmt.Errorf("model: duplicate state variable %q in service %s", sv.Name(), s.serviceID)
	}
	s.stateVars[sv.Name()] = sv
	s.stateVarKeys = append(s.stateVarKeys, sv.Name())
	return nil
}

func (s *Service) StateVariable(name string) (*StateVariable, bool) {
	sv, ok := s.stateVars[name]
	return sv, ok
}

func (s *Service) StateVariables() []*StateVariable {
	out := make([]*StateVariable, 0, len(s.stateVarKeys))
	for _, k := range s.stateVarKeys {
		out = append(out, s.stateVars[k])
	}
	return out
}

// IsEvented reports whether any state variable fires change events
// (spec §3: Service.evented = ∃ state variable with eventing != None).
func (s *Service) IsEvented() bool {
	for _, sv := range s.stateVars {
		if sv.IsEvented() {
			return true
		}
	}
	return false
}

// EventedStateVariables returns, in declaration order, every state
// variable whose eventing is not None — the set delivered in an initial
// GENA notify.
func (s *Service) EventedStateVariables() []*StateVariable {
	var out []*StateVariable
	for _, k := range s.stateVarKeys {
		if sv := s.stateVars[k]; sv.IsEvented() {
			out = append(out, sv)
		}
	}
	return out
}

// SetImmutable marks every state variable read-only, used when a service
// is instantiated on the control-point side.
func (s *Service) SetImmutable() {
	for _, sv := range s.stateVars {
		sv.SetImmutable()
	}
}

// ToSCPDDocument renders the full SCPD XML document for this service.
func (s *Service) ToSCPDDocument() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)

	root := doc.CreateElement("scpd")
	root.CreateAttr("xmlns", "urn:schemas-upnp-org:service-1-0")
	spec := root.CreateElement("specVersion")
	spec.CreateElement("major").SetText("1")
	spec.CreateElement("minor").SetText("1")

	actionList := root.CreateElement("actionList")
	for _, a := range s.actions.Slice() {
		actionList.AddChild(a.ToXMLElement())
	}

	svList := root.CreateElement("serviceStateTable")
	for _, k := range s.stateVarKeys {
		svList.AddChild(s.stateVars[k].ToXMLElement())
	}

	return doc
}
