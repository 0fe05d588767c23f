package model

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/beevik/etree"
)

// Eventing classifies how changes to a state variable are announced.
type Eventing int

const (
	EventingNone Eventing = iota
	EventingUnicastOnly
	EventingUnicastAndMulticast
)

// ValueRange is an inclusive numeric range with an optional step.
type ValueRange struct {
	Min  interface{}
	Max  interface{}
	Step interface{}
}

// ChangeListener is notified after a state variable's value changes. It
// runs synchronously on the goroutine that made the change, after the
// variable's lock is released; listeners fired by concurrent changes are
// not serialized with one another.
type ChangeListener func(sv *StateVariable, oldValue, newValue interface{})

// StateVariable is one evented or non-evented value slot of a service.
// Mutation is only ever permitted through SetValue on the host side;
// control-point instances are constructed with Immutable set, and
// SetValue on an immutable variable always fails.
type StateVariable struct {
	name          string
	dataType      DataType
	defaultValue  interface{}
	allowedValues []interface{}
	valueRange    *ValueRange
	eventing      Eventing
	immutable     bool

	mu        sync.Mutex
	value     interface{}
	listeners []ChangeListener
}

// NewStateVariable constructs a state variable and seeds it with the data
// type's zero value; SetDefault replaces it with a declared default.
func NewStateVariable(name string, dataType DataType, eventing Eventing) *StateVariable {
	sv := &StateVariable{name: name, dataType: dataType, eventing: eventing}
	sv.value = zeroValue(dataType)
	return sv
}

func zeroValue(t DataType) interface{} {
	switch {
	case t == TypeBoolean:
		return false
	case t.IsInteger():
		return int64(0)
	case t.IsNumeric():
		return float64(0)
	case t == TypeString || t == TypeChar || t == TypeURI || t == TypeUUID:
		return ""
	default:
		return nil
	}
}

func (sv *StateVariable) Name() string   { return sv.name }
func (sv *StateVariable) TypeID() string { return "StateVariable" }

func (sv *StateVariable) DataType() DataType { return sv.dataType }
func (sv *StateVariable) Eventing() Eventing { return sv.eventing }
func (sv *StateVariable) IsEvented() bool    { return sv.eventing != EventingNone }

// SetImmutable marks the variable read-only; used for control-point
// instances, which only ever learn state through GENA notifications.
func (sv *StateVariable) SetImmutable() { sv.immutable = true }
func (sv *StateVariable) IsImmutable() bool { return sv.immutable }

func (sv *StateVariable) SetDefault(v interface{}) error {
	cv, err := sv.dataType.Cast(v)
	if err != nil {
		return fmt.Errorf("model: default value for %s: %w", sv.name, err)
	}
	sv.defaultValue = cv
	sv.mu.Lock()
	sv.value = cv
	sv.mu.Unlock()
	return nil
}

func (sv *StateVariable) SetRange(min, max, step interface{}) error {
	cmin, err := sv.dataType.Cast(min)
	if err != nil {
		return fmt.Errorf("model: range minimum for %s: %w", sv.name, err)
	}
	cmax, err := sv.dataType.Cast(max)
	if err != nil {
		return fmt.Errorf("model: range maximum for %s: %w", sv.name, err)
	}
	var cstep interface{}
	if step != nil {
		cstep, err = sv.dataType.Cast(step)
		if err != nil {
			return fmt.Errorf("model: range step for %s: %w", sv.name, err)
		}
	}
	sv.valueRange = &ValueRange{Min: cmin, Max: cmax, Step: cstep}
	return nil
}

func (sv *StateVariable) SetAllowedValues(values ...interface{}) error {
	cast := make([]interface{}, len(values))
	for i, v := range values {
		cv, err := sv.dataType.Cast(v)
		if err != nil {
			return fmt.Errorf("model: allowed value for %s: %w", sv.name, err)
		}
		cast[i] = cv
	}
	sv.allowedValues = cast
	return nil
}

// IsValidValue validates v against the type, range and allowed-value
// constraints, in that order, mirroring the builder's own validation.
func (sv *StateVariable) IsValidValue(v interface{}) (interface{}, error) {
	cv, err := sv.dataType.Cast(v)
	if err != nil {
		return nil, err
	}
	if sv.valueRange != nil {
		if !inRange(cv, sv.valueRange) {
			return nil, fmt.Errorf("model: value %v out of range [%v,%v] for %s", cv, sv.valueRange.Min, sv.valueRange.Max, sv.name)
		}
	}
	if len(sv.allowedValues) > 0 {
		allowed := false
		for _, a := range sv.allowedValues {
			if reflect.DeepEqual(a, cv) {
				allowed = true
				break
			}
		}
		if !allowed {
			return nil, fmt.Errorf("model: value %v not in allowed list for %s", cv, sv.name)
		}
	}
	return cv, nil
}

func inRange(v interface{}, r *ValueRange) bool {
	minF, ok1 := toFloat(r.Min)
	maxF, ok2 := toFloat(r.Max)
	vF, ok3 := toFloat(v)
	if !ok1 || !ok2 || !ok3 {
		return true
	}
	return vF >= minF && vF <= maxF
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// Value returns the current value under the per-variable lock.
func (sv *StateVariable) Value() interface{} {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	return sv.value
}

// SetValue validates and stores a new value, firing change listeners when
// it differs from the previous one. It fails on an immutable (control
// point) variable.
func (sv *StateVariable) SetValue(v interface{}) error {
	if sv.immutable {
		return fmt.Errorf("model: state variable %s is immutable on this side", sv.name)
	}
	cv, err := sv.IsValidValue(v)
	if err != nil {
		return err
	}
	sv.mu.Lock()
	old := sv.value
	changed := !reflect.DeepEqual(old, cv)
	sv.value = cv
	listeners := sv.listeners
	sv.mu.Unlock()

	if changed {
		for _, l := range listeners {
			l(sv, old, cv)
		}
	}
	return nil
}

// setValueFromEvent is the CP-side counterpart to SetValue: it bypasses
// the immutable guard because it is only ever called from the GENA notify
// handler applying a peer's propertyset.
func (sv *StateVariable) setValueFromEvent(v interface{}) error {
	cv, err := sv.dataType.Cast(v)
	if err != nil {
		return err
	}
	sv.mu.Lock()
	old := sv.value
	changed := !reflect.DeepEqual(old, cv)
	sv.value = cv
	listeners := sv.listeners
	sv.mu.Unlock()

	if changed {
		for _, l := range listeners {
			l(sv, old, cv)
		}
	}
	return nil
}

// ApplyRemoteValue is the CP-side entry point used when applying a
// <e:propertyset> from a NOTIFY.
func (sv *StateVariable) ApplyRemoteValue(v interface{}) error { return sv.setValueFromEvent(v) }

// OnChange registers a listener invoked after each successful value change.
func (sv *StateVariable) OnChange(l ChangeListener) {
	sv.mu.Lock()
	sv.listeners = append(sv.listeners, l)
	sv.mu.Unlock()
}

// ToXMLElement renders the SCPD <stateVariable> element.
func (sv *StateVariable) ToXMLElement() *etree.Element {
	elem := etree.NewElement("stateVariable")
	switch sv.eventing {
	case EventingNone:
		elem.CreateAttr("sendEvents", "no")
	default:
		elem.CreateAttr("sendEvents", "yes")
	}
	if sv.eventing == EventingUnicastAndMulticast {
		elem.CreateAttr("multicast", "yes")
	}

	elem.CreateElement("name").SetText(sv.name)
	elem.CreateElement("dataType").SetText(sv.dataType.String())

	if sv.defaultValue != nil {
		elem.CreateElement("defaultValue").SetText(sv.dataType.Format(sv.defaultValue))
	}

	if sv.valueRange != nil {
		r := elem.CreateElement("allowedValueRange")
		r.CreateElement("minimum").SetText(sv.dataType.Format(sv.valueRange.Min))
		r.CreateElement("maximum").SetText(sv.dataType.Format(sv.valueRange.Max))
		if sv.valueRange.Step != nil {
			r.CreateElement("step").SetText(sv.dataType.Format(sv.valueRange.Step))
		}
	}

	if len(sv.allowedValues) > 0 {
		list := elem.CreateElement("allowedValueList")
		for _, v := range sv.allowedValues {
			list.CreateElement("allowedValue").SetText(sv.dataType.Format(v))
		}
	}

	return elem
}
