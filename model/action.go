package model

import (
	"fmt"

	"github.com/beevik/etree"
	"github.com/upnpforge/upnpstack/objectstore"
)

// ArgDirection is the declared direction of an action argument.
type ArgDirection int

const (
	ArgIn ArgDirection = iota
	ArgOut
)

// ActionArgument is one named, typed parameter of an Action.
type ActionArgument struct {
	name          string
	direction     ArgDirection
	relatedStateVar *StateVariable
	isRetval      bool
}

func NewActionArgument(name string, direction ArgDirection, relatedStateVar *StateVariable) *ActionArgument {
	return &ActionArgument{name: name, direction: direction, relatedStateVar: relatedStateVar}
}

func (a *ActionArgument) Name() string                    { return a.name }
func (a *ActionArgument) TypeID() string                  { return "ActionArgument" }
func (a *ActionArgument) Direction() ArgDirection          { return a.direction }
func (a *ActionArgument) RelatedStateVariable() *StateVariable { return a.relatedStateVar }
func (a *ActionArgument) IsRetval() bool                  { return a.isRetval }
func (a *ActionArgument) DataType() DataType               { return a.relatedStateVar.DataType() }

func (a *ActionArgument) ToXMLElement() *etree.Element {
	elem := etree.NewElement("argument")
	elem.CreateElement("name").SetText(a.name)
	if a.direction == ArgIn {
		elem.CreateElement("direction").SetText("in")
	} else {
		elem.CreateElement("direction").SetText("out")
		if a.isRetval {
			elem.CreateElement("retval")
		}
	}
	elem.CreateElement("relatedStateVariable").SetText(a.relatedStateVar.Name())
	return elem
}

// ErrorCode is a standard UPnP action invocation error, spec §4.7.
type ErrorCode int

const (
	ErrSuccess                      ErrorCode = 0
	ErrInvalidArgs                  ErrorCode = 402
	ErrActionFailed                 ErrorCode = 501
	ErrArgumentValueInvalid         ErrorCode = 600
	ErrArgumentValueOutOfRange      ErrorCode = 601
	ErrOptionalActionNotImplemented ErrorCode = 602
	ErrOutOfMemory                  ErrorCode = 603
	ErrHumanInterventionRequired    ErrorCode = 604
	ErrStringArgumentTooLong        ErrorCode = 605
	ErrUndefinedFailure             ErrorCode = -1
)

func (c ErrorCode) Error() string {
	switch c {
	case ErrSuccess:
		return "success"
	case ErrInvalidArgs:
		return "invalid args"
	case ErrActionFailed:
		return "action failed"
	case ErrArgumentValueInvalid:
		return "argument value invalid"
	case ErrArgumentValueOutOfRange:
		return "argument value out of range"
	case ErrOptionalActionNotImplemented:
		return "optional action not implemented"
	case ErrOutOfMemory:
		return "out of memory"
	case ErrHumanInterventionRequired:
		return "human intervention required"
	case ErrStringArgumentTooLong:
		return "string argument too long"
	default:
		return "undefined failure"
	}
}

// ActionError pairs a standard error code with a human-readable description
// for the SOAP Fault detail block.
type ActionError struct {
	Code        ErrorCode
	Description string
}

func (e *ActionError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("%s: %s", e.Code.Error(), e.Description)
	}
	return e.Code.Error()
}

// ArgumentValues maps argument names to their cast values for one
// invocation, in either direction.
type ArgumentValues map[string]interface{}

// Invoker is the callable an Action runs to perform its effect. Host-side
// actions are backed by application code, run through the invoker package's
// pool. Control-point actions carry no Invoker; control.ControlPoint.Invoke
// performs the SOAP call for them directly.
type Invoker func(in ArgumentValues) (out ArgumentValues, err error)

// Action is one named operation of a service, with an ordered input
// argument list followed by an ordered output argument list (the first
// output argument is the retval iff HasRetval is true).
type Action struct {
	name    string
	inArgs  *objectstore.ObjectSet[*ActionArgument]
	outArgs *objectstore.ObjectSet[*ActionArgument]
	retval  bool
	invoke  Invoker
}

func NewAction(name string) *Action {
	return &Action{
		name:    name,
		inArgs:  objectstore.NewObjectSet[*ActionArgument](),
		outArgs: objectstore.NewObjectSet[*ActionArgument](),
	}
}

func (a *Action) Name() string   { return a.name }
func (a *Action) TypeID() string { return "Action" }

// AddInputArgument appends an in-argument. Per spec §3/§4.2, all in-args
// must be declared before any out-args; the builder enforces that by
// calling this before any AddOutputArgument.
func (a *Action) AddInputArgument(arg *ActionArgument) error {
	if arg.direction != ArgIn {
		return fmt.Errorf("model: %s: argument %q is not an in argument", a.name, arg.name)
	}
	return a.inArgs.Insert(arg)
}

// AddOutputArgument appends an out-argument. The first call with retval
// true sets the action's retval flag; a later retval call, or a retval
// call that isn't first, is rejected.
func (a *Action) AddOutputArgument(arg *ActionArgument, retval bool) error {
	if arg.direction != ArgOut {
		return fmt.Errorf("model: %s: argument %q is not an out argument", a.name, arg.name)
	}
	if retval {
		if a.outArgs.Len() != 0 {
			return fmt.Errorf("model: %s: retval argument %q must be the first out argument", a.name, arg.name)
		}
		arg.isRetval = true
		a.retval = true
	}
	return a.outArgs.Insert(arg)
}

func (a *Action) HasRetval() bool { return a.retval }

func (a *Action) InputArguments() []*ActionArgument  { return a.inArgs.Slice() }
func (a *Action) OutputArguments() []*ActionArgument { return a.outArgs.Slice() }

func (a *Action) InputArgument(name string) (*ActionArgument, bool)  { return a.inArgs.Get(name) }
func (a *Action) OutputArgument(name string) (*ActionArgument, bool) { return a.outArgs.Get(name) }

// SetInvoker attaches the callable that performs this action.
func (a *Action) SetInvoker(fn Invoker) { a.invoke = fn }

// Invoke runs the action's callable synchronously. Callers on the host's
// HTTP path and the invoker package's worker pool both go through here;
// concurrency and queuing is the invoker package's concern.
func (a *Action) Invoke(in ArgumentValues) (ArgumentValues, error) {
	if a.invoke == nil {
		return nil, &ActionError{Code: ErrActionFailed, Description: "no invoker registered"}
	}
	return a.invoke(in)
}

func (a *Action) ToXMLElement() *etree.Element {
	elem := etree.NewElement("action")
	elem.CreateElement("name").SetText(a.name)
	argList := elem.CreateElement("argumentList")
	for _, arg := range a.inArgs.Slice() {
		argList.AddChild(arg.ToXMLElement())
	}
	for _, arg := range a.outArgs.Slice() {
		argList.AddChild(arg.ToXMLElement())
	}
	return elem
}
