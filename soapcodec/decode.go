package soapcodec

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/upnpforge/upnpstack/model"
)

// DecodedRequest is an unwrapped SOAP action request: the method's local
// name (the action name) and its argument values in document order.
type DecodedRequest struct {
	ActionName string
	Args       []OrderedArg
}

// DecodeRequest unwraps a SOAP envelope and returns the single method
// element's name and children, in the order they appear on the wire
// (spec §6.4: "children are input args in declared order").
func DecodeRequest(body []byte) (*DecodedRequest, error) {
	dec := xml.NewDecoder(strings.NewReader(string(body)))

	methodName, err := findEnvelopeMethod(dec)
	if err != nil {
		return nil, err
	}

	args, err := decodeFlatChildren(dec)
	if err != nil {
		return nil, err
	}
	return &DecodedRequest{ActionName: methodName, Args: args}, nil
}

// DecodeResponse unwraps "<actionName>Response>" and returns its children.
func DecodeResponse(body []byte) (*DecodedRequest, error) {
	req, err := DecodeRequest(body)
	if err != nil {
		return nil, err
	}
	req.ActionName = strings.TrimSuffix(req.ActionName, "Response")
	return req, nil
}

// findEnvelopeMethod walks down through <Envelope><Body> to the single
// method element and returns its local name, leaving dec positioned to
// read that element's children next.
func findEnvelopeMethod(dec *xml.Decoder) (string, error) {
	depth := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return "", fmt.Errorf("soapcodec: no method element found in envelope")
		}
		if err != nil {
			return "", fmt.Errorf("soapcodec: decoding envelope: %w", err)
		}
		if se, ok := tok.(xml.StartElement); ok {
			depth++
			// Envelope and Body are depth 1 and 2 regardless of prefix;
			// the method element is the first start element at depth 3.
			if depth == 3 {
				return se.Name.Local, nil
			}
		}
	}
}

func decodeFlatChildren(dec *xml.Decoder) ([]OrderedArg, error) {
	var args []OrderedArg
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return args, nil
		}
		if err != nil {
			return nil, fmt.Errorf("soapcodec: decoding arguments: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			var value string
			if err := dec.DecodeElement(&value, &t); err != nil {
				return nil, fmt.Errorf("soapcodec: decoding argument %q: %w", name, err)
			}
			args = append(args, OrderedArg{Name: name, Value: value})
		case xml.EndElement:
			return args, nil
		}
	}
}

// Fault is a decoded SOAP Fault carrying a UPnPError detail.
type Fault struct {
	Code        model.ErrorCode
	Description string
}

// DecodeFault parses a SOAP Fault body for the embedded errorCode and
// errorDescription, scanning token by token since the detail block's
// namespace prefix is not guaranteed by peers.
func DecodeFault(body []byte) (*Fault, error) {
	dec := xml.NewDecoder(strings.NewReader(string(body)))
	var code int
	var description string
	var haveCode bool

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("soapcodec: decoding fault: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "errorCode":
			var s string
			if err := dec.DecodeElement(&s, &se); err == nil {
				fmt.Sscanf(s, "%d", &code)
				haveCode = true
			}
		case "errorDescription":
			dec.DecodeElement(&description, &se)
		}
	}

	if !haveCode {
		return nil, fmt.Errorf("soapcodec: fault has no errorCode")
	}
	return &Fault{Code: model.ErrorCode(code), Description: description}, nil
}
