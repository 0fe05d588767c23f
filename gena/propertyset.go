// Package gena implements GENA eventing (UDA §4.2): host-side subscription
// bookkeeping and NOTIFY delivery, and a control-point-side subscription
// client and NOTIFY callback handler.
package gena

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/upnpforge/upnpstack/model"
)

const propertysetNS = "urn:schemas-upnp-org:event-1-0"

// EncodePropertySet renders "<e:propertyset>" carrying one <e:property>
// element per state variable, in the order given.
func EncodePropertySet(vars []*model.StateVariable) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="utf-8"?>` + "\n")
	fmt.Fprintf(&buf, `<e:propertyset xmlns:e="%s">`, propertysetNS)
	for _, sv := range vars {
		formatted := sv.DataType().Format(sv.Value())
		var escaped bytes.Buffer
		xml.EscapeText(&escaped, []byte(formatted))
		fmt.Fprintf(&buf, "<e:property><%s>%s</%s></e:property>", sv.Name(), escaped.String(), sv.Name())
	}
	buf.WriteString("</e:propertyset>")
	return buf.Bytes(), nil
}

// DecodedProperty is one name/value pair extracted from a propertyset.
type DecodedProperty struct {
	Name  string
	Value string
}

// DecodePropertySet parses a NOTIFY body's "<e:propertyset>" into ordered
// name/value pairs, independent of namespace prefix.
func DecodePropertySet(body []byte) ([]DecodedProperty, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	var props []DecodedProperty
	depth := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth == 2 && t.Name.Local == "property" {
				prop, err := decodeOneProperty(dec)
				if err != nil {
					return nil, err
				}
				if prop != nil {
					props = append(props, *prop)
				}
			}
		case xml.EndElement:
			depth--
		}
	}
	if props == nil {
		return nil, fmt.Errorf("gena: no properties found in propertyset")
	}
	return props, nil
}

// decodeOneProperty reads the single child element inside one
// <e:property> and its text content.
func decodeOneProperty(dec *xml.Decoder) (*DecodedProperty, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("gena: decoding property: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var value string
			if err := dec.DecodeElement(&value, &t); err != nil {
				return nil, fmt.Errorf("gena: decoding property %q: %w", t.Name.Local, err)
			}
			return &DecodedProperty{Name: t.Name.Local, Value: value}, nil
		case xml.EndElement:
			return nil, nil
		}
	}
}
