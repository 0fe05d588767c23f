// Package model implements the runtime device object graph: devices,
// services, actions and state variables, along with the eventing
// subscription records attached to them. It owns no transport code; the
// builder package constructs a model from parsed descriptions and the
// host/control packages drive it over the wire.
package model

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DataType is one of the UPnP primitive state-variable types (spec §6.6).
type DataType int

const (
	TypeUnknown DataType = iota
	TypeUI1
	TypeUI2
	TypeUI4
	TypeUI8
	TypeI1
	TypeI2
	TypeI4
	TypeI8
	TypeInt
	TypeR4
	TypeR8
	TypeNumber
	TypeFixed14_4
	TypeChar
	TypeString
	TypeBoolean
	TypeBinBase64
	TypeBinHex
	TypeDate
	TypeDateTime
	TypeDateTimeTZ
	TypeTime
	TypeTimeTZ
	TypeURI
	TypeUUID
)

var typeNames = map[string]DataType{
	"ui1":         TypeUI1,
	"ui2":         TypeUI2,
	"ui4":         TypeUI4,
	"ui8":         TypeUI8,
	"i1":          TypeI1,
	"i2":          TypeI2,
	"i4":          TypeI4,
	"i8":          TypeI8,
	"int":         TypeInt,
	"r4":          TypeR4,
	"r8":          TypeR8,
	"number":      TypeNumber,
	"fixed.14.4":  TypeFixed14_4,
	"char":        TypeChar,
	"string":      TypeString,
	"boolean":     TypeBoolean,
	"bin.base64":  TypeBinBase64,
	"bin.hex":     TypeBinHex,
	"date":        TypeDate,
	"dateTime":    TypeDateTime,
	"dateTime.tz": TypeDateTimeTZ,
	"time":        TypeTime,
	"time.tz":     TypeTimeTZ,
	"uri":         TypeURI,
	"uuid":        TypeUUID,
}

var typeStrings = [...]string{
	"unknown", "ui1", "ui2", "ui4", "ui8", "i1", "i2", "i4", "i8", "int",
	"r4", "r8", "number", "fixed.14.4", "char", "string", "boolean",
	"bin.base64", "bin.hex", "date", "dateTime", "dateTime.tz", "time",
	"time.tz", "uri", "uuid",
}

// ParseDataType maps an SCPD <dataType> element value to a DataType.
func ParseDataType(s string) DataType {
	if t, ok := typeNames[strings.TrimSpace(s)]; ok {
		return t
	}
	return TypeUnknown
}

func (t DataType) String() string {
	if int(t) >= 0 && int(t) < len(typeStrings) {
		return typeStrings[t]
	}
	return "unknown"
}

// IsNumeric reports whether t supports range constraints and arithmetic
// step defaults.
func (t DataType) IsNumeric() bool {
	switch t {
	case TypeUI1, TypeUI2, TypeUI4, TypeUI8, TypeI1, TypeI2, TypeI4, TypeI8,
		TypeInt, TypeR4, TypeR8, TypeNumber, TypeFixed14_4:
		return true
	}
	return false
}

// IsInteger reports whether t is one of the integral UPnP types, used to
// pick the default range step (1 for integers, see spec §4.2).
func (t DataType) IsInteger() bool {
	switch t {
	case TypeUI1, TypeUI2, TypeUI4, TypeUI8, TypeI1, TypeI2, TypeI4, TypeI8, TypeInt:
		return true
	}
	return false
}

// DefaultStep returns the step default documented in spec §4.2: 1 for
// integers, max/10 for reals (capped at 1.0 when that would be 0).
func (t DataType) DefaultStep(max float64) interface{} {
	if t.IsInteger() {
		return int64(1)
	}
	step := max / 10
	if step == 0 {
		step = 1.0
	}
	return step
}

// Cast converts v, typically a string read off the wire or a native Go
// value supplied by application code, into the canonical in-memory
// representation for t.
func (t DataType) Cast(v interface{}) (interface{}, error) {
	switch t {
	case TypeUI1, TypeUI2, TypeUI4, TypeUI8:
		return castUint(v)
	case TypeI1, TypeI2, TypeI4, TypeI8, TypeInt:
		return castInt(v)
	case TypeR4, TypeR8, TypeNumber, TypeFixed14_4:
		return castFloat(v)
	case TypeBoolean:
		return castBool(v)
	case TypeChar, TypeString, TypeURI, TypeUUID:
		return castString(v)
	case TypeBinBase64:
		return castBinary(v, base64.StdEncoding.DecodeString)
	case TypeBinHex:
		return castBinary(v, hex.DecodeString)
	case TypeDate, TypeDateTime, TypeDateTimeTZ, TypeTime, TypeTimeTZ:
		return castTime(t, v)
	default:
		return nil, fmt.Errorf("model: cannot cast value for unknown data type")
	}
}

func castUint(v interface{}) (interface{}, error) {
	switch n := v.(type) {
	case uint64:
		return n, nil
	case int:
		if n < 0 {
			return nil, fmt.Errorf("model: negative value %d for unsigned type", n)
		}
		return uint64(n), nil
	case int64:
		if n < 0 {
			return nil, fmt.Errorf("model: negative value %d for unsigned type", n)
		}
		return uint64(n), nil
	case string:
		n, err := strconv.ParseUint(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("model: %q is not an unsigned integer: %w", v, err)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("model: %v (%T) is not an unsigned integer", v, v)
	}
}

func castInt(v interface{}) (interface{}, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("model: %q is not an integer: %w", v, err)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("model: %v (%T) is not an integer", v, v)
	}
}

func castFloat(v interface{}) (interface{}, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil, fmt.Errorf("model: %q is not a number: %w", v, err)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("model: %v (%T) is not a number", v, v)
	}
}

func castBool(v interface{}) (interface{}, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		switch strings.TrimSpace(b) {
		case "1", "true", "yes":
			return true, nil
		case "0", "false", "no":
			return false, nil
		default:
			return nil, fmt.Errorf("model: %q is not a boolean", v)
		}
	default:
		return nil, fmt.Errorf("model: %v (%T) is not a boolean", v, v)
	}
}

func castString(v interface{}) (interface{}, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

func castBinary(v interface{}, decode func(string) ([]byte, error)) (interface{}, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case string:
		out, err := decode(b)
		if err != nil {
			return nil, fmt.Errorf("model: decoding binary value: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("model: %v (%T) is not binary data", v, v)
	}
}

func castTime(t DataType, v interface{}) (interface{}, error) {
	if tm, ok := v.(time.Time); ok {
		return tm, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("model: %v (%T) is not a time value", v, v)
	}
	layout := timeLayout(t)
	tm, err := time.Parse(layout, s)
	if err != nil {
		return nil, fmt.Errorf("model: %q does not match layout for %s: %w", s, t, err)
	}
	return tm, nil
}

func timeLayout(t DataType) string {
	switch t {
	case TypeDate:
		return "2006-01-02"
	case TypeDateTime:
		return "2006-01-02T15:04:05"
	case TypeDateTimeTZ:
		return time.RFC3339
	case TypeTime:
		return "15:04:05"
	case TypeTimeTZ:
		return "15:04:05Z07:00"
	default:
		return time.RFC3339
	}
}

// Format renders v (already cast to t's canonical representation) as the
// wire string used in SCPD defaults, SOAP bodies and GENA property sets.
func (t DataType) Format(v interface{}) string {
	if v == nil {
		return ""
	}
	switch t {
	case TypeBoolean:
		if b, _ := v.(bool); b {
			return "1"
		}
		return "0"
	case TypeDate, TypeDateTime, TypeDateTimeTZ, TypeTime, TypeTimeTZ:
		if tm, ok := v.(time.Time); ok {
			return tm.Format(timeLayout(t))
		}
	case TypeBinBase64:
		if b, ok := v.([]byte); ok {
			return base64.StdEncoding.EncodeToString(b)
		}
	case TypeBinHex:
		if b, ok := v.([]byte); ok {
			return hex.EncodeToString(b)
		}
	}
	return fmt.Sprintf("%v", v)
}
