// Package ocpp holds the wire-level primitives shared by every
// feature-profile subpackage (core, firmware, localauth,
// remotetrigger, reservation, smartcharging, security): the
// Request/Response/Feature interfaces and the CALL/CALLRESULT/CALLERROR
// JSON-array envelope, generalized from the teacher's
// server/message.go (which only ever decoded inbound CALLs, since the
// teacher spoke the Central System role) to also encode outbound
// CALLs and decode inbound CALLRESULT/CALLERROR, since a charge point
// is a full peer in both directions.
package ocpp

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Request is an OCPP request payload, in either direction.
type Request interface {
	GetFeatureName() string
}

// Response is an OCPP response (confirmation) payload.
type Response interface {
	GetFeatureName() string
}

// Feature describes one OCPP action: its name and the concrete Go
// types of its request/response pair, used to reflect.New a typed
// value while decoding a raw JSON array element.
type Feature interface {
	GetFeatureName() string
	GetRequestType() reflect.Type
	GetResponseType() reflect.Type
}

// MessageTypeId is the first element of every OCPP-J frame.
type MessageTypeId int

const (
	CALL       MessageTypeId = 2
	CALLRESULT MessageTypeId = 3
	CALLERROR  MessageTypeId = 4
)

// ErrorCode enumerates the OCPP-J CALLERROR codes (OCPP 1.6J Part 4
// Appendix A).
type ErrorCode string

const (
	NotImplemented                ErrorCode = "NotImplemented"
	NotSupported                  ErrorCode = "NotSupported"
	InternalError                 ErrorCode = "InternalError"
	ProtocolError                 ErrorCode = "ProtocolError"
	SecurityError                 ErrorCode = "SecurityError"
	FormationViolation            ErrorCode = "FormationViolation"
	PropertyConstraintViolation   ErrorCode = "PropertyConstraintViolation"
	OccurrenceConstraintViolation ErrorCode = "OccurenceConstraintViolation"
	TypeConstraintViolation       ErrorCode = "TypeConstraintViolation"
	GenericError                  ErrorCode = "GenericError"
)

// Call is an outbound or inbound OCPP-J request frame:
// [2, uniqueId, action, payload].
type Call struct {
	UniqueId string
	Action   string
	Payload  Request
}

func (c *Call) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{int(CALL), c.UniqueId, c.Action, c.Payload})
}

// CallResult is a [3, uniqueId, payload] frame.
type CallResult struct {
	UniqueId string
	Payload  Response
}

func (c *CallResult) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{int(CALLRESULT), c.UniqueId, c.Payload})
}

// CallError is a [4, uniqueId, errorCode, errorDescription, errorDetails] frame.
type CallError struct {
	UniqueId         string
	ErrorCode        ErrorCode
	ErrorDescription string
	ErrorDetails     interface{}
}

func (c *CallError) MarshalJSON() ([]byte, error) {
	details := c.ErrorDetails
	if details == nil {
		details = struct{}{}
	}
	return json.Marshal([]interface{}{int(CALLERROR), c.UniqueId, c.ErrorCode, c.ErrorDescription, details})
}

// Registry maps an action name to its Feature descriptor. Each
// profile package registers its features in an init() function, the
// way the teacher scattered *Feature{} literals per message file but
// centralized here so the dispatcher can decode any supported action
// without importing every profile package's internals.
type Registry struct {
	features map[string]Feature
}

func NewRegistry() *Registry {
	return &Registry{features: make(map[string]Feature)}
}

func (r *Registry) Register(f Feature) {
	r.features[f.GetFeatureName()] = f
}

func (r *Registry) Lookup(action string) (Feature, bool) {
	f, ok := r.features[action]
	return f, ok
}

// Supported is the process-wide registry populated by every profile
// package's init(). It is read-only after program start (all
// registrations happen before ChargePoint.Start is called), so no
// synchronization is needed.
var Supported = NewRegistry()

// DecodeRequest decodes a raw JSON payload into the concrete request
// type registered for action.
func DecodeRequest(action string, raw json.RawMessage) (Request, error) {
	feature, ok := Supported.Lookup(action)
	if !ok {
		return nil, fmt.Errorf("unsupported action: %s", action)
	}
	value := reflect.New(feature.GetRequestType())
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, value.Interface()); err != nil {
			return nil, err
		}
	}
	req, ok := value.Interface().(Request)
	if !ok {
		return nil, fmt.Errorf("action %s request type does not implement Request", action)
	}
	return req, nil
}

// DecodeResponse decodes a raw JSON payload into the concrete
// response type registered for action, used when correlating an
// inbound CALLRESULT with the action of the Call it answers.
func DecodeResponse(action string, raw json.RawMessage) (Response, error) {
	feature, ok := Supported.Lookup(action)
	if !ok {
		return nil, fmt.Errorf("unsupported action: %s", action)
	}
	value := reflect.New(feature.GetResponseType())
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, value.Interface()); err != nil {
			return nil, err
		}
	}
	resp, ok := value.Interface().(Response)
	if !ok {
		return nil, fmt.Errorf("action %s response type does not implement Response", action)
	}
	return resp, nil
}

// ParseFrame classifies a raw inbound JSON array frame.
type Frame struct {
	TypeId           MessageTypeId
	UniqueId         string
	Action           string          // CALL only
	Payload          json.RawMessage // CALL/CALLRESULT
	ErrorCode        ErrorCode       // CALLERROR only
	ErrorDescription string          // CALLERROR only
	ErrorDetails     json.RawMessage // CALLERROR only
}

func ParseFrame(data []byte) (*Frame, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}
	if len(raw) < 3 {
		return nil, fmt.Errorf("malformed frame: expected at least 3 elements, got %d", len(raw))
	}
	var typeId int
	if err := json.Unmarshal(raw[0], &typeId); err != nil {
		return nil, fmt.Errorf("malformed frame: invalid message type id")
	}
	var uniqueId string
	if err := json.Unmarshal(raw[1], &uniqueId); err != nil {
		return nil, fmt.Errorf("malformed frame: invalid unique id")
	}
	frame := &Frame{TypeId: MessageTypeId(typeId), UniqueId: uniqueId}
	switch frame.TypeId {
	case CALL:
		if len(raw) != 4 {
			return nil, fmt.Errorf("malformed CALL: expected 4 elements, got %d", len(raw))
		}
		if err := json.Unmarshal(raw[2], &frame.Action); err != nil {
			return nil, fmt.Errorf("malformed CALL: invalid action")
		}
		frame.Payload = raw[3]
	case CALLRESULT:
		if len(raw) != 3 {
			return nil, fmt.Errorf("malformed CALLRESULT: expected 3 elements, got %d", len(raw))
		}
		frame.Payload = raw[2]
	case CALLERROR:
		if len(raw) < 4 {
			return nil, fmt.Errorf("malformed CALLERROR: expected at least 4 elements, got %d", len(raw))
		}
		if err := json.Unmarshal(raw[2], &frame.ErrorCode); err != nil {
			return nil, fmt.Errorf("malformed CALLERROR: invalid error code")
		}
		_ = json.Unmarshal(raw[3], &frame.ErrorDescription)
		if len(raw) >= 5 {
			frame.ErrorDetails = raw[4]
		}
	default:
		return nil, fmt.Errorf("unknown message type id: %d", typeId)
	}
	return frame, nil
}
