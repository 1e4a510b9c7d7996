// Package remotetrigger implements the OCPP 1.6J Remote Trigger
// Profile: a single TriggerMessage action the Central System uses to
// ask the charge point to resend a status message out of its normal
// schedule.
package remotetrigger

import (
	"reflect"

	"chargepoint/ocpp"
)

const TriggerMessageFeatureName = "TriggerMessage"

// MessageTrigger names the action the Central System wants repeated.
// The supplemented ExtendedTriggerMessage vocabulary (SignedFirmwareStatusNotification
// etc) is layered on top by ocpp/security, not here.
type MessageTrigger string

const (
	MessageTriggerBootNotification            MessageTrigger = "BootNotification"
	MessageTriggerDiagnosticsStatusNotification MessageTrigger = "DiagnosticsStatusNotification"
	MessageTriggerFirmwareStatusNotification   MessageTrigger = "FirmwareStatusNotification"
	MessageTriggerHeartbeat                    MessageTrigger = "Heartbeat"
	MessageTriggerMeterValues                  MessageTrigger = "MeterValues"
	MessageTriggerStatusNotification           MessageTrigger = "StatusNotification"
)

type TriggerMessageStatus string

const (
	TriggerMessageStatusAccepted       TriggerMessageStatus = "Accepted"
	TriggerMessageStatusRejected       TriggerMessageStatus = "Rejected"
	TriggerMessageStatusNotImplemented TriggerMessageStatus = "NotImplemented"
)

type TriggerMessageRequest struct {
	RequestedMessage MessageTrigger `json:"requestedMessage" validate:"required"`
	ConnectorId      *int           `json:"connectorId,omitempty" validate:"omitempty,gt=0"`
}

func (r TriggerMessageRequest) GetFeatureName() string { return TriggerMessageFeatureName }

func NewTriggerMessageRequest(requestedMessage MessageTrigger, connectorId int) *TriggerMessageRequest {
	request := &TriggerMessageRequest{RequestedMessage: requestedMessage}
	if connectorId > 0 {
		request.ConnectorId = &connectorId
	}
	return request
}

type TriggerMessageResponse struct {
	Status TriggerMessageStatus `json:"status" validate:"required,oneof=Accepted Rejected NotImplemented"`
}

func (c TriggerMessageResponse) GetFeatureName() string { return TriggerMessageFeatureName }

func NewTriggerMessageResponse(status TriggerMessageStatus) *TriggerMessageResponse {
	return &TriggerMessageResponse{Status: status}
}

type triggerMessageFeature struct{}

func (triggerMessageFeature) GetFeatureName() string { return TriggerMessageFeatureName }
func (triggerMessageFeature) GetRequestType() reflect.Type {
	return reflect.TypeOf(TriggerMessageRequest{})
}
func (triggerMessageFeature) GetResponseType() reflect.Type {
	return reflect.TypeOf(TriggerMessageResponse{})
}

func init() { ocpp.Supported.Register(triggerMessageFeature{}) }
