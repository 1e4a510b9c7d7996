package security

import (
	"reflect"

	"chargepoint/ocpp"
)

const ExtendedTriggerMessageFeatureName = "ExtendedTriggerMessage"

// MessageTriggerExtended adds the security-profile message targets
// (sign-certificate flow, signed-firmware and log status) on top of
// remotetrigger's plain MessageTrigger vocabulary. Grounded on
// EVerest's handleExtendedTriggerMessageRequest, which is the only
// trigger handler that can target SignChargePointCertificate.
type MessageTriggerExtended string

const (
	MessageTriggerExtBootNotification                     MessageTriggerExtended = "BootNotification"
	MessageTriggerExtLogStatusNotification                MessageTriggerExtended = "LogStatusNotification"
	MessageTriggerExtFirmwareStatusNotification           MessageTriggerExtended = "FirmwareStatusNotification"
	MessageTriggerExtHeartbeat                            MessageTriggerExtended = "Heartbeat"
	MessageTriggerExtMeterValues                          MessageTriggerExtended = "MeterValues"
	MessageTriggerExtSignChargePointCertificate           MessageTriggerExtended = "SignChargePointCertificate"
	MessageTriggerExtStatusNotification                   MessageTriggerExtended = "StatusNotification"
)

type ExtendedTriggerMessageRequest struct {
	RequestedMessage MessageTriggerExtended `json:"requestedMessage" validate:"required"`
	ConnectorId      *int                   `json:"connectorId,omitempty" validate:"omitempty,gt=0"`
}

func (r ExtendedTriggerMessageRequest) GetFeatureName() string {
	return ExtendedTriggerMessageFeatureName
}

type TriggerMessageStatus string

const (
	TriggerMessageStatusAccepted       TriggerMessageStatus = "Accepted"
	TriggerMessageStatusRejected       TriggerMessageStatus = "Rejected"
	TriggerMessageStatusNotImplemented TriggerMessageStatus = "NotImplemented"
)

type ExtendedTriggerMessageResponse struct {
	Status TriggerMessageStatus `json:"status" validate:"required,oneof=Accepted Rejected NotImplemented"`
}

func (c ExtendedTriggerMessageResponse) GetFeatureName() string {
	return ExtendedTriggerMessageFeatureName
}

func NewExtendedTriggerMessageResponse(status TriggerMessageStatus) *ExtendedTriggerMessageResponse {
	return &ExtendedTriggerMessageResponse{Status: status}
}

type extendedTriggerMessageFeature struct{}

func (extendedTriggerMessageFeature) GetFeatureName() string {
	return ExtendedTriggerMessageFeatureName
}
func (extendedTriggerMessageFeature) GetRequestType() reflect.Type {
	return reflect.TypeOf(ExtendedTriggerMessageRequest{})
}
func (extendedTriggerMessageFeature) GetResponseType() reflect.Type {
	return reflect.TypeOf(ExtendedTriggerMessageResponse{})
}

func init() { ocpp.Supported.Register(extendedTriggerMessageFeature{}) }
