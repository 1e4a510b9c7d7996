package security

import (
	"reflect"

	"chargepoint/ocpp"
	"chargepoint/ocpp/types"
)

const SecurityEventNotificationFeatureName = "SecurityEventNotification"

// SecurityEventType names the security-relevant events the charge
// point reports, per the Security Whitepaper edition 2 event list.
// Only the events the transport and security packages actually raise
// are enumerated; the full whitepaper list is much longer.
type SecurityEventType string

const (
	SecurityEventInvalidChargePointCertificate     SecurityEventType = "InvalidChargePointCertificate"
	SecurityEventInvalidCentralSystemCertificate    SecurityEventType = "InvalidCentralSystemCertificate"
	SecurityEventInvalidFirmwareSigningCertificate SecurityEventType = "InvalidFirmwareSigningCertificate"
	SecurityEventInvalidFirmwareSignature          SecurityEventType = "InvalidFirmwareSignature"
	SecurityEventConnectionLoss                    SecurityEventType = "ConnectionLoss"
	SecurityEventFailedToAuthenticateAtCsms        SecurityEventType = "FailedToAuthenticateAtCsms"
)

type SecurityEventNotificationRequest struct {
	Type      SecurityEventType `json:"type" validate:"required,max=50"`
	Timestamp *types.DateTime   `json:"timestamp" validate:"required"`
	TechInfo  string            `json:"techInfo,omitempty" validate:"omitempty,max=255"`
}

func (r SecurityEventNotificationRequest) GetFeatureName() string {
	return SecurityEventNotificationFeatureName
}

func NewSecurityEventNotificationRequest(eventType SecurityEventType, timestamp *types.DateTime) *SecurityEventNotificationRequest {
	return &SecurityEventNotificationRequest{Type: eventType, Timestamp: timestamp}
}

type SecurityEventNotificationResponse struct{}

func (c SecurityEventNotificationResponse) GetFeatureName() string {
	return SecurityEventNotificationFeatureName
}

func NewSecurityEventNotificationResponse() *SecurityEventNotificationResponse {
	return &SecurityEventNotificationResponse{}
}

type securityEventNotificationFeature struct{}

func (securityEventNotificationFeature) GetFeatureName() string {
	return SecurityEventNotificationFeatureName
}
func (securityEventNotificationFeature) GetRequestType() reflect.Type {
	return reflect.TypeOf(SecurityEventNotificationRequest{})
}
func (securityEventNotificationFeature) GetResponseType() reflect.Type {
	return reflect.TypeOf(SecurityEventNotificationResponse{})
}

func init() { ocpp.Supported.Register(securityEventNotificationFeature{}) }
