package core

import (
	"reflect"

	"chargepoint/ocpp"
)

const ChangeConfigurationFeatureName = "ChangeConfiguration"

type ConfigurationStatus string

const (
	ConfigurationStatusAccepted       ConfigurationStatus = "Accepted"
	ConfigurationStatusRejected       ConfigurationStatus = "Rejected"
	ConfigurationStatusRebootRequired ConfigurationStatus = "RebootRequired"
	ConfigurationStatusNotSupported   ConfigurationStatus = "NotSupported"
)

// ChangeConfigurationRequest is sent by the Central System to set one
// configuration key. Dispatched to the runtime configuration store
// described in spec.md section 3, not to internal/config's bootstrap
// settings.
type ChangeConfigurationRequest struct {
	Key   string `json:"key" validate:"required,max=50"`
	Value string `json:"value" validate:"required,max=500"`
}

func (r ChangeConfigurationRequest) GetFeatureName() string { return ChangeConfigurationFeatureName }

type ChangeConfigurationResponse struct {
	Status ConfigurationStatus `json:"status" validate:"required,oneof=Accepted Rejected RebootRequired NotSupported"`
}

func (c ChangeConfigurationResponse) GetFeatureName() string { return ChangeConfigurationFeatureName }

func NewChangeConfigurationResponse(status ConfigurationStatus) *ChangeConfigurationResponse {
	return &ChangeConfigurationResponse{Status: status}
}

type changeConfigurationFeature struct{}

func (changeConfigurationFeature) GetFeatureName() string { return ChangeConfigurationFeatureName }
func (changeConfigurationFeature) GetRequestType() reflect.Type {
	return reflect.TypeOf(ChangeConfigurationRequest{})
}
func (changeConfigurationFeature) GetResponseType() reflect.Type {
	return reflect.TypeOf(ChangeConfigurationResponse{})
}

func init() { ocpp.Supported.Register(changeConfigurationFeature{}) }
