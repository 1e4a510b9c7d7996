package core

import (
	"reflect"

	"chargepoint/ocpp"
)

const GetConfigurationFeatureName = "GetConfiguration"

// ConfigurationKey describes one key of the runtime configuration
// store returned in a GetConfigurationResponse.
type ConfigurationKey struct {
	Key      string  `json:"key" validate:"required,max=50"`
	Readonly bool    `json:"readonly"`
	Value    *string `json:"value,omitempty" validate:"omitempty,max=500"`
}

type GetConfigurationRequest struct {
	Key []string `json:"key,omitempty" validate:"omitempty,unique,dive,max=50"`
}

func (r GetConfigurationRequest) GetFeatureName() string { return GetConfigurationFeatureName }

func NewGetConfigurationRequest(key []string) *GetConfigurationRequest {
	return &GetConfigurationRequest{Key: key}
}

type GetConfigurationResponse struct {
	ConfigurationKey []ConfigurationKey `json:"configurationKey,omitempty" validate:"omitempty,dive"`
	UnknownKey       []string           `json:"unknownKey,omitempty" validate:"omitempty,dive,max=50"`
}

func (c GetConfigurationResponse) GetFeatureName() string { return GetConfigurationFeatureName }

func NewGetConfigurationResponse(keys []ConfigurationKey, unknown []string) *GetConfigurationResponse {
	return &GetConfigurationResponse{ConfigurationKey: keys, UnknownKey: unknown}
}

type getConfigurationFeature struct{}

func (getConfigurationFeature) GetFeatureName() string { return GetConfigurationFeatureName }
func (getConfigurationFeature) GetRequestType() reflect.Type {
	return reflect.TypeOf(GetConfigurationRequest{})
}
func (getConfigurationFeature) GetResponseType() reflect.Type {
	return reflect.TypeOf(GetConfigurationResponse{})
}

func init() { ocpp.Supported.Register(getConfigurationFeature{}) }
