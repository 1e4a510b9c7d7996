// Package localauth implements the OCPP 1.6J Local Auth List
// Management Profile: the charge point's cached idTag whitelist, used
// to authorize a transaction while the connection to the Central
// System is down.
package localauth

import (
	"reflect"

	"chargepoint/ocpp"
	"chargepoint/ocpp/types"
)

const SendLocalListFeatureName = "SendLocalList"

type UpdateType string
type UpdateStatus string

const (
	UpdateTypeDifferential      UpdateType   = "Differential"
	UpdateTypeFull              UpdateType   = "Full"
	UpdateStatusAccepted        UpdateStatus = "Accepted"
	UpdateStatusFailed          UpdateStatus = "Failed"
	UpdateStatusNotSupported    UpdateStatus = "NotSupported"
	UpdateStatusVersionMismatch UpdateStatus = "VersionMismatch"
)

type AuthorizationData struct {
	IdTag     string           `json:"idTag" validate:"required,max=20"`
	IdTagInfo *types.IdTagInfo `json:"idTagInfo,omitempty"`
}

type SendLocalListRequest struct {
	ListVersion            int                 `json:"listVersion" validate:"gte=0"`
	LocalAuthorizationList []AuthorizationData `json:"localAuthorizationList,omitempty" validate:"omitempty,dive"`
	UpdateType             UpdateType          `json:"updateType" validate:"required,oneof=Differential Full"`
}

func (r SendLocalListRequest) GetFeatureName() string { return SendLocalListFeatureName }

func NewSendLocalListRequest(version int, updateType UpdateType) *SendLocalListRequest {
	return &SendLocalListRequest{ListVersion: version, UpdateType: updateType}
}

type SendLocalListResponse struct {
	Status UpdateStatus `json:"status" validate:"required,oneof=Accepted Failed NotSupported VersionMismatch"`
}

func (c SendLocalListResponse) GetFeatureName() string { return SendLocalListFeatureName }

func NewSendLocalListResponse(status UpdateStatus) *SendLocalListResponse {
	return &SendLocalListResponse{Status: status}
}

type sendLocalListFeature struct{}

func (sendLocalListFeature) GetFeatureName() string { return SendLocalListFeatureName }
func (sendLocalListFeature) GetRequestType() reflect.Type {
	return reflect.TypeOf(SendLocalListRequest{})
}
func (sendLocalListFeature) GetResponseType() reflect.Type {
	return reflect.TypeOf(SendLocalListResponse{})
}

func init() { ocpp.Supported.Register(sendLocalListFeature{}) }
