package core

import (
	"reflect"

	"chargepoint/ocpp"
	"chargepoint/ocpp/types"
)

const AuthorizeFeatureName = "Authorize"

type AuthorizeRequest struct {
	IdTag string `json:"idTag" validate:"required,max=20"`
}

func (r AuthorizeRequest) GetFeatureName() string { return AuthorizeFeatureName }

func NewAuthorizeRequest(idTag string) *AuthorizeRequest {
	return &AuthorizeRequest{IdTag: idTag}
}

type AuthorizeResponse struct {
	IdTagInfo *types.IdTagInfo `json:"idTagInfo" validate:"required"`
}

func (c AuthorizeResponse) GetFeatureName() string { return AuthorizeFeatureName }

func NewAuthorizeResponse(idTagInfo *types.IdTagInfo) *AuthorizeResponse {
	return &AuthorizeResponse{IdTagInfo: idTagInfo}
}

type authorizeFeature struct{}

func (authorizeFeature) GetFeatureName() string          { return AuthorizeFeatureName }
func (authorizeFeature) GetRequestType() reflect.Type    { return reflect.TypeOf(AuthorizeRequest{}) }
func (authorizeFeature) GetResponseType() reflect.Type   { return reflect.TypeOf(AuthorizeResponse{}) }

func init() { ocpp.Supported.Register(authorizeFeature{}) }
