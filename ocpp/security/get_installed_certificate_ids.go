package security

import (
	"reflect"

	"chargepoint/ocpp"
)

const GetInstalledCertificateIdsFeatureName = "GetInstalledCertificateIds"

type GetInstalledCertificateIdsRequest struct {
	CertificateType CertificateUse `json:"certificateType,omitempty" validate:"omitempty,oneof=CentralSystemRootCertificate ManufacturerRootCertificate"`
}

func (r GetInstalledCertificateIdsRequest) GetFeatureName() string {
	return GetInstalledCertificateIdsFeatureName
}

type GetInstalledCertificateStatus string

const (
	GetInstalledCertificateStatusAccepted GetInstalledCertificateStatus = "Accepted"
	GetInstalledCertificateStatusNotFound GetInstalledCertificateStatus = "NotFound"
)

type CertificateHashDataChain struct {
	CertificateType     CertificateUse        `json:"certificateType" validate:"required"`
	CertificateHashData CertificateHashData   `json:"certificateHashData" validate:"required"`
	ChildCertificateHashData []CertificateHashData `json:"childCertificateHashData,omitempty" validate:"omitempty,max=4,dive"`
}

type GetInstalledCertificateIdsResponse struct {
	Status                   GetInstalledCertificateStatus `json:"status" validate:"required,oneof=Accepted NotFound"`
	CertificateHashDataChain []CertificateHashDataChain    `json:"certificateHashDataChain,omitempty" validate:"omitempty,dive"`
}

func (c GetInstalledCertificateIdsResponse) GetFeatureName() string {
	return GetInstalledCertificateIdsFeatureName
}

func NewGetInstalledCertificateIdsResponse(status GetInstalledCertificateStatus) *GetInstalledCertificateIdsResponse {
	return &GetInstalledCertificateIdsResponse{Status: status}
}

type getInstalledCertificateIdsFeature struct{}

func (getInstalledCertificateIdsFeature) GetFeatureName() string {
	return GetInstalledCertificateIdsFeatureName
}
func (getInstalledCertificateIdsFeature) GetRequestType() reflect.Type {
	return reflect.TypeOf(GetInstalledCertificateIdsRequest{})
}
func (getInstalledCertificateIdsFeature) GetResponseType() reflect.Type {
	return reflect.TypeOf(GetInstalledCertificateIdsResponse{})
}

func init() { ocpp.Supported.Register(getInstalledCertificateIdsFeature{}) }
