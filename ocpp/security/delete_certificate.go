package security

import (
	"reflect"

	"chargepoint/ocpp"
)

const DeleteCertificateFeatureName = "DeleteCertificate"

type CertificateHashData struct {
	HashAlgorithm  string `json:"hashAlgorithm" validate:"required,oneof=SHA256 SHA384 SHA512"`
	IssuerNameHash string `json:"issuerNameHash" validate:"required,max=128"`
	IssuerKeyHash  string `json:"issuerKeyHash" validate:"required,max=128"`
	SerialNumber   string `json:"serialNumber" validate:"required,max=40"`
}

type DeleteCertificateRequest struct {
	CertificateHashData CertificateHashData `json:"certificateHashData" validate:"required"`
}

func (r DeleteCertificateRequest) GetFeatureName() string { return DeleteCertificateFeatureName }

type DeleteCertificateStatus string

const (
	DeleteCertificateStatusAccepted     DeleteCertificateStatus = "Accepted"
	DeleteCertificateStatusFailed       DeleteCertificateStatus = "Failed"
	DeleteCertificateStatusNotFound     DeleteCertificateStatus = "NotFound"
)

type DeleteCertificateResponse struct {
	Status DeleteCertificateStatus `json:"status" validate:"required,oneof=Accepted Failed NotFound"`
}

func (c DeleteCertificateResponse) GetFeatureName() string { return DeleteCertificateFeatureName }

func NewDeleteCertificateResponse(status DeleteCertificateStatus) *DeleteCertificateResponse {
	return &DeleteCertificateResponse{Status: status}
}

type deleteCertificateFeature struct{}

func (deleteCertificateFeature) GetFeatureName() string { return DeleteCertificateFeatureName }
func (deleteCertificateFeature) GetRequestType() reflect.Type {
	return reflect.TypeOf(DeleteCertificateRequest{})
}
func (deleteCertificateFeature) GetResponseType() reflect.Type {
	return reflect.TypeOf(DeleteCertificateResponse{})
}

func init() { ocpp.Supported.Register(deleteCertificateFeature{}) }
