package security

import (
	"reflect"

	"chargepoint/ocpp"
)

const SignCertificateFeatureName = "SignCertificate"

// SignCertificateRequest is CP-initiated: the charge point sends its
// own CSR up to the Central System to request a signed replacement.
type SignCertificateRequest struct {
	Csr string `json:"csr" validate:"required"`
}

func (r SignCertificateRequest) GetFeatureName() string { return SignCertificateFeatureName }

func NewSignCertificateRequest(csr string) *SignCertificateRequest {
	return &SignCertificateRequest{Csr: csr}
}

type GenericStatus string

const (
	GenericStatusAccepted GenericStatus = "Accepted"
	GenericStatusRejected GenericStatus = "Rejected"
)

type SignCertificateResponse struct {
	Status GenericStatus `json:"status" validate:"required,oneof=Accepted Rejected"`
}

func (c SignCertificateResponse) GetFeatureName() string { return SignCertificateFeatureName }

type signCertificateFeature struct{}

func (signCertificateFeature) GetFeatureName() string { return SignCertificateFeatureName }
func (signCertificateFeature) GetRequestType() reflect.Type {
	return reflect.TypeOf(SignCertificateRequest{})
}
func (signCertificateFeature) GetResponseType() reflect.Type {
	return reflect.TypeOf(SignCertificateResponse{})
}

func init() { ocpp.Supported.Register(signCertificateFeature{}) }
