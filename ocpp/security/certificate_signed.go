// Package security implements the OCPP 1.6J Security Whitepaper
// extension actions layered on top of Core: certificate lifecycle
// management, the security-relevant event log, and the signed
// firmware/log variants of the plain Firmware Management messages.
// Grounded on EVerest's charge_point.cpp handleCertificateSignedRequest,
// handleInstallCertificateRequest and securityEventNotification, which
// gate each certificate operation on a SecurityEventNotification when
// validation fails.
package security

import (
	"reflect"

	"chargepoint/ocpp"
)

const CertificateSignedFeatureName = "CertificateSigned"

type CertificateSignedRequest struct {
	CertificateChain string `json:"certificateChain" validate:"required"`
}

func (r CertificateSignedRequest) GetFeatureName() string { return CertificateSignedFeatureName }

type CertificateSignedStatus string

const (
	CertificateSignedStatusAccepted CertificateSignedStatus = "Accepted"
	CertificateSignedStatusRejected CertificateSignedStatus = "Rejected"
)

type CertificateSignedResponse struct {
	Status CertificateSignedStatus `json:"status" validate:"required,oneof=Accepted Rejected"`
}

func (c CertificateSignedResponse) GetFeatureName() string { return CertificateSignedFeatureName }

func NewCertificateSignedResponse(status CertificateSignedStatus) *CertificateSignedResponse {
	return &CertificateSignedResponse{Status: status}
}

type certificateSignedFeature struct{}

func (certificateSignedFeature) GetFeatureName() string { return CertificateSignedFeatureName }
func (certificateSignedFeature) GetRequestType() reflect.Type {
	return reflect.TypeOf(CertificateSignedRequest{})
}
func (certificateSignedFeature) GetResponseType() reflect.Type {
	return reflect.TypeOf(CertificateSignedResponse{})
}

func init() { ocpp.Supported.Register(certificateSignedFeature{}) }
