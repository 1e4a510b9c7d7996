package security

import (
	"reflect"

	"chargepoint/ocpp"
)

const InstallCertificateFeatureName = "InstallCertificate"

type CertificateUse string

const (
	CertificateUseCentralSystemRootCertificate CertificateUse = "CentralSystemRootCertificate"
	CertificateUseManufacturerRootCertificate  CertificateUse = "ManufacturerRootCertificate"
)

type InstallCertificateRequest struct {
	CertificateType CertificateUse `json:"certificateType" validate:"required,oneof=CentralSystemRootCertificate ManufacturerRootCertificate"`
	Certificate     string         `json:"certificate" validate:"required"`
}

func (r InstallCertificateRequest) GetFeatureName() string { return InstallCertificateFeatureName }

type InstallCertificateStatus string

const (
	InstallCertificateStatusAccepted InstallCertificateStatus = "Accepted"
	InstallCertificateStatusFailed   InstallCertificateStatus = "Failed"
	InstallCertificateStatusRejected InstallCertificateStatus = "Rejected"
)

type InstallCertificateResponse struct {
	Status InstallCertificateStatus `json:"status" validate:"required,oneof=Accepted Failed Rejected"`
}

func (c InstallCertificateResponse) GetFeatureName() string { return InstallCertificateFeatureName }

func NewInstallCertificateResponse(status InstallCertificateStatus) *InstallCertificateResponse {
	return &InstallCertificateResponse{Status: status}
}

type installCertificateFeature struct{}

func (installCertificateFeature) GetFeatureName() string { return InstallCertificateFeatureName }
func (installCertificateFeature) GetRequestType() reflect.Type {
	return reflect.TypeOf(InstallCertificateRequest{})
}
func (installCertificateFeature) GetResponseType() reflect.Type {
	return reflect.TypeOf(InstallCertificateResponse{})
}

func init() { ocpp.Supported.Register(installCertificateFeature{}) }
