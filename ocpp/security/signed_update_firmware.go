package security

import (
	"reflect"

	"chargepoint/ocpp"
	"chargepoint/ocpp/types"
)

const SignedUpdateFirmwareFeatureName = "SignedUpdateFirmware"

type FirmwareSigned struct {
	Location           string          `json:"location" validate:"required,uri"`
	RetrieveDateTime   *types.DateTime `json:"retrieveDateTime" validate:"required"`
	InstallDateTime    *types.DateTime `json:"installDateTime,omitempty"`
	SigningCertificate string          `json:"signingCertificate" validate:"required"`
	Signature          string          `json:"signature" validate:"required"`
}

type SignedUpdateFirmwareRequest struct {
	Retries       *int           `json:"retries,omitempty" validate:"omitempty,gte=0"`
	RetryInterval *int           `json:"retryInterval,omitempty" validate:"omitempty,gte=0"`
	RequestId     int            `json:"requestId"`
	Firmware      FirmwareSigned `json:"firmware" validate:"required"`
}

func (r SignedUpdateFirmwareRequest) GetFeatureName() string { return SignedUpdateFirmwareFeatureName }

type UpdateFirmwareStatus string

const (
	UpdateFirmwareStatusAccepted             UpdateFirmwareStatus = "Accepted"
	UpdateFirmwareStatusRejected             UpdateFirmwareStatus = "Rejected"
	UpdateFirmwareStatusAcceptedCanceled     UpdateFirmwareStatus = "AcceptedCanceled"
	UpdateFirmwareStatusInvalidCertificate   UpdateFirmwareStatus = "InvalidCertificate"
	UpdateFirmwareStatusRevokedCertificate   UpdateFirmwareStatus = "RevokedCertificate"
)

type SignedUpdateFirmwareResponse struct {
	Status UpdateFirmwareStatus `json:"status" validate:"required,oneof=Accepted Rejected AcceptedCanceled InvalidCertificate RevokedCertificate"`
}

func (c SignedUpdateFirmwareResponse) GetFeatureName() string { return SignedUpdateFirmwareFeatureName }

func NewSignedUpdateFirmwareResponse(status UpdateFirmwareStatus) *SignedUpdateFirmwareResponse {
	return &SignedUpdateFirmwareResponse{Status: status}
}

type signedUpdateFirmwareFeature struct{}

func (signedUpdateFirmwareFeature) GetFeatureName() string { return SignedUpdateFirmwareFeatureName }
func (signedUpdateFirmwareFeature) GetRequestType() reflect.Type {
	return reflect.TypeOf(SignedUpdateFirmwareRequest{})
}
func (signedUpdateFirmwareFeature) GetResponseType() reflect.Type {
	return reflect.TypeOf(SignedUpdateFirmwareResponse{})
}

func init() { ocpp.Supported.Register(signedUpdateFirmwareFeature{}) }
