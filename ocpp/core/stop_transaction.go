package core

import (
	"reflect"

	"chargepoint/ocpp"
	"chargepoint/ocpp/types"
)

const StopTransactionFeatureName = "StopTransaction"

// Reason is the StopTransaction.reason vocabulary the Transaction
// Manager maps its internal stop causes onto.
type Reason string

const (
	ReasonDeAuthorized   Reason = "DeAuthorized"
	ReasonEmergencyStop  Reason = "EmergencyStop"
	ReasonEVDisconnected Reason = "EVDisconnected"
	ReasonHardReset      Reason = "HardReset"
	ReasonLocal          Reason = "Local"
	ReasonOther          Reason = "Other"
	ReasonPowerLoss      Reason = "PowerLoss"
	ReasonReboot         Reason = "Reboot"
	ReasonRemote         Reason = "Remote"
	ReasonSoftReset      Reason = "SoftReset"
	ReasonUnlockCommand  Reason = "UnlockCommand"
)

type StopTransactionRequest struct {
	IdTag           string             `json:"idTag,omitempty" validate:"omitempty,max=20"`
	MeterStop       int                `json:"meterStop"`
	Timestamp       *types.DateTime    `json:"timestamp" validate:"required"`
	TransactionId   int                `json:"transactionId"`
	Reason          Reason             `json:"reason,omitempty" validate:"omitempty,oneof=DeAuthorized EmergencyStop EVDisconnected HardReset Local Other PowerLoss Reboot Remote SoftReset UnlockCommand"`
	TransactionData []types.MeterValue `json:"transactionData,omitempty" validate:"omitempty,dive"`
}

func (r StopTransactionRequest) GetFeatureName() string { return StopTransactionFeatureName }

func NewStopTransactionRequest(transactionId, meterStop int, timestamp *types.DateTime, reason Reason) *StopTransactionRequest {
	return &StopTransactionRequest{TransactionId: transactionId, MeterStop: meterStop, Timestamp: timestamp, Reason: reason}
}

type StopTransactionResponse struct {
	IdTagInfo *types.IdTagInfo `json:"idTagInfo,omitempty"`
}

func (c StopTransactionResponse) GetFeatureName() string { return StopTransactionFeatureName }

func NewStopTransactionResponse() *StopTransactionResponse { return &StopTransactionResponse{} }

type stopTransactionFeature struct{}

func (stopTransactionFeature) GetFeatureName() string { return StopTransactionFeatureName }
func (stopTransactionFeature) GetRequestType() reflect.Type {
	return reflect.TypeOf(StopTransactionRequest{})
}
func (stopTransactionFeature) GetResponseType() reflect.Type {
	return reflect.TypeOf(StopTransactionResponse{})
}

func init() { ocpp.Supported.Register(stopTransactionFeature{}) }
