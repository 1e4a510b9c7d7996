package core

import (
	"reflect"

	"chargepoint/ocpp"
	"chargepoint/ocpp/types"
)

const RemoteStopTransactionFeatureName = "RemoteStopTransaction"

type RemoteStopTransactionRequest struct {
	TransactionId int `json:"transactionId"`
}

func (r RemoteStopTransactionRequest) GetFeatureName() string { return RemoteStopTransactionFeatureName }

func NewRemoteStopTransactionRequest(transactionId int) *RemoteStopTransactionRequest {
	return &RemoteStopTransactionRequest{TransactionId: transactionId}
}

type RemoteStopTransactionResponse struct {
	Status types.RemoteStartStopStatus `json:"status" validate:"required,oneof=Accepted Rejected"`
}

func (c RemoteStopTransactionResponse) GetFeatureName() string {
	return RemoteStopTransactionFeatureName
}

func NewRemoteStopTransactionResponse(status types.RemoteStartStopStatus) *RemoteStopTransactionResponse {
	return &RemoteStopTransactionResponse{Status: status}
}

type remoteStopTransactionFeature struct{}

func (remoteStopTransactionFeature) GetFeatureName() string { return RemoteStopTransactionFeatureName }
func (remoteStopTransactionFeature) GetRequestType() reflect.Type {
	return reflect.TypeOf(RemoteStopTransactionRequest{})
}
func (remoteStopTransactionFeature) GetResponseType() reflect.Type {
	return reflect.TypeOf(RemoteStopTransactionResponse{})
}

func init() { ocpp.Supported.Register(remoteStopTransactionFeature{}) }
