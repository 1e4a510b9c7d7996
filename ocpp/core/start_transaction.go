package core

import (
	"reflect"

	"chargepoint/ocpp"
	"chargepoint/ocpp/types"
)

const StartTransactionFeatureName = "StartTransaction"

type StartTransactionRequest struct {
	ConnectorId   int             `json:"connectorId" validate:"gt=0"`
	IdTag         string          `json:"idTag" validate:"required,max=20"`
	MeterStart    int             `json:"meterStart" validate:"gte=0"`
	ReservationId *int            `json:"reservationId,omitempty"`
	Timestamp     *types.DateTime `json:"timestamp" validate:"required"`
}

func (r StartTransactionRequest) GetFeatureName() string { return StartTransactionFeatureName }

func NewStartTransactionRequest(connectorId int, idTag string, meterStart int, timestamp *types.DateTime) *StartTransactionRequest {
	return &StartTransactionRequest{ConnectorId: connectorId, IdTag: idTag, MeterStart: meterStart, Timestamp: timestamp}
}

type StartTransactionResponse struct {
	IdTagInfo     *types.IdTagInfo `json:"idTagInfo" validate:"required"`
	TransactionId int              `json:"transactionId"`
}

func (c StartTransactionResponse) GetFeatureName() string { return StartTransactionFeatureName }

func NewStartTransactionResponse(idTagInfo *types.IdTagInfo, transactionId int) *StartTransactionResponse {
	return &StartTransactionResponse{IdTagInfo: idTagInfo, TransactionId: transactionId}
}

type startTransactionFeature struct{}

func (startTransactionFeature) GetFeatureName() string { return StartTransactionFeatureName }
func (startTransactionFeature) GetRequestType() reflect.Type {
	return reflect.TypeOf(StartTransactionRequest{})
}
func (startTransactionFeature) GetResponseType() reflect.Type {
	return reflect.TypeOf(StartTransactionResponse{})
}

func init() { ocpp.Supported.Register(startTransactionFeature{}) }
