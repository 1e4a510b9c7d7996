package core

import (
	"reflect"

	"chargepoint/ocpp"
)

const DataTransferFeatureName = "DataTransfer"

type DataTransferStatus string

const (
	DataTransferStatusAccepted         DataTransferStatus = "Accepted"
	DataTransferStatusRejected         DataTransferStatus = "Rejected"
	DataTransferStatusUnknownMessageId DataTransferStatus = "UnknownMessageId"
	DataTransferStatusUnknownVendorId  DataTransferStatus = "UnknownVendorId"
)

// DataTransferRequest carries a vendor-specific payload. Unlike every
// other Core Profile message it travels in both directions: the
// charge point can originate one (e.g. to report a proprietary
// event) and must also answer one the Central System sends.
type DataTransferRequest struct {
	VendorId  string      `json:"vendorId" validate:"required,max=255"`
	MessageId string      `json:"messageId,omitempty" validate:"omitempty,max=50"`
	Data      interface{} `json:"data,omitempty"`
}

func (r DataTransferRequest) GetFeatureName() string { return DataTransferFeatureName }

func NewDataTransferRequest(vendorId string) *DataTransferRequest {
	return &DataTransferRequest{VendorId: vendorId}
}

type DataTransferResponse struct {
	Status DataTransferStatus `json:"status" validate:"required,oneof=Accepted Rejected UnknownMessageId UnknownVendorId"`
	Data   interface{}        `json:"data,omitempty"`
}

func (c DataTransferResponse) GetFeatureName() string { return DataTransferFeatureName }

func NewDataTransferResponse(status DataTransferStatus) *DataTransferResponse {
	return &DataTransferResponse{Status: status}
}

type dataTransferFeature struct{}

func (dataTransferFeature) GetFeatureName() string { return DataTransferFeatureName }
func (dataTransferFeature) GetRequestType() reflect.Type {
	return reflect.TypeOf(DataTransferRequest{})
}
func (dataTransferFeature) GetResponseType() reflect.Type {
	return reflect.TypeOf(DataTransferResponse{})
}

func init() { ocpp.Supported.Register(dataTransferFeature{}) }
