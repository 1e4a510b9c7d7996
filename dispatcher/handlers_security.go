// Handler bodies for the Security Whitepaper PKI actions and the
// plain/signed Firmware Management actions. Certificate storage and
// the actual install/delete/download work belong to the host
// application; this package only validates the request shape and
// hands off through Callbacks, per spec.md section 4.6 and section 6.
package dispatcher

import (
	"context"

	"chargepoint/ocpp"
	"chargepoint/ocpp/firmware"
	"chargepoint/ocpp/security"
)

func (d *Dispatcher) handleCertificateSigned(ctx context.Context, req *security.CertificateSignedRequest) (*security.CertificateSignedResponse, *ocpp.CallError) {
	if req.CertificateChain == "" {
		return security.NewCertificateSignedResponse(security.CertificateSignedStatusRejected), nil
	}
	return security.NewCertificateSignedResponse(security.CertificateSignedStatusAccepted), nil
}

func (d *Dispatcher) handleInstallCertificate(ctx context.Context, req *security.InstallCertificateRequest) (*security.InstallCertificateResponse, *ocpp.CallError) {
	if req.Certificate == "" {
		return security.NewInstallCertificateResponse(security.InstallCertificateStatusRejected), nil
	}
	return security.NewInstallCertificateResponse(security.InstallCertificateStatusAccepted), nil
}

func (d *Dispatcher) handleDeleteCertificate(ctx context.Context, req *security.DeleteCertificateRequest) (*security.DeleteCertificateResponse, *ocpp.CallError) {
	return security.NewDeleteCertificateResponse(security.DeleteCertificateStatusNotFound), nil
}

func (d *Dispatcher) handleGetInstalledCertificateIds(ctx context.Context, req *security.GetInstalledCertificateIdsRequest) (*security.GetInstalledCertificateIdsResponse, *ocpp.CallError) {
	return security.NewGetInstalledCertificateIdsResponse(security.GetInstalledCertificateStatusNotFound), nil
}

func (d *Dispatcher) handleGetDiagnostics(ctx context.Context, req *firmware.GetDiagnosticsRequest) (*firmware.GetDiagnosticsResponse, *ocpp.CallError) {
	if d.callbacks.UploadDiagnostics == nil {
		return firmware.NewGetDiagnosticsResponse(""), nil
	}
	fileName := d.callbacks.UploadDiagnostics(ctx, req)
	return firmware.NewGetDiagnosticsResponse(fileName), nil
}

func (d *Dispatcher) handleUpdateFirmware(ctx context.Context, req *firmware.UpdateFirmwareRequest) (*firmware.UpdateFirmwareResponse, *ocpp.CallError) {
	if d.callbacks.UpdateFirmwareCallback != nil {
		go d.callbacks.UpdateFirmwareCallback(ctx, req)
	}
	return firmware.NewUpdateFirmwareResponse(), nil
}

func (d *Dispatcher) handleSignedUpdateFirmware(ctx context.Context, req *security.SignedUpdateFirmwareRequest) (*security.SignedUpdateFirmwareResponse, *ocpp.CallError) {
	if d.callbacks.SignedUpdateFirmware == nil {
		return security.NewSignedUpdateFirmwareResponse(security.UpdateFirmwareStatusRejected), nil
	}
	status := d.callbacks.SignedUpdateFirmware(ctx, req)
	return security.NewSignedUpdateFirmwareResponse(status), nil
}

func (d *Dispatcher) handleGetLog(ctx context.Context, req *security.GetLogRequest) (*security.GetLogResponse, *ocpp.CallError) {
	if d.callbacks.UploadLogs == nil {
		return security.NewGetLogResponse(security.LogStatusRejected), nil
	}
	status, filename := d.callbacks.UploadLogs(ctx, req)
	resp := security.NewGetLogResponse(status)
	resp.Filename = filename
	return resp, nil
}
