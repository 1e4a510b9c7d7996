// Handler bodies for the OCPP 1.6J Local Auth List Management
// Profile. Grounded on spec.md section 4.6's version-and-replace rule:
// a Full update replaces the whole list, a Differential one is
// rejected outright if the incoming listVersion does not advance the
// stored one.
package dispatcher

import (
	"context"

	"chargepoint/internal/store"
	"chargepoint/ocpp"
	"chargepoint/ocpp/localauth"
)

func (d *Dispatcher) handleSendLocalList(ctx context.Context, req *localauth.SendLocalListRequest) (*localauth.SendLocalListResponse, *ocpp.CallError) {
	currentVersion, err := d.repo.GetLocalListVersion(ctx)
	if err != nil {
		return localauth.NewSendLocalListResponse(localauth.UpdateStatusFailed), nil
	}
	if req.ListVersion <= currentVersion {
		return localauth.NewSendLocalListResponse(localauth.UpdateStatusVersionMismatch), nil
	}

	entries := make([]store.AuthCacheEntry, 0, len(req.LocalAuthorizationList))
	for _, a := range req.LocalAuthorizationList {
		if a.IdTagInfo == nil {
			continue
		}
		entry := store.AuthCacheEntry{IdTag: a.IdTag, Status: a.IdTagInfo.Status, ParentIdTag: a.IdTagInfo.ParentIdTag}
		if a.IdTagInfo.ExpiryDate != nil {
			t := a.IdTagInfo.ExpiryDate.Time
			entry.ExpiryDate = &t
		}
		entries = append(entries, entry)
	}

	full := req.UpdateType == localauth.UpdateTypeFull
	if err := d.repo.InsertLocalListEntries(ctx, req.ListVersion, entries, full); err != nil {
		return localauth.NewSendLocalListResponse(localauth.UpdateStatusFailed), nil
	}
	return localauth.NewSendLocalListResponse(localauth.UpdateStatusAccepted), nil
}

func (d *Dispatcher) handleGetLocalListVersion(ctx context.Context, req *localauth.GetLocalListVersionRequest) (*localauth.GetLocalListVersionResponse, *ocpp.CallError) {
	version, err := d.repo.GetLocalListVersion(ctx)
	if err != nil {
		version = 0
	}
	return localauth.NewGetLocalListVersionResponse(version), nil
}
