package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/require"

	"chargepoint/boot"
	"chargepoint/chargepoint"
	"chargepoint/dispatcher"
	"chargepoint/internal/logx"
	"chargepoint/internal/store"
	"chargepoint/ocpp/types"
	"chargepoint/profiles"
	"chargepoint/transport"
)

type fakeRepo struct{}

func (fakeRepo) UpsertTransaction(context.Context, store.TransactionRecord) error { return nil }
func (fakeRepo) GetTransaction(context.Context, string) (*store.TransactionRecord, error) {
	return nil, nil
}
func (fakeRepo) ListUnfinishedTransactions(context.Context) ([]store.TransactionRecord, error) {
	return nil, nil
}
func (fakeRepo) UpsertAuthCacheEntry(context.Context, store.AuthCacheEntry) error { return nil }
func (fakeRepo) GetAuthCacheEntry(context.Context, string) (*store.AuthCacheEntry, error) {
	return nil, nil
}
func (fakeRepo) ClearAuthCache(context.Context) error { return nil }
func (fakeRepo) InsertLocalListEntries(context.Context, int, []store.AuthCacheEntry, bool) error {
	return nil
}
func (fakeRepo) ClearLocalList(context.Context) error             { return nil }
func (fakeRepo) GetLocalListVersion(context.Context) (int, error) { return 0, nil }
func (fakeRepo) GetLocalListEntry(context.Context, string) (*store.AuthCacheEntry, error) {
	return nil, nil
}
func (fakeRepo) UpsertConnectorAvailability(context.Context, store.ConnectorAvailability) error {
	return nil
}
func (fakeRepo) GetConnectorAvailability(context.Context, int) (*store.ConnectorAvailability, error) {
	return nil, nil
}
func (fakeRepo) ListConnectorAvailability(context.Context) ([]store.ConnectorAvailability, error) {
	return nil, nil
}
func (fakeRepo) InsertChargingProfile(context.Context, store.ChargingProfileRecord) error {
	return nil
}
func (fakeRepo) DeleteChargingProfile(context.Context, int) error { return nil }
func (fakeRepo) ListChargingProfiles(context.Context) ([]store.ChargingProfileRecord, error) {
	return nil, nil
}
func (fakeRepo) GetConnectorForProfile(context.Context, int) (int, error) { return 0, nil }

func newTestChargePoint(t *testing.T) *chargepoint.ChargePoint {
	cfg := chargepoint.Config{
		Identity:                 boot.Identity{Vendor: "Acme", Model: "X1"},
		ConnectorIds:             []int{1},
		MeterValueSampleInterval: time.Minute,
		ProfileLimits: profiles.Limits{
			MaxStackLevel:         10,
			MaxProfilesInstalled:  20,
			MaxSchedulePeriods:    24,
			AllowedRateUnits:      []types.ChargingRateUnitType{types.ChargingRateUnitWatts},
			DefaultNumberOfPhases: 3,
		},
		TransactionMessageAttempts:      3,
		TransactionMessageRetryInterval: time.Second,
		Transport: transport.Config{
			Endpoint:      "wss://cs.example.test/ocpp",
			ChargePointId: "cp-1",
		},
	}
	cp := chargepoint.New(cfg, fakeRepo{}, logx.New(), nil, dispatcher.Callbacks{})
	require.NotNil(t, cp)
	return cp
}

func newTestRouter(t *testing.T) *httprouter.Router {
	router := httprouter.New()
	NewHandler(newTestChargePoint(t), logx.New()).Register(router)
	return router
}

func TestHandleStatusListsEveryConnector(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var out []connectorStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	require.Len(t, out, 2)
}

func TestHandleConnectorReturnsState(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/connectors/1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var out connectorStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	require.Equal(t, 1, out.Id)
	require.Equal(t, "Available", out.State)
}

func TestHandleConnectorUnknownIdReturns404(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/connectors/99", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleMetricsServesPrometheusFormat(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
}
