package chargepoint

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chargepoint/boot"
	"chargepoint/connector"
	"chargepoint/dispatcher"
	"chargepoint/internal/logx"
	"chargepoint/internal/store"
	"chargepoint/ocpp/types"
	"chargepoint/profiles"
	"chargepoint/transport"
)

type fakeRepo struct {
	mu   sync.Mutex
	rows map[string]store.TransactionRecord
}

func newFakeRepo() *fakeRepo { return &fakeRepo{rows: make(map[string]store.TransactionRecord)} }

func (r *fakeRepo) UpsertTransaction(ctx context.Context, t store.TransactionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[t.SessionId] = t
	return nil
}
func (r *fakeRepo) GetTransaction(ctx context.Context, sessionId string) (*store.TransactionRecord, error) {
	return nil, nil
}
func (r *fakeRepo) ListUnfinishedTransactions(ctx context.Context) ([]store.TransactionRecord, error) {
	return nil, nil
}
func (r *fakeRepo) UpsertAuthCacheEntry(ctx context.Context, entry store.AuthCacheEntry) error {
	return nil
}
func (r *fakeRepo) GetAuthCacheEntry(ctx context.Context, idTag string) (*store.AuthCacheEntry, error) {
	return nil, nil
}
func (r *fakeRepo) ClearAuthCache(ctx context.Context) error { return nil }
func (r *fakeRepo) InsertLocalListEntries(ctx context.Context, version int, entries []store.AuthCacheEntry, full bool) error {
	return nil
}
func (r *fakeRepo) ClearLocalList(ctx context.Context) error           { return nil }
func (r *fakeRepo) GetLocalListVersion(ctx context.Context) (int, error) { return 0, nil }
func (r *fakeRepo) GetLocalListEntry(ctx context.Context, idTag string) (*store.AuthCacheEntry, error) {
	return nil, nil
}
func (r *fakeRepo) UpsertConnectorAvailability(ctx context.Context, a store.ConnectorAvailability) error {
	return nil
}
func (r *fakeRepo) GetConnectorAvailability(ctx context.Context, connectorId int) (*store.ConnectorAvailability, error) {
	return nil, nil
}
func (r *fakeRepo) ListConnectorAvailability(ctx context.Context) ([]store.ConnectorAvailability, error) {
	return nil, nil
}
func (r *fakeRepo) InsertChargingProfile(ctx context.Context, rec store.ChargingProfileRecord) error {
	return nil
}
func (r *fakeRepo) DeleteChargingProfile(ctx context.Context, profileId int) error { return nil }
func (r *fakeRepo) ListChargingProfiles(ctx context.Context) ([]store.ChargingProfileRecord, error) {
	return nil, nil
}
func (r *fakeRepo) GetConnectorForProfile(ctx context.Context, profileId int) (int, error) {
	return 0, nil
}

func newTestChargePoint(t *testing.T) *ChargePoint {
	cfg := Config{
		Identity:                 boot.Identity{Vendor: "Acme", Model: "X1"},
		ConnectorIds:             []int{1},
		MinimumStatusDuration:    0,
		MeterValueSampleInterval: time.Minute,
		ClockAlignedDataInterval: 0,
		ProfileLimits: profiles.Limits{
			MaxStackLevel:        10,
			MaxProfilesInstalled: 20,
			MaxSchedulePeriods:   24,
			AllowedRateUnits:     []types.ChargingRateUnitType{types.ChargingRateUnitWatts},
			DefaultNumberOfPhases: 3,
		},
		TransactionMessageAttempts:      3,
		TransactionMessageRetryInterval: time.Second,
		Transport: transport.Config{
			Endpoint:      "wss://cs.example.test/ocpp",
			ChargePointId: "cp-1",
		},
	}
	cp := New(cfg, newFakeRepo(), logx.New(), nil, dispatcher.Callbacks{})
	require.NotNil(t, cp)
	return cp
}

func TestNewWiresAllConnectorsAvailable(t *testing.T) {
	cp := newTestChargePoint(t)

	state, ok := cp.ConnectorState(0)
	require.True(t, ok)
	require.Equal(t, connector.Available, state)

	state, ok = cp.ConnectorState(1)
	require.True(t, ok)
	require.Equal(t, connector.Available, state)

	_, ok = cp.ConnectorState(99)
	require.False(t, ok)
}

func TestOnSessionStartedMovesConnectorToPreparing(t *testing.T) {
	cp := newTestChargePoint(t)
	cp.connectors[1].Boot()

	cp.OnSessionStarted(1, "session-1", "EVConnected")

	require.Equal(t, connector.Preparing, cp.connectors[1].State())
}

func TestOnTransactionStartedMovesConnectorToChargingAndCreatesTransaction(t *testing.T) {
	cp := newTestChargePoint(t)
	cp.connectors[1].Boot()
	cp.OnSessionStarted(1, "session-1", "EVConnected")

	cp.OnTransactionStarted(context.Background(), 1, "tag-1", 100, nil)

	require.Equal(t, connector.Charging, cp.connectors[1].State())
	active, ok := cp.tx.Active(1)
	require.True(t, ok)
	require.Equal(t, "tag-1", active.IdTag)
}

func TestOnMeterValuesFeedsSampleConnector(t *testing.T) {
	cp := newTestChargePoint(t)
	sample := types.PowerMeterSample{
		EnergyImportWh: types.PhaseVector{Total: 1234.5},
		PowerW:         types.PhaseVector{Total: 7000},
		CurrentA:       types.PhaseVector{Total: 32},
		VoltageV:       types.PhaseVector{Total: 230},
	}
	cp.OnMeterValues(1, sample)

	samples := cp.sampleConnector(1)
	require.Len(t, samples, 4)
	require.Equal(t, types.MeasurandEnergyActiveImportRegister, samples[0].Measurand)
	require.Equal(t, "1234.500", samples[0].Value)

	require.Nil(t, cp.sampleConnector(2))
}

func TestOnBootedStartsHeartbeatTicker(t *testing.T) {
	cp := newTestChargePoint(t)

	cp.onBooted(30 * time.Second)
	t.Cleanup(cp.heartbeat.Stop)

	require.True(t, cp.heartbeat.Running())
}

func TestAuthorizeIdTokenOfflineUnknownIdRejectedByDefault(t *testing.T) {
	cp := newTestChargePoint(t)

	info := cp.AuthorizeIdToken(context.Background(), "unknown-tag")

	require.NotNil(t, info)
	require.NotEqual(t, types.AuthorizationStatusAccepted, info.Status)
}

func TestGetAllCompositeChargingSchedulesCoversEveryConnector(t *testing.T) {
	cp := newTestChargePoint(t)

	schedules := cp.GetAllCompositeChargingSchedules(3600)

	require.Len(t, schedules, 2)
	_, ok := schedules[0]
	require.True(t, ok)
	_, ok = schedules[1]
	require.True(t, ok)
}
