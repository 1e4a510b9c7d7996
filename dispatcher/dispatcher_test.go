package dispatcher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chargepoint/boot"
	"chargepoint/connector"
	"chargepoint/internal/logx"
	"chargepoint/internal/store"
	"chargepoint/ocpp"
	"chargepoint/ocpp/core"
	"chargepoint/ocpp/localauth"
	"chargepoint/ocpp/reservation"
	"chargepoint/ocpp/types"
	"chargepoint/profiles"
	"chargepoint/queue"
	"chargepoint/transaction"
)

type fakeRepo struct {
	mu          sync.Mutex
	localList   map[string]store.AuthCacheEntry
	authCache   map[string]store.AuthCacheEntry
	listVersion int
	avail       map[int]store.ConnectorAvailability
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		localList: make(map[string]store.AuthCacheEntry),
		authCache: make(map[string]store.AuthCacheEntry),
		avail:     make(map[int]store.ConnectorAvailability),
	}
}

func (r *fakeRepo) UpsertTransaction(ctx context.Context, t store.TransactionRecord) error { return nil }
func (r *fakeRepo) GetTransaction(ctx context.Context, sessionId string) (*store.TransactionRecord, error) {
	return nil, nil
}
func (r *fakeRepo) ListUnfinishedTransactions(ctx context.Context) ([]store.TransactionRecord, error) {
	return nil, nil
}
func (r *fakeRepo) UpsertAuthCacheEntry(ctx context.Context, entry store.AuthCacheEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.authCache[entry.IdTag] = entry
	return nil
}
func (r *fakeRepo) GetAuthCacheEntry(ctx context.Context, idTag string) (*store.AuthCacheEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.authCache[idTag]
	if !ok {
		return nil, nil
	}
	return &e, nil
}
func (r *fakeRepo) ClearAuthCache(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.authCache = make(map[string]store.AuthCacheEntry)
	return nil
}
func (r *fakeRepo) InsertLocalListEntries(ctx context.Context, version int, entries []store.AuthCacheEntry, full bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if full {
		r.localList = make(map[string]store.AuthCacheEntry)
	}
	for _, e := range entries {
		r.localList[e.IdTag] = e
	}
	r.listVersion = version
	return nil
}
func (r *fakeRepo) ClearLocalList(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.localList = make(map[string]store.AuthCacheEntry)
	return nil
}
func (r *fakeRepo) GetLocalListVersion(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listVersion, nil
}
func (r *fakeRepo) GetLocalListEntry(ctx context.Context, idTag string) (*store.AuthCacheEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.localList[idTag]
	if !ok {
		return nil, nil
	}
	return &e, nil
}
func (r *fakeRepo) UpsertConnectorAvailability(ctx context.Context, a store.ConnectorAvailability) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.avail[a.ConnectorId] = a
	return nil
}
func (r *fakeRepo) GetConnectorAvailability(ctx context.Context, connectorId int) (*store.ConnectorAvailability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.avail[connectorId]
	if !ok {
		return nil, nil
	}
	return &a, nil
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

type fakeSender struct {
	mu      sync.Mutex
	results []*ocpp.CallResult
	errors  []*ocpp.CallError
}

func (s *fakeSender) SendResult(ctx context.Context, result *ocpp.CallResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
	return nil
}
func (s *fakeSender) SendError(ctx context.Context, callErr *ocpp.CallError) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, callErr)
	return nil
}

type noopQueueSender struct{}

func (noopQueueSender) Send(ctx context.Context, call *ocpp.Call) error { return nil }

func newTestDispatcher(t *testing.T) (*Dispatcher, *fakeRepo, *fakeSender) {
	repo := newFakeRepo()
	log := logx.New()
	q := queue.New(noopQueueSender{}, log)
	q.Resume()

	conns := map[int]*connector.Connector{
		0: connector.New(0, 0, nil),
		1: connector.New(1, 0, nil),
	}
	conns[0].Boot()
	conns[1].Boot()

	bootMachine := boot.New(boot.Identity{Vendor: "Acme", Model: "X1"}, q, log, nil)
	txMgr := transaction.New(repo, q, log, 0, 0, nil)
	profileStore := profiles.New(profiles.Limits{
		MaxStackLevel:        3,
		MaxProfilesInstalled: 10,
		MaxSchedulePeriods:   10,
		AllowedRateUnits:     []types.ChargingRateUnitType{types.ChargingRateUnitWatts, types.ChargingRateUnitAmperes},
	})

	cfg := NewConfigStore()
	cfg.Define(KeyHeartbeatInterval, "300", false)
	cfg.Define(KeyConnectionTimeout, "60", false)

	sender := &fakeSender{}
	d := New(conns, bootMachine, txMgr, profileStore, q, repo, log, sender, Callbacks{}, cfg)
	return d, repo, sender
}

func TestAuthorizeIdTokenLocalListTakesPrecedence(t *testing.T) {
	d, repo, _ := newTestDispatcher(t)
	ctx := context.Background()

	require.NoError(t, repo.InsertLocalListEntries(ctx, 1, []store.AuthCacheEntry{
		{IdTag: "tag-1", Status: types.AuthorizationStatusAccepted},
	}, true))
	require.NoError(t, repo.UpsertAuthCacheEntry(ctx, store.AuthCacheEntry{
		IdTag: "tag-1", Status: types.AuthorizationStatusBlocked,
	}))

	info := d.AuthorizeIdToken(ctx, "tag-1", true, true, true, false)
	require.Equal(t, types.AuthorizationStatusAccepted, info.Status)
}

func TestAuthorizeIdTokenExpiredCacheEntryIsRewritten(t *testing.T) {
	d, repo, _ := newTestDispatcher(t)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	require.NoError(t, repo.UpsertAuthCacheEntry(ctx, store.AuthCacheEntry{
		IdTag: "tag-2", Status: types.AuthorizationStatusAccepted, ExpiryDate: &past,
	}))

	info := d.AuthorizeIdToken(ctx, "tag-2", true, true, true, false)
	require.Equal(t, types.AuthorizationStatusExpired, info.Status)
}

func TestAuthorizeIdTokenOfflineUnknownIdFallsBackToPolicy(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	ctx := context.Background()

	rejecting := d.AuthorizeIdToken(ctx, "unknown", false, false, false, false)
	require.Equal(t, types.AuthorizationStatusInvalid, rejecting.Status)

	accepting := d.AuthorizeIdToken(ctx, "unknown", false, false, false, true)
	require.Equal(t, types.AuthorizationStatusAccepted, accepting.Status)
}

func TestHandleChangeAvailabilityOnIdleConnectorAppliesImmediately(t *testing.T) {
	d, repo, _ := newTestDispatcher(t)
	ctx := context.Background()

	resp, callErr := d.handleChangeAvailability(ctx, &core.ChangeAvailabilityRequest{
		ConnectorId: 1, Type: core.AvailabilityTypeInoperative,
	})
	require.Nil(t, callErr)
	require.Equal(t, core.AvailabilityStatusAccepted, resp.Status)
	require.Equal(t, connector.Unavailable, d.connectors[1].State())

	a, err := repo.GetConnectorAvailability(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, a)
	require.False(t, a.Operative)
}

func TestHandleChangeAvailabilityDefersWhileTransactionActive(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	ctx := context.Background()

	d.tx.Start(ctx, 1, "tag-1", 0, nil)

	resp, callErr := d.handleChangeAvailability(ctx, &core.ChangeAvailabilityRequest{
		ConnectorId: 1, Type: core.AvailabilityTypeInoperative,
	})
	require.Nil(t, callErr)
	require.Equal(t, core.AvailabilityStatusScheduled, resp.Status)
	require.Equal(t, connector.Available, d.connectors[1].State())
}

func TestHandleChangeConfigurationRejectsUnknownKey(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	resp, callErr := d.handleChangeConfiguration(context.Background(), &core.ChangeConfigurationRequest{
		Key: "NotARealKey", Value: "1",
	})
	require.Nil(t, callErr)
	require.Equal(t, core.ConfigurationStatusNotSupported, resp.Status)
}

func TestHandleChangeConfigurationAcceptsKnownKey(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	resp, callErr := d.handleChangeConfiguration(context.Background(), &core.ChangeConfigurationRequest{
		Key: KeyHeartbeatInterval, Value: "120",
	})
	require.Nil(t, callErr)
	require.Equal(t, core.ConfigurationStatusAccepted, resp.Status)

	e, ok := d.cfg.Get(KeyHeartbeatInterval)
	require.True(t, ok)
	require.Equal(t, "120", e.Value)
}

func TestHandleGetConfigurationSplitsKnownAndUnknownKeys(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	resp, callErr := d.handleGetConfiguration(context.Background(), &core.GetConfigurationRequest{
		Key: []string{KeyHeartbeatInterval, "Bogus"},
	})
	require.Nil(t, callErr)
	require.Len(t, resp.ConfigurationKey, 1)
	require.Equal(t, []string{"Bogus"}, resp.UnknownKey)
}

func TestHandleResetRejectedWhenDisallowed(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	d.callbacks.IsResetAllowed = func(resetType core.ResetType) bool { return false }

	resp, callErr := d.handleReset(context.Background(), &core.ResetRequest{Type: core.ResetTypeHard})
	require.Nil(t, callErr)
	require.Equal(t, core.ResetStatusRejected, resp.Status)
}

func TestHandleResetStopsActiveTransactionsBeforeCallback(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	ctx := context.Background()
	d.tx.Start(ctx, 1, "tag-1", 0, nil)

	var stoppedConnector int
	var stoppedReason core.Reason
	d.callbacks.StopTransactionCallback = func(connectorId int, reason core.Reason) bool {
		stoppedConnector = connectorId
		stoppedReason = reason
		d.tx.Stop(ctx, connectorId, 0, reason)
		return true
	}
	done := make(chan core.ResetType, 1)
	d.callbacks.ResetCallback = func(resetType core.ResetType) { done <- resetType }

	resp, callErr := d.handleReset(ctx, &core.ResetRequest{Type: core.ResetTypeSoft})
	require.Nil(t, callErr)
	require.Equal(t, core.ResetStatusAccepted, resp.Status)

	select {
	case rt := <-done:
		require.Equal(t, core.ResetTypeSoft, rt)
	case <-time.After(time.Second):
		t.Fatal("ResetCallback was not invoked")
	}
	require.Equal(t, 1, stoppedConnector)
	require.Equal(t, core.ReasonSoftReset, stoppedReason)
	_, active := d.tx.Active(1)
	require.False(t, active)
}

func TestHandleUnlockConnectorStopsActiveTransactionFirst(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	ctx := context.Background()
	d.tx.Start(ctx, 1, "tag-1", 0, nil)

	var stoppedReason core.Reason
	d.callbacks.StopTransactionCallback = func(connectorId int, reason core.Reason) bool {
		stoppedReason = reason
		d.tx.Stop(ctx, connectorId, 0, reason)
		return true
	}
	unlocked := false
	d.callbacks.UnlockConnectorCallback = func(connectorId int) bool {
		unlocked = true
		_, active := d.tx.Active(connectorId)
		require.False(t, active, "transaction should already be stopped before unlocking")
		return true
	}

	resp, callErr := d.handleUnlockConnector(ctx, &core.UnlockConnectorRequest{ConnectorId: 1})
	require.Nil(t, callErr)
	require.Equal(t, core.UnlockStatusUnlocked, resp.Status)
	require.True(t, unlocked)
	require.Equal(t, core.ReasonUnlockCommand, stoppedReason)
}

func TestHandleRemoteStartTransactionPrevalidatedFollowsAuthorizeRemoteTxRequests(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	d.cfg.Define(KeyAuthorizeRemoteTxRequests, "true", false)

	var gotPrevalidated bool
	d.callbacks.ProvideToken = func(idTag string, connectorIds []int, prevalidated bool) {
		gotPrevalidated = prevalidated
	}

	_, callErr := d.handleRemoteStartTransaction(context.Background(), &core.RemoteStartTransactionRequest{IdTag: "tag-1"})
	require.Nil(t, callErr)
	require.False(t, gotPrevalidated, "AuthorizeRemoteTxRequests=true means the CS still expects an Authorize.req")

	d.cfg.Set(KeyAuthorizeRemoteTxRequests, "false")
	_, callErr = d.handleRemoteStartTransaction(context.Background(), &core.RemoteStartTransactionRequest{IdTag: "tag-1"})
	require.Nil(t, callErr)
	require.True(t, gotPrevalidated)
}

func TestHandleChangeConfigurationAcceptsRetryPolicyKeys(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	d.cfg.Define(KeyTransactionMessageAttempts, "3", false)
	d.cfg.Define(KeyTransactionMessageRetryInterval, "10", false)

	resp, callErr := d.handleChangeConfiguration(context.Background(), &core.ChangeConfigurationRequest{
		Key: KeyTransactionMessageAttempts, Value: "5",
	})
	require.Nil(t, callErr)
	require.Equal(t, core.ConfigurationStatusAccepted, resp.Status)

	resp, callErr = d.handleChangeConfiguration(context.Background(), &core.ChangeConfigurationRequest{
		Key: KeyTransactionMessageRetryInterval, Value: "20",
	})
	require.Nil(t, callErr)
	require.Equal(t, core.ConfigurationStatusAccepted, resp.Status)

	e, ok := d.cfg.Get(KeyTransactionMessageAttempts)
	require.True(t, ok)
	require.Equal(t, "5", e.Value)
}

func TestHandleReserveNowRejectedWithoutProfileEnabled(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	resp, callErr := d.handleReserveNow(context.Background(), &reservation.ReserveNowRequest{
		ConnectorId: 1, ReservationId: 1, IdTag: "tag-1", ExpiryDate: types.NewDateTime(time.Now().Add(time.Hour)),
	})
	require.Nil(t, callErr)
	require.Equal(t, reservation.ReservationStatusRejected, resp.Status)
}

func TestHandleReserveNowAcceptedReservesConnector(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	d.EnableReservationProfile()

	resp, callErr := d.handleReserveNow(context.Background(), &reservation.ReserveNowRequest{
		ConnectorId: 1, ReservationId: 1, IdTag: "tag-1", ExpiryDate: types.NewDateTime(time.Now().Add(time.Hour)),
	})
	require.Nil(t, callErr)
	require.Equal(t, reservation.ReservationStatusAccepted, resp.Status)
	require.Equal(t, connector.Reserved, d.connectors[1].State())
}

func TestHandleSendLocalListRejectsStaleVersion(t *testing.T) {
	d, repo, _ := newTestDispatcher(t)
	ctx := context.Background()
	require.NoError(t, repo.InsertLocalListEntries(ctx, 5, nil, true))

	resp, callErr := d.handleSendLocalList(ctx, &localauth.SendLocalListRequest{
		ListVersion: 3, UpdateType: localauth.UpdateTypeFull,
	})
	require.Nil(t, callErr)
	require.Equal(t, localauth.UpdateStatusVersionMismatch, resp.Status)
}

func TestAllowedToReceiveGatesOnBootState(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	require.False(t, d.allowedToReceive(core.ResetFeatureName))
}

func TestHandleCallRejectsBeforeBooted(t *testing.T) {
	d, _, sender := newTestDispatcher(t)
	raw := []byte(`[2,"u1","Reset",{"type":"Hard"}]`)
	d.Handle(context.Background(), raw)

	sender.mu.Lock()
	defer sender.mu.Unlock()
	require.Len(t, sender.errors, 1)
	require.Equal(t, ocpp.NotSupported, sender.errors[0].ErrorCode)
}
