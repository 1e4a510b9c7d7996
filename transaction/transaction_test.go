package transaction

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chargepoint/internal/logx"
	"chargepoint/internal/store"
	"chargepoint/ocpp"
	"chargepoint/ocpp/core"
	"chargepoint/ocpp/types"
	"chargepoint/queue"
)

type memRepo struct {
	mu   sync.Mutex
	rows map[string]store.TransactionRecord
}

func newMemRepo() *memRepo { return &memRepo{rows: make(map[string]store.TransactionRecord)} }

func (r *memRepo) UpsertTransaction(ctx context.Context, t store.TransactionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[t.SessionId] = t
	return nil
}
func (r *memRepo) GetTransaction(ctx context.Context, sessionId string) (*store.TransactionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.rows[sessionId]
	if !ok {
		return nil, nil
	}
	return &t, nil
}
func (r *memRepo) ListUnfinishedTransactions(ctx context.Context) ([]store.TransactionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []store.TransactionRecord
	for _, t := range r.rows {
		if t.StopTime == nil {
			out = append(out, t)
		}
	}
	return out, nil
}
func (r *memRepo) UpsertAuthCacheEntry(ctx context.Context, entry store.AuthCacheEntry) error { return nil }
func (r *memRepo) GetAuthCacheEntry(ctx context.Context, idTag string) (*store.AuthCacheEntry, error) {
	return nil, nil
}
func (r *memRepo) ClearAuthCache(ctx context.Context) error { return nil }
func (r *memRepo) GetLocalListEntry(ctx context.Context, idTag string) (*store.AuthCacheEntry, error) {
	return nil, nil
}
func (r *memRepo) InsertLocalListEntries(ctx context.Context, version int, entries []store.AuthCacheEntry, full bool) error {
	return nil
}
func (r *memRepo) ClearLocalList(ctx context.Context) error        { return nil }
func (r *memRepo) GetLocalListVersion(ctx context.Context) (int, error) { return 0, nil }
func (r *memRepo) UpsertConnectorAvailability(ctx context.Context, a store.ConnectorAvailability) error {
	return nil
}
func (r *memRepo) GetConnectorAvailability(ctx context.Context, connectorId int) (*store.ConnectorAvailability, error) {
	return nil, nil
}
func (r *memRepo) ListConnectorAvailability(ctx context.Context) ([]store.ConnectorAvailability, error) {
	return nil, nil
}
func (r *memRepo) InsertChargingProfile(ctx context.Context, rec store.ChargingProfileRecord) error {
	return nil
}
func (r *memRepo) DeleteChargingProfile(ctx context.Context, profileId int) error { return nil }
func (r *memRepo) ListChargingProfiles(ctx context.Context) ([]store.ChargingProfileRecord, error) {
	return nil, nil
}
func (r *memRepo) GetConnectorForProfile(ctx context.Context, profileId int) (int, error) {
	return 0, nil
}

type inlineSender struct {
	q        *queue.Queue
	onAction map[string]func(call *ocpp.Call)
}

func (s *inlineSender) Send(ctx context.Context, call *ocpp.Call) error {
	if fn, ok := s.onAction[call.Action]; ok {
		fn(call)
	}
	return nil
}

func TestStartThenStopPatchesTransactionId(t *testing.T) {
	repo := newMemRepo()
	sender := &inlineSender{onAction: make(map[string]func(call *ocpp.Call))}
	q := queue.New(sender, logx.New())
	sender.q = q
	q.Resume()

	sender.onAction[core.StartTransactionFeatureName] = func(call *ocpp.Call) {
		// Respond only after a delay so Stop races ahead of the response,
		// forcing the in-queue patch path.
		go func() {
			time.Sleep(30 * time.Millisecond)
			resp := core.NewStartTransactionResponse(types.NewIdTagInfo(types.AuthorizationStatusAccepted), 42)
			q.CompleteResponse(call.UniqueId, resp, nil)
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	mgr := New(repo, q, logx.New(), 0, 0, nil)
	mgr.Start(ctx, 1, "tag-1", 100, nil)

	mgr.Stop(ctx, 1, 150, core.ReasonLocal)

	require.Eventually(t, func() bool {
		repo.mu.Lock()
		defer repo.mu.Unlock()
		for _, row := range repo.rows {
			if row.TransactionId == 42 {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond, "StopTransaction should be patched with the CS-assigned transactionId")
}

func TestRecoverSynthesizesPowerLossStop(t *testing.T) {
	repo := newMemRepo()
	now := time.Now()
	repo.rows["s1"] = store.TransactionRecord{
		SessionId: "s1", ConnectorId: 1, TransactionId: 7, MeterStart: 10, StartTime: now,
	}

	var captured *ocpp.Call
	sender := &inlineSender{onAction: make(map[string]func(call *ocpp.Call))}
	sender.onAction[core.StopTransactionFeatureName] = func(call *ocpp.Call) { captured = call }
	q := queue.New(sender, logx.New())
	sender.q = q
	q.Resume()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	mgr := New(repo, q, logx.New(), 0, 0, nil)
	require.NoError(t, mgr.Recover(ctx))

	require.Eventually(t, func() bool { return captured != nil }, time.Second, 5*time.Millisecond)
	req := captured.Payload.(*core.StopTransactionRequest)
	require.Equal(t, core.ReasonPowerLoss, req.Reason)
	require.Equal(t, 7, req.TransactionId)
}

func TestSetSampleIntervalAppliesToTransactionsStartedAfter(t *testing.T) {
	repo := newMemRepo()
	sender := &inlineSender{onAction: make(map[string]func(call *ocpp.Call))}
	q := queue.New(sender, logx.New())
	sender.q = q
	q.Resume()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	mgr := New(repo, q, logx.New(), 0, 0, func(connectorId int) []Sample {
		return []Sample{{Measurand: types.MeasurandPowerActiveImport, Value: "1", Unit: types.UnitOfMeasureW}}
	})
	mgr.SetSampleInterval(10 * time.Millisecond)

	a := mgr.Start(ctx, 1, "tag-1", 0, nil)
	require.Eventually(t, func() bool {
		return len(a.snapshotData()) > 0
	}, time.Second, 5*time.Millisecond, "sampler should fire using the interval set before Start")
}

func TestSetClockAlignedIntervalDisablesWithZero(t *testing.T) {
	repo := newMemRepo()
	sender := &inlineSender{onAction: make(map[string]func(call *ocpp.Call))}
	q := queue.New(sender, logx.New())
	sender.q = q
	q.Resume()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	mgr := New(repo, q, logx.New(), 0, time.Hour, func(connectorId int) []Sample { return nil })
	mgr.StartClockAlignedSampling(ctx, []int{1})
	require.True(t, mgr.clockTimer.Running())

	mgr.SetClockAlignedInterval(ctx, 0)
	require.False(t, mgr.clockTimer.Running())
}
