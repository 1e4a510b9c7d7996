// Package transaction implements the Transaction Manager of spec.md
// section 4.4: starts and stops transactions, runs the periodic and
// clock-aligned meter samplers, recovers from a crash by synthesising
// PowerLoss StopTransactions for rows the persisted store still shows
// open, and maps remote/local stop triggers onto the StopTransaction
// reason vocabulary. The active-transaction table and its mutex
// mirror the teacher's models.Transaction (models/transaction.go,
// which carried its own *sync.Mutex per record for the same reason:
// a meter sample can race a stop request).
package transaction

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"chargepoint/internal/clock"
	"chargepoint/internal/logx"
	"chargepoint/internal/store"
	"chargepoint/ocpp/core"
	"chargepoint/ocpp/types"
	"chargepoint/queue"
)

// Sample is one measurand reading captured for a transaction's
// in-memory data buffer and immediately queued as a MeterValues Call.
type Sample struct {
	Measurand types.Measurand
	Value     string
	Unit      types.UnitOfMeasure
}

// SampleFunc captures the configured measurand vector for a connector
// at the instant it is called; returning no samples skips the
// MeterValues Call entirely.
type SampleFunc func(connectorId int) []Sample

// Active is one in-flight transaction's runtime state.
type Active struct {
	mu sync.Mutex

	SessionId     string
	ConnectorId   int
	IdTag         string
	MeterStart    int
	StartTime     time.Time
	ReservationId *int

	transactionId   int
	hasTxId         bool
	startMessageId  string
	data            []types.MeterValue
	sampler         clock.Ticker
}

func (a *Active) appendSample(mv types.MeterValue) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.data = append(a.data, mv)
}

func (a *Active) snapshotData() []types.MeterValue {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]types.MeterValue, len(a.data))
	copy(out, a.data)
	return out
}

// Manager owns every active transaction and the clock-aligned sampler
// shared across connectors.
type Manager struct {
	mu     sync.Mutex
	active map[int]*Active // by connectorId

	repo        store.Repository
	q           *queue.Queue
	log         logx.Handler
	sampleFn    SampleFunc
	sampleEvery time.Duration

	clockAligned     time.Duration
	clockTimer       clock.Timer
	connectorIds     []int
}

func New(repo store.Repository, q *queue.Queue, log logx.Handler, sampleEvery, clockAligned time.Duration, sampleFn SampleFunc) *Manager {
	return &Manager{
		active:       make(map[int]*Active),
		repo:         repo,
		q:            q,
		log:          log,
		sampleFn:     sampleFn,
		sampleEvery:  sampleEvery,
		clockAligned: clockAligned,
	}
}

// Recover implements spec.md section 4.4's crash-recovery rule: every
// persisted transaction still missing a stop timestamp gets a
// synthetic PowerLoss StopTransaction, using the last sample if one
// was persisted, otherwise meterStart.
func (m *Manager) Recover(ctx context.Context) error {
	rows, err := m.repo.ListUnfinishedTransactions(ctx)
	if err != nil {
		return err
	}
	for _, row := range rows {
		meterStop := row.MeterStart
		if row.LastMeterWh != nil {
			meterStop = *row.LastMeterWh
		}
		req := core.NewStopTransactionRequest(row.TransactionId, meterStop, types.NewDateTime(time.Now()), core.ReasonPowerLoss)
		m.q.EnqueueCall(req, true)

		now := time.Now()
		row.StopTime = &now
		row.StopEnergyWh = &meterStop
		if err := m.repo.UpsertTransaction(ctx, row); err != nil {
			m.log.Error("failed to close recovered transaction", err)
		}
	}
	return nil
}

// Start creates a transaction, persists it, and issues StartTransaction
// on the transactional queue. The StartTransactionResponse's
// transactionId is patched into the already-queued StopTransaction if
// the session ends before the response arrives, via queue.RegisterStopPatch.
func (m *Manager) Start(ctx context.Context, connectorId int, idTag string, meterStart int, reservationId *int) *Active {
	a := &Active{
		SessionId:     uuid.New().String(),
		ConnectorId:   connectorId,
		IdTag:         idTag,
		MeterStart:    meterStart,
		StartTime:     time.Now(),
		ReservationId: reservationId,
	}

	m.mu.Lock()
	m.active[connectorId] = a
	m.mu.Unlock()

	_ = m.repo.UpsertTransaction(ctx, store.TransactionRecord{
		SessionId: a.SessionId, ConnectorId: connectorId, IdTag: idTag,
		MeterStart: meterStart, StartTime: a.StartTime, ReservationId: reservationId,
	})

	req := core.NewStartTransactionRequest(connectorId, idTag, meterStart, types.NewDateTime(a.StartTime))
	req.ReservationId = reservationId
	messageId, await := m.q.EnqueueCall(req, true)
	a.startMessageId = messageId

	go m.awaitStartResponse(ctx, a, await)
	m.startSampler(ctx, a)
	return a
}

func (m *Manager) awaitStartResponse(ctx context.Context, a *Active, await <-chan queue.EnhancedMessage) {
	select {
	case msg := <-await:
		if msg.Offline || msg.Err != nil {
			return
		}
		resp, ok := msg.Response.(*core.StartTransactionResponse)
		if !ok {
			return
		}
		a.mu.Lock()
		a.transactionId = resp.TransactionId
		a.hasTxId = true
		a.mu.Unlock()
		m.q.AddStoppedTransactionId(a.startMessageId, resp.TransactionId)
		if row, err := m.repo.GetTransaction(ctx, a.SessionId); err == nil && row != nil {
			row.TransactionId = resp.TransactionId
			_ = m.repo.UpsertTransaction(ctx, *row)
		}
	case <-ctx.Done():
	}
}

func (m *Manager) startSampler(ctx context.Context, a *Active) {
	m.mu.Lock()
	every := m.sampleEvery
	m.mu.Unlock()
	if every <= 0 || m.sampleFn == nil {
		return
	}
	a.sampler.Start(every, func() { m.sampleNow(ctx, a) })
}

// SetSampleInterval updates the periodic meter-sampler interval used
// for transactions started from now on, per a ChangeConfiguration
// change to MeterValueSampleInterval.
func (m *Manager) SetSampleInterval(interval time.Duration) {
	m.mu.Lock()
	m.sampleEvery = interval
	m.mu.Unlock()
}

// SetClockAlignedInterval rearms the clock-aligned sampler with a new
// interval, per a ChangeConfiguration change to ClockAlignedDataInterval.
// An interval of zero disables it.
func (m *Manager) SetClockAlignedInterval(ctx context.Context, interval time.Duration) {
	m.mu.Lock()
	m.clockAligned = interval
	m.mu.Unlock()
	if interval <= 0 {
		m.clockTimer.Stop()
		return
	}
	m.armNextClockAligned(ctx)
}

func (m *Manager) sampleNow(ctx context.Context, a *Active) {
	samples := m.sampleFn(a.ConnectorId)
	if len(samples) == 0 {
		return
	}
	mv := toMeterValue(samples)
	a.appendSample(mv)

	a.mu.Lock()
	var txId *int
	if a.hasTxId {
		id := a.transactionId
		txId = &id
	}
	a.mu.Unlock()

	req := core.NewMeterValuesRequest(a.ConnectorId, []types.MeterValue{mv})
	req.TransactionId = txId
	m.q.EnqueueCall(req, false)
}

func toMeterValue(samples []Sample) types.MeterValue {
	sv := make([]types.SampledValue, len(samples))
	for i, s := range samples {
		sv[i] = types.SampledValue{Value: s.Value, Measurand: s.Measurand, Unit: s.Unit}
	}
	return types.MeterValue{Timestamp: types.NewDateTime(time.Now()), SampledValue: sv}
}

// Stop ends the transaction on connectorId and enqueues StopTransaction
// with meterStop/timestamp/reason and the accumulated transactionData.
// If the CS has not yet answered StartTransaction, the StopTransaction's
// transactionId is patched in-queue once it does, per spec.md section
// 4.1's futures-patched-in-queue rule.
func (m *Manager) Stop(ctx context.Context, connectorId, meterStop int, reason core.Reason) {
	m.mu.Lock()
	a, ok := m.active[connectorId]
	if ok {
		delete(m.active, connectorId)
	}
	m.mu.Unlock()
	if !ok {
		return
	}
	a.sampler.Stop()

	a.mu.Lock()
	txId := a.transactionId
	hasTxId := a.hasTxId
	a.mu.Unlock()

	req := core.NewStopTransactionRequest(txId, meterStop, types.NewDateTime(time.Now()), reason)
	req.IdTag = a.IdTag
	req.TransactionData = a.snapshotData()
	stopMessageId, _ := m.q.EnqueueCall(req, true)

	if !hasTxId {
		m.q.RegisterStopPatch(a.startMessageId, stopMessageId)
	}

	now := time.Now()
	_ = m.repo.UpsertTransaction(ctx, store.TransactionRecord{
		SessionId: a.SessionId, ConnectorId: connectorId, TransactionId: txId,
		IdTag: a.IdTag, MeterStart: a.MeterStart, StartTime: a.StartTime,
		ReservationId: a.ReservationId, StopEnergyWh: &meterStop, StopTime: &now,
	})
}

// TransactionId reports the CS-assigned transactionId, if the
// StartTransactionResponse carrying it has arrived yet.
func (a *Active) TransactionId() (int, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.transactionId, a.hasTxId
}

// Active returns the in-flight transaction on a connector, if any.
func (m *Manager) Active(connectorId int) (*Active, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.active[connectorId]
	return a, ok
}

// StartClockAlignedSampling arms the global midnight-UTC-aligned
// sampler shared across every connector >= 1, per spec.md section
// 4.4. An interval of zero disables the feature, matching
// ClockAlignedDataInterval == 0.
func (m *Manager) StartClockAlignedSampling(ctx context.Context, connectorIds []int) {
	if m.clockAligned <= 0 {
		return
	}
	m.connectorIds = connectorIds
	m.armNextClockAligned(ctx)
}

func (m *Manager) armNextClockAligned(ctx context.Context) {
	next := clock.NextAlignedInstant(time.Now(), m.clockAligned)
	d := time.Until(next)
	m.clockTimer.Start(d, func() {
		m.fireClockAligned(ctx)
		m.armNextClockAligned(ctx)
	})
}

func (m *Manager) fireClockAligned(ctx context.Context) {
	for _, connectorId := range m.connectorIds {
		samples := m.sampleFn(connectorId)
		if len(samples) == 0 {
			continue
		}
		mv := toMeterValue(samples)
		if a, ok := m.Active(connectorId); ok {
			a.appendSample(mv)
		}
		req := core.NewMeterValuesRequest(connectorId, []types.MeterValue{mv})
		m.q.EnqueueCall(req, false)
	}
}
