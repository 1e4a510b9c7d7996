// Package queue implements the durable outbound message queue
// described in spec.md section 4.1: two FIFO sub-queues (transactional,
// normal), single in-flight Call, uniqueId correlation, and in-queue
// patching of a queued StopTransaction once its StartTransaction
// receives a CS-assigned transactionId. The single-writer-goroutine
// dispatch loop is patterned on the teacher's internal.Logger writer
// goroutine (internal/logger.go), which drains a channel sequentially
// rather than locking around every send.
package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"chargepoint/internal/logx"
	"chargepoint/ocpp"
	"chargepoint/ocpp/core"
)

// Sender delivers one already-framed Call to the transport and blocks
// until the frame is written, or returns an error if the transport is
// down. The queue owns retry and sequencing; Sender only owns the
// single write.
type Sender interface {
	Send(ctx context.Context, call *ocpp.Call) error
}

// EnhancedMessage is what an awaiter receives: either a decoded
// response/error pair, or Offline=true if the transport dropped
// before a response arrived.
type EnhancedMessage struct {
	Response ocpp.Response
	Err      *ocpp.CallError
	Offline  bool
}

type pendingCall struct {
	call          *ocpp.Call
	transactional bool
	attempts      int
	awaiters      []chan EnhancedMessage
}

// Queue is the Message Queue component. TransactionMessageAttempts
// and TransactionMessageRetryInterval are read from the runtime
// configuration store and can be changed with SetRetryPolicy while
// the queue runs.
type Queue struct {
	mu sync.Mutex

	transactional []*pendingCall
	normal        []*pendingCall

	inFlight     *pendingCall
	inFlightUid  string
	pendingByUid map[string]*pendingCall

	// stopMessageIdByStartMessageId associates a queued StartTransaction's
	// uniqueId with the uniqueId of the StopTransaction queued for the
	// same session before the CS answered the start, so the stop can be
	// patched with the CS-assigned transactionId once it is known.
	stopMessageIdByStartMessageId map[string]string

	sender  Sender
	log     logx.Handler
	paused  bool
	wake    chan struct{}

	maxAttempts   int
	retryInterval time.Duration

	externalNotify map[string][]chan EnhancedMessage

	stopCh chan struct{}
}

func New(sender Sender, log logx.Handler) *Queue {
	q := &Queue{
		pendingByUid:                  make(map[string]*pendingCall),
		stopMessageIdByStartMessageId: make(map[string]string),
		sender:                        sender,
		log:                           log,
		paused:                        true,
		wake:                          make(chan struct{}, 1),
		maxAttempts:                   3,
		retryInterval:                 10 * time.Second,
		externalNotify:                map[string][]chan EnhancedMessage{"StartTransactionResponse": nil},
		stopCh:                        make(chan struct{}),
	}
	return q
}

func (q *Queue) SetRetryPolicy(maxAttempts int, retryInterval time.Duration) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.maxAttempts = maxAttempts
	q.retryInterval = retryInterval
}

// Run drives the dequeue loop until ctx is cancelled.
func (q *Queue) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.stopCh:
			return
		case <-q.wake:
		}
		q.tryDispatch(ctx)
	}
}

func (q *Queue) Stop() { close(q.stopCh) }

func (q *Queue) kick() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Pause stops dequeuing without discarding queued work; called on
// transport disconnect. An in-flight Call's awaiters receive
// Offline=true and the Call stays at the head of its sub-queue, to be
// sent again after Resume.
func (q *Queue) Pause() {
	q.mu.Lock()
	q.paused = true
	inFlight := q.inFlight
	q.inFlight = nil
	q.inFlightUid = ""
	var awaiters []chan EnhancedMessage
	if inFlight != nil {
		awaiters = inFlight.awaiters
		inFlight.awaiters = nil
	}
	q.mu.Unlock()
	for _, ch := range awaiters {
		ch <- EnhancedMessage{Offline: true}
	}
}

// Resume restarts dequeuing; called on (re)connect.
func (q *Queue) Resume() {
	q.mu.Lock()
	q.paused = false
	q.mu.Unlock()
	q.kick()
}

// EnqueueCall queues a Call and returns a channel that receives
// exactly one EnhancedMessage: the correlated response/error, or
// Offline=true if the transport drops before one arrives.
func (q *Queue) EnqueueCall(request ocpp.Request, transactional bool) (messageId string, await <-chan EnhancedMessage) {
	messageId = uuid.New().String()
	call := &ocpp.Call{UniqueId: messageId, Action: request.GetFeatureName(), Payload: request}
	pc := &pendingCall{call: call, transactional: transactional}
	ch := make(chan EnhancedMessage, 1)
	pc.awaiters = append(pc.awaiters, ch)

	q.mu.Lock()
	q.pendingByUid[messageId] = pc
	if transactional {
		q.transactional = append(q.transactional, pc)
	} else {
		q.normal = append(q.normal, pc)
	}
	q.mu.Unlock()

	q.kick()
	return messageId, ch
}

// RegisterStopPatch associates a queued StopTransaction (identified
// by stopMessageId) with the StartTransaction (identified by
// startMessageId) it stopped before that start was acknowledged, so a
// later AddStoppedTransactionId call can find and patch it.
func (q *Queue) RegisterStopPatch(startMessageId, stopMessageId string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.stopMessageIdByStartMessageId[startMessageId] = stopMessageId
}

// AddStoppedTransactionId patches a still-queued StopTransaction with
// the transactionId the CS assigned in StartTransactionResponse,
// per spec.md section 4.1's stop-transaction correlation rule. A no-op
// if the stop already left the queue (it went out with transactionId
// 0, which the CS must reconcile by idTag/timestamp, or no patch was
// ever registered because the start was answered before the stop was
// queued).
func (q *Queue) AddStoppedTransactionId(startMessageId string, transactionId int) {
	q.mu.Lock()
	stopMessageId, ok := q.stopMessageIdByStartMessageId[startMessageId]
	if ok {
		delete(q.stopMessageIdByStartMessageId, startMessageId)
	}
	var pc *pendingCall
	if ok {
		pc, ok = q.pendingByUid[stopMessageId]
	}
	q.mu.Unlock()
	if !ok || pc == nil {
		return
	}
	if req, ok := pc.call.Payload.(*core.StopTransactionRequest); ok {
		req.TransactionId = transactionId
	}
}

// WatchExternal subscribes to a back-channel fan-out of responses for
// the named action (default: StartTransactionResponse), independent
// of the original caller's awaiter.
func (q *Queue) WatchExternal(action string) <-chan EnhancedMessage {
	ch := make(chan EnhancedMessage, 1)
	q.mu.Lock()
	q.externalNotify[action] = append(q.externalNotify[action], ch)
	q.mu.Unlock()
	return ch
}

func (q *Queue) tryDispatch(ctx context.Context) {
	q.mu.Lock()
	if q.paused || q.inFlight != nil {
		q.mu.Unlock()
		return
	}
	pc := q.head()
	if pc == nil {
		q.mu.Unlock()
		return
	}
	q.inFlight = pc
	q.inFlightUid = pc.call.UniqueId
	pc.attempts++
	maxAttempts := q.maxAttempts
	retryInterval := q.retryInterval
	q.mu.Unlock()

	err := q.sender.Send(ctx, pc.call)
	if err != nil {
		q.log.Error(fmt.Sprintf("send %s failed", pc.call.Action), err)
		if !pc.transactional {
			q.finishInFlight(pc)
			q.mu.Lock()
			q.removeFromSubQueue(pc)
			q.mu.Unlock()
			q.completeOffline(pc)
			q.kick()
			return
		}
		if pc.attempts >= maxAttempts {
			q.log.Error(fmt.Sprintf("dropping %s after %d attempts", pc.call.Action, pc.attempts), err)
			q.finishInFlight(pc)
			q.removeFromSubQueue(pc)
			q.completeOffline(pc)
			q.kick()
			return
		}
		q.finishInFlight(pc)
		backoff := time.Duration(pc.attempts) * retryInterval
		time.AfterFunc(backoff, q.kick)
		return
	}
	// Awaiting correlated response; Dispatch/CompleteResponse resolves it.
}

func (q *Queue) head() *pendingCall {
	if len(q.transactional) > 0 {
		return q.transactional[0]
	}
	if len(q.normal) > 0 {
		return q.normal[0]
	}
	return nil
}

func (q *Queue) removeFromSubQueue(pc *pendingCall) {
	if pc.transactional {
		q.transactional = removePending(q.transactional, pc)
	} else {
		q.normal = removePending(q.normal, pc)
	}
}

func removePending(list []*pendingCall, target *pendingCall) []*pendingCall {
	for i, v := range list {
		if v == target {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

func (q *Queue) finishInFlight(pc *pendingCall) {
	q.mu.Lock()
	if q.inFlight == pc {
		q.inFlight = nil
		q.inFlightUid = ""
	}
	q.mu.Unlock()
}

// PendingAction reports the action name of the still-outstanding Call
// identified by uniqueId, letting the dispatcher decode an inbound
// CALLRESULT/CALLERROR's payload into the right response type before
// calling CompleteResponse.
func (q *Queue) PendingAction(uniqueId string) (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	pc, ok := q.pendingByUid[uniqueId]
	if !ok {
		return "", false
	}
	return pc.call.Action, true
}

// CompleteResponse correlates an inbound CALLRESULT/CALLERROR with the
// awaited Call and frees the in-flight slot so the next message may be
// dequeued.
func (q *Queue) CompleteResponse(uniqueId string, response ocpp.Response, callErr *ocpp.CallError) {
	q.mu.Lock()
	pc, ok := q.pendingByUid[uniqueId]
	if !ok {
		q.mu.Unlock()
		return
	}
	delete(q.pendingByUid, uniqueId)
	q.removeFromSubQueue(pc)
	if q.inFlight == pc {
		q.inFlight = nil
		q.inFlightUid = ""
	}
	watchers := q.externalNotify[pc.call.Action+"Response"]
	q.mu.Unlock()

	msg := EnhancedMessage{Response: response, Err: callErr}
	for _, ch := range pc.awaiters {
		ch <- msg
	}
	for _, ch := range watchers {
		select {
		case ch <- msg:
		default:
		}
	}
	q.kick()
}

func (q *Queue) completeOffline(pc *pendingCall) {
	q.mu.Lock()
	delete(q.pendingByUid, pc.call.UniqueId)
	q.mu.Unlock()

	msg := EnhancedMessage{Offline: true}
	for _, ch := range pc.awaiters {
		ch <- msg
	}
}

// Len reports the combined depth of both sub-queues, for diagnostics.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.transactional) + len(q.normal)
}
