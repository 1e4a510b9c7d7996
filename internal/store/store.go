// Package store defines the persistent-store contract the runtime
// consumes (spec.md section 6): transactions, authorization cache,
// local authorization list, connector availability and charging
// profiles. It deliberately stays a thin typed interface, the way the
// teacher's internal.Database interface kept Mongo out of every
// caller's import graph; mongostore is the one concrete adapter.
package store

import (
	"context"
	"time"

	"chargepoint/ocpp/types"
)

// TransactionRecord is the persisted shape of a Transaction, independent
// of the in-memory transaction package's richer runtime type.
type TransactionRecord struct {
	SessionId     string     `bson:"session_id"`
	ConnectorId   int        `bson:"connector_id"`
	TransactionId int        `bson:"transaction_id"`
	IdTag         string     `bson:"id_tag"`
	MeterStart    int        `bson:"meter_start"`
	StartTime     time.Time  `bson:"start_time"`
	ReservationId *int       `bson:"reservation_id,omitempty"`
	StopEnergyWh  *int       `bson:"stop_energy_wh,omitempty"`
	StopTime      *time.Time `bson:"stop_time,omitempty"`
	LastMeterWh   *int       `bson:"last_meter_wh,omitempty"`
}

// AuthCacheEntry is one idTag → IdTagInfo row, shared between the
// authorization cache and the local authorization list (the list adds
// a version, the cache does not).
type AuthCacheEntry struct {
	IdTag       string              `bson:"id_tag"`
	Status      types.AuthorizationStatus `bson:"status"`
	ExpiryDate  *time.Time          `bson:"expiry_date,omitempty"`
	ParentIdTag string              `bson:"parent_id_tag,omitempty"`
}

// ConnectorAvailability is the persisted operative/inoperative flag
// per connector, restored at boot.
type ConnectorAvailability struct {
	ConnectorId int  `bson:"connector_id"`
	Operative   bool `bson:"operative"`
}

// ChargingProfileRecord is a persisted ChargingProfile bound to the
// connector it was installed on.
type ChargingProfileRecord struct {
	ConnectorId int                   `bson:"connector_id"`
	Profile     types.ChargingProfile `bson:"profile"`
}

// Repository is the typed persistent store the Transaction Manager,
// authorize flow, Smart-Charging Engine and Dispatcher hold handles
// to. Every method is synchronous from the caller's perspective; the
// concrete adapter is responsible for off-loading to a blocking pool
// per spec.md section 5.
type Repository interface {
	UpsertTransaction(ctx context.Context, t TransactionRecord) error
	GetTransaction(ctx context.Context, sessionId string) (*TransactionRecord, error)
	ListUnfinishedTransactions(ctx context.Context) ([]TransactionRecord, error)

	UpsertAuthCacheEntry(ctx context.Context, entry AuthCacheEntry) error
	GetAuthCacheEntry(ctx context.Context, idTag string) (*AuthCacheEntry, error)
	ClearAuthCache(ctx context.Context) error

	InsertLocalListEntries(ctx context.Context, version int, entries []AuthCacheEntry, full bool) error
	ClearLocalList(ctx context.Context) error
	GetLocalListVersion(ctx context.Context) (int, error)
	GetLocalListEntry(ctx context.Context, idTag string) (*AuthCacheEntry, error)

	UpsertConnectorAvailability(ctx context.Context, a ConnectorAvailability) error
	GetConnectorAvailability(ctx context.Context, connectorId int) (*ConnectorAvailability, error)
	ListConnectorAvailability(ctx context.Context) ([]ConnectorAvailability, error)

	InsertChargingProfile(ctx context.Context, r ChargingProfileRecord) error
	DeleteChargingProfile(ctx context.Context, profileId int) error
	ListChargingProfiles(ctx context.Context) ([]ChargingProfileRecord, error)
	GetConnectorForProfile(ctx context.Context, profileId int) (int, error)
}
