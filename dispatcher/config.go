package dispatcher

import (
	"sync"

	"chargepoint/ocpp/core"
)

// ConfigEntry is one row of the runtime configuration store
// ChangeConfiguration/GetConfiguration operate on (spec.md section 3),
// distinct from internal/config's bootstrap settings.
type ConfigEntry struct {
	Value    string
	Readonly bool
}

// ConfigStore is the guarded key/value table backing GetConfiguration
// and ChangeConfiguration. Grounded on the teacher's flat map-based
// settings access (internal/config/config.go never needed a runtime
// mutable store since the teacher was never told to change its own
// configuration remotely); this is the first place the runtime needs
// one.
type ConfigStore struct {
	mu      sync.Mutex
	entries map[string]*ConfigEntry
}

func NewConfigStore() *ConfigStore {
	return &ConfigStore{entries: make(map[string]*ConfigEntry)}
}

func (s *ConfigStore) Define(key, value string, readonly bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = &ConfigEntry{Value: value, Readonly: readonly}
}

func (s *ConfigStore) Get(key string) (ConfigEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return ConfigEntry{}, false
	}
	return *e, true
}

func (s *ConfigStore) All() map[string]ConfigEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]ConfigEntry, len(s.entries))
	for k, v := range s.entries {
		out[k] = *v
	}
	return out
}

// Set applies a ChangeConfiguration request, per spec.md section
// 4.6's "lookup key; if read-only -> Rejected; else set(key,value)".
func (s *ConfigStore) Set(key, value string) core.ConfigurationStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return core.ConfigurationStatusNotSupported
	}
	if e.Readonly {
		return core.ConfigurationStatusRejected
	}
	e.Value = value
	return core.ConfigurationStatusAccepted
}

// Well-known configuration keys whose change has a side effect wired
// through Dispatcher.ChangeConfiguration beyond the plain store write.
const (
	KeyHeartbeatInterval                  = "HeartbeatInterval"
	KeyMeterValueSampleInterval            = "MeterValueSampleInterval"
	KeyClockAlignedDataInterval            = "ClockAlignedDataInterval"
	KeyConnectionTimeout                   = "ConnectionTimeout"
	KeyTransactionMessageAttempts           = "TransactionMessageAttempts"
	KeyTransactionMessageRetryInterval      = "TransactionMessageRetryInterval"
	KeyAuthorizationKey                    = "AuthorizationKey"
	KeySecurityProfile                     = "SecurityProfile"
	KeyAuthorizationCacheEnabled            = "AuthorizationCacheEnabled"
	KeyLocalPreAuthorize                    = "LocalPreAuthorize"
	KeyLocalAuthorizeOffline                = "LocalAuthorizeOffline"
	KeyAllowOfflineTxForUnknownId           = "AllowOfflineTxForUnknownId"
	KeyAuthorizeRemoteTxRequests            = "AuthorizeRemoteTxRequests"
	KeyLocalAuthListEnabled                 = "LocalAuthListEnabled"
	KeyMaxCompositeScheduleDuration         = "MaxCompositeScheduleDuration"
)
