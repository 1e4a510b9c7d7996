// Package profiles implements the Smart-Charging Engine of spec.md
// section 4.5: the three disjoint profile stacks, profile validation
// and replacement semantics, and the composite-schedule calculator.
// It is kept separate from ocpp/smartcharging (which only carries the
// wire message shapes SetChargingProfile/ClearChargingProfile/
// GetCompositeSchedule exchange) because this engine is the sole
// owner of installed profiles per the Ownership model in spec.md
// section 3 — no teacher file plays this role, since the teacher
// never implemented the charging-profile side of OCPP at all; the
// stack/replace/compose shape below is grounded directly in spec.md's
// own description of the algorithm.
package profiles

import (
	"fmt"
	"sort"
	"time"

	"chargepoint/ocpp/types"
)

// Limits mirrors the configuration keys spec.md section 4.5 validates
// against (ChargeProfileMaxStackLevel, MaxChargingProfilesInstalled,
// ChargingScheduleMaxPeriods, the allowed ChargingRateUnit set).
type Limits struct {
	MaxStackLevel           int
	MaxProfilesInstalled    int
	MaxSchedulePeriods      int
	AllowedRateUnits        []types.ChargingRateUnitType
	DefaultNumberOfPhases   int
}

// ActiveTransaction is the minimal view the engine needs of a running
// transaction to validate a TxProfile reference.
type ActiveTransaction struct {
	ConnectorId   int
	TransactionId int
}

// Store holds the three disjoint profile stacks.
type Store struct {
	limits Limits

	chargePointMax []types.ChargingProfile // connector 0 only

	txDefault map[int][]types.ChargingProfile // by connectorId, 0 = every connector
	tx        map[int][]types.ChargingProfile // by connectorId, transaction-bound only
}

func New(limits Limits) *Store {
	return &Store{
		limits:    limits,
		txDefault: make(map[int][]types.ChargingProfile),
		tx:        make(map[int][]types.ChargingProfile),
	}
}

func (s *Store) installedCount() int {
	n := len(s.chargePointMax)
	for _, stack := range s.txDefault {
		n += len(stack)
	}
	for _, stack := range s.tx {
		n += len(stack)
	}
	return n
}

// Validate implements spec.md section 4.5's Validate(profile,
// connectorId, is_remote_start).
func (s *Store) Validate(profile types.ChargingProfile, connectorId int, isRemoteStart bool, active *ActiveTransaction) error {
	if profile.StackLevel > s.limits.MaxStackLevel {
		return fmt.Errorf("stackLevel %d exceeds ChargeProfileMaxStackLevel %d", profile.StackLevel, s.limits.MaxStackLevel)
	}
	if !s.replaces(profile, connectorId) && s.installedCount() >= s.limits.MaxProfilesInstalled {
		return fmt.Errorf("MaxChargingProfilesInstalled (%d) reached", s.limits.MaxProfilesInstalled)
	}
	if profile.ChargingSchedule == nil {
		return fmt.Errorf("chargingSchedule is required")
	}
	if len(profile.ChargingSchedule.ChargingSchedulePeriod) > s.limits.MaxSchedulePeriods {
		return fmt.Errorf("schedule has %d periods, exceeds ChargingScheduleMaxPeriods %d",
			len(profile.ChargingSchedule.ChargingSchedulePeriod), s.limits.MaxSchedulePeriods)
	}
	if !rateUnitAllowed(profile.ChargingSchedule.ChargingRateUnit, s.limits.AllowedRateUnits) {
		return fmt.Errorf("chargingRateUnit %q not in allowed set", profile.ChargingSchedule.ChargingRateUnit)
	}
	if len(profile.ChargingSchedule.ChargingSchedulePeriod) > 0 && profile.ChargingSchedule.ChargingSchedulePeriod[0].StartPeriod != 0 {
		return fmt.Errorf("first schedule period must start at startPeriod = 0")
	}

	if profile.ChargingProfilePurpose == types.ChargingProfilePurposeTxProfile {
		if connectorId == 0 {
			return fmt.Errorf("TxProfile cannot target connector 0")
		}
		if !isRemoteStart {
			if active == nil || active.ConnectorId != connectorId || active.TransactionId != profile.TransactionId {
				return fmt.Errorf("TxProfile transactionId %d does not match the active transaction on connector %d", profile.TransactionId, connectorId)
			}
		}
	}
	return nil
}

func rateUnitAllowed(unit types.ChargingRateUnitType, allowed []types.ChargingRateUnitType) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, u := range allowed {
		if u == unit {
			return true
		}
	}
	return false
}

// replaces reports whether installing profile would remove an
// existing one by id or by (purpose, stackLevel) on the same
// connector, per spec.md section 4.5's replacement semantics.
func (s *Store) replaces(profile types.ChargingProfile, connectorId int) bool {
	if profile.ChargingProfilePurpose == types.ChargingProfilePurposeChargePointMaxProfile {
		for _, p := range s.chargePointMax {
			if p.ChargingProfileId == profile.ChargingProfileId || p.StackLevel == profile.StackLevel {
				return true
			}
		}
		return false
	}
	stack := s.stackFor(profile.ChargingProfilePurpose, connectorId)
	for _, p := range stack {
		if p.ChargingProfileId == profile.ChargingProfileId || p.StackLevel == profile.StackLevel {
			return true
		}
	}
	return false
}

func (s *Store) stackFor(purpose types.ChargingProfilePurposeType, connectorId int) []types.ChargingProfile {
	switch purpose {
	case types.ChargingProfilePurposeTxDefaultProfile:
		return s.txDefault[connectorId]
	case types.ChargingProfilePurposeTxProfile:
		return s.tx[connectorId]
	default:
		return s.chargePointMax
	}
}

// Set installs profile, first removing any profile it replaces.
func (s *Store) Set(profile types.ChargingProfile, connectorId int) {
	switch profile.ChargingProfilePurpose {
	case types.ChargingProfilePurposeChargePointMaxProfile:
		s.chargePointMax = replaceInStack(s.chargePointMax, profile)
	case types.ChargingProfilePurposeTxDefaultProfile:
		s.txDefault[connectorId] = replaceInStack(s.txDefault[connectorId], profile)
	case types.ChargingProfilePurposeTxProfile:
		s.tx[connectorId] = replaceInStack(s.tx[connectorId], profile)
	}
}

func replaceInStack(stack []types.ChargingProfile, profile types.ChargingProfile) []types.ChargingProfile {
	out := stack[:0:0]
	for _, p := range stack {
		if p.ChargingProfileId == profile.ChargingProfileId || p.StackLevel == profile.StackLevel {
			continue
		}
		out = append(out, p)
	}
	return append(out, profile)
}

// ClearCriteria matches ClearChargingProfileRequest's optional
// filters: any field left nil/zero is not applied.
type ClearCriteria struct {
	Id          *int
	ConnectorId *int
	Purpose     types.ChargingProfilePurposeType
	StackLevel  *int
}

// Clear removes every installed profile matching criteria and reports
// how many were removed.
func (s *Store) Clear(criteria ClearCriteria) int {
	removed := 0
	s.chargePointMax, removed = filterStack(s.chargePointMax, criteria, 0, removed)
	for connectorId, stack := range s.txDefault {
		s.txDefault[connectorId], removed = filterStack(stack, criteria, connectorId, removed)
	}
	for connectorId, stack := range s.tx {
		s.tx[connectorId], removed = filterStack(stack, criteria, connectorId, removed)
	}
	return removed
}

func filterStack(stack []types.ChargingProfile, c ClearCriteria, connectorId, removed int) ([]types.ChargingProfile, int) {
	if c.ConnectorId != nil && *c.ConnectorId != connectorId {
		return stack, removed
	}
	out := stack[:0:0]
	for _, p := range stack {
		if matches(p, c) {
			removed++
			continue
		}
		out = append(out, p)
	}
	return out, removed
}

func matches(p types.ChargingProfile, c ClearCriteria) bool {
	if c.Id != nil {
		return p.ChargingProfileId == *c.Id
	}
	if c.Purpose != "" && p.ChargingProfilePurpose != c.Purpose {
		return false
	}
	if c.StackLevel != nil && p.StackLevel != *c.StackLevel {
		return false
	}
	return true
}

// CompositeSchedule computes the layered schedule of spec.md section
// 4.5: ChargePointMaxProfile (hard ceiling) precedes TxProfile, which
// precedes TxDefaultProfile; within a class, higher stackLevel wins.
// The result is expressed at 1-second resolution, compressed to
// change-points, in unit.
func (s *Store) CompositeSchedule(connectorId int, start, end time.Time, unit types.ChargingRateUnitType) types.ChargingSchedule {
	layers := s.orderedLayers(connectorId)

	changePoints := map[int]bool{0: true}
	totalSeconds := int(end.Sub(start).Seconds())
	if totalSeconds <= 0 {
		totalSeconds = 0
	}
	for _, layer := range layers {
		for _, window := range expand(layer, start, end) {
			for _, p := range window.schedule.ChargingSchedulePeriod {
				offset := window.offsetSeconds + p.StartPeriod
				if offset >= 0 && offset <= totalSeconds {
					changePoints[offset] = true
				}
			}
		}
	}

	var offsets []int
	for o := range changePoints {
		offsets = append(offsets, o)
	}
	sort.Ints(offsets)

	var periods []types.ChargingSchedulePeriod
	for _, offset := range offsets {
		limit, numberPhases, ok := limitAt(layers, offset, start, unit, s.limits.DefaultNumberOfPhases)
		value := float64(types.NoLimitSpecified)
		if ok {
			value = limit
		}
		periods = append(periods, types.ChargingSchedulePeriod{StartPeriod: offset, Limit: value, NumberPhases: numberPhases})
	}
	if len(periods) == 0 {
		periods = []types.ChargingSchedulePeriod{{StartPeriod: 0, Limit: float64(types.NoLimitSpecified)}}
	}

	duration := totalSeconds
	return types.ChargingSchedule{
		Duration:               &duration,
		StartSchedule:          types.NewDateTime(start),
		ChargingRateUnit:       unit,
		ChargingSchedulePeriod: periods,
	}
}

type layer struct {
	profile    types.ChargingProfile
	precedence int // 0 = ChargePointMaxProfile (highest), 1 = TxProfile, 2 = TxDefaultProfile
}

func (s *Store) orderedLayers(connectorId int) []layer {
	var layers []layer
	for _, p := range s.chargePointMax {
		layers = append(layers, layer{profile: p, precedence: 0})
	}
	for _, p := range s.tx[connectorId] {
		layers = append(layers, layer{profile: p, precedence: 1})
	}
	for _, p := range s.txDefault[0] {
		layers = append(layers, layer{profile: p, precedence: 2})
	}
	for _, p := range s.txDefault[connectorId] {
		layers = append(layers, layer{profile: p, precedence: 2})
	}
	sort.SliceStable(layers, func(i, j int) bool {
		if layers[i].precedence != layers[j].precedence {
			return layers[i].precedence < layers[j].precedence
		}
		return layers[i].profile.StackLevel > layers[j].profile.StackLevel
	})
	return layers
}

type window struct {
	schedule      types.ChargingSchedule
	offsetSeconds int
}

// expand turns a profile's schedule into the absolute windows that
// overlap [start, end), honoring validFrom/validTo and expanding
// Recurring profiles by daily/weekly modulo.
func expand(l layer, start, end time.Time) []window {
	p := l.profile
	if p.ValidFrom != nil && end.Before(p.ValidFrom.Time) {
		return nil
	}
	if p.ValidTo != nil && !start.Before(p.ValidTo.Time) {
		return nil
	}
	if p.ChargingSchedule == nil {
		return nil
	}

	if p.ChargingProfileKind != types.ChargingProfileKindRecurring || p.RecurrencyKind == "" {
		scheduleStart := start
		if p.ChargingSchedule.StartSchedule != nil {
			scheduleStart = p.ChargingSchedule.StartSchedule.Time
		}
		return []window{{schedule: *p.ChargingSchedule, offsetSeconds: int(scheduleStart.Sub(start).Seconds())}}
	}

	period := 24 * time.Hour
	if p.RecurrencyKind == types.RecurrencyKindWeekly {
		period = 7 * 24 * time.Hour
	}
	base := start
	if p.ChargingSchedule.StartSchedule != nil {
		base = p.ChargingSchedule.StartSchedule.Time
	}
	elapsed := start.Sub(base)
	cycles := elapsed / period
	occurrence := base.Add(cycles * period)
	if occurrence.Before(start) {
		occurrence = occurrence.Add(period)
	}

	var windows []window
	for occurrence.Before(end) {
		windows = append(windows, window{schedule: *p.ChargingSchedule, offsetSeconds: int(occurrence.Sub(start).Seconds())})
		occurrence = occurrence.Add(period)
	}
	return windows
}

// limitAt finds the limit in effect at offset seconds from start.
// ChargePointMaxProfile is a hard ceiling, not a layer that can be
// overridden: the result is min(ChargePointMax, select(TxProfile
// precedes TxDefaultProfile)), each side picked from its own
// highest-stackLevel covering layer, per spec.md section 4.5.
func limitAt(layers []layer, offset int, start time.Time, unit types.ChargingRateUnitType, defaultPhases int) (float64, *int, bool) {
	cpLimit, cpPhases, cpOk := firstCoveringLimit(layers, offset, start, unit, defaultPhases, func(l layer) bool {
		return l.precedence == 0
	})
	selLimit, selPhases, selOk := firstCoveringLimit(layers, offset, start, unit, defaultPhases, func(l layer) bool {
		return l.precedence != 0
	})

	switch {
	case cpOk && selOk:
		if cpLimit <= selLimit {
			return cpLimit, cpPhases, true
		}
		return selLimit, selPhases, true
	case cpOk:
		return cpLimit, cpPhases, true
	case selOk:
		return selLimit, selPhases, true
	default:
		return 0, nil, false
	}
}

// firstCoveringLimit scans layers matching include, in their existing
// precedence/stackLevel order, and returns the limit of the first one
// whose schedule covers offset.
func firstCoveringLimit(layers []layer, offset int, start time.Time, unit types.ChargingRateUnitType, defaultPhases int, include func(layer) bool) (float64, *int, bool) {
	for _, l := range layers {
		if !include(l) {
			continue
		}
		for _, w := range expand(l, start, start.Add(time.Hour*24*365)) {
			var active *types.ChargingSchedulePeriod
			for i := range w.schedule.ChargingSchedulePeriod {
				p := &w.schedule.ChargingSchedulePeriod[i]
				periodStart := w.offsetSeconds + p.StartPeriod
				if periodStart <= offset {
					active = p
				}
			}
			if active == nil {
				continue
			}
			phases := defaultPhases
			if active.NumberPhases != nil {
				phases = *active.NumberPhases
			}
			limit := convertRate(active.Limit, w.schedule.ChargingRateUnit, unit, phases)
			return limit, active.NumberPhases, true
		}
	}
	return 0, nil, false
}

// convertRate converts between amperes and watts using LowVoltage and
// the connector's phase count, per spec.md section 4.5.
func convertRate(value float64, from, to types.ChargingRateUnitType, phases int) float64 {
	if from == to {
		return value
	}
	if phases <= 0 {
		phases = 3
	}
	if from == types.ChargingRateUnitAmperes && to == types.ChargingRateUnitWatts {
		return value * types.LowVoltage * float64(phases)
	}
	if from == types.ChargingRateUnitWatts && to == types.ChargingRateUnitAmperes {
		return value / (types.LowVoltage * float64(phases))
	}
	return value
}
