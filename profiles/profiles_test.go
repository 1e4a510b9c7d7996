package profiles

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chargepoint/ocpp/types"
)

func testLimits() Limits {
	return Limits{
		MaxStackLevel:         10,
		MaxProfilesInstalled:  10,
		MaxSchedulePeriods:    10,
		AllowedRateUnits:      []types.ChargingRateUnitType{types.ChargingRateUnitWatts, types.ChargingRateUnitAmperes},
		DefaultNumberOfPhases: 3,
	}
}

func absoluteProfile(id, stackLevel int, purpose types.ChargingProfilePurposeType, limit float64) types.ChargingProfile {
	return types.ChargingProfile{
		ChargingProfileId:      id,
		StackLevel:             stackLevel,
		ChargingProfilePurpose: purpose,
		ChargingProfileKind:    types.ChargingProfileKindAbsolute,
		ChargingSchedule: &types.ChargingSchedule{
			ChargingRateUnit:       types.ChargingRateUnitWatts,
			ChargingSchedulePeriod: []types.ChargingSchedulePeriod{{StartPeriod: 0, Limit: limit}},
		},
	}
}

func TestValidateRejectsStackLevelAboveMax(t *testing.T) {
	s := New(testLimits())
	p := absoluteProfile(1, 99, types.ChargingProfilePurposeTxDefaultProfile, 1000)
	err := s.Validate(p, 1, false, nil)
	require.Error(t, err)
}

func TestValidateRejectsTxProfileOnConnectorZero(t *testing.T) {
	s := New(testLimits())
	p := absoluteProfile(1, 0, types.ChargingProfilePurposeTxProfile, 1000)
	p.TransactionId = 5
	err := s.Validate(p, 0, false, &ActiveTransaction{ConnectorId: 0, TransactionId: 5})
	require.Error(t, err)
}

func TestValidateRejectsTxProfileWithoutMatchingTransaction(t *testing.T) {
	s := New(testLimits())
	p := absoluteProfile(1, 0, types.ChargingProfilePurposeTxProfile, 1000)
	p.TransactionId = 5
	err := s.Validate(p, 1, false, &ActiveTransaction{ConnectorId: 1, TransactionId: 6})
	require.Error(t, err)
}

func TestValidateAllowsTxProfileOnRemoteStartWithoutActiveTransaction(t *testing.T) {
	s := New(testLimits())
	p := absoluteProfile(1, 0, types.ChargingProfilePurposeTxProfile, 1000)
	p.TransactionId = 5
	err := s.Validate(p, 1, true, nil)
	require.NoError(t, err)
}

func TestSetReplacesByStackLevel(t *testing.T) {
	s := New(testLimits())
	s.Set(absoluteProfile(1, 0, types.ChargingProfilePurposeTxDefaultProfile, 1000), 1)
	s.Set(absoluteProfile(2, 0, types.ChargingProfilePurposeTxDefaultProfile, 2000), 1)
	require.Len(t, s.txDefault[1], 1)
	require.Equal(t, 2000.0, s.txDefault[1][0].ChargingSchedule.ChargingSchedulePeriod[0].Limit)
}

func TestClearByPurpose(t *testing.T) {
	s := New(testLimits())
	s.Set(absoluteProfile(1, 0, types.ChargingProfilePurposeTxDefaultProfile, 1000), 1)
	removed := s.Clear(ClearCriteria{Purpose: types.ChargingProfilePurposeTxDefaultProfile})
	require.Equal(t, 1, removed)
	require.Empty(t, s.txDefault[1])
}

func TestCompositeScheduleChargePointMaxCapsLowerTxDefault(t *testing.T) {
	s := New(testLimits())
	s.Set(absoluteProfile(1, 0, types.ChargingProfilePurposeChargePointMaxProfile, 5000), 0)
	s.Set(absoluteProfile(2, 0, types.ChargingProfilePurposeTxDefaultProfile, 8000), 1)

	start := time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	schedule := s.CompositeSchedule(1, start, end, types.ChargingRateUnitWatts)
	require.NotEmpty(t, schedule.ChargingSchedulePeriod)
	require.Equal(t, 5000.0, schedule.ChargingSchedulePeriod[0].Limit)
}

func TestCompositeScheduleChargePointMaxIsCeilingNotOverride(t *testing.T) {
	s := New(testLimits())
	s.Set(absoluteProfile(1, 0, types.ChargingProfilePurposeChargePointMaxProfile, 8000), 0)
	s.Set(absoluteProfile(2, 0, types.ChargingProfilePurposeTxDefaultProfile, 5000), 1)

	start := time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	schedule := s.CompositeSchedule(1, start, end, types.ChargingRateUnitWatts)
	require.NotEmpty(t, schedule.ChargingSchedulePeriod)
	require.Equal(t, 5000.0, schedule.ChargingSchedulePeriod[0].Limit)
}

func TestCompositeScheduleNoLimitWhenNothingInstalled(t *testing.T) {
	s := New(testLimits())
	start := time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	schedule := s.CompositeSchedule(1, start, end, types.ChargingRateUnitWatts)
	require.Equal(t, float64(types.NoLimitSpecified), schedule.ChargingSchedulePeriod[0].Limit)
}

func TestConvertRateAmperesToWatts(t *testing.T) {
	watts := convertRate(16, types.ChargingRateUnitAmperes, types.ChargingRateUnitWatts, 3)
	require.Equal(t, 16*types.LowVoltage*3, watts)
}
