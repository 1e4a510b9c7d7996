package types

// Charging profile vocabulary, per spec.md section 3. Kept in the
// wire-types package because both the OCPP smartcharging messages and
// the Smart-Charging Engine (package profiles) share these shapes;
// only the engine owns instances of them at runtime.

type ChargingProfilePurposeType string
type ChargingProfileKindType string
type RecurrencyKindType string
type ChargingRateUnitType string

const (
	ChargingProfilePurposeChargePointMaxProfile ChargingProfilePurposeType = "ChargePointMaxProfile"
	ChargingProfilePurposeTxDefaultProfile      ChargingProfilePurposeType = "TxDefaultProfile"
	ChargingProfilePurposeTxProfile             ChargingProfilePurposeType = "TxProfile"

	ChargingProfileKindAbsolute  ChargingProfileKindType = "Absolute"
	ChargingProfileKindRecurring ChargingProfileKindType = "Recurring"
	ChargingProfileKindRelative  ChargingProfileKindType = "Relative"

	RecurrencyKindDaily  RecurrencyKindType = "Daily"
	RecurrencyKindWeekly RecurrencyKindType = "Weekly"

	ChargingRateUnitWatts   ChargingRateUnitType = "W"
	ChargingRateUnitAmperes ChargingRateUnitType = "A"
)

// NoLimitSpecified marks a composite-schedule period that no
// installed profile covers.
const NoLimitSpecified = -1

// UnassignedTransactionId is the placeholder transactionId for a
// Transaction that has not yet been assigned one by the Central
// System, per spec.md section 3.
const UnassignedTransactionId = -1

type ChargingSchedulePeriod struct {
	StartPeriod  int      `json:"startPeriod" validate:"gte=0"`
	Limit        float64  `json:"limit" validate:"gte=0"`
	NumberPhases *int     `json:"numberPhases,omitempty" validate:"omitempty,gte=0"`
}

type ChargingSchedule struct {
	Duration               *int                     `json:"duration,omitempty" validate:"omitempty,gte=0"`
	StartSchedule          *DateTime                `json:"startSchedule,omitempty"`
	ChargingRateUnit       ChargingRateUnitType     `json:"chargingRateUnit" validate:"required,oneof=A W"`
	ChargingSchedulePeriod []ChargingSchedulePeriod `json:"chargingSchedulePeriod" validate:"required,min=1,dive"`
	MinChargingRate        *float64                 `json:"minChargingRate,omitempty" validate:"omitempty,gte=0"`
}

type ChargingProfile struct {
	ChargingProfileId      int                        `json:"chargingProfileId"`
	TransactionId          int                        `json:"transactionId,omitempty"`
	StackLevel             int                        `json:"stackLevel" validate:"gte=0"`
	ChargingProfilePurpose ChargingProfilePurposeType `json:"chargingProfilePurpose" validate:"required,oneof=ChargePointMaxProfile TxDefaultProfile TxProfile"`
	ChargingProfileKind    ChargingProfileKindType    `json:"chargingProfileKind" validate:"required,oneof=Absolute Recurring Relative"`
	RecurrencyKind         RecurrencyKindType         `json:"recurrencyKind,omitempty" validate:"omitempty,oneof=Daily Weekly"`
	ValidFrom              *DateTime                  `json:"validFrom,omitempty"`
	ValidTo                *DateTime                  `json:"validTo,omitempty"`
	ChargingSchedule       *ChargingSchedule          `json:"chargingSchedule" validate:"required"`
}

// PowerMeterSample is a decoded snapshot of the power meter driver's
// reading for one connector, decomposed into a total plus optional
// per-phase components, per spec.md section 3 ("each decomposed into
// total plus optional per-phase L1/L2/L3 with missing phases
// permitted").
type PowerMeterSample struct {
	Timestamp        DateTime
	VoltageV         PhaseVector
	CurrentA         PhaseVector
	PowerW           PhaseVector
	EnergyImportWh   PhaseVector
	EnergyExportWh   PhaseVector
	FrequencyHz      PhaseVector
}

// PhaseVector holds a total measurement plus optional per-phase
// breakdowns. A nil pointer means that phase wasn't reported.
type PhaseVector struct {
	Total float64
	L1    *float64
	L2    *float64
	L3    *float64
}
