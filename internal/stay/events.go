package stay

import "time"

// EventKind identifies which source table an encounter row came from.
type EventKind int

const (
	// KindAdmission is a direct inpatient admission row (admit to discharge).
	KindAdmission EventKind = iota
	// KindTransfer is a ward-transfer row within an admission.
	KindTransfer
	// KindFeeBasis is an externally billed inpatient episode.
	KindFeeBasis
)

// String returns the source-table name for an event kind.
func (k EventKind) String() string {
	switch k {
	case KindAdmission:
		return "admission"
	case KindTransfer:
		return "transfer"
	case KindFeeBasis:
		return "feebasis"
	default:
		return "unknown"
	}
}

// RawEvent is one row from an encounter source table. It is read-only input;
// the engine never mutates events.
//
// For admissions, Begin is the admit time, End the discharge time and
// Specialty the admitting specialty. For transfers, Begin is the transfer
// time and Specialty the specialty gained at that transfer; End is unused.
// For fee-basis episodes, Begin/End are treatment start/end and Specialty is
// the purpose-of-visit code.
type RawEvent struct {
	PatientID string    `json:"patientId"`
	Kind      EventKind `json:"kind"`
	StayKey   string    `json:"stayKey,omitempty"`
	Begin     time.Time `json:"begin"`
	End       time.Time `json:"end,omitempty"`
	Specialty string    `json:"specialty"`
}
