// Package ecss holds the PUS failure codes shared across the distributor
// and the service handlers. Numeric values are this module's own choice —
// spec.md names the codes, not their wire values, and no mission-specific
// failure code table is in scope here.
package ecss

const (
	CodeInvalidPusSubservice        uint16 = 0xA1
	CodeNotEnoughAppData            uint16 = 0xA2
	CodeServiceNotImplemented       uint16 = 0xA3
	CodeUnknownTargetID              uint16 = 0xA4
	CodeHkTargetIDMissing            uint16 = 0xA5
	CodeHkUniqueIDMissing            uint16 = 0xA6
	CodeHkCollectionIntervalMissing  uint16 = 0xA7
)
