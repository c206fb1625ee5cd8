package dircon

// Bluetooth SIG 16-bit UUIDs relevant to Dircon trainers.
const (
	// ServiceFitnessMachine is the FTMS service UUID.
	ServiceFitnessMachine uint16 = 0x1826

	// CharIndoorBikeData carries the Indoor Bike Data characteristic
	// (speed, cadence, power notifications).
	CharIndoorBikeData uint16 = 0x2AD2

	// CharFitnessMachineControlPoint accepts control requests (take
	// control, set resistance).
	CharFitnessMachineControlPoint uint16 = 0x2AD9

	// CharFitnessMachineFeature describes supported FTMS features.
	CharFitnessMachineFeature uint16 = 0x2ACC

	// CharFitnessMachineStatus reports machine status changes.
	CharFitnessMachineStatus uint16 = 0x2ADA
)
