package gamepad

// AxisVector is the full set of analog-stick positions published each tick.
// All values are within [-1.0, 1.0]; 0.0 is neutral.
type AxisVector struct {
	LeftX  float64
	LeftY  float64
	RightX float64
	RightY float64
}

// Sink applies axis updates to an emulated controller. Implementations live
// outside this module; the publisher only sees this interface.
type Sink interface {
	// Connect attaches to the virtual-controller driver. Returns
	// ErrSinkUnavailable (wrapped) if the driver cannot be reached.
	Connect() error

	// Update applies a full axis vector. A non-nil error marks this
	// update as dropped; the publisher sends a fresh vector next tick.
	Update(AxisVector) error

	// Disconnect detaches from the driver and re-centres the controller.
	Disconnect()
}

// Logger is the minimal logging interface this package needs.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// LogSink is a development sink that logs axis changes instead of driving a
// controller. Repeated identical vectors are not logged again, so a steady
// rider does not flood the log at publish cadence.
type LogSink struct {
	logger Logger
	last   AxisVector
	seen   bool
}

// NewLogSink creates a logging sink.
func NewLogSink(logger Logger) *LogSink {
	if logger == nil {
		logger = noopLogger{}
	}
	return &LogSink{logger: logger}
}

// Connect implements Sink.
func (s *LogSink) Connect() error {
	s.logger.Info("log sink connected")
	return nil
}

// Update implements Sink. Only called from the publisher goroutine.
func (s *LogSink) Update(v AxisVector) error {
	if s.seen && v == s.last {
		return nil
	}
	s.last = v
	s.seen = true
	s.logger.Info("axis update",
		"leftX", v.LeftX, "leftY", v.LeftY,
		"rightX", v.RightX, "rightY", v.RightY)
	return nil
}

// Disconnect implements Sink.
func (s *LogSink) Disconnect() {
	s.logger.Info("log sink disconnected")
}
