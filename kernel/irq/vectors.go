package irq

// Architecturally defined exception vectors (Intel SDM vol. 3A §6.3),
// named for callers registering handlers via HandleException/
// HandleExceptionWithCode.
const (
	DivideByZero               Vector = 0
	Debug                      Vector = 1
	NMI                        Vector = 2
	Breakpoint                 Vector = 3
	Overflow                   Vector = 4
	BoundRangeExceeded         Vector = 5
	InvalidOpcode              Vector = 6
	DeviceNotAvailable         Vector = 7
	DoubleFault                Vector = 8
	InvalidTSS                 Vector = 10
	SegmentNotPresent          Vector = 11
	StackSegmentFault          Vector = 12
	GeneralProtectionFault     Vector = 13
	PageFaultException         Vector = 14
	FloatingPointException     Vector = 16
	AlignmentCheck             Vector = 17
	MachineCheck               Vector = 18
	SIMDFloatingPointException Vector = 19
	VirtualizationException    Vector = 20
	SecurityException          Vector = 30
)
