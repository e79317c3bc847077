package cpu

var (
	readMSRFn = ReadMSR
	rdtscpFn  = RDTSCP
)

// busRatioToHz is the bus clock multiplied against MSRPlatformInfo's ratio
// field (spec.md §4.G step 6): 100 MHz per ratio unit.
const busRatioToHz = 100 * 1000 * 1000

// fallbackHz is the 3 GHz fallback frequency used until a successful MSR
// probe replaces it (spec.md §3), and kept as the permanent value when the
// probe reads back zero (e.g. inside a hypervisor that does not model
// MSRPlatformInfo, spec.md §9 Open Questions).
const fallbackHz = 3 * 1000 * 1000 * 1000

// Frequency holds the calibrated cycle counts spec.md §3 describes: the raw
// per-second count plus four pre-scaled derivatives so sleep primitives
// never need to perform a division on the hot path.
type Frequency struct {
	PerSecond      uint64
	PerMillisecond uint64
	PerMicrosecond uint64
	Per100Nanos    uint64
	Per10Nanos     uint64
}

// scaledFrom derives every Frequency field from a per-second cycle count.
func scaledFrom(hz uint64) Frequency {
	return Frequency{
		PerSecond:      hz,
		PerMillisecond: hz / 1000,
		PerMicrosecond: hz / 1000000,
		Per100Nanos:    hz / 10000000,
		Per10Nanos:     hz / 100000000,
	}
}

// tscFreq is the process-wide TSC frequency record, initialised to the 3
// GHz fallback and replaced by CalibrateTSC on a successful MSR probe
// (spec.md §3, §9 Open Questions on globals being owned by a root module
// rather than scattered package-level state).
var tscFreq = scaledFrom(uint64(fallbackHz))

// TSCFrequency returns the currently calibrated TSC frequency record.
func TSCFrequency() Frequency {
	return tscFreq
}

// CalibrateTSC reads MSRPlatformInfo's maximum non-turbo ratio and derives
// the TSC frequency from it (spec.md §4.G step 6). If the MSR reads back a
// zero ratio — observed inside virtual machines that do not model it — the
// existing (initially 3 GHz fallback) frequency record is left untouched.
func CalibrateTSC() {
	ratio := (readMSRFn(MSRPlatformInfo) >> platformInfoBusRatioShift) & platformInfoBusRatioMask
	if ratio == 0 {
		return
	}

	tscFreq = scaledFrom(ratio * busRatioToHz)
}

// ssleep busy-polls RDTSCP until at least n seconds have elapsed.
func ssleep(n uint64) { spin(n * tscFreq.PerSecond) }

// msleep busy-polls RDTSCP until at least n milliseconds have elapsed.
func msleep(n uint64) { spin(n * tscFreq.PerMillisecond) }

// usleep busy-polls RDTSCP until at least n microseconds have elapsed.
func usleep(n uint64) { spin(n * tscFreq.PerMicrosecond) }

// Sleep primitives are unexported so they can only be driven through the
// named ssleep/msleep/usleep entry points spec.md §4.G names; this wrapper
// set is exported for callers elsewhere in the kernel core.

// Sleep busy-polls for the given number of seconds.
func Sleep(seconds uint64) { ssleep(seconds) }

// SleepMillis busy-polls for the given number of milliseconds.
func SleepMillis(ms uint64) { msleep(ms) }

// SleepMicros busy-polls for the given number of microseconds.
func SleepMicros(us uint64) { usleep(us) }

func spin(cycles uint64) {
	if cycles == 0 {
		return
	}
	start, _ := rdtscpFn()
	for {
		now, _ := rdtscpFn()
		if now-start >= cycles {
			return
		}
	}
}
