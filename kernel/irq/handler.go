package irq

// hasHardwareErrorCode lists the architectural vectors where the CPU
// itself pushes an error code before invoking the handler (Intel SDM vol.
// 3A §6.13); every other vector's stub synthesizes a zero in its place, so
// this table also says which of ExceptionHandler or
// ExceptionHandlerWithCode the dispatcher must call for a given vector.
var hasHardwareErrorCode = map[Vector]bool{
	8: true, 10: true, 11: true, 12: true,
	13: true, 14: true, 17: true, 21: true, 29: true, 30: true,
}

// reservedVectors are architecturally reserved and share one generic
// handler rather than a dedicated registration slot (spec.md §4.E).
var reservedVectors = func() map[Vector]bool {
	m := map[Vector]bool{15: true, 31: true}
	for v := 21; v <= 29; v++ {
		m[Vector(v)] = true
	}
	return m
}()

// ExceptionHandler handles an architectural exception that does not push
// an error code. If it returns, any modifications to frame/regs are
// propagated back to the interrupted context by kernel/idt's dispatcher.
type ExceptionHandler func(frame *Frame, regs *Regs)

// ExceptionHandlerWithCode handles an architectural exception that pushes
// an error code onto the stack.
type ExceptionHandlerWithCode func(errorCode uint64, frame *Frame, regs *Regs)

var (
	exceptionHandlers         [32]ExceptionHandler
	exceptionHandlersWithCode [32]ExceptionHandlerWithCode
)

// HandleException registers handler for vector, which must not be one of
// the vectors the CPU pushes an error code for (see hasHardwareErrorCode);
// registering the wrong shape is a programming error caught by Dispatch
// falling back to the default panic path instead of calling a handler
// with the wrong signature.
func HandleException(vector Vector, handler ExceptionHandler) {
	if vector < 32 && !hasHardwareErrorCode[vector] {
		exceptionHandlers[vector] = handler
	}
}

// HandleExceptionWithCode registers handler for a vector that pushes an
// error code.
func HandleExceptionWithCode(vector Vector, handler ExceptionHandlerWithCode) {
	if vector < 32 && hasHardwareErrorCode[vector] {
		exceptionHandlersWithCode[vector] = handler
	}
}
