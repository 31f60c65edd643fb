package riscv

// The CLINT's mtime/mtimecmp registers are ordinary memory-mapped
// words, not CSRs, but timerinit() in
// original_source/kernel/start.c reads and writes them the same way it
// reads and writes CSRs, so this package gives them the same Fn
// indirection for the same reason: a hosted test can't dereference the
// real QEMU CLINT address.
var (
	ReadMTimeFn     = readMTime
	WriteMTimeCmpFn = writeMTimeCmp
)

// ReadMTime returns the CLINT's free-running cycle counter at addr.
func ReadMTime(addr uintptr) uint64 { return ReadMTimeFn(addr) }

// WriteMTimeCmp programs the per-hart timer comparator at addr.
func WriteMTimeCmp(addr uintptr, v uint64) { WriteMTimeCmpFn(addr, v) }
