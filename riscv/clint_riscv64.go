//go:build riscv64

package riscv

import "unsafe"

// The CLINT registers are plain memory, so unlike the CSR accessors
// these need no assembly — a direct pointer dereference at the MMIO
// address is the real operation, same as mem.Frame.Bytes().

func readMTime(addr uintptr) uint64 {
	return *(*uint64)(unsafe.Pointer(addr))
}

func writeMTimeCmp(addr uintptr, v uint64) {
	*(*uint64)(unsafe.Pointer(addr)) = v
}
