// Package memlayout holds the fixed physical-address layout of the QEMU
// "virt" machine this kernel targets: MMIO windows, the kernel load
// address, and the top of usable RAM. Grounded on the memlayout.h implied
// throughout original_source/kernel/vm.c.
package memlayout

import "github.com/nihemak/xv6-riscv-go/riscv"

const (
	// UART0 is the base address of the NS16550a UART.
	UART0 = 0x10000000

	// VIRTIO0 is the base address of the virtio MMIO disk interface.
	VIRTIO0 = 0x10001000

	// PLIC is the base of the platform-level interrupt controller, 4MiB.
	PLIC     = 0x0c000000
	PLICSize = 0x400000

	// CLINTMTime and CLINTMTimeCmp(hart) are the core-local interruptor's
	// free-running timer and per-hart comparator registers.
	CLINTMTime = 0x2000000 + 0xbff8
)

// CLINTMTimeCmp returns the address of the mtimecmp register for hart.
func CLINTMTimeCmp(hart int) uintptr {
	return 0x2000000 + 0x4000 + 8*uintptr(hart)
}

const (
	// KERNBASE is where QEMU loads the kernel image in physical memory.
	KERNBASE = 0x80000000

	// PHYSTOP is one byte past the last physical address this kernel
	// manages. Everything in [KERNBASE, PHYSTOP) is usable RAM; the
	// allocator universe is [end, PHYSTOP) once the kernel image is
	// subtracted.
	PHYSTOP = KERNBASE + 128*1024*1024

	// TRAMPOLINE is mapped at the same virtual address in every address
	// space, kernel and user alike, one page below the top of the
	// virtual address space.
	TRAMPOLINE = riscv.MaxVA - riscv.PageSize

	// CPUMax bounds the number of harts this kernel supports.
	CPUMax = 8
)
