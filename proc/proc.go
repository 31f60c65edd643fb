// Package proc is the narrow sliver of the process subsystem this
// kernel's virtual-memory layer depends on: per-hart identity and the
// kernel-stack layout map_kernel_stacks installs into the kernel
// address space. The process table, scheduler, and trap dispatch
// themselves are out of scope (spec.md §1) — this package exists only
// to give vm.BuildKernel's StackMapper collaborator a real
// implementation, grounded on original_source/kernel/vm.c's
// proc_mapstacks call and the xv6 lineage's conventional NPROC slot
// count.
package proc

import (
	"github.com/nihemak/xv6-riscv-go/mem"
	"github.com/nihemak/xv6-riscv-go/memlayout"
	"github.com/nihemak/xv6-riscv-go/riscv"
	"github.com/nihemak/xv6-riscv-go/vm"
)

// NProc bounds the number of process slots this kernel supports, and
// therefore the number of kernel stacks map_kernel_stacks installs.
const NProc = 64

// KStack returns the virtual address of process slot p's kernel stack.
// Each slot gets one guard page below its stack page, so a stack
// overflow faults instead of corrupting the next slot's stack —
// the same layout original_source/kernel/vm.c's proc_mapstacks builds,
// descending from TRAMPOLINE.
func KStack(p int) uintptr {
	return memlayout.TRAMPOLINE - uintptr(p+1)*2*riscv.PageSize
}

// MapStacks installs one R+W kernel stack per process slot into root,
// satisfying vm.StackMapper. It is meant to be passed directly to
// vm.BuildKernel.
func MapStacks(a *mem.Allocator, root *vm.Root) {
	for p := 0; p < NProc; p++ {
		f, ok := a.Alloc()
		if !ok {
			panic("proc: MapStacks: out of memory")
		}
		if !vm.MapRange(a, root, KStack(p), riscv.PageSize, uintptr(f), riscv.PteR|riscv.PteW) {
			panic("proc: MapStacks: map failed")
		}
	}
}

// Cpuid returns the calling hart's id, stashed in the thread-pointer
// register by the machine-mode entry point before supervisor mode ever
// runs. Must be called with interrupts disabled — the scheduler could
// otherwise migrate the calling goroutine-equivalent context to another
// hart between the read and its use.
func Cpuid() int {
	return int(riscv.ReadTp())
}
