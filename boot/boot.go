// Package boot implements the per-hart machine-mode entry point and
// the supervisor-mode one-shot init barrier described in spec.md §4.5.
// Grounded on original_source/kernel/start.c (start/timerinit) and
// original_source/kernel/main.c's cpuid()==0 / started barrier.
package boot

import (
	"sync/atomic"
	"unsafe"

	"github.com/nihemak/xv6-riscv-go/mem"
	"github.com/nihemak/xv6-riscv-go/memlayout"
	"github.com/nihemak/xv6-riscv-go/proc"
	"github.com/nihemak/xv6-riscv-go/riscv"
	"github.com/nihemak/xv6-riscv-go/vm"
)

// timerInterval is the CLINT cycle count between timer interrupts,
// about a tenth of a second under QEMU.
const timerInterval = 1000000

// timerScratch holds, per hart, the state the machine-mode timer
// vector needs. Slots 0..2 are register-save space for that vector;
// slots 3 and 4 are the comparator address and interval. The vector
// itself turns the interrupt into a software interrupt for the trap
// dispatcher, which is out of scope here (spec.md §1) — this package
// only lays the scratch area out and arms the first comparator.
var timerScratch [memlayout.CPUMax][5]uint64

// MachineEntry performs this hart's machine-mode bring-up: stages a
// return to supervisor mode, disables paging, delegates every
// exception and interrupt to supervisor mode, enables the three
// supervisor interrupt sources, arms the CLINT timer, and stashes the
// hart id in tp for cpuid(). mainPC is the address a linked boot image
// would plant in MEPC for the eventual mret; timerVecPC is the address
// of the machine-mode timer vector timerInit routes mtvec to — that
// vector's body is the out-of-scope trap-dispatch collaborator (spec.md
// §1), so it is only ever an address here, never called. The hart id
// is read from MHARTID, matching original_source/kernel/start.c's
// start(), rather than trusted from a caller. On real hardware control
// never returns here — in this port there is no trap return to
// simulate, so MachineEntry calls supervisorMain directly once every
// CSR is staged.
func MachineEntry(mainPC, timerVecPC uint64, supervisorMain func(hartID int)) {
	riscv.WriteMstatus(riscv.MstatusSetMPP(riscv.ReadMstatus()))
	riscv.WriteMepc(mainPC)
	riscv.WriteSatp(0)
	riscv.WriteMedeleg(0xffff)
	riscv.WriteMideleg(0xffff)
	riscv.WriteSie(riscv.SieWithSupervisorBits(riscv.ReadSie()))

	timerInit(timerVecPC)

	id := int(riscv.ReadMhartid())
	riscv.WriteTp(uint64(id))
	supervisorMain(id)
}

// timerInit arms this hart's CLINT comparator for one interval from
// now, records the comparator address and interval in that hart's
// scratch slot, routes machine-mode timer interrupts to timerVecPC via
// mtvec, and enables machine-mode timer interrupts. Grounded on
// original_source/kernel/start.c's timerinit(), which reads MHARTID
// itself rather than taking the hart id as an argument.
func timerInit(timerVecPC uint64) {
	id := int(riscv.ReadMhartid())
	cmpAddr := memlayout.CLINTMTimeCmp(id)
	riscv.WriteMTimeCmp(cmpAddr, riscv.ReadMTime(memlayout.CLINTMTime)+timerInterval)

	scratch := &timerScratch[id]
	scratch[3] = uint64(cmpAddr)
	scratch[4] = timerInterval
	riscv.WriteMscratch(uint64(uintptr(unsafe.Pointer(scratch))))

	riscv.WriteMtvec(timerVecPC)

	riscv.WriteMstatus(riscv.MstatusWithMIE(riscv.ReadMstatus()))
	riscv.WriteMie(riscv.MieWithTimer(riscv.ReadMie()))
}

// BootConfig carries the platform specifics SupervisorMain needs to
// build the kernel address space — values a real boot image would
// read out of its linker script.
type BootConfig struct {
	Lo, Hi       uintptr // PPA universe: [end of kernel image, PHYSTOP)
	Etext        uintptr
	TrampolinePA uintptr
	MapStacks    vm.StackMapper
}

var (
	started     uint32
	kernelAlloc *mem.Allocator
	kernelRoot  *vm.Root
)

// SupervisorMain is the one-shot init barrier: the primary hart
// (cpuid()==0) builds the physical allocator and the kernel address
// space, enables paging on itself, and releases "started" with a full
// memory barrier. Every other hart busy-waits on "started", acquires
// it, then only enables paging for itself — it never repeats the
// primary's global init. Console setup, the process table, trap
// vectors, the interrupt controller, buffer/inode caches, the disk,
// and launching the first user process are all out of scope here
// (spec.md §1); a real main() would continue from where this returns.
func SupervisorMain(cfg BootConfig) *vm.Root {
	if proc.Cpuid() == 0 {
		a := &mem.Allocator{}
		a.Init(cfg.Lo, cfg.Hi)
		root, ok := vm.BuildKernel(a, cfg.Etext, cfg.TrampolinePA, cfg.MapStacks)
		if !ok {
			panic("boot: SupervisorMain: BuildKernel failed")
		}
		kernelAlloc, kernelRoot = a, root
		vm.InitHart(root)

		atomic.StoreUint32(&started, 1)
		return root
	}

	for atomic.LoadUint32(&started) == 0 {
	}
	vm.InitHart(kernelRoot)
	return kernelRoot
}
