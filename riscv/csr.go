package riscv

// CSR access is split from the rest of this package: the functions below
// are declared here but implemented per-architecture (csr_riscv64.s for
// GOARCH=riscv64, csr_sim.go otherwise) and reached only through the Fn
// indirection variables, so tests on any host can substitute simulated
// register state. Grounded on the declared-but-asm-backed accessor idiom
// in gopher-os's kernel/cpu package and usbarmory/tamago's arm64 package
// (both under other_examples/).
var (
	WriteSatpFn    = writeSatp
	ReadSatpFn     = readSatp
	SfenceVMAFn    = sfenceVMA
	WriteMstatusFn = writeMstatus
	ReadMstatusFn  = readMstatus
	WriteMepcFn    = writeMepc
	ReadMepcFn     = readMepc
	WriteMedelegFn = writeMedeleg
	WriteMidelegFn = writeMideleg
	WriteSieFn     = writeSie
	ReadSieFn      = readSie
	WriteSstatusFn = writeSstatus
	ReadSstatusFn  = readSstatus
	WriteMtvecFn   = writeMtvec
	ReadMtvecFn    = readMtvec
	WriteStvecFn   = writeStvec
	WriteMscratchFn = writeMscratch
	ReadMscratchFn  = readMscratch
	WriteMieFn     = writeMie
	ReadMieFn      = readMie
	ReadMhartidFn  = readMhartid
	ReadTpFn       = readTp
	WriteTpFn      = writeTp
)

// WriteSatp loads the supervisor address translation and protection
// register, switching the active page table (does not itself flush the
// TLB — callers that need that call SfenceVMA too).
func WriteSatp(x uint64) { WriteSatpFn(x) }

// ReadSatp returns the current SATP value.
func ReadSatp() uint64 { return ReadSatpFn() }

// SfenceVMA flushes all TLB entries on the calling hart.
func SfenceVMA() { SfenceVMAFn() }

// WriteMstatus writes the machine status register.
func WriteMstatus(x uint64) { WriteMstatusFn(x) }

// ReadMstatus returns the machine status register.
func ReadMstatus() uint64 { return ReadMstatusFn() }

// WriteMepc sets the machine exception program counter, i.e. the address
// an mret will jump to.
func WriteMepc(x uint64) { WriteMepcFn(x) }

// ReadMepc returns the current machine exception program counter.
func ReadMepc() uint64 { return ReadMepcFn() }

// WriteMedeleg delegates the named machine-mode exceptions to supervisor
// mode.
func WriteMedeleg(x uint64) { WriteMedelegFn(x) }

// WriteMideleg delegates the named machine-mode interrupts to supervisor
// mode.
func WriteMideleg(x uint64) { WriteMidelegFn(x) }

// WriteSie writes the supervisor interrupt-enable register.
func WriteSie(x uint64) { WriteSieFn(x) }

// ReadSie returns the supervisor interrupt-enable register.
func ReadSie() uint64 { return ReadSieFn() }

// WriteSstatus writes the supervisor status register.
func WriteSstatus(x uint64) { WriteSstatusFn(x) }

// ReadSstatus returns the supervisor status register.
func ReadSstatus() uint64 { return ReadSstatusFn() }

// WriteMtvec installs the machine-mode trap vector.
func WriteMtvec(x uint64) { WriteMtvecFn(x) }

// ReadMtvec returns the machine-mode trap vector.
func ReadMtvec() uint64 { return ReadMtvecFn() }

// WriteStvec installs the supervisor-mode trap vector.
func WriteStvec(x uint64) { WriteStvecFn(x) }

// WriteMscratch writes the machine scratch register, used by the
// machine-mode timer vector to stash per-hart state.
func WriteMscratch(x uint64) { WriteMscratchFn(x) }

// ReadMscratch returns the machine scratch register.
func ReadMscratch() uint64 { return ReadMscratchFn() }

// WriteMie writes the machine-mode interrupt-enable register.
func WriteMie(x uint64) { WriteMieFn(x) }

// ReadMie returns the machine-mode interrupt-enable register.
func ReadMie() uint64 { return ReadMieFn() }

// ReadMhartid returns this hart's id.
func ReadMhartid() uint64 { return ReadMhartidFn() }

// ReadTp and WriteTp access the thread-pointer register, used to stash
// the hart id for a cheap Cpuid().
func ReadTp() uint64    { return ReadTpFn() }
func WriteTp(x uint64)  { WriteTpFn(x) }

const (
	mstatusMPPMask = 3 << 11
	mstatusMPPS    = 1 << 11
	mstatusMIE     = 1 << 3

	sieSEIE = 1 << 9
	sieSTIE = 1 << 5
	sieSSIE = 1 << 1

	mieMTIE = 1 << 7

	sstatusSIE = 1 << 1
)

// IntrOn enables supervisor-mode device interrupts on the calling hart.
func IntrOn() {
	WriteSstatus(ReadSstatus() | sstatusSIE)
}

// IntrOff disables supervisor-mode device interrupts on the calling hart.
func IntrOff() {
	WriteSstatus(ReadSstatus() &^ sstatusSIE)
}

// IntrGet reports whether supervisor-mode device interrupts are enabled.
func IntrGet() bool {
	return ReadSstatus()&sstatusSIE != 0
}

// MstatusSetMPP returns mstatus with the previous-privilege field set to
// supervisor mode, for a subsequent mret.
func MstatusSetMPP(mstatus uint64) uint64 {
	return (mstatus &^ mstatusMPPMask) | mstatusMPPS
}

// MstatusWithMIE returns mstatus with the machine-mode interrupt-enable
// bit set.
func MstatusWithMIE(mstatus uint64) uint64 {
	return mstatus | mstatusMIE
}

// SieWithSupervisorBits returns sie with external, timer, and software
// supervisor interrupts enabled.
func SieWithSupervisorBits(sie uint64) uint64 {
	return sie | sieSEIE | sieSTIE | sieSSIE
}

// MieWithTimer returns mie with the machine-mode timer interrupt enabled.
func MieWithTimer(mie uint64) uint64 {
	return mie | mieMTIE
}
