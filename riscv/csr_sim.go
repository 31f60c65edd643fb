//go:build !riscv64

package riscv

// On any host other than riscv64 there is no CSR file to read or write,
// so these back the Fn variables with in-memory state good enough to
// exercise the rest of this package's logic under `go test`. Real boots
// only ever run the riscv64 build in csr_riscv64.s.
var simState struct {
	satp     uint64
	mstatus  uint64
	mepc     uint64
	medeleg  uint64
	mideleg  uint64
	sie      uint64
	sstatus  uint64
	mtvec    uint64
	stvec    uint64
	mscratch uint64
	mie      uint64
	mhartid  uint64
	tp       uint64
}

func writeSatp(x uint64)    { simState.satp = x }
func readSatp() uint64      { return simState.satp }
func sfenceVMA()            {}
func writeMstatus(x uint64) { simState.mstatus = x }
func readMstatus() uint64   { return simState.mstatus }
func writeMepc(x uint64)    { simState.mepc = x }
func readMepc() uint64      { return simState.mepc }
func writeMedeleg(x uint64) { simState.medeleg = x }
func writeMideleg(x uint64) { simState.mideleg = x }
func writeSie(x uint64)     { simState.sie = x }
func readSie() uint64       { return simState.sie }
func writeSstatus(x uint64) { simState.sstatus = x }
func readSstatus() uint64   { return simState.sstatus }
func writeMtvec(x uint64)   { simState.mtvec = x }
func readMtvec() uint64     { return simState.mtvec }
func writeStvec(x uint64)   { simState.stvec = x }
func writeMscratch(x uint64) { simState.mscratch = x }
func readMscratch() uint64   { return simState.mscratch }
func writeMie(x uint64)     { simState.mie = x }
func readMie() uint64       { return simState.mie }
func readMhartid() uint64   { return simState.mhartid }
func readTp() uint64        { return simState.tp }
func writeTp(x uint64)      { simState.tp = x }

// SetSimMhartid sets the simulated MHARTID a hosted test observes
// through ReadMhartid. Sim-only: real hardware wires MHARTID to the
// physical hart and it cannot be written.
func SetSimMhartid(id uint64) { simState.mhartid = id }
