//go:build riscv64

package riscv

// These accessors have no Go body: they are implemented in
// csr_riscv64.s as direct CSR instructions, the same way
// original_source/kernel/riscv.h wraps "csrr"/"csrw" in static inline
// functions. Reached only through the Fn variables in csr.go.

func writeSatp(x uint64)
func readSatp() uint64
func sfenceVMA()
func writeMstatus(x uint64)
func readMstatus() uint64
func writeMepc(x uint64)
func readMepc() uint64
func writeMedeleg(x uint64)
func writeMideleg(x uint64)
func writeSie(x uint64)
func readSie() uint64
func writeSstatus(x uint64)
func readSstatus() uint64
func writeMtvec(x uint64)
func readMtvec() uint64
func writeStvec(x uint64)
func writeMscratch(x uint64)
func readMscratch() uint64
func writeMie(x uint64)
func readMie() uint64
func readMhartid() uint64
func readTp() uint64
func writeTp(x uint64)
