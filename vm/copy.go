package vm

import (
	"github.com/nihemak/xv6-riscv-go/mem"
	"github.com/nihemak/xv6-riscv-go/riscv"
)

// These three functions move bytes between kernel and user memory by
// walking the user page table one page at a time and doing an in-kernel
// copy to/from the frame's direct-mapped bytes — never by relying on
// the user page table being the currently active one. Grounded on
// original_source/kernel/vm.c's copyout/copyin/copyinstr.

// CopyOut writes len(src) bytes from src into user memory at userVA. It
// returns false if any touched page is unmapped or not user-accessible.
func CopyOut(a *mem.Allocator, root *Root, userVA uintptr, src []byte) bool {
	for len(src) > 0 {
		va0 := riscv.PageRoundDown(userVA)
		pa0, ok := WalkUserAddr(a, root, va0)
		if !ok {
			return false
		}
		off := userVA - va0
		n := uintptr(riscv.PageSize) - off
		if n > uintptr(len(src)) {
			n = uintptr(len(src))
		}
		dst := mem.Frame(pa0).Bytes()
		copy(dst[off:off+n], src[:n])

		src = src[n:]
		userVA = va0 + riscv.PageSize
	}
	return true
}

// CopyIn reads len(dst) bytes from user memory at userVA into dst. It
// returns false if any touched page is unmapped or not user-accessible.
func CopyIn(a *mem.Allocator, root *Root, dst []byte, userVA uintptr) bool {
	for len(dst) > 0 {
		va0 := riscv.PageRoundDown(userVA)
		pa0, ok := WalkUserAddr(a, root, va0)
		if !ok {
			return false
		}
		off := userVA - va0
		n := uintptr(riscv.PageSize) - off
		if n > uintptr(len(dst)) {
			n = uintptr(len(dst))
		}
		src := mem.Frame(pa0).Bytes()
		copy(dst[:n], src[off:off+n])

		dst = dst[n:]
		userVA = va0 + riscv.PageSize
	}
	return true
}

// CopyInString reads a NUL-terminated string from user memory at
// userVA into dst, stopping at the first NUL byte or after max bytes,
// whichever comes first. It returns false — and leaves dst's contents
// unspecified — unless a NUL byte was found within max bytes; on
// success dst[:n] holds the string with its terminating NUL, so
// strlen(dst) < max.
func CopyInString(a *mem.Allocator, root *Root, dst []byte, userVA uintptr, max int) bool {
	gotNull := false
	n := 0
	remaining := max

	for !gotNull && remaining > 0 {
		va0 := riscv.PageRoundDown(userVA)
		pa0, ok := WalkUserAddr(a, root, va0)
		if !ok {
			return false
		}
		off := userVA - va0
		chunk := int(uintptr(riscv.PageSize) - off)
		if chunk > remaining {
			chunk = remaining
		}
		page := mem.Frame(pa0).Bytes()

		for i := 0; i < chunk; i++ {
			c := page[int(off)+i]
			if c == 0 {
				dst[n] = 0
				gotNull = true
				break
			}
			dst[n] = c
			n++
			remaining--
		}
		userVA = va0 + riscv.PageSize
	}
	return gotNull
}
