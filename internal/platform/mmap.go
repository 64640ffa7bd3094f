// Package platform wraps the OS primitives the Code Memory (spec.md §4.2)
// and Linear Memory (spec.md §4.6) components need: anonymous mmap, mprotect
// transitions, and page size / CPU feature queries. Grounded on the
// teacher's practice of isolating syscalls behind a small internal/platform
// package with build-tag-split files per OS, and wired to golang.org/x/sys
// per SPEC_FULL.md's Domain Stack rather than invoking syscall.Syscall
// directly.
package platform

// Protection is a bitmask of memory access permissions, mirroring the POSIX
// PROT_* / Windows PAGE_* families at the granularity this package needs.
type Protection int

const (
	ProtRead Protection = 1 << iota
	ProtWrite
	ProtExec
)

// PageSize is the OS memory page size, used to round Code Memory and Linear
// Memory reservations to a page boundary.
var PageSize = osPageSize()

// MmapReserve reserves n bytes of address space with no access permissions
// (PROT_NONE). It is used to reserve a Static Linear Memory's bound plus its
// trailing guard region; Code Memory allocates with MmapReadWrite instead.
func MmapReserve(n int) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	return mmapReserve(roundUp(n, PageSize))
}

// MmapReadWrite allocates n bytes of read-write anonymous memory, the
// "writable, not yet linked" state of the Code Memory three-state protocol
// (spec.md §9).
func MmapReadWrite(n int) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	return mmapReadWrite(roundUp(n, PageSize))
}

// Mprotect changes the protection of the full pages backing b in place.
func Mprotect(b []byte, prot Protection) error {
	if len(b) == 0 {
		return nil
	}
	return mprotect(b, prot)
}

// Munmap releases memory obtained from MmapReserve/MmapReadWrite.
func Munmap(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	return munmap(b)
}

func roundUp(n, page int) int {
	if n%page == 0 {
		return n
	}
	return (n/page + 1) * page
}
