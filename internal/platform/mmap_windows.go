//go:build windows

package platform

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

func osPageSize() int {
	var info windows.SystemInfo
	windows.GetSystemInfo(&info)
	return int(info.PageSize)
}

func mmapReserve(n int) ([]byte, error) {
	addr, err := windows.VirtualAlloc(0, uintptr(n), windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_NOACCESS)
	if err != nil {
		return nil, err
	}
	return toSlice(addr, n), nil
}

func mmapReadWrite(n int) ([]byte, error) {
	addr, err := windows.VirtualAlloc(0, uintptr(n), windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return nil, err
	}
	return toSlice(addr, n), nil
}

func mprotect(b []byte, prot Protection) error {
	var old uint32
	return windows.VirtualProtect(uintptr(unsafe.Pointer(&b[0])), uintptr(len(b)), toWindowsProt(prot), &old)
}

func munmap(b []byte) error {
	return windows.VirtualFree(uintptr(unsafe.Pointer(&b[0])), 0, windows.MEM_RELEASE)
}

func toSlice(addr uintptr, n int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), n)
}

func toWindowsProt(prot Protection) uint32 {
	switch {
	case prot&ProtExec != 0 && prot&ProtWrite != 0:
		return windows.PAGE_EXECUTE_READWRITE
	case prot&ProtExec != 0 && prot&ProtRead != 0:
		return windows.PAGE_EXECUTE_READ
	case prot&ProtExec != 0:
		return windows.PAGE_EXECUTE
	case prot&ProtWrite != 0:
		return windows.PAGE_READWRITE
	case prot&ProtRead != 0:
		return windows.PAGE_READONLY
	default:
		return windows.PAGE_NOACCESS
	}
}
