//go:build windows

package directml

import (
	"encoding/binary"
	"syscall"
	"unsafe"

	"github.com/google/uuid"
	"golang.org/x/sys/windows"
)

const (
	d3d12DLL    = "d3d12.dll"
	directMLDLL = "DirectML.dll"
)

var (
	modd3d12              = windows.NewLazySystemDLL(d3d12DLL)
	procD3D12CreateDevice = modd3d12.NewProc("D3D12CreateDevice")
)

type systemNative struct {
	dmlCreateDevice *windows.LazyProc
}

// SystemNative binds d3d12.dll from System32 and DirectML.dll from dmlPath.
// An empty dmlPath uses the normal DLL search order, so a redistributable
// DirectML.dll next to the executable is picked up.
func SystemNative(dmlPath string) Native {
	if dmlPath == "" {
		dmlPath = directMLDLL
	}
	return &systemNative{
		dmlCreateDevice: windows.NewLazyDLL(dmlPath).NewProc("DMLCreateDevice"),
	}
}

func (n *systemNative) CreateGraphicsDevice(adapter uintptr, level FeatureLevel, riid uuid.UUID) (HRESULT, uintptr, error) {
	if err := procD3D12CreateDevice.Find(); err != nil {
		return 0, 0, err
	}
	iid := toGUID(riid)
	var device uintptr
	r, _, _ := syscall.SyscallN(procD3D12CreateDevice.Addr(),
		adapter,
		uintptr(level),
		uintptr(unsafe.Pointer(&iid)),
		uintptr(unsafe.Pointer(&device)),
	)
	return HRESULT(int32(r)), device, nil
}

func (n *systemNative) CreateMLDevice(device uintptr, flags CreateDeviceFlags, riid uuid.UUID) (HRESULT, uintptr, error) {
	if err := n.dmlCreateDevice.Find(); err != nil {
		return 0, 0, err
	}
	iid := toGUID(riid)
	var mlDevice uintptr
	r, _, _ := syscall.SyscallN(n.dmlCreateDevice.Addr(),
		device,
		uintptr(flags),
		uintptr(unsafe.Pointer(&iid)),
		uintptr(unsafe.Pointer(&mlDevice)),
	)
	return HRESULT(int32(r)), mlDevice, nil
}

// Release calls IUnknown::Release, the third vtable slot.
func (n *systemNative) Release(obj uintptr) uint32 {
	vtbl := *(**[3]uintptr)(unsafe.Pointer(obj))
	r, _, _ := syscall.SyscallN(vtbl[2], obj)
	return uint32(r)
}

// toGUID converts an RFC 4122 byte order UUID to the Windows GUID layout,
// whose first three fields are stored little-endian.
func toGUID(u uuid.UUID) windows.GUID {
	g := windows.GUID{
		Data1: binary.BigEndian.Uint32(u[0:4]),
		Data2: binary.BigEndian.Uint16(u[4:6]),
		Data3: binary.BigEndian.Uint16(u[6:8]),
	}
	copy(g.Data4[:], u[8:16])
	return g
}
