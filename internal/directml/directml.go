package directml

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrNotImplemented = errors.New("directml: not implemented on this platform")

// HRESULT is the status code returned by the native creation calls.
type HRESULT int32

const sOK HRESULT = 0

// FeatureLevel is the minimum D3D feature level requested for the device.
type FeatureLevel uint32

const FeatureLevel11_0 FeatureLevel = 0xb000

// CreateDeviceFlags mirrors DML_CREATE_DEVICE_FLAGS.
type CreateDeviceFlags uint32

const (
	CreateDeviceFlagNone  CreateDeviceFlags = 0
	CreateDeviceFlagDebug CreateDeviceFlags = 1
)

var (
	IIDD3D12Device = uuid.MustParse("189819f1-1db6-4b57-be54-1821339b85f7")
	IIDDMLDevice   = uuid.MustParse("64ac267a-4781-4354-a6d3-90d32b643501")
)

// Native is the set of entry points the probe needs. Create calls return an
// error only when the entry point itself cannot be resolved; a resolved call
// reports failure through its HRESULT.
type Native interface {
	CreateGraphicsDevice(adapter uintptr, level FeatureLevel, riid uuid.UUID) (HRESULT, uintptr, error)
	CreateMLDevice(device uintptr, flags CreateDeviceFlags, riid uuid.UUID) (HRESULT, uintptr, error)
	Release(obj uintptr) uint32
}

// Stage names the step at which a check stopped.
type Stage string

const (
	StageNone     Stage = "none"
	StageD3D12    Stage = "d3d12"
	StageDirectML Stage = "directml"
	StagePanic    Stage = "panic"
)

// Result is the outcome of Check. Stage is StageNone when supported.
type Result struct {
	Supported bool
	Stage     Stage
	Status    HRESULT
	Err       error
}

// comObject owns one reference to a native object.
type comObject struct {
	ptr     uintptr
	release func(uintptr) uint32
}

func (o *comObject) Release() {
	if o.ptr == 0 {
		return
	}
	ptr := o.ptr
	o.ptr = 0
	o.release(ptr)
}

type Probe struct {
	native Native
}

func New(native Native) *Probe {
	return &Probe{native: native}
}

// IsDirectMLSupported reports whether a D3D12 device and a DirectML device
// on top of it can both be created.
func (p *Probe) IsDirectMLSupported() bool {
	return p.Check().Supported
}

// Check runs the probe and reports where it stopped. Every handle acquired
// is released before Check returns, DirectML device first.
func (p *Probe) Check() (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Stage: StagePanic, Err: fmt.Errorf("directml: native layer panicked: %v", r)}
		}
	}()

	d3d := &comObject{release: p.native.Release}
	defer d3d.Release()
	dml := &comObject{release: p.native.Release}
	defer dml.Release()

	hr, ptr, err := p.native.CreateGraphicsDevice(0, FeatureLevel11_0, IIDD3D12Device)
	d3d.ptr = ptr
	if err != nil {
		return Result{Stage: StageD3D12, Err: fmt.Errorf("directml: create d3d12 device: %w", err)}
	}
	if hr != sOK {
		return Result{Stage: StageD3D12, Status: hr}
	}

	hr, ptr, err = p.native.CreateMLDevice(d3d.ptr, CreateDeviceFlagNone, IIDDMLDevice)
	dml.ptr = ptr
	if err != nil {
		return Result{Stage: StageDirectML, Err: fmt.Errorf("directml: create dml device: %w", err)}
	}
	if hr != sOK {
		return Result{Stage: StageDirectML, Status: hr}
	}

	return Result{Supported: true, Stage: StageNone}
}

// IsDirectMLSupported probes using the system's native libraries.
func IsDirectMLSupported() bool {
	return New(SystemNative("")).IsDirectMLSupported()
}

func (h HRESULT) String() string {
	return fmt.Sprintf("0x%08X", uint32(h))
}
