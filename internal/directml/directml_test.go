package directml

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

const (
	fakeD3D12 uintptr = 0xd3d
	fakeDML   uintptr = 0xd41
)

// fakeNative records every call it receives.
type fakeNative struct {
	graphicsHR  HRESULT
	graphicsErr error
	mlHR        HRESULT
	mlErr       error
	mlPanic     bool

	graphicsCalls int
	mlCalls       int
	acquired      int
	released      []uintptr

	gotLevel  FeatureLevel
	gotFlags  CreateDeviceFlags
	gotDevice uintptr
	gotIIDs   []uuid.UUID
}

func (f *fakeNative) CreateGraphicsDevice(adapter uintptr, level FeatureLevel, riid uuid.UUID) (HRESULT, uintptr, error) {
	f.graphicsCalls++
	f.gotLevel = level
	f.gotIIDs = append(f.gotIIDs, riid)
	if f.graphicsErr != nil {
		return 0, 0, f.graphicsErr
	}
	if f.graphicsHR != sOK {
		return f.graphicsHR, 0, nil
	}
	f.acquired++
	return sOK, fakeD3D12, nil
}

func (f *fakeNative) CreateMLDevice(device uintptr, flags CreateDeviceFlags, riid uuid.UUID) (HRESULT, uintptr, error) {
	f.mlCalls++
	f.gotDevice = device
	f.gotFlags = flags
	f.gotIIDs = append(f.gotIIDs, riid)
	if f.mlPanic {
		panic("access violation")
	}
	if f.mlErr != nil {
		return 0, 0, f.mlErr
	}
	if f.mlHR != sOK {
		return f.mlHR, 0, nil
	}
	f.acquired++
	return sOK, fakeDML, nil
}

func (f *fakeNative) Release(obj uintptr) uint32 {
	f.released = append(f.released, obj)
	return 0
}

func TestGraphicsDeviceFailureSkipsDirectML(t *testing.T) {
	f := &fakeNative{graphicsHR: HRESULT(-2005270524)} // DXGI_ERROR_UNSUPPORTED
	if New(f).IsDirectMLSupported() {
		t.Fatal("expected unsupported")
	}
	if f.mlCalls != 0 {
		t.Errorf("CreateMLDevice called %d times, want 0", f.mlCalls)
	}
	if len(f.released) != 0 {
		t.Errorf("released %v, want nothing", f.released)
	}
}

func TestDirectMLFailureReleasesGraphicsDevice(t *testing.T) {
	f := &fakeNative{mlHR: HRESULT(-2147467259)} // E_FAIL
	if New(f).IsDirectMLSupported() {
		t.Fatal("expected unsupported")
	}
	if len(f.released) != 1 || f.released[0] != fakeD3D12 {
		t.Errorf("released %v, want [%#x]", f.released, fakeD3D12)
	}
}

func TestSupportedReleasesInOrder(t *testing.T) {
	f := &fakeNative{}
	if !New(f).IsDirectMLSupported() {
		t.Fatal("expected supported")
	}
	if len(f.released) != 2 || f.released[0] != fakeDML || f.released[1] != fakeD3D12 {
		t.Errorf("released %v, want [%#x %#x]", f.released, fakeDML, fakeD3D12)
	}
}

func TestProbeArguments(t *testing.T) {
	f := &fakeNative{}
	New(f).Check()
	if f.gotLevel != FeatureLevel11_0 {
		t.Errorf("feature level = %#x, want %#x", f.gotLevel, FeatureLevel11_0)
	}
	if f.gotFlags != CreateDeviceFlagNone {
		t.Errorf("flags = %d, want none", f.gotFlags)
	}
	if f.gotDevice != fakeD3D12 {
		t.Errorf("ml device created on %#x, want %#x", f.gotDevice, fakeD3D12)
	}
	if len(f.gotIIDs) != 2 || f.gotIIDs[0] != IIDD3D12Device || f.gotIIDs[1] != IIDDMLDevice {
		t.Errorf("interface ids = %v", f.gotIIDs)
	}
}

func TestMissingLibrary(t *testing.T) {
	missing := errors.New("The specified module could not be found.")
	f := &fakeNative{graphicsErr: missing}
	res := New(f).Check()
	if res.Supported {
		t.Fatal("expected unsupported")
	}
	if res.Stage != StageD3D12 || !errors.Is(res.Err, missing) {
		t.Errorf("got stage %s err %v", res.Stage, res.Err)
	}
	if f.mlCalls != 0 {
		t.Errorf("CreateMLDevice called %d times, want 0", f.mlCalls)
	}
}

func TestMissingDirectMLSymbol(t *testing.T) {
	f := &fakeNative{mlErr: errors.New("DMLCreateDevice not found")}
	res := New(f).Check()
	if res.Supported || res.Stage != StageDirectML {
		t.Errorf("got %+v", res)
	}
	if len(f.released) != 1 {
		t.Errorf("released %v, want graphics device only", f.released)
	}
}

func TestNativePanicIsContained(t *testing.T) {
	f := &fakeNative{mlPanic: true}
	res := New(f).Check()
	if res.Supported || res.Stage != StagePanic || res.Err == nil {
		t.Fatalf("got %+v", res)
	}
	if len(f.released) != 1 || f.released[0] != fakeD3D12 {
		t.Errorf("released %v, want [%#x]", f.released, fakeD3D12)
	}
}

func TestRepeatedCallsDoNotLeak(t *testing.T) {
	cases := []*fakeNative{
		{},
		{graphicsHR: 1},
		{mlHR: 1},
		{mlPanic: true},
	}
	for _, f := range cases {
		p := New(f)
		for i := 0; i < 50; i++ {
			p.IsDirectMLSupported()
		}
		if f.acquired != len(f.released) {
			t.Errorf("%+v: acquired %d, released %d", f, f.acquired, len(f.released))
		}
	}
}

func TestHRESULTString(t *testing.T) {
	if got := HRESULT(-2147467259).String(); got != "0x80004005" {
		t.Errorf("String() = %q", got)
	}
}
