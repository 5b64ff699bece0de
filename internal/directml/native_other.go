//go:build !windows

package directml

import "github.com/google/uuid"

type systemNative struct{}

// SystemNative returns a native layer whose entry points are never available.
// DirectML only exists on Windows.
func SystemNative(dmlPath string) Native {
	return systemNative{}
}

func (systemNative) CreateGraphicsDevice(uintptr, FeatureLevel, uuid.UUID) (HRESULT, uintptr, error) {
	return 0, 0, ErrNotImplemented
}

func (systemNative) CreateMLDevice(uintptr, CreateDeviceFlags, uuid.UUID) (HRESULT, uintptr, error) {
	return 0, 0, ErrNotImplemented
}

func (systemNative) Release(uintptr) uint32 {
	return 0
}
