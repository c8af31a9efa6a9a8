//go:build !onnx

package model

import "errors"

// ErrNativeUnavailable indicates the ONNX backend is not compiled in.
var ErrNativeUnavailable = errors.New("model: onnx backend not available (build without -tags onnx)")

// NativeAvailable reports that no native backend is compiled in.
func NativeAvailable() bool { return false }

// NewNativeModel returns an error when built without the onnx tag.
func NewNativeModel(_ Config) (Model, error) {
	return nil, ErrNativeUnavailable
}
