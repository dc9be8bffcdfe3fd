//go:build !cgo

package embedding

import (
	"context"
	"errors"
)

var errONNXUnavailable = errors.New("ONNX encoder requires CGO; build with CGO_ENABLED=1 and onnxruntime")

// ONNXEncoder stub when built without CGO (see onnx.go).
type ONNXEncoder struct{}

func NewONNXEncoder(_ Config) (*ONNXEncoder, error) {
	return nil, errONNXUnavailable
}

func (e *ONNXEncoder) Encode(context.Context, string) ([]float32, error) {
	return nil, errONNXUnavailable
}

func (e *ONNXEncoder) Dimensions() int { return 0 }

func (e *ONNXEncoder) Close() error { return nil }
