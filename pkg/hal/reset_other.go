//go:build !linux

package hal

import "errors"

const defaultResetOffset = 8

var ErrResetLineUnsupported = errors.New("gpio reset line is only supported on linux")

func NewGPIOResetLine(_ string, _ int) (ResetLine, error) {
	return nil, ErrResetLineUnsupported
}
