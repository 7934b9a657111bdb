//go:build !linux

package power

import "errors"

func powerOff() error {
	return errors.New("power off is only supported on linux")
}
