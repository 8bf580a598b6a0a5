//go:build !((linux || freebsd || openbsd || netbsd || dragonfly) && cgo)

package clipboard

import (
	"fmt"
	"image"
)

func WritePNG([]byte) error {
	return fmt.Errorf("clipboard image operations are not supported on this platform")
}

func WriteImage(image.Image) error {
	return fmt.Errorf("clipboard image operations are not supported on this platform")
}

func ReadPNG() ([]byte, error) {
	return nil, fmt.Errorf("clipboard image operations are not supported on this platform")
}

func ReadImage() (image.Image, error) {
	return nil, fmt.Errorf("clipboard image operations are not supported on this platform")
}

func WriteText(string) error {
	return fmt.Errorf("clipboard text operations are not supported on this platform")
}
