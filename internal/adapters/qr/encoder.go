// Package qr renders check-in credentials as QR code images.
package qr

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

const defaultSize = 300

// Encoder is a PNG QR encoder. It holds no state besides its settings.
type Encoder struct {
	size  int
	level qrcode.RecoveryLevel
}

func NewEncoder() *Encoder {
	return &Encoder{size: defaultSize, level: qrcode.Medium}
}

func (e *Encoder) Encode(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("empty qr payload")
	}
	png, err := qrcode.Encode(string(payload), e.level, e.size)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	return png, nil
}
