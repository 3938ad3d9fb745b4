package codes

import (
	qrcode "github.com/skip2/go-qrcode"

	"github.com/labelforge/labelforge/pkg/cache"
	"github.com/labelforge/labelforge/pkg/errors"
	"github.com/labelforge/labelforge/pkg/geom"
)

// QRProducer renders QR codes at a fixed physical size. The quiet zone is
// expressed in module units and scales with the symbol version, matching
// how scanners specify it.
type QRProducer struct {
	SizeMM    float64
	Level     qrcode.RecoveryLevel
	QuietZone int
	DPI       int
}

// recoveryLevels maps the configured error correction letter to the
// encoder's level.
var recoveryLevels = map[string]qrcode.RecoveryLevel{
	"L": qrcode.Low,
	"M": qrcode.Medium,
	"Q": qrcode.High,
	"H": qrcode.Highest,
}

// NewQR creates a QR producer. errorCorrection must be one of L, M, Q, H.
func NewQR(sizeMM float64, errorCorrection string, quietZone, dpi int) (*QRProducer, error) {
	level, ok := recoveryLevels[errorCorrection]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidConfig,
			"QR error correction must be L, M, Q or H, got %q", errorCorrection)
	}
	return &QRProducer{SizeMM: sizeMM, Level: level, QuietZone: quietZone, DPI: dpi}, nil
}

func (p *QRProducer) Kind() string { return "qr" }

func (p *QRProducer) CacheKey(payload string) string {
	return cache.ImageKey(p.Kind(), payload, p.DPI, p.SizeMM, int(p.Level), p.QuietZone)
}

// Validate rejects payloads the QR alphabet cannot carry. QR codes accept
// arbitrary bytes, so only the empty payload is invalid.
func (p *QRProducer) Validate(payload string) error {
	if payload == "" {
		return errors.New(errors.ErrCodeInvalidPayload, "QR payload is empty")
	}
	return nil
}

// Footprint is the configured physical size; the quiet zone is inside it.
func (p *QRProducer) Footprint() (float64, float64) {
	return p.SizeMM, p.SizeMM
}

// Generate encodes the payload and rasterizes it to the configured size.
func (p *QRProducer) Generate(payload string) (*Image, error) {
	if err := p.Validate(payload); err != nil {
		return nil, err
	}

	q, err := qrcode.New(payload, p.Level)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeEncodeFailed, err, "encode QR for %q", payload)
	}
	q.DisableBorder = true

	modules := q.Bitmap()
	n := len(modules)
	cells := n + 2*p.QuietZone

	sizePx := geom.MMToPx(p.SizeMM, p.DPI)
	img := RasterGrid(cells, sizePx, func(cx, cy int) bool {
		mx := cx - p.QuietZone
		my := cy - p.QuietZone
		if mx < 0 || my < 0 || mx >= n || my >= n {
			return false
		}
		return modules[my][mx]
	})

	data, err := EncodePNG(img)
	if err != nil {
		return nil, err
	}
	return &Image{
		PNG:      data,
		WidthPx:  sizePx,
		HeightPx: sizePx,
		WidthMM:  p.SizeMM,
		HeightMM: p.SizeMM,
	}, nil
}
