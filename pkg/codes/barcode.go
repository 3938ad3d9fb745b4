package codes

import (
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/code39"
	"github.com/boombuler/barcode/ean"
	"github.com/boombuler/barcode/twooffive"

	"github.com/labelforge/labelforge/pkg/cache"
	"github.com/labelforge/labelforge/pkg/errors"
	"github.com/labelforge/labelforge/pkg/geom"
)

// code39Charset is the character repertoire of Code 39. Lowercase letters
// are accepted and uppercased during normalization.
const code39Charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-.$/+% "

// BarcodeProducer renders linear barcodes. Unlike QR codes, the physical
// width varies with the payload; Footprint returns a nominal estimate and
// the generated image carries the actual width.
type BarcodeProducer struct {
	Symbology   string // code128, code39, ean13, itf
	HeightMM    float64
	WidthFactor float64
	QuietZoneMM float64 // added on both sides
	DPI         int
}

// NewBarcode creates a barcode producer for a canonical symbology name.
func NewBarcode(symbology string, heightMM, widthFactor, quietZoneMM float64, dpi int) (*BarcodeProducer, error) {
	switch symbology {
	case "code128", "code39", "ean13", "itf":
	default:
		return nil, errors.New(errors.ErrCodeInvalidSymbology,
			"unsupported barcode symbology %q", symbology)
	}
	return &BarcodeProducer{
		Symbology:   symbology,
		HeightMM:    heightMM,
		WidthFactor: widthFactor,
		QuietZoneMM: quietZoneMM,
		DPI:         dpi,
	}, nil
}

func (p *BarcodeProducer) Kind() string { return "barcode" }

func (p *BarcodeProducer) CacheKey(payload string) string {
	return cache.ImageKey(p.Kind(), payload, p.DPI, p.Symbology, p.HeightMM, p.WidthFactor, p.QuietZoneMM)
}

// Validate checks the payload against the symbology's alphabet and length
// rules. Code 128 carries full ASCII and rejects only empty payloads.
func (p *BarcodeProducer) Validate(payload string) error {
	if payload == "" {
		return errors.New(errors.ErrCodeInvalidPayload, "barcode payload is empty")
	}
	switch p.Symbology {
	case "code39":
		for _, c := range strings.ToUpper(payload) {
			if !strings.ContainsRune(code39Charset, c) {
				return errors.New(errors.ErrCodeInvalidPayload,
					"Code 39 only supports A-Z, 0-9 and - . $ / + %% space, got %q", payload)
			}
		}
	case "ean13":
		if !isDigits(payload) {
			return errors.New(errors.ErrCodeInvalidPayload, "EAN-13 requires digits only, got %q", payload)
		}
		if len(payload) != 12 && len(payload) != 13 {
			return errors.New(errors.ErrCodeInvalidPayload,
				"EAN-13 requires exactly 12 or 13 digits, got %d", len(payload))
		}
	case "itf":
		if !isDigits(payload) {
			return errors.New(errors.ErrCodeInvalidPayload,
				"Interleaved 2 of 5 requires digits only, got %q", payload)
		}
		if len(payload)%2 != 0 {
			return errors.New(errors.ErrCodeInvalidPayload,
				"Interleaved 2 of 5 requires an even number of digits, got %d", len(payload))
		}
	}
	return nil
}

// Normalize returns the payload as it will be encoded. Code 39 uppercases.
func (p *BarcodeProducer) Normalize(payload string) string {
	if p.Symbology == "code39" {
		return strings.ToUpper(payload)
	}
	return payload
}

// moduleWidthMM is the physical width of one barcode module, derived from
// the configured width factor. The factor is anchored at 300 DPI so the
// printed bar width stays constant across resolutions.
func (p *BarcodeProducer) moduleWidthMM() float64 {
	return p.WidthFactor / geom.MMPerInch * (300.0 / float64(p.DPI))
}

// EstimateWidthMM predicts the printed width for a payload from the
// symbology's module-per-character cost, without encoding it. Used for fit
// planning; the raster from Generate carries the exact width.
func (p *BarcodeProducer) EstimateWidthMM(payload string) float64 {
	n := len(payload)
	var modules int
	switch p.Symbology {
	case "code128":
		modules = n*11 + 11
	case "code39":
		modules = n*13 + 13
	case "ean13":
		modules = 95
	case "itf":
		modules = (n/2)*7 + 7
	default:
		modules = n * 10
	}
	return float64(modules)*p.moduleWidthMM() + 2*p.QuietZoneMM
}

// nominalPayload sizes the footprint before any record is seen.
const nominalPayload = "000000000000"

// Footprint is the nominal physical size, estimated for a twelve-character
// payload. Callers that know their payloads refine this with
// [BarcodeProducer.EstimateWidthMM].
func (p *BarcodeProducer) Footprint() (float64, float64) {
	return p.EstimateWidthMM(nominalPayload), p.HeightMM
}

// Generate encodes the payload and renders the bars at the configured
// module width, with the quiet zone padded in.
func (p *BarcodeProducer) Generate(payload string) (*Image, error) {
	if err := p.Validate(payload); err != nil {
		return nil, err
	}
	payload = p.Normalize(payload)

	bc, err := p.encode(payload)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeEncodeFailed, err, "encode %s for %q", p.Symbology, payload)
	}

	modules := bc.Bounds().Dx()
	pxPerModule := geom.MMToPx(p.moduleWidthMM(), p.DPI)
	if pxPerModule < 1 {
		pxPerModule = 1
	}
	barsW := modules * pxPerModule
	barsH := geom.MMToPx(p.HeightMM, p.DPI)
	if barsH < 1 {
		barsH = 1
	}

	scaled, err := barcode.Scale(bc, barsW, barsH)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeEncodeFailed, err, "scale %s raster", p.Symbology)
	}

	quietPx := geom.MMToPx(p.QuietZoneMM, p.DPI)
	totalW := barsW + 2*quietPx
	img := image.NewGray(image.Rect(0, 0, totalW, barsH))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(quietPx, 0, quietPx+barsW, barsH), scaled, scaled.Bounds().Min, draw.Src)

	data, err := EncodePNG(img)
	if err != nil {
		return nil, err
	}
	return &Image{
		PNG:      data,
		WidthPx:  totalW,
		HeightPx: barsH,
		WidthMM:  geom.PxToMM(totalW, p.DPI),
		HeightMM: p.HeightMM,
	}, nil
}

func (p *BarcodeProducer) encode(payload string) (barcode.Barcode, error) {
	switch p.Symbology {
	case "code128":
		return code128.Encode(payload)
	case "code39":
		return code39.Encode(payload, false, false)
	case "ean13":
		return ean.Encode(payload)
	case "itf":
		return twooffive.Encode(payload, true)
	default:
		return nil, errors.New(errors.ErrCodeInvalidSymbology, "unsupported symbology %q", p.Symbology)
	}
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
