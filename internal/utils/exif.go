package utils

import (
	"bytes"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"go.uber.org/zap"

	"memoir-api/internal/models"
)

// ExtractCaptureMetadata parses embedded capture metadata (GPS, timestamp,
// camera model) from an image byte stream. The label is only used for
// diagnostics. It never fails: on any parse problem it logs a warning and
// returns nil, which callers treat as "metadata unavailable".
func ExtractCaptureMetadata(data []byte, label string, logger *zap.Logger) (meta *models.CaptureMetadata) {
	// goexif can panic on truncated tag tables; a corrupt photo must not
	// take down the batch.
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("metadata extraction panicked",
				zap.String("label", label),
				zap.Any("panic", r))
			meta = nil
		}
	}()

	x, err := decodeExif(data)
	if err != nil {
		logger.Warn("failed to decode EXIF",
			zap.String("label", label),
			zap.Error(err))
		return nil
	}

	meta = &models.CaptureMetadata{}

	// DateTime() prefers DateTimeOriginal and falls back to the create
	// timestamp, which is exactly the preference order we want.
	if dt, err := x.DateTime(); err == nil {
		meta.CapturedAt = &dt
	}

	if tag, err := x.Get(exif.Model); err == nil {
		if model, err := tag.StringVal(); err == nil {
			meta.CameraModel = strings.TrimSpace(model)
		}
	}

	if lat, lng, err := x.LatLong(); err == nil {
		meta.GPS = &models.GeoPoint{Latitude: lat, Longitude: lng}
	}

	if meta.CapturedAt == nil && meta.CameraModel == "" && meta.GPS == nil {
		logger.Warn("EXIF present but carried no usable fields",
			zap.String("label", label))
		return nil
	}

	return meta
}

// decodeExif handles both formats goexif understands natively (JPEG, TIFF)
// and HEIC containers, whose EXIF block has to be carved out first.
func decodeExif(data []byte) (*exif.Exif, error) {
	if IsHeic(data) {
		raw, err := ExtractHeicExif(data)
		if err != nil {
			return nil, err
		}
		return exif.Decode(bytes.NewReader(raw))
	}
	return exif.Decode(bytes.NewReader(data))
}
