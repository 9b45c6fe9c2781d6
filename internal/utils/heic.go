package utils

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/adrium/goheif"
)

// Brands seen in the ftyp box of HEIC/HEIF files.
var heicBrands = []string{"heic", "heix", "heim", "heis", "hevc", "hevx", "heif", "mif1", "msf1"}

// IsHeic sniffs the ISO-BMFF ftyp box to detect HEIC/HEIF containers.
func IsHeic(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	if !bytes.Equal(data[4:8], []byte("ftyp")) {
		return false
	}
	brand := strings.ToLower(string(data[8:12]))
	for _, b := range heicBrands {
		if brand == b {
			return true
		}
	}
	return false
}

// ExtractHeicExif carves the raw EXIF block out of a HEIC container so the
// regular EXIF decoder can parse it.
func ExtractHeicExif(data []byte) ([]byte, error) {
	raw, err := goheif.ExtractExif(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to extract EXIF from HEIC: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("HEIC container carries no EXIF block")
	}
	return raw, nil
}
