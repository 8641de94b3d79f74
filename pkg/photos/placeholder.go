package photos

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"image/png"

	"github.com/o1egl/govatar"
)

// Placeholder renders a portrait for a contact without a photo. The same seed, usually the
// contact id, always yields the same image.
func Placeholder(seed string) ([]byte, error) {
	gender := govatar.MALE
	h := fnv.New32a()
	_, _ = h.Write([]byte(seed))
	if h.Sum32()%2 == 1 {
		gender = govatar.FEMALE
	}

	img, err := govatar.GenerateForUsername(gender, seed)
	if err != nil {
		return nil, fmt.Errorf("generate placeholder: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode placeholder: %w", err)
	}
	return buf.Bytes(), nil
}
