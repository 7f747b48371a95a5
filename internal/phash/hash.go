// Package phash produces compact 64-bit image fingerprints compared via
// Hamming distance. Fingerprints tolerate recompression and resizing but are
// sensitive to rotation and cropping, which is the right tradeoff for
// catching accidental double-captures of the same receipt.
package phash

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math/bits"

	"golang.org/x/image/draw"

	"go-receipt-capture/pkg/models"
)

// ThumbSize is the fixed thumbnail edge used for average hashing. Hashes
// produced with different sizes are not comparable.
const ThumbSize = 8

// Compute produces the average hash of a decoded image: downscale to an 8x8
// grayscale thumbnail, then set one bit per sample that exceeds the mean.
// Nil or empty images fall through to a zero-valued average hash rather than
// an error.
func Compute(img image.Image) models.PerceptualHash {
	hash := models.PerceptualHash{Size: ThumbSize, Kind: models.HashKindAverage}
	if img == nil || img.Bounds().Empty() {
		return hash
	}

	thumb := image.NewGray(image.Rect(0, 0, ThumbSize, ThumbSize))
	draw.BiLinear.Scale(thumb, thumb.Bounds(), img, img.Bounds(), draw.Src, nil)

	var sum int
	for _, v := range thumb.Pix {
		sum += int(v)
	}
	mean := uint8(sum / (ThumbSize * ThumbSize))

	for i, v := range thumb.Pix {
		if v > mean {
			hash.Bits |= 1 << uint(63-i)
		}
	}
	return hash
}

// ComputeBytes hashes encoded image bytes. When the bytes decode, this is the
// normal average-hash path; when they do not, it falls back to a truncated
// SHA-256 of the raw bytes so corrupt input still yields a deterministic,
// exact-match-only fingerprint. This function never fails.
func ComputeBytes(data []byte) models.PerceptualHash {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err == nil {
		return Compute(img)
	}

	digest := sha256.Sum256(data)
	return models.PerceptualHash{
		Bits: binary.BigEndian.Uint64(digest[:8]),
		Size: ThumbSize,
		Kind: models.HashKindByteDigest,
	}
}

// Distance returns the Hamming distance between two 64-bit fingerprints.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Similarity returns 1 - distance/64, a symmetric score in [0,1] where 1.0
// means identical. Hashes of different kinds or thumbnail sizes are not
// comparable and score 0; byte-digest fingerprints carry no gradual
// similarity, so they score 1.0 on exact match and 0 otherwise.
func Similarity(a, b models.PerceptualHash) float64 {
	if a.Kind != b.Kind || a.Size != b.Size {
		return 0
	}
	if a.Kind == models.HashKindByteDigest {
		if a.Bits == b.Bits {
			return 1.0
		}
		return 0
	}
	return 1.0 - float64(Distance(a.Bits, b.Bits))/64.0
}
