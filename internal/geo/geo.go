package geo

import (
	"fmt"
	"regexp"
	"strings"

	geohash "github.com/TomiHiltunen/geohash-golang"
)

// Global is the sentinel bucket covering the entire world.
const Global = "global"

// DefaultPrecision is the finest geohash precision used for bucketing.
const DefaultPrecision = 5

// MinPrecision is the coarsest geohash precision in a fallback chain.
const MinPrecision = 2

// geohashAlphabet is the base32 character set used by geohash encoding.
// Note: a, i, l and o are intentionally absent.
const geohashAlphabet = "0123456789bcdefghjkmnpqrstuvwxyz"

var bucketIDPattern = regexp.MustCompile(`^gh(\d+):([0-9a-z]+)$`)

// ToBucketID encodes a coordinate pair into a bucket id at the given
// precision, e.g. "gh5:u33db". The same inputs always produce the same id.
func ToBucketID(lat, lng float64, precision int) string {
	return fmt.Sprintf("gh%d:%s", precision, geohash.EncodeWithPrecision(lat, lng, precision))
}

// BucketID encodes a coordinate pair at the default precision.
func BucketID(lat, lng float64) string {
	return ToBucketID(lat, lng, DefaultPrecision)
}

// FallbackChain returns bucket ids from finest to coarsest precision,
// terminated by the global sentinel. Used both to pick buckets to generate
// content for and to resolve a lookup to the nearest available granularity.
func FallbackChain(lat, lng float64) []string {
	chain := make([]string, 0, DefaultPrecision-MinPrecision+2)
	for p := DefaultPrecision; p >= MinPrecision; p-- {
		chain = append(chain, ToBucketID(lat, lng, p))
	}
	return append(chain, Global)
}

// ApproxCoords decodes a bucket id back to the center of its grid cell.
// Returns ok=false for the global sentinel and for anything that does not
// match the gh<precision>:<code> shape.
func ApproxCoords(bucketID string) (lat, lng float64, ok bool) {
	m := bucketIDPattern.FindStringSubmatch(strings.ToLower(bucketID))
	if m == nil {
		return 0, 0, false
	}

	code := m[2]
	for _, r := range code {
		if !strings.ContainsRune(geohashAlphabet, r) {
			return 0, 0, false
		}
	}

	center := geohash.Decode(code).Center()
	return center.Lat(), center.Lng(), true
}
