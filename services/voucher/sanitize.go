package voucher

import (
	"math"
	"strings"
)

// Sentinel values a half-written store has been observed to leave behind.
var corruptSentinels = map[string]struct{}{
	"":          {},
	"corrupt":   {},
	"undefined": {},
	"null":      {},
}

// IsCorrupt reports whether a stored voucher fails the basic shape
// invariants. Corrupt records are tolerated in the store and filtered on
// read; Cleanup deletes them.
func IsCorrupt(v *Voucher) bool {
	if isSentinel(v.Code) || isSentinel(v.Title) {
		return true
	}
	if math.IsNaN(v.DiscountValue) || math.IsInf(v.DiscountValue, 0) {
		return true
	}
	if v.ExpiryDate.IsZero() {
		return true
	}
	return false
}

// Sanitize returns the vouchers that pass IsCorrupt, preserving order.
// It is pure: the same input always yields the same filtered set.
func Sanitize(vouchers []Voucher) []Voucher {
	out := make([]Voucher, 0, len(vouchers))
	for _, v := range vouchers {
		if IsCorrupt(&v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func isSentinel(s string) bool {
	_, ok := corruptSentinels[strings.ToLower(strings.TrimSpace(s))]
	return ok
}
