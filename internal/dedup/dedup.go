// Package dedup drops near-duplicate shots from a catalog. Cameras number
// frames sequentially, so files whose names share a prefix and whose trailing
// frame numbers sit close together are treated as the same scene.
package dedup

import (
	"strconv"

	"fygallery/internal/catalog"
)

// Window is how many frame numbers on either side of a kept shot count as
// the same scene.
const Window = 5

// Filter returns the records that survive similarity filtering, in input
// order. A record whose stem ends in digits is dropped when a kept record has
// the same prefix and a frame number within Window of its own. Records without
// a frame number are dropped only on an exact stem match. Input is not modified.
func Filter(records []catalog.ImageRecord) []catalog.ImageRecord {
	seen := make(map[frame]struct{}, len(records))
	kept := make([]catalog.ImageRecord, 0, len(records))

	for _, r := range records {
		stem := catalog.Stem(r.Src)
		prefix, n, numbered := splitFrame(stem)

		if numbered {
			if nearby(seen, prefix, n) {
				continue
			}
			seen[frame{prefix: prefix, n: n, numbered: true}] = struct{}{}
		} else {
			if _, dup := seen[frame{prefix: stem}]; dup {
				continue
			}
			seen[frame{prefix: stem}] = struct{}{}
		}
		kept = append(kept, r)
	}
	return kept
}

// splitFrame splits a stem into its non-digit prefix and trailing frame
// number. numbered is false when there is no trailing digit run or it does
// not fit an int.
func splitFrame(stem string) (prefix string, n int, numbered bool) {
	i := len(stem)
	for i > 0 && stem[i-1] >= '0' && stem[i-1] <= '9' {
		i--
	}
	if i == len(stem) {
		return stem, 0, false
	}
	n, err := strconv.Atoi(stem[i:])
	if err != nil {
		return stem, 0, false
	}
	return stem[:i], n, true
}

// frame keys the seen set. Unnumbered stems are stored whole in prefix.
type frame struct {
	prefix   string
	n        int
	numbered bool
}

func nearby(seen map[frame]struct{}, prefix string, n int) bool {
	for k := max(n-Window, 0); k <= n+Window; k++ {
		if _, ok := seen[frame{prefix: prefix, n: k, numbered: true}]; ok {
			return true
		}
	}
	return false
}
