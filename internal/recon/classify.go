package recon

import (
	"regexp"
	"strings"
)

type LineClass int

const (
	RegularLine LineClass = iota
	ManufacturingOrderLine
)

// Classification is the result of inspecting one line. MORef is set only
// for ManufacturingOrderLine.
type Classification struct {
	Class LineClass
	MORef string
}

// MO placeholder descriptions look like "MO00001-7 Fabrication unit":
// the MO ref, a dash-separated sequence number, and the fabrication marker.
var moPattern = regexp.MustCompile(`^(MO\d+)-\d+`)

const moMarker = "Fabrication"

// Classify decides whether a line is a real stock item or an MO placeholder.
// A line that already carries a product reference is never reclassified,
// even if its description matches the pattern; only ref-less lines are
// candidates. Pure function, no side effects.
func Classify(productID int64, description string) Classification {
	if productID != 0 {
		return Classification{Class: RegularLine}
	}
	ref := ExtractMORef(description)
	if ref == "" {
		return Classification{Class: RegularLine}
	}
	return Classification{Class: ManufacturingOrderLine, MORef: ref}
}

// ExtractMORef pulls the MO reference out of a placeholder description,
// or returns "" when the description is not a placeholder. Unlike
// Classify it ignores the product reference: descriptions keep their MO
// token after the line has been rewritten.
func ExtractMORef(description string) string {
	m := moPattern.FindStringSubmatch(description)
	if m == nil || !strings.Contains(description, moMarker) {
		return ""
	}
	return m[1]
}
