// Package cardid derives stable identifiers for cards. The id is a pure
// function of a card's content and origin: moving a card within a file does
// not change it, while any edit to the text or a rename of the source file
// produces a new id.
package cardid

import "strconv"

// Tag prefixes every generated id.
const Tag = "card-"

const delimiter = "|"

// New returns the fingerprint id for a card with the given front, back and
// source file name. The hash is a 31-multiplier rolling hash over the joined
// fields, wrapped to signed 32 bits and rendered in base 36. It is not
// cryptographic; collisions are possible and are not mitigated.
func New(front, back, sourceFile string) string {
	s := front + delimiter + back + delimiter + sourceFile

	var h int32
	for _, r := range s {
		h = h*31 + int32(r)
	}

	v := int64(h)
	if v < 0 {
		v = -v
	}
	return Tag + strconv.FormatInt(v, 36)
}
