// Package chunk splits normalized text into overlapping retrieval windows.
package chunk

import "errors"

// ErrInvalidConfig rejects chunking parameters that cannot terminate or
// would produce empty windows.
var ErrInvalidConfig = errors.New("invalid chunk config: need 0 <= overlap < size")

// Piece is one chunk of the source text, ordered by Ordinal.
type Piece struct {
	Ordinal int
	Text    string
}

// Split cuts text into rune windows of at most size runes, each sharing
// overlap runes with its predecessor. Windows are raw rune slices, not
// sentence-aligned, so concatenating the leading size-overlap runes of each
// piece plus the final piece reconstitutes the input exactly. Deterministic
// for identical inputs.
func Split(text string, size, overlap int) ([]Piece, error) {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil, ErrInvalidConfig
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}

	step := size - overlap
	var pieces []Piece
	for start, ord := 0, 0; start < len(runes); start, ord = start+step, ord+1 {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		pieces = append(pieces, Piece{Ordinal: ord, Text: string(runes[start:end])})
		if end == len(runes) {
			break
		}
	}
	return pieces, nil
}
