// Package grid maps between container grid dimensions and coordinate labels
// of the form <row letter><column number>, e.g. "B3". Rows are 0-indexed and
// labelled A..Z; columns are 0-indexed internally and 1-based in labels.
// All functions are pure.
package grid

import (
	"fmt"
	"regexp"
)

// MaxRows is the tallest grid the single-letter row labelling scheme can
// address. Grids taller than 26 rows are not representable.
const MaxRows = 26

var coordinatePattern = regexp.MustCompile(`^[A-Z][0-9]{1,2}$`)

// Coordinate identifies one cell of a grid. Row and Col are both 0-indexed.
type Coordinate struct {
	Row int
	Col int
}

// Label renders the coordinate in letter+number form.
func (c Coordinate) Label() string {
	return fmt.Sprintf("%c%d", 'A'+rune(c.Row), c.Col+1)
}

// FormatError reports a coordinate string that does not match the
// letter+number scheme.
type FormatError struct {
	Input string
}

func (e FormatError) Error() string {
	return fmt.Sprintf("coordinate %q is invalid; expected a letter followed by a number (e.g. A1, B12)", e.Input)
}

// RangeError reports a row or column index the labelling scheme cannot express.
type RangeError struct {
	Row int
	Col int
}

func (e RangeError) Error() string {
	return fmt.Sprintf("coordinate row=%d col=%d outside the labelling range (rows 0-%d, columns >= 0)", e.Row, e.Col, MaxRows-1)
}

// BoundsError reports a coordinate that parses but falls outside a specific
// container's dimensions. Axis is "row" or "column"; Max is the largest legal
// label on that axis.
type BoundsError struct {
	Coordinate string
	Axis       string
	Max        string
}

func (e BoundsError) Error() string {
	return fmt.Sprintf("%s of %q is outside the container dimensions (max %s: %s)", e.Axis, e.Coordinate, e.Axis, e.Max)
}

// CoordinateFor returns the label for the 0-indexed row and column. It fails
// with RangeError when the row exceeds the single-letter alphabet or either
// index is negative.
func CoordinateFor(row, col int) (string, error) {
	if row < 0 || row >= MaxRows || col < 0 {
		return "", RangeError{Row: row, Col: col}
	}
	return Coordinate{Row: row, Col: col}.Label(), nil
}

// ParseCoordinate parses a label back into 0-indexed row and column. It fails
// with FormatError unless the input is one uppercase letter followed by one
// or two digits.
func ParseCoordinate(s string) (Coordinate, error) {
	if !coordinatePattern.MatchString(s) {
		return Coordinate{}, FormatError{Input: s}
	}
	row := int(s[0] - 'A')
	col := 0
	for _, d := range s[1:] {
		col = col*10 + int(d-'0')
	}
	if col == 0 {
		return Coordinate{}, FormatError{Input: s}
	}
	return Coordinate{Row: row, Col: col - 1}, nil
}

// ValidateWithinBounds checks that coord parses and addresses a cell of a
// rows x columns grid. Out-of-range cells fail with BoundsError naming the
// offending axis and the largest legal value.
func ValidateWithinBounds(coord string, rows, columns int) error {
	c, err := ParseCoordinate(coord)
	if err != nil {
		return err
	}
	if c.Row < 0 || c.Row >= rows {
		return BoundsError{Coordinate: coord, Axis: "row", Max: fmt.Sprintf("%c", 'A'+rune(rows-1))}
	}
	if c.Col < 0 || c.Col >= columns {
		return BoundsError{Coordinate: coord, Axis: "column", Max: fmt.Sprintf("%d", columns)}
	}
	return nil
}

// Wells enumerates every coordinate label of a rows x columns grid in
// row-major order (A1, A2, ..., B1, ...).
func Wells(rows, columns int) []string {
	if rows <= 0 || columns <= 0 {
		return nil
	}
	if rows > MaxRows {
		rows = MaxRows
	}
	out := make([]string, 0, rows*columns)
	for r := 0; r < rows; r++ {
		for c := 0; c < columns; c++ {
			out = append(out, Coordinate{Row: r, Col: c}.Label())
		}
	}
	return out
}
