package matrix

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// textFormatVersion is written as the first token of every exported
// matrix block so the reader can recognize the format and, in future,
// evolve it without breaking older files.
const textFormatVersion = 1

// WriteMatrix writes m to w in the self-describing textual format:
// version, rows, cols, an allocated flag, then one whitespace-separated
// row per line. A human-readable comment trails the header line.
func WriteMatrix(w io.Writer, m *mat.Dense) error {
	rows, cols, allocated := 0, 0, 0
	if m != nil {
		rows, cols = m.Dims()
		allocated = 1
	}
	if _, err := fmt.Fprintf(w, "%d %d %d %d # version rows cols allocated\n",
		textFormatVersion, rows, cols, allocated); err != nil {
		return err
	}
	if allocated == 0 {
		return nil
	}
	for i := 0; i < rows; i++ {
		parts := make([]string, cols)
		for j := 0; j < cols; j++ {
			parts[j] = strconv.FormatFloat(m.At(i, j), 'g', 17, 64)
		}
		if _, err := fmt.Fprintln(w, strings.Join(parts, " ")); err != nil {
			return err
		}
	}
	return nil
}

// ReadMatrix reads a matrix previously written by WriteMatrix.
func ReadMatrix(r io.Reader) (*mat.Dense, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	if !scanner.Scan() {
		return nil, fmt.Errorf("matrix: empty input, expected a header line")
	}
	header := stripComment(scanner.Text())
	fields := strings.Fields(header)
	if len(fields) < 4 {
		return nil, fmt.Errorf("matrix: malformed header %q", header)
	}
	version, err := strconv.Atoi(fields[0])
	if err != nil || version != textFormatVersion {
		return nil, fmt.Errorf("matrix: unsupported format version %q", fields[0])
	}
	rows, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, fmt.Errorf("matrix: malformed row count %q", fields[1])
	}
	cols, err := strconv.Atoi(fields[2])
	if err != nil {
		return nil, fmt.Errorf("matrix: malformed column count %q", fields[2])
	}
	allocated, err := strconv.Atoi(fields[3])
	if err != nil {
		return nil, fmt.Errorf("matrix: malformed allocated flag %q", fields[3])
	}
	if allocated == 0 {
		return nil, nil
	}
	m := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		if !scanner.Scan() {
			return nil, fmt.Errorf("matrix: unexpected EOF reading row %d of %d", i, rows)
		}
		fields := strings.Fields(stripComment(scanner.Text()))
		if len(fields) != cols {
			return nil, fmt.Errorf("matrix: row %d has %d fields, expected %d", i, len(fields), cols)
		}
		for j, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("matrix: row %d field %d: %w", i, j, err)
			}
			m.Set(i, j, v)
		}
	}
	return m, nil
}

func stripComment(line string) string {
	if idx := strings.IndexByte(line, '#'); idx >= 0 {
		return line[:idx]
	}
	return line
}
