package annotation

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// CSVError locates a problem in an annotation CSV.
type CSVError struct {
	Path string
	Line int
	Msg  string
}

func (e *CSVError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Msg)
}

// csvRow is one parsed line with its 1-based line number.
type csvRow struct {
	Line   int
	Values []int
}

// parseIntCSV reads integer rows. Spaces are ignored, a trailing comma is
// tolerated and blank lines are skipped.
func parseIntCSV(path string, data []byte) ([]csvRow, error) {
	var rows []csvRow
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.ReplaceAll(strings.TrimRight(sc.Text(), "\r"), " ", "")
		text = strings.TrimSuffix(text, ",")
		if text == "" {
			continue
		}
		fields := strings.Split(text, ",")
		values := make([]int, len(fields))
		for i, f := range fields {
			v, err := strconv.Atoi(f)
			if err != nil {
				return nil, &CSVError{Path: path, Line: line, Msg: fmt.Sprintf("cannot parse value %q in column %d", f, i+1)}
			}
			values[i] = v
		}
		rows = append(rows, csvRow{Line: line, Values: values})
	}
	if err := sc.Err(); err != nil {
		return nil, &CSVError{Path: path, Line: line + 1, Msg: err.Error()}
	}
	return rows, nil
}

func (p parserBase) readCSV(path string) ([]csvRow, error) {
	data, err := p.fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read annotation CSV: %w", err)
	}
	return parseIntCSV(path, data)
}
