// Package braces counts curly braces in a text file as a quick structural sanity check.
//
// Every '{' adds one and every '}' subtracts one, across the whole file and
// without resetting between lines. Braces inside strings and comments count
// the same as any other, so a non-zero total only hints that something is off.
package braces

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// ErrDecode is returned when the input is not valid in the requested encoding
var ErrDecode = errors.New("cannot decode input")

// LineCount is the running count after a line whose end left braces open or over-closed
type LineCount struct {
	Line  int
	Count int
}

// Result holds the final count and every line where the running count was not zero
type Result struct {
	Total int
	Lines []LineCount
}

// Balanced reports whether opening and closing braces cancel out
func (r Result) Balanced() bool {
	return r.Total == 0
}

// Count scans r to the end. Lines end at "\n", "\r\n" or a lone "\r".
func Count(r io.Reader) (Result, error) {
	var result Result
	reader := bufio.NewReader(r)

	count := 0
	lineNum := 0
	pending := false // bytes read since the last line end

	endLine := func() {
		lineNum++
		pending = false
		if count != 0 {
			result.Lines = append(result.Lines, LineCount{Line: lineNum, Count: count})
		}
	}

	for {
		c, err := reader.ReadByte()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return result, fmt.Errorf("failed to read input: %w", err)
		}

		pending = true
		switch c {
		case '{':
			count++
		case '}':
			count--
		case '\n':
			endLine()
		case '\r':
			if next, err := reader.Peek(1); err == nil && next[0] == '\n' {
				_, _ = reader.ReadByte()
			}
			endLine()
		}
	}

	if pending {
		endLine()
	}

	result.Total = count
	return result, nil
}

// CountString is Count over an in-memory string
func CountString(s string) Result {
	result, _ := Count(strings.NewReader(s))
	return result
}

// Encodings lists the accepted encoding names. Matching ignores case and
// the aliases utf8, latin1, latin-1 and cp1252 are also accepted.
var Encodings = []string{"utf-8", "iso-8859-1", "windows-1252"}

// Lookup returns the decoder for an encoding name. UTF-8 maps to nil: it is
// validated rather than transcoded.
func Lookup(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "iso-8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	default:
		return nil, fmt.Errorf("encoding must be one of: %v, got: %s", Encodings, name)
	}
}

// CheckFile reads path, decodes it with the named encoding and counts its braces
func CheckFile(path, encodingName string) (Result, error) {
	enc, err := Lookup(encodingName)
	if err != nil {
		return Result{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if enc == nil {
		if !utf8.Valid(data) {
			return Result{}, fmt.Errorf("%w: %s is not valid UTF-8", ErrDecode, path)
		}
	} else {
		if data, err = enc.NewDecoder().Bytes(data); err != nil {
			return Result{}, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
		}
	}

	return Count(bytes.NewReader(data))
}
