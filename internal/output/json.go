package output

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// DefaultJSONFile is used when WriteJSON is given an empty path.
const DefaultJSONFile = "output.json"

// ErrDecode reports malformed JSON text.
var ErrDecode = errors.New("JSON decode error")

// Content is either raw JSON text or an already decoded value.
type Content struct {
	raw   string
	value any
	isRaw bool
}

// RawJSON wraps JSON text that is parsed before it is written.
func RawJSON(text string) Content {
	return Content{raw: text, isRaw: true}
}

// Value wraps a decoded value such as the result of Decode.
func Value(v any) Content {
	return Content{value: v}
}

// Resolve returns the decoded value, parsing raw text if needed.
func (c Content) Resolve() (any, error) {
	if !c.isRaw {
		return c.value, nil
	}
	return Decode(strings.NewReader(c.raw))
}

// Decode reads exactly one JSON value from r. Numbers are kept as json.Number
// so they are written back with their original text.
func Decode(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected data after top-level value", ErrDecode)
	}
	return v, nil
}

// Encode renders v with sorted object keys, two-space indentation and every
// non-ASCII character escaped. The result ends with a newline.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return escapeNonASCII(buf.Bytes()), nil
}

// WriteJSON creates or truncates path and writes the content as pretty JSON.
// Nothing is written when the content cannot be decoded or encoded.
func WriteJSON(path string, c Content) error {
	if path == "" {
		path = DefaultJSONFile
	}

	v, err := c.Resolve()
	if err != nil {
		return err
	}
	data, err := Encode(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	writer := bufio.NewWriter(f)
	if _, err := writer.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := writer.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// escapeNonASCII rewrites runes above 0x7F as \uXXXX escapes. Encoder output
// only carries such runes inside string literals, so no re-parsing is needed.
func escapeNonASCII(data []byte) []byte {
	i := bytes.IndexFunc(data, func(r rune) bool { return r >= utf8.RuneSelf })
	if i < 0 {
		return data
	}

	out := make([]byte, 0, len(data)+16)
	out = append(out, data[:i]...)
	for _, r := range string(data[i:]) {
		switch {
		case r < utf8.RuneSelf:
			out = append(out, byte(r))
		case r > 0xFFFF:
			hi, lo := utf16.EncodeRune(r)
			out = fmt.Appendf(out, `\u%04x\u%04x`, hi, lo)
		default:
			out = fmt.Appendf(out, `\u%04x`, r)
		}
	}
	return out
}
