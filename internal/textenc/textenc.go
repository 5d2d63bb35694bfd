// Package textenc converts note text between UTF-8 strings and the bytes of
// a configured on-disk encoding. Conversions are strict in both directions:
// invalid input is an error, never silently replaced or dropped.
package textenc

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
)

// Encoding is a named text codec. Obtain one via Lookup or Default.
type Encoding struct {
	name string
	enc  encoding.Encoding // nil means UTF-8 passthrough
}

// codecs maps canonical names to their x/text implementation.
// gb18030 is deliberately absent: it can encode U+FFFD, which would defeat
// the replacement-rune check strict decoding relies on.
var codecs = map[string]encoding.Encoding{
	"utf-8":     nil,
	"gbk":       simplifiedchinese.GBK,
	"big5":      traditionalchinese.Big5,
	"shift-jis": japanese.ShiftJIS,
}

// aliases maps accepted spellings to canonical names.
var aliases = map[string]string{
	"utf-8":     "utf-8",
	"utf8":      "utf-8",
	"gbk":       "gbk",
	"cp936":     "gbk",
	"936":       "gbk",
	"big5":      "big5",
	"cp950":     "big5",
	"950":       "big5",
	"shift-jis": "shift-jis",
	"shift_jis": "shift-jis",
	"shiftjis":  "shift-jis",
	"sjis":      "shift-jis",
}

// Names lists the supported canonical encoding names.
func Names() []string {
	return []string{"utf-8", "gbk", "big5", "shift-jis"}
}

// Default returns the UTF-8 codec.
func Default() Encoding {
	return Encoding{name: "utf-8"}
}

// Lookup resolves a user-supplied encoding name, case-insensitively and
// through a small alias table. Unknown names are an error.
func Lookup(name string) (Encoding, error) {
	canon, ok := aliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Encoding{}, fmt.Errorf("unsupported encoding %q (supported: %s)", name, strings.Join(Names(), ", "))
	}
	return Encoding{name: canon, enc: codecs[canon]}, nil
}

// Name returns the canonical encoding name.
func (e Encoding) Name() string {
	return e.name
}

// Decode converts on-disk bytes to a UTF-8 string. Byte sequences that are
// not valid in the encoding are an error.
func (e Encoding) Decode(raw []byte) (string, error) {
	if e.enc == nil {
		if !utf8.Valid(raw) {
			return "", fmt.Errorf("byte sequence is not valid %s", e.name)
		}
		return string(raw), nil
	}
	out, err := e.enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", e.name, err)
	}
	// x/text decoders substitute U+FFFD for malformed input instead of
	// failing. None of the supported legacy encodings can represent U+FFFD,
	// so its presence in the output always marks invalid input.
	if bytes.ContainsRune(out, utf8.RuneError) {
		return "", fmt.Errorf("byte sequence is not valid %s", e.name)
	}
	return string(out), nil
}

// Encode converts a UTF-8 string to on-disk bytes. Runes the encoding cannot
// represent are an error and nothing is returned.
func (e Encoding) Encode(text string) ([]byte, error) {
	if e.enc == nil {
		if !utf8.ValidString(text) {
			return nil, fmt.Errorf("text is not valid %s", e.name)
		}
		return []byte(text), nil
	}
	out, err := e.enc.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", e.name, err)
	}
	return out, nil
}
