package textenc

import (
	"bytes"
	"strings"
	"testing"
)

func mustLookup(t *testing.T, name string) Encoding {
	t.Helper()
	enc, err := Lookup(name)
	if err != nil {
		t.Fatalf("Lookup(%q): %v", name, err)
	}
	return enc
}

func TestLookupAliases(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"utf-8", "utf-8"},
		{"UTF-8", "utf-8"},
		{"utf8", "utf-8"},
		{"gbk", "gbk"},
		{"GBK", "gbk"},
		{"cp936", "gbk"},
		{"big5", "big5"},
		{"cp950", "big5"},
		{"shift-jis", "shift-jis"},
		{"Shift_JIS", "shift-jis"},
		{"sjis", "shift-jis"},
		{" utf-8 ", "utf-8"},
	}
	for _, tc := range cases {
		enc, err := Lookup(tc.in)
		if err != nil {
			t.Errorf("Lookup(%q): %v", tc.in, err)
			continue
		}
		if enc.Name() != tc.want {
			t.Errorf("Lookup(%q).Name() = %q, want %q", tc.in, enc.Name(), tc.want)
		}
	}
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("klingon")
	if err == nil {
		t.Fatal("unknown encoding should be an error")
	}
	if !strings.Contains(err.Error(), "utf-8") {
		t.Errorf("error should list supported encodings, got %q", err)
	}
}

func TestDefaultIsUTF8(t *testing.T) {
	if got := Default().Name(); got != "utf-8" {
		t.Errorf("Default().Name() = %q, want utf-8", got)
	}
}

func TestUTF8RoundTrip(t *testing.T) {
	enc := Default()
	text := "hello, 世界\nsecond line"
	raw, err := enc.Encode(text)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := enc.Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != text {
		t.Errorf("round trip = %q, want %q", got, text)
	}
}

func TestUTF8DecodeInvalid(t *testing.T) {
	if _, err := Default().Decode([]byte{0xff, 0xfe, 0xfd}); err == nil {
		t.Error("invalid utf-8 bytes should fail to decode")
	}
}

func TestUTF8DecodeKeepsReplacementRune(t *testing.T) {
	// A file that genuinely contains U+FFFD is valid UTF-8 and must pass.
	got, err := Default().Decode([]byte("a�b"))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != "a�b" {
		t.Errorf("Decode = %q, want the replacement rune preserved", got)
	}
}

func TestUTF8EncodeInvalid(t *testing.T) {
	if _, err := Default().Encode("bad\xffstring"); err == nil {
		t.Error("invalid utf-8 string should fail to encode")
	}
}

func TestGBKRoundTrip(t *testing.T) {
	enc := mustLookup(t, "gbk")
	text := "你好，世界"
	raw, err := enc.Encode(text)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if bytes.Equal(raw, []byte(text)) {
		t.Error("gbk bytes should differ from the utf-8 form")
	}
	got, err := enc.Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != text {
		t.Errorf("round trip = %q, want %q", got, text)
	}
}

func TestGBKDecodeInvalid(t *testing.T) {
	enc := mustLookup(t, "gbk")
	cases := [][]byte{
		{0x81, 0x7f}, // lead byte with an illegal trail byte
		{0xd6},       // truncated double-byte sequence
	}
	for _, raw := range cases {
		if _, err := enc.Decode(raw); err == nil {
			t.Errorf("Decode(% x) should fail", raw)
		}
	}
}

func TestGBKEncodeUnrepresentable(t *testing.T) {
	enc := mustLookup(t, "gbk")
	if _, err := enc.Encode("emoji \U0001F600"); err == nil {
		t.Error("runes outside gbk should fail to encode")
	}
}

func TestShiftJISRoundTrip(t *testing.T) {
	enc := mustLookup(t, "shift-jis")
	text := "こんにちは"
	raw, err := enc.Encode(text)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := enc.Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != text {
		t.Errorf("round trip = %q, want %q", got, text)
	}
}

func TestBig5RoundTrip(t *testing.T) {
	enc := mustLookup(t, "big5")
	text := "繁體中文"
	raw, err := enc.Encode(text)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := enc.Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != text {
		t.Errorf("round trip = %q, want %q", got, text)
	}
}

func TestEmptyInput(t *testing.T) {
	for _, name := range Names() {
		enc := mustLookup(t, name)
		raw, err := enc.Encode("")
		if err != nil {
			t.Errorf("%s: Encode(\"\"): %v", name, err)
		}
		if len(raw) != 0 {
			t.Errorf("%s: Encode(\"\") = % x, want empty", name, raw)
		}
		got, err := enc.Decode(nil)
		if err != nil {
			t.Errorf("%s: Decode(nil): %v", name, err)
		}
		if got != "" {
			t.Errorf("%s: Decode(nil) = %q, want empty", name, got)
		}
	}
}
