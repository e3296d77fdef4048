package config

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"vba2py/lang"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return unicode.UTF8, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("unknown source encoding %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("source encoding %q is not supported", name)
	}
	return enc, nil
}

// Decode converts raw module bytes to text. Files starting with a UTF-8
// byte order mark are read as UTF-8 whatever the configured encoding.
func Decode(data []byte, encodingName string) (string, error) {
	if bytes.HasPrefix(data, utf8BOM) {
		return string(data[len(utf8BOM):]), nil
	}
	enc, err := lookupEncoding(encodingName)
	if err != nil {
		return "", err
	}
	out, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", encodingName, err)
	}
	return string(out), nil
}

// Prepare turns the bytes of a module file into parser input: decoded,
// with LF line endings and without the configured header lines.
func (c *Config) Prepare(data []byte) (string, error) {
	text, err := Decode(data, c.Source.Encoding)
	if err != nil {
		return "", err
	}
	return lang.StripHeader(lang.NormalizeNewlines(text), c.Source.HeaderLines), nil
}
