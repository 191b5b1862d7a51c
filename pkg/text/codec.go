package text

import (
	"strings"

	"gitlab.com/tozd/go/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

// 🔤 Codec converts file bytes to UTF-8 text and back
type Codec interface {
	// Name is the charset name used in logs and errors
	Name() string

	// Decode turns raw file bytes into UTF-8 text
	Decode(content []byte) ([]byte, error)

	// Encode turns UTF-8 text back into the file's charset
	Encode(text []byte) ([]byte, error)
}

type rawCodec struct{}

// RawCodec returns the UTF-8 codec. Content is passed through untouched, so
// invalid byte sequences survive a rewrite verbatim.
func RawCodec() Codec {
	return rawCodec{}
}

func (rawCodec) Name() string { return "utf-8" }

func (rawCodec) Decode(content []byte) ([]byte, error) { return content, nil }

func (rawCodec) Encode(text []byte) ([]byte, error) { return text, nil }

type charsetCodec struct {
	name string
	enc  encoding.Encoding
}

func (c *charsetCodec) Name() string { return c.name }

// Decode replaces undecodable sequences with U+FFFD
func (c *charsetCodec) Decode(content []byte) ([]byte, error) {
	out, err := c.enc.NewDecoder().Bytes(content)
	if err != nil {
		return nil, errors.Errorf("decoding %s: %w", c.name, err)
	}
	return out, nil
}

// Encode replaces runes the charset cannot represent instead of failing
func (c *charsetCodec) Encode(text []byte) ([]byte, error) {
	out, err := encoding.ReplaceUnsupported(c.enc.NewEncoder()).Bytes(text)
	if err != nil {
		return nil, errors.Errorf("encoding %s: %w", c.name, err)
	}
	return out, nil
}

// 🎯 LookupCodec resolves an IANA charset name. Empty, "utf-8" and "utf8"
// select the raw codec.
func LookupCodec(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return RawCodec(), nil
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, errors.Errorf("unknown encoding %q: %w", name, err)
	}
	if enc == nil {
		return nil, errors.Errorf("unsupported encoding %q", name)
	}

	return &charsetCodec{name: name, enc: enc}, nil
}
