package sandbox

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/gzip"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

// MaxScriptSize limits a decoded script to 16MB
const MaxScriptSize = 16 * 1024 * 1024

// ReadScript loads a script file as UTF-8 source. Gzip content is
// inflated and text in a legacy encoding is transcoded.
func ReadScript(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read script: %w", err)
	}

	if len(data) > 0 && mimetype.Detect(data).Is("application/gzip") {
		data, err = inflate(data)
		if err != nil {
			return "", fmt.Errorf("failed to inflate %s: %w", path, err)
		}
	}
	if len(data) > MaxScriptSize {
		return "", fmt.Errorf("%s exceeds maximum size of %d bytes", path, MaxScriptSize)
	}
	if !isText(data) {
		return "", fmt.Errorf("%s is not a text file (%s)", path, mimetype.Detect(data))
	}

	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return string(data), nil
	}
	return transcode(data)
}

func inflate(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	out, err := io.ReadAll(io.LimitReader(zr, MaxScriptSize+1))
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DetectCharset returns the lower-cased best guess for data's encoding
func DetectCharset(data []byte) string {
	result, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}

func transcode(data []byte) (string, error) {
	label := DetectCharset(data)
	enc, name := charset.Lookup(label)
	if enc == nil {
		return "", fmt.Errorf("unsupported script encoding %q", label)
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s script: %w", name, err)
	}
	return string(out), nil
}
