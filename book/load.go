package book

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"golang.org/x/text/encoding/simplifiedchinese"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LoadError reports a file that could not be read. No Book is produced.
type LoadError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("unable to read %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// Load reads and parses the novel at path.
func Load(path string) (*Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	text, fallback := Decode(data)
	if fallback {
		log.Debug("decoded with GB18030 fallback", "path", path)
	}

	b := Parse(filepath.Base(path), text)
	log.Debug("book parsed", "path", path, "chapters", b.Len(), "bytes", len(data))
	return b, nil
}

// Decode interprets data as UTF-8. If that yields replacement characters, it
// decodes once more as GB18030 and reports fallback. A failed fallback leaves
// the lossy UTF-8 text in place; there is no further retry.
func Decode(data []byte) (text string, fallback bool) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) && !bytes.ContainsRune(data, utf8.RuneError) {
		return string(data), false
	}

	decoded, err := simplifiedchinese.GB18030.NewDecoder().Bytes(data)
	if err != nil {
		log.Warn("GB18030 fallback failed", "err", err)
		return strings.ToValidUTF8(string(data), string(utf8.RuneError)), true
	}
	return string(decoded), true
}
