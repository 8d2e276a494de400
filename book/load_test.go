package book

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/encoding/simplifiedchinese"
)

func TestDecodeUTF8(t *testing.T) {
	text, fallback := Decode([]byte("第一章\n你好"))
	if fallback {
		t.Error("valid UTF-8 should not fall back")
	}
	if text != "第一章\n你好" {
		t.Errorf("text = %q", text)
	}
}

func TestDecodeStripsBOM(t *testing.T) {
	text, _ := Decode(append([]byte{0xEF, 0xBB, 0xBF}, []byte("第一章")...))
	if text != "第一章" {
		t.Errorf("text = %q", text)
	}
}

func TestDecodeGB18030Fallback(t *testing.T) {
	want := "第一章 开始\n你好，世界"
	encoded, err := simplifiedchinese.GB18030.NewEncoder().Bytes([]byte(want))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	text, fallback := Decode(encoded)
	if !fallback {
		t.Error("GB18030 input should fall back")
	}
	if text != want {
		t.Errorf("text = %q, want %q", text, want)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "小说.txt")

	encoded, err := simplifiedchinese.GB18030.NewEncoder().Bytes([]byte("第一章 开始\n你好\n第二章 继续\n再见"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	b, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if b.Filename != "小说.txt" {
		t.Errorf("Filename = %q", b.Filename)
	}
	if b.Len() != 2 || b.Chapters[1].Title != "第二章 继续" {
		t.Errorf("unexpected chapters: %+v", b.Chapters)
	}
}

func TestLoadMissingFile(t *testing.T) {
	b, err := Load(filepath.Join(t.TempDir(), "missing.txt"))
	if b != nil {
		t.Error("no Book should be returned on failure")
	}

	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected *LoadError, got %T", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist in chain, got %v", err)
	}
}
