package convert

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

func writeZip(t *testing.T, path string, files map[string][]byte) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create zip: %v", err)
	}
	defer f.Close()
	zw := zip.NewWriter(f)
	for name, data := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("Failed to create zip entry: %v", err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatalf("Failed to write zip entry: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
}

// TestIsArchiveFile tests archive file detection
func TestIsArchiveFile(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("non-zip extension", func(t *testing.T) {
		filePath := filepath.Join(tmpDir, "test.txt")
		if err := os.WriteFile(filePath, []byte("not a zip"), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
		got, err := isArchiveFile(filePath)
		if err != nil {
			t.Errorf("isArchiveFile() error = %v", err)
		}
		if got {
			t.Error("isArchiveFile() = true, want false")
		}
	})

	t.Run("zip extension but invalid content", func(t *testing.T) {
		filePath := filepath.Join(tmpDir, "test.zip")
		if err := os.WriteFile(filePath, []byte("not a real zip file"), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
		got, err := isArchiveFile(filePath)
		if err != nil {
			t.Errorf("isArchiveFile() error = %v", err)
		}
		if got {
			t.Error("isArchiveFile() = true, want false")
		}
	})

	t.Run("valid zip file", func(t *testing.T) {
		filePath := filepath.Join(tmpDir, "book.ZIP")
		writeZip(t, filePath, map[string][]byte{"book.txt": []byte("text")})
		got, err := isArchiveFile(filePath)
		if err != nil {
			t.Errorf("isArchiveFile() error = %v", err)
		}
		if !got {
			t.Error("isArchiveFile() = false, want true")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := isArchiveFile(filepath.Join(tmpDir, "absent.zip")); err == nil {
			t.Error("isArchiveFile() expected error for missing file")
		}
	})
}

func TestDetectUTF(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		want srcEncoding
	}{
		{"empty", nil, encUnknown},
		{"plain", []byte("hello"), encUnknown},
		{"utf8", []byte{0xEF, 0xBB, 0xBF, 'a'}, encUTF8},
		{"utf16be", []byte{0xFE, 0xFF, 0, 'a'}, encUTF16BigEndian},
		{"utf16le", []byte{0xFF, 0xFE, 'a', 0}, encUTF16LittleEndian},
		{"utf32be", []byte{0, 0, 0xFE, 0xFF}, encUTF32BigEndian},
		{"utf32le", []byte{0xFF, 0xFE, 0, 0}, encUTF32LittleEndian},
		{"truncated utf8 mark", []byte{0xEF, 0xBB}, encUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectUTF(tt.buf); got != tt.want {
				t.Errorf("detectUTF() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetectText(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}
	tests := []struct {
		name     string
		head     []byte
		wantText bool
		wantEnc  srcEncoding
	}{
		{"ascii", []byte("CHAPTER I\n\nIt was"), true, encUnknown},
		{"latin1", []byte{'c', 'a', 'f', 0xE9}, true, encUnknown},
		{"bom", []byte{0xFF, 0xFE, 'a', 0}, true, encUTF16LittleEndian},
		{"zero byte", []byte{'a', 0, 'b'}, false, encUnknown},
		{"image", png, false, encUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, enc := detectText(tt.head)
			if text != tt.wantText || enc != tt.wantEnc {
				t.Errorf("detectText() = (%v, %v), want (%v, %v)", text, enc, tt.wantText, tt.wantEnc)
			}
		})
	}
}

func TestIsTextFile(t *testing.T) {
	tmpDir := t.TempDir()

	write := func(name string, data []byte) string {
		path := filepath.Join(tmpDir, name)
		if err := os.WriteFile(path, data, 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
		return path
	}

	t.Run("text", func(t *testing.T) {
		text, enc, err := isTextFile(write("a.txt", []byte("plain text")))
		if err != nil || !text || enc != encUnknown {
			t.Errorf("isTextFile() = (%v, %v, %v)", text, enc, err)
		}
	})
	t.Run("text with bom", func(t *testing.T) {
		text, enc, err := isTextFile(write("b.TXT", []byte{0xEF, 0xBB, 0xBF, 'x'}))
		if err != nil || !text || enc != encUTF8 {
			t.Errorf("isTextFile() = (%v, %v, %v)", text, enc, err)
		}
	})
	t.Run("wrong extension", func(t *testing.T) {
		text, _, err := isTextFile(write("c.html", []byte("plain text")))
		if err != nil || text {
			t.Errorf("isTextFile() = (%v, %v)", text, err)
		}
	})
	t.Run("binary", func(t *testing.T) {
		text, _, err := isTextFile(write("d.txt", []byte{1, 2, 0, 3}))
		if err != nil || text {
			t.Errorf("isTextFile() = (%v, %v)", text, err)
		}
	})
	t.Run("empty", func(t *testing.T) {
		text, _, err := isTextFile(write("e.txt", nil))
		if err != nil || !text {
			t.Errorf("isTextFile() = (%v, %v)", text, err)
		}
	})
	t.Run("missing", func(t *testing.T) {
		if _, _, err := isTextFile(filepath.Join(tmpDir, "absent.txt")); err == nil {
			t.Error("isTextFile() expected error")
		}
	})
}

func TestIsTextInArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "set.zip")
	writeZip(t, path, map[string][]byte{
		"book.txt":  []byte("text"),
		"image.png": {0x89, 'P', 'N', 'G'},
		"bin.txt":   {0, 1, 2},
	})

	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	defer zr.Close()

	want := map[string]bool{"book.txt": true, "image.png": false, "bin.txt": false}
	for _, f := range zr.File {
		text, _, err := isTextInArchive(f)
		if err != nil {
			t.Errorf("%s: unexpected error %v", f.Name, err)
		}
		if text != want[f.Name] {
			t.Errorf("%s: isTextInArchive() = %v, want %v", f.Name, text, want[f.Name])
		}
	}
}

func TestDecodeText(t *testing.T) {
	utf16, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes([]byte("Ærø [oe]"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	tests := []struct {
		name     string
		data     []byte
		enc      srcEncoding
		forced   bool
		want     string
		wantName string
	}{
		{"utf8 without mark", []byte("naïve"), encUnknown, false, "naïve", "utf-8"},
		{"utf8 with mark", []byte("\xEF\xBB\xBFnaïve"), encUTF8, false, "naïve", "utf8"},
		{"utf16 with mark", utf16, encUTF16LittleEndian, false, "Ærø [oe]", "utf16le"},
		{"windows-1252 sniffed", []byte("caf\xE9 \x93q\x94"), encUnknown, false, "café “q”", "windows-1252"},
		{"forced", []byte("caf\xE9"), encUnknown, true, "café", "ISO-8859-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, name := decodeText(bytes.NewReader(tt.data), tt.enc, charmapOrNil(tt.forced))
			got, err := io.ReadAll(r)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("decoded = %q, want %q", got, tt.want)
			}
			if name != tt.wantName {
				t.Errorf("charset = %q, want %q", name, tt.wantName)
			}
		})
	}
}

func charmapOrNil(forced bool) encoding.Encoding {
	if forced {
		return charmap.ISO8859_1
	}
	return nil
}

func TestSelectReader_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("selectReader() expected panic for unsupported encoding")
		}
	}()
	selectReader(bytes.NewReader(nil), srcEncoding(100))
}

func TestSelectWriter(t *testing.T) {
	t.Run("utf8 passes through", func(t *testing.T) {
		var buf bytes.Buffer
		w := selectWriter(&buf, unicode.UTF8)
		if _, err := io.WriteString(w, "ѯ"); err != nil {
			t.Fatal(err)
		}
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}
		if buf.String() != "ѯ" {
			t.Errorf("got %q", buf.String())
		}
	})
	t.Run("unsupported characters become references", func(t *testing.T) {
		var buf bytes.Buffer
		w := selectWriter(&buf, charmap.ISO8859_1)
		if _, err := io.WriteString(w, "café ѯ"); err != nil {
			t.Fatal(err)
		}
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}
		if want := "caf\xE9 &#1135;"; buf.String() != want {
			t.Errorf("got %q, want %q", buf.String(), want)
		}
	})
}

func TestLookupEncoding(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"utf-8", "UTF-8", false},
		{"latin1", "ISO-8859-1", false},
		{"windows-1252", "windows-1252", false},
		{"no-such-charset", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, name, err := lookupEncoding(tt.name)
			if tt.wantErr {
				if err == nil {
					t.Error("lookupEncoding() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("lookupEncoding() error = %v", err)
			}
			if enc == nil || name != tt.want {
				t.Errorf("lookupEncoding() = (%v, %q), want %q", enc, name, tt.want)
			}
		})
	}
}
