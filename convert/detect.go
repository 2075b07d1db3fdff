package convert

import (
	"archive/zip"
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
	"golang.org/x/text/transform"
)

// Number of bytes looked at when detecting file type and text encoding.
const sniffLen = 1024

type srcEncoding int

const (
	encUnknown srcEncoding = iota
	encUTF8
	encUTF16BigEndian
	encUTF16LittleEndian
	encUTF32BigEndian
	encUTF32LittleEndian
)

func (e srcEncoding) String() string {
	switch e {
	case encUTF8:
		return "utf8"
	case encUTF16BigEndian:
		return "utf16be"
	case encUTF16LittleEndian:
		return "utf16le"
	case encUTF32BigEndian:
		return "utf32be"
	case encUTF32LittleEndian:
		return "utf32le"
	}
	return "unknown"
}

func isUTF8BOM3(buf []byte) bool {
	return len(buf) >= 3 && buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF
}

func isUTF16BigEndianBOM2(buf []byte) bool {
	return len(buf) >= 2 && buf[0] == 0xFE && buf[1] == 0xFF
}

func isUTF16LittleEndianBOM2(buf []byte) bool {
	return len(buf) >= 2 && buf[0] == 0xFF && buf[1] == 0xFE
}

func isUTF32BigEndianBOM4(buf []byte) bool {
	return len(buf) >= 4 && buf[0] == 0x00 && buf[1] == 0x00 && buf[2] == 0xFE && buf[3] == 0xFF
}

func isUTF32LittleEndianBOM4(buf []byte) bool {
	return len(buf) >= 4 && buf[0] == 0xFF && buf[1] == 0xFE && buf[2] == 0x00 && buf[3] == 0x00
}

// detectUTF looks for byte order mark. UTF-32LE must be checked before
// UTF-16LE as their marks share prefix.
func detectUTF(buf []byte) srcEncoding {
	switch {
	case isUTF32BigEndianBOM4(buf):
		return encUTF32BigEndian
	case isUTF32LittleEndianBOM4(buf):
		return encUTF32LittleEndian
	case isUTF8BOM3(buf):
		return encUTF8
	case isUTF16BigEndianBOM2(buf):
		return encUTF16BigEndian
	case isUTF16LittleEndianBOM2(buf):
		return encUTF16LittleEndian
	}
	return encUnknown
}

// readHead reads up to sniffLen bytes, short files are not an error.
func readHead(r io.Reader) ([]byte, error) {
	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}
	return buf[:n], nil
}

func isArchiveFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		return false, nil
	}
	head, err := readHead(f)
	if err != nil {
		return false, err
	}
	return filetype.Is(head, "zip"), nil
}

// detectText decides if data looks like text transcription: it either starts
// with byte order mark or is not recognizable binary format and has no zero
// bytes.
func detectText(head []byte) (bool, srcEncoding) {
	if enc := detectUTF(head); enc != encUnknown {
		return true, enc
	}
	if kind, err := filetype.Match(head); err == nil && kind != filetype.Unknown {
		return false, encUnknown
	}
	if bytes.IndexByte(head, 0) >= 0 {
		return false, encUnknown
	}
	return true, encUnknown
}

func hasTextExt(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".txt")
}

func isTextFile(path string) (bool, srcEncoding, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, encUnknown, err
	}
	defer f.Close()

	if !hasTextExt(path) {
		return false, encUnknown, nil
	}
	head, err := readHead(f)
	if err != nil {
		return false, encUnknown, err
	}
	text, enc := detectText(head)
	return text, enc, nil
}

func isTextInArchive(f *zip.File) (bool, srcEncoding, error) {
	if !hasTextExt(f.FileHeader.Name) {
		return false, encUnknown, nil
	}
	r, err := f.Open()
	if err != nil {
		return false, encUnknown, err
	}
	defer r.Close()

	head, err := readHead(r)
	if err != nil {
		return false, encUnknown, err
	}
	text, enc := detectText(head)
	return text, enc, nil
}

// selectReader returns reader decoding text with byte order mark, the mark
// itself is dropped. Text without mark is returned as is.
func selectReader(r io.Reader, enc srcEncoding) io.Reader {
	switch enc {
	case encUnknown:
		return r
	case encUTF8:
		return transform.NewReader(r, unicode.UTF8BOM.NewDecoder())
	case encUTF16BigEndian:
		return transform.NewReader(r, unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder())
	case encUTF16LittleEndian:
		return transform.NewReader(r, unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder())
	case encUTF32BigEndian:
		return transform.NewReader(r, utf32.UTF32(utf32.BigEndian, utf32.ExpectBOM).NewDecoder())
	case encUTF32LittleEndian:
		return transform.NewReader(r, utf32.UTF32(utf32.LittleEndian, utf32.ExpectBOM).NewDecoder())
	}
	// this should never happen
	panic(fmt.Sprintf("unsupported source encoding %d", enc))
}

// decodeText returns reader producing UTF-8 text and name of the source
// encoding. Byte order mark wins, then forced encoding, then content
// sniffing which picks between UTF-8 and windows-1252.
func decodeText(r io.Reader, enc srcEncoding, forced encoding.Encoding) (io.Reader, string) {
	if enc != encUnknown {
		return selectReader(r, enc), enc.String()
	}
	if forced != nil {
		name, err := ianaindex.IANA.Name(forced)
		if err != nil {
			name = "forced"
		}
		return transform.NewReader(r, forced.NewDecoder()), name
	}

	br := bufio.NewReaderSize(r, sniffLen)
	head, _ := br.Peek(sniffLen)
	e, name, _ := charset.DetermineEncoding(head, "text/plain")
	if name == "utf-8" {
		return br, name
	}
	return transform.NewReader(br, e.NewDecoder()), name
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// selectWriter returns writer encoding UTF-8 output into requested encoding.
// Characters encoding cannot represent become numeric character references.
// Close must be called to flush the encoder, it does not close w.
func selectWriter(w io.Writer, enc encoding.Encoding) io.WriteCloser {
	if enc == nil || enc == unicode.UTF8 {
		return nopWriteCloser{w}
	}
	return transform.NewWriter(w, encoding.HTMLEscapeUnsupported(enc.NewEncoder()))
}

// lookupEncoding finds encoding by its IANA name and returns canonical name
// for it.
func lookupEncoding(name string) (encoding.Encoding, string, error) {
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, "", fmt.Errorf("unknown character set %q: %w", name, err)
	}
	if enc == nil {
		return nil, "", fmt.Errorf("character set %q is not supported", name)
	}
	canonical, err := ianaindex.IANA.Name(enc)
	if err != nil {
		canonical = name
	}
	return enc, canonical, nil
}
