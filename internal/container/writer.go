package container

import (
	_ "crypto/sha256" // registers digest.Canonical
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/opencontainers/go-digest"
)

type entry struct {
	tag    string
	offset uint64
	size   uint64
	digest digest.Digest
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithCompression sets the TOC compression.
func WithCompression(c Compression) WriterOption {
	return func(w *Writer) {
		w.compression = c
	}
}

// Writer streams sections into a container. Sections are written in call
// order; Close appends the table of contents and the footer.
// A Writer is not safe for concurrent use.
type Writer struct {
	w           io.Writer
	off         uint64
	compression Compression
	entries     []entry
	tags        map[string]struct{}
	closed      bool
}

// NewWriter returns a Writer emitting to w.
func NewWriter(w io.Writer, opts ...WriterOption) *Writer {
	cw := &Writer{
		w:           w,
		compression: CompressionNone,
		tags:        make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(cw)
	}
	return cw
}

// AddSection writes data as the section tag.
func (w *Writer) AddSection(tag string, data []byte) error {
	if err := w.begin(tag); err != nil {
		return err
	}
	n, err := w.w.Write(data)
	if err != nil {
		return err
	}
	w.finish(tag, uint64(n), digest.FromBytes(data))
	return nil
}

// AddSectionFrom copies r into the section tag and returns the bytes written.
func (w *Writer) AddSectionFrom(tag string, r io.Reader) (int64, error) {
	if err := w.begin(tag); err != nil {
		return 0, err
	}
	d := digest.Canonical.Digester()
	n, err := io.Copy(io.MultiWriter(w.w, d.Hash()), r)
	if err != nil {
		return n, err
	}
	w.finish(tag, uint64(n), d.Digest())
	return n, nil
}

func (w *Writer) begin(tag string) error {
	if w.closed {
		return ErrWriterClosed
	}
	if tag == "" {
		return errors.New("container: empty section tag")
	}
	if _, ok := w.tags[tag]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateSection, tag)
	}
	return nil
}

func (w *Writer) finish(tag string, n uint64, d digest.Digest) {
	w.entries = append(w.entries, entry{tag: tag, offset: w.off, size: n, digest: d})
	w.tags[tag] = struct{}{}
	w.off += n
}

// Close writes the table of contents and footer. It does not close the
// underlying writer.
func (w *Writer) Close() error {
	if w.closed {
		return ErrWriterClosed
	}
	w.closed = true

	toc, err := compressBlock(encodeTOC(w.entries), w.compression)
	if err != nil {
		return fmt.Errorf("container: compress toc: %w", err)
	}
	if _, err := w.w.Write(toc); err != nil {
		return err
	}

	footer := Footer{TOCOffset: w.off, TOCSize: uint64(len(toc)), Compression: w.compression}
	_, err = w.w.Write(footer.Encode())
	return err
}

func encodeTOC(entries []entry) []byte {
	buf := binary.AppendUvarint(nil, uint64(len(entries)))
	for _, e := range entries {
		buf = binary.AppendUvarint(buf, uint64(len(e.tag)))
		buf = append(buf, e.tag...)
		buf = binary.AppendUvarint(buf, e.offset)
		buf = binary.AppendUvarint(buf, e.size)
		buf = binary.AppendUvarint(buf, uint64(len(e.digest)))
		buf = append(buf, e.digest...)
	}
	return buf
}
