// Package reads loads FASTA/FASTQ input, transparently handling the same
// .gz and .br compressed suffixes the teacher's read-format helpers
// recognize, grounded on constructcf.go's GetReadsFileFormat and
// mapDBG.go's biogo-based FASTA reading.
package reads

import (
	"compress/gzip"
	"io"
	"os"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/io/seqio/fastq"
	"github.com/biogo/biogo/seq/linear"
	"github.com/google/brotli/go/cbrotli"
	"github.com/klauspost/compress/zstd"

	"github.com/mudesheng/unitiggraph/unitigerr"
)

// Record is one loaded read: the file it came from, a 0-based index
// within that file, and its raw, not yet base-code-encoded, nucleotide
// sequence.
type Record struct {
	Path  string
	Index int
	Seq   []byte
}

// Source yields reads one at a time until it returns io.EOF.
type Source interface {
	Next() (Record, error)
	Close() error
}

// Open opens one reads file, sniffing its compression (.gz, .br, .zst,
// or none) and its record format (FASTA *.fa/*.fasta or FASTQ *.fq/*.fastq)
// from its name.
func Open(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &unitigerr.ResourceError{Phase: "reads.Open", Reason: err.Error()}
	}

	var r io.Reader = f
	var closer io.Closer
	stem := path
	switch {
	case strings.HasSuffix(stem, ".gz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, &unitigerr.FormatError{File: path, Reason: "not a valid gzip stream: " + err.Error()}
		}
		r, closer = gz, gz
		stem = strings.TrimSuffix(stem, ".gz")
	case strings.HasSuffix(stem, ".br"):
		br := cbrotli.NewReader(f)
		r, closer = br, br
		stem = strings.TrimSuffix(stem, ".br")
	case strings.HasSuffix(stem, ".zst"):
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, &unitigerr.FormatError{File: path, Reason: "not a valid zstd stream: " + err.Error()}
		}
		r, closer = zr, zstdCloser{zr}
		stem = strings.TrimSuffix(stem, ".zst")
	}

	fq, err := isFastqSuffix(path, stem)
	if err != nil {
		f.Close()
		return nil, err
	}

	src := &fileSource{file: f, closer: closer}
	if fq {
		src.read = fastqReadFunc(r, path)
	} else {
		src.read = fastaReadFunc(r, path)
	}
	return src, nil
}

// OpenAll concatenates multiple reads files into one Source, moving on to
// the next file when the current one is exhausted.
func OpenAll(paths []string) (Source, error) {
	if len(paths) == 0 {
		return nil, &unitigerr.ContractViolation{Phase: "reads.OpenAll", Reason: "no input files given"}
	}
	return &multiSource{paths: paths}, nil
}

func isFastqSuffix(path, stem string) (bool, error) {
	switch {
	case strings.HasSuffix(stem, ".fa"), strings.HasSuffix(stem, ".fasta"):
		return false, nil
	case strings.HasSuffix(stem, ".fq"), strings.HasSuffix(stem, ".fastq"):
		return true, nil
	}
	return false, &unitigerr.FormatError{File: path, Reason: "unrecognized reads file suffix, want .fa/.fasta/.fq/.fastq optionally followed by .gz, .br or .zst"}
}

// zstdCloser adapts *zstd.Decoder's void Close to io.Closer.
type zstdCloser struct{ d *zstd.Decoder }

func (z zstdCloser) Close() error {
	z.d.Close()
	return nil
}

type fileSource struct {
	file   *os.File
	closer io.Closer
	read   func() (Record, error)
}

func (s *fileSource) Next() (Record, error) {
	return s.read()
}

func (s *fileSource) Close() error {
	if s.closer != nil {
		s.closer.Close()
	}
	return s.file.Close()
}

func fastaReadFunc(r io.Reader, path string) func() (Record, error) {
	rdr := fasta.NewReader(r, linear.NewSeq("", nil, alphabet.DNA))
	index := 0
	return func() (Record, error) {
		seq, err := rdr.Read()
		if err != nil {
			return Record{}, err
		}
		l := seq.(*linear.Seq)
		out := make([]byte, len(l.Seq))
		for i, b := range l.Seq {
			out[i] = byte(b)
		}
		index++
		return Record{Path: path, Index: index - 1, Seq: out}, nil
	}
}

func fastqReadFunc(r io.Reader, path string) func() (Record, error) {
	rdr := fastq.NewReader(r, linear.NewQSeq("", nil, alphabet.DNA, alphabet.Sanger))
	index := 0
	return func() (Record, error) {
		seq, err := rdr.Read()
		if err != nil {
			return Record{}, err
		}
		q := seq.(*linear.QSeq)
		out := make([]byte, len(q.Seq))
		for i, l := range q.Seq {
			out[i] = byte(l.L)
		}
		index++
		return Record{Path: path, Index: index - 1, Seq: out}, nil
	}
}

// multiSource chains several file sources into one logical read stream.
type multiSource struct {
	paths []string
	idx   int
	cur   Source
}

func (m *multiSource) Next() (Record, error) {
	for {
		if m.cur == nil {
			if m.idx >= len(m.paths) {
				return Record{}, io.EOF
			}
			src, err := Open(m.paths[m.idx])
			if err != nil {
				return Record{}, err
			}
			m.idx++
			m.cur = src
		}
		rec, err := m.cur.Next()
		if err == io.EOF {
			m.cur.Close()
			m.cur = nil
			continue
		}
		return rec, err
	}
}

func (m *multiSource) Close() error {
	if m.cur != nil {
		return m.cur.Close()
	}
	return nil
}
