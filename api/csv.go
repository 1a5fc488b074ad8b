package api

import (
	"bufio"
	"encoding/csv"
	"io"
)

const csvBufferSize = 32 * 1024

// csvStreamer wraps a buffered CSV writer so large exports stream instead
// of building the whole document in memory.
type csvStreamer struct {
	buf *bufio.Writer
	csv *csv.Writer
}

func newCSVStreamer(w io.Writer) *csvStreamer {
	buf := bufio.NewWriterSize(w, csvBufferSize)
	return &csvStreamer{buf: buf, csv: csv.NewWriter(buf)}
}

func (s *csvStreamer) writeRow(row []string) error {
	return s.csv.Write(row)
}

func (s *csvStreamer) Flush() error {
	s.csv.Flush()
	if err := s.csv.Error(); err != nil {
		return err
	}
	return s.buf.Flush()
}
