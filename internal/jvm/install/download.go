package install

import (
	"io"
	"sync/atomic"
)

// DownloadStream wraps a download body as an observable byte stream.
// Progress consumers may poll BytesRead concurrently while the
// installer drains the stream into the extractor.
type DownloadStream struct {
	reader io.Reader
	size   int64
	read   atomic.Int64
}

// newDownloadStream wraps r with the expected total size in bytes.
// A negative size means the server did not announce a Content-Length.
func newDownloadStream(r io.Reader, size int64) *DownloadStream {
	return &DownloadStream{reader: r, size: size}
}

// Read implements io.Reader, accounting every consumed byte.
func (s *DownloadStream) Read(p []byte) (int, error) {
	n, err := s.reader.Read(p)
	if n > 0 {
		s.read.Add(int64(n))
	}
	return n, err
}

// Size returns the expected total size in bytes, or -1 when unknown.
func (s *DownloadStream) Size() int64 {
	return s.size
}

// BytesRead returns the number of bytes consumed so far.
func (s *DownloadStream) BytesRead() int64 {
	return s.read.Load()
}

// ProgressSink receives the download stream before consumption begins.
// It may observe the stream concurrently with extraction.
type ProgressSink func(*DownloadStream)
