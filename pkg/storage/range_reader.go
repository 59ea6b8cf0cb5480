package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// rangeOpener opens a reader over length bytes of an object starting at offset
type rangeOpener func(ctx context.Context, offset, length int64) (io.ReadCloser, error)

// rangeReader turns ranged GETs into an io.ReadSeekCloser. A request is only
// issued on the first Read after a Seek, and it runs to the end of the object
// so sequential reads reuse one connection.
type rangeReader struct {
	ctx  context.Context
	open rangeOpener
	size int64

	offset int64
	body   io.ReadCloser
}

func newRangeReader(ctx context.Context, size int64, open rangeOpener) *rangeReader {
	return &rangeReader{ctx: ctx, open: open, size: size}
}

func (r *rangeReader) Read(p []byte) (int, error) {
	if r.offset >= r.size {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}

	if r.body == nil {
		body, err := r.open(r.ctx, r.offset, r.size-r.offset)
		if err != nil {
			return 0, err
		}
		r.body = body
	}

	n, err := r.body.Read(p)
	r.offset += int64(n)
	if errors.Is(err, io.EOF) {
		r.body.Close()
		r.body = nil
		if r.offset < r.size {
			if n > 0 {
				return n, nil
			}
			return 0, io.ErrUnexpectedEOF
		}
	}
	return n, err
}

func (r *rangeReader) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = r.offset + offset
	case io.SeekEnd:
		abs = r.size + offset
	default:
		return r.offset, fmt.Errorf("invalid whence %d", whence)
	}
	if abs < 0 {
		return r.offset, fmt.Errorf("negative position %d", abs)
	}

	if abs != r.offset && r.body != nil {
		r.body.Close()
		r.body = nil
	}
	r.offset = abs
	return abs, nil
}

func (r *rangeReader) Close() error {
	if r.body == nil {
		return nil
	}
	err := r.body.Close()
	r.body = nil
	return err
}
