package main

import "io"

// countingReader wraps an io.Reader and reports every byte read to a sink,
// used to attribute disk-served response bytes to metrics as they stream
// to the client rather than all at once up front.
type countingReader struct {
	r    io.Reader
	sink func(n int)
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 && c.sink != nil {
		c.sink(n)
	}
	return n, err
}
