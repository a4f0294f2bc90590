package core

import (
	"bytes"
	"io"
	"sort"
	"strings"
	"sync"
)

// redactWriter replaces secret values in command output before it reaches
// the underlying writer. Output is buffered up to each newline so that a
// value split across two writes is still caught; Flush writes out any
// trailing partial line.
type redactWriter struct {
	mu  sync.Mutex
	w   io.Writer
	r   *strings.Replacer
	buf bytes.Buffer
}

func newRedactWriter(w io.Writer, secrets SecretMap) *redactWriter {
	values := make([]string, 0, len(secrets))
	for _, s := range secrets {
		if s != "" {
			values = append(values, s.Reveal())
		}
	}
	// longest first, so a value containing another is replaced whole
	sort.Slice(values, func(i, j int) bool { return len(values[i]) > len(values[j]) })

	pairs := make([]string, 0, 2*len(values))
	for _, v := range values {
		pairs = append(pairs, v, redacted)
	}
	return &redactWriter{w: w, r: strings.NewReplacer(pairs...)}
}

func (rw *redactWriter) Write(p []byte) (int, error) {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	rw.buf.Write(p)
	for {
		i := bytes.IndexByte(rw.buf.Bytes(), '\n')
		if i < 0 {
			break
		}
		line := rw.buf.Next(i + 1)
		if _, err := io.WriteString(rw.w, rw.r.Replace(string(line))); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

func (rw *redactWriter) Flush() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.buf.Len() == 0 {
		return nil
	}
	_, err := io.WriteString(rw.w, rw.r.Replace(rw.buf.String()))
	rw.buf.Reset()
	return err
}
