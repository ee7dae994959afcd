package bridge

import (
	"bytes"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Sink is the output contract a Handler drives. Nothing reaches the caller
// until End is called.
type Sink interface {
	// WriteHead sets the status code and merges headers in bulk
	WriteHead(status int, headers map[string]string)
	// SetHeader sets a single header, replacing any previous value
	SetHeader(name, value string)
	// GetHeader returns the first value of a header
	GetHeader(name string) string
	// Write appends body data
	Write(p []byte) (int, error)
	// End appends optional final data and signals completion
	End(data ...[]byte)
}

// Captured is a point-in-time copy of a sink's state
type Captured struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Ended      bool
}

// ResponseSink accumulates status, headers and body for one invocation. It
// implements both Sink and http.ResponseWriter.
//
// The first WriteHead/WriteHeader wins, as does the implicit 200 of a Write
// that precedes them. Headers stay mutable until End, since nothing is sent
// before completion. Every mutation after End is ignored.
type ResponseSink struct {
	mu            sync.Mutex
	status        int
	headerWritten bool
	header        http.Header
	body          bytes.Buffer
	ended         bool

	done    chan struct{}
	endOnce sync.Once
}

var (
	_ Sink                = (*ResponseSink)(nil)
	_ http.ResponseWriter = (*ResponseSink)(nil)
	_ http.Flusher        = (*ResponseSink)(nil)
)

// NewResponseSink creates an empty sink
func NewResponseSink() *ResponseSink {
	return &ResponseSink{
		header: make(http.Header),
		done:   make(chan struct{}),
	}
}

// Header returns the live header map, or a detached map once the sink has ended.
func (s *ResponseSink) Header() http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return make(http.Header)
	}
	return s.header
}

// WriteHeader records the status code. 1xx codes other than 101 are
// informational and never become the final status.
func (s *ResponseSink) WriteHeader(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeHeaderLocked(status)
}

func (s *ResponseSink) writeHeaderLocked(status int) {
	if s.ended || s.headerWritten || isInterim(status) {
		return
	}
	s.status = status
	s.headerWritten = true
}

// WriteHead sets the status and merges headers in bulk. Interim 1xx heads
// are dropped with their headers.
func (s *ResponseSink) WriteHead(status int, headers map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended || isInterim(status) {
		return
	}
	for k, v := range headers {
		s.header.Set(k, v)
	}
	s.writeHeaderLocked(status)
}

// SetHeader sets a single header
func (s *ResponseSink) SetHeader(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.header.Set(name, value)
}

// GetHeader returns the first value of a header
func (s *ResponseSink) GetHeader(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.header.Get(name)
}

// RemoveHeader deletes a header
func (s *ResponseSink) RemoveHeader(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.header.Del(name)
}

// Write appends body data
func (s *ResponseSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return 0, ErrAlreadyEnded
	}
	s.writeHeaderLocked(http.StatusOK)
	return s.body.Write(p)
}

// WriteString appends string body data
func (s *ResponseSink) WriteString(str string) (int, error) {
	return s.Write([]byte(str))
}

// End appends final data and signals completion. Only the first call has an
// effect.
func (s *ResponseSink) End(data ...[]byte) {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return
	}
	for _, d := range data {
		if len(d) > 0 {
			s.writeHeaderLocked(http.StatusOK)
			s.body.Write(d)
		}
	}
	s.ended = true
	s.mu.Unlock()

	s.endOnce.Do(func() { close(s.done) })
}

// Done is closed when End is called
func (s *ResponseSink) Done() <-chan struct{} {
	return s.done
}

// Ended reports whether End has been called
func (s *ResponseSink) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

// Snapshot copies the current state. A status that was never set reads as 200.
func (s *ResponseSink) Snapshot() *Captured {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := s.status
	if status == 0 {
		status = http.StatusOK
	}
	body := make([]byte, s.body.Len())
	copy(body, s.body.Bytes())

	return &Captured{
		StatusCode: status,
		Header:     s.header.Clone(),
		Body:       body,
		Ended:      s.ended,
	}
}

// The methods below are capability checks made by net/http code through
// interface assertions or http.ResponseController. They do nothing because
// the sink is buffered and there is no connection behind it.

// Flush is a no-op; output is delivered at End
func (s *ResponseSink) Flush() {}

// SetWriteDeadline is a no-op; the bridge timeout bounds the invocation
func (s *ResponseSink) SetWriteDeadline(time.Time) error { return nil }

// SetReadDeadline is a no-op; the request body is already buffered
func (s *ResponseSink) SetReadDeadline(time.Time) error { return nil }

// EnableFullDuplex is a no-op; the body is read before the handler runs
func (s *ResponseSink) EnableFullDuplex() error { return nil }

// CloseNotify returns a channel that never fires. There is no client
// connection to observe.
func (s *ResponseSink) CloseNotify() <-chan bool {
	return nil
}

// sinkWriter presents an arbitrary Sink as an http.ResponseWriter
type sinkWriter struct {
	sink    Sink
	header  http.Header
	flushed bool
}

func newSinkWriter(sink Sink) *sinkWriter {
	return &sinkWriter{sink: sink, header: make(http.Header)}
}

func (w *sinkWriter) Header() http.Header {
	return w.header
}

func (w *sinkWriter) WriteHeader(status int) {
	if w.flushed || isInterim(status) {
		return
	}
	w.flushed = true
	w.sink.WriteHead(status, flatten(w.header))
}

func (w *sinkWriter) Write(p []byte) (int, error) {
	if !w.flushed {
		w.WriteHeader(http.StatusOK)
	}
	return w.sink.Write(p)
}

func isInterim(status int) bool {
	return status >= 100 && status < 200 && status != http.StatusSwitchingProtocols
}

// flatten folds a multi-value header into single values
func flatten(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, values := range h {
		out[k] = strings.Join(values, ", ")
	}
	return out
}
