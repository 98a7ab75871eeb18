package middleware

import "net/http"

// responseRecorder remembers the status and body size written through it.
type responseRecorder struct {
	http.ResponseWriter
	status  int
	bytes   int
	written bool
}

// record returns w itself when it already records, so stacked middleware
// share one recorder.
func record(w http.ResponseWriter) *responseRecorder {
	if rr, ok := w.(*responseRecorder); ok {
		return rr
	}
	return &responseRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (rr *responseRecorder) WriteHeader(code int) {
	if rr.written {
		return
	}
	rr.status = code
	rr.written = true
	rr.ResponseWriter.WriteHeader(code)
}

func (rr *responseRecorder) Write(b []byte) (int, error) {
	rr.written = true
	n, err := rr.ResponseWriter.Write(b)
	rr.bytes += n
	return n, err
}

// Flush implements http.Flusher.
func (rr *responseRecorder) Flush() {
	if f, ok := rr.ResponseWriter.(http.Flusher); ok {
		rr.written = true
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the original writer.
func (rr *responseRecorder) Unwrap() http.ResponseWriter {
	return rr.ResponseWriter
}
