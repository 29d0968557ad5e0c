package apitest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
)

// headerKey is the idempotency header the client sends.
const headerKey = "Idempotency-Key"

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// logRequests appends every request to the log once it has been served.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}
		entry := Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Key:    r.Header.Get(headerKey),
		}
		if len(bytes.TrimSpace(body)) > 0 {
			var buf bytes.Buffer
			if json.Compact(&buf, body) == nil {
				entry.Body = buf.String()
			} else {
				entry.Body = string(body)
			}
		}

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		entry.Status = sw.status

		s.mu.Lock()
		s.log = append(s.log, entry)
		s.mu.Unlock()
	})
}

// injectFaults serves queued faults.
func (s *Server) injectFaults(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		k := r.Method + " " + r.URL.Path
		s.mu.Lock()
		queue := s.faults[k]
		var fault *Fault
		if len(queue) > 0 {
			f := queue[0]
			fault = &f
			s.faults[k] = queue[1:]
		}
		s.mu.Unlock()

		if fault == nil {
			next.ServeHTTP(w, r)
			return
		}
		if fault.AfterApply {
			next.ServeHTTP(newRecorder(), r)
		}
		writeError(w, fault.Status, "INJECTED", http.StatusText(fault.Status))
	})
}

// idempotent replays the stored response of a keyed request seen before.
// 5xx responses are not stored.
func (s *Server) idempotent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(headerKey)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}
		ck := r.Method + " " + r.URL.Path + " " + key

		s.mu.Lock()
		cached, ok := s.replay[ck]
		s.mu.Unlock()
		if ok {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Idempotent-Replayed", "true")
			w.WriteHeader(cached.status)
			w.Write(cached.body)
			return
		}

		rec := newRecorder()
		next.ServeHTTP(rec, r)
		if rec.status < 500 {
			s.mu.Lock()
			s.replay[ck] = cachedResponse{status: rec.status, body: append([]byte(nil), rec.body.Bytes()...)}
			s.mu.Unlock()
		}
		rec.flush(w)
	})
}
