package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Lap-DevOps/Organizational-Chart/pkg/logger"
	"github.com/go-chi/chi/middleware"
)

// maxLoggedBody caps how much of a request or response body is captured for logging.
const maxLoggedBody = 8 << 10

type redaction int

const (
	// filtered values are replaced outright.
	filtered redaction = iota + 1
	// pseudonymised values are replaced by a short stable digest.
	pseudonymised
)

// bodyRedactions maps JSON keys of the user and auth payloads to how they are logged.
// Keys match case-insensitively at any depth.
var bodyRedactions = map[string]redaction{
	"password":      filtered,
	"password_hash": filtered,
	"access_token":  filtered,
	"refresh_token": filtered,
	"email":         pseudonymised,
	"public_id":     pseudonymised,
}

var headerRedactions = map[string]redaction{
	"Authorization": filtered,
	"Cookie":        filtered,
}

const filteredValue = "[FILTERED]"

// LoggingMiddleware logs each request and its response with credentials removed
// and user identifiers pseudonymised. The context logger set by RequestID is
// preferred over fallback.
func LoggingMiddleware(fallback *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			lg := fallback
			if scoped, ok := logger.FromContext(r.Context()); ok {
				lg = scoped
			}
			reqID := middleware.GetReqID(r.Context())

			lg.InfoContext(r.Context(), "incoming request",
				"request_id", reqID,
				"method", r.Method,
				"path", r.URL.Path,
				"query", r.URL.RawQuery,
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
				"headers", redactHeaders(r.Header),
				"body", redactBody(readRequestBody(r)),
			)

			captured := &cappedBuffer{limit: maxLoggedBody}
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Tee(captured)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			lg.Log(r.Context(), levelForStatus(status), "response",
				"request_id", reqID,
				"status_code", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"response_size", ww.BytesWritten(),
				"body", redactBody(captured.Bytes(), captured.truncated),
			)
		})
	}
}

func levelForStatus(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// readRequestBody returns at most maxLoggedBody bytes and puts the full body back on r.
func readRequestBody(r *http.Request) ([]byte, bool) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, false
	}
	raw, err := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil {
		return nil, false
	}
	if len(raw) > maxLoggedBody {
		return raw[:maxLoggedBody], true
	}
	return raw, false
}

// cappedBuffer keeps the first limit bytes written to it and discards the rest.
type cappedBuffer struct {
	bytes.Buffer
	limit     int
	truncated bool
}

func (c *cappedBuffer) Write(p []byte) (int, error) {
	if room := c.limit - c.Len(); room < len(p) {
		c.truncated = true
		if room > 0 {
			c.Buffer.Write(p[:room])
		}
		return len(p), nil
	}
	return c.Buffer.Write(p)
}

func redactHeaders(headers http.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for name, values := range headers {
		if headerRedactions[http.CanonicalHeaderKey(name)] == filtered {
			out[name] = filteredValue
			continue
		}
		out[name] = strings.Join(values, ", ")
	}
	return out
}

// redactBody renders a JSON body with redactions applied. Bodies that are not JSON,
// or were cut short, are summarised by size only.
func redactBody(body []byte, truncated bool) string {
	if len(body) == 0 {
		return ""
	}
	var doc interface{}
	if truncated || json.Unmarshal(body, &doc) != nil {
		if truncated {
			return "[omitted: more than " + strconv.Itoa(len(body)) + " bytes]"
		}
		return "[omitted: " + strconv.Itoa(len(body)) + " bytes, not JSON]"
	}
	out, err := json.Marshal(redactValue(doc))
	if err != nil {
		return "[omitted]"
	}
	return string(out)
}

func redactValue(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, inner := range v {
			switch bodyRedactions[strings.ToLower(key)] {
			case filtered:
				out[key] = filteredValue
			case pseudonymised:
				out[key] = pseudonym(inner)
			default:
				out[key] = redactValue(inner)
			}
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, inner := range v {
			out[i] = redactValue(inner)
		}
		return out
	default:
		return v
	}
}

// pseudonym digests a string identifier after trimming and lower-casing it.
func pseudonym(value interface{}) interface{} {
	s, ok := value.(string)
	if !ok || s == "" {
		return value
	}
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(s))))
	return "sha256:" + hex.EncodeToString(sum[:6])
}
