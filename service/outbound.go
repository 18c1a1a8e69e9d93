package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"luxwise/cv-back/metrics"
	"luxwise/cv-back/model"
)

const (
	truncatedSuffix  = "…(truncated)"
	redacted         = "***"
	defaultOperation = "external_call"
)

var sensitiveHeaders = map[string]bool{
	"Authorization": true,
	"Cookie":        true,
	"Set-Cookie":    true,
	"X-Token-Key":   true,
}

type operationKey struct{}

// WithOperation names the outbound calls made with ctx in the audit log
func WithOperation(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, operationKey{}, name)
}

func operationFrom(ctx context.Context) string {
	if v, ok := ctx.Value(operationKey{}).(string); ok && v != "" {
		return v
	}

	return defaultOperation
}

// AuditedTransport records every request it forwards as an OutboundLog row.
// Recording is best effort: a failed insert is logged and the response is
// handed back untouched.
type AuditedTransport struct {
	db        *gorm.DB
	base      http.RoundTripper
	bodyLimit int
	now       func() time.Time
}

func NewAuditedTransport(d *gorm.DB, base http.RoundTripper, bodyLimit int) *AuditedTransport {
	if base == nil {
		base = http.DefaultTransport
	}

	return &AuditedTransport{
		db:        d,
		base:      base,
		bodyLimit: bodyLimit,
		now:       time.Now,
	}
}

// NewAuditedClient returns a client sending through an AuditedTransport with
// the given overall timeout
func NewAuditedClient(t *AuditedTransport, timeout time.Duration) *http.Client {
	return &http.Client{Transport: t, Timeout: timeout}
}

func (t *AuditedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var reqBody []byte
	if req.Body != nil && req.Body != http.NoBody {
		b, err := io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, err
		}

		reqBody = b
		req = req.Clone(req.Context())
		req.Body = io.NopCloser(bytes.NewReader(b))
	}

	start := t.now()
	resp, err := t.base.RoundTrip(req)
	elapsed := t.now().Sub(start)

	entry := model.OutboundLog{
		Operation:      operationFrom(req.Context()),
		Method:         req.Method,
		URL:            req.URL.String(),
		RequestHeaders: t.headersJSON(req.Header),
		RequestBody:    t.truncate(reqBody),
		RequestTime:    start.UTC(),
		DurationMs:     elapsed.Milliseconds(),
	}

	if err != nil {
		entry.Level = "ERROR"
		entry.Message = err.Error()
		t.record(req.Context(), &entry, start)
		return nil, err
	}

	respBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(respBody))

	entry.Status = resp.StatusCode
	entry.ResponseHeaders = t.headersJSON(resp.Header)
	entry.ResponseBody = t.truncate(respBody)
	entry.Level = "INFO"
	entry.Message = "Outbound call completed"

	if resp.StatusCode >= 400 {
		entry.Level = "ERROR"
		entry.Message = "Outbound call failed with status " + resp.Status
	}

	if readErr != nil {
		entry.Level = "ERROR"
		entry.Message = "Failed to read response body: " + readErr.Error()
	}

	t.record(req.Context(), &entry, start)

	if readErr != nil {
		return nil, readErr
	}

	return resp, nil
}

func (t *AuditedTransport) record(ctx context.Context, entry *model.OutboundLog, start time.Time) {
	metrics.OutboundCall(entry.Operation, entry.Level == "INFO", start)

	if t.db == nil {
		return
	}

	// A new session so the row never joins a transaction of the caller, and
	// the write still happens if the request context was already cancelled
	err := t.db.
		Session(&gorm.Session{NewDB: true}).
		WithContext(context.WithoutCancel(ctx)).
		Create(entry).
		Error
	if err != nil {
		zap.L().Warn("Failed to store outbound log",
			zap.Error(err),
			zap.String("operation", entry.Operation),
			zap.String("url", entry.URL),
		)
	}
}

func (t *AuditedTransport) headersJSON(h http.Header) string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		k = http.CanonicalHeaderKey(k)
		if sensitiveHeaders[k] {
			out[k] = redacted
			continue
		}

		out[k] = strings.Join(v, ", ")
	}

	b, err := json.Marshal(out)
	if err != nil {
		return "{}"
	}

	return string(b)
}

// truncate returns nil for empty bodies and cuts the rest at bodyLimit bytes
// without splitting a UTF-8 sequence
func (t *AuditedTransport) truncate(b []byte) *string {
	if len(b) == 0 {
		return nil
	}

	if t.bodyLimit <= 0 || len(b) <= t.bodyLimit {
		s := string(b)
		return &s
	}

	cut := t.bodyLimit
	for cut > 0 && !utf8.RuneStart(b[cut]) {
		cut--
	}

	s := string(b[:cut]) + truncatedSuffix
	return &s
}
