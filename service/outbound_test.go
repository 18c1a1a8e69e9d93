package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luxwise/cv-back/model"
)

func echoServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "secret-session"})
		w.Header().Set("X-Upstream", "yes")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return srv
}

func TestAuditedTransportRecordsRedactedCall(t *testing.T) {
	d := newTestDB(t)
	srv := echoServer(t, http.StatusCreated, `{"ok":true}`)

	client := NewAuditedClient(NewAuditedTransport(d, nil, 8000), 0)

	ctx := WithOperation(context.Background(), "test.op")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, srv.URL+"/path?q=1", strings.NewReader(`{"hello":"world"}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer abc")
	req.Header.Set("x-token-key", "api-key")
	req.Header.Set("Cookie", "a=b")

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(body), "the caller still sees the full body")

	var entry model.OutboundLog
	require.NoError(t, d.Take(&entry).Error)

	assert.Equal(t, "test.op", entry.Operation)
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, http.MethodPost, entry.Method)
	assert.Equal(t, srv.URL+"/path?q=1", entry.URL)
	assert.Equal(t, http.StatusCreated, entry.Status)
	require.NotNil(t, entry.RequestBody)
	assert.Equal(t, `{"hello":"world"}`, *entry.RequestBody)
	require.NotNil(t, entry.ResponseBody)
	assert.Equal(t, `{"ok":true}`, *entry.ResponseBody)
	assert.False(t, entry.RequestTime.IsZero())

	var reqHeaders, respHeaders map[string]string
	require.NoError(t, json.Unmarshal([]byte(entry.RequestHeaders), &reqHeaders))
	require.NoError(t, json.Unmarshal([]byte(entry.ResponseHeaders), &respHeaders))

	assert.Equal(t, "***", reqHeaders["Authorization"])
	assert.Equal(t, "***", reqHeaders["X-Token-Key"])
	assert.Equal(t, "***", reqHeaders["Cookie"])
	assert.Equal(t, "***", respHeaders["Set-Cookie"])
	assert.Equal(t, "yes", respHeaders["X-Upstream"])
	assert.NotContains(t, entry.ResponseHeaders, "secret-session")
}

func TestAuditedTransportTruncatesBodies(t *testing.T) {
	d := newTestDB(t)
	srv := echoServer(t, http.StatusOK, strings.Repeat("r", 50))

	client := NewAuditedClient(NewAuditedTransport(d, nil, 10), 0)

	resp, err := client.Post(srv.URL, "text/plain", strings.NewReader(strings.Repeat("q", 10)))
	require.NoError(t, err)
	full, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Len(t, full, 50)

	var entry model.OutboundLog
	require.NoError(t, d.Take(&entry).Error)

	assert.Equal(t, strings.Repeat("q", 10), *entry.RequestBody, "bodies at the limit are kept whole")
	assert.Equal(t, strings.Repeat("r", 10)+"…(truncated)", *entry.ResponseBody)
	assert.Equal(t, defaultOperation, entry.Operation)
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	tr := &AuditedTransport{bodyLimit: 4}

	// "é" is two bytes, cutting at 4 would split the second one
	got := tr.truncate([]byte("aéé"))
	require.NotNil(t, got)
	assert.Equal(t, "aé…(truncated)", *got)

	assert.Nil(t, tr.truncate(nil))
}

func TestAuditedTransportMarksErrorStatus(t *testing.T) {
	d := newTestDB(t)
	srv := echoServer(t, http.StatusInternalServerError, "boom")

	resp, err := NewAuditedClient(NewAuditedTransport(d, nil, 8000), 0).Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	var entry model.OutboundLog
	require.NoError(t, d.Take(&entry).Error)
	assert.Equal(t, "ERROR", entry.Level)
	assert.Nil(t, entry.RequestBody)
}

type failingTransport struct{}

func (failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("connection refused")
}

func TestAuditedTransportRecordsTransportErrors(t *testing.T) {
	d := newTestDB(t)

	_, err := NewAuditedClient(NewAuditedTransport(d, failingTransport{}, 8000), 0).Get("http://identity.invalid/x")
	require.Error(t, err)

	var entry model.OutboundLog
	require.NoError(t, d.Take(&entry).Error)
	assert.Equal(t, "ERROR", entry.Level)
	assert.Contains(t, entry.Message, "connection refused")
	assert.Zero(t, entry.Status)
}

func TestAuditedTransportSwallowsLogFailures(t *testing.T) {
	d := newTestDB(t)
	require.NoError(t, d.Migrator().DropTable(&model.OutboundLog{}))

	srv := echoServer(t, http.StatusOK, "fine")

	resp, err := NewAuditedClient(NewAuditedTransport(d, nil, 8000), 0).Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "fine", string(body))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
