package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sushihentaime/inkwell/internal/blobstore"
	"github.com/sushihentaime/inkwell/internal/common"
)

type testServer struct {
	*httptest.Server
}

func newTestServer(t *testing.T, h http.Handler) *testServer {
	ts := httptest.NewServer(h)

	t.Cleanup(ts.Close)

	return &testServer{ts}
}

// capturingProducer records published notifications in place of the broker.
type capturingProducer struct {
	mu    sync.Mutex
	notes []common.Notification
}

func (p *capturingProducer) Publish(ctx context.Context, msg []byte, key common.BindingKey, exchange common.Exchange) error {
	var n common.Notification
	if err := json.Unmarshal(msg, &n); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.notes = append(p.notes, n)

	return nil
}

// last returns the most recent notification sent with template.
func (p *capturingProducer) last(t *testing.T, template string) common.Notification {
	t.Helper()

	p.mu.Lock()
	defer p.mu.Unlock()

	for i := len(p.notes) - 1; i >= 0; i-- {
		if p.notes[i].Template == template {
			return p.notes[i]
		}
	}

	t.Fatalf("no %s notification was sent", template)
	return common.Notification{}
}

func readResponse(t *testing.T, res *http.Response) (int, http.Header, envelope) {
	defer res.Body.Close()

	responseBody, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}

	var envelope envelope
	err = json.Unmarshal(responseBody, &envelope)
	if err != nil {
		t.Fatal(err)
	}

	return res.StatusCode, res.Header, envelope
}

func newTestApplication(t *testing.T) (*application, *sql.DB, *capturingProducer) {
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}

	db := common.TestDB("file://../../migrations", t)
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := loadConfig("../../.test.env")
	require.NoError(t, err)

	blobs, err := blobstore.NewFileStore(t.TempDir(), cfg.BlobBaseURL)
	require.NoError(t, err)

	producer := &capturingProducer{}
	app := newApplication(cfg, logger, db, producer, blobs)
	t.Cleanup(app.limiter.Stop)

	return app, db, producer
}

func (ts *testServer) do(t *testing.T, method, path string, body io.Reader, contentType string, token *string) (int, http.Header, envelope) {
	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatal(err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != nil {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", *token))
	}

	res, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}

	return readResponse(t, res)
}

func (ts *testServer) send(t *testing.T, method, path string, data any, token *string) (int, http.Header, envelope) {
	if data == nil {
		return ts.do(t, method, path, nil, "", token)
	}

	jsonPayload, err := json.Marshal(data)
	if err != nil {
		t.Fatal(err)
	}

	return ts.do(t, method, path, bytes.NewReader(jsonPayload), "application/json", token)
}

func (ts *testServer) post(t *testing.T, path string, data any, token *string) (int, http.Header, envelope) {
	return ts.send(t, http.MethodPost, path, data, token)
}

func (ts *testServer) get(t *testing.T, path string, token *string) (int, http.Header, envelope) {
	return ts.send(t, http.MethodGet, path, nil, token)
}

func (ts *testServer) patch(t *testing.T, path string, data any, token *string) (int, http.Header, envelope) {
	return ts.send(t, http.MethodPatch, path, data, token)
}

func (ts *testServer) delete(t *testing.T, path string, token *string) (int, http.Header, envelope) {
	return ts.send(t, http.MethodDelete, path, nil, token)
}

// upload is a file part of a multipart request.
type upload struct {
	field, name, body string
}

func (ts *testServer) postForm(t *testing.T, method, path string, fields map[string]string, file *upload, token *string) (int, http.Header, envelope) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for key, value := range fields {
		if err := mw.WriteField(key, value); err != nil {
			t.Fatal(err)
		}
	}

	if file != nil {
		fw, err := mw.CreateFormFile(file.field, file.name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := io.WriteString(fw, file.body); err != nil {
			t.Fatal(err)
		}
	}

	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	return ts.do(t, method, path, &buf, mw.FormDataContentType(), token)
}

// data returns the payload of a success envelope.
func data(t *testing.T, env envelope) map[string]any {
	t.Helper()

	d, ok := env["data"].(map[string]any)
	if !ok {
		t.Fatalf("response has no data object: %v", env)
	}
	return d
}
