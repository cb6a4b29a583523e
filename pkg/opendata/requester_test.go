package opendata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/samvad-hq/openoverheid/pkg/httpclient"
)

type mockResponse struct {
	body       []byte
	statusCode int
}

func (r mockResponse) Body() []byte    { return r.body }
func (r mockResponse) StatusCode() int { return r.statusCode }

type mockHTTPClient struct {
	status  int
	body    string
	err     error
	gotURL  string
	headers map[string]string
	closed  int
}

func (m *mockHTTPClient) Get(_ context.Context, url string, headers map[string]string) (httpclient.Response, error) {
	m.gotURL = url
	m.headers = headers
	if m.err != nil {
		return nil, m.err
	}
	status := m.status
	if status == 0 {
		status = http.StatusOK
	}
	return mockResponse{body: []byte(m.body), statusCode: status}, nil
}

func (m *mockHTTPClient) Close() error {
	m.closed++
	return nil
}

func TestRequestReturnsJSON(t *testing.T) {
	client := &mockHTTPClient{body: `[{"kenteken":"AB12CD"}]`}
	r := NewWithClient(client)

	doc, err := r.Request(context.Background(), "https://example.com/data.json")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if string(doc) != `[{"kenteken":"AB12CD"}]` {
		t.Fatalf("unexpected body %s", doc)
	}
	if client.gotURL != "https://example.com/data.json" {
		t.Fatalf("url = %q", client.gotURL)
	}
	if client.headers["Accept"] != "application/json" {
		t.Fatalf("missing Accept header: %#v", client.headers)
	}
}

func TestRequestNonSuccessStatus(t *testing.T) {
	client := &mockHTTPClient{status: http.StatusServiceUnavailable, body: "down"}
	r := NewWithClient(client)

	_, err := r.Request(context.Background(), "https://example.com")
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusServiceUnavailable || httpErr.Body != "down" {
		t.Fatalf("unexpected error fields %#v", httpErr)
	}
	if code, ok := StatusCode(err); !ok || code != http.StatusServiceUnavailable {
		t.Fatalf("StatusCode = %d, %v", code, ok)
	}
}

func TestRequestInvalidJSON(t *testing.T) {
	for _, body := range []string{"", "not json", `[{"a":1}`} {
		r := NewWithClient(&mockHTTPClient{body: body})
		_, err := r.Request(context.Background(), "https://example.com")
		var parseErr *JSONParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("body %q: expected JSONParseError, got %v", body, err)
		}
	}
}

func TestRequestTransportError(t *testing.T) {
	boom := errors.New("dial failed")
	r := NewWithClient(&mockHTTPClient{err: boom})
	if _, err := r.Request(context.Background(), "https://example.com"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped transport error, got %v", err)
	}
}

func TestRequestAsyncMatchesSync(t *testing.T) {
	client := &mockHTTPClient{status: http.StatusNotFound}
	r := NewWithClient(client)

	_, syncErr := r.Request(context.Background(), "https://example.com")
	_, asyncErr := r.RequestAsync(context.Background(), "https://example.com").Await(context.Background())
	if syncErr == nil || asyncErr == nil || syncErr.Error() != asyncErr.Error() {
		t.Fatalf("sync=%v async=%v", syncErr, asyncErr)
	}
}

func TestCloseBorrowedClientNotReleased(t *testing.T) {
	client := &mockHTTPClient{body: "[]"}
	r := NewWithClient(client)
	if r.Owned() {
		t.Fatalf("borrowed requester reports ownership")
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if client.closed != 0 {
		t.Fatalf("borrowed client was closed %d times", client.closed)
	}
	if _, err := r.Request(context.Background(), "https://example.com"); err != nil {
		t.Fatalf("borrowed requester must keep working after Close: %v", err)
	}
}

func TestCloseOwnedClientReleasedOnce(t *testing.T) {
	client := &mockHTTPClient{body: "[]"}
	r := &Requester{client: client, owned: true, log: noopLogger{}}

	for i := 0; i < 3; i++ {
		if err := r.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}
	if client.closed != 1 {
		t.Fatalf("expected exactly one release, got %d", client.closed)
	}
	if _, err := r.Request(context.Background(), "https://example.com"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestOwnedRequesterAgainstServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	r := New()
	defer r.Close()
	if !r.Owned() {
		t.Fatalf("New must own its client")
	}
	doc, err := r.Request(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if string(doc) != "[]" {
		t.Fatalf("body = %s", doc)
	}
}
