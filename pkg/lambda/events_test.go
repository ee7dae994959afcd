package lambda

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromAPIGateway(t *testing.T) {
	event := events.APIGatewayProxyRequest{
		HTTPMethod: "post",
		Path:       "/copilotkit",
		Headers:    map[string]string{"Content-Type": "application/json"},
		MultiValueHeaders: map[string][]string{
			"Accept":       {"text/html", "application/json"},
			"Content-Type": {"ignored"},
		},
		QueryStringParameters: map[string]string{"a": "1"},
		MultiValueQueryStringParameters: map[string][]string{
			"b": {"x", "y"},
		},
		Body: `{"operationName":"generateCopilotResponse"}`,
		RequestContext: events.APIGatewayProxyRequestContext{
			RequestID: "req-123",
			Identity:  events.APIGatewayRequestIdentity{SourceIP: "203.0.113.7"},
		},
	}

	req, err := FromAPIGateway(event)
	require.NoError(t, err)

	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, "application/json", req.Header("content-type"), "single-value header wins")
	assert.Equal(t, "text/html, application/json", req.Header("Accept"))
	assert.Equal(t, "1", req.QueryParams["a"])
	assert.Equal(t, "y", req.QueryParams["b"])
	assert.Equal(t, "req-123", req.RequestID)
	assert.Equal(t, "203.0.113.7", req.SourceIP)
	assert.Equal(t, "/copilotkit?a=1&b=y", req.URL())
}

func TestFromAPIGatewayBase64(t *testing.T) {
	payload := []byte{0x00, 0xff, 0x10}
	event := events.APIGatewayProxyRequest{
		HTTPMethod:      "POST",
		Path:            "/copilotkit",
		Body:            base64.StdEncoding.EncodeToString(payload),
		IsBase64Encoded: true,
	}

	req, err := FromAPIGateway(event)
	require.NoError(t, err)
	assert.Equal(t, payload, req.Body)

	event.Body = "%%%not-base64"
	_, err = FromAPIGateway(event)
	assert.Error(t, err)
}

func TestDeclaredContentLength(t *testing.T) {
	tests := []struct {
		value  string
		want   int64
		wantOK bool
	}{
		{"", 0, false},
		{"42", 42, true},
		{" 7 ", 7, true},
		{"-1", 0, false},
		{"abc", 0, false},
	}

	for _, tt := range tests {
		req := &Request{Headers: map[string]string{"content-length": tt.value}}
		got, ok := req.DeclaredContentLength()
		assert.Equal(t, tt.want, got, "value %q", tt.value)
		assert.Equal(t, tt.wantOK, ok, "value %q", tt.value)
	}
}

func TestToAPIGateway(t *testing.T) {
	resp := &Response{
		StatusCode:        http.StatusCreated,
		Headers:           map[string]string{"Content-Type": "text/plain"},
		MultiValueHeaders: map[string][]string{"Set-Cookie": {"a=1", "b=2"}},
		Body:              []byte("ok"),
	}

	out := resp.ToAPIGateway()
	assert.Equal(t, http.StatusCreated, out.StatusCode)
	assert.Equal(t, "ok", out.Body)
	assert.False(t, out.IsBase64Encoded)
	assert.Len(t, out.MultiValueHeaders["Set-Cookie"], 2)

	binary := &Response{StatusCode: http.StatusOK, Body: []byte{0xff, 0xfe}, Base64Encoded: true}
	out = binary.ToAPIGateway()
	assert.True(t, out.IsBase64Encoded)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte{0xff, 0xfe}), out.Body)
}

func TestProxy(t *testing.T) {
	var seen *Request
	handler := Proxy(func(ctx context.Context, req *Request) *Response {
		seen = req
		return &Response{StatusCode: http.StatusAccepted, Body: []byte("accepted")}
	})

	out, err := handler(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: "GET", Path: "/healthcheck"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, out.StatusCode)
	assert.Equal(t, "accepted", out.Body)
	require.NotNil(t, seen)
	assert.Equal(t, "/healthcheck", seen.Path)

	out, err = handler(context.Background(), events.APIGatewayProxyRequest{Body: "%%%", IsBase64Encoded: true})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, out.StatusCode)

	nilHandler := Proxy(func(ctx context.Context, req *Request) *Response { return nil })
	out, err = nilHandler(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: "GET"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, out.StatusCode)
}

func TestFromHTTPRequestLimitsBody(t *testing.T) {
	r := httptest.NewRequest("POST", "/copilotkit?x=1", strings.NewReader(strings.Repeat("a", 100)))
	r.Header.Set("X-Request-ID", "local-1")

	req, err := FromHTTPRequest(r, 10)
	require.NoError(t, err)

	assert.Len(t, req.Body, 11, "body is truncated to limit+1")
	assert.Equal(t, "local-1", req.RequestID)
	assert.Equal(t, "1", req.QueryParams["x"])
	assert.Equal(t, "192.0.2.1", req.SourceIP)
}

func TestWriteTo(t *testing.T) {
	resp := &Response{
		StatusCode:        http.StatusTeapot,
		Headers:           map[string]string{"X-A": "1"},
		MultiValueHeaders: map[string][]string{"Set-Cookie": {"a=1", "b=2"}},
		Body:              []byte("short and stout"),
	}

	w := httptest.NewRecorder()
	require.NoError(t, resp.WriteTo(w))

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-A"))
	assert.Len(t, w.Header().Values("Set-Cookie"), 2)
	assert.Equal(t, "short and stout", w.Body.String())
}
