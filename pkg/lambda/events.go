package lambda

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// FromAPIGateway converts an API Gateway proxy event into a generic request.
// Base64-encoded bodies are decoded; multi-value headers and query parameters
// are folded into their single-value maps when the single-value form is absent.
func FromAPIGateway(event events.APIGatewayProxyRequest) (*Request, error) {
	body := []byte(event.Body)
	if event.IsBase64Encoded && event.Body != "" {
		decoded, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			return nil, fmt.Errorf("decode base64 body: %w", err)
		}
		body = decoded
	}

	headers := make(map[string]string, len(event.Headers)+len(event.MultiValueHeaders))
	for k, values := range event.MultiValueHeaders {
		if len(values) > 0 {
			headers[k] = strings.Join(values, ", ")
		}
	}
	for k, v := range event.Headers {
		headers[k] = v
	}

	query := make(map[string]string, len(event.QueryStringParameters))
	for k, values := range event.MultiValueQueryStringParameters {
		if len(values) > 0 {
			query[k] = values[len(values)-1]
		}
	}
	for k, v := range event.QueryStringParameters {
		query[k] = v
	}

	return &Request{
		Method:      strings.ToUpper(event.HTTPMethod),
		Path:        event.Path,
		Headers:     headers,
		QueryParams: query,
		Body:        body,
		PathParams:  event.PathParameters,
		RequestID:   event.RequestContext.RequestID,
		SourceIP:    event.RequestContext.Identity.SourceIP,
	}, nil
}

// ToAPIGateway converts a generic response into an API Gateway proxy response
func (r *Response) ToAPIGateway() events.APIGatewayProxyResponse {
	resp := events.APIGatewayProxyResponse{
		StatusCode: r.StatusCode,
		Headers:    r.Headers,
		Body:       string(r.Body),
	}
	if r.Base64Encoded {
		resp.Body = base64.StdEncoding.EncodeToString(r.Body)
		resp.IsBase64Encoded = true
	}
	if len(r.MultiValueHeaders) > 0 {
		resp.MultiValueHeaders = r.MultiValueHeaders
	}
	return resp
}

// APIGatewayHandler is the signature lambda.Start expects for proxy events
type APIGatewayHandler func(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// Proxy adapts a HandlerFunc to API Gateway proxy events. Events that cannot
// be decoded are answered with 400; the returned error is always nil so the
// host never sees an invocation failure.
func Proxy(fn HandlerFunc) APIGatewayHandler {
	return func(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		req, err := FromAPIGateway(event)
		if err != nil {
			return events.APIGatewayProxyResponse{
				StatusCode: http.StatusBadRequest,
				Headers:    map[string]string{"Content-Type": "application/json"},
				Body:       `{"error": "Malformed request body"}`,
			}, nil
		}

		resp := fn(ctx, req)
		if resp == nil {
			return events.APIGatewayProxyResponse{
				StatusCode: http.StatusInternalServerError,
				Headers:    map[string]string{"Content-Type": "application/json"},
				Body:       `{"error": "Internal server error"}`,
			}, nil
		}
		return resp.ToAPIGateway(), nil
	}
}

// FromHTTPRequest converts a net/http request into a generic request. At most
// maxBody+1 bytes are read so that oversized payloads remain detectable
// without buffering them whole.
func FromHTTPRequest(r *http.Request, maxBody int64) (*Request, error) {
	var body []byte
	if r.Body != nil {
		reader := io.Reader(r.Body)
		if maxBody > 0 {
			reader = io.LimitReader(r.Body, maxBody+1)
		}
		b, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
		body = b
	}

	headers := make(map[string]string, len(r.Header)+1)
	for k, values := range r.Header {
		headers[k] = strings.Join(values, ", ")
	}
	if r.ContentLength > 0 && r.Header.Get("Content-Length") == "" {
		headers["Content-Length"] = fmt.Sprintf("%d", r.ContentLength)
	}

	query := make(map[string]string)
	for k, values := range r.URL.Query() {
		if len(values) > 0 {
			query[k] = values[len(values)-1]
		}
	}

	sourceIP := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		sourceIP = host
	}

	return &Request{
		Method:      r.Method,
		Path:        r.URL.Path,
		Headers:     headers,
		QueryParams: query,
		Body:        body,
		RequestID:   r.Header.Get("X-Request-ID"),
		SourceIP:    sourceIP,
	}, nil
}

// WriteTo writes the response onto a net/http response writer
func (r *Response) WriteTo(w http.ResponseWriter) error {
	h := w.Header()
	for k, v := range r.Headers {
		h.Set(k, v)
	}
	for k, values := range r.MultiValueHeaders {
		h.Del(k)
		for _, v := range values {
			h.Add(k, v)
		}
	}

	status := r.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	if len(r.Body) == 0 {
		return nil
	}
	_, err := w.Write(r.Body)
	return err
}

// encodeQuery relies on url.Values.Encode sorting by key
func encodeQuery(params map[string]string) string {
	values := make(url.Values, len(params))
	for k, v := range params {
		values.Set(k, v)
	}
	return values.Encode()
}
