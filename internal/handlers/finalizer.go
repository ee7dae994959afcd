package handlers

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"copilot-runtime-function/internal/adapters/bridge"
	"copilot-runtime-function/pkg/lambda"
)

// DefaultContentType is used when the runtime does not set one
const DefaultContentType = "application/json"

// Finalize converts a captured bridged response into the host response.
// Captured headers are flattened; Set-Cookie keeps its separate values.
// Overlay headers replace captured headers with the same name, compared
// case-insensitively.
func Finalize(captured *bridge.Captured, overlay map[string]string) *lambda.Response {
	resp := &lambda.Response{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{"Content-Type": DefaultContentType},
	}
	if captured == nil {
		applyOverlay(resp, overlay)
		return resp
	}

	if captured.StatusCode != 0 {
		resp.StatusCode = captured.StatusCode
	}

	for name, values := range captured.Header {
		if len(values) == 0 {
			continue
		}
		if strings.EqualFold(name, "Set-Cookie") {
			if resp.MultiValueHeaders == nil {
				resp.MultiValueHeaders = make(map[string][]string)
			}
			resp.MultiValueHeaders["Set-Cookie"] = append([]string(nil), values...)
			continue
		}
		setFolded(resp.Headers, name, strings.Join(values, ", "))
	}

	applyOverlay(resp, overlay)

	resp.Body = captured.Body
	if len(resp.Body) > 0 && !utf8.Valid(resp.Body) {
		resp.Base64Encoded = true
	}
	return resp
}

func applyOverlay(resp *lambda.Response, overlay map[string]string) {
	for name, value := range overlay {
		setFolded(resp.Headers, name, value)
	}
}

// setFolded stores name=value, dropping any existing key that differs only
// in case, so X-XSS-Protection and X-Xss-Protection never coexist.
func setFolded(headers map[string]string, name, value string) {
	for existing := range headers {
		if existing != name && strings.EqualFold(existing, name) {
			delete(headers, existing)
		}
	}
	headers[name] = value
}
