package middleware

const (
	// AllowedMethods is the method allow-list advertised to browsers
	AllowedMethods = "GET, POST, OPTIONS"
	// AllowedHeaders lists request headers clients may send cross-origin
	AllowedHeaders = "Content-Type, Authorization, x-copilotkit-*"
	// PreflightMaxAge is how long browsers may cache a preflight answer (seconds)
	PreflightMaxAge = "86400"
)

// CORSHeaders returns the cross-origin header set for the given origin value
func CORSHeaders(origin string) map[string]string {
	if origin == "" {
		origin = "*"
	}
	return map[string]string{
		"Access-Control-Allow-Origin":  origin,
		"Access-Control-Allow-Methods": AllowedMethods,
		"Access-Control-Allow-Headers": AllowedHeaders,
	}
}

// PreflightHeaders returns the headers of a CORS preflight answer
func PreflightHeaders(origin string) map[string]string {
	h := CORSHeaders(origin)
	h["Access-Control-Max-Age"] = PreflightMaxAge
	h["Vary"] = "Origin"
	return h
}

// SecurityHeaders returns the fixed browser hardening headers
func SecurityHeaders() map[string]string {
	return map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"X-XSS-Protection":       "1; mode=block",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}
}

// ErrorPathHeaders is the subset of security headers guaranteed on error responses
func ErrorPathHeaders() map[string]string {
	return map[string]string{
		"Content-Type":           "application/json",
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
	}
}

// ResponseOverlay returns every header applied on top of a bridged response:
// CORS, security headers and Vary: Origin.
func ResponseOverlay(origin string) map[string]string {
	overlay := CORSHeaders(origin)
	for k, v := range SecurityHeaders() {
		overlay[k] = v
	}
	overlay["Vary"] = "Origin"
	return overlay
}
