package transport

import (
	"fmt"
	"io"
	"net/http"
)

// APIError is the single failure type for provider API calls. The full
// response body is kept verbatim so the operator sees the provider's own
// error detail instead of just a status code.
type APIError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// CheckResponse returns an APIError for any non-2xx response, draining the
// body into the diagnostic. Callers own resp.Body on a nil return.
func CheckResponse(endpoint string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	return &APIError{
		Endpoint:   endpoint,
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}
}

// ShapeError reports a response that parsed but did not match the expected
// schema. Treated exactly like a transport failure: a malformed response
// means the API contract changed and recovery cannot paper over it.
func ShapeError(endpoint string, body []byte, detail string) error {
	return &APIError{
		Endpoint:   endpoint,
		StatusCode: http.StatusOK,
		Body:       fmt.Sprintf("%s: %s", detail, body),
	}
}
