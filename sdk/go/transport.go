package julsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
)

// ResponseKind declares how a successful response body is interpreted.
type ResponseKind int

const (
	// ResponseAuto decodes JSON when the response declares a JSON media
	// type and returns the raw text otherwise.
	ResponseAuto ResponseKind = iota
	// ResponseJSON always decodes the body; a decode failure is returned
	// as is.
	ResponseJSON
	// ResponseText returns the body as a string.
	ResponseText
)

// Request describes one API call relative to the client's base URL.
type Request struct {
	Method string
	Path   string
	// Body is JSON-encoded when non-nil.
	Body any
	// Header entries replace the defaults, Content-Type included.
	Header http.Header
	Expect ResponseKind
}

// Do performs a single request. On a 2xx response it returns a string
// (text mode, or auto mode with a non-JSON content type) or the decoded
// JSON value (map[string]any, []any, ...). An empty body yields "" in text
// mode and an empty map otherwise.
//
// A non-2xx response returns *APIError. Network failures and JSON decode
// failures of a 2xx body are returned unwrapped. Nothing is retried.
func (c *Client) Do(ctx context.Context, r Request) (any, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	baseURL, token, err := c.credentials()
	if err != nil {
		return nil, err
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var body io.Reader
	if r.Body != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(r.Body); err != nil {
			return nil, err
		}
		body = &buf
	}
	req, err := http.NewRequestWithContext(ctx, method, baseURL+r.Path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for key, values := range r.Header {
		req.Header.Del(key)
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	c.logger.Debug("jul api request", "method", method, "path", r.Path, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, readAPIError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return decodeBody(data, resp.Header.Get("Content-Type"), r.Expect)
}

func decodeBody(data []byte, contentType string, expect ResponseKind) (any, error) {
	if len(data) == 0 {
		if expect == ResponseText {
			return "", nil
		}
		return map[string]any{}, nil
	}
	switch expect {
	case ResponseText:
		return string(data), nil
	case ResponseJSON:
		return decodeJSON(data)
	default:
		if isJSONMediaType(contentType) {
			return decodeJSON(data)
		}
		return string(data), nil
	}
}

func decodeJSON(data []byte) (any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func isJSONMediaType(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// readAPIError builds an *APIError from a non-2xx response, falling back to
// a synthesized payload when the body is not a JSON object.
func readAPIError(resp *http.Response) error {
	data, _ := io.ReadAll(resp.Body)
	var decoded any
	if err := json.Unmarshal(data, &decoded); err == nil {
		if obj, ok := decoded.(map[string]any); ok {
			r := asRecord(obj)
			body := ErrorBody{
				Error:   r.str("error"),
				Message: r.str("message"),
			}
			if details := r.sub("details"); details != nil {
				body.Details = details
			}
			if v, ok := r.lookup("violations"); ok {
				body.Violations = MapArray(v, mapPolicyViolation)
			}
			return &APIError{StatusCode: resp.StatusCode, Body: body}
		}
	}
	return &APIError{
		StatusCode: resp.StatusCode,
		Body: ErrorBody{
			Error:   "unknown",
			Message: statusText(resp),
		},
	}
}

// statusText returns the reason phrase of the response, e.g. "Not Found".
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}
