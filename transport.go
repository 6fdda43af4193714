package loggate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// do performs exactly one request/response exchange: marshal the body, issue
// the request, read the whole response (no streaming), then decode. Single
// attempt; redirects and socket timeouts are whatever the HTTP client's
// defaults provide.
func (c *Client) do(ctx context.Context, method, path string, body any, headers map[string]string, out any) error {
	url := c.endpoint + path

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return &SendError{msg: fmt.Sprintf("encode request body: %v", err), err: err}
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return &SendError{msg: fmt.Sprintf("build request: %v", err), err: err}
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &SendError{msg: fmt.Sprintf("request failed: %v", err), err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &SendError{StatusCode: resp.StatusCode, msg: fmt.Sprintf("read response body: %v", err), err: err}
	}
	c.log.Debug().Str("method", method).Str("url", url).Int("status", resp.StatusCode).Msg("gateway exchange")

	if !json.Valid(raw) {
		return &SendError{
			StatusCode: resp.StatusCode,
			Body:       string(raw),
			msg:        fmt.Sprintf("response was not valid JSON: %s", raw),
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := gatewayError(raw)
		if msg == "" {
			msg = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		return &SendError{StatusCode: resp.StatusCode, Body: string(raw), msg: msg}
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return &SendError{
				StatusCode: resp.StatusCode,
				Body:       string(raw),
				msg:        fmt.Sprintf("unexpected response shape: %s", raw),
				err:        err,
			}
		}
	}
	return nil
}

// gatewayError extracts the gateway's own error text from an error body, if
// it reported one.
func gatewayError(raw []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	return body.Error
}
