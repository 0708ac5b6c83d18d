package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	utils "skland/utils"
	"strings"

	fhttp "github.com/bogdanfinn/fhttp"
	"github.com/buger/jsonparser"
)

type HttpDoer = utils.HttpDoer

// contextDoer binds every request to ctx, so an abandoned run stops doing I/O.
type contextDoer struct {
	ctx    context.Context
	client HttpDoer
}

func withContext(ctx context.Context, client HttpDoer) HttpDoer {
	return &contextDoer{ctx: ctx, client: client}
}

func (d *contextDoer) Do(req *fhttp.Request) (*fhttp.Response, error) {
	if err := d.ctx.Err(); err != nil {
		return nil, err
	}
	return d.client.Do(req.WithContext(d.ctx))
}

// doRequest sends one request and returns the raw body. Transport failures become NetworkError.
func doRequest(client HttpDoer, method, url string, body []byte, header fhttp.Header) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := fhttp.NewRequest(method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", method, err)
	}
	if header != nil {
		req.Header = header
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: fmt.Errorf("failed to read response body: %w", err)}
	}
	return bodyBytes, nil
}

func postJSON(client HttpDoer, url string, payload any, header fhttp.Header) ([]byte, error) {
	body, err := utils.MarshalCompact(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	if header == nil {
		header = fhttp.Header{}
	}
	header.Set("Content-Type", "application/json")
	return doRequest(client, "POST", url, body, header)
}

// Safe accessors over third-party JSON. A missing or mistyped field is a ProtocolError.

func jsonString(body []byte, keys ...string) (string, error) {
	value, err := jsonparser.GetString(body, keys...)
	if err != nil {
		return "", protocolError(body, keys, err)
	}
	return value, nil
}

func jsonInt(body []byte, keys ...string) (int64, error) {
	value, err := jsonparser.GetInt(body, keys...)
	if err != nil {
		return 0, protocolError(body, keys, err)
	}
	return value, nil
}

// jsonStringOr returns fallback when the field is absent or not a string.
func jsonStringOr(body []byte, fallback string, keys ...string) string {
	value, err := jsonparser.GetString(body, keys...)
	if err != nil {
		return fallback
	}
	return value
}

func protocolError(body []byte, keys []string, err error) *ProtocolError {
	field := strings.Join(keys, ".")
	pe := &ProtocolError{Field: field, Body: string(body)}

	switch {
	case len(bytes.TrimSpace(body)) > 0 && !isJSON(body):
		pe.Message = "non-JSON response: " + truncate(utils.StripHTML(string(body)), 200)
	case !errors.Is(err, jsonparser.KeyPathNotFoundError):
		pe.Message = err.Error()
	}
	return pe
}

func isJSON(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
