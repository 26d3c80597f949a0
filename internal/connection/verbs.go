package connection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/PHJ369906/aox-miniapp/internal/core/domain"
)

// Get issues a GET; payload becomes the query string.
func Get[T any](ctx context.Context, e *Engine, path string, payload any) (T, error) {
	return call[T](ctx, e, http.MethodGet, path, payload)
}

// Post issues a POST with payload as the JSON body.
func Post[T any](ctx context.Context, e *Engine, path string, payload any) (T, error) {
	return call[T](ctx, e, http.MethodPost, path, payload)
}

// Put issues a PUT with payload as the JSON body.
func Put[T any](ctx context.Context, e *Engine, path string, payload any) (T, error) {
	return call[T](ctx, e, http.MethodPut, path, payload)
}

// Delete issues a DELETE with payload as the JSON body.
func Delete[T any](ctx context.Context, e *Engine, path string, payload any) (T, error) {
	return call[T](ctx, e, http.MethodDelete, path, payload)
}

func call[T any](ctx context.Context, e *Engine, method, path string, payload any) (T, error) {
	var zero T
	raw, err := e.Do(ctx, Request{Method: method, Path: path, Body: payload})
	if err != nil {
		return zero, err
	}
	return DecodeData[T](raw, path)
}

// DecodeData decodes envelope data into T. Absent or null data yields
// the zero value.
func DecodeData[T any](raw json.RawMessage, path string) (T, error) {
	var out T
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, &domain.Error{
			Kind:    domain.KindBusiness,
			Message: domain.MsgInvalidPayload,
			Path:    path,
			Cause:   err,
		}
	}
	return out, nil
}

// EncodeQuery renders a GET payload as a query string with sorted keys.
// The payload must marshal to a JSON object; nil fields are skipped and
// arrays repeat the key.
func EncodeQuery(payload any) (string, error) {
	switch p := payload.(type) {
	case nil:
		return "", nil
	case url.Values:
		return p.Encode(), nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	if bytes.Equal(data, []byte("null")) {
		return "", nil
	}

	var fields map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return "", fmt.Errorf("query payload must be an object: %w", err)
	}

	values := url.Values{}
	for k, v := range fields {
		switch t := v.(type) {
		case nil:
		case []any:
			for _, item := range t {
				if item != nil {
					values.Add(k, queryValue(item))
				}
			}
		default:
			values.Set(k, queryValue(t))
		}
	}
	return values.Encode(), nil
}

func queryValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		data, _ := json.Marshal(t)
		return string(data)
	}
}
