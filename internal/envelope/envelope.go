// Package envelope decodes the backend's response envelope into canonical
// shapes. The API nests payloads inconsistently across endpoints: a
// collection may arrive as a bare array, as {"data": [...]}, as
// {"data": {"clients": [...]}}, or as {"clients": [...]}; a single entity
// may sit under data.<key>, directly under data, or at the top level. Every
// known shape is normalised here so call sites never sniff shapes inline.
package envelope

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/terzoomedia/hasad-go/internal/models"
	apperrors "github.com/terzoomedia/hasad-go/pkg/errors"
)

// Envelope is the backend's common response contract.
type Envelope struct {
	Success *bool           `json:"success,omitempty"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Meta    *Meta           `json:"meta,omitempty"`
	Errors  json.RawMessage `json:"errors,omitempty"`

	// extra holds top-level keys outside the envelope contract, for the
	// endpoints that hoist the payload next to "success" instead of under
	// "data".
	extra map[string]json.RawMessage
}

// Meta wraps the pagination block.
type Meta struct {
	Pagination *models.Pagination `json:"pagination,omitempty"`
}

// Parse decodes a response body into an Envelope. A body that is itself a
// JSON array is treated as the data payload of an otherwise empty envelope.
func Parse(body []byte) (*Envelope, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return &Envelope{}, nil
	}

	if trimmed[0] == '[' {
		return &Envelope{Data: json.RawMessage(trimmed)}, nil
	}

	env := &Envelope{}
	if err := json.Unmarshal(trimmed, env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err == nil {
		delete(raw, "success")
		delete(raw, "message")
		delete(raw, "error")
		delete(raw, "data")
		delete(raw, "meta")
		delete(raw, "errors")
		env.extra = raw
	}

	return env, nil
}

// Pagination returns the server pagination block only when every field is
// present and positive; partial metadata is treated as absent so the caller
// falls back to synthesised paging.
func (e *Envelope) Pagination() *models.Pagination {
	if e.Meta == nil || e.Meta.Pagination == nil {
		return nil
	}
	p := e.Meta.Pagination
	if p.CurrentPage <= 0 || p.LastPage <= 0 || p.PerPage <= 0 || p.Total < 0 {
		return nil
	}
	return p
}

// Collection extracts the item list for the given resource key, tolerating
// every known nesting shape. It returns the items and whether server
// pagination metadata accompanied them.
func Collection[T any](e *Envelope, key string) ([]T, *models.Pagination, error) {
	candidates := []json.RawMessage{}

	if len(e.Data) > 0 {
		if isArray(e.Data) {
			candidates = append(candidates, e.Data)
		} else {
			var nested map[string]json.RawMessage
			if err := json.Unmarshal(e.Data, &nested); err == nil {
				if inner, ok := nested[key]; ok && isArray(inner) {
					candidates = append(candidates, inner)
				}
			}
		}
	}
	if inner, ok := e.extra[key]; ok && isArray(inner) {
		candidates = append(candidates, inner)
	}

	for _, raw := range candidates {
		var items []T
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, nil, fmt.Errorf("decode %s collection: %w", key, err)
		}
		if items == nil {
			items = []T{}
		}
		return items, e.Pagination(), nil
	}

	// No recognised shape: an empty collection, not an error. Older
	// endpoints return {"success":true,"data":null} for empty lists.
	return []T{}, e.Pagination(), nil
}

// Entity extracts a single record for the given resource key, accepting the
// nested data.<key> form, a flat data object, or a top-level key. A shape
// that yields no object is a missing-entity error, distinct from a transport
// 404.
func Entity[T any](e *Envelope, key string) (T, error) {
	var zero T

	if len(e.Data) > 0 && isObject(e.Data) {
		var nested map[string]json.RawMessage
		if err := json.Unmarshal(e.Data, &nested); err == nil {
			if inner, ok := nested[key]; ok && isObject(inner) {
				var entity T
				if err := json.Unmarshal(inner, &entity); err != nil {
					return zero, fmt.Errorf("decode %s entity: %w", key, err)
				}
				return entity, nil
			}
			if _, ok := nested["id"]; ok {
				var entity T
				if err := json.Unmarshal(e.Data, &entity); err != nil {
					return zero, fmt.Errorf("decode %s entity: %w", key, err)
				}
				return entity, nil
			}
		}
	}

	if inner, ok := e.extra[key]; ok && isObject(inner) {
		var entity T
		if err := json.Unmarshal(inner, &entity); err != nil {
			return zero, fmt.Errorf("decode %s entity: %w", key, err)
		}
		return entity, nil
	}

	return zero, apperrors.Clone(apperrors.ErrMissingEntity, key+" not found in response")
}

// FieldErrors decodes the errors block of a 422 response into a per-field
// message map. Values may be a single string or an array of strings.
func FieldErrors(raw json.RawMessage) map[string][]string {
	if len(raw) == 0 || !isObject(raw) {
		return nil
	}
	var generic map[string]json.RawMessage
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil
	}

	fields := make(map[string][]string, len(generic))
	for key, val := range generic {
		var many []string
		if err := json.Unmarshal(val, &many); err == nil {
			fields[key] = many
			continue
		}
		var one string
		if err := json.Unmarshal(val, &one); err == nil {
			fields[key] = []string{one}
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// ErrorMessage returns the display message of a failed response, preferring
// message over error, matching what the dashboard showed users.
func (e *Envelope) ErrorMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

func isArray(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) > 0 && t[0] == '['
}

func isObject(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) > 0 && t[0] == '{'
}
