// Package envelope turns the registration API's responses into values the
// pages can display.
//
// Deployments of the API disagree on how a student list is wrapped: some
// answer with a bare JSON array, others nest it under "alunos", "students"
// or "data", and an empty store may come back as "{}". Normalize accepts all
// of those and reports anything else as a format error instead of guessing.
package envelope

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/gustavo03toledo/frontCadastroAlunos/internal/types"
)

var (
	// ErrEmptyBody is returned by Decode for a body with no JSON value.
	ErrEmptyBody = errors.New("envelope: empty body")
	// ErrMalformed is returned by Decode for a body that is not one JSON value.
	ErrMalformed = errors.New("envelope: malformed json")
	// ErrUnexpectedFormat tags a Result whose body matched no known envelope.
	ErrUnexpectedFormat = errors.New("envelope: unexpected response format")
)

// ListKeys are the object keys that may carry the student list, in the
// order they are tried.
var ListKeys = []string{"alunos", "students", "data"}

// Kind tags a Result.
type Kind int

const (
	KindRecords Kind = iota
	KindFormatError
)

func (k Kind) String() string {
	switch k {
	case KindRecords:
		return "records"
	case KindFormatError:
		return "format_error"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Result is either a (possibly empty) list of records or a format error.
type Result struct {
	Kind    Kind
	Records []types.ListedStudent
	Err     error
}

// Decode parses a single JSON value from body. Numbers are kept as
// json.Number so no precision is lost before display.
func Decode(body []byte) (any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyBody
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after value", ErrMalformed)
	}
	return v, nil
}

// Normalize unwraps a decoded listing body.
func Normalize(v any) Result {
	switch body := v.(type) {
	case []any:
		return records(body)
	case map[string]any:
		for _, key := range ListKeys {
			if list, ok := body[key].([]any); ok {
				return records(list)
			}
		}
		if len(body) == 0 {
			return records(nil)
		}
	}

	return Result{
		Kind: KindFormatError,
		Err:  fmt.Errorf("%w: %s", ErrUnexpectedFormat, describe(v)),
	}
}

// Message returns the first non-empty string stored under one of keys in
// an object body, or fallback.
func Message(v any, fallback string, keys ...string) string {
	body, ok := v.(map[string]any)
	if !ok {
		return fallback
	}
	for _, key := range keys {
		if s, ok := body[key].(string); ok && s != "" {
			return s
		}
	}
	return fallback
}

func records(list []any) Result {
	out := make([]types.ListedStudent, 0, len(list))
	for _, item := range list {
		out = append(out, project(item))
	}
	return Result{Kind: KindRecords, Records: out}
}

func project(item any) types.ListedStudent {
	obj, _ := item.(map[string]any)
	return types.ListedStudent{
		FullName: scalar(obj[types.FieldFullName]),
		Username: scalar(obj[types.FieldUsername]),
		Email:    scalar(obj[types.FieldEmail]),
	}
}

// scalar renders a JSON scalar as text. Falsy values (null, "", 0, false)
// and containers render as "".
func scalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		if f, err := t.Float64(); err == nil && f == 0 {
			return ""
		}
		return t.String()
	case bool:
		if t {
			return "true"
		}
	}
	return ""
}

func describe(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return fmt.Sprintf("object with keys %v", keys)
	default:
		return fmt.Sprintf("%T", v)
	}
}
