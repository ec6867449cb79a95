package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
)

// Envelope is the uniform response wrapper. Servers either send it
// explicitly as {"status":…,"message":…,"data":…} or send the bare
// payload, in which case [DecodeEnvelope] synthesizes a successful one.
type Envelope[T any] struct {
	Status  bool    `json:"status"`
	Message *string `json:"message,omitempty"`
	Data    *T      `json:"data,omitempty"`
}

// Value returns the payload, failing with [ErrDecoding] when the
// envelope carries no data.
func (e Envelope[T]) Value() (T, error) {
	if e.Data == nil {
		var zero T
		return zero, newError(ErrDecoding, errors.New("envelope has no data"))
	}

	return *e.Data, nil
}

// Empty is a payload type for endpoints that answer with no body.
type Empty struct{}

// wireEnvelope is the strict shape used for the first decode attempt:
// status must be present and boolean.
type wireEnvelope struct {
	Status  *bool           `json:"status"`
	Message *string         `json:"message"`
	Data    json.RawMessage `json:"data"`
}

var (
	errNoStatus = errors.New(`missing boolean "status" field`)
	errNullBody = errors.New("body is null")
)

// DecodeEnvelope decodes b as an [Envelope] of T, falling back to a
// bare T. An explicit envelope always wins over the bare form.
func DecodeEnvelope[T any](b []byte, optFns ...CallOption) (Envelope[T], error) {
	opts, err := applyCallOptions(optFns)
	if err != nil {
		return Envelope[T]{}, newError(ErrInvalidRequest, err)
	}

	env, envErr := decodeWrapped[T](b, opts.useJSONNum)
	if envErr == nil {
		if opts.requireData && env.Status && env.Data == nil {
			return Envelope[T]{}, newError(ErrDecoding, errors.New("envelope has no data"))
		}
		return env, nil
	}

	v, bareErr := decodeBare[T](b, opts.useJSONNum)
	if bareErr != nil {
		return Envelope[T]{}, newError(ErrDecoding, fmt.Errorf("%w (as envelope: %v)", bareErr, envErr))
	}

	return Envelope[T]{Status: true, Data: &v}, nil
}

// DecodeBare decodes b directly into T with no envelope handling.
func DecodeBare[T any](b []byte, optFns ...CallOption) (T, error) {
	opts, err := applyCallOptions(optFns)
	if err != nil {
		var zero T
		return zero, newError(ErrInvalidRequest, err)
	}

	v, err := decodeBare[T](b, opts.useJSONNum)
	if err != nil {
		return v, newError(ErrDecoding, err)
	}

	return v, nil
}

func decodeWrapped[T any](b []byte, useNumber bool) (Envelope[T], error) {
	var w wireEnvelope
	if err := decodeJSON(b, &w, useNumber); err != nil {
		return Envelope[T]{}, err
	}

	if w.Status == nil {
		return Envelope[T]{}, errNoStatus
	}

	env := Envelope[T]{Status: *w.Status, Message: w.Message}

	if len(w.Data) == 0 || bytes.Equal(w.Data, []byte("null")) {
		return env, nil
	}

	var data T
	if err := decodeJSON(w.Data, &data, useNumber); err != nil {
		return Envelope[T]{}, fmt.Errorf("data: %w", err)
	}
	env.Data = &data

	return env, nil
}

func decodeBare[T any](b []byte, useNumber bool) (T, error) {
	var v T
	if _, ok := any(&v).(*Empty); ok && len(bytes.TrimSpace(b)) == 0 {
		return v, nil
	}

	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) && !nullable[T]() {
		return v, errNullBody
	}

	if err := decodeJSON(b, &v, useNumber); err != nil {
		return v, err
	}

	return v, nil
}

// nullable reports whether a JSON null is a meaningful T.
func nullable[T any]() bool {
	switch reflect.TypeFor[T]().Kind() {
	case reflect.Pointer, reflect.Interface:
		return true
	default:
		return false
	}
}

// decodeJSON decodes exactly one JSON value from b.
func decodeJSON(b []byte, v any, useNumber bool) error {
	d := json.NewDecoder(bytes.NewReader(b))
	if useNumber {
		d.UseNumber()
	}

	if err := d.Decode(v); err != nil {
		return err
	}

	if _, err := d.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON value")
	}

	return nil
}
