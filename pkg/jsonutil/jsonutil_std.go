//go:build !CONFIG_USE_SONIC

package jsonutil

import (
	"bytes"
	"encoding/json"
	"io"
)

// Marshal serializes a value to JSON.
func Marshal(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, wrap("marshal", err)
	}
	return data, nil
}

// Unmarshal decodes JSON into v. It rejects a nil destination and anything
// over MaxPayloadSize before ever handing data to the codec.
func Unmarshal(data []byte, v interface{}) error {
	if v == nil {
		return ErrInvalidOutput
	}
	if len(data) > MaxPayloadSize {
		return ErrValueTooLarge
	}
	if err := json.Unmarshal(data, v); err != nil {
		return wrap("unmarshal", err)
	}
	return nil
}

// DecodeReader is Unmarshal for a streamed source (an HTTP response body, a
// stored row's blob reader) rather than an already-buffered byte slice, so
// a caller doesn't have to read the whole thing into memory just to hand it
// back to Unmarshal. MaxPayloadSize still bounds how much is read.
func DecodeReader(r io.Reader, v interface{}) error {
	if v == nil {
		return ErrInvalidOutput
	}
	limited := io.LimitReader(r, MaxPayloadSize+1)
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(limited); err != nil {
		return wrap("decode", err)
	}
	if buf.Len() > MaxPayloadSize {
		return ErrValueTooLarge
	}
	if err := json.Unmarshal(buf.Bytes(), v); err != nil {
		return wrap("decode", err)
	}
	return nil
}
