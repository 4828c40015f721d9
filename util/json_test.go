// util/json_test.go
// Copyright(c) 2024-2026 flightstream contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestUnmarshalJSONBytesReportsPosition(t *testing.T) {
	var v map[string]any
	err := UnmarshalJSONBytes([]byte("{\n  \"fetch\": {\n    \"status\": }\n}"), &v)
	if err == nil {
		t.Fatal("expected an error for invalid JSON")
	}
	if !strings.Contains(err.Error(), "line 3") {
		t.Errorf("error %q does not mention line 3", err)
	}
	var serr *json.SyntaxError
	if !errors.As(err, &serr) {
		t.Errorf("expected wrapped *json.SyntaxError, got %T", err)
	}
}

func TestUnmarshalJSONBytesTypeError(t *testing.T) {
	var v struct {
		Status string `json:"status"`
	}
	err := UnmarshalJSONBytes([]byte(`{"status": 12}`), &v)
	if err == nil {
		t.Fatal("expected an error for mismatched type")
	}
	if !strings.Contains(err.Error(), "line 1") || !strings.Contains(err.Error(), "string") {
		t.Errorf("unexpected error %q", err)
	}
}

func TestJSONOffsetPosition(t *testing.T) {
	b := []byte("ab\ncd\nef")
	for _, tc := range []struct {
		offset     int64
		line, char int
	}{
		{0, 1, 1},
		{2, 1, 3},
		{3, 2, 1},
		{7, 3, 2},
		{100, 3, 3},
	} {
		line, char := JSONOffsetPosition(b, tc.offset)
		if line != tc.line || char != tc.char {
			t.Errorf("offset %d: got %d:%d, expected %d:%d", tc.offset, line, char, tc.line, tc.char)
		}
	}
}
