// simbrief/errors.go
// Copyright(c) 2024-2026 flightstream contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package simbrief

import (
	"errors"
	"strings"
)

// Each failed fetch reports exactly one of these as its FetchError Kind.
var (
	ErrNoIdentity              = errors.New("No SimBrief username configured")
	ErrMetadataTransport       = errors.New("Unable to fetch flight plan metadata")
	ErrMetadataBodyUndecodable = errors.New("Flight plan metadata response is not text")
	ErrMetadataParse           = errors.New("Unable to parse flight plan metadata")
	ErrMetadataMalformed       = errors.New("Malformed flight plan metadata")
	ErrRemoteRequestFailed     = errors.New("SimBrief request failed")
	ErrPlanTransport           = errors.New("Unable to download flight plan")
	ErrPlanBodyUndecodable     = errors.New("Flight plan response is not text")
)

// FetchError describes why a flight plan fetch failed. Kind is one of the
// Err* values above. Detail holds the offending value when there is one:
// the status string returned by SimBrief, a description of the malformed
// field, or the HTTP status of the plan download. Err is the underlying
// cause, if any.
type FetchError struct {
	Kind   error
	Detail string
	Err    error
}

func (e *FetchError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.Error())
	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// RemoteStatus returns the status reported by SimBrief if err is an
// ErrRemoteRequestFailed failure.
func RemoteStatus(err error) (string, bool) {
	var fe *FetchError
	if errors.As(err, &fe) && fe.Kind == ErrRemoteRequestFailed {
		return fe.Detail, true
	}
	return "", false
}

func fetchError(kind error, detail string, err error) *FetchError {
	return &FetchError{Kind: kind, Detail: detail, Err: err}
}
