// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"errors"
	"fmt"
)

// StoreError is a structured rejection from a session store. Both the
// SQLite store and the HTTP store return their failures in this form
// so the lifecycle and engine can branch on the code without caring
// which backend produced it:
//
//	var storeErr *session.StoreError
//	if errors.As(err, &storeErr) {
//	    if storeErr.Code == session.ErrCodeSessionInUse { ... }
//	}
type StoreError struct {
	// Code is the store error code (e.g., "E_NOT_OWNER").
	Code string `json:"errcode"`
	// Message is the human-readable description.
	Message string `json:"error"`
	// StatusCode is the HTTP status of the response, when the error
	// crossed the HTTP surface. Zero for in-process stores.
	StatusCode int `json:"-"`
}

func (e *StoreError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("store: %s (%d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("store: %s: %s", e.Code, e.Message)
}

// Store error codes.
const (
	// ErrCodeSessionInUse: an insert hit the unique-key constraint —
	// another participant created the session first. The lifecycle
	// recovers by falling back to lookup; this code never surfaces
	// to the user as an error.
	ErrCodeSessionInUse = "E_SESSION_IN_USE"

	// ErrCodeNotFound: no document exists for the session key.
	ErrCodeNotFound = "E_NOT_FOUND"

	// ErrCodeNotOwner: the conditional append's owner filter matched
	// nothing — the committing identity is not the session owner.
	ErrCodeNotOwner = "E_NOT_OWNER"

	// ErrCodeInvalidParam: a malformed key, identity, or stroke.
	ErrCodeInvalidParam = "E_INVALID_PARAM"
)

// IsStoreError checks whether err is a *StoreError with the given code.
func IsStoreError(err error, code string) bool {
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return storeErr.Code == code
	}
	return false
}
