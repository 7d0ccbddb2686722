// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 grantgraph Contributors

package grantgraph

import "github.com/samber/oops"

// Error codes attached via oops.Code. A host application can match on
// these with oops.AsOops(err) instead of string-matching messages.
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeStorageFailure   = "STORAGE_FAILURE"
	CodeDecodeCorruption = "DECODE_CORRUPTION"
)

func errStorageFailure(key string, cause error) error {
	return oops.
		Code(CodeStorageFailure).
		With("key", key).
		Wrapf(cause, "storage adapter returned an error")
}

func errDecodeCorruption(key string, cause error) error {
	return oops.
		Code(CodeDecodeCorruption).
		With("key", key).
		Wrapf(cause, "record decode failed")
}
