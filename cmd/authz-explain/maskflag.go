// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 grantgraph Contributors

package main

import (
	"strconv"
	"strings"

	"github.com/samber/oops"

	grantgraph "github.com/grantgraph/grantgraph"
)

// parseMask accepts either a decimal integer ("15") or a string of
// CRUD letters ("CRUD", "RU") and returns the corresponding mask.
func parseMask(s string) (uint16, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, oops.Code(grantgraph.CodeInvalidRequest).Errorf("mask must not be empty")
	}

	if n, err := strconv.ParseUint(s, 10, 16); err == nil {
		return uint16(n), nil
	}

	var mask grantgraph.Mask
	for _, ch := range strings.ToUpper(s) {
		switch ch {
		case 'C':
			mask |= grantgraph.Create
		case 'R':
			mask |= grantgraph.Read
		case 'U':
			mask |= grantgraph.Update
		case 'D':
			mask |= grantgraph.Delete
		default:
			return 0, oops.Code(grantgraph.CodeInvalidRequest).With("input", s).Errorf("mask letters must be a combination of C, R, U, D")
		}
	}
	return uint16(mask), nil
}
