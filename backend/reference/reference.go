// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package reference provides the reference CPU backend.
//
// Arrays are plain host slices and the heavy ops go through gonum's BLAS.
// Every other backend is compared against this one.
package reference

import (
	internalref "github.com/born-ml/xpbench/internal/backend/reference"
	"github.com/born-ml/xpbench/tensor"
)

// Backend is the reference CPU array library.
type Backend = internalref.Backend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a reference backend.
func New() *Backend {
	return internalref.New()
}
