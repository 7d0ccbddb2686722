// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 grantgraph Contributors

// Package grantgraph is an authorization decision engine: it answers
// "which of these requested operations may this subject perform on
// this resource" by walking two group-membership closures against a
// caller-supplied storage.Storage and composing grant, deny, exclusive,
// and filter rules into a single access mask.
//
// The engine performs no I/O of its own. Every byte it reads comes
// back through the storage.Storage interface, which a host application
// implements over whatever key/value store backs its ACL rows. See
// grantgraph/fixtures for an in-memory reference implementation; this
// module ships no persistent implementation.
//
// Authorize returns a mask with no tracing overhead. Trace runs the
// same algorithm with every trace channel enabled and returns a
// grantgraph/trace.Report explaining exactly which rows and rules
// produced the result.
package grantgraph
