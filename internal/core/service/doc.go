// Package service provides the domain services for ExpiryLedger.
//
// LedgerService orchestrates the six ledger entry points (register,
// mint, remove, balanceOf, expiryOf, metadataOf) plus the permanently
// disabled transfer/operator surface. Every call runs to completion
// under one mutex, judges all expiry comparisons against a single
// instant captured at call start, and commits all-or-nothing: a failed
// batch leaves no observable trace, in state, storage or events.
//
// AuthService verifies API keys and hands out the administrator
// capability the mutating entry points require. Services are stateless
// apart from the ledger itself and define interfaces for their storage
// dependencies.
package service
