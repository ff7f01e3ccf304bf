// Package domain defines the core domain models for ExpiryLedger.
//
// Domain models are pure value objects and entities without any
// IO dependencies or framework coupling. This package contains:
//
//   - TokenID, Amount, MetadataURL: the token registry vocabulary
//   - BalanceRecord: a holder's quantity with an absolute expiry instant
//   - Holder: account-kind identities (the only kind the ledger serves)
//   - Event: the state-change events emitted to the event sink
//   - DomainError: structured business errors with stable codes
package domain
