// Package ledger implements the token ledger state.
//
// The Ledger owns the registry of token entries; each entry owns the
// balance records of its holders. Expiry is lazy: a record past its
// expiry instant resolves to zero but stays in place until it is
// replaced by a new mint or its token is removed.
//
// The Ledger performs no synchronisation of its own. Callers serialise
// access at the call level; see the service package.
package ledger
