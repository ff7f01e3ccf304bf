// Package eventlog carries the ledger's state-change events to
// observers.
//
// The service appends events only after a call has fully committed, in
// the order the mutations happened. Sinks fan out from there: a
// structured-log sink for operators, an in-memory sink for tests and
// the admin event tail, and a durable append-only journal with CRC
// framing and segment rotation.
package eventlog
