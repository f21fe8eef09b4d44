package txn

import "errors"

// ErrWriteConflict is returned (wrapped with the offending rid) when a
// write can't take a row's version link: another in-flight writer
// holds it, or a committed version newer than the writer's own
// snapshot already exists.
var ErrWriteConflict = errors.New("txn: write-write conflict")

// ErrTxnTainted is returned when an operation is attempted against a
// transaction already marked TAINTED by an earlier conflict — it must
// be aborted, not retried in place.
var ErrTxnTainted = errors.New("txn: transaction tainted")

// ErrInvalidState is returned by Commit/Abort when the transaction is
// not in a state that operation is valid from (e.g. committing a
// transaction that already committed or aborted).
var ErrInvalidState = errors.New("txn: invalid transaction state")
