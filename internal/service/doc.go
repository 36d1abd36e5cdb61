// Package service contains the task coordinator: the dual-write logic that
// keeps the relational store and the fast-lookup store consistent for every
// task mutation, stores attachments, and emits best-effort change
// notifications.
//
// The ordering rule for every mutating operation is: attachment upload
// precedes persistence; the fast-lookup write precedes the relational write;
// the notification publish is always last and never blocks or fails the
// parent operation. A failure of the first (fast-lookup) write aborts the
// operation; a failure of the second (relational) write is logged for
// out-of-band reconciliation while the operation still succeeds, so the
// low-latency read path is never stale relative to a committed mutation.
package service
