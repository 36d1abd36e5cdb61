// Package mocks provides hand-written test doubles for the persistence and
// messaging interfaces. Behavior is overridable per test through the Fn
// fields; the defaults act as working in-memory fakes and count calls so
// tests can assert that failed operations performed no writes.
package mocks
