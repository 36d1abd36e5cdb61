// Package dynamo implements the fast-lookup task store on DynamoDB.
// It serves the low-latency point-read path; the coordinator writes to it
// first, before the relational store, so Get is never stale relative to a
// just-committed mutation.
package dynamo
