// Package store defines the persistence contracts shared by the task
// coordinator and its storage backends. Both the relational store and the
// fast-lookup store implement the same TaskStore interface; the coordinator
// decides which one serves which operation.
package store
