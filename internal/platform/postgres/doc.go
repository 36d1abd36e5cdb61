// Package postgres implements the relational task store on PostgreSQL.
// It is the authoritative source for bulk queries; the coordinator writes
// to it second, after the fast-lookup store.
package postgres
