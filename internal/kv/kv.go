// Package kv is the persistence boundary: a synchronous string-keyed
// blob store. Values are whole-object JSON snapshots written wholesale
// on every mutation; there are no partial writes and no range queries.
package kv

import "context"

// Store is the minimal get/set/delete contract the ledger persists
// through. Get reports presence explicitly so callers can distinguish
// "never written" from an empty value.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
