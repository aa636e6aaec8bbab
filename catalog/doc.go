// Package catalog implements the listing engine of the registry: an
// immutable, ordered collection of server records identified by unique keys.
//
// A Catalog supports three read operations:
//
//   - List walks the catalog in load order using cursor pagination. The
//     cursor is the key of the last record of the previous page; an unknown
//     cursor restarts at the beginning instead of failing.
//   - GetLatest returns the record stored under a key.
//   - GetVersion returns the record stored under a key when its version
//     matches exactly.
//
// Lookups that miss return an error matching ErrNotFound.
//
// A Catalog is never modified after New returns, so any number of goroutines
// may read it without coordination. Store holds the snapshot being served and
// replaces it atomically when the catalog is reloaded:
//
//	store := catalog.NewStore(c)
//	page := store.Current().List("", catalog.DefaultLimit)
//	...
//	store.Swap(reloaded)
package catalog
