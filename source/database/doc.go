// Package database exposes a table scan as an asynchronous iterator.
//
// Rows are read with keyset pagination: each query asks for the rows whose
// key column is greater than the last one delivered, so the cost of a page
// does not grow with the scan's position.
//
//	db, err := database.Connect(ctx, sqlite.Open(cfg.DSN), cfg, log)
//	it := database.Open(ctx, db, cfg, log, func(e Event) any { return e.ID }, nil)
package database
