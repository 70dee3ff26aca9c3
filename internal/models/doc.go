// Package models holds the data types shared by the medialog client and
// server: the Entry record and its validation, list filters, statistics,
// admin settings and the operations stored in the client sync queue.
//
// Filtering and statistics are implemented here once so that the server's
// in-memory store and the client's offline fallback produce the same
// results as the SQL-backed server for the same data.
package models
