// Package assetstore persists records of uploaded assets and their
// generated thumbnail variants in SQLite.
package assetstore
