// Package table implements the on-disk "celldb" table: one row per sample
// with the fields id (string), idx (list<int32>) and quant (list<float64>).
//
// # File Layout
//
//	+---------------------------+
//	| Header (64 bytes)         |
//	+---------------------------+
//	| Schema descriptor         |
//	+---------------------------+
//	| id column blocks          |
//	+---------------------------+
//	| idx column blocks         |
//	+---------------------------+
//	| quant column blocks       |
//	+---------------------------+
//	| CRC32 (4 bytes)           |
//	+---------------------------+
//
// Each column is a run of length-prefixed blocks that may be LZ4 or ZSTD
// compressed. The trailing CRC covers everything after the header. Rows keep
// their entries exactly as written: nothing is zero-filled and explicit zeros
// are never dropped.
package table
