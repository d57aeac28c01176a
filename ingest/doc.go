// Package ingest reads tabular measurement files into sparse samples.
//
// Two layouts are supported:
//
//   - Long: one explicit measurement per record, "id,index,value". Records of
//     one sample may be interleaved with others; entries keep file order.
//   - Wide: a header naming the id column followed by one column per feature.
//     An empty cell is a missing measurement; "0" is a measured zero.
//
// Both layouts accept any single-rune delimiter, so TSV is WithDelimiter('\t').
// Files ending in .gz are decompressed transparently by ReadFile.
package ingest
