// Package mmap maps table files read-only so blobstore.LocalStore can hand
// their bytes to the table decoder without copying.
//
//	m, err := mmap.Open(path, mmap.Sequential)
//	if err != nil { ... }
//	defer m.Close()
//	data := m.Bytes()
//
// Windows ignores hints.
package mmap
