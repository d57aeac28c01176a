// Package fs abstracts the file operations of blobstore.LocalStore's write
// path so tests can inject I/O failures.
//
// Production code uses [Default] ([LocalFS]). Tests wrap it in a [FaultyFS]:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".cdb", fs.Fault{FailAfterBytes: 1024})
//	store := blobstore.NewLocalStore(dir, blobstore.WithFileSystem(ffs))
//
// Reads go through memory mapping and are not covered.
package fs
