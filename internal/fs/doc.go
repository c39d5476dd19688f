// Package fs abstracts the file system operations used by the local blob store
// so that tests can inject I/O failures.
//
// Production code uses fs.Default, which is [LocalFS]. Tests wrap it in a
// [FaultyFS]:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule("MANIFEST-", fs.Fault{FailOnSync: true})
//	store := blobstore.NewLocalStore(dir, blobstore.WithFileSystem(ffs))
//
// Operations take no context.Context; local syscalls are not interruptible.
package fs
