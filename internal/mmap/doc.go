// Package mmap provides read-only memory-mapped file access.
//
// The local blob store maps persisted index blobs so that decoding reads the
// file contents without an intermediate copy.
//
//	m, err := mmap.Open("indexes/IDX-000001.qbi")
//	if err != nil { ... }
//	defer m.Close()
//	data := m.Bytes()
//
// Unix platforms use mmap(2) and madvise(2); Windows uses
// CreateFileMapping/MapViewOfFile and ignores access hints.
//
// Bytes must not be used after Close returns. Close is idempotent.
package mmap
