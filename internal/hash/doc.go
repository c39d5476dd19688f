// Package hash provides the checksums used to verify persisted index blobs.
//
// All checksums use CRC32-Castagnoli (CRC32C), which Go computes with hardware
// instructions on x86 (SSE4.2) and ARM (CRC extension).
//
//	checksum := hash.CRC32C(payload)
//
// For streaming input:
//
//	h := hash.NewCRC32C()
//	h.Write(chunk1)
//	h.Write(chunk2)
//	checksum := h.Sum32()
package hash
