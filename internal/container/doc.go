// Package container implements the compound file that carries postcode
// sections.
//
// A container is a sequence of tagged section payloads followed by a table
// of contents and a fixed-size footer:
//
//	[section payloads][TOC block][footer]
//
//	footer (21 bytes):
//	  u64 LE tocOffset
//	  u64 LE tocSize
//	  u8     compression (0 none, 1 lz4, 2 zstd)
//	  u32 LE magic "PCS1"
//
//	TOC (after block decompression):
//	  uvarint count
//	  count × { uvarint tagLen, tag, uvarint offset, uvarint size,
//	            uvarint digestLen, digest }
//
// Every section records an OCI content digest so it can be verified
// independently of the rest of the file.
package container
