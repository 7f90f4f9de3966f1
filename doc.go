// Package postcodes provides a compact, read-only postcode point index.
//
// An index maps normalized postcode tokens (outward code, inward code) to the
// geographic points of the postcode. It lives as the "postcode_points"
// section of a container file and is read through memory mapping or ranged
// reads, so the index is never loaded into memory as a whole.
//
// # Quick Start
//
// Build a region file:
//
//	b := postcodes.NewBuilder()
//	b.AddPostcode("AA11 0AB", postcodes.Point{Lon: -0.12, Lat: 51.5})
//	_ = b.Save(ctx, blobstore.NewLocalStore("./data"), "wonderland.pcs")
//
// Query it:
//
//	blob, _ := blobstore.NewLocalStore("./data").Open(ctx, "wonderland.pcs")
//	idx, _ := postcodes.Open(ctx, blob)
//	pts, _ := idx.Search(ctx, "aa11 0")
//
// # Matching
//
// Every token but the last is matched exactly. The last token is matched
// exactly or, when the query is still being typed, as a prefix of the edge
// labels. A single-token query returns every point below the matched outward
// code, so "AA11" finds all postcodes of the district.
//
// Results are unordered and may contain duplicates; use LookupUnique to
// collapse them.
//
// # Regions
//
// A Catalog opens region files from any blobstore.BlobStore (local mmap,
// S3, MinIO, optionally behind a block cache) on demand and fans lookups out
// over several regions:
//
//	cat := postcodes.NewCatalog(store)
//	defer cat.Close()
//	pts, _ := cat.LookupAll(ctx, tokenize.Query("aa11"), "wonderland.pcs", "oz.pcs")
//
// # Errors
//
// Structurally invalid data fails with ErrCorruptIndex; no match is an empty
// result with a nil error.
package postcodes
