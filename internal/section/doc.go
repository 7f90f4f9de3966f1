// Package section implements the postcode point section: its fixed header,
// byte-range views over the containing blob, and the resolution of the trie
// and point table ranges the header describes.
//
// Layout (all integers little-endian, offsets relative to the section start):
//
//	offset 0:  version       u8
//	offset 1:  trieOffset    u32
//	offset 5:  trieSize      u32
//	offset 9:  pointsOffset  u32
//	offset 13: pointsSize    u32
//	offset 17: trie bytes, then point records
package section
