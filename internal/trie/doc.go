// Package trie implements the serialized token trie of a postcode section.
//
// Every edge is labelled with one whole token; a node optionally carries a
// list of point ids. Nodes are written children first, so every child lives
// at a smaller offset than its parent and a reader can never loop.
//
//	u32 LE rootOffset
//	node:
//	  uvarint childCount
//	  if childCount > 0:
//	    uvarint labelsLen
//	    childCount × [u32 LE labelStart][u32 LE childOffset]   sorted by label
//	    labelsLen bytes of concatenated labels
//	  uvarint valueCount
//	  valueCount × uvarint                                     ascending, delta-coded
//
// Readers parse one node at a time from a section.Reader, so only the nodes a
// query touches are read.
package trie
