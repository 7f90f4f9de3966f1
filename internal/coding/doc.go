// Package coding implements the fixed-point point codec shared by every
// stored geometry in a section.
//
// A coordinate component is mapped linearly onto [0, CoordMask] and stored in
// the low CoordBits bits of a uint32. The two high bits of each stored word
// are reserved and must be zero.
//
//	x = round((lon - MinLon) / (MaxLon - MinLon) * CoordMask)
//	y = round((lat - MinLat) / (MaxLat - MinLat) * CoordMask)
//
// With 30 bits the quantization step is 360/2^30 ≈ 3.4e-7 degrees for
// longitude and half of that for latitude, well under PointAccuracy.
package coding
