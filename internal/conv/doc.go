// Package conv provides bounds-checked integer conversions.
//
// Roaring bitmaps address positions with uint32 while sources report counts and
// ranks as int; conversions between the two go through this package.
package conv
