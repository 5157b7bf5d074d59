package raster

// ColumnIndex returns the offset of pixel (x, y) in column-major storage.
func ColumnIndex(x, y, height int) int {
	return x*height + y
}

// Expand fills m row by row with colors produced by f for each column-major
// source index. The source tile must have the same dimensions as m.
func (m *Image) Expand(src []byte, f func(index byte) [4]byte) {
	for y := 0; y < m.Height; y++ {
		row := m.Row(y)
		for x := 0; x < m.Width; x++ {
			c := f(src[ColumnIndex(x, y, m.Height)])
			copy(row[x*BytesPerPixel:], c[:])
		}
	}
}
