package particles

// DefaultParticleSize is the edge length of a particle quad in pixels.
const DefaultParticleSize = 6

// Vertex is one corner of a particle quad in normalized device coordinates.
type Vertex struct {
	Pos   [2]float32
	Color RGBA
}

// AppendQuads appends two triangles (six vertices) per live particle to dst,
// converting viewport pixels to NDC with y pointing up.
func (s *System) AppendQuads(dst []Vertex, size float32) []Vertex {
	half := size * 0.5
	ndc := func(x, y float32) [2]float32 {
		return [2]float32{x/s.width*2 - 1, 1 - y/s.height*2}
	}
	for _, p := range s.ps {
		x0, x1 := p.X-half, p.X+half
		y0, y1 := p.Y-half, p.Y+half
		v0 := Vertex{ndc(x0, y0), p.Color}
		v1 := Vertex{ndc(x1, y0), p.Color}
		v2 := Vertex{ndc(x1, y1), p.Color}
		v3 := Vertex{ndc(x0, y1), p.Color}
		dst = append(dst, v0, v1, v2, v0, v2, v3)
	}
	return dst
}
