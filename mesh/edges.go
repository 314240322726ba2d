package mesh

import (
	"fmt"
	"math"
)

/*
EdgeKey packs an edge's two vertex indices into a single comparable number.
The vertices are stored in ascending index order, so the key for edge [4,0]
equals the key for edge [0,4] and can be used to match shared element edges.
*/
type EdgeKey uint64

func NewEdgeKey(verts [2]int) (packed EdgeKey) {
	var (
		limit = math.MaxUint32
	)
	for _, vert := range verts {
		if vert < 0 || vert > limit {
			panic(fmt.Errorf("unable to pack two ints into a uint64, have %d and %d as inputs",
				verts[0], verts[1]))
		}
	}
	var i1, i2 int
	if verts[0] <= verts[1] {
		i1, i2 = verts[0], verts[1]
	} else {
		i1, i2 = verts[1], verts[0]
	}
	packed = EdgeKey(i1 + i2<<32)
	return
}

func (ek EdgeKey) GetVertices() (verts [2]int) {
	var (
		high = ek >> 32
	)
	verts[1] = int(high)
	verts[0] = int(ek - high*(1<<32))
	return
}
