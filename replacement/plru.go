package replacement

// The pseudo-LRU tree only exists for 16-way sets. Internal nodes are indexed
// 0 to 14 with the children of node i at 2i+1 and 2i+2; the leaves continue
// the same numbering from 15 to 30, so way w sits at node w+15.
const (
	plruWays       = 16
	plruNodes      = plruWays - 1
	plruLeafOffset = plruNodes
)

var plruInitialBits = [plruNodes]uint8{
	1, 0, 1, 1, 1, 0, 0, 0, 0, 0, 1, 0, 1, 1, 0,
}

// plruVictim follows the bits from the root down to a leaf and returns the
// leaf's way. A set bit means the recently used side is on the left, so the
// walk goes right. Stopping at the last internal node instead would only ever
// pick ways 7 to 14.
func (e *Engine) plruVictim(setIndex int) int {
	e.mustHavePLRUGeometry()

	tree := &e.plru[setIndex]
	node := 0

	for node < plruNodes {
		if tree[node] == 1 {
			node = 2*node + 2
		} else {
			node = 2*node + 1
		}
	}

	return node - plruLeafOffset
}

// updatePLRU points every node on the path of the touched way away from it.
// Only hits update the tree.
func (e *Engine) updatePLRU(setIndex, way int, hit bool) {
	e.mustHavePLRUGeometry()

	if !hit {
		return
	}

	tree := &e.plru[setIndex]
	node := way + plruLeafOffset

	for node != 0 {
		parent := (node - 1) / 2

		if node%2 == 1 {
			tree[parent] = 1
		} else {
			tree[parent] = 0
		}

		node = parent
	}
}

func (e *Engine) mustHavePLRUGeometry() {
	if e.assoc != plruWays {
		panic("pseudo-LRU requires 16-way sets")
	}
}
