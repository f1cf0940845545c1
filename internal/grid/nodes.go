package grid

// NodeMap hands out contiguous unknown indices starting at zero.
type NodeMap struct {
	next int
}

func (m *NodeMap) Next() int {
	idx := m.next
	m.next++
	return idx
}

func (m *NodeMap) pair() nodes {
	return nodes{r: m.Next(), i: m.Next()}
}

// Size is the number of indices allocated so far.
func (m *NodeMap) Size() int {
	return m.next
}
