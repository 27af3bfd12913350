package detect

// bitset tracks consumed records by their discovery index.
//
// Design decision: an explicit bit-set indexed by input position, rather
// than a map keyed by path, keeps membership checks O(1) and gives the
// grouping loops a single well-defined point of mutation. Mutation is
// confined to the sequential grouping pass; the parallel hash workers
// only ever read it.
type bitset struct {
	words []uint64
}

// newBitset creates a bitset able to hold n indices.
func newBitset(n int) *bitset {
	return &bitset{words: make([]uint64, (n+63)/64)}
}

// set marks index i.
func (b *bitset) set(i int) {
	b.words[i/64] |= 1 << (i % 64)
}

// get reports whether index i is marked.
func (b *bitset) get(i int) bool {
	return b.words[i/64]&(1<<(i%64)) != 0
}

// count returns the number of marked indices.
func (b *bitset) count() int {
	n := 0
	for _, w := range b.words {
		for ; w != 0; w &= w - 1 {
			n++
		}
	}
	return n
}
