package xmss

// The plain (non-amortized) stack-based treehash used to build a whole
// subtree root from scratch: in the xmssnaive build, to recompute a full
// authentication path at every signature instead of maintaining BDS
// state, and in tests that cross-check the BDS engine.  BDS
// initialisation (bds.go) builds its subtrees with bdsStateAdvance
// instead.

// computeRoot returns the root of the height-high subtree whose leftmost
// leaf is leaf index startLeaf, using the classic Szydlo/Buchmann
// stack-merge: push each leaf, then repeatedly merge the top two stack
// entries whenever they share the same height.  addr's layer and tree
// words must already be set; its type-specific words are overwritten.
func (ctx *Context) computeRoot(pad *scratchPad, skSeed, pubSeed []byte,
	startLeaf, height uint32, addr address) []byte {
	total := uint32(1) << height
	stack := make([][]byte, 0, height+1)
	stackHeight := make([]uint32, 0, height+1)

	for i := uint32(0); i < total; i++ {
		leaf := ctx.genLeaf(pad, skSeed, pubSeed, startLeaf+i, addr)
		stack = append(stack, leaf)
		stackHeight = append(stackHeight, 0)

		for len(stackHeight) >= 2 &&
			stackHeight[len(stackHeight)-1] == stackHeight[len(stackHeight)-2] {
			top := len(stack) - 1
			h := stackHeight[top]

			nodeAddr := addr
			nodeAddr.setType(addrTypeHashTree)
			nodeAddr.setTreeHeight(h)
			nodeAddr.setTreeIndex((startLeaf + i) >> (h + 1))
			parent := ctx.h(stack[top-1], stack[top], pubSeed, nodeAddr)

			stack = stack[:top-1]
			stackHeight = stackHeight[:top-1]
			stack = append(stack, parent)
			stackHeight = append(stackHeight, h+1)
		}
	}
	return stack[0]
}
