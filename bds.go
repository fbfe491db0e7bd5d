package xmss

// The BDS (Buchmann-Dahmen-Szydlo) tree traversal algorithm: amortizes
// the cost of producing each successive authentication path over the
// signatures that lead up to it, instead of recomputing a subtree from
// scratch on every Sign.  Follows Buchmann, Dahmen and Szydlo's
// traversal with a shared stack, per-level treehash instances and a
// retained top (the bdsK parameter), as RFC 8391 recommends for
// stateful use.
//
// A bdsState is local to one subtree (one (layer, tree) pair); an
// XMSS-MT key holds 2*D-1 of them: the active subtree of each of the D
// layers plus a "next" subtree for each of the D-1 non-top layers
// (xmssmt.go).

// treeHashInst is one of the height-bdsK incremental treehash instances
// that keep the lower levels of the authentication path in a state of
// partial construction, ready to complete by the time bdsRound needs
// them.
type treeHashInst struct {
	node       []byte // the completed node, once completed is true
	level      uint32 // target height (this is treehash instance number `level`)
	nextIdx    uint32 // next leaf index to feed into treehashUpdateOne
	stackUsage uint32 // number of entries this instance owns on the shared stack
	completed  bool
}

// bdsState is the amortized traversal state for a single height-high
// Merkle subtree.
type bdsState struct {
	height uint32
	bdsK   uint32

	auth []byte // height n-byte authentication nodes, flattened
	keep []byte // height/2 n-byte stashed nodes, flattened
	n    int

	stack       [][]byte // shared stack, height+1 slots, used by whichever treehash instance bdsTreehashUpdate advances
	stackLevels []uint32
	stackOffset uint32

	treehash []treeHashInst
	retain   [][]byte // (1<<bdsK)-bdsK-1 retained nodes for the top bdsK levels

	nextLeaf uint32
}

func (s *bdsState) authAt(i uint32) []byte { return s.auth[int(i)*s.n : int(i+1)*s.n] }
func (s *bdsState) keepAt(i uint32) []byte { return s.keep[int(i)*s.n : int(i+1)*s.n] }

func newBDSState(n int, height, bdsK uint32) *bdsState {
	retainLen := 0
	if bdsK > 0 {
		retainLen = int((uint32(1) << bdsK) - bdsK - 1)
	}
	th := make([]treeHashInst, height-bdsK)
	for i := range th {
		th[i].node = make([]byte, n)
		th[i].level = uint32(i)
	}
	stack := make([][]byte, height+1)
	for i := range stack {
		stack[i] = make([]byte, n)
	}
	retain := make([][]byte, retainLen)
	for i := range retain {
		retain[i] = make([]byte, n)
	}
	return &bdsState{
		height:      height,
		bdsK:        bdsK,
		auth:        make([]byte, int(height)*n),
		keep:        make([]byte, int(height/2)*n),
		n:           n,
		stack:       stack,
		stackLevels: make([]uint32, height+1),
		treehash:    th,
		retain:      retain,
	}
}

// treehashMinHeightOnStack reports the lowest level among the shared
// stack entries owned by th.
func treehashMinHeightOnStack(state *bdsState, th *treeHashInst) uint32 {
	r := ^uint32(0)
	for i := uint32(0); i < th.stackUsage; i++ {
		lev := state.stackLevels[state.stackOffset-i-1]
		if lev < r {
			r = lev
		}
	}
	return r
}

// treehashUpdateOne generates the next leaf owed to th and merges it
// into the shared stack as far as matching heights allow, completing th
// if its target level is reached.
func (ctx *Context) treehashUpdateOne(pad *scratchPad, th *treeHashInst,
	state *bdsState, skSeed, pubSeed []byte, addr address) {
	node := ctx.genLeaf(pad, skSeed, pubSeed, th.nextIdx, addr)
	nodeHeight := uint32(0)

	for th.stackUsage > 0 && state.stackLevels[state.stackOffset-1] == nodeHeight {
		left := state.stack[state.stackOffset-1]

		nodeAddr := addr
		nodeAddr.setType(addrTypeHashTree)
		nodeAddr.setTreeHeight(nodeHeight)
		nodeAddr.setTreeIndex(th.nextIdx >> (nodeHeight + 1))
		node = ctx.h(left, node, pubSeed, nodeAddr)

		nodeHeight++
		th.stackUsage--
		state.stackOffset--
	}

	if nodeHeight == th.level {
		copy(th.node, node)
		th.completed = true
	} else {
		copy(state.stack[state.stackOffset], node)
		th.stackUsage++
		state.stackLevels[state.stackOffset] = nodeHeight
		state.stackOffset++
		th.nextIdx++
	}
}

// bdsStateAdvance feeds state's next owed leaf (state.nextLeaf) into its
// own persistent shared stack, merging as far as matching heights allow,
// exactly as bdsTreehashUpdate does for an individual treehash instance,
// except here the "instance" is the whole subtree, run to completion
// one leaf at a time instead of in one call.  Along the way it captures
// the same auth/treehash-seed/retain nodes bdsTreehashInit would, so a
// subtree built up incrementally across many Sign calls (the XMSS-MT
// "next tree" warm-up) ends up byte-identical to one built in a single
// call.  Returns the completed root once the last leaf collapses the
// stack to one entry, nil while the subtree is still under
// construction.
func (ctx *Context) bdsStateAdvance(pad *scratchPad, state *bdsState,
	skSeed, pubSeed []byte, addr address) []byte {
	height, bdsK := state.height, state.bdsK
	if state.nextLeaf >= uint32(1)<<height {
		return nil
	}
	idx := state.nextLeaf
	node := ctx.genLeaf(pad, skSeed, pubSeed, idx, addr)
	nodeHeight := uint32(0)

	for state.stackOffset > 0 && state.stackLevels[state.stackOffset-1] == nodeHeight {
		top := state.stackOffset - 1
		left := state.stack[top]

		switch {
		case (idx >> nodeHeight) == 1:
			copy(state.authAt(nodeHeight), node)
		case nodeHeight < height-bdsK && (idx>>nodeHeight) == 3:
			copy(state.treehash[nodeHeight].node, node)
		case nodeHeight >= height-bdsK:
			off := (uint32(1) << (height - 1 - nodeHeight)) + nodeHeight - height
			row := ((idx >> nodeHeight) - 3) >> 1
			pos := off + row
			if int(pos) < len(state.retain) {
				copy(state.retain[pos], node)
			}
		}

		nodeAddr := addr
		nodeAddr.setType(addrTypeHashTree)
		nodeAddr.setTreeHeight(nodeHeight)
		nodeAddr.setTreeIndex(idx >> (nodeHeight + 1))
		node = ctx.h(left, node, pubSeed, nodeAddr)

		state.stackOffset--
		nodeHeight++
	}

	copy(state.stack[state.stackOffset], node)
	state.stackLevels[state.stackOffset] = nodeHeight
	state.stackOffset++
	state.nextLeaf++

	if state.nextLeaf == uint32(1)<<height && state.stackOffset == 1 {
		// The root stays behind in stack[0], where it survives
		// serialisation; stackOffset drops to 0 so the slot can be
		// reused once this state is reset for its next life.
		state.stackOffset = 0
		return append([]byte(nil), state.stack[0]...)
	}
	return nil
}

// bdsTreehashInit builds the subtree addressed by addr (layer and tree
// words already set) from scratch in one call, by running
// bdsStateAdvance to completion, populating a fresh bdsState's auth,
// retain and treehash-seed entries along the way, and returns the
// subtree root.  Run once per subtree, at Keygen and for the top
// (never-rotated) hypertree layer.
func (ctx *Context) bdsTreehashInit(pad *scratchPad, skSeed, pubSeed []byte,
	height, bdsK uint32, addr address) (*bdsState, []byte) {
	n := int(ctx.p.N)
	state := newBDSState(n, height, bdsK)

	for i := range state.treehash {
		state.treehash[i].completed = true
		state.treehash[i].stackUsage = 0
	}

	var root []byte
	for root == nil {
		root = ctx.bdsStateAdvance(pad, state, skSeed, pubSeed, addr)
	}
	return state, root
}

// bdsRound advances state from the authentication path of leafIdx to the
// authentication path of leafIdx+1, after a signature under leafIdx has
// just been produced.  Does nothing once leafIdx is the subtree's last
// leaf (there is no next authentication path to prepare).
func (ctx *Context) bdsRound(pad *scratchPad, state *bdsState, leafIdx uint32,
	skSeed, pubSeed []byte, addr address) {
	height, bdsK := state.height, state.bdsK
	if leafIdx == (uint32(1)<<height)-1 {
		return
	}

	tau := height
	for i := uint32(0); i < height; i++ {
		if (leafIdx>>i)&1 == 0 {
			tau = i
			break
		}
	}

	var left, right []byte
	if tau > 0 {
		left = make([]byte, state.n)
		right = make([]byte, state.n)
		copy(left, state.authAt(tau-1))
		copy(right, state.keepAt((tau-1)/2))
	}

	if (leafIdx>>(tau+1))&1 == 0 && tau < height-1 {
		copy(state.keepAt(tau/2), state.authAt(tau))
	}

	if tau == 0 {
		leaf := ctx.genLeaf(pad, skSeed, pubSeed, leafIdx, addr)
		copy(state.authAt(0), leaf)
		return
	}

	nodeAddr := addr
	nodeAddr.setType(addrTypeHashTree)
	nodeAddr.setTreeHeight(tau - 1)
	nodeAddr.setTreeIndex(leafIdx >> tau)
	copy(state.authAt(tau), ctx.h(left, right, pubSeed, nodeAddr))

	for i := uint32(0); i < tau; i++ {
		if i < height-bdsK {
			copy(state.authAt(i), state.treehash[i].node)
		} else {
			off := (uint32(1) << (height - 1 - i)) + i - height
			row := ((leafIdx >> i) - 1) >> 1
			pos := off + row
			if int(pos) < len(state.retain) {
				copy(state.authAt(i), state.retain[pos])
			}
		}
	}

	for i := uint32(0); i < tau && i < height-bdsK; i++ {
		startIdx := leafIdx + 1 + 3*(uint32(1)<<i)
		if startIdx < uint32(1)<<height {
			state.treehash[i].level = i
			state.treehash[i].nextIdx = startIdx
			state.treehash[i].completed = false
			state.treehash[i].stackUsage = 0
		}
	}
}

// bdsTreehashUpdate spends up to `updates` leaf-generation steps
// advancing whichever incomplete treehash instance is most urgently
// needed (the one whose next completion is closest), so the cost of
// preparing deep authentication-path nodes is spread over the
// signatures leading up to the round that needs them.
func (ctx *Context) bdsTreehashUpdate(pad *scratchPad, state *bdsState, updates uint32,
	skSeed, pubSeed []byte, addr address) {
	height, bdsK := state.height, state.bdsK
	limit := height - bdsK

	for j := uint32(0); j < updates; j++ {
		lMin := ^uint32(0)
		level := limit

		for i := uint32(0); i < limit; i++ {
			var low uint32
			switch {
			case state.treehash[i].completed:
				low = ^uint32(0)
			case state.treehash[i].stackUsage == 0:
				low = i
			default:
				low = treehashMinHeightOnStack(state, &state.treehash[i])
			}
			if low < lMin {
				level = i
				lMin = low
			}
		}

		if level == limit {
			log.Logf("bdsTreehashUpdate: no incomplete treehash instance to advance")
			break
		}

		ctx.treehashUpdateOne(pad, &state.treehash[level], state, skSeed, pubSeed, addr)
	}
}
