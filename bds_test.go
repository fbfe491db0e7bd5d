package xmss

import "testing"

// siblingSubtreeStart returns the index of the first leaf of the
// subtree of height `level` that is leafIdx's sibling at that level:
// exactly the subtree the auth path entry at that level must cover.
func siblingSubtreeStart(leafIdx, level uint32) uint32 {
	return (leafIdx ^ (1 << level)) &^ ((uint32(1) << level) - 1)
}

// The BDS engine's authentication path, maintained incrementally via
// bdsTreehashInit/bdsRound/bdsTreehashUpdate, must agree at every leaf
// with the authentication path recomputed from scratch by the plain
// iterative treehash (computeRoot) -- this is the amortisation's whole
// correctness obligation.
func TestBDSAuthPathMatchesNaiveRecomputation(t *testing.T) {
	for _, bdsK := range []uint32{0, 2, 4} {
		height := uint32(4)
		ctx := testCtx(t, Params{Func: SHA2, N: 32, FullHeight: height, D: 1, WotsW: 16})
		n := int(ctx.p.N)
		skSeed := make([]byte, n)
		pubSeed := make([]byte, n)
		for i := range skSeed {
			skSeed[i] = byte(i + 1)
			pubSeed[i] = byte(2*i + 1)
		}

		pad := ctx.newScratchPad()
		var addr address
		state, _ := ctx.bdsTreehashInit(pad, skSeed, pubSeed, height, bdsK, addr)

		last := uint32(1)<<height - 1
		for leafIdx := uint32(0); leafIdx <= last; leafIdx++ {
			for lvl := uint32(0); lvl < height; lvl++ {
				start := siblingSubtreeStart(leafIdx, lvl)
				want := ctx.computeRoot(pad, skSeed, pubSeed, start, lvl, addr)
				got := state.authAt(lvl)
				if !hexEq(want, got) {
					t.Fatalf("bds_k=%d leaf=%d level=%d: auth path mismatch", bdsK, leafIdx, lvl)
				}
			}
			if leafIdx < last {
				ctx.bdsRound(pad, state, leafIdx, skSeed, pubSeed, addr)
				updates := (height - bdsK) / 2
				ctx.bdsTreehashUpdate(pad, state, updates, skSeed, pubSeed, addr)
			}
		}
	}
}

// bds_k must be even and at most tree_height; newBDSState/bdsTreehashInit
// themselves don't validate this (Keygen does), so this pins the
// boundary values that a correct Keygen call accepts.
func TestBDSStateShapeForBdsK(t *testing.T) {
	height := uint32(6)
	n := 32
	for _, bdsK := range []uint32{0, 2, 4, 6} {
		state := newBDSState(n, height, bdsK)
		if uint32(len(state.treehash)) != height-bdsK {
			t.Errorf("bds_k=%d: %d treehash instances, want %d", bdsK, len(state.treehash), height-bdsK)
		}
		wantRetain := 0
		if bdsK > 0 {
			wantRetain = int((uint32(1) << bdsK) - bdsK - 1)
		}
		if len(state.retain) != wantRetain {
			t.Errorf("bds_k=%d: %d retain slots, want %d", bdsK, len(state.retain), wantRetain)
		}
	}
}
