package xmss

import "testing"

// lTree must be deterministic and must fold every WOTS+ chain-end into
// the leaf: perturbing any single input chain changes the output.
func TestLTreeDeterministicAndSensitive(t *testing.T) {
	ctx := testCtx(t, Params{Func: SHA2, N: 32, FullHeight: 4, D: 1, WotsW: 16})
	n := int(ctx.p.N)
	pubSeed := make([]byte, n)
	for i := range pubSeed {
		pubSeed[i] = byte(i)
	}
	pk := make([]byte, int(ctx.wotsLen)*n)
	for i := range pk {
		pk[i] = byte(i)
	}

	var addr address
	addr.setType(addrTypeLTree)
	pad := ctx.newScratchPad()

	leaf1 := ctx.lTree(pad, append([]byte(nil), pk...), pubSeed, addr)
	leaf2 := ctx.lTree(pad, append([]byte(nil), pk...), pubSeed, addr)
	if !hexEq(leaf1, leaf2) {
		t.Error("lTree is not deterministic")
	}
	if len(leaf1) != n {
		t.Fatalf("lTree output length = %d, want %d", len(leaf1), n)
	}

	pk2 := append([]byte(nil), pk...)
	pk2[len(pk2)-1] ^= 1 // perturb the last (possibly unpaired) chain end
	leaf3 := ctx.lTree(pad, pk2, pubSeed, addr)
	if hexEq(leaf1, leaf3) {
		t.Error("lTree output did not change when the last chain end changed")
	}
}

// genLeaf must be a pure function of (skSeed, pubSeed, leafIdx, addr):
// the same index always yields the same leaf, and different indices
// (almost certainly) yield different leaves.
func TestGenLeafDeterministic(t *testing.T) {
	ctx := testCtx(t, Params{Func: SHA2, N: 32, FullHeight: 4, D: 1, WotsW: 16})
	n := int(ctx.p.N)
	skSeed := make([]byte, n)
	pubSeed := make([]byte, n)
	for i := range skSeed {
		skSeed[i] = byte(i)
		pubSeed[i] = byte(2 * i)
	}
	pad := ctx.newScratchPad()
	var addr address

	l0a := ctx.genLeaf(pad, skSeed, pubSeed, 0, addr)
	l0b := ctx.genLeaf(pad, skSeed, pubSeed, 0, addr)
	l1 := ctx.genLeaf(pad, skSeed, pubSeed, 1, addr)

	if !hexEq(l0a, l0b) {
		t.Error("genLeaf(idx=0) is not deterministic")
	}
	if hexEq(l0a, l1) {
		t.Error("genLeaf(idx=0) == genLeaf(idx=1)")
	}
}
