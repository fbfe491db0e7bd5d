package xmss

import (
	"bytes"
	"crypto/rand"
	"io"
)

// PrivateKeyMT is an XMSS-MT (D>1) signing key: the shared hypertree
// secrets, the global signing index, 2*D-1 BDS states and a cached
// WOTS+ signature of each non-top layer's current subtree root under
// the layer above it.
//
// bds[0:d] are the active subtree per layer, exactly as in the
// single-tree case; bds[d:2d-1] are the "next" subtree for every
// non-top layer (d-1 of them), warmed up leaf-by-leaf across the
// 2^tree_height signatures leading up to the boundary that needs them
// (bdsStateAdvance, called from advance below) so that the tree-index
// rollover at a layer boundary is O(1) amortised instead of an
// O(2^tree_height) stall.
type PrivateKeyMT struct {
	ctx *Context

	idx uint64

	skSeed  []byte
	skPrf   []byte
	pubSeed []byte
	root    []byte

	bdsK uint32
	bds  []*bdsState // d active (0..d-1) followed by d-1 next (d..2d-2, next[i] backs layer i)
	sigs [][]byte    // cached WOTS+ signature of layer i's root under layer i+1, i=0..d-2
}

// PublicKeyMT is an XMSS-MT public key: the top-layer tree root and the
// shared seed.
type PublicKeyMT struct {
	ctx     *Context
	root    []byte
	pubSeed []byte
}

// addrForTree sets addr's layer and tree words for the subtree at layer
// and treeIdx, per RFC 8391 §4.1.1's hypertree addressing.
func addrForTree(layer uint32, treeIdx uint64) address {
	var addr address
	addr.setLayer(layer)
	addr.setTree(treeIdx)
	return addr
}

// KeygenMT samples fresh XMSS-MT secrets and builds every layer's
// initial subtree, including the cached WOTS+ signatures binding each
// layer's root to the one above it.
func (ctx *Context) KeygenMT(bdsK uint32) (*PrivateKeyMT, *PublicKeyMT, Error) {
	return ctx.KeygenMTWithRNG(bdsK, rand.Reader)
}

// KeygenMTWithRNG is KeygenMT with the entropy source made explicit; see
// KeygenWithRNG.
func (ctx *Context) KeygenMTWithRNG(bdsK uint32, rng io.Reader) (*PrivateKeyMT, *PublicKeyMT, Error) {
	if ctx.p.D <= 1 {
		return nil, nil, paramErrorf("KeygenMT called with D=%d; use Keygen", ctx.p.D)
	}
	if bdsK%2 != 0 || bdsK > ctx.treeHeight {
		return nil, nil, paramErrorf("bds_k must be even and at most %d, got %d", ctx.treeHeight, bdsK)
	}
	n := int(ctx.p.N)
	d := ctx.p.D

	seed := make([]byte, 3*n)
	defer memzero(seed)
	if _, err := io.ReadFull(rng, seed); err != nil {
		return nil, nil, entropyErrorf("reading randomness for keygen: %v", err)
	}
	skSeed := append([]byte(nil), seed[:n]...)
	skPrf := append([]byte(nil), seed[n:2*n]...)
	pubSeed := append([]byte(nil), seed[2*n:3*n]...)

	pad := ctx.newScratchPad()

	// bds[0:d]: every layer's initial (tree index 0) subtree, built in
	// full. Each non-top layer's root is immediately signed by the
	// layer above, per RFC 8391 Algorithm 15.
	bds := make([]*bdsState, 2*d-1)
	roots := make([][]byte, d)
	for layer := uint32(0); layer < d; layer++ {
		addr := addrForTree(layer, 0)
		state, root := ctx.bdsTreehashInit(pad, skSeed, pubSeed, ctx.treeHeight, bdsK, addr)
		bds[layer] = state
		roots[layer] = root
	}

	// bds[d:2d-1]: the "next" (tree index 1) subtree for every non-top
	// layer, left empty (nextLeaf=0) to be warmed up incrementally by
	// Sign's state-advance step as the active tree below it is used.
	for layer := uint32(0); layer < d-1; layer++ {
		bds[d+layer] = newBDSState(n, ctx.treeHeight, bdsK)
	}

	sigs := make([][]byte, d-1)
	for layer := uint32(0); layer < d-1; layer++ {
		otsAddr := addrForTree(layer+1, 0)
		otsAddr.setType(addrTypeOTS)
		otsAddr.setOTS(0)
		sigs[layer] = ctx.wotsSign(pad, roots[layer], skSeed, pubSeed, otsAddr)
	}

	sk := &PrivateKeyMT{
		ctx:     ctx,
		idx:     0,
		skSeed:  skSeed,
		skPrf:   skPrf,
		pubSeed: pubSeed,
		root:    roots[d-1],
		bdsK:    bdsK,
		bds:     bds,
		sigs:    sigs,
	}
	pk := &PublicKeyMT{ctx: ctx, root: roots[d-1], pubSeed: pubSeed}
	return sk, pk, nil
}

// idxTree returns idx's tree index at layer, and idxLeaf returns its
// leaf index within that tree.
func (ctx *Context) idxTree(idx uint64, layer uint32) uint64 {
	return idx >> ((uint64(layer) + 1) * uint64(ctx.treeHeight))
}

func (ctx *Context) idxLeaf(idx uint64, layer uint32) uint32 {
	mask := (uint64(1) << ctx.treeHeight) - 1
	return uint32((idx >> (uint64(layer) * uint64(ctx.treeHeight))) & mask)
}

// Sign produces an XMSS-MT signature over msg and advances sk's state
// by one leaf: sk.idx is incremented before any signature bytes are
// produced, so a crash mid-sign can waste a leaf but never reuse one.
// It fails with Exhausted once idx exceeds idx_max.
func (sk *PrivateKeyMT) Sign(msg []byte) ([]byte, Error) {
	ctx := sk.ctx
	n := int(ctx.p.N)
	d := ctx.p.D
	idxMax := ctx.p.IdxMax()
	if sk.idx > idxMax {
		return nil, exhaustedErrorf("private key exhausted: idx %d > idx_max %d", sk.idx, idxMax)
	}
	idx := sk.idx
	sk.idx++
	pad := ctx.newScratchPad()

	r := ctx.prfUint64(pad, idx, sk.skPrf)
	m, err := ctx.hashMessage(pad, bytes.NewReader(msg), r, sk.root, idx)
	if err != nil {
		return nil, wrapError(VerifyFailed, err, "hashing message")
	}

	idxBytes := int(ctx.p.IdxBytes())
	sig := make([]byte, 0, ctx.p.SigBytes())
	sig = append(sig, encodeUint64(idx, idxBytes)...)
	sig = append(sig, r...)

	leaf0 := ctx.idxLeaf(idx, 0)
	otsAddr := addrForTree(0, ctx.idxTree(idx, 0))
	otsAddr.setType(addrTypeOTS)
	otsAddr.setOTS(leaf0)
	sig = append(sig, ctx.wotsSign(pad, m, sk.skSeed, sk.pubSeed, otsAddr)...)
	sig = append(sig, authPathBytes(sk.bds[0], ctx.treeHeight, n)...)

	for layer := uint32(1); layer < d; layer++ {
		sig = append(sig, sk.sigs[layer-1]...)
		sig = append(sig, authPathBytes(sk.bds[layer], ctx.treeHeight, n)...)
	}

	if idx < idxMax {
		sk.advance(pad, idx)
	}

	if rem := sk.RemainingSigs(); rem <= remainingSigsWatermark {
		log.Logf("xmssmt: key down to %d remaining signature(s)", rem)
	}

	return sig, nil
}

// advance brings every layer's BDS state, its "next" subtree's
// incremental build and any cached root signature up to date for
// idx+1, having just produced a signature under idx.  One mandatory
// warm-up step for the layer-0 next tree; then, per layer, either an
// ordinary round (bdsRound only on the first layer above a boundary
// just crossed this call, tracked by needSwapUpto) plus a treehash
// update, or, at a tree boundary, a swap of the warmed-up next tree into
// place followed by re-signing its root at the layer above.  Each
// layer's treehash update is given the updates counter as it stands;
// its leaf steps are not deducted from it.  Only next-tree advances and
// boundary re-signings decrement the counter.
func (sk *PrivateKeyMT) advance(pad *scratchPad, idx uint64) {
	ctx := sk.ctx
	d := ctx.p.D
	th := ctx.treeHeight
	bdsK := sk.bdsK
	updates := (th - bdsK) / 2

	// Mandatory warm-up step for the layer-0 next tree: unconditional,
	// and not drawn from the shared updates budget, since layer 0's
	// next tree must finish building within exactly 2^th signatures.
	idxTree0 := ctx.idxTree(idx, 0)
	idxLeaf0 := ctx.idxLeaf(idx, 0)
	if (1+idxTree0)<<th+uint64(idxLeaf0) < uint64(1)<<ctx.p.FullHeight {
		addr := addrForTree(0, idxTree0+1)
		ctx.bdsStateAdvance(pad, sk.bds[d], sk.skSeed, sk.pubSeed, addr)
	}

	needSwapUpto := -1
	for layer := uint32(0); layer < d; layer++ {
		boundary := (idx+1)&((uint64(1)<<((layer+1)*th))-1) == 0

		if !boundary {
			leaf := ctx.idxLeaf(idx, layer)
			treeIdx := ctx.idxTree(idx, layer)
			addr := addrForTree(layer, treeIdx)

			if int(layer) == needSwapUpto+1 {
				ctx.bdsRound(pad, sk.bds[layer], leaf, sk.skSeed, sk.pubSeed, addr)
			}
			ctx.bdsTreehashUpdate(pad, sk.bds[layer], updates, sk.skSeed, sk.pubSeed, addr)

			if layer > 0 && layer < d-1 && updates > 0 {
				nextAddr := addrForTree(layer, treeIdx+1)
				within := (1+treeIdx)<<th+uint64(leaf) < uint64(1)<<(ctx.p.FullHeight-th*layer)
				next := sk.bds[d+layer]
				if within && next.nextLeaf < uint32(1)<<th {
					ctx.bdsStateAdvance(pad, next, sk.skSeed, sk.pubSeed, nextAddr)
					updates--
				}
			}
			continue
		}

		if layer == d-1 {
			// The top layer's tree spans the whole key and never rolls
			// over while advance runs (Sign only calls it for idx <
			// idx_max); there is no "next" slot to swap in for it.
			continue
		}

		// Tree boundary at this layer: the warmed-up next tree (built
		// incrementally by bdsStateAdvance above, across the 2^th
		// signatures leading up to here) becomes the new active tree.
		sk.bds[layer], sk.bds[d+layer] = sk.bds[d+layer], sk.bds[layer]

		newIdx := idx + 1
		aboveTree := ctx.idxTree(newIdx, layer+1)
		aboveLeaf := ctx.idxLeaf(newIdx, layer+1)
		otsAddr := addrForTree(layer+1, aboveTree)
		otsAddr.setType(addrTypeOTS)
		otsAddr.setOTS(aboveLeaf)
		// The completed next tree's root was left in stack[0] by its
		// final bdsStateAdvance step, so it is available here even if
		// the key was serialised and reloaded in between.
		sk.sigs[layer] = ctx.wotsSign(pad, sk.bds[layer].stack[0], sk.skSeed, sk.pubSeed, otsAddr)

		sk.bds[d+layer].nextLeaf = 0
		sk.bds[d+layer].stackOffset = 0

		if updates > 0 {
			updates--
		}
		needSwapUpto = int(layer)

		// Park the newly active tree's treehash instances: they were
		// seeded correctly for leaf 0 by the bdsStateAdvance build just
		// completed, but bds_treehash_update must not touch them again
		// until the bds_round above properly reinitialises them for
		// leaf 1 onward.
		for j := range sk.bds[layer].treehash {
			sk.bds[layer].treehash[j].completed = true
		}
	}
}

func authPathBytes(state *bdsState, height uint32, n int) []byte {
	buf := make([]byte, int(height)*n)
	for i := uint32(0); i < height; i++ {
		copy(buf[int(i)*n:int(i+1)*n], state.authAt(i))
	}
	return buf
}

// Verify reports whether sig is a valid XMSS-MT signature over msg
// under pk.
func (pk *PublicKeyMT) Verify(sig, msg []byte) Error {
	ctx := pk.ctx
	n := int(ctx.p.N)
	d := ctx.p.D
	idxBytes := int(ctx.p.IdxBytes())
	if len(sig) != int(ctx.p.SigBytes()) {
		return verifyFailedErrorf("signature has wrong length: got %d, want %d", len(sig), ctx.p.SigBytes())
	}

	idx := decodeUint64(sig[:idxBytes])
	if idx > ctx.p.IdxMax() {
		return verifyFailedErrorf("signature index %d exceeds idx_max %d", idx, ctx.p.IdxMax())
	}
	off := idxBytes
	r := sig[off : off+n]
	off += n

	pad := ctx.newScratchPad()
	m, err := ctx.hashMessage(pad, bytes.NewReader(msg), r, pk.root, idx)
	if err != nil {
		return verifyFailedErrorf("hashing message: %v", err)
	}

	node := m
	for layer := uint32(0); layer < d; layer++ {
		wotsSig := sig[off : off+int(ctx.p.WotsSignatureSize())]
		off += int(ctx.p.WotsSignatureSize())
		authPath := sig[off : off+int(ctx.treeHeight)*n]
		off += int(ctx.treeHeight) * n

		leaf := ctx.idxLeaf(idx, layer)
		treeIdx := ctx.idxTree(idx, layer)

		otsAddr := addrForTree(layer, treeIdx)
		otsAddr.setType(addrTypeOTS)
		otsAddr.setOTS(leaf)
		wotsPk := ctx.wotsPkFromSig(pad, wotsSig, node, pk.pubSeed, otsAddr)

		ltreeAddr := addrForTree(layer, treeIdx)
		ltreeAddr.setType(addrTypeLTree)
		ltreeAddr.setLTree(leaf)
		node = ctx.lTree(pad, wotsPk, pk.pubSeed, ltreeAddr)

		nodeAddr := addrForTree(layer, treeIdx)
		nodeAddr.setType(addrTypeHashTree)
		idxShift := leaf
		for i := uint32(0); i < ctx.treeHeight; i++ {
			sibling := authPath[int(i)*n : int(i+1)*n]
			nodeAddr.setTreeHeight(i)
			nodeAddr.setTreeIndex(idxShift >> 1)
			if idxShift&1 == 0 {
				node = ctx.h(node, sibling, pk.pubSeed, nodeAddr)
			} else {
				node = ctx.h(sibling, node, pk.pubSeed, nodeAddr)
			}
			idxShift >>= 1
		}
	}

	if !ctEqual(node, pk.root) {
		return verifyFailedErrorf("computed root does not match public key")
	}
	return nil
}

// RemainingSigs reports how many more signatures sk can produce before
// it is Exhausted.
func (sk *PrivateKeyMT) RemainingSigs() uint64 {
	idxMax := sk.ctx.p.IdxMax()
	if sk.idx > idxMax {
		return 0
	}
	return idxMax - sk.idx + 1
}

// Bytes serializes sk's fixed-size fields (OID, idx, SK_SEED, SK_PRF,
// root, SEED); the per-layer BDS traversal states and cached root
// signatures are serialized separately by SerializeBDS/CachedSigs.
func (sk *PrivateKeyMT) Bytes() []byte {
	ctx := sk.ctx
	_, oid := lookupNameAndOid(ctx.p)
	idxBytes := int(ctx.p.IdxBytes())
	buf := make([]byte, 0, ctx.p.SkBytes())
	buf = append(buf, encodeUint64(uint64(oid), 4)...)
	buf = append(buf, encodeUint64(sk.idx, idxBytes)...)
	buf = append(buf, sk.skSeed...)
	buf = append(buf, sk.skPrf...)
	buf = append(buf, sk.root...)
	buf = append(buf, sk.pubSeed...)
	return buf
}

// Bytes serializes pk (OID, root, SEED).
func (pk *PublicKeyMT) Bytes() []byte {
	ctx := pk.ctx
	_, oid := lookupNameAndOid(ctx.p)
	buf := make([]byte, 0, ctx.p.PkBytes())
	buf = append(buf, encodeUint64(uint64(oid), 4)...)
	buf = append(buf, pk.root...)
	buf = append(buf, pk.pubSeed...)
	return buf
}

// SerializeBDS returns the byte-exact encoding of each of sk's 2*D-1
// BDS states: the D active subtrees (layer 0 first) followed by the
// D-1 "next" subtrees.
func (sk *PrivateKeyMT) SerializeBDS() [][]byte {
	out := make([][]byte, len(sk.bds))
	for i, state := range sk.bds {
		out[i] = state.serialize()
	}
	return out
}

// CachedSigs returns sk's D-1 cached WOTS+ signatures binding each
// non-top layer's current subtree root to the layer above it, layer 0
// first.
func (sk *PrivateKeyMT) CachedSigs() [][]byte {
	return sk.sigs
}

// PrivateKeyMTFromBytes reconstructs an XMSS-MT private key from its
// fixed-size fields, its 2*D-1 BDS states (the D active subtrees
// followed by the D-1 "next" subtrees, in the order SerializeBDS
// produces them) and its D-1 cached root signatures, all as produced by
// Bytes/SerializeBDS/CachedSigs for the same bdsK.
func (ctx *Context) PrivateKeyMTFromBytes(buf []byte, bdsBufs [][]byte, cachedSigs [][]byte, bdsK uint32) (*PrivateKeyMT, Error) {
	d := ctx.p.D
	if d <= 1 {
		return nil, paramErrorf("PrivateKeyMTFromBytes called with D=%d; use PrivateKeyFromBytes", d)
	}
	n := int(ctx.p.N)
	idxBytes := int(ctx.p.IdxBytes())
	if len(buf) != int(ctx.p.SkBytes()) {
		return nil, paramErrorf("private key buffer has wrong size: got %d, want %d", len(buf), ctx.p.SkBytes())
	}
	if uint32(len(bdsBufs)) != 2*d-1 {
		return nil, paramErrorf("expected %d BDS states, got %d", 2*d-1, len(bdsBufs))
	}
	if uint32(len(cachedSigs)) != d-1 {
		return nil, paramErrorf("expected %d cached signatures, got %d", d-1, len(cachedSigs))
	}
	_, wantOid := lookupNameAndOid(ctx.p)
	if gotOid := uint32(decodeUint64(buf[:4])); gotOid != wantOid {
		return nil, paramErrorf("private key oid %#x does not match context oid %#x", gotOid, wantOid)
	}
	off := 4
	idx := decodeUint64(buf[off : off+idxBytes])
	off += idxBytes
	skSeed := append([]byte(nil), buf[off:off+n]...)
	off += n
	skPrf := append([]byte(nil), buf[off:off+n]...)
	off += n
	root := append([]byte(nil), buf[off:off+n]...)
	off += n
	pubSeed := append([]byte(nil), buf[off:off+n]...)

	bds := make([]*bdsState, 2*d-1)
	for i := uint32(0); i < 2*d-1; i++ {
		state, err := deserializeBDSState(bdsBufs[i], n, ctx.treeHeight, bdsK)
		if err != nil {
			return nil, wrapError(ParamError, err, "deserializing BDS state %d", i)
		}
		bds[i] = state
	}

	sigs := make([][]byte, d-1)
	for i := range sigs {
		sigs[i] = append([]byte(nil), cachedSigs[i]...)
	}

	return &PrivateKeyMT{
		ctx:     ctx,
		idx:     idx,
		skSeed:  skSeed,
		skPrf:   skPrf,
		pubSeed: pubSeed,
		root:    root,
		bdsK:    bdsK,
		bds:     bds,
		sigs:    sigs,
	}, nil
}

// PublicKeyMTFromBytes reconstructs an XMSS-MT public key from its wire
// encoding, checking that the embedded OID matches ctx's parameter set.
func (ctx *Context) PublicKeyMTFromBytes(buf []byte) (*PublicKeyMT, Error) {
	n := int(ctx.p.N)
	if len(buf) != int(ctx.p.PkBytes()) {
		return nil, paramErrorf("public key buffer has wrong size: got %d, want %d", len(buf), ctx.p.PkBytes())
	}
	_, wantOid := lookupNameAndOid(ctx.p)
	if gotOid := uint32(decodeUint64(buf[:4])); gotOid != wantOid {
		return nil, paramErrorf("public key oid %#x does not match context oid %#x", gotOid, wantOid)
	}
	root := append([]byte(nil), buf[4:4+n]...)
	pubSeed := append([]byte(nil), buf[4+n:4+2*n]...)
	return &PublicKeyMT{ctx: ctx, root: root, pubSeed: pubSeed}, nil
}
