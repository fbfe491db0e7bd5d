package xmss

import (
	"bytes"
	"crypto/rand"
	"io"
)

// PrivateKey is a single-tree XMSS (D=1) signing key: the hypertree
// secrets, the currently-reached leaf index, and the BDS traversal state
// for the one tree the key ever signs with.
type PrivateKey struct {
	ctx *Context

	idx uint64

	skSeed  []byte
	skPrf   []byte
	pubSeed []byte
	root    []byte

	bds *bdsState
}

// PublicKey is an XMSS public key: the tree root and the seed used to
// derive every bitmask and key input throughout the tree.
type PublicKey struct {
	ctx     *Context
	root    []byte
	pubSeed []byte
}

// Keygen samples fresh XMSS secrets and builds the whole signing tree,
// priming the BDS state so the first Sign call has an authentication
// path ready. bdsK selects how many of the top tree levels are kept
// fully retained rather than amortised: it must be even and at
// most the tree height. It fails with a ParamError if bdsK is invalid or
// the parameter set has D != 1, and with an EntropyError if the system
// RNG can't be read.
func (ctx *Context) Keygen(bdsK uint32) (*PrivateKey, *PublicKey, Error) {
	return ctx.KeygenWithRNG(bdsK, rand.Reader)
}

// KeygenWithRNG is Keygen with the entropy source made explicit: rng is
// read for exactly 3*n bytes (SK_SEED || SK_PRF || SEED) and never
// retried. A test harness wanting the RFC 8391 known-answer vectors
// passes a deterministic byte-counter reader here instead of
// crypto/rand.Reader.
func (ctx *Context) KeygenWithRNG(bdsK uint32, rng io.Reader) (*PrivateKey, *PublicKey, Error) {
	if ctx.p.D != 1 {
		return nil, nil, paramErrorf("Keygen (single-tree) called with D=%d; use KeygenMT", ctx.p.D)
	}
	if bdsK%2 != 0 || bdsK > ctx.treeHeight {
		return nil, nil, paramErrorf("bds_k must be even and at most %d, got %d", ctx.treeHeight, bdsK)
	}
	n := int(ctx.p.N)

	seed := make([]byte, 3*n)
	defer memzero(seed)
	if _, err := io.ReadFull(rng, seed); err != nil {
		return nil, nil, entropyErrorf("reading randomness for keygen: %v", err)
	}
	skSeed := append([]byte(nil), seed[:n]...)
	skPrf := append([]byte(nil), seed[n:2*n]...)
	pubSeed := append([]byte(nil), seed[2*n:3*n]...)

	pad := ctx.newScratchPad()
	var addr address
	bds, root := ctx.bdsTreehashInit(pad, skSeed, pubSeed, ctx.treeHeight, bdsK, addr)

	sk := &PrivateKey{
		ctx:     ctx,
		idx:     0,
		skSeed:  skSeed,
		skPrf:   skPrf,
		pubSeed: pubSeed,
		root:    root,
		bds:     bds,
	}
	pk := &PublicKey{ctx: ctx, root: root, pubSeed: pubSeed}
	return sk, pk, nil
}

// Sign produces a signature over msg and advances sk's state by one
// leaf. It fails with Exhausted once every leaf of the tree has been
// used.
func (sk *PrivateKey) Sign(msg []byte) ([]byte, Error) {
	ctx := sk.ctx
	n := int(ctx.p.N)
	idxMax := ctx.p.IdxMax()
	if sk.idx > idxMax {
		return nil, exhaustedErrorf("private key exhausted: idx %d > idx_max %d", sk.idx, idxMax)
	}
	idx := sk.idx
	sk.idx++
	leafIdx := uint32(idx)

	pad := ctx.newScratchPad()

	r := ctx.prfUint64(pad, idx, sk.skPrf)
	m, err := ctx.hashMessage(pad, bytes.NewReader(msg), r, sk.root, idx)
	if err != nil {
		return nil, wrapError(VerifyFailed, err, "hashing message")
	}

	idxBytes := ctx.p.IdxBytes()
	sig := make([]byte, 0, ctx.p.SigBytes())
	sig = append(sig, encodeUint64(idx, int(idxBytes))...)
	sig = append(sig, r...)

	var otsAddr address
	otsAddr.setType(addrTypeOTS)
	otsAddr.setOTS(leafIdx)
	sig = append(sig, ctx.wotsSign(pad, m, sk.skSeed, sk.pubSeed, otsAddr)...)

	authPath := make([]byte, int(ctx.treeHeight)*n)
	for i := uint32(0); i < ctx.treeHeight; i++ {
		copy(authPath[int(i)*n:int(i+1)*n], sk.bds.authAt(i))
	}
	sig = append(sig, authPath...)

	if idx < idxMax {
		var addr address
		ctx.bdsRound(pad, sk.bds, leafIdx, sk.skSeed, sk.pubSeed, addr)
		updates := (ctx.treeHeight - sk.bds.bdsK) / 2
		ctx.bdsTreehashUpdate(pad, sk.bds, updates, sk.skSeed, sk.pubSeed, addr)
	}

	if rem := sk.RemainingSigs(); rem <= remainingSigsWatermark {
		log.Logf("xmss: key down to %d remaining signature(s)", rem)
	}

	return sig, nil
}

// Verify reports whether sig is a valid XMSS signature over msg under
// pk, returning nil on success and a VerifyFailed error on any mismatch
// or malformed signature.
func (pk *PublicKey) Verify(sig, msg []byte) Error {
	ctx := pk.ctx
	n := int(ctx.p.N)
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
	wotsSig := sig[off : off+int(ctx.p.WotsSignatureSize())]
	off += int(ctx.p.WotsSignatureSize())
	authPath := sig[off : off+int(ctx.treeHeight)*n]

	pad := ctx.newScratchPad()
	m, err := ctx.hashMessage(pad, bytes.NewReader(msg), r, pk.root, idx)
	if err != nil {
		return verifyFailedErrorf("hashing message: %v", err)
	}

	leafIdx := uint32(idx)
	var otsAddr address
	otsAddr.setType(addrTypeOTS)
	otsAddr.setOTS(leafIdx)
	wotsPk := ctx.wotsPkFromSig(pad, wotsSig, m, pk.pubSeed, otsAddr)

	var ltreeAddr address
	ltreeAddr.setType(addrTypeLTree)
	ltreeAddr.setLTree(leafIdx)
	node := ctx.lTree(pad, wotsPk, pk.pubSeed, ltreeAddr)

	var nodeAddr address
	nodeAddr.setType(addrTypeHashTree)
	idxShift := leafIdx
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

	if !ctEqual(node, pk.root) {
		return verifyFailedErrorf("computed root does not match public key")
	}
	return nil
}

// Bytes serializes sk's fixed-size fields (OID, idx, SK_SEED, SK_PRF,
// root, SEED); BDS traversal state is serialized separately by
// bdsserialize.go.
func (sk *PrivateKey) Bytes() []byte {
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
func (pk *PublicKey) Bytes() []byte {
	ctx := pk.ctx
	_, oid := lookupNameAndOid(ctx.p)
	buf := make([]byte, 0, ctx.p.PkBytes())
	buf = append(buf, encodeUint64(uint64(oid), 4)...)
	buf = append(buf, pk.root...)
	buf = append(buf, pk.pubSeed...)
	return buf
}

// RemainingSigs reports how many more signatures sk can produce before
// it is Exhausted: idx_max - idx + 1, or 0 once idx has run past idx_max.
func (sk *PrivateKey) RemainingSigs() uint64 {
	idxMax := sk.ctx.p.IdxMax()
	if sk.idx > idxMax {
		return 0
	}
	return idxMax - sk.idx + 1
}

// BDSSerializedSize returns the number of bytes SerializeBDS/
// PrivateKeyFromBytes read or write for this Context's tree height and
// bdsK.
func (ctx *Context) BDSSerializedSize(bdsK uint32) int {
	return bdsSerializedSize(int(ctx.p.N), ctx.treeHeight, bdsK)
}

// SerializeBDS returns the byte-exact encoding of sk's BDS traversal
// state, separate from the fixed-size fields Bytes returns.
func (sk *PrivateKey) SerializeBDS() []byte {
	return sk.bds.serialize()
}

// PrivateKeyFromBytes reconstructs a single-tree XMSS private key from
// its fixed-size fields (as produced by Bytes) and its BDS traversal
// state (as produced by SerializeBDS, for the same bdsK it was built
// with).
func (ctx *Context) PrivateKeyFromBytes(buf, bdsBuf []byte, bdsK uint32) (*PrivateKey, Error) {
	if ctx.p.D != 1 {
		return nil, paramErrorf("PrivateKeyFromBytes (single-tree) called with D=%d", ctx.p.D)
	}
	n := int(ctx.p.N)
	idxBytes := int(ctx.p.IdxBytes())
	if len(buf) != int(ctx.p.SkBytes()) {
		return nil, paramErrorf("private key buffer has wrong size: got %d, want %d", len(buf), ctx.p.SkBytes())
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

	bds, err := deserializeBDSState(bdsBuf, n, ctx.treeHeight, bdsK)
	if err != nil {
		return nil, wrapError(ParamError, err, "deserializing BDS state")
	}

	return &PrivateKey{
		ctx:     ctx,
		idx:     idx,
		skSeed:  skSeed,
		skPrf:   skPrf,
		pubSeed: pubSeed,
		root:    root,
		bds:     bds,
	}, nil
}

// PublicKeyFromBytes reconstructs an XMSS public key from its wire
// encoding (OID, root, SEED), checking that the embedded OID matches
// ctx's parameter set.
func (ctx *Context) PublicKeyFromBytes(buf []byte) (*PublicKey, Error) {
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
	return &PublicKey{ctx: ctx, root: root, pubSeed: pubSeed}, nil
}
