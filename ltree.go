package xmss

// lTree reduces a WOTS+ public key (wotsLen n-byte chain ends) to a
// single n-byte Merkle leaf (RFC 8391 §4.1.4, Algorithm 6): pairs of
// nodes are hashed together level by level, and an unpaired trailing
// node is carried up to the next level unchanged.
func (ctx *Context) lTree(pad *scratchPad, pk, pubSeed []byte, addr address) []byte {
	n := ctx.p.N
	l := ctx.wotsLen
	buf := make([]byte, len(pk))
	copy(buf, pk)

	var height uint32
	for l > 1 {
		addr.setTreeHeight(height)
		parent := l / 2
		for i := uint32(0); i < parent; i++ {
			addr.setTreeIndex(i)
			ctx.hInto(pad, buf[2*i*n:(2*i+1)*n], buf[(2*i+1)*n:(2*i+2)*n],
				pubSeed, addr, buf[i*n:(i+1)*n])
		}
		if l%2 == 1 {
			copy(buf[parent*n:(parent+1)*n], buf[(l-1)*n:l*n])
			l = parent + 1
		} else {
			l = parent
		}
		height++
	}
	return buf[:n]
}

// genLeaf derives the leafIdx'th Merkle leaf of the subtree whose layer
// and tree words are already set in addr: the WOTS+ public key at that
// index, reduced through lTree.  addr is passed by value; the OTS and
// L-tree addresses are each built on their own copy of it.
func (ctx *Context) genLeaf(pad *scratchPad, skSeed, pubSeed []byte,
	leafIdx uint32, addr address) []byte {
	otsAddr := addr
	otsAddr.setType(addrTypeOTS)
	otsAddr.setOTS(leafIdx)
	pk := ctx.wotsPkGen(pad, skSeed, pubSeed, otsAddr)

	ltreeAddr := addr
	ltreeAddr.setType(addrTypeLTree)
	ltreeAddr.setLTree(leafIdx)
	return ctx.lTree(pad, pk, pubSeed, ltreeAddr)
}
