package xmss

// An ADRS: a 32-byte address that domain-separates every hash call made
// while building a WOTS+ chain, an L-tree or a Merkel subtree, encoded as
// eight big-endian 32-bit words (RFC 8391 §2.5).
type address [8]uint32

const (
	addrTypeOTS      = 0
	addrTypeLTree    = 1
	addrTypeHashTree = 2
)

func (addr *address) setLayer(layer uint32) {
	addr[0] = layer
}

func (addr *address) setTree(tree uint64) {
	addr[1] = uint32(tree >> 32)
	addr[2] = uint32(tree)
}

// setType sets the address type and, per RFC 8391, resets every
// type-specific word (4 through 7) to zero: words 4-7 mean different
// things for OTS, L-tree and hash-tree addresses and must never leak a
// stale value across a type change.
func (addr *address) setType(typ uint32) {
	addr[3] = typ
	addr[4] = 0
	addr[5] = 0
	addr[6] = 0
	addr[7] = 0
}

func (addr *address) setKeyAndMask(keyAndMask uint32) {
	addr[7] = keyAndMask
}

// setSubTreeFrom copies the layer and tree-address words of other, leaving
// the type-specific words (4-7) of addr untouched.
func (addr *address) setSubTreeFrom(other address) {
	addr[0] = other[0]
	addr[1] = other[1]
	addr[2] = other[2]
}

func (addr *address) setOTS(ots uint32)               { addr[4] = ots }
func (addr *address) setChain(chain uint32)           { addr[5] = chain }
func (addr *address) setHash(hash uint32)             { addr[6] = hash }
func (addr *address) setLTree(ltree uint32)           { addr[4] = ltree }
func (addr *address) setTreeHeight(treeHeight uint32) { addr[5] = treeHeight }
func (addr *address) setTreeIndex(treeIndex uint32)   { addr[6] = treeIndex }

func (addr *address) toBytes() []byte {
	buf := make([]byte, 32)
	addr.writeInto(buf)
	return buf
}

func (addr *address) writeInto(buf []byte) {
	for i := 0; i < 8; i++ {
		encodeUint64Into(uint64(addr[i]), buf[i*4:(i+1)*4])
	}
}
