package xmss

// WOTS+ one-time signatures (RFC 8391 §3.1).

// wotsExpandSeed expands a WOTS+ secret seed into the len secret chain
// starts using PRF_keygen, one call per chain so that individual chains
// can be regenerated without expanding the whole key.
func (ctx *Context) wotsExpandSeed(pad *scratchPad, skSeed, pubSeed []byte,
	addr address) []byte {
	ret := make([]byte, ctx.p.N*ctx.wotsLen)
	// addr arrives as an OTS address with its OTS index (word 4) already
	// set by the caller; only the chain, hash and key-and-mask words are
	// filled in below.
	var i uint32
	for i = 0; i < ctx.wotsLen; i++ {
		addr.setChain(i)
		addr.setHash(0)
		addr.setKeyAndMask(0)
		ctx.prfKeyGenInto(pad, skSeed, pubSeed, addr,
			ret[i*ctx.p.N:(i+1)*ctx.p.N])
	}
	return ret
}

// wotsChainLengths converts an n-byte message into base-w digits
// followed by the base-w encoded Winternitz checksum (RFC 8391 §3.1.2,
// Algorithm 2).
func (ctx *Context) wotsChainLengths(msg []byte) []uint8 {
	ret := make([]uint8, ctx.wotsLen)

	ctx.toBaseW(msg, ret[:ctx.wotsLen1])

	var csum uint32
	for i := 0; i < int(ctx.wotsLen1); i++ {
		csum += uint32(ctx.p.WotsW) - 1 - uint32(ret[i])
	}
	csum <<= (8 - ((ctx.wotsLen2 * uint32(ctx.wotsLogW)) % 8)) % 8

	ctx.toBaseW(
		encodeUint64(uint64(csum), int((ctx.wotsLen2*uint32(ctx.wotsLogW)+7)/8)),
		ret[ctx.wotsLen1:])
	return ret
}

// toBaseW splits input into output's base-w digits.  Requires LogW to
// divide 8.
func (ctx *Context) toBaseW(input []byte, output []uint8) {
	var in, out uint32
	var total uint8
	var bits uint8

	for consumed := 0; consumed < len(output); consumed++ {
		if bits == 0 {
			total = input[in]
			in++
			bits = 8
		}
		bits -= ctx.wotsLogW
		output[out] = uint8(uint16(total>>bits) & (ctx.p.WotsW - 1))
		out++
	}
}

// wotsGenChain computes the (start+steps)'th value of a WOTS+ hash chain
// starting from in's start'th value (RFC 8391 §3.1.3, Algorithm 3).
func (ctx *Context) wotsGenChain(pad *scratchPad, in []byte, start, steps uint16,
	pubSeed []byte, addr address) []byte {
	buf := make([]byte, ctx.p.N)
	copy(buf, in)
	var i uint16
	for i = start; i < (start+steps) && i < ctx.p.WotsW; i++ {
		addr.setHash(uint32(i))
		ctx.fInto(pad, buf, pubSeed, addr, buf)
	}
	return buf
}

// wotsPkGen derives the WOTS+ public key (the concatenation of every
// chain's final value) from a secret seed.
func (ctx *Context) wotsPkGen(pad *scratchPad, skSeed, pubSeed []byte, addr address) []byte {
	buf := ctx.wotsExpandSeed(pad, skSeed, pubSeed, addr)
	var i uint32
	for i = 0; i < ctx.wotsLen; i++ {
		addr.setChain(i)
		copy(buf[ctx.p.N*i:ctx.p.N*(i+1)],
			ctx.wotsGenChain(pad, buf[ctx.p.N*i:ctx.p.N*(i+1)],
				0, ctx.p.WotsW-1, pubSeed, addr))
	}
	return buf
}

// wotsSign produces a WOTS+ signature of an n-byte message digest (RFC
// 8391 §3.1.5, Algorithm 4).
func (ctx *Context) wotsSign(pad *scratchPad, msg, skSeed, pubSeed []byte, addr address) []byte {
	lengths := ctx.wotsChainLengths(msg)
	buf := ctx.wotsExpandSeed(pad, skSeed, pubSeed, addr)
	var i uint32
	for i = 0; i < ctx.wotsLen; i++ {
		addr.setChain(i)
		copy(buf[ctx.p.N*i:ctx.p.N*(i+1)],
			ctx.wotsGenChain(pad, buf[ctx.p.N*i:ctx.p.N*(i+1)],
				0, uint16(lengths[i]), pubSeed, addr))
	}
	return buf
}

// wotsPkFromSig recovers the WOTS+ public key implied by a signature of
// msg (RFC 8391 §3.1.6, Algorithm 5).
func (ctx *Context) wotsPkFromSig(pad *scratchPad, sig, msg, pubSeed []byte, addr address) []byte {
	lengths := ctx.wotsChainLengths(msg)
	buf := make([]byte, ctx.p.N*ctx.wotsLen)
	var i uint32
	for i = 0; i < ctx.wotsLen; i++ {
		addr.setChain(i)
		copy(buf[ctx.p.N*i:ctx.p.N*(i+1)],
			ctx.wotsGenChain(pad, sig[ctx.p.N*i:ctx.p.N*(i+1)],
				uint16(lengths[i]), ctx.p.WotsW-1-uint16(lengths[i]),
				pubSeed, addr))
	}
	return buf
}
