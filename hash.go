package xmss

// The five domain-separated hash constructions F, H, H_msg, PRF and
// PRF_keygen (RFC 8391 §4.1), dispatched over SHA-256/SHA-512 or
// SHAKE-128/SHAKE-256 depending on (Func, N).

import (
	"crypto/sha256"
	"crypto/sha512"
	"hash"
	"io"

	"github.com/templexxx/xor"
	"golang.org/x/crypto/sha3"
)

const (
	hashPaddingF         = 0
	hashPaddingH         = 1
	hashPaddingHashMsg   = 2
	hashPaddingPRF       = 3
	hashPaddingPRFKeygen = 4
)

// scratchPad holds the buffers a Context reuses across the hash calls
// that are handed one (the *Into functions, lTree and the WOTS+ chains)
// within a single Keygen/Sign/Verify.  The allocating wrappers f and h
// build a fresh pad on every call.  It is not safe for concurrent use: every
// operation in this package is single-threaded by design.
type scratchPad struct {
	shake sha3.ShakeHash

	prfBuf       []byte // toByte(PRF,n) || key || addr-or-idx(32)
	prfKeyGenBuf []byte // toByte(PRF_KEYGEN,n) || SK_SEED || SEED || ADRS
	fBuf         []byte // toByte(F,n) || KEY || (BM0 ^ in)
	hBuf         []byte // toByte(H,n) || KEY || (BM0 ^ left) || (BM1 ^ right)
}

func (ctx *Context) newScratchPad() *scratchPad {
	n := int(ctx.p.N)
	pad := &scratchPad{
		prfBuf:       make([]byte, 2*n+32),
		prfKeyGenBuf: make([]byte, 3*n+32),
		fBuf:         make([]byte, 3*n),
		hBuf:         make([]byte, 4*n),
	}
	if ctx.p.Func == SHAKE {
		switch n {
		case 32:
			pad.shake = sha3.NewShake128()
		case 64:
			pad.shake = sha3.NewShake256()
		}
	}
	return pad
}

// hashInto computes the base hash of in and writes it to out, which must
// be an n-byte slice.
func (ctx *Context) hashInto(pad *scratchPad, in, out []byte) {
	if ctx.p.Func == SHA2 {
		switch ctx.p.N {
		case 32:
			sum := sha256.Sum256(in)
			copy(out, sum[:])
		case 64:
			sum := sha512.Sum512(in)
			copy(out, sum[:])
		}
		return
	}
	pad.shake.Reset()
	pad.shake.Write(in)
	pad.shake.Read(out[:ctx.p.N])
}

// prfAddrInto computes PRF(key, addr) (RFC 8391 §4.1.2) and writes it to
// out.
func (ctx *Context) prfAddrInto(pad *scratchPad, addr address, key, out []byte) {
	n := int(ctx.p.N)
	buf := pad.prfBuf
	encodeUint64Into(hashPaddingPRF, buf[:n])
	copy(buf[n:2*n], key)
	addr.writeInto(buf[2*n : 2*n+32])
	ctx.hashInto(pad, buf, out)
}

// prfUint64Into computes PRF(key, toByte(i, 32)), the variant used to
// derive the randomizer r during signing.
func (ctx *Context) prfUint64Into(pad *scratchPad, i uint64, key, out []byte) {
	n := int(ctx.p.N)
	buf := pad.prfBuf
	encodeUint64Into(hashPaddingPRF, buf[:n])
	copy(buf[n:2*n], key)
	encodeUint64Into(i, buf[2*n:2*n+32])
	ctx.hashInto(pad, buf, out)
}

func (ctx *Context) prfUint64(pad *scratchPad, i uint64, key []byte) []byte {
	ret := make([]byte, ctx.p.N)
	ctx.prfUint64Into(pad, i, key, ret)
	return ret
}

// prfKeyGenInto computes PRF_keygen(SK_SEED, SEED, ADRS) (RFC 8391
// §4.1.3), used to expand a WOTS+ secret seed into per-chain secrets.
func (ctx *Context) prfKeyGenInto(pad *scratchPad, skSeed, pubSeed []byte,
	addr address, out []byte) {
	n := int(ctx.p.N)
	buf := pad.prfKeyGenBuf
	encodeUint64Into(hashPaddingPRFKeygen, buf[:n])
	copy(buf[n:2*n], skSeed)
	copy(buf[2*n:3*n], pubSeed)
	addr.writeInto(buf[3*n : 3*n+32])
	ctx.hashInto(pad, buf, out)
}

// fInto computes F(SEED, ADRS, in): the chaining function used by WOTS+.
func (ctx *Context) fInto(pad *scratchPad, in, pubSeed []byte, addr address, out []byte) {
	n := int(ctx.p.N)
	buf := pad.fBuf
	encodeUint64Into(hashPaddingF, buf[:n])
	addr.setKeyAndMask(0)
	ctx.prfAddrInto(pad, addr, pubSeed, buf[n:2*n])
	addr.setKeyAndMask(1)
	ctx.prfAddrInto(pad, addr, pubSeed, buf[2*n:3*n])
	xor.BytesSameLen(buf[2*n:3*n], in, buf[2*n:3*n])
	ctx.hashInto(pad, buf, out)
}

func (ctx *Context) f(in, pubSeed []byte, addr address) []byte {
	ret := make([]byte, ctx.p.N)
	ctx.fInto(ctx.newScratchPad(), in, pubSeed, addr, ret)
	return ret
}

// hInto computes RAND_HASH(LEFT, RIGHT, SEED, ADRS): the node hash used
// to build L-trees and Merkle subtrees.
func (ctx *Context) hInto(pad *scratchPad, left, right, pubSeed []byte,
	addr address, out []byte) {
	n := int(ctx.p.N)
	buf := pad.hBuf
	encodeUint64Into(hashPaddingH, buf[:n])
	addr.setKeyAndMask(0)
	ctx.prfAddrInto(pad, addr, pubSeed, buf[n:2*n])
	addr.setKeyAndMask(1)
	ctx.prfAddrInto(pad, addr, pubSeed, buf[2*n:3*n])
	addr.setKeyAndMask(2)
	ctx.prfAddrInto(pad, addr, pubSeed, buf[3*n:4*n])
	xor.BytesSameLen(buf[2*n:3*n], left, buf[2*n:3*n])
	xor.BytesSameLen(buf[3*n:4*n], right, buf[3*n:4*n])
	ctx.hashInto(pad, buf, out)
}

func (ctx *Context) h(left, right, pubSeed []byte, addr address) []byte {
	ret := make([]byte, ctx.p.N)
	ctx.hInto(ctx.newScratchPad(), left, right, pubSeed, addr, ret)
	return ret
}

// hashMessageInto computes H_msg(R, root, toByte(idx, n), M) and writes
// it to out.
func (ctx *Context) hashMessageInto(pad *scratchPad, msg io.Reader,
	r, root []byte, idx uint64, out []byte) error {
	n := int(ctx.p.N)

	var w io.Writer
	if ctx.p.Func == SHA2 {
		switch n {
		case 32:
			w = sha256.New()
		case 64:
			w = sha512.New()
		}
	} else {
		pad.shake.Reset()
		w = pad.shake
	}

	w.Write(encodeUint64(hashPaddingHashMsg, n))
	w.Write(r)
	w.Write(root)
	w.Write(encodeUint64(idx, n))

	if _, err := io.Copy(w, msg); err != nil {
		return err
	}

	if ctx.p.Func == SHA2 {
		w.(hash.Hash).Sum(out[:0])
	} else {
		pad.shake.Read(out[:n])
	}
	return nil
}

func (ctx *Context) hashMessage(pad *scratchPad, msg io.Reader, r, root []byte,
	idx uint64) ([]byte, error) {
	ret := make([]byte, ctx.p.N)
	if err := ctx.hashMessageInto(pad, msg, r, root, idx, ret); err != nil {
		return nil, err
	}
	return ret, nil
}
