package xmss

import "testing"

func testCtx(t *testing.T, p Params) *Context {
	t.Helper()
	ctx, err := NewContext(p)
	if err != nil {
		t.Fatalf("NewContext(%+v): %v", p, err)
	}
	return ctx
}

// wotsSign followed by wotsPkFromSig over the same message must recover
// exactly the public key wotsPkGen derives from the same seed: the
// signature only withholds the last `w-1-lengths[i]` steps of each
// chain, which wotsPkFromSig replays.
func TestWotsSignRecoversPublicKey(t *testing.T) {
	for _, p := range []Params{
		{Func: SHA2, N: 32, FullHeight: 4, D: 1, WotsW: 16},
		{Func: SHAKE, N: 32, FullHeight: 4, D: 1, WotsW: 16},
		{Func: SHA2, N: 64, FullHeight: 4, D: 1, WotsW: 16},
	} {
		ctx := testCtx(t, p)
		n := int(ctx.p.N)
		skSeed := make([]byte, n)
		pubSeed := make([]byte, n)
		for i := range skSeed {
			skSeed[i] = byte(i)
			pubSeed[i] = byte(2 * i)
		}
		msg := make([]byte, n)
		for i := range msg {
			msg[i] = byte(i * 7)
		}

		var addr address
		addr.setOTS(3)
		pad := ctx.newScratchPad()

		wantPk := ctx.wotsPkGen(pad, skSeed, pubSeed, addr)
		sig := ctx.wotsSign(pad, msg, skSeed, pubSeed, addr)
		gotPk := ctx.wotsPkFromSig(pad, sig, msg, pubSeed, addr)

		if !hexEq(wantPk, gotPk) {
			t.Errorf("%s: wotsPkFromSig did not recover wotsPkGen's public key", p)
		}

		// A different message must recover a different (wrong) public
		// key at at least one chain position.
		msg2 := append([]byte(nil), msg...)
		msg2[0] ^= 1
		wrongPk := ctx.wotsPkFromSig(pad, sig, msg2, pubSeed, addr)
		if hexEq(wantPk, wrongPk) {
			t.Errorf("%s: wotsPkFromSig recovered the correct key for a tampered message", p)
		}
	}
}

// checksum + message digits must always run the same total number of
// chain steps regardless of the secret (the number of steps is a
// function of the public message only), so base-w output never exceeds
// w-1.
func TestWotsChainLengthsBounded(t *testing.T) {
	ctx := testCtx(t, Params{Func: SHA2, N: 32, FullHeight: 4, D: 1, WotsW: 16})
	msg := make([]byte, ctx.p.N)
	for i := range msg {
		msg[i] = byte(255 - i)
	}
	lengths := ctx.wotsChainLengths(msg)
	if uint32(len(lengths)) != ctx.wotsLen {
		t.Fatalf("wotsChainLengths returned %d digits, want %d", len(lengths), ctx.wotsLen)
	}
	for i, l := range lengths {
		if uint16(l) >= ctx.p.WotsW {
			t.Errorf("digit %d = %d exceeds w-1=%d", i, l, ctx.p.WotsW-1)
		}
	}
}
