package xmss

import "testing"

// bds_serialize/bds_deserialize must round-trip a reachable BDS state
// byte-for-byte, and the serialized size must match
// bdsSerializedSize(params, bds_k) exactly.
func TestBDSSerializeRoundtrip(t *testing.T) {
	for _, bdsK := range []uint32{0, 2, 4} {
		height := uint32(6)
		n := 32
		ctx := testCtx(t, Params{Func: SHA2, N: uint32(n), FullHeight: height, D: 1, WotsW: 16})

		skSeed := make([]byte, n)
		pubSeed := make([]byte, n)
		for i := range skSeed {
			skSeed[i] = byte(3 * i)
			pubSeed[i] = byte(5 * i)
		}
		pad := ctx.newScratchPad()
		var addr address
		state, _ := ctx.bdsTreehashInit(pad, skSeed, pubSeed, height, bdsK, addr)

		// Advance a few rounds so the serialized state isn't just the
		// pristine post-keygen snapshot.
		for leafIdx := uint32(0); leafIdx < 3; leafIdx++ {
			ctx.bdsRound(pad, state, leafIdx, skSeed, pubSeed, addr)
			ctx.bdsTreehashUpdate(pad, state, (height-bdsK)/2, skSeed, pubSeed, addr)
		}

		buf := state.serialize()
		wantSize := bdsSerializedSize(n, height, bdsK)
		if len(buf) != wantSize {
			t.Fatalf("bds_k=%d: serialize() produced %d bytes, want %d", bdsK, len(buf), wantSize)
		}
		if got := ctx.BDSSerializedSize(bdsK); got != wantSize {
			t.Errorf("bds_k=%d: BDSSerializedSize() = %d, want %d", bdsK, got, wantSize)
		}

		restored, err := deserializeBDSState(buf, n, height, bdsK)
		if err != nil {
			t.Fatalf("bds_k=%d: deserializeBDSState: %v", bdsK, err)
		}
		buf2 := restored.serialize()
		if !hexEq(buf, buf2) {
			t.Errorf("bds_k=%d: round-trip is not byte-exact", bdsK)
		}
	}
}

func TestBDSDeserializeRejectsWrongSize(t *testing.T) {
	_, err := deserializeBDSState(make([]byte, 3), 32, 6, 2)
	if err == nil {
		t.Fatal("expected an error for a too-short buffer")
	}
}

func TestRetainCount(t *testing.T) {
	cases := map[uint32]uint32{0: 0, 2: 1, 4: 11, 6: 57}
	for bdsK, want := range cases {
		if got := retainCount(bdsK); got != want {
			t.Errorf("retainCount(%d) = %d, want %d", bdsK, got, want)
		}
	}
}
