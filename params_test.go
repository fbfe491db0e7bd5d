package xmss

import "testing"

// Every registered parameter set's derived sizes must match the
// formulae they're defined by exactly.
func TestDerivedSizesMatchFormulae(t *testing.T) {
	for _, entry := range registry {
		p := entry.params
		t.Run(entry.name, func(t *testing.T) {
			treeHeight := p.FullHeight / p.D
			if got := p.TreeHeight(); got != treeHeight {
				t.Errorf("TreeHeight() = %d, want %d", got, treeHeight)
			}

			logW := p.WotsLogW()
			len1 := (8*p.N + uint32(logW) - 1) / uint32(logW)
			if got := p.WotsLen1(); got != len1 {
				t.Errorf("WotsLen1() = %d, want %d", got, len1)
			}

			if got, want := p.WotsLen(), p.WotsLen1()+p.WotsLen2(); got != want {
				t.Errorf("WotsLen() = %d, want %d", got, want)
			}

			var wantIdxBytes uint32
			if p.D == 1 {
				wantIdxBytes = 4
			} else {
				wantIdxBytes = (p.FullHeight + 7) / 8
			}
			if got := p.IdxBytes(); got != wantIdxBytes {
				t.Errorf("IdxBytes() = %d, want %d", got, wantIdxBytes)
			}

			wantIdxMax := (uint64(1) << p.FullHeight) - 1
			if got := p.IdxMax(); got != wantIdxMax {
				t.Errorf("IdxMax() = %d, want %d", got, wantIdxMax)
			}

			wantSig := p.IdxBytes() + p.N + p.D*p.WotsLen()*p.N + p.FullHeight*p.N
			if got := p.SigBytes(); got != wantSig {
				t.Errorf("SigBytes() = %d, want %d", got, wantSig)
			}

			if got, want := p.PkBytes(), 4+2*p.N; got != want {
				t.Errorf("PkBytes() = %d, want %d", got, want)
			}

			if got, want := p.SkBytes(), 4+p.IdxBytes()+4*p.N; got != want {
				t.Errorf("SkBytes() = %d, want %d", got, want)
			}
		})
	}
}

// 12 XMSS OIDs plus 32 XMSS-MT OIDs, looked up by both the OID and the
// registered name, must round-trip to the same Params.
func TestParamsLookupRoundtrips(t *testing.T) {
	xmssCount, mtCount := 0, 0
	for _, entry := range registry {
		if entry.mt {
			mtCount++
		} else {
			xmssCount++
		}

		byName := ParamsFromName(entry.name)
		if byName == nil {
			t.Fatalf("ParamsFromName(%q) = nil", entry.name)
		}
		if *byName != entry.params {
			t.Errorf("ParamsFromName(%q) = %+v, want %+v", entry.name, *byName, entry.params)
		}

		byOid, err := ParamsFromOid(entry.mt, entry.oid&0x00ffffff)
		if err != nil {
			t.Fatalf("ParamsFromOid(%v, %#x): %v", entry.mt, entry.oid, err)
		}
		if *byOid != entry.params {
			t.Errorf("ParamsFromOid(%v, %#x) = %+v, want %+v", entry.mt, entry.oid, *byOid, entry.params)
		}

		name, oid := lookupNameAndOid(entry.params)
		if name != entry.name || oid != entry.oid&0x00ffffff {
			t.Errorf("lookupNameAndOid(%+v) = (%q, %#x), want (%q, %#x)",
				entry.params, name, oid, entry.name, entry.oid&0x00ffffff)
		}
	}
	if xmssCount != 12 {
		t.Errorf("%d XMSS parameter sets registered, want 12", xmssCount)
	}
	if mtCount != 32 {
		t.Errorf("%d XMSS-MT parameter sets registered, want 32", mtCount)
	}
}

func TestParamsFromOidUnknown(t *testing.T) {
	if _, err := ParamsFromOid(false, 0xdeadbeef); err == nil {
		t.Fatal("expected a ParamError for an unknown OID")
	} else if err.Kind() != ParamError {
		t.Errorf("Kind() = %v, want ParamError", err.Kind())
	}
}

// bds_k validation: must be even and at most tree_height.
func TestValidateBdsKRules(t *testing.T) {
	ctx, err := NewContext(Params{Func: SHA2, N: 32, FullHeight: 8, D: 1, WotsW: 16})
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}

	for _, bdsK := range []uint32{0, 2, 4, 8} {
		if _, _, err := ctx.Keygen(bdsK); err != nil {
			t.Errorf("Keygen(bds_k=%d) failed: %v", bdsK, err)
		}
	}
	for _, bdsK := range []uint32{1, 3, 9, 10} {
		if _, _, err := ctx.Keygen(bdsK); err == nil {
			t.Errorf("Keygen(bds_k=%d) should have failed", bdsK)
		} else if err.Kind() != ParamError {
			t.Errorf("Keygen(bds_k=%d) Kind() = %v, want ParamError", bdsK, err.Kind())
		}
	}
}

// validate() aggregates every violation instead of stopping at the
// first one found.
func TestValidateAggregatesErrors(t *testing.T) {
	p := Params{Func: HashFunc(99), N: 7, FullHeight: 0, D: 0, WotsW: 3}
	err := p.validate()
	if err == nil {
		t.Fatal("expected a ParamError")
	}
	if err.Kind() != ParamError {
		t.Errorf("Kind() = %v, want ParamError", err.Kind())
	}
	// Five distinct problems: Func, N, D/FullHeight divisibility,
	// FullHeight range, WotsW.
	msg := err.Error()
	for _, want := range []string{"hash function", "N must be", "FullHeight", "WotsW"} {
		if !containsString(msg, want) {
			t.Errorf("aggregated error %q missing complaint about %q", msg, want)
		}
	}
}

func TestValidateRejectsOversizedWotsLen(t *testing.T) {
	// N=64, WotsW=4 derives WotsLen1=256, WotsLen2=5, WotsLen=261, far
	// past XMSS_MAX_WOTS_LEN (131).
	p := Params{Func: SHA2, N: 64, FullHeight: 10, D: 1, WotsW: 4}
	err := p.validate()
	if err == nil {
		t.Fatal("expected a ParamError for oversized WOTS len")
	}
	if !containsString(err.Error(), "XMSS_MAX_WOTS_LEN") {
		t.Errorf("aggregated error %q missing complaint about WOTS len", err.Error())
	}
}

func TestValidateRejectsOversizedDAndTreeHeight(t *testing.T) {
	p := Params{Func: SHA2, N: 32, FullHeight: 60, D: 60, WotsW: 16}
	err := p.validate()
	if err == nil {
		t.Fatal("expected a ParamError for D out of range")
	}
	if !containsString(err.Error(), "D must be at most 12") {
		t.Errorf("aggregated error %q missing complaint about D", err.Error())
	}

	p = Params{Func: SHA2, N: 32, FullHeight: 60, D: 1, WotsW: 16}
	err = p.validate()
	if err == nil {
		t.Fatal("expected a ParamError for tree height out of range")
	}
	if !containsString(err.Error(), "tree height must be at most 20") {
		t.Errorf("aggregated error %q missing complaint about tree height", err.Error())
	}
}

func containsString(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}

func TestParamsFromName2Custom(t *testing.T) {
	p, err := ParamsFromName2("XMSS-SHA2_6_256")
	if err != nil {
		t.Fatalf("ParamsFromName2: %v", err)
	}
	if p.FullHeight != 6 || p.D != 1 || p.N != 32 || p.Func != SHA2 {
		t.Errorf("parsed params = %+v", p)
	}

	if _, err := ParamsFromName2("not-a-valid-name"); err == nil {
		t.Fatal("expected an error for a malformed name")
	}

	mt, err := ParamsFromName2("XMSSMT-SHAKE_6/2_512")
	if err != nil {
		t.Fatalf("ParamsFromName2 (MT): %v", err)
	}
	if mt.FullHeight != 6 || mt.D != 2 || mt.N != 64 || mt.Func != SHAKE {
		t.Errorf("parsed MT params = %+v", mt)
	}
}

func TestListNames(t *testing.T) {
	names := ListNames()
	if len(names) != len(registry) {
		t.Fatalf("ListNames() returned %d names, want %d", len(names), len(registry))
	}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		seen[n] = true
	}
	if !seen["XMSS-SHA2_10_256"] || !seen["XMSSMT-SHA2_20/2_256"] {
		t.Error("ListNames() is missing an expected entry")
	}
}
