//go:generate enumer -type HashFunc

package xmss

import (
	"fmt"
	"strconv"
	"strings"

	multierror "github.com/hashicorp/go-multierror"
)

// HashFunc selects the hash family backing F, H, H_msg, PRF and
// PRF_keygen (RFC 8391 §5.1/§5.2).
type HashFunc uint8

const (
	// SHA-256 for n<=32, SHA-512 for n=64.
	SHA2 HashFunc = iota
	// SHAKE-128 for n<=32, SHAKE-256 for n=64.
	SHAKE
)

func (f HashFunc) String() string {
	switch f {
	case SHA2:
		return "SHA2"
	case SHAKE:
		return "SHAKE"
	default:
		return fmt.Sprintf("HashFunc(%d)", uint8(f))
	}
}

// Params describes one XMSS[MT] parameter set, exactly the fields an
// RFC 8391 OID pins down: the hash family and security parameter,
// the full hypertree height, the number of layers and the Winternitz
// parameter.  RFC 8391 fixes WotsW at 16 for every named parameter set;
// it is kept as a field (rather than a constant) so a caller building a
// custom, unnamed parameter set via ParamsFromName2 is not forced to
// accept it, though every derived formula in this package assumes
// log2(WotsW) divides 8.
type Params struct {
	Func       HashFunc
	N          uint32 // security parameter in bytes
	FullHeight uint32 // full hypertree height h
	D          uint32 // number of layers; 1 for XMSS, >1 for XMSS-MT
	WotsW      uint16 // Winternitz parameter, always 16 for named sets
}

func (p Params) String() string {
	wString := ""
	if p.WotsW != 16 {
		wString = fmt.Sprintf("_w%d", p.WotsW)
	}
	if p.D == 1 {
		return fmt.Sprintf("XMSS-%s_%d_%d%s", p.Func, p.FullHeight, p.N*8, wString)
	}
	return fmt.Sprintf("XMSSMT-%s_%d/%d_%d%s", p.Func, p.FullHeight, p.D, p.N*8, wString)
}

// TreeHeight is the height of each of the D subtrees making up the
// hypertree (h/d).
func (p *Params) TreeHeight() uint32 { return p.FullHeight / p.D }

// WotsLogW is log2(WotsW).
func (p *Params) WotsLogW() uint8 {
	switch p.WotsW {
	case 4:
		return 2
	case 16:
		return 4
	case 256:
		return 8
	default:
		panic("xmss: only WotsW = 4, 16 or 256 is supported")
	}
}

// WotsLen1 is the number of WOTS+ chains encoding the message digest.
func (p *Params) WotsLen1() uint32 { return 8 * p.N / uint32(p.WotsLogW()) }

// WotsLen2 is the number of WOTS+ chains encoding the checksum.
func (p *Params) WotsLen2() uint32 {
	switch p.WotsW {
	case 4:
		return 5
	case 16:
		return 3
	case 256:
		return 2
	default:
		panic("xmss: only WotsW = 4, 16 or 256 is supported")
	}
}

// WotsLen is the total number of WOTS+ chains.
func (p *Params) WotsLen() uint32 { return p.WotsLen1() + p.WotsLen2() }

// WotsSignatureSize is the size, in bytes, of a single WOTS+ signature.
func (p *Params) WotsSignatureSize() uint32 { return p.WotsLen() * p.N }

// IdxBytes is the width of the leaf-index field in a signature: 4 bytes
// for single-tree XMSS, ceil(h/8) bytes for XMSS-MT.
func (p *Params) IdxBytes() uint32 {
	if p.D == 1 {
		return 4
	}
	return (p.FullHeight + 7) / 8
}

// IdxMax is the largest valid leaf index, and so one less than the
// signature budget of a key under this parameter set.
func (p *Params) IdxMax() uint64 { return (uint64(1) << p.FullHeight) - 1 }

// SigBytes is the size, in bytes, of a signature.
func (p *Params) SigBytes() uint32 {
	return p.IdxBytes() + p.N + p.D*p.WotsLen()*p.N + p.FullHeight*p.N
}

// PkBytes is the size, in bytes, of a public key.
func (p *Params) PkBytes() uint32 { return 4 + 2*p.N }

// SkBytes is the size, in bytes, of a private key, excluding any BDS
// traversal state (which is serialized separately; see bdsserialize.go).
func (p *Params) SkBytes() uint32 { return 4 + p.IdxBytes() + 4*p.N }

// validate collects every way Params fails to describe a usable
// instance into a single ParamError, rather than stopping at the first
// problem found.
func (p *Params) validate() Error {
	var errs *multierror.Error
	if p.Func != SHA2 && p.Func != SHAKE {
		errs = multierror.Append(errs, fmt.Errorf("unsupported hash function %d", p.Func))
	}
	if p.N != 32 && p.N != 64 {
		errs = multierror.Append(errs, fmt.Errorf("N must be 32 or 64, not %d", p.N))
	}
	if p.D == 0 || p.FullHeight%p.D != 0 {
		errs = multierror.Append(errs, fmt.Errorf("D must evenly divide FullHeight"))
	}
	if p.FullHeight == 0 || p.FullHeight > 60 {
		errs = multierror.Append(errs, fmt.Errorf("FullHeight out of range: %d", p.FullHeight))
	}
	if p.D > 12 {
		errs = multierror.Append(errs, fmt.Errorf("D must be at most 12, not %d", p.D))
	}
	if p.D != 0 && p.FullHeight%p.D == 0 && p.TreeHeight() > 20 {
		errs = multierror.Append(errs, fmt.Errorf("tree height must be at most 20, not %d", p.TreeHeight()))
	}
	wotsWValid := false
	switch p.WotsW {
	case 4, 16, 256:
		wotsWValid = true
	default:
		errs = multierror.Append(errs, fmt.Errorf("WotsW must be 4, 16 or 256, not %d", p.WotsW))
	}
	if wotsWValid && p.WotsLen() > 131 {
		errs = multierror.Append(errs, fmt.Errorf("derived WOTS len %d exceeds XMSS_MAX_WOTS_LEN (131)", p.WotsLen()))
	}
	return paramErrorFromMulti(errs)
}

// regEntry is a row of the RFC 8391 parameter-set registry.
type regEntry struct {
	name   string
	mt     bool
	oid    uint32
	params Params
}

// registry lists every RFC 8391 named parameter set: the 12 XMSS OIDs
// (0x01-0x0C) and the 32 XMSS-MT OIDs (0x01-0x20, namespaced internally
// to avoid colliding with the XMSS OIDs they overlap on the wire).
var registry = []regEntry{
	{"XMSS-SHA2_10_256", false, 0x00000001, Params{SHA2, 32, 10, 1, 16}},
	{"XMSS-SHA2_16_256", false, 0x00000002, Params{SHA2, 32, 16, 1, 16}},
	{"XMSS-SHA2_20_256", false, 0x00000003, Params{SHA2, 32, 20, 1, 16}},
	{"XMSS-SHA2_10_512", false, 0x00000004, Params{SHA2, 64, 10, 1, 16}},
	{"XMSS-SHA2_16_512", false, 0x00000005, Params{SHA2, 64, 16, 1, 16}},
	{"XMSS-SHA2_20_512", false, 0x00000006, Params{SHA2, 64, 20, 1, 16}},
	{"XMSS-SHAKE_10_256", false, 0x00000007, Params{SHAKE, 32, 10, 1, 16}},
	{"XMSS-SHAKE_16_256", false, 0x00000008, Params{SHAKE, 32, 16, 1, 16}},
	{"XMSS-SHAKE_20_256", false, 0x00000009, Params{SHAKE, 32, 20, 1, 16}},
	{"XMSS-SHAKE_10_512", false, 0x0000000a, Params{SHAKE, 64, 10, 1, 16}},
	{"XMSS-SHAKE_16_512", false, 0x0000000b, Params{SHAKE, 64, 16, 1, 16}},
	{"XMSS-SHAKE_20_512", false, 0x0000000c, Params{SHAKE, 64, 20, 1, 16}},

	{"XMSSMT-SHA2_20/2_256", true, 0x01000001, Params{SHA2, 32, 20, 2, 16}},
	{"XMSSMT-SHA2_20/4_256", true, 0x01000002, Params{SHA2, 32, 20, 4, 16}},
	{"XMSSMT-SHA2_40/2_256", true, 0x01000003, Params{SHA2, 32, 40, 2, 16}},
	{"XMSSMT-SHA2_40/4_256", true, 0x01000004, Params{SHA2, 32, 40, 4, 16}},
	{"XMSSMT-SHA2_40/8_256", true, 0x01000005, Params{SHA2, 32, 40, 8, 16}},
	{"XMSSMT-SHA2_60/3_256", true, 0x01000006, Params{SHA2, 32, 60, 3, 16}},
	{"XMSSMT-SHA2_60/6_256", true, 0x01000007, Params{SHA2, 32, 60, 6, 16}},
	{"XMSSMT-SHA2_60/12_256", true, 0x01000008, Params{SHA2, 32, 60, 12, 16}},
	{"XMSSMT-SHA2_20/2_512", true, 0x01000009, Params{SHA2, 64, 20, 2, 16}},
	{"XMSSMT-SHA2_20/4_512", true, 0x0100000a, Params{SHA2, 64, 20, 4, 16}},
	{"XMSSMT-SHA2_40/2_512", true, 0x0100000b, Params{SHA2, 64, 40, 2, 16}},
	{"XMSSMT-SHA2_40/4_512", true, 0x0100000c, Params{SHA2, 64, 40, 4, 16}},
	{"XMSSMT-SHA2_40/8_512", true, 0x0100000d, Params{SHA2, 64, 40, 8, 16}},
	{"XMSSMT-SHA2_60/3_512", true, 0x0100000e, Params{SHA2, 64, 60, 3, 16}},
	{"XMSSMT-SHA2_60/6_512", true, 0x0100000f, Params{SHA2, 64, 60, 6, 16}},
	{"XMSSMT-SHA2_60/12_512", true, 0x01000010, Params{SHA2, 64, 60, 12, 16}},

	{"XMSSMT-SHAKE_20/2_256", true, 0x01000011, Params{SHAKE, 32, 20, 2, 16}},
	{"XMSSMT-SHAKE_20/4_256", true, 0x01000012, Params{SHAKE, 32, 20, 4, 16}},
	{"XMSSMT-SHAKE_40/2_256", true, 0x01000013, Params{SHAKE, 32, 40, 2, 16}},
	{"XMSSMT-SHAKE_40/4_256", true, 0x01000014, Params{SHAKE, 32, 40, 4, 16}},
	{"XMSSMT-SHAKE_40/8_256", true, 0x01000015, Params{SHAKE, 32, 40, 8, 16}},
	{"XMSSMT-SHAKE_60/3_256", true, 0x01000016, Params{SHAKE, 32, 60, 3, 16}},
	{"XMSSMT-SHAKE_60/6_256", true, 0x01000017, Params{SHAKE, 32, 60, 6, 16}},
	{"XMSSMT-SHAKE_60/12_256", true, 0x01000018, Params{SHAKE, 32, 60, 12, 16}},
	{"XMSSMT-SHAKE_20/2_512", true, 0x01000019, Params{SHAKE, 64, 20, 2, 16}},
	{"XMSSMT-SHAKE_20/4_512", true, 0x0100001a, Params{SHAKE, 64, 20, 4, 16}},
	{"XMSSMT-SHAKE_40/2_512", true, 0x0100001b, Params{SHAKE, 64, 40, 2, 16}},
	{"XMSSMT-SHAKE_40/4_512", true, 0x0100001c, Params{SHAKE, 64, 40, 4, 16}},
	{"XMSSMT-SHAKE_40/8_512", true, 0x0100001d, Params{SHAKE, 64, 40, 8, 16}},
	{"XMSSMT-SHAKE_60/3_512", true, 0x0100001e, Params{SHAKE, 64, 60, 3, 16}},
	{"XMSSMT-SHAKE_60/6_512", true, 0x0100001f, Params{SHAKE, 64, 60, 6, 16}},
	{"XMSSMT-SHAKE_60/12_512", true, 0x01000020, Params{SHAKE, 64, 60, 12, 16}},
}

var (
	registryNameLut  map[string]regEntry
	registryOidLut   map[uint32]regEntry // XMSS, keyed by RFC-numeric OID
	registryOidMTLut map[uint32]regEntry // XMSS-MT, keyed by RFC-numeric OID (low 6 nibbles of the namespaced OID)
)

func init() {
	registryNameLut = make(map[string]regEntry, len(registry))
	registryOidLut = make(map[uint32]regEntry)
	registryOidMTLut = make(map[uint32]regEntry)
	for _, entry := range registry {
		registryNameLut[entry.name] = entry
		if entry.mt {
			registryOidMTLut[entry.oid&0x00ffffff] = entry
		} else {
			registryOidLut[entry.oid] = entry
		}
	}
}

// ParamsFromName returns the parameters of a named RFC 8391 parameter
// set, or nil if name isn't one of the 44 registered sets.
func ParamsFromName(name string) *Params {
	if entry, ok := registryNameLut[name]; ok {
		p := entry.params
		return &p
	}
	return nil
}

// ParamsFromName2 returns the parameters described by name, which may
// either be one of the 44 RFC 8391 names or a custom "XMSS(MT)-FUNC_h[/
// d]_n[_wW]" specification.
func ParamsFromName2(name string) (*Params, Error) {
	if p := ParamsFromName(name); p != nil {
		return p, nil
	}
	return parseParamsFromName(name)
}

// ParamsFromOid returns the parameters registered under the RFC
// 8391-numeric oid, for either XMSS (mt=false) or XMSS-MT (mt=true).
func ParamsFromOid(mt bool, oid uint32) (*Params, Error) {
	var entry regEntry
	var ok bool
	if mt {
		entry, ok = registryOidMTLut[oid]
	} else {
		entry, ok = registryOidLut[oid]
	}
	if !ok {
		return nil, paramErrorf("no %s parameter set registered for oid %#x", mtLabel(mt), oid)
	}
	p := entry.params
	return &p, nil
}

func mtLabel(mt bool) string {
	if mt {
		return "XMSS-MT"
	}
	return "XMSS"
}

// lookupNameAndOid returns the name and RFC-numeric OID of params, or
// ("", 0) if it isn't a registered parameter set.
func lookupNameAndOid(params Params) (string, uint32) {
	for _, entry := range registry {
		if entry.params == params {
			if entry.mt {
				return entry.name, entry.oid & 0x00ffffff
			}
			return entry.name, entry.oid
		}
	}
	return "", 0
}

// ListNames lists the name of every registered RFC 8391 parameter set.
func ListNames() []string {
	names := make([]string, len(registry))
	for i, entry := range registry {
		names[i] = entry.name
	}
	return names
}

func parseParamsFromName(name string) (*Params, Error) {
	var ret Params
	var mt bool

	bits := strings.SplitN(name, "-", 2)
	if len(bits) != 2 {
		return nil, paramErrorf("missing separator between algorithm and parameters: %q", name)
	}
	switch bits[0] {
	case "XMSS":
		mt = false
	case "XMSSMT":
		mt = true
	default:
		return nil, paramErrorf("no such algorithm: %q", bits[0])
	}

	bits = strings.Split(bits[1], "_")
	switch bits[0] {
	case "SHA2":
		ret.Func = SHA2
	case "SHAKE":
		ret.Func = SHAKE
	default:
		return nil, paramErrorf("no such hash function: %q", bits[0])
	}

	if len(bits) < 3 || len(bits) > 4 {
		return nil, paramErrorf("expected three or four parameters, not %d", len(bits))
	}

	var unparsedHeight string
	if strings.Contains(bits[1], "/") {
		if !mt {
			return nil, paramErrorf("XMSS cannot have a D parameter")
		}
		heightD := strings.SplitN(bits[1], "/", 2)
		unparsedHeight = heightD[0]
		d, err := strconv.Atoi(heightD[1])
		if err != nil {
			return nil, wrapError(ParamError, err, "can't parse D")
		}
		if d <= 0 || d >= 1<<16 {
			return nil, paramErrorf("D out of bounds")
		}
		ret.D = uint32(d)
	} else {
		if mt {
			return nil, paramErrorf("XMSS-MT is missing a D parameter")
		}
		unparsedHeight = bits[1]
		ret.D = 1
	}

	height, err := strconv.Atoi(unparsedHeight)
	if err != nil {
		return nil, wrapError(ParamError, err, "can't parse FullHeight")
	}
	if height <= 0 || height >= 1<<16 {
		return nil, paramErrorf("FullHeight out of bounds")
	}
	ret.FullHeight = uint32(height)

	n, err := strconv.Atoi(bits[2])
	if err != nil {
		return nil, wrapError(ParamError, err, "can't parse N")
	}
	if n != 256 && n != 512 {
		return nil, paramErrorf("N must be 256 or 512 (bits), not %d", n)
	}
	ret.N = uint32(n) / 8

	ret.WotsW = 16
	if len(bits) == 4 {
		if len(bits[3]) < 2 || bits[3][0] != 'w' {
			return nil, paramErrorf("expected 'w<width>' as fourth parameter")
		}
		w, err := strconv.Atoi(bits[3][1:])
		if err != nil {
			return nil, wrapError(ParamError, err, "can't parse WotsW")
		}
		if w <= 0 || w >= 1<<16 {
			return nil, paramErrorf("WotsW out of bounds")
		}
		ret.WotsW = uint16(w)
	}

	if err := ret.validate(); err != nil {
		return nil, err
	}
	return &ret, nil
}
