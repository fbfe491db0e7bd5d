package xmss

// Context binds an XMSS[MT] parameter set to the derived WOTS+ constants
// used throughout hash.go, wots.go, ltree.go and bds.go, so those files
// never recompute log2(w), len1 or len2 per call.
type Context struct {
	p Params

	wotsLogW   uint8
	wotsLen1   uint32
	wotsLen2   uint32
	wotsLen    uint32
	treeHeight uint32
}

// NewContext validates p and derives a Context from it.
func NewContext(p Params) (*Context, Error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &Context{
		p:          p,
		wotsLogW:   p.WotsLogW(),
		wotsLen1:   p.WotsLen1(),
		wotsLen2:   p.WotsLen2(),
		wotsLen:    p.WotsLen(),
		treeHeight: p.TreeHeight(),
	}, nil
}

// NewContextFromName builds a Context for a registered or custom-spec'd
// parameter-set name; see ParamsFromName2.
func NewContextFromName(name string) (*Context, Error) {
	p, err := ParamsFromName2(name)
	if err != nil {
		return nil, err
	}
	return NewContext(*p)
}

// NewContextFromOid builds a Context for a parameter set registered under
// its RFC 8391-numeric OID.
func NewContextFromOid(mt bool, oid uint32) (*Context, Error) {
	p, err := ParamsFromOid(mt, oid)
	if err != nil {
		return nil, err
	}
	return NewContext(*p)
}

// Params returns the parameter set this Context was built from.
func (ctx *Context) Params() Params { return ctx.p }

// Name returns the registered name of this Context's parameter set, or ""
// if it isn't one of the 44 RFC 8391 named sets.
func (ctx *Context) Name() string {
	name, _ := lookupNameAndOid(ctx.p)
	return name
}
