package xmss

import "testing"

func TestEncodeDecodeUint64Roundtrip(t *testing.T) {
	cases := []struct {
		x   uint64
		len int
	}{
		{0, 4}, {1, 4}, {0xdeadbeef, 4}, {0xffffffff, 4},
		{0, 8}, {0x0102030405060708, 8},
		{42, 3}, {0x010203, 3},
		{255, 1},
	}
	for _, c := range cases {
		buf := encodeUint64(c.x, c.len)
		if len(buf) != c.len {
			t.Fatalf("encodeUint64(%d, %d) produced %d bytes", c.x, c.len, len(buf))
		}
		if got := decodeUint64(buf); got != c.x {
			t.Errorf("decodeUint64(encodeUint64(%d, %d)) = %d", c.x, c.len, got)
		}
	}
}

func TestEncodeUint64IntoTruncatesHighBits(t *testing.T) {
	out := make([]byte, 2)
	encodeUint64Into(0x030102, out)
	if out[0] != 0x01 || out[1] != 0x02 {
		t.Errorf("got %x, want 0102", out)
	}
}

func TestCtEqual(t *testing.T) {
	a := []byte{1, 2, 3, 4}
	b := []byte{1, 2, 3, 4}
	c := []byte{1, 2, 3, 5}
	d := []byte{1, 2, 3}

	if !ctEqual(a, b) {
		t.Error("ctEqual(a, b) = false, want true")
	}
	if ctEqual(a, c) {
		t.Error("ctEqual(a, c) = true, want false")
	}
	if ctEqual(a, d) {
		t.Error("ctEqual(a, d) = true, want false (different lengths)")
	}
}

func TestMemzero(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5}
	memzero(buf)
	for i, b := range buf {
		if b != 0 {
			t.Errorf("byte %d = %d, want 0", i, b)
		}
	}
}

type collectingLogger struct {
	lines []string
}

func (l *collectingLogger) Logf(format string, a ...interface{}) {
	l.lines = append(l.lines, format)
}

func TestSetLogger(t *testing.T) {
	defer SetLogger(nil)

	cl := &collectingLogger{}
	SetLogger(cl)
	log.Logf("hello %d", 1)
	if len(cl.lines) != 1 {
		t.Fatalf("expected 1 logged line, got %d", len(cl.lines))
	}

	SetLogger(nil)
	// Must not panic with no logger installed.
	log.Logf("should be discarded")
}
