package xmss

import (
	"encoding/binary"
	goLog "log"
)

// encodeUint64Into encodes x into out in big endian.  len(out) need not be
// a multiple of 8; out is filled starting from the last byte.
func encodeUint64Into(x uint64, out []byte) {
	if len(out)%8 == 0 && len(out) > 0 {
		binary.BigEndian.PutUint64(out[len(out)-8:], x)
		for i := 0; i < len(out)-8; i += 8 {
			binary.BigEndian.PutUint64(out[i:i+8], 0)
		}
	} else {
		for i := len(out) - 1; i >= 0; i-- {
			out[i] = byte(x)
			x >>= 8
		}
	}
}

// encodeUint64 encodes x as an outLen-byte big endian buffer.
func encodeUint64(x uint64, outLen int) []byte {
	ret := make([]byte, outLen)
	encodeUint64Into(x, ret)
	return ret
}

// decodeUint64 interprets in as a big endian integer.
func decodeUint64(in []byte) (ret uint64) {
	for i := 0; i < len(in); i++ {
		ret |= uint64(in[i]) << uint64(8*(len(in)-1-i))
	}
	return
}

// memzero overwrites buf with zeros.  Used to scrub secret key material
// (seeds, WOTS+ chain secrets) from scratch buffers once they are no
// longer needed.
func memzero(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}

// ctEqual reports whether a and b are equal, comparing every byte
// instead of returning as soon as a difference is found.  Root
// comparisons in Verify always compare equal-length buffers by
// construction; the early length check is not protecting against a
// length side-channel.
func ctEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var diff byte
	for i := range a {
		diff |= a[i] ^ b[i]
	}
	return diff == 0
}

// remainingSigsWatermark is the signature-capacity threshold under
// which Sign starts logging how close a key is to exhaustion.
const remainingSigsWatermark = 1 << 10

type dummyLogger struct{}
type stdlibLogger struct{}

func (logger *dummyLogger) Logf(format string, a ...interface{}) {}

func (logger *stdlibLogger) Logf(format string, a ...interface{}) {
	goLog.Printf(format, a...)
}

var log Logger = &dummyLogger{}

// Logger receives diagnostic messages from the BDS engine and Sign.
type Logger interface {
	Logf(format string, a ...interface{})
}

// EnableLogging enables logging to the standard log package.  For more
// flexibility, use SetLogger.
func EnableLogging() {
	SetLogger(&stdlibLogger{})
}

// SetLogger sets the package-wide logger.  Pass nil to disable logging.
func SetLogger(logger Logger) {
	if logger == nil {
		log = &dummyLogger{}
		return
	}
	log = logger
}
