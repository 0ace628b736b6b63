package runtime

import (
	"bytes"
	goruntime "runtime"
	"strconv"
)

// goroutineID parses the current goroutine id from the stack header
// "goroutine 42 [running]:".
func goroutineID() uint64 {
	var buf [64]byte
	n := goruntime.Stack(buf[:], false)
	b := bytes.TrimPrefix(buf[:n], []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i > 0 {
		b = b[:i]
	}
	id, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
