package utils

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	idMu    sync.Mutex
	entropy io.Reader
)

func init() {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	entropy = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// NewTradeID returns a ULID string. IDs generated within the same millisecond
// still sort in creation order.
func NewTradeID() string {
	return NewTradeIDAt(time.Now())
}

// NewTradeIDAt returns a ULID whose timestamp component is t.
func NewTradeIDAt(t time.Time) string {
	idMu.Lock()
	defer idMu.Unlock()

	id, err := ulid.New(ulid.Timestamp(t.UTC()), entropy)
	if err != nil {
		// Only fails when the monotonic entropy overflows within one millisecond.
		panic(err)
	}
	return id.String()
}
