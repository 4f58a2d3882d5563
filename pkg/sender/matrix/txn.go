package matrix

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// txnNamespace scopes transaction ids generated by chatship.
var txnNamespace = uuid.MustParse("5b0e7b44-53c1-4b6e-9a43-2c1b8d0f6a11")

// TxnID derives the idempotency key for one delivery attempt of payload at t.
// The same payload in the same millisecond yields the same key.
func TxnID(t time.Time, payload string) string {
	name := strconv.FormatInt(t.UnixMilli(), 10) + "\n" + payload
	return uuid.NewSHA1(txnNamespace, []byte(name)).String()
}
