package ledger

import (
	"github.com/ethereum/go-ethereum/common"
)

// Post is one entry of the append-only feed. Remote posts carry the
// 1-based index the contract assigned them; optimistic posts synthesized
// after a local submission have Index 0 until a reload replaces them.
type Post struct {
	Author    common.Address
	Content   string
	Timestamp int64 // seconds since epoch
	Index     uint64
}

// Optimistic reports whether the post was synthesized locally and has
// not yet been observed in the ledger.
func (p Post) Optimistic() bool {
	return p.Index == 0
}

// Receipt summarizes a mined createPost transaction
type Receipt struct {
	TxHash      string
	BlockNumber uint64
	GasUsed     uint64
}
