package optimizer

import (
	"encoding/binary"
	"math"

	"github.com/minio/highwayhash"

	"github.com/viant/biome/mathir"
)

// hashKey is the fixed highwayhash key used to memoize pruned literal
// subtrees; any 32-byte key works since this hash is used only for
// in-process subtree identity, not for security. Mirrors the teacher's
// inspector/graph.Hash key (github.com/minio/highwayhash's New64 API).
var hashKey = []byte("0123456789ABCDEF0123456789ABCDEF")

// subtreeHasher keys each literal the constant folder produces by a hash of
// its type and value, so that equal folded literals within one PruneTree
// call share a single Literal node. Memoization happens after a fold: it
// does not spare the folder from walking or folding a repeated constant
// expression (grounded in the *spirit* of tree_pruning.cpp's
// per-instantiated-batch operation).
type subtreeHasher struct {
	seen map[uint64]mathir.Node
}

func newSubtreeHasher() *subtreeHasher {
	return &subtreeHasher{seen: map[uint64]mathir.Node{}}
}

// memoize returns a previously folded node equal to folded's hash, or
// records folded under its hash and returns folded unchanged. Only called
// for the result of a successful literal fold (so the memoized value is
// always itself a Literal, safe to alias across call sites).
func (h *subtreeHasher) memoize(folded *mathir.Literal) *mathir.Literal {
	key, err := literalHash(folded)
	if err != nil {
		return folded
	}
	if existing, ok := h.seen[key]; ok {
		if lit, ok := existing.(*mathir.Literal); ok {
			return lit
		}
	}
	h.seen[key] = folded
	return folded
}

func literalHash(l *mathir.Literal) (uint64, error) {
	hash, err := highwayhash.New64(hashKey)
	if err != nil {
		return 0, err
	}
	var buf [9]byte
	buf[0] = byte(l.Type)
	switch l.Type {
	case mathir.Integer:
		binary.LittleEndian.PutUint64(buf[1:9], uint64(l.IntVal))
	case mathir.Boolean:
		if l.BoolVal {
			buf[1] = 1
		}
	default:
		binary.LittleEndian.PutUint64(buf[1:9], math.Float64bits(l.RealVal))
	}
	if _, err := hash.Write(buf[:]); err != nil {
		return 0, err
	}
	return hash.Sum64(), nil
}
