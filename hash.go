package twinmodel

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
)

// A ForestHash is a consistent hash over a resolved forest's structure:
// two forests with the same roots, the same identifiers, and the same child
// ordering have the same hash. It is used to detect whether a rebuilt forest
// actually changed (see ForestChanged.IsEmpty) without comparing trees node
// by node.
type ForestHash contentAddress

func (h ForestHash) MarshalText() ([]byte, error)     { return contentAddress(h).MarshalText() }
func (h *ForestHash) UnmarshalText(text []byte) error { return (*contentAddress)(h).UnmarshalText(text) }
func (h ForestHash) String() string                   { return "forest(" + contentAddress(h).String() + ")" }
func (h ForestHash) IsZero() bool                     { return contentAddress(h).IsZero() }

// HashForest digests the given forest into a ForestHash.
//
// The digest covers node identifiers and tree shape: each subtree is written
// with explicit open and close markers, so re-parenting a node changes the
// hash even when the node set is identical.
func HashForest(forest *Forest) ForestHash {
	h := sha1.New()
	Walk(forestHasher{h}, forest)
	return ForestHash(h.Sum(nil))
}

type forestHasher struct {
	h hash.Hash
}

func (f forestHasher) Visit(node *TreeNode) Visitor {
	if node == nil {
		io.WriteString(f.h, ")")
		return nil
	}
	io.WriteString(f.h, "(")
	io.WriteString(f.h, node.InstanceID)
	return f
}

// A ModelHash is a consistent hash over a resolved interface's flattened
// content list. Two resolutions with the same id and the same flattened
// items (kind, name, schema, unit, target, writability, order) share a hash.
type ModelHash contentAddress

func (h ModelHash) MarshalText() ([]byte, error)     { return contentAddress(h).MarshalText() }
func (h *ModelHash) UnmarshalText(text []byte) error { return (*contentAddress)(h).UnmarshalText(text) }
func (h ModelHash) String() string                   { return "model(" + contentAddress(h).String() + ")" }
func (h ModelHash) IsZero() bool                     { return contentAddress(h).IsZero() }

// HashResolved digests the given resolved interface into a ModelHash.
func HashResolved(r ResolvedInterface) ModelHash {
	h := sha1.New()
	io.WriteString(h, r.ID)
	for _, item := range r.Contents {
		io.WriteString(h, "|")
		io.WriteString(h, string(item.Kind))
		io.WriteString(h, ":")
		io.WriteString(h, item.Name)
		io.WriteString(h, ":")
		h.Write(item.Schema)
		io.WriteString(h, ":")
		io.WriteString(h, item.Unit)
		io.WriteString(h, ":")
		io.WriteString(h, item.Target)
		if item.Writable {
			io.WriteString(h, ":w")
		}
	}
	return ModelHash(h.Sum(nil))
}

// contentAddress is a consistent hash primitive serving as the base for the
// strongly typed hashes above.
type contentAddress [sha1.Size]byte

func (h contentAddress) MarshalText() ([]byte, error) {
	text := make([]byte, hex.EncodedLen(len(h)))
	hex.Encode(text, h[:]) // always returns hex.EncodedLen(len(h)) (see hex.Encode)
	return text, nil
}

func (h *contentAddress) UnmarshalText(text []byte) error {
	n, err := hex.Decode(h[:], text)
	if err != nil {
		return fmt.Errorf("decode hex: %w", err)
	}
	if n != len(h) { // always n <= len(h[:]) (see hex.Decode)
		return fmt.Errorf("not enough bytes: %w", io.ErrUnexpectedEOF)
	}
	return nil
}

func (h contentAddress) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is the zero value of the type.
func (h contentAddress) IsZero() bool {
	return h == contentAddress{}
}
