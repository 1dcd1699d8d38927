// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package yamldoc

import (
	"fmt"
	"iter"
)

// Kind identifies the variant of a [Node].
type Kind uint8

const (
	KindMapping Kind = iota + 1
	KindSequence
	KindScalar
)

// String returns the lowercase name of the kind.
func (kind Kind) String() string {
	switch kind {
	case KindMapping:
		return "mapping"
	case KindSequence:
		return "sequence"
	case KindScalar:
		return "scalar"
	default:
		return fmt.Sprintf("unknown(%d)", kind)
	}
}

// Node is one of *Mapping, *Sequence, or *Scalar. The interface is
// sealed: only this package can add variants.
type Node interface {
	// Kind reports which variant the node is.
	Kind() Kind

	// CloneNode returns a deep copy of the node.
	CloneNode() Node

	sealed()
}

// ScalarStyle records how a scalar was (or should be) presented in
// YAML text. It affects only serialization.
type ScalarStyle uint8

const (
	StylePlain ScalarStyle = iota
	StyleSingleQuoted
	StyleDoubleQuoted
	StyleLiteral
	StyleFolded
)

// Scalar is a leaf value. The value is an opaque string: "2", "true",
// and "0.5" are all just text to this model.
type Scalar struct {
	Value string
	Style ScalarStyle
}

// NewScalar returns a plain-style scalar.
func NewScalar(value string) *Scalar {
	return &Scalar{Value: value}
}

func (s *Scalar) Kind() Kind { return KindScalar }

func (s *Scalar) CloneNode() Node {
	clone := *s
	return &clone
}

func (s *Scalar) sealed() {}

// Sequence is an ordered list of nodes. Flow selects the inline
// "[a, b]" presentation on save.
type Sequence struct {
	items []Node
	Flow  bool
}

// NewSequence returns a sequence holding items in order. Nil items
// panic, as with [Mapping.Set].
func NewSequence(items ...Node) *Sequence {
	sequence := &Sequence{}
	for _, item := range items {
		sequence.Append(item)
	}
	return sequence
}

func (s *Sequence) Kind() Kind { return KindSequence }

func (s *Sequence) CloneNode() Node { return s.Clone() }

func (s *Sequence) sealed() {}

// Len returns the number of items.
func (s *Sequence) Len() int { return len(s.items) }

// At returns the item at index. It panics if index is out of range.
func (s *Sequence) At(index int) Node { return s.items[index] }

// Append adds node to the end of the sequence.
func (s *Sequence) Append(node Node) {
	mustNode(node)
	s.items = append(s.items, node)
}

// All iterates over the items with their indexes.
func (s *Sequence) All() iter.Seq2[int, Node] {
	return func(yield func(int, Node) bool) {
		for index, item := range s.items {
			if !yield(index, item) {
				return
			}
		}
	}
}

// Clone returns a deep copy of the sequence.
func (s *Sequence) Clone() *Sequence {
	clone := &Sequence{Flow: s.Flow, items: make([]Node, len(s.items))}
	for index, item := range s.items {
		clone.items[index] = item.CloneNode()
	}
	return clone
}

type pair struct {
	key   string
	value Node
}

// Mapping is an ordered set of key/value pairs with unique string
// keys. Insertion order is significant and is reproduced on save.
// Flow selects the inline "{a: b}" presentation on save.
//
// The zero value is an empty block mapping ready to use.
type Mapping struct {
	pairs []pair
	index map[string]int
	Flow  bool
}

// NewMapping returns an empty block mapping.
func NewMapping() *Mapping {
	return &Mapping{}
}

func (m *Mapping) Kind() Kind { return KindMapping }

func (m *Mapping) CloneNode() Node { return m.Clone() }

func (m *Mapping) sealed() {}

// Len returns the number of pairs.
func (m *Mapping) Len() int { return len(m.pairs) }

// Keys returns the keys in order.
func (m *Mapping) Keys() []string {
	keys := make([]string, len(m.pairs))
	for position, entry := range m.pairs {
		keys[position] = entry.key
	}
	return keys
}

// Has reports whether key is present.
func (m *Mapping) Has(key string) bool {
	_, ok := m.index[key]
	return ok
}

// Get returns the value stored under key.
func (m *Mapping) Get(key string) (Node, bool) {
	position, ok := m.index[key]
	if !ok {
		return nil, false
	}
	return m.pairs[position].value, true
}

// Set stores value under key. An existing key keeps its position; a
// new key is appended. Passing a nil node is a programming error and
// panics.
func (m *Mapping) Set(key string, value Node) {
	mustNode(value)
	if position, ok := m.index[key]; ok {
		m.pairs[position].value = value
		return
	}
	m.ensureIndex()
	m.index[key] = len(m.pairs)
	m.pairs = append(m.pairs, pair{key: key, value: value})
}

// Insert stores value under key at position, shifting later pairs
// back. The position is clamped to [0, Len()]. An existing key is
// replaced in place and keeps its current position.
func (m *Mapping) Insert(position int, key string, value Node) {
	mustNode(value)
	if existing, ok := m.index[key]; ok {
		m.pairs[existing].value = value
		return
	}
	position = max(0, min(position, len(m.pairs)))
	m.pairs = append(m.pairs, pair{})
	copy(m.pairs[position+1:], m.pairs[position:])
	m.pairs[position] = pair{key: key, value: value}
	m.reindex()
}

// Delete removes key and reports whether it was present.
func (m *Mapping) Delete(key string) bool {
	position, ok := m.index[key]
	if !ok {
		return false
	}
	m.pairs = append(m.pairs[:position], m.pairs[position+1:]...)
	m.reindex()
	return true
}

// All iterates over the pairs in order.
func (m *Mapping) All() iter.Seq2[string, Node] {
	return func(yield func(string, Node) bool) {
		for _, entry := range m.pairs {
			if !yield(entry.key, entry.value) {
				return
			}
		}
	}
}

// SetScalar stores a plain scalar under key.
func (m *Mapping) SetScalar(key, value string) {
	m.Set(key, NewScalar(value))
}

// ScalarValue returns the string under key. The second result is false
// when the key is absent or holds a non-scalar node.
func (m *Mapping) ScalarValue(key string) (string, bool) {
	node, ok := m.Get(key)
	if !ok {
		return "", false
	}
	scalar, ok := node.(*Scalar)
	if !ok {
		return "", false
	}
	return scalar.Value, true
}

// MappingAt returns the mapping under key. The second result is false
// when the key is absent or holds a non-mapping node.
func (m *Mapping) MappingAt(key string) (*Mapping, bool) {
	node, ok := m.Get(key)
	if !ok {
		return nil, false
	}
	mapping, ok := node.(*Mapping)
	return mapping, ok
}

// Clone returns a deep copy of the mapping.
func (m *Mapping) Clone() *Mapping {
	clone := &Mapping{Flow: m.Flow, pairs: make([]pair, len(m.pairs))}
	for position, entry := range m.pairs {
		clone.pairs[position] = pair{key: entry.key, value: entry.value.CloneNode()}
	}
	clone.reindex()
	return clone
}

func (m *Mapping) ensureIndex() {
	if m.index == nil {
		m.index = make(map[string]int, len(m.pairs)+1)
	}
}

func (m *Mapping) reindex() {
	m.index = make(map[string]int, len(m.pairs))
	for position, entry := range m.pairs {
		m.index[entry.key] = position
	}
}

func mustNode(node Node) {
	if node == nil {
		panic("yamldoc: nil node")
	}
}

// Equal reports whether a and b have the same structure and values.
// Mapping order is significant; scalar style and flow presentation are
// not.
func Equal(a, b Node) bool {
	switch left := a.(type) {
	case *Scalar:
		right, ok := b.(*Scalar)
		return ok && left.Value == right.Value
	case *Sequence:
		right, ok := b.(*Sequence)
		if !ok || left.Len() != right.Len() {
			return false
		}
		for index, item := range left.items {
			if !Equal(item, right.items[index]) {
				return false
			}
		}
		return true
	case *Mapping:
		right, ok := b.(*Mapping)
		if !ok || left.Len() != right.Len() {
			return false
		}
		for position, entry := range left.pairs {
			other := right.pairs[position]
			if entry.key != other.key || !Equal(entry.value, other.value) {
				return false
			}
		}
		return true
	case nil:
		return b == nil
	default:
		panic(fmt.Sprintf("yamldoc: unhandled node type %T", a))
	}
}
