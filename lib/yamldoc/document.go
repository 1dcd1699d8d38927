// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package yamldoc

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Errors returned by Load, Parse, and RootMapping.
var (
	ErrMalformedDocument = errors.New("yamldoc: malformed document")

	// ErrNoDocument is returned when the input holds no YAML document
	// at all (empty, whitespace, or comments only). It matches
	// ErrMalformedDocument under errors.Is; callers with a recovery
	// path check for it first.
	ErrNoDocument = fmt.Errorf("%w: stream contains no document", ErrMalformedDocument)
)

const (
	// maxNodes bounds the number of nodes produced by a single load,
	// counting every alias expansion.
	maxNodes = 1 << 20

	// maxDepth bounds nesting, which also terminates self-referencing
	// anchors such as "&a [*a]".
	maxDepth = 256
)

// Document is a single YAML document with exactly one root node.
type Document struct {
	root Node
}

// NewDocument returns a document rooted at root. A nil root panics.
func NewDocument(root Node) *Document {
	mustNode(root)
	return &Document{root: root}
}

// NewMappingDocument returns a document whose root is an empty mapping.
func NewMappingDocument() *Document {
	return &Document{root: NewMapping()}
}

// Root returns the root node.
func (d *Document) Root() Node { return d.root }

// SetRoot replaces the root node. A nil root panics.
func (d *Document) SetRoot(root Node) {
	mustNode(root)
	d.root = root
}

// RootMapping returns the root as a mapping, or ErrMalformedDocument
// when the root is another variant.
func (d *Document) RootMapping() (*Mapping, error) {
	mapping, ok := d.root.(*Mapping)
	if !ok {
		return nil, fmt.Errorf("%w: root is a %s, want mapping", ErrMalformedDocument, d.root.Kind())
	}
	return mapping, nil
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	return &Document{root: d.root.CloneNode()}
}

// Parse is Load over a byte slice.
func Parse(data []byte) (*Document, error) {
	return Load(bytes.NewReader(data))
}

// Load parses the first YAML document in r. Any documents after the
// first are ignored.
func Load(r io.Reader) (*Document, error) {
	decoder := yaml.NewDecoder(r)

	var source yaml.Node
	if err := decoder.Decode(&source); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoDocument
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	if source.Kind != yaml.DocumentNode || len(source.Content) == 0 {
		return nil, ErrNoDocument
	}

	converter := &loader{budget: maxNodes}
	root, err := converter.convert(source.Content[0], 0)
	if err != nil {
		return nil, err
	}
	return &Document{root: root}, nil
}

// Save writes the document as YAML with two-space indentation.
func (d *Document) Save(w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)

	document := &yaml.Node{
		Kind:    yaml.DocumentNode,
		Content: []*yaml.Node{toYAML(d.root)},
	}
	if err := encoder.Encode(document); err != nil {
		return fmt.Errorf("yamldoc: encoding document: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("yamldoc: flushing document: %w", err)
	}
	return nil
}

// Bytes returns the serialized document.
func (d *Document) Bytes() ([]byte, error) {
	var buffer bytes.Buffer
	if err := d.Save(&buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

type loader struct {
	budget int
}

func (l *loader) convert(source *yaml.Node, depth int) (Node, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("%w: nesting exceeds %d levels (line %d)", ErrMalformedDocument, maxDepth, source.Line)
	}
	l.budget--
	if l.budget < 0 {
		return nil, fmt.Errorf("%w: document expands to more than %d nodes", ErrMalformedDocument, maxNodes)
	}

	switch source.Kind {
	case yaml.ScalarNode:
		return &Scalar{Value: source.Value, Style: styleFromYAML(source.Style)}, nil

	case yaml.SequenceNode:
		sequence := &Sequence{
			Flow:  source.Style&yaml.FlowStyle != 0,
			items: make([]Node, 0, len(source.Content)),
		}
		for _, child := range source.Content {
			item, err := l.convert(child, depth+1)
			if err != nil {
				return nil, err
			}
			sequence.items = append(sequence.items, item)
		}
		return sequence, nil

	case yaml.MappingNode:
		mapping := &Mapping{Flow: source.Style&yaml.FlowStyle != 0}
		if len(source.Content)%2 != 0 {
			return nil, fmt.Errorf("%w: mapping at line %d has a dangling key", ErrMalformedDocument, source.Line)
		}
		for i := 0; i < len(source.Content); i += 2 {
			keyNode := resolveAlias(source.Content[i])
			if keyNode == nil || keyNode.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("%w: non-scalar mapping key at line %d", ErrMalformedDocument, source.Content[i].Line)
			}
			if mapping.Has(keyNode.Value) {
				return nil, fmt.Errorf("%w: duplicate key %q at line %d", ErrMalformedDocument, keyNode.Value, keyNode.Line)
			}
			value, err := l.convert(source.Content[i+1], depth+1)
			if err != nil {
				return nil, err
			}
			mapping.Set(keyNode.Value, value)
		}
		return mapping, nil

	case yaml.AliasNode:
		if source.Alias == nil {
			return nil, fmt.Errorf("%w: unresolved alias %q at line %d", ErrMalformedDocument, source.Value, source.Line)
		}
		return l.convert(source.Alias, depth+1)

	default:
		return nil, fmt.Errorf("%w: unexpected node kind %d at line %d", ErrMalformedDocument, source.Kind, source.Line)
	}
}

// resolveAlias follows alias chains for mapping keys. Returns nil on a
// dangling alias.
func resolveAlias(node *yaml.Node) *yaml.Node {
	for hops := 0; node != nil && node.Kind == yaml.AliasNode; hops++ {
		if hops > maxDepth {
			return nil
		}
		node = node.Alias
	}
	return node
}

func styleFromYAML(style yaml.Style) ScalarStyle {
	switch {
	case style&yaml.DoubleQuotedStyle != 0:
		return StyleDoubleQuoted
	case style&yaml.SingleQuotedStyle != 0:
		return StyleSingleQuoted
	case style&yaml.LiteralStyle != 0:
		return StyleLiteral
	case style&yaml.FoldedStyle != 0:
		return StyleFolded
	default:
		return StylePlain
	}
}

func styleToYAML(style ScalarStyle) yaml.Style {
	switch style {
	case StyleDoubleQuoted:
		return yaml.DoubleQuotedStyle
	case StyleSingleQuoted:
		return yaml.SingleQuotedStyle
	case StyleLiteral:
		return yaml.LiteralStyle
	case StyleFolded:
		return yaml.FoldedStyle
	default:
		return 0
	}
}

// toYAML builds an untagged, anchor-free yaml.Node tree. Leaving Tag
// empty lets the emitter present "2" as a plain scalar instead of
// forcing quotes to preserve a string type this model does not track.
func toYAML(node Node) *yaml.Node {
	switch typed := node.(type) {
	case *Scalar:
		return &yaml.Node{Kind: yaml.ScalarNode, Value: typed.Value, Style: styleToYAML(typed.Style)}
	case *Sequence:
		out := &yaml.Node{Kind: yaml.SequenceNode, Content: make([]*yaml.Node, 0, typed.Len())}
		if typed.Flow {
			out.Style = yaml.FlowStyle
		}
		for _, item := range typed.items {
			out.Content = append(out.Content, toYAML(item))
		}
		return out
	case *Mapping:
		out := &yaml.Node{Kind: yaml.MappingNode, Content: make([]*yaml.Node, 0, 2*typed.Len())}
		if typed.Flow {
			out.Style = yaml.FlowStyle
		}
		for _, entry := range typed.pairs {
			out.Content = append(out.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: entry.key},
				toYAML(entry.value))
		}
		return out
	default:
		panic(fmt.Sprintf("yamldoc: unhandled node type %T", node))
	}
}
