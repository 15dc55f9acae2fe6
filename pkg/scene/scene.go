// Package scene is a small typed node registry: models, transforms and
// markups keyed by UUID.
package scene

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/taigrr/entryframe/pkg/frame"
	"github.com/taigrr/entryframe/pkg/math3d"
	"github.com/taigrr/entryframe/pkg/mesh"
)

var (
	ErrNotFound  = errors.New("node not found")
	ErrWrongType = errors.New("node has a different type")
)

// Node is anything stored in a Scene.
type Node interface {
	ID() uuid.UUID
	Name() string
	sceneNode()
}

type base struct {
	id   uuid.UUID
	name string
}

func (b *base) ID() uuid.UUID { return b.id }
func (b *base) Name() string  { return b.name }
func (b *base) sceneNode()    {}

// ModelNode holds a surface mesh.
type ModelNode struct {
	base
	Mesh    *mesh.Mesh
	Visible bool
}

// TransformNode holds a placement output slot.
type TransformNode struct {
	base
	Transform *frame.Transform
}

// MarkupNode holds fiducial points.
type MarkupNode struct {
	base
	Points []math3d.Vec3
}

// Scene owns the nodes. Node contents are not guarded; the registry itself
// is safe for concurrent use.
type Scene struct {
	mu    sync.RWMutex
	nodes map[uuid.UUID]Node
	order []uuid.UUID
}

// New returns an empty scene.
func New() *Scene {
	return &Scene{nodes: make(map[uuid.UUID]Node)}
}

func (s *Scene) add(n Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[n.ID()] = n
	s.order = append(s.order, n.ID())
}

// AddModel registers a visible model node.
func (s *Scene) AddModel(name string, m *mesh.Mesh) *ModelNode {
	n := &ModelNode{base: base{id: uuid.New(), name: name}, Mesh: m, Visible: true}
	s.add(n)
	return n
}

// AddTransform registers a transform node holding the identity.
func (s *Scene) AddTransform(name string) *TransformNode {
	n := &TransformNode{base: base{id: uuid.New(), name: name}, Transform: frame.NewTransform(name)}
	s.add(n)
	return n
}

// AddMarkup registers an empty markup node.
func (s *Scene) AddMarkup(name string) *MarkupNode {
	n := &MarkupNode{base: base{id: uuid.New(), name: name}}
	s.add(n)
	return n
}

// Remove deletes a node and reports whether it existed.
func (s *Scene) Remove(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nodes[id]; !ok {
		return false
	}
	delete(s.nodes, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Node returns the node with the given ID.
func (s *Scene) Node(id uuid.UUID) (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	return n, ok
}

// Len returns the number of nodes.
func (s *Scene) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// Get returns the node with the given ID as a T.
func Get[T Node](s *Scene, id uuid.UUID) (T, error) {
	var zero T
	n, ok := s.Node(id)
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	t, ok := n.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s is a %T", ErrWrongType, id, n)
	}
	return t, nil
}

// All returns every node of type T in insertion order.
func All[T Node](s *Scene) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []T
	for _, id := range s.order {
		if t, ok := s.nodes[id].(T); ok {
			out = append(out, t)
		}
	}
	return out
}

// FindByName returns the first node of type T called name.
func FindByName[T Node](s *Scene, name string) (T, bool) {
	for _, n := range All[T](s) {
		if n.Name() == name {
			return n, true
		}
	}
	var zero T
	return zero, false
}
