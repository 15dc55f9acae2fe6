package scene

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/entryframe/pkg/math3d"
	"github.com/taigrr/entryframe/pkg/mesh"
)

func TestSceneTypedAccess(t *testing.T) {
	s := New()
	m := mesh.NewMesh("skull")
	model := s.AddModel("skull", m)
	xf := s.AddTransform("EntryFrame")
	markup := s.AddMarkup("F")

	assert.Equal(t, 3, s.Len())
	assert.NotEqual(t, model.ID(), xf.ID())

	gotModel, err := Get[*ModelNode](s, model.ID())
	require.NoError(t, err)
	assert.Same(t, m, gotModel.Mesh)
	assert.True(t, gotModel.Visible)

	gotXf, err := Get[*TransformNode](s, xf.ID())
	require.NoError(t, err)
	assert.Equal(t, math3d.Identity(), gotXf.Transform.Matrix())
	assert.Equal(t, "EntryFrame", gotXf.Transform.Name)

	_, err = Get[*TransformNode](s, markup.ID())
	assert.ErrorIs(t, err, ErrWrongType)

	_, err = Get[*ModelNode](s, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSceneRemoveAndOrder(t *testing.T) {
	s := New()
	a := s.AddModel("a", nil)
	s.AddTransform("t")
	b := s.AddModel("b", nil)
	c := s.AddModel("c", nil)

	require.True(t, s.Remove(b.ID()))
	assert.False(t, s.Remove(b.ID()), "second remove")

	models := All[*ModelNode](s)
	require.Len(t, models, 2)
	assert.Equal(t, a.ID(), models[0].ID())
	assert.Equal(t, c.ID(), models[1].ID())

	got, ok := FindByName[*ModelNode](s, "c")
	require.True(t, ok)
	assert.Equal(t, c.ID(), got.ID())
	_, ok = FindByName[*ModelNode](s, "t")
	assert.False(t, ok, "name lookup must respect the node type")
}
