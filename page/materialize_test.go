package page

import (
	"errors"
	"testing"

	"github.com/go-playground/assert/v2"
	"github.com/google/go-cmp/cmp"
)

// node ids and types without the context
type testNode struct {
	Id       string
	Type     string
	Props    map[string]*testNode
	Children []*testNode
}

func toTestNode(node *RenderNode) *testNode {
	out := &testNode{
		Id:       node.Id,
		Type:     node.Type,
		Props:    map[string]*testNode{},
		Children: []*testNode{},
	}
	for name, prop := range node.Props {
		if propNode, ok := prop.(*RenderNode); ok {
			out.Props[name] = toTestNode(propNode)
		}
	}
	for _, child := range node.Children {
		out.Children = append(out.Children, toTestNode(child))
	}
	return out
}

func TestMaterializeEmptyRoot(t *testing.T) {
	node, err := Materialize(NewStore(), RootId, nil)
	assert.Equal(t, err, nil)
	assert.Equal(t, node.IsWrapper(), true)
	assert.Equal(t, node.Type, WrapperType)
	assert.Equal(t, len(node.Children), 0)
	assert.Equal(t, node.Props["style"], map[string]any{})

	node, err = Materialize(NewStore(), "missing", nil)
	assert.Equal(t, err, nil)
	assert.Equal(t, len(node.Children), 0)
	_, hasStyle := node.Props["style"]
	assert.Equal(t, hasStyle, false)
}

func TestMaterializeOrderAndParents(t *testing.T) {
	store := applyAll(
		t,
		NewApplier(),
		// a child arrives before its parent
		&NewElement{RootId: RootId, Id: "c2", ParentId: "p", Index: 1, ElementType: TextType},
		&NewElement{RootId: RootId, Id: "p", Index: 1, ElementType: CardType},
		&NewElement{RootId: RootId, Id: "c1", ParentId: "p", Index: 0, ElementType: TextType},
		&NewElement{RootId: RootId, Id: "first", Index: 0, ElementType: TextType},
		// equal index keeps insertion order
		&NewElement{RootId: RootId, Id: "tie", Index: 1, ElementType: TextType},
		&NewElement{RootId: RootId, Id: "orphan", ParentId: "gone", Index: 2, ElementType: TextType},
	)

	node, err := Materialize(store, RootId, nil)
	assert.Equal(t, err, nil)

	expected := &testNode{
		Type:  WrapperType,
		Props: map[string]*testNode{},
		Children: []*testNode{
			{Id: "first", Type: TextType, Props: map[string]*testNode{}, Children: []*testNode{}},
			{Id: "p", Type: CardType, Props: map[string]*testNode{}, Children: []*testNode{
				{Id: "c1", Type: TextType, Props: map[string]*testNode{}, Children: []*testNode{}},
				{Id: "c2", Type: TextType, Props: map[string]*testNode{}, Children: []*testNode{}},
			}},
			{Id: "tie", Type: TextType, Props: map[string]*testNode{}, Children: []*testNode{}},
			// a dangling parent attaches to the wrapper
			{Id: "orphan", Type: TextType, Props: map[string]*testNode{}, Children: []*testNode{}},
		},
	}
	assert.Equal(t, cmp.Diff(expected, toTestNode(node)), "")
}

func TestMaterializeParentLoop(t *testing.T) {
	store := applyAll(
		t,
		NewApplier(),
		&NewElement{RootId: RootId, Id: "a", ParentId: "b", ElementType: TextType},
		&NewElement{RootId: RootId, Id: "b", ParentId: "a", ElementType: TextType},
	)
	node, err := Materialize(store, RootId, nil)
	assert.Equal(t, err, nil)
	assert.Equal(t, len(node.Children), 2)
}

func TestMaterializeSharedPropRoot(t *testing.T) {
	store := applyAll(
		t,
		NewApplier(),
		&NewElement{RootId: "shared", Id: "label", ElementType: TextType, Data: "label"},
		&NewElement{RootId: RootId, Id: "a", Index: 0, ElementType: CardType, PropChildren: map[string]string{"header": "shared"}},
		&NewElement{RootId: RootId, Id: "b", Index: 1, ElementType: CardType, PropChildren: map[string]string{"header": "shared"}},
	)

	first, err := Materialize(store, RootId, nil)
	assert.Equal(t, err, nil)
	second, err := Materialize(store, RootId, nil)
	assert.Equal(t, err, nil)

	// deterministic across passes
	assert.Equal(t, cmp.Diff(toTestNode(first), toTestNode(second)), "")

	// within a pass the shared root is materialized once
	a := first.Children[0].Props["header"].(*RenderNode)
	b := first.Children[1].Props["header"].(*RenderNode)
	assert.Equal(t, a == b, true)
	assert.Equal(t, a.Children[0].Id, "label")

	// the store props are not changed by materialization
	element, _ := store.Element(RootId, "a")
	_, ok := element.Props["header"]
	assert.Equal(t, ok, false)
}

func TestMaterializeCycle(t *testing.T) {
	store := applyAll(
		t,
		NewApplier(),
		&NewElement{RootId: "r1", Id: "a", ElementType: CardType, PropChildren: map[string]string{"header": "r2"}},
		&NewElement{RootId: "r2", Id: "b", ElementType: CardType, PropChildren: map[string]string{"header": "r1"}},
		&NewElement{RootId: RootId, Id: "top", ElementType: CardType, PropChildren: map[string]string{"header": "r1"}},
		&NewElement{RootId: RootId, Id: "after", Index: 1, ElementType: TextType, Data: "still here"},
	)
	node, err := Materialize(store, RootId, nil)
	assert.Equal(t, errors.Is(err, ErrRootCycle), true)

	// the cycle only drops the prop that closes it
	assert.Equal(t, len(node.Children), 2)
	top := node.Children[0]
	assert.Equal(t, top.Id, "top")
	r1 := top.Props["header"].(*RenderNode)
	assert.Equal(t, r1.Children[0].Id, "a")
	r2 := r1.Children[0].Props["header"].(*RenderNode)
	assert.Equal(t, r2.Children[0].Id, "b")
	_, ok := r2.Children[0].Props["header"]
	assert.Equal(t, ok, false)
	assert.Equal(t, node.Children[1].Data, "still here")

	// cached roots keep reporting the cycle
	materializer := NewMaterializer(nil)
	_, err = materializer.Materialize(store, RootId)
	assert.Equal(t, errors.Is(err, ErrRootCycle), true)
	_, err = materializer.Materialize(store, "r2")
	assert.Equal(t, errors.Is(err, ErrRootCycle), true)
}

func TestMaterializerCache(t *testing.T) {
	materializer := NewMaterializer(nil)
	store := applyAll(t, NewApplier(), &NewElement{RootId: RootId, Id: "a", ElementType: TextType})

	first, err := materializer.Materialize(store, RootId)
	assert.Equal(t, err, nil)
	second, err := materializer.Materialize(store, RootId)
	assert.Equal(t, err, nil)
	assert.Equal(t, first == second, true)

	next := applyAll(t, NewApplier(), &NewElement{RootId: RootId, Id: "b", ElementType: TextType})
	third, err := materializer.Materialize(next, RootId)
	assert.Equal(t, err, nil)
	assert.Equal(t, first == third, false)
	assert.Equal(t, third.Children[0].Id, "b")
}

func TestRenderContext(t *testing.T) {
	updates := map[string]any{}
	store := applyAll(
		t,
		NewApplier(),
		&NewVariable{Id: "name", Value: "ada"},
		&NewElement{RootId: "inline", Id: "x", ElementType: TextType},
		&NewElement{RootId: RootId, Id: "a", ElementType: TextType, Data: map[string]any{DataRootKey: "inline"}},
	)

	node, err := Materialize(store, RootId, func(variableId string, value any) {
		updates[variableId] = value
	})
	assert.Equal(t, err, nil)

	child := node.Children[0]
	assert.Equal(t, child.Context == node.Context, true)

	value, ok := child.Context.Variable("name")
	assert.Equal(t, ok, true)
	assert.Equal(t, value, "ada")
	assert.Equal(t, child.Context.Variables(), map[string]any{"name": "ada"})

	child.Context.UpdateVariable("name", "grace")
	assert.Equal(t, updates, map[string]any{"name": "grace"})

	resolved, err := child.Context.ResolveData(child.Data)
	assert.Equal(t, err, nil)
	inline := resolved.(*RenderNode)
	assert.Equal(t, inline.Children[0].Id, "x")

	plain, err := child.Context.ResolveData("text")
	assert.Equal(t, err, nil)
	assert.Equal(t, plain, "text")
}
