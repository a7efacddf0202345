package page

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"golang.org/x/exp/maps"
)


const WrapperType = "div"

// a data value `{"_awe_root_": rootId}` references a root to render in place of the value
const DataRootKey = "_awe_root_"


type VariableUpdateFunction func(variableId string, value any)


// A renderer ready node. Prop roots are already resolved into `Props` as `*RenderNode`.
// Nodes of one materialization share a single `Context`.
type RenderNode struct {
	Id       string
	Type     string
	Data     any
	Props    map[string]any
	Children []*RenderNode
	Context  *RenderContext
}

// the synthetic wrapper of a root has no id
func (self *RenderNode) IsWrapper() bool {
	return self.Id == ""
}


// Ambient values for presenters: the variable table and a way to change it.
type RenderContext struct {
	variables map[string]*Variable
	update    VariableUpdateFunction
	resolve   func(rootId string) (*RenderNode, error)
}

func (self *RenderContext) Variable(id string) (any, bool) {
	variable, ok := self.variables[id]
	if !ok {
		return nil, false
	}
	return variable.Value, true
}

func (self *RenderContext) Variables() map[string]any {
	values := make(map[string]any, len(self.variables))
	for id, variable := range self.variables {
		values[id] = variable.Value
	}
	return values
}

func (self *RenderContext) UpdateVariable(variableId string, value any) {
	if self.update != nil {
		self.update(variableId, value)
	}
}

// replaces a root reference with the materialized root. Other values are returned as is.
func (self *RenderContext) ResolveData(data any) (any, error) {
	if m, ok := data.(map[string]any); ok {
		if rootId, ok := m[DataRootKey].(string); ok {
			return self.resolve(rootId)
		}
	}
	return data, nil
}


// Materializer builds `RenderNode` trees from a store.
// Results are cached per store, so repeated calls on the same store return the same tree.
type Materializer struct {
	update VariableUpdateFunction

	stateLock sync.Mutex
	// the store of the cached pass
	cacheStore *Store
	cachePass  *materializePass
}

func NewMaterializer(update VariableUpdateFunction) *Materializer {
	return &Materializer{
		update: update,
	}
}

func (self *Materializer) Materialize(store *Store, rootId string) (*RenderNode, error) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	if self.cacheStore != store {
		self.cacheStore = store
		self.cachePass = newMaterializePass(store, self.update)
	}
	return self.cachePass.materialize(rootId)
}

// materializes without the cache
func Materialize(store *Store, rootId string, update VariableUpdateFunction) (*RenderNode, error) {
	return newMaterializePass(store, update).materialize(rootId)
}


// one store, each root materialized at most once
type materializePass struct {
	stateLock sync.Mutex

	store   *Store
	context *RenderContext
	// root id -> materialized root
	memo map[string]*RenderNode
	// root id -> cycles found under the root
	memoErrs map[string]error
	// roots currently being materialized, in order
	building []string
}

func newMaterializePass(store *Store, update VariableUpdateFunction) *materializePass {
	pass := &materializePass{
		store:    store,
		memo:     map[string]*RenderNode{},
		memoErrs: map[string]error{},
	}
	pass.context = &RenderContext{
		variables: store.Variables(),
		update:    update,
		resolve:   pass.materialize,
	}
	return pass
}

func (self *materializePass) materialize(rootId string) (*RenderNode, error) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	return self.materializeRoot(rootId)
}

// A prop root that closes a cycle is left out of its element's props.
// The rest of the tree is still built and returned alongside the cycle errors.
func (self *materializePass) materializeRoot(rootId string) (*RenderNode, error) {
	if node, ok := self.memo[rootId]; ok {
		return node, self.memoErrs[rootId]
	}
	if slices.Contains(self.building, rootId) {
		chain := append(slices.Clone(self.building), rootId)
		return nil, fmt.Errorf("%w: %s", ErrRootCycle, strings.Join(chain, " -> "))
	}
	self.building = append(self.building, rootId)
	defer func() {
		self.building = self.building[:len(self.building)-1]
	}()

	elements := self.store.Elements(rootId)
	// `Elements` is in insertion order, so a stable sort by index keeps insertion order for equal indexes
	slices.SortStableFunc(elements, func(a *Element, b *Element) int {
		if a.Index < b.Index {
			return -1
		} else if b.Index < a.Index {
			return 1
		} else {
			return 0
		}
	})

	wrapperProps := map[string]any{}
	if rootId == RootId && self.store.Style() != nil {
		wrapperProps["style"] = self.store.Style()
	}
	wrapper := &RenderNode{
		Type:     WrapperType,
		Props:    wrapperProps,
		Children: []*RenderNode{},
		Context:  self.context,
	}

	elementsById := map[string]*Element{}
	nodes := map[string]*RenderNode{}
	for _, element := range elements {
		elementsById[element.Id] = element
		nodes[element.Id] = &RenderNode{
			Id:       element.Id,
			Type:     element.ElementType,
			Data:     element.Data,
			Props:    maps.Clone(element.Props),
			Children: []*RenderNode{},
			Context:  self.context,
		}
	}

	var errs []error
	for _, element := range elements {
		node := nodes[element.Id]
		if node.Props == nil {
			node.Props = map[string]any{}
		}

		props := maps.Keys(element.PropChildren)
		slices.Sort(props)
		for _, prop := range props {
			propRoot, err := self.materializeRoot(element.PropChildren[prop])
			if err != nil {
				errs = append(errs, err)
			}
			if propRoot != nil {
				node.Props[prop] = propRoot
			}
		}

		if parentId, ok := attachedParentId(element, elementsById); ok {
			parent := nodes[parentId]
			parent.Children = append(parent.Children, node)
		} else {
			wrapper.Children = append(wrapper.Children, node)
		}
	}

	err := errors.Join(errs...)
	self.memo[rootId] = wrapper
	self.memoErrs[rootId] = err
	return wrapper, err
}

// The parent an element attaches to. An element whose parent is missing from the root,
// or whose parent chain loops, attaches to the root wrapper.
func attachedParentId(element *Element, elementsById map[string]*Element) (string, bool) {
	if element.ParentId == "" {
		return "", false
	}
	if _, ok := elementsById[element.ParentId]; !ok {
		return "", false
	}
	visited := map[string]bool{
		element.Id: true,
	}
	for ancestorId := element.ParentId; ancestorId != ""; {
		if visited[ancestorId] {
			return "", false
		}
		visited[ancestorId] = true
		ancestor, ok := elementsById[ancestorId]
		if !ok {
			// the chain ends at a dangling parent, which attaches to the wrapper
			break
		}
		ancestorId = ancestor.ParentId
	}
	return element.ParentId, true
}
