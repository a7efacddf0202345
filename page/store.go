package page

import (
	"slices"

	"github.com/xiaq/persistent/hash"
	"github.com/xiaq/persistent/hashmap"
)


const RootId = "root"


// An element of the server described forest. Elements are immutable once in a store.
type Element struct {
	Id          string
	RootId      string
	// empty when the element is at the top of its root
	ParentId    string
	Index       int
	ElementType string
	Data        any
	Props       map[string]any
	Children    []any
	// prop name -> root id
	PropChildren map[string]string

	// insertion order within the store, the secondary sort key after `Index`
	sequence uint64
}

func (self *Element) Sequence() uint64 {
	return self.sequence
}

// the element as a document. `updatePath` paths are relative to this document.
func (self *Element) document() map[string]any {
	var parentId any
	if self.ParentId != "" {
		parentId = self.ParentId
	}
	propChildren := map[string]any{}
	for prop, rootId := range self.PropChildren {
		propChildren[prop] = rootId
	}
	return map[string]any{
		"id":           self.Id,
		"index":        self.Index,
		"parentId":     parentId,
		"elementType":  self.ElementType,
		"data":         self.Data,
		"props":        self.Props,
		"children":     self.Children,
		"propChildren": propChildren,
	}
}

// rebuilds an element from a patched document. The identity fields cannot be patched.
func (self *Element) withDocument(doc map[string]any) (*Element, error) {
	next := *self

	if id, ok := doc["id"].(string); !ok || id != self.Id {
		return nil, invalidField("id", doc["id"])
	}

	switch v := doc["parentId"].(type) {
	case nil:
		next.ParentId = ""
	case string:
		next.ParentId = v
	default:
		return nil, invalidField("parentId", v)
	}

	index, ok := toInt(doc["index"])
	if !ok {
		return nil, invalidField("index", doc["index"])
	}
	next.Index = index

	elementType, ok := doc["elementType"].(string)
	if !ok {
		return nil, invalidField("elementType", doc["elementType"])
	}
	next.ElementType = elementType

	next.Data = doc["data"]

	switch v := doc["props"].(type) {
	case nil:
		next.Props = map[string]any{}
	case map[string]any:
		next.Props = v
	default:
		return nil, invalidField("props", v)
	}

	switch v := doc["children"].(type) {
	case nil:
		next.Children = []any{}
	case []any:
		next.Children = v
	default:
		return nil, invalidField("children", v)
	}

	propChildren := map[string]string{}
	switch v := doc["propChildren"].(type) {
	case nil:
	case map[string]any:
		for prop, rootIdValue := range v {
			rootId, ok := rootIdValue.(string)
			if !ok {
				return nil, invalidField("propChildren", rootIdValue)
			}
			if rootId == self.RootId {
				return nil, ErrPropChildSameRoot
			}
			propChildren[prop] = rootId
		}
	default:
		return nil, invalidField("propChildren", v)
	}
	next.PropChildren = propChildren

	return &next, nil
}


type Variable struct {
	Id      string
	Value   any
	Version int64
}


func stringEqual(a any, b any) bool {
	return a == b
}

func stringHash(k any) uint32 {
	return hash.String(k.(string))
}

var emptyMap = hashmap.New(stringEqual, stringHash)


// Immutable snapshot of the client state.
// Every change returns a new store sharing structure with the previous one,
// so a reader holding a store never observes a partial update.
type Store struct {
	// root id -> (element id -> *Element)
	roots hashmap.Map
	// variable id -> *Variable
	variables hashmap.Map

	style                     any
	title                     string
	displayError              string
	displayOptions            bool
	exportLoading             bool
	displayExportObjectResult map[string]any

	nextSequence uint64
}

func NewStore() *Store {
	return &Store{
		roots:     emptyMap.Assoc(RootId, emptyMap),
		variables: emptyMap,
		style:     map[string]any{},
	}
}

func (self *Store) copy() *Store {
	next := *self
	return &next
}

func (self *Store) root(rootId string) (hashmap.Map, bool) {
	root, ok := self.roots.Index(rootId)
	if !ok {
		return nil, false
	}
	return root.(hashmap.Map), true
}

func (self *Store) HasRoot(rootId string) bool {
	return hasKey(self.roots, rootId)
}

// root ids sorted
func (self *Store) RootIds() []string {
	rootIds := make([]string, 0, self.roots.Len())
	for it := self.roots.Iterator(); it.HasElem(); it.Next() {
		k, _ := it.Elem()
		rootIds = append(rootIds, k.(string))
	}
	slices.Sort(rootIds)
	return rootIds
}

func (self *Store) Element(rootId string, id string) (*Element, bool) {
	root, ok := self.root(rootId)
	if !ok {
		return nil, false
	}
	element, ok := root.Index(id)
	if !ok {
		return nil, false
	}
	return element.(*Element), true
}

// elements of the root in insertion order
func (self *Store) Elements(rootId string) []*Element {
	root, ok := self.root(rootId)
	if !ok {
		return []*Element{}
	}
	elements := make([]*Element, 0, root.Len())
	for it := root.Iterator(); it.HasElem(); it.Next() {
		_, element := it.Elem()
		elements = append(elements, element.(*Element))
	}
	slices.SortFunc(elements, func(a *Element, b *Element) int {
		if a.sequence < b.sequence {
			return -1
		} else if b.sequence < a.sequence {
			return 1
		} else {
			return 0
		}
	})
	return elements
}

func (self *Store) Variable(id string) (*Variable, bool) {
	variable, ok := self.variables.Index(id)
	if !ok {
		return nil, false
	}
	return variable.(*Variable), true
}

func (self *Store) Variables() map[string]*Variable {
	variables := make(map[string]*Variable, self.variables.Len())
	for it := self.variables.Iterator(); it.HasElem(); it.Next() {
		k, v := it.Elem()
		variables[k.(string)] = v.(*Variable)
	}
	return variables
}

func (self *Store) Style() any {
	return self.style
}

func (self *Store) Title() string {
	return self.title
}

// empty when no error is displayed
func (self *Store) DisplayError() string {
	return self.displayError
}

func (self *Store) DisplayOptions() bool {
	return self.displayOptions
}

func (self *Store) ExportLoading() bool {
	return self.exportLoading
}

// nil when no result is displayed
func (self *Store) DisplayExportObjectResult() map[string]any {
	return self.displayExportObjectResult
}


// store changes used by the reducer

// inserts or replaces the element. A replaced element keeps its insertion sequence.
func (self *Store) withElement(element *Element) *Store {
	next := self.copy()
	root, ok := self.root(element.RootId)
	if !ok {
		root = emptyMap
	}
	inserted := *element
	if existing, ok := root.Index(element.Id); ok {
		inserted.sequence = existing.(*Element).sequence
	} else {
		inserted.sequence = next.nextSequence
		next.nextSequence += 1
	}
	next.roots = self.roots.Assoc(element.RootId, root.Assoc(element.Id, &inserted))
	return next
}

// replaces an element already in the store without touching the sequence counter
func (self *Store) withPatchedElement(element *Element) *Store {
	next := self.copy()
	root, _ := self.root(element.RootId)
	next.roots = self.roots.Assoc(element.RootId, root.Assoc(element.Id, element))
	return next
}

func (self *Store) withoutElement(rootId string, id string) *Store {
	root, ok := self.root(rootId)
	if !ok || !hasKey(root, id) {
		return self
	}
	next := self.copy()
	next.roots = self.roots.Assoc(rootId, root.Dissoc(id))
	return next
}

func (self *Store) withoutRoot(rootId string) *Store {
	if !self.HasRoot(rootId) {
		return self
	}
	next := self.copy()
	next.roots = self.roots.Dissoc(rootId)
	return next
}

func (self *Store) withVariable(variable *Variable) *Store {
	next := self.copy()
	next.variables = self.variables.Assoc(variable.Id, variable)
	return next
}

func (self *Store) withoutVariable(id string) *Store {
	if !hasKey(self.variables, id) {
		return self
	}
	next := self.copy()
	next.variables = self.variables.Dissoc(id)
	return next
}

func hasKey(m hashmap.Map, k string) bool {
	_, ok := m.Index(k)
	return ok
}
