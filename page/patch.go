package page

import (
	"errors"
	"fmt"
)


func invalidField(name string, value any) error {
	return fmt.Errorf("%w: %s = %T", ErrInvalidElementField, name, value)
}


// The reducer. `Apply` is pure: the input store is never changed, and a failed
// operation returns the input store with the error.
type Applier struct {
	merges *Registry[MergeFunction]
}

func NewApplier() *Applier {
	return NewApplierWithMerges(NewMergeRegistry())
}

func NewApplierWithMerges(merges *Registry[MergeFunction]) *Applier {
	return &Applier{
		merges: merges,
	}
}

// register additional merge strategies here
func (self *Applier) Merges() *Registry[MergeFunction] {
	return self.merges
}

func (self *Applier) Apply(store *Store, op Operation) (*Store, error) {
	switch v := op.(type) {
	case *NewElement:
		return self.newElement(store, v)
	case *NewPropChild:
		return self.newPropChild(store, v)
	case *NewVariable:
		return self.newVariable(store, v)
	case *UpdateVariable:
		return self.updateVariable(store, v)
	case *UpdatePath:
		return self.updatePath(store, v)
	case *RemoveElements:
		return self.removeElements(store, v)
	case *SetStyle:
		next := store.copy()
		next.style = v.Style
		return next, nil
	case *SetTitle:
		next := store.copy()
		next.title = v.Title
		return next, nil
	case *DisplayError:
		next := store.copy()
		next.displayError = v.Error
		return next, nil
	case *DisplayOptions:
		next := store.copy()
		next.displayOptions = v.DisplayOptions
		return next, nil
	case *ExportLoading:
		next := store.copy()
		next.exportLoading = v.ExportLoading
		return next, nil
	case *DisplayExportObjectResult:
		next := store.copy()
		next.displayExportObjectResult = v.Result
		return next, nil
	default:
		// unknown operations are tolerated for forward compatibility
		return store, nil
	}
}

// applies in order. A failed operation is skipped and the remaining operations still apply.
func (self *Applier) ApplyAll(store *Store, ops []Operation) (*Store, error) {
	var errs []error
	for _, op := range ops {
		next, err := self.Apply(store, op)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", op.OperationType(), err))
			continue
		}
		store = next
	}
	return store, errors.Join(errs...)
}

func (self *Applier) newElement(store *Store, op *NewElement) (*Store, error) {
	props := op.Props
	if props == nil {
		props = map[string]any{}
	}
	propChildren := map[string]string{}
	for prop, rootId := range op.PropChildren {
		if rootId == op.RootId {
			return store, fmt.Errorf("%w: %s.%s", ErrPropChildSameRoot, op.Id, prop)
		}
		propChildren[prop] = rootId
	}
	element := &Element{
		Id:           op.Id,
		RootId:       op.RootId,
		ParentId:     op.ParentId,
		Index:        op.Index,
		ElementType:  op.ElementType,
		Data:         op.Data,
		Props:        props,
		Children:     []any{},
		PropChildren: propChildren,
	}
	return store.withElement(element), nil
}

func (self *Applier) newPropChild(store *Store, op *NewPropChild) (*Store, error) {
	element, ok := store.Element(op.ElementRootId, op.ElementId)
	if !ok {
		return store, fmt.Errorf("%w: %s/%s", ErrElementNotFound, op.ElementRootId, op.ElementId)
	}
	if op.RootId == op.ElementRootId {
		return store, fmt.Errorf("%w: %s.%s", ErrPropChildSameRoot, op.ElementId, op.Prop)
	}
	next := *element
	next.PropChildren = cloneStringMap(element.PropChildren)
	next.PropChildren[op.Prop] = op.RootId
	return store.withPatchedElement(&next), nil
}

func (self *Applier) newVariable(store *Store, op *NewVariable) (*Store, error) {
	return store.withVariable(&Variable{
		Id:      op.Id,
		Value:   op.Value,
		Version: op.Version,
	}), nil
}

// applies iff the update is internal or newer than the stored version.
// Stale updates are dropped without an error.
func (self *Applier) updateVariable(store *Store, op *UpdateVariable) (*Store, error) {
	existing, ok := store.Variable(op.Id)
	if !ok {
		existing = &Variable{
			Id: op.Id,
		}
	}
	if !op.Internal() && ok && op.Version <= existing.Version {
		return store, nil
	}
	next := *existing
	next.Value = op.Value
	if !op.Internal() {
		next.Version = op.Version
	}
	return store.withVariable(&next), nil
}

func (self *Applier) updatePath(store *Store, op *UpdatePath) (*Store, error) {
	element, ok := store.Element(op.RootId, op.Id)
	if !ok {
		return store, fmt.Errorf("%w: %s/%s", ErrElementNotFound, op.RootId, op.Id)
	}

	var update func(existing any, ok bool) (any, error)
	if op.Action == ActionSet {
		update = func(existing any, ok bool) (any, error) {
			return op.Data, nil
		}
	} else {
		merge, ok := self.merges.Get(op.Action)
		if !ok {
			return store, fmt.Errorf("%w: %s", ErrUnknownMergeAction, op.Action)
		}
		update = func(existing any, ok bool) (any, error) {
			return merge(existing, op.Data)
		}
	}

	doc, err := updateIn(element.document(), op.Path, update)
	if err != nil {
		return store, err
	}
	docMap, ok := doc.(map[string]any)
	if !ok {
		return store, invalidField("element", doc)
	}
	next, err := element.withDocument(docMap)
	if err != nil {
		return store, err
	}
	return store.withPatchedElement(next), nil
}

func (self *Applier) removeElements(store *Store, op *RemoveElements) (*Store, error) {
	for _, entry := range op.Entries {
		switch entry.Type {
		case RemoveTypeElement:
			store = store.withoutElement(entry.RootId, entry.Id)
		case RemoveTypeRoot:
			store = store.withoutRoot(entry.Id)
		case RemoveTypeVariable:
			store = store.withoutVariable(entry.Id)
		}
	}
	return store, nil
}
