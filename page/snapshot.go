package page

import (
	"slices"

	"golang.org/x/exp/maps"
)


// `GET /initial-state`
type Snapshot struct {
	Version   int64                        `json:"version"`
	Title     string                       `json:"title"`
	Style     any                          `json:"style"`
	Variables map[string]*SnapshotVariable `json:"variables"`
	Children  []*SnapshotElement           `json:"children"`
}

type SnapshotVariable struct {
	Id      string `json:"id"`
	Value   any    `json:"value"`
	Version int64  `json:"version"`
}

type SnapshotElement struct {
	Id           string                   `json:"id"`
	Index        int                      `json:"index"`
	ElementType  string                   `json:"elementType"`
	Data         any                      `json:"data"`
	Props        map[string]any           `json:"props"`
	Children     []*SnapshotElement       `json:"children"`
	PropChildren map[string]*SnapshotRoot `json:"propChildren"`
}

// a prop child in a snapshot carries its whole root
type SnapshotRoot struct {
	Id       string             `json:"id"`
	Children []*SnapshotElement `json:"children"`
}


// The operations that load the snapshot into a store, in order:
// title, style, each variable, then each element depth first.
// A nested child gets its parent's id as `ParentId`.
// A prop child root is flattened into its own root before the owning element.
func (self *Snapshot) Operations() []Operation {
	ops := []Operation{
		&SetTitle{Title: self.Title},
		&SetStyle{Style: self.Style},
	}

	variableIds := maps.Keys(self.Variables)
	slices.Sort(variableIds)
	for _, variableId := range variableIds {
		variable := self.Variables[variableId]
		if variable == nil {
			continue
		}
		id := variable.Id
		if id == "" {
			id = variableId
		}
		ops = append(ops, &NewVariable{
			Id:      id,
			Value:   variable.Value,
			Version: variable.Version,
		})
	}

	for _, child := range self.Children {
		ops = flattenElement(ops, child, RootId, "")
	}
	return ops
}

func flattenElement(ops []Operation, element *SnapshotElement, rootId string, parentId string) []Operation {
	if element == nil {
		return ops
	}

	propChildren := map[string]string{}
	props := maps.Keys(element.PropChildren)
	slices.Sort(props)
	for _, prop := range props {
		propRoot := element.PropChildren[prop]
		if propRoot == nil || propRoot.Id == "" {
			continue
		}
		propChildren[prop] = propRoot.Id
		for _, child := range propRoot.Children {
			ops = flattenElement(ops, child, propRoot.Id, "")
		}
	}

	ops = append(ops, &NewElement{
		RootId:       rootId,
		Id:           element.Id,
		ParentId:     parentId,
		Index:        element.Index,
		ElementType:  element.ElementType,
		Data:         element.Data,
		Props:        element.Props,
		PropChildren: propChildren,
	})

	for _, child := range element.Children {
		ops = flattenElement(ops, child, rootId, element.Id)
	}
	return ops
}
