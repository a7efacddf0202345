package page

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/assert/v2"
)

const testSnapshotJson = `{
	"version": 4,
	"title": "dashboard",
	"style": {"background": "white"},
	"variables": {
		"name": {"id": "name", "value": "ada", "version": 2}
	},
	"children": [
		{
			"id": "card",
			"index": 0,
			"elementType": "Card",
			"data": {},
			"props": {},
			"propChildren": {
				"header": {
					"id": "card-header",
					"children": [
						{"id": "header-text", "index": 0, "elementType": "Text", "data": "Header", "props": {}}
					]
				}
			},
			"children": [
				{"id": "body", "index": 0, "elementType": "Text", "data": "Body", "props": {}}
			]
		}
	]
}`

func decodeTestSnapshot(t *testing.T) *Snapshot {
	snapshot := &Snapshot{}
	err := json.Unmarshal([]byte(testSnapshotJson), snapshot)
	assert.Equal(t, err, nil)
	return snapshot
}

func TestSnapshotOperations(t *testing.T) {
	snapshot := decodeTestSnapshot(t)
	ops := snapshot.Operations()

	types := []string{}
	for _, op := range ops {
		types = append(types, op.OperationType())
	}
	assert.Equal(t, types, []string{
		OperationSetTitle,
		OperationSetStyle,
		OperationNewVariable,
		// prop root children first
		OperationNewElement,
		OperationNewElement,
		OperationNewElement,
	})

	headerText := ops[3].(*NewElement)
	assert.Equal(t, headerText.RootId, "card-header")
	assert.Equal(t, headerText.ParentId, "")

	card := ops[4].(*NewElement)
	assert.Equal(t, card.RootId, RootId)
	assert.Equal(t, card.PropChildren, map[string]string{"header": "card-header"})

	body := ops[5].(*NewElement)
	assert.Equal(t, body.RootId, RootId)
	assert.Equal(t, body.ParentId, "card")
}

func TestSnapshotApply(t *testing.T) {
	snapshot := decodeTestSnapshot(t)
	store, err := NewApplier().ApplyAll(NewStore(), snapshot.Operations())
	assert.Equal(t, err, nil)

	assert.Equal(t, store.Title(), "dashboard")
	assert.Equal(t, store.Style(), map[string]any{"background": "white"})
	variable, ok := store.Variable("name")
	assert.Equal(t, ok, true)
	assert.Equal(t, variable.Value, "ada")
	assert.Equal(t, variable.Version, int64(2))

	assert.Equal(t, len(store.Elements(RootId)), 2)
	assert.Equal(t, len(store.Elements("card-header")), 1)
}
