package page

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestDecodeControl(t *testing.T) {
	message, err := DecodeFrame([]byte(`{"type": "setClientId", "clientId": "c1"}`))
	assert.Equal(t, err, nil)
	assert.Equal(t, message.IsControl(), true)
	assert.Equal(t, message.ClientId, "c1")

	message, err = DecodeFrame([]byte(`{"type": "setClientId", "clientId": 17}`))
	assert.Equal(t, err, nil)
	assert.Equal(t, message.ClientId, "17")

	message, err = DecodeFrame([]byte(`{"type": "refresh"}`))
	assert.Equal(t, err, nil)
	assert.Equal(t, message.IsControl(), true)
	assert.Equal(t, message.Type, MessageRefresh)
}

func TestDecodeNewElement(t *testing.T) {
	message, err := DecodeFrame([]byte(`{
		"type": "newElement",
		"version": 7,
		"id": "a",
		"parentId": "p",
		"index": 3,
		"elementType": "Text",
		"data": "hi",
		"props": {"style": {}},
		"propChildren": {"header": "h"}
	}`))
	assert.Equal(t, err, nil)
	assert.Equal(t, message.HasVersion, true)
	assert.Equal(t, message.Version, int64(7))

	op := message.Operation.(*NewElement)
	assert.Equal(t, op.RootId, RootId)
	assert.Equal(t, op.ParentId, "p")
	assert.Equal(t, op.Index, 3)
	assert.Equal(t, op.PropChildren, map[string]string{"header": "h"})

	action := message.PendingAction()
	assert.Equal(t, action.HasVersion, true)
	assert.Equal(t, action.Version, int64(7))

	message, err = DecodeFrame([]byte(`{"type": "newElement", "id": "b", "rootId": "r", "parentId": null}`))
	assert.Equal(t, err, nil)
	assert.Equal(t, message.HasVersion, false)
	op = message.Operation.(*NewElement)
	assert.Equal(t, op.RootId, "r")
	assert.Equal(t, op.ParentId, "")
}

func TestDecodeVariables(t *testing.T) {
	message, err := DecodeFrame([]byte(`{"type": "updateVariable", "id": "v", "value": [1, 2], "version": 9}`))
	assert.Equal(t, err, nil)
	op := message.Operation.(*UpdateVariable)
	assert.Equal(t, op.Version, int64(9))
	assert.Equal(t, op.Value, []any{1.0, 2.0})

	// without a version the update is local
	message, err = DecodeFrame([]byte(`{"type": "updateVariable", "id": "v", "value": 1}`))
	assert.Equal(t, err, nil)
	assert.Equal(t, message.Operation.(*UpdateVariable).Internal(), true)

	message, err = DecodeFrame([]byte(`{"type": "newVariable", "id": "v", "value": "x", "version": 3}`))
	assert.Equal(t, err, nil)
	assert.Equal(t, message.Operation.(*NewVariable).Version, int64(3))
}

func TestDecodeUpdatePath(t *testing.T) {
	for _, frameType := range []string{OperationUpdatePath, MessageUpdateElement} {
		frame, _ := json.Marshal(map[string]any{
			"type": frameType,
			"id":   "a",
			"updateData": map[string]any{
				"path":   []any{"data", 0, "x"},
				"action": "append",
				"data":   1,
			},
		})
		message, err := DecodeFrame(frame)
		assert.Equal(t, err, nil)
		op := message.Operation.(*UpdatePath)
		assert.Equal(t, op.RootId, RootId)
		assert.Equal(t, op.Path, Path{"data", 0, "x"})
		assert.Equal(t, op.Action, MergeAppend)
		assert.Equal(t, op.Data, 1.0)
	}

	_, err := DecodeFrame([]byte(`{"type": "updatePath", "id": "a"}`))
	assert.Equal(t, errors.Is(err, ErrInvalidFrame), true)

	_, err = DecodeFrame([]byte(`{"type": "updatePath", "id": "a", "updateData": {"path": [0.5], "action": "set"}}`))
	assert.Equal(t, errors.Is(err, ErrInvalidFrame), true)
}

func TestDecodeRemoveElements(t *testing.T) {
	message, err := DecodeFrame([]byte(`{"type": "removeElements", "entries": [
		{"type": "element", "id": "a"},
		{"type": "root", "id": "r"},
		{"type": "variable", "id": "v"}
	]}`))
	assert.Equal(t, err, nil)
	op := message.Operation.(*RemoveElements)
	assert.Equal(t, op.Entries, []RemoveEntry{
		{Type: RemoveTypeElement, Id: "a", RootId: RootId},
		{Type: RemoveTypeRoot, Id: "r"},
		{Type: RemoveTypeVariable, Id: "v"},
	})

	_, err = DecodeFrame([]byte(`{"type": "removeElements", "entries": [{"type": "planet", "id": "a"}]}`))
	assert.Equal(t, errors.Is(err, ErrInvalidFrame), true)
}

func TestDecodeUiFlags(t *testing.T) {
	message, err := DecodeFrame([]byte(`{"type": "displayError", "error": "boom"}`))
	assert.Equal(t, err, nil)
	assert.Equal(t, message.Operation.(*DisplayError).Error, "boom")

	message, err = DecodeFrame([]byte(`{"type": "displayError", "error": false}`))
	assert.Equal(t, err, nil)
	assert.Equal(t, message.Operation.(*DisplayError).Error, "")

	message, err = DecodeFrame([]byte(`{"type": "exportLoading", "exportLoading": true}`))
	assert.Equal(t, err, nil)
	assert.Equal(t, message.Operation.(*ExportLoading).ExportLoading, true)

	message, err = DecodeFrame([]byte(`{"type": "displayExportObjectResult", "displayExportObjectResult": {"a": 1}}`))
	assert.Equal(t, err, nil)
	assert.Equal(t, message.Operation.(*DisplayExportObjectResult).Result, map[string]any{"a": 1.0})
}

func TestDecodeInvalid(t *testing.T) {
	for _, frame := range []string{
		`not json`,
		`{}`,
		`{"type": 3}`,
		`{"type": ""}`,
		`{"type": "newElement"}`,
		`{"type": "newPropChild", "id": "r"}`,
		`{"type": "setClientId"}`,
	} {
		_, err := DecodeFrame([]byte(frame))
		assert.Equal(t, errors.Is(err, ErrInvalidFrame), true)
	}
}

func TestDecodeUnknown(t *testing.T) {
	message, err := DecodeFrame([]byte(`{"type": "somethingNew", "version": 2}`))
	assert.Equal(t, err, nil)
	assert.Equal(t, message.IsControl(), false)
	assert.Equal(t, message.Operation.(*UnknownOperation).Type, "somethingNew")
}

func TestEncodeOutbound(t *testing.T) {
	frame, err := EncodeCall("submit", nil, "")
	assert.Equal(t, err, nil)
	assert.Equal(t, string(frame), `{"type":"call","functionId":"submit","kwargs":{},"clientId":null}`)

	frame, err = EncodeCall("submit", map[string]any{"n": 1}, "c1")
	assert.Equal(t, err, nil)
	assert.Equal(t, string(frame), `{"type":"call","functionId":"submit","kwargs":{"n":1},"clientId":"c1"}`)

	frame, err = EncodeUpdateVariable("v", "x", "c1")
	assert.Equal(t, err, nil)
	assert.Equal(t, string(frame), `{"type":"updateVariable","variableId":"v","value":"x","clientId":"c1"}`)
}
