package page

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/go-playground/assert/v2"
	"github.com/google/go-cmp/cmp"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

func testDumpNode(t *testing.T) *RenderNode {
	store := applyAll(
		t,
		NewApplier(),
		&NewElement{RootId: "header", Id: "h", ElementType: TextType, Data: "Title"},
		&NewElement{RootId: RootId, Id: "card", ElementType: CardType, Props: map[string]any{"width": 2.0}, PropChildren: map[string]string{"header": "header"}},
	)
	node, err := Materialize(store, RootId, nil)
	assert.Equal(t, err, nil)
	return node
}

func TestDumpFormatsAgree(t *testing.T) {
	node := testDumpNode(t)

	jsonBytes, err := Dump(node, DumpFormatJson)
	assert.Equal(t, err, nil)
	var fromJson map[string]any
	assert.Equal(t, json.Unmarshal(jsonBytes, &fromJson), nil)

	cborBytes, err := Dump(node, DumpFormatCbor)
	assert.Equal(t, err, nil)
	var fromCbor map[string]any
	decMode, err := cbor.DecOptions{DefaultMapType: reflect.TypeOf(map[string]any{})}.DecMode()
	assert.Equal(t, err, nil)
	assert.Equal(t, decMode.Unmarshal(cborBytes, &fromCbor), nil)

	protoBytes, err := Dump(node, DumpFormatProto)
	assert.Equal(t, err, nil)
	s := &structpb.Struct{}
	assert.Equal(t, proto.Unmarshal(protoBytes, s), nil)
	fromProto := s.AsMap()

	assert.Equal(t, cmp.Diff(fromJson, fromCbor), "")
	assert.Equal(t, cmp.Diff(fromJson, fromProto), "")

	card := fromJson["children"].([]any)[0].(map[string]any)
	assert.Equal(t, card["id"], "card")
	header := card["props"].(map[string]any)["header"].(map[string]any)
	assert.Equal(t, header["type"], WrapperType)
	_, hasId := header["id"]
	assert.Equal(t, hasId, false)
}

func TestDumpUnknownFormat(t *testing.T) {
	_, err := Dump(testDumpNode(t), "xml")
	assert.NotEqual(t, err, nil)
}
