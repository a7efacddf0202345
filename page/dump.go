package page

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)


const DumpFormatJson = "json"
const DumpFormatCbor = "cbor"
const DumpFormatProto = "proto"


// the node as plain values, without the context.
// Prop roots become nested node values.
func NodeValue(node *RenderNode) map[string]any {
	props := make(map[string]any, len(node.Props))
	for name, prop := range node.Props {
		if propNode, ok := prop.(*RenderNode); ok {
			props[name] = NodeValue(propNode)
		} else {
			props[name] = prop
		}
	}
	children := make([]any, 0, len(node.Children))
	for _, child := range node.Children {
		children = append(children, NodeValue(child))
	}
	value := map[string]any{
		"type":     node.Type,
		"data":     node.Data,
		"props":    props,
		"children": children,
	}
	if node.Id != "" {
		value["id"] = node.Id
	}
	return value
}

func DumpJson(node *RenderNode) ([]byte, error) {
	return json.MarshalIndent(NodeValue(node), "", "  ")
}

func DumpCbor(node *RenderNode) ([]byte, error) {
	encMode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	return encMode.Marshal(NodeValue(node))
}

// a `google.protobuf.Struct`
func DumpProto(node *RenderNode) ([]byte, error) {
	s, err := structpb.NewStruct(NodeValue(node))
	if err != nil {
		return nil, err
	}
	return proto.MarshalOptions{Deterministic: true}.Marshal(s)
}

func Dump(node *RenderNode, format string) ([]byte, error) {
	switch format {
	case DumpFormatJson:
		return DumpJson(node)
	case DumpFormatCbor:
		return DumpCbor(node)
	case DumpFormatProto:
		return DumpProto(node)
	default:
		return nil, fmt.Errorf("unknown dump format: %s", format)
	}
}
