package page

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/tidwall/gjson"
)


// Wire protocol. Each text frame is one json object `{type: string, version?: number, ...fields}`.
// The wire structs below are the protocol schema. They are validated here and translated
// to `Operation` values, so the reducer never sees wire types.

const ProtocolVersion = 1

// sent on the websocket handshake so a server can tell which schema the client speaks
const ProtocolVersionHeader = "X-Page-Protocol-Version"

func addProtocolVersionHeader(header http.Header) {
	header.Set(ProtocolVersionHeader, strconv.Itoa(ProtocolVersion))
}

// inbound control messages. These never reach the store.
const MessageSetClientId = "setClientId"
const MessageRefresh = "refresh"

// alias of `updatePath` sent by servers without prop roots
const MessageUpdateElement = "updateElement"

// outbound
const MessageCall = "call"
const MessageUpdateVariable = "updateVariable"


type InboundMessage struct {
	Type       string
	Version    int64
	HasVersion bool
	// for `MessageSetClientId`
	ClientId string
	// nil for control messages
	Operation Operation
}

func (self *InboundMessage) IsControl() bool {
	return self.Operation == nil
}

func (self *InboundMessage) PendingAction() *PendingAction {
	return &PendingAction{
		Operation:  self.Operation,
		Version:    self.Version,
		HasVersion: self.HasVersion,
	}
}


type wireSetClientId struct {
	ClientId any `json:"clientId"`
}

type wireNewElement struct {
	Id           string            `json:"id"`
	RootId       string            `json:"rootId"`
	ParentId     *string           `json:"parentId"`
	Index        json.Number       `json:"index"`
	ElementType  string            `json:"elementType"`
	Data         any               `json:"data"`
	Props        map[string]any    `json:"props"`
	PropChildren map[string]string `json:"propChildren"`
}

type wireNewPropChild struct {
	Id            string `json:"id"`
	Prop          string `json:"prop"`
	ElementRootId string `json:"elementRootId"`
	ElementId     string `json:"elementId"`
}

type wireVariable struct {
	Id    string `json:"id"`
	Value any    `json:"value"`
}

type wireUpdatePath struct {
	Id         string `json:"id"`
	RootId     string `json:"rootId"`
	UpdateData *struct {
		Path   []any  `json:"path"`
		Action string `json:"action"`
		Data   any    `json:"data"`
	} `json:"updateData"`
}

type wireRemoveElements struct {
	Entries []struct {
		Type   string `json:"type"`
		Id     string `json:"id"`
		RootId string `json:"rootId"`
	} `json:"entries"`
}

type wireDisplayError struct {
	Error any `json:"error"`
}

type wireDisplayOptions struct {
	DisplayOptions bool `json:"displayOptions"`
}

type wireExportLoading struct {
	ExportLoading bool `json:"exportLoading"`
}

type wireDisplayExportObjectResult struct {
	DisplayExportObjectResult any `json:"displayExportObjectResult"`
}


func DecodeFrame(frame []byte) (*InboundMessage, error) {
	if !gjson.ValidBytes(frame) {
		return nil, fmt.Errorf("%w: not json", ErrInvalidFrame)
	}
	typeResult := gjson.GetBytes(frame, "type")
	if typeResult.Type != gjson.String || typeResult.Str == "" {
		return nil, fmt.Errorf("%w: missing type", ErrInvalidFrame)
	}

	message := &InboundMessage{
		Type: typeResult.Str,
	}
	if versionResult := gjson.GetBytes(frame, "version"); versionResult.Type == gjson.Number {
		message.Version = versionResult.Int()
		message.HasVersion = true
	}

	var err error
	switch message.Type {
	case MessageSetClientId:
		message.ClientId, err = decodeSetClientId(frame)
	case MessageRefresh:
	case OperationNewElement:
		message.Operation, err = decodeNewElement(frame)
	case OperationNewPropChild:
		message.Operation, err = decodeNewPropChild(frame)
	case OperationNewVariable:
		var wire wireVariable
		if err = unmarshalWire(frame, &wire); err == nil {
			if wire.Id == "" {
				err = fmt.Errorf("%w: newVariable missing id", ErrInvalidFrame)
			} else {
				message.Operation = &NewVariable{
					Id:      wire.Id,
					Value:   wire.Value,
					Version: message.Version,
				}
			}
		}
	case OperationUpdateVariable:
		var wire wireVariable
		if err = unmarshalWire(frame, &wire); err == nil {
			if wire.Id == "" {
				err = fmt.Errorf("%w: updateVariable missing id", ErrInvalidFrame)
			} else {
				version := InternalVersion
				if message.HasVersion {
					version = message.Version
				}
				message.Operation = &UpdateVariable{
					Id:      wire.Id,
					Value:   wire.Value,
					Version: version,
				}
			}
		}
	case OperationUpdatePath, MessageUpdateElement:
		message.Operation, err = decodeUpdatePath(frame)
	case OperationRemoveElements:
		message.Operation, err = decodeRemoveElements(frame)
	case OperationDisplayError:
		var wire wireDisplayError
		if err = unmarshalWire(frame, &wire); err == nil {
			// `false` hides the error
			errorMessage := ""
			switch v := wire.Error.(type) {
			case nil, bool:
			case string:
				errorMessage = v
			default:
				errorMessage = fmt.Sprint(v)
			}
			message.Operation = &DisplayError{Error: errorMessage}
		}
	case OperationDisplayOptions:
		var wire wireDisplayOptions
		if err = unmarshalWire(frame, &wire); err == nil {
			message.Operation = &DisplayOptions{DisplayOptions: wire.DisplayOptions}
		}
	case OperationExportLoading:
		var wire wireExportLoading
		if err = unmarshalWire(frame, &wire); err == nil {
			message.Operation = &ExportLoading{ExportLoading: wire.ExportLoading}
		}
	case OperationDisplayExportObjectResult:
		var wire wireDisplayExportObjectResult
		if err = unmarshalWire(frame, &wire); err == nil {
			result, _ := wire.DisplayExportObjectResult.(map[string]any)
			message.Operation = &DisplayExportObjectResult{Result: result}
		}
	default:
		message.Operation = &UnknownOperation{Type: message.Type}
	}
	if err != nil {
		return nil, err
	}
	return message, nil
}

func unmarshalWire(frame []byte, wire any) error {
	if err := json.Unmarshal(frame, wire); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidFrame, err)
	}
	return nil
}

func decodeSetClientId(frame []byte) (string, error) {
	var wire wireSetClientId
	if err := unmarshalWire(frame, &wire); err != nil {
		return "", err
	}
	switch v := wire.ClientId.(type) {
	case string:
		if v != "" {
			return v, nil
		}
	case float64:
		// some servers send numeric connection ids
		return fmt.Sprintf("%.0f", v), nil
	}
	return "", fmt.Errorf("%w: setClientId missing clientId", ErrInvalidFrame)
}

func decodeNewElement(frame []byte) (Operation, error) {
	var wire wireNewElement
	if err := unmarshalWire(frame, &wire); err != nil {
		return nil, err
	}
	if wire.Id == "" {
		return nil, fmt.Errorf("%w: newElement missing id", ErrInvalidFrame)
	}
	rootId := wire.RootId
	if rootId == "" {
		rootId = RootId
	}
	var index int
	if wire.Index != "" {
		index64, err := wire.Index.Int64()
		if err != nil {
			return nil, fmt.Errorf("%w: newElement index %s", ErrInvalidFrame, wire.Index)
		}
		index = int(index64)
	}
	var parentId string
	if wire.ParentId != nil {
		parentId = *wire.ParentId
	}
	return &NewElement{
		RootId:       rootId,
		Id:           wire.Id,
		ParentId:     parentId,
		Index:        index,
		ElementType:  wire.ElementType,
		Data:         wire.Data,
		Props:        wire.Props,
		PropChildren: wire.PropChildren,
	}, nil
}

func decodeNewPropChild(frame []byte) (Operation, error) {
	var wire wireNewPropChild
	if err := unmarshalWire(frame, &wire); err != nil {
		return nil, err
	}
	if wire.Id == "" || wire.Prop == "" || wire.ElementRootId == "" || wire.ElementId == "" {
		return nil, fmt.Errorf("%w: newPropChild requires id, prop, elementRootId, elementId", ErrInvalidFrame)
	}
	return &NewPropChild{
		RootId:        wire.Id,
		Prop:          wire.Prop,
		ElementRootId: wire.ElementRootId,
		ElementId:     wire.ElementId,
	}, nil
}

func decodeUpdatePath(frame []byte) (Operation, error) {
	var wire wireUpdatePath
	if err := unmarshalWire(frame, &wire); err != nil {
		return nil, err
	}
	if wire.Id == "" || wire.UpdateData == nil || wire.UpdateData.Action == "" {
		return nil, fmt.Errorf("%w: updatePath requires id and updateData.action", ErrInvalidFrame)
	}
	path, err := normalizePath(wire.UpdateData.Path)
	if err != nil {
		return nil, err
	}
	rootId := wire.RootId
	if rootId == "" {
		rootId = RootId
	}
	return &UpdatePath{
		RootId: rootId,
		Id:     wire.Id,
		Path:   path,
		Action: wire.UpdateData.Action,
		Data:   wire.UpdateData.Data,
	}, nil
}

func decodeRemoveElements(frame []byte) (Operation, error) {
	var wire wireRemoveElements
	if err := unmarshalWire(frame, &wire); err != nil {
		return nil, err
	}
	entries := make([]RemoveEntry, 0, len(wire.Entries))
	for _, wireEntry := range wire.Entries {
		entry := RemoveEntry{
			Type:   RemoveType(wireEntry.Type),
			Id:     wireEntry.Id,
			RootId: wireEntry.RootId,
		}
		switch entry.Type {
		case RemoveTypeElement:
			if entry.RootId == "" {
				entry.RootId = RootId
			}
		case RemoveTypeRoot, RemoveTypeVariable:
		default:
			return nil, fmt.Errorf("%w: removeElements entry type %q", ErrInvalidFrame, wireEntry.Type)
		}
		if entry.Id == "" {
			return nil, fmt.Errorf("%w: removeElements entry missing id", ErrInvalidFrame)
		}
		entries = append(entries, entry)
	}
	return &RemoveElements{
		Entries: entries,
	}, nil
}


type CallMessage struct {
	Type       string         `json:"type"`
	FunctionId string         `json:"functionId"`
	Kwargs     map[string]any `json:"kwargs"`
	// null before the server assigns a client id
	ClientId *string `json:"clientId"`
}

type UpdateVariableMessage struct {
	Type       string  `json:"type"`
	VariableId string  `json:"variableId"`
	Value      any     `json:"value"`
	ClientId   *string `json:"clientId"`
}

func EncodeCall(functionId string, kwargs map[string]any, clientId string) ([]byte, error) {
	if kwargs == nil {
		kwargs = map[string]any{}
	}
	return json.Marshal(&CallMessage{
		Type:       MessageCall,
		FunctionId: functionId,
		Kwargs:     kwargs,
		ClientId:   optionalClientId(clientId),
	})
}

func EncodeUpdateVariable(variableId string, value any, clientId string) ([]byte, error) {
	return json.Marshal(&UpdateVariableMessage{
		Type:       MessageUpdateVariable,
		VariableId: variableId,
		Value:      value,
		ClientId:   optionalClientId(clientId),
	})
}

func optionalClientId(clientId string) *string {
	if clientId == "" {
		return nil
	}
	return &clientId
}
