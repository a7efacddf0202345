package page

import (
	"fmt"
)


const OperationNewElement = "newElement"
const OperationNewPropChild = "newPropChild"
const OperationNewVariable = "newVariable"
const OperationUpdateVariable = "updateVariable"
const OperationUpdatePath = "updatePath"
const OperationRemoveElements = "removeElements"
const OperationSetStyle = "setStyle"
const OperationSetTitle = "setTitle"
const OperationDisplayError = "displayError"
const OperationDisplayOptions = "displayOptions"
const OperationExportLoading = "exportLoading"
const OperationDisplayExportObjectResult = "displayExportObjectResult"

const ActionSet = "set"

// the version of a locally originated variable update. Always applies.
const InternalVersion int64 = -1


// A typed store mutation. Operations are produced by the wire layer, the snapshot
// and local session calls, and consumed by `Applier.Apply`.
type Operation interface {
	OperationType() string
}


type NewElement struct {
	RootId       string
	Id           string
	ParentId     string
	Index        int
	ElementType  string
	Data         any
	Props        map[string]any
	PropChildren map[string]string
}

func (self *NewElement) OperationType() string {
	return OperationNewElement
}


// registers `PropChildren[Prop] = RootId` on the element at (ElementRootId, ElementId)
type NewPropChild struct {
	RootId        string
	Prop          string
	ElementRootId string
	ElementId     string
}

func (self *NewPropChild) OperationType() string {
	return OperationNewPropChild
}


type NewVariable struct {
	Id      string
	Value   any
	Version int64
}

func (self *NewVariable) OperationType() string {
	return OperationNewVariable
}


type UpdateVariable struct {
	Id    string
	Value any
	// `InternalVersion` for local updates
	Version int64
}

func (self *UpdateVariable) OperationType() string {
	return OperationUpdateVariable
}

func (self *UpdateVariable) Internal() bool {
	return self.Version == InternalVersion
}


type UpdatePath struct {
	RootId string
	Id     string
	Path   Path
	// `ActionSet` or a merge strategy name
	Action string
	Data   any
}

func (self *UpdatePath) OperationType() string {
	return OperationUpdatePath
}


type RemoveType string

const (
	RemoveTypeElement  RemoveType = "element"
	RemoveTypeRoot     RemoveType = "root"
	RemoveTypeVariable RemoveType = "variable"
)

type RemoveEntry struct {
	Type RemoveType
	Id   string
	// for `RemoveTypeElement`
	RootId string
}

type RemoveElements struct {
	Entries []RemoveEntry
}

func (self *RemoveElements) OperationType() string {
	return OperationRemoveElements
}


type SetStyle struct {
	Style any
}

func (self *SetStyle) OperationType() string {
	return OperationSetStyle
}


type SetTitle struct {
	Title string
}

func (self *SetTitle) OperationType() string {
	return OperationSetTitle
}


// empty `Error` hides the error
type DisplayError struct {
	Error string
}

func (self *DisplayError) OperationType() string {
	return OperationDisplayError
}


type DisplayOptions struct {
	DisplayOptions bool
}

func (self *DisplayOptions) OperationType() string {
	return OperationDisplayOptions
}


type ExportLoading struct {
	ExportLoading bool
}

func (self *ExportLoading) OperationType() string {
	return OperationExportLoading
}


// nil `Result` hides the result
type DisplayExportObjectResult struct {
	Result map[string]any
}

func (self *DisplayExportObjectResult) OperationType() string {
	return OperationDisplayExportObjectResult
}


// an operation with a tag this client does not know. Applying it is a no-op.
type UnknownOperation struct {
	Type string
}

func (self *UnknownOperation) OperationType() string {
	return self.Type
}

func (self *UnknownOperation) String() string {
	return fmt.Sprintf("unknown(%s)", self.Type)
}
