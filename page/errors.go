package page

import (
	"errors"
)


var ErrElementNotFound = errors.New("element not found")
var ErrPropChildSameRoot = errors.New("prop child root must differ from the element root")
var ErrInvalidElementField = errors.New("invalid element field")
var ErrPathNotTraversable = errors.New("path not traversable")
var ErrUnknownMergeAction = errors.New("unknown merge action")
var ErrMergeTarget = errors.New("merge target has wrong type")
var ErrMergeData = errors.New("merge data has wrong type")
var ErrAlreadyRegistered = errors.New("name already registered")
var ErrRootCycle = errors.New("prop root cycle")
var ErrInvalidFrame = errors.New("invalid frame")
var ErrSessionClosed = errors.New("session closed")
