package behavior

import "errors"

var (
	ErrDefinitionNotFound = errors.New("tree definition not found")
	ErrBrokenDefinition   = errors.New("broken tree definition")
	ErrUnknownNodeType    = errors.New("unknown node type")
	ErrUnknownAction      = errors.New("unknown action")
	ErrInvalidParams      = errors.New("invalid action params")
	ErrNilHost            = errors.New("nil host")
	ErrNotRunning         = errors.New("tree is not running")
	ErrTreeTooLarge       = errors.New("tree expands to too many nodes")
)
