package scene

import (
	"errors"
	"fmt"

	"github.com/vk/liveui/internal/edit"
)

// ApplyError reports one edit of a batch that could not be applied.
type ApplyError struct {
	Index int
	Edit  edit.Edit
	Err   error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("edit %d %s: %v", e.Index, e.Edit, e.Err)
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}

var (
	ErrUnknownNode   = errors.New("unknown scene node")
	ErrDuplicateNode = errors.New("scene node already exists")
	ErrBadIndex      = errors.New("insertion index out of range")
	ErrChildSet      = errors.New("reorder does not match current children")
)
