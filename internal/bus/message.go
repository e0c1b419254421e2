package bus

import (
	"time"

	"github.com/vk/liveui/internal/edit"
	"github.com/vk/liveui/internal/snapshot"
	"github.com/vk/liveui/internal/tree"
)

// Message is one lifecycle message. The set of implementations is closed.
type Message interface {
	Type() string
	message()
}

// Rebuild announces that a reload cycle started for Files.
type Rebuild struct {
	Files []string
}

// Update carries the edits of one reload cycle together with the complete
// resulting tree, so a subscriber that missed messages can resynchronize.
type Update struct {
	Edits []edit.Edit
	Tree  *tree.Tree
}

// SaveState announces that runtime state was captured.
type SaveState struct {
	Snapshot snapshot.Info
}

// RestoreState announces that captured state was reinjected.
type RestoreState struct {
	Snapshot snapshot.Info
	Report   snapshot.Report
}

// Error reports a recoverable failure, such as a compile error.
type Error struct {
	Message string
	Path    string
}

func (Rebuild) Type() string      { return "rebuild" }
func (Update) Type() string       { return "update" }
func (SaveState) Type() string    { return "save_state" }
func (RestoreState) Type() string { return "restore_state" }
func (Error) Type() string        { return "error" }

func (Rebuild) message()      {}
func (Update) message()       {}
func (SaveState) message()    {}
func (RestoreState) message() {}
func (Error) message()        {}

// Envelope is a published message with its position in the log.
type Envelope struct {
	Seq uint64
	At  time.Time
	Msg Message
}
