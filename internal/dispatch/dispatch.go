// Package dispatch routes operator commands to the component that handles them.
package dispatch

import (
	"context"
	"fmt"

	"prospect-sync/internal/extractor"
	"prospect-sync/internal/prospects"
)

type CommandKind string

const (
	ExtractProfile CommandKind = "extract-profile"
	ExtractRelated CommandKind = "extract-related"
	SaveRecord     CommandKind = "save-record"
)

// Kinds lists every command kind, in the order they are usually issued.
func Kinds() []CommandKind {
	return []CommandKind{ExtractProfile, ExtractRelated, SaveRecord}
}

func (k CommandKind) Valid() bool {
	switch k {
	case ExtractProfile, ExtractRelated, SaveRecord:
		return true
	}
	return false
}

type Command struct {
	Kind CommandKind
	// URL is the page to extract from, used by the extract kinds.
	URL string
	// Record and Related are what save-record writes, Related may be nil.
	Record  extractor.ExtractedRecord
	Related *extractor.RelatedEntity
}

// Result holds the output of exactly one command, only the field matching
// Kind is set.
type Result struct {
	Kind    CommandKind
	Profile *Extraction
	Related *extractor.RelatedEntity
	Saved   *prospects.RemoteRecord
	// Message is a short status line meant for the operator.
	Message string
}

// Extraction is the output of extract-profile.
type Extraction struct {
	Record  extractor.ExtractedRecord `json:"record"`
	Related *extractor.RelatedEntity  `json:"related,omitempty"`
	Status  string                    `json:"status"`
}

type Handler func(ctx context.Context, cmd Command) (Result, error)

type UnknownKindError struct {
	Kind CommandKind
}

func (e UnknownKindError) Error() string {
	return fmt.Sprintf("unknown command kind '%s'", e.Kind)
}

type Dispatcher struct {
	handlers map[CommandKind]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: map[CommandKind]Handler{}}
}

// Register sets the handler for `kind`, each kind has at most one handler.
func (d *Dispatcher) Register(kind CommandKind, handler Handler) error {
	if !kind.Valid() {
		return UnknownKindError{Kind: kind}
	}
	if handler == nil {
		return fmt.Errorf("nil handler for '%s'", kind)
	}
	if _, exists := d.handlers[kind]; exists {
		return fmt.Errorf("handler for '%s' is already registered", kind)
	}
	d.handlers[kind] = handler
	return nil
}

func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command) (Result, error) {
	if !cmd.Kind.Valid() {
		return Result{}, UnknownKindError{Kind: cmd.Kind}
	}
	handler, ok := d.handlers[cmd.Kind]
	if !ok {
		return Result{}, fmt.Errorf("no handler registered for '%s'", cmd.Kind)
	}
	result, err := handler(ctx, cmd)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", cmd.Kind, err)
	}
	result.Kind = cmd.Kind
	return result, nil
}
