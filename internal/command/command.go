// Package command models user actions as typed values and dispatches them to
// the note service. Every front end (HTTP, CLI) builds a Command instead of
// calling the service piecemeal.
package command

import (
	"context"
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/notebox/internal/apperr"
	"github.com/starford/notebox/internal/models"
	"github.com/starford/notebox/internal/noteservice"
	"github.com/starford/notebox/internal/pager"
	"github.com/starford/notebox/internal/search"
)

// Action names an operation.
type Action string

const (
	Add    Action = "add"
	Update Action = "update"
	Delete Action = "delete"
	Get    Action = "get"
	List   Action = "list"
	Search Action = "search"
)

// Actions lists every recognised action.
var Actions = []Action{Add, Update, Delete, Get, List, Search}

// NoResultsMessage is shown when a listing or search is empty.
const NoResultsMessage = "No notes found"

// Command is one user action with its arguments. Fields an action does not
// use are ignored.
type Command struct {
	Action    Action `json:"action"`
	NoteID    int64  `json:"note_id,omitempty"`
	Title     string `json:"title,omitempty"`
	Content   string `json:"content,omitempty"`
	ImagePath string `json:"image_path,omitempty"`
	Kind      string `json:"kind,omitempty"`
	Value     string `json:"value,omitempty"`
	Page      int    `json:"page,omitempty"`
	PageSize  int    `json:"page_size,omitempty"`
}

// Validate checks that the action is known and carries what it needs.
func (c Command) Validate() error {
	needsID := c.Action == Update || c.Action == Delete || c.Action == Get
	return validation.ValidateStruct(&c,
		validation.Field(&c.Action, validation.Required, validation.In(toAny(Actions)...)),
		validation.Field(&c.NoteID, validation.When(needsID, validation.Required, validation.Min(int64(1)))),
		validation.Field(&c.Kind, validation.When(c.Action == Search, validation.Required)),
		validation.Field(&c.Page, validation.Min(0)),
		validation.Field(&c.PageSize, validation.Min(0)),
	)
}

// Result is what a dispatched command produced. Exactly one of Created,
// Updated, Note or Page is set for a successful add, update, get or
// list/search; delete sets none.
type Result struct {
	Action    Action                    `json:"action"`
	Created   *noteservice.CreateResult `json:"created,omitempty"`
	Updated   *noteservice.UpdateResult `json:"updated,omitempty"`
	Note      *models.Note              `json:"note,omitempty"`
	Page      *pager.Page[models.Note]  `json:"page,omitempty"`
	NoResults bool                      `json:"no_results,omitempty"`
	Message   string                    `json:"message,omitempty"`
}

// Dispatcher executes commands against a service.
type Dispatcher struct {
	svc *noteservice.Service
}

// NewDispatcher creates a Dispatcher over svc.
func NewDispatcher(svc *noteservice.Service) *Dispatcher {
	return &Dispatcher{svc: svc}
}

// Dispatch validates cmd and runs it. An empty listing or search is reported
// through Result.NoResults rather than as an error.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command) (Result, error) {
	if err := cmd.Validate(); err != nil {
		return Result{}, fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}

	res := Result{Action: cmd.Action}
	switch cmd.Action {
	case Add:
		created, err := d.svc.CreateNote(ctx, cmd.Title, cmd.Content, cmd.ImagePath)
		if err != nil {
			return Result{}, err
		}
		res.Created = &created
		res.Message = created.Warning

	case Update:
		updated, err := d.svc.UpdateNote(ctx, cmd.NoteID, cmd.Title, cmd.Content, cmd.ImagePath)
		if err != nil {
			return Result{}, err
		}
		res.Updated = &updated
		res.Message = updated.Warning

	case Delete:
		if err := d.svc.DeleteNote(ctx, cmd.NoteID); err != nil {
			return Result{}, err
		}

	case Get:
		note, err := d.svc.GetNote(ctx, cmd.NoteID)
		if err != nil {
			return Result{}, err
		}
		res.Note = &note

	case List, Search:
		var (
			page pager.Page[models.Note]
			err  error
		)
		if cmd.Action == List {
			page, err = d.svc.ListPage(ctx, cmd.Page, cmd.PageSize)
		} else {
			page, err = d.svc.SearchPage(ctx, search.ParseKind(cmd.Kind), cmd.Value, cmd.Page, cmd.PageSize)
		}
		if errors.Is(err, apperr.ErrNoResults) {
			res.NoResults = true
			res.Message = NoResultsMessage
			return res, nil
		}
		if err != nil {
			return Result{}, err
		}
		res.Page = &page
	}
	return res, nil
}

func toAny[T any](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
