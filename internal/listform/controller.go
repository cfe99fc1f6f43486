// Package listform keeps a record list and an edit form in step with a remote collection.
package listform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"hrconsole/internal/schema"
	hrsdk "hrconsole/sdk/go"
)

// Collection is the remote resource a Controller synchronizes with.
type Collection interface {
	Resource() string
	List(ctx context.Context, term string) ([]hrsdk.Record, error)
	Create(ctx context.Context, body any) (hrsdk.Record, error)
	Update(ctx context.Context, id int64, body any) (hrsdk.Record, error)
	Delete(ctx context.Context, id int64) error
}

// Mode tells whether a submit creates or updates.
type Mode string

const (
	Creating Mode = "creating"
	Editing  Mode = "editing"
)

// ReferenceOption is one selectable value of the reference field.
type ReferenceOption struct {
	Value string
	Label string
}

// State is a consistent snapshot of the controller for rendering.
type State struct {
	Items      []hrsdk.Record
	Draft      schema.Draft
	Mode       Mode
	EditingID  int64
	SearchTerm string
	LastError  *hrsdk.Failure
	Options    []ReferenceOption
}

// Controller owns the list, the draft, the edit mode and the search term of one screen.
// The mutex guards state only; it is never held across a network call, so when two
// writes overlap the one that settles last wins.
type Controller struct {
	schema  *schema.Schema
	coll    Collection
	refs    Collection
	confirm ConfirmFunc
	focus   func()
	log     *slog.Logger
	now     func() time.Time

	mu         sync.Mutex
	items      []hrsdk.Record
	draft      schema.Draft
	editingID  *int64
	searchTerm string
	lastError  *hrsdk.Failure
	options    []ReferenceOption
}

// New creates a controller in Creating mode with a default draft.
func New(s *schema.Schema, coll Collection, opts ...Option) *Controller {
	c := &Controller{
		schema: s,
		coll:   coll,
		log:    slog.Default(),
		now:    time.Now,
		items:  []hrsdk.Record{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.draft = s.Defaults(c.now())
	return c
}

// Schema returns the schema the controller is parametrized by.
func (c *Controller) Schema() *schema.Schema { return c.schema }

// Mount loads the unfiltered list and, when configured, the reference options.
// The returned error mirrors LastError.
func (c *Controller) Mount(ctx context.Context) error {
	listErr := c.Search(ctx, "")
	if c.refs == nil || c.schema.Reference == nil {
		return listErr
	}
	if err := c.loadOptions(ctx); err != nil {
		return c.errOrNil()
	}
	return listErr
}

func (c *Controller) loadOptions(ctx context.Context) error {
	ref := c.schema.Reference
	recs, err := c.refs.List(ctx, "")
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		f := toFailure(err, hrsdk.FetchFailed)
		if ref.FetchMessage != "" {
			f = &hrsdk.Failure{Kind: hrsdk.FetchFailed, StatusCode: f.StatusCode, Message: ref.FetchMessage, Err: err}
		}
		c.options = nil
		c.appendErrorLocked(f)
		c.log.Warn("reference options unavailable", "resource", c.coll.Resource(), "reference", ref.Resource, "err", err)
		return f
	}
	opts := make([]ReferenceOption, 0, len(recs))
	for _, r := range recs {
		id, ok := r.ID()
		if !ok {
			continue
		}
		opts = append(opts, ReferenceOption{Value: fmt.Sprint(id), Label: ref.OptionLabel(r)})
	}
	c.options = opts
	return nil
}

// StartEdit loads rec into the draft and switches to Editing.
func (c *Controller) StartEdit(rec hrsdk.Record) error {
	id, ok := rec.ID()
	if !ok {
		return fmt.Errorf("%s record has no id", c.schema.Name)
	}
	c.mu.Lock()
	c.editingID = &id
	c.draft = c.schema.Normalize(rec, c.now())
	c.lastError = nil
	focus := c.focus
	c.mu.Unlock()
	if focus != nil {
		focus()
	}
	return nil
}

// CancelEdit resets the draft to defaults and returns to Creating.
func (c *Controller) CancelEdit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
	c.lastError = nil
}

// ChangeField sets one draft value.
func (c *Controller) ChangeField(key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.schema.Set(c.draft, key, value)
}

// Submit validates the draft and creates or updates depending on the mode. On failure the
// draft and mode are kept so the operator can correct and resubmit.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	c.lastError = nil
	draft := c.draft.Clone()
	var editingID *int64
	if c.editingID != nil {
		id := *c.editingID
		editingID = &id
	}
	c.mu.Unlock()

	body, err := c.schema.Serialize(draft)
	if err != nil {
		return c.fail("submit", toFailure(err, hrsdk.ValidationFailed))
	}

	var rec hrsdk.Record
	op := "create"
	if editingID == nil {
		rec, err = c.coll.Create(ctx, body)
	} else {
		op = "update"
		rec, err = c.coll.Update(ctx, *editingID, body)
	}
	if err != nil {
		return c.fail(op, toFailure(err, hrsdk.ServerError))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if rec != nil {
		if editingID == nil {
			c.items = prepend(c.items, rec)
		} else {
			c.items = replace(c.items, *editingID, rec)
		}
	}
	c.resetLocked()
	c.lastError = nil
	return nil
}

// Remove deletes the record with id after confirmation. It reports whether the record was
// deleted; a declined confirmation is neither a deletion nor an error.
func (c *Controller) Remove(ctx context.Context, id int64) (bool, error) {
	c.mu.Lock()
	target := hrsdk.Record{"id": id}
	for _, r := range c.items {
		if rid, ok := r.ID(); ok && rid == id {
			target = r.Clone()
			break
		}
	}
	confirm := c.confirm
	c.mu.Unlock()

	if confirm != nil && !confirm(target) {
		return false, nil
	}

	c.mu.Lock()
	c.lastError = nil
	c.mu.Unlock()

	if err := c.coll.Delete(ctx, id); err != nil {
		return false, c.fail("delete", toFailure(err, hrsdk.ServerError))
	}

	c.mu.Lock()
	c.items = remove(c.items, id)
	c.mu.Unlock()
	return true, nil
}

// Search lists the collection filtered by term and replaces the items. On failure the
// previous items stay visible.
func (c *Controller) Search(ctx context.Context, term string) error {
	c.mu.Lock()
	c.searchTerm = term
	c.lastError = nil
	c.mu.Unlock()

	items, err := c.coll.List(ctx, term)
	if err != nil {
		return c.fail("list", toFailure(err, hrsdk.FetchFailed))
	}

	c.mu.Lock()
	c.items = dedupe(items)
	c.mu.Unlock()
	return nil
}

// ClearSearch lists the unfiltered collection.
func (c *Controller) ClearSearch(ctx context.Context) error {
	return c.Search(ctx, "")
}

// Items returns a copy of the current list.
func (c *Controller) Items() []hrsdk.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]hrsdk.Record(nil), c.items...)
}

// Draft returns a copy of the current draft.
func (c *Controller) Draft() schema.Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.Clone()
}

// EditingID returns the id being edited, if any.
func (c *Controller) EditingID() (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.editingID == nil {
		return 0, false
	}
	return *c.editingID, true
}

// Mode reports Creating or Editing.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.modeLocked()
}

// SearchTerm returns the last submitted filter.
func (c *Controller) SearchTerm() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.searchTerm
}

// LastError returns the current failure, or nil.
func (c *Controller) LastError() *hrsdk.Failure {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError
}

// Options returns the reference field choices loaded on mount.
func (c *Controller) Options() []ReferenceOption {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ReferenceOption(nil), c.options...)
}

// Snapshot returns the whole state at once.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := State{
		Items:      append([]hrsdk.Record(nil), c.items...),
		Draft:      c.draft.Clone(),
		Mode:       c.modeLocked(),
		SearchTerm: c.searchTerm,
		LastError:  c.lastError,
		Options:    append([]ReferenceOption(nil), c.options...),
	}
	if c.editingID != nil {
		st.EditingID = *c.editingID
	}
	return st
}

func (c *Controller) modeLocked() Mode {
	if c.editingID != nil {
		return Editing
	}
	return Creating
}

func (c *Controller) resetLocked() {
	c.editingID = nil
	c.draft = c.schema.Defaults(c.now())
}

func (c *Controller) fail(op string, f *hrsdk.Failure) error {
	c.mu.Lock()
	c.lastError = f
	c.mu.Unlock()
	c.log.Warn("operation failed", "resource", c.coll.Resource(), "op", op, "kind", f.Kind, "status", f.StatusCode, "err", f.Message)
	return f
}

func (c *Controller) appendErrorLocked(f *hrsdk.Failure) {
	if c.lastError == nil {
		c.lastError = f
		return
	}
	merged := *c.lastError
	merged.Message = merged.Message + ". " + f.Message
	c.lastError = &merged
}

func (c *Controller) errOrNil() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastError == nil {
		return nil
	}
	return c.lastError
}

func toFailure(err error, kind hrsdk.Kind) *hrsdk.Failure {
	if f, ok := hrsdk.AsFailure(err); ok {
		return f
	}
	var ve *schema.ValidationError
	if errors.As(err, &ve) {
		return &hrsdk.Failure{Kind: hrsdk.ValidationFailed, Message: ve.Message, Err: err}
	}
	return &hrsdk.Failure{Kind: kind, Message: err.Error(), Err: err}
}
