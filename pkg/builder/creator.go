package builder

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/goliatone/go-formengine/pkg/model"
)

// ErrFieldNotFound is returned for keys absent from the creator.
var ErrFieldNotFound = errors.New("builder: field not found")

// CreatorOption configures a Creator.
type CreatorOption func(*Creator)

// WithKeyFunc overrides key generation. Keys must be unique.
func WithKeyFunc(fn func() string) CreatorOption {
	return func(c *Creator) {
		if fn != nil {
			c.newKey = fn
		}
	}
}

// Creator holds the ordered field list of a form being built.
type Creator struct {
	mu     sync.Mutex
	attrs  []model.FormField
	newKey func() string
}

// NewCreator starts from initial, which may be empty.
func NewCreator(initial model.FormStructure, opts ...CreatorOption) (*Creator, error) {
	if err := initial.CheckKeys(); err != nil {
		return nil, fmt.Errorf("builder: initial structure: %w", err)
	}
	c := &Creator{
		attrs:  initial.Clone().Attrs,
		newKey: uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Add appends field under a freshly generated key and returns the key.
func (c *Creator) Add(field model.FormField) (string, error) {
	if !field.Type.Valid() {
		return "", &model.UnknownFieldTypeError{Key: field.Key, Type: field.Type}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	key := c.newKey()
	for c.indexOf(key) >= 0 {
		key = c.newKey()
	}
	added := field.Clone()
	added.Key = key
	c.attrs = append(c.attrs, added)
	return key, nil
}

// Update replaces the field stored under key, keeping key and position.
func (c *Creator) Update(key string, field model.FormField) error {
	if !field.Type.Valid() {
		return &model.UnknownFieldTypeError{Key: key, Type: field.Type}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexOf(key)
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrFieldNotFound, key)
	}
	updated := field.Clone()
	updated.Key = key
	c.attrs[idx] = updated
	return nil
}

// Remove deletes the field stored under key.
func (c *Creator) Remove(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexOf(key)
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrFieldNotFound, key)
	}
	c.attrs = append(c.attrs[:idx], c.attrs[idx+1:]...)
	return nil
}

// Move repositions the field under key to index, clamped to the list bounds.
func (c *Creator) Move(key string, index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexOf(key)
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrFieldNotFound, key)
	}
	field := c.attrs[idx]
	rest := append(append([]model.FormField(nil), c.attrs[:idx]...), c.attrs[idx+1:]...)
	if index < 0 {
		index = 0
	}
	if index > len(rest) {
		index = len(rest)
	}
	out := make([]model.FormField, 0, len(c.attrs))
	out = append(out, rest[:index]...)
	out = append(out, field)
	out = append(out, rest[index:]...)
	c.attrs = out
	return nil
}

// Field returns a copy of the field stored under key.
func (c *Creator) Field(key string) (model.FormField, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.indexOf(key)
	if idx < 0 {
		return model.FormField{}, false
	}
	return c.attrs[idx].Clone(), true
}

// Structure returns a snapshot of the form being built.
func (c *Creator) Structure() model.FormStructure {
	c.mu.Lock()
	defer c.mu.Unlock()
	return model.FormStructure{Attrs: c.attrs}.Clone()
}

func (c *Creator) indexOf(key string) int {
	for i, field := range c.attrs {
		if field.Key == key {
			return i
		}
	}
	return -1
}
