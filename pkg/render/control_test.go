package render_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formengine/pkg/model"
	"github.com/goliatone/go-formengine/pkg/options"
	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/validation"
	"github.com/goliatone/go-formengine/pkg/widgets"
)

type change struct {
	Key     string
	Value   model.FieldValue
	Message string
}

type recorder struct {
	mu      sync.Mutex
	changes []change
}

func (r *recorder) record(key string, value model.FieldValue, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, change{Key: key, Value: value, Message: message})
}

func (r *recorder) last() change {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.changes[len(r.changes)-1]
}

func TestControl_InputReportsCurrentMessage(t *testing.T) {
	field := model.FormField{
		Key:      "email",
		Question: "Email",
		Type:     model.FieldTypeText,
		Required: true,
		AdditionalValidation: &model.AdditionalValidation{
			IsEmail: &model.EmailValidation{IsEmail: true},
		},
	}
	rec := &recorder{}
	control := render.NewControl(field, widgets.WidgetText, rec.record)

	control.Input("not-an-email")
	if got := rec.last(); got.Message != validation.MessageInvalidEmail {
		t.Fatalf("expected invalid email message, got %+v", got)
	}

	control.Input("ada@example.com")
	if diff := cmp.Diff(change{Key: "email", Value: "ada@example.com"}, rec.last()); diff != "" {
		t.Fatalf("change mismatch (-want +got):\n%s", diff)
	}
	if control.Message() != "" || !control.Touched() {
		t.Fatalf("expected touched valid control, message=%q", control.Message())
	}
}

func TestControl_SeedOnce(t *testing.T) {
	field := model.FormField{Key: "city", Question: "City", Type: model.FieldTypeText, DefaultValue: "Lisbon"}
	rec := &recorder{}
	control := render.NewControl(field, widgets.WidgetText, rec.record)

	if !control.Seed() {
		t.Fatal("expected seed to apply")
	}
	if control.Seed() {
		t.Fatal("second seed must be a no-op")
	}
	control.Input("Porto")
	if control.Seed() {
		t.Fatal("seed after input must be a no-op")
	}
	if got := control.Value(); got != "Porto" {
		t.Fatalf("expected user edit to survive, got %v", got)
	}
	if len(rec.changes) != 2 {
		t.Fatalf("expected seed and edit changes, got %d", len(rec.changes))
	}

	control.Reset()
	if got := control.Value(); got != "Lisbon" {
		t.Fatalf("expected reset to reapply default, got %v", got)
	}
}

func TestControl_SeedMultiFromDefaultOptions(t *testing.T) {
	field := model.FormField{
		Key: "tracks", Question: "Tracks", Type: model.FieldTypeMultiSelect,
		Options: []string{"AI", "Web", "Data"}, DefaultOptions: []string{"AI"},
	}
	control := render.NewControl(field, widgets.WidgetMultiSelect, nil)
	control.Seed()
	if diff := cmp.Diff([]string{"AI"}, control.Value()); diff != "" {
		t.Fatalf("seed mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatcher_MountUnknownType(t *testing.T) {
	d := render.NewDispatcher()
	control, err := d.Mount(context.Background(), model.FormField{Key: "x", Question: "X", Type: "signature"}, nil, nil)
	if err == nil || control != nil {
		t.Fatalf("expected refusal, got control=%v err=%v", control, err)
	}
	var unknown *model.UnknownFieldTypeError
	if !asUnknown(err, &unknown) || unknown.Key != "x" {
		t.Fatalf("expected UnknownFieldTypeError, got %v", err)
	}
}

func TestDispatcher_MountRemoteOptions(t *testing.T) {
	release := make(chan struct{})
	source := options.SourceFunc(func(ctx context.Context, key string) (model.OptionList, error) {
		<-release
		return model.OptionList{"AI", "Web"}, nil
	})
	cache := options.NewCache(source)
	d := render.NewDispatcher(render.WithOptionsCache(cache))

	field := model.FormField{
		Key: "track", Question: "Track", Type: model.FieldTypeSelect,
		AdditionalOptions: &model.AdditionalOptions{UseDefaultValuesFrom: "tracks"},
	}

	delivered := make(chan model.OptionList, 1)
	control, err := d.Mount(context.Background(), field, nil, func(key string, list model.OptionList) {
		if key != "track" {
			t.Errorf("unexpected key %q", key)
		}
		delivered <- list
	})
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	if control.OptionsReady() || len(control.Options()) != 0 {
		t.Fatalf("expected pending empty options, got %v", control.Options())
	}

	close(release)
	list := <-delivered
	control.SetOptions(list)
	if diff := cmp.Diff(model.OptionList{"AI", "Web"}, control.Options()); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}

	// A second mount reads straight from the cache.
	again, err := d.Mount(context.Background(), field, nil, func(string, model.OptionList) {
		t.Error("cached options must not trigger a callback")
	})
	if err != nil {
		t.Fatalf("mount again: %v", err)
	}
	if !again.OptionsReady() || len(again.Options()) != 2 {
		t.Fatalf("expected cached options, got %v", again.Options())
	}
	if got := cache.Fetches("tracks"); got != 1 {
		t.Fatalf("expected one fetch, got %d", got)
	}
}

func TestDispatcher_MountPassword(t *testing.T) {
	d := render.NewDispatcher()
	field := model.FormField{
		Key: "secret", Question: "Secret", Type: model.FieldTypeText,
		AdditionalOptions: &model.AdditionalOptions{IsPassword: true},
	}
	control, err := d.Mount(context.Background(), field, nil, nil)
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	if control.Widget() != widgets.WidgetPassword {
		t.Fatalf("expected password widget, got %s", control.Widget())
	}
}
