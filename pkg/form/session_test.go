package form_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formengine/pkg/debounce"
	"github.com/goliatone/go-formengine/pkg/form"
	"github.com/goliatone/go-formengine/pkg/model"
	"github.com/goliatone/go-formengine/pkg/options"
	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/validation"
)

func registrationForm() model.FormStructure {
	return model.FormStructure{Attrs: []model.FormField{
		{Key: "name", Question: "Name", Type: model.FieldTypeText, Required: true},
		{
			Key: "email", Question: "Email", Type: model.FieldTypeText, Required: true,
			AdditionalValidation: &model.AdditionalValidation{
				IsEmail: &model.EmailValidation{IsEmail: true, RequireDomain: []string{"wisc.edu"}, AllowSubdomains: true},
			},
		},
		{Key: "shirt", Question: "Shirt size", Type: model.FieldTypeSelect, Options: []string{"S", "M", "L"}, DefaultValue: "M"},
		{Key: "notes", Question: "Notes", Type: model.FieldTypeText, IsInternal: true},
	}}
}

type recordingSubmit struct {
	mu      sync.Mutex
	records []model.Record
	err     error
}

func (r *recordingSubmit) submit(_ context.Context, record model.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	return r.err
}

func (r *recordingSubmit) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

func TestSession_RequiredRefusesSubmit(t *testing.T) {
	sink := &recordingSubmit{}
	session, err := form.NewSession(context.Background(), registrationForm(), sink.submit)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	err = session.Submit(context.Background())
	var refused *form.RefusedError
	if !errors.As(err, &refused) {
		t.Fatalf("expected RefusedError, got %v", err)
	}
	want := map[string]string{"name": validation.MessageRequired, "email": validation.MessageRequired}
	if diff := cmp.Diff(want, refused.Errors); diff != "" {
		t.Fatalf("refused errors mismatch (-want +got):\n%s", diff)
	}
	if sink.calls() != 0 {
		t.Fatal("submit function must not run while fields are invalid")
	}
	if session.State() != form.StateEditing {
		t.Fatalf("expected editing, got %s", session.State())
	}
	if got := session.Errors(); len(got["name"]) != 1 {
		t.Fatalf("expected refused submit to surface errors, got %v", got)
	}

	mustChange(t, session, "name", "Ada")
	mustChange(t, session, "email", "ada@cs.wisc.edu")
	if err := session.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	want2 := model.Record{"name": "Ada", "email": "ada@cs.wisc.edu", "shirt": "M", "notes": nil}
	if diff := cmp.Diff(want2, sink.records[0]); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_ChangeReportsMessageSynchronously(t *testing.T) {
	var got []string
	session, err := form.NewSession(context.Background(), registrationForm(), (&recordingSubmit{}).submit,
		form.WithChangeListener(func(key string, _ model.FieldValue, message string) {
			if key == "email" {
				got = append(got, message)
			}
		}),
	)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	result := mustChange(t, session, "email", "user@gmail.com")
	if result.Valid {
		t.Fatal("expected disallowed domain")
	}
	mustChange(t, session, "email", "user@wisc.edu")

	want := []string{result.Message, ""}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
	if _, err := session.Change("missing", "x"); !errors.Is(err, form.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestSession_ConcurrentSubmitGuard(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	entered := make(chan struct{})
	submit := func(ctx context.Context, record model.Record) error {
		calls.Add(1)
		close(entered)
		<-release
		return nil
	}

	structure := model.FormStructure{Attrs: []model.FormField{{Key: "a", Question: "A", Type: model.FieldTypeText}}}
	session, err := form.NewSession(context.Background(), structure, submit)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- session.Submit(context.Background()) }()
	<-entered

	if err := session.Submit(context.Background()); !errors.Is(err, form.ErrSubmitInProgress) {
		t.Fatalf("expected ErrSubmitInProgress, got %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected exactly one submission call, got %d", got)
	}
}

func TestSession_StateTransitions(t *testing.T) {
	type transition struct{ From, To form.State }
	var seen []transition
	sink := &recordingSubmit{err: errors.New("backend down")}
	structure := model.FormStructure{Attrs: []model.FormField{{Key: "a", Question: "A", Type: model.FieldTypeText}}}

	session, err := form.NewSession(context.Background(), structure, sink.submit,
		form.WithStateListener(func(from, to form.State) { seen = append(seen, transition{from, to}) }),
	)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	mustChange(t, session, "a", "typed")

	err = session.Submit(context.Background())
	var subErr *form.SubmissionError
	if !errors.As(err, &subErr) {
		t.Fatalf("expected SubmissionError, got %v", err)
	}
	if diff := cmp.Diff([]string{"backend down"}, subErr.Form); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
	if got := session.Values()["a"]; got != "typed" {
		t.Fatalf("values must survive a failed submit, got %v", got)
	}

	sink.err = nil
	if err := session.Submit(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}

	want := []transition{
		{form.StateEditing, form.StateSubmitting},
		{form.StateSubmitting, form.StateSubmitFailed},
		{form.StateSubmitFailed, form.StateEditing},
		{form.StateEditing, form.StateSubmitting},
		{form.StateSubmitting, form.StateSubmitSucceeded},
		{form.StateSubmitSucceeded, form.StateEditing},
	}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Fatalf("transitions mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_BackendFieldErrorsMapped(t *testing.T) {
	sink := &recordingSubmit{err: &form.PayloadError{Status: 422, Payload: map[string][]string{
		"/body/email": {"Already registered"},
		"__all__":     {"Registration closed"},
	}}}
	session, err := form.NewSession(context.Background(), registrationForm(), sink.submit)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	mustChange(t, session, "name", "Ada")
	mustChange(t, session, "email", "ada@wisc.edu")

	var subErr *form.SubmissionError
	if err := session.Submit(context.Background()); !errors.As(err, &subErr) {
		t.Fatalf("expected SubmissionError, got %v", err)
	}
	if diff := cmp.Diff(map[string][]string{"email": {"Already registered"}}, session.Errors()); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Registration closed"}, session.FormErrors()); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}

	mustChange(t, session, "email", "ada2@wisc.edu")
	if got := session.Errors(); got != nil {
		t.Fatalf("editing a field clears its server error, got %v", got)
	}
}

func TestSession_MountSeedNotClobbered(t *testing.T) {
	structure := model.FormStructure{Attrs: []model.FormField{
		{Key: "city", Question: "City", Type: model.FieldTypeText, DefaultValue: "Lisbon"},
	}}
	session, err := form.NewSession(context.Background(), structure, (&recordingSubmit{}).submit)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if got := session.Values()["city"]; got != "Lisbon" {
		t.Fatalf("expected seeded default, got %v", got)
	}
	mustChange(t, session, "city", "Porto")

	updated := structure.Clone()
	updated.Attrs[0].DefaultValue = "Madrid"
	updated.Attrs[0].Question = "Home city"
	updated.Attrs = append(updated.Attrs, model.FormField{Key: "zip", Question: "Zip", Type: model.FieldTypeText, DefaultValue: "1000"})
	if err := session.Refresh(updated); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	want := model.Record{"city": "Porto", "zip": "1000"}
	if diff := cmp.Diff(want, session.Values()); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	field, _ := session.Field("city")
	if field.Field.Question != "Home city" {
		t.Fatalf("expected refreshed label, got %q", field.Field.Question)
	}
}

func TestSession_RecordRoundTripIgnoresOrder(t *testing.T) {
	structure := model.FormStructure{Attrs: []model.FormField{
		{Key: "a", Question: "A", Type: model.FieldTypeText},
		{Key: "b", Question: "B", Type: model.FieldTypeNumber},
		{Key: "c", Question: "C", Type: model.FieldTypeCheckbox},
		{Key: "d", Question: "D", Type: model.FieldTypeMultiSelect, Options: []string{"x", "y"}},
	}}
	sink := &recordingSubmit{}
	session, err := form.NewSession(context.Background(), structure, sink.submit)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	mustChange(t, session, "a", "first")
	mustChange(t, session, "a", "second")
	mustChange(t, session, "b", 7)
	mustChange(t, session, "c", true)
	mustChange(t, session, "d", []string{"y"})

	reordered := model.FormStructure{Attrs: []model.FormField{structure.Attrs[3], structure.Attrs[1], structure.Attrs[0], structure.Attrs[2]}}
	if err := session.Refresh(reordered); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if err := session.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	want := model.Record{"a": "second", "b": 7, "c": true, "d": []string{"y"}}
	if diff := cmp.Diff(want, sink.records[0]); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_RemoteOptionsFetchedOnce(t *testing.T) {
	var calls atomic.Int32
	source := options.SourceFunc(func(ctx context.Context, key string) (model.OptionList, error) {
		calls.Add(1)
		time.Sleep(10 * time.Millisecond)
		return model.OptionList{"AI", "Web"}, nil
	})
	dispatcher := render.NewDispatcher(render.WithOptionsCache(options.NewCache(source)))
	remote := &model.AdditionalOptions{UseDefaultValuesFrom: "tracks"}
	structure := model.FormStructure{Attrs: []model.FormField{
		{Key: "first", Question: "First choice", Type: model.FieldTypeSelect, AdditionalOptions: remote},
		{Key: "second", Question: "Second choice", Type: model.FieldTypeSelect, AdditionalOptions: remote},
	}}

	session, err := form.NewSession(context.Background(), structure, (&recordingSubmit{}).submit, form.WithDispatcher(dispatcher))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	for _, key := range []string{"first", "second"} {
		list, err := session.AwaitOptions(context.Background(), key)
		if err != nil {
			t.Fatalf("await %s: %v", key, err)
		}
		if diff := cmp.Diff(model.OptionList{"AI", "Web"}, list); diff != "" {
			t.Fatalf("%s options mismatch (-want +got):\n%s", key, diff)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected at most one fetch, got %d", got)
	}
}

func TestSession_OptionsListenerFiresWithoutAwait(t *testing.T) {
	release := make(chan struct{})
	source := options.SourceFunc(func(ctx context.Context, key string) (model.OptionList, error) {
		<-release
		return model.OptionList{"AI", "Web"}, nil
	})
	dispatcher := render.NewDispatcher(render.WithOptionsCache(options.NewCache(source)))
	structure := model.FormStructure{Attrs: []model.FormField{{
		Key: "track", Question: "Track", Type: model.FieldTypeSelect,
		AdditionalOptions: &model.AdditionalOptions{UseDefaultValuesFrom: "tracks"},
	}}}

	type delivery struct {
		key  string
		list model.OptionList
	}
	delivered := make(chan delivery, 4)
	session, err := form.NewSession(context.Background(), structure, (&recordingSubmit{}).submit,
		form.WithDispatcher(dispatcher),
		form.WithOptionsListener(func(key string, list model.OptionList) {
			delivered <- delivery{key: key, list: list}
		}),
	)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	defer session.Close()

	if state, _ := session.Field("track"); state.OptionsReady {
		t.Fatal("options resolved before the source returned")
	}
	close(release)

	select {
	case got := <-delivered:
		if diff := cmp.Diff(delivery{key: "track", list: model.OptionList{"AI", "Web"}}, got, cmp.AllowUnexported(delivery{})); diff != "" {
			t.Fatalf("delivery mismatch (-want +got):\n%s", diff)
		}
	case <-time.After(time.Second):
		t.Fatal("options listener not called")
	}
	state, _ := session.Field("track")
	if !state.OptionsReady {
		t.Fatal("control not marked ready after delivery")
	}

	if _, err := session.AwaitOptions(context.Background(), "track"); err != nil {
		t.Fatalf("await: %v", err)
	}
	select {
	case extra := <-delivered:
		t.Fatalf("unexpected second delivery %+v", extra)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestSession_SubmitNilContext(t *testing.T) {
	var got context.Context
	submit := func(ctx context.Context, _ model.Record) error {
		got = ctx
		return nil
	}
	structure := model.FormStructure{Attrs: []model.FormField{{Key: "name", Question: "Name", Type: model.FieldTypeText}}}
	session, err := form.NewSession(context.Background(), structure, submit)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	//nolint:staticcheck // SA1012
	if err := session.Submit(nil); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got == nil {
		t.Fatal("submit func received a nil context")
	}
	if state := session.State(); state != form.StateEditing {
		t.Fatalf("expected editing after submit, got %v", state)
	}
}

func TestSession_UnknownTypeNotRendered(t *testing.T) {
	structure := model.FormStructure{Attrs: []model.FormField{
		{Key: "name", Question: "Name", Type: model.FieldTypeText},
		{Key: "sig", Question: "Signature", Type: "signature"},
	}}
	sink := &recordingSubmit{}
	session, err := form.NewSession(context.Background(), structure, sink.submit)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if diff := cmp.Diff([]string{"sig"}, session.Unrendered()); diff != "" {
		t.Fatalf("unrendered mismatch (-want +got):\n%s", diff)
	}
	if err := session.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, ok := sink.records[0]["sig"]; ok {
		t.Fatal("unrendered field must not appear in the record")
	}
}

func TestSession_ResetOnSuccessAndPrefill(t *testing.T) {
	structure := model.FormStructure{Attrs: []model.FormField{
		{Key: "city", Question: "City", Type: model.FieldTypeText, DefaultValue: "Lisbon"},
	}}
	session, err := form.NewSession(context.Background(), structure, (&recordingSubmit{}).submit,
		form.WithResetOnSuccess(true),
		form.WithValues(model.Record{"city": "Berlin"}),
	)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if got := session.Values()["city"]; got != "Berlin" {
		t.Fatalf("expected prefilled value, got %v", got)
	}
	mustChange(t, session, "city", "Rome")
	if err := session.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got := session.Values()["city"]; got != "Berlin" {
		t.Fatalf("expected reset to mount default, got %v", got)
	}
}

func TestSession_RejectsBadStructure(t *testing.T) {
	dup := model.FormStructure{Attrs: []model.FormField{
		{Key: "a", Question: "A", Type: model.FieldTypeText},
		{Key: "a", Question: "A again", Type: model.FieldTypeText},
	}}
	if _, err := form.NewSession(context.Background(), dup, (&recordingSubmit{}).submit); err == nil {
		t.Fatal("expected duplicate key error")
	}
	if _, err := form.NewSession(context.Background(), model.FormStructure{}, nil); !errors.Is(err, form.ErrNoSubmitFunc) {
		t.Fatalf("expected ErrNoSubmitFunc, got %v", err)
	}
}

func TestSession_Close(t *testing.T) {
	structure := model.FormStructure{Attrs: []model.FormField{{Key: "a", Question: "A", Type: model.FieldTypeText}}}
	session, err := form.NewSession(context.Background(), structure, (&recordingSubmit{}).submit)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	session.Close()
	if _, err := session.Change("a", "x"); !errors.Is(err, form.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := session.Submit(context.Background()); !errors.Is(err, form.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestDebounced_CoalescesAndCancels(t *testing.T) {
	group := debounce.New(20 * time.Millisecond)
	var mu sync.Mutex
	var got []model.FieldValue
	fn := form.Debounced(group, func(_ string, value model.FieldValue, _ string) {
		mu.Lock()
		got = append(got, value)
		mu.Unlock()
	})

	fn("cell", "a", "")
	fn("cell", "ab", "")
	time.Sleep(60 * time.Millisecond)

	fn("cell", "abc", "")
	group.Close()
	time.Sleep(40 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if diff := cmp.Diff([]model.FieldValue{"ab"}, got); diff != "" {
		t.Fatalf("debounced calls mismatch (-want +got):\n%s", diff)
	}
}

func mustChange(t *testing.T, session *form.Session, key string, value model.FieldValue) validation.Result {
	t.Helper()
	result, err := session.Change(key, value)
	if err != nil {
		t.Fatalf("change %s: %v", key, err)
	}
	return result
}
