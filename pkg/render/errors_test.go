package render_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/goliatone/go-formengine/pkg/model"
	"github.com/goliatone/go-formengine/pkg/render"
)

func TestMapErrorPayload_PathShapes(t *testing.T) {
	structure := model.FormStructure{
		Attrs: []model.FormField{
			{Key: "name", Question: "Name", Type: model.FieldTypeText},
			{Key: "email", Question: "Email", Type: model.FieldTypeText},
			{Key: "tags", Question: "Tags", Type: model.FieldTypeMultiSelect},
			{Key: "team.size", Question: "Team size", Type: model.FieldTypeNumber},
		},
	}

	payload := map[string][]string{
		"/body/name":                 {"Name is required"},
		"Email_attr_key:email":       {"Invalid email address"},
		"$.data.tags[0]":             {"Unknown tag", " Unknown tag "},
		"attrs/team.size":            {"Too large"},
		"non_field_errors":           {"Form level error"},
		"request/body/unknown-field": {"Should fall back to form errors"},
		"":                           {"Unscoped form error"},
		"ignored":                    {"   "},
	}

	mapped := render.MapErrorPayload(structure, payload)

	wantFields := map[string][]string{
		"name":      {"Name is required"},
		"email":     {"Invalid email address"},
		"tags":      {"Unknown tag"},
		"team.size": {"Too large"},
	}
	if diff := cmp.Diff(wantFields, mapped.Fields); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}

	wantForm := []string{"Form level error", "Should fall back to form errors", "Unscoped form error"}
	if diff := cmp.Diff(wantForm, mapped.Form, cmpopts.SortSlices(func(a, b string) bool { return a < b })); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
}

func TestMapErrorPayload_Empty(t *testing.T) {
	mapped := render.MapErrorPayload(model.FormStructure{}, nil)
	if mapped.Fields != nil || mapped.Form != nil {
		t.Fatalf("expected empty mapping, got %+v", mapped)
	}
}

func TestMergeFormErrors(t *testing.T) {
	merged := render.MergeFormErrors([]string{" First ", "Second"}, "Second", "third", "  ")
	want := []string{"First", "Second", "third"}

	if diff := cmp.Diff(want, merged); diff != "" {
		t.Fatalf("merged form errors mismatch (-want +got):\n%s", diff)
	}
}
