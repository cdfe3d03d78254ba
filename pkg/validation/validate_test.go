package validation_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formengine/pkg/model"
	"github.com/goliatone/go-formengine/pkg/validation"
)

func emailField(rule model.EmailValidation) model.FormField {
	return model.FormField{
		Key:                  "email",
		Question:             "Email",
		Type:                 model.FieldTypeText,
		AdditionalValidation: &model.AdditionalValidation{IsEmail: &rule},
	}
}

func TestValidate_Required(t *testing.T) {
	field := model.FormField{Key: "name", Type: model.FieldTypeText, Required: true}

	for _, candidate := range []model.FieldValue{nil, "", "   "} {
		got := validation.Validate(field, candidate)
		want := validation.Result{Valid: false, Message: validation.MessageRequired}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("candidate %#v (-want +got):\n%s", candidate, diff)
		}
	}

	if got := validation.Validate(field, "Ada"); !got.Valid {
		t.Fatalf("expected filled value to pass, got %+v", got)
	}

	optional := field
	optional.Required = false
	if got := validation.Validate(optional, ""); !got.Valid {
		t.Fatalf("expected empty optional value to pass, got %+v", got)
	}
}

func TestValidate_RequiredCheckbox(t *testing.T) {
	field := model.FormField{Key: "agree", Type: model.FieldTypeCheckbox, Required: true}
	if got := validation.Validate(field, false); got.Valid {
		t.Fatalf("expected unchecked required checkbox to fail")
	}
	if got := validation.Validate(field, true); !got.Valid {
		t.Fatalf("expected checked box to pass, got %+v", got)
	}
	if got := validation.Validate(field, "yes"); got.Valid {
		t.Fatalf("expected non-bool to fail")
	}
}

func TestValidate_EmailPattern(t *testing.T) {
	field := emailField(model.EmailValidation{IsEmail: true})

	if got := validation.Validate(field, "user@example.com"); !got.Valid {
		t.Fatalf("expected plain email to pass, got %+v", got)
	}
	if got := validation.Validate(field, "USER@EXAMPLE.COM"); !got.Valid {
		t.Fatalf("expected case-insensitive match, got %+v", got)
	}
	got := validation.Validate(field, "not-an-email")
	if got.Valid || got.Message != validation.MessageInvalidEmail {
		t.Fatalf("expected invalid email, got %+v", got)
	}
}

func TestValidate_EmailDomainAllowList(t *testing.T) {
	field := emailField(model.EmailValidation{
		IsEmail:         true,
		RequireDomain:   []string{"wisc.edu"},
		AllowSubdomains: true,
	})

	if got := validation.Validate(field, "user@cs.wisc.edu"); !got.Valid {
		t.Fatalf("expected subdomain to pass, got %+v", got)
	}
	if got := validation.Validate(field, "user@WISC.EDU"); !got.Valid {
		t.Fatalf("expected exact domain to pass, got %+v", got)
	}

	got := validation.Validate(field, "user@gmail.com")
	want := validation.Result{Message: "Disallowed domain, allowed domains and subdomains: wisc.edu"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("domain failure mismatch (-want +got):\n%s", diff)
	}

	strict := emailField(model.EmailValidation{IsEmail: true, RequireDomain: []string{"wisc.edu"}})
	got = validation.Validate(strict, "user@cs.wisc.edu")
	if got.Valid || got.Message != "Disallowed domain, allowed domains: wisc.edu" {
		t.Fatalf("expected subdomain rejection without allowSubdomains, got %+v", got)
	}
	if got := validation.Validate(strict, "user@notwisc.edu"); got.Valid {
		t.Fatalf("expected suffix without dot boundary to fail")
	}
}

func TestValidate_EmailTLDAllowList(t *testing.T) {
	field := emailField(model.EmailValidation{IsEmail: true, AllowTLDs: []string{"edu"}})

	if got := validation.Validate(field, "user@school.edu"); !got.Valid {
		t.Fatalf("expected .edu to pass, got %+v", got)
	}
	got := validation.Validate(field, "user@school.com")
	if got.Valid || got.Message != "Disallowed top-level domain, allowed top-level domains: edu" {
		t.Fatalf("expected TLD failure, got %+v", got)
	}
}

func TestValidate_EmailOrderPatternFirst(t *testing.T) {
	field := emailField(model.EmailValidation{
		IsEmail:       true,
		RequireDomain: []string{"wisc.edu"},
		AllowTLDs:     []string{"edu"},
	})

	if got := validation.Validate(field, "bogus"); got.Message != validation.MessageInvalidEmail {
		t.Fatalf("expected pattern failure to win, got %+v", got)
	}
	if got := validation.Validate(field, "user@example.com"); got.Message == validation.MessageInvalidEmail || got.Valid {
		t.Fatalf("expected domain failure, got %+v", got)
	}
}

func TestValidate_Idempotent(t *testing.T) {
	field := emailField(model.EmailValidation{IsEmail: true, AllowTLDs: []string{"edu"}})
	first := validation.Validate(field, "user@school.edu")
	second := validation.Validate(field, "user@school.edu")
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("re-validation changed result (-first +second):\n%s", diff)
	}
	if !second.Valid || second.Message != "" {
		t.Fatalf("expected valid without message, got %+v", second)
	}
}

func TestValidate_NumberCoercionAndRange(t *testing.T) {
	min, max := 1.0, 10.0
	field := model.FormField{
		Key:                  "team",
		Type:                 model.FieldTypeNumber,
		AdditionalValidation: &model.AdditionalValidation{Range: &model.NumberRange{Min: &min, Max: &max}},
	}

	cases := []struct {
		value model.FieldValue
		valid bool
	}{
		{4.0, true},
		{4, true},
		{"7", true},
		{json.Number("3"), true},
		{"seven", false},
		{0, false},
		{11.5, false},
	}
	for _, tc := range cases {
		if got := validation.Validate(field, tc.value); got.Valid != tc.valid {
			t.Fatalf("Validate(%#v) = %+v, want valid=%v", tc.value, got, tc.valid)
		}
	}
}

func TestValidate_DatesAndSelects(t *testing.T) {
	date := model.FormField{Key: "birthday", Type: model.FieldTypeDate}
	if got := validation.Validate(date, "2001-02-03"); !got.Valid {
		t.Fatalf("expected date to pass, got %+v", got)
	}
	if got := validation.Validate(date, "03/02/2001"); got.Valid {
		t.Fatalf("expected malformed date to fail")
	}

	stamp := model.FormField{Key: "start", Type: model.FieldTypeTimestamp}
	if got := validation.Validate(stamp, "2024-05-01T09:30"); !got.Valid {
		t.Fatalf("expected datetime-local value to pass, got %+v", got)
	}

	sel := model.FormField{Key: "size", Type: model.FieldTypeSelect, Options: []string{"S", "M"}}
	if got := validation.Validate(sel, "M"); !got.Valid {
		t.Fatalf("expected listed option to pass")
	}
	if got := validation.Validate(sel, "XL"); got.Valid {
		t.Fatalf("expected unlisted option to fail")
	}

	custom := sel
	custom.Type = model.FieldTypeCustomSelect
	if got := validation.Validate(custom, "XL"); !got.Valid {
		t.Fatalf("expected custom select to accept new value")
	}

	remote := sel
	remote.AdditionalOptions = &model.AdditionalOptions{UseDefaultValuesFrom: "schools"}
	if got := validation.Validate(remote, "XL"); !got.Valid {
		t.Fatalf("expected remote-sourced select to skip static membership")
	}

	multi := model.FormField{Key: "days", Type: model.FieldTypeMultiSelect, Options: []string{"sat", "sun"}}
	if got := validation.Validate(multi, []any{"sat", "sun"}); !got.Valid {
		t.Fatalf("expected listed options to pass, got %+v", got)
	}
	if got := validation.Validate(multi, []string{"mon"}); got.Valid {
		t.Fatalf("expected unlisted multiselect option to fail")
	}
}

func TestAsError(t *testing.T) {
	if err := validation.AsError("x", validation.OK); err != nil {
		t.Fatalf("expected nil for passing result, got %v", err)
	}
	err := validation.AsError("x", validation.Result{Message: "bad"})
	var fieldErr *validation.FieldError
	if !errors.As(err, &fieldErr) || fieldErr.Key != "x" || fieldErr.Message != "bad" {
		t.Fatalf("unexpected error %v", err)
	}
}
