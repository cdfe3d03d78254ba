package html

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/goliatone/go-formengine/pkg/model"
)

// DecodeForm converts posted form values back into a record for structure,
// reversing the control names the template emits. Numbers that do not parse
// are kept as text so validation reports them.
func DecodeForm(structure model.FormStructure, values url.Values) model.Record {
	record := make(model.Record, len(structure.Attrs))
	for _, field := range structure.Attrs {
		switch {
		case field.Type == model.FieldTypeCheckbox:
			v := strings.ToLower(strings.TrimSpace(values.Get(field.Key)))
			record[field.Key] = v == "true" || v == "on" || v == "1"
		case field.Type.Multi():
			var list []string
			for _, raw := range values[field.Key+"[]"] {
				for _, part := range strings.Split(raw, ",") {
					if part = strings.TrimSpace(part); part != "" && !containsString(list, part) {
						list = append(list, part)
					}
				}
			}
			record[field.Key] = list
		default:
			if _, ok := values[field.Key]; !ok {
				continue
			}
			text := strings.TrimSpace(values.Get(field.Key))
			if text == "" {
				record[field.Key] = nil
				continue
			}
			if field.Type == model.FieldTypeNumber {
				if n, err := strconv.ParseFloat(text, 64); err == nil {
					record[field.Key] = n
					continue
				}
			}
			record[field.Key] = text
		}
	}
	return record
}

func containsString(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
