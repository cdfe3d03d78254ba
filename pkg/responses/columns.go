// Package responses edits submitted form responses laid out as a grid: one
// row per response, one column per question plus fixed meta columns.
package responses

import (
	"strings"
	"time"

	"github.com/goliatone/go-formengine/pkg/model"
)

// Meta column names carried by every response row.
const (
	ColumnResponseID    = "Response ID"
	ColumnSubmittedAt   = "Submitted At"
	ColumnUserID        = "User ID"
	ColumnLastUpdatedAt = "Last Updated At"
)

// MetaColumns lists the fixed columns in display order.
func MetaColumns() []string {
	return []string{ColumnResponseID, ColumnSubmittedAt, ColumnUserID, ColumnLastUpdatedAt}
}

// IsMetaColumn reports whether name is one of the fixed columns.
func IsMetaColumn(name string) bool {
	switch name {
	case ColumnResponseID, ColumnSubmittedAt, ColumnUserID, ColumnLastUpdatedAt:
		return true
	}
	return false
}

// ColumnKey builds the grid column name for a question.
func ColumnKey(question, key string) string {
	return question + model.AttrKeySeparator + key
}

// ParseColumnKey splits a column name into its question label and field key.
func ParseColumnKey(column string) (question, key string, ok bool) {
	idx := strings.LastIndex(column, model.AttrKeySeparator)
	if idx < 0 {
		return "", "", false
	}
	key = column[idx+len(model.AttrKeySeparator):]
	if key == "" {
		return "", "", false
	}
	return column[:idx], key, true
}

// Column is one question column of the grid. Field is nil when the column
// refers to a field no longer present in the structure.
type Column struct {
	Name     string
	Question string
	Key      string
	Field    *model.FormField
}

// Deleted reports whether the column belongs to a removed field.
func (c Column) Deleted() bool {
	return c.Field == nil
}

// Columns resolves a backend column order against the current structure.
// Names that are not column keys are skipped. When order is empty the
// structure's own field order is used.
func Columns(structure model.FormStructure, order []string) []Column {
	if len(order) == 0 {
		order = make([]string, 0, len(structure.Attrs))
		for _, field := range structure.Attrs {
			order = append(order, ColumnKey(field.Question, field.Key))
		}
	}
	out := make([]Column, 0, len(order))
	for _, name := range order {
		question, key, ok := ParseColumnKey(name)
		if !ok {
			continue
		}
		col := Column{Name: name, Question: question, Key: key}
		if field, found := structure.Field(key); found {
			f := field.Clone()
			col.Field = &f
		}
		out = append(out, col)
	}
	return out
}

// VisibleColumns drops deleted columns unless showDeleted is set.
func VisibleColumns(columns []Column, showDeleted bool) []Column {
	if showDeleted {
		return columns
	}
	out := make([]Column, 0, len(columns))
	for _, col := range columns {
		if !col.Deleted() {
			out = append(out, col)
		}
	}
	return out
}

// Response is one stored submission.
type Response struct {
	ID            string       `json:"id"`
	FormID        string       `json:"formID"`
	UserID        string       `json:"userID,omitempty"`
	Data          model.Record `json:"data"`
	CreatedAt     time.Time    `json:"createdAt"`
	LastUpdatedAt time.Time    `json:"lastUpdatedAt"`
}

// Clone returns a deep copy of the response.
func (r Response) Clone() Response {
	out := r
	out.Data = r.Data.Clone()
	return out
}

// Row lays the response out under the given columns plus the meta columns.
func (r Response) Row(columns []Column) map[string]any {
	row := map[string]any{
		ColumnResponseID:    r.ID,
		ColumnSubmittedAt:   r.CreatedAt,
		ColumnUserID:        r.UserID,
		ColumnLastUpdatedAt: r.LastUpdatedAt,
	}
	for _, col := range columns {
		row[col.Name] = model.CloneValue(r.Data[col.Key])
	}
	return row
}

// CellField returns the field definition used to edit one cell: the column's
// field seeded with the stored value.
func CellField(col Column, r Response) (model.FormField, bool) {
	if col.Field == nil {
		return model.FormField{}, false
	}
	field := col.Field.Clone()
	value := model.CloneValue(r.Data[col.Key])
	field.DefaultValue = value
	field.DefaultOptions = nil
	if field.Type.Multi() {
		if list, ok := model.Strings(value); ok {
			field.DefaultOptions = list
		}
	}
	return field, true
}
