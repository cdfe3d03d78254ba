package model

// FieldType enumerates the input kinds a form field can declare.
type FieldType string

const (
	FieldTypeText              FieldType = "text"
	FieldTypeNumber            FieldType = "number"
	FieldTypeDate              FieldType = "date"
	FieldTypeTimestamp         FieldType = "timestamp"
	FieldTypeTelephone         FieldType = "telephone"
	FieldTypeCheckbox          FieldType = "checkbox"
	FieldTypeSelect            FieldType = "select"
	FieldTypeMultiSelect       FieldType = "multiselect"
	FieldTypeCustomSelect      FieldType = "customselect"
	FieldTypeCustomMultiSelect FieldType = "custommultiselect"
	FieldTypeAddress           FieldType = "address"
)

// FieldTypes returns every supported field type in declaration order.
func FieldTypes() []FieldType {
	return []FieldType{
		FieldTypeText,
		FieldTypeNumber,
		FieldTypeDate,
		FieldTypeTimestamp,
		FieldTypeTelephone,
		FieldTypeCheckbox,
		FieldTypeSelect,
		FieldTypeMultiSelect,
		FieldTypeCustomSelect,
		FieldTypeCustomMultiSelect,
		FieldTypeAddress,
	}
}

// Valid reports whether t is a member of the closed enumeration.
func (t FieldType) Valid() bool {
	switch t {
	case FieldTypeText, FieldTypeNumber, FieldTypeDate, FieldTypeTimestamp,
		FieldTypeTelephone, FieldTypeCheckbox, FieldTypeSelect, FieldTypeMultiSelect,
		FieldTypeCustomSelect, FieldTypeCustomMultiSelect, FieldTypeAddress:
		return true
	default:
		return false
	}
}

// Multi reports whether values of this type are lists.
func (t FieldType) Multi() bool {
	return t == FieldTypeMultiSelect || t == FieldTypeCustomMultiSelect
}

// Choice reports whether the type picks from an option list.
func (t FieldType) Choice() bool {
	switch t {
	case FieldTypeSelect, FieldTypeMultiSelect, FieldTypeCustomSelect, FieldTypeCustomMultiSelect:
		return true
	default:
		return false
	}
}

// AllowsCustom reports whether values outside the option list are accepted.
func (t FieldType) AllowsCustom() bool {
	return t == FieldTypeCustomSelect || t == FieldTypeCustomMultiSelect
}

func (t FieldType) String() string {
	return string(t)
}
