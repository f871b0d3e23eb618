package schema

// FieldDescriptor is the wire representation of one schema field.
type FieldDescriptor struct {
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	Required    bool           `json:"required"`
	Default     any            `json:"default,omitempty"`
	Options     []string       `json:"options,omitempty"`
	Constraints map[string]any `json:"constraints,omitempty"`
	Secret      bool           `json:"secret,omitempty"`
}

// Encode converts a schema into an ordered list of field descriptors.
// A nil schema encodes to an empty list, matching input-less steps.
func Encode(s *Schema) []FieldDescriptor {
	fields := s.Fields()
	out := make([]FieldDescriptor, 0, len(fields))
	for _, f := range fields {
		d := FieldDescriptor{
			Name:        f.FieldName,
			Type:        f.FieldType.Name(),
			Required:    f.IsRequired,
			Default:     f.DefaultVal,
			Constraints: f.Constraints,
			Secret:      f.IsSecret,
		}
		if sel, ok := f.FieldType.(*SelectType); ok {
			d.Options = sel.Options()
		}
		out = append(out, d)
	}
	return out
}
