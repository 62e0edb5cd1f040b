// Package schema defines and validates registration form shapes. It has no side
// effects: every function is a pure function of its inputs.
package schema

import (
	"fmt"
	"strings"

	"eventticketing/internal/domain"
)

// NormalizeFields checks field definitions at form save time and returns a
// normalized copy: ids default to field_<n>, options and file types are trimmed
// and blanks dropped, file types are lower-cased without a leading dot.
func NormalizeFields(fields []domain.FormField) ([]domain.FormField, error) {
	out := make([]domain.FormField, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for i, f := range fields {
		f.ID = strings.TrimSpace(f.ID)
		if f.ID == "" {
			f.ID = fmt.Sprintf("field_%d", i+1)
		}
		f.Label = strings.TrimSpace(f.Label)
		if _, dup := seen[f.ID]; dup {
			return nil, &domain.FieldDefinitionError{FieldID: f.ID, Label: f.Label, Reason: "duplicate field id"}
		}
		seen[f.ID] = struct{}{}
		if f.Label == "" {
			return nil, &domain.FieldDefinitionError{FieldID: f.ID, Reason: "label is required"}
		}
		if !f.Type.Valid() {
			return nil, &domain.FieldDefinitionError{FieldID: f.ID, Label: f.Label, Reason: fmt.Sprintf("unknown field type %q", f.Type)}
		}

		switch {
		case f.Type.HasOptions():
			f.Options = compact(f.Options, strings.TrimSpace)
			if len(f.Options) == 0 {
				return nil, &domain.FieldDefinitionError{FieldID: f.ID, Label: f.Label, Reason: "requires at least one option"}
			}
			f.FileTypes, f.MaxFileSize = nil, 0
		case f.Type == domain.FieldFile:
			f.FileTypes = compact(f.FileTypes, normalizeExtension)
			if len(f.FileTypes) == 0 {
				return nil, &domain.FieldDefinitionError{FieldID: f.ID, Label: f.Label, Reason: "requires at least one file type"}
			}
			if f.MaxFileSize < domain.MinFileSizeMB || f.MaxFileSize > domain.MaxFileSizeMB {
				return nil, &domain.FieldDefinitionError{
					FieldID: f.ID,
					Label:   f.Label,
					Reason:  fmt.Sprintf("maxFileSize must be between %d and %d MB", domain.MinFileSizeMB, domain.MaxFileSizeMB),
				}
			}
			f.Options = nil
		default:
			f.Options, f.FileTypes, f.MaxFileSize = nil, nil, 0
		}
		out = append(out, f)
	}
	return out, nil
}

// compact applies norm to each entry and drops blanks and duplicates, keeping order.
func compact(in []string, norm func(string) string) []string {
	var out []string
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = norm(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func normalizeExtension(ext string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
}
