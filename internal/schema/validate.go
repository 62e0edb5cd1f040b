package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"eventticketing/internal/domain"
)

const bytesPerMB = 1024 * 1024

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// FileValue is the submitted metadata of an uploaded file. Size is in bytes.
type FileValue struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	URL  string `json:"url,omitempty"`
}

// Validate checks submitted values against the form's fields in field order and
// returns the normalized values that should be stored. The first failure is
// returned as a *domain.ValidationError. Keys that name no field are rejected.
//
// Normalized shapes: text/email/select are strings, number is float64, checkbox
// is []string, file is FileValue. Blank optional fields are omitted.
func Validate(form *domain.Form, values map[string]any) (map[string]any, error) {
	for key := range values {
		if _, ok := form.Field(key); !ok {
			return nil, &domain.ValidationError{Kind: domain.KindUnknownField, FieldID: key, Detail: "field does not exist on this form"}
		}
	}

	out := make(map[string]any, len(form.Fields))
	for _, field := range form.Fields {
		raw, present := values[field.ID]
		if !present || isBlank(raw) {
			if field.Required {
				return nil, &domain.ValidationError{
					Kind:    domain.KindMissingRequiredField,
					FieldID: field.ID,
					Detail:  fmt.Sprintf("%s is required", field.Label),
				}
			}
			continue
		}
		v, err := validateField(field, raw)
		if err != nil {
			return nil, err
		}
		out[field.ID] = v
	}
	return out, nil
}

func validateField(field domain.FormField, raw any) (any, error) {
	switch field.Type {
	case domain.FieldText:
		s, ok := raw.(string)
		if !ok {
			return nil, formatError(field, raw, "must be text")
		}
		return strings.TrimSpace(s), nil

	case domain.FieldEmail:
		s, ok := raw.(string)
		s = strings.TrimSpace(s)
		if !ok || !emailRegexp.MatchString(s) {
			return nil, formatError(field, raw, "must be a valid email address")
		}
		return strings.ToLower(s), nil

	case domain.FieldNumber:
		n, ok := toNumber(raw)
		if !ok {
			return nil, formatError(field, raw, "must be a number")
		}
		return n, nil

	case domain.FieldSelect:
		s, ok := raw.(string)
		if !ok {
			return nil, formatError(field, raw, "must be a single option")
		}
		if !slices.Contains(field.Options, s) {
			return nil, optionError(field, s)
		}
		return s, nil

	case domain.FieldCheckbox:
		choices, ok := toStrings(raw)
		if !ok {
			return nil, formatError(field, raw, "must be a list of options")
		}
		for _, c := range choices {
			if !slices.Contains(field.Options, c) {
				return nil, optionError(field, c)
			}
		}
		return choices, nil

	case domain.FieldFile:
		fv, ok := toFile(raw)
		if !ok {
			return nil, formatError(field, raw, "must be a file with name and size")
		}
		ext := normalizeExtension(filepath.Ext(fv.Name))
		if ext == "" || !slices.Contains(field.FileTypes, ext) {
			return nil, &domain.ValidationError{
				Kind:    domain.KindInvalidFileType,
				FieldID: field.ID,
				Value:   fv.Name,
				Detail:  fmt.Sprintf("allowed file types: %s", strings.Join(field.FileTypes, ", ")),
			}
		}
		if fv.Size > int64(field.MaxFileSize)*bytesPerMB {
			return nil, &domain.ValidationError{
				Kind:    domain.KindFileTooLarge,
				FieldID: field.ID,
				Value:   fv.Size,
				Detail:  fmt.Sprintf("file exceeds %d MB", field.MaxFileSize),
			}
		}
		return fv, nil
	}
	return nil, formatError(field, raw, fmt.Sprintf("unsupported field type %q", field.Type))
}

func formatError(field domain.FormField, raw any, detail string) error {
	return &domain.ValidationError{Kind: domain.KindInvalidFieldFormat, FieldID: field.ID, Value: raw, Detail: detail}
}

func optionError(field domain.FormField, value string) error {
	return &domain.ValidationError{
		Kind:    domain.KindInvalidOption,
		FieldID: field.ID,
		Value:   value,
		Detail:  fmt.Sprintf("must be one of: %s", strings.Join(field.Options, ", ")),
	}
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []string:
		return len(t) == 0
	case []any:
		for _, e := range t {
			if !isBlank(e) {
				return false
			}
		}
		return true
	case map[string]any:
		name, _ := t["name"].(string)
		return strings.TrimSpace(name) == ""
	case FileValue:
		return strings.TrimSpace(t.Name) == ""
	case *FileValue:
		return t == nil || strings.TrimSpace(t.Name) == ""
	}
	return false
}

func toNumber(v any) (float64, bool) {
	var n float64
	switch t := v.(type) {
	case float64:
		n = t
	case float32:
		n = float64(t)
	case int:
		n = float64(t)
	case int64:
		n = float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		n = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		n = f
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func toStrings(v any) ([]string, bool) {
	switch t := v.(type) {
	case string:
		return []string{t}, true
	case []string:
		return compact(t, func(s string) string { return s }), true
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			if strings.TrimSpace(s) == "" {
				continue
			}
			out = append(out, s)
		}
		return compact(out, func(s string) string { return s }), true
	}
	return nil, false
}

func toFile(v any) (FileValue, bool) {
	switch t := v.(type) {
	case FileValue:
		return t, t.Size >= 0
	case *FileValue:
		return *t, t.Size >= 0
	case map[string]any:
		name, ok := t["name"].(string)
		if !ok {
			return FileValue{}, false
		}
		size, ok := toNumber(t["size"])
		if !ok || size < 0 || size != math.Trunc(size) {
			return FileValue{}, false
		}
		url, _ := t["url"].(string)
		return FileValue{Name: strings.TrimSpace(name), Size: clampSize(size), URL: url}, true
	}
	return FileValue{}, false
}

// clampSize converts a non-negative whole size to int64, saturating at
// math.MaxInt64 so oversized values still fail the size limit.
func clampSize(size float64) int64 {
	if size >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(size)
}
