package utils

import (
	"reflect"
	"strconv"
	"strings"
)

// UpdatesFromPtrDTO turns a pointer-field update DTO into a GORM updates map:
// only non-nil fields are included, keyed by the field's json tag. renames
// maps a json name to a differing column name when the two diverge.
func UpdatesFromPtrDTO(dto any, renames map[string]string) map[string]any {
	updates := make(map[string]any)
	s := structValue(dto)
	if !s.IsValid() {
		return updates
	}

	t := s.Type()
	for i := 0; i < t.NumField(); i++ {
		f := s.Field(i)
		if f.Kind() != reflect.Ptr || f.IsNil() {
			continue
		}
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}
		if col, ok := renames[name]; ok && col != "" {
			name = col
		}
		updates[name] = f.Elem().Interface()
	}
	return updates
}

// ParseIntDefault parses a non-negative query parameter, falling back to def.
func ParseIntDefault(s string, def int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && v >= 0 {
		return v
	}
	return def
}
