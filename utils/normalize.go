package utils

import (
	"reflect"
	"strings"
)

// NormalizeDTO trims every string field and rounds every float64 field of a
// create DTO (pass a pointer to the struct).
func NormalizeDTO(dto any) {
	s := structValue(dto)
	if !s.IsValid() {
		return
	}
	for i := 0; i < s.NumField(); i++ {
		f := s.Field(i)
		if !f.CanSet() {
			continue
		}
		switch f.Kind() {
		case reflect.String:
			f.SetString(strings.TrimSpace(f.String()))
		case reflect.Float64:
			f.SetFloat(Round2(f.Float()))
		}
	}
}

// NormalizePtrDTO is NormalizeDTO for update DTOs whose fields are pointers.
// Nil fields are left nil, so GORM treats them as "not provided".
func NormalizePtrDTO(dto any) {
	s := structValue(dto)
	if !s.IsValid() {
		return
	}
	for i := 0; i < s.NumField(); i++ {
		f := s.Field(i)
		if f.Kind() != reflect.Ptr || f.IsNil() {
			continue
		}
		switch elem := f.Elem(); elem.Kind() {
		case reflect.String:
			elem.SetString(strings.TrimSpace(elem.String()))
		case reflect.Float64:
			elem.SetFloat(Round2(elem.Float()))
		}
	}
}

func structValue(dto any) reflect.Value {
	v := reflect.ValueOf(dto)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return reflect.Value{}
	}
	return v.Elem()
}
