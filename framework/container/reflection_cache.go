package container

import (
	"reflect"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

// fieldCache caches exported-field metadata per struct type for constructor
// injection and Bindings.Destructure.
type fieldCache struct {
	mu     sync.RWMutex
	fields map[reflect.Type][]fieldInfo
}

// fieldInfo describes one exported struct field.
type fieldInfo struct {
	index int
	name  string
	typ   reflect.Type
	key   string // registration key, "" when tagged bind:"-"
}

var structFields = &fieldCache{fields: make(map[reflect.Type][]fieldInfo)}

// get returns the exported fields of the struct type typ in declaration order.
func (fc *fieldCache) get(typ reflect.Type) []fieldInfo {
	fc.mu.RLock()
	fields, ok := fc.fields[typ]
	fc.mu.RUnlock()
	if ok {
		return fields
	}

	fc.mu.Lock()
	defer fc.mu.Unlock()
	if fields, ok = fc.fields[typ]; ok {
		return fields
	}

	fields = make([]fieldInfo, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		fields = append(fields, fieldInfo{
			index: i,
			name:  field.Name,
			typ:   field.Type,
			key:   bindingKey(field),
		})
	}
	fc.fields[typ] = fields
	return fields
}

// bindingKey is the `bind` tag, or the field name with its first rune
// lower-cased: field Logger binds key "logger".
func bindingKey(field reflect.StructField) string {
	if tag, ok := field.Tag.Lookup("bind"); ok {
		name, _, _ := strings.Cut(tag, ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	r, size := utf8.DecodeRuneInString(field.Name)
	return string(unicode.ToLower(r)) + field.Name[size:]
}
