package event

import (
	"reflect"
	"sort"
	"strings"
)

type DefaultFieldExtractor struct{}

// ExtractFields returns the named fields of obj keyed by their json names.
func (e *DefaultFieldExtractor) ExtractFields(obj interface{}, fields []string) map[string]interface{} {
	result := make(map[string]interface{})
	if obj == nil {
		return result
	}

	val := reflect.ValueOf(obj)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return result
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return result
	}
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		name := jsonName(field)
		if name == "-" {
			continue
		}
		if len(fields) == 0 || contains(fields, name) {
			result[name] = val.Field(i).Interface()
		}
	}
	return result
}

// ChangedFields lists, sorted, the json names of fields whose values differ
// between old and new.
func (e *DefaultFieldExtractor) ChangedFields(old, new interface{}) []string {
	if old == nil || new == nil {
		return nil
	}

	oldFields := e.ExtractFields(old, nil)
	newFields := e.ExtractFields(new, nil)

	var changed []string
	for field, newValue := range newFields {
		if oldValue, exists := oldFields[field]; exists && !reflect.DeepEqual(oldValue, newValue) {
			changed = append(changed, field)
		}
	}
	sort.Strings(changed)
	return changed
}

func jsonName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" {
		return strings.ToLower(field.Name)
	}
	return strings.Split(tag, ",")[0]
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
