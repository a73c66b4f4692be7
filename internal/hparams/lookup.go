package hparams

import (
	"fmt"
	"reflect"
	"strings"
)

// Lookup resolves a dotted path such as "optim.lr" or "network.hidden_sizes"
// against the sheet and returns the leaf value. Path segments follow the YAML
// key names. Unknown paths and paths ending on a section are errors.
func (c *Config) Lookup(path string) (any, error) {
	if path == "" {
		return nil, fmt.Errorf("empty lookup path")
	}

	current := reflect.ValueOf(*c)
	walked := make([]string, 0, 2)
	for _, segment := range strings.Split(path, ".") {
		if current.Kind() != reflect.Struct {
			return nil, fmt.Errorf("'%s' is a leaf value, cannot descend into '%s'", strings.Join(walked, "."), segment)
		}
		field, ok := fieldByYAMLName(current, segment)
		if !ok {
			return nil, fmt.Errorf("unknown key '%s' under '%s'", segment, strings.Join(walked, "."))
		}
		current = field
		walked = append(walked, segment)
	}

	if current.Kind() == reflect.Struct {
		return nil, fmt.Errorf("'%s' is a section, not a value", path)
	}
	return current.Interface(), nil
}

// fieldByYAMLName finds the struct field whose yaml tag matches name.
func fieldByYAMLName(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("yaml")
		tagName := strings.Split(tag, ",")[0]
		if tagName == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}
