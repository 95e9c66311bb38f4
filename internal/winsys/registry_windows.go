//go:build windows

package winsys

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows/registry"
)

type hklmRegistry struct{}

// NewRegistry returns a live view of HKEY_LOCAL_MACHINE.
func NewRegistry() RegistryView {
	return hklmRegistry{}
}

func (hklmRegistry) StringValue(path, name string) (string, error) {
	key, err := registry.OpenKey(registry.LOCAL_MACHINE, path, registry.QUERY_VALUE)
	if err != nil {
		return "", fmt.Errorf("opening HKLM\\%s: %w", path, err)
	}
	defer key.Close()

	value, _, err := key.GetStringValue(name)
	if err != nil {
		return "", fmt.Errorf("reading HKLM\\%s!%s: %w", path, name, err)
	}
	return value, nil
}

func (hklmRegistry) SubKeyNames(path string) ([]string, error) {
	key, err := registry.OpenKey(registry.LOCAL_MACHINE, path, registry.ENUMERATE_SUB_KEYS)
	if err != nil {
		return nil, fmt.Errorf("opening HKLM\\%s: %w", path, err)
	}
	defer key.Close()

	names, err := key.ReadSubKeyNames(-1)
	if err != nil {
		return nil, fmt.Errorf("enumerating HKLM\\%s: %w", path, err)
	}
	return names, nil
}

func (hklmRegistry) StringValues(path string) ([]NamedValue, error) {
	key, err := registry.OpenKey(registry.LOCAL_MACHINE, path, registry.QUERY_VALUE)
	if err != nil {
		return nil, fmt.Errorf("opening HKLM\\%s: %w", path, err)
	}
	defer key.Close()

	names, err := key.ReadValueNames(-1)
	if err != nil {
		return nil, fmt.Errorf("enumerating values of HKLM\\%s: %w", path, err)
	}

	values := make([]NamedValue, 0, len(names))
	for _, name := range names {
		data, _, err := key.GetStringValue(name)
		if err != nil {
			// Non-string values are not interesting to any detector.
			if errors.Is(err, registry.ErrUnexpectedType) {
				continue
			}
			return nil, fmt.Errorf("reading HKLM\\%s!%s: %w", path, name, err)
		}
		values = append(values, NamedValue{Name: name, Value: data})
	}
	return values, nil
}
