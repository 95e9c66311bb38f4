//go:build !windows

package winsys

type stubRegistry struct{}

// NewRegistry returns a registry view that reports ErrUnsupported for
// every call.
func NewRegistry() RegistryView {
	return stubRegistry{}
}

func (stubRegistry) StringValue(string, string) (string, error) {
	return "", ErrUnsupported
}

func (stubRegistry) SubKeyNames(string) ([]string, error) {
	return nil, ErrUnsupported
}

func (stubRegistry) StringValues(string) ([]NamedValue, error) {
	return nil, ErrUnsupported
}

type stubServiceTable struct{}

// NewServiceTable returns a service table that reports ErrUnsupported.
func NewServiceTable() ServiceTable {
	return stubServiceTable{}
}

func (stubServiceTable) ListServices() ([]ServiceInfo, error) {
	return nil, ErrUnsupported
}

type stubModuleLister struct{}

// NewModuleLister returns a module lister that reports ErrUnsupported.
func NewModuleLister() ModuleLister {
	return stubModuleLister{}
}

func (stubModuleLister) Modules(int32) ([]ModuleInfo, error) {
	return nil, ErrUnsupported
}
