// Package winsys wraps the Windows primitives depscout scans through:
// the HKLM registry, the service control manager, and per-process
// module snapshots. Non-Windows builds compile against stubs that
// return ErrUnsupported, which keeps the detectors testable with fakes
// on any platform.
package winsys

import "errors"

// ErrUnsupported reports that the host platform cannot serve the
// request.
var ErrUnsupported = errors.New("winsys: unsupported on this platform")

// NamedValue is one registry value under a key.
type NamedValue struct {
	Name  string
	Value string
}

// RegistryView reads string data from HKEY_LOCAL_MACHINE. Paths are
// relative to HKLM. A missing key or value returns an error satisfying
// errors.Is(err, fs.ErrNotExist), which detectors treat as "not
// installed" rather than a scan failure.
type RegistryView interface {
	// StringValue reads the named REG_SZ value of a key.
	StringValue(path, name string) (string, error)
	// SubKeyNames lists the immediate subkeys of a key.
	SubKeyNames(path string) ([]string, error)
	// StringValues lists a key's string values as name/data pairs.
	// Values of other registry types are skipped.
	StringValues(path string) ([]NamedValue, error)
}

// ServiceInfo describes one installed Windows service.
type ServiceInfo struct {
	Name        string
	DisplayName string
	BinaryPath  string
	Running     bool
}

// ServiceTable enumerates installed services.
type ServiceTable interface {
	ListServices() ([]ServiceInfo, error)
}

// ModuleInfo is one DLL loaded by a process.
type ModuleInfo struct {
	Name string
	Path string
}

// ModuleLister snapshots the modules loaded by a process. Protected
// and exited processes return errors the caller is expected to skip.
type ModuleLister interface {
	Modules(pid int32) ([]ModuleInfo, error)
}
