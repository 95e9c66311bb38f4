//go:build windows

package winsys

import (
	"fmt"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/mgr"
)

type scmServiceTable struct{}

// NewServiceTable returns a live view of the service control manager.
// Enumeration uses read-only access so it works without an elevated
// token.
func NewServiceTable() ServiceTable {
	return scmServiceTable{}
}

func (scmServiceTable) ListServices() ([]ServiceInfo, error) {
	scm, err := connectReadOnly()
	if err != nil {
		return nil, fmt.Errorf("connecting to service manager: %w", err)
	}
	defer func() { _ = scm.Disconnect() }()

	names, err := scm.ListServices()
	if err != nil {
		return nil, fmt.Errorf("listing services: %w", err)
	}

	services := make([]ServiceInfo, 0, len(names))
	for _, name := range names {
		info, err := queryService(scm, name)
		if err != nil {
			// Individual services can deny access or vanish mid-scan.
			continue
		}
		services = append(services, info)
	}
	return services, nil
}

func connectReadOnly() (*mgr.Mgr, error) {
	handle, err := windows.OpenSCManager(nil, nil,
		windows.SC_MANAGER_CONNECT|windows.SC_MANAGER_ENUMERATE_SERVICE)
	if err != nil {
		return nil, err
	}
	return &mgr.Mgr{Handle: handle}, nil
}

func queryService(scm *mgr.Mgr, name string) (ServiceInfo, error) {
	namePtr, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return ServiceInfo{}, err
	}
	handle, err := windows.OpenService(scm.Handle, namePtr,
		windows.SERVICE_QUERY_CONFIG|windows.SERVICE_QUERY_STATUS)
	if err != nil {
		return ServiceInfo{}, err
	}
	service := &mgr.Service{Name: name, Handle: handle}
	defer func() { _ = service.Close() }()

	info := ServiceInfo{Name: name}
	if config, err := service.Config(); err == nil {
		info.DisplayName = config.DisplayName
		info.BinaryPath = config.BinaryPathName
	}
	if status, err := service.Query(); err == nil {
		info.Running = status.State == svc.Running
	}
	return info, nil
}
