//go:build windows

package winsys

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

type toolhelpModuleLister struct{}

// NewModuleLister returns a module lister backed by toolhelp
// snapshots.
func NewModuleLister() ModuleLister {
	return toolhelpModuleLister{}
}

func (toolhelpModuleLister) Modules(pid int32) ([]ModuleInfo, error) {
	snapshot, err := windows.CreateToolhelp32Snapshot(
		windows.TH32CS_SNAPMODULE|windows.TH32CS_SNAPMODULE32, uint32(pid))
	if err != nil {
		return nil, fmt.Errorf("snapshotting modules of pid %d: %w", pid, err)
	}
	defer func() { _ = windows.CloseHandle(snapshot) }()

	var entry windows.ModuleEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))

	if err := windows.Module32First(snapshot, &entry); err != nil {
		return nil, fmt.Errorf("walking modules of pid %d: %w", pid, err)
	}

	var modules []ModuleInfo
	for {
		modules = append(modules, ModuleInfo{
			Name: windows.UTF16ToString(entry.Module[:]),
			Path: windows.UTF16ToString(entry.ExePath[:]),
		})
		if err := windows.Module32Next(snapshot, &entry); err != nil {
			if errors.Is(err, windows.ERROR_NO_MORE_FILES) {
				break
			}
			return nil, fmt.Errorf("walking modules of pid %d: %w", pid, err)
		}
	}
	return modules, nil
}
