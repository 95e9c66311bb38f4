/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package ops

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"
)

// CommandGroup represents the operational classification of commands
type CommandGroup string

const (
	GroupSupport CommandGroup = "support" // version, doctor, hostinfo
	GroupUtility CommandGroup = "utility" // EOL catalog access, report validation
	GroupScan    CommandGroup = "scan"    // scan, frameworks, apps, processes
)

// CommandCategory refines a group into the kind of work a command performs
type CommandCategory string

const (
	CategoryOrchestration CommandCategory = "orchestration" // full multi-phase scans
	CategoryDiscovery     CommandCategory = "discovery"     // registry and service sweeps
	CategoryInspection    CommandCategory = "inspection"    // filesystem and process probes
	CategoryInformation   CommandCategory = "information"   // version and build details
	CategoryDiagnostics   CommandCategory = "diagnostics"   // environment health checks
	CategoryEnvironment   CommandCategory = "environment"   // host facts
	CategoryCatalog       CommandCategory = "catalog"       // EOL rule listing and lookup
	CategoryValidation    CommandCategory = "validation"    // report schema validation
)

// CommandCapabilities records which host surfaces a command touches when it
// runs. Doctor reports these so an operator knows which access checks matter
// for the command they intend to run.
type CommandCapabilities struct {
	ReadsRegistry   bool
	ReadsFilesystem bool
	ReadsProcesses  bool
	WritesReports   bool
}

// GetDefaultCapabilities returns the expected capability set for a
// group/category pair. Pairs outside the known set touch nothing.
func GetDefaultCapabilities(group CommandGroup, category CommandCategory) CommandCapabilities {
	switch group {
	case GroupScan:
		switch category {
		case CategoryOrchestration:
			return CommandCapabilities{ReadsRegistry: true, ReadsFilesystem: true, ReadsProcesses: true, WritesReports: true}
		case CategoryDiscovery:
			return CommandCapabilities{ReadsRegistry: true}
		case CategoryInspection:
			return CommandCapabilities{ReadsFilesystem: true, ReadsProcesses: true}
		}
	case GroupSupport:
		if category == CategoryDiagnostics {
			return CommandCapabilities{ReadsRegistry: true, ReadsProcesses: true}
		}
	case GroupUtility:
		if category == CategoryValidation {
			return CommandCapabilities{ReadsFilesystem: true}
		}
	}
	return CommandCapabilities{}
}

// CommandRegistration represents a registered command with its classification
type CommandRegistration struct {
	Name         string
	Group        CommandGroup
	Category     CommandCategory
	Capabilities CommandCapabilities
	Command      *cobra.Command
	Description  string
}

// Registry manages command classifications and registrations
type Registry struct {
	mu         sync.RWMutex
	commands   map[string]*CommandRegistration
	groupIndex map[CommandGroup][]*CommandRegistration
}

// Global registry instance
var globalRegistry = &Registry{
	commands:   make(map[string]*CommandRegistration),
	groupIndex: make(map[CommandGroup][]*CommandRegistration),
}

// GetRegistry returns the global command registry
func GetRegistry() *Registry {
	return globalRegistry
}

// RegisterCommand registers a command with its operational classification
func RegisterCommand(name string, group CommandGroup, cmd *cobra.Command, description string) error {
	return GetRegistry().Register(name, group, cmd, description)
}

// RegisterCommandWithTaxonomy registers a command with its full taxonomy
// on the global registry
func RegisterCommandWithTaxonomy(name string, group CommandGroup, category CommandCategory, capabilities CommandCapabilities, cmd *cobra.Command, description string) error {
	return GetRegistry().RegisterWithTaxonomy(name, group, category, capabilities, cmd, description)
}

// Register adds a command to the registry with group classification only.
// Commands registered this way carry no category or capabilities.
func (r *Registry) Register(name string, group CommandGroup, cmd *cobra.Command, description string) error {
	return r.RegisterWithTaxonomy(name, group, "", CommandCapabilities{}, cmd, description)
}

// RegisterWithTaxonomy adds a command to the registry
func (r *Registry) RegisterWithTaxonomy(name string, group CommandGroup, category CommandCategory, capabilities CommandCapabilities, cmd *cobra.Command, description string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.commands[name]; exists {
		return fmt.Errorf("command %s already registered", name)
	}

	registration := &CommandRegistration{
		Name:         name,
		Group:        group,
		Category:     category,
		Capabilities: capabilities,
		Command:      cmd,
		Description:  description,
	}

	r.commands[name] = registration
	r.groupIndex[group] = append(r.groupIndex[group], registration)

	return nil
}

// GetCommand returns a registered command by name
func (r *Registry) GetCommand(name string) (*CommandRegistration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, exists := r.commands[name]
	return cmd, exists
}

// GetCommandsByGroup returns all commands in a specific group
func (r *Registry) GetCommandsByGroup(group CommandGroup) []*CommandRegistration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.groupIndex[group]
}

// GetScanCommands returns all commands classified as scanning operations
func (r *Registry) GetScanCommands() []*CommandRegistration {
	return r.GetCommandsByGroup(GroupScan)
}

// GetAllCommands returns all registered commands
func (r *Registry) GetAllCommands() map[string]*CommandRegistration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*CommandRegistration)
	for k, v := range r.commands {
		result[k] = v
	}
	return result
}

// ListGroups returns all command groups and their command counts
func (r *Registry) ListGroups() map[CommandGroup]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[CommandGroup]int)
	for group, commands := range r.groupIndex {
		result[group] = len(commands)
	}
	return result
}
