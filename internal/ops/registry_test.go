/*
Copyright © 2025 3 Leaps (hello@3leaps.net and https://3leaps.net)
*/
package ops

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() *Registry {
	return &Registry{
		commands:   make(map[string]*CommandRegistration),
		groupIndex: make(map[CommandGroup][]*CommandRegistration),
	}
}

// registerCoreCommands registers every core command with its expected
// classification and default capabilities.
func registerCoreCommands(t *testing.T, registry *Registry) {
	t.Helper()
	for name, class := range getDefaultCoreCommands() {
		cmd := &cobra.Command{Use: name, Short: name}
		caps := GetDefaultCapabilities(class.Group, class.Category)
		require.NoError(t, registry.RegisterWithTaxonomy(name, class.Group, class.Category, caps, cmd, name),
			"failed to register %s", name)
	}
}

// TestRegistry_BasicRegistration tests basic command registration functionality
func TestRegistry_BasicRegistration(t *testing.T) {
	registry := newTestRegistry()

	testCmd := &cobra.Command{
		Use:   "test",
		Short: "Test command",
	}

	require.NoError(t, registry.Register("test", GroupSupport, testCmd, "A test command"))

	cmd, exists := registry.GetCommand("test")
	require.True(t, exists, "expected command to exist after registration")

	assert.Equal(t, "test", cmd.Name)
	assert.Equal(t, GroupSupport, cmd.Group)
	assert.Equal(t, "A test command", cmd.Description)
	assert.Same(t, testCmd, cmd.Command)

	// Plain registration carries no taxonomy detail
	assert.Empty(t, cmd.Category)
	assert.Equal(t, CommandCapabilities{}, cmd.Capabilities)
}

// TestRegistry_DuplicateRegistration tests handling of duplicate command registration
func TestRegistry_DuplicateRegistration(t *testing.T) {
	registry := newTestRegistry()

	testCmd1 := &cobra.Command{Use: "scan", Short: "Scan command 1"}
	testCmd2 := &cobra.Command{Use: "scan", Short: "Scan command 2"}

	require.NoError(t, registry.Register("scan", GroupScan, testCmd1, "First scan command"))

	err := registry.Register("scan", GroupSupport, testCmd2, "Second scan command")
	require.Error(t, err, "expected duplicate registration to fail")
	assert.EqualError(t, err, "command scan already registered")

	// Verify original command is still registered
	cmd, exists := registry.GetCommand("scan")
	require.True(t, exists, "expected original command to still exist")
	assert.Equal(t, GroupScan, cmd.Group)
}

// TestRegistry_GetCommand tests command retrieval functionality
func TestRegistry_GetCommand(t *testing.T) {
	registry := newTestRegistry()

	_, exists := registry.GetCommand("nonexistent")
	assert.False(t, exists, "expected non-existent command to return false")

	testCmd := &cobra.Command{Use: "doctor", Short: "Doctor command"}
	require.NoError(t, registry.Register("doctor", GroupSupport, testCmd, "Environment diagnostics"))

	cmd, exists := registry.GetCommand("doctor")
	require.True(t, exists, "expected existing command to be found")
	assert.Equal(t, "doctor", cmd.Name)
}

// TestRegistry_GetCommandsByGroup tests group-based command retrieval
func TestRegistry_GetCommandsByGroup(t *testing.T) {
	registry := newTestRegistry()

	assert.Empty(t, registry.GetCommandsByGroup(GroupSupport))

	cmd1 := &cobra.Command{Use: "version", Short: "Version command"}
	cmd2 := &cobra.Command{Use: "frameworks", Short: "Frameworks command"}
	cmd3 := &cobra.Command{Use: "hostinfo", Short: "Host information"}

	require.NoError(t, registry.Register("version", GroupSupport, cmd1, "Version details"))
	require.NoError(t, registry.Register("frameworks", GroupScan, cmd2, "Framework discovery"))
	require.NoError(t, registry.Register("hostinfo", GroupSupport, cmd3, "Host information"))

	supportCommands := registry.GetCommandsByGroup(GroupSupport)
	require.Len(t, supportCommands, 2)
	commandNames := make(map[string]bool)
	for _, cmd := range supportCommands {
		commandNames[cmd.Name] = true
	}
	assert.True(t, commandNames["version"], "expected 'version' command in support group")
	assert.True(t, commandNames["hostinfo"], "expected 'hostinfo' command in support group")

	scanCommands := registry.GetCommandsByGroup(GroupScan)
	require.Len(t, scanCommands, 1)
	assert.Equal(t, "frameworks", scanCommands[0].Name)

	assert.Empty(t, registry.GetCommandsByGroup(GroupUtility))
}

// TestRegistry_GetScanCommands tests the convenience method for scan commands
func TestRegistry_GetScanCommands(t *testing.T) {
	registry := newTestRegistry()

	cmd1 := &cobra.Command{Use: "version", Short: "Version command"}
	cmd2 := &cobra.Command{Use: "frameworks", Short: "Frameworks command"}
	cmd3 := &cobra.Command{Use: "processes", Short: "Processes command"}

	require.NoError(t, registry.Register("version", GroupSupport, cmd1, "Version details"))
	require.NoError(t, registry.Register("frameworks", GroupScan, cmd2, "Framework discovery"))
	require.NoError(t, registry.Register("processes", GroupScan, cmd3, "Process inspection"))

	scanCommands := registry.GetScanCommands()
	require.Len(t, scanCommands, 2)

	commandNames := make(map[string]bool)
	for _, cmd := range scanCommands {
		commandNames[cmd.Name] = true
	}
	assert.True(t, commandNames["frameworks"], "expected 'frameworks' command in scan commands")
	assert.True(t, commandNames["processes"], "expected 'processes' command in scan commands")
}

// TestRegistry_GetAllCommands tests retrieval of all registered commands
func TestRegistry_GetAllCommands(t *testing.T) {
	registry := newTestRegistry()

	assert.Empty(t, registry.GetAllCommands())

	cmd1 := &cobra.Command{Use: "version", Short: "Version command"}
	cmd2 := &cobra.Command{Use: "scan", Short: "Scan command"}

	require.NoError(t, registry.Register("version", GroupSupport, cmd1, "Version details"))
	require.NoError(t, registry.Register("scan", GroupScan, cmd2, "Full dependency scan"))

	allCommands := registry.GetAllCommands()
	require.Len(t, allCommands, 2)
	require.Contains(t, allCommands, "version")
	require.Contains(t, allCommands, "scan")

	versionCmd := allCommands["version"]
	assert.Equal(t, GroupSupport, versionCmd.Group)
	assert.Equal(t, "Version details", versionCmd.Description)
}

// TestRegistry_ListGroups tests group listing functionality
func TestRegistry_ListGroups(t *testing.T) {
	registry := newTestRegistry()

	assert.Empty(t, registry.ListGroups())

	cmd1 := &cobra.Command{Use: "version", Short: "Version command"}
	cmd2 := &cobra.Command{Use: "scan", Short: "Scan command"}
	cmd3 := &cobra.Command{Use: "frameworks", Short: "Frameworks command"}
	cmd4 := &cobra.Command{Use: "hostinfo", Short: "Host information"}
	cmd5 := &cobra.Command{Use: "eol", Short: "EOL catalog"}

	require.NoError(t, registry.Register("version", GroupSupport, cmd1, "Version details"))
	require.NoError(t, registry.Register("scan", GroupScan, cmd2, "Full dependency scan"))
	require.NoError(t, registry.Register("frameworks", GroupScan, cmd3, "Framework discovery"))
	require.NoError(t, registry.Register("hostinfo", GroupSupport, cmd4, "Host information"))
	require.NoError(t, registry.Register("eol", GroupUtility, cmd5, "EOL catalog access"))

	groups := registry.ListGroups()
	require.Len(t, groups, 3)
	assert.Equal(t, 2, groups[GroupSupport])
	assert.Equal(t, 2, groups[GroupScan])
	assert.Equal(t, 1, groups[GroupUtility])
}

// TestGlobalRegistry tests the global registry functionality
func TestGlobalRegistry(t *testing.T) {
	registry := GetRegistry()
	require.NotNil(t, registry, "expected global registry to be non-nil")

	testCmd := &cobra.Command{Use: "global-test", Short: "Global test command"}
	require.NoError(t, RegisterCommand("global-test", GroupSupport, testCmd, "Global test command"))

	cmd, exists := registry.GetCommand("global-test")
	require.True(t, exists, "expected globally registered command to exist")
	assert.Equal(t, "global-test", cmd.Name)
	assert.Equal(t, GroupSupport, cmd.Group)
}

// TestCommandGroups tests the command group constants
func TestCommandGroups(t *testing.T) {
	assert.Equal(t, CommandGroup("support"), GroupSupport)
	assert.Equal(t, CommandGroup("utility"), GroupUtility)
	assert.Equal(t, CommandGroup("scan"), GroupScan)
}

// TestGetDefaultCapabilities tests the capability defaults per classification
func TestGetDefaultCapabilities(t *testing.T) {
	full := GetDefaultCapabilities(GroupScan, CategoryOrchestration)
	assert.True(t, full.ReadsRegistry && full.ReadsFilesystem && full.ReadsProcesses && full.WritesReports,
		"expected orchestration to touch every surface, got %+v", full)

	discovery := GetDefaultCapabilities(GroupScan, CategoryDiscovery)
	assert.True(t, discovery.ReadsRegistry, "expected discovery to read the registry")
	assert.False(t, discovery.ReadsFilesystem || discovery.ReadsProcesses || discovery.WritesReports,
		"expected discovery to touch only the registry, got %+v", discovery)

	inspection := GetDefaultCapabilities(GroupScan, CategoryInspection)
	assert.True(t, inspection.ReadsFilesystem && inspection.ReadsProcesses,
		"expected inspection to read filesystem and processes, got %+v", inspection)

	diagnostics := GetDefaultCapabilities(GroupSupport, CategoryDiagnostics)
	assert.True(t, diagnostics.ReadsRegistry && diagnostics.ReadsProcesses,
		"expected diagnostics to read registry and processes, got %+v", diagnostics)

	info := GetDefaultCapabilities(GroupSupport, CategoryInformation)
	assert.Equal(t, CommandCapabilities{}, info, "expected information commands to touch nothing")
}

// TestTaxonomyValidation tests the taxonomy validation system
func TestTaxonomyValidation(t *testing.T) {
	registry := newTestRegistry()
	registerCoreCommands(t, registry)

	validator := NewTaxonomyValidator()
	errors := validator.Validate(registry)

	assert.Empty(t, FilterErrors(errors, ErrorTypeCoreCommand))
	assert.Empty(t, FilterErrors(errors, ErrorTypeExtensionWarning))
	assert.Empty(t, FilterErrors(errors, ErrorTypeTaxonomyConsistency))
}

// TestTaxonomyValidation_MissingCoreCommand tests validation when core commands are missing
func TestTaxonomyValidation_MissingCoreCommand(t *testing.T) {
	registry := newTestRegistry()

	// Register only version, leaving the rest of the core set missing
	testCmd := &cobra.Command{Use: "version", Short: "Version command"}
	require.NoError(t, registry.RegisterWithTaxonomy("version", GroupSupport, CategoryInformation,
		GetDefaultCapabilities(GroupSupport, CategoryInformation), testCmd, "Version details"))

	validator := NewTaxonomyValidator()
	errors := validator.Validate(registry)

	coreErrors := FilterErrors(errors, ErrorTypeCoreCommand)
	require.NotEmpty(t, coreErrors, "expected core command errors for missing commands")

	foundScanError := false
	for _, err := range coreErrors {
		if err.Command == "scan" && err.Message == "Core command is not registered" {
			foundScanError = true
			break
		}
	}
	assert.True(t, foundScanError, "expected error for missing scan command, got: %v", coreErrors)
}

// TestTaxonomyValidation_WrongClassification tests validation when commands have wrong classification
func TestTaxonomyValidation_WrongClassification(t *testing.T) {
	registry := newTestRegistry()

	// Register eol under the scan group even though it belongs to utility
	testCmd := &cobra.Command{Use: "eol", Short: "EOL catalog"}
	require.NoError(t, registry.RegisterWithTaxonomy("eol", GroupScan, CategoryDiscovery,
		GetDefaultCapabilities(GroupScan, CategoryDiscovery), testCmd, "EOL catalog access"))

	validator := NewTaxonomyValidator()
	errors := validator.Validate(registry)

	coreErrors := FilterErrors(errors, ErrorTypeCoreCommand)

	foundGroupError := false
	for _, err := range coreErrors {
		if err.Command == "eol" && strings.Contains(err.Message, "Incorrect group") {
			foundGroupError = true
			break
		}
	}
	assert.True(t, foundGroupError, "expected group classification error for eol, got: %v", coreErrors)
}

// TestTaxonomyValidation_ExtensionCommands tests validation of extension commands
func TestTaxonomyValidation_ExtensionCommands(t *testing.T) {
	registry := newTestRegistry()
	registerCoreCommands(t, registry)

	extCmd := &cobra.Command{Use: "custom-probe", Short: "Custom probe"}
	require.NoError(t, registry.RegisterWithTaxonomy("custom-probe", GroupScan, CategoryInspection,
		GetDefaultCapabilities(GroupScan, CategoryInspection), extCmd, "Custom probe"))

	validator := NewTaxonomyValidator()
	errors := validator.Validate(registry)

	extensionWarnings := FilterErrors(errors, ErrorTypeExtensionWarning)
	require.NotEmpty(t, extensionWarnings, "expected extension warning for custom-probe")

	foundWarning := false
	for _, warning := range extensionWarnings {
		if warning.Command == "custom-probe" {
			foundWarning = true
			break
		}
	}
	assert.True(t, foundWarning, "expected warning for custom-probe extension, got: %v", extensionWarnings)
}

// TestTaxonomyValidation_InvalidCategory tests validation of invalid category usage
func TestTaxonomyValidation_InvalidCategory(t *testing.T) {
	registry := newTestRegistry()

	// Catalog access is a utility concern, not a support one
	testCmd := &cobra.Command{Use: "test", Short: "Test command"}
	require.NoError(t, registry.RegisterWithTaxonomy("test", GroupSupport, CategoryCatalog,
		GetDefaultCapabilities(GroupSupport, CategoryCatalog), testCmd, "Test command"))

	validator := NewTaxonomyValidator()
	errors := validator.Validate(registry)

	consistencyErrors := FilterErrors(errors, ErrorTypeTaxonomyConsistency)
	require.NotEmpty(t, consistencyErrors, "expected taxonomy consistency error for invalid category")

	foundError := false
	for _, err := range consistencyErrors {
		if err.Command == "test" && strings.Contains(err.Message, "not allowed for group") {
			foundError = true
			break
		}
	}
	assert.True(t, foundError, "expected consistency error for invalid category, got: %v", consistencyErrors)
}

// TestTaxonomyValidation_CapabilityDrift tests detection of capabilities that
// differ from the defaults for a classification
func TestTaxonomyValidation_CapabilityDrift(t *testing.T) {
	registry := newTestRegistry()

	// Discovery should only read the registry
	testCmd := &cobra.Command{Use: "frameworks", Short: "Frameworks command"}
	require.NoError(t, registry.RegisterWithTaxonomy("frameworks", GroupScan, CategoryDiscovery,
		CommandCapabilities{ReadsRegistry: true, ReadsProcesses: true}, testCmd, "Framework discovery"))

	validator := NewTaxonomyValidator()
	errors := validator.Validate(registry)

	consistencyErrors := FilterErrors(errors, ErrorTypeTaxonomyConsistency)

	foundDrift := false
	for _, err := range consistencyErrors {
		if err.Command == "frameworks" && strings.Contains(err.Message, "Capabilities differ") {
			foundDrift = true
			assert.Equal(t, SeverityWarning, err.Severity, "expected capability drift to be a warning")
			break
		}
	}
	assert.True(t, foundDrift, "expected capability drift warning for frameworks, got: %v", consistencyErrors)
}

// TestTaxonomyValidationUtilities tests utility functions
func TestTaxonomyValidationUtilities(t *testing.T) {
	errors := []ValidationError{
		{Type: ErrorTypeCoreCommand, Severity: SeverityError, Command: "scan", Message: "missing"},
		{Type: ErrorTypeExtensionWarning, Severity: SeverityWarning, Command: "custom-probe", Message: "extension"},
		{Type: ErrorTypeCoreCommand, Severity: SeverityError, Command: "eol", Message: "wrong group"},
	}

	assert.Len(t, FilterErrors(errors, ErrorTypeCoreCommand), 2)
	assert.Len(t, FilterErrors(errors, ErrorTypeExtensionWarning), 1)
	assert.Len(t, FilterErrorsBySeverity(errors, SeverityError), 2)

	formatted := FormatErrors(errors)
	assert.Contains(t, formatted, "Found 3 validation errors")
	assert.Contains(t, formatted, "[ERROR] scan: missing")

	assert.Equal(t, "No validation errors found", FormatErrors(nil))
}
