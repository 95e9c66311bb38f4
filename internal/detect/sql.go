package detect

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"

	"github.com/fulmenhq/depscout/internal/report"
	"github.com/fulmenhq/depscout/internal/winsys"
	"github.com/fulmenhq/depscout/pkg/logger"
)

const sqlServerRoot = `SOFTWARE\Microsoft\Microsoft SQL Server`

// MSSQLDetector finds SQL Server instances through the instance
// registry.
type MSSQLDetector struct {
	registry winsys.RegistryView
}

// NewMSSQLDetector creates a SQL Server detector over the given
// registry view.
func NewMSSQLDetector(registry winsys.RegistryView) *MSSQLDetector {
	return &MSSQLDetector{registry: registry}
}

func (d *MSSQLDetector) Name() string { return "mssql" }

// Detect maps instance names to instance IDs, then reads each
// instance's version and setup details. Instances with unreadable
// version keys are skipped rather than failing the phase.
func (d *MSSQLDetector) Detect(ctx context.Context) ([]report.Framework, error) {
	instances, err := d.registry.StringValues(sqlServerRoot + `\Instance Names\SQL`)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var found []report.Framework
	for _, instance := range instances {
		if err := ctx.Err(); err != nil {
			return found, err
		}

		versionKey := fmt.Sprintf(`%s\%s\MSSQLServer\CurrentVersion`, sqlServerRoot, instance.Value)
		version, err := d.registry.StringValue(versionKey, "CurrentVersion")
		if err != nil {
			logger.Debug("sql server instance without readable version",
				logger.String("instance", instance.Name), logger.Err(err))
			continue
		}

		fw := report.Framework{
			Name:            mssqlDisplayName(instance.Name),
			Version:         version,
			Vendor:          "Microsoft",
			Source:          report.SourceRegistry,
			DetectionMethod: report.MethodStatic,
			Confidence:      report.ConfidenceHigh,
			Status:          report.StatusInstalled,
		}

		setupKey := fmt.Sprintf(`%s\%s\Setup`, sqlServerRoot, instance.Value)
		if edition, err := d.registry.StringValue(setupKey, "Edition"); err == nil {
			fw.Edition = edition
		}
		if dataRoot, err := d.registry.StringValue(setupKey, "SQLDataRoot"); err == nil {
			fw.InstallPath = dataRoot
		}

		found = append(found, fw)
	}
	return found, nil
}

// mssqlDisplayName keeps the default instance under the plain product
// name and qualifies named instances.
func mssqlDisplayName(instance string) string {
	if strings.EqualFold(instance, "MSSQLSERVER") {
		return "Microsoft SQL Server"
	}
	return fmt.Sprintf("Microsoft SQL Server (%s)", instance)
}

var (
	dottedTriple = regexp.MustCompile(`\d+\.\d+\.\d+`)
	dottedPair   = regexp.MustCompile(`\d+\.\d+`)
	majorOrPair  = regexp.MustCompile(`\d+(\.\d+)?`)
	// archToken matches platform markers in service names
	// (postgresql-x64-14) that would otherwise win the version match.
	archToken = regexp.MustCompile(`(?i)(x64|x86|win64|win32|amd64)`)
)

// ServiceSQLDetector finds MySQL, MariaDB, and PostgreSQL installs
// through the Windows service table.
type ServiceSQLDetector struct {
	services winsys.ServiceTable
}

// NewServiceSQLDetector creates a detector over the given service
// table.
func NewServiceSQLDetector(services winsys.ServiceTable) *ServiceSQLDetector {
	return &ServiceSQLDetector{services: services}
}

func (d *ServiceSQLDetector) Name() string { return "sql-services" }

// Detect matches service names by engine prefix. Version extraction is
// heuristic, so these findings carry medium confidence at best, and a
// running service reports status running.
func (d *ServiceSQLDetector) Detect(ctx context.Context) ([]report.Framework, error) {
	services, err := d.services.ListServices()
	if err != nil {
		return nil, err
	}

	var found []report.Framework
	for _, service := range services {
		if err := ctx.Err(); err != nil {
			return found, err
		}

		name := strings.ToLower(service.Name)
		switch {
		case strings.HasPrefix(name, "mysql"):
			found = append(found, serviceFramework(service, "MySQL", mysqlServiceVersion(service)))
		case strings.HasPrefix(name, "mariadb"):
			found = append(found, serviceFramework(service, "MariaDB", mysqlServiceVersion(service)))
		case strings.HasPrefix(name, "postgresql"):
			found = append(found, serviceFramework(service, "PostgreSQL", postgresServiceVersion(service)))
		}
	}
	return found, nil
}

func serviceFramework(service winsys.ServiceInfo, name, version string) report.Framework {
	confidence := report.ConfidenceMedium
	if version == "" {
		confidence = report.ConfidenceLow
	}
	status := report.StatusInstalled
	if service.Running {
		status = report.StatusRunning
	}
	return report.Framework{
		Name:            name,
		Version:         version,
		InstallPath:     serviceInstallRoot(service.BinaryPath),
		Source:          report.SourceServices,
		DetectionMethod: report.MethodStatic,
		Confidence:      confidence,
		Status:          status,
	}
}

// mysqlServiceVersion prefers a full x.y.z from the display name or
// command line and falls back to the x.y baked into install paths like
// MySQL Server 8.0.
func mysqlServiceVersion(service winsys.ServiceInfo) string {
	haystack := service.DisplayName + " " + service.BinaryPath
	if v := dottedTriple.FindString(haystack); v != "" {
		return v
	}
	return dottedPair.FindString(haystack)
}

// postgresServiceVersion reads the major version off service names
// like postgresql-x64-14, with architecture markers stripped first so
// the 64 cannot match.
func postgresServiceVersion(service winsys.ServiceInfo) string {
	haystack := archToken.ReplaceAllString(service.Name+" "+service.DisplayName, "")
	return majorOrPair.FindString(haystack)
}

// serviceInstallRoot walks from the service executable up to the
// install root: bin\mysqld.exe sits two levels below it.
func serviceInstallRoot(cmdline string) string {
	exe := executableFromCommand(cmdline)
	if exe == "" {
		return ""
	}
	return parentDir(parentDir(exe))
}
