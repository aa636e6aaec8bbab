package source

import (
	"encoding/json"
	"fmt"

	apiv0 "github.com/modelcontextprotocol/registry/pkg/api/v0"
)

// Metadata is the header of a registry document.
type Metadata struct {
	Version       string `json:"version"`
	FormatVersion string `json:"formatVersion"`
	Count         int    `json:"count"`
}

// ServerReport summarizes one server entry of a validated document.
type ServerReport struct {
	Name      string
	Version   string
	Package   string
	Transport string
	Remotes   []string
	Missing   []string
}

// Report is the outcome of Validate. The document is valid when Errors is
// empty; Warnings never affect validity.
type Report struct {
	Metadata Metadata
	Servers  []ServerReport
	Errors   []string
	Warnings []string
}

// Valid reports whether no errors were found.
func (r *Report) Valid() bool {
	return len(r.Errors) == 0
}

func (r *Report) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Report) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Validate checks a registry document ({"metadata": ..., "servers": [{"server": ...}]})
// for the fields clients rely on. It returns an error only when the document
// cannot be decoded at all.
func Validate(data []byte, format Format) (*Report, error) {
	if format == FormatYAML {
		converted, err := yamlToJSON(data)
		if err != nil {
			return nil, err
		}
		data = converted
	}

	var doc struct {
		Metadata *Metadata `json:"metadata"`
		Servers  []struct {
			Server *apiv0.ServerJSON `json:"server"`
		} `json:"servers"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode registry document: %w", err)
	}

	report := &Report{}

	if doc.Metadata == nil {
		report.errorf("missing metadata")
	} else {
		report.Metadata = *doc.Metadata
		var missing []string
		if doc.Metadata.Version == "" {
			missing = append(missing, "version")
		}
		if doc.Metadata.FormatVersion == "" {
			missing = append(missing, "formatVersion")
		}
		if doc.Metadata.Count == 0 {
			missing = append(missing, "count")
		}
		if len(missing) > 0 {
			report.errorf("missing metadata fields: %v", missing)
		}
	}

	if doc.Servers == nil {
		report.errorf("servers is not a valid array")
		return report, nil
	}

	if doc.Metadata != nil && doc.Metadata.Count != len(doc.Servers) {
		report.errorf("server count mismatch: metadata says %d, but found %d", doc.Metadata.Count, len(doc.Servers))
	}

	for i, entry := range doc.Servers {
		if entry.Server == nil {
			report.errorf("server %d: missing server object", i+1)
			report.Servers = append(report.Servers, ServerReport{Missing: []string{"server"}})
			continue
		}
		report.Servers = append(report.Servers, validateServer(report, i+1, entry.Server))
	}

	return report, nil
}

func validateServer(report *Report, n int, server *apiv0.ServerJSON) ServerReport {
	sr := ServerReport{Name: server.Name, Version: server.Version}

	if server.Name == "" {
		sr.Missing = append(sr.Missing, "name")
	}
	if server.Description == "" {
		sr.Missing = append(sr.Missing, "description")
	}
	if server.Version == "" {
		sr.Missing = append(sr.Missing, "version")
	}
	if server.Packages == nil {
		sr.Missing = append(sr.Missing, "packages")
	}
	if len(sr.Missing) > 0 {
		report.errorf("server %d: missing %v", n, sr.Missing)
	}

	if len(server.Packages) > 0 {
		pkg := server.Packages[0]
		sr.Package = fmt.Sprintf("%s (%s)", pkg.Identifier, pkg.Version)
		if pkg.Transport.Type == "" {
			report.errorf("server %d: missing transport configuration", n)
		} else {
			sr.Transport = pkg.Transport.Type
		}
	}

	if len(server.Remotes) == 0 {
		report.warnf("server %d: no remotes defined", n)
	}
	for _, remote := range server.Remotes {
		sr.Remotes = append(sr.Remotes, fmt.Sprintf("%s: %s", remote.Type, remote.URL))
	}

	return sr
}
