package pipfile

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/matzehuels/pipspec/pkg/errors"
	"github.com/matzehuels/pipspec/pkg/pep440"
)

// Severity classifies an [Issue].
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue codes reported by [Validate].
const (
	CodeInvalidSource        = "INVALID_SOURCE"
	CodeDuplicateSource      = "DUPLICATE_SOURCE"
	CodeInvalidURL           = "INVALID_URL"
	CodeInvalidVerifySSL     = "INVALID_VERIFY_SSL"
	CodeInsecureSource       = "INSECURE_SOURCE"
	CodeNoSource             = "NO_SOURCE"
	CodeInvalidName          = "INVALID_NAME"
	CodeDuplicatePackage     = "DUPLICATE_PACKAGE"
	CodeInvalidConstraint    = "INVALID_CONSTRAINT"
	CodeInvalidEntry         = "INVALID_ENTRY"
	CodeUnknownIndex         = "UNKNOWN_INDEX"
	CodeDuplicateAcrossGroup = "DUPLICATE_ACROSS_GROUPS"
	CodeUnknownKey           = "UNKNOWN_KEY"
	CodeInvalidPython        = "INVALID_PYTHON_VERSION"
)

// Issue is a single validation finding. Path is a dotted location such as
// "packages.numpy" or "source[0].url".
type Issue struct {
	Severity Severity `json:"severity" yaml:"severity"`
	Code     string   `json:"code" yaml:"code"`
	Path     string   `json:"path" yaml:"path"`
	Message  string   `json:"message" yaml:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.Path, i.Message)
}

// Report collects the issues found in a manifest.
type Report struct {
	Issues []Issue `json:"issues" yaml:"issues"`
}

// Errors returns the error-level issues.
func (r *Report) Errors() []Issue { return r.filter(SeverityError) }

// Warnings returns the warning-level issues.
func (r *Report) Warnings() []Issue { return r.filter(SeverityWarning) }

// HasErrors reports whether any error-level issue was found.
func (r *Report) HasErrors() bool { return len(r.Errors()) > 0 }

// Valid reports whether the manifest passed validation.
func (r *Report) Valid() bool { return !r.HasErrors() }

func (r *Report) filter(sev Severity) []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if i.Severity == sev {
			out = append(out, i)
		}
	}
	return out
}

// Err summarises the error-level issues as an INVALID_MANIFEST error, or
// returns nil when there are none.
func (r *Report) Err() error {
	errs := r.Errors()
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errors.New(errors.ErrCodeInvalidManifest, "%s", errs[0].Message).At(errs[0].Path)
	}
	return errors.New(errors.ErrCodeInvalidManifest, "%d problems, first: %s: %s", len(errs), errs[0].Path, errs[0].Message)
}

// Options tunes [Validate].
type Options struct {
	// Strict promotes every warning to an error.
	Strict bool
}

type validator struct {
	m      *Manifest
	report *Report
}

func (v *validator) add(sev Severity, code, path, format string, args ...any) {
	v.report.Issues = append(v.report.Issues, Issue{
		Severity: sev,
		Code:     code,
		Path:     path,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (v *validator) errorf(code, path, format string, args ...any) {
	v.add(SeverityError, code, path, format, args...)
}

func (v *validator) warnf(code, path, format string, args ...any) {
	v.add(SeverityWarning, code, path, format, args...)
}

// Validate checks the manifest for structural problems. It never fails; the
// findings are returned in the report in manifest order.
func Validate(m *Manifest, opts Options) *Report {
	v := &validator{m: m, report: &Report{}}
	v.report.Issues = append(v.report.Issues, m.problems...)

	v.sources()
	for _, group := range Groups {
		v.group(group)
	}
	v.crossGroup()
	v.requires()
	for _, x := range m.Extra {
		v.warnf(CodeUnknownKey, x.Key, "unknown top-level key %q", x.Key)
	}

	if opts.Strict {
		for i := range v.report.Issues {
			v.report.Issues[i].Severity = SeverityError
		}
	}
	return v.report
}

// envVarRE matches the ${VAR} and $VAR references pipenv expands in source URLs.
var envVarRE = regexp.MustCompile(`\$\{[A-Za-z_][A-Za-z0-9_]*\}|\$[A-Za-z_][A-Za-z0-9_]*`)

func (v *validator) sources() {
	if len(v.m.Sources) == 0 {
		v.warnf(CodeNoSource, "source", "no [[source]] declared; %s is assumed", DefaultIndexURL)
		return
	}
	seen := make(map[string]int)
	for i, s := range v.m.Sources {
		path := fmt.Sprintf("source[%d]", i)
		switch {
		case strings.TrimSpace(s.Name) == "":
			v.errorf(CodeInvalidSource, path+".name", "source name cannot be empty")
		default:
			if j, dup := seen[s.Name]; dup {
				v.errorf(CodeDuplicateSource, path+".name", "source %q already declared at source[%d]", s.Name, j)
			} else {
				seen[s.Name] = i
			}
		}
		if err := errors.ValidateURL(envVarRE.ReplaceAllString(s.URL, "x")); err != nil {
			v.errorf(CodeInvalidURL, path+".url", "%s", errors.UserMessage(err))
		} else if strings.HasPrefix(strings.ToLower(s.URL), "http://") && s.VerifySSL {
			v.warnf(CodeInsecureSource, path+".url", "plain http source; verify_ssl has no effect")
		}
		if !s.VerifySSL {
			v.warnf(CodeInsecureSource, path+".verify_ssl", "TLS certificate verification is disabled for %q", s.Name)
		}
		v.unknownKeys(path, "source", s.Other)
	}
}

func (v *validator) group(group string) {
	seen := make(map[string]string)
	for _, r := range v.m.Group(group) {
		path := group + "." + r.Name
		if err := errors.ValidatePythonPackageName(r.Name); err != nil {
			v.errorf(CodeInvalidName, path, "%s", errors.UserMessage(err))
		} else {
			norm := r.NormalizedName()
			if prev, dup := seen[norm]; dup {
				v.errorf(CodeDuplicatePackage, path, "%q duplicates %q (both normalise to %q)", r.Name, prev, norm)
			} else {
				seen[norm] = r.Name
			}
		}
		v.requirement(path, r)
	}
}

func (v *validator) requirement(path string, r Requirement) {
	if _, err := r.Constraint(); err != nil {
		v.errorf(CodeInvalidConstraint, path, "%s", errors.UserMessage(err))
	}
	for _, extra := range r.Extras {
		if err := errors.ValidatePythonPackageName(extra); err != nil {
			v.errorf(CodeInvalidEntry, path+".extras", "invalid extra %q", extra)
		}
	}
	if r.Index != "" {
		if _, ok := v.m.Source(r.Index); !ok {
			v.errorf(CodeUnknownIndex, path+".index", "index %q is not a declared source", r.Index)
		}
	}
	if r.Ref != "" && r.Git == "" {
		v.errorf(CodeInvalidEntry, path+".ref", "ref requires git")
	}
	if r.IsVCS() && r.IsLocal() {
		v.errorf(CodeInvalidEntry, path, "git and path/file are mutually exclusive")
	}
	if r.Version != "" && r.Version != pep440.Any && !r.FromIndex() {
		v.warnf(CodeInvalidEntry, path+".version", "version is ignored for %s requirements", kindOf(r))
	}
	v.unknownKeys(path, "requirement", r.Other)
}

func (v *validator) unknownKeys(path, what string, other map[string]any) {
	for _, k := range sortedKeys(other) {
		v.warnf(CodeUnknownKey, path+"."+k, "unknown %s key %q", what, k)
	}
}

func kindOf(r Requirement) string {
	if r.IsVCS() {
		return "git"
	}
	return "local"
}

func (v *validator) crossGroup() {
	dev := make(map[string]bool, len(v.m.DevPackages))
	for _, r := range v.m.DevPackages {
		dev[r.NormalizedName()] = true
	}
	for _, r := range v.m.Packages {
		if r.Name != "" && dev[r.NormalizedName()] {
			v.warnf(CodeDuplicateAcrossGroup, GroupDevPackages+"."+r.Name,
				"%q is listed in both %s and %s", r.Name, GroupPackages, GroupDevPackages)
		}
	}
}

var pythonVersionRE = regexp.MustCompile(`^\d+\.\d+$`)

func (v *validator) requires() {
	req := v.m.Requires
	if req.PythonVersion != "" && !pythonVersionRE.MatchString(req.PythonVersion) {
		v.errorf(CodeInvalidPython, "requires.python_version", "python_version must look like 3.12, got %q", req.PythonVersion)
	}
	if req.PythonFullVersion != "" {
		if _, err := pep440.ParseVersion(req.PythonFullVersion); err != nil {
			v.errorf(CodeInvalidPython, "requires.python_full_version", "%s", errors.UserMessage(err))
		}
	}
	v.unknownKeys("requires", "requires", req.Other)
}
