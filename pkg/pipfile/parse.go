package pipfile

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/pipspec/pkg/errors"
)

// rawManifest mirrors the Pipfile schema loosely so that values of the
// wrong type surface as validation issues instead of decode failures.
type rawManifest struct {
	Source      []map[string]any `toml:"source"`
	Packages    map[string]any   `toml:"packages"`
	DevPackages map[string]any   `toml:"dev-packages"`
	Requires    map[string]any   `toml:"requires"`
	Scripts     map[string]any   `toml:"scripts"`
	Pipenv      map[string]any   `toml:"pipenv"`
}

// ParseFile reads and parses the Pipfile at path.
func ParseFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "manifest %s not found", path)
		}
		return nil, err
	}
	m, err := ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse reads a Pipfile from r.
func Parse(r io.Reader) (*Manifest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseBytes(data)
}

// ParseBytes parses Pipfile content. Only TOML syntax errors and sections of
// an impossible shape (e.g. [source] as a plain table) fail the parse; type
// problems inside entries are recorded and reported by [Validate].
func ParseBytes(data []byte) (*Manifest, error) {
	var raw rawManifest
	md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&raw)
	if err != nil {
		return nil, syntaxError(err)
	}

	// A second, untyped pass keeps the sections the schema does not cover.
	var all map[string]any
	if err := toml.Unmarshal(data, &all); err != nil {
		return nil, syntaxError(err)
	}

	d := &decoder{md: md}
	m := &Manifest{
		Sources:     d.sources(raw.Source),
		Packages:    d.group(GroupPackages, raw.Packages),
		DevPackages: d.group(GroupDevPackages, raw.DevPackages),
		Requires:    d.requires(raw.Requires),
		Scripts:     d.scripts(raw.Scripts),
		Pipenv:      d.settings("pipenv", raw.Pipenv),
		Extra:       d.extra(all),
	}
	m.problems = d.problems
	return m, nil
}

func syntaxError(err error) error {
	var perr toml.ParseError
	if stderrors.As(err, &perr) {
		return errors.Wrap(errors.ErrCodeInvalidManifest, err, "invalid TOML at line %d", perr.Position.Line)
	}
	return errors.Wrap(errors.ErrCodeInvalidManifest, err, "invalid Pipfile structure")
}

// decoder converts loosely typed TOML values into the manifest model,
// collecting type problems on the way.
type decoder struct {
	md       toml.MetaData
	problems []Issue
}

func (d *decoder) problem(code, path, format string, args ...any) {
	d.problems = append(d.problems, Issue{
		Severity: SeverityError,
		Code:     code,
		Path:     path,
		Message:  fmt.Sprintf(format, args...),
	})
}

// orderedKeys returns the keys of the table at section in definition order.
func (d *decoder) orderedKeys(section string, table map[string]any) []string {
	keys := make([]string, 0, len(table))
	seen := make(map[string]bool, len(table))
	for _, k := range d.md.Keys() {
		if len(k) == 2 && k[0] == section && !seen[k[1]] {
			if _, ok := table[k[1]]; ok {
				seen[k[1]] = true
				keys = append(keys, k[1])
			}
		}
	}
	// Keys() covers every defined key; this only guards against surprises.
	var rest []string
	for k := range table {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	slices.Sort(rest)
	return append(keys, rest...)
}

func (d *decoder) sources(raw []map[string]any) []Source {
	sources := make([]Source, 0, len(raw))
	for i, t := range raw {
		path := fmt.Sprintf("source[%d]", i)
		src := Source{VerifySSL: true}
		src.Name = d.str(path+".name", t["name"])
		src.URL = d.str(path+".url", t["url"])
		if v, ok := t["verify_ssl"]; ok {
			b, isBool := v.(bool)
			if !isBool {
				d.problem(CodeInvalidVerifySSL, path+".verify_ssl", "verify_ssl must be a boolean, got %s", typeName(v))
				b = true
			}
			src.VerifySSL = b
		}
		for k, v := range t {
			if k != "name" && k != "url" && k != "verify_ssl" {
				if src.Other == nil {
					src.Other = make(map[string]any)
				}
				src.Other[k] = v
			}
		}
		sources = append(sources, src)
	}
	return sources
}

func (d *decoder) group(name string, table map[string]any) []Requirement {
	reqs := make([]Requirement, 0, len(table))
	for _, key := range d.orderedKeys(name, table) {
		reqs = append(reqs, d.requirement(name+"."+key, key, table[key]))
	}
	return reqs
}

func (d *decoder) requirement(path, name string, v any) Requirement {
	r := Requirement{Name: name}
	switch val := v.(type) {
	case string:
		r.Version = val
	case map[string]any:
		for k, fv := range val {
			fp := path + "." + k
			switch k {
			case "version":
				r.Version = d.str(fp, fv)
			case "extras":
				r.Extras = d.strList(fp, fv)
			case "markers":
				r.Markers = d.str(fp, fv)
			case "index":
				r.Index = d.str(fp, fv)
			case "git":
				r.Git = d.str(fp, fv)
			case "ref":
				r.Ref = d.str(fp, fv)
			case "path":
				r.Path = d.str(fp, fv)
			case "file":
				r.File = d.str(fp, fv)
			case "editable":
				b, ok := fv.(bool)
				if !ok {
					d.problem(CodeInvalidEntry, fp, "editable must be a boolean, got %s", typeName(fv))
				}
				r.Editable = b
			default:
				if r.Other == nil {
					r.Other = make(map[string]any)
				}
				r.Other[k] = fv
			}
		}
	default:
		d.problem(CodeInvalidEntry, path, "requirement must be a string or table, got %s", typeName(v))
	}
	return r
}

func (d *decoder) requires(table map[string]any) Requires {
	var r Requires
	for k, v := range table {
		switch k {
		case "python_version":
			r.PythonVersion = d.str("requires."+k, v)
		case "python_full_version":
			r.PythonFullVersion = d.str("requires."+k, v)
		default:
			if r.Other == nil {
				r.Other = make(map[string]any)
			}
			r.Other[k] = v
		}
	}
	return r
}

func (d *decoder) scripts(table map[string]any) []Script {
	var scripts []Script
	for _, k := range d.orderedKeys("scripts", table) {
		switch v := table[k].(type) {
		case string:
			scripts = append(scripts, Script{Name: k, Command: v})
		case []any:
			parts := d.strList("scripts."+k, v)
			scripts = append(scripts, Script{Name: k, Command: strings.Join(parts, " ")})
		default:
			d.problem(CodeInvalidEntry, "scripts."+k, "script must be a string, got %s", typeName(v))
		}
	}
	return scripts
}

func (d *decoder) settings(section string, table map[string]any) []Setting {
	var out []Setting
	for _, k := range d.orderedKeys(section, table) {
		out = append(out, Setting{Key: k, Value: table[k]})
	}
	return out
}

func (d *decoder) str(path string, v any) string {
	if v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		d.problem(CodeInvalidEntry, path, "expected a string, got %s", typeName(v))
	}
	return s
}

func (d *decoder) strList(path string, v any) []string {
	items, ok := v.([]any)
	if !ok {
		d.problem(CodeInvalidEntry, path, "expected a list of strings, got %s", typeName(v))
		return nil
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			d.problem(CodeInvalidEntry, fmt.Sprintf("%s[%d]", path, i), "expected a string, got %s", typeName(item))
			continue
		}
		out = append(out, s)
	}
	return out
}

var knownSections = []string{"source", GroupPackages, GroupDevPackages, "requires", "scripts", "pipenv"}

// extra collects the top-level keys outside the Pipfile schema in file
// order. Plain tables become ordered []Setting values; everything else is
// kept as decoded.
func (d *decoder) extra(all map[string]any) []Setting {
	var out []Setting
	seen := make(map[string]bool)
	for _, k := range d.md.Keys() {
		name := k[0]
		if slices.Contains(knownSections, name) || seen[name] {
			continue
		}
		v, ok := all[name]
		if !ok {
			continue
		}
		seen[name] = true
		if table, isTable := v.(map[string]any); isTable {
			v = d.settings(name, table)
		}
		out = append(out, Setting{Key: name, Value: v})
	}
	return out
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "nothing"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int64, int:
		return "integer"
	case float64:
		return "float"
	case []any, []map[string]any:
		return "array"
	case map[string]any:
		return "table"
	default:
		return fmt.Sprintf("%T", v)
	}
}
