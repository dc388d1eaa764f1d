package pipfile

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/pipspec/pkg/errors"
)

// Marshal renders the manifest as canonical Pipfile text.
func Marshal(m *Manifest) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write renders the manifest as canonical Pipfile text.
//
// Sections are written in a fixed order (source, packages, dev-packages,
// requires, scripts, pipenv) and entries keep their manifest order. Table
// requirements become inline tables so every requirement stays on one line.
// [packages] and [dev-packages] are always present; the other optional
// sections are omitted when empty. Top-level keys outside the schema are
// kept: plain values before the first table, tables after [pipenv].
//
// A manifest whose values failed to decode is refused with an
// INVALID_MANIFEST error, since the placeholders it holds would change
// its meaning.
func Write(w io.Writer, m *Manifest) error {
	if errs := (&Report{Issues: m.problems}).Errors(); len(errs) > 0 {
		return errors.New(errors.ErrCodeInvalidManifest, "%s; fix it before rewriting the manifest", errs[0].Message).
			At(errs[0].Path)
	}

	bw := bufio.NewWriter(w)
	e := &emitter{w: bw}

	var tables []Setting
	for _, x := range m.Extra {
		switch x.Value.(type) {
		case []Setting, []map[string]any:
			tables = append(tables, x)
		default:
			e.kv(key(x.Key), value(x.Value))
		}
	}
	if len(tables) < len(m.Extra) {
		e.blank()
	}

	for _, s := range m.Sources {
		e.line("[[source]]")
		e.kv("name", quote(s.Name))
		e.kv("url", quote(s.URL))
		e.kv("verify_ssl", strconv.FormatBool(s.VerifySSL))
		e.others(s.Other)
		e.blank()
	}

	for _, group := range Groups {
		e.line("[" + group + "]")
		for _, r := range m.Group(group) {
			e.kv(key(r.Name), requirementValue(r))
		}
		e.blank()
	}

	if !m.Requires.IsZero() {
		e.line("[requires]")
		if m.Requires.PythonVersion != "" {
			e.kv("python_version", quote(m.Requires.PythonVersion))
		}
		if m.Requires.PythonFullVersion != "" {
			e.kv("python_full_version", quote(m.Requires.PythonFullVersion))
		}
		e.others(m.Requires.Other)
		e.blank()
	}

	if len(m.Scripts) > 0 {
		e.line("[scripts]")
		for _, s := range m.Scripts {
			e.kv(key(s.Name), quote(s.Command))
		}
		e.blank()
	}

	if len(m.Pipenv) > 0 {
		e.line("[pipenv]")
		for _, s := range m.Pipenv {
			e.kv(key(s.Key), value(s.Value))
		}
		e.blank()
	}

	for _, x := range tables {
		switch v := x.Value.(type) {
		case []Setting:
			e.line("[" + key(x.Key) + "]")
			for _, s := range v {
				e.kv(key(s.Key), value(s.Value))
			}
			e.blank()
		case []map[string]any:
			for _, t := range v {
				e.line("[[" + key(x.Key) + "]]")
				e.others(t)
				e.blank()
			}
		}
	}

	if e.err != nil {
		return e.err
	}
	return bw.Flush()
}

type emitter struct {
	w       *bufio.Writer
	pending bool // a blank separator is owed before the next line
	err     error
}

func (e *emitter) line(s string) {
	if e.err != nil {
		return
	}
	if e.pending {
		if _, e.err = e.w.WriteString("\n"); e.err != nil {
			return
		}
		e.pending = false
	}
	_, e.err = e.w.WriteString(s + "\n")
}

func (e *emitter) kv(k, v string) { e.line(k + " = " + v) }

func (e *emitter) blank() { e.pending = true }

// others writes unmodelled keys in sorted order.
func (e *emitter) others(m map[string]any) {
	for _, k := range sortedKeys(m) {
		e.kv(key(k), value(m[k]))
	}
}

func requirementValue(r Requirement) string {
	if r.IsSimple() {
		v := r.Version
		if v == "" {
			v = "*"
		}
		return quote(v)
	}
	var fields []string
	add := func(k, v string) { fields = append(fields, k+" = "+v) }
	if r.Version != "" {
		add("version", quote(r.Version))
	}
	if len(r.Extras) > 0 {
		add("extras", stringArray(r.Extras))
	}
	if r.Markers != "" {
		add("markers", quote(r.Markers))
	}
	if r.Index != "" {
		add("index", quote(r.Index))
	}
	if r.Git != "" {
		add("git", quote(r.Git))
	}
	if r.Ref != "" {
		add("ref", quote(r.Ref))
	}
	if r.Editable {
		add("editable", "true")
	}
	if r.Path != "" {
		add("path", quote(r.Path))
	}
	if r.File != "" {
		add("file", quote(r.File))
	}
	for _, k := range sortedKeys(r.Other) {
		add(key(k), value(r.Other[k]))
	}
	return "{" + strings.Join(fields, ", ") + "}"
}

func stringArray(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = quote(s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// value renders an arbitrary decoded TOML value.
func value(v any) string {
	switch val := v.(type) {
	case string:
		return quote(val)
	case bool:
		return strconv.FormatBool(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case float64:
		return formatFloat(val)
	case []string:
		return stringArray(val)
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = value(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case []map[string]any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = value(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		parts := make([]string, 0, len(val))
		for _, k := range sortedKeys(val) {
			parts = append(parts, key(k)+" = "+value(val[k]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case []Setting:
		parts := make([]string, len(val))
		for i, s := range val {
			parts[i] = key(s.Key) + " = " + value(s.Value)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	// Dates and times: let the TOML encoder pick the right literal form.
	out, err := toml.Marshal(map[string]any{"v": v})
	if err != nil {
		return quote(fmt.Sprint(v))
	}
	return strings.TrimSpace(strings.TrimPrefix(string(out), "v = "))
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

var bareKeyRE = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// key renders a TOML key, quoting it unless it is a valid bare key.
func key(k string) string {
	if bareKeyRE.MatchString(k) {
		return k
	}
	return quote(k)
}

// quote renders s as a TOML basic string.
func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\t':
			b.WriteString(`\t`)
		case '\n':
			b.WriteString(`\n`)
		case '\f':
			b.WriteString(`\f`)
		case '\r':
			b.WriteString(`\r`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\u%04X`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}
