package simple

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"mime"
	"regexp"
	"strings"
	"time"

	"github.com/matzehuels/pipspec/pkg/cache"
	perrors "github.com/matzehuels/pipspec/pkg/errors"
	"github.com/matzehuels/pipspec/pkg/integrations"
	"github.com/matzehuels/pipspec/pkg/pep440"
	"github.com/matzehuels/pipspec/pkg/pipfile"
)

// Content types of the simple repository API.
const (
	ContentTypeJSON = "application/vnd.pypi.simple.v1+json"
	ContentTypeHTML = "application/vnd.pypi.simple.v1+html"

	accept = ContentTypeJSON + ", " + ContentTypeHTML + ";q=0.2, text/html;q=0.01"
)

// Project is the release listing of one project on an index.
type Project struct {
	Name     string   `json:"name"`     // normalised project name
	Versions []string `json:"versions"` // every parseable version, ascending
	Yanked   []string `json:"yanked"`   // versions whose files are all yanked
}

// ParsedVersions returns the versions that are not yanked, parsed and sorted.
func (p *Project) ParsedVersions() []pep440.Version {
	yanked := make(map[string]bool, len(p.Yanked))
	for _, y := range p.Yanked {
		yanked[y] = true
	}
	out := make([]pep440.Version, 0, len(p.Versions))
	for _, s := range p.Versions {
		if yanked[s] {
			continue
		}
		if v, err := pep440.ParseVersion(s); err == nil {
			out = append(out, v)
		}
	}
	pep440.Sort(out)
	return out
}

// Client reads one PEP 503/691 simple repository.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a client for the index at indexURL. Environment
// references in the URL are expanded. verifySSL = false disables
// certificate checks, mirroring the Pipfile source flag.
func NewClient(backend cache.Cache, indexURL string, verifySSL bool, ttl time.Duration, opts ...integrations.Option) *Client {
	all := []integrations.Option{integrations.WithKeyer(cache.IndexKeyer(indexURL))}
	if !verifySSL {
		all = append(all, integrations.WithInsecureTLS())
	}
	all = append(all, opts...)
	return &Client{
		Client:  integrations.NewClient(backend, "simple:", ttl, nil, all...),
		baseURL: strings.TrimRight(integrations.ExpandURL(indexURL), "/"),
	}
}

// FetchProject lists the releases of a project.
//
// If refresh is true, the cache is bypassed.
//
// Returns:
//   - [integrations.ErrNotFound] if the index does not know the project
//   - [integrations.ErrNetwork] for HTTP failures
//   - an INVALID_FORMAT error for responses that are neither JSON nor HTML
func (c *Client) FetchProject(ctx context.Context, name string, refresh bool) (*Project, error) {
	norm := pipfile.NormalizeName(name)
	if norm == "" {
		return nil, perrors.New(perrors.ErrCodeInvalidPackage, "project name cannot be empty")
	}

	var project Project
	err := c.Cached(ctx, norm, refresh, &project, func() error {
		return c.fetch(ctx, norm, &project)
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// URL returns the project page URL with credentials redacted.
func (c *Client) URL(name string) string {
	return integrations.RedactURL(c.projectURL(pipfile.NormalizeName(name)))
}

func (c *Client) projectURL(norm string) string {
	return c.baseURL + "/" + integrations.URLEncode(norm) + "/"
}

func (c *Client) fetch(ctx context.Context, norm string, project *Project) error {
	body, header, err := c.GetBytes(ctx, c.projectURL(norm), map[string]string{"Accept": accept})
	if err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: project %s on %s", err, norm, integrations.RedactURL(c.baseURL))
		}
		return err
	}

	var files []file
	var listed []string
	mediaType, _, _ := mime.ParseMediaType(header.Get("Content-Type"))
	switch {
	case strings.HasSuffix(mediaType, "json"):
		var page jsonPage
		if err := json.Unmarshal(body, &page); err != nil {
			return perrors.Wrap(perrors.ErrCodeInvalidFormat, err, "decode simple page for %s", norm)
		}
		files, listed = page.Files, page.Versions
	case strings.HasSuffix(mediaType, "html") || mediaType == "":
		files = parseHTML(string(body))
	default:
		return perrors.New(perrors.ErrCodeInvalidFormat, "unexpected content type %q for %s", mediaType, norm)
	}

	*project = buildProject(norm, files, listed)
	return nil
}

type jsonPage struct {
	Name     string   `json:"name"`
	Files    []file   `json:"files"`
	Versions []string `json:"versions"` // PEP 700, absent on older indexes
}

type file struct {
	Filename string  `json:"filename"`
	Yanked   yankVal `json:"yanked"`
}

// yankVal decodes the PEP 592 yanked field, which is false or a reason
// string (possibly empty).
type yankVal bool

func (y *yankVal) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*y = yankVal(b)
		return nil
	}
	var reason string
	if err := json.Unmarshal(data, &reason); err != nil {
		return err
	}
	*y = true
	return nil
}

func buildProject(norm string, files []file, listed []string) Project {
	seen := make(map[string]bool)
	var versions []pep440.Version
	add := func(v pep440.Version) string {
		canon := v.String()
		if !seen[canon] {
			seen[canon] = true
			versions = append(versions, v)
		}
		return canon
	}

	// A version is live if it has an unyanked file, or no files at all.
	hasFiles := make(map[string]bool)
	live := make(map[string]bool)
	for _, f := range files {
		raw, ok := versionFromFilename(norm, f.Filename)
		if !ok {
			continue
		}
		v, err := pep440.ParseVersion(raw)
		if err != nil {
			continue
		}
		canon := add(v)
		hasFiles[canon] = true
		if !bool(f.Yanked) {
			live[canon] = true
		}
	}
	for _, s := range listed {
		v, err := pep440.ParseVersion(s)
		if err != nil {
			continue
		}
		if canon := add(v); !hasFiles[canon] {
			live[canon] = true
		}
	}

	pep440.Sort(versions)
	project := Project{Name: norm, Versions: make([]string, 0, len(versions))}
	for _, v := range versions {
		s := v.String()
		project.Versions = append(project.Versions, s)
		if !live[s] {
			project.Yanked = append(project.Yanked, s)
		}
	}
	return project
}

var sdistSuffixes = []string{".tar.gz", ".tar.bz2", ".tar.xz", ".tgz", ".zip", ".tar"}

// versionFromFilename extracts the version from a wheel or sdist filename
// of the given project. Other distribution kinds are ignored.
func versionFromFilename(norm, filename string) (string, bool) {
	if stem, ok := strings.CutSuffix(filename, ".whl"); ok {
		parts := strings.Split(stem, "-")
		if len(parts) < 5 || pipfile.NormalizeName(parts[0]) != norm {
			return "", false
		}
		return parts[1], true
	}
	for _, suffix := range sdistSuffixes {
		stem, ok := cutSuffixFold(filename, suffix)
		if !ok {
			continue
		}
		// The project name may itself contain dashes: find the split
		// point whose prefix normalises to the project name.
		for i := strings.IndexByte(stem, '-'); i >= 0; {
			if pipfile.NormalizeName(stem[:i]) == norm {
				return stem[i+1:], true
			}
			next := strings.IndexByte(stem[i+1:], '-')
			if next < 0 {
				break
			}
			i += next + 1
		}
		return "", false
	}
	return "", false
}

func cutSuffixFold(s, suffix string) (string, bool) {
	if len(s) >= len(suffix) && strings.EqualFold(s[len(s)-len(suffix):], suffix) {
		return s[:len(s)-len(suffix)], true
	}
	return s, false
}

var anchorRE = regexp.MustCompile(`(?is)<a\s([^>]*)>(.*?)</a>`)

// parseHTML extracts files from a PEP 503 HTML project page.
func parseHTML(page string) []file {
	var files []file
	for _, m := range anchorRE.FindAllStringSubmatch(page, -1) {
		name := strings.TrimSpace(html.UnescapeString(m[2]))
		if name == "" {
			continue
		}
		files = append(files, file{
			Filename: name,
			Yanked:   yankVal(strings.Contains(strings.ToLower(m[1]), "data-yanked")),
		})
	}
	return files
}
