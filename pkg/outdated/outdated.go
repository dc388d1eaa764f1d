package outdated

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/pipspec/pkg/integrations"
	"github.com/matzehuels/pipspec/pkg/integrations/simple"
	"github.com/matzehuels/pipspec/pkg/observability"
	"github.com/matzehuels/pipspec/pkg/pep440"
	"github.com/matzehuels/pipspec/pkg/pipfile"
)

// DefaultConcurrency bounds the number of projects fetched at once.
const DefaultConcurrency = 8

// Status is the verdict for one requirement.
type Status string

const (
	StatusUpToDate      Status = "up-to-date"    // the newest release satisfies the constraint
	StatusOutdated      Status = "outdated"      // a newer release exists outside the constraint
	StatusUnsatisfiable Status = "unsatisfiable" // no release satisfies the constraint
	StatusError         Status = "error"         // the index could not be queried
	StatusSkipped       Status = "skipped"       // VCS or local requirement, or invalid constraint
)

// Fetcher lists the releases of a project on one index.
type Fetcher interface {
	FetchProject(ctx context.Context, name string, refresh bool) (*simple.Project, error)
}

// FetcherFunc returns the Fetcher for a source. It is called once per
// distinct source URL.
type FetcherFunc func(src pipfile.Source) Fetcher

// Result describes one requirement.
type Result struct {
	Group         string `json:"group" yaml:"group"`
	Name          string `json:"name" yaml:"name"`
	Constraint    string `json:"constraint" yaml:"constraint"`
	Index         string `json:"index" yaml:"index"`
	Latest        string `json:"latest,omitempty" yaml:"latest,omitempty"`
	LatestAllowed string `json:"latest_allowed,omitempty" yaml:"latest_allowed,omitempty"`
	Status        Status `json:"status" yaml:"status"`
	Error         string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Options tunes [Check].
type Options struct {
	Concurrency int         // parallel fetches; DefaultConcurrency if <= 0
	Refresh     bool        // bypass the response cache
	Prereleases bool        // consider pre-releases even if the manifest does not allow them
	Groups      []string    // groups to check; both if empty
	Logger      *log.Logger // progress and failures; discarded if nil
}

// WithDefaults returns a copy with zero fields filled in.
func (o Options) WithDefaults() Options {
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if len(o.Groups) == 0 {
		o.Groups = pipfile.Groups
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return o
}

// Check compares every requirement of m against the releases on its index.
//
// Results come back in manifest order, one per requirement. A failure to
// query one project is recorded in its Result and never aborts the others;
// the returned error is non-nil only when ctx is cancelled.
func Check(ctx context.Context, m *pipfile.Manifest, fetchers FetcherFunc, opts Options) ([]Result, error) {
	opts = opts.WithDefaults()
	pre := opts.Prereleases || m.AllowPrereleases()

	type job struct {
		index int
		req   pipfile.Requirement
		src   pipfile.Source
		set   pep440.SpecifierSet
	}
	var results []Result
	var jobs []job
	for _, group := range opts.Groups {
		for _, r := range m.Group(group) {
			src := m.IndexFor(r)
			res := Result{Group: group, Name: r.Name, Constraint: displayConstraint(r.Version), Index: src.Name}
			set, err := r.Constraint()
			switch {
			case !r.FromIndex():
				res.Status = StatusSkipped
				res.Index = ""
			case err != nil:
				res.Status = StatusSkipped
				res.Error = err.Error()
			default:
				jobs = append(jobs, job{index: len(results), req: r, src: src, set: set})
			}
			results = append(results, res)
		}
	}

	hooks := observability.Check()
	start := time.Now()
	hooks.OnCheckStart(ctx, len(jobs))

	pool := newFetcherPool(fetchers)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for _, j := range jobs {
		j := j
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := &results[j.index]
			fetchStart := time.Now()
			project, err := pool.get(j.src).FetchProject(gctx, j.req.Name, opts.Refresh)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				opts.Logger.Warn("fetch failed", "package", j.req.Name, "index", j.src.Name, "err", err)
				res.Status = StatusError
				res.Error = describe(err)
				hooks.OnProjectChecked(gctx, j.src.Name, j.req.Name, string(res.Status), time.Since(fetchStart), err)
				return nil
			}
			opts.Logger.Debug("fetched", "package", j.req.Name, "releases", len(project.Versions))
			evaluate(res, project.ParsedVersions(), j.set, pre)
			hooks.OnProjectChecked(gctx, j.src.Name, j.req.Name, string(res.Status), time.Since(fetchStart), nil)
			return nil
		})
	}
	err := g.Wait()
	hooks.OnCheckComplete(ctx, len(jobs), time.Since(start), err)
	if err != nil {
		return results, err
	}
	return results, nil
}

// fetcherPool shares one Fetcher per distinct source.
type fetcherPool struct {
	mu    sync.Mutex
	newFn FetcherFunc
	byKey map[string]Fetcher
}

func newFetcherPool(fn FetcherFunc) *fetcherPool {
	return &fetcherPool{newFn: fn, byKey: make(map[string]Fetcher)}
}

func (p *fetcherPool) get(src pipfile.Source) Fetcher {
	key := src.URL
	if !src.VerifySSL {
		key += "#insecure"
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	f, ok := p.byKey[key]
	if !ok {
		f = p.newFn(src)
		p.byKey[key] = f
	}
	return f
}

// evaluate fills in the verdict for versions sorted ascending.
func evaluate(res *Result, versions []pep440.Version, set pep440.SpecifierSet, pre bool) {
	pre = pre || set.AllowsPrereleases()
	candidates := versions
	if !pre {
		finals := make([]pep440.Version, 0, len(versions))
		for _, v := range versions {
			if !v.IsPrerelease() {
				finals = append(finals, v)
			}
		}
		// An index with only pre-releases still has a latest version.
		if len(finals) > 0 {
			candidates = finals
		}
	}
	latest, ok := pep440.Max(candidates)
	if !ok {
		res.Status = StatusUnsatisfiable
		res.Error = "no releases"
		return
	}
	res.Latest = latest.String()

	best, ok := set.Best(versions, pre)
	if !ok {
		res.Status = StatusUnsatisfiable
		return
	}
	res.LatestAllowed = best.String()
	if set.Contains(latest, true) || best.Compare(latest) >= 0 {
		res.Status = StatusUpToDate
	} else {
		res.Status = StatusOutdated
	}
}

func displayConstraint(v string) string {
	if v == "" {
		return pep440.Any
	}
	return v
}

func describe(err error) string {
	switch {
	case errors.Is(err, integrations.ErrNotFound):
		return "not found on index"
	case errors.Is(err, integrations.ErrNetwork):
		return "index unreachable: " + err.Error()
	}
	return err.Error()
}

// Summary counts results per status.
func Summary(results []Result) map[Status]int {
	counts := make(map[Status]int)
	for _, r := range results {
		counts[r.Status]++
	}
	return counts
}
