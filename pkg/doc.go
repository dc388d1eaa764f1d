// Package pkg provides the libraries behind pipspec, a toolkit for Pipfile
// manifests.
//
// # Overview
//
// A Pipfile declares package indexes ([[source]]), runtime and development
// dependencies ([packages], [dev-packages]) with PEP 440 version constraints,
// the required Python version and project scripts. The pkg directory is
// organised around that document:
//
//  1. [pipfile] - Manifest model, parser, validator, canonical writer, diff
//  2. [pep440] - Versions and specifier sets
//  3. [integrations] - HTTP clients for package indexes
//  4. [outdated] - Concurrent comparison of constraints with index releases
//  5. [cache] - Response caching backends
//
// # Architecture
//
//	Pipfile (TOML)
//	     ↓
//	[pipfile.Parse] → Manifest → [pipfile.Validate] → Report
//	     ↓                ↓
//	[pipfile.Write]   [outdated.Check] ← [integrations/simple] ← [cache]
//
// # Quick Start
//
//	m, err := pipfile.ParseFile("Pipfile")
//	if err != nil {
//	    return err
//	}
//	if err := pipfile.Validate(m, pipfile.Options{}).Err(); err != nil {
//	    return err
//	}
//	_ = pipfile.Write(os.Stdout, m)
//
// # Main Packages
//
// [pep440] - Version parsing and ordering (epochs, pre/post/dev releases,
// local labels) and specifier sets including compatible release (~=),
// wildcard equality (==1.2.*) and arbitrary equality (===).
//
// [pipfile] - The manifest model. Entries keep source order, names compare
// after PEP 503 normalisation, and type problems in the TOML are reported as
// validation issues rather than parse failures.
//
// [integrations/simple] - PEP 691 JSON simple API client with HTML fallback,
// honouring per-source verify_ssl and PEP 592 yanked files.
//
// [outdated] - Bounded-concurrency check of every index requirement against
// the releases on its source.
//
// [cache] - File, Redis and null backends with namespaced keys, plus retry
// with exponential backoff for transient HTTP failures.
//
// [errors] - Coded errors and input validators shared by all packages.
//
// [observability] - Hooks for cache, HTTP and check events.
//
// # Testing
//
//	go test ./...                                              # All tests
//	PIPSPEC_TEST_REDIS_URL=redis://localhost:6379/15 go test ./pkg/cache  # Include Redis
package pkg
