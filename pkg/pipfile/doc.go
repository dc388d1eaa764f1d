// Package pipfile reads, validates, compares and writes Pipfile manifests.
//
// A Pipfile is a TOML document naming the package indexes a project
// installs from ([[source]]) and its dependencies, split into a runtime
// group ([packages]) and a development group ([dev-packages]):
//
//	[[source]]
//	name = "pypi"
//	url = "https://pypi.org/simple"
//	verify_ssl = true
//
//	[packages]
//	numpy = "~=1.16"
//	requests = {version = "*", extras = ["socks"]}
//
//	[dev-packages]
//	pytest = "*"
//
// # Parsing
//
// [Parse] only fails on TOML syntax errors. Values of the wrong type are
// recorded and come back from [Validate], so one run reports every problem
// in a file instead of the first.
//
// # Validation
//
// [Validate] returns a [Report] of error and warning [Issue] values. Names
// are compared in their PEP 503 form ([NormalizeName]) and constraints are
// parsed with package pep440.
//
// # Writing
//
// [Write] emits a canonical form: fixed section order, one requirement per
// line, table requirements as inline tables. Parsing the output of [Write]
// yields a manifest [Equivalent] to the input.
package pipfile
