// Package outdated reports which Pipfile requirements lag behind the newest
// release on their package index.
//
// For each requirement resolved from an index, [Check] fetches the project's
// releases (skipping yanked ones), finds the newest release overall and the
// newest one the constraint admits, and classifies the requirement:
//
//	numpy = "~=1.16"   latest 2.1.0, allowed 1.26.4  -> outdated
//	requests = "*"     latest 2.32.3, allowed 2.32.3 -> up-to-date
//	foo = ">=9"        latest 1.0, nothing allowed  -> unsatisfiable
//
// Fetches run concurrently, bounded by [Options].Concurrency.
package outdated
