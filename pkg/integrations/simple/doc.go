// Package simple is a client for Python package indexes speaking the
// simple repository API (PEP 503, with the PEP 691 JSON form preferred).
//
// It works against PyPI and against the private mirrors a Pipfile declares
// in [[source]]. Releases are derived from the PEP 700 versions list when
// the index provides one, and from distribution filenames otherwise. A
// version counts as yanked (PEP 592) when every one of its files is.
//
//	c := simple.NewClient(backend, "https://pypi.org/simple", true, time.Hour)
//	project, err := c.FetchProject(ctx, "NumPy", false)
//	fmt.Println(project.Name, project.Versions[len(project.Versions)-1])
package simple
