package configtest

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// PrintURLTestResult prints URL test results
func PrintURLTestResult(w io.Writer, result *URLTestResult) {
	if result.Error != "" {
		fmt.Fprintf(w, "\nERROR: %s\n", result.Error)
		return
	}

	fmt.Fprintf(w, "\nTesting URL: %s\n", result.URL)
	fmt.Fprintf(w, "Path: %s\n", result.Path)
	if result.RawQuery != "" {
		fmt.Fprintf(w, "Query: %s\n", result.RawQuery)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Page Type: %s\n", result.PageType)
	if result.Route != "" {
		fmt.Fprintf(w, "Route: %s\n", result.Route)
	} else {
		fmt.Fprintln(w, "Route: (none)")
	}
	printMap(w, "Params", result.Params)
	printMap(w, "Filters", result.Filters)
	if result.Page > 1 {
		fmt.Fprintf(w, "Page: %d\n", result.Page)
	}
	fmt.Fprintln(w)

	if result.Endpoint == "" {
		fmt.Fprintln(w, "Endpoint: (none, path-derived tags only)")
	} else {
		fmt.Fprintf(w, "Endpoint: %s\n", result.Endpoint)
		if result.UpstreamURL != "" {
			fmt.Fprintf(w, "Upstream URL: %s\n", result.UpstreamURL)
		}
		if result.Outcome != "" {
			fmt.Fprintf(w, "Fetch: %s (source: %s)\n", result.Outcome, result.Source)
		} else {
			fmt.Fprintln(w, "Fetch: skipped")
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Tags:")
	fmt.Fprintf(w, "  - Title: %s\n", result.Tags.Title)
	fmt.Fprintf(w, "  - Description: %s\n", result.Tags.Description)
	if result.Tags.Keywords != "" {
		fmt.Fprintf(w, "  - Keywords: %s\n", result.Tags.Keywords)
	}
	fmt.Fprintf(w, "  - Canonical: %s\n", result.Tags.Canonical)
	fmt.Fprintf(w, "  - Image: %s\n", result.Tags.OGImage)
	if result.Tags.PrevURL != "" {
		fmt.Fprintf(w, "  - Prev: %s\n", result.Tags.PrevURL)
	}
	if result.Tags.NextURL != "" {
		fmt.Fprintf(w, "  - Next: %s\n", result.Tags.NextURL)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Injected before </head>:")
	for _, tag := range result.Injected {
		fmt.Fprintf(w, "  %s\n", tag)
	}
}

// PrintShellTestResult prints the shell audit
func PrintShellTestResult(w io.Writer, result *ShellTestResult) {
	if result.Error != "" {
		fmt.Fprintf(w, "shell %s: %s\n", result.Path, result.Error)
		return
	}

	if result.Audit.Injectable() {
		fmt.Fprintf(w, "shell %s is ok\n", result.Path)
	}
	for _, warning := range result.Audit.Warnings {
		fmt.Fprintf(w, "shell %s: warning: %s\n", result.Path, warning)
	}
}

func printMap(w io.Writer, label string, m map[string]string) {
	if len(m) == 0 {
		return
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+m[k])
	}
	fmt.Fprintf(w, "%s: %s\n", label, strings.Join(pairs, ", "))
}
