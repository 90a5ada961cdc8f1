// Package export lays a project out as a Next.js source tree and packs it
// into a zip archive.
package export

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/fwojciec/builder"
)

// Tech stack choices that add dependencies.
const (
	MaterialUI   = "Material UI"
	ReduxToolkit = "Redux Toolkit"
	Zod          = "Zod"
)

// Files returns the project tree keyed by slash-separated path.
func Files(p builder.Project, pages []builder.Page, components []builder.Component) (map[string]string, error) {
	pkg, err := packageJSON(p)
	if err != nil {
		return nil, err
	}
	files := map[string]string{
		"package.json":        pkg,
		"README.md":           readme(p),
		"next.config.js":      nextConfig,
		"tsconfig.json":       tsconfig,
		"tailwind.config.ts":  tailwindConfig,
		"postcss.config.js":   postcssConfig,
		".gitignore":          gitignore,
		"src/app/globals.css": globalsCSS,
	}
	for _, pg := range pages {
		files[PagePath(pg.Path)] = pg.Content
	}
	for _, c := range components {
		files[ComponentPath(c.Name)] = c.Code
	}
	return files, nil
}

// PagePath is the file a page route is written to.
func PagePath(route string) string {
	route = strings.Trim(builder.NormalizeRoute(route), "/")
	if route == "" {
		return "src/app/page.tsx"
	}
	return "src/app/" + route + "/page.tsx"
}

// ComponentPath is the file a component is written to.
func ComponentPath(name string) string {
	return "src/components/" + name + ".tsx"
}

// ArchiveName is the download name of a project archive.
func ArchiveName(p builder.Project) string {
	return builder.Slug(p.Name) + ".zip"
}

// Zip writes files to w as a zip archive in path order.
func Zip(w io.Writer, files map[string]string) error {
	zw := zip.NewWriter(w)
	for _, name := range slices.Sorted(maps.Keys(files)) {
		f, err := zw.Create(name)
		if err != nil {
			return fmt.Errorf("export: add %s: %w", name, err)
		}
		if _, err := io.WriteString(f, files[name]); err != nil {
			return fmt.Errorf("export: write %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("export: close archive: %w", err)
	}
	return nil
}

// Project is Files followed by Zip.
func Project(w io.Writer, p builder.Project, pages []builder.Page, components []builder.Component) error {
	files, err := Files(p, pages, components)
	if err != nil {
		return err
	}
	return Zip(w, files)
}

type packageFile struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Private         bool              `json:"private"`
	Scripts         map[string]string `json:"scripts"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// Dependencies returns the runtime dependencies for a tech stack.
func Dependencies(ts builder.TechStack) map[string]string {
	deps := map[string]string{
		"next":      "14.0.0",
		"react":     "18.2.0",
		"react-dom": "18.2.0",
	}
	if ts.UI == MaterialUI {
		deps["@mui/material"] = "^5.0.0"
		deps["@emotion/react"] = "^11.0.0"
		deps["@emotion/styled"] = "^11.0.0"
	}
	if ts.State == ReduxToolkit {
		deps["@reduxjs/toolkit"] = "^2.0.0"
		deps["react-redux"] = "^9.0.0"
	}
	if ts.Validation == Zod {
		deps["zod"] = "^3.0.0"
	}
	return deps
}

func packageJSON(p builder.Project) (string, error) {
	pkg := packageFile{
		Name:    builder.Slug(p.Name),
		Version: "0.1.0",
		Private: true,
		Scripts: map[string]string{
			"dev":   "next dev",
			"build": "next build",
			"start": "next start",
			"lint":  "next lint",
		},
		Dependencies: Dependencies(p.TechStack),
		DevDependencies: map[string]string{
			"@types/node":      "20.8.9",
			"@types/react":     "18.2.33",
			"@types/react-dom": "18.2.14",
			"typescript":       "5.2.2",
			"tailwindcss":      "3.3.5",
			"postcss":          "8.4.31",
			"autoprefixer":     "10.4.16",
		},
	}
	data, err := json.MarshalIndent(pkg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("export: package.json: %w", err)
	}
	return string(data) + "\n", nil
}

func readme(p builder.Project) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", p.Name)
	if p.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", p.Description)
	}
	b.WriteString("## Tech Stack\n\n")
	fmt.Fprintf(&b, "- UI Framework: %s\n", p.TechStack.UI)
	fmt.Fprintf(&b, "- State Management: %s\n", p.TechStack.State)
	fmt.Fprintf(&b, "- Form Validation: %s\n\n", p.TechStack.Validation)
	b.WriteString(gettingStarted)
	b.WriteString("- [Next.js Documentation](https://nextjs.org/docs)\n")
	b.WriteString("- [React Documentation](https://react.dev)\n")
	if p.TechStack.UI == MaterialUI {
		b.WriteString("- [Material UI Documentation](https://mui.com/docs)\n")
	}
	if p.TechStack.State == ReduxToolkit {
		b.WriteString("- [Redux Toolkit Documentation](https://redux-toolkit.js.org)\n")
	}
	if p.TechStack.Validation == Zod {
		b.WriteString("- [Zod Documentation](https://zod.dev)\n")
	}
	return b.String()
}
