package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/bamdow/folio/internal/project"
)

func runProjectsList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openProjects(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	res, err := store.List(cmd.Context(), project.ListQuery{
		Page:     listPage,
		Size:     listSize,
		Category: project.Category(listCategory),
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCATEGORY\tTITLE\tTAGS\tIMAGES")
	for _, p := range res.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", p.ID, p.Category, p.Title, strings.Join(p.Tags, ","), len(p.Images))
	}
	w.Flush()
	fmt.Printf("\n%d of %d\n", len(res.Items), res.Total)
	return nil
}

// projectMarkdown lays a project out as a markdown document.
func projectMarkdown(p *project.Project) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", p.Title)
	fmt.Fprintf(&b, "*%s*", p.Category)
	if len(p.Tags) > 0 {
		fmt.Fprintf(&b, " · %s", strings.Join(p.Tags, ", "))
	}
	b.WriteString("\n\n")
	if p.Description != "" {
		b.WriteString(p.Description + "\n\n")
	}

	switch p.Category {
	case project.Photography:
		if p.Thoughts != "" {
			b.WriteString("## Thoughts\n\n" + p.Thoughts + "\n\n")
		}
		if p.AdditionalInfo != "" {
			b.WriteString("## Notes\n\n" + p.AdditionalInfo + "\n\n")
		}
	case project.Development:
		if p.GithubURL != "" {
			fmt.Fprintf(&b, "Source: <%s>\n\n", p.GithubURL)
		}
		if p.Readme != "" {
			b.WriteString("---\n\n" + p.Readme + "\n\n")
		}
	case project.Other:
		if p.ExternalLink != "" {
			fmt.Fprintf(&b, "Link: <%s>\n\n", p.ExternalLink)
		}
		if p.Introduction != "" {
			b.WriteString(p.Introduction + "\n\n")
		}
	}

	if len(p.Images) > 0 {
		b.WriteString("## Images\n\n")
		for _, u := range p.Images {
			fmt.Fprintf(&b, "- %s\n", u)
		}
	}
	return b.String()
}

func runProjectsShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openProjects(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	p, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return err
	}
	out, err := renderer.Render(projectMarkdown(p))
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}
