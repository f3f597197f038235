package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jwebster45206/gatebound/pkg/episode"
	"github.com/jwebster45206/gatebound/pkg/story"
)

var strict bool

var rootCmd = &cobra.Command{
	Use:           "validate",
	Short:         "Validate gatebound content before it ships",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var episodesCmd = &cobra.Command{
	Use:   "episodes [file or dir...]",
	Short: "Validate episode files (.json, .yaml, .yml)",
	Long: `Validate episode files the way the API loads them. Directories are walked
recursively. Unknown action commands are warnings; --strict makes them errors.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			args = []string{"./data/episodes"}
		}
		files, err := episodeFiles(args)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return fmt.Errorf("no episode files found in %s", strings.Join(args, ", "))
		}

		report := validateEpisodes(files)
		for _, w := range report.warnings {
			fmt.Fprintf(cmd.OutOrStdout(), "WARN  %s\n", w)
		}
		for _, e := range report.errors {
			fmt.Fprintf(cmd.OutOrStdout(), "ERROR %s\n", e)
		}
		failures := len(report.errors)
		if strict {
			failures += len(report.warnings)
		}
		if failures > 0 {
			return fmt.Errorf("%d of %d episode files failed validation", failures, len(files))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d episode files are valid\n", len(files))
		return nil
	},
}

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Validate the built-in story graph",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		g := story.DefaultGraph()
		if err := g.Validate(); err != nil {
			return fmt.Errorf("story graph: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "story graph is valid (%d nodes)\n", len(g.Nodes()))
		return nil
	},
}

func init() {
	episodesCmd.Flags().BoolVar(&strict, "strict", false, "treat warnings as errors")
	rootCmd.AddCommand(episodesCmd, graphCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}
}

func isEpisodeFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

func episodeFiles(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isEpisodeFile(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	slices.Sort(files)
	return files, nil
}

type report struct {
	errors   []string
	warnings []string
}

func validateEpisodes(files []string) report {
	var r report
	seen := map[string]string{}
	for _, f := range files {
		ep, err := episode.LoadFile(f)
		if err != nil {
			r.errors = append(r.errors, fmt.Sprintf("%s: %v", f, err))
			continue
		}
		if prev, ok := seen[ep.ID]; ok {
			r.errors = append(r.errors, fmt.Sprintf("%s: episode %s already defined in %s", f, ep.ID, prev))
			continue
		}
		seen[ep.ID] = f
		if ep.ID == episode.DefaultEpisodeID {
			r.warnings = append(r.warnings, fmt.Sprintf("%s: replaces the built-in episode %s", f, ep.ID))
		}
		for _, b := range ep.Beats {
			for i, a := range b.Actions {
				if u, ok := a.Action.(episode.Unknown); ok {
					r.warnings = append(r.warnings, fmt.Sprintf("%s: beat %s action %d has unknown command %q", f, b.ID, i, u.Name))
				}
			}
		}
		for i, a := range ep.OnComplete {
			if u, ok := a.Action.(episode.Unknown); ok {
				r.warnings = append(r.warnings, fmt.Sprintf("%s: on_complete action %d has unknown command %q", f, i, u.Name))
			}
		}
	}
	return r
}
