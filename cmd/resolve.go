package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/djcass44/deb-resolver/pkg/debian"
	"github.com/djcass44/deb-resolver/pkg/graph"
	pkgdebian "github.com/djcass44/deb-resolver/pkg/packages/debian"
	"github.com/djcass44/deb-resolver/pkg/resolver"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [package...]",
	Short: "print the dependency closure of packages",
	Long:  "Resolve the dependency closure of each package named on the command line, or in the configuration file when none are given.",
	RunE:  resolve,
}

const (
	flagOutput         = "output"
	flagOutputFile     = "output-file"
	flagShowVersions   = "show-versions"
	flagShowUnresolved = "show-unresolved"
	flagStrict         = "strict"
)

const (
	outputText     = "text"
	outputJSON     = "json"
	outputPackages = "packages"
	outputDOT      = "dot"
	outputSVG      = "svg"
)

func init() {
	addConfigFlags(resolveCmd)
	resolveCmd.Flags().StringP(flagOutput, "o", outputText, "output format: text, json, packages, dot or svg")
	resolveCmd.Flags().String(flagOutputFile, "", "write output to a file instead of stdout")
	resolveCmd.Flags().Bool(flagShowVersions, false, "include versions and architectures in graph nodes")
	resolveCmd.Flags().Bool(flagShowUnresolved, false, "include unresolved dependencies in graphs")
	resolveCmd.Flags().Bool(flagStrict, false, "fail if any dependency cannot be resolved")
}

type closureOutput struct {
	Root       string       `json:"root"`
	Packages   []edgeOutput `json:"packages"`
	Unresolved []string     `json:"unresolved,omitempty"`
	Problems   []string     `json:"problems,omitempty"`
}

type edgeOutput struct {
	Package string `json:"package"`
	Source  string `json:"source"`
	Kind    string `json:"kind"`
}

func resolve(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := logr.FromContextOrDiscard(ctx)

	output, _ := cmd.Flags().GetString(flagOutput)
	outputFile, _ := cmd.Flags().GetString(flagOutputFile)
	showVersions, _ := cmd.Flags().GetBool(flagShowVersions)
	showUnresolved, _ := cmd.Flags().GetBool(flagShowUnresolved)
	strict, _ := cmd.Flags().GetBool(flagStrict)

	s, err := newSession(ctx, cmd)
	if err != nil {
		return err
	}

	names := args
	if len(names) == 0 {
		names = requestedNames(s.cfg.Spec)
	}
	if len(names) == 0 {
		return errors.New("no packages to resolve")
	}
	if (output == outputDOT || output == outputSVG) && len(names) != 1 {
		return fmt.Errorf("%s output needs exactly one package, got %d", output, len(names))
	}

	closures := make([]*resolver.TransitiveDependencies, len(names))
	var incomplete []error
	for i, name := range names {
		deps, err := s.keeper.Closure(ctx, name)
		if err != nil {
			return err
		}
		if err := deps.Err(); err != nil {
			log.Info("dependency closure is incomplete", "package", name, "unresolved", len(deps.Unresolved()), "problems", len(deps.Problems()))
			incomplete = append(incomplete, fmt.Errorf("%s: %w", name, err))
		}
		closures[i] = deps
	}

	var w io.Writer = cmd.OutOrStdout()
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	switch output {
	case outputText:
		err = writeText(w, closures)
	case outputJSON:
		err = writeJSON(w, closures)
	case outputPackages:
		err = writeIndex(w, closures)
	case outputDOT, outputSVG:
		dot := graph.ToDOT(closures[0], graph.Options{ShowVersions: showVersions, ShowUnresolved: showUnresolved})
		if output == outputDOT {
			_, err = io.WriteString(w, dot)
			break
		}
		var svg []byte
		svg, err = graph.RenderSVG(ctx, dot)
		if err == nil {
			_, err = w.Write(svg)
		}
	default:
		return fmt.Errorf("unknown output format: %s", output)
	}
	if err != nil {
		return err
	}

	if strict {
		return errors.Join(incomplete...)
	}
	return nil
}

func writeText(w io.Writer, closures []*resolver.TransitiveDependencies) error {
	for i, deps := range closures {
		if i > 0 {
			_, _ = fmt.Fprintln(w)
		}
		_, _ = fmt.Fprintln(w, deps.Root.String())
		for _, e := range deps.PackagesWithSources() {
			_, _ = fmt.Fprintf(w, "  %s (%s of %s)\n", e.Package.String(), e.Kind, e.Source.String())
		}
		for _, u := range deps.Unresolved() {
			_, _ = fmt.Fprintf(w, "  ! %s\n", u.Error())
		}
		for _, p := range deps.Problems() {
			if _, err := fmt.Fprintf(w, "  ! %s\n", p.Error()); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeJSON(w io.Writer, closures []*resolver.TransitiveDependencies) error {
	out := make([]closureOutput, len(closures))
	for i, deps := range closures {
		out[i] = closureOutput{
			Root:     deps.Root.String(),
			Packages: []edgeOutput{},
		}
		for _, e := range deps.PackagesWithSources() {
			out[i].Packages = append(out[i].Packages, edgeOutput{
				Package: e.Package.String(),
				Source:  e.Source.String(),
				Kind:    string(e.Kind),
			})
		}
		for _, u := range deps.Unresolved() {
			out[i].Unresolved = append(out[i].Unresolved, u.Error())
		}
		for _, p := range deps.Problems() {
			out[i].Problems = append(out[i].Problems, p.Error())
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "\t")
	return enc.Encode(out)
}

// writeIndex writes the union of every closure, roots included, as
// a Packages file.
func writeIndex(w io.Writer, closures []*resolver.TransitiveDependencies) error {
	seen := map[string]struct{}{}
	var packages []*debian.BinaryPackage
	add := func(p *debian.BinaryPackage) {
		if _, ok := seen[p.String()]; ok {
			return
		}
		seen[p.String()] = struct{}{}
		packages = append(packages, p)
	}
	for _, deps := range closures {
		add(deps.Root)
		for _, p := range deps.Packages() {
			add(p)
		}
	}
	return pkgdebian.WriteIndex(w, packages)
}
