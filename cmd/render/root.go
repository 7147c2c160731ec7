package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"thirdcoast.systems/h5video/internal/filerepo"
	"thirdcoast.systems/h5video/internal/messages"
	"thirdcoast.systems/h5video/internal/render"
)

type renderFlags struct {
	lang      string
	args      []string
	uploadDir string
	baseURL   string
	links     bool
}

// newRootCmd builds the command against fsys, which holds both the input
// file and the upload directory.
func newRootCmd(fsys afero.Fs) *cobra.Command {
	flags := &renderFlags{}

	cmd := &cobra.Command{
		Use:           "render [file]",
		Short:         "Render wikitext containing <video> tags to HTML",
		Long:          "Reads wikitext from file, or stdin when no file is given, and writes the rendered HTML to stdout.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, positional []string) error {
			text, err := readInput(fsys, cmd.InOrStdin(), positional)
			if err != nil {
				return err
			}

			templateArgs, err := parseTemplateArgs(flags.args)
			if err != nil {
				return err
			}

			repo := filerepo.NewLocalRepository(fsys, flags.uploadDir, flags.baseURL)
			catalog := messages.NewCatalog(nil)
			svc := render.NewService(repo, catalog)

			res := svc.Render(cmd.Context(), catalog.Match(flags.lang), text, templateArgs)

			out := cmd.OutOrStdout()
			if _, err := fmt.Fprintln(out, res.HTML); err != nil {
				return err
			}
			if flags.links {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res.Output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.lang, "lang", "l", "en", "Language of error messages")
	cmd.Flags().StringArrayVarP(&flags.args, "arg", "a", nil, "Template argument as name=value (repeatable)")
	cmd.Flags().StringVar(&flags.uploadDir, "upload-dir", "./uploads", "Directory File: references resolve against")
	cmd.Flags().StringVar(&flags.baseURL, "base-url", "http://localhost:8080", "Public base URL of uploaded media")
	cmd.Flags().BoolVar(&flags.links, "links", false, "Print link metadata as JSON after the HTML")

	return cmd
}

func readInput(fsys afero.Fs, stdin io.Reader, positional []string) (string, error) {
	if len(positional) == 0 || positional[0] == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := afero.ReadFile(fsys, positional[0])
	if err != nil {
		return "", fmt.Errorf("read %s: %w", positional[0], err)
	}
	return string(b), nil
}

func parseTemplateArgs(raw []string) (map[string]string, error) {
	args := make(map[string]string, len(raw))
	for _, a := range raw {
		name, value, ok := strings.Cut(a, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid --arg %q, expected name=value", a)
		}
		args[strings.TrimSpace(name)] = value
	}
	return args, nil
}
