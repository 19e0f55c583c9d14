package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-viewrender/pkg/helpers"
	"github.com/goliatone/go-viewrender/pkg/view"
)

// newRenderCommand creates the "render" subcommand that prints one template.
func newRenderCommand(opts *Options) *cobra.Command {
	var (
		dataFile string
		sets     []string
		baseURI  string
	)

	cmd := &cobra.Command{
		Use:   "render TEMPLATE",
		Short: "Render a template to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			logger := commandLogger(cmd, cfg)

			data := view.Data{}
			if dataFile != "" {
				if data, err = loadDataFile(dataFile); err != nil {
					return err
				}
			}
			overrides, err := parseSetValues(sets)
			if err != nil {
				return err
			}
			for key, value := range overrides {
				data[key] = value
			}

			renderer, err := newRenderer(cfg, logger)
			if err != nil {
				return err
			}
			if baseURI == "" {
				baseURI = cfg.BaseURI
			}
			renderer.RegisterHelper(helpers.RootURIKey, helpers.NewRootURIHelper(helpers.StaticRequest(baseURI)))
			registerContentHelpers(renderer, cfg.Theme)

			out, err := renderer.Render(cmd.Context(), args[0], data)
			if err != nil {
				return fmt.Errorf("render %q: %w", args[0], err)
			}
			if _, err := io.WriteString(cmd.OutOrStdout(), out); err != nil {
				return err
			}

			logger.Debug("rendered template", "template", args[0], "engine", cfg.Engine, "bytes", len(out))
			return nil
		},
	}

	cmd.Flags().StringVarP(&dataFile, "data", "d", "", "JSON or YAML file with template data")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Template data as key=value (repeatable)")
	cmd.Flags().StringVar(&baseURI, "base-uri", "", "Base URI returned by the root_uri helper")

	return cmd
}
