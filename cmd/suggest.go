package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/powerm17/automated-home-decor/internal/batch"
	"github.com/powerm17/automated-home-decor/internal/config"
	"github.com/powerm17/automated-home-decor/internal/flow"
	"github.com/powerm17/automated-home-decor/internal/preview"
	"github.com/powerm17/automated-home-decor/internal/render"
	"github.com/powerm17/automated-home-decor/internal/upload"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newSuggestCmd() *cobra.Command {
	var backendURL string
	var output string
	var variantName string
	var color bool

	cmd := &cobra.Command{
		Use:   "suggest [image]",
		Short: "Upload one room photo and print the decor suggestions",
		Long: `Uploads a single photo to the decor backend and prints the suggested
items and prominent colours.

Output is plain text by default; json and yaml keep the order the backend
returned.`,
		Example: `  # Print suggestions with coloured swatches
  roomdecor suggest living-room.jpg --color

  # Machine readable output
  roomdecor suggest living-room.jpg --output json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if backendURL == "" {
				backendURL = cfg.BackendURL
			}
			if variantName == "" {
				variantName = cfg.Variant
			}
			variant, err := flow.VariantByName(variantName)
			if err != nil {
				return err
			}
			switch output {
			case "text", "json", "yaml":
			default:
				return fmt.Errorf("unsupported output %q (text, json or yaml)", output)
			}

			f := flow.New(flow.Options{
				Uploader: upload.NewClient(upload.ClientOpts{URL: backendURL}),
				Previews: preview.New(),
				Variant:  variant,
			})
			defer f.Close()

			if len(args) == 1 {
				file, err := batch.ReadFile(args[0])
				if err != nil {
					return err
				}
				f.Select(file)
			}

			if err := f.Upload(cmd.Context()); err != nil {
				if errors.Is(err, flow.ErrNoImageSelected) {
					return errors.New(flow.MsgNoImageSelected)
				}
				return errors.New(f.State().Reason)
			}

			v := f.View()
			if v.Notification != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), v.Notification.Message)
			}
			return writeResponse(cmd.OutOrStdout(), output, v, color)
		},
	}

	cmd.Flags().StringVar(&backendURL, "backend", "", "Decor backend upload URL")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format: text, json or yaml")
	cmd.Flags().StringVar(&variantName, "variant", "", "Flow variant: standard prints a success notice, compact does not")
	cmd.Flags().BoolVar(&color, "color", false, "Draw colour swatches with 24-bit ANSI colours")

	return cmd
}

func writeResponse(w io.Writer, output string, v flow.View, color bool) error {
	switch output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v.State.Response)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(v.State.Response)
	default:
		return render.WriteText(w, v.Result, render.TextOptions{Color: color})
	}
}
