package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/lawstack/internal/param"
	"github.com/roach88/lawstack/internal/registry"
	"github.com/roach88/lawstack/internal/tables"
)

// ParamsOptions holds flags for the params command.
type ParamsOptions struct {
	*RootOptions
	Year int // show the current-law value at this year
}

// paramJSON is the machine-readable catalogue entry.
type paramJSON struct {
	Name        string                     `json:"name"`
	Description string                     `json:"description"`
	Shape       string                     `json:"shape"`
	Type        string                     `json:"type"`
	MinYear     int                        `json:"min_year"`
	Length      int                        `json:"length,omitempty"`
	Defaults    map[string]json.RawMessage `json:"defaults,omitempty"`
}

// NewParamsCommand creates the params command.
func NewParamsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ParamsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "params [name]",
		Short: "Inspect the parameter catalogue",
		Long: `Inspect the embedded current-law parameter catalogue.

Without arguments, lists every parameter with its shape, type, and
inception year, followed by the removed/redefined changelog. With a
name, shows that parameter's default series; --year resolves the
current-law value at one year under forward-fill.

Examples:
  lawstack params
  lawstack params SS_Earnings_thd
  lawstack params NIIT_rt --year 2020`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return runParams(opts, name, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Year, "year", 0, "resolve the default value at this year")

	return cmd
}

func runParams(opts *ParamsOptions, name string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	reg, err := registry.Load()
	if err != nil {
		_ = formatter.Error(ErrCodeCatalogue, err.Error(), nil)
		return WrapExitError(ExitCommandError, "load catalogue", err)
	}

	if name == "" {
		return outputCatalogue(formatter, reg)
	}

	p, err := reg.Lookup(name)
	if err != nil {
		var unknown *registry.UnknownParameterError
		if errors.As(err, &unknown) {
			if note, ok := reg.RemovedNote(name); ok {
				err = fmt.Errorf("parameter %q %s", name, note)
			}
		}
		_ = formatter.Error(ErrCodeValidation, err.Error(), nil)
		return WrapExitError(ExitCommandError, "unknown parameter", err)
	}

	if opts.Year != 0 {
		return outputParamAtYear(formatter, reg, p, opts.Year)
	}
	return outputParam(formatter, reg, p)
}

func outputCatalogue(formatter *OutputFormatter, reg *registry.Registry) error {
	if formatter.Format == "json" {
		entries := make([]paramJSON, 0, reg.Len())
		for _, name := range reg.Names() {
			p, _ := reg.Lookup(name)
			entries = append(entries, paramJSON{
				Name:        p.Name,
				Description: p.Description,
				Shape:       string(p.Shape),
				Type:        string(p.Type),
				MinYear:     p.MinYear,
				Length:      p.VectorLen,
			})
		}
		return formatter.Success(entries)
	}

	tables.NewRenderer().Catalogue(formatter.Writer, reg)
	return nil
}

func outputParam(formatter *OutputFormatter, reg *registry.Registry, p *registry.Parameter) error {
	if formatter.Format == "json" {
		entry, err := paramToJSON(p)
		if err != nil {
			return WrapExitError(ExitCommandError, "encode parameter", err)
		}
		return formatter.Success(entry)
	}

	w := formatter.Writer
	r := tables.NewRenderer()
	fmt.Fprintf(w, "%s  (%s, %s, since %d)\n", p.Name, p.Shape, p.Type.Name(), p.MinYear)
	if p.Description != "" {
		fmt.Fprintf(w, "  %s\n", p.Description)
	}
	if note, ok := reg.RedefinedNote(p.Name); ok {
		fmt.Fprintf(w, "  note: %s\n", note)
	}
	for _, year := range p.Defaults.Years() {
		v, _ := p.Defaults.Explicit(year)
		fmt.Fprintf(w, "  %d  %s\n", year, r.FormatValue(v))
	}
	return nil
}

func outputParamAtYear(formatter *OutputFormatter, reg *registry.Registry, p *registry.Parameter, year int) error {
	v, err := reg.DefaultValue(p.Name, year)
	if err != nil {
		_ = formatter.Error(ErrCodeHorizon, err.Error(), nil)
		return WrapExitError(ExitCommandError, "no value", err)
	}

	if formatter.Format == "json" {
		body, err := param.MarshalValue(v)
		if err != nil {
			return WrapExitError(ExitCommandError, "encode value", err)
		}
		return formatter.Success(map[string]json.RawMessage{
			"name":  json.RawMessage(strconv.Quote(p.Name)),
			"year":  json.RawMessage(strconv.Itoa(year)),
			"value": body,
		})
	}

	fmt.Fprintf(formatter.Writer, "%s  %d  %s\n", p.Name, year, tables.NewRenderer().FormatValue(v))
	return nil
}

func paramToJSON(p *registry.Parameter) (paramJSON, error) {
	defaults := make(map[string]json.RawMessage)
	for _, year := range p.Defaults.Years() {
		v, _ := p.Defaults.Explicit(year)
		body, err := param.MarshalValue(v)
		if err != nil {
			return paramJSON{}, fmt.Errorf("%s[%d]: %w", p.Name, year, err)
		}
		defaults[strconv.Itoa(year)] = body
	}
	return paramJSON{
		Name:        p.Name,
		Description: p.Description,
		Shape:       string(p.Shape),
		Type:        string(p.Type),
		MinYear:     p.MinYear,
		Length:      p.VectorLen,
		Defaults:    defaults,
	}, nil
}
