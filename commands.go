package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/parisxmas/checkindesk/internal/models"
	"github.com/parisxmas/checkindesk/internal/service"
	"github.com/parisxmas/checkindesk/internal/validation"
)

func listCmd(g *globalFlags) *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored submissions, latest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			return printSubmissions(cmd.OutOrStdout(), a.viewer.List(cmd.Context(), query))
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "Filter by name or date (YYYY-MM-DD)")
	return cmd
}

func printSubmissions(out io.Writer, subs []models.Submission) error {
	if len(subs) == 0 {
		_, err := fmt.Fprintln(out, service.MsgNoData)
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPHONE\tSTAY\tADULTS\tSUBMITTED")
	for _, s := range subs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s → %s\t%s\t%s\n",
			s.ID, s.Name, s.Phone, s.Checkin, s.Checkout, s.Adults, s.SubmittedAt)
	}
	return tw.Flush()
}

var createFile = func(name string) (io.WriteCloser, error) { return os.Create(name) }

// writeExport writes to the named file. A failed Close is reported, since
// buffered data may not have reached the disk.
func writeExport(name string, write func(io.Writer) error) error {
	f, err := createFile(name)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	return nil
}

func exportCmd(g *globalFlags) *cobra.Command {
	var (
		output string
		format string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all submissions as JSON or XLSX",
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "xlsx" {
				return fmt.Errorf("unknown format %q (want json or xlsx)", format)
			}
			a, err := g.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if output == "" && format == "xlsx" {
				output = a.viewer.ExportFilename("xlsx")
			}
			export := a.viewer.Export
			if format == "xlsx" {
				export = a.viewer.ExportXLSX
			}
			write := func(w io.Writer) error { return export(cmd.Context(), w) }

			if output == "" || output == "-" {
				return write(cmd.OutOrStdout())
			}
			if err := writeExport(output, write); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "exported to %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout for json, dated file for xlsx)")
	cmd.Flags().StringVar(&format, "format", "json", "Export format: json or xlsx")
	return cmd
}

func importCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Append the submissions of a JSON export file (- for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}

			a, err := g.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.viewer.Import(cmd.Context(), r)
			if err != nil {
				return errors.New(service.MsgImportFailed + err.Error())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d submissions\n", service.MsgImportOK, n)
			return nil
		},
	}
}

func deleteCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete the submission with the given id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.viewer.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func clearCmd(g *globalFlags) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored submission",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), service.MsgConfirmClear) {
				fmt.Fprintln(cmd.ErrOrStderr(), "aborted")
				return nil
			}
			a, err := g.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.viewer.ClearAll(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cleared")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N] ", prompt)
	line, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func validateCmd() *cobra.Command {
	var fields []string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check field values against the check-in form rules",
		Example: `  checkindesk validate --field phone=12345
  checkindesk validate --field checkin=2026-10-18 --field checkout=2026-10-20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := parseFields(fields)
			if err != nil {
				return err
			}
			return runValidate(cmd.OutOrStdout(), validation.New(time.Now), form)
		},
	}
	cmd.Flags().StringArrayVarP(&fields, "field", "f", nil, "Field as name=value (repeatable)")
	_ = cmd.MarkFlagRequired("field")
	return cmd
}

func parseFields(pairs []string) (map[string]string, error) {
	form := make(map[string]string, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid field %q (want name=value)", p)
		}
		form[strings.TrimSpace(name)] = value
	}
	return form, nil
}

// runValidate checks only the given fields, in form order.
func runValidate(out io.Writer, v *validation.Validator, form map[string]string) error {
	form = service.TrimValues(form)
	names := make([]string, 0, len(form))
	for name := range form {
		names = append(names, name)
	}
	order := make(map[string]int, len(validation.FieldOrder))
	for i, name := range validation.FieldOrder {
		order[name] = i
	}
	sort.Slice(names, func(i, j int) bool {
		oi, iok := order[names[i]]
		oj, jok := order[names[j]]
		switch {
		case iok && jok:
			return oi < oj
		case iok != jok:
			return iok
		default:
			return names[i] < names[j]
		}
	})

	failed := 0
	for _, name := range names {
		res := v.ValidateField(name, form[name], form)
		if res.OK {
			fmt.Fprintf(out, "ok    %s\n", name)
			continue
		}
		failed++
		fmt.Fprintf(out, "FAIL  %s: %s\n", name, res.Message)
	}
	if failed > 0 {
		return fmt.Errorf("%d field(s) invalid", failed)
	}
	return nil
}
