package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Sternrassler/firstnames/pkg/normalize"
	"github.com/Sternrassler/firstnames/pkg/render"
	"github.com/spf13/cobra"
)

type lookupOptions struct {
	file string
	mf   bool
}

func newLookupCmd(c *cli) *cobra.Command {
	opts := &lookupOptions{}

	cmd := &cobra.Command{
		Use:   "lookup [names...]",
		Short: "Look up names and print the results",
		Long: "Look up names given as arguments or read one per line from --file\n" +
			"(\"-\" reads standard input), wait for both APIs and print a table.",
		Example: "  firstnames lookup Alice Bob\n  firstnames lookup --file names.txt --mf",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookup(cmd, c, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "read names from file, one per line (- for stdin)")
	cmd.Flags().BoolVar(&opts.mf, "mf", false, "print only the M/F column")

	return cmd
}

func runLookup(cmd *cobra.Command, c *cli, opts *lookupOptions, args []string) error {
	text, err := readInput(cmd.InOrStdin(), opts.file, args)
	if err != nil {
		return err
	}

	names := normalize.Lines(text)
	if len(names) == 0 {
		return fmt.Errorf("no names given")
	}

	a, err := newApp(cmd.Context(), c.cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	a.service.Submit(cmd.Context(), names).Wait()

	rows := render.Rows(a.service.Store(), names)
	out := cmd.OutOrStdout()
	if opts.mf {
		fmt.Fprintln(out, render.MFColumn(rows))
	} else {
		fmt.Fprintln(out, render.Table(rows))
	}

	for _, e := range a.errors.Entries() {
		fmt.Fprintf(cmd.ErrOrStderr(), "error: %s\n", e.Message)
	}
	return nil
}

func readInput(stdin io.Reader, file string, args []string) (string, error) {
	var b strings.Builder
	for _, arg := range args {
		b.WriteString(arg)
		b.WriteByte('\n')
	}

	switch file {
	case "":
	case "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		b.Write(data)
	default:
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read names: %w", err)
		}
		b.Write(data)
	}
	return b.String(), nil
}
