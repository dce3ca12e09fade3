package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newPreviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preview [text...]",
		Short: "Preview the first supported link in text and print the components as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, _, err := setup()
			if err != nil {
				return err
			}

			out, err := application.Preview(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))

			return err
		},
	}
}

func newViewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view [source] [id] [page]",
		Short: "Render one page of a gallery and print the components as JSON",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid page %q: %w", args[2], err)
			}

			application, _, err := setup()
			if err != nil {
				return err
			}

			out, err := application.View(cmd.Context(), args[0], args[1], page)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))

			return err
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
