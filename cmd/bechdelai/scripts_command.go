package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dataforgoodfr/bechdelai/internal/fileutil"
	"github.com/dataforgoodfr/bechdelai/internal/services/imsdb"
)

func newScriptsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scripts",
		Short: "Browse movie scripts on IMSDb",
	}
	cmd.AddCommand(newScriptsListCommand(ctx))
	cmd.AddCommand(newScriptsGetCommand(ctx))
	return cmd
}

func (c *commandContext) imsdbClient() (*imsdb.Client, error) {
	fetcher, err := c.fetcher()
	if err != nil {
		return nil, err
	}
	return imsdb.New(fetcher, ""), nil
}

func newScriptsListCommand(ctx *commandContext) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available scripts",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.imsdbClient()
			if err != nil {
				return err
			}
			refs, err := client.Scripts(cmd.Context())
			if err != nil {
				return err
			}
			if filter != "" {
				needle := strings.ToLower(filter)
				kept := refs[:0]
				for _, r := range refs {
					if strings.Contains(strings.ToLower(r.Title), needle) {
						kept = append(kept, r)
					}
				}
				refs = kept
			}
			rows := make([][]string, 0, len(refs))
			for _, r := range refs {
				rows = append(rows, []string{r.Slug, r.Title})
			}
			return ctx.emit(cmd, refs, []string{"Slug", "Title"}, rows, nil)
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "", "Only list titles containing this text")
	return cmd
}

func newScriptsGetCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "get <slug>",
		Short: "Download the text of a script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.imsdbClient()
			if err != nil {
				return err
			}
			lines, err := client.Script(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			text := strings.Join(lines, "\n") + "\n"
			if output == "" {
				_, err = fmt.Fprint(cmd.OutOrStdout(), text)
				return err
			}
			if err := fileutil.WriteFileAtomic(output, []byte(text)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d lines to %s\n", len(lines), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the script to this file")
	return cmd
}
