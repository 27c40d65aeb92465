package cmd

import (
	"fmt"

	"github.com/shouni/go-storyboard-kit/pkg/director"

	"github.com/spf13/cobra"
)

// stylesCmd は、選べる画風の一覧を表示するのだ。API キーは要らないのだ。
var stylesCmd = &cobra.Command{
	Use:         "styles",
	Short:       "選べる画風（--style）の一覧を表示するのだ。",
	Annotations: map[string]string{"offline": "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, s := range director.Styles() {
			marker := " "
			if s == director.DefaultStyle {
				marker = "*"
			}
			if _, err := fmt.Fprintf(out, "%s %-24s %s\n", marker, s, s.Label()); err != nil {
				return err
			}
		}
		return nil
	},
}
