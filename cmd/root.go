package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/formora_backend/cmd/cli"
	httpcmd "github.com/Alijeyrad/formora_backend/cmd/http"
	systemcmd "github.com/Alijeyrad/formora_backend/cmd/system"
)

var rootCmd = &cobra.Command{
	Use:   "formora",
	Short: "Formora form builder backend.",
	Long: `Formora lets users design forms, collect responses from anonymous
respondents and analyze them, with optional AI-assisted form generation and
response summaries.`,
	SilenceUsage:      true,
	PersistentPreRunE: cli.Setup,
}

func Execute() {
	err := rootCmd.Execute()
	cli.Flush()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "config.yaml", "config file path")
	rootCmd.AddCommand(systemcmd.NewSystemCommand(), httpcmd.NewHTTPCommand())
}
