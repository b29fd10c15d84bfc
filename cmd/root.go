package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pdfsearch",
	Short: "pdf text extraction and search tool",
	Example: `pdfsearch process file -f <path.pdf>
pdfsearch process folder -d <dir>
pdfsearch search -q <term> -p <page>
pdfsearch tag create -n <name> -c '#ff8800'
pdfsearch tag assign -d <pdf-id> -t <tag-id>
pdfsearch list
pdfsearch delete -d <pdf-id>
pdfsearch db migrate`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			// Config reads the level from the environment, so route the
			// flag through it to survive LoadConfig.
			_ = os.Setenv("PDFSEARCH_LOG_LEVEL", "debug")
			logrus.SetLevel(logrus.DebugLevel)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug logging")

	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(searchCommand())
	rootCmd.AddCommand(similarCommand())
	rootCmd.AddCommand(listCommand())
	rootCmd.AddCommand(showCommand())
	rootCmd.AddCommand(deleteCommand())
	rootCmd.AddCommand(tagCmd)
	rootCmd.AddCommand(categoryCmd)
	rootCmd.AddCommand(annotationCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	cobra.EnableCommandSorting = false
}
