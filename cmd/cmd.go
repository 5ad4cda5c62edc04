// cmd.go - Haupt-CLI Setup und Root Command
// Hauptfunktionen: NewCLI, appendEnvDocs
package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/7blacky7/clipserve/envconfig"
	"github.com/7blacky7/clipserve/version"
)

// appendEnvDocs - Fuegt Umgebungsvariablen-Dokumentation zum Command hinzu
func appendEnvDocs(cmd *cobra.Command, envs []envconfig.EnvVar) {
	if len(envs) == 0 {
		return
	}

	envUsage := `
Environment Variables:
`
	for _, e := range envs {
		envUsage += fmt.Sprintf("      %-24s   %s\n", e.Name, e.Description)
	}

	cmd.SetUsageTemplate(cmd.UsageTemplate() + envUsage)
}

// versionHandler - Gibt die Versionsnummer aus
func versionHandler(cmd *cobra.Command, _ []string) {
	cmd.Printf("clipserve version %s\n", version.Version)
}

// NewCLI - Erstellt das Haupt-CLI mit allen Commands
func NewCLI() *cobra.Command {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:           "clipserve",
		Short:         "CLIP embedding inference server",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		Run: func(cmd *cobra.Command, args []string) {
			if version, _ := cmd.Flags().GetBool("version"); version {
				versionHandler(cmd, args)
				return
			}

			cmd.Print(cmd.UsageString())
		},
	}

	rootCmd.Flags().BoolP("version", "v", false, "Show version information")

	serveCmd := newServeCmd()
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run:   versionHandler,
	}

	// Environment-Dokumentation hinzufuegen
	envVars := envconfig.AsMap()
	appendEnvDocs(serveCmd, []envconfig.EnvVar{
		envVars["MODEL_NAME"],
		envVars["MODEL_DEVICE"],
		envVars["BATCH_SIZE"],
		envVars["CLIPSERVE_HOST"],
		envVars["CLIPSERVE_ORIGINS"],
		envVars["CLIPSERVE_MODELS"],
		envVars["CLIPSERVE_THREADS"],
		envVars["CLIPSERVE_DEBUG"],
	})

	rootCmd.AddCommand(
		serveCmd,
		versionCmd,
	)

	return rootCmd
}
