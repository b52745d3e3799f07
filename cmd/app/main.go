package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"taskpilot/internal/cli"
	"taskpilot/version"
)

var rootCmd = &cobra.Command{
	Use:   "taskpilot",
	Short: "Taskpilot",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Get())
	},
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List tools advertised by the configured endpoint",
	Run: func(cmd *cobra.Command, args []string) {
		if err := cli.ListTools(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

var callCmd = &cobra.Command{
	Use:   "call [tool] [key=value...]",
	Short: "Run a tool call through confirmation and execution",
	Long: `Run a single tool call against the configured endpoint.

Examples:
  taskpilot call tasky_list_tasks
  taskpilot call tasky_delete_task id=42
  taskpilot call tasky_delete_task --args '{"id":"42"}' --yes`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		argsJSON, _ := cmd.Flags().GetString("args")
		yes, _ := cmd.Flags().GetBool("yes")
		if err := cli.CallTool(args[0], argsJSON, args[1:], yes); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

var transcriptCmd = &cobra.Command{
	Use:   "transcript",
	Short: "Print the stored conversation transcript",
	Run: func(cmd *cobra.Command, args []string) {
		if err := cli.ShowTranscript(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Manage secrets in the system keyring (TASKY_ENDPOINT_TOKEN reserved for the endpoint)",
}

var secretCreateCmd = &cobra.Command{
	Use:   "create [name] [value]",
	Short: "Store a new secret value",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		name := args[0]
		value := ""
		if len(args) > 1 {
			value = args[1]
		}
		if err := cli.CreateSecret(name, value); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

var secretUpdateCmd = &cobra.Command{
	Use:   "update [name] [value]",
	Short: "Replace a stored secret value",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		name := args[0]
		value := ""
		if len(args) > 1 {
			value = args[1]
		}
		if err := cli.UpdateSecret(name, value); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

var secretDeleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Remove a stored secret",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := cli.DeleteSecret(args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

var secretReadCmd = &cobra.Command{
	Use:   "read [name]",
	Short: "Print a stored secret value",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		value, err := cli.ReadSecret(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(value)
	},
}

var secretListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded secret names",
	Run: func(cmd *cobra.Command, args []string) {
		if err := cli.ListSecrets(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

var secretStatusCmd = &cobra.Command{
	Use:   "status [name]",
	Short: "Check whether a secret is stored",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := cli.SecretStatus(args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the endpoint configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Run: func(cmd *cobra.Command, args []string) {
		if err := cli.InitConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

var configSetTokenCmd = &cobra.Command{
	Use:   "set-token [value]",
	Short: "Store the endpoint auth token in the system keyring",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		value := ""
		if len(args) > 0 {
			value = args[0]
		}
		if err := cli.SetEndpointToken(value); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

var configClearTokenCmd = &cobra.Command{
	Use:   "clear-token",
	Short: "Remove the endpoint auth token from the system keyring",
	Run: func(cmd *cobra.Command, args []string) {
		if err := cli.ClearEndpointToken(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Run: func(cmd *cobra.Command, args []string) {
		if err := cli.ShowConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	callCmd.Flags().String("args", "", "JSON object to pass as tool arguments")
	callCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")

	secretCmd.AddCommand(secretCreateCmd)
	secretCmd.AddCommand(secretUpdateCmd)
	secretCmd.AddCommand(secretDeleteCmd)
	secretCmd.AddCommand(secretReadCmd)
	secretCmd.AddCommand(secretListCmd)
	secretCmd.AddCommand(secretStatusCmd)

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetTokenCmd)
	configCmd.AddCommand(configClearTokenCmd)
	configCmd.AddCommand(configShowCmd)

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(callCmd)
	rootCmd.AddCommand(transcriptCmd)
	rootCmd.AddCommand(secretCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
