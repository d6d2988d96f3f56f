package docmig

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type CLIConfig struct {
	SourceDir    string
	TargetDir    string
	Phase        int
	Undo         bool
	Redo         bool
	AdHoc        bool
	ValidateOnly bool
	NoAnimation  bool
	Verbose      bool
	Completion   string
}

var cfg = &CLIConfig{}

var rootCmd = &cobra.Command{
	Use:   "docmig",
	Short: "Apply markdown setup guides as idempotent mutations of a scaffold tree.",
	Long: `Parse markdown setup guides (Auth.md, Readme.md, provider guides) and
apply their instructions to a target scaffold: copy files, merge config
documents, insert imports and routes. Re-running never duplicates content.

Example: docmig -s ./guides -t ./my-app --phase 2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Completion != "" {
			return handleCompletion(cmd)
		}

		if cfg.Undo && cfg.Redo {
			return fmt.Errorf("error: --undo and --redo are mutually exclusive")
		}
		if cfg.Phase < 0 || cfg.Phase > 3 {
			return fmt.Errorf("error: --phase must be 1, 2 or 3")
		}

		log := NewLogger(cfg.Verbose)
		defer log.Sync()

		appCfg := &Config{
			SourceDir:    cfg.SourceDir,
			TargetDir:    cfg.TargetDir,
			Phase:        cfg.Phase,
			Undo:         cfg.Undo,
			Redo:         cfg.Redo,
			AdHoc:        cfg.AdHoc,
			ValidateOnly: cfg.ValidateOnly,
		}

		app, err := NewApp(appCfg, log)
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}

		ui := NewTUI(app, cfg.NoAnimation || cfg.ValidateOnly)
		return ui.Run()
	},
}

func handleCompletion(cmd *cobra.Command) error {
	switch cfg.Completion {
	case "bash":
		return cmd.Root().GenBashCompletion(os.Stdout)
	case "zsh":
		return cmd.Root().GenZshCompletion(os.Stdout)
	case "fish":
		return cmd.Root().GenFishCompletion(os.Stdout, true)
	case "powershell":
		return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
	default:
		return fmt.Errorf("unsupported shell for completion: %s", cfg.Completion)
	}
}

func init() {
	rootCmd.Flags().StringVar(&cfg.Completion, "completion", "", "Generate completion script")
	rootCmd.Flags().StringVarP(&cfg.SourceDir, "source", "s", ".", "Source tree holding the guides")
	rootCmd.Flags().StringVarP(&cfg.TargetDir, "target", "t", ".", "Target scaffold to mutate")
	rootCmd.Flags().IntVarP(&cfg.Phase, "phase", "p", 0, "Run a single phase (1-3)")
	rootCmd.Flags().BoolVarP(&cfg.AdHoc, "apply", "a", false, "Apply markdown from stdin or clipboard")
	rootCmd.Flags().BoolVar(&cfg.ValidateOnly, "validate", false, "Check expectations without mutating")
	rootCmd.Flags().BoolVar(&cfg.NoAnimation, "no-animation", false, "Disable spinner")
	rootCmd.Flags().BoolVarP(&cfg.Verbose, "verbose", "v", false, "Debug logging incl. anchor fallbacks")
	rootCmd.Flags().BoolVarP(&cfg.Undo, "undo", "u", false, "Undo last run")
	rootCmd.Flags().BoolVarP(&cfg.Redo, "redo", "r", false, "Redo last undone run")

	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
}

func Execute() error {
	return rootCmd.Execute()
}
