package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hearthd/hearthd"
	"github.com/hearthd/hearthd/internal/logging"
	"github.com/hearthd/hearthd/internal/tui"
	"github.com/hearthd/hearthd/pkg/domain"
	"github.com/hearthd/hearthd/pkg/schema"
)

var setupCmd = &cobra.Command{
	Use:   "setup [handler]",
	Short: "Run a configuration wizard interactively",
	Long: `Walks through an integration's configuration wizard on the terminal.
Without an argument it lists the available handlers.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}

		logger := logging.NewNop()
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			logger = logging.New(logging.ParseLevel("debug"))
		}

		hub := newHub(cfg, logger)
		ctx := cmd.Context()
		if err := hub.Restore(ctx); err != nil {
			fmt.Printf("Error restoring entries: %v\n", err)
			os.Exit(1)
		}

		if len(args) == 0 {
			fmt.Println("Available handlers:")
			for _, d := range hub.Handlers.Domains() {
				fmt.Println("- " + d)
			}
			return
		}

		w := tui.NewWizard()
		tui.PrintBanner(hearthd.Version)

		if err := runWizard(ctx, hub, w, args[0]); err != nil {
			w.Errorf("Setup failed: %v", err)
			os.Exit(1)
		}
	},
}

func runWizard(ctx context.Context, hub *hearthd.Hub, w *tui.Wizard, handler string) error {
	result, err := hub.ConfigFlows.Start(ctx, handler,
		map[string]any{domain.ContextSource: domain.SourceUser}, nil)
	if err != nil {
		return err
	}

	for {
		switch result.Type {
		case domain.ResultForm:
			input, err := promptForm(w, result)
			if err != nil {
				return err
			}
			result, err = hub.ConfigFlows.Advance(ctx, result.FlowID, input)
			if err != nil {
				return err
			}

		case domain.ResultCreateEntry:
			w.Successf("Created entry %q (%s)", result.Title, result.EntryID)
			return nil

		case domain.ResultAbort:
			w.Errorf("Setup aborted: %s", result.Reason)
			return nil

		case domain.ResultExternalStep:
			w.Markdown(fmt.Sprintf("Continue in your browser: <%s>\n\nPress enter when done.", result.URL))
			if _, _, err := w.Ask(schema.FieldDescriptor{Name: "done", Type: "string"}); err != nil {
				return err
			}
			result, err = hub.ConfigFlows.Advance(ctx, result.FlowID, nil)
			if err != nil {
				return err
			}

		case domain.ResultShowProgress:
			w.Markdown(fmt.Sprintf("Working: %s ...", result.ProgressAction))
			result, err = hub.ConfigFlows.Advance(ctx, result.FlowID, nil)
			if err != nil {
				return err
			}

		case domain.ResultProgressDone:
			result, err = hub.ConfigFlows.Advance(ctx, result.FlowID, nil)
			if err != nil {
				return err
			}

		default:
			return fmt.Errorf("unexpected result type %q", result.Type)
		}
	}
}

// promptForm renders the step and asks for each field, re-prompting on
// unparseable input.
func promptForm(w *tui.Wizard, result domain.StepResult) (map[string]any, error) {
	var md strings.Builder
	fmt.Fprintf(&md, "## %s: %s\n", result.Handler, result.StepID)
	for key, val := range result.DescriptionPlaceholders {
		fmt.Fprintf(&md, "- %s: %s\n", key, val)
	}
	w.Markdown(md.String())

	for field, msg := range result.Errors {
		w.Errorf("%s: %s", field, msg)
	}

	input := make(map[string]any)
	for _, field := range schema.Encode(result.Schema) {
		for {
			val, ok, err := w.Ask(field)
			if err != nil {
				w.Errorf("%v", err)
				continue
			}
			if ok {
				input[field.Name] = val
			}
			break
		}
	}
	return input, nil
}

func init() {
	rootCmd.AddCommand(setupCmd)
	setupCmd.Flags().Bool("debug", false, "Log engine activity to stderr")
}
