// Command planguard hosts the assistant lifecycle hooks (user-prompt,
// post-write) and the plan-validation/history CLI surface over a single
// binary, following cmd/specmcp's bootstrap shape (load config, build a
// stderr JSON logger, wire collaborators, dispatch) with cobra standing in
// for the hand-rolled flag parsing the spec treats as an external
// collaborator's concern.
//
// Required environment variables: none — every hook fails open without a
// configured Emergent token (duplicate-detection and guideline project
// patterns degrade gracefully).
//
// Optional environment variables:
//
//	PLANGUARD_CONFIG          - path to a planguard.toml config file
//	EMERGENT_URL, EMERGENT_TOKEN, EMERGENT_API_KEY (legacy alias)
//	PLANGUARD_LOG_LEVEL       - debug, info, warn, error (default: info)
//	PLANMODE_CONFIG_FILE, CLAUDE_PLAN_MODE_CONFIG (legacy alias)
//	PLANGUARD_COMPACT
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/rlefko/planguard/internal/autorevision"
	"github.com/rlefko/planguard/internal/config"
	"github.com/rlefko/planguard/internal/emergent"
	"github.com/rlefko/planguard/internal/guardrail"
	guardrailrules "github.com/rlefko/planguard/internal/guardrail/rules"
	"github.com/rlefko/planguard/internal/history"
	"github.com/rlefko/planguard/internal/hooks"
	"github.com/rlefko/planguard/internal/memory"
	"github.com/rlefko/planguard/internal/plan"
	"github.com/rlefko/planguard/internal/planmode"
	"github.com/rlefko/planguard/internal/rules/coderules"
	"github.com/rlefko/planguard/internal/workerpool"
	"github.com/spf13/cobra"
)

// version is set via ldflags at build time.
var version = "dev"

type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	cfg, err := config.Load(os.Getenv("PLANGUARD_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "planguard: loading config: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	a := &app{cfg: cfg, logger: logger}

	if err := a.rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "planguard: %v\n", err)
		os.Exit(1)
	}
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "planguard",
		Short:   "Rule engine, plan-mode pipeline, and design-doc parser hooks",
		Version: version,
	}

	root.AddCommand(a.userPromptHookCmd())
	root.AddCommand(a.postWriteHookCmd())
	root.AddCommand(a.validatePlanCmd())
	root.AddCommand(a.planCmd())

	return root
}

// userPromptHookCmd wires hooks.RunUserPromptHook to stdin/stdout, matching
// spec §6's "exit code 0 always" contract: it never returns a non-nil error.
func (a *app) userPromptHookCmd() *cobra.Command {
	var collection string

	cmd := &cobra.Command{
		Use:   "user-prompt-hook",
		Short: "Run the UserPromptSubmit hook over a JSON {prompt, cwd} document on stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			configFile := firstNonEmpty(os.Getenv("CLAUDE_PLAN_MODE_CONFIG"), os.Getenv("PLANMODE_CONFIG_FILE"), a.cfg.PlanMode.ConfigFile)
			compactEnv := truthyEnv("PLANGUARD_COMPACT") || a.cfg.PlanMode.CompactMode

			opts := hooks.UserPromptOptions{
				Collection:          collection,
				InjectionConfig:     hooks.LoadInjectionConfig(configFile, compactEnv),
				ConfidenceThreshold: planmode.ConfidenceThreshold,
				PlanModeContext:     &planmode.Context{},
			}
			hooks.RunUserPromptHook(cmd.InOrStdin(), cmd.OutOrStdout(), a.logger, opts)
			return nil
		},
	}
	cmd.Flags().StringVar(&collection, "collection", "project", "memory collection name used to build MCP tool-suggestion commands")
	return cmd
}

// postWriteHookCmd wires hooks.RunPostWriteHook; its RunE propagates the
// findings-present exit code via cobra's SilenceUsage + explicit os.Exit,
// since spec §6 requires exit 1 on findings without that meaning a cobra
// usage error.
func (a *app) postWriteHookCmd() *cobra.Command {
	var content string
	var hasContent bool
	var outputJSON bool

	cmd := &cobra.Command{
		Use:           "post-write-hook <file>",
		Short:         "Run the fast code rules against a single written file",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := coderules.NewEngine(coderules.All(), coderules.DefaultConfig(), a.logger)
			if err != nil {
				return err
			}

			var contentPtr *string
			if hasContent {
				contentPtr = &content
			}

			code := hooks.RunPostWriteHook(engine, cmd.OutOrStdout(), a.logger, args[0], contentPtr, outputJSON)
			if code != 0 {
				os.Exit(code)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&content, "content", "", "file content to check instead of reading from disk")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "emit a JSON result instead of a formatted text listing")
	cmd.PreRun = func(cmd *cobra.Command, args []string) {
		hasContent = cmd.Flags().Changed("content")
	}
	return cmd
}

// validatePlanCmd loads an ImplementationPlan from disk, runs the plan
// guardrail engine (optionally parallelized across worker_pool.size workers)
// and, when enabled, the auto-revision engine, then writes the result as JSON.
func (a *app) validatePlanCmd() *cobra.Command {
	var projectPath, collection string
	var revise, parallel bool

	cmd := &cobra.Command{
		Use:   "validate-plan <plan.json>",
		Short: "Run the plan guardrail engine (and optionally auto-revision) over a saved plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading plan: %w", err)
			}
			var p plan.ImplementationPlan
			if err := json.Unmarshal(data, &p); err != nil {
				return fmt.Errorf("parsing plan: %w", err)
			}

			engine, err := guardrail.NewEngine(guardrailrules.All(), guardrail.DefaultEngineConfig(), a.logger)
			if err != nil {
				return fmt.Errorf("building guardrail engine: %w", err)
			}

			ctx := &guardrail.Context{
				Plan:           &p,
				Config:         a.cfg.ToGuardrailConfig(),
				ProjectPath:    projectPath,
				Memory:         a.buildMemorySearcher(),
				CollectionName: collection,
			}

			var result guardrail.Result
			if parallel {
				result = engine.ValidateParallel(ctx, nil, workerpool.New(a.cfg.WorkerPool.Size))
			} else {
				result = engine.Validate(ctx, nil)
			}

			output := map[string]any{
				"findings":      result.Findings,
				"rules_run":     result.RulesRun,
				"rules_skipped": result.RulesSkipped,
				"errors":        result.Errors,
			}

			if revise && ctx.Config.AutoRevise {
				reviseEngine := autorevision.NewEngine(ctx.Config)
				revision := reviseEngine.Revise(p, result.Findings, time.Now())
				output["revised_plan"] = revision.Plan
				output["applied_revisions"] = revision.Applied
				output["skipped_revisions"] = revision.Skipped
				output["audit_trail"] = revision.FormatAuditTrail()
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(output)
		},
	}
	cmd.Flags().StringVar(&projectPath, "project-path", "", "project root used to resolve CLAUDE.md-style pattern files")
	cmd.Flags().StringVar(&collection, "collection", "project", "memory collection name for duplicate-detection search")
	cmd.Flags().BoolVar(&revise, "revise", false, "apply auto-revision to findings that support it")
	cmd.Flags().BoolVar(&parallel, "parallel", false, "evaluate rules in parallel across worker_pool.size workers")
	return cmd
}

// buildMemorySearcher wires internal/memory's EmergentSearcher when a token
// is configured, or returns nil so guardrail.Context.SearchMemory degrades
// to an empty result (spec §7 "external search failure... degrades to no
// findings; no error surfaces").
func (a *app) buildMemorySearcher() memory.Searcher {
	if a.cfg.Emergent.Token == "" {
		return nil
	}
	client, err := emergent.NewClient(a.cfg.Emergent.URL, a.cfg.Emergent.Token, a.logger)
	if err != nil {
		a.logger.Warn("failed to build emergent client, memory search disabled", "error", err)
		return nil
	}
	return memory.NewEmergentSearcher(client, a.logger)
}

// planCmd groups the revision-history persistence operations (spec §4.11):
// snapshot, rollback, list.
func (a *app) planCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "plan",
		Short: "Plan snapshot/rollback/history operations",
	}
	root.AddCommand(a.planSnapshotCmd())
	root.AddCommand(a.planRollbackCmd())
	root.AddCommand(a.planListCmd())
	return root
}

func (a *app) persistence() (*history.Persistence, error) {
	return history.NewPersistence(a.cfg.History.StorageDir)
}

func (a *app) planSnapshotCmd() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "snapshot <name>",
		Short: "Save the current plan and append a history snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			p, mgr, err := a.loadPlanAndHistory(name)
			if err != nil {
				return err
			}

			if _, err := mgr.CreateSnapshot(p, description, time.Now()); err != nil {
				return fmt.Errorf("creating snapshot: %w", err)
			}

			persist, err := a.persistence()
			if err != nil {
				return err
			}
			if _, err := persist.SavePlan(p, name); err != nil {
				return fmt.Errorf("saving plan: %w", err)
			}
			if _, err := persist.SaveHistoryManager(mgr, name); err != nil {
				return fmt.Errorf("saving history: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "snapshot version %d saved for %q\n", mgr.NextVersion-1, name)
			return nil
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "human-readable snapshot description")
	return cmd
}

func (a *app) planRollbackCmd() *cobra.Command {
	var preserveHistory bool

	cmd := &cobra.Command{
		Use:   "rollback <name> <version>",
		Short: "Restore a plan to a previously snapshotted version",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			var version int
			if _, err := fmt.Sscanf(args[1], "%d", &version); err != nil {
				return fmt.Errorf("invalid version %q: %w", args[1], err)
			}

			p, mgr, err := a.loadPlanAndHistory(name)
			if err != nil {
				return err
			}

			restored, err := mgr.RollbackToVersion(p, version, preserveHistory)
			if err != nil {
				return fmt.Errorf("rolling back: %w", err)
			}

			persist, err := a.persistence()
			if err != nil {
				return err
			}
			if _, err := persist.SavePlan(restored, name); err != nil {
				return fmt.Errorf("saving plan: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(restored)
		},
	}
	cmd.Flags().BoolVar(&preserveHistory, "preserve-history", true, "keep the full revision history instead of truncating to the snapshot point")
	return cmd
}

func (a *app) planListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <name>",
		Short: "List saved snapshot versions for a plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, mgr, err := a.loadPlanAndHistory(args[0])
			if err != nil {
				return err
			}
			for _, v := range mgr.ListVersions() {
				fmt.Fprintf(cmd.OutOrStdout(), "v%d  %s  %s\n", v.Version, v.CreatedAt, v.Description)
			}
			return nil
		},
	}
	return cmd
}

func (a *app) loadPlanAndHistory(name string) (plan.ImplementationPlan, *history.Manager, error) {
	persist, err := a.persistence()
	if err != nil {
		return plan.ImplementationPlan{}, nil, err
	}

	p, ok, err := persist.LoadPlan(name)
	if err != nil {
		return plan.ImplementationPlan{}, nil, fmt.Errorf("loading plan: %w", err)
	}
	if !ok {
		return plan.ImplementationPlan{}, nil, fmt.Errorf("no plan saved under name %q", name)
	}

	mgr, ok, err := persist.LoadHistoryManager(name)
	if err != nil {
		return plan.ImplementationPlan{}, nil, fmt.Errorf("loading history: %w", err)
	}
	if !ok {
		mgr = history.NewManager()
	}

	return p, mgr, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func truthyEnv(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "true" || v == "1" || v == "yes"
}
