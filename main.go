// translate-dir — manage a directory-translation project: a source
// directory in one language, mirrored into any number of target
// language directories with AI translation of the translatable files.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/DobbiKov/prototype-translate-dir-cli/i18n"
	"github.com/DobbiKov/prototype-translate-dir-cli/language"
	"github.com/DobbiKov/prototype-translate-dir-cli/mirror"
	"github.com/DobbiKov/prototype-translate-dir-cli/pattern"
	"github.com/DobbiKov/prototype-translate-dir-cli/project"
	"github.com/DobbiKov/prototype-translate-dir-cli/settings"
	"github.com/DobbiKov/prototype-translate-dir-cli/translate"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	projectPath string
	apiKeyFlag  string
)

// errItemsFailed signals that a bulk command had per-item failures;
// the outcomes were already printed, so main only sets the exit code.
var errItemsFailed = errors.New("some items failed")

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "translate-dir",
		Short: "Directory translation project manager with AI translation",
		Long: `translate-dir — manage a directory-translation project.

A project pairs one source directory with any number of target language
directories mirroring its structure. Files are marked translatable
(sent to the AI translation provider) or untranslatable (copied as-is
by sync).

Typical session:
  translate-dir init mydocs
  translate-dir project set-source src english
  translate-dir project add-target-lang french
  translate-dir project mark-translatable "src/**.md" notes.txt
  translate-dir project mark-untranslatable "src/images/*"
  translate-dir project sync
  translate-dir project translate-all french`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newInitCmd(),
		newProjectCmd(),
		newAuthCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errItemsFailed) {
			logError("%v", err)
		}
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("translate-dir version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// init (create a new project)
// ---------------------------------------------------------------------------

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init NAME",
		Short: "Initialize a new translation project",
		Long: `Create a new translation project in the target directory (default ".").
The project state is stored in ` + project.StateFileName + ` at the project root.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := project.Init(args[0], projectPath)
			if err != nil {
				return err
			}
			logSuccess("initialized project %q in %s", p.Name(), p.Root())
			return nil
		},
	}
	cmd.Flags().StringVarP(&projectPath, "path", "p", ".", "Project directory")
	return cmd
}

// ---------------------------------------------------------------------------
// project (all operations on an existing project)
// ---------------------------------------------------------------------------

func newProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"p"},
		Short:   "Operate on an existing translation project",
	}
	cmd.PersistentFlags().StringVarP(&projectPath, "path", "p", ".", "Project directory")

	cmd.AddCommand(
		newSetSourceCmd(),
		newAddTargetLangCmd(),
		newRemoveTargetLangCmd(),
		newSyncCmd(),
		newMarkCmd(project.Translatable),
		newMarkCmd(project.Untranslatable),
		newListTranslatableCmd(),
		newTranslateFileCmd(),
		newTranslateAllCmd(),
		newInfoCmd(),
	)
	return cmd
}

// loadProject loads the project at --path.
func loadProject() (*project.Project, error) {
	p, err := project.Load(projectPath)
	if err != nil {
		if errors.Is(err, project.ErrNotFound) {
			return nil, fmt.Errorf("%w — run 'translate-dir init' first or pass --path", err)
		}
		return nil, err
	}
	return p, nil
}

// saveProject persists the project, downgrading to an error the caller returns.
func saveProject(p *project.Project) error {
	if err := p.Save(); err != nil {
		return fmt.Errorf("saving project state: %w", err)
	}
	return nil
}

func newSetSourceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-source DIR LANGUAGE",
		Short: "Set the source directory and its language (once per project)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang, err := language.Parse(args[1])
			if err != nil {
				return err
			}
			p, err := loadProject()
			if err != nil {
				return err
			}
			if err := p.SetSource(args[0], lang); err != nil {
				return err
			}
			if err := saveProject(p); err != nil {
				return err
			}
			logSuccess("source directory set to %q with language %s", args[0], lang.Display())
			return nil
		},
	}
}

func newAddTargetLangCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-target-lang LANGUAGE",
		Short: "Add a target language (creates its directory)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang, err := language.Parse(args[0])
			if err != nil {
				return err
			}
			p, err := loadProject()
			if err != nil {
				return err
			}
			if err := p.AddLanguage(lang); err != nil {
				return err
			}
			if err := saveProject(p); err != nil {
				return err
			}
			logSuccess("added target language %s", lang.Display())
			return nil
		},
	}
}

func newRemoveTargetLangCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-target-lang LANGUAGE",
		Short: "Remove a target language (keeps its directory contents)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang, err := language.Parse(args[0])
			if err != nil {
				return err
			}
			p, err := loadProject()
			if err != nil {
				return err
			}
			dir, dirErr := p.LangPath(lang)
			if err := p.RemoveLanguage(lang); err != nil {
				return err
			}
			if err := saveProject(p); err != nil {
				return err
			}
			logSuccess("removed target language %s", lang.Display())
			if dirErr == nil {
				logInfo("directory %s was kept; delete it manually if no longer needed", dir)
			}
			return nil
		},
	}
}

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Mirror untranslatable files into every target language directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject()
			if err != nil {
				return err
			}
			report, err := mirror.Sync(p)
			if err != nil {
				return err
			}
			if len(report.Pruned) > 0 {
				for _, rel := range report.Pruned {
					logWarning("pruned %s (source file no longer exists)", rel)
				}
				if err := saveProject(p); err != nil {
					return err
				}
			}

			for _, f := range report.Failed {
				logError("copying %s to %s: %v", f.Path, f.Language, f.Err)
			}
			if len(report.Copied) > 0 {
				logSuccess("%s", syncSummary(report))
			} else {
				logInfo("%s", syncSummary(report))
			}
			if len(report.Failed) > 0 {
				return errItemsFailed
			}
			return nil
		},
	}
}

// syncSummary renders the one-line outcome of a sync pass. An empty
// project (no untranslatable entries or no target languages) gets its
// own message instead of a zero-filled tally.
func syncSummary(report *mirror.Report) string {
	switch {
	case report.IsNothingToDo() && report.UpToDate == 0:
		return i18n.T("Nothing to synchronize.")
	case report.IsNothingToDo():
		return i18n.T("Everything up to date.")
	default:
		return fmt.Sprintf("%s, %d up to date",
			fmt.Sprintf(i18n.N("%d file copied", "%d files copied", len(report.Copied)), len(report.Copied)),
			report.UpToDate)
	}
}

// newMarkCmd builds mark-translatable or mark-untranslatable; both
// share the pattern-resolution and tally logic.
func newMarkCmd(status project.Status) *cobra.Command {
	action := "mark-translatable"
	short := "Mark files or glob patterns as translatable"
	if status == project.Untranslatable {
		action = "mark-untranslatable"
		short = "Mark files or glob patterns as untranslatable"
	}

	return &cobra.Command{
		Use:   action + " PATTERN...",
		Short: short,
		Long: short + `.

Accepts multiple file paths or glob patterns (e.g. "*.txt", "docs/*.md").
Shells may expand globs themselves; quote them to let translate-dir
resolve them: "src/*.md".`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject()
			if err != nil {
				return err
			}
			return runMark(p, args, status)
		},
	}
}

// runMark resolves patterns and marks every matched file, collecting
// per-item outcomes instead of stopping at the first failure.
func runMark(p *project.Project, patterns []string, status project.Status) error {
	var (
		successCount int
		errorCount   int
		noMatch      []string
	)

	for _, res := range pattern.Match("", patterns) {
		if res.Err != nil {
			logError("%v", res.Err)
			errorCount++
			continue
		}
		if res.NoMatch {
			noMatch = append(noMatch, res.Pattern)
			continue
		}
		for _, path := range res.Paths {
			if err := p.Mark(path, status); err != nil {
				logError("marking %q as %s: %v", path, status, err)
				errorCount++
				continue
			}
			logSuccess("marked %q as %s", path, status)
			successCount++
		}
	}

	for _, pat := range noMatch {
		logWarning("no files matched pattern %q", pat)
	}

	if successCount > 0 {
		if err := saveProject(p); err != nil {
			return err
		}
	}

	logInfo("%s summary: %d successful, %d errors", status, successCount, errorCount)
	if errorCount > 0 {
		return errItemsFailed
	}
	return nil
}

func newListTranslatableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-translatable",
		Short: "List all files marked translatable",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject()
			if err != nil {
				return err
			}
			files, err := p.TranslatableFiles()
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Println(i18n.T("No translatable files found."))
				return nil
			}
			fmt.Println(i18n.T("Translatable files:"))
			for _, f := range files {
				fmt.Printf("  %s\n", f)
			}
			return nil
		},
	}
}

// ---------------------------------------------------------------------------
// translate-file / translate-all
// ---------------------------------------------------------------------------

// resolveAPIKey finds the provider API key:
// --api-key flag > TRANSLATE_DIR_API_KEY > GOOGLE_API_KEY > credential store.
func resolveAPIKey() string {
	if apiKeyFlag != "" {
		return apiKeyFlag
	}
	for _, env := range []string{"TRANSLATE_DIR_API_KEY", "GOOGLE_API_KEY"} {
		if key := os.Getenv(env); key != "" {
			return key
		}
	}
	return settings.GetAPIKey("google")
}

// newPipeline builds the translation pipeline, enforcing the
// credential gate before any file is touched.
func newPipeline(p *project.Project, opts translate.Options) (*translate.Pipeline, error) {
	provider, err := translate.NewGoogleProvider(resolveAPIKey())
	if err != nil {
		return nil, fmt.Errorf("%w — set --api-key, TRANSLATE_DIR_API_KEY, or run 'translate-dir auth login'", err)
	}
	return translate.New(p, provider, opts), nil
}

func newTranslateFileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translate-file FILE LANGUAGE",
		Short: "Translate one file into a target language",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang, err := language.Parse(args[1])
			if err != nil {
				return err
			}
			p, err := loadProject()
			if err != nil {
				return err
			}
			pipe, err := newPipeline(p, translate.Options{OnLog: logInfo})
			if err != nil {
				return err
			}

			logInfo("translating %q to %s...", args[0], lang.Display())
			if err := pipe.TranslateFile(cmd.Context(), args[0], lang); err != nil {
				return err
			}
			logSuccess("translated %q to %s", args[0], lang.Display())
			return nil
		},
	}
	cmd.Flags().StringVar(&apiKeyFlag, "api-key", "", "Provider API key (overrides env and stored credentials)")
	return cmd
}

func newTranslateAllCmd() *cobra.Command {
	var maxConcurrent int

	cmd := &cobra.Command{
		Use:   "translate-all LANGUAGE",
		Short: "Translate every translatable file into a target language",
		Long: `Translate every file marked translatable into the target language.

Files are submitted in manifest order through a bounded worker pool.
A failed file is reported and skipped; the remaining files are still
translated. The exit code is non-zero when any file failed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang, err := language.Parse(args[0])
			if err != nil {
				return err
			}
			p, err := loadProject()
			if err != nil {
				return err
			}

			files, err := p.TranslatableFiles()
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Println(i18n.T("No translatable files found."))
				return nil
			}

			bar := progressbar.NewOptions(len(files),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription(fmt.Sprintf("[cyan]translating to %s[reset]", lang.Code())),
			)

			pipe, err := newPipeline(p, translate.Options{
				MaxConcurrent: maxConcurrent,
				OnProgress:    func(done, total int) { _ = bar.Set(done) },
			})
			if err != nil {
				return err
			}

			summary, err := pipe.TranslateAll(cmd.Context(), lang)
			if err != nil {
				return err
			}
			_ = bar.Finish()
			fmt.Fprintln(os.Stderr)

			for _, r := range summary.Results {
				if r.Err != nil {
					logError("%s: %v", r.Path, r.Err)
				}
			}
			logInfo("translate-all summary: %d successful, %d errors", summary.Succeeded, summary.Failed)
			if summary.Failed > 0 {
				return errItemsFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&apiKeyFlag, "api-key", "", "Provider API key (overrides env and stored credentials)")
	cmd.Flags().IntVar(&maxConcurrent, "max-concurrent", 3, "Maximum concurrent translation requests")
	return cmd
}

// ---------------------------------------------------------------------------
// info
// ---------------------------------------------------------------------------

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show project configuration and manifest statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject()
			if err != nil {
				return err
			}

			fmt.Println(i18n.T("Project Information:"))
			fmt.Printf("  Name:             %s\n", p.Name())
			fmt.Printf("  Root:             %s\n", p.Root())

			if src := p.Source(); src != nil {
				fmt.Printf("  Source directory: %s\n", src.Dir)
				fmt.Printf("  Source language:  %s\n", src.Language.Display())
			} else {
				fmt.Printf("  Source directory: not set\n")
			}

			langs := p.Languages()
			if len(langs) == 0 {
				fmt.Printf("  Target languages: none\n")
			} else {
				fmt.Printf("  Target languages:\n")
				for _, ld := range langs {
					fmt.Printf("    - %s -> %s%c\n", ld.Language.Display(), ld.Dir, os.PathSeparator)
				}
			}

			translatable, untranslatable := p.ManifestCounts()
			fmt.Printf("  Manifest:         %d translatable, %d untranslatable\n", translatable, untranslatable)
			return nil
		},
	}
}

// ---------------------------------------------------------------------------
// auth (manage provider credentials)
// ---------------------------------------------------------------------------

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage translation provider credentials",
	}
	cmd.AddCommand(newAuthLoginCmd(), newAuthLogoutCmd(), newAuthStatusCmd())
	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login API_KEY",
		Short: "Store the provider API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.TrimSpace(args[0])
			if key == "" {
				return fmt.Errorf("API key is empty")
			}
			if err := settings.SetAPIKey("google", key); err != nil {
				return err
			}
			logSuccess("stored API key %s in %s", settings.MaskKey(key), settings.FilePath())
			return nil
		},
	}
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored provider API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := settings.Remove("google"); err != nil {
				return err
			}
			logSuccess("removed stored credentials")
			return nil
		},
	}
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show where credentials come from",
		Run: func(cmd *cobra.Command, args []string) {
			for _, env := range []string{"TRANSLATE_DIR_API_KEY", "GOOGLE_API_KEY"} {
				if key := os.Getenv(env); key != "" {
					logInfo("using %s from environment (%s)", env, settings.MaskKey(key))
					return
				}
			}
			if key := settings.GetAPIKey("google"); key != "" {
				logInfo("using stored key %s from %s", settings.MaskKey(key), settings.FilePath())
				return
			}
			logWarning("%s", i18n.T("No API key configured."))
		},
	}
}
