package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/jask/pathoscreen/internal/catalog"
	"github.com/jask/pathoscreen/internal/config"
	"github.com/jask/pathoscreen/internal/database"
	"github.com/jask/pathoscreen/internal/database/repository"
	"github.com/jask/pathoscreen/internal/media"
	"github.com/jask/pathoscreen/internal/screening"
)

const usage = `usage: pathoscreen [command]

With no command the screening screen starts.

commands:
  analyze -image PATH -organ TEXT [-context TEXT] [-variant TAG]
  history [-n N] | history -id ID
  variants
  init [-force]
  token set [TOKEN] | token clear
`

var (
	headingColor = color.New(color.FgHiMagenta, color.Bold)
	labelColor   = color.New(color.Bold)
	okColor      = color.New(color.FgGreen)
	failColor    = color.New(color.FgRed, color.Bold)
	warnColor    = color.New(color.FgYellow)
	dimColor     = color.New(color.Faint)
)

var errUsage = errors.New("usage")

// runCommand dispatches a headless subcommand and returns the process exit code.
func runCommand(ctx context.Context, cfg config.Config, args []string, stdout, stderr io.Writer) int {
	var err error
	switch args[0] {
	case "analyze":
		err = withEnv(cfg, func(e *env) error { return cmdAnalyze(ctx, e, args[1:], stdout, stderr) })
	case "history":
		err = withEnv(cfg, func(e *env) error { return cmdHistory(ctx, e, args[1:], stdout, stderr) })
	case "variants":
		err = withEnv(cfg, func(e *env) error { return cmdVariants(e, stdout) })
	case "init":
		err = withEnv(cfg, func(e *env) error { return cmdInit(e, args[1:], stdout, stderr) })
	case "token":
		err = cmdToken(args[1:], os.Stdin, stdout)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		err = fmt.Errorf("unknown command %q: %w", args[0], errUsage)
	}
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		if !errors.Is(err, flag.ErrHelp) {
			failColor.Fprintln(stderr, err)
		}
		fmt.Fprint(stderr, usage)
		return 2
	default:
		failColor.Fprintln(stderr, "error:", err)
		return 1
	}
}

func withEnv(cfg config.Config, fn func(*env) error) error {
	e, err := setup(cfg)
	if err != nil {
		return err
	}
	defer e.Close()
	return fn(e)
}

func cmdAnalyze(ctx context.Context, e *env, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(stderr)
	image := fs.String("image", "", "path of the slide image")
	organ := fs.String("organ", "", "organ the slide was taken from")
	clinical := fs.String("context", "", "optional clinical context")
	variant := fs.String("variant", "", "model variant tag")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *image == "" {
		return fmt.Errorf("-image is required: %w", errUsage)
	}

	ctrl := e.newController()
	if *variant != "" && !ctrl.SelectTag(*variant) {
		return fmt.Errorf("unknown variant %q", *variant)
	}
	img, err := media.NewLibrary(filepath.Dir(*image)).Open(*image)
	if err != nil {
		if errors.Is(err, media.ErrNotImage) {
			n := screening.InvalidImageNotice(filepath.Base(*image))
			return fmt.Errorf("%s: %s", n.Title, n.Body)
		}
		return err
	}
	ctrl.SetImage(&img)
	e.rememberLibrary(filepath.Dir(img.URI))
	ctrl.SetOrgan(*organ)
	ctrl.SetClinicalContext(*clinical)

	req, ok := ctrl.Submit()
	if !ok {
		return fmt.Errorf("-organ is required: %w", errUsage)
	}
	if s, ok := screening.SuggestOrgan(req.Organ, screening.KnownOrgans); ok {
		warnColor.Fprintf(stderr, "note: organ %q looks like %q\n", req.Organ, s)
	}
	dimColor.Fprintf(stderr, "analyzing %s with %s...\n", img.Name, req.Variant.Title)

	res, runErr := e.analysis.Run(ctx, req)
	if runErr != nil {
		notice, _ := ctrl.OnFailure(req.ID, runErr)
		return fmt.Errorf("%s. %s (%w)", notice.Title, notice.Body, runErr)
	}
	ctrl.OnSuccess(req.ID, res)
	shown, _ := screening.NewPresenter(ctrl).Result()
	printResult(stdout, shown)
	return nil
}

func printResult(w io.Writer, res screening.AnalysisResult) {
	headingColor.Fprintln(w, "Analysis Results")
	for _, s := range []struct{ title, body string }{
		{"Observations", res.Observations},
		{"Preliminary Diagnosis", res.Diagnosis},
		{"Confidence Level", res.Confidence},
	} {
		fmt.Fprintln(w)
		labelColor.Fprintln(w, s.title)
		fmt.Fprintln(w, s.body)
	}
	fmt.Fprintln(w)
	warnColor.Fprintln(w, "Disclaimer")
	dimColor.Fprintln(w, res.Disclaimer)
}

func cmdHistory(ctx context.Context, e *env, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	fs.SetOutput(stderr)
	n := fs.Int("n", 20, "number of entries, 0 for all")
	id := fs.String("id", "", "show one attempt in full")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id != "" {
		return showAnalysis(ctx, e, *id, stdout)
	}
	rows, err := e.analysis.Recent(ctx, *n)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		dimColor.Fprintln(stdout, "no analyses yet")
		return nil
	}
	for _, r := range rows {
		mark, detail := okColor.Sprint("✓"), r.Diagnosis
		if r.Status != repository.StatusCompleted {
			mark, detail = failColor.Sprint("✗"), r.Error
		}
		fmt.Fprintf(stdout, "%s %s  %-3s %-14s %s  %s\n",
			mark, r.CreatedAt.Local().Format("2006-01-02 15:04"), r.Variant, r.Organ, detail, dimColor.Sprint(r.ID))
	}
	return nil
}

func showAnalysis(ctx context.Context, e *env, id string, stdout io.Writer) error {
	a, err := e.history.Get(ctx, strings.TrimSpace(id))
	if err != nil {
		return err
	}
	if a == nil {
		return fmt.Errorf("no analysis with id %q", id)
	}
	labelColor.Fprintf(stdout, "%s  %s  %s\n", a.Variant, a.Organ, a.CreatedAt.Local().Format("2006-01-02 15:04"))
	fmt.Fprintf(stdout, "image: %s\n", a.ImageName)
	if a.ClinicalContext != "" {
		fmt.Fprintf(stdout, "context: %s\n", a.ClinicalContext)
	}
	if a.Status != repository.StatusCompleted {
		failColor.Fprintln(stdout, "failed:", a.Error)
		return nil
	}
	fmt.Fprintln(stdout)
	printResult(stdout, screening.AnalysisResult{
		Observations: a.Observations,
		Diagnosis:    a.Diagnosis,
		Confidence:   a.Confidence,
		Disclaimer:   a.Disclaimer,
	})
	return nil
}

// cmdInit scaffolds the config and variants files from what is currently in effect.
// Existing files are kept unless -force is given.
func cmdInit(e *env, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(stderr)
	force := fs.Bool("force", false, "overwrite existing files")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if path := config.Path(); !*force && exists(path) {
		dimColor.Fprintln(stdout, "kept", path)
	} else {
		if err := config.Save(e.cfg); err != nil {
			return err
		}
		okColor.Fprintln(stdout, "wrote", path)
	}

	if path := e.cfg.Catalog.Path; strings.TrimSpace(path) == "" {
		warnColor.Fprintln(stdout, "catalog.path is empty, variants file skipped")
	} else if !*force && exists(path) {
		dimColor.Fprintln(stdout, "kept", path)
	} else {
		body, err := catalog.Render(e.catalog)
		if err != nil {
			return fmt.Errorf("render catalog: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("mkdir catalog dir: %w", err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			return fmt.Errorf("write catalog: %w", err)
		}
		okColor.Fprintln(stdout, "wrote", path)
	}

	v, dirty, err := database.Version(e.cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("schema version: %w", err)
	}
	if dirty {
		warnColor.Fprintf(stdout, "database %s at schema %d (dirty)\n", e.cfg.Database.Path, v)
		return nil
	}
	fmt.Fprintf(stdout, "database %s at schema %d\n", e.cfg.Database.Path, v)
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func cmdVariants(e *env, stdout io.Writer) error {
	def := e.catalog.Default()
	for _, t := range e.catalog.Tiers() {
		marker := " "
		if t.Variant.Tag == def.Tag {
			marker = "*"
		}
		line := fmt.Sprintf("%s %-4s %-12s %-24s %s", marker, t.Variant.Tag, t.Variant.Title, t.Variant.Description, t.Quota)
		if t.Quota.AtLimit() {
			warnColor.Fprintln(stdout, line+"  limit reached")
			continue
		}
		fmt.Fprintln(stdout, line)
	}
	return nil
}

func cmdToken(args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("token needs set or clear: %w", errUsage)
	}
	store, err := newTokenStore()
	if err != nil {
		return err
	}
	switch args[0] {
	case "set":
		tok := ""
		if len(args) > 1 {
			tok = args[1]
		} else {
			fmt.Fprint(stdout, "token: ")
			line, err := bufio.NewReader(stdin).ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			tok = line
		}
		if strings.TrimSpace(tok) == "" {
			return fmt.Errorf("empty token: %w", errUsage)
		}
		if err := store.Put(tokenName, tok); err != nil {
			return err
		}
		okColor.Fprintln(stdout, "token saved")
		return nil
	case "clear":
		if err := store.Delete(tokenName); err != nil {
			return err
		}
		okColor.Fprintln(stdout, "token cleared")
		return nil
	}
	return fmt.Errorf("unknown token action %q: %w", args[0], errUsage)
}
