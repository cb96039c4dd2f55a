package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/ecochat-research/analysis/internal/analysis"
	"github.com/ecochat-research/analysis/internal/config"
	"github.com/ecochat-research/analysis/internal/dataset"
	"github.com/ecochat-research/analysis/internal/logger"
	"github.com/ecochat-research/analysis/internal/report"
	"github.com/ecochat-research/analysis/internal/survey"
	"github.com/ecochat-research/analysis/internal/themes"
)

const usage = `usage: analyze <command> [flags]

Commands:
  experiment   analyze the controlled-experiment JSON export
  survey       analyze the user survey spreadsheet
  themes       classify sustainability free-text responses into themes
  all          run every analysis

Run "analyze <command> -h" for the flags of a command.`

// options collects the flags shared by the subcommands. Not every
// subcommand reads every field.
type options struct {
	inputDir   string
	surveyPath string
	outputRoot string
	styling    string
	questions  string
	themes     string
	logLevel   string
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cmd := os.Args[1]
	var err error
	switch cmd {
	case "experiment":
		err = runExperiment(parseFlags(cmd, os.Args[2:], true, false))
	case "survey":
		err = runSurvey(parseFlags(cmd, os.Args[2:], false, true))
	case "themes":
		err = runThemes(parseFlags(cmd, os.Args[2:], false, true))
	case "all":
		err = runAll(parseFlags(cmd, os.Args[2:], true, true))
	case "-h", "--help", "help":
		fmt.Println(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s\n", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Log.WithError(err).Fatalf("%s analysis failed", cmd)
	}
}

func parseFlags(cmd string, args []string, experiment, surveyInput bool) *options {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	opt := &options{}
	if experiment {
		fs.StringVar(&opt.inputDir, "input", "data", "directory holding the experiment JSON entity files")
	}
	if surveyInput {
		fs.StringVar(&opt.surveyPath, "survey", "survey.xlsx", "survey spreadsheet (.xlsx or .csv)")
	}
	fs.StringVar(&opt.outputRoot, "out", "analysis_output", "output root directory")
	fs.StringVar(&opt.styling, "styling", "", "chart styling config (YAML, optional)")
	fs.StringVar(&opt.questions, "questions", "", "survey question catalog (YAML, optional)")
	fs.StringVar(&opt.themes, "themes", "", "theme table config (YAML, optional)")
	fs.StringVar(&opt.logLevel, "log-level", os.Getenv("LOG_LEVEL"), "log level (debug, info, warn, error)")
	fs.Parse(args)

	logger.SetLevel(opt.logLevel)
	return opt
}

// loadStyling resolves the chart styling before any artifact is
// written; a present but unparsable config must abort the run.
func loadStyling(opt *options) (*config.Styling, error) {
	style, err := config.LoadStyling(opt.styling)
	if err != nil {
		return nil, err
	}
	return style, nil
}

func runExperiment(opt *options) error {
	style, err := loadStyling(opt)
	if err != nil {
		return err
	}
	out := report.NewOutput(opt.outputRoot)
	if err := experimentPipeline(opt, style, out); err != nil {
		return err
	}
	return finish(out, "experiment")
}

func experimentPipeline(opt *options, style *config.Styling, out *report.Output) error {
	ex, err := dataset.NewLoader(opt.inputDir).Load()
	if err != nil {
		return err
	}
	records, err := analysis.Normalize(ex.Prompts)
	if err != nil {
		return err
	}

	steps := []struct {
		name string
		run  func([]analysis.Record, *config.Styling, *report.Output) error
	}{
		{"energy", analysis.EnergyByMode},
		{"behavior", analysis.UserBehavior},
		{"tradeoffs", analysis.Tradeoffs},
		{"daily", analysis.DailyUsage},
		{"insights", analysis.KeyInsights},
	}
	for _, s := range steps {
		if err := s.run(records, style, out); err != nil {
			return fmt.Errorf("%s analysis: %w", s.name, err)
		}
	}
	return nil
}

func runSurvey(opt *options) error {
	style, err := loadStyling(opt)
	if err != nil {
		return err
	}
	catalog, err := config.LoadSurvey(opt.questions)
	if err != nil {
		return err
	}
	table, err := dataset.LoadSurveyTable(opt.surveyPath)
	if err != nil {
		return err
	}
	out := report.NewOutput(opt.outputRoot)
	if err := survey.NewAnalyzer(table, catalog, style, out).Run(); err != nil {
		return err
	}
	return finish(out, "survey")
}

func runThemes(opt *options) error {
	style, err := loadStyling(opt)
	if err != nil {
		return err
	}
	catalog, err := config.LoadSurvey(opt.questions)
	if err != nil {
		return err
	}
	themeTable, err := config.LoadThemeTable(opt.themes)
	if err != nil {
		return err
	}
	table, err := dataset.LoadSurveyTable(opt.surveyPath)
	if err != nil {
		return err
	}
	out := report.NewOutput(opt.outputRoot)
	if err := themes.NewAnalyzer(table, catalog, themeTable, style, out).Run(); err != nil {
		return err
	}
	return finish(out, "themes")
}

func runAll(opt *options) error {
	style, err := loadStyling(opt)
	if err != nil {
		return err
	}
	catalog, err := config.LoadSurvey(opt.questions)
	if err != nil {
		return err
	}
	themeTable, err := config.LoadThemeTable(opt.themes)
	if err != nil {
		return err
	}

	out := report.NewOutput(opt.outputRoot)
	if err := experimentPipeline(opt, style, out); err != nil {
		return err
	}

	table, err := dataset.LoadSurveyTable(opt.surveyPath)
	if err != nil {
		return err
	}
	if err := survey.NewAnalyzer(table, catalog, style, out).Run(); err != nil {
		return err
	}
	if err := themes.NewAnalyzer(table, catalog, themeTable, style, out).Run(); err != nil {
		return err
	}
	return finish(out, "all")
}

// finish writes the manifest and logs the artifact counts.
func finish(out *report.Output, cmd string) error {
	if _, err := out.WriteManifest(); err != nil {
		return err
	}
	counts := out.Summary()
	logger.Log.WithFields(logrus.Fields{
		"command": cmd,
		"run_id":  out.RunID(),
		"output":  out.Root(),
		"plots":   counts["plot"],
		"data":    counts["data"],
		"reports": counts["report"],
	}).Info("Analysis complete")
	return nil
}
