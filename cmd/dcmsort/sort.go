package main

import (
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"dcmsort/pkg/anonymize"
	"dcmsort/pkg/dicom"
	"dcmsort/pkg/logging"
	"dcmsort/pkg/rules"
	"dcmsort/pkg/sorter"
)

// missingIDLog collects PatientIDs absent from the correlation table
const missingIDLog = "missing_patient_ids.log"

var (
	dicomIn       string
	dicomOut      string
	rulesPath     string
	anonymizeFlag bool
	correlation   string
	moveFlag      bool
	forceFlag     bool
	workers       int
)

var sortCmd = &cobra.Command{
	Use:   "sort",
	Short: "Classify and relocate DICOM files",
	Long: `Walks the input directory, classifies every DICOM file against the
rule list, and copies (or moves) it into the output hierarchy. Files no
rule matches are placed in an "unclassified" bucket; files that are not
parseable DICOM are logged and skipped.

Configuration problems - an unreadable or malformed rule file, a
malformed correlation file - abort before any input file is touched.`,
	RunE: runSort,
}

func init() {
	sortCmd.Flags().StringVar(&dicomIn, "dicomin", "", "Path to the input directory containing unsorted DICOM files")
	sortCmd.Flags().StringVar(&dicomOut, "dicomout", "", "Path to the output directory for sorted files")
	sortCmd.Flags().StringVar(&rulesPath, "rules", "", "Path to the rule file (json, yaml, or toml); built-in rules when omitted")
	sortCmd.Flags().BoolVar(&anonymizeFlag, "anonymize", false, "Clear PatientName and PatientBirthDate on output")
	sortCmd.Flags().StringVar(&correlation, "ID_correlation", "", "Optional file mapping old PatientIDs to new ones (oldID,newID per line)")
	sortCmd.Flags().BoolVar(&moveFlag, "move", false, "Move files instead of copying them")
	sortCmd.Flags().BoolVar(&forceFlag, "force", false, "Overwrite existing destination files")
	sortCmd.Flags().IntVar(&workers, "workers", 0, "Number of parallel workers (default: half the CPUs, at least 2)")

	_ = sortCmd.MarkFlagRequired("dicomin")
	_ = sortCmd.MarkFlagRequired("dicomout")
}

func runSort(cmd *cobra.Command, args []string) error {
	start := time.Now()
	defer logging.LogDuration(start, "sort")

	ruleList, err := loadRules()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load rules")
		return err
	}

	var table anonymize.Table
	if correlation != "" {
		table, err = anonymize.LoadTable(correlation)
		if err != nil {
			log.Error().Err(err).Msg("Failed to load correlation table")
			return err
		}
	}

	redactor := anonymize.NewRedactor(anonymizeFlag, table)
	s := sorter.New(rules.NewResolver(ruleList), redactor, dicom.NewDecoder(), sorter.Options{
		InputDir:  dicomIn,
		OutputDir: dicomOut,
		Move:      moveFlag,
		Force:     forceFlag,
		Workers:   workers,
	})

	interactive := isatty.IsTerminal(os.Stdout.Fd())
	var bar *pterm.ProgressbarPrinter
	if interactive {
		var barMu sync.Mutex
		s.OnWalk(func(total int) {
			bar, _ = pterm.DefaultProgressbar.WithTotal(total).WithTitle("Sorting").Start()
		})
		s.OnProgress(func() {
			barMu.Lock()
			defer barMu.Unlock()
			if bar != nil {
				bar.Increment()
			}
		})
	}

	summary, err := s.Run(cmd.Context())
	if bar != nil {
		_, _ = bar.Stop()
	}
	if err != nil {
		log.Error().Err(err).Msg("Sort run aborted")
		return err
	}

	if err := redactor.WriteMissingLog(missingIDLog); err != nil {
		log.Warn().Err(err).Msg("Failed to write missing-ID log")
	}

	printSummary(summary, interactive)
	return nil
}

func loadRules() ([]rules.Rule, error) {
	if rulesPath == "" {
		log.Info().Msg("No rule file given, using built-in rules")
		return rules.DefaultRules(), nil
	}
	return rules.Load(rulesPath)
}

func printSummary(summary sorter.Summary, interactive bool) {
	if interactive {
		pterm.DefaultSection.Println("Sort complete")
		pterm.Info.Printfln("files found:  %d", summary.Found)
		pterm.Info.Printfln("sorted:       %d", summary.Sorted)
		pterm.Info.Printfln("unclassified: %d", summary.Unclassified)
		pterm.Info.Printfln("skipped:      %d", summary.Skipped)
		if summary.Failed > 0 {
			pterm.Warning.Printfln("failed:       %d", summary.Failed)
		}
		return
	}

	log.Info().
		Int64("found", summary.Found).
		Int64("sorted", summary.Sorted).
		Int64("unclassified", summary.Unclassified).
		Int64("skipped", summary.Skipped).
		Int64("failed", summary.Failed).
		Msg("Sort complete")
}
