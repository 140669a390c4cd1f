// =============================================================================
// GSTR-2B Reconciler - Pipeline Module
// =============================================================================
//
// This module orchestrates one reconciliation run, from reading the two input
// files to writing the reconciliation workbook.
//
// PIPELINE:
//   1. Load the GSTR-2B and Books files (concurrently)
//   2. Fill unmapped fields from header suggestions
//   3. Validate both column mappings
//   4. Apply transformation rules to the raw cells
//   5. Normalize rows into records
//   6. Report data quality warnings
//   7. Reconcile
//   8. Write the workbook, summary log and validation log
//
// A dry run stops after step 7.
//
// =============================================================================

package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ginjaninja78/gstr2b-reconciliation/internal/config"
	"github.com/ginjaninja78/gstr2b-reconciliation/internal/loader"
	"github.com/ginjaninja78/gstr2b-reconciliation/internal/mapping"
	"github.com/ginjaninja78/gstr2b-reconciliation/internal/normalizer"
	"github.com/ginjaninja78/gstr2b-reconciliation/internal/reconciler"
	"github.com/ginjaninja78/gstr2b-reconciliation/internal/transform"
	"github.com/ginjaninja78/gstr2b-reconciliation/internal/types"
	"github.com/ginjaninja78/gstr2b-reconciliation/internal/validation"
	"github.com/ginjaninja78/gstr2b-reconciliation/internal/xlsxwriter"
	"github.com/ginjaninja78/gstr2b-reconciliation/pkg/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// =============================================================================
// OUTCOME STRUCTURE
// =============================================================================

// Outcome represents the result of one reconciliation run.
type Outcome struct {
	// RunID identifies the run in logs, the workbook and the summary log.
	RunID string

	// Result is the reconciliation result. It is zero if the run failed
	// before reconciling.
	Result reconciler.Result

	// TwoB and Books describe what was read from each input.
	TwoB  DatasetOutcome
	Books DatasetOutcome

	// OutputFile is the path to the workbook. Empty for dry runs and
	// failed runs.
	OutputFile string

	// SummaryFile is the path to the text summary log.
	SummaryFile string

	// ValidationLog is the path to the validation log, written only when
	// validation reported something.
	ValidationLog string

	// Tolerance is the amount tolerance that was applied.
	Tolerance string

	// Validation holds every mapping and record validation finding.
	Validation []*validation.ValidationError

	// Success indicates whether the run completed.
	Success bool

	// Error contains the error if the run failed.
	Error error

	Stats Stats
}

// DatasetOutcome describes one loaded dataset.
type DatasetOutcome struct {
	Name    string
	Path    string
	Headers []string

	// Mapping is the effective mapping after auto-mapping.
	Mapping types.Mapping

	// Rows is the number of non-empty data rows read.
	Rows int
}

// Stats contains timings of a run.
type Stats struct {
	LoadTime      time.Duration
	ReconcileTime time.Duration
	TotalTime     time.Duration
}

// =============================================================================
// PIPELINE STRUCTURE
// =============================================================================

// Pipeline runs a reconciliation described by a configuration.
type Pipeline struct {
	cfg    *config.MainConfig
	logger zerolog.Logger
	dryRun bool

	// now and newID are replaced in tests.
	now   func() time.Time
	newID func() uuid.UUID
}

// New creates a new Pipeline. The configuration is expected to have its
// defaults applied (see config.LoadMainConfig).
func New(cfg *config.MainConfig, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		newID:  uuid.New,
	}
}

// WithDryRun skips writing any file when dryRun is true.
func (p *Pipeline) WithDryRun(dryRun bool) *Pipeline {
	p.dryRun = dryRun
	return p
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the pipeline.
//
// RETURNS:
//   - An Outcome. Failures are reported through Outcome.Error, with whatever
//     was collected before the failure.
func (p *Pipeline) Run() Outcome {
	startTime := p.now()
	id := p.newID()
	outcome := p.newOutcome(id)
	log := p.logger.With().Str("run_id", outcome.RunID).Logger()

	fail := func(err error) Outcome {
		outcome.Error = err
		outcome.Stats.TotalTime = p.now().Sub(startTime)
		log.Error().Err(err).Msg("reconciliation failed")
		return outcome
	}

	twoBTable, booksTable, err := p.prepare(log, &outcome)
	if err != nil {
		return fail(err)
	}

	// =========================================================================
	// STEP 4-5: TRANSFORM AND NORMALIZE
	// =========================================================================

	twoB, err := normalize(p.cfg.TwoB, twoBTable, outcome.TwoB.Mapping)
	if err != nil {
		return fail(err)
	}
	books, err := normalize(p.cfg.Books, booksTable, outcome.Books.Mapping)
	if err != nil {
		return fail(err)
	}

	// =========================================================================
	// STEP 6: DATA QUALITY
	// =========================================================================
	// Record-level findings are warnings and never stop the run.

	for _, ds := range []struct {
		name    string
		records []types.Record
		m       types.Mapping
	}{
		{outcome.TwoB.Name, twoB, outcome.TwoB.Mapping},
		{outcome.Books.Name, books, outcome.Books.Mapping},
	} {
		vr := validation.ValidateRecords(ds.name, ds.records, ds.m)
		outcome.Validation = append(outcome.Validation, vr.Errors...)
		for rule, n := range vr.Counts {
			log.Warn().Str("dataset", ds.name).Str("rule", rule).Int("count", n).Msg("data quality issue")
		}
	}

	// =========================================================================
	// STEP 7: RECONCILE
	// =========================================================================

	opts := reconciler.DefaultOptions()
	if p.cfg.Tolerance != nil {
		opts.Tolerance = *p.cfg.Tolerance
	}

	outcome.Tolerance = opts.Tolerance.String()

	reconcileStart := p.now()
	outcome.Result = reconciler.ReconcileWithOptions(twoB, books, opts)
	outcome.Stats.ReconcileTime = p.now().Sub(reconcileStart)

	s := outcome.Result.Summary
	log.Info().
		Int("exact", s.ExactMatches).
		Int("mismatch", s.ValueMismatches).
		Int("missing_in_books", s.MissingInBooks).
		Int("missing_in_2b", s.MissingIn2B).
		Int("probable", s.ProbableMatches).
		Int("duplicate_2b", s.Duplicate2B).
		Int("duplicate_books", s.DuplicateBooks).
		Dur("elapsed", outcome.Stats.ReconcileTime).
		Msg("reconciliation complete")

	if p.dryRun {
		log.Info().Msg("dry run, no files written")
		outcome.Success = true
		outcome.Stats.TotalTime = p.now().Sub(startTime)
		return outcome
	}

	// =========================================================================
	// STEP 8: WRITE OUTPUT FILES
	// =========================================================================

	if err := utils.EnsureDir(p.cfg.OutputDir); err != nil {
		return fail(err)
	}

	fileName := utils.GenerateOutputFileNameAt(p.cfg.OutputNameFormat, nil, startTime, id)
	outputPath := filepath.Join(p.cfg.OutputDir, fileName)

	writeOptions := xlsxwriter.DefaultWriteOptions()
	writeOptions.TwoBHeaders = twoBTable.Headers
	writeOptions.BooksHeaders = booksTable.Headers
	writeOptions.Details = [][2]string{
		{"Run ID", outcome.RunID},
		{"Generated", startTime.Format(time.RFC3339)},
		{"Tolerance", outcome.Tolerance},
		{outcome.TwoB.Name + " File", outcome.TwoB.Path},
		{outcome.Books.Name + " File", outcome.Books.Path},
	}

	if err := xlsxwriter.WriteWithOptions(outcome.Result, outputPath, writeOptions); err != nil {
		return fail(fmt.Errorf("failed to write workbook: %w", err))
	}
	outcome.OutputFile = outputPath
	log.Info().Str("path", outputPath).Msg("wrote workbook")

	if len(outcome.Validation) > 0 {
		logPath := filepath.Join(p.cfg.OutputDir, strings.TrimSuffix(fileName, filepath.Ext(fileName))+"_validation.log")
		if err := validation.WriteErrorLog(outcome.Validation, logPath); err != nil {
			// The workbook is already written.
			log.Warn().Err(err).Msg("failed to write validation log")
		} else {
			outcome.ValidationLog = logPath
		}
	}

	outcome.Stats.TotalTime = p.now().Sub(startTime)
	summaryPath, err := utils.WriteSummaryLog(runSummary(outcome, startTime), p.cfg.OutputDir)
	if err != nil {
		log.Warn().Err(err).Msg("failed to write summary log")
	} else {
		outcome.SummaryFile = summaryPath
	}

	outcome.Success = true
	return outcome
}

// Check loads both datasets and validates their column mappings without
// reconciling or writing anything.
func (p *Pipeline) Check() Outcome {
	startTime := p.now()
	outcome := p.newOutcome(p.newID())
	log := p.logger.With().Str("run_id", outcome.RunID).Logger()

	if _, _, err := p.prepare(log, &outcome); err != nil {
		outcome.Error = err
	} else {
		outcome.Success = true
	}

	outcome.Stats.TotalTime = p.now().Sub(startTime)
	return outcome
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// prepare runs steps 1 to 3 and records what it finds in outcome.
func (p *Pipeline) prepare(log zerolog.Logger, outcome *Outcome) (*types.Table, *types.Table, error) {
	// =========================================================================
	// STEP 1: LOAD DATASETS
	// =========================================================================
	// Both files are read in their own goroutine.

	log.Info().Str("twob", p.cfg.TwoB.Path).Str("books", p.cfg.Books.Path).Msg("loading datasets")

	loadStart := p.now()
	tables, err := loadBoth(p.cfg.TwoB, p.cfg.Books)
	outcome.Stats.LoadTime = p.now().Sub(loadStart)
	if err != nil {
		return nil, nil, err
	}
	twoBTable, booksTable := tables[0], tables[1]

	outcome.TwoB.Headers, outcome.TwoB.Rows = twoBTable.Headers, len(twoBTable.Rows)
	outcome.Books.Headers, outcome.Books.Rows = booksTable.Headers, len(booksTable.Rows)

	log.Debug().
		Int("twob_rows", outcome.TwoB.Rows).
		Int("books_rows", outcome.Books.Rows).
		Dur("elapsed", outcome.Stats.LoadTime).
		Msg("datasets loaded")

	// =========================================================================
	// STEP 2: AUTO-MAP COLUMNS
	// =========================================================================
	// Only fields left empty in the configuration are filled.

	outcome.TwoB.Mapping = p.cfg.TwoB.Mapping
	outcome.Books.Mapping = p.cfg.Books.Mapping

	if p.cfg.AutoMap == nil || *p.cfg.AutoMap {
		suggester, err := mapping.New(p.cfg.Suggester)
		if err != nil {
			return nil, nil, err
		}
		outcome.TwoB.Mapping = mapping.Fill(outcome.TwoB.Mapping, suggester.Suggest(twoBTable.Headers))
		outcome.Books.Mapping = mapping.Fill(outcome.Books.Mapping, suggester.Suggest(booksTable.Headers))
	}

	logMapping(log, outcome.TwoB)
	logMapping(log, outcome.Books)

	// =========================================================================
	// STEP 3: VALIDATE MAPPINGS
	// =========================================================================
	// A required field without a column stops the run.

	outcome.Validation = append(outcome.Validation,
		validation.ValidateMapping(outcome.TwoB.Name, outcome.TwoB.Mapping, twoBTable.Headers)...)
	outcome.Validation = append(outcome.Validation,
		validation.ValidateMapping(outcome.Books.Name, outcome.Books.Mapping, booksTable.Headers)...)

	for _, ve := range outcome.Validation {
		log.Warn().Str("rule", ve.Rule).Msg(ve.Error())
	}

	if validation.HasErrors(outcome.Validation) {
		return nil, nil, fmt.Errorf("column mapping is incomplete:\n%s", validation.FormatErrors(outcome.Validation))
	}

	return twoBTable, booksTable, nil
}

func (p *Pipeline) newOutcome(id uuid.UUID) Outcome {
	return Outcome{
		RunID: id.String(),
		TwoB:  DatasetOutcome{Name: p.cfg.TwoB.Name, Path: p.cfg.TwoB.Path},
		Books: DatasetOutcome{Name: p.cfg.Books.Name, Path: p.cfg.Books.Path},
	}
}

// loadBoth reads the two datasets concurrently. The first error, in dataset
// order, is returned.
func loadBoth(datasets ...config.DatasetConfig) ([]*types.Table, error) {
	tables := make([]*types.Table, len(datasets))
	errs := make([]error, len(datasets))

	var wg sync.WaitGroup
	for i, ds := range datasets {
		wg.Add(1)
		go func(i int, ds config.DatasetConfig) {
			defer wg.Done()
			tables[i], errs[i] = loader.Load(ds)
		}(i, ds)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", datasets[i].Name, err)
		}
	}
	return tables, nil
}

// normalize applies the dataset's transformation rules and normalizes the
// result. Original on every record points at the untransformed row.
func normalize(ds config.DatasetConfig, table *types.Table, m types.Mapping) ([]types.Record, error) {
	transformer, err := transform.New(ds.TransformationRules)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ds.Name, err)
	}

	rows := table.Rows
	if !transformer.Empty() {
		rows = transformer.ApplyAll(table.Rows)
	}

	records := normalizer.Normalize(rows, m)
	for i := range records {
		records[i].Original = table.Rows[i]
	}
	return records, nil
}

func logMapping(log zerolog.Logger, ds DatasetOutcome) {
	event := log.Debug().Str("dataset", ds.Name)
	for _, f := range types.Fields {
		event = event.Str(string(f), ds.Mapping.Get(f))
	}
	event.Msg("column mapping")
}

func runSummary(outcome Outcome, startTime time.Time) utils.RunSummary {
	values := xlsxwriter.SummaryValues(outcome.Result.Summary)
	counts := make([]utils.Count, len(values))
	for i, v := range values {
		counts[i] = utils.Count{Label: xlsxwriter.SummaryLabels[i], Value: v}
	}

	var errCount, warnCount int
	for _, ve := range outcome.Validation {
		if ve.Severity == validation.SeverityError {
			errCount++
		} else {
			warnCount++
		}
	}

	return utils.RunSummary{
		RunID:              outcome.RunID,
		StartTime:          startTime,
		EndTime:            startTime.Add(outcome.Stats.TotalTime),
		TwoBFile:           outcome.TwoB.Path,
		BooksFile:          outcome.Books.Path,
		Tolerance:          outcome.Tolerance,
		Counts:             counts,
		OutputFile:         outcome.OutputFile,
		ValidationErrors:   errCount,
		ValidationWarnings: warnCount,
	}
}
