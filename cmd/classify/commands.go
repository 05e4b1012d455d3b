package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"resume-roles/internal/analysis"
	"resume-roles/internal/classify"
	"resume-roles/internal/extract"
	"resume-roles/internal/queue"
	"resume-roles/internal/results"
	localstore "resume-roles/internal/shared/storage/object/local"
	"resume-roles/internal/shared/telemetry"
)

type options struct {
	modelDir  string
	uploadDir string
	noColor   bool

	skills string
	output string

	name           string
	jobDescription string
	jdFile         string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "classify",
		Short:         "Classify resumes into job roles with the pre-trained model",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				color.NoColor = true
			}
			telemetry.SetOutput(stderr)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&opts.modelDir, "model-dir", envOr("MODEL_DIR", "./models"), "Directory holding manifest.yaml and the model files")
	root.PersistentFlags().StringVar(&opts.uploadDir, "upload-dir", "", "Where copies of the resumes are written (default: a temp dir)")
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	batchCmd := &cobra.Command{
		Use:   "batch [resume files...]",
		Short: "Classify several resumes against a skills list and write CSV",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd.Context(), opts, args, stdout, stderr)
		},
	}
	batchCmd.Flags().StringVarP(&opts.skills, "skills", "s", "", "Required skills, prepended to every resume")
	batchCmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write CSV to this file ('-' for stdout)")
	_ = batchCmd.MarkFlagRequired("skills")
	root.AddCommand(batchCmd)

	singleCmd := &cobra.Command{
		Use:   "single [resume file]",
		Short: "Classify one resume against a job description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSingle(cmd.Context(), opts, args[0], stdout, stderr)
		},
	}
	singleCmd.Flags().StringVarP(&opts.name, "name", "n", "", "Candidate name")
	singleCmd.Flags().StringVarP(&opts.jobDescription, "job-description", "j", "", "Job description text")
	singleCmd.Flags().StringVarP(&opts.jdFile, "job-file", "f", "", "Read the job description from a file")
	_ = singleCmd.MarkFlagRequired("name")
	root.AddCommand(singleCmd)

	return root
}

func newService(opts *options) (*analysis.Service, func(), error) {
	model, err := classify.Load(opts.modelDir)
	if err != nil {
		return nil, nil, fmt.Errorf("load model: %w", err)
	}

	cleanup := func() {}
	dir := opts.uploadDir
	if dir == "" {
		tmp, err := os.MkdirTemp("", "resume-roles-*")
		if err != nil {
			return nil, nil, fmt.Errorf("temp dir: %w", err)
		}
		dir = tmp
		cleanup = func() { _ = os.RemoveAll(tmp) }
	}

	return &analysis.Service{
		Store:      localstore.New(dir),
		Extractor:  extract.Documents{},
		Classifier: model,
		Results:    results.NewMemoryRepo(),
		Notifier:   queue.Noop{},
	}, cleanup, nil
}

func runBatch(ctx context.Context, opts *options, paths []string, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	svc, cleanup, err := newService(opts)
	if err != nil {
		return err
	}
	defer cleanup()

	uploads := make([]analysis.Upload, 0, len(paths))
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return fmt.Errorf("open %s: %w", p, err)
		}
		defer f.Close()
		uploads = append(uploads, analysis.Upload{FileName: filepath.Base(p), Body: f})
	}

	res, err := svc.AnalyzeBatch(ctx, analysis.BatchRequest{Skills: opts.skills, Resumes: uploads})
	if err != nil {
		return err
	}
	printRecords(stderr, res.Records)

	export, err := svc.ExportCSV(ctx)
	if err != nil {
		return err
	}
	switch opts.output {
	case "":
		return nil
	case "-":
		_, err = stdout.Write(export.Body)
		return err
	default:
		if err := os.WriteFile(opts.output, export.Body, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", opts.output, err)
		}
		fmt.Fprintf(stderr, "%s wrote %s\n", color.GreenString("✓"), opts.output)
		return nil
	}
}

func runSingle(ctx context.Context, opts *options, path string, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	jd := opts.jobDescription
	if opts.jdFile != "" {
		raw, err := os.ReadFile(opts.jdFile)
		if err != nil {
			return fmt.Errorf("read job file: %w", err)
		}
		jd = string(raw)
	}

	svc, cleanup, err := newService(opts)
	if err != nil {
		return err
	}
	defer cleanup()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	records, err := svc.AnalyzeSingle(ctx, analysis.SingleRequest{
		Name:           opts.name,
		JobDescription: jd,
		Resume:         &analysis.Upload{FileName: filepath.Base(path), Body: f},
	})
	if err != nil {
		return err
	}
	for _, rec := range records {
		fmt.Fprintf(stdout, "%s\t%s\n", rec.Filename, rec.Prediction)
	}
	return nil
}

func printRecords(w io.Writer, records []results.Record) {
	width := 0
	for _, rec := range records {
		if len(rec.Filename) > width {
			width = len(rec.Filename)
		}
	}
	for _, rec := range records {
		label := color.CyanString(rec.Prediction)
		if rec.Prediction == results.SentinelUnreadable {
			label = color.YellowString(rec.Prediction)
		}
		fmt.Fprintf(w, "%s  %s\n", rec.Filename+strings.Repeat(" ", width-len(rec.Filename)), label)
	}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
