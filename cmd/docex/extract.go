package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/docex/internal/api"
	"github.com/jackzampolin/docex/internal/config"
	"github.com/jackzampolin/docex/internal/export"
	"github.com/jackzampolin/docex/internal/extract"
	"github.com/jackzampolin/docex/internal/fields"
	"github.com/jackzampolin/docex/internal/providers"
)

var (
	extractMethod string
	extractFields string
	extractXLSX   string
)

// extractResult is one file's outcome on the command line.
type extractResult struct {
	File      string        `json:"file" yaml:"file"`
	Method    string        `json:"method" yaml:"method"`
	RawText   string        `json:"raw_text" yaml:"raw_text"`
	Fields    fields.Values `json:"fields" yaml:"fields"`
	ElapsedMS int64         `json:"elapsed_ms" yaml:"elapsed_ms"`
	Error     string        `json:"error,omitempty" yaml:"error,omitempty"`
	ErrorType string        `json:"error_type,omitempty" yaml:"error_type,omitempty"`
}

var extractCmd = &cobra.Command{
	Use:   "extract FILE...",
	Short: "Extract fields from local files without a server",
	Long: `Run extraction in-process on one or more local files.

Files are processed in order with the same backend the server uses.
A failing file is reported in the output and does not stop the batch;
the command exits non-zero if any file failed.

--fields takes JSON (or @file.json) in any accepted shape:
  '["invoice_number","total_amount"]'
  '{"total_amount":"float","vendor":"company that issued it"}'
  '{"tax_id":{"name":"Tax ID","type":"integer","description":"10 digits"}}'

Examples:
  docex extract invoice.pdf --fields '["total"]'
  docex extract scans/*.jpg --method hosted_vision --fields @fields.json --xlsx out.xlsx`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		method, err := extract.ParseMethod(extractMethod)
		if err != nil {
			return err
		}
		raw, err := api.ReadFieldsArg(extractFields)
		if err != nil {
			return err
		}
		var spec fields.Spec
		if err := json.Unmarshal(raw, &spec); err != nil {
			return fmt.Errorf("invalid fields: %w", err)
		}
		if spec.IsZero() {
			return errors.New("fields is required")
		}

		h, err := loadHome()
		if err != nil {
			return err
		}
		cfgMgr, err := config.NewManager(cfgFile, h.Path())
		if err != nil {
			return err
		}
		cfg := cfgMgr.Get()
		logger := newLogger(cfg.Log)

		registry := providers.NewRegistry()
		registry.SetLogger(logger)
		registry.Reload(cfg.ToProviderRegistryConfig())

		backend, err := buildBackend(ctx, cfg, h, registry, logger)
		if err != nil {
			return err
		}
		defer func() {
			backend.Close()
			backend.Store.Close()
		}()

		var (
			results []extractResult
			rows    []export.Row
			failed  int
		)
		for _, path := range args {
			res := extractResult{File: path, Method: method.String()}
			if !backend.Store.Allowed(path) {
				res.Error = fmt.Sprintf("unsupported file type %q", filepath.Ext(path))
				res.ErrorType = extract.ErrorTypeProcessing
				results = append(results, res)
				failed++
				continue
			}
			out, err := backend.Engine.Process(ctx, method, path, spec)
			if err != nil {
				res.Error = err.Error()
				res.ErrorType = extract.ErrorType(err)
				results = append(results, res)
				failed++
				continue
			}
			res.RawText = out.RawText
			res.Fields = out.Fields
			res.ElapsedMS = out.Elapsed.Milliseconds()
			results = append(results, res)
			rows = append(rows, export.Row{
				File:    filepath.Base(path),
				Method:  method.String(),
				Fields:  out.Fields,
				RawText: out.RawText,
			})
		}

		if extractXLSX != "" {
			path := extractXLSX
			if filepath.Base(path) == path {
				path = filepath.Join(h.ExportsDir(), path)
			}
			if err := writeWorkbook(path, rows); err != nil {
				return err
			}
			logger.Info("wrote workbook", "path", path, "rows", len(rows))
		}

		if err := api.Output(results); err != nil {
			return err
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d files failed", failed, len(args))
		}
		return nil
	},
}

func writeWorkbook(path string, rows []export.Row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create workbook: %w", err)
	}
	if err := export.WriteXLSX(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func init() {
	extractCmd.Flags().StringVar(&extractMethod, "method", string(extract.MethodLocal), "Recognition method: local_engine or hosted_vision")
	extractCmd.Flags().StringVar(&extractFields, "fields", "", "Fields to extract as JSON, or @file.json")
	extractCmd.MarkFlagRequired("fields")
	extractCmd.Flags().StringVar(&extractXLSX, "xlsx", "", "Also write successful results to this .xlsx file (bare names go to {home}/exports)")

	rootCmd.AddCommand(extractCmd)
}
