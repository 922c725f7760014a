package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/config"
	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/logger"
	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/model"
	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/service/cutoff"
	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/service/excel"
	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/service/pipeline"
)

// buildOptions 离线整理参数
type buildOptions struct {
	Output  string
	Rules   string
	Carrier string
	POL     string
	POD     string
	Source  string
	Inputs  []string
}

var buildFlags buildOptions

var buildCmd = &cobra.Command{
	Use:   "build [flags] inputs...",
	Short: "Build a schedule workbook from xlsx/csv/json files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := config.LoadFile(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger.SetLevel(cfg.Log.Level)

		opts := buildFlags
		opts.Inputs = args
		_, err = runBuild(cfg, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		return err
	},
}

func init() {
	f := buildCmd.Flags()
	f.StringVarP(&buildFlags.Output, "output", "o", "", "输出文件 (默认 Shipping_Schedule_YYYYMMDD.xlsx)")
	f.StringVar(&buildFlags.Rules, "rules", "", "航线截关规则表 xlsx (默认使用配置文件中的规则)")
	f.StringVar(&buildFlags.Carrier, "carrier", "", "表格缺少 CARRIER 列时的默认船司")
	f.StringVar(&buildFlags.POL, "pol", "", "表格缺少 POL 列时的默认装货港")
	f.StringVar(&buildFlags.POD, "pod", "", "表格缺少 POD 列时的默认目的港")
	f.StringVar(&buildFlags.Source, "source", string(model.SourceManual), "JSON 输入的数据来源 (upload/ai_extraction/scrape/manual)")
	rootCmd.AddCommand(buildCmd)
}

// runBuild 读取输入、处理并写出工作簿；告警写入 errOut
func runBuild(cfg *config.AppConfig, opts buildOptions, out, errOut io.Writer) (*pipeline.Result, error) {
	log := logger.New("build")

	rules := cfg.Rules.Seed
	if opts.Rules != "" {
		r, err := readRules(opts.Rules)
		if err != nil {
			return nil, err
		}
		rules = r
	}

	var records []model.RawRecord
	for _, path := range opts.Inputs {
		recs, err := readInput(path, opts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		log.Debugf("read %d records from %s", len(recs), path)
		records = append(records, recs...)
	}

	res, err := pipeline.New(cfg.PipelineOptions()).Run(pipeline.Batch{
		Records: records,
		Rules:   cutoff.NewRuleTable(rules),
	})
	if err != nil {
		return nil, err
	}

	output := opts.Output
	if output == "" {
		output = excel.DefaultFileName(time.Now())
	}
	if err := excel.NewExporter().SaveAs(res.Workbook, output); err != nil {
		return nil, fmt.Errorf("write %s: %w", output, err)
	}

	for _, w := range res.Warnings {
		fmt.Fprintln(errOut, w.String())
	}
	fmt.Fprintf(out, "%s: %d rows (%d input, %d rejected, %d duplicates, %d warnings)\n",
		output, res.Stats.Output, res.Stats.Input, res.Stats.Rejected, res.Stats.Duplicates, len(res.Warnings))
	for _, s := range res.Workbook.Summaries() {
		fmt.Fprintf(out, "  %-31s %d\n", s.Name, s.Rows)
	}
	return res, nil
}

func readRules(path string) ([]model.ServiceCutoffRule, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open rules %s: %w", path, err)
	}
	defer wb.Close()
	return excel.ReadRuleTable(wb)
}

func readInput(path string, opts buildOptions) ([]model.RawRecord, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return readJSON(path, model.SourceMedium(opts.Source))
	case ".xlsx", ".xlsm", ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		res, err := excel.ParseUpload(f, excel.ParseOptions{
			Filename: filepath.Base(path),
			Carrier:  opts.Carrier,
			POL:      opts.POL,
			POD:      opts.POD,
		})
		if err != nil {
			return nil, err
		}
		return res.Records, nil
	}
	return nil, errors.New("unsupported file type (want .xlsx, .csv or .json)")
}

// readJSON 读取 JSON 数组形式的松散记录
func readJSON(path string, source model.SourceMedium) ([]model.RawRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	records := make([]model.RawRecord, 0, len(rows))
	for i, row := range rows {
		records = append(records, model.RawRecord{
			Source: source,
			Origin: model.EntryOrigin{File: filepath.Base(path), Row: i + 1},
			Fields: row,
		})
	}
	return records, nil
}
