// Package export writes an analysis bundle for a parsed activity: a JSON
// summary, a per-kilometer split table and the downsampled chart series in
// parquet or CSV.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	parquetlocal "github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	runcoach "github.com/strideworks/runcoach"
)

// Options configures one bundle write.
type Options struct {
	OutDir    string
	Format    string // parquet|csv for the chart series
	Overwrite bool
}

// Result returns generated output paths.
type Result struct {
	OutputDir   string `json:"output_dir"`
	SummaryPath string `json:"summary_path"`
	SplitsPath  string `json:"splits_path"`
	SeriesPath  string `json:"series_path"`
}

// Write writes the full bundle for one activity.
func Write(a *runcoach.ParsedActivity, opts Options) (*Result, error) {
	if a == nil {
		return nil, fmt.Errorf("export: nil activity")
	}
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, fmt.Errorf("export: output directory is required")
	}
	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "parquet"
	}
	if format != "parquet" && format != "csv" {
		return nil, fmt.Errorf("export: unsupported format %q (expected parquet|csv)", format)
	}

	if err := ensureOutputDir(opts.OutDir, opts.Overwrite); err != nil {
		return nil, err
	}

	res := &Result{OutputDir: opts.OutDir}

	res.SummaryPath = filepath.Join(opts.OutDir, "activity_summary.json")
	if err := writeJSON(res.SummaryPath, a); err != nil {
		return nil, fmt.Errorf("export: write activity_summary.json: %w", err)
	}

	res.SplitsPath = filepath.Join(opts.OutDir, "splits.csv")
	if err := writeSplitsCSV(res.SplitsPath, a.Splits); err != nil {
		return nil, fmt.Errorf("export: write splits.csv: %w", err)
	}

	res.SeriesPath = filepath.Join(opts.OutDir, "chart_series."+format)
	switch format {
	case "csv":
		if err := writeSeriesCSV(res.SeriesPath, a.Series); err != nil {
			return nil, fmt.Errorf("export: write chart series csv: %w", err)
		}
	case "parquet":
		if err := writeSeriesParquet(res.SeriesPath, a.Series); err != nil {
			return nil, fmt.Errorf("export: write chart series parquet: %w", err)
		}
	}

	return res, nil
}

func ensureOutputDir(path string, overwrite bool) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("export: create output directory: %w", err)
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("export: read output directory: %w", err)
	}
	if len(entries) > 0 && !overwrite {
		return fmt.Errorf("export: output directory is not empty: %s", path)
	}
	return nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeSplitsCSV(path string, splits []runcoach.Split) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"km", "duration_s", "distance_m", "avg_hr_bpm", "avg_cadence_spm", "pace_s_per_km"}); err != nil {
		return err
	}
	for _, s := range splits {
		row := []string{
			strconv.Itoa(s.Index),
			formatFloat(s.DurationSec),
			formatFloat(s.DistanceM),
			strconv.Itoa(s.AvgHeartRate),
			strconv.Itoa(s.AvgCadence),
			formatFloat(s.PaceSecPerKm),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeSeriesCSV(path string, series []runcoach.DataPoint) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"distance_m", "altitude_m", "hr_bpm", "cadence_spm"}); err != nil {
		return err
	}
	for _, p := range series {
		row := []string{
			formatFloat(p.DistanceM),
			formatFloat(p.AltitudeM),
			strconv.Itoa(p.HeartRate),
			strconv.Itoa(p.Cadence),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

type seriesParquetRow struct {
	DistanceM  float64 `parquet:"name=distance_m, type=DOUBLE"`
	AltitudeM  float64 `parquet:"name=altitude_m, type=DOUBLE"`
	HRBPM      int32   `parquet:"name=hr_bpm, type=INT32"`
	CadenceSPM int32   `parquet:"name=cadence_spm, type=INT32"`
}

func writeSeriesParquet(path string, series []runcoach.DataPoint) error {
	fw, err := parquetlocal.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	pw, err := writer.NewParquetWriter(fw, new(seriesParquetRow), 4)
	if err != nil {
		fw.Close()
		return err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, p := range series {
		row := seriesParquetRow{
			DistanceM:  p.DistanceM,
			AltitudeM:  p.AltitudeM,
			HRBPM:      int32(p.HeartRate),
			CadenceSPM: int32(p.Cadence),
		}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			fw.Close()
			return err
		}
	}
	if err := pw.WriteStop(); err != nil {
		fw.Close()
		return err
	}
	return fw.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
