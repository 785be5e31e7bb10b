package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	runcoach "github.com/strideworks/runcoach"
	"github.com/strideworks/runcoach/coach"
	"github.com/strideworks/runcoach/export"
	"github.com/strideworks/runcoach/history"
)

func main() {
	var (
		inPath    = flag.String("in", "", "Path to input .tcx or .fit recording")
		name      = flag.String("name", "", "Workout name (defaults to the file name)")
		outDir    = flag.String("out", "", "Write an export bundle into this directory")
		format    = flag.String("format", "parquet", "Chart series format: parquet|csv")
		dbPath    = flag.String("db", "", "Save the workout into this history database")
		askCoach  = flag.Bool("coach", false, "Request remote coaching commentary (needs COACH_API_URL)")
		goal      = flag.String("goal", "", "Training goal passed to the coach")
		overwrite = flag.Bool("overwrite", true, "Allow writing into non-empty output directories")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s --in run.tcx [--out outdir] [--db history.db] [--coach]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if strings.TrimSpace(*inPath) == "" {
		flag.Usage()
		os.Exit(2)
	}

	// Optional .env for coach credentials; system environment otherwise.
	_ = godotenv.Load()

	data, err := os.ReadFile(*inPath)
	if err != nil {
		fatal("read recording: %v", err)
	}

	activity, err := runcoach.ParseAuto(data)
	if err != nil {
		fatal("parse recording: %v", err)
	}

	fmt.Println(runcoach.BuildCoachingNotes(activity))

	if *outDir != "" {
		res, err := export.Write(activity, export.Options{
			OutDir:    *outDir,
			Format:    *format,
			Overwrite: *overwrite,
		})
		if err != nil {
			fatal("export bundle: %v", err)
		}
		fmt.Printf("\nBundle written to %s\n", res.OutputDir)
	}

	workoutName := *name
	if workoutName == "" {
		workoutName = strings.TrimSuffix(filepath.Base(*inPath), filepath.Ext(*inPath))
	}

	var saved *history.Record
	var store *history.Store
	if *dbPath != "" {
		store, err = history.Open(*dbPath)
		if err != nil {
			fatal("open history: %v", err)
		}
		defer store.Close()

		saved, err = store.Save(workoutName, activity)
		if err != nil {
			fatal("save workout: %v", err)
		}
		fmt.Printf("Saved workout %s\n", saved.ID)
	}

	if *askCoach {
		client, err := coach.NewClient(coach.ConfigFromEnv())
		if err != nil {
			fatal("coach: %v", err)
		}
		commentary, err := client.Commentary(context.Background(), activity, *goal)
		if err != nil {
			fatal("coach commentary: %v", err)
		}
		fmt.Printf("\nCoach\n%s\n", commentary)

		if store != nil && saved != nil {
			if err := store.AttachNarrative(saved.ID, "coach", commentary); err != nil {
				fatal("attach narrative: %v", err)
			}
		}
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "runcoach: "+format+"\n", args...)
	os.Exit(1)
}
