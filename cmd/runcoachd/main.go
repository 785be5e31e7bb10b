// runcoachd watches an inbox directory for new track recordings, imports
// them into the workout history on a cron schedule and serves a small web
// API over the log.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	runcoach "github.com/strideworks/runcoach"
	"github.com/strideworks/runcoach/history"
)

type app struct {
	store    *history.Store
	cron     *cron.Cron
	server   *http.Server
	inboxDir string
	shutdown chan os.Signal
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	a := &app{shutdown: make(chan os.Signal, 1)}
	if err := a.init(); err != nil {
		log.Fatal("Failed to initialize: ", err)
	}
	a.start()

	signal.Notify(a.shutdown, os.Interrupt, syscall.SIGTERM)
	<-a.shutdown

	a.stop()
}

func (a *app) init() error {
	dbPath := envOr("DB_PATH", "./runcoach.db")
	store, err := history.Open(dbPath)
	if err != nil {
		return err
	}
	a.store = store

	a.inboxDir = envOr("INBOX_DIR", "./inbox")
	if err := os.MkdirAll(a.inboxDir, 0o755); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(a.inboxDir, "imported"), 0o755); err != nil {
		return err
	}

	a.cron = cron.New()
	schedule := envOr("IMPORT_SCHEDULE", "@every 5m")
	if _, err := a.cron.AddFunc(schedule, func() {
		if n, err := a.importInbox(); err != nil {
			log.Println("import run failed:", err)
		} else if n > 0 {
			log.Printf("imported %d recording(s)", n)
		}
	}); err != nil {
		return err
	}

	router := gin.Default()
	a.registerRoutes(router)
	a.server = &http.Server{
		Addr:    envOr("LISTEN_ADDR", ":8080"),
		Handler: router,
	}
	return nil
}

func (a *app) start() {
	a.cron.Start()
	go func() {
		log.Println("listening on", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Println("server error:", err)
		}
	}()
}

func (a *app) stop() {
	log.Println("shutting down")
	a.cron.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.server.Shutdown(ctx); err != nil {
		log.Println("server shutdown:", err)
	}
	if err := a.store.Close(); err != nil {
		log.Println("store close:", err)
	}
}

func (a *app) registerRoutes(router *gin.Engine) {
	router.GET("/", a.handleStats)
	router.GET("/workouts", a.handleList)
	router.GET("/workouts/:id", a.handleGet)
	router.POST("/import", a.handleImport)
}

func (a *app) handleStats(c *gin.Context) {
	stats, err := a.store.Stats()
	if err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (a *app) handleList(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	if limit <= 0 {
		limit = 50
	}

	records, err := a.store.List(limit, offset)
	if err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (a *app) handleGet(c *gin.Context) {
	rec, err := a.store.Get(c.Param("id"))
	if err == history.ErrNotFound {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}
	if err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (a *app) handleImport(c *gin.Context) {
	n, err := a.importInbox()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": n})
}

// importInbox parses every recording in the inbox and moves processed files
// into inbox/imported. A file that fails to parse is left in place and
// logged so it can be inspected.
func (a *app) importInbox() (int, error) {
	entries, err := os.ReadDir(a.inboxDir)
	if err != nil {
		return 0, err
	}

	imported := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".tcx" && ext != ".fit" {
			continue
		}

		path := filepath.Join(a.inboxDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("read %s: %v", entry.Name(), err)
			continue
		}

		activity, err := runcoach.ParseAuto(data)
		if err != nil {
			log.Printf("skip %s: %v", entry.Name(), err)
			continue
		}

		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		rec, err := a.store.Save(name, activity)
		if err != nil {
			log.Printf("save %s: %v", entry.Name(), err)
			continue
		}

		dest := filepath.Join(a.inboxDir, "imported", entry.Name())
		if err := os.Rename(path, dest); err != nil {
			log.Printf("move %s: %v", entry.Name(), err)
		}
		log.Printf("imported %s as %s", entry.Name(), rec.ID)
		imported++
	}
	return imported, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
