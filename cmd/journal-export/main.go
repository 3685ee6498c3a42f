// Command journal-export writes the monster transition journal as CSV.
//
//	journal-export [-config config/config.yaml] [-room basement] [-session id] [-monster 1] [-since 24h] [-o out.csv]
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"time"

	"github.com/DSnider-CodeSample/TCTB-CodeSample/audit"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/config"
	dbadapter "github.com/DSnider-CodeSample/TCTB-CodeSample/db"
	"go.uber.org/zap"
)

func main() {
	cfgPath := flag.String("config", "config/config.yaml", "server config file")
	room := flag.String("room", "", "only this room")
	sessionID := flag.String("session", "", "only this room session")
	monster := flag.Int64("monster", 0, "only this monster id")
	since := flag.Duration("since", 0, "only transitions newer than this")
	out := flag.String("o", "", "output file (default stdout)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		logger.Fatal("open db", zap.Error(err))
	}

	var w io.Writer = os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			logger.Fatal("create output", zap.Error(err))
		}
		defer f.Close()
		w = f
	}

	filter := audit.ExportFilter{RoomID: *room, SessionID: *sessionID, MonsterID: *monster}
	if *since > 0 {
		filter.Since = time.Now().Add(-*since)
	}
	n, err := audit.ExportCSV(context.Background(), db, filter, w)
	if err != nil {
		logger.Fatal("export journal", zap.Error(err))
	}
	logger.Info("journal exported", zap.Int("rows", n), zap.String("output", *out))
}
