// Command mock-collaborators serves stand-ins for the relevance evaluator and
// the Pathway document store so the service can run without real backends.
package main

import (
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/common/logger"
)

func main() {
	addr := flag.String("addr", envOr("MOCK_ADDR", ":8081"), "listen address")
	corpus := flag.String("corpus", os.Getenv("MOCK_CORPUS"), "directory of .txt/.md files served by /v1/retrieve")
	flag.Parse()

	if err := logger.Init(logger.LevelInfo, "console"); err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	store, err := loadCorpus(*corpus)
	if err != nil {
		logger.Errorf("mock: load corpus: %v", err)
		os.Exit(1)
	}
	srv := &http.Server{
		Addr:              *addr,
		Handler:           newRouter(store),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Infof("mock collaborators listening on %s (%d passages)", *addr, len(store.passages))
	if err := srv.ListenAndServe(); err != nil {
		logger.Errorf("mock: %v", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
