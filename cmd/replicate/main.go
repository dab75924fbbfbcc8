// Command replicate pushes the current guestbook record files to the
// configured replication backend once, outside the server. It is useful
// after an outage left the remote behind.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/helloiwashere/guestbook-backend/config"
	"github.com/helloiwashere/guestbook-backend/internal/replication"
	"github.com/helloiwashere/guestbook-backend/logger"
	"github.com/helloiwashere/guestbook-backend/store"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "List files that would be replicated without touching the remote")
	message := flag.String("message", "Sync guestbook records", "Commit message for the git backend")
	flag.Parse()

	logger.InitLogger()
	defer logger.Close()
	log := logger.GetLogger()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Store.Backend != config.StoreBackendFile {
		log.Fatalf("Replication needs the file store backend, got %q", cfg.Store.Backend)
	}

	var paths []string
	for _, kind := range []store.Kind{store.KindVisitor, store.KindFeedback} {
		name := kind.FileName()
		if _, err := os.Stat(filepath.Join(cfg.Store.DataDir, name)); err != nil {
			log.Warnw("Skipping missing record file", "file", name, "error", err)
			continue
		}
		paths = append(paths, name)
	}
	if len(paths) == 0 {
		log.Info("Nothing to replicate")
		return
	}

	if *dryRun {
		for i, p := range paths {
			fmt.Printf("  [%d/%d] %s\n", i+1, len(paths), p)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Replication.Timeout())
	defer cancel()

	var r replication.Replicator
	switch cfg.Replication.Backend {
	case config.ReplicationBackendGit:
		r, err = replication.NewGitReplicator(cfg.Store.DataDir, cfg.Replication.Git)
	case config.ReplicationBackendS3:
		var client *s3.Client
		client, err = replication.NewS3Client(ctx, cfg.Replication.S3)
		r = replication.NewS3Replicator(client, cfg.Store.DataDir, cfg.Replication.S3)
	default:
		err = fmt.Errorf("unknown replication backend %q", cfg.Replication.Backend)
	}
	if err != nil {
		log.Fatalf("Failed to create replicator: %v", err)
	}

	err = r.Replicate(ctx, replication.Change{Message: *message, Paths: paths, At: time.Now().UTC()})
	switch {
	case errors.Is(err, replication.ErrNothingToCommit):
		log.Infow("Remote already up to date", "backend", r.Name())
	case err != nil:
		log.Fatalw("Replication failed", "backend", r.Name(), "stage", replication.StageOf(err), "error", err)
	default:
		log.Infow("Replication complete", "backend", r.Name(), "files", len(paths))
	}
}
