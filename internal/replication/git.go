package replication

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/helloiwashere/guestbook-backend/config"
	"github.com/helloiwashere/guestbook-backend/logger"
	"go.uber.org/zap"
)

// GitReplicator commits the changed files in the repository that contains
// the data directory and pushes the current branch to a remote. Calls to
// Replicate are serialized; go-git does not guard the index or worktree.
type GitReplicator struct {
	mu      sync.Mutex
	dataDir string
	cfg     config.GitReplicationConfig
	auth    transport.AuthMethod
	log     *zap.SugaredLogger
}

// NewGitReplicator returns a replicator for the repository containing dataDir.
// The repository is opened on every call so that external changes to it are
// picked up.
func NewGitReplicator(dataDir string, cfg config.GitReplicationConfig) (*GitReplicator, error) {
	abs, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data dir: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}

	var auth transport.AuthMethod
	if cfg.Token != "" {
		auth = &http.BasicAuth{Username: cfg.Username, Password: cfg.Token}
	}

	r := &GitReplicator{
		dataDir: abs,
		cfg:     cfg,
		auth:    auth,
		log:     logger.GetLogger().Named("git-replicator"),
	}
	if _, err := r.open(); err != nil {
		return nil, err
	}
	r.log.Infow("Git replication ready",
		"dataDir", abs,
		"remote", cfg.Remote,
		"branch", cfg.Branch,
		"token", logger.MaskSensitiveString(cfg.Token, 4, 2))
	return r, nil
}

func (r *GitReplicator) Name() string { return "git" }

func (r *GitReplicator) open() (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(r.dataDir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository at %s: %w", r.dataDir, err)
	}
	return repo, nil
}

// Replicate stages change.Paths, commits them and pushes. When none of the
// paths differ from HEAD it still pushes, so commits left behind by an earlier
// failed push reach the remote, and returns ErrNothingToCommit only when the
// remote was already up to date. The status check and the commit are not
// atomic with respect to other processes writing the same repository.
func (r *GitReplicator) Replicate(ctx context.Context, change Change) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	repo, err := r.open()
	if err != nil {
		return stageError(StageIndex, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return stageError(StageIndex, err)
	}

	root := wt.Filesystem.Root()
	rels := make([]string, 0, len(change.Paths))
	for _, p := range change.Paths {
		rel, err := filepath.Rel(root, filepath.Join(r.dataDir, p))
		if err != nil {
			return stageError(StageIndex, err)
		}
		rel = filepath.ToSlash(rel)
		if _, err := wt.Add(rel); err != nil {
			return stageError(StageIndex, fmt.Errorf("git add %s: %w", rel, err))
		}
		rels = append(rels, rel)
	}

	status, err := wt.Status()
	if err != nil {
		return stageError(StageCommit, err)
	}
	committed := false
	if hasStagedChanges(status, rels) {
		hash, err := wt.Commit(change.Message, &git.CommitOptions{
			Author: &object.Signature{
				Name:  r.cfg.AuthorName,
				Email: r.cfg.AuthorEmail,
				When:  change.At,
			},
		})
		switch {
		case errors.Is(err, git.ErrEmptyCommit):
		case err != nil:
			return stageError(StageCommit, err)
		default:
			committed = true
			r.log.Debugw("Committed record files", "commit", hash.String(), "paths", rels)
		}
	}

	upToDate, err := r.push(ctx, repo)
	if err != nil {
		return stageError(StagePush, err)
	}
	if !committed && upToDate {
		return stageError(StageCommit, ErrNothingToCommit)
	}
	if !committed {
		r.log.Infow("Pushed pending commits", "remote", r.cfg.Remote, "branch", r.cfg.Branch)
	}
	return nil
}

// push sends HEAD to the configured branch. upToDate reports whether the
// remote already had it.
func (r *GitReplicator) push(ctx context.Context, repo *git.Repository) (upToDate bool, err error) {
	head, err := repo.Head()
	if err != nil {
		return false, err
	}
	refSpec := gitconfig.RefSpec(fmt.Sprintf("%s:refs/heads/%s", head.Name(), r.cfg.Branch))
	err = repo.PushContext(ctx, &git.PushOptions{
		RemoteName: r.cfg.Remote,
		RefSpecs:   []gitconfig.RefSpec{refSpec},
		Auth:       r.auth,
	})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		return true, nil
	}
	return false, err
}

func hasStagedChanges(status git.Status, paths []string) bool {
	for _, p := range paths {
		fs, ok := status[p]
		if ok && fs.Staging != git.Unmodified && fs.Staging != git.Untracked {
			return true
		}
	}
	return false
}
