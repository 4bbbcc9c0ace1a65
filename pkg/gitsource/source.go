package gitsource

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Source manages the local clone of the reference policy repository.
type Source struct {
	config    *Config
	localPath string
	creds     *credentials
	repo      *gogit.Repository
	logger    *slog.Logger
	mu        sync.RWMutex
}

// NewSource creates a source for the configured repository.
func NewSource(cfg *Config) (*Source, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Repository == "" {
		return nil, fmt.Errorf("repository URL cannot be empty")
	}
	if cfg.Branch == "" {
		return nil, fmt.Errorf("branch cannot be empty")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	creds, err := newCredentials(&cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to configure auth: %w", err)
	}

	localPath := cfg.LocalPath
	if localPath == "" {
		localPath = filepath.Join(os.TempDir(), "palisade-policies")
	}

	return &Source{
		config:    cfg,
		localPath: localPath,
		creds:     creds,
		logger:    slog.Default().With("component", "gitsource"),
	}, nil
}

// Clone initializes the local clone. An existing clone is reused unless
// CleanOnStart is set.
func (s *Source) Clone(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.config.CleanOnStart {
		if err := os.RemoveAll(s.localPath); err != nil {
			return fmt.Errorf("failed to clean existing clone: %w", err)
		}
	}

	gitDir := filepath.Join(s.localPath, ".git")
	if _, err := os.Stat(gitDir); err == nil {
		repo, err := gogit.PlainOpen(s.localPath)
		if err != nil {
			return fmt.Errorf("failed to open existing clone: %w", err)
		}
		s.repo = repo
		s.logger.Debug("reusing existing clone", "path", s.localPath)
		return nil
	}

	if err := os.MkdirAll(s.localPath, 0755); err != nil {
		return fmt.Errorf("failed to create clone directory: %w", err)
	}

	cloneOpts := &gogit.CloneOptions{
		URL:           s.config.Repository,
		ReferenceName: plumbing.NewBranchReferenceName(s.config.Branch),
		SingleBranch:  s.config.Depth > 0,
		Depth:         s.config.Depth,
	}

	auth, err := s.creds.resolve()
	if err != nil {
		return fmt.Errorf("failed to resolve credentials: %w", err)
	}
	cloneOpts.Auth = auth

	cloneCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	repo, err := gogit.PlainCloneContext(cloneCtx, s.localPath, false, cloneOpts)
	if err != nil {
		return fmt.Errorf("failed to clone repository: %w", err)
	}

	s.repo = repo
	s.logger.Info("cloned reference policy repository",
		"repository", s.config.Repository,
		"branch", s.config.Branch,
		"auth", s.creds.mode,
		"path", s.localPath,
	)
	return nil
}

// Pull fetches the latest changes from the remote. Safe to call concurrently.
func (s *Source) Pull(ctx context.Context) (*PullResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.repo == nil {
		return nil, fmt.Errorf("repository not initialized, call Clone() first")
	}

	ref, err := s.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}
	fromSHA := ref.Hash().String()

	worktree, err := s.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}

	pullOpts := &gogit.PullOptions{
		RemoteName: "origin",
		Force:      false,
	}

	auth, err := s.creds.resolve()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve credentials: %w", err)
	}
	pullOpts.Auth = auth

	pullCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	err = worktree.PullContext(pullCtx, pullOpts)
	if err != nil && err != gogit.NoErrAlreadyUpToDate {
		return nil, fmt.Errorf("failed to pull: %w", err)
	}

	newRef, err := s.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get new HEAD: %w", err)
	}
	toSHA := newRef.Hash().String()

	result := &PullResult{
		FromSHA:    fromSHA,
		ToSHA:      toSHA,
		HadChanges: fromSHA != toSHA,
	}

	if result.HadChanges {
		changed, err := s.changedFiles(fromSHA, toSHA)
		if err != nil {
			return nil, fmt.Errorf("failed to get changed files: %w", err)
		}
		result.ChangedFiles = changed
		s.logger.Info("baseline updated",
			"from", fromSHA,
			"to", toSHA,
			"changed_files", len(changed),
		)
	}

	return result, nil
}

// CurrentCommit returns metadata about the HEAD commit.
func (s *Source) CurrentCommit() (*CommitInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.repo == nil {
		return nil, fmt.Errorf("repository not initialized, call Clone() first")
	}

	ref, err := s.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}

	commit, err := s.repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to get commit: %w", err)
	}

	return &CommitInfo{
		SHA:        commit.Hash.String(),
		Author:     commit.Author.Name,
		Email:      commit.Author.Email,
		Timestamp:  commit.Author.When,
		Message:    commit.Message,
		Branch:     s.config.Branch,
		Repository: s.config.Repository,
	}, nil
}

// ListPolicyFiles returns the policy XML files under the configured path,
// recursively. Hidden files are skipped.
func (s *Source) ListPolicyFiles() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	policyPath := filepath.Join(s.localPath, s.config.Path)
	if _, err := os.Stat(policyPath); err != nil {
		return nil, fmt.Errorf("policy path does not exist: %w", err)
	}

	var files []string
	err := filepath.Walk(policyPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if strings.HasPrefix(info.Name(), ".") {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".xml") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk policy directory: %w", err)
	}

	return files, nil
}

// changedFiles lists the files changed between two commits. Callers hold the
// lock.
func (s *Source) changedFiles(fromSHA, toSHA string) ([]string, error) {
	fromCommit, err := s.repo.CommitObject(plumbing.NewHash(fromSHA))
	if err != nil {
		return nil, fmt.Errorf("failed to get from commit: %w", err)
	}
	toCommit, err := s.repo.CommitObject(plumbing.NewHash(toSHA))
	if err != nil {
		return nil, fmt.Errorf("failed to get to commit: %w", err)
	}

	fromTree, err := fromCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get from tree: %w", err)
	}
	toTree, err := toCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get to tree: %w", err)
	}

	changes, err := fromTree.Diff(toTree)
	if err != nil {
		return nil, fmt.Errorf("failed to diff trees: %w", err)
	}

	var files []string
	for _, change := range changes {
		if change.To.Name != "" {
			files = append(files, change.To.Name)
		} else if change.From.Name != "" {
			files = append(files, change.From.Name)
		}
	}

	return files, nil
}

// LocalPath returns where the repository is cloned.
func (s *Source) LocalPath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.localPath
}

// PolicyPath returns the full path of the policy directory inside the clone.
func (s *Source) PolicyPath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filepath.Join(s.localPath, s.config.Path)
}
