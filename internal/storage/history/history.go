// Package history keeps a git log of every table file the store writes.
package history

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-git/go-billy/v6"
	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/cache"
	"github.com/go-git/go-git/v6/plumbing/object"
	"github.com/go-git/go-git/v6/storage/filesystem"
	"github.com/go-git/go-git/v6/storage/memory"
)

var ErrNoHistory = errors.New("no history recorded yet")

// Identity is the author written into each commit
type Identity struct {
	Name  string
	Email string
}

// Revision is one recorded change
type Revision struct {
	Hash    string
	When    time.Time
	Author  string // "Name <email>" format
	Message string
}

func (r Revision) String() string {
	return fmt.Sprintf("%s %s %s %s", shortHash(r.Hash), r.When.Format(time.RFC3339), r.Author, r.Message)
}

// Recorder commits table files of a data directory into a git repository
// whose worktree is that same directory
type Recorder struct {
	mu       sync.Mutex
	repo     *git.Repository
	identity Identity
}

// Open opens (or initializes) a repository stored in .git inside worktree
func Open(worktree billy.Filesystem, identity Identity) (*Recorder, error) {
	dotGit, err := worktree.Chroot(".git")
	if err != nil {
		return nil, err
	}

	storer := filesystem.NewStorageWithOptions(
		dotGit,
		cache.NewObjectLRUDefault(),
		filesystem.Options{ExclusiveAccess: true})

	var repo *git.Repository
	if _, statErr := worktree.Stat(".git"); statErr != nil {
		if !errors.Is(statErr, os.ErrNotExist) {
			return nil, statErr
		}
		repo, err = git.Init(storer, git.WithWorkTree(worktree))
	} else {
		repo, err = git.Open(storer, worktree)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open history repository: %w", err)
	}

	return &Recorder{repo: repo, identity: identity}, nil
}

// OpenMemory keeps the repository objects in memory; the worktree is still
// the given filesystem
func OpenMemory(worktree billy.Filesystem, identity Identity) (*Recorder, error) {
	repo, err := git.Init(memory.NewStorage(), git.WithWorkTree(worktree))
	if err != nil {
		return nil, err
	}
	return &Recorder{repo: repo, identity: identity}, nil
}

// Record stages path (relative to the worktree) and commits it
func (r *Recorder) Record(path, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	wt, err := r.repo.Worktree()
	if err != nil {
		return err
	}

	if _, err := wt.Add(path); err != nil {
		return fmt.Errorf("failed to stage %s: %w", path, err)
	}

	_, err = wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  r.identity.Name,
			Email: r.identity.Email,
			When:  time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to commit %s: %w", path, err)
	}

	return nil
}

// Log returns up to limit revisions, newest first. A limit <= 0 means no limit.
func (r *Recorder) Log(limit int) ([]Revision, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	head, err := r.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, ErrNoHistory
		}
		return nil, err
	}

	cIter, err := r.repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, err
	}
	defer cIter.Close()

	var revisions []Revision
	err = cIter.ForEach(func(c *object.Commit) error {
		if limit > 0 && len(revisions) >= limit {
			return errStop
		}
		revisions = append(revisions, Revision{
			Hash:    c.Hash.String(),
			When:    c.Author.When,
			Author:  fmt.Sprintf("%s <%s>", c.Author.Name, c.Author.Email),
			Message: c.Message,
		})
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		return nil, err
	}

	return revisions, nil
}

var errStop = errors.New("stop iteration")

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
