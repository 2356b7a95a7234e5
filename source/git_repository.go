package source

import (
	"context"
	"io"
	"net/url"
	"path"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/sirupsen/logrus"
)

// GitRepository is a struct that implements the Repository interface for
// preset setup files kept in a Git repository. The repository is cloned
// into memory on the first refresh and pulled on every later one.
type GitRepository struct {
	presetSet
	Name          string           // Name of the preset source
	URL           *url.URL         // URL representing the Git repository URL
	Path          string           // Directory of the preset tree within the Git repository
	Branch        string           // Branch to use when cloning the Git repository
	Auth          *http.BasicAuth  // BasicAuth to use when cloning the Git repository
	cloneMu       sync.Mutex       // Serializes clone and pull
	gitRepository *git.Repository  // Go-Git repository instance for the in-memory clone
	fs            billy.Filesystem // Filesystem to store the in-memory clone of the repository
}

// GetName returns the name of the preset source.
func (g *GitRepository) GetName() string {
	return g.Name
}

// Refresh clones or pulls the Git repository and reads the preset tree.
func (g *GitRepository) Refresh() error {
	g.cloneMu.Lock()
	defer g.cloneMu.Unlock()

	if err := g.sync(context.Background()); err != nil {
		return err
	}

	root := path.Join("/", g.Path)
	c := newCollector(g.Name)
	err := walkBilly(g.fs, root, func(p string) error {
		if !IsPresetFile(p) {
			return nil
		}
		data, err := readBillyFile(g.fs, p)
		if err != nil {
			return err
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(p, root), "/")
		return c.add(rel, g.URL.String()+"#"+p, data)
	})
	if err != nil {
		return err
	}

	g.swap(c.files)
	return nil
}

func (g *GitRepository) sync(ctx context.Context) error {
	// If the in-memory clone of the Git repository does not exist, create it.
	if g.gitRepository == nil {
		fs := memfs.New()
		logrus.Debugf("Cloning %s into memory", g.URL.String())
		options := &git.CloneOptions{
			URL:  g.URL.String(),
			Auth: g.authMethod(),
		}
		if g.Branch != "" {
			options.ReferenceName = plumbing.NewBranchReferenceName(g.Branch)
			options.SingleBranch = true
		}
		r, err := git.CloneContext(ctx, memory.NewStorage(), fs, options)
		if err != nil {
			return err
		}
		logrus.Debug("Cloned")
		g.gitRepository = r
		g.fs = fs
		return nil
	}

	// Pull the latest changes from the Git repository.
	w, err := g.gitRepository.Worktree()
	if err != nil {
		return err
	}
	logrus.Debug("Pulling")

	pullOptions := &git.PullOptions{
		Auth: g.authMethod(),
	}
	if g.Branch != "" {
		pullOptions.ReferenceName = plumbing.NewBranchReferenceName(g.Branch)
		pullOptions.SingleBranch = true
		pullOptions.Force = true
	}

	err = w.PullContext(ctx, pullOptions)
	if err == git.NoErrAlreadyUpToDate {
		logrus.Debug("Already up to date")
		return nil
	}
	if err != nil {
		return err
	}
	logrus.Debug("Pulled")
	return nil
}

// authMethod avoids handing go-git a typed nil.
func (g *GitRepository) authMethod() transport.AuthMethod {
	if g.Auth == nil {
		return nil
	}
	return g.Auth
}

// walkBilly calls fn for every regular file below dir, depth first in
// directory order.
func walkBilly(fs billy.Filesystem, dir string, fn func(p string) error) error {
	entries, err := fs.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		p := path.Join(dir, entry.Name())
		if entry.IsDir() {
			if err := walkBilly(fs, p, fn); err != nil {
				return err
			}
			continue
		}
		if err := fn(p); err != nil {
			return err
		}
	}
	return nil
}

func readBillyFile(fs billy.Filesystem, p string) ([]byte, error) {
	file, err := fs.Open(p)
	if err != nil {
		return nil, err
	}
	defer func(file billy.File) {
		err := file.Close()
		if err != nil {
			logrus.WithError(err).Error("error closing file")
		}
	}(file)
	return io.ReadAll(file)
}
