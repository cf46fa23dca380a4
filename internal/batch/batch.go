package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/powerm17/automated-home-decor/internal/flow"
	"github.com/powerm17/automated-home-decor/internal/preview"
	"github.com/powerm17/automated-home-decor/internal/selector"
	"github.com/powerm17/automated-home-decor/internal/suggestions"
	"golang.org/x/sync/errgroup"
)

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

var imageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// Result is the outcome for one photo.
type Result struct {
	Image    string
	Status   string
	Error    string
	Response *suggestions.Response
}

// FindImages lists image files directly inside dir, sorted by name.
func FindImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := imageExtensions[strings.ToLower(filepath.Ext(e.Name()))]; ok {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// ReadFile loads a photo the way the picker would hand it over.
func ReadFile(path string) (*selector.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return &selector.File{
		Name:        filepath.Base(path),
		ContentType: imageExtensions[strings.ToLower(filepath.Ext(path))],
		Data:        data,
	}, nil
}

// Run uploads every path, at most concurrency at a time, each through its own
// flow. Results keep the order of paths. Individual failures are recorded,
// not returned.
func Run(ctx context.Context, uploader flow.Uploader, observer flow.Observer, paths []string, concurrency int) ([]Result, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	results := make([]Result, len(paths))
	previews := preview.New()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = runOne(ctx, uploader, observer, previews, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func runOne(ctx context.Context, uploader flow.Uploader, observer flow.Observer, previews *preview.Store, path string) Result {
	res := Result{Image: filepath.Base(path)}

	file, err := ReadFile(path)
	if err != nil {
		slog.Warn("Skipping unreadable image", "path", path, "err", err)
		res.Status, res.Error = StatusFailed, err.Error()
		return res
	}

	f := flow.New(flow.Options{
		Uploader: uploader,
		Previews: previews,
		Variant:  flow.Compact,
		Observer: observer,
	})
	defer f.Close()

	f.Select(file)
	if err := f.Upload(ctx); err != nil {
		res.Status = StatusFailed
		res.Error = f.State().Reason
		if errors.Is(err, flow.ErrNoImageSelected) {
			res.Error = flow.MsgNoImageSelected
		}
		return res
	}

	res.Status = StatusOK
	res.Response = f.State().Response
	slog.Info("Processed image", "image", res.Image, "items", len(res.Response.Items))
	return res
}
