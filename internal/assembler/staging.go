// SPDX-License-Identifier: MPL-2.0

package assembler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/npmpub/npmpub/pkg/npmpublish"
	"github.com/npmpub/npmpub/pkg/packagejson"
)

// ReadmeFileName is the name the configured readme is staged under.
const ReadmeFileName = "README.md"

// Stage rebuilds the package directory of pub from scratch: compiled output,
// processed resources, bundled node modules, the readme and the generated
// package.json.
func Stage(ctx context.Context, pub *npmpublish.ResolvedPublication) error {
	logger := log.FromContext(ctx)
	dest := pub.DestinationDir

	if err := os.RemoveAll(dest); err != nil {
		return fmt.Errorf("clean %s: %w", dest, err)
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}

	if err := copyTree(pub.Output.OutputDir(), dest, dest); err != nil {
		return fmt.Errorf("copy compiled output: %w", err)
	}
	if dir := pub.Output.ResourcesDir; dir != "" {
		if _, err := os.Stat(dir); err == nil {
			if err := copyTree(dir, dest, dest); err != nil {
				return fmt.Errorf("copy resources: %w", err)
			}
		}
	}

	for _, name := range pub.BundledNames() {
		if pub.Output.NodeModulesDir == "" {
			logger.Warn("no node_modules directory to bundle from", "dependency", name)
			break
		}
		src := filepath.Join(pub.Output.NodeModulesDir, filepath.FromSlash(name))
		if _, err := os.Stat(src); err != nil {
			logger.Warn("bundled dependency is not installed", "dependency", name, "dir", src)
			continue
		}
		if err := copyTree(src, filepath.Join(dest, "node_modules", filepath.FromSlash(name)), dest); err != nil {
			return fmt.Errorf("bundle %s: %w", name, err)
		}
	}

	if pub.Readme != "" {
		readme := filepath.Join(dest, ReadmeFileName)
		if err := removeExisting(readme); err != nil {
			return fmt.Errorf("copy readme: %w", err)
		}
		if err := copyFile(pub.Readme, readme, 0o644); err != nil {
			return fmt.Errorf("copy readme: %w", err)
		}
	}

	if err := pub.PackageJSON().WriteFile(filepath.Join(dest, packagejson.FileName)); err != nil {
		return err
	}
	logger.Info("assembled publication", "package", pub.PackageName, "version", pub.Version, "dir", dest)
	return nil
}

// stagingInputs lists the paths whose content decides the staged package.
func stagingInputs(pub *npmpublish.ResolvedPublication) []string {
	inputs := []string{pub.Output.OutputDir(), pub.Output.ResourcesDir, pub.Readme}
	if pub.Output.NodeModulesDir != "" {
		for _, name := range pub.BundledNames() {
			inputs = append(inputs, filepath.Join(pub.Output.NodeModulesDir, filepath.FromSlash(name)))
		}
	}
	return inputs
}

// copyTree copies the content of src into dst. Anything under skip is left
// out so a destination nested in src is never copied into itself.
func copyTree(src, dst, skip string) error {
	return filepath.WalkDir(src, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if within(path, skip) {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		info, err := entry.Info()
		if err != nil {
			return err
		}
		switch {
		case entry.IsDir() && path != src && within(skip, path):
			// Ancestor of the destination: only its other children are copied.
			return nil
		case entry.IsDir():
			return os.MkdirAll(target, 0o755)
		case info.Mode()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			if err := removeExisting(target); err != nil {
				return err
			}
			return os.Symlink(link, target)
		default:
			if err := removeExisting(target); err != nil {
				return err
			}
			return copyFile(path, target, info.Mode().Perm())
		}
	})
}

// removeExisting clears what an earlier source staged at target. The later
// source wins, and a staged link is replaced rather than written through.
func removeExisting(target string) error {
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func copyFile(src, dst string, perm fs.FileMode) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return nil
}

func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
