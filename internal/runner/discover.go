package runner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oicur0t/boardlog/pkg/models"
)

// PathNotFoundError is returned when the build combinations root cannot be listed
type PathNotFoundError struct {
	Path string
	Err  error
}

func (e *PathNotFoundError) Error() string {
	return fmt.Sprintf("build combinations path %s cannot be listed: %v", e.Path, e.Err)
}

func (e *PathNotFoundError) Unwrap() error { return e.Err }

// BoardDir is one <root>/<vendor>/<board> directory
type BoardDir struct {
	Vendor string
	Name   string
	Path   string
	// OutputName names the summary file. It is Name unless another vendor
	// has a board with the same name, then <vendor>_<board>.
	OutputName string
}

// readDir is swapped in tests
var readDir = os.ReadDir

// DiscoverBoards lists every board directory under root in lexicographic
// vendor then board order. Files at the vendor or board level are ignored.
// Only an unlistable root is an error; vendor directories that cannot be
// listed are returned as skipped.
func DiscoverBoards(root string) ([]BoardDir, []models.SkippedDir, error) {
	vendors, err := readDir(root)
	if err != nil {
		return nil, nil, &PathNotFoundError{Path: root, Err: err}
	}

	var (
		boards  []BoardDir
		skipped []models.SkippedDir
	)
	for _, vendor := range vendors {
		if !isDir(root, vendor) {
			continue
		}
		vendorPath := filepath.Join(root, vendor.Name())

		entries, err := readDir(vendorPath)
		if err != nil {
			skipped = append(skipped, models.SkippedDir{
				Path:  vendorPath,
				Error: fmt.Sprintf("failed to list vendor directory: %v", err),
			})
			continue
		}
		for _, board := range entries {
			if !isDir(vendorPath, board) {
				continue
			}
			boards = append(boards, BoardDir{
				Vendor:     vendor.Name(),
				Name:       board.Name(),
				Path:       filepath.Join(vendorPath, board.Name()),
				OutputName: board.Name(),
			})
		}
	}

	qualifyDuplicateNames(boards)
	return boards, skipped, nil
}

// qualifyDuplicateNames gives boards sharing a name across vendors distinct
// output names
func qualifyDuplicateNames(boards []BoardDir) {
	counts := make(map[string]int, len(boards))
	for _, b := range boards {
		counts[b.Name]++
	}
	for i := range boards {
		if counts[boards[i].Name] > 1 {
			boards[i].OutputName = boards[i].Vendor + "_" + boards[i].Name
		}
	}
}

// isDir follows symlinks so linked vendor or board directories are included
func isDir(parent string, entry os.DirEntry) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(parent, entry.Name()))
	return err == nil && info.IsDir()
}

// IsPathNotFound reports whether err is a PathNotFoundError
func IsPathNotFound(err error) bool {
	var target *PathNotFoundError
	return errors.As(err, &target)
}
