package activities

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/yourorg/isp-sorter/internal/types"
)

// CleanupScratch removes the workflow's scratch subdirectory, snapshot
// included. It is safe to call even if the directory doesn't exist.
func (a *Activities) CleanupScratch(ctx context.Context, p types.CleanupParams) error {
	sub := filepath.Clean(p.ScratchSubdir)
	if sub == "." || sub == ".." || filepath.IsAbs(sub) || strings.HasPrefix(sub, ".."+string(filepath.Separator)) {
		// Never remove the scratch root itself or anything outside it.
		return errors.New("invalid scratch subdir for cleanup")
	}
	return os.RemoveAll(filepath.Join(a.cfg.ScratchDir, sub))
}
