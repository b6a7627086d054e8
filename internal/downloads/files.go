package downloads

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"vidarr/internal/domain/consts"
	"vidarr/internal/models"
)

// createMediaDirs ensures the per-kind subdirectories exist under the base.
func createMediaDirs(baseDir string) error {
	if baseDir == "" {
		return fmt.Errorf("download base directory cannot be empty")
	}
	for _, sub := range []string{consts.DirThumbnails, consts.DirVideos} {
		dir := filepath.Join(baseDir, sub)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create media directory %s: %w", dir, err)
		}
	}
	return nil
}

// filePath derives the deterministic target path for a task:
// <base>/<kind-dir>/<ownerID>_<sanitized-title>.<ext>. Determinism is what
// makes the on-disk fast path possible across runs.
func (m *Manager) filePath(task models.DownloadTask) (string, error) {
	sub := consts.DirVideos
	if task.MediaKind == models.KindThumbnail {
		sub = consts.DirThumbnails
	}

	ext, err := urlExtension(task.URL, task.MediaKind)
	if err != nil {
		return "", err
	}

	name := sanitizeFilename(task.Title)
	if name == "" {
		name = "untitled"
	}
	owner := sanitizeFilename(task.OwnerID)
	if owner != "" {
		name = owner + "_" + name
	}

	return filepath.Join(m.settings.BaseDir, sub, name+ext), nil
}

// urlExtension pulls the file extension from the URL path, falling back to a
// sensible default per media kind.
func urlExtension(rawURL string, kind models.MediaKind) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("unparseable download URL %q: %w", rawURL, err)
	}

	ext := strings.ToLower(path.Ext(u.Path))
	if ext != "" && len(ext) <= 5 {
		return ext, nil
	}

	if kind == models.KindThumbnail {
		return ".jpg", nil
	}
	return ".mp4", nil
}

// sanitizeFilename strips characters unsafe for filenames and collapses
// whitespace runs to single underscores.
func sanitizeFilename(s string) string {
	var b strings.Builder
	lastUnderscore := false

	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}

	out := strings.Trim(b.String(), "_.")
	if len(out) > 120 {
		out = out[:120]
	}
	return out
}
