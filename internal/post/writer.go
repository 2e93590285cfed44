package post

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog/log"
)

// DefaultDir is where the static site expects posts.
const DefaultDir = "_posts"

const (
	maxSlugRunes = 80
	fallbackSlug = "offerta"
	hashTailLen  = 10
)

// ErrExists is returned when the target filename is already taken.
var ErrExists = errors.New("post already exists")

// Writer stores posts under Dir.
type Writer struct {
	Dir      string
	Schema   Schema
	Location *time.Location
}

// NewWriter returns a Writer for dir using schema; loc nil means time.Local.
func NewWriter(dir string, schema Schema, loc *time.Location) *Writer {
	if dir == "" {
		dir = DefaultDir
	}
	if loc == nil {
		loc = time.Local
	}
	return &Writer{Dir: dir, Schema: schema.withDefaults(), Location: loc}
}

// Filename returns YYYY-MM-DD-HHMM-<slug>-<tail>.md for p.
func (w *Writer) Filename(p Post) string {
	title := ""
	asin := ""
	if p.Product != nil {
		title = p.Product.Title
		asin = p.Product.ASIN
	}

	name := p.PublishedAt.In(w.Location).Format("2006-01-02-1504") + "-" + Slugify(title)
	if tail := fileTail(asin, p.SourceURL); tail != "" {
		name += "-" + tail
	}
	return name + ".md"
}

// Write renders p and creates its file, creating Dir if needed. An existing
// file with the same name is never overwritten.
func (w *Writer) Write(p Post) (string, error) {
	content, err := w.Schema.Render(p, w.Location)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(w.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", w.Dir, err)
	}

	path := filepath.Join(w.Dir, w.Filename(p))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("%w: %s", ErrExists, path)
		}
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(content); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	log.Debug().Str("path", path).Int("bytes", len(content)).Msg("post written")
	return path, nil
}

// Slugify lower-cases s, spells out '&', and joins letter/digit runs with
// '-'. The result is at most 80 runes and never empty.
func Slugify(s string) string {
	s = strings.ReplaceAll(strings.ToLower(s), "&", " and ")

	var sb strings.Builder
	pendingDash := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			sb.WriteRune(r)
			pendingDash = false
			continue
		}
		pendingDash = true
	}

	runes := []rune(sb.String())
	if len(runes) > maxSlugRunes {
		runes = runes[:maxSlugRunes]
	}
	slug := strings.Trim(string(runes), "-")
	if slug == "" {
		return fallbackSlug
	}
	return slug
}

func fileTail(asin, sourceURL string) string {
	if asin != "" {
		return strings.ToLower(asin)
	}
	if sourceURL == "" {
		return ""
	}
	sum := sha1.Sum([]byte(sourceURL))
	return hex.EncodeToString(sum[:])[:hashTailLen]
}
