// Package shotcut reads and edits Shotcut (MLT XML) project files: markers,
// the timeline extent, the music clips in the project bin and the playlist
// tracks that clips are placed on.
package shotcut

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"

	"ytauto/internal/storage"
	"ytauto/music"
)

// Sentinel errors for project file conditions.
var (
	// ErrProjectNotFound indicates no project file exists at the given path.
	ErrProjectNotFound = errors.New("shotcut: project not found")
	// ErrNotProject indicates the file is not an MLT document.
	ErrNotProject = errors.New("shotcut: not an mlt project")
	// ErrNoMainTractor indicates the project has no main timeline.
	ErrNoMainTractor = errors.New("shotcut: main tractor not found")
	// ErrBadClock indicates a malformed time value.
	ErrBadClock = errors.New("shotcut: malformed clock value")
)

// ProjectError wraps project errors with the operation and file involved.
type ProjectError struct {
	// Op is the operation that failed ("find", "open", "save", ...).
	Op string
	// Path is the project file.
	Path string
	// Err is the underlying error that occurred.
	Err error
}

// Error returns a string representation of the project error.
func (e *ProjectError) Error() string {
	return fmt.Sprintf("shotcut: %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *ProjectError) Unwrap() error { return e.Err }

// LockTimeout is how long Open waits for another process editing the same
// project.
var LockTimeout = 5 * time.Second

// Shotcut names its autosave backups "<name>-YYYY-MM-DDTHH-MM-SS.mlt".
var backupPattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}T\d{2}-\d{2}-\d{2}`)

// Find resolves path to a project file. A .mlt file is returned as is; for a
// directory the first .mlt file that is not a Shotcut backup is chosen.
func Find(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", &ProjectError{Op: "find", Path: path, Err: ErrProjectNotFound}
	}

	if !info.IsDir() {
		if strings.EqualFold(filepath.Ext(path), ".mlt") {
			return path, nil
		}
		return "", &ProjectError{Op: "find", Path: path, Err: ErrProjectNotFound}
	}

	matches, err := filepath.Glob(filepath.Join(path, "*.mlt"))
	if err != nil {
		return "", &ProjectError{Op: "find", Path: path, Err: err}
	}
	sort.Strings(matches)
	for _, m := range matches {
		stem := strings.TrimSuffix(filepath.Base(m), filepath.Ext(m))
		if !backupPattern.MatchString(stem) {
			return m, nil
		}
	}
	return "", &ProjectError{Op: "find", Path: path, Err: ErrProjectNotFound}
}

// Latest picks the most recently modified entry of a folder of projects,
// either a project directory or a .mlt file, and resolves it with Find.
func Latest(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", &ProjectError{Op: "find", Path: dir, Err: ErrProjectNotFound}
	}

	var best string
	var newest time.Time
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if !e.IsDir() {
			stem, ext := strings.TrimSuffix(name, filepath.Ext(name)), filepath.Ext(name)
			if !strings.EqualFold(ext, ".mlt") || backupPattern.MatchString(stem) {
				continue
			}
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if best == "" || info.ModTime().After(newest) {
			best, newest = filepath.Join(dir, name), info.ModTime()
		}
	}
	if best == "" {
		return "", &ProjectError{Op: "find", Path: dir, Err: ErrProjectNotFound}
	}
	return Find(best)
}

// Project is an open, locked project file.
type Project struct {
	// Path is the project file.
	Path string
	// Logger receives skipped project entries. Defaults to slog.Default().
	Logger *slog.Logger

	doc  *etree.Document
	root *etree.Element
	main *etree.Element
	lock *storage.FileLock
}

// Open locks and parses the project at path. Call Close when done.
func Open(path string) (*Project, error) {
	lock := storage.NewFileLock(path)
	if err := lock.Lock(LockTimeout); err != nil {
		return nil, &ProjectError{Op: "open", Path: path, Err: err}
	}

	p, err := parse(path)
	if err != nil {
		lock.Unlock()
		return nil, err
	}
	p.lock = lock
	return p, nil
}

func parse(path string) (*Project, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = ErrProjectNotFound
		}
		return nil, &ProjectError{Op: "open", Path: path, Err: err}
	}

	root := doc.Root()
	if root == nil || root.Tag != "mlt" {
		return nil, &ProjectError{Op: "open", Path: path, Err: ErrNotProject}
	}

	main := findMain(root)
	if main == nil {
		return nil, &ProjectError{Op: "open", Path: path, Err: ErrNoMainTractor}
	}

	return &Project{Path: path, doc: doc, root: root, main: main}, nil
}

func (p *Project) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

// findMain returns the tractor holding the timeline. Shotcut gives it the
// same title as the document; the last tractor is used otherwise.
func findMain(root *etree.Element) *etree.Element {
	tractors := root.SelectElements("tractor")
	if len(tractors) == 0 {
		return nil
	}
	title := root.SelectAttrValue("title", "")
	for _, t := range tractors {
		if title != "" && t.SelectAttrValue("title", "") == title {
			return t
		}
	}
	return tractors[len(tractors)-1]
}

// Close releases the project lock. Unsaved changes are discarded.
func (p *Project) Close() error {
	if p.lock == nil {
		return nil
	}
	err := p.lock.Unlock()
	p.lock = nil
	return err
}

// Timeline returns the extent of the main timeline.
func (p *Project) Timeline() (music.Span, error) {
	start, err := ParseClock(p.main.SelectAttrValue("in", "00:00:00.000"))
	if err != nil {
		return music.Span{}, &ProjectError{Op: "timeline", Path: p.Path, Err: err}
	}
	end, err := ParseClock(p.main.SelectAttrValue("out", "00:00:00.000"))
	if err != nil {
		return music.Span{}, &ProjectError{Op: "timeline", Path: p.Path, Err: err}
	}
	return music.Span{Start: start, End: end}, nil
}

// Save writes the project back to its file atomically.
func (p *Project) Save() error {
	perm := os.FileMode(0644)
	if info, err := os.Stat(p.Path); err == nil {
		perm = info.Mode().Perm()
	}

	p.doc.Indent(2)
	err := storage.WriteFile(p.Path, perm, func(w io.Writer) error {
		_, err := p.doc.WriteTo(w)
		return err
	})
	if err != nil {
		return &ProjectError{Op: "save", Path: p.Path, Err: err}
	}
	return nil
}

// properties returns the <property name=...> children of el by name.
func properties(el *etree.Element) map[string]string {
	out := make(map[string]string)
	for _, prop := range el.SelectElements("property") {
		if name := prop.SelectAttrValue("name", ""); name != "" {
			out[name] = prop.Text()
		}
	}
	return out
}

// setProperty adds a <property name=...>value</property> child to el.
func setProperty(el *etree.Element, name, value string) {
	prop := el.CreateElement("property")
	prop.CreateAttr("name", name)
	prop.SetText(value)
}

var digits = regexp.MustCompile(`\d+`)

// numericID extracts the number from ids like "playlist3" or "filter12".
func numericID(el *etree.Element) int {
	n, err := strconv.Atoi(digits.FindString(el.SelectAttrValue("id", "")))
	if err != nil {
		return -1
	}
	return n
}
