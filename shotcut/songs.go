package shotcut

import (
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2"

	"ytauto/music"
)

// Songs returns the clips in the project whose media file lies inside one of
// musicDirs. Relative resources are resolved against the project's root
// directory. Clips without a usable length are skipped.
func (p *Project) Songs(musicDirs []string) []music.Song {
	dirs := make([]string, 0, len(musicDirs))
	for _, d := range musicDirs {
		if abs, err := filepath.Abs(d); err == nil {
			dirs = append(dirs, abs)
		}
	}

	var songs []music.Song
	for _, tag := range []string{"chain", "producer"} {
		for _, el := range p.root.SelectElements(tag) {
			id := el.SelectAttrValue("id", "")
			resource := properties(el)["resource"]
			if id == "" || resource == "" {
				continue
			}

			path := p.resolve(resource)
			if !within(path, dirs) {
				continue
			}

			length, ok := clipLength(el)
			if !ok {
				continue
			}
			songs = append(songs, music.Song{
				ID:     id,
				Name:   displayName(path),
				Path:   path,
				Length: length,
			})
		}
	}
	return songs
}

// resolve makes a producer resource absolute. Shotcut stores paths relative
// to the mlt element's root attribute, or the project directory.
func (p *Project) resolve(resource string) string {
	if filepath.IsAbs(resource) {
		return filepath.Clean(resource)
	}
	base := p.root.SelectAttrValue("root", "")
	if base == "" {
		base = filepath.Dir(p.Path)
	}
	path, err := filepath.Abs(filepath.Join(base, resource))
	if err != nil {
		return filepath.Join(base, resource)
	}
	return path
}

func within(path string, dirs []string) bool {
	for _, d := range dirs {
		rel, err := filepath.Rel(d, path)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// displayName prefers "Artist - Title" from the file's ID3 tag and falls
// back to the file name without extension.
func displayName(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return stem
	}
	defer tag.Close()

	title := strings.TrimSpace(tag.Title())
	if title == "" {
		return stem
	}
	if artist := strings.TrimSpace(tag.Artist()); artist != "" {
		return artist + " - " + title
	}
	return title
}
