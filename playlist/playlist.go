// Package playlist files public uploads into the playlist for their game
// and series.
//
// Playlists are titled "<Series> - <Game>" or just "<Game>". Videos are
// titled "<Game>: <Series> #<N> - <Title>" or "<Game> #<N> - <Title>". Games
// are compared by shorthand so "Kerbal Space Program" and "KSP" match.
package playlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"ytauto/youtube"
)

// ErrNothingToDo indicates the channel has no playlists or no public videos.
var ErrNothingToDo = errors.New("playlist: nothing to do")

var (
	playlistRegex = regexp.MustCompile(`^(?:(?P<series>[^-]+)- )?(?P<game>.*)$`)
	videoRegex    = regexp.MustCompile(`^(?P<game>[^:]+?)(?:: (?P<series>[^#]+))?#(?P<episode>\d+) - (?P<title>.*)$`)
)

// Shorthand abbreviates a game name to the first letter of each word,
// upper-cased. Names that are already all capitals are returned unchanged.
//
//	Shorthand("Kerbal Space Program") == "KSP"
//	Shorthand("KSP") == "KSP"
func Shorthand(game string) string {
	allCaps := true
	for _, r := range game {
		if !unicode.IsUpper(r) {
			allCaps = false
			break
		}
	}
	if allCaps {
		return game
	}

	var b strings.Builder
	for _, word := range strings.Fields(game) {
		r := []rune(word)[0]
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// ParsePlaylistTitle splits a playlist title into its game and series. The
// series is empty for single-series games.
func ParsePlaylistTitle(title string) (game, series string, ok bool) {
	m := playlistRegex.FindStringSubmatch(title)
	if m == nil {
		return "", "", false
	}
	game = strings.TrimSpace(m[playlistRegex.SubexpIndex("game")])
	series = strings.TrimSpace(m[playlistRegex.SubexpIndex("series")])
	return game, series, game != ""
}

// Episode is a parsed video title.
type Episode struct {
	Game   string
	Series string
	Number int
	Title  string
}

// ParseVideoTitle parses "<Game>: <Series> #<N> - <Title>" and
// "<Game> #<N> - <Title>".
func ParseVideoTitle(title string) (Episode, bool) {
	m := videoRegex.FindStringSubmatch(title)
	if m == nil {
		return Episode{}, false
	}
	n, err := strconv.Atoi(m[videoRegex.SubexpIndex("episode")])
	if err != nil {
		return Episode{}, false
	}
	ep := Episode{
		Game:   strings.TrimSpace(m[videoRegex.SubexpIndex("game")]),
		Series: strings.TrimSpace(m[videoRegex.SubexpIndex("series")]),
		Number: n,
		Title:  strings.TrimSpace(m[videoRegex.SubexpIndex("title")]),
	}
	return ep, ep.Game != ""
}

// Playlists maps game shorthand, then series, to a playlist.
type Playlists map[string]map[string]youtube.Playlist

// Videos maps game shorthand, then series, to videos in upload order.
type Videos map[string]map[string][]youtube.Video

// MapPlaylists indexes playlists by game shorthand and series. A later
// playlist with the same game and series replaces an earlier one.
func MapPlaylists(playlists []youtube.Playlist) Playlists {
	out := make(Playlists)
	for _, p := range playlists {
		game, series, ok := ParsePlaylistTitle(p.Title)
		if !ok {
			continue
		}
		short := Shorthand(game)
		if out[short] == nil {
			out[short] = make(map[string]youtube.Playlist)
		}
		out[short][series] = p
	}
	return out
}

// MapVideos indexes videos by game shorthand and series. Videos whose title
// does not follow the episode format are left out.
func MapVideos(videos []youtube.Video) Videos {
	out := make(Videos)
	for _, v := range videos {
		ep, ok := ParseVideoTitle(v.Title)
		if !ok {
			continue
		}
		short := Shorthand(ep.Game)
		if out[short] == nil {
			out[short] = make(map[string][]youtube.Video)
		}
		out[short][ep.Series] = append(out[short][ep.Series], v)
	}
	return out
}

// Addition is a video that belongs in a playlist it is not in yet.
type Addition struct {
	Video    youtube.Video
	Playlist youtube.Playlist
}

// Service is the part of the YouTube client the automation needs.
type Service interface {
	Playlists(ctx context.Context) ([]youtube.Playlist, error)
	Videos(ctx context.Context) ([]youtube.Video, error)
	PlaylistVideoIDs(ctx context.Context, playlistID string) ([]string, error)
	AddToPlaylist(ctx context.Context, playlistID, videoID string) error
}

// Missing returns the videos absent from their matching playlist, ordered by
// game then series. Videos with no matching playlist are ignored.
func Missing(ctx context.Context, svc Service, playlists Playlists, videos Videos) ([]Addition, error) {
	var missing []Addition
	for _, game := range sortedKeys(videos) {
		for _, series := range sortedKeys(videos[game]) {
			pl, ok := playlists[game][series]
			if !ok {
				continue
			}

			ids, err := svc.PlaylistVideoIDs(ctx, pl.ID)
			if err != nil {
				return nil, fmt.Errorf("list playlist %q: %w", pl.Title, err)
			}
			present := make(map[string]bool, len(ids))
			for _, id := range ids {
				present[id] = true
			}

			for _, v := range videos[game][series] {
				if !present[v.ID] {
					missing = append(missing, Addition{Video: v, Playlist: pl})
				}
			}
		}
	}
	return missing, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Result summarizes a run.
type Result struct {
	Missing int
	Added   int
	Failed  int
}

// Automation adds public videos to their playlists.
type Automation struct {
	YouTube Service
	Logger  *slog.Logger
}

// Run adds every public video that is missing from its playlist. A failed
// insert is logged and counted; the remaining videos are still added.
func (a *Automation) Run(ctx context.Context) (Result, error) {
	log := a.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "playlist")

	channelPlaylists, err := a.YouTube.Playlists(ctx)
	if err != nil {
		return Result{}, err
	}
	if len(channelPlaylists) == 0 {
		log.Info("no playlists found")
		return Result{}, fmt.Errorf("%w: no playlists", ErrNothingToDo)
	}
	log.Debug("found playlists", "count", len(channelPlaylists))

	uploads, err := a.YouTube.Videos(ctx)
	if err != nil {
		return Result{}, err
	}
	public := youtube.Public(uploads)
	if len(public) == 0 {
		log.Warn("no public videos found")
		return Result{}, fmt.Errorf("%w: no public videos", ErrNothingToDo)
	}
	log.Debug("found public videos", "count", len(public))

	missing, err := Missing(ctx, a.YouTube, MapPlaylists(channelPlaylists), MapVideos(public))
	if err != nil {
		return Result{}, err
	}

	res := Result{Missing: len(missing)}
	if len(missing) == 0 {
		log.Info("no videos are missing from their playlists")
		return res, nil
	}
	log.Info("videos missing from playlists", "count", len(missing))

	for _, m := range missing {
		if err := a.YouTube.AddToPlaylist(ctx, m.Playlist.ID, m.Video.ID); err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			res.Failed++
			log.Error("failed to add video to playlist", "video", m.Video.Title, "playlist", m.Playlist.Title, "error", err)
			continue
		}
		res.Added++
		log.Debug("added video to playlist", "video", m.Video.Title, "playlist", m.Playlist.Title)
	}
	return res, nil
}
