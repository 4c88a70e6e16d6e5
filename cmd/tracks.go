package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"Tracksmith/core/session"
	"Tracksmith/core/timeline"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// minTitleSimilarity is the lowest Jaro-Winkler score accepted for a fuzzy
// track title match.
const minTitleSimilarity = 0.8

// resolveTrack finds a track by number (1-based, as shown in listings),
// exact title or the closest fuzzy title match.
func resolveTrack(tracks []session.TrackSnapshot, arg string) (timeline.TrackID, error) {
	arg = strings.TrimSpace(arg)
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(tracks) {
			return 0, fmt.Errorf("%w: number %d", timeline.ErrTrackNotFound, n)
		}
		return tracks[n-1].ID, nil
	}

	query := strings.ToLower(arg)
	best, bestScore := -1, 0.0
	for i, tr := range tracks {
		title := strings.ToLower(tr.Title)
		if title == query {
			return tr.ID, nil
		}
		if score := strutil.Similarity(query, title, metrics.NewJaroWinkler()); score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 || bestScore < minTitleSimilarity {
		return 0, fmt.Errorf("%w: %q", timeline.ErrTrackNotFound, arg)
	}
	return tracks[best].ID, nil
}

// resolveClip maps a 1-based clip number on track id to its clip ID.
func resolveClip(tracks []session.TrackSnapshot, id timeline.TrackID, arg string) (timeline.ClipID, error) {
	for _, tr := range tracks {
		if tr.ID != id {
			continue
		}
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 || n > len(tr.Clips) {
			return "", fmt.Errorf("%w: %s on %s", timeline.ErrClipNotFound, arg, tr.Title)
		}
		return tr.Clips[n-1].ID, nil
	}
	return "", fmt.Errorf("%w: %d", timeline.ErrTrackNotFound, id)
}
