package sonarr

// Series is one tracked show.
type Series struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Path  string `json:"path"`
}

// Episode is one known episode of a series.
type Episode struct {
	ID            int64 `json:"id"`
	SeasonNumber  *int  `json:"seasonNumber"`
	EpisodeNumber *int  `json:"episodeNumber"`
}

// EpisodeFile is one file on disk. Season packs and multi-episode files list
// several episode ids; specials may list none at all.
type EpisodeFile struct {
	ID         int64   `json:"id"`
	Path       string  `json:"path"`
	EpisodeIDs []int64 `json:"episodeIds"`
}
