package plex

import (
	"encoding/xml"
)

// MediaContainer is the envelope of every Plex library response.
type MediaContainer struct {
	XMLName     xml.Name    `xml:"MediaContainer"`
	Directories []Directory `xml:"Directory"`
	Videos      []Video     `xml:"Video"`
}

// Directory describes a library section, a show or a season depending on the
// endpoint it came from. Key is a server-relative path.
type Directory struct {
	Key   string `xml:"key,attr"`
	Type  string `xml:"type,attr"`
	Title string `xml:"title,attr"`
	Index *int   `xml:"index,attr"`
}

// Video is one episode.
type Video struct {
	Key   string `xml:"key,attr"`
	Index *int   `xml:"index,attr"`
	Parts []Part `xml:"Media>Part"`
}

// Part is one media file backing an episode.
type Part struct {
	File string `xml:"file,attr"`
}
