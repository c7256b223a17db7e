package media

import (
	"fmt"
	"time"
)

// TrackKind identifies what a track carries
type TrackKind string

const (
	KindAudio TrackKind = "audio"
	KindVideo TrackKind = "video"
)

// Track describes one elementary stream of a container
type Track struct {
	// Index is the stream index inside the container
	Index      int
	Kind       TrackKind
	Codec      string
	Start      time.Duration
	Duration   time.Duration
	SampleRate int
	Channels   int
	Width      int
	Height     int
}

// Asset is an immutable handle to a decodable media container
type Asset struct {
	Location string
	Duration time.Duration
	Tracks   []Track
}

// NewAsset creates an Asset, validating that it has a location
func NewAsset(location string, duration time.Duration, tracks []Track) (*Asset, error) {
	if location == "" {
		return nil, fmt.Errorf("asset location is required")
	}
	t := make([]Track, len(tracks))
	copy(t, tracks)
	return &Asset{Location: location, Duration: duration, Tracks: t}, nil
}

// TracksOf returns the tracks of a kind in container order
func (a *Asset) TracksOf(kind TrackKind) []Track {
	var out []Track
	for _, t := range a.Tracks {
		if t.Kind == kind {
			out = append(out, t)
		}
	}
	return out
}

// AudioTracks returns the audio tracks
func (a *Asset) AudioTracks() []Track {
	return a.TracksOf(KindAudio)
}

// VideoTracks returns the video tracks
func (a *Asset) VideoTracks() []Track {
	return a.TracksOf(KindVideo)
}

// FirstTrack returns the first track of a kind, or false when there is none
func (a *Asset) FirstTrack(kind TrackKind) (Track, bool) {
	for _, t := range a.Tracks {
		if t.Kind == kind {
			return t, true
		}
	}
	return Track{}, false
}
