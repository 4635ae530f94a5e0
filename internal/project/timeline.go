package project

import "sort"

// TimelineEntry pairs a scene with its assigned voiceover tracks and its
// cumulative start offset within the video.
//
// Multiple tracks may target the same scene; the entry carries all of them in
// track creation order rather than electing a winner.
type TimelineEntry struct {
	Scene        Scene            `json:"scene"`
	Voiceovers   []VoiceoverTrack `json:"voiceovers,omitempty"`
	StartSeconds int              `json:"start_seconds"`
}

// Timeline is the derived, read-only ordered view of the storyboard. It holds
// no state of its own and must be rebuilt after any scene or assignment
// change.
type Timeline struct {
	Entries      []TimelineEntry `json:"entries"`
	TotalSeconds int             `json:"total_seconds"`
}

// BuildTimeline walks the scenes in order, accumulating durations, and
// attaches each voiceover track to its scene's entry.
func BuildTimeline(scenes []Scene, voiceovers []VoiceoverTrack) Timeline {
	ordered := append([]Scene(nil), scenes...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	byScene := make(map[string][]VoiceoverTrack)
	for _, v := range voiceovers {
		if v.SceneID != "" {
			byScene[v.SceneID] = append(byScene[v.SceneID], v)
		}
	}

	tl := Timeline{Entries: make([]TimelineEntry, 0, len(ordered))}
	start := 0
	for _, sc := range ordered {
		tl.Entries = append(tl.Entries, TimelineEntry{
			Scene:        sc,
			Voiceovers:   byScene[sc.ID],
			StartSeconds: start,
		})
		start += sc.DurationSeconds
	}
	tl.TotalSeconds = start
	return tl
}
