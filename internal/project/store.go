package project

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Store holds the project document and applies mutations that keep its
// invariants intact: scene order values are a permutation of 0..N-1, scene
// asset lists never hold dangling or duplicate ids, and voiceover tracks
// never point at a deleted scene. All methods are safe for concurrent use;
// each mutation is atomic from the caller's point of view.
type Store struct {
	mu  sync.Mutex
	doc Document

	scenes     map[string]int // id -> index into doc.Scenes
	assets     map[string]int
	voiceovers map[string]int
}

// NewStore wraps a loaded document. The document is normalised on the way in:
// scenes are sorted by order and renumbered, and references to ids that no
// longer resolve are stripped, so a damaged persisted record cannot poison
// the in-memory invariants.
func NewStore(doc Document) *Store {
	s := &Store{doc: doc}

	sort.SliceStable(s.doc.Scenes, func(i, j int) bool {
		return s.doc.Scenes[i].Order < s.doc.Scenes[j].Order
	})
	s.reindex()
	s.renumber()

	for i := range s.doc.Scenes {
		s.doc.Scenes[i].MediaAssetIDs = s.pruneAssetIDs(s.doc.Scenes[i].MediaAssetIDs)
	}
	for i, v := range s.doc.Voiceovers {
		if v.SceneID != "" {
			if _, ok := s.scenes[v.SceneID]; !ok {
				s.doc.Voiceovers[i].SceneID = ""
			}
		}
	}
	return s
}

// Snapshot returns a deep copy of the current document.
func (s *Store) Snapshot() Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Document {
	doc := s.doc
	doc.Scenes = make([]Scene, len(s.doc.Scenes))
	for i, sc := range s.doc.Scenes {
		doc.Scenes[i] = sc
		doc.Scenes[i].MediaAssetIDs = append([]string(nil), sc.MediaAssetIDs...)
	}
	doc.Assets = append([]MediaAsset(nil), s.doc.Assets...)
	doc.Voiceovers = append([]VoiceoverTrack(nil), s.doc.Voiceovers...)
	if s.doc.ExportSettings.Watermark != nil {
		wm := *s.doc.ExportSettings.Watermark
		doc.ExportSettings.Watermark = &wm
	}
	return doc
}

func (s *Store) Revision() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Revision
}

// Script returns the current script text.
func (s *Store) Script() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Script
}

func (s *Store) SetScript(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Script = text
	s.doc.Revision++
}

// AppendScript appends text to the script and returns the result. Used by
// the suggestion flow.
func (s *Store) AppendScript(text string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Script += text
	s.doc.Revision++
	return s.doc.Script
}

// AddScene appends a new scene with defaults. It never fails.
func (s *Store) AddScene() Scene {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc := Scene{
		ID:              NewID(),
		Title:           fmt.Sprintf("Scene %d", len(s.doc.Scenes)+1),
		DurationSeconds: DefaultSceneDuration,
		MediaAssetIDs:   []string{},
		Transition:      DefaultTransition,
		Order:           len(s.doc.Scenes),
	}
	s.doc.Scenes = append(s.doc.Scenes, sc)
	s.scenes[sc.ID] = len(s.doc.Scenes) - 1
	s.doc.Revision++
	return sc
}

// DeleteScene removes a scene, renumbers the remaining scenes and clears the
// scene reference on any voiceover track pointing at it. Unknown ids are a
// no-op.
func (s *Store) DeleteScene(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.scenes[id]
	if !ok {
		return
	}
	s.doc.Scenes = append(s.doc.Scenes[:idx], s.doc.Scenes[idx+1:]...)
	s.reindex()
	s.renumber()

	for i, v := range s.doc.Voiceovers {
		if v.SceneID == id {
			s.doc.Voiceovers[i].SceneID = ""
		}
	}
	s.doc.Revision++
}

// UpdateScene merges patch fields into the scene. Order is never touched.
// Unknown ids are a no-op returning nil. Out-of-range durations and unknown
// transitions are rejected before anything is written.
func (s *Store) UpdateScene(id string, patch ScenePatch) (*Scene, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.scenes[id]
	if !ok {
		return nil, nil
	}

	if patch.DurationSeconds != nil {
		d := *patch.DurationSeconds
		if d < MinSceneDuration || d > MaxSceneDuration {
			return nil, &ValidationError{
				Field:  "duration_seconds",
				Reason: fmt.Sprintf("must be between %d and %d", MinSceneDuration, MaxSceneDuration),
			}
		}
	}
	if patch.Transition != nil && !Transitions[*patch.Transition] {
		return nil, &ValidationError{Field: "transition", Reason: "unknown transition " + *patch.Transition}
	}

	sc := &s.doc.Scenes[idx]
	if patch.Title != nil {
		sc.Title = *patch.Title
	}
	if patch.Description != nil {
		sc.Description = *patch.Description
	}
	if patch.DurationSeconds != nil {
		sc.DurationSeconds = *patch.DurationSeconds
	}
	if patch.Transition != nil {
		sc.Transition = *patch.Transition
	}
	s.doc.Revision++
	out := *sc
	out.MediaAssetIDs = append([]string(nil), sc.MediaAssetIDs...)
	return &out, nil
}

// ReorderScene removes the moved scene and reinserts it before beforeID or
// after afterID, then renumbers the whole sequence. Moving a scene relative
// to itself, or naming an unknown id, is a no-op.
func (s *Store) ReorderScene(movedID, beforeID, afterID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	from, ok := s.scenes[movedID]
	if !ok {
		return
	}

	targetID := beforeID
	if targetID == "" {
		targetID = afterID
	}
	if targetID == movedID || targetID == "" {
		return
	}
	if _, ok := s.scenes[targetID]; !ok {
		return
	}

	moved := s.doc.Scenes[from]
	rest := append(append([]Scene{}, s.doc.Scenes[:from]...), s.doc.Scenes[from+1:]...)

	to := 0
	for i, sc := range rest {
		if sc.ID == targetID {
			if beforeID != "" {
				to = i
			} else {
				to = i + 1
			}
			break
		}
	}

	s.doc.Scenes = append(rest[:to:to], append([]Scene{moved}, rest[to:]...)...)
	s.reindex()
	s.renumber()
	s.doc.Revision++
}

// AddAssetToScene attaches an asset to a scene. The attachment is set-like:
// attaching an already-attached asset changes nothing. Unknown scene or asset
// ids are a no-op.
func (s *Store) AddAssetToScene(sceneID, assetID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.scenes[sceneID]
	if !ok {
		return
	}
	if _, ok := s.assets[assetID]; !ok {
		return
	}
	for _, id := range s.doc.Scenes[idx].MediaAssetIDs {
		if id == assetID {
			return
		}
	}
	s.doc.Scenes[idx].MediaAssetIDs = append(s.doc.Scenes[idx].MediaAssetIDs, assetID)
	s.doc.Revision++
}

// RemoveAssetFromScene detaches an asset if attached; otherwise a no-op.
func (s *Store) RemoveAssetFromScene(sceneID, assetID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.scenes[sceneID]
	if !ok {
		return
	}
	ids := s.doc.Scenes[idx].MediaAssetIDs
	for i, id := range ids {
		if id == assetID {
			s.doc.Scenes[idx].MediaAssetIDs = append(ids[:i], ids[i+1:]...)
			s.doc.Revision++
			return
		}
	}
}

// AddAsset registers an ingested media asset.
func (s *Store) AddAsset(a MediaAsset) MediaAsset {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" {
		a.ID = NewID()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	s.doc.Assets = append(s.doc.Assets, a)
	s.assets[a.ID] = len(s.doc.Assets) - 1
	s.doc.Revision++
	return a
}

// DeleteAsset removes the asset from the library and strips its id from every
// scene in the same step, so no reader ever observes a dangling reference.
func (s *Store) DeleteAsset(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.assets[id]
	if !ok {
		return
	}
	s.doc.Assets = append(s.doc.Assets[:idx], s.doc.Assets[idx+1:]...)
	s.reindex()

	for i := range s.doc.Scenes {
		s.doc.Scenes[i].MediaAssetIDs = removeID(s.doc.Scenes[i].MediaAssetIDs, id)
	}
	s.doc.Revision++
}

// AddVoiceover registers a captured or uploaded track.
func (s *Store) AddVoiceover(t VoiceoverTrack) VoiceoverTrack {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		t.ID = NewID()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	if t.SceneID != "" {
		if _, ok := s.scenes[t.SceneID]; !ok {
			t.SceneID = ""
		}
	}
	s.doc.Voiceovers = append(s.doc.Voiceovers, t)
	s.voiceovers[t.ID] = len(s.doc.Voiceovers) - 1
	s.doc.Revision++
	return t
}

// DeleteVoiceover removes a track. Scenes never reference voiceovers, so no
// cascade is needed.
func (s *Store) DeleteVoiceover(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.voiceovers[id]
	if !ok {
		return
	}
	s.doc.Voiceovers = append(s.doc.Voiceovers[:idx], s.doc.Voiceovers[idx+1:]...)
	s.reindex()
	s.doc.Revision++
}

// AssignVoiceover sets or clears a track's scene. Clearing (empty sceneID) is
// always allowed; assigning to an unknown scene is rejected. An unknown track
// id is a no-op.
func (s *Store) AssignVoiceover(voiceoverID, sceneID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.voiceovers[voiceoverID]
	if !ok {
		return nil
	}
	if sceneID != "" {
		if _, ok := s.scenes[sceneID]; !ok {
			return &ValidationError{Field: "scene_id", Reason: "scene " + sceneID + " does not exist"}
		}
	}
	s.doc.Voiceovers[idx].SceneID = sceneID
	s.doc.Revision++
	return nil
}

// SetExportSettings validates nothing; the export package owns settings
// validation and callers go through it first.
func (s *Store) SetExportSettings(settings ExportSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.ExportSettings = settings
	s.doc.Revision++
}

// Scenes returns the scenes in timeline order.
func (s *Store) Scenes() []Scene {
	return s.Snapshot().Scenes
}

func (s *Store) Scene(id string) (*Scene, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.scenes[id]
	if !ok {
		return nil, &NotFoundError{Kind: "scene", ID: id}
	}
	sc := s.doc.Scenes[idx]
	sc.MediaAssetIDs = append([]string(nil), sc.MediaAssetIDs...)
	return &sc, nil
}

func (s *Store) Assets() []MediaAsset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]MediaAsset(nil), s.doc.Assets...)
}

func (s *Store) Asset(id string) (*MediaAsset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.assets[id]
	if !ok {
		return nil, &NotFoundError{Kind: "asset", ID: id}
	}
	a := s.doc.Assets[idx]
	return &a, nil
}

func (s *Store) Voiceovers() []VoiceoverTrack {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]VoiceoverTrack(nil), s.doc.Voiceovers...)
}

func (s *Store) Voiceover(id string) (*VoiceoverTrack, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.voiceovers[id]
	if !ok {
		return nil, &NotFoundError{Kind: "voiceover", ID: id}
	}
	t := s.doc.Voiceovers[idx]
	return &t, nil
}

// Timeline projects the current document; see timeline.go.
func (s *Store) Timeline() Timeline {
	s.mu.Lock()
	defer s.mu.Unlock()
	return BuildTimeline(s.doc.Scenes, s.doc.Voiceovers)
}

// reindex rebuilds the id lookup maps after any structural change.
func (s *Store) reindex() {
	s.scenes = make(map[string]int, len(s.doc.Scenes))
	for i, sc := range s.doc.Scenes {
		s.scenes[sc.ID] = i
	}
	s.assets = make(map[string]int, len(s.doc.Assets))
	for i, a := range s.doc.Assets {
		s.assets[a.ID] = i
	}
	s.voiceovers = make(map[string]int, len(s.doc.Voiceovers))
	for i, v := range s.doc.Voiceovers {
		s.voiceovers[v.ID] = i
	}
}

// renumber rewrites order as the slice index, restoring the 0..N-1
// permutation after insert, delete or reorder.
func (s *Store) renumber() {
	for i := range s.doc.Scenes {
		s.doc.Scenes[i].Order = i
	}
}

func (s *Store) pruneAssetIDs(ids []string) []string {
	out := ids[:0]
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		if _, ok := s.assets[id]; !ok {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
