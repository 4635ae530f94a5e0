package project

import (
	"context"
	"log/slog"
)

// Service binds the in-memory store to the repository: every successful
// mutation is followed by a snapshot save, so the persisted record always
// holds a document whose invariants were enforced by the store.
//
// A failed save is logged but does not roll back the mutation; the in-memory
// document stays authoritative for the running session.
type Service struct {
	store  *Store
	repo   Repository
	logger *slog.Logger
}

func NewService(store *Store, repo Repository, logger *slog.Logger) *Service {
	return &Service{store: store, repo: repo, logger: logger}
}

// Load builds a store from the persisted document, or an empty one on first
// run.
func Load(ctx context.Context, repo Repository, logger *slog.Logger) (*Service, error) {
	doc, err := repo.LoadDocument(ctx)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		doc = &Document{ExportSettings: DefaultExportSettings()}
		if logger != nil {
			logger.Info("no persisted project, starting empty")
		}
	}
	return NewService(NewStore(*doc), repo, logger), nil
}

func (s *Service) Store() *Store {
	return s.store
}

func (s *Service) Snapshot() Document {
	return s.store.Snapshot()
}

func (s *Service) Script() string {
	return s.store.Script()
}

func (s *Service) SetScript(ctx context.Context, text string) {
	s.store.SetScript(text)
	s.persist(ctx)
}

func (s *Service) AppendScript(ctx context.Context, text string) string {
	out := s.store.AppendScript(text)
	s.persist(ctx)
	return out
}

func (s *Service) AddScene(ctx context.Context) Scene {
	sc := s.store.AddScene()
	s.persist(ctx)
	if s.logger != nil {
		s.logger.Info("scene added", "scene_id", sc.ID, "order", sc.Order)
	}
	return sc
}

func (s *Service) DeleteScene(ctx context.Context, id string) {
	s.store.DeleteScene(id)
	s.persist(ctx)
}

func (s *Service) UpdateScene(ctx context.Context, id string, patch ScenePatch) (*Scene, error) {
	sc, err := s.store.UpdateScene(id, patch)
	if err != nil {
		return nil, err
	}
	if sc != nil {
		s.persist(ctx)
	}
	return sc, nil
}

func (s *Service) ReorderScene(ctx context.Context, movedID, beforeID, afterID string) {
	s.store.ReorderScene(movedID, beforeID, afterID)
	s.persist(ctx)
}

func (s *Service) AddAssetToScene(ctx context.Context, sceneID, assetID string) {
	s.store.AddAssetToScene(sceneID, assetID)
	s.persist(ctx)
}

func (s *Service) RemoveAssetFromScene(ctx context.Context, sceneID, assetID string) {
	s.store.RemoveAssetFromScene(sceneID, assetID)
	s.persist(ctx)
}

func (s *Service) AddAsset(ctx context.Context, a MediaAsset) MediaAsset {
	out := s.store.AddAsset(a)
	s.persist(ctx)
	if s.logger != nil {
		s.logger.Info("asset added", "asset_id", out.ID, "kind", out.Kind, "size", out.SizeBytes)
	}
	return out
}

func (s *Service) DeleteAsset(ctx context.Context, id string) {
	s.store.DeleteAsset(id)
	s.persist(ctx)
}

func (s *Service) AddVoiceover(ctx context.Context, t VoiceoverTrack) VoiceoverTrack {
	out := s.store.AddVoiceover(t)
	s.persist(ctx)
	return out
}

func (s *Service) DeleteVoiceover(ctx context.Context, id string) {
	s.store.DeleteVoiceover(id)
	s.persist(ctx)
}

func (s *Service) AssignVoiceover(ctx context.Context, voiceoverID, sceneID string) error {
	if err := s.store.AssignVoiceover(voiceoverID, sceneID); err != nil {
		return err
	}
	s.persist(ctx)
	return nil
}

func (s *Service) SetExportSettings(ctx context.Context, settings ExportSettings) {
	s.store.SetExportSettings(settings)
	s.persist(ctx)
}

func (s *Service) Timeline() Timeline {
	return s.store.Timeline()
}

func (s *Service) persist(ctx context.Context) {
	if s.repo == nil {
		return
	}
	if err := s.repo.SaveDocument(ctx, s.store.Snapshot()); err != nil && s.logger != nil {
		s.logger.Error("failed to persist project document", "error", err)
	}
}
