package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/storycut/storycut-agent/internal/capture"
	"github.com/storycut/storycut-agent/internal/db"
	"github.com/storycut/storycut-agent/internal/export"
	"github.com/storycut/storycut-agent/internal/media"
	"github.com/storycut/storycut-agent/internal/project"
	"github.com/storycut/storycut-agent/internal/suggest"
)

const testToken = "test-token"

type testAgent struct {
	router       http.Handler
	projectSvc   *project.Service
	orchestrator *export.Orchestrator
}

func newTestAgent(t *testing.T) *testAgent {
	t.Helper()

	dir := t.TempDir()
	database, err := db.New(filepath.Join(dir, "agent.db"), nil)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	repo := project.NewRepository(database.Conn())
	if err := repo.SetConfig(context.Background(), "auth_token", testToken); err != nil {
		t.Fatalf("failed to seed auth token: %v", err)
	}

	projectSvc, err := project.Load(context.Background(), repo, nil)
	if err != nil {
		t.Fatalf("failed to load project: %v", err)
	}

	mediaDir := filepath.Join(dir, "media")
	ingestor, err := media.NewIngestor(mediaDir, nil)
	if err != nil {
		t.Fatalf("failed to create ingestor: %v", err)
	}

	renderer := export.NewSimRenderer(filepath.Join(dir, "artifacts"), time.Millisecond, 50, nil)
	orchestrator := export.NewOrchestrator(repo, renderer, nil)

	cfg := ServerConfig{
		Port:         0,
		Project:      projectSvc,
		Repository:   repo,
		Orchestrator: orchestrator,
		Ingestor:     ingestor,
		MediaServer:  media.NewServer(mediaDir, nil),
		Recorder:     capture.NewRecorder(time.Millisecond, nil),
		Suggester:    suggest.NewService(time.Millisecond, nil),
		Logger:       discardLogger(),
		StartTime:    time.Now(),
		DeviceID:     "device-test",
	}

	return &testAgent{
		router:       NewRouter(cfg),
		projectSvc:   projectSvc,
		orchestrator: orchestrator,
	}
}

func (a *testAgent) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+testToken)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testAgent) upload(t *testing.T, path, filename, contentType, content string, form map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		t.Fatalf("create form part: %v", err)
	}
	part.Write([]byte(content))

	for k, v := range form {
		mw.WriteField(k, v)
	}
	mw.Close()

	req := httptest.NewRequest("POST", path, &buf)
	req.Header.Set("Authorization", "Bearer "+testToken)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealth_NoAuthRequired(t *testing.T) {
	a := newTestAgent(t)

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decode[HealthResponse](t, rec)
	if resp.Status != "ok" || resp.DeviceID != "device-test" {
		t.Errorf("health = %+v", resp)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Errorf("X-Request-ID header missing")
	}
}

func TestProtectedRoutes_RequireAuth(t *testing.T) {
	a := newTestAgent(t)

	req := httptest.NewRequest("GET", "/status", nil)
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 without token", rec.Code)
	}
}

func TestStatus(t *testing.T) {
	a := newTestAgent(t)
	a.do(t, "POST", "/scenes", nil)
	a.do(t, "POST", "/scenes", nil)

	rec := a.do(t, "GET", "/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decode[StatusResponse](t, rec)
	if resp.State != "idle" {
		t.Errorf("State = %q, want idle", resp.State)
	}
	if resp.SceneCount != 2 {
		t.Errorf("SceneCount = %d, want 2", resp.SceneCount)
	}
	if resp.TimelineSeconds != 10 {
		t.Errorf("TimelineSeconds = %d, want 10", resp.TimelineSeconds)
	}
	if resp.Revision == 0 {
		t.Errorf("Revision = 0, want bumped")
	}
}

func TestScript_UpdateAndGet(t *testing.T) {
	a := newTestAgent(t)

	rec := a.do(t, "PUT", "/script", UpdateScriptRequest{Script: "INT. OFFICE - DAY"})
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT /script status = %d", rec.Code)
	}

	rec = a.do(t, "GET", "/script", nil)
	resp := decode[ScriptResponse](t, rec)
	if resp.Script != "INT. OFFICE - DAY" {
		t.Errorf("Script = %q", resp.Script)
	}
}

func TestScript_Suggest(t *testing.T) {
	a := newTestAgent(t)
	a.do(t, "PUT", "/script", UpdateScriptRequest{Script: "Opening line."})

	rec := a.do(t, "POST", "/script/suggest", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decode[ScriptResponse](t, rec)
	if !strings.HasPrefix(resp.Script, "Opening line.") {
		t.Errorf("suggestion replaced the script instead of appending: %q", resp.Script)
	}
	if !strings.Contains(resp.Script, "[SCENE 1]") {
		t.Errorf("suggestion beats missing: %q", resp.Script)
	}
}

func TestScenes_CRUD(t *testing.T) {
	a := newTestAgent(t)

	rec := a.do(t, "POST", "/scenes", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /scenes status = %d", rec.Code)
	}
	created := decode[SceneResponse](t, rec)
	if created.Title != "Scene 1" || created.DurationSeconds != 5 || created.Transition != "fade" {
		t.Errorf("created scene = %+v", created)
	}
	if created.MediaAssetIDs == nil {
		t.Errorf("MediaAssetIDs = null, want []")
	}

	rec = a.do(t, "PATCH", "/scenes/"+created.ID, map[string]any{
		"title":            "Opening",
		"duration_seconds": 15,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("PATCH status = %d: %s", rec.Code, rec.Body.String())
	}
	updated := decode[SceneResponse](t, rec)
	if updated.Title != "Opening" || updated.DurationSeconds != 15 {
		t.Errorf("updated scene = %+v", updated)
	}

	rec = a.do(t, "GET", "/scenes", nil)
	list := decode[ScenesResponse](t, rec)
	if len(list.Scenes) != 1 {
		t.Fatalf("len(scenes) = %d", len(list.Scenes))
	}

	rec = a.do(t, "DELETE", "/scenes/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE status = %d", rec.Code)
	}

	rec = a.do(t, "GET", "/scenes", nil)
	list = decode[ScenesResponse](t, rec)
	if len(list.Scenes) != 0 {
		t.Errorf("len(scenes) = %d after delete", len(list.Scenes))
	}
}

func TestScenes_UpdateValidation(t *testing.T) {
	a := newTestAgent(t)
	created := decode[SceneResponse](t, a.do(t, "POST", "/scenes", nil))

	rec := a.do(t, "PATCH", "/scenes/"+created.ID, map[string]any{"duration_seconds": 0})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	resp := decode[ErrorResponse](t, rec)
	if resp.Code != "VALIDATION_ERROR" {
		t.Errorf("code = %q", resp.Code)
	}

	rec = a.do(t, "PATCH", "/scenes/missing", map[string]any{"title": "x"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for unknown scene", rec.Code)
	}
}

func TestScenes_Reorder(t *testing.T) {
	a := newTestAgent(t)
	s1 := decode[SceneResponse](t, a.do(t, "POST", "/scenes", nil))
	s2 := decode[SceneResponse](t, a.do(t, "POST", "/scenes", nil))
	s3 := decode[SceneResponse](t, a.do(t, "POST", "/scenes", nil))

	rec := a.do(t, "POST", "/scenes/"+s3.ID+"/reorder", ReorderSceneRequest{BeforeID: s1.ID})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	list := decode[ScenesResponse](t, rec)
	got := []string{list.Scenes[0].ID, list.Scenes[1].ID, list.Scenes[2].ID}
	want := []string{s3.ID, s1.ID, s2.ID}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
	for i, sc := range list.Scenes {
		if sc.Order != i {
			t.Errorf("scene[%d].Order = %d", i, sc.Order)
		}
	}

	// Exactly one anchor is required.
	rec = a.do(t, "POST", "/scenes/"+s1.ID+"/reorder", ReorderSceneRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("no anchor: status = %d, want 400", rec.Code)
	}
	rec = a.do(t, "POST", "/scenes/"+s1.ID+"/reorder", ReorderSceneRequest{BeforeID: s2.ID, AfterID: s3.ID})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("both anchors: status = %d, want 400", rec.Code)
	}
}

func TestAssets_UploadAttachDelete(t *testing.T) {
	a := newTestAgent(t)
	scene := decode[SceneResponse](t, a.do(t, "POST", "/scenes", nil))

	rec := a.upload(t, "/assets", "photo.png", "image/png", "png-bytes", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d: %s", rec.Code, rec.Body.String())
	}
	asset := decode[AssetResponse](t, rec)
	if asset.Kind != "image" {
		t.Errorf("Kind = %q, want image", asset.Kind)
	}
	if asset.SizeBytes != int64(len("png-bytes")) {
		t.Errorf("SizeBytes = %d", asset.SizeBytes)
	}

	rec = a.do(t, "POST", "/scenes/"+scene.ID+"/assets", AttachAssetRequest{AssetID: asset.ID})
	if rec.Code != http.StatusOK {
		t.Fatalf("attach status = %d", rec.Code)
	}
	attached := decode[SceneResponse](t, rec)
	if len(attached.MediaAssetIDs) != 1 || attached.MediaAssetIDs[0] != asset.ID {
		t.Errorf("MediaAssetIDs = %v", attached.MediaAssetIDs)
	}

	// Attaching twice stays a single reference.
	rec = a.do(t, "POST", "/scenes/"+scene.ID+"/assets", AttachAssetRequest{AssetID: asset.ID})
	attached = decode[SceneResponse](t, rec)
	if len(attached.MediaAssetIDs) != 1 {
		t.Errorf("MediaAssetIDs = %v after duplicate attach", attached.MediaAssetIDs)
	}

	rec = a.do(t, "GET", "/assets/"+asset.ID+"/content", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "png-bytes" {
		t.Errorf("content status = %d body = %q", rec.Code, rec.Body.String())
	}

	rec = a.do(t, "DELETE", "/assets/"+asset.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}

	// The scene's reference is stripped with the asset.
	scenes := decode[ScenesResponse](t, a.do(t, "GET", "/scenes", nil))
	if len(scenes.Scenes[0].MediaAssetIDs) != 0 {
		t.Errorf("MediaAssetIDs = %v after asset delete", scenes.Scenes[0].MediaAssetIDs)
	}

	rec = a.do(t, "GET", "/assets/"+asset.ID+"/content", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("content after delete status = %d, want 404", rec.Code)
	}
}

func TestAssets_UploadRequiresFile(t *testing.T) {
	a := newTestAgent(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("duration_seconds", "5")
	mw.Close()

	req := httptest.NewRequest("POST", "/assets", &buf)
	req.Header.Set("Authorization", "Bearer "+testToken)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestVoiceovers_RecordAssignDelete(t *testing.T) {
	a := newTestAgent(t)
	scene := decode[SceneResponse](t, a.do(t, "POST", "/scenes", nil))

	rec := a.do(t, "POST", "/voiceovers/record", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("record status = %d: %s", rec.Code, rec.Body.String())
	}
	track := decode[VoiceoverResponse](t, rec)
	if track.Name != "Recording 1" || track.DurationSeconds != 10 {
		t.Errorf("track = %+v", track)
	}

	sceneID := scene.ID
	rec = a.do(t, "PUT", "/voiceovers/"+track.ID+"/scene", AssignVoiceoverRequest{SceneID: &sceneID})
	if rec.Code != http.StatusOK {
		t.Fatalf("assign status = %d: %s", rec.Code, rec.Body.String())
	}
	assigned := decode[VoiceoverResponse](t, rec)
	if assigned.SceneID != scene.ID {
		t.Errorf("SceneID = %q", assigned.SceneID)
	}

	// The timeline entry now carries the track.
	tl := decode[project.Timeline](t, a.do(t, "GET", "/timeline", nil))
	if len(tl.Entries) != 1 || len(tl.Entries[0].Voiceovers) != 1 {
		t.Errorf("timeline = %+v", tl)
	}

	bad := "no-such-scene"
	rec = a.do(t, "PUT", "/voiceovers/"+track.ID+"/scene", AssignVoiceoverRequest{SceneID: &bad})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("assign unknown scene status = %d, want 400", rec.Code)
	}

	// Clearing with null.
	rec = a.do(t, "PUT", "/voiceovers/"+track.ID+"/scene", AssignVoiceoverRequest{SceneID: nil})
	if rec.Code != http.StatusOK {
		t.Fatalf("clear status = %d", rec.Code)
	}
	cleared := decode[VoiceoverResponse](t, rec)
	if cleared.SceneID != "" {
		t.Errorf("SceneID = %q, want cleared", cleared.SceneID)
	}

	// Simulated recordings carry no audio bytes.
	rec = a.do(t, "GET", "/voiceovers/"+track.ID+"/content", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("content status = %d, want 404 for simulated recording", rec.Code)
	}

	rec = a.do(t, "DELETE", "/voiceovers/"+track.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	list := decode[VoiceoversResponse](t, a.do(t, "GET", "/voiceovers", nil))
	if len(list.Voiceovers) != 0 {
		t.Errorf("voiceovers = %+v after delete", list.Voiceovers)
	}
}

func TestVoiceovers_Upload(t *testing.T) {
	a := newTestAgent(t)

	rec := a.upload(t, "/voiceovers", "narration.mp3", "audio/mpeg", "mp3-bytes", map[string]string{
		"duration_seconds": "12.5",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d: %s", rec.Code, rec.Body.String())
	}
	track := decode[VoiceoverResponse](t, rec)
	if track.Name != "narration.mp3" || track.DurationSeconds != 12.5 {
		t.Errorf("track = %+v", track)
	}

	rec = a.do(t, "GET", "/voiceovers/"+track.ID+"/content", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "mp3-bytes" {
		t.Errorf("content status = %d body = %q", rec.Code, rec.Body.String())
	}
}

func TestTimeline(t *testing.T) {
	a := newTestAgent(t)
	s1 := decode[SceneResponse](t, a.do(t, "POST", "/scenes", nil))
	a.do(t, "POST", "/scenes", nil)
	a.do(t, "PATCH", "/scenes/"+s1.ID, map[string]any{"duration_seconds": 8})

	tl := decode[project.Timeline](t, a.do(t, "GET", "/timeline", nil))
	if len(tl.Entries) != 2 {
		t.Fatalf("entries = %d", len(tl.Entries))
	}
	if tl.Entries[1].StartSeconds != 8 {
		t.Errorf("entry[1].StartSeconds = %d, want 8", tl.Entries[1].StartSeconds)
	}
	if tl.TotalSeconds != 13 {
		t.Errorf("TotalSeconds = %d, want 13", tl.TotalSeconds)
	}
}

func TestExports_EmptyTimeline(t *testing.T) {
	a := newTestAgent(t)

	rec := a.do(t, "POST", "/exports", ExportRequest{Settings: project.DefaultExportSettings()})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422: %s", rec.Code, rec.Body.String())
	}
	resp := decode[ErrorResponse](t, rec)
	if resp.Code != "EMPTY_TIMELINE" {
		t.Errorf("code = %q", resp.Code)
	}
}

func TestExports_InvalidSettings(t *testing.T) {
	a := newTestAgent(t)
	a.do(t, "POST", "/scenes", nil)

	settings := project.DefaultExportSettings()
	settings.Resolution = "8k"
	rec := a.do(t, "POST", "/exports", ExportRequest{Settings: settings})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestExports_FullRun(t *testing.T) {
	a := newTestAgent(t)
	a.do(t, "POST", "/scenes", nil)

	rec := a.do(t, "POST", "/exports", ExportRequest{Settings: project.DefaultExportSettings()})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	job := decode[ExportResponse](t, rec)
	if job.Status != "pending" {
		t.Errorf("initial status = %q", job.Status)
	}

	a.orchestrator.Wait(job.ID)

	rec = a.do(t, "GET", "/exports/"+job.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	finished := decode[ExportResponse](t, rec)
	if finished.Status != "completed" || finished.Progress != 100 {
		t.Errorf("export = status %q progress %d", finished.Status, finished.Progress)
	}
	if finished.ArtifactPath == "" {
		t.Errorf("ArtifactPath empty on completed export")
	}

	list := decode[ExportsResponse](t, a.do(t, "GET", "/exports", nil))
	if len(list.Exports) != 1 {
		t.Errorf("exports = %d", len(list.Exports))
	}
}

func TestExports_GetUnknown(t *testing.T) {
	a := newTestAgent(t)

	rec := a.do(t, "GET", "/exports/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestExports_CancelUnknown(t *testing.T) {
	a := newTestAgent(t)

	rec := a.do(t, "POST", "/exports/missing/cancel", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
