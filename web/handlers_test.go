package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mogaika/w3d_browser/vfs"
	"github.com/mogaika/w3d_browser/w3d"
	"github.com/mogaika/w3d_browser/w3d/companim"
)

func testServer(t *testing.T) (*Server, *vfs.MemoryDirectory) {
	ca := companim.New("walk", "skeleton", 3, 30, companim.FlavorTimeCoded)
	ca.TimeCodedChannels = append(ca.TimeCodedChannels,
		companim.NewTimeCodedAnimationChannel(2, w3d.ChannelX,
			[]w3d.Value{w3d.ScalarValue(0), w3d.ScalarValue(0.5), w3d.ScalarValue(1)}))
	data, err := ca.Bytes()
	if err != nil {
		t.Fatal(err)
	}

	d := vfs.NewMemoryDirectory("test")
	if err := d.WriteFile("walk.w3d", data); err != nil {
		t.Fatal(err)
	}
	d.WriteFile("readme.txt", []byte("not an asset"))
	return NewServer(d, nil, nil), d
}

func do(t *testing.T, s *Server, method, url string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.Router("").ServeHTTP(rec, req)
	return rec
}

func TestHandlerFiles(t *testing.T) {
	s, _ := testServer(t)
	rec := do(t, s, "GET", "/json/files", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("code %d: %s", rec.Code, rec.Body.String())
	}
	var files []string
	if err := json.Unmarshal(rec.Body.Bytes(), &files); err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0] != "walk.w3d" {
		t.Errorf("files %v", files)
	}
}

func TestHandlerFile(t *testing.T) {
	s, _ := testServer(t)
	rec := do(t, s, "GET", "/json/file/walk.w3d", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("code %d: %s", rec.Code, rec.Body.String())
	}
	var fv fileView
	if err := json.Unmarshal(rec.Body.Bytes(), &fv); err != nil {
		t.Fatal(err)
	}
	if len(fv.Chunks) != 1 || fv.Chunks[0].Type != companim.ChunkCompressedAnimation || !fv.Chunks[0].Container {
		t.Errorf("chunks %+v", fv.Chunks)
	}
	if len(fv.Animations) != 1 {
		t.Fatalf("animations %+v", fv.Animations)
	}
	av := fv.Animations[0]
	if av.Name != "walk" || av.NumFrames != 3 || av.TimeCodedChannels != 1 || len(av.Pivots) != 1 || av.Pivots[0] != 2 {
		t.Errorf("animation %+v", av)
	}

	if rec := do(t, s, "GET", "/json/file/missing.w3d", nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing file code %d", rec.Code)
	}
}

func TestHandlerYAMLAndUpload(t *testing.T) {
	s, d := testServer(t)
	rec := do(t, s, "GET", "/yaml/file/walk.w3d?anim=0", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("code %d: %s", rec.Code, rec.Body.String())
	}
	text := strings.Replace(rec.Body.String(), "name: walk", "name: run", 1)

	rec = do(t, s, "POST", "/upload/file/walk.w3d?anim=0", []byte(text))
	if rec.Code != http.StatusOK {
		t.Fatalf("upload code %d: %s", rec.Code, rec.Body.String())
	}

	data, err := d.ReadFile("walk.w3d")
	if err != nil {
		t.Fatal(err)
	}
	ca, err := companim.Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if ca.Header.Name != "run" {
		t.Errorf("stored name %q", ca.Header.Name)
	}

	if rec := do(t, s, "POST", "/upload/file/walk.w3d?anim=0", []byte("header: [")); rec.Code != http.StatusBadRequest {
		t.Errorf("bad yaml code %d", rec.Code)
	}
	if rec := do(t, s, "GET", "/yaml/file/walk.w3d?anim=4", nil); rec.Code != http.StatusNotFound {
		t.Errorf("bad index code %d", rec.Code)
	}
}

func TestHandlerReencode(t *testing.T) {
	s, _ := testServer(t)
	rec := do(t, s, "GET", "/reencode/file/walk.w3d?compression=ad", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("code %d: %s", rec.Code, rec.Body.String())
	}
	ca, err := companim.Decode(rec.Body.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if ca.Header.Flavor != companim.FlavorAdaptiveDelta || len(ca.AdaptiveDeltaChannels) != 1 {
		t.Errorf("reencoded %+v", ca.Header)
	}

	if rec := do(t, s, "GET", "/reencode/file/walk.w3d?compression=zip", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bad compression code %d", rec.Code)
	}
}

func TestHandlerGLTFAndTree(t *testing.T) {
	s, _ := testServer(t)
	rec := do(t, s, "GET", "/gltf/file/walk.w3d/0", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("code %d: %s", rec.Code, rec.Body.String())
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("glTF")) {
		t.Errorf("not a glb")
	}

	rec = do(t, s, "GET", "/tree/file/walk.w3d", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "COMPRESSED_ANIMATION_HEADER") {
		t.Errorf("tree %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandlerCheck(t *testing.T) {
	s, _ := testServer(t)
	rec := do(t, s, "GET", "/check", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("code %d: %s", rec.Code, rec.Body.String())
	}
	var results []struct {
		File      string
		Identical bool
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &results); err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || !results[0].Identical {
		t.Errorf("results %+v", results)
	}
}
