package web

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/mogaika/w3d_browser/check"
	"github.com/mogaika/w3d_browser/config"
	"github.com/mogaika/w3d_browser/utils"
	"github.com/mogaika/w3d_browser/utils/gltfutils"
	"github.com/mogaika/w3d_browser/vfs"
	"github.com/mogaika/w3d_browser/w3d"
	"github.com/mogaika/w3d_browser/w3d/companim"
	"github.com/mogaika/w3d_browser/webutils"
)

type chunkView struct {
	Type      uint32 `json:"type"`
	Name      string `json:"name"`
	Offset    int64  `json:"offset"`
	Size      uint32 `json:"size"`
	Container bool   `json:"container"`
}

type animationView struct {
	Name                  string   `json:"name"`
	HierarchyName         string   `json:"hierarchy_name"`
	Version               string   `json:"version"`
	NumFrames             uint32   `json:"num_frames"`
	FrameRate             uint16   `json:"frame_rate"`
	Flavor                string   `json:"flavor"`
	TimeCodedChannels     int      `json:"time_coded_channels"`
	AdaptiveDeltaChannels int      `json:"adaptive_delta_channels"`
	BitChannels           int      `json:"bit_channels"`
	MotionChannels        int      `json:"motion_channels"`
	Pivots                []uint16 `json:"pivots"`
}

type fileView struct {
	Name       string          `json:"name"`
	Size       int             `json:"size"`
	Chunks     []chunkView     `json:"chunks"`
	Animations []animationView `json:"animations"`
}

func newAnimationView(ca *companim.CompressedAnimation) animationView {
	av := animationView{
		Name:                  ca.Header.Name,
		HierarchyName:         ca.Header.HierarchyName,
		Version:               ca.Header.Version.String(),
		NumFrames:             ca.Header.NumFrames,
		FrameRate:             ca.Header.FrameRate,
		Flavor:                ca.Header.Flavor.String(),
		TimeCodedChannels:     len(ca.TimeCodedChannels),
		AdaptiveDeltaChannels: len(ca.AdaptiveDeltaChannels),
		BitChannels:           len(ca.TimeCodedBitChannels),
		MotionChannels:        len(ca.MotionChannels),
	}
	seen := make(map[uint16]bool)
	addPivot := func(p uint16) {
		if !seen[p] {
			seen[p] = true
			av.Pivots = append(av.Pivots, p)
		}
	}
	for _, c := range ca.TimeCodedChannels {
		addPivot(c.Pivot)
	}
	for _, c := range ca.AdaptiveDeltaChannels {
		addPivot(c.Pivot)
	}
	for _, c := range ca.TimeCodedBitChannels {
		addPivot(c.Pivot)
	}
	for _, c := range ca.MotionChannels {
		addPivot(c.Pivot)
	}
	return av
}

func writeLoadError(w http.ResponseWriter, err error) {
	if errors.Is(err, os.ErrNotExist) {
		webutils.WriteErrorCode(w, http.StatusNotFound, err)
	} else {
		webutils.WriteErrorCode(w, http.StatusUnprocessableEntity, err)
	}
}

func (s *Server) load(name string) ([]byte, *w3d.File, []*companim.CompressedAnimation, error) {
	data, err := s.Dir.ReadFile(name)
	if err != nil {
		return nil, nil, nil, err
	}
	f, err := w3d.ReadFile(data)
	if err != nil {
		return data, nil, nil, errors.Wrapf(err, "Cannot parse %s", name)
	}
	anims, err := companim.FromFile(f, nil)
	if err != nil {
		return data, f, nil, errors.Wrapf(err, "Cannot decode %s", name)
	}
	return data, f, anims, nil
}

func animIndex(r *http.Request, anims []*companim.CompressedAnimation) (int, error) {
	param := mux.Vars(r)["anim"]
	if param == "" {
		param = r.URL.Query().Get("anim")
	}
	if param == "" {
		param = "0"
	}
	index, err := strconv.Atoi(param)
	if err != nil {
		return 0, errors.Errorf("param '%s' is not integer", param)
	}
	if index < 0 || index >= len(anims) {
		return 0, errors.Errorf("animation #%d not found, file has %d", index, len(anims))
	}
	return index, nil
}

func (s *Server) HandlerAjaxFiles(w http.ResponseWriter, r *http.Request) {
	if files, err := vfs.ListW3D(s.Dir); err != nil {
		webutils.WriteError(w, err)
	} else {
		webutils.WriteJson(w, files)
	}
}

func (s *Server) HandlerAjaxFile(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	data, f, anims, err := s.load(file)
	if err != nil {
		writeLoadError(w, err)
		return
	}
	fv := fileView{
		Name:       file,
		Size:       len(data),
		Chunks:     make([]chunkView, len(f.Chunks)),
		Animations: make([]animationView, len(anims)),
	}
	for i, c := range f.Chunks {
		fv.Chunks[i] = chunkView{
			Type:      c.Header.Type,
			Name:      w3d.ChunkName(c.Header.Type),
			Offset:    c.Offset,
			Size:      c.Header.Size,
			Container: c.Header.Container,
		}
	}
	for i, ca := range anims {
		fv.Animations[i] = newAnimationView(ca)
	}
	webutils.WriteJson(w, fv)
}

func (s *Server) HandlerYAMLFile(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	_, _, anims, err := s.load(file)
	if err != nil {
		writeLoadError(w, err)
		return
	}
	index, err := animIndex(r, anims)
	if err != nil {
		webutils.WriteErrorCode(w, http.StatusNotFound, err)
		return
	}
	text, err := companim.MarshalYAML(anims[index])
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	webutils.WriteResult(w, text)
}

func (s *Server) HandlerTreeFile(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	data, err := s.Dir.ReadFile(file)
	if err != nil {
		writeLoadError(w, err)
		return
	}
	webutils.WriteText(w, []byte(layoutTree(data)))
}

// layoutTree prints chunk ranges of data and, when decoding fails, the
// range the error points into
func layoutTree(data []byte) string {
	f, bs, err := w3d.ReadFileLayout(data)
	if err == nil {
		_, err = companim.FromFile(f, nil)
	}
	tree := bs.StringTree()
	if err != nil {
		tree += fmt.Sprintf("\nerror: %v\n", err)
		if loc := w3d.ErrorLocation(bs, err); loc != "" {
			tree += "at " + loc + "\n"
		}
	}
	return tree
}

func (s *Server) HandlerDumpFile(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	_, _, anims, err := s.load(file)
	if err != nil {
		writeLoadError(w, err)
		return
	}
	webutils.WriteText(w, []byte(utils.SDump(anims)))
}

func parseFlavor(s string) (companim.Flavor, error) {
	switch s {
	case config.CompressionTimeCoded:
		return companim.FlavorTimeCoded, nil
	case config.CompressionAdaptiveDelta:
		return companim.FlavorAdaptiveDelta, nil
	default:
		return 0, errors.Errorf("Unknown compression %q", s)
	}
}

// HandlerReencodeFile returns the file with every animation rebuilt in
// ?compression= flavor, settings compression by default
func (s *Server) HandlerReencodeFile(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	compression := r.URL.Query().Get("compression")
	if compression == "" {
		compression = s.Settings.Compression
	}
	flavor, err := parseFlavor(compression)
	if err != nil {
		webutils.WriteErrorCode(w, http.StatusBadRequest, err)
		return
	}

	_, f, anims, err := s.load(file)
	if err != nil {
		writeLoadError(w, err)
		return
	}
	for i, ca := range anims {
		rf, err := ca.Reflavor(flavor)
		if err != nil {
			webutils.WriteError(w, errors.Wrapf(err, "Animation %q", ca.Header.Name))
			return
		}
		if err := companim.ReplaceInFile(f, i, rf); err != nil {
			webutils.WriteError(w, err)
			return
		}
	}
	out, err := f.Bytes()
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	webutils.WriteFile(w, bytes.NewReader(out), file)
}

func (s *Server) HandlerGLTFFile(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	_, _, anims, err := s.load(file)
	if err != nil {
		writeLoadError(w, err)
		return
	}
	index, err := animIndex(r, anims)
	if err != nil {
		webutils.WriteErrorCode(w, http.StatusNotFound, err)
		return
	}
	doc, err := companim.ExportGLTF(anims[index], nil)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := gltfutils.ExportBinary(&buf, doc); err != nil {
		webutils.WriteError(w, errors.Wrapf(err, "Failed to encode glb"))
		return
	}
	webutils.WriteFile(w, &buf, anims[index].Header.Name+".glb")
}

// HandlerUploadFile takes yaml form of an animation and stores it into
// ?anim= slot of the file
func (s *Server) HandlerUploadFile(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	text, err := webutils.ReadFormFile(r, "data")
	if err != nil {
		webutils.WriteErrorCode(w, http.StatusBadRequest, err)
		return
	}
	ca, err := companim.UnmarshalYAML(text)
	if err != nil {
		webutils.WriteErrorCode(w, http.StatusBadRequest, err)
		return
	}

	_, f, anims, err := s.load(file)
	if err != nil {
		writeLoadError(w, err)
		return
	}
	index, err := animIndex(r, anims)
	if err != nil {
		webutils.WriteErrorCode(w, http.StatusNotFound, err)
		return
	}
	if err := companim.ReplaceInFile(f, index, ca); err != nil {
		webutils.WriteErrorCode(w, http.StatusBadRequest, err)
		return
	}
	out, err := f.Bytes()
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	if err := s.Dir.WriteFile(file, out); err != nil {
		webutils.WriteError(w, err)
		return
	}
	s.Hub.Info("Animation %q of %s updated", ca.Header.Name, file)
	webutils.WriteJson(w, newAnimationView(ca))
}

func (s *Server) HandlerCheck(w http.ResponseWriter, r *http.Request) {
	results, err := check.Directory(s.Dir, s.Hub)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	webutils.WriteJson(w, results)
}
