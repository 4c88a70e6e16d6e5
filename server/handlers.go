package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"Tracksmith/core/edit"
	"Tracksmith/core/engine"
	"Tracksmith/core/session"
	"Tracksmith/core/staging"
	"Tracksmith/core/timeline"
	"Tracksmith/logger"
	"Tracksmith/repository"
	"Tracksmith/storage"

	"github.com/gorilla/mux"
)

// Publisher uploads finished exports.
type Publisher interface {
	Upload(ctx context.Context, localPath string) (storage.ObjectInfo, error)
}

// APIHandler serves the editing session over HTTP.
type APIHandler struct {
	sess      *session.Session
	publisher Publisher
	projects  repository.ProjectRepository
}

// NewAPIHandler creates a handler. publisher and projects may be nil, which
// disables uploads and saving.
func NewAPIHandler(sess *session.Session, publisher Publisher, projects repository.ProjectRepository) *APIHandler {
	return &APIHandler{sess: sess, publisher: publisher, projects: projects}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to encode response", logger.ErrorField(err))
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, timeline.ErrTrackNotFound),
		errors.Is(err, timeline.ErrClipNotFound),
		errors.Is(err, staging.ErrAssetNotFound),
		errors.Is(err, repository.ErrProjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, staging.ErrUnsupportedFile),
		errors.Is(err, edit.ErrInvalidParameter),
		errors.Is(err, edit.ErrUnknownOperation),
		errors.Is(err, edit.ErrCancelled),
		errors.Is(err, session.ErrNoTrackSelected):
		return http.StatusBadRequest
	case errors.Is(err, timeline.ErrNoClips):
		return http.StatusConflict
	case errors.Is(err, engine.ErrEngine):
		return http.StatusBadGateway
	case errors.Is(err, session.ErrClosed):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", logger.ErrorField(err))
	}
	http.Error(w, err.Error(), status)
}

func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", edit.ErrInvalidParameter, err)
	}
	return nil
}

func intVar(r *http.Request, name string) (int, error) {
	v := mux.Vars(r)[name]
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", edit.ErrInvalidParameter, name, v)
	}
	return n, nil
}

func trackVar(r *http.Request) (timeline.TrackID, error) {
	id, err := intVar(r, "track")
	return timeline.TrackID(id), err
}

// GetTimelineHandler returns the latest session snapshot.
func (h *APIHandler) GetTimelineHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sess.Snapshot())
}

type operationInfo struct {
	Name   string       `json:"name"`
	Code   *int         `json:"code,omitempty"`
	Fields []edit.Field `json:"fields"`
}

// GetOperationsHandler lists the edit catalogue with the fields each entry asks for.
func (h *APIHandler) GetOperationsHandler(w http.ResponseWriter, r *http.Request) {
	ops := make([]operationInfo, 0, len(edit.Catalogue))
	for _, op := range edit.Catalogue {
		info := operationInfo{Name: op.String(), Fields: edit.Fields(op)}
		if code, ok := op.Code(); ok {
			info.Code = &code
		}
		if info.Fields == nil {
			info.Fields = []edit.Field{}
		}
		ops = append(ops, info)
	}
	writeJSON(w, http.StatusOK, ops)
}

func (h *APIHandler) GetStagingHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sess.Snapshot().Staged)
}

func (h *APIHandler) StageHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	var asset timeline.AudioAsset
	err := h.sess.Do(r.Context(), func(ctx context.Context, st *session.State) error {
		var err error
		asset, err = st.Stage(ctx, req.Path)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, asset)
}

func (h *APIHandler) UnstageHandler(w http.ResponseWriter, r *http.Request) {
	index, err := intVar(r, "index")
	if err != nil {
		writeError(w, err)
		return
	}
	var asset timeline.AudioAsset
	err = h.sess.Do(r.Context(), func(ctx context.Context, st *session.State) error {
		var err error
		asset, err = st.Unstage(index)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, asset)
}

type assetRequest struct {
	AssetIndex int `json:"assetIndex"`
}

type clipResponse struct {
	Track timeline.TrackID `json:"track"`
	Clip  timeline.ClipID  `json:"clip"`
}

// AddTrackHandler creates a new track holding a staged asset.
func (h *APIHandler) AddTrackHandler(w http.ResponseWriter, r *http.Request) {
	var req assetRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	var resp clipResponse
	err := h.sess.Do(r.Context(), func(ctx context.Context, st *session.State) error {
		tr, c, err := st.AddToNewTrack(req.AssetIndex)
		if err != nil {
			return err
		}
		resp = clipResponse{Track: tr.ID(), Clip: c.ID}
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// AddClipHandler places a staged asset on an existing track.
func (h *APIHandler) AddClipHandler(w http.ResponseWriter, r *http.Request) {
	var req assetRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	id, err := trackVar(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var resp clipResponse
	err = h.sess.Do(r.Context(), func(ctx context.Context, st *session.State) error {
		c, err := st.AddToTrack(req.AssetIndex, id)
		if err != nil {
			return err
		}
		resp = clipResponse{Track: id, Clip: c.ID}
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *APIHandler) SelectTrackHandler(w http.ResponseWriter, r *http.Request) {
	id, err := trackVar(r)
	if err != nil {
		writeError(w, err)
		return
	}
	err = h.sess.Do(r.Context(), func(ctx context.Context, st *session.State) error {
		return st.Select(id)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DragClipHandler moves a clip by a pixel delta and returns the damaged area.
func (h *APIHandler) DragClipHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DX int `json:"dx"`
		DY int `json:"dy"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	id, err := trackVar(r)
	if err != nil {
		writeError(w, err)
		return
	}
	clip := timeline.ClipID(mux.Vars(r)["clip"])
	var damage timeline.Rect
	err = h.sess.Do(r.Context(), func(ctx context.Context, st *session.State) error {
		var err error
		damage, err = st.DragClip(id, clip, timeline.Point{X: req.DX, Y: req.DY})
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, damage)
}

type editResponse struct {
	Operation string              `json:"operation"`
	Command   *engine.EditCommand `json:"command,omitempty"`
	Target    timeline.ClipID     `json:"target"`
	Requeued  timeline.ClipID     `json:"requeued,omitempty"`
}

// EditTrackHandler runs an edit transaction. Parameters missing from the
// request count as a cancelled prompt.
func (h *APIHandler) EditTrackHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Operation string            `json:"operation"`
		Params    map[string]string `json:"params"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	op, err := edit.ParseOperation(req.Operation)
	if err != nil {
		writeError(w, err)
		return
	}

	id, err := trackVar(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var out edit.Outcome
	err = h.sess.Do(r.Context(), func(ctx context.Context, st *session.State) error {
		var err error
		out, err = st.EditTrack(ctx, id, op, edit.ValuesPrompter(req.Params))
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}

	resp := editResponse{Operation: out.Operation.String(), Command: out.Command}
	if out.Target != nil {
		resp.Target = out.Target.ID
	}
	if out.Requeued != nil {
		resp.Requeued = out.Requeued.ID
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *APIHandler) UpdateMasterHandler(w http.ResponseWriter, r *http.Request) {
	var placements int
	err := h.sess.Do(r.Context(), func(ctx context.Context, st *session.State) error {
		var err error
		placements, err = st.UpdateMaster(ctx)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"placements": placements})
}

type exportResponse struct {
	Path   string              `json:"path"`
	Object *storage.ObjectInfo `json:"object,omitempty"`
}

// ExportHandler renders the timeline to dir/name.wav and optionally uploads it.
func (h *APIHandler) ExportHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Dir    string `json:"dir"`
		Name   string `json:"name"`
		Upload bool   `json:"upload"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Dir == "" {
		writeError(w, fmt.Errorf("%w: dir is required", edit.ErrInvalidParameter))
		return
	}
	if req.Upload && h.publisher == nil {
		http.Error(w, "object storage is not configured", http.StatusPreconditionFailed)
		return
	}

	var resp exportResponse
	err := h.sess.Do(r.Context(), func(ctx context.Context, st *session.State) error {
		var err error
		resp.Path, err = st.Export(ctx, req.Dir, req.Name)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if req.Upload {
		info, err := h.publisher.Upload(r.Context(), resp.Path)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		resp.Object = &info
	}
	writeJSON(w, http.StatusOK, resp)
}

// SaveProjectHandler updates the master and stores the timeline under name.
func (h *APIHandler) SaveProjectHandler(w http.ResponseWriter, r *http.Request) {
	if h.projects == nil {
		http.Error(w, "project storage is not configured", http.StatusPreconditionFailed)
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Name == "" {
		writeError(w, fmt.Errorf("%w: name is required", edit.ErrInvalidParameter))
		return
	}

	var id string
	err := h.sess.Do(r.Context(), func(ctx context.Context, st *session.State) error {
		if _, err := st.UpdateMaster(ctx); err != nil {
			return err
		}
		rec, err := h.projects.Save(ctx, req.Name, st.Mixdown.MasterPath(), st.Timeline)
		if err != nil {
			return err
		}
		id = rec.ID
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "name": req.Name})
}
