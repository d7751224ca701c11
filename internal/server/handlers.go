package server

import (
	"net/http"
	"strings"

	"decko/internal/content"
	"decko/internal/keys"
	"decko/internal/studio"
)

type stateResponse struct {
	studio.State
	Hashtags          string `json:"hashtagLine,omitempty"`
	GeneratedImageURL string `json:"generatedImage,omitempty"`
	EditSourceURL     string `json:"editSource,omitempty"`
	EditedImageURL    string `json:"editedImage,omitempty"`
}

func newStateResponse(st studio.State) stateResponse {
	resp := stateResponse{State: st}
	if st.Draft != nil {
		resp.Hashtags = content.FormatHashtags(st.Draft.Hashtags)
	}
	if st.GeneratedImage != nil {
		resp.GeneratedImageURL = st.GeneratedImage.DataURL()
	}
	if st.EditSource != nil {
		resp.EditSourceURL = st.EditSource.DataURL()
	}
	if st.EditedImage != nil {
		resp.EditedImageURL = st.EditedImage.DataURL()
	}
	return resp
}

func writeState(w http.ResponseWriter, sess *studio.Session) {
	writeJSON(w, http.StatusOK, newStateResponse(sess.Snapshot()))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeState(w, s.session(w, r))
}

func (s *Server) handleKeyStatus(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	sess.Init(r.Context())
	writeJSON(w, http.StatusOK, map[string]bool{"hasKey": sess.Snapshot().HasKey})
}

type selectKeyRequest struct {
	APIKey string `json:"apiKey"`
}

func (s *Server) handleSelectKey(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)

	var req selectKeyRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	ctx := keys.WithPromptedKey(r.Context(), req.APIKey)
	if err := sess.SelectKey(ctx); err != nil {
		writeError(w, err)
		return
	}
	writeState(w, sess)
}

type searchRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)

	var req searchRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := sess.Search(r.Context(), req.Query); err != nil {
		writeError(w, err)
		return
	}
	writeState(w, sess)
}

func (s *Server) handleDraft(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if err := sess.DraftPost(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeState(w, sess)
}

type studioRequest struct {
	View        *string `json:"view"`
	Mode        *string `json:"mode"`
	ImagePrompt *string `json:"imagePrompt"`
	AspectRatio *string `json:"aspectRatio"`
	Resolution  *string `json:"resolution"`
	SendDraft   bool    `json:"sendDraft"`
}

func (s *Server) handleStudio(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)

	var req studioRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := applyStudioRequest(sess, req); err != nil {
		writeError(w, err)
		return
	}
	writeState(w, sess)
}

func applyStudioRequest(sess *studio.Session, req studioRequest) error {
	var view content.View
	var mode content.StudioMode
	var err error

	if req.View != nil {
		if view, err = content.ParseView(*req.View); err != nil {
			return badRequest{msg: err.Error()}
		}
	}
	if req.Mode != nil {
		if mode, err = content.ParseStudioMode(*req.Mode); err != nil {
			return badRequest{msg: err.Error()}
		}
	}
	cfg, err := mergeImageConfig(sess.Snapshot().ImageConfig, req.AspectRatio, req.Resolution)
	if err != nil {
		return err
	}

	if view != "" {
		sess.SetView(view)
	}
	if mode != "" {
		sess.SetMode(mode)
	}
	if req.ImagePrompt != nil {
		sess.SetImagePrompt(*req.ImagePrompt)
	}
	if err := sess.SetImageConfig(cfg); err != nil {
		return badRequest{msg: err.Error()}
	}
	if req.SendDraft {
		sess.SendToStudio()
	}
	return nil
}

func mergeImageConfig(cfg content.ImageConfig, aspect, resolution *string) (content.ImageConfig, error) {
	if aspect != nil {
		ar, err := content.ParseAspectRatio(*aspect)
		if err != nil {
			return cfg, badRequest{msg: err.Error()}
		}
		cfg.AspectRatio = ar
	}
	if resolution != nil {
		res, err := content.ParseResolution(*resolution)
		if err != nil {
			return cfg, badRequest{msg: err.Error()}
		}
		cfg.Resolution = res
	}
	return cfg, nil
}

type generateRequest struct {
	Prompt      *string `json:"prompt"`
	AspectRatio *string `json:"aspectRatio"`
	Resolution  *string `json:"resolution"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)

	var req generateRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	cfg, err := mergeImageConfig(sess.Snapshot().ImageConfig, req.AspectRatio, req.Resolution)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := sess.SetImageConfig(cfg); err != nil {
		writeError(w, badRequest{msg: err.Error()})
		return
	}
	if req.Prompt != nil {
		sess.SetImagePrompt(*req.Prompt)
	}

	if err := sess.GenerateImage(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeState(w, sess)
}

type editRequest struct {
	Image       string `json:"image"`
	Instruction string `json:"instruction"`
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)

	var req editRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	if strings.TrimSpace(req.Image) != "" {
		img, err := content.ParseDataURL(req.Image)
		if err != nil {
			writeError(w, badRequest{msg: "image must be a base64 data URL"})
			return
		}
		if err := content.CheckImage(img); err != nil {
			writeError(w, badRequest{msg: err.Error()})
			return
		}
		sess.LoadEditImage(img)
	}

	if err := sess.EditImage(r.Context(), req.Instruction); err != nil {
		writeError(w, err)
		return
	}
	writeState(w, sess)
}
