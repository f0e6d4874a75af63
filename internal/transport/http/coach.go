package http

import (
	"errors"
	"net/http"

	"github.com/fitcheck/fitcheck/internal/apperr"
	"github.com/fitcheck/fitcheck/internal/coach"
	"github.com/fitcheck/fitcheck/internal/message"
	"github.com/fitcheck/fitcheck/internal/upload"
)

// handleAdvice generates coaching advice and its playback URL.
//
// @Summary     Generate coaching advice
// @Description Builds a coaching prompt from the exercise position and motion interpretation, asks the
// @Description completion backend for advice, and returns it with a URL that streams the advice as speech.
// @Tags        coach
// @Accept      json
// @Produce     json
// @Param       request  body      message.CoachingRequest  true  "Coaching request"
// @Success     200      {object}  message.AdviceResponse
// @Failure     400      {object}  apperr.Envelope  "Invalid request"
// @Failure     502      {object}  apperr.Envelope  "Completion backend failed"
// @Router      /api/v1/coach/advice [post]
func (t *Transport) handleAdvice(w http.ResponseWriter, r *http.Request) error {
	var req message.CoachingRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	resp, err := t.opts.Coach.Advise(r.Context(), req)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, resp)
	return nil
}

// handlePrompt sends a raw prompt to the completion backend.
//
// @Summary  Complete a prompt
// @Tags     prompt
// @Accept   json
// @Produce  json
// @Param    request  body      message.PromptRequest  true  "Prompt"
// @Success  200      {string}  string  "Completion text"
// @Failure  400      {object}  apperr.Envelope
// @Failure  502      {object}  apperr.Envelope
// @Router   /api/v1/prompt/ [post]
func (t *Transport) handlePrompt(w http.ResponseWriter, r *http.Request) error {
	return t.prompt(w, r, t.opts.Prompt)
}

// handleTextPrompt sends a raw prompt through the text-only backend.
//
// @Summary  Complete a prompt (text-only backend)
// @Tags     prompt
// @Accept   json
// @Produce  json
// @Param    request  body      message.PromptRequest  true  "Prompt"
// @Success  200      {string}  string  "Completion text"
// @Failure  400      {object}  apperr.Envelope
// @Failure  502      {object}  apperr.Envelope
// @Router   /api/v1/prompt/3.5 [post]
func (t *Transport) handleTextPrompt(w http.ResponseWriter, r *http.Request) error {
	return t.prompt(w, r, t.opts.TextPrompt)
}

func (t *Transport) prompt(w http.ResponseWriter, r *http.Request, c coach.Completer) error {
	var req message.PromptRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	text, err := c.Complete(r.Context(), req.SystemPrompt, req.Prompt, nil)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, text)
	return nil
}

// handleFilePrompt sends a prompt with attached images.
//
// @Summary     Complete a prompt with files
// @Description Uploaded files are sent to the completion backend as data URIs ahead of the prompt text.
// @Tags        prompt
// @Accept      multipart/form-data
// @Produce     json
// @Param       prompt        formData  string  false  "User prompt"
// @Param       systemPrompt  formData  string  false  "System prompt"
// @Param       files         formData  file    false  "Images"
// @Success     200  {string}  string  "Completion text"
// @Failure     400  {object}  apperr.Envelope
// @Failure     502  {object}  apperr.Envelope
// @Router      /api/v1/prompt/file/ [post]
func (t *Transport) handleFilePrompt(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, t.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(t.opts.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.Validation("files", "upload exceeds %d bytes", tooLarge.Limit)
		}
		return apperr.Validation("body", "invalid multipart form: %v", err)
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	files = append(files, r.MultipartForm.File["files[]"]...)

	images, err := upload.EncodeFiles(r.Context(), files, t.opts.MaxUploadBytes)
	if err != nil {
		return err
	}

	text, err := t.opts.Prompt.Complete(r.Context(), r.FormValue("systemPrompt"), r.FormValue("prompt"), images)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, text)
	return nil
}
