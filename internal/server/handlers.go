package server

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/valpere/pagetran/internal"
	"github.com/valpere/pagetran/internal/apperrors"
	"github.com/valpere/pagetran/internal/document"
	"github.com/valpere/pagetran/internal/export"
	"github.com/valpere/pagetran/internal/logger"
	"github.com/valpere/pagetran/internal/model"
	"github.com/valpere/pagetran/internal/orchestrator"
)

func (s *Server) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "PDF translation API is running"})
}

func (s *Server) health(c *gin.Context) {
	st := s.deps.Models.Status()
	c.JSON(http.StatusOK, gin.H{
		"status":        "healthy",
		"model_state":   st.State,
		"resident_tier": residentTier(st),
		"model":         st.Model,
		"job_status":    s.deps.Orchestrator.Current().Status,
	})
}

func residentTier(st model.Status) model.Tier {
	if st.State == model.StateResident {
		return st.Tier
	}
	return ""
}

func (s *Server) inspectPDF(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		respondError(c, apperrors.New(apperrors.KindValidation, "A PDF file is required.", err))
		return
	}
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".pdf") {
		respondError(c, apperrors.Validation("only PDF files are supported"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, fmt.Errorf("failed to open upload: %w", err))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		respondError(c, fmt.Errorf("failed to read upload: %w", err))
		return
	}
	if len(data) > maxUploadBytes {
		respondError(c, apperrors.Validation("PDF exceeds %d MB", maxUploadBytes>>20))
		return
	}

	info, err := document.Inspect(data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "filename": fh.Filename, "info": info})
}

type pagesRequest struct {
	Pages []internal.Page `json:"pages"`
}

func (s *Server) sections(c *gin.Context) {
	var req pagesRequest
	if !bindJSON(c, &req) {
		return
	}
	pages, err := document.Normalize(req.Pages)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "pages": document.WithSections(pages)})
}

type translateRequest struct {
	Pages   []internal.Page `json:"pages"`
	Quality string          `json:"quality"`
}

func (s *Server) selectedTier() model.Tier { return *s.tier.Load() }

func (s *Server) requestTier(quality string) (model.Tier, error) {
	if quality == "" {
		return s.selectedTier(), nil
	}
	return model.ParseTier(quality)
}

func (s *Server) start(c *gin.Context) (*orchestrator.Job, model.Tier, bool) {
	var req translateRequest
	if !bindJSON(c, &req) {
		return nil, "", false
	}
	return s.startPages(c, req.Pages, req.Quality)
}

func (s *Server) startPages(c *gin.Context, pages []internal.Page, quality string) (*orchestrator.Job, model.Tier, bool) {
	tier, err := s.requestTier(quality)
	if err != nil {
		respondError(c, err)
		return nil, "", false
	}
	job, err := s.deps.Orchestrator.Start(c.Request.Context(), pages, tier)
	if err != nil {
		respondError(c, err)
		return nil, "", false
	}
	return job, tier, true
}

// finish blocks until job is terminal. It reports false when the client
// went away; the job keeps running in that case.
func (s *Server) finish(c *gin.Context, job *orchestrator.Job) (orchestrator.Snapshot, bool) {
	snap, err := s.deps.Orchestrator.Wait(c.Request.Context(), job)
	return snap, err == nil
}

func respondJob(c *gin.Context, snap orchestrator.Snapshot, body gin.H) {
	body["success"] = snap.Status != orchestrator.StatusFailed
	body["status"] = snap.Status
	body["job_id"] = snap.ID
	if snap.Status == orchestrator.StatusFailed {
		body["error"] = snap.Error
		c.JSON(statusFor(snap.Err), body)
		return
	}
	c.JSON(http.StatusOK, body)
}

// translatePages blocks until the job is terminal. A failed job still
// returns the pages translated before the failure.
func (s *Server) translatePages(c *gin.Context) {
	job, tier, ok := s.start(c)
	if !ok {
		return
	}
	snap, ok := s.finish(c, job)
	if !ok {
		return
	}
	respondJob(c, snap, gin.H{"pages": snap.Results, "quality": tier})
}

type batchRequest struct {
	Texts   []string `json:"texts"`
	Quality string   `json:"quality"`
}

type batchTranslation struct {
	Original   string `json:"original"`
	Translated string `json:"translated"`
	Error      string `json:"error,omitempty"`
}

// translateBatch runs each text as one page of a job, so batches share the
// single job slot and the tier rules with page translation.
func (s *Server) translateBatch(c *gin.Context) {
	var req batchRequest
	if !bindJSON(c, &req) {
		return
	}
	if len(req.Texts) == 0 {
		respondError(c, apperrors.Validation("texts are required"))
		return
	}
	pages := make([]internal.Page, len(req.Texts))
	for i, text := range req.Texts {
		pages[i] = internal.Page{Page: i + 1, Text: text}
	}

	job, tier, ok := s.startPages(c, pages, req.Quality)
	if !ok {
		return
	}
	snap, ok := s.finish(c, job)
	if !ok {
		return
	}

	translations := make([]batchTranslation, len(snap.Results))
	for i, p := range snap.Results {
		translations[i] = batchTranslation{
			Original:   p.Original.Text,
			Translated: p.Translated.Text,
			Error:      p.Error,
		}
	}
	respondJob(c, snap, gin.H{"translations": translations, "quality": tier})
}

func (s *Server) startTranslation(c *gin.Context) {
	job, tier, ok := s.start(c)
	if !ok {
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"success": true, "job_id": job.ID(), "quality": tier})
}

func (s *Server) currentJob(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "job": s.deps.Orchestrator.Current()})
}

func (s *Server) progress(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "progress": s.deps.Orchestrator.Progress()})
}

func (s *Server) cancel(c *gin.Context) {
	msg := "No running translation job."
	if s.deps.Orchestrator.Cancel() {
		msg = "Translation cancellation requested."
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": msg})
}

// qualityInfo reports the selected tier as current and, separately, the
// tier whose model is loaded right now.
func (s *Server) qualityInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"current":  s.selectedTier(),
		"resident": residentTier(s.deps.Models.Status()),
		"options":  s.deps.Models.Catalog(),
	})
}

type qualityRequest struct {
	Quality string `json:"quality"`
}

// setQuality changes the default tier for later requests. The model is
// switched when the next job starts, never here.
func (s *Server) setQuality(c *gin.Context) {
	var req qualityRequest
	if !bindJSON(c, &req) {
		return
	}
	tier, err := model.ParseTier(req.Quality)
	if err != nil {
		respondError(c, err)
		return
	}
	s.tier.Store(&tier)
	logger.Info("Default quality changed", "tier", tier)
	c.JSON(http.StatusOK, gin.H{"success": true, "quality": tier, "message": fmt.Sprintf("Quality set to %s", tier)})
}

func (s *Server) getGlossary(c *gin.Context) {
	ctx := c.Request.Context()
	entries, err := s.deps.Glossary.Entries(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	terms := make(map[string]string, len(entries))
	for _, e := range entries {
		terms[e.Source] = e.Target
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "glossary": terms, "entries": entries, "count": len(entries)})
}

type addTermRequest struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

func (s *Server) addGlossaryTerm(c *gin.Context) {
	var req addTermRequest
	if !bindJSON(c, &req) {
		return
	}
	term, err := s.deps.Glossary.Add(c.Request.Context(), req.Source, req.Target)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "term": term})
}

type updateGlossaryRequest struct {
	Glossary map[string]string `json:"glossary"`
}

func (s *Server) updateGlossary(c *gin.Context) {
	var req updateGlossaryRequest
	if !bindJSON(c, &req) {
		return
	}
	terms, err := s.deps.Glossary.ReplaceAll(c.Request.Context(), req.Glossary)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Glossary updated with %d terms.", len(terms)),
		"terms":   terms,
	})
}

type downloadRequest struct {
	Pages       []internal.TranslatedPage `json:"pages"`
	Format      string                    `json:"format"`
	PageNumbers []int                     `json:"pageNumbers"`
	Render      string                    `json:"render"`
}

func (s *Server) download(c *gin.Context) {
	var req downloadRequest
	if !bindJSON(c, &req) {
		return
	}
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		respondError(c, err)
		return
	}
	render, err := export.ParseRender(req.Render)
	if err != nil {
		respondError(c, err)
		return
	}
	f, err := export.Build(export.Request{
		Pages:       req.Pages,
		Format:      format,
		PageNumbers: req.PageNumbers,
		Render:      render,
	}, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", f.Name))
	c.Data(http.StatusOK, f.ContentType, f.Body)
}

type proofreadRequest struct {
	OriginalText   string `json:"original_text"`
	TranslatedText string `json:"translated_text"`
	PageNumber     int    `json:"page_number"`
}

func (s *Server) proofread(c *gin.Context) {
	var req proofreadRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := s.deps.Proofreader.Proofread(c.Request.Context(), req.OriginalText, req.TranslatedText, req.PageNumber)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": res})
}
