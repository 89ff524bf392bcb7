package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"patentai/internal/gateway/repository/draft"
	"patentai/internal/generation"
	"patentai/internal/llm"
	llmclient "patentai/internal/llmClient"
	"patentai/internal/logger"
	"patentai/internal/patent"
)

const (
	wsPongWait  = 60 * time.Second
	wsPingEvery = (wsPongWait * 9) / 10

	documentTemperature = 0.7
	documentMaxTokens   = 4096
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// GenerateHandler serves the three generation endpoints.
type GenerateHandler struct {
	orch      *generation.Orchestrator
	client    llm.Client
	drafts    draft.Store
	log       *logger.Logger
	maxUpload int64
	now       func() time.Time
	pingEvery time.Duration
}

// NewGenerateHandler wires the orchestrator for streamed runs and client for
// single-request documents. drafts may be nil.
func NewGenerateHandler(orch *generation.Orchestrator, client llm.Client, drafts draft.Store, log *logger.Logger, maxUpload int64) *GenerateHandler {
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	return &GenerateHandler{
		orch:      orch,
		client:    client,
		drafts:    drafts,
		log:       logger.OrNop(log),
		maxUpload: maxUpload,
		now:       time.Now,
		pingEvery: wsPingEvery,
	}
}

func (h *GenerateHandler) decode(w http.ResponseWriter, r *http.Request) (patent.GenerationRequest, bool) {
	req, err := decodeRequest(w, r, h.maxUpload)
	if err != nil {
		h.log.Warn("rejected generation request", "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return patent.GenerationRequest{}, false
	}
	return req, true
}

// HandleStream runs one generation and streams it as server-sent events.
// Request problems are answered with a JSON 400 before any stream byte.
func (h *GenerateHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	em, err := generation.NewSSEEmitter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	runID := uuid.NewString()
	generation.SetSSEHeaders(w.Header())
	w.Header().Set("X-Run-Id", runID)
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	_, _ = h.run(r.Context(), runID, req, em)
}

// HandleWebSocket streams the same events over a websocket. The first text
// frame from the client carries the JSON request.
func (h *GenerateHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadLimit(h.maxUpload)
	if err := conn.SetReadDeadline(time.Now().Add(wsPongWait)); err != nil {
		h.log.Warn("ws set read deadline failed", "error", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	em := generation.NewWSEmitter(conn)
	_, payload, err := conn.ReadMessage()
	if err != nil {
		h.log.Warn("ws request not received", "error", err)
		return
	}
	req, err := patent.ParseRequest(payload)
	if err != nil {
		h.log.Warn("rejected generation request", "error", err, "transport", "ws")
		_ = em.Emit(ctx, generation.Failure(err.Error()))
		_ = em.Close("invalid request")
		return
	}

	// The client sends nothing more; reading keeps pongs flowing and notices
	// a disconnect.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	go func() {
		ticker := time.NewTicker(h.pingEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := em.Ping(); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	if _, err := h.run(ctx, uuid.NewString(), req, em); err == nil {
		_ = em.Close("complete")
	}
}

func (h *GenerateHandler) run(ctx context.Context, runID string, req patent.GenerationRequest, em generation.Emitter) (generation.Result, error) {
	res, err := h.orch.Run(ctx, generation.Request{RunID: runID, Generation: req}, em)
	var emitErr *generation.EmitError
	if errors.As(err, &emitErr) || errors.Is(err, context.Canceled) {
		h.log.Info("client went away", "run_id", runID, "error", err)
	}
	h.saveDraft(context.WithoutCancel(ctx), res, req.Office)
	return res, err
}

func (h *GenerateHandler) saveDraft(ctx context.Context, res generation.Result, office patent.PatentOffice) {
	if h.drafts == nil {
		return
	}
	doc := res.Document()
	if strings.TrimSpace(doc) == "" {
		return
	}
	var warned []string
	for _, s := range res.Sections {
		if s.Warning() {
			warned = append(warned, s.Name)
		}
	}
	err := h.drafts.Put(ctx, draft.Document{
		RunID:     res.RunID,
		Office:    office.Name,
		Markdown:  doc,
		Warned:    warned,
		Complete:  res.Completed(),
		CreatedAt: h.now().UTC(),
	})
	if err != nil {
		h.log.Error("saving draft failed", "run_id", res.RunID, "error", err)
	}
}

// HandleGenerate produces the whole application with one provider request.
func (h *GenerateHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	runID := uuid.NewString()
	text, err := h.client.Complete(r.Context(), llm.ChatRequest{
		System:      patent.SystemInstruction,
		User:        patent.BuildDocumentPrompt(req.Invention, req.Office),
		Temperature: documentTemperature,
		MaxTokens:   documentMaxTokens,
	})
	switch {
	case err == nil:
	case errors.Is(err, llmclient.ErrRateLimited):
		h.log.Warn("document generation rate limited", "run_id", runID, "error", err)
		writeError(w, http.StatusTooManyRequests, generation.RateLimitNotice("the document", h.orch.Profile().DisplayName))
		return
	case errors.Is(err, llmclient.ErrEmptyResponse):
		writeError(w, http.StatusBadGateway, "invalid response from "+h.orch.Profile().DisplayName+" API")
		return
	default:
		h.log.Error("document generation failed", "run_id", runID, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if h.drafts != nil {
		err := h.drafts.Put(context.WithoutCancel(r.Context()), draft.Document{
			RunID:     runID,
			Office:    req.Office.Name,
			Markdown:  text,
			Complete:  true,
			CreatedAt: h.now().UTC(),
		})
		if err != nil {
			h.log.Error("saving draft failed", "run_id", runID, "error", err)
		}
	}
	w.Header().Set("X-Run-Id", runID)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"runId":   runID,
		"patent":  text,
		"office":  req.Office,
	})
}
