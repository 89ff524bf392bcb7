package server

import (
	"net/http"

	"patentai/internal/gateway/handler"
	"patentai/internal/gateway/middleware"
	"patentai/internal/logger"
)

func NewMux(
	generateHandler *handler.GenerateHandler,
	officeHandler *handler.OfficeHandler,
	documentHandler *handler.DocumentHandler,
	log *logger.Logger,
) http.Handler {
	mux := http.NewServeMux()

	// Generation
	mux.HandleFunc("POST /api/generate-patent-stream", generateHandler.HandleStream)
	mux.HandleFunc("GET /api/generate-patent-ws", generateHandler.HandleWebSocket)
	mux.HandleFunc("POST /api/generate-patent", generateHandler.HandleGenerate)

	// Reference data and documents
	mux.HandleFunc("GET /api/offices", officeHandler.HandleList)
	mux.HandleFunc("GET /api/offices/{id}", officeHandler.HandleGet)
	mux.HandleFunc("GET /api/runs/{id}/document", documentHandler.HandleGet)
	mux.HandleFunc("POST /api/markup/normalize", documentHandler.HandleNormalize)

	mux.HandleFunc("GET /healthz", handler.HandleHealth)

	// Middleware, outermost first
	return middleware.Chain(mux,
		middleware.CORS,
		middleware.Recover(log),
		middleware.RequestLog(log),
	)
}
