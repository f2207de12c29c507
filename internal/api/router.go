package api

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "go-cheque-batch/docs"
	"go-cheque-batch/internal/api/handler"
	"go-cheque-batch/pkg/router"
)

// RegisterRoutes wires the batch API onto the router. More specific routes
// are registered first; the generic batch route goes last.
func RegisterRoutes(r *router.Router, h *handler.Handler) {
	r.POST("/api/v1/batches", h.SubmitBatch)
	r.GET("/api/v1/batches", h.ListBatches)
	r.GET("/api/v1/batches/*/items", h.GetItems)
	r.GET("/api/v1/batches/*/report", h.GetReport)
	r.GET("/api/v1/batches/*/errors", h.GetBatchErrors)
	r.POST("/api/v1/batches/*/cancel", h.CancelBatch)
	r.GET("/api/v1/download/*/*", h.DownloadFile)
	r.GET("/api/v1/batches/*", h.GetBatch)

	r.GET("/swagger/*", func(w http.ResponseWriter, req *http.Request) {
		httpSwagger.WrapHandler(w, req)
	})
}
