package chi

import (
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog"
	"github.com/marcelsud/webhook-inspector/captures"
	"github.com/marcelsud/webhook-inspector/webhook"
	"github.com/marcelsud/webhook-inspector/webhook/payload"
)

/* HTTP layer DTOs for the inspection API
 * Separate from domain entities to avoid leaking internal structure
 */

// captureResponse is the default reply to a captured request
type captureResponse struct {
	ID string `json:"id"`
}

// summaryResponse represents one row of the listing
type summaryResponse struct {
	ID        string    `json:"id"`
	Method    string    `json:"method"`
	Pathname  string    `json:"pathname"`
	CreatedAt time.Time `json:"createdAt"`
}

// pageResponse represents one page of the listing
type pageResponse struct {
	Webhooks   []summaryResponse `json:"webhooks"`
	NextCursor *string           `json:"nextCursor"`
}

// detailResponse represents the full captured request
type detailResponse struct {
	ID            string            `json:"id"`
	Method        string            `json:"method"`
	Pathname      string            `json:"pathname"`
	IP            string            `json:"ip"`
	StatusCode    int               `json:"statusCode"`
	ContentType   *string           `json:"contentType"`
	ContentLength *int64            `json:"contentLength"`
	QueryParams   map[string]string `json:"queryParams"`
	Headers       map[string]string `json:"headers"`
	Body          *string           `json:"body"`
	FormattedBody *string           `json:"formattedBody"`
	EventType     string            `json:"eventType,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
}

// captureWebhook handles ANY <capture path>
func captureWebhook(webhookService webhook.UseCase, route *captures.Route, maxBodyBytes int64, recorder Recorder) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !route.Allows(r.Method) {
			for _, m := range route.Methods {
				w.Header().Add("Allow", m)
			}
			writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
				return
			}
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read request body"})
			return
		}
		defer r.Body.Close()

		// first value per key, like the detail view shows them
		headers := make(map[string]string, len(r.Header)+1)
		for key, values := range r.Header {
			if len(values) > 0 {
				headers[key] = values[0]
			}
		}
		if _, ok := headers["Host"]; !ok && r.Host != "" {
			headers["Host"] = r.Host
		}
		queryParams := make(map[string]string)
		for key, values := range r.URL.Query() {
			if len(values) > 0 {
				queryParams[key] = values[0]
			}
		}

		wh, err := webhookService.Capture(r.Context(), webhook.CaptureRequest{
			Method:      r.Method,
			Pathname:    r.URL.Path,
			IP:          clientIP(r),
			Headers:     headers,
			QueryParams: queryParams,
			Body:        body,
			StatusCode:  route.StatusCode,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		httplog.LogEntrySetField(r.Context(), "webhook_id", wh.ID)
		recorder.RecordCapture(r.Context(), route.Path, wh.Method)

		if route.ResponseBody == "" {
			writeJSON(w, route.StatusCode, captureResponse{ID: wh.ID})
			return
		}
		w.Header().Set("Content-Type", route.ContentType)
		w.WriteHeader(route.StatusCode)
		w.Write([]byte(route.ResponseBody))
	})
}

// listWebhooks handles GET /api/webhooks?cursor=&limit=
func listWebhooks(webhookService webhook.UseCase, pageSize int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cursor, err := webhook.ParseCursor(r.URL.Query().Get("cursor"))
		if err != nil {
			writeError(w, r, err)
			return
		}

		limit := pageSize
		if raw := r.URL.Query().Get("limit"); raw != "" {
			limit, err = strconv.Atoi(raw)
			if err != nil {
				writeError(w, r, &webhook.ValidationError{Field: "limit", Reason: "must be an integer"})
				return
			}
		}

		page, err := webhookService.List(r.Context(), cursor, limit)
		if err != nil {
			writeError(w, r, err)
			return
		}

		response := pageResponse{
			Webhooks:   make([]summaryResponse, 0, len(page.Items)),
			NextCursor: page.NextCursor,
		}
		for _, s := range page.Items {
			response.Webhooks = append(response.Webhooks, summaryResponse{
				ID:        s.ID,
				Method:    s.Method,
				Pathname:  s.Pathname,
				CreatedAt: s.CreatedAt,
			})
		}

		writeJSON(w, http.StatusOK, response)
	})
}

// getWebhook handles GET /api/webhooks/{id}
func getWebhook(webhookService webhook.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wh, err := webhookService.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, detailResponse{
			ID:            wh.ID,
			Method:        wh.Method,
			Pathname:      wh.Pathname,
			IP:            wh.IP,
			StatusCode:    wh.StatusCode,
			ContentType:   wh.ContentType,
			ContentLength: wh.ContentLength,
			QueryParams:   wh.QueryParams,
			Headers:       wh.Headers,
			Body:          wh.Body,
			FormattedBody: payload.Format(wh.Body),
			EventType:     payload.EventType(wh.Body),
			CreatedAt:     wh.CreatedAt,
		})
	})
}

// clientIP prefers what middleware.RealIP resolved, without the port
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
