package chi

import (
	"encoding/json"
	"net/http"

	"github.com/marcelsud/webhook-inspector/generator"
	"github.com/marcelsud/webhook-inspector/webhook"
)

const maxGenerateRequestBytes = 1 << 20

type generateRequest struct {
	WebhookIDs []string `json:"webhookIds"`
}

type generateResponse struct {
	Code string `json:"code"`
}

// postGenerate handles POST /api/generate
func postGenerate(generatorService generator.UseCase, recorder Recorder) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxGenerateRequestBytes)).Decode(&req); err != nil {
			writeError(w, r, &webhook.ValidationError{Field: "body", Reason: "expected {\"webhookIds\": [...]}"})
			return
		}
		if req.WebhookIDs == nil {
			req.WebhookIDs = []string{}
		}

		code, err := generatorService.Generate(r.Context(), req.WebhookIDs)
		recorder.RecordGeneration(r.Context(), err)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, generateResponse{Code: code})
	})
}
