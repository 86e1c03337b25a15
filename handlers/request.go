package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
)

// requester is the slice of the Overseerr client this handler needs.
type requester interface {
	Request(ctx context.Context, mediaID int64, mediaType string) (json.RawMessage, error)
}

// RequestHandler forwards acquisition requests to Overseerr. It is only
// mounted when Overseerr is configured.
type RequestHandler struct {
	Client requester
}

// NewRequestHandler creates a new RequestHandler.
func NewRequestHandler(client requester) *RequestHandler {
	return &RequestHandler{Client: client}
}

type mediaRequest struct {
	MediaID   json.Number `json:"mediaId"`
	MediaType string      `json:"mediaType"`
}

// RequestMedia handles POST /api/request.
func (h *RequestHandler) RequestMedia(w http.ResponseWriter, r *http.Request) {
	var body mediaRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := strconv.ParseInt(body.MediaID.String(), 10, 64)
	if err != nil || id <= 0 || body.MediaType == "" {
		writeError(w, http.StatusBadRequest, "media ID and media type are required")
		return
	}

	// Overseerr calls shows "tv".
	mediaType := body.MediaType
	if mediaType == "show" {
		mediaType = "tv"
	}

	result, err := h.Client.Request(r.Context(), id, mediaType)
	if err != nil {
		log.Printf("[request] overseerr forward failed mediaId=%d type=%s err=%v", id, mediaType, err)
		writeError(w, http.StatusBadGateway, "failed to request media")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": result})
}
