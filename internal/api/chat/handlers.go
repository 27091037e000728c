// internal/api/chat/handlers.go
package chat

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/codr1/plantfloor/internal/api/apiutil"
	"github.com/codr1/plantfloor/internal/api/htmx"
	"github.com/codr1/plantfloor/internal/chatbot"
	"github.com/codr1/plantfloor/internal/templates/components/widgets"
)

var bot *chatbot.Bot

type chatRequest struct {
	Message string `json:"message" validate:"required,max=1000"`
}

func InitHandlers(b *chatbot.Bot) {
	bot = b
}

// POST /api/v1/chat
func HandleChat(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if bot == nil {
		logger.Error().Msg("Chatbot not initialized")
		apiutil.WriteJSONError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var req chatRequest
	if apiutil.IsJSONRequest(r) {
		if err := apiutil.DecodeJSON(r, &req); err != nil {
			apiutil.WriteJSONError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			apiutil.WriteJSONError(w, http.StatusBadRequest, "Invalid form body")
			return
		}
		req.Message = r.FormValue("message")
	}
	req.Message = strings.TrimSpace(req.Message)
	if err := apiutil.ValidateStruct(req); err != nil {
		apiutil.WriteHandlerError(w, r, err, "Invalid request")
		return
	}

	resp := bot.Respond(req.Message)
	logger.Debug().Bool("matched", resp.Matched).Str("topic", resp.Topic).Msg("Chat reply")

	if htmx.IsRequest(r) {
		apiutil.RenderHTMLComponent(r.Context(), w, widgets.ChatExchange(req.Message, resp), nil, "Failed to render chat reply", "Chat is unavailable")
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
		logger.Error().Err(err).Msg("Failed to write chat response")
	}
}
