package transport

import "encoding/json"

type TranslateRequest struct {
	Text string `json:"text" binding:"required"`
	From string `json:"from" binding:"omitempty,langcode"`
}

type TranslateResponse struct {
	Translated   string            `json:"translated"`
	Translations map[string]string `json:"translations"`
	Raw          json.RawMessage   `json:"raw"`
}
