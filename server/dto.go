package server

type ChatRequest struct {
	Query string `json:"query" validate:"required"`
}

type ChatResponse struct {
	Response string `json:"response"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}
