package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/teilomillet/gochain/chain"
	"github.com/teilomillet/gochain/llm"
	"github.com/teilomillet/gochain/presets"
)

const (
	msgModelFailure = "An error occurred while generating. Please try again or check your API configuration."
	msgInternal     = "An internal error occurred. Please try again."
)

type errorResponse struct {
	Error string `json:"error"`
}

type runResponse struct {
	SessionID string            `json:"session_id"`
	RunID     string            `json:"run_id"`
	Outputs   map[string]string `json:"outputs"`
}

type languagesResponse struct {
	Languages        []string `json:"languages"`
	ExperienceLevels []string `json:"experience_levels"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) languages(c *gin.Context) {
	c.JSON(http.StatusOK, languagesResponse{
		Languages:        presets.SupportedLanguages(),
		ExperienceLevels: presets.ExperienceLevels(),
	})
}

func (s *Server) learningPlan(c *gin.Context) {
	var req presets.LearningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "request body must be a JSON learning request"})
		return
	}
	s.run(c, presets.LearningGuide().Name, req.Inputs(), func(ctx context.Context) (*chain.Result, error) {
		return presets.GenerateLearningPlan(ctx, s.runner, req)
	})
}

func (s *Server) recipe(c *gin.Context) {
	var req presets.RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "request body must be a JSON recipe request"})
		return
	}
	s.run(c, presets.RecipePlanner().Name, req.Inputs(), func(ctx context.Context) (*chain.Result, error) {
		return presets.GenerateRecipe(ctx, s.runner, req)
	})
}

func (s *Server) run(c *gin.Context, pipeline string, inputs map[string]any, generate func(context.Context) (*chain.Result, error)) {
	session := c.GetString(sessionKey)

	result, err := generate(c.Request.Context())
	if err != nil {
		s.respondError(c, pipeline, err)
		return
	}

	if err := s.store.Save(c.Request.Context(), newEntry(session, pipeline, inputs, result)); err != nil {
		s.logger.Warn("Saving last result failed", "session", session, "error", err)
	}

	c.JSON(http.StatusOK, runResponse{SessionID: session, RunID: result.RunID, Outputs: result.Outputs})
}

func (s *Server) lastResult(c *gin.Context) {
	entry, err := s.store.Last(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.logger.Error("Loading last result failed", "session", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: msgInternal})
		return
	}
	if entry == nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: "no result for this session"})
		return
	}
	c.JSON(http.StatusOK, entry)
}

// respondError shows validation problems to the caller and hides
// everything else behind a generic message.
func (s *Server) respondError(c *gin.Context, pipeline string, err error) {
	var llmErr *llm.LLMError
	if errors.As(err, &llmErr) && llmErr.Type == llm.ErrorTypeInvalidInput {
		c.JSON(http.StatusBadRequest, errorResponse{Error: llmErr.Message})
		return
	}

	s.logger.Error("Pipeline run failed", append([]any{"pipeline", pipeline}, loggableFields(err)...)...)
	switch llm.TypeOf(err) {
	case llm.ErrorTypeTransport, llm.ErrorTypeResponse:
		c.JSON(http.StatusBadGateway, errorResponse{Error: msgModelFailure})
	default:
		c.JSON(http.StatusInternalServerError, errorResponse{Error: msgInternal})
	}
}

func loggableFields(err error) []any {
	var llmErr *llm.LLMError
	if errors.As(err, &llmErr) {
		return append(llmErr.LoggableFields(), "detail", err.Error())
	}
	return []any{"error", err.Error()}
}
