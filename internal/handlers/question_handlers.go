package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/brieflyhq/briefly/internal/brief"
	"github.com/brieflyhq/briefly/internal/models"
)

// The builder endpoints each apply one reducer to the stored question list
// and save the result. Concurrent edits are last-write-wins.

// AddQuestionInput selects the type of the new question.
type AddQuestionInput struct {
	Type models.QuestionType `json:"type" binding:"required"`
}

// MoveQuestionInput is a move from one index to another.
type MoveQuestionInput struct {
	From *int `json:"from" binding:"required"`
	To   *int `json:"to" binding:"required"`
}

// OptionInput carries option text.
type OptionInput struct {
	Text string `json:"text" binding:"max=300"`
}

// AddQuestion handles POST /v1/briefs/:id/questions.
func (h *Handlers) AddQuestion(c *gin.Context) {
	var input AddQuestionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.editQuestions(c, func(qs []models.Question) ([]models.Question, error) {
		q, err := brief.NewQuestion(brief.NewQuestionID(h.now()), input.Type)
		if err != nil {
			return nil, err
		}
		return brief.AddQuestion(qs, q), nil
	})
}

// UpdateQuestion handles PATCH /v1/briefs/:id/questions/:qid.
func (h *Handlers) UpdateQuestion(c *gin.Context) {
	var patch brief.QuestionPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.editQuestions(c, func(qs []models.Question) ([]models.Question, error) {
		return brief.UpdateQuestion(qs, c.Param("qid"), patch)
	})
}

// RemoveQuestion handles DELETE /v1/briefs/:id/questions/:qid.
func (h *Handlers) RemoveQuestion(c *gin.Context) {
	h.editQuestions(c, func(qs []models.Question) ([]models.Question, error) {
		return brief.RemoveQuestion(qs, c.Param("qid"))
	})
}

// MoveQuestion handles POST /v1/briefs/:id/questions/move.
func (h *Handlers) MoveQuestion(c *gin.Context) {
	var input MoveQuestionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.editQuestions(c, func(qs []models.Question) ([]models.Question, error) {
		return brief.MoveQuestion(qs, *input.From, *input.To)
	})
}

// AddOption handles POST /v1/briefs/:id/questions/:qid/options.
func (h *Handlers) AddOption(c *gin.Context) {
	var input OptionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.editQuestions(c, func(qs []models.Question) ([]models.Question, error) {
		return brief.AddOption(qs, c.Param("qid"), input.Text)
	})
}

// UpdateOption handles PUT /v1/briefs/:id/questions/:qid/options/:index.
func (h *Handlers) UpdateOption(c *gin.Context) {
	index, ok := optionIndex(c)
	if !ok {
		return
	}
	var input OptionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.editQuestions(c, func(qs []models.Question) ([]models.Question, error) {
		return brief.UpdateOption(qs, c.Param("qid"), index, input.Text)
	})
}

// RemoveOption handles DELETE /v1/briefs/:id/questions/:qid/options/:index.
// At two options it leaves the list as is.
func (h *Handlers) RemoveOption(c *gin.Context) {
	index, ok := optionIndex(c)
	if !ok {
		return
	}
	h.editQuestions(c, func(qs []models.Question) ([]models.Question, error) {
		return brief.RemoveOption(qs, c.Param("qid"), index)
	})
}

func optionIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Option index must be a number"})
		return 0, false
	}
	return index, true
}

// editQuestions loads the caller's brief, runs reduce over its questions and
// saves the new list.
func (h *Handlers) editQuestions(c *gin.Context, reduce func([]models.Question) ([]models.Question, error)) {
	// 1. --- Load ---
	b, ok := h.ownedBrief(c)
	if !ok {
		return
	}

	// 2. --- Reduce ---
	qs, err := reduce(b.Questions)
	switch {
	case errors.Is(err, brief.ErrQuestionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 3. --- Save ---
	b.Questions = qs
	b.UpdatedAt = h.now()
	if !h.saveBrief(c, b) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions": b.Questions})
}
