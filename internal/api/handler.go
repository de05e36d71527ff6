package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fridgechef/internal/kitchen"
	"fridgechef/internal/recipe"
)

// MaxUploadBytes bounds the size of an uploaded photo.
const MaxUploadBytes = 10 << 20

// multipartOverhead is the allowance for form boundaries and part headers on
// top of the photo itself.
const multipartOverhead = 1 << 20

var allowedImageTypes = map[string]string{
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// Response is the body of every state-changing route.
type Response struct {
	State  kitchen.State `json:"state"`
	Notice string        `json:"notice,omitempty"`
}

type navigateRequest struct {
	View string `json:"view" binding:"required"`
}

type itemRequest struct {
	Item string `json:"item" binding:"required"`
}

// Handler translates HTTP requests into state machine transitions.
type Handler struct {
	machine *kitchen.Machine
	log     *zap.Logger
}

// NewHandler creates a new Handler.
func NewHandler(machine *kitchen.Machine, log *zap.Logger) *Handler {
	return &Handler{machine: machine, log: log}
}

// State returns the current snapshot.
func (h *Handler) State(c *gin.Context) {
	h.respond(c, http.StatusOK, "")
}

// Scan accepts a multipart photo in the "file" field and runs identification
// and generation.
func (h *Handler) Scan(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadBytes+multipartOverhead)
	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respond(c, http.StatusRequestEntityTooLarge, "The image is too large.")
			return
		}
		h.badRequest(c, fmt.Sprintf("get form err: %s", err.Error()))
		return
	}

	extension := strings.ToLower(filepath.Ext(file.Filename))
	mimeType, ok := allowedImageTypes[extension]
	if !ok {
		h.badRequest(c, "Invalid file type. Only JPEG, JPG, PNG and WEBP images are allowed.")
		return
	}
	if file.Size > MaxUploadBytes {
		h.respond(c, http.StatusRequestEntityTooLarge, "The image is too large.")
		return
	}

	src, err := file.Open()
	if err != nil {
		h.fail(c, fmt.Errorf("open file: %w", err))
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		h.fail(c, fmt.Errorf("read image: %w", err))
		return
	}
	if len(data) == 0 {
		h.badRequest(c, "The image is empty.")
		return
	}

	// Transitions outlive the request; the machine's call timeout bounds them.
	ctx := context.WithoutCancel(c.Request.Context())
	if err := h.machine.SubmitImage(ctx, recipe.Image{Data: data, MIMEType: mimeType}); err != nil {
		h.fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, "")
}

// ToggleFilter flips a dietary filter.
func (h *Handler) ToggleFilter(c *gin.Context) {
	filter, err := recipe.ParseDietaryFilter(c.Param("filter"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.machine.ToggleFilter(context.WithoutCancel(c.Request.Context()), filter); err != nil {
		h.fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, "")
}

// Refetch regenerates recipes with the current filters.
func (h *Handler) Refetch(c *gin.Context) {
	if err := h.machine.RefetchRecipes(context.WithoutCancel(c.Request.Context())); err != nil {
		h.fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, "")
}

// SelectRecipe starts cooking the recipe with the given ID.
func (h *Handler) SelectRecipe(c *gin.Context) {
	if err := h.machine.SelectRecipe(c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, "")
}

// AddMissingToShoppingList adds the ingredients of a recipe the user lacks.
func (h *Handler) AddMissingToShoppingList(c *gin.Context) {
	added, err := h.machine.AddMissingToShoppingList(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, fmt.Sprintf("Added %d items to the shopping list.", added))
}

// ExitCooking leaves the cooking view.
func (h *Handler) ExitCooking(c *gin.Context) {
	if err := h.machine.ExitCooking(); err != nil {
		h.fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, "")
}

// NextStep advances the walkthrough.
func (h *Handler) NextStep(c *gin.Context) {
	if _, err := h.machine.NextStep(); err != nil {
		h.fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, "")
}

// PreviousStep moves the walkthrough back.
func (h *Handler) PreviousStep(c *gin.Context) {
	if _, err := h.machine.PreviousStep(); err != nil {
		h.fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, "")
}

// ReadAloud narrates the current step.
func (h *Handler) ReadAloud(c *gin.Context) {
	if err := h.machine.ReadAloud(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, "")
}

// Navigate switches the active view.
func (h *Handler) Navigate(c *gin.Context) {
	var req navigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err.Error())
		return
	}
	if err := h.machine.Navigate(kitchen.View(req.View)); err != nil {
		h.fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, "")
}

// AddShoppingItem adds an item to the shopping list.
func (h *Handler) AddShoppingItem(c *gin.Context) {
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err.Error())
		return
	}
	notice := ""
	if !h.machine.AddShoppingItem(req.Item) {
		notice = fmt.Sprintf("%q is already on the shopping list.", req.Item)
	}
	h.respond(c, http.StatusOK, notice)
}

// RemoveShoppingItem removes an item from the shopping list.
func (h *Handler) RemoveShoppingItem(c *gin.Context) {
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err.Error())
		return
	}
	notice := ""
	if !h.machine.RemoveShoppingItem(req.Item) {
		notice = fmt.Sprintf("%q is not on the shopping list.", req.Item)
	}
	h.respond(c, http.StatusOK, notice)
}

// ClearShoppingList empties the shopping list.
func (h *Handler) ClearShoppingList(c *gin.Context) {
	h.machine.ClearShoppingList()
	h.respond(c, http.StatusOK, "")
}

func (h *Handler) respond(c *gin.Context, status int, notice string) {
	c.JSON(status, Response{State: h.machine.Snapshot(), Notice: notice})
}

func (h *Handler) badRequest(c *gin.Context, notice string) {
	h.respond(c, http.StatusBadRequest, notice)
}

// fail maps a transition error to a status. The state already reflects the
// failure, so it is returned alongside.
func (h *Handler) fail(c *gin.Context, err error) {
	c.Error(err)
	status, notice := statusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		h.log.Error("transition failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	h.respond(c, status, notice)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, kitchen.ErrBusy):
		return http.StatusConflict, "Please wait for the current request to finish."
	case errors.Is(err, kitchen.ErrNotCooking):
		return http.StatusConflict, "No recipe is being cooked."
	case errors.Is(err, kitchen.ErrRecipeNotFound):
		return http.StatusNotFound, "That recipe is no longer available."
	case errors.Is(err, kitchen.ErrInvalidView), errors.Is(err, recipe.ErrUnknownFilter):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, kitchen.ErrNarrationUnavailable):
		return http.StatusServiceUnavailable, kitchen.MsgNarrationNotOK
	case errors.Is(err, recipe.ErrExtraction), errors.Is(err, recipe.ErrGeneration),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusBadGateway, ""
	default:
		return http.StatusInternalServerError, ""
	}
}
