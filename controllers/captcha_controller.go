package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/aronlabs/captcha/captcha"
	"github.com/aronlabs/captcha/lang"
	"github.com/aronlabs/captcha/middleware"
	"github.com/aronlabs/captcha/rules"
	"github.com/aronlabs/captcha/utils"
)

// CaptchaController serves challenge images and checks answers against
// the visitor's session.
type CaptchaController struct {
	service  *captcha.Service
	validate *validator.Validate
}

// NewCaptchaController registers the captcha form rule on a private validator.
func NewCaptchaController(service *captcha.Service) (*CaptchaController, error) {
	v := validator.New()
	if err := rules.Register(v); err != nil {
		return nil, err
	}
	return &CaptchaController{service: service, validate: v}, nil
}

// Refresh issues a new challenge and returns it as a data URI.
func (c *CaptchaController) Refresh(ctx *gin.Context) {
	sess, ok := middleware.CurrentSession(ctx)
	if !ok {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "session unavailable")
		return
	}
	uri, err := c.service.Issue(ctx.Request.Context(), sess)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50060, lang.T(ctx.GetHeader("Accept-Language"), "captcha.unavailable"))
		return
	}
	ctx.Header("Cache-Control", "no-store")
	ctx.JSON(http.StatusOK, gin.H{"image": uri})
}

// Image issues a new challenge and writes the raw PNG, for use as <img src>.
func (c *CaptchaController) Image(ctx *gin.Context) {
	sess, ok := middleware.CurrentSession(ctx)
	if !ok {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "session unavailable")
		return
	}
	img, err := c.service.IssueImage(ctx.Request.Context(), sess)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50060, lang.T(ctx.GetHeader("Accept-Language"), "captcha.unavailable"))
		return
	}
	ctx.Header("Cache-Control", "no-store")
	ctx.Data(http.StatusOK, img.MIME, img.Bytes)
}

// Verify consumes the outstanding challenge and reports whether the answer matched.
func (c *CaptchaController) Verify(ctx *gin.Context) {
	var req struct {
		Captcha string `json:"captcha" form:"captcha"`
	}
	if err := ctx.ShouldBind(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40061, "invalid request payload")
		return
	}
	accept := ctx.GetHeader("Accept-Language")

	answer := strings.TrimSpace(req.Captcha)
	if answer == "" {
		utils.ErrorWithData(ctx, http.StatusUnprocessableEntity, 42203, lang.T(accept, "validation.required"), gin.H{"key": "validation.required"})
		return
	}

	sess, ok := middleware.CurrentSession(ctx)
	if !ok {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "session unavailable")
		return
	}

	err := c.service.Validate(ctx.Request.Context(), answer, sess)
	switch {
	case err == nil:
		utils.Success(ctx, gin.H{"valid": true})
	case errors.Is(err, captcha.ErrMissing):
		key := captcha.MessageKey(err)
		utils.ErrorWithData(ctx, http.StatusUnprocessableEntity, 42202, lang.T(accept, key), gin.H{"key": key})
	case errors.Is(err, captcha.ErrIncorrect):
		key := captcha.MessageKey(err)
		utils.ErrorWithData(ctx, http.StatusUnprocessableEntity, 42201, lang.T(accept, key), gin.H{"key": key})
	default:
		utils.Error(ctx, http.StatusInternalServerError, 50061, "failed to read session")
	}
}

type contactForm struct {
	Name    string `json:"name" form:"name" validate:"required,max=64"`
	Message string `json:"message" form:"message" validate:"required,max=2000"`
	Captcha string `json:"captcha" form:"captcha" validate:"required,captcha"`
}

// Submit is a sample form guarded by the captcha rule alongside ordinary rules.
func (c *CaptchaController) Submit(ctx *gin.Context) {
	var form contactForm
	if err := ctx.ShouldBind(&form); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40061, "invalid request payload")
		return
	}
	form.Name = strings.TrimSpace(form.Name)
	form.Captcha = strings.TrimSpace(form.Captcha)

	accept := ctx.GetHeader("Accept-Language")
	if form.Captcha == "" {
		utils.ErrorWithData(ctx, http.StatusUnprocessableEntity, 42203, lang.T(accept, "validation.required"), gin.H{"key": "validation.required"})
		return
	}

	sess, ok := middleware.CurrentSession(ctx)
	if !ok {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "session unavailable")
		return
	}

	vctx := rules.WithStore(ctx.Request.Context(), sess)
	if err := c.validate.StructCtx(vctx, form); err != nil {
		if ran, cerr := rules.Result(vctx); ran && cerr != nil && !captcha.IsValidationError(cerr) {
			utils.Sugar.Errorf("captcha rule: %v", cerr)
			utils.Error(ctx, http.StatusInternalServerError, 50061, "failed to read session")
			return
		}
		if rules.Failed(err) {
			_, cerr := rules.Result(vctx)
			key := captcha.MessageKey(cerr)
			code := 42201
			if errors.Is(cerr, captcha.ErrMissing) {
				code = 42202
			}
			utils.ErrorWithData(ctx, http.StatusUnprocessableEntity, code, lang.T(accept, key), gin.H{"key": key})
			return
		}
		utils.ErrorWithData(ctx, http.StatusUnprocessableEntity, 42204, lang.T(accept, "validation.invalid"), gin.H{
			"key":    "validation.invalid",
			"fields": invalidFields(err),
		})
		return
	}

	utils.Success(ctx, gin.H{
		"name":    utils.SanitizeText(form.Name),
		"message": utils.SanitizeText(form.Message),
	})
}

// invalidFields lists the json names of the fields that failed validation.
func invalidFields(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.ToLower(fe.Field()))
	}
	return fields
}
