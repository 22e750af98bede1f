package controllers

import (
	"bytes"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aronlabs/captcha/captcha"
	"github.com/aronlabs/captcha/config"
	"github.com/aronlabs/captcha/lang"
	"github.com/aronlabs/captcha/middleware"
	"github.com/aronlabs/captcha/utils"
)

var widgetTemplate = template.Must(template.New("widget").Parse(`<div class="aron-captcha-field" dir="{{.Dir}}"
     style="display: flex; align-items: center; gap: 10px; margin-bottom: 15px;">
    <img src="{{.Image}}"
         alt="{{.ImageAlt}}"
         id="aron-captcha-image"
         style="cursor: pointer; border: 1px solid #ccc; border-radius: 4px; height: 40px;">
    <button type="button"
            id="aron-refresh-captcha"
            title="{{.RefreshHint}}"
            style="font-size: 1.2em; border: 1px solid #ccc; padding: 5px 10px; cursor: pointer; border-radius: 4px; line-height: 1;">
        &#x21BB;
    </button>
    <input type="text"
           name="captcha"
           id="aron-captcha-input"
           placeholder="{{.Placeholder}}"
           required
           autocomplete="off"
           style="height: 40px; padding: 0 10px; border: 1px solid #ccc; border-radius: 4px; flex-grow: 1;">
</div>
<script>
document.addEventListener('DOMContentLoaded', function () {
    const refreshButton = document.getElementById('aron-refresh-captcha');
    const captchaImage = document.getElementById('aron-captcha-image');
    const captchaInput = document.getElementById('aron-captcha-input');
    if (!refreshButton || !captchaImage) {
        return;
    }
    refreshButton.addEventListener('click', function (e) {
        e.preventDefault();
        fetch({{.RefreshURL}}, {
            method: 'GET',
            credentials: 'same-origin',
            headers: {'X-Requested-With': 'XMLHttpRequest', 'Accept': 'application/json'}
        })
            .then(function (response) {
                if (!response.ok) {
                    throw new Error('Network response was not ok');
                }
                return response.json();
            })
            .then(function (data) {
                if (data.image) {
                    captchaImage.src = data.image;
                    if (captchaInput) {
                        captchaInput.value = '';
                    }
                }
            })
            .catch(function () {
                alert({{.ReloadError}});
            });
    });
    captchaImage.addEventListener('click', function () {
        refreshButton.click();
    });
});
</script>
`))

type widgetView struct {
	Image       template.URL
	ImageAlt    string
	RefreshHint string
	Placeholder string
	RefreshURL  string
	ReloadError string
	Dir         string
}

// WidgetController renders the embeddable captcha field.
type WidgetController struct {
	service    *captcha.Service
	texts      config.WidgetSection
	refreshURL string
}

// NewWidgetController builds the widget. refreshURL is where the script fetches new images.
func NewWidgetController(service *captcha.Service, texts config.WidgetSection, refreshURL string) *WidgetController {
	return &WidgetController{
		service: service,
		texts: config.WidgetSection{
			Placeholder: utils.SanitizeText(texts.Placeholder),
			RefreshHint: utils.SanitizeText(texts.RefreshHint),
			ImageAlt:    utils.SanitizeText(texts.ImageAlt),
		},
		refreshURL: refreshURL,
	}
}

// Show issues a challenge and returns the widget HTML with the image inlined.
func (w *WidgetController) Show(ctx *gin.Context) {
	sess, ok := middleware.CurrentSession(ctx)
	if !ok {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "session unavailable")
		return
	}
	accept := ctx.GetHeader("Accept-Language")

	uri, err := w.service.Issue(ctx.Request.Context(), sess)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50060, lang.T(accept, "captcha.unavailable"))
		return
	}

	view := widgetView{
		// Data URIs are produced by the renderer, never by the client.
		Image:       template.URL(uri),
		ImageAlt:    orDefault(w.texts.ImageAlt, lang.T(accept, "widget.image_alt")),
		RefreshHint: orDefault(w.texts.RefreshHint, lang.T(accept, "widget.refresh")),
		Placeholder: orDefault(w.texts.Placeholder, lang.T(accept, "widget.placeholder")),
		RefreshURL:  w.refreshURL,
		ReloadError: lang.T(accept, "widget.reload_error"),
		Dir:         lang.Dir(accept),
	}

	var buf bytes.Buffer
	if err := widgetTemplate.Execute(&buf, view); err != nil {
		utils.Sugar.Errorf("render widget: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50062, "failed to render widget")
		return
	}
	ctx.Header("Cache-Control", "no-store")
	ctx.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
