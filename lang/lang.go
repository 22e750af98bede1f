// Package lang holds the translated user-facing messages.
package lang

import (
	"golang.org/x/text/language"
)

var supported = []language.Tag{
	language.English, // first entry is the fallback
	language.Persian,
	language.Chinese,
}

var matcher = language.NewMatcher(supported)

var messages = map[language.Tag]map[string]string{
	language.English: {
		"validation.incorrect": "The security code is incorrect.",
		"validation.missing":   "The security code has expired. Please try a new one.",
		"validation.required":  "Please enter the security code.",
		"validation.invalid":   "Please check the highlighted fields.",
		"captcha.unavailable":  "Unable to generate a security code right now.",
		"widget.placeholder":   "Please Enter Code",
		"widget.refresh":       "Refresh CAPTCHA",
		"widget.reload_error":  "Error reloading security code.",
		"widget.image_alt":     "captcha Code",
	},
	language.Persian: {
		"validation.incorrect": "کد امنیتی اشتباه است.",
		"validation.missing":   "کد امنیتی منقضی شده است. لطفا کد جدید دریافت کنید.",
		"validation.required":  "لطفا کد امنیتی را وارد کنید.",
		"validation.invalid":   "لطفا فیلدهای مشخص شده را بررسی کنید.",
		"captcha.unavailable":  "در حال حاضر امکان ساخت کد امنیتی وجود ندارد.",
		"widget.placeholder":   "کد را وارد کنید",
		"widget.refresh":       "کد جدید",
		"widget.reload_error":  "خطا در بارگذاری مجدد کد امنیتی.",
		"widget.image_alt":     "کد امنیتی",
	},
	language.Chinese: {
		"validation.incorrect": "验证码错误",
		"validation.missing":   "验证码已过期，请刷新后重试",
		"validation.required":  "请输入验证码",
		"validation.invalid":   "请检查标记的字段",
		"captcha.unavailable":  "生成验证码失败",
		"widget.placeholder":   "请输入验证码",
		"widget.refresh":       "刷新验证码",
		"widget.reload_error":  "验证码刷新失败",
		"widget.image_alt":     "验证码",
	},
}

// Match picks the best supported language for an Accept-Language header.
func Match(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return supported[0]
	}
	_, idx, _ := matcher.Match(tags...)
	return supported[idx]
}

// T translates key for the given Accept-Language header. Unknown keys
// come back unchanged.
func T(acceptLanguage, key string) string {
	if msg, ok := messages[Match(acceptLanguage)][key]; ok {
		return msg
	}
	if msg, ok := messages[supported[0]][key]; ok {
		return msg
	}
	return key
}

// Dir returns the text direction for the matched language.
func Dir(acceptLanguage string) string {
	if Match(acceptLanguage) == language.Persian {
		return "rtl"
	}
	return "ltr"
}
