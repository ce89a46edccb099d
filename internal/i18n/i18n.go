package i18n

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"
)

// 支持的语言
const (
	LocaleZhCN = "zh-CN"
	LocaleEnUS = "en-US"

	DefaultLocale = LocaleZhCN
)

var supportedTags = []language.Tag{
	language.SimplifiedChinese,
	language.AmericanEnglish,
}

var tagLocales = []string{LocaleZhCN, LocaleEnUS}

var matcher = language.NewMatcher(supportedTags)

// ResolveLocale 解析请求语言：query lang > X-Locale > Accept-Language
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return DefaultLocale
	}
	if c.Request != nil {
		if raw := strings.TrimSpace(c.Query("lang")); raw != "" {
			return NormalizeLocale(raw)
		}
		if raw := strings.TrimSpace(c.GetHeader("X-Locale")); raw != "" {
			return NormalizeLocale(raw)
		}
		if raw := strings.TrimSpace(c.GetHeader("Accept-Language")); raw != "" {
			return NormalizeLocale(raw)
		}
	}
	return DefaultLocale
}

// NormalizeLocale 将任意语言标记匹配到受支持的语言
func NormalizeLocale(raw string) string {
	tags, _, err := language.ParseAcceptLanguage(raw)
	if err != nil || len(tags) == 0 {
		return DefaultLocale
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No || index < 0 || index >= len(tagLocales) {
		return DefaultLocale
	}
	return tagLocales[index]
}

// T 翻译文案，缺失时回退到默认语言，再回退为 key 本身
func T(locale, key string) string {
	if messages, ok := catalog[locale]; ok {
		if msg, ok := messages[key]; ok {
			return msg
		}
	}
	if msg, ok := catalog[DefaultLocale][key]; ok {
		return msg
	}
	return key
}

// Sprintf 翻译带参数的文案
func Sprintf(locale, key string, args ...interface{}) string {
	return fmt.Sprintf(T(locale, key), args...)
}
