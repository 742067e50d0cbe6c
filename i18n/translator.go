package i18n

import "context"

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "expected" or "field").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	switch t.lang {
	case "ja":
		switch code {
		case "invalid_type":
			return "型が不正です"
		case "invalid_format":
			return "形式が不正です"
		case "required":
			return "必須プロパティが不足しています"
		case "unknown_key":
			return "未知のキーです"
		case "too_short":
			return "短すぎます"
		case "too_long":
			return "長すぎます"
		case "too_small":
			return "小さすぎます"
		case "too_big":
			return "大きすぎます"
		case "invalid_enum":
			return "許可されていない値です"
		case "rule":
			return "検証ルールを満たしていません"
		case "immutable":
			return "識別子は変更できません"
		case "conflict":
			return "値は一意である必要があります"
		case "null":
			return "null は許可されていません"
		}
	default: // "en"
		switch code {
		case "invalid_type":
			return "invalid type"
		case "invalid_format":
			return "invalid format"
		case "required":
			return "required property missing"
		case "unknown_key":
			return "unknown key"
		case "too_short":
			return "too short"
		case "too_long":
			return "too long"
		case "too_small":
			return "too small"
		case "too_big":
			return "too big"
		case "invalid_enum":
			return "value is not one of the allowed choices"
		case "rule":
			return "rule not satisfied"
		case "immutable":
			return "identity cannot be changed"
		case "conflict":
			if f := data["field"]; f != "" {
				return "the " + f + " must be unique"
			}
			return "the field must be unique"
		case "null":
			return "null is not allowed"
		}
	}
	return code
}

// For returns the built-in Translator for lang ("en"/"ja"). Unknown languages
// fall back to English.
func For(lang string) Translator {
	if lang != "ja" {
		lang = "en"
	}
	return dictTranslator{lang: lang}
}

type ctxKey struct{}

// WithTranslator returns a child context carrying tr. Messages produced during
// one call are rendered with it; nothing outside the context is affected.
func WithTranslator(ctx context.Context, tr Translator) context.Context {
	if tr == nil {
		tr = For("en")
	}
	return context.WithValue(ctx, ctxKey{}, tr)
}

// WithLanguage is a shorthand for WithTranslator(ctx, For(lang)).
func WithLanguage(ctx context.Context, lang string) context.Context {
	return WithTranslator(ctx, For(lang))
}

// FromContext returns the Translator stored in ctx, or English.
func FromContext(ctx context.Context) Translator {
	if ctx != nil {
		if tr, ok := ctx.Value(ctxKey{}).(Translator); ok {
			return tr
		}
	}
	return For("en")
}

// T fetches a message for the given code using the Translator carried by ctx.
func T(ctx context.Context, code string, data map[string]string) string {
	return FromContext(ctx).Message(code, data)
}
