package model

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TypeInfo describes one of the known model type categories.
type TypeInfo struct {
	Key         string
	Icon        string
	Label       string
	Description string
	Order       int
}

// TypeOrder lists the known type keys. Matching walks this order and picks
// the first key contained in the model's type string.
var TypeOrder = []string{
	"pretrained",
	"continuously pretrained",
	"fine-tuned",
	"chat",
	"merge",
	"multimodal",
}

var types = map[string]TypeInfo{
	"pretrained": {
		Key: "pretrained", Icon: "🟢", Label: "Pretrained", Order: 0,
		Description: "Base models trained on raw text data using self-supervised learning objectives",
	},
	"continuously pretrained": {
		Key: "continuously pretrained", Icon: "🟩", Label: "Continuously Pretrained", Order: 1,
		Description: "Base models with extended pretraining on additional data while maintaining original architecture",
	},
	"fine-tuned": {
		Key: "fine-tuned", Icon: "🔶", Label: "Fine-tuned", Order: 2,
		Description: "Models specialized through task-specific training on curated datasets",
	},
	"chat": {
		Key: "chat", Icon: "💬", Label: "Chat", Order: 3,
		Description: "Models optimized for conversation using various techniques: RLHF, DPO, IFT, SFT",
	},
	"merge": {
		Key: "merge", Icon: "🤝", Label: "Merge", Order: 4,
		Description: "Models created by combining weights from multiple models",
	},
	"multimodal": {
		Key: "multimodal", Icon: "🌸", Label: "Multimodal", Order: 5,
		Description: "Models capable of processing multiple types of input",
	},
}

var titleCaser = cases.Title(language.English)

// IsKnownType reports whether key is one of TypeOrder.
func IsKnownType(key string) bool {
	_, ok := types[key]
	return ok
}

// TypeOf classifies a raw model type string.
func TypeOf(raw string) (TypeInfo, bool) {
	clean := strings.ToLower(strings.TrimSpace(raw))
	if clean == "" {
		return TypeInfo{}, false
	}
	for _, key := range TypeOrder {
		if strings.Contains(clean, key) {
			return types[key], true
		}
	}
	return TypeInfo{}, false
}

// TypeLabel returns a display label, title-casing unknown types.
func TypeLabel(raw string) string {
	if info, ok := TypeOf(raw); ok {
		return info.Label
	}
	return titleCaser.String(strings.TrimSpace(raw))
}

// TypeIcon returns the icon for a type, or a question mark.
func TypeIcon(raw string) string {
	if info, ok := TypeOf(raw); ok {
		return info.Icon
	}
	return "❓"
}
