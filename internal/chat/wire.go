package chat

import "github.com/dmaraujo/picklist/internal/view"

// Interaction callback types.
const (
	callbackReply          = 4
	callbackDeferReply     = 5
	callbackDeferUpdate    = 6
	callbackModal          = 9
	flagEphemeral          = 1 << 6
	componentRow           = 1
	componentButton        = 2
	componentTextInput     = 4
	textInputStyleShort    = 1
	interactionCommand     = 2
	interactionComponent   = 3
	interactionModalSubmit = 5
)

type messageBody struct {
	Content    string      `json:"content,omitempty"`
	Embeds     []embedBody `json:"embeds,omitempty"`
	Components []rowBody   `json:"components"`
	Flags      int         `json:"flags,omitempty"`
}

type embedBody struct {
	Title       string      `json:"title,omitempty"`
	Description string      `json:"description,omitempty"`
	Footer      *footerBody `json:"footer,omitempty"`
}

type footerBody struct {
	Text string `json:"text"`
}

type rowBody struct {
	Type       int             `json:"type"`
	Components []componentBody `json:"components"`
}

type componentBody struct {
	Type        int    `json:"type"`
	Style       int    `json:"style,omitempty"`
	Label       string `json:"label,omitempty"`
	CustomID    string `json:"custom_id,omitempty"`
	Disabled    bool   `json:"disabled,omitempty"`
	Required    *bool  `json:"required,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
}

// toMessageBody translates a rendered view into the platform's wire
// format.
func toMessageBody(msg view.Message) messageBody {
	body := messageBody{
		Embeds: []embedBody{{
			Title:       msg.Title,
			Description: msg.Description,
		}},
		Components: make([]rowBody, 0, len(msg.Rows)),
	}
	if msg.Footer != "" {
		body.Embeds[0].Footer = &footerBody{Text: msg.Footer}
	}
	for _, row := range msg.Rows {
		wireRow := rowBody{Type: componentRow, Components: make([]componentBody, 0, len(row.Buttons))}
		for _, btn := range row.Buttons {
			wireRow.Components = append(wireRow.Components, componentBody{
				Type:     componentButton,
				Style:    int(btn.Style),
				Label:    btn.Label,
				CustomID: btn.ID,
				Disabled: btn.Disabled,
			})
		}
		body.Components = append(body.Components, wireRow)
	}
	return body
}

func toModalBody(m Modal) map[string]any {
	optional := false
	return map[string]any{
		"custom_id": m.CustomID,
		"title":     m.Title,
		"components": []rowBody{{
			Type: componentRow,
			Components: []componentBody{{
				Type:        componentTextInput,
				Style:       textInputStyleShort,
				CustomID:    m.FieldID,
				Label:       m.Label,
				Placeholder: m.Placeholder,
				Required:    &optional,
			}},
		}},
	}
}
