package messenger

import "time"

// Update is the inbound event delivered by the messenger webhook.
// Either Text or CallbackPayload is populated, never both.
type Update struct {
	UpdateID        int64  `json:"update_id"`
	UserID          string `json:"user_id"`
	FirstName       string `json:"first_name"`
	Username        string `json:"username,omitempty"`
	Text            string `json:"text,omitempty"`
	CallbackPayload string `json:"callback_payload,omitempty"`
}

// PartType discriminates the members of the outbound Part union.
type PartType string

const (
	PartText     PartType = "text"
	PartDocument PartType = "document"
	PartImage    PartType = "image"
	PartVideo    PartType = "video"
	PartKeyboard PartType = "keyboard"
)

// Button is one inline keyboard button. CallbackPayload follows the
// domain_action[_arg] convention (e.g. "privacy_accept", "course_<id>").
type Button struct {
	Label           string `json:"label"`
	CallbackPayload string `json:"callback_payload"`
}

// Part is one element of an ordered multi-part reply.
type Part struct {
	Type    PartType   `json:"type"`
	Text    string     `json:"text,omitempty"`
	URL     string     `json:"url,omitempty"`
	Caption string     `json:"caption,omitempty"`
	Buttons [][]Button `json:"buttons,omitempty"`
}

// Reply is the composed outbound response for one turn.
type Reply struct {
	Parts []Part `json:"parts"`
	// TypingDelay hints the transport to show a typing indicator before
	// delivering parts that carry media.
	TypingDelay time.Duration `json:"typing_delay,omitempty"`
}

// TextPart builds a plain text part.
func TextPart(text string) Part {
	return Part{Type: PartText, Text: text}
}

// DocumentPart builds a document-by-URL part.
func DocumentPart(url, caption string) Part {
	return Part{Type: PartDocument, URL: url, Caption: caption}
}

// ImagePart builds an image-by-URL part.
func ImagePart(url, caption string) Part {
	return Part{Type: PartImage, URL: url, Caption: caption}
}

// VideoPart builds a video-by-URL part.
func VideoPart(url, caption string) Part {
	return Part{Type: PartVideo, URL: url, Caption: caption}
}

// KeyboardPart builds a text part with an attached inline keyboard.
func KeyboardPart(text string, rows [][]Button) Part {
	return Part{Type: PartKeyboard, Text: text, Buttons: rows}
}
