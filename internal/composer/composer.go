package composer

import (
	"regexp"
	"strings"
	"time"

	"github.com/impulsa-ai/brenda/internal/messenger"
	"github.com/impulsa-ai/brenda/internal/tools"
	"github.com/impulsa-ai/brenda/pkg/logging"
)

// maxAttachments caps non-text parts per outbound reply.
const maxAttachments = 4

var segmentRE = regexp.MustCompile(`\[MENSAJE_\d+\]`)

// Composer merges validated narrative text with tool results into one
// ordered multi-part reply.
type Composer struct {
	logger *logging.Logger
}

func New(logger *logging.Logger) *Composer {
	if logger == nil {
		logger = logging.Default()
	}
	return &Composer{logger: logger}
}

// Compose builds the outbound reply. A contact_flow tool result suppresses
// the narrative and any media: the reply is the text of the other tool
// results in order, with the contact prompt last.
func (c *Composer) Compose(narrative string, results []tools.Result) messenger.Reply {
	for _, res := range results {
		if res.Type == tools.TypeContactFlow {
			var reply messenger.Reply
			for _, other := range results {
				if other.Type != tools.TypeText {
					continue
				}
				if text := strings.TrimSpace(other.Content); text != "" {
					reply.Parts = append(reply.Parts, messenger.TextPart(text))
				}
			}
			reply.Parts = append(reply.Parts, messenger.TextPart(res.Content))
			return reply
		}
	}

	var reply messenger.Reply

	for _, chunk := range splitSegments(narrative) {
		reply.Parts = append(reply.Parts, messenger.TextPart(chunk))
	}

	attachments := 0
	hasMedia := false
	for _, res := range results {
		if res.Type == tools.TypeError {
			continue
		}
		if text := strings.TrimSpace(res.Content); text != "" {
			reply.Parts = append(reply.Parts, messenger.TextPart(text))
		}
		for _, r := range res.Resources {
			if attachments == maxAttachments {
				c.logger.Debug("attachment cap reached, dropping resource", "url", r.URL)
				continue
			}
			attachments++
			hasMedia = true
			switch r.Type {
			case "video":
				reply.Parts = append(reply.Parts, messenger.VideoPart(r.URL, r.Caption))
			case "link":
				reply.Parts = append(reply.Parts, messenger.TextPart(linkLine(r)))
			default:
				reply.Parts = append(reply.Parts, messenger.DocumentPart(r.URL, r.Caption))
			}
		}
	}

	if hasMedia {
		reply.TypingDelay = typingDelay(reply)
	}
	return reply
}

func splitSegments(narrative string) []string {
	narrative = strings.TrimSpace(narrative)
	if narrative == "" {
		return nil
	}
	var chunks []string
	for _, chunk := range segmentRE.Split(narrative, -1) {
		if chunk = strings.TrimSpace(chunk); chunk != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}

func linkLine(r tools.Resource) string {
	if r.Caption != "" {
		return r.Caption + ": " + r.URL
	}
	return r.URL
}

// typingDelay scales with total text length, bounded to 1-5 seconds.
func typingDelay(reply messenger.Reply) time.Duration {
	chars := 0
	for _, p := range reply.Parts {
		chars += len(p.Text)
	}
	d := time.Duration(1+chars/300) * time.Second
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
