package intake

import (
	"regexp"
	"strings"
)

// CampaignTag is the pair parsed from a deep-link payload like
// "/start #Experto_IA_GPT_Gemini #ADSIM_01".
type CampaignTag struct {
	CourseTag   string
	CampaignTag string
}

var hashtagRE = regexp.MustCompile(`#([\p{L}0-9_]+)`)

// campaignTagRE marks the token that names the ad campaign rather than the
// course, e.g. ADSIM_01, ADSFB_12.
var campaignTagRE = regexp.MustCompile(`(?i)^ads?[a-z]*_\d+$`)

// ParseCampaignTags extracts the course and campaign hashtags from an
// inbound deep-link text, case-insensitively. The first non-campaign hashtag
// is the course tag.
func ParseCampaignTags(text string) (CampaignTag, bool) {
	var tag CampaignTag
	for _, m := range hashtagRE.FindAllStringSubmatch(text, -1) {
		token := m[1]
		if campaignTagRE.MatchString(token) {
			if tag.CampaignTag == "" {
				tag.CampaignTag = strings.ToUpper(token)
			}
			continue
		}
		if tag.CourseTag == "" {
			tag.CourseTag = strings.ToLower(token)
		}
	}
	return tag, tag.CourseTag != "" || tag.CampaignTag != ""
}

// campaignCourses is the static resolution table from course tags to catalog
// course ids. Tags are stored lowercase; lookups normalise the same way.
type campaignCourses map[string]string

// Resolve returns the course id bound to a course tag, or "" when the tag is
// unknown.
func (c campaignCourses) Resolve(courseTag string) string {
	return c[strings.ToLower(courseTag)]
}
