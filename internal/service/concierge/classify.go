package concierge

import (
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

var stopWords = map[string]bool{
	"the": true, "and": true, "is": true, "a": true, "an": true, "of": true, "to": true, "in": true,
	"for": true, "with": true, "on": true, "at": true, "by": true, "from": true, "or": true, "that": true,
	"this": true, "these": true, "those": true, "how": true, "what": true, "which": true, "can": true,
	"i": true, "we": true, "about": true, "need": true, "use": true, "it": true, "are": true, "be": true,
	"do": true, "does": true, "me": true, "my": true, "you": true, "your": true, "their": true, "our": true,
	"any": true, "info": true, "resource": true, "resources": true, "if": true, "tell": true, "show": true,
	"list": true,
}

// expansions add the category words a short term usually refers to.
var expansions = map[string]string{
	"study":     "study room",
	"room":      "study room",
	"lab":       "lab equipment",
	"equipment": "lab equipment",
	"event":     "event space",
	"space":     "event space",
	"av":        "av equipment",
	"audio":     "av equipment",
	"video":     "av equipment",
	"podcast":   "podcast recording studio",
	"recording": "recording studio",
	"studio":    "recording studio",
	"tutor":     "tutoring",
	"tutoring":  "tutoring",
}

// categoryPhrases is checked in order; the first category with a hit wins.
var categoryPhrases = []struct {
	category string
	phrases  []string
}{
	{"Study Room", []string{"study", "study room", "study space", "quiet", "reading", "library"}},
	{"Lab Equipment", []string{"lab", "laboratory", "equipment", "scientific", "research", "experiment"}},
	{"Event Space", []string{"event", "venue", "meeting", "conference", "presentation", "gathering", "auditorium", "hall"}},
	{"AV Equipment", []string{"av", "audio", "video", "microphone", "projector", "sound", "recording", "podcast", "studio", "broadcast"}},
	{"Tutoring", []string{"tutor", "tutoring", "help", "academic support", "academic help"}},
}

var greetingPhrases = []string{
	"hi", "hello", "hey", "greetings", "good morning", "good afternoon", "good evening",
	"how are you", "what's up", "sup", "howdy", "hi there", "hello there",
	"thanks", "thank you", "bye", "goodbye", "see you", "nice to meet you",
}

var selfPhrases = []string{
	"who are you", "what are you", "what can you do", "how do you work",
	"tell me about yourself", "what is this", "what is concierge",
}

func tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// normalized joins the tokens with single spaces and pads both ends so that
// phrases can be matched on word boundaries.
func normalized(text string) string {
	return " " + strings.Join(tokenize(text), " ") + " "
}

func containsPhrase(haystack, phrase string) bool {
	return strings.Contains(haystack, normalized(phrase))
}

// isGreeting detects short greetings and questions about the concierge itself.
func isGreeting(question string) bool {
	text := normalized(question)
	if len(strings.Fields(question)) <= 3 {
		for _, p := range greetingPhrases {
			if containsPhrase(text, p) {
				return true
			}
		}
	}
	for _, p := range selfPhrases {
		if containsPhrase(text, p) {
			return true
		}
	}
	return false
}

func extractKeywords(question string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(token string) {
		if !seen[token] {
			seen[token] = true
			out = append(out, token)
		}
	}

	for _, token := range tokenize(question) {
		if stopWords[token] || len(token) < 2 {
			continue
		}
		add(token)
		if expanded, ok := expansions[token]; ok {
			for _, word := range strings.Fields(expanded) {
				add(word)
			}
		}
	}
	return out
}

func detectCategory(question string) string {
	text := normalized(question)
	for _, c := range categoryPhrases {
		for _, p := range c.phrases {
			if containsPhrase(text, p) {
				return c.category
			}
		}
	}
	return ""
}

var availabilityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bis\s+(?:the\s+)?(.+?)\s+available\s+(?:right\s+)?now\??`),
	regexp.MustCompile(`\bwhen\s+is\s+(?:the\s+)?(.+?)\s+available\??`),
	regexp.MustCompile(`\bwhen\s+can\s+i\s+book\s+(?:the\s+)?(.+?)\??$`),
	regexp.MustCompile(`\bnext\s+available\s+(?:slot|time)\s+for\s+(?:the\s+)?(.+?)\??$`),
	regexp.MustCompile(`^(?:(?:is|are)\s+)?(?:the\s+)?(.+?)\s+available\s+now\??`),
}

var trailingTime = regexp.MustCompile(`\s+(now|today|tomorrow|this\s+week|right\s+now)$`)

var vagueNames = map[string]bool{"it": true, "this": true, "that": true, "there": true, "here": true}

// availabilitySubject extracts the resource name from questions such as
// "is the auditorium available now?".
func availabilitySubject(question string) (string, bool) {
	text := strings.ToLower(strings.TrimSpace(question))
	for _, p := range availabilityPatterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		name = trailingTime.ReplaceAllString(name, "")
		name = strings.TrimSpace(strings.TrimSuffix(name, "?"))
		if len(name) >= 3 && !vagueNames[name] {
			return name, true
		}
	}
	return "", false
}
