package concierge

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const noResourcesLine = "RESOURCES: None found."

const greetingPrompt = "You are a friendly and helpful Campus Resource Concierge for Indiana University Bloomington. " +
	"You're enthusiastic about helping students, faculty, and staff find the perfect campus resources. " +
	"Respond warmly to greetings and small talk. Be conversational, friendly, and show genuine interest. " +
	"Mention that you can help them find study rooms, maker spaces, equipment, event venues, and more. " +
	"Keep it brief (2-3 sentences) and inviting. Use a warm, approachable tone. " +
	"Write in clear, well-formatted paragraphs with proper spacing."

const groundedPrompt = "You are a knowledgeable and friendly Campus Resource Concierge for Indiana University Bloomington. " +
	"You help students, faculty, and staff with campus resources and general questions about IU Bloomington. " +
	"You're enthusiastic, helpful, and genuinely want to make their campus experience better.\n" +
	"When answering questions about campus resources:\n" +
	"- Use the CONTEXT below which contains relevant resources and documentation\n" +
	"- Only mention resources from the CONTEXT that are ACTUALLY relevant to the question\n" +
	"- If the user asks for 'study rooms', only mention resources in the 'Study Room' category\n" +
	"- If they ask for 'lab equipment', only mention 'Lab Equipment' resources\n" +
	"- Do NOT mention resources from unrelated categories\n" +
	"- Mention resources naturally using **bold** for resource names and explain why they're helpful\n" +
	"- Never use **bold** for anything that is not a resource name from the CONTEXT\n" +
	"\n" +
	"When answering general questions (not about specific resources):\n" +
	"- Use your knowledge about Indiana University Bloomington and campus life\n" +
	"- If you don't know something, admit it and suggest where they might find the information\n" +
	"\n" +
	"Always:\n" +
	"- Be conversational and engaging (3-5 sentences for simple questions, more for complex topics)\n" +
	"- Format your response with clear paragraphs and proper spacing\n" +
	"- If the CONTEXT doesn't contain relevant resources but the question is about resources, be honest and suggest they try rephrasing"

const openPrompt = "You are a knowledgeable and friendly Campus Resource Concierge for Indiana University Bloomington. " +
	"You help students, faculty, and staff with questions about IU Bloomington, campus resources, student life, and general topics.\n" +
	"Answer the user's question to the best of your ability. You can discuss:\n" +
	"- Campus resources and facilities\n" +
	"- Student life and services\n" +
	"- Academic programs and departments\n" +
	"- Campus locations and buildings\n" +
	"\n" +
	"Guidelines:\n" +
	"- Be conversational, helpful, and engaging\n" +
	"- If you don't know something specific, admit it and suggest where they might find the information\n" +
	"- Do not name specific bookable rooms or equipment, the catalogue had no match for this question\n" +
	"- Format your response with clear paragraphs and proper spacing\n" +
	"- Keep responses appropriate in length (3-5 sentences for simple questions, more for complex topics)"

const noMatchFallback = "I'm here to help! However, I couldn't find specific resources matching your question in the current catalog. " +
	"You can ask me about:\n\n" +
	"• **Campus resources** - study rooms, labs, equipment, event spaces\n" +
	"• **General questions** - campus services, student life, facilities\n" +
	"• **Availability** - check if specific resources are available now\n\n" +
	"Try rephrasing your question or ask about something else!"

// buildPrompt returns the system and user prompts. The user prompt carries
// the context block only when retrieval produced something.
func buildPrompt(question, block string, greeting bool) (string, string) {
	if greeting {
		return greetingPrompt, question
	}
	block = strings.TrimSpace(block)
	if block == "" || block == noResourcesLine {
		return openPrompt, question
	}
	return groundedPrompt, question + "\n\nCONTEXT:\n" + block
}

func clip(s string, n int, ellipsis string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n])) + ellipsis
}

func contextBlock(facts []ResourceFact, chunks []chunk) string {
	var lines []string
	if len(facts) == 0 {
		lines = append(lines, noResourcesLine)
	} else {
		lines = append(lines, "RESOURCES:")
		for _, f := range facts {
			capacity := "varies"
			if f.Capacity != nil && *f.Capacity > 0 {
				capacity = fmt.Sprint(*f.Capacity)
			}
			approval := "Auto"
			if f.IsRestricted {
				approval = "Approval req"
			}
			lines = append(lines, fmt.Sprintf("- %s (%s) | %s | Cap:%s | %s | %s",
				f.Title, orDefault(f.Category, "General"), orDefault(f.Location, "TBD"), capacity, approval,
				clip(f.Description, 100, "…")))
		}
	}

	if len(chunks) > 0 {
		lines = append(lines, "DOCS:")
		for _, c := range chunks {
			lines = append(lines, fmt.Sprintf("- %s: %s", c.heading, clip(c.preview(), 120, "…")))
		}
	}
	return strings.Join(lines, "\n")
}

// composeFallback answers from the retrieved records alone.
func composeFallback(facts []ResourceFact, stats Stats) string {
	var segments []string
	if len(facts) > 0 {
		plural := "s"
		if len(facts) == 1 {
			plural = ""
		}
		segments = append(segments, fmt.Sprintf("I found %d resource%s that might help:", len(facts), plural))

		for _, f := range facts {
			line := fmt.Sprintf("• **%s** (%s)", f.Title, orDefault(f.Category, "General"))
			if f.Location != "" {
				line += " - located at " + f.Location
			}
			if f.Capacity != nil && *f.Capacity > 0 {
				line += fmt.Sprintf(" - %d seats", *f.Capacity)
			}
			if desc := strings.TrimSpace(f.Description); desc != "" {
				first := strings.SplitN(desc, ".", 2)[0]
				if utf8.RuneCountInString(first) > 120 {
					first = string([]rune(first)[:117]) + "..."
				}
				line += "\n  " + first
			}
			segments = append(segments, line)
		}
	} else {
		segments = append(segments, noMatchFallback)
	}

	if len(stats.MostRequested) > 0 {
		segments = append(segments, "\nHere are some popular resources that might interest you:")
		for _, p := range stats.MostRequested {
			segments = append(segments, fmt.Sprintf("• %s (%d recent bookings)", p.Title, p.Total))
		}
	}
	return strings.Join(segments, "\n\n")
}

// formatResponse trims every line, collapses runs of blank lines and drops
// leading and trailing blanks.
func formatResponse(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	out := make([]string, 0, len(lines))
	prevEmpty := false
	for _, line := range lines {
		if line == "" {
			if !prevEmpty {
				out = append(out, "")
			}
			prevEmpty = true
			continue
		}
		out = append(out, line)
		prevEmpty = false
	}
	return strings.Join(out, "\n")
}

var boldPattern = regexp.MustCompile(`\*\*([^*\n]+)\*\*`)

func boldMentions(answer string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range boldPattern.FindAllStringSubmatch(answer, -1) {
		mention := strings.TrimSpace(m[1])
		key := strings.ToLower(mention)
		if mention == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, mention)
	}
	return out
}

// unmatched returns the mentions that name no catalogue title. A mention
// matches when either string contains the other, ignoring case and
// punctuation.
func unmatched(mentions, titles []string) []string {
	known := make([]string, 0, len(titles))
	for _, t := range titles {
		if n := strings.TrimSpace(normalized(t)); n != "" {
			known = append(known, n)
		}
	}

	out := []string{}
	for _, m := range mentions {
		needle := strings.TrimSpace(normalized(m))
		if needle == "" {
			continue
		}
		found := false
		for _, title := range known {
			if title == needle ||
				(len(needle) >= 4 && strings.Contains(title, needle)) ||
				(len(title) >= 4 && strings.Contains(needle, title)) {
				found = true
				break
			}
		}
		if !found {
			out = append(out, m)
		}
	}
	return out
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
