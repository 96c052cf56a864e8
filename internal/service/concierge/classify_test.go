package concierge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsGreeting(t *testing.T) {
	tests := []struct {
		question string
		want     bool
	}{
		{"hi", true},
		{"Hello there!", true},
		{"what's up?", true},
		{"thank you", true},
		{"What can you do for me today?", true},
		{"this room please", false},
		{"super lab", false},
		{"hi, I need a quiet room for four people tomorrow", false},
		{"any projectors?", false},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			assert.Equal(t, tt.want, isGreeting(tt.question))
		})
	}
}

func TestExtractKeywords(t *testing.T) {
	assert.Equal(t, []string{"quiet", "study", "room", "rooms"}, extractKeywords("Any quiet study rooms?"))
	assert.Equal(t, []string{"podcast", "recording", "studio"}, extractKeywords("a podcast studio"))
	assert.Empty(t, extractKeywords("Can you show me the list?"))
}

func TestDetectCategory(t *testing.T) {
	assert.Equal(t, "Study Room", detectCategory("a quiet place to read in the library"))
	assert.Equal(t, "Event Space", detectCategory("venue for 200 people"))
	assert.Equal(t, "AV Equipment", detectCategory("borrow a projector"))
	assert.Equal(t, "", detectCategory("what is available this week"))
}

func TestAvailabilitySubject(t *testing.T) {
	tests := []struct {
		question string
		want     string
		ok       bool
	}{
		{"Is the auditorium available now?", "auditorium", true},
		{"is maker lab available right now", "maker lab", true},
		{"When is the podcast studio available?", "podcast studio", true},
		{"when can I book the 3D printer?", "3d printer", true},
		{"next available slot for room 204", "room 204", true},
		{"study room b available now?", "study room b", true},
		{"is it available now?", "", false},
		{"what rooms do you have", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			got, ok := availabilitySubject(tt.question)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScoreResource(t *testing.T) {
	r := studyRoom
	// category "study" +8, title "study" +3, description "quiet" +1
	assert.Equal(t, 12.0, scoreResource(&r, []string{"study", "quiet"}))
	assert.Equal(t, 0.0, scoreResource(&r, []string{"telescope"}))

	exact := auditorium
	exact.Title = "Auditorium"
	// exact title +5, location +0.5
	assert.Equal(t, 5.5, scoreResource(&exact, []string{"auditorium"}))
}

func TestFormatResponse(t *testing.T) {
	in := "\n\n  First line.  \n\n\n\nSecond line.\n   \n"
	assert.Equal(t, "First line.\n\nSecond line.", formatResponse(in))
}

func TestContextBlock(t *testing.T) {
	facts := []ResourceFact{{
		Title: "Main Auditorium", Category: "Event Space", Location: "IU Auditorium",
		IsRestricted: true, Description: strings.Repeat("x", 120),
	}}
	chunks := []chunk{{source: "faq.md", heading: "Hours", content: "Open daily."}}

	block := contextBlock(facts, chunks)
	assert.Equal(t, "RESOURCES:\n"+
		"- Main Auditorium (Event Space) | IU Auditorium | Cap:varies | Approval req | "+strings.Repeat("x", 100)+"…\n"+
		"DOCS:\n- Hours: Open daily.", block)

	assert.Equal(t, noResourcesLine, contextBlock(nil, nil))
}

func TestBuildPrompt(t *testing.T) {
	sys, user := buildPrompt("where can I print?", noResourcesLine, false)
	assert.Equal(t, openPrompt, sys)
	assert.Equal(t, "where can I print?", user)

	sys, user = buildPrompt("q", "RESOURCES:\n- A", false)
	assert.Equal(t, groundedPrompt, sys)
	assert.Equal(t, "q\n\nCONTEXT:\nRESOURCES:\n- A", user)
}

func TestUnmatched(t *testing.T) {
	titles := []string{"Wells Library Study Room 2A", "Main Auditorium"}
	mentions := boldMentions("Use **Main Auditorium**, **wells library study room 2a** or **Auditorium**. Also **Narnia Hall** and **Main Auditorium** again.")

	assert.Equal(t, []string{"Main Auditorium", "wells library study room 2a", "Auditorium", "Narnia Hall"}, mentions)
	assert.Equal(t, []string{"Narnia Hall"}, unmatched(mentions, titles))
}
