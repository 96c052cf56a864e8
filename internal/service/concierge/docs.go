package concierge

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

var headingPattern = regexp.MustCompile(`^\s{0,3}#{1,6}\s+(.*)`)

// chunk is one heading-delimited section of a markdown note.
type chunk struct {
	source  string
	heading string
	content string
}

func (c chunk) preview() string {
	text := strings.TrimSpace(c.content)
	if utf8.RuneCountInString(text) > 200 {
		return strings.TrimRightFunc(string([]rune(text)[:197]), unicode.IsSpace) + "..."
	}
	return text
}

// docIndex loads each context directory once and keeps its chunks.
type docIndex struct {
	mu     sync.Mutex
	byRoot map[string][]chunk
}

func newDocIndex() *docIndex {
	return &docIndex{byRoot: make(map[string][]chunk)}
}

func (d *docIndex) chunks(root string) []chunk {
	if root == "" {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if cached, ok := d.byRoot[root]; ok {
		return cached
	}
	loaded := loadChunks(root)
	d.byRoot[root] = loaded
	return loaded
}

func (d *docIndex) sources(root string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, c := range d.chunks(root) {
		if !seen[c.source] {
			seen[c.source] = true
			out = append(out, c.source)
		}
	}
	return out
}

func loadChunks(root string) []chunk {
	var files []string
	_ = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !entry.IsDir() && strings.EqualFold(filepath.Ext(path), ".md") {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)

	var out []chunk
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = filepath.Base(path)
		}
		out = append(out, splitMarkdown(string(data), filepath.ToSlash(rel))...)
	}
	return out
}

// splitMarkdown cuts a note at its headings. Text before the first heading
// is filed under "Overview".
func splitMarkdown(text, source string) []chunk {
	var (
		out     []chunk
		heading string
		lines   []string
	)
	push := func() {
		content := strings.TrimSpace(strings.Join(lines, "\n"))
		if content == "" {
			return
		}
		h := heading
		if h == "" {
			h = "Overview"
		}
		out = append(out, chunk{source: source, heading: h, content: content})
	}

	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if m := headingPattern.FindStringSubmatch(line); m != nil {
			if len(lines) > 0 {
				push()
				lines = lines[:0]
			}
			heading = strings.TrimSpace(m[1])
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) > 0 {
		push()
	}

	if len(out) == 0 {
		if cleaned := strings.TrimSpace(text); cleaned != "" {
			out = append(out, chunk{source: source, heading: "Overview", content: cleaned})
		}
	}
	return out
}

// scoreText counts keyword occurrences with diminishing weight and a small
// bonus for heading hits.
func scoreText(text, heading string, keywords []string) float64 {
	if text == "" {
		return 0
	}
	haystack := strings.ToLower(text)
	head := strings.ToLower(heading)
	var score float64
	for _, k := range keywords {
		if n := strings.Count(haystack, k); n > 0 {
			score += 1 + 0.5*float64(n-1)
		}
		if strings.Contains(head, k) {
			score += 0.5
		}
	}
	return score
}

func (s *ConciergeService) matchDocs(keywords []string) []chunk {
	type hit struct {
		score float64
		chunk chunk
	}
	var hits []hit
	for _, c := range s.docs.chunks(s.contextDir) {
		if score := scoreText(c.content, c.heading, keywords); score > 0 {
			hits = append(hits, hit{score: score, chunk: c})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > s.maxDocs {
		hits = hits[:s.maxDocs]
	}
	out := make([]chunk, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.chunk)
	}
	return out
}

func snippets(chunks []chunk) []DocSnippet {
	out := make([]DocSnippet, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, DocSnippet{
			Source:  c.source,
			Heading: c.heading,
			Preview: c.preview(),
			Content: strings.TrimSpace(c.content),
		})
	}
	return out
}
