package agent

import (
	"strings"

	"github.com/leadpilothq/chatwidget/internal/model/playbook"
)

// Decision names the playbook topic a user utterance scored highest for.
type Decision struct {
	Topic string
	Score int
}

// keywordWeight is the score contributed by each matched keyword. Longer
// keywords (multi-word phrases) get an extra point since they are far less
// likely to match by accident.
const keywordWeight = 3

// Match scores the user text against every playbook's keyword list and
// returns the winning topic. A zero-score result has an empty Topic.
func Match(playbooks []playbook.Playbook, userText string) Decision {
	normalized := strings.TrimSpace(strings.ToLower(userText))
	if normalized == "" {
		return Decision{}
	}

	best := Decision{}
	for _, pb := range playbooks {
		score := scoreText(normalized, pb.Keywords)
		if score > best.Score {
			best = Decision{Topic: pb.Topic, Score: score}
		}
	}
	return best
}

func scoreText(normalized string, keywords []string) int {
	score := 0
	for _, word := range keywords {
		if word == "" {
			continue
		}
		if containsKeyword(normalized, strings.ToLower(word)) {
			score += keywordWeight
			if strings.Contains(word, " ") {
				score++
			}
		}
	}
	return score
}

// containsKeyword matches on word boundaries so that "hi" does not fire
// inside "this" or "shipping".
func containsKeyword(text, word string) bool {
	idx := 0
	for {
		pos := strings.Index(text[idx:], word)
		if pos < 0 {
			return false
		}
		start := idx + pos
		end := start + len(word)
		if boundary(text, start-1) && boundary(text, end) {
			return true
		}
		idx = start + 1
		if idx >= len(text) {
			return false
		}
	}
}

func boundary(text string, pos int) bool {
	if pos < 0 || pos >= len(text) {
		return true
	}
	c := text[pos]
	return !(c >= 'a' && c <= 'z') && !(c >= '0' && c <= '9')
}
