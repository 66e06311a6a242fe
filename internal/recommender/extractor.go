package recommender

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/temcen/reelmatch/pkg/models"
)

var genreVocabulary = []string{
	"action", "adventure", "comedy", "drama", "horror", "thriller",
	"sci-fi", "science fiction", "romance", "documentary", "animation",
	"fantasy", "mystery", "crime", "family", "western",
}

var moodVocabulary = []string{
	"inspiring", "funny", "scary", "emotional", "intense", "relaxing",
	"classic", "innovative", "artistic", "nostalgic", "mind-bending",
	"controversial", "uplifting", "thought-provoking",
}

var positiveWords = map[string]bool{
	"love": true, "great": true, "amazing": true, "excellent": true, "awesome": true,
	"fantastic": true, "good": true, "wonderful": true, "best": true, "brilliant": true,
}

var negativeWords = map[string]bool{
	"hate": true, "terrible": true, "awful": true, "bad": true, "worst": true,
	"boring": true, "horrible": true, "poor": true, "disappointing": true, "waste": true,
}

var (
	timeReferencePattern = regexp.MustCompile(`\b(?:19|20)\d0s\b|\b(?:19|20)\d{2}\b|\b(?:recent|new|latest|old|classic)\b`)
	actorPattern         = regexp.MustCompile(`\b(?:starring|featuring|with|actors?|actress(?:es)?)\b`)
	directorPattern      = regexp.MustCompile(`\b(?:directed by|directors?)\b`)
	nonWordPattern       = regexp.MustCompile(`\W+`)
)

// AnalyzeInput extracts genres, mood keywords, time references, connector
// phrases and a sign-only sentiment from free text.
//
// Actors and Directors hold the matched connector phrases ("starring",
// "directed by"), not names.
func AnalyzeInput(text string) models.EntityExtraction {
	lower := strings.ToLower(norm.NFKC.String(text))

	return models.EntityExtraction{
		Genres:         matchVocabulary(lower, genreVocabulary),
		Actors:         findAll(actorPattern, lower),
		Directors:      findAll(directorPattern, lower),
		Keywords:       matchVocabulary(lower, moodVocabulary),
		TimeReferences: findAll(timeReferencePattern, lower),
		Sentiment:      sentiment(lower),
	}
}

func matchVocabulary(text string, vocabulary []string) []string {
	matches := make([]string, 0)
	for _, term := range vocabulary {
		if strings.Contains(text, term) {
			matches = append(matches, term)
		}
	}
	return matches
}

func findAll(pattern *regexp.Regexp, text string) []string {
	matches := pattern.FindAllString(text, -1)
	if matches == nil {
		return make([]string, 0)
	}
	return matches
}

// sentiment collapses the hit balance to -1, 0 or 1.
func sentiment(text string) float64 {
	score := 0
	for _, token := range nonWordPattern.Split(text, -1) {
		if positiveWords[token] {
			score++
		}
		if negativeWords[token] {
			score--
		}
	}

	magnitude := score
	if magnitude < 0 {
		magnitude = -magnitude
	}
	if magnitude < 1 {
		magnitude = 1
	}
	return float64(score) / float64(magnitude)
}
