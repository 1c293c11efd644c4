// package diagnosis/questionnaire.go
package diagnosis

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"diagnosis-service/internal/domain"

	"github.com/schollz/closestmatch"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fields are the questionnaire answers sent to the model, in prompt order.
// Anything else in the questionnaire is left out to bound the prompt size.
var Fields = []string{
	"nomeCompleto",
	"idade",
	"rendaBruta",
	"patrimonioFinanceiro",
	"patrimonioImobiliario",
	"dividas",
	"objetivo",
	"horizonte",
	"perfilAnbima",
	"reacaoQuedas",
	"perdaMaxima",
	"experiencia",
	"estadoCivil",
	"dependentes",
}

// fuzzyPrefix is how many leading characters a fuzzy match must share with the key.
const fuzzyPrefix = 4

// Answer is one selected questionnaire field rendered as text.
type Answer struct {
	Key   string
	Value string
}

type keyMatcher struct {
	byFolded map[string]string
	cm       *closestmatch.ClosestMatch
}

func newKeyMatcher(fields []string) *keyMatcher {
	m := &keyMatcher{byFolded: make(map[string]string, len(fields))}
	folded := make([]string, 0, len(fields))
	for _, f := range fields {
		k := foldKey(f)
		m.byFolded[k] = f
		folded = append(folded, k)
	}
	m.cm = closestmatch.New(folded, []int{3, 4})
	return m
}

var fieldMatcher = newKeyMatcher(Fields)

// exact maps keys such as "Renda Bruta" or "renda_bruta" to "rendaBruta".
func (m *keyMatcher) exact(key string) (string, bool) {
	canonical, ok := m.byFolded[foldKey(key)]
	return canonical, ok
}

// fuzzy tolerates typos like "patrimonioFinanciero".
func (m *keyMatcher) fuzzy(key string) (string, bool) {
	k := foldKey(key)
	if len(k) < fuzzyPrefix {
		return "", false
	}
	match := m.cm.Closest(k)
	if match == "" || !strings.HasPrefix(match, k[:fuzzyPrefix]) {
		return "", false
	}
	return m.byFolded[match], true
}

// SelectAnswers keeps the non-empty allow-listed answers in Fields order.
// Exact key matches win over fuzzy ones.
func SelectAnswers(q domain.Questionnaire) []Answer {
	values := make(map[string]string, len(Fields))
	var unmatched []string

	for key, raw := range q {
		value, ok := answerText(raw)
		if !ok {
			continue
		}
		if canonical, ok := fieldMatcher.exact(key); ok {
			values[canonical] = value
			continue
		}
		unmatched = append(unmatched, key)
	}

	for _, key := range unmatched {
		canonical, ok := fieldMatcher.fuzzy(key)
		if !ok {
			continue
		}
		if _, taken := values[canonical]; taken {
			continue
		}
		value, _ := answerText(q[key])
		values[canonical] = value
	}

	answers := make([]Answer, 0, len(values))
	for _, field := range Fields {
		if v, ok := values[field]; ok {
			answers = append(answers, Answer{Key: field, Value: v})
		}
	}
	return answers
}

// answerText renders an answer and reports false for empty ones
// (nil, blank strings, false, zero and empty lists).
func answerText(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		if strings.TrimSpace(t) == "" {
			return "", false
		}
		return t, true
	case bool:
		if !t {
			return "", false
		}
		return "true", true
	case float64:
		if t == 0 {
			return "", false
		}
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case json.Number:
		if f, err := t.Float64(); err == nil && f == 0 {
			return "", false
		}
		return t.String(), true
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := answerText(item); ok {
				parts = append(parts, s)
			}
		}
		if len(parts) == 0 {
			return "", false
		}
		return strings.Join(parts, ","), true
	case map[string]any:
		if len(t) == 0 {
			return "", false
		}
		b, err := json.Marshal(t)
		if err != nil {
			return "", false
		}
		return string(b), true
	}

	rv := reflect.ValueOf(v)
	if rv.IsZero() {
		return "", false
	}
	return fmt.Sprint(v), true
}

// foldKey lower-cases the key, removes accents and drops non-alphanumerics.
func foldKey(key string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, key)
	if err != nil {
		folded = key
	}
	var sb strings.Builder
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
