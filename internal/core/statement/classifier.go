// package statement/classifier.go
package statement

import (
	"strings"
	"unicode"

	"diagnosis-service/internal/domain"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type categoryRule struct {
	category domain.StatementCategory
	keywords []string
}

// categoryRules is evaluated in order and the first rule with a matching keyword wins.
// Keywords are upper case without accents.
var categoryRules = []categoryRule{
	{domain.CategoryTreasury, []string{"TESOURO DIRETO", "B3"}},
	{domain.CategoryBrokerage, []string{"CORRETORA", "XP", "GENIAL", "CLEAR"}},
	{domain.CategoryBank, []string{"BANCO", "CDB", "LCI", "LCA"}},
	{domain.CategoryPension, []string{"PREVIDENCIA", "PGBL", "VGBL"}},
}

// Classify assigns exactly one category to the extracted text. It never fails:
// text that matches no rule, including empty text, is CategoryOther.
func Classify(text string) domain.StatementCategory {
	normalized := foldText(text)
	for _, rule := range categoryRules {
		if containsAny(normalized, rule.keywords) {
			return rule.category
		}
	}
	return domain.CategoryOther
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// foldText removes diacritics and upper-cases the text.
func foldText(str string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, str)
	if err != nil {
		result = str
	}
	return strings.ToUpper(result)
}
