package question

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/solarsys/core"
)

var (
	correctIndexTag  = "correctindex"
	correctIndexText = "correctIndex must point to one of the options"
)

// InitValidators registers the question validators on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(questionStructValidation, NewQuestion{})
	core.RegisterCustomTranslation(validate, translator, correctIndexTag, correctIndexText)
}

// questionStructValidation checks that the correct index points to one of the options.
func questionStructValidation(sl validator.StructLevel) {
	nq, ok := sl.Current().Interface().(NewQuestion)
	if !ok || nq.CorrectIndex == nil || len(nq.Options) < 2 {
		return // reported by field validation
	}
	if ci := *nq.CorrectIndex; ci < 0 || ci >= len(nq.Options) {
		sl.ReportError(nq.CorrectIndex, "correctIndex", "CorrectIndex", correctIndexTag, "")
	}
}
