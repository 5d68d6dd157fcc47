package services

import (
	"math"

	"github.com/manup/agenda/internal/common"
)

// BMIResult is a body mass index with its classification.
type BMIResult struct {
	Value    float64
	Category string
	Label    string
	Message  string
}

type bmiClass struct {
	upTo     float64
	category string
	label    string
	message  string
}

// classes are checked in order against the rounded value.
var bmiClasses = []bmiClass{
	{18.4, "underweight", "Magreza", "Seu IMC indica magreza. É importante buscar orientação profissional."},
	{24.9, "normal", "Peso Normal", "Parabéns! Seu IMC está na faixa ideal. Continue mantendo hábitos saudáveis."},
	{29.9, "overweight", "Sobrepeso", "Seu IMC indica sobrepeso. Pequenas mudanças na dieta e exercícios podem ajudar."},
	{math.Inf(1), "obese", "Obesidade", "Seu IMC indica obesidade. É recomendado procurar um médico."},
}

// ComputeBMI computes weight / height² from centimetres and kilograms,
// rounded to one decimal.
func ComputeBMI(heightCm, weightKg float64) (BMIResult, error) {
	if !(heightCm > 0) || !(weightKg > 0) || math.IsInf(heightCm, 0) || math.IsInf(weightKg, 0) {
		return BMIResult{}, common.ErrValidation
	}

	m := heightCm / 100
	value := math.Round(weightKg/(m*m)*10) / 10

	for _, c := range bmiClasses {
		if value <= c.upTo {
			return BMIResult{Value: value, Category: c.category, Label: c.label, Message: c.message}, nil
		}
	}
	// unreachable: the last class is unbounded
	return BMIResult{}, common.ErrorInternal
}
